package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CLI provides a clean interface for running CLI commands in tests.
// It manages a temp directory, a fake $HOME inside it, and environment
// variables.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

// NewCLI creates a new test CLI with a temp directory. $HOME points at
// Dir/home, so caches land in Dir/home/.local/share/dvd.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolving temp dir: %v", err)
	}

	home := filepath.Join(dir, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("creating home: %v", err)
	}

	return &CLI{
		t:   t,
		Dir: dir,
		Env: map[string]string{"HOME": home},
	}
}

// Home returns the fake $HOME.
func (r *CLI) Home() string {
	return r.Env["HOME"]
}

// DataDir returns the default data directory.
func (r *CLI) DataDir() string {
	return filepath.Join(r.Home(), ".local", "share", "dvd")
}

// LogPath returns the log file of the named cache in the default data
// directory.
func (r *CLI) LogPath(cache string) string {
	return filepath.Join(r.DataDir(), cache+".log")
}

// Mkdir creates a directory under Dir and returns its absolute path.
func (r *CLI) Mkdir(rel string) string {
	r.t.Helper()

	path := filepath.Join(r.Dir, rel)
	if err := os.MkdirAll(path, 0o755); err != nil {
		r.t.Fatalf("mkdir %s: %v", rel, err)
	}

	return path
}

// WriteFile writes content to a file under Dir and returns its absolute path.
func (r *CLI) WriteFile(rel, content string) string {
	r.t.Helper()

	path := filepath.Join(r.Dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("mkdir for %s: %v", rel, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		r.t.Fatalf("write %s: %v", rel, err)
	}

	return path
}

// Run executes the CLI with the given args and returns stdout, stderr, and exit code.
// Args should not include "dvd" or "--cwd" - those are added automatically.
func (r *CLI) Run(args ...string) (string, string, int) {
	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"dvd", "--cwd", r.Dir}, args...)
	code := Run(nil, &outBuf, &errBuf, fullArgs, r.Env, nil)

	return outBuf.String(), errBuf.String(), code
}

// MustRun executes the CLI and fails the test if the command returns non-zero.
// Returns trimmed stdout on success.
func (r *CLI) MustRun(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code != 0 {
		r.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail executes the CLI and fails the test if the command succeeds.
// Also fails if stdout is not empty. Returns trimmed stderr.
func (r *CLI) MustFail(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code == 0 {
		r.t.Fatalf("command %v should have failed but succeeded\nstdout: %s", args, stdout)
	}

	if stdout != "" {
		r.t.Fatalf("command %v failed but stdout should be empty\nstdout: %s", args, stdout)
	}

	return strings.TrimSpace(stderr)
}

// Lines splits trimmed output into lines. Empty output has no lines.
func Lines(out string) []string {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}

	return strings.Split(out, "\n")
}

// AssertContains fails the test if content doesn't contain substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("content should contain %q\ncontent:\n%s", substr, content)
	}
}

// AssertNotContains fails the test if content contains substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if strings.Contains(content, substr) {
		t.Errorf("content should NOT contain %q\ncontent:\n%s", substr, content)
	}
}
