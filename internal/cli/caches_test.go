package cli_test

import (
	"testing"

	"github.com/calvinalkan/dvd/internal/cli"
)

func Test_Caches_Reports_None_When_Nothing_Stored(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("caches")

	if exitCode != 0 || stdout != "" {
		t.Fatalf("exit=%d stdout=%q, want 0 and empty", exitCode, stdout)
	}

	cli.AssertContains(t, stderr, "no caches")
}

func Test_Caches_Lists_Each_Cache_And_Marks_Current(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("put", "--raw", "abc")
	c.MustRun("--cache", "work", "put", "--raw", "abcdef")

	lines := cli.Lines(c.MustRun("caches"))
	if len(lines) != 2 {
		t.Fatalf("caches printed %d lines, want 2:\n%v", len(lines), lines)
	}

	cli.AssertContains(t, lines[0], "* default")
	cli.AssertContains(t, lines[0], " 5")
	cli.AssertContains(t, lines[1], "  work")
	cli.AssertContains(t, lines[1], " 8")

	lines = cli.Lines(c.MustRun("--cache", "work", "caches"))
	cli.AssertContains(t, lines[1], "* work")
}
