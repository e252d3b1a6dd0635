package cli_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/dvd/internal/cli"
)

func Test_Get_Prints_Nothing_When_Cache_Empty(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, exitCode := c.Run("get")

	if exitCode != 0 || stdout != "" || stderr != "" {
		t.Fatalf("exit=%d stdout=%q stderr=%q, want 0 and no output", exitCode, stdout, stderr)
	}
}

func Test_Get_Lists_Distinct_Paths_Most_Recent_First_When_Visited_Repeatedly(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	a, b, d := c.Mkdir("a"), c.Mkdir("b"), c.Mkdir("d")

	for _, p := range []string{a, b, a, d, b} {
		c.MustRun("put", p)
	}

	got := cli.Lines(c.MustRun("get"))
	if diff := cmp.Diff([]string{b, d, a}, got); diff != "" {
		t.Fatalf("get mismatch (-want +got):\n%s", diff)
	}

	got = cli.Lines(c.MustRun("get", "-n", "2"))
	if diff := cmp.Diff([]string{b, d}, got); diff != "" {
		t.Fatalf("get -n 2 mismatch (-want +got):\n%s", diff)
	}
}

func Test_Get_Uses_Config_Limit_When_No_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("home/.config/dvd/config.json", `{"limit": 1}`)

	c.MustRun("put", c.Mkdir("a"))
	b := c.Mkdir("b")
	c.MustRun("put", b)

	if got := c.MustRun("get"); got != b {
		t.Fatalf("get=%q, want=%q", got, b)
	}

	if got := cli.Lines(c.MustRun("get", "--limit", "0")); len(got) != 2 {
		t.Fatalf("get --limit 0 returned %d lines, want 2", len(got))
	}
}

func Test_Get_Rejects_Negative_Limit(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("get", "-n", "-3")

	cli.AssertContains(t, stderr, "limit must be >= 0")
}

func Test_Get_Abbreviates_Home_When_Path_Under_Home(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	src := filepath.Join(c.Home(), "src")

	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	c.MustRun("put", src)
	c.MustRun("put", c.Home())

	got := cli.Lines(c.MustRun("get"))
	if diff := cmp.Diff([]string{"~", "~/src"}, got); diff != "" {
		t.Fatalf("get mismatch (-want +got):\n%s", diff)
	}

	got = cli.Lines(c.MustRun("get", "--raw"))
	if diff := cmp.Diff([]string{c.Home(), src}, got); diff != "" {
		t.Fatalf("get --raw mismatch (-want +got):\n%s", diff)
	}
}

func Test_Get_Prints_Full_Paths_When_No_Tilde_Configured(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("home/.config/dvd/config.json", `{"no_tilde": true}`)
	c.MustRun("put", c.Home())

	if got := c.MustRun("get"); got != c.Home() {
		t.Fatalf("get=%q, want=%q", got, c.Home())
	}
}

func Test_Get_Separates_With_NUL_When_Null_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	a, b := c.Mkdir("a"), c.Mkdir("b")
	c.MustRun("put", a)
	c.MustRun("put", b)

	stdout, _, exitCode := c.Run("get", "-0")
	if exitCode != 0 {
		t.Fatalf("exitCode=%d", exitCode)
	}

	if want := b + "\x00" + a + "\x00"; stdout != want {
		t.Fatalf("stdout=%q, want=%q", stdout, want)
	}
}

func Test_Get_Filters_By_Kind_When_Filter_Flags_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	dir := c.Mkdir("dir")
	gone := c.Mkdir("gone")
	file := c.WriteFile("notes.md", "x")

	for _, p := range []string{dir, gone, file} {
		c.MustRun("put", p)
	}

	if err := os.Remove(gone); err != nil {
		t.Fatalf("remove: %v", err)
	}

	cases := []struct {
		flag string
		want []string
	}{
		{"--dirs", []string{dir}},
		{"--files", []string{file}},
		{"--existing", []string{file, dir}},
	}

	for _, tc := range cases {
		got := cli.Lines(c.MustRun("get", tc.flag))
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("get %s mismatch (-want +got):\n%s", tc.flag, diff)
		}
	}

	if got := cli.Lines(c.MustRun("get")); len(got) != 3 {
		t.Fatalf("unfiltered get returned %d lines, want 3", len(got))
	}
}

func Test_Get_Rejects_Dirs_And_Files_Together(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("get", "--dirs", "--files")

	cli.AssertContains(t, stderr, "mutually exclusive")
}

func Test_Get_Prints_Partial_Result_And_Warns_When_Log_Corrupt(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	if err := os.MkdirAll(c.DataDir(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	// A footer that points before the start of the file.
	if err := os.WriteFile(c.LogPath("default"), []byte{0x40, 0x00}, 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	dir := c.Mkdir("survivor")
	c.MustRun("put", dir)

	stdout, stderr, exitCode := c.Run("get")

	if got, want := exitCode, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got := strings.TrimSpace(stdout); got != dir {
		t.Errorf("stdout=%q, want=%q", got, dir)
	}

	cli.AssertContains(t, stderr, "warning:")
	cli.AssertContains(t, stderr, "damaged")
	cli.AssertContains(t, stderr, "dvd clear")

	// Warning is printed before and after the output.
	if n := strings.Count(stderr, "warning:"); n != 2 {
		t.Errorf("warning printed %d times, want 2\nstderr:\n%s", n, stderr)
	}
}
