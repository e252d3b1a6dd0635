// logsh is an interactive shell for inspecting and editing a single dvd log
// file directly, bypassing cache names and config.
//
// Usage:
//
//	logsh [--sync] [--no-lock] <log-file>
//
// Commands (in REPL):
//
//	put <text>        Append a record (rest of line, verbatim)
//	get [n]           Show the n most recent distinct records (default 20)
//	walk [n]          Show the n newest physical entries with offsets
//	stat              Show file size and lock file
//	verify            Scan the whole log
//	clear             Empty the log (asks for confirmation)
//	help              Show this help
//	exit / quit / q   Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/dvd/pkg/fs"
	"github.com/calvinalkan/dvd/pkg/lrulog"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("logsh", flag.ContinueOnError)
	syncWrites := flags.Bool("sync", false, "fsync after every put")
	noLock := flags.Bool("no-lock", false, "do not take the write lock")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: logsh [options] <log-file>\n\n")
		fmt.Fprintf(os.Stderr, "Open a dvd log file. A missing file is an empty log.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}

		return err
	}

	if flags.NArg() != 1 {
		flags.Usage()

		return errors.New("expected exactly one log file path")
	}

	path, err := filepath.Abs(flags.Arg(0))
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	fsys := fs.NewReal()
	opts := lrulog.Options{Sync: *syncWrites}

	if !*noLock {
		opts.Locker = fs.NewLocker(fsys)
	}

	line := liner.NewLiner()
	defer line.Close()

	shell := &Shell{
		log: lrulog.Open(fsys, path, opts),
		out: os.Stdout,
		confirm: func(prompt string) bool {
			answer, err := line.Prompt(prompt + " (yes/no): ")
			if err != nil {
				return false
			}

			answer = strings.TrimSpace(strings.ToLower(answer))

			return answer == "yes" || answer == "y"
		},
	}

	return repl(line, shell)
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".logsh_history")
}

func repl(line *liner.State, shell *Shell) error {
	line.SetCtrlCAborts(true)
	line.SetCompleter(complete)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}

	defer saveHistory(line)

	fmt.Fprintf(shell.out, "logsh - %s\n", shell.log.Path())
	fmt.Fprintln(shell.out, "Type 'help' for available commands.")
	fmt.Fprintln(shell.out)

	for {
		input, err := line.Prompt("logsh> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(shell.out, "\nBye!")

				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		if strings.TrimSpace(input) == "" {
			continue
		}

		line.AppendHistory(input)

		if shell.Exec(input) {
			fmt.Fprintln(shell.out, "Bye!")

			return nil
		}
	}
}

func saveHistory(line *liner.State) {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
	}
}

func complete(line string) []string {
	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commandNames {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}
