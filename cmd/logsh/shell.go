package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/calvinalkan/dvd/pkg/lrulog"
)

const defaultShowLimit = 20

var commandNames = []string{
	"put", "get", "walk", "stat", "verify", "clear",
	"help", "exit", "quit", "q",
}

// Shell executes REPL commands against one log.
type Shell struct {
	log     *lrulog.Log
	out     io.Writer
	confirm func(prompt string) bool
}

// Exec runs one input line. Returns true when the shell should exit.
func (s *Shell) Exec(input string) bool {
	cmd, rest, _ := strings.Cut(strings.TrimLeft(input, " \t"), " ")
	cmd = strings.ToLower(cmd)

	switch cmd {
	case "exit", "quit", "q":
		return true
	case "help", "?":
		s.printHelp()
	case "put":
		s.cmdPut(rest)
	case "get":
		s.cmdGet(rest)
	case "walk":
		s.cmdWalk(rest)
	case "stat":
		s.cmdStat()
	case "verify":
		s.cmdVerify()
	case "clear":
		s.cmdClear()
	default:
		s.printf("Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	return false
}

func (s *Shell) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Shell) printHelp() {
	s.printf("Commands:\n")
	s.printf("  put <text>        Append a record (rest of line, verbatim)\n")
	s.printf("  get [n]           Show the n most recent distinct records (default %d)\n", defaultShowLimit)
	s.printf("  walk [n]          Show the n newest physical entries with offsets\n")
	s.printf("  stat              Show file size and lock file\n")
	s.printf("  verify            Scan the whole log\n")
	s.printf("  clear             Empty the log\n")
	s.printf("  help              Show this help\n")
	s.printf("  exit / quit / q   Exit\n")
}

func parseLimit(arg string) (int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return defaultShowLimit, nil
	}

	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("parsing limit: %w", err)
	}

	if n < 0 {
		return 0, fmt.Errorf("limit must be >= 0, got %d", n)
	}

	return n, nil
}

func (s *Shell) cmdPut(text string) {
	if text == "" {
		s.printf("Usage: put <text>\n")

		return
	}

	if err := s.log.Append([]byte(text)); err != nil {
		s.printf("Error: %v\n", err)

		return
	}

	s.printf("OK (%d bytes)\n", lrulog.EncodedLen([]byte(text)))
}

func (s *Shell) cmdGet(arg string) {
	limit, err := parseLimit(arg)
	if err != nil {
		s.printf("Error: %v\n", err)

		return
	}

	records, err := s.log.MostRecent(limit)

	if len(records) == 0 && err == nil {
		s.printf("(empty)\n")

		return
	}

	for i, rec := range records {
		s.printf("%3d. %q\n", i+1, rec)
	}

	if err != nil {
		s.printf("Error: %v\n", err)
	}
}

func (s *Shell) cmdWalk(arg string) {
	limit, err := parseLimit(arg)
	if err != nil {
		s.printf("Error: %v\n", err)

		return
	}

	shown := 0

	err = s.log.Walk(func(offset int64, rec []byte) bool {
		if shown >= limit {
			return false
		}

		shown++
		s.printf("@%-8d len=%-5d %q\n", offset, len(rec), rec)

		return true
	})

	if shown == 0 && err == nil {
		s.printf("(empty)\n")
	}

	if err != nil {
		s.printf("Error: %v\n", err)
	}
}

func (s *Shell) cmdStat() {
	size, err := s.log.Size()
	if err != nil {
		s.printf("Error: %v\n", err)

		return
	}

	s.printf("  Path:       %s\n", s.log.Path())
	s.printf("  Size:       %d bytes\n", size)
	s.printf("  Lock file:  %s\n", s.log.LockPath())
}

func (s *Shell) cmdVerify() {
	res, err := s.log.Verify()

	s.printf("  Entries:    %d\n", res.Entries)
	s.printf("  Distinct:   %d\n", res.Distinct)
	s.printf("  Bytes:      %d\n", res.Bytes)

	var corrupt *lrulog.CorruptError

	switch {
	case errors.As(err, &corrupt):
		s.printf("  Status:     CORRUPT (%v)\n", corrupt)
	case err != nil:
		s.printf("Error: %v\n", err)
	default:
		s.printf("  Status:     ok\n")
	}
}

func (s *Shell) cmdClear() {
	if s.confirm != nil && !s.confirm("Remove every entry from this log?") {
		s.printf("Cancelled.\n")

		return
	}

	if err := s.log.Clear(); err != nil {
		s.printf("Error: %v\n", err)

		return
	}

	s.printf("Cleared.\n")
}
