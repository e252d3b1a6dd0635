package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/dvd/internal/record"
)

// PutCmd returns the put command.
func PutCmd(e *env) *Command {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	fs.Bool("raw", false, "Store the argument as-is instead of as a canonical path")

	return &Command{
		Flags: fs,
		Usage: "put [--raw] <path>",
		Short: "Record a visit to <path>",
		Long: `Record a visit to <path> in the current cache.

The path is made absolute (relative to --cwd) and symlinks are resolved, so
every spelling of the same directory is one entry. The path must exist.

With --raw the argument is stored byte for byte and may be any text up to
65535 bytes.

Examples:
  dvd put .                          # record the current directory
  dvd --cache files put notes.md     # record a file in the "files" cache

  # shell hook (bash):
  PROMPT_COMMAND='dvd put "$PWD"'`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			raw, _ := fs.GetBool("raw")

			return execPut(ctx, io, e, raw, args)
		},
	}
}

func execPut(ctx context.Context, _ *IO, e *env, raw bool, args []string) error {
	if len(args) == 0 {
		return errPathRequired
	}

	if len(args) > 1 {
		return fmt.Errorf("%w: put takes one path, got %d", errTooManyArgs, len(args))
	}

	rec := args[0]

	if !raw {
		canonical, err := record.Canonicalize(e.fs, rec, e.cfg.EffectiveCwd)
		if err != nil {
			return err
		}

		rec = canonical
	}

	return e.store.Put(ctx, e.cfg.DefaultCache, []byte(rec))
}
