package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"
)

// ClearCmd returns the clear command.
func ClearCmd(e *env) *Command {
	return &Command{
		Flags: flag.NewFlagSet("clear", flag.ContinueOnError),
		Usage: "clear",
		Short: "Remove all entries from the current cache",
		Long: `Remove all entries from the current cache.

The log is replaced atomically with an empty one. This also repairs a
damaged log.`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: clear takes none", errTooManyArgs)
			}

			if err := e.store.Clear(ctx, e.cfg.DefaultCache); err != nil {
				return err
			}

			io.Println("cleared", e.cfg.DefaultCache)

			return nil
		},
	}
}
