package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// CachesCmd returns the caches command.
func CachesCmd(e *env) *Command {
	return &Command{
		Flags: flag.NewFlagSet("caches", flag.ContinueOnError),
		Usage: "caches",
		Short: "List caches and their log sizes",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			infos, err := e.store.Caches()
			if err != nil {
				return err
			}

			if len(infos) == 0 {
				io.ErrPrintln("no caches in", e.cfg.DataDirAbs)

				return nil
			}

			for _, info := range infos {
				marker := " "
				if info.Name == e.cfg.DefaultCache {
					marker = "*"
				}

				io.Printf("%s %-24s %10d\n", marker, info.Name, info.Size)
			}

			return nil
		},
	}
}
