package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// VerifyCmd returns the verify command.
func VerifyCmd(e *env) *Command {
	return &Command{
		Flags: flag.NewFlagSet("verify", flag.ContinueOnError),
		Usage: "verify",
		Short: "Check that the current cache log is readable",
		Long: `Read the whole log of the current cache and report what it holds.

Prints entries (physical records, duplicates included), distinct records
and the log size. Exits 1 if the log is damaged; the counts then cover
the records read before the damage was reached.`,
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			res, err := e.store.Verify(ctx, e.cfg.DefaultCache)

			io.Printf("entries=%d distinct=%d bytes=%d\n", res.Entries, res.Distinct, res.Bytes)

			return err
		},
	}
}
