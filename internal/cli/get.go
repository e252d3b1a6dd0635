package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/dvd/internal/cache"
	"github.com/calvinalkan/dvd/internal/record"
	"github.com/calvinalkan/dvd/pkg/lrulog"
)

// GetCmd returns the get command.
func GetCmd(e *env) *Command {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.IntP("limit", "n", e.cfg.Limit, "Maximum entries to show (0 = all)")
	fs.Bool("dirs", false, "Only show entries that are directories now")
	fs.Bool("files", false, "Only show entries that are files now")
	fs.Bool("existing", false, "Only show entries that still exist")
	fs.Bool("raw", false, "Print full paths (no ~ for $HOME)")
	fs.BoolP("null", "0", false, "Separate entries with NUL instead of newline")

	return &Command{
		Flags: fs,
		Usage: "get [flags]",
		Short: "List recent entries, most recent first",
		Long: `List distinct entries of the current cache, most recent first.

Each entry is shown once, at the position of its latest visit. Paths under
$HOME are shown as ~/... unless --raw is given or no_tilde is set.

If the cache log is damaged, everything recovered before the damage is
printed, a warning is shown, and the exit code is 1.

Examples:
  dvd get -n 10                      # ten most recent
  dvd get --dirs --existing          # directories that still exist
  dvd get --raw -0 | fzf --read0     # feed a fuzzy finder

  # jump with fzf (bash):
  cd "$(dvd get --dirs --raw | fzf)"`,
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			limit, _ := fs.GetInt("limit")
			dirs, _ := fs.GetBool("dirs")
			files, _ := fs.GetBool("files")
			existing, _ := fs.GetBool("existing")
			raw, _ := fs.GetBool("raw")
			null, _ := fs.GetBool("null")

			return execGet(ctx, io, e, getOptions{
				limit:    limit,
				dirs:     dirs,
				files:    files,
				existing: existing,
				raw:      raw,
				null:     null,
			})
		},
	}
}

type getOptions struct {
	limit    int
	dirs     bool
	files    bool
	existing bool
	raw      bool
	null     bool
}

func execGet(ctx context.Context, io *IO, e *env, opts getOptions) error {
	if opts.limit < 0 {
		return fmt.Errorf("%w, got %d", errNegativeLimit, opts.limit)
	}

	if opts.dirs && opts.files {
		return errFilterExclusive
	}

	limit := opts.limit
	if limit == 0 {
		limit = lrulog.Unlimited
	}

	var kinds []record.Kind

	switch {
	case opts.dirs:
		kinds = []record.Kind{record.KindDir}
	case opts.files:
		kinds = []record.Kind{record.KindFile}
	case opts.existing:
		kinds = []record.Kind{record.KindDir, record.KindFile}
	}

	name := e.cfg.DefaultCache

	records, err := e.store.Get(ctx, name, cache.GetOptions{
		Limit: limit,
		Keep:  record.KindFilter(e.fs, kinds...),
	})
	if err != nil && !errors.Is(err, lrulog.ErrCorrupt) {
		return err
	}

	if err != nil {
		io.Warn(fmt.Sprintf("cache %q is damaged, showing %d entries recovered before the damage (%v)", name, len(records), err),
			"run 'dvd verify' for details or 'dvd clear' to reset the cache")
	}

	home := ""
	if !opts.raw && !e.cfg.NoTilde {
		home = canonicalHome(e)
	}

	sep := "\n"
	if opts.null {
		sep = "\x00"
	}

	for _, rec := range records {
		io.Printf("%s%s", record.Display(string(rec), home), sep)
	}

	return nil
}

// canonicalHome resolves symlinks in $HOME so it compares equal to the
// canonical paths stored by put.
func canonicalHome(e *env) string {
	if e.cfg.Home == "" {
		return ""
	}

	resolved, err := e.fs.EvalSymlinks(e.cfg.Home)
	if err != nil {
		return e.cfg.Home
	}

	return resolved
}
