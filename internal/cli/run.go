package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/calvinalkan/dvd/internal/cache"
	"github.com/calvinalkan/dvd/internal/config"
	"github.com/calvinalkan/dvd/internal/stats"
	"github.com/calvinalkan/dvd/internal/stats/logger"
	statsprom "github.com/calvinalkan/dvd/internal/stats/prometheus"
	"github.com/calvinalkan/dvd/pkg/fs"
)

// env is everything a command needs beyond its own flags.
type env struct {
	cfg   *config.Config
	fs    fs.FS
	store *cache.Store
}

// Run is the main entry point. Returns exit code.
//
// sigCh may be nil. A signal on it cancels the running command's context.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, environ map[string]string, sigCh <-chan os.Signal) int {
	globals, err := parseGlobalFlags(args[min(1, len(args)):])
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut, "run 'dvd --help' for usage")

		return 1
	}

	if globals.help || len(globals.remaining) == 0 {
		printUsage(out, nil)

		return 0
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: globals.workDir,
		ConfigPath:      globals.configPath,
		DataDirOverride: globals.dataDir,
		CacheOverride:   globals.cache,
		Verbose:         globals.verbose,
		Env:             environ,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	log := newLogger(errOut, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	registry := prometheus.NewRegistry()
	collector := stats.Multi{logger.New(log), statsprom.New(registry)}

	fsys := fs.NewReal()
	store := cache.New(fsys, cfg.DataDirAbs, cache.Options{
		Sync:        cfg.SyncWrites,
		NoLock:      cfg.NoLock,
		LockTimeout: cfg.LockTimeout,
		Logger:      log,
		Stats:       collector,
	})

	e := &env{cfg: &cfg, fs: fsys, store: store}

	commands := allCommands(e)

	name := globals.remaining[0]

	cmd, ok := commands[name]
	if !ok {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", errUnknownCommand, name))
		printUsage(errOut, commands)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case sig := <-sigCh:
				log.Debug("canceling on signal", zap.Stringer("signal", sig))
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	o := NewIO(out, errOut)
	code := cmd.Run(ctx, o, globals.remaining[1:])

	if cfg.MetricsFile != "" {
		if err := writeMetrics(cfg.MetricsFile, registry); err != nil {
			o.Warn(err.Error(), "check metrics_file in your config")
		}
	}

	return max(code, o.Finish())
}

func allCommands(e *env) map[string]*Command {
	list := []*Command{
		PutCmd(e),
		GetCmd(e),
		ClearCmd(e),
		CachesCmd(e),
		VerifyCmd(e),
		PrintConfigCmd(e.cfg),
	}

	commands := make(map[string]*Command, len(list))
	for _, c := range list {
		commands[c.Name()] = c
	}

	return commands
}

type globalFlags struct {
	workDir    string
	configPath string
	dataDir    string
	cache      string
	verbose    bool
	help       bool
	remaining  []string
}

// parseGlobalFlags parses flags up to the first non-flag argument, which is
// the command name.
func parseGlobalFlags(args []string) (globalFlags, error) {
	var g globalFlags

	flags := flag.NewFlagSet("dvd", flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(io.Discard)

	flags.StringVarP(&g.workDir, "cwd", "C", "", "Run as if started in `dir`")
	flags.StringVarP(&g.configPath, "config", "c", "", "Use specified config `file`")
	flags.StringVar(&g.dataDir, "data-dir", "", "Store caches in `dir`")
	flags.StringVar(&g.cache, "cache", "", "Use the cache called `name`")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "Log debug output to stderr")
	flags.BoolVarP(&g.help, "help", "h", false, "Show help")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			g.help = true

			return g, nil
		}

		return globalFlags{}, err
	}

	if flags.Changed("data-dir") && g.dataDir == "" {
		return globalFlags{}, config.ErrDataDirEmpty
	}

	if g.cache != "" {
		if err := cache.ValidateName(g.cache); err != nil {
			return globalFlags{}, err
		}
	}

	g.remaining = flags.Args()

	return g, nil
}

func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)

	return zap.New(core).Named("dvd")
}

func writeMetrics(path string, registry *prometheus.Registry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}

	return statsprom.WriteTextfile(path, registry)
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, commands map[string]*Command) {
	fprintln(w, `dvd - remember recently visited directories and files

Usage: dvd [options] <command> [args]

Options:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file
      --data-dir <dir>   Store caches in <dir>
      --cache <name>     Use the cache called <name> (default "default")
  -v, --verbose          Log debug output to stderr
  -h, --help             Show help

Commands:`)

	if commands == nil {
		commands = allCommands(&env{cfg: &config.Config{}})
	}

	for _, name := range commandOrder {
		if c, ok := commands[name]; ok {
			fprintln(w, c.HelpLine())
		}
	}

	fprintln(w, "\nRun 'dvd <command> --help' for command flags.")
}

var commandOrder = strings.Fields("put get clear caches verify print-config")
