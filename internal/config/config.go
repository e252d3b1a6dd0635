// Package config loads dvd configuration from layered JSONC files.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
	"go.uber.org/zap/zapcore"
)

// DefaultCache is the cache used when neither config nor flags name one.
const DefaultCache = "default"

// Config holds all configuration options.
type Config struct {
	DataDir      string
	DefaultCache string

	// Limit is the default result count for get. 0 means all.
	Limit int

	SyncWrites  bool
	NoLock      bool
	LockTimeout time.Duration
	NoTilde     bool
	LogLevel    zapcore.Level
	MetricsFile string

	// Resolved (computed, not serialized)
	EffectiveCwd string
	DataDirAbs   string
	Home         string

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global   string // Path to global config if loaded, empty otherwise
	Explicit string // Path to --config file, empty otherwise
}

// fileConfig is the on-disk shape. Pointers distinguish "unset" from the
// zero value so later layers can set false or 0 explicitly.
type fileConfig struct {
	DataDir      *string `json:"data_dir"`
	DefaultCache *string `json:"default_cache"`
	Limit        *int    `json:"limit"`
	SyncWrites   *bool   `json:"sync_writes"`
	NoLock       *bool   `json:"no_lock"`
	LockTimeout  *string `json:"lock_timeout"`
	NoTilde      *bool   `json:"no_tilde"`
	LogLevel     *string `json:"log_level"`
	MetricsFile  *string `json:"metrics_file"`
}

// Default returns the default configuration. DataDir is left empty and
// derived from the environment by [Load].
func Default() Config {
	return Config{
		DefaultCache: DefaultCache,
		LockTimeout:  2 * time.Second,
		LogLevel:     zapcore.WarnLevel,
	}
}

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/dvd/config.json if set, otherwise ~/.config/dvd/config.json.
// Returns empty string if home directory cannot be determined.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "dvd", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "dvd", "config.json")
	}

	return ""
}

// defaultDataDir returns $XDG_DATA_HOME/dvd or ~/.local/share/dvd.
func defaultDataDir(env map[string]string) string {
	if xdgData := env["XDG_DATA_HOME"]; xdgData != "" {
		return filepath.Join(xdgData, "dvd")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".local", "share", "dvd")
	}

	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	DataDirOverride string            // --data-dir flag value; empty means no override
	CacheOverride   string            // --cache flag value; empty means no override
	Verbose         bool              // -v/--verbose forces debug logging
	Env             map[string]string // environment variables
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/dvd/config.json or $XDG_CONFIG_HOME/dvd/config.json)
// 3. Explicit config file via ConfigPath (if non-empty, must exist)
// 4. CLI overrides.
//
// DataDirAbs is always absolute. A leading "~/" in data_dir or
// metrics_file expands to $HOME.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrNoWorkDir, err)
		}
	} else if !filepath.IsAbs(workDir) {
		abs, err := filepath.Abs(workDir)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrNoWorkDir, err)
		}

		workDir = abs
	}

	cfg := Default()
	cfg.DataDir = defaultDataDir(input.Env)

	globalPath := getGlobalConfigPath(input.Env)
	if globalPath != "" {
		layer, loaded, err := loadConfigFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = globalPath

			cfg, err = merge(cfg, layer, globalPath)
			if err != nil {
				return Config{}, err
			}
		}
	}

	if input.ConfigPath != "" {
		explicitPath := input.ConfigPath
		if !filepath.IsAbs(explicitPath) {
			explicitPath = filepath.Join(workDir, explicitPath)
		}

		if _, statErr := os.Stat(explicitPath); statErr != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, input.ConfigPath)
		}

		layer, _, err := loadConfigFile(explicitPath, true)
		if err != nil {
			return Config{}, err
		}

		cfg.Sources.Explicit = explicitPath

		cfg, err = merge(cfg, layer, explicitPath)
		if err != nil {
			return Config{}, err
		}
	}

	if input.DataDirOverride != "" {
		cfg.DataDir = input.DataDirOverride
	}

	if input.CacheOverride != "" {
		cfg.DefaultCache = input.CacheOverride
	}

	if input.Verbose {
		cfg.LogLevel = zapcore.DebugLevel
	}

	if cfg.DataDir == "" {
		return Config{}, ErrNoDataDir
	}

	cfg.EffectiveCwd = workDir
	cfg.Home = input.Env["HOME"]
	cfg.DataDir = expandHome(cfg.DataDir, cfg.Home)
	cfg.MetricsFile = expandHome(cfg.MetricsFile, cfg.Home)

	if filepath.IsAbs(cfg.DataDir) {
		cfg.DataDirAbs = filepath.Clean(cfg.DataDir)
	} else {
		cfg.DataDirAbs = filepath.Join(workDir, cfg.DataDir)
	}

	if cfg.MetricsFile != "" && !filepath.IsAbs(cfg.MetricsFile) {
		cfg.MetricsFile = filepath.Join(workDir, cfg.MetricsFile)
	}

	return cfg, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return a zero layer. Returns the layer, whether the file was loaded, and
// any error.
func loadConfigFile(path string, mustExist bool) (fileConfig, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return fileConfig{}, false, nil
		}

		return fileConfig{}, false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	layer, err := parseConfig(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return layer, true, nil
}

func parseConfig(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var layer fileConfig

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&layer); err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return layer, nil
}

// merge applies every field set in layer on top of base. path is only used
// in error messages.
func merge(base Config, layer fileConfig, path string) (Config, error) {
	invalid := func(err error) error {
		return fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	if layer.DataDir != nil {
		if *layer.DataDir == "" {
			return Config{}, invalid(ErrDataDirEmpty)
		}

		base.DataDir = *layer.DataDir
	}

	if layer.DefaultCache != nil && *layer.DefaultCache != "" {
		base.DefaultCache = *layer.DefaultCache
	}

	if layer.Limit != nil {
		if *layer.Limit < 0 {
			return Config{}, invalid(fmt.Errorf("%w, got %d", ErrInvalidLimit, *layer.Limit))
		}

		base.Limit = *layer.Limit
	}

	if layer.SyncWrites != nil {
		base.SyncWrites = *layer.SyncWrites
	}

	if layer.NoLock != nil {
		base.NoLock = *layer.NoLock
	}

	if layer.LockTimeout != nil {
		d, err := time.ParseDuration(*layer.LockTimeout)
		if err != nil || d <= 0 {
			return Config{}, invalid(fmt.Errorf("%w, got %q", ErrInvalidLockTimeout, *layer.LockTimeout))
		}

		base.LockTimeout = d
	}

	if layer.NoTilde != nil {
		base.NoTilde = *layer.NoTilde
	}

	if layer.LogLevel != nil {
		lvl, err := parseLogLevel(*layer.LogLevel)
		if err != nil {
			return Config{}, invalid(err)
		}

		base.LogLevel = lvl
	}

	if layer.MetricsFile != nil {
		base.MetricsFile = *layer.MetricsFile
	}

	return base, nil
}

func parseLogLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf("%w, got %q", ErrInvalidLogLevel, s)
	}
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}

	if path == "~" {
		return home
	}

	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}

	return path
}
