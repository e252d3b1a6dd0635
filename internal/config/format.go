package config

import (
	"strconv"
	"strings"
)

// Format renders the effective configuration as key=value lines, one per
// setting, using config file key names.
func Format(cfg Config) string {
	var b strings.Builder

	line := func(key, value string) {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte('\n')
	}

	line("effective_cwd", cfg.EffectiveCwd)
	line("data_dir", cfg.DataDirAbs)
	line("default_cache", cfg.DefaultCache)
	line("limit", strconv.Itoa(cfg.Limit))
	line("sync_writes", strconv.FormatBool(cfg.SyncWrites))
	line("no_lock", strconv.FormatBool(cfg.NoLock))
	line("lock_timeout", cfg.LockTimeout.String())
	line("no_tilde", strconv.FormatBool(cfg.NoTilde))
	line("log_level", cfg.LogLevel.String())

	if cfg.MetricsFile != "" {
		line("metrics_file", cfg.MetricsFile)
	}

	return strings.TrimSuffix(b.String(), "\n")
}
