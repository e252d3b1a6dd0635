package config

import "errors"

// Error variables for configuration loading.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDataDirEmpty       = errors.New("data_dir cannot be empty")
	ErrNoDataDir          = errors.New("cannot determine data directory (set $XDG_DATA_HOME, $HOME or data_dir)")
	ErrNoWorkDir          = errors.New("cannot get working directory")
	ErrInvalidLimit       = errors.New("limit must be >= 0")
	ErrInvalidLockTimeout = errors.New("lock_timeout must be a positive duration")
	ErrInvalidLogLevel    = errors.New("invalid log_level (valid: debug, info, warn, error)")
)
