package cli

import "errors"

var (
	errUnknownCommand  = errors.New("unknown command")
	errPathRequired    = errors.New("path is required")
	errTooManyArgs     = errors.New("too many arguments")
	errFilterExclusive = errors.New("--dirs and --files are mutually exclusive")
	errNegativeLimit   = errors.New("limit must be >= 0")
)
