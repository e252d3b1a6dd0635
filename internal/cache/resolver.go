package cache

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/dvd/pkg/fs"
)

// LogExt is appended to a cache name to form its log file name.
const LogExt = ".log"

// MaxNameLen is the longest accepted cache name.
const MaxNameLen = 64

// ErrInvalidName is returned for cache names that cannot be used as a file
// name.
var ErrInvalidName = errors.New("invalid cache name")

const dataDirPerm = 0o755

// Resolver maps cache names to log files inside one data directory.
type Resolver struct {
	fs  fs.FS
	dir string
}

// NewResolver returns a Resolver for caches under dir.
func NewResolver(fsys fs.FS, dir string) *Resolver {
	return &Resolver{fs: fsys, dir: dir}
}

// Dir returns the data directory.
func (r *Resolver) Dir() string {
	return r.dir
}

// Path returns "<dir>/<name>.log" without touching the filesystem.
func (r *Resolver) Path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	return filepath.Join(r.dir, name+LogExt), nil
}

// Resolve is [Resolver.Path] plus creating the data directory.
func (r *Resolver) Resolve(name string) (string, error) {
	path, err := r.Path(name)
	if err != nil {
		return "", err
	}

	if err := r.fs.MkdirAll(r.dir, dataDirPerm); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}

	return path, nil
}

// ValidateName checks that name is 1 to [MaxNameLen] bytes of
// [A-Za-z0-9._-] and does not start with a dot.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}

	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: %d bytes, max %d", ErrInvalidName, len(name), MaxNameLen)
	}

	if name[0] == '.' {
		return fmt.Errorf("%w %q: must not start with '.'", ErrInvalidName, name)
	}

	for i := range len(name) {
		if !isNameByte(name[i]) {
			return fmt.Errorf("%w %q: only letters, digits, '.', '_' and '-' allowed", ErrInvalidName, name)
		}
	}

	return nil
}

func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	default:
		return strings.IndexByte("._-", c) >= 0
	}
}
