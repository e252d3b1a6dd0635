package fs

import (
	"errors"
	iofs "io/fs"
	"sync"
)

// injectedPathErrors remembers every *fs.PathError produced by [Chaos].
//
// Chaos returns plain *fs.PathError values (not a wrapper type) so that
// os.IsNotExist, errors.Is(err, fs.ErrPermission) and friends keep working.
// The registry lets tests still tell injected faults from real ones.
var injectedPathErrors sync.Map // map[*fs.PathError]struct{}

func markInjectedPathError(err *iofs.PathError) {
	injectedPathErrors.Store(err, struct{}{})
}

// IsInjected reports whether err, or any error it wraps, was injected by
// [Chaos]. Returns false for nil.
func IsInjected(err error) bool {
	var pathErr *iofs.PathError
	if !errors.As(err, &pathErr) {
		return false
	}

	_, ok := injectedPathErrors.Load(pathErr)

	return ok
}
