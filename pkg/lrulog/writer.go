package lrulog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/calvinalkan/dvd/pkg/fs"
)

const logFilePerm = 0o644

// AppendOptions configures [Append].
type AppendOptions struct {
	// Sync calls fsync after the write. Off by default: a lost tail entry
	// after power loss only costs one cache entry.
	Sync bool
}

// Append encodes record and appends it to the log at path with a single
// write, creating the file if needed. The parent directory must exist.
//
// Append never reads the existing file. It takes no lock; concurrent writers
// must be serialized by the caller (see [Log]).
//
// Returns [ErrTooLarge] before touching the filesystem if the record does not
// fit a footer.
func Append(fsys fs.FS, path string, record []byte, opts AppendOptions) error {
	entry, err := Encode(record)
	if err != nil {
		return err
	}

	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, logFilePerm)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}

	n, writeErr := f.Write(entry)
	if writeErr == nil && n != len(entry) {
		writeErr = io.ErrShortWrite
	}

	var syncErr error
	if writeErr == nil && opts.Sync {
		syncErr = f.Sync()
	}

	closeErr := f.Close()

	if writeErr != nil {
		return fmt.Errorf("appending to log: %w", writeErr)
	}

	if syncErr != nil {
		return fmt.Errorf("syncing log: %w", syncErr)
	}

	if closeErr != nil {
		return fmt.Errorf("closing log: %w", closeErr)
	}

	return nil
}

// isNotExist reports whether err means the log file is absent.
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
