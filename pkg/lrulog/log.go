package lrulog

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/calvinalkan/dvd/pkg/fs"
)

// DefaultLockTimeout bounds how long [Log] writers wait for the write lock.
const DefaultLockTimeout = 2 * time.Second

// Options configures a [Log].
type Options struct {
	// Sync fsyncs after every append.
	Sync bool

	// Locker serializes writers through an exclusive flock on "<path>.lock".
	// Nil disables locking; callers must then guarantee a single writer.
	Locker *fs.Locker

	// LockTimeout bounds the wait for the write lock.
	// Zero means [DefaultLockTimeout].
	LockTimeout time.Duration
}

// Log is a handle to one log file.
//
// A Log holds no open file between calls: every method opens, works on, and
// closes the file, so each read reflects what is on disk at call time.
// Log is safe for concurrent use.
type Log struct {
	fs   fs.FS
	path string
	opts Options
}

// Open returns a handle for the log at path. It does not touch the
// filesystem; a missing file is an empty log.
func Open(fsys fs.FS, path string, opts Options) *Log {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}

	return &Log{fs: fsys, path: path, opts: opts}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// LockPath returns the sidecar file writers lock.
func (l *Log) LockPath() string {
	return l.path + ".lock"
}

// Append adds record to the end of the log.
//
// Returns [ErrTooLarge] without writing or locking if record is too long,
// and an error matching [fs.ErrWouldBlock] if the write lock could not be
// acquired in time.
func (l *Log) Append(record []byte) error {
	if len(record) > MaxRecordLen {
		return fmt.Errorf("%w: %d bytes, max %d", ErrTooLarge, len(record), MaxRecordLen)
	}

	return l.withLock(func() error {
		return Append(l.fs, l.path, record, AppendOptions{Sync: l.opts.Sync})
	})
}

// MostRecent returns up to limit distinct records, most recent first.
// See [Scan].
func (l *Log) MostRecent(limit int) ([][]byte, error) {
	return MostRecent(l.fs, l.path, limit)
}

// Scan collects distinct records. See the package-level [Scan].
func (l *Log) Scan(opts ScanOptions) (Result, error) {
	return Scan(l.fs, l.path, opts)
}

// Walk calls fn for every physical entry, newest first, duplicates included.
// offset is where the entry's record starts in the file. Walk stops early
// when fn returns false.
//
// A missing log is walked as empty. Corruption is returned as a
// [*CorruptError] after fn has seen every entry before the damage.
func (l *Log) Walk(fn func(offset int64, record []byte) bool) error {
	f, err := l.fs.Open(l.path)
	if err != nil {
		if isNotExist(err) {
			return nil
		}

		return fmt.Errorf("opening log: %w", err)
	}

	defer func() { _ = f.Close() }()

	r, err := NewReader(f)
	if err != nil {
		return err
	}

	for {
		record, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			var corrupt *CorruptError
			if errors.As(err, &corrupt) {
				corrupt.Path = l.path
			}

			return err
		}

		if !fn(r.Offset(), record) {
			return nil
		}
	}
}

// Size returns the log length in bytes. A missing log has size 0.
func (l *Log) Size() (int64, error) {
	info, err := l.fs.Stat(l.path)
	if err != nil {
		if isNotExist(err) {
			return 0, nil
		}

		return 0, fmt.Errorf("stat log: %w", err)
	}

	return info.Size(), nil
}

// Clear atomically replaces the log with an empty file. Readers that already
// opened the old file keep reading it.
func (l *Log) Clear() error {
	return l.withLock(func() error {
		if err := l.fs.WriteFileAtomic(l.path, nil, logFilePerm); err != nil {
			return fmt.Errorf("clearing log: %w", err)
		}

		return nil
	})
}

// VerifyResult summarizes a full scan of a log.
type VerifyResult struct {
	// Entries is the number of physical entries.
	Entries int

	// Distinct is the number of distinct records.
	Distinct int

	// Bytes is the log size.
	Bytes int64
}

// Verify reads the whole log. On corruption it returns the counts gathered
// up to the damage together with a [*CorruptError].
func (l *Log) Verify() (VerifyResult, error) {
	res, err := l.Scan(ScanOptions{Limit: Unlimited})

	return VerifyResult{
		Entries:  res.Entries,
		Distinct: len(res.Records),
		Bytes:    res.Size,
	}, err
}

func (l *Log) withLock(fn func() error) (err error) {
	if l.opts.Locker == nil {
		return fn()
	}

	lock, err := l.opts.Locker.LockWithTimeout(l.LockPath(), l.opts.LockTimeout)
	if err != nil {
		return fmt.Errorf("acquiring write lock: %w", err)
	}

	defer func() {
		closeErr := lock.Close()
		if closeErr != nil {
			err = errors.Join(err, fmt.Errorf("releasing write lock: %w", closeErr))
		}
	}()

	return fn()
}
