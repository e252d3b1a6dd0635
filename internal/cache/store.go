// Package cache manages named most-recently-used caches, one log file each.
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calvinalkan/dvd/internal/stats"
	"github.com/calvinalkan/dvd/pkg/fs"
	"github.com/calvinalkan/dvd/pkg/lrulog"
)

// Options configures a [Store].
type Options struct {
	// Sync fsyncs every append.
	Sync bool

	// NoLock disables the per-cache write lock.
	NoLock bool

	// LockTimeout bounds the wait for a write lock. Zero means
	// [lrulog.DefaultLockTimeout].
	LockTimeout time.Duration

	// Logger receives debug traces of every operation. Nil discards.
	Logger *zap.Logger

	// Stats receives metrics. Nil discards.
	Stats stats.Collector
}

// GetOptions configures [Store.Get].
type GetOptions struct {
	// Limit caps the result. [lrulog.Unlimited] returns everything, zero
	// returns nothing.
	Limit int

	// Keep filters records; see [lrulog.ScanOptions].
	Keep func(record []byte) bool
}

// Info describes one cache on disk.
type Info struct {
	Name string
	Path string
	Size int64
}

// Store opens named caches under a data directory.
//
// Every call opens and closes the log; nothing is cached in memory, so
// results always reflect the log on disk.
type Store struct {
	fs       fs.FS
	resolver *Resolver
	locker   *fs.Locker
	opts     Options
	logger   *zap.Logger
	stats    stats.Collector
}

// New returns a Store for caches in dir.
func New(fsys fs.FS, dir string, opts Options) *Store {
	s := &Store{
		fs:       fsys,
		resolver: NewResolver(fsys, dir),
		opts:     opts,
		logger:   opts.Logger,
		stats:    opts.Stats,
	}

	if !opts.NoLock {
		s.locker = fs.NewLocker(fsys)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if s.stats == nil {
		s.stats = stats.NewNoop()
	}

	return s
}

// Resolver returns the name-to-path mapping used by s.
func (s *Store) Resolver() *Resolver {
	return s.resolver
}

func (s *Store) open(path string) *lrulog.Log {
	return lrulog.Open(s.fs, path, lrulog.Options{
		Sync:        s.opts.Sync,
		Locker:      s.locker,
		LockTimeout: s.opts.LockTimeout,
	})
}

// Put appends record to the named cache, creating it if needed.
func (s *Store) Put(ctx context.Context, name string, record []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.resolver.Resolve(name)
	if err != nil {
		return err
	}

	start := time.Now()

	err = s.open(path).Append(record)
	if err != nil {
		s.stats.IncCounter(stats.MetricPutErrors, 1)

		if errors.Is(err, fs.ErrWouldBlock) {
			s.stats.IncCounter(stats.MetricLockTimeouts, 1)
		}

		s.logger.Debug("put failed", zap.String("cache", name), zap.Error(err))

		return fmt.Errorf("put %s: %w", name, err)
	}

	s.stats.IncCounter(stats.MetricPuts, 1)
	s.logger.Debug("put",
		zap.String("cache", name),
		zap.Int("bytes", len(record)),
		zap.Duration("took", time.Since(start)),
	)

	return nil
}

// Get returns distinct records from the named cache, most recent first.
// An unknown cache is empty.
//
// On corruption Get returns the records recovered before the damage and an
// error matching [lrulog.ErrCorrupt].
func (s *Store) Get(ctx context.Context, name string, opts GetOptions) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.resolver.Path(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	res, err := s.open(path).Scan(lrulog.ScanOptions{Limit: opts.Limit, Keep: opts.Keep})

	s.stats.IncCounter(stats.MetricGets, 1)
	s.stats.IncCounter(stats.MetricRecordsReturned, int64(len(res.Records)))
	s.stats.ObserveHistogram(stats.MetricEntriesScanned, float64(res.Entries))
	s.stats.ObserveHistogram(stats.MetricBytesScanned, float64(res.BytesRead))
	s.stats.SetGauge(stats.MetricLogSize, res.Size)

	fields := []zap.Field{
		zap.String("cache", name),
		zap.Int("limit", opts.Limit),
		zap.Int("records", len(res.Records)),
		zap.Int("entries", res.Entries),
		zap.Int64("bytes_read", res.BytesRead),
		zap.Int64("size", res.Size),
		zap.Duration("took", time.Since(start)),
	}

	if err != nil {
		if errors.Is(err, lrulog.ErrCorrupt) {
			s.stats.IncCounter(stats.MetricCorruptLogs, 1)
		}

		s.logger.Debug("get failed", append(fields, zap.Error(err))...)

		return res.Records, fmt.Errorf("get %s: %w", name, err)
	}

	s.logger.Debug("get", fields...)

	return res.Records, nil
}

// Clear empties the named cache.
func (s *Store) Clear(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.resolver.Resolve(name)
	if err != nil {
		return err
	}

	if err := s.open(path).Clear(); err != nil {
		if errors.Is(err, fs.ErrWouldBlock) {
			s.stats.IncCounter(stats.MetricLockTimeouts, 1)
		}

		return fmt.Errorf("clear %s: %w", name, err)
	}

	s.stats.IncCounter(stats.MetricClears, 1)
	s.stats.SetGauge(stats.MetricLogSize, 0)
	s.logger.Debug("clear", zap.String("cache", name))

	return nil
}

// Verify scans the whole named cache. See [lrulog.Log.Verify].
func (s *Store) Verify(ctx context.Context, name string) (lrulog.VerifyResult, error) {
	if err := ctx.Err(); err != nil {
		return lrulog.VerifyResult{}, err
	}

	path, err := s.resolver.Path(name)
	if err != nil {
		return lrulog.VerifyResult{}, err
	}

	res, err := s.open(path).Verify()

	s.stats.SetGauge(stats.MetricLogSize, res.Bytes)
	s.logger.Debug("verify",
		zap.String("cache", name),
		zap.Int("entries", res.Entries),
		zap.Int("distinct", res.Distinct),
		zap.Int64("bytes", res.Bytes),
		zap.Error(err),
	)

	if err != nil {
		if errors.Is(err, lrulog.ErrCorrupt) {
			s.stats.IncCounter(stats.MetricCorruptLogs, 1)
		}

		return res, fmt.Errorf("verify %s: %w", name, err)
	}

	return res, nil
}

// Caches lists the caches in the data directory, sorted by name.
// A missing data directory has no caches.
func (s *Store) Caches() ([]Info, error) {
	exists, err := s.fs.Exists(s.resolver.Dir())
	if err != nil {
		return nil, fmt.Errorf("listing caches: %w", err)
	}

	if !exists {
		return nil, nil
	}

	entries, err := s.fs.ReadDir(s.resolver.Dir())
	if err != nil {
		return nil, fmt.Errorf("listing caches: %w", err)
	}

	var infos []Info

	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), LogExt)
		if !ok || !entry.Type().IsRegular() || ValidateName(name) != nil {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}

		path, _ := s.resolver.Path(name)
		infos = append(infos, Info{Name: name, Path: path, Size: fi.Size()})
	}

	slices.SortFunc(infos, func(a, b Info) int {
		return strings.Compare(a.Name, b.Name)
	})

	return infos, nil
}
