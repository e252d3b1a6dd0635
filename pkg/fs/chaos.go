package fs

import (
	"io/fs"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
type ChaosConfig struct {
	// Read faults
	ReadFailRate    float64 // Fail read operations entirely
	PartialReadRate float64 // Return short reads (no bytes are skipped)

	// Write faults
	WriteFailRate    float64 // Fail write operations entirely
	PartialWriteRate float64 // Write a prefix then fail (torn append)

	// Other faults
	OpenFailRate   float64 // Fail Open/OpenFile
	StatFailRate   float64 // Fail Stat/Exists
	RemoveFailRate float64 // Fail Remove
	MkdirFailRate  float64 // Fail MkdirAll
}

// DefaultChaosConfig returns a config with reasonable fault rates for testing.
func DefaultChaosConfig() ChaosConfig {
	return ChaosConfig{
		ReadFailRate:     0.02,
		PartialReadRate:  0.05,
		WriteFailRate:    0.02,
		PartialWriteRate: 0.03,
		OpenFailRate:     0.02,
		StatFailRate:     0.01,
		RemoveFailRate:   0.02,
		MkdirFailRate:    0.01,
	}
}

// ChaosMode controls how Chaos behaves.
type ChaosMode uint8

const (
	// ChaosModePassthrough behaves like the underlying FS.
	ChaosModePassthrough ChaosMode = iota

	// ChaosModeInject enables fault-rate injection.
	ChaosModeInject
)

// Chaos wraps an [FS] and injects random failures for testing.
//
// Errors are reality-aware: ENOENT is only returned if the file really
// doesn't exist on the underlying filesystem. All injected errors are real OS
// errors (syscall.Errno wrapped in *fs.PathError), so code using errors.Is
// behaves exactly as it would against the real filesystem. Use [IsInjected]
// to tell injected errors apart in tests.
//
// The zero mode is [ChaosModePassthrough]; call [Chaos.SetMode] to start
// injecting.
type Chaos struct {
	fs     FS
	config ChaosConfig
	mode   atomic.Uint32

	mu  sync.Mutex
	rng *rand.Rand

	openFails     atomic.Int64
	readFails     atomic.Int64
	writeFails    atomic.Int64
	partialReads  atomic.Int64
	partialWrites atomic.Int64
	statFails     atomic.Int64
	removeFails   atomic.Int64
	mkdirFails    atomic.Int64
}

// NewChaos creates a new Chaos filesystem wrapping the given [FS].
// The seed controls random fault injection for reproducibility.
func NewChaos(fs FS, seed int64, config ChaosConfig) *Chaos {
	return &Chaos{
		fs:     fs,
		rng:    rand.New(rand.NewSource(seed)),
		config: config,
	}
}

// SetMode updates Chaos behavior. Safe to call concurrently with filesystem
// operations.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// ChaosStats contains counts of injected faults.
type ChaosStats struct {
	OpenFails     int64
	ReadFails     int64
	WriteFails    int64
	PartialReads  int64
	PartialWrites int64
	StatFails     int64
	RemoveFails   int64
	MkdirFails    int64
}

// Stats returns the current fault injection counts.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		OpenFails:     c.openFails.Load(),
		ReadFails:     c.readFails.Load(),
		WriteFails:    c.writeFails.Load(),
		PartialReads:  c.partialReads.Load(),
		PartialWrites: c.partialWrites.Load(),
		StatFails:     c.statFails.Load(),
		RemoveFails:   c.removeFails.Load(),
		MkdirFails:    c.mkdirFails.Load(),
	}
}

// TotalFaults returns the total number of injected faults.
func (c *Chaos) TotalFaults() int64 {
	s := c.Stats()

	return s.OpenFails + s.ReadFails + s.WriteFails + s.PartialReads +
		s.PartialWrites + s.StatFails + s.RemoveFails + s.MkdirFails
}

func (c *Chaos) should(rate float64) bool {
	if ChaosMode(c.mode.Load()) != ChaosModeInject {
		return false
	}

	return c.randFloat() < rate
}

func (c *Chaos) randFloat() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rng.Float64()
}

func (c *Chaos) randIntn(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rng.Intn(n)
}

// pathError creates an *fs.PathError with the given operation, path, and errno.
// This matches what the real OS returns, so errors.Is() works correctly.
func pathError(op, path string, errno syscall.Errno) error {
	pe := &fs.PathError{Op: op, Path: path, Err: errno}
	markInjectedPathError(pe)

	return pe
}

// pickError selects an errno that is consistent with the real state of path.
// If the existence check itself fails, the real error is surfaced instead.
func (c *Chaos) pickError(op string, path string) (syscall.Errno, error) {
	var valid []syscall.Errno

	switch op {
	case "open", "stat", "remove":
		exists, err := c.fs.Exists(path)
		if err != nil {
			return 0, err
		}

		switch {
		case exists && op == "remove":
			valid = []syscall.Errno{syscall.EACCES, syscall.EIO, syscall.EBUSY, syscall.EPERM}
		case exists:
			valid = []syscall.Errno{syscall.EACCES, syscall.EIO, syscall.EMFILE}
		default:
			valid = []syscall.Errno{syscall.ENOENT, syscall.EACCES, syscall.EIO}
		}

	case "read":
		valid = []syscall.Errno{syscall.EIO, syscall.EINTR}

	case "write", "create", "mkdir":
		valid = []syscall.Errno{syscall.EACCES, syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS}

	default:
		valid = []syscall.Errno{syscall.EIO}
	}

	return valid[c.randIntn(len(valid))], nil
}

func (c *Chaos) fail(counter *atomic.Int64, op, pickOp, path string) error {
	errno, err := c.pickError(pickOp, path)
	if err != nil {
		return err
	}

	counter.Add(1)

	return pathError(op, path, errno)
}

// --- File Operations ---

func (c *Chaos) Open(path string) (File, error) {
	if c.should(c.config.OpenFailRate) {
		return nil, c.fail(&c.openFails, "open", "open", path)
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, err
	}

	return &chaosFile{f: f, chaos: c, path: path}, nil
}

func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if c.should(c.config.OpenFailRate) {
		pickOp := "open"
		if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0 {
			pickOp = "create"
		}

		return nil, c.fail(&c.openFails, "open", pickOp, path)
	}

	f, err := c.fs.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &chaosFile{f: f, chaos: c, path: path}, nil
}

func (c *Chaos) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if c.should(c.config.WriteFailRate) {
		return c.fail(&c.writeFails, "write", "write", path)
	}

	return c.fs.WriteFileAtomic(path, data, perm)
}

// --- Directory Operations ---

func (c *Chaos) ReadDir(path string) ([]os.DirEntry, error) {
	if c.should(c.config.ReadFailRate) {
		return nil, c.fail(&c.readFails, "readdirent", "read", path)
	}

	return c.fs.ReadDir(path)
}

func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	if c.should(c.config.MkdirFailRate) {
		return c.fail(&c.mkdirFails, "mkdir", "mkdir", path)
	}

	return c.fs.MkdirAll(path, perm)
}

// --- Metadata ---

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	if c.should(c.config.StatFailRate) {
		return nil, c.fail(&c.statFails, "stat", "stat", path)
	}

	return c.fs.Stat(path)
}

func (c *Chaos) Exists(path string) (bool, error) {
	if c.should(c.config.StatFailRate) {
		errno, err := c.pickError("stat", path)
		if err != nil {
			return false, err
		}

		// ENOENT from Exists is not an error, it is a (false, nil) answer.
		if errno == syscall.ENOENT {
			return c.fs.Exists(path)
		}

		c.statFails.Add(1)

		return false, pathError("stat", path, errno)
	}

	return c.fs.Exists(path)
}

func (c *Chaos) EvalSymlinks(path string) (string, error) {
	if c.should(c.config.StatFailRate) {
		return "", c.fail(&c.statFails, "lstat", "stat", path)
	}

	return c.fs.EvalSymlinks(path)
}

// --- Mutations ---

func (c *Chaos) Remove(path string) error {
	if c.should(c.config.RemoveFailRate) {
		return c.fail(&c.removeFails, "remove", "remove", path)
	}

	return c.fs.Remove(path)
}

// --- chaosFile wraps a File and injects faults on Read/Write ---

type chaosFile struct {
	f     File
	chaos *Chaos
	path  string
}

func (cf *chaosFile) Read(p []byte) (int, error) {
	if cf.chaos.should(cf.chaos.config.ReadFailRate) {
		return 0, cf.chaos.fail(&cf.chaos.readFails, "read", "read", cf.path)
	}

	// Short read must limit the underlying read, otherwise the file offset
	// advances past bytes the caller never saw.
	if cf.chaos.should(cf.chaos.config.PartialReadRate) && len(p) > 1 {
		cf.chaos.partialReads.Add(1)

		cutoff := cf.chaos.randIntn(len(p)-1) + 1

		return cf.f.Read(p[:cutoff])
	}

	return cf.f.Read(p)
}

func (cf *chaosFile) Write(p []byte) (int, error) {
	if cf.chaos.should(cf.chaos.config.WriteFailRate) {
		return 0, cf.chaos.fail(&cf.chaos.writeFails, "write", "write", cf.path)
	}

	if cf.chaos.should(cf.chaos.config.PartialWriteRate) && len(p) > 1 {
		cf.chaos.partialWrites.Add(1)

		wrote, err := cf.f.Write(p[:len(p)/2])
		if err != nil {
			return wrote, err
		}

		errno, err := cf.chaos.pickError("write", cf.path)
		if err != nil {
			return wrote, err
		}

		return wrote, pathError("write", cf.path, errno)
	}

	return cf.f.Write(p)
}

func (cf *chaosFile) Close() error {
	return cf.f.Close()
}

func (cf *chaosFile) Seek(offset int64, whence int) (int64, error) {
	return cf.f.Seek(offset, whence)
}

func (cf *chaosFile) Fd() uintptr {
	return cf.f.Fd()
}

func (cf *chaosFile) Stat() (os.FileInfo, error) {
	return cf.f.Stat()
}

func (cf *chaosFile) Sync() error {
	return cf.f.Sync()
}

// Compile-time interface checks.
var (
	_ FS   = (*Chaos)(nil)
	_ File = (*chaosFile)(nil)
)
