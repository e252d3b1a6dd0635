package lrulog

import (
	"errors"
	"fmt"
	"io"

	"github.com/calvinalkan/dvd/pkg/fs"
)

// Unlimited requests every distinct record in the log.
const Unlimited = -1

// ScanOptions configures [Scan].
type ScanOptions struct {
	// Limit caps the number of records returned. [Unlimited] (any negative
	// value) returns all of them. Zero returns nothing without opening the
	// log.
	Limit int

	// Keep filters records. A record Keep rejects is not returned, but it
	// still claims its dedup slot: older copies of it are skipped too.
	// Nil keeps everything.
	Keep func(record []byte) bool
}

// Result is the outcome of a [Scan].
type Result struct {
	// Records holds distinct records, most recent first.
	Records [][]byte

	// Entries is the number of physical entries read, duplicates included.
	Entries int

	// BytesRead is how many bytes of the log were read.
	BytesRead int64

	// Size is the log length when the scan started.
	Size int64
}

// Scan walks the log at path backward and collects distinct records, most
// recent first, until opts.Limit records are found or the log is exhausted.
//
// A missing log is an empty cache: Scan returns an empty Result and nil.
//
// If the log is damaged, Scan returns the records recovered before the damage
// together with a [*CorruptError]. Other read failures also return the
// partial Result.
func Scan(fsys fs.FS, path string, opts ScanOptions) (Result, error) {
	var res Result

	if opts.Limit == 0 {
		return res, nil
	}

	f, err := fsys.Open(path)
	if err != nil {
		if isNotExist(err) {
			return res, nil
		}

		return res, fmt.Errorf("opening log: %w", err)
	}

	defer func() { _ = f.Close() }()

	r, err := NewReader(f)
	if err != nil {
		return res, err
	}

	res.Size = r.Size()
	seen := make(map[string]struct{})

	for opts.Limit < 0 || len(res.Records) < opts.Limit {
		record, nextErr := r.Next()
		if nextErr != nil {
			err = nextErr

			break
		}

		if _, dup := seen[string(record)]; dup {
			continue
		}

		seen[string(record)] = struct{}{}

		if opts.Keep != nil && !opts.Keep(record) {
			continue
		}

		res.Records = append(res.Records, record)
	}

	res.Entries = r.Entries()
	res.BytesRead = r.BytesRead()

	if err == nil || errors.Is(err, io.EOF) {
		return res, nil
	}

	var corrupt *CorruptError
	if errors.As(err, &corrupt) {
		corrupt.Path = path
	}

	return res, err
}

// MostRecent returns up to limit distinct records from the log at path, most
// recent first. See [Scan] for limit, missing-file and corruption semantics.
func MostRecent(fsys fs.FS, path string, limit int) ([][]byte, error) {
	res, err := Scan(fsys, path, ScanOptions{Limit: limit})

	return res.Records, err
}
