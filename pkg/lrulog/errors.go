package lrulog

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by lrulog operations.
//
// Callers should use [errors.Is] to check error types.
var (
	// ErrTooLarge indicates a record longer than [MaxRecordLen] bytes.
	//
	// Raised before any write; the log is unchanged.
	ErrTooLarge = errors.New("lrulog: record too large")

	// ErrCorrupt indicates the log cannot be walked back any further: a length
	// footer claims more payload bytes than remain before it.
	//
	// Recovery: use the partial result, or [Log.Clear] the log.
	ErrCorrupt = errors.New("lrulog: corrupt")
)

// CorruptError describes where a backward scan hit a damaged footer.
// It matches [ErrCorrupt] with [errors.Is].
type CorruptError struct {
	// Path is the log file, if known.
	Path string

	// Offset is the reader cursor when the bad footer was read: the footer
	// occupies bytes [Offset-2, Offset).
	Offset int64

	// Length is the payload length the footer declared.
	Length int
}

func (e *CorruptError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: footer at offset %d declares %d bytes, only %d available",
			ErrCorrupt, e.Offset-FooterSize, e.Length, e.Offset-FooterSize)
	}

	return fmt.Sprintf("%v: %s: footer at offset %d declares %d bytes, only %d available",
		ErrCorrupt, e.Path, e.Offset-FooterSize, e.Length, e.Offset-FooterSize)
}

// Is reports whether target is [ErrCorrupt].
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}
