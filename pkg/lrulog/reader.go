package lrulog

import (
	"fmt"
	"io"
)

// Reader walks a log backward, from the newest entry to the oldest.
//
// The file length is captured by [NewReader]; entries appended afterwards are
// not visible to this Reader. A Reader is not restartable and not safe for
// concurrent use. Build a new one to rescan.
type Reader struct {
	src       io.ReadSeeker
	size      int64
	cursor    int64
	err       error
	entries   int
	bytesRead int64
	footer    [FooterSize]byte
}

// NewReader returns a Reader positioned at the current end of src.
func NewReader(src io.ReadSeeker) (*Reader, error) {
	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seeking to end of log: %w", err)
	}

	return &Reader{src: src, size: size, cursor: size}, nil
}

// Next returns the record just before the cursor and moves the cursor to the
// start of that entry. The returned slice is freshly allocated and owned by
// the caller.
//
// Next returns [io.EOF] once fewer than [FooterSize] bytes remain before the
// cursor. It returns a [*CorruptError] when a footer declares more payload
// than exists before it. Both are terminal: every later call returns the
// same error.
func (r *Reader) Next() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	// A clean log always ends with the cursor at exactly 0. A single stray
	// byte is treated as end of stream too.
	if r.cursor < FooterSize {
		r.err = io.EOF

		return nil, r.err
	}

	footerAt := r.cursor - FooterSize

	if err := r.readAt(r.footer[:], footerAt); err != nil {
		r.err = fmt.Errorf("reading footer at offset %d: %w", footerAt, err)

		return nil, r.err
	}

	length := DecodeFooter(r.footer)
	if int64(length) > footerAt {
		r.err = &CorruptError{Offset: r.cursor, Length: length}

		return nil, r.err
	}

	start := footerAt - int64(length)
	record := make([]byte, length)

	if err := r.readAt(record, start); err != nil {
		r.err = fmt.Errorf("reading record at offset %d: %w", start, err)

		return nil, r.err
	}

	r.cursor = start
	r.entries++

	return record, nil
}

// Offset returns the cursor: the number of bytes between the start of the
// log and the oldest entry returned so far.
func (r *Reader) Offset() int64 {
	return r.cursor
}

// Size returns the log length captured when the Reader was created.
func (r *Reader) Size() int64 {
	return r.size
}

// Entries returns the number of records returned so far.
func (r *Reader) Entries() int {
	return r.entries
}

// BytesRead returns how many bytes Next has read from the log.
func (r *Reader) BytesRead() int64 {
	return r.bytesRead
}

func (r *Reader) readAt(buf []byte, off int64) error {
	if _, err := r.src.Seek(off, io.SeekStart); err != nil {
		return err
	}

	n, err := io.ReadFull(r.src, buf)
	r.bytesRead += int64(n)

	if err == io.EOF {
		// The file shrank under us (a concurrent Clear).
		return io.ErrUnexpectedEOF
	}

	return err
}
