package lrulog

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// FooterSize is the width of the length footer that trails every record.
	FooterSize = 2

	// MaxRecordLen is the longest record a footer can describe.
	MaxRecordLen = math.MaxUint16
)

// Footers are little-endian. Writers and readers of the same file must agree.
var byteOrder = binary.LittleEndian

// EncodedLen returns the number of bytes record occupies on disk.
func EncodedLen(record []byte) int {
	return len(record) + FooterSize
}

// Encode returns record followed by its length footer.
//
// Returns [ErrTooLarge] if len(record) > [MaxRecordLen].
func Encode(record []byte) ([]byte, error) {
	return AppendEncoded(make([]byte, 0, EncodedLen(record)), record)
}

// AppendEncoded appends the encoded form of record to dst and returns the
// extended slice. On error dst is returned unchanged.
func AppendEncoded(dst, record []byte) ([]byte, error) {
	if len(record) > MaxRecordLen {
		return dst, fmt.Errorf("%w: %d bytes, max %d", ErrTooLarge, len(record), MaxRecordLen)
	}

	dst = append(dst, record...)
	dst = byteOrder.AppendUint16(dst, uint16(len(record)))

	return dst, nil
}

// DecodeFooter returns the payload length stored in a footer.
// Every 2-byte value is a valid length.
func DecodeFooter(footer [FooterSize]byte) int {
	return int(byteOrder.Uint16(footer[:]))
}
