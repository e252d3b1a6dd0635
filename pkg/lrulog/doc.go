// Package lrulog implements a persistent most-recently-used record cache
// backed by a single append-only log file.
//
// Each record is stored as its raw bytes followed by a 2-byte little-endian
// length footer:
//
//	[record_0][len_0][record_1][len_1] ... [record_N-1][len_N-1]
//
// There is no header, no checksum and no separator. An empty (or missing)
// file is a valid empty cache. Because the length trails the payload, the
// log can be read backward from its end one entry at a time, so the K most
// recent distinct records are found without reading the whole file.
//
// # Basic Usage
//
//	log := lrulog.Open(fs.NewReal(), "/home/me/.local/share/dvd/history.log", lrulog.Options{})
//
//	// Write
//	err := log.Append([]byte("/home/me/src"))
//
//	// Read the 10 most recent distinct records, newest first.
//	records, err := log.MostRecent(10)
//	if errors.Is(err, lrulog.ErrCorrupt) {
//	    // records still holds everything recovered before the damage
//	}
//
// # Concurrency
//
// Appends are blind: the writer never reads the file. Readers capture the
// file length when they start and never observe later appends. Two writers
// appending at the same time can interleave and tear the tail, so [Log]
// serializes its writers through an advisory flock when [Options.Locker] is
// set. The package-level [Append] takes no lock.
//
// # Error Handling
//
// [ErrTooLarge]: the record exceeds [MaxRecordLen]; nothing was written.
//
// [ErrCorrupt]: a footer points before the start of the file. Scans return
// the records recovered so far together with a [*CorruptError].
//
// I/O failures are returned wrapped; match them with [errors.Is] against
// [io/fs.ErrPermission] and friends. A missing log file is never an error on
// the read path.
package lrulog
