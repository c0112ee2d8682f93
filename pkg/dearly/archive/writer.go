// Package archive implements the PKZip-subset container format used by
// .dearly files: local file headers, optional raw-DEFLATE payloads, a
// central directory, and an end-of-central-directory record. The codec
// operates purely on (name, bytes) pairs; it has no knowledge of
// manifest semantics.
//
// The subset is deliberately narrow: no encryption, no spanning, no
// extra fields, and only the Store and Deflate compression methods.
package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/flate"
)

// Method is a per-entry compression method.
type Method uint16

const (
	// Store writes the payload uncompressed.
	Store Method = 0

	// Deflate compresses the payload as a raw DEFLATE stream.
	Deflate Method = 8
)

// Archive format magic numbers, little-endian on the wire.
const (
	localHeaderMagic  uint32 = 0x04034B50 // PK\x03\x04
	centralDirMagic   uint32 = 0x02014B50 // PK\x01\x02
	endOfCentralMagic uint32 = 0x06054B50 // PK\x05\x06
)

const (
	versionNeeded  = 20
	localHeaderLen = 30
)

// minDeflateSize is the minimum usable compressed output. Anything
// smaller falls back to Store for that entry.
const minDeflateSize = 7

// ErrNameEmpty is returned when an entry is added with an empty name.
var ErrNameEmpty = errors.New("archive entry name cannot be empty")

// Writer builds an archive in memory. Entries are appended with AddEntry
// and the finished container is produced by Finalize. A Writer holds no
// shared state; each export constructs its own instance.
type Writer struct {
	entries   []Entry
	buf       bytes.Buffer
	finalized bool
}

// NewWriter creates an empty archive writer.
func NewWriter() *Writer {
	return &Writer{}
}

// AddEntry appends a named entry to the in-progress archive. Names may
// contain forward-slash separated path segments. When method is Deflate
// and compression fails or yields fewer than 7 bytes, the entry silently
// falls back to Store.
func (w *Writer) AddEntry(name string, data []byte, method Method) error {
	if name == "" {
		return ErrNameEmpty
	}
	if w.finalized {
		return errors.New("archive already finalized")
	}

	payload := data
	if method == Deflate {
		compressed, err := deflate(data)
		if err != nil || len(compressed) < minDeflateSize {
			method = Store
		} else {
			payload = compressed
		}
	}

	entry := Entry{
		Name:             name,
		Method:           method,
		CRC32:            Checksum(data),
		CompressedSize:   uint32(len(payload)),
		UncompressedSize: uint32(len(data)),
		offset:           uint32(w.buf.Len()),
	}

	w.writeLocalHeader(&entry)
	w.buf.Write(payload)
	w.entries = append(w.entries, entry)
	return nil
}

// Finalize appends the central directory and end-of-central-directory
// record and returns the complete container bytes. The writer cannot be
// reused afterwards.
func (w *Writer) Finalize() ([]byte, error) {
	if w.finalized {
		return nil, errors.New("archive already finalized")
	}
	w.finalized = true

	centralStart := uint32(w.buf.Len())
	for i := range w.entries {
		w.writeCentralHeader(&w.entries[i])
	}
	centralSize := uint32(w.buf.Len()) - centralStart

	w.writeEndOfCentral(centralStart, centralSize)
	return w.buf.Bytes(), nil
}

// writeLocalHeader emits the fixed 30-byte local file header followed by
// the entry name. Timestamps are deliberately zeroed.
func (w *Writer) writeLocalHeader(e *Entry) {
	writeU32(&w.buf, localHeaderMagic)
	writeU16(&w.buf, versionNeeded)
	writeU16(&w.buf, 0) // general purpose flags
	writeU16(&w.buf, uint16(e.Method))
	writeU16(&w.buf, 0) // mod time
	writeU16(&w.buf, 0) // mod date
	writeU32(&w.buf, e.CRC32)
	writeU32(&w.buf, e.CompressedSize)
	writeU32(&w.buf, e.UncompressedSize)
	writeU16(&w.buf, uint16(len(e.Name)))
	writeU16(&w.buf, 0) // extra field length
	w.buf.WriteString(e.Name)
}

// writeCentralHeader emits the central directory record mirroring the
// entry's local header plus the offset of that local header.
func (w *Writer) writeCentralHeader(e *Entry) {
	writeU32(&w.buf, centralDirMagic)
	writeU16(&w.buf, versionNeeded) // version made by
	writeU16(&w.buf, versionNeeded) // version needed
	writeU16(&w.buf, 0)             // flags
	writeU16(&w.buf, uint16(e.Method))
	writeU16(&w.buf, 0) // mod time
	writeU16(&w.buf, 0) // mod date
	writeU32(&w.buf, e.CRC32)
	writeU32(&w.buf, e.CompressedSize)
	writeU32(&w.buf, e.UncompressedSize)
	writeU16(&w.buf, uint16(len(e.Name)))
	writeU16(&w.buf, 0) // extra field length
	writeU16(&w.buf, 0) // comment length
	writeU16(&w.buf, 0) // disk number start
	writeU16(&w.buf, 0) // internal attributes
	writeU32(&w.buf, 0) // external attributes
	writeU32(&w.buf, e.offset)
	w.buf.WriteString(e.Name)
}

// writeEndOfCentral emits the end-of-central-directory record. Entry
// counts appear twice because the format is single-disk only.
func (w *Writer) writeEndOfCentral(centralStart, centralSize uint32) {
	writeU32(&w.buf, endOfCentralMagic)
	writeU16(&w.buf, 0) // disk number
	writeU16(&w.buf, 0) // central directory start disk
	writeU16(&w.buf, uint16(len(w.entries)))
	writeU16(&w.buf, uint16(len(w.entries)))
	writeU32(&w.buf, centralSize)
	writeU32(&w.buf, centralStart)
	writeU16(&w.buf, 0) // comment length
}

// deflate compresses data as a raw DEFLATE stream with no zlib framing.
func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("create deflate writer: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("deflate write: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("deflate close: %w", err)
	}
	return buf.Bytes(), nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
