package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// Entry is one parsed (or in-progress) archive member. Data always holds
// the uncompressed payload.
type Entry struct {
	// Name is the forward-slash separated entry path.
	Name string

	// Data is the uncompressed payload.
	Data []byte

	// Method is the compression method the entry was stored with.
	Method Method

	// CRC32 is the checksum of the uncompressed payload as recorded in
	// the entry's header.
	CRC32 uint32

	// CompressedSize and UncompressedSize are the sizes recorded in the
	// entry's header.
	CompressedSize   uint32
	UncompressedSize uint32

	offset uint32
}

// VerifyChecksum recomputes the CRC of the entry payload and compares it
// against the stored value.
func (e *Entry) VerifyChecksum() error {
	if got := Checksum(e.Data); got != e.CRC32 {
		return fmt.Errorf("%w: entry %q: checksum %08x, header says %08x",
			ErrChecksumMismatch, e.Name, got, e.CRC32)
	}
	return nil
}

// Sentinel errors returned by Parse.
var (
	// ErrInvalidArchive indicates the bytes are not an archive: bad
	// leading magic or a structurally truncated entry.
	ErrInvalidArchive = errors.New("invalid archive")

	// ErrCorruptEntry indicates an entry's payload could not be
	// decompressed.
	ErrCorruptEntry = errors.New("corrupt archive entry")

	// ErrChecksumMismatch indicates an entry failed CRC verification.
	ErrChecksumMismatch = errors.New("archive checksum mismatch")
)

// Parse reads every entry from the container bytes. It fails immediately
// if the leading four bytes are not the local-file-header magic, then
// walks local headers until the magic no longer matches, which naturally
// happens when the central directory begins. Stored CRC values are not
// re-validated here; callers may use Entry.VerifyChecksum.
func Parse(data []byte) ([]Entry, error) {
	if len(data) < 4 || binary.LittleEndian.Uint32(data) != localHeaderMagic {
		return nil, fmt.Errorf("%w: missing local header magic", ErrInvalidArchive)
	}

	var entries []Entry
	pos := 0
	for {
		if pos+4 > len(data) || binary.LittleEndian.Uint32(data[pos:]) != localHeaderMagic {
			break
		}
		entry, next, err := parseEntry(data, pos)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		pos = next
	}
	return entries, nil
}

// Lookup returns the entry with the given name, or false if absent.
func Lookup(entries []Entry, name string) (*Entry, bool) {
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i], true
		}
	}
	return nil, false
}

// parseEntry reads one local header and its payload starting at pos.
// It returns the entry and the offset of the next header.
func parseEntry(data []byte, pos int) (Entry, int, error) {
	if pos+localHeaderLen > len(data) {
		return Entry{}, 0, fmt.Errorf("%w: truncated local header", ErrInvalidArchive)
	}
	header := data[pos:]

	entry := Entry{
		Method:           Method(binary.LittleEndian.Uint16(header[8:])),
		CRC32:            binary.LittleEndian.Uint32(header[14:]),
		CompressedSize:   binary.LittleEndian.Uint32(header[18:]),
		UncompressedSize: binary.LittleEndian.Uint32(header[22:]),
		offset:           uint32(pos),
	}
	nameLen := int(binary.LittleEndian.Uint16(header[26:]))
	extraLen := int(binary.LittleEndian.Uint16(header[28:]))

	nameStart := pos + localHeaderLen
	payloadStart := nameStart + nameLen + extraLen
	payloadEnd := payloadStart + int(entry.CompressedSize)
	if payloadEnd > len(data) || nameStart+nameLen > len(data) {
		return Entry{}, 0, fmt.Errorf("%w: truncated entry payload", ErrInvalidArchive)
	}

	entry.Name = string(data[nameStart : nameStart+nameLen])
	payload := data[payloadStart:payloadEnd]

	switch entry.Method {
	case Store:
		entry.Data = bytes.Clone(payload)
	case Deflate:
		decoded, err := inflate(payload)
		if err != nil {
			return Entry{}, 0, fmt.Errorf("%w: %q: %v", ErrCorruptEntry, entry.Name, err)
		}
		entry.Data = decoded
	default:
		return Entry{}, 0, fmt.Errorf("%w: %q: unsupported method %d",
			ErrCorruptEntry, entry.Name, entry.Method)
	}

	return entry, payloadEnd, nil
}

// inflate decodes a raw DEFLATE stream. Older producers embedded
// zlib-framed streams instead of raw ones, so a zlib decode is attempted
// as a fallback before giving up.
func inflate(payload []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(payload))
	decoded, err := io.ReadAll(fr)
	if cerr := fr.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		return decoded, nil
	}

	zr, zerr := zlib.NewReader(bytes.NewReader(payload))
	if zerr != nil {
		return nil, err
	}
	defer zr.Close()
	decoded, zerr = io.ReadAll(zr)
	if zerr != nil {
		return nil, err
	}
	return decoded, nil
}

// EndOfCentralDirectory is the trailer record of an archive.
type EndOfCentralDirectory struct {
	// EntryCount is the number of central directory entries.
	EntryCount uint16

	// CentralSize and CentralOffset locate the central directory.
	CentralSize   uint32
	CentralOffset uint32
}

// ReadEndOfCentral locates and parses the end-of-central-directory
// record. The comment is always zero-length in this subset, so the
// record sits at a fixed distance from the end.
func ReadEndOfCentral(data []byte) (*EndOfCentralDirectory, error) {
	const recordLen = 22
	if len(data) < recordLen {
		return nil, fmt.Errorf("%w: too short for end-of-central-directory", ErrInvalidArchive)
	}
	rec := data[len(data)-recordLen:]
	if binary.LittleEndian.Uint32(rec) != endOfCentralMagic {
		return nil, fmt.Errorf("%w: missing end-of-central-directory magic", ErrInvalidArchive)
	}
	return &EndOfCentralDirectory{
		EntryCount:    binary.LittleEndian.Uint16(rec[10:]),
		CentralSize:   binary.LittleEndian.Uint32(rec[12:]),
		CentralOffset: binary.LittleEndian.Uint32(rec[16:]),
	}, nil
}
