package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version   byte = 1
	kindEntry byte = 1

	hdrLen = 4 + 1 + 1 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("listcache: corrupt entry")
	magic4     = [...]byte{'L', 'C', 'E', 'N'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry is the decoded form of a stored page.
// Params and Payload alias the input buffer on decode.
type Entry struct {
	Timestamp int64 // unix nanos
	Total     uint64
	Params    []byte
	Payload   []byte
}

// Layout:
//
//	magic(4) | ver(1) | kind(1) | ts(i64 be) | total(u64 be)
//	plen(u32 be) | params(plen) | vlen(u32 be) | payload(vlen)
func EncodeEntry(e Entry) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(e.Params) + 4 + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(e.Timestamp))
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], e.Total)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Params)))
	buf.Write(u4[:])
	buf.Write(e.Params)

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])
	buf.Write(e.Payload)

	return buf.Bytes()
}

func DecodeEntry(b []byte) (Entry, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return Entry{}, ErrCorrupt
	}
	off := 6

	var e Entry
	e.Timestamp = int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	e.Total = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	plen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if plen < 0 || plen > len(b)-off {
		return Entry{}, ErrCorrupt
	}
	e.Params = b[off : off+plen]
	off += plen

	if off+4 > len(b) {
		return Entry{}, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen > len(b)-off { // overflow-safe bound check
		return Entry{}, ErrCorrupt
	}
	e.Payload = b[off : off+vlen]
	off += vlen

	if off != len(b) {
		return Entry{}, ErrCorrupt
	}
	return e, nil
}
