package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func mustDecode(t *testing.T, b []byte) Entry {
	t.Helper()
	e, err := DecodeEntry(b)
	if err != nil {
		t.Fatalf("DecodeEntry error: %v", err)
	}
	return e
}

func TestEntryRTEmptyAndNonEmpty(t *testing.T) {
	cases := []Entry{
		{},
		{Timestamp: 1700000000000000000, Total: 47, Params: []byte(`{"limit":10,"page":1}`), Payload: []byte("[1,2]")},
		{Timestamp: -1, Total: math.MaxUint64, Payload: []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		got := mustDecode(t, EncodeEntry(tc))
		if got.Timestamp != tc.Timestamp || got.Total != tc.Total {
			t.Fatalf("header mismatch: got ts=%d total=%d want ts=%d total=%d",
				got.Timestamp, got.Total, tc.Timestamp, tc.Total)
		}
		if !bytes.Equal(got.Params, tc.Params) {
			t.Fatalf("params mismatch: got %q want %q", got.Params, tc.Params)
		}
		if !bytes.Equal(got.Payload, tc.Payload) {
			t.Fatalf("payload mismatch: got %x want %x", got.Payload, tc.Payload)
		}
	}
}

func TestEntryRejectsTrailingBytes(t *testing.T) {
	enc := EncodeEntry(Entry{Total: 1, Payload: []byte("x")})
	enc = append(enc, 0xDE, 0xAD)
	if _, err := DecodeEntry(enc); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt on trailing bytes, got %v", err)
	}
}

func TestEntryCorruptHeadersAndLengths(t *testing.T) {
	good := EncodeEntry(Entry{Total: 2, Params: []byte("{}"), Payload: []byte("abc")})

	mutate := func(f func(b []byte) []byte) []byte {
		cp := append([]byte(nil), good...)
		return f(cp)
	}

	cases := map[string][]byte{
		"short":       good[:hdrLen-1],
		"bad magic":   mutate(func(b []byte) []byte { b[0] = 'X'; return b }),
		"bad version": mutate(func(b []byte) []byte { b[4] = 9; return b }),
		"bad kind":    mutate(func(b []byte) []byte { b[5] = 7; return b }),
		"params overflow": mutate(func(b []byte) []byte {
			binary.BigEndian.PutUint32(b[22:26], math.MaxUint32)
			return b
		}),
		"payload truncated": good[:len(good)-1],
		"missing vlen":      good[:hdrLen+2],
	}
	for name, b := range cases {
		if _, err := DecodeEntry(b); err != ErrCorrupt {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}
