package core

import (
	"bytes"
	"strings"
	"testing"
)

func TestAppendString_LengthPrefix(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := appendString(nil, long)

	// 300 = 0x012C, little-endian uint32.
	wantPrefix := []byte{0x2C, 0x01, 0x00, 0x00}
	if !bytes.Equal(got[:4], wantPrefix) {
		t.Errorf("prefix = %v, want %v", got[:4], wantPrefix)
	}
	if len(got) != 4+300 {
		t.Errorf("encoded length = %d, want %d", len(got), 4+300)
	}
}

// Strings whose lengths differ by a multiple of 256 must not share a
// prefix, or distinct states could hash to the same digest.
func TestAppendString_NoAliasingAcrossLengths(t *testing.T) {
	short := appendString(nil, strings.Repeat("a", 44))
	long := appendString(nil, strings.Repeat("a", 300))

	if bytes.Equal(short[:4], long[:4]) {
		t.Errorf("length prefixes collide: %v", short[:4])
	}
}

func TestAppendInt64LE_RoundsOutEightBytes(t *testing.T) {
	got := appendInt64LE(nil, -1)
	if len(got) != 8 {
		t.Fatalf("encoded length = %d, want 8", len(got))
	}
	for i, b := range got {
		if b != 0xFF {
			t.Errorf("byte %d = %#x, want 0xff", i, b)
		}
	}
}
