package common

import (
	"bytes"
	"testing"
)

func TestLEB128RoundTripInt16(t *testing.T) {
	values := []int16{0, 1, -1, 127, -128, 32767, -32768, 12345, -12345}
	var buf bytes.Buffer
	if err := WriteLEB128(&buf, values); err != nil {
		t.Fatalf("WriteLEB128: %v", err)
	}

	out := make([]int16, len(values))
	if err := ReadLEB128(&buf, out); err != nil {
		t.Fatalf("ReadLEB128: %v", err)
	}
	for i := range values {
		if out[i] != values[i] {
			t.Fatalf("round trip[%d] = %d, want %d", i, out[i], values[i])
		}
	}
}

func TestLEB128RoundTripInt32(t *testing.T) {
	values := []int32{0, 1, -1, 1 << 20, -(1 << 20), 2147483647, -2147483648}
	var buf bytes.Buffer
	if err := WriteLEB128(&buf, values); err != nil {
		t.Fatalf("WriteLEB128: %v", err)
	}

	out := make([]int32, len(values))
	if err := ReadLEB128(&buf, out); err != nil {
		t.Fatalf("ReadLEB128: %v", err)
	}
	for i := range values {
		if out[i] != values[i] {
			t.Fatalf("round trip[%d] = %d, want %d", i, out[i], values[i])
		}
	}
}

func TestReadLEB128RejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("NOT_THE_RIGHT_MAGIC_STRING_AT_ALL")
	out := make([]int16, 1)
	if err := ReadLEB128(buf, out); err == nil {
		t.Fatal("expected an error for a bad magic prefix")
	}
}
