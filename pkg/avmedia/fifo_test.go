package avmedia

import (
	"bytes"
	"testing"
)

func TestFifoWriteReadRoundTrip(t *testing.T) {
	f := NewFifo(16)
	data := []byte{1, 2, 3, 4, 5}
	f.Write(data)

	if got := f.Available(); got != len(data) {
		t.Fatalf("Available() = %d, want %d", got, len(data))
	}

	out := make([]byte, len(data))
	n := f.Read(out)
	if n != len(data) {
		t.Fatalf("Read() returned %d bytes, want %d", n, len(data))
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("Read() = %v, want %v", out, data)
	}
	if f.Available() != 0 {
		t.Fatalf("Available() after full read = %d, want 0", f.Available())
	}
}

func TestFifoGrowsPastCapacity(t *testing.T) {
	f := NewFifo(4)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	f.Write(data)

	if got := f.Available(); got != len(data) {
		t.Fatalf("Available() = %d, want %d after growth", got, len(data))
	}

	out := make([]byte, len(data))
	f.Read(out)
	if !bytes.Equal(out, data) {
		t.Fatalf("Read() after growth = %v, want %v", out, data)
	}
}

func TestFifoReadPartial(t *testing.T) {
	f := NewFifo(16)
	f.Write([]byte{1, 2, 3})

	out := make([]byte, 10)
	n := f.Read(out)
	if n != 3 {
		t.Fatalf("Read() with oversized buffer returned %d, want 3", n)
	}
}

func TestFifoResetDiscardsBufferedData(t *testing.T) {
	f := NewFifo(16)
	f.Write([]byte{1, 2, 3})
	f.Reset()

	if got := f.Available(); got != 0 {
		t.Fatalf("Available() after Reset() = %d, want 0", got)
	}
}

func TestFifoPreservesOrderAcrossWraparound(t *testing.T) {
	f := NewFifo(8)
	f.Write([]byte{1, 2, 3, 4, 5})

	buf := make([]byte, 5)
	f.Read(buf)

	f.Write([]byte{6, 7, 8, 9})
	out := make([]byte, 4)
	f.Read(out)

	want := []byte{6, 7, 8, 9}
	if !bytes.Equal(out, want) {
		t.Fatalf("Read() after wraparound = %v, want %v", out, want)
	}
}
