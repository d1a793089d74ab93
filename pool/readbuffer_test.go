package pool_test

import (
	"testing"

	"github.com/momentics/inspector-ws/pool"
)

func TestReadBufferGrowsInChunkMultiples(t *testing.T) {
	b := pool.NewReadBuffer()
	dst := b.Alloc(10)
	if len(dst) != 10 {
		t.Fatalf("expected 10 byte slice, got %d", len(dst))
	}
	copy(dst, []byte("0123456789"))
	b.Commit(10)

	if b.Len() != 10 {
		t.Fatalf("expected Len()=10, got %d", b.Len())
	}
	if got := string(b.Bytes()); got != "0123456789" {
		t.Fatalf("unexpected bytes: %q", got)
	}
}

func TestReadBufferAllocBeyondChunkGrows(t *testing.T) {
	b := pool.NewReadBuffer()
	dst := b.Alloc(pool.GrowthChunk + 1)
	if len(dst) != pool.GrowthChunk+1 {
		t.Fatalf("expected %d byte slice, got %d", pool.GrowthChunk+1, len(dst))
	}
}

func TestReadBufferConsumeCompacts(t *testing.T) {
	b := pool.NewReadBuffer()
	dst := b.Alloc(5)
	copy(dst, []byte("abcde"))
	b.Commit(5)

	b.Consume(2)
	if got := string(b.Bytes()); got != "cde" {
		t.Fatalf("expected %q after consume, got %q", "cde", got)
	}
	if b.Len() != 3 {
		t.Fatalf("expected Len()=3, got %d", b.Len())
	}

	// Subsequent writes land after the compacted tail.
	dst2 := b.Alloc(2)
	copy(dst2, []byte("fg"))
	b.Commit(2)
	if got := string(b.Bytes()); got != "cdefg" {
		t.Fatalf("expected %q, got %q", "cdefg", got)
	}
}

func TestReadBufferReset(t *testing.T) {
	b := pool.NewReadBuffer()
	dst := b.Alloc(4)
	copy(dst, []byte("data"))
	b.Commit(4)
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("expected Len()=0 after Reset, got %d", b.Len())
	}
}
