// File: pool/readbuffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ReadBuffer implements the read-buffer component of the inspector
// connection: a single contiguous region sized in multiples of
// GrowthChunk bytes, grown on demand and compacted after each
// consumed prefix.

package pool

// GrowthChunk is the unit the buffer's capacity grows by. Capacity is
// always a multiple of GrowthChunk.
const GrowthChunk = 1024

// ReadBuffer is a growing byte buffer with compacting consume,
// exclusively owned by one connection. It is not safe for concurrent
// use.
type ReadBuffer struct {
	buf     []byte
	dataLen int
}

// NewReadBuffer returns an empty ReadBuffer with no backing storage
// allocated yet; the first Alloc call grows it.
func NewReadBuffer() *ReadBuffer {
	return &ReadBuffer{}
}

// Alloc ensures capacity-dataLen >= n and returns a slice starting at
// the current valid-data offset, sized exactly n. The caller (a
// Transport) writes into the returned slice and reports how much it
// actually used via Commit.
func (b *ReadBuffer) Alloc(n int) []byte {
	if cap(b.buf)-b.dataLen < n {
		needed := b.dataLen + n
		newCap := ((needed + GrowthChunk - 1) / GrowthChunk) * GrowthChunk
		grown := make([]byte, newCap)
		copy(grown, b.buf[:b.dataLen])
		b.buf = grown
	}
	// buf has spare capacity beyond dataLen already (from a prior
	// over-sized grow); reslice up to cap so we can hand out n bytes
	// starting at dataLen without growing again unnecessarily.
	b.buf = b.buf[:cap(b.buf)]
	return b.buf[b.dataLen : b.dataLen+n]
}

// Commit records that n bytes were written into the slice most
// recently returned by Alloc, extending the valid-data region.
func (b *ReadBuffer) Commit(n int) {
	b.dataLen += n
}

// Bytes returns the valid-data prefix of the buffer. The returned
// slice is only valid until the next Alloc or Consume call.
func (b *ReadBuffer) Bytes() []byte {
	return b.buf[:b.dataLen]
}

// Len reports the number of valid bytes currently buffered.
func (b *ReadBuffer) Len() int {
	return b.dataLen
}

// Consume discards the first n bytes of valid data, compacting the
// tail down to offset 0. n must not exceed Len().
func (b *ReadBuffer) Consume(n int) {
	if n <= 0 {
		return
	}
	remaining := b.dataLen - n
	copy(b.buf, b.buf[n:b.dataLen])
	b.dataLen = remaining
}

// Reset discards all valid data without releasing backing storage,
// used on the upgrade to the Ws phase to drop any bytes buffered
// beyond the handshake request.
func (b *ReadBuffer) Reset() {
	b.dataLen = 0
}
