// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the asynchronous byte-stream transport abstraction the
// connection state machine is driven by. A Transport owns exactly one
// accepted stream; it never multiplexes more than one peer.

package api

// AllocFunc requests a destination buffer of at least suggestedSize
// bytes for the next read. Implementations typically hand back a
// slice into a per-connection growing buffer (see pool.ReadBuffer)
// rather than allocating fresh memory on every call.
type AllocFunc func(suggestedSize int) []byte

// ReadFunc delivers the result of one read. n is the number of bytes
// written into the slice most recently returned by an AllocFunc call;
// err is non-nil on transport error or EOF, in which case n is 0.
type ReadFunc func(n int, err error)

// Transport abstracts a single full-duplex byte stream. All methods
// must be called from the same goroutine that owns the connection;
// Transport implementations are not required to be safe for
// concurrent use from multiple goroutines.
type Transport interface {
	// StartRead begins delivering incoming bytes to read via alloc.
	// Calling StartRead while already reading replaces the callbacks.
	StartRead(alloc AllocFunc, read ReadFunc) error

	// StopRead pauses delivery. It is safe to call redundantly.
	StopRead()

	// Write sends p verbatim. Returns once the bytes are handed to the
	// underlying stream; it does not wait for the peer to ack them.
	Write(p []byte) error

	// Close tears down the stream. Safe to call more than once; the
	// second and later calls are no-ops returning nil.
	Close() error

	// IsActive reports whether the stream has neither been closed nor
	// begun closing.
	IsActive() bool
}
