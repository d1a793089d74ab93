// File: fake/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package fake provides an in-memory api.Transport double so
// protocol.Connection can be driven deterministically in tests
// without real sockets.

package fake

import (
	"bytes"

	"github.com/momentics/inspector-ws/api"
)

// Transport is a loopback-style fake: Feed simulates bytes arriving
// from the peer, and Written accumulates everything the connection
// under test has written, in order.
type Transport struct {
	alloc api.AllocFunc
	read  api.ReadFunc

	reading bool
	closed  bool

	Written bytes.Buffer

	// closeErr, when set, is returned by the next Close call instead
	// of nil, letting a test simulate a failing shutdown.
	closeErr error

	// writeErr, when set, is returned by every subsequent Write call
	// instead of performing it, simulating a broken pipe.
	writeErr error
}

// NewTransport returns a fresh, active fake transport.
func NewTransport() *Transport {
	return &Transport{}
}

func (t *Transport) StartRead(alloc api.AllocFunc, read api.ReadFunc) error {
	t.alloc = alloc
	t.read = read
	t.reading = true
	return nil
}

func (t *Transport) StopRead() {
	t.reading = false
}

func (t *Transport) Write(p []byte) error {
	if t.writeErr != nil {
		return t.writeErr
	}
	t.Written.Write(p)
	return nil
}

func (t *Transport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.reading = false
	return t.closeErr
}

func (t *Transport) IsActive() bool {
	return !t.closed
}

// Feed simulates bytes arriving from the peer: it calls alloc for a
// destination, copies data into it, commits via read, exactly as a
// real transport's read loop would. Feed is a no-op if reading has
// been stopped or the transport is closed, matching a real
// transport's behavior of dropping reads once paused.
func (t *Transport) Feed(data []byte) {
	if !t.reading || t.closed || t.read == nil {
		return
	}
	dst := t.alloc(len(data))
	n := copy(dst, data)
	t.read(n, nil)
}

// FeedError simulates a transport-level read error or EOF.
func (t *Transport) FeedError(err error) {
	if !t.reading || t.closed || t.read == nil {
		return
	}
	t.read(0, err)
}

// SetWriteError makes every subsequent Write call fail with err.
func (t *Transport) SetWriteError(err error) {
	t.writeErr = err
}

// SetCloseError makes the next Close call return err.
func (t *Transport) SetCloseError(err error) {
	t.closeErr = err
}

// IsReading reports whether StartRead has been called more recently
// than StopRead.
func (t *Transport) IsReading() bool {
	return t.reading
}
