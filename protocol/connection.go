// File: protocol/connection.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection is the inspector socket's state machine: it owns one
// accepted transport, threads incoming bytes through the HTTP parser
// or the frame codec depending on phase, and sequences the handshake
// and close-handshake callbacks. Every method must be called from the
// single goroutine that also drives transport reads for this
// connection — Connection keeps no internal locks (see spec.md §5).

package protocol

import (
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/inspector-ws/api"
	"github.com/momentics/inspector-ws/pool"
)

// Phase is the coarse state of a connection.
type Phase int

const (
	PhaseHTTP Phase = iota
	PhaseWS
	PhaseClosing
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseHTTP:
		return "Http"
	case PhaseWS:
		return "Ws"
	case PhaseClosing:
		return "Closing"
	case PhaseClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// httpState holds everything only meaningful while phase == PhaseHTTP.
type httpState struct {
	parser *RequestParser
	cb     api.HandshakeCallback
}

// wsState holds everything only meaningful once phase is PhaseWS or
// PhaseClosing.
type wsState struct {
	allocCB       api.AllocFunc
	readCB        api.ReadCallback
	closeCB       api.CloseCallback
	closeSent     bool
	receivedClose bool
}

// Connection is one accepted TCP stream being driven through the
// handshake and, once upgraded, the WebSocket framing protocol.
type Connection struct {
	transport api.Transport
	phase     Phase
	readBuf   *pool.ReadBuffer

	http *httpState
	ws   *wsState

	// path is the most recently parsed request-target, retained after
	// http is discarded so post-upgrade accessors and close/protocol
	// events still have it available.
	path string

	shuttingDown  bool
	connectionEOF bool

	// pendingWrites FIFOs outbound byte slices so a write issued from
	// inside a handshake callback interleaves correctly, in submission
	// order, with writes the state machine itself issues (the 101/400
	// templates, the close frame) around that same callback.
	pendingWrites *queue.Queue

	// maxFramePayload is the payload-size cap enforced by feedWS. It
	// defaults to MaxFramePayload but can be overridden per connection
	// (see SetMaxFramePayload), including from a config-reload hook
	// running on a different goroutine — hence atomic rather than a
	// plain field, the one piece of connection state not confined to
	// the owning goroutine.
	maxFramePayload atomic.Int64

	// lastError holds structured detail for the most recent handshake
	// or protocol failure, readable via LastError after a host's
	// callback observes api.Failed or a read error.
	lastError atomic.Pointer[api.Error]
}

// Accept wires a freshly accepted transport into a new Connection and
// begins reading for the HTTP handshake. cb is invoked for every HTTP
// request on the stream per spec.md §3 invariant 6.
func Accept(transport api.Transport, cb api.HandshakeCallback) (*Connection, error) {
	c := &Connection{
		transport:     transport,
		phase:         PhaseHTTP,
		readBuf:       pool.NewReadBuffer(),
		http:          &httpState{parser: NewRequestParser(), cb: cb},
		pendingWrites: queue.New(),
	}
	c.maxFramePayload.Store(MaxFramePayload)
	if err := transport.StartRead(c.allocForWire, c.onTransportRead); err != nil {
		return nil, err
	}
	return c, nil
}

// SetMaxFramePayload overrides the payload-size cap enforced on every
// subsequent decoded frame (the default is MaxFramePayload). A host
// typically calls this once, right after Accept, with a value sourced
// from a control.ConfigStore snapshot; it is also safe to call from a
// config-reload hook running on its own goroutine.
func (c *Connection) SetMaxFramePayload(n int64) {
	if n > 0 {
		c.maxFramePayload.Store(n)
	}
}

// LastError returns structured detail (code, message, and context
// such as the offending path) for the most recent handshake or
// protocol failure, or nil if the connection has not failed. A host
// typically inspects this from inside the api.Failed branch of its
// HandshakeCallback or after a non-nil error reaches its ReadCallback.
func (c *Connection) LastError() *api.Error {
	return c.lastError.Load()
}

// Transport returns the underlying transport, e.g. so a host can set
// deadlines on it.
func (c *Connection) Transport() api.Transport { return c.transport }

// Phase reports the connection's current coarse state.
func (c *Connection) Phase() Phase { return c.phase }

// Path returns the most recently parsed request-target.
func (c *Connection) Path() string { return c.path }

// IsActive reports whether the connection is neither shutting down
// nor already torn down.
func (c *Connection) IsActive() bool {
	return !c.shuttingDown && c.phase != PhaseClosed && c.transport.IsActive()
}

// Write sends data. In the Http phase it is sent byte-for-byte,
// supporting a host replying to a plain GET (e.g. serving version
// JSON) before any upgrade occurs. From Ws/Closing on, it is always
// framed as a single unmasked text frame.
func (c *Connection) Write(data []byte) error {
	switch c.phase {
	case PhaseClosed:
		return api.ErrWrongPhase
	case PhaseWS, PhaseClosing:
		return c.enqueueAndFlush(EncodeTextFrame(data))
	default:
		return c.enqueueAndFlush(data)
	}
}

// ReadStart installs the callbacks used to deliver decoded WebSocket
// messages and (re)starts the transport's read loop. Valid once the
// connection has upgraded (PhaseWS) or is running the close handshake
// (PhaseClosing, where the host passes nil callbacks to drain the
// peer's reply — see Close).
func (c *Connection) ReadStart(alloc api.AllocFunc, read api.ReadCallback) error {
	if c.ws == nil || (c.phase != PhaseWS && c.phase != PhaseClosing) {
		return api.ErrWrongPhase
	}
	if c.shuttingDown && read != nil {
		return api.ErrAlreadyClosing
	}
	c.ws.closeSent = false
	c.ws.allocCB = alloc
	c.ws.readCB = read
	return c.transport.StartRead(c.allocForWire, c.onTransportRead)
}

// ReadStop pauses delivery of decoded messages and the underlying
// transport read loop.
func (c *Connection) ReadStop() {
	if c.ws != nil {
		c.ws.allocCB = nil
		c.ws.readCB = nil
	}
	c.transport.StopRead()
}

// Close initiates the graceful close handshake: it stops delivering
// messages to the host, writes a CLOSE frame, and resumes reading
// with null callbacks so the peer's own CLOSE frame still drains
// through the state machine. cb fires exactly once, after the
// transport has actually been torn down — synchronously within this
// call if writing the CLOSE frame or restarting reads fails, otherwise
// later once the peer's CLOSE arrives.
func (c *Connection) Close(cb api.CloseCallback) error {
	if c.shuttingDown || c.phase == PhaseClosing || c.phase == PhaseClosed {
		return api.ErrAlreadyClosing
	}
	if c.phase != PhaseWS {
		return api.ErrWrongPhase
	}

	c.shuttingDown = true
	c.phase = PhaseClosing
	c.ws.closeCB = cb
	c.ws.allocCB = nil
	c.ws.readCB = nil

	if c.connectionEOF {
		c.teardownTransport()
		return nil
	}

	c.transport.StopRead()
	if err := c.enqueueAndFlush(CloseFrameBytes()); err != nil {
		c.teardownTransport()
		return nil
	}
	c.ws.closeSent = true

	if err := c.transport.StartRead(c.allocForWire, c.onTransportRead); err != nil {
		c.teardownTransport()
		return nil
	}

	if c.ws.receivedClose {
		c.teardownTransport()
	}
	return nil
}

// allocForWire is the AllocFunc handed to the transport: the single
// growing read buffer backs every read regardless of phase.
func (c *Connection) allocForWire(n int) []byte {
	return c.readBuf.Alloc(n)
}

// onTransportRead is the transport's ReadFunc: the sole entry point
// by which bytes (or a terminal error/EOF) reach this connection.
func (c *Connection) onTransportRead(n int, err error) {
	if err != nil {
		c.handleTransportError(err)
		return
	}
	c.readBuf.Commit(n)
	switch c.phase {
	case PhaseHTTP:
		c.feedHTTP()
	case PhaseWS, PhaseClosing:
		c.feedWS()
	}
}

func (c *Connection) handleTransportError(err error) {
	switch c.phase {
	case PhaseHTTP:
		cb := c.http.cb
		path := c.http.parser.Path()
		c.lastError.Store(api.NewError(api.ErrCodeTransport, "transport error during handshake").
			WithContext("path", path).WithContext("cause", err.Error()))
		c.http = nil
		c.phase = PhaseClosed
		c.transport.Close()
		cb(api.Failed, path)
	case PhaseWS, PhaseClosing:
		c.connectionEOF = true
		if !c.shuttingDown {
			wrapped := api.NewError(api.ErrCodeTransport, "transport error").WithContext("cause", err.Error())
			c.lastError.Store(wrapped)
			c.emitRead(nil, wrapped)
		}
		c.teardownTransport()
	}
}

// feedHTTP drains the read buffer through the incremental HTTP
// parser, handling as many complete requests as are already buffered
// (a host that returns true from an HTTPGet event may immediately
// find a pipelined next request waiting).
func (c *Connection) feedHTTP() {
	for c.phase == PhaseHTTP && c.readBuf.Len() > 0 {
		data := c.readBuf.Bytes()
		consumed, done, perr := c.http.parser.Feed(data)
		if consumed > 0 {
			c.readBuf.Consume(consumed)
		}
		if perr != nil {
			c.failHandshake(c.http.parser.Path(), true)
			return
		}
		if !done {
			return
		}
		c.onRequestComplete()
	}
}

// onRequestComplete implements spec.md §4.5's four-way branch once a
// full HTTP request has been parsed.
func (c *Connection) onRequestComplete() {
	method := c.http.parser.Method()
	path := c.http.parser.Path()
	c.path = path
	cb := c.http.cb

	if method != "GET" {
		c.failHandshake(path, true)
		return
	}

	if !c.http.parser.IsUpgrade() {
		if cb(api.HTTPGet, path) {
			c.http.parser.Reset()
			return
		}
		c.failHandshake(path, true)
		return
	}

	wsKey, ok := c.http.parser.WSKey()
	if !ok {
		c.failHandshake(path, true)
		return
	}

	if !cb(api.Upgrading, path) {
		c.failHandshake(path, true)
		return
	}

	response := upgradeResponse(AcceptKey(wsKey))
	if err := c.enqueueAndFlush(response); err != nil {
		c.lastError.Store(api.NewError(api.ErrCodeTransport, "failed writing upgrade response").
			WithContext("path", path).WithContext("cause", err.Error()))
		c.http = nil
		c.phase = PhaseClosed
		c.transport.Close()
		cb(api.Failed, "")
		return
	}

	c.http = nil
	c.phase = PhaseWS
	c.ws = &wsState{}
	// Discard any bytes buffered beyond the request terminator: a
	// client may not pipeline its first WS frame into the same TCP
	// segment as the upgrade request (spec.md §9 Open Question,
	// preserved rather than relaxed).
	c.readBuf.Reset()
	c.transport.StopRead()
	cb(api.Upgraded, path)
}

// failHandshake tears down a connection that cannot complete its
// handshake. The 400 response write is best-effort: its result is
// not checked, matching the original inspector socket's
// write-then-close-regardless behavior.
func (c *Connection) failHandshake(path string, writeResponse bool) {
	cb := c.http.cb
	c.lastError.Store(api.NewError(api.ErrCodeHandshakeFailed, "websocket handshake failed").
		WithContext("path", path))
	if writeResponse {
		_ = c.enqueueAndFlush(handshakeFailedResponse)
	}
	c.http = nil
	c.phase = PhaseClosed
	c.transport.Close()
	cb(api.Failed, path)
}

// feedWS drains the read buffer through the frame codec, dispatching
// each decoded frame and compacting the buffer by the bytes consumed.
func (c *Connection) feedWS() {
	for c.phase != PhaseClosed && c.readBuf.Len() > 0 {
		status, frame, consumed := DecodeFrame(c.readBuf.Bytes(), c.maxFramePayload.Load())
		switch status {
		case StatusIncomplete:
			return
		case StatusError:
			c.failProtocol(decodeErrorToAPI(frame))
			return
		case StatusClose:
			c.readBuf.Consume(consumed)
			c.onCloseFrameReceived()
		case StatusOK:
			c.readBuf.Consume(consumed)
			c.deliverMessage(frame.Payload)
		}
	}
}

// failProtocol delivers a single EPROTO-equivalent error to the host
// and tears the connection down.
func (c *Connection) failProtocol(cause error) {
	wrapped := api.NewError(api.ErrCodeProtocolViolation, "websocket protocol violation").
		WithContext("path", c.path).WithContext("cause", cause.Error())
	c.lastError.Store(wrapped)
	c.emitRead(nil, wrapped)
	c.teardownTransport()
}

// onCloseFrameReceived implements the close-handshake convergence:
// once both close_sent and received_close are true, the transport is
// torn down regardless of whether the host ever called Close.
func (c *Connection) onCloseFrameReceived() {
	c.ws.receivedClose = true
	if !c.ws.closeSent {
		c.emitRead(nil, nil)
		if err := c.enqueueAndFlush(CloseFrameBytes()); err != nil {
			c.teardownTransport()
			return
		}
		c.ws.closeSent = true
	}
	if c.ws.closeSent && c.ws.receivedClose {
		c.teardownTransport()
	}
}

// deliverMessage copies a decoded text payload into the host's
// allocation (if one was provided via ReadStart) and invokes the
// host's read callback.
func (c *Connection) deliverMessage(payload []byte) {
	if c.ws == nil || c.ws.readCB == nil {
		return
	}
	dst := payload
	if c.ws.allocCB != nil {
		buf := c.ws.allocCB(len(payload))
		n := copy(buf, payload)
		dst = buf[:n]
	}
	c.ws.readCB(dst, nil)
}

func (c *Connection) emitRead(data []byte, err error) {
	if c.ws == nil || c.ws.readCB == nil {
		return
	}
	c.ws.readCB(data, err)
}

// teardownTransport closes the transport and fires the host's close
// callback exactly once. Idempotent: calling it after the connection
// already reached PhaseClosed is a no-op.
func (c *Connection) teardownTransport() {
	if c.phase == PhaseClosed {
		return
	}
	c.phase = PhaseClosed
	var cb api.CloseCallback
	if c.ws != nil {
		cb = c.ws.closeCB
	}
	c.ws = nil
	c.transport.Close()
	if cb != nil {
		cb()
	}
}

// enqueueAndFlush appends b to the pending-write queue and drains it
// immediately, preserving submission order across any writes the
// state machine itself interleaves with host-issued ones.
func (c *Connection) enqueueAndFlush(b []byte) error {
	c.pendingWrites.Add(b)
	return c.flushWrites()
}

func (c *Connection) flushWrites() error {
	for c.pendingWrites.Length() > 0 {
		item := c.pendingWrites.Peek().([]byte)
		if err := c.transport.Write(item); err != nil {
			c.pendingWrites.Remove()
			return err
		}
		c.pendingWrites.Remove()
	}
	return nil
}
