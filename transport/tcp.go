// File: transport/tcp.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Conn adapts a net.Conn (typically an accepted *net.TCPConn) to
// api.Transport.

package transport

import (
	"net"
	"sync"

	"github.com/momentics/inspector-ws/api"
)

// readChunk is the suggested size passed to AllocFunc for each read;
// the read buffer grows in GrowthChunk multiples regardless, this is
// just the syscall's read(2) request size.
const readChunk = 4096

// Conn drives one accepted TCP stream. NewConn starts its read
// goroutine immediately; it idles until StartRead is called.
type Conn struct {
	conn net.Conn

	mu      sync.Mutex
	alloc   api.AllocFunc
	read    api.ReadFunc
	reading bool
	closed  bool
	wake    chan struct{}
}

// NewConn wraps conn, applying best-effort Nagle-disabling tuning
// (see tcp_linux.go / tcp_other.go), and starts its reader goroutine.
func NewConn(conn net.Conn) *Conn {
	_ = setTCPNoDelay(conn)
	c := &Conn{conn: conn, wake: make(chan struct{}, 1)}
	go c.loop()
	return c
}

func (c *Conn) loop() {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		if !c.reading {
			c.mu.Unlock()
			<-c.wake
			continue
		}
		alloc, read := c.alloc, c.read
		c.mu.Unlock()

		buf := alloc(readChunk)
		n, err := c.conn.Read(buf)

		c.mu.Lock()
		stillReading := c.reading && !c.closed
		c.mu.Unlock()
		if !stillReading {
			continue
		}

		read(n, err)
		if err != nil {
			return
		}
	}
}

func (c *Conn) StartRead(alloc api.AllocFunc, read api.ReadFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return api.ErrTransportClosed
	}
	c.alloc = alloc
	c.read = read
	c.reading = true
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

func (c *Conn) StopRead() {
	c.mu.Lock()
	c.reading = false
	c.mu.Unlock()
}

func (c *Conn) Write(p []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return api.ErrTransportClosed
	}
	_, err := c.conn.Write(p)
	return err
}

func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.reading = false
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return c.conn.Close()
}

func (c *Conn) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

var _ api.Transport = (*Conn)(nil)
