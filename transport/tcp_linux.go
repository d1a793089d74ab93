//go:build linux
// +build linux

// File: transport/tcp_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific socket tuning: disable Nagle's algorithm so small
// WebSocket frames (a debugger protocol is almost all small JSON-RPC
// messages) aren't held back waiting to coalesce.

package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

func setTCPNoDelay(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := rawConn.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	}); err != nil {
		return err
	}
	return sockErr
}
