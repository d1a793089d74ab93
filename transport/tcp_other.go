//go:build !linux
// +build !linux

// File: transport/tcp_other.go
// Author: momentics <momentics@gmail.com>
//
// Non-Linux Nagle-disabling via the standard library's portable API.

package transport

import "net"

func setTCPNoDelay(conn net.Conn) error {
	if tc, ok := conn.(*net.TCPConn); ok {
		return tc.SetNoDelay(true)
	}
	return nil
}
