// Package tests
// Author: momentics <momentics@gmail.com>
//
// Integration test exercising a real loopback TCP connection and a
// real gorilla/websocket client against protocol.Connection, ensuring
// the frame codec, handshake and transport layers interact correctly
// end to end (not just against the in-memory fake).

package tests

import (
	"net"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/momentics/inspector-ws/api"
	"github.com/momentics/inspector-ws/protocol"
	"github.com/momentics/inspector-ws/transport"
)

func TestCompleteWebSocketFlow(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	echoed := make(chan string, 1)

	go func() {
		raw, err := ln.Accept()
		if err != nil {
			return
		}
		t := transport.NewConn(raw)
		var conn *protocol.Connection
		conn, err = protocol.Accept(t, func(event api.HandshakeEvent, path string) bool {
			if event == api.Upgraded {
				conn.ReadStart(nil, func(data []byte, err error) {
					if err != nil || data == nil {
						return
					}
					echoed <- string(data)
					_ = conn.Write(data)
				})
			}
			return true
		})
		if err != nil {
			return
		}
	}()

	url := "ws://" + ln.Addr().String() + "/target"
	client, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	defer resp.Body.Close()

	if err := client.WriteMessage(gorillaws.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-echoed:
		if got != "hello" {
			t.Fatalf("server received %q, want hello", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server to receive the message")
	}

	_, msg, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read echo: %v", err)
	}
	if string(msg) != "hello" {
		t.Fatalf("echo = %q, want hello", msg)
	}
}
