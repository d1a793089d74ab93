// File: protocol/handshake.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Accept-key computation and the two fixed HTTP response templates
// the handshake phase ever emits.

package protocol

import (
	"crypto/sha1"
	"encoding/base64"
)

// AcceptKey computes base64(SHA1(clientKey ++ WebSocketGUID)), the
// value of the Sec-WebSocket-Accept response header, per RFC 6455
// §1.3.
func AcceptKey(clientKey string) string {
	h := sha1.New()
	h.Write([]byte(clientKey))
	h.Write([]byte(WebSocketGUID))
	sum := h.Sum(nil)
	return base64.StdEncoding.EncodeToString(sum)
}

// upgradeResponse renders the exact 101 Switching Protocols response
// byte-for-byte, per spec.md §4.5.
func upgradeResponse(accept string) []byte {
	return []byte("HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + accept + "\r\n" +
		"\r\n")
}

// handshakeFailedResponse is the exact 400 Bad Request body emitted
// on any handshake failure, per spec.md §4.5.
var handshakeFailedResponse = []byte("HTTP/1.0 400 Bad Request\r\n" +
	"Content-Type: text/html; charset=UTF-8\r\n" +
	"\r\n" +
	"WebSockets request was expected\r\n")
