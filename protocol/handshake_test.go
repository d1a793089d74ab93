package protocol

import "testing"

func TestAcceptKeyCanonicalVector(t *testing.T) {
	// RFC 6455 §1.3 worked example.
	got := AcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("AcceptKey = %q, want %q", got, want)
	}
}

func TestAcceptKeyLength(t *testing.T) {
	got := AcceptKey("x3JJHMbDL1EzLkh9GBhXDw==")
	if len(got) != AcceptKeyLen {
		t.Fatalf("len(AcceptKey) = %d, want %d", len(got), AcceptKeyLen)
	}
}

func TestUpgradeResponseContainsAccept(t *testing.T) {
	resp := upgradeResponse("s3pPLMBiTxaQ9kYGzzhZRbK+xOo=")
	want := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n" +
		"\r\n"
	if string(resp) != want {
		t.Fatalf("upgradeResponse = %q, want %q", resp, want)
	}
}
