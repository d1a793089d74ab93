package protocol

import (
	"bytes"
	"testing"

	"github.com/momentics/inspector-ws/api"
)

func TestDecodeIncompleteOnShortHeader(t *testing.T) {
	status, _, consumed := DecodeFrame([]byte{0x81}, 0)
	if status != StatusIncomplete || consumed != 0 {
		t.Fatalf("got status=%v consumed=%d, want Incomplete/0", status, consumed)
	}
}

func TestEncodeDecodeIdentitySmallPayload(t *testing.T) {
	payload := []byte("hello inspector")
	wire := encodeFrame(OpcodeText, payload, 0x01020304)

	status, frame, consumed := DecodeFrame(wire, 0)
	if status != StatusOK {
		t.Fatalf("status = %v, want StatusOK", status)
	}
	if consumed != len(wire) {
		t.Fatalf("consumed = %d, want %d", consumed, len(wire))
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Fatalf("Payload = %q, want %q", frame.Payload, payload)
	}
}

func TestEncodeDecodeIdentityTwoByteLength(t *testing.T) {
	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i)
	}
	wire := encodeFrame(OpcodeText, payload, 0xDEADBEEF)

	status, frame, consumed := DecodeFrame(wire, 0)
	if status != StatusOK || consumed != len(wire) {
		t.Fatalf("status=%v consumed=%d", status, consumed)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestEncodeDecodeIdentityEightByteLength(t *testing.T) {
	payload := make([]byte, 70000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	wire := encodeFrame(OpcodeText, payload, 0x01)

	status, frame, consumed := DecodeFrame(wire, 0)
	if status != StatusOK || consumed != len(wire) {
		t.Fatalf("status=%v consumed=%d", status, consumed)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestDecodeRejectsUnmaskedClientFrame(t *testing.T) {
	wire := []byte{FinBit | OpcodeText, 0x05, 'h', 'e', 'l', 'l', 'o'}
	status, _, consumed := DecodeFrame(wire, 0)
	if status != StatusError || consumed != 0 {
		t.Fatalf("got status=%v consumed=%d, want Error/0", status, consumed)
	}
}

func TestDecodeRejectsFragmentedFrame(t *testing.T) {
	wire := encodeFrame(OpcodeText, []byte("x"), 0x01)
	wire[0] &^= FinBit // clear FIN
	status, _, _ := DecodeFrame(wire, 0)
	if status != StatusError {
		t.Fatalf("got status=%v, want Error", status)
	}
}

func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	wire := encodeFrame(OpcodeBinary, []byte("x"), 0x01)
	status, _, _ := DecodeFrame(wire, 0)
	if status != StatusError {
		t.Fatalf("got status=%v, want Error", status)
	}
}

func TestDecodeRejectsCompressedFrame(t *testing.T) {
	wire := encodeFrame(OpcodeText, []byte("x"), 0x01)
	wire[0] |= Reserved1Bit
	status, frame, consumed := DecodeFrame(wire, 0)
	if status != StatusError || consumed != 0 {
		t.Fatalf("got status=%v consumed=%d, want Error/0", status, consumed)
	}
	if decodeErrorToAPI(frame) != api.ErrCompressedFrame {
		t.Fatalf("decodeErrorToAPI did not classify as compressed")
	}
}

func TestDecodeRejectsOversizedPayload(t *testing.T) {
	wire := encodeFrame(OpcodeText, make([]byte, 100), 0x01)
	status, _, consumed := DecodeFrame(wire, 10)
	if status != StatusError || consumed != 0 {
		t.Fatalf("got status=%v consumed=%d, want Error/0", status, consumed)
	}
}

func TestDecodeCloseFrame(t *testing.T) {
	wire := encodeFrame(OpcodeClose, nil, 0x01)
	status, frame, consumed := DecodeFrame(wire, 0)
	if status != StatusClose {
		t.Fatalf("got status=%v, want StatusClose", status)
	}
	if consumed != len(wire) {
		t.Fatalf("consumed = %d, want %d", consumed, len(wire))
	}
	if len(frame.Payload) != 0 {
		t.Fatalf("expected empty close payload, got %q", frame.Payload)
	}
}

func TestEncodeTextFrameIsUnmaskedAndFinal(t *testing.T) {
	wire := EncodeTextFrame([]byte("hi"))
	if wire[0] != FinBit|OpcodeText {
		t.Fatalf("first byte = %#x, want FIN|text", wire[0])
	}
	if wire[1]&MaskBit != 0 {
		t.Fatalf("server frame must not be masked")
	}
}

func TestCloseFrameBytesWireFormat(t *testing.T) {
	wire := CloseFrameBytes()
	if len(wire) != 2 || wire[0] != FinBit|OpcodeClose || wire[1] != 0 {
		t.Fatalf("CloseFrameBytes = % x, want empty final close frame", wire)
	}
}
