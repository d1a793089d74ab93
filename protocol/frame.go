// File: protocol/frame.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// hybi-17 frame codec. Encode and Decode are pure functions over byte
// slices: no I/O, no allocation beyond the returned payload copy, so
// they can be fuzzed and unit-tested without a transport.

package protocol

import (
	"encoding/binary"
	"math"

	"github.com/momentics/inspector-ws/api"
)

// DecodeStatus classifies the outcome of decoding one frame from the
// front of a byte span, mirroring the ws_decode_result enum of the
// original inspector socket.
type DecodeStatus int

const (
	// StatusIncomplete means fewer bytes are buffered than the frame
	// needs; the caller should wait for more input and retry.
	StatusIncomplete DecodeStatus = iota
	// StatusOK means a complete text frame was decoded.
	StatusOK
	// StatusClose means a complete close frame was decoded.
	StatusClose
	// StatusError means the bytes do not form a valid frame this
	// library accepts; the connection must be torn down.
	StatusError
)

// WSFrame is a decoded hybi-17 frame. Only fields meaningful for text
// and close frames are kept; there is no fragmentation or extension
// support.
type WSFrame struct {
	Opcode     byte
	Compressed bool   // reserved1 bit; always rejected, kept for diagnostics
	Payload    []byte // unmasked, owned copy; exact length, no NUL padding
}

// closeFrameWire is the literal two bytes of a server-sent close
// frame: FIN=1, opcode=close, no mask, zero-length payload.
var closeFrameWire = [2]byte{FinBit | OpcodeClose, 0x00}

// CloseFrameBytes returns the wire bytes of an empty close frame.
func CloseFrameBytes() []byte {
	out := make([]byte, len(closeFrameWire))
	copy(out, closeFrameWire[:])
	return out
}

// EncodeTextFrame serializes payload as a single, final, unmasked
// text frame. The server side of this library never masks outbound
// frames (server-to-client masking is a protocol violation, and
// spec.md explicitly excludes it as a non-goal).
func EncodeTextFrame(payload []byte) []byte {
	return encodeFrame(OpcodeText, payload, 0)
}

// encodeFrame serializes payload under opcode with FIN set. If
// maskKey is non-zero its four constituent bytes (little-endian layout
// of the uint32, treated as four independent bytes per spec.md's
// canonicalization of the original's address-of-int masking) are
// written after the length field and XORed into the payload.
func encodeFrame(opcode byte, payload []byte, maskKey uint32) []byte {
	n := len(payload)

	headerLen := 2
	switch {
	case n <= MaxSingleBytePayloadLen:
	case n <= 0xFFFF:
		headerLen += 2
	default:
		headerLen += 8
	}
	if maskKey != 0 {
		headerLen += MaskKeyLen
	}

	out := make([]byte, headerLen+n)
	out[0] = FinBit | opcode

	var maskBit byte
	if maskKey != 0 {
		maskBit = MaskBit
	}

	offset := 2
	switch {
	case n <= MaxSingleBytePayloadLen:
		out[1] = byte(n) | maskBit
	case n <= 0xFFFF:
		out[1] = TwoBytePayloadLenField | maskBit
		binary.BigEndian.PutUint16(out[offset:], uint16(n))
		offset += 2
	default:
		out[1] = EightBytePayloadLenField | maskBit
		binary.BigEndian.PutUint64(out[offset:], uint64(n))
		offset += 8
	}

	if maskKey != 0 {
		var mask [MaskKeyLen]byte
		binary.LittleEndian.PutUint32(mask[:], maskKey)
		copy(out[offset:], mask[:])
		offset += MaskKeyLen
		for i := 0; i < n; i++ {
			out[offset+i] = payload[i] ^ mask[i%MaskKeyLen]
		}
		return out
	}

	copy(out[offset:], payload)
	return out
}

// DecodeFrame consumes a prefix of data and reports what it found.
// maxPayload caps the accepted payload length to guard against
// resource exhaustion from a hostile peer; pass 0 to accept anything
// up to the size_t/int64 bound RFC 6455 itself imposes.
func DecodeFrame(data []byte, maxPayload int64) (DecodeStatus, *WSFrame, int) {
	if len(data) < 2 {
		return StatusIncomplete, nil, 0
	}

	first, second := data[0], data[1]
	final := first&FinBit != 0
	reserved1 := first&Reserved1Bit != 0
	reserved2 := first&Reserved2Bit != 0
	reserved3 := first&Reserved3Bit != 0
	opcode := first & OpcodeMask
	masked := second&MaskBit != 0

	if !final || reserved2 || reserved3 {
		return StatusError, nil, 0
	}

	switch opcode {
	case OpcodeText, OpcodeClose:
		// accepted
	default:
		return StatusError, nil, 0
	}

	// Client frames must always be masked (RFC 6455 §5.1); this
	// library is server-only, so every decoded frame is a client frame.
	if !masked {
		return StatusError, nil, 0
	}

	offset := 2
	payloadLen64 := int64(second & PayloadLengthMask)
	switch payloadLen64 {
	case TwoBytePayloadLenField:
		if len(data) < offset+2 {
			return StatusIncomplete, nil, 0
		}
		payloadLen64 = int64(binary.BigEndian.Uint16(data[offset:]))
		offset += 2
	case EightBytePayloadLenField:
		if len(data) < offset+8 {
			return StatusIncomplete, nil, 0
		}
		ext := binary.BigEndian.Uint64(data[offset:])
		if ext > math.MaxInt64 {
			return StatusError, nil, 0
		}
		payloadLen64 = int64(ext)
		offset += 8
	}

	if payloadLen64 < 0 {
		return StatusError, nil, 0
	}
	if maxPayload > 0 && payloadLen64 > maxPayload {
		return StatusError, nil, 0
	}

	if len(data) < offset+MaskKeyLen {
		return StatusIncomplete, nil, 0
	}
	var maskKey [MaskKeyLen]byte
	copy(maskKey[:], data[offset:offset+MaskKeyLen])
	offset += MaskKeyLen

	totalLen := offset + int(payloadLen64)
	if totalLen < offset || len(data) < totalLen {
		return StatusIncomplete, nil, 0
	}

	payload := make([]byte, payloadLen64)
	src := data[offset:totalLen]
	for i := range payload {
		payload[i] = src[i] ^ maskKey[i%MaskKeyLen]
	}

	frame := &WSFrame{Opcode: opcode, Compressed: reserved1, Payload: payload}

	if reserved1 {
		return StatusError, frame, 0
	}
	if opcode == OpcodeClose {
		return StatusClose, frame, totalLen
	}
	return StatusOK, frame, totalLen
}

// decodeErrorToAPI classifies a StatusError frame for metrics and the
// user-visible EPROTO signal, distinguishing a compressed frame from
// any other malformed one per spec.md §4.1/§9.
func decodeErrorToAPI(frame *WSFrame) error {
	if frame != nil && frame.Compressed {
		return api.ErrCompressedFrame
	}
	return api.ErrMalformedFrame
}
