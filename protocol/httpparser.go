// File: protocol/httpparser.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Incremental HTTP/1.1 request-line + header parser. Unlike net/http's
// bufio.Reader-backed http.ReadRequest, Feed tolerates being called
// with arbitrarily small chunks of the request — including a chunk
// boundary that lands in the middle of a header name — because the
// inspector socket's transport delivers bytes as they arrive off the
// wire, not as a buffered stream the parser can block on.
//
// The state machine accumulates header field/value bytes the same
// way the original inspector socket's http_parser callbacks did:
// current_header tracks the most recently seen field name, reset the
// moment a new field begins after a value was seen, so a header's
// value-byte callbacks can be attributed to the field they belong to
// without needing a full map of all headers.

package protocol

import (
	"strings"

	"github.com/momentics/inspector-ws/api"
)

// secWebSocketKeyHeader is compared case-sensitively against the raw
// bytes of the header field name, matching the original's strncmp (not
// strncasecmp) comparison. A client that sends "sec-websocket-key" in
// any other casing will not have its key recognized — preserved
// deliberately per spec.md §9's instruction to keep this behavior
// rather than "fix" it, since every real WebSocket client sends the
// canonical casing.
const secWebSocketKeyHeader = "Sec-WebSocket-Key"

type parserState int

const (
	stateMethod parserState = iota
	stateURL
	stateVersion
	stateVersionLF
	stateHeaderFieldStart
	stateHeaderField
	stateHeaderValueLWS
	stateHeaderValue
	stateHeaderValueLF
	stateHeadersAlmostDone
	stateDone
)

// RequestParser incrementally parses one HTTP/1.1 request line plus
// headers. A single instance is re-initialized (Reset) to parse each
// subsequent plain-GET request on a connection that stays in the Http
// phase.
type RequestParser struct {
	state parserState

	method strings.Builder
	url    strings.Builder

	currentHeader   strings.Builder
	parsingValue    bool
	wsKey           strings.Builder
	connectionValue strings.Builder
	upgradeValue    strings.Builder
}

// NewRequestParser returns a parser ready to parse a request line.
func NewRequestParser() *RequestParser {
	return &RequestParser{}
}

// Reset clears all accumulated state so the parser can parse another
// request on the same connection (§4.5 "plain GET, cb=true" branch).
func (p *RequestParser) Reset() {
	p.state = stateMethod
	p.method.Reset()
	p.url.Reset()
	p.currentHeader.Reset()
	p.parsingValue = false
	p.wsKey.Reset()
	p.connectionValue.Reset()
	p.upgradeValue.Reset()
}

// Feed parses as much of data as forms complete tokens, returning the
// number of bytes consumed and whether the request is now complete.
// A non-nil err means the input is not a well-formed request and the
// connection must fail the handshake; consumed bytes up to the error
// are still meaningful for diagnostics but should not be retried.
func (p *RequestParser) Feed(data []byte) (consumed int, done bool, err error) {
	for i, b := range data {
		switch p.state {
		case stateMethod:
			switch {
			case b == ' ':
				p.state = stateURL
			case b >= 'A' && b <= 'Z':
				p.method.WriteByte(b)
			default:
				return i, false, api.ErrMalformedHTTP
			}

		case stateURL:
			switch b {
			case ' ':
				p.state = stateVersion
			case '\r', '\n':
				return i, false, api.ErrMalformedHTTP
			default:
				p.url.WriteByte(b)
			}

		case stateVersion:
			switch b {
			case '\r':
				p.state = stateVersionLF
			case '\n':
				p.state = stateHeaderFieldStart
			}

		case stateVersionLF:
			if b != '\n' {
				return i, false, api.ErrMalformedHTTP
			}
			p.state = stateHeaderFieldStart

		case stateHeaderFieldStart:
			switch b {
			case '\r':
				p.state = stateHeadersAlmostDone
			case '\n':
				return i + 1, true, nil
			default:
				p.onFieldByte(b)
				p.state = stateHeaderField
			}

		case stateHeaderField:
			switch b {
			case ':':
				p.state = stateHeaderValueLWS
			case '\r', '\n':
				return i, false, api.ErrMalformedHTTP
			default:
				p.onFieldByte(b)
			}

		case stateHeaderValueLWS:
			if b == ' ' || b == '\t' {
				continue
			}
			if b == '\r' {
				p.state = stateHeaderValueLF
				continue
			}
			p.onValueByte(b)
			p.state = stateHeaderValue

		case stateHeaderValue:
			switch b {
			case '\r':
				p.state = stateHeaderValueLF
			case '\n':
				p.state = stateHeaderFieldStart
			default:
				p.onValueByte(b)
			}

		case stateHeaderValueLF:
			if b != '\n' {
				return i, false, api.ErrMalformedHTTP
			}
			p.state = stateHeaderFieldStart

		case stateHeadersAlmostDone:
			if b != '\n' {
				return i, false, api.ErrMalformedHTTP
			}
			p.state = stateDone
			return i + 1, true, nil

		case stateDone:
			return i, true, nil
		}
	}
	return len(data), false, nil
}

// onFieldByte appends a header-field-name byte, resetting the
// accumulator the moment a new field starts right after a value was
// being parsed — exactly the original's header_field_cb behavior.
func (p *RequestParser) onFieldByte(b byte) {
	if p.parsingValue {
		p.parsingValue = false
		p.currentHeader.Reset()
	}
	p.currentHeader.WriteByte(b)
}

// onValueByte appends a header-value byte, attributing it to
// whichever of the headers this parser tracks current_header
// currently names.
func (p *RequestParser) onValueByte(b byte) {
	p.parsingValue = true
	switch {
	case p.currentHeader.String() == secWebSocketKeyHeader:
		p.wsKey.WriteByte(b)
	case strings.EqualFold(p.currentHeader.String(), "Connection"):
		p.connectionValue.WriteByte(b)
	case strings.EqualFold(p.currentHeader.String(), "Upgrade"):
		p.upgradeValue.WriteByte(b)
	}
}

// Method returns the accumulated request method token.
func (p *RequestParser) Method() string { return p.method.String() }

// Path returns the accumulated request-target (URL).
func (p *RequestParser) Path() string { return p.url.String() }

// WSKey returns the Sec-WebSocket-Key header's value, or "" if absent.
func (p *RequestParser) WSKey() (string, bool) {
	if p.wsKey.Len() == 0 {
		return "", false
	}
	return p.wsKey.String(), true
}

// IsUpgrade reports whether Connection contains the "upgrade" token
// and Upgrade contains the "websocket" token, case-insensitively —
// the RFC 6455 §4.1 trigger for the upgrade branch.
func (p *RequestParser) IsUpgrade() bool {
	return containsToken(p.connectionValue.String(), "upgrade") &&
		containsToken(p.upgradeValue.String(), "websocket")
}

// containsToken checks whether value, when split on commas, contains
// token as a case-insensitively, whitespace-trimmed match.
func containsToken(value, token string) bool {
	for _, part := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}
