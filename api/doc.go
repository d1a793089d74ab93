// Package api defines the seams between the inspector connection state
// machine and its host: the transport it reads and writes, the buffer
// pool backing its read buffer, and the handshake callback contract.
//
// Nothing in this package talks to a real socket; concrete
// implementations live in transport and pool.
package api
