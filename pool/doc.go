// Package pool provides the connection's read buffer: a single,
// monotonically growing byte region used by both the HTTP and
// WebSocket phases of protocol.Connection.
//
// Unlike the NUMA-sharded object pools elsewhere in the hioload-ws
// lineage, a ReadBuffer is never shared across connections — each
// Connection owns exactly one, for its entire lifetime.
package pool
