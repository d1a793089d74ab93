// Package transport
// Author: momentics <momentics@gmail.com>
//
// Concrete api.Transport over a net.Conn. A single background
// goroutine per connection performs reads and invokes the installed
// ReadFunc directly; it is that goroutine which is "the" owning
// goroutine a protocol.Connection's methods must be called from,
// mirroring the single-threaded callback-loop model the inspector
// socket was originally built on (spec.md §5) without requiring an
// actual single-threaded runtime.
package transport
