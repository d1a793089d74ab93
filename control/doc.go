// Package control
// Author: momentics <momentics@gmail.com>
//
// Hot-reload, runtime metrics, configuration control, and debug
// introspection for an inspector socket listener. Nothing in protocol
// or transport calls into control directly — it is a pull-based
// ambient layer a host wires up around its own listener loop, the way
// a process might expose /debug/vars alongside its real work.
package control
