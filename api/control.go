// File: api/control.go
// Author: momentics <momentics@gmail.com>
//
// Control manages dynamic config and runtime metrics for a listener
// built on this module; it is never consulted by protocol.Connection
// itself.

package api

// Control manages dynamic config and runtime metrics.
type Control interface {
	GetConfig() map[string]any
	SetConfig(cfg map[string]any) error
	Stats() map[string]any
	OnReload(fn func())
	RegisterDebugProbe(name string, fn func() any)
}
