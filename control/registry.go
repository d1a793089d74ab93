// control/registry.go
// Author: momentics <momentics@gmail.com>
//
// Registry composes ConfigStore, MetricsRegistry and DebugProbes into
// a single api.Control a host can hand to its own admin endpoint.

package control

import "github.com/momentics/inspector-ws/api"

type Registry struct {
	config  *ConfigStore
	metrics *MetricsRegistry
	debug   *DebugProbes
}

// NewRegistry builds a Registry seeded with DefaultConfig and the
// platform debug probes.
func NewRegistry() *Registry {
	r := &Registry{
		config:  NewConfigStore(DefaultConfig()),
		metrics: NewMetricsRegistry(),
		debug:   NewDebugProbes(),
	}
	RegisterPlatformProbes(r.debug)
	return r
}

func (r *Registry) GetConfig() map[string]any { return r.config.GetSnapshot() }

func (r *Registry) SetConfig(cfg map[string]any) error {
	r.config.SetConfig(cfg)
	return nil
}

func (r *Registry) Stats() map[string]any {
	stats := r.metrics.GetSnapshot()
	debugStats := r.debug.DumpState()
	combined := make(map[string]any, len(stats)+len(debugStats))
	for k, v := range stats {
		combined[k] = v
	}
	for k, v := range debugStats {
		combined["debug."+k] = v
	}
	return combined
}

func (r *Registry) OnReload(fn func()) {
	r.config.OnReload(fn)
	RegisterReloadHook(fn)
}

func (r *Registry) RegisterDebugProbe(name string, fn func() any) {
	r.debug.RegisterProbe(name, fn)
}

// IncrMetric is a convenience used by hosts wiring Registry into a
// Connection's handshake/close callbacks.
func (r *Registry) IncrMetric(key string, delta int) {
	r.metrics.Incr(key, delta)
}

var _ api.Control = (*Registry)(nil)
