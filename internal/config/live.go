package config

import "sync/atomic"

// Live holds the running configuration. Readers get an immutable snapshot;
// the configure API publishes a new value instead of editing the current one.
type Live struct {
	current atomic.Pointer[Config]
}

func NewLive(cfg *Config) *Live {
	l := &Live{}
	l.Set(cfg)
	return l
}

// Get returns the current snapshot. Callers must not modify it.
func (l *Live) Get() *Config {
	return l.current.Load()
}

// Set publishes cfg as the running configuration.
func (l *Live) Set(cfg *Config) {
	l.current.Store(cfg)
}
