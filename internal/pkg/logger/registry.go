package logger

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"unicode"
)

var ErrInvalidName = errors.New("invalid logger name")

// Registry maps logger names to loggers. Lookups that cannot be satisfied
// fall back to a fixed default logger instead of failing.
type Registry struct {
	mu       sync.RWMutex
	loggers  map[string]*slog.Logger
	fallback *slog.Logger
	internal *slog.Logger
	warned   sync.Map
}

// NewRegistry creates a registry whose default handle is fallback. Warnings
// about unresolvable names go to internal.
func NewRegistry(fallback, internal *slog.Logger) *Registry {
	if fallback == nil {
		fallback = slog.Default()
	}
	if internal == nil {
		internal = fallback
	}
	return &Registry{
		loggers:  make(map[string]*slog.Logger),
		fallback: fallback,
		internal: internal,
	}
}

// Register binds name to l, replacing any previous binding.
func (r *Registry) Register(name string, l *slog.Logger) error {
	name = strings.TrimSpace(name)
	if !validName(name) || l == nil {
		return ErrInvalidName
	}
	r.mu.Lock()
	r.loggers[name] = l
	r.mu.Unlock()
	return nil
}

// Lookup returns the logger bound to name.
func (r *Registry) Lookup(name string) (*slog.Logger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loggers[strings.TrimSpace(name)]
	return l, ok
}

// Default returns the fallback handle.
func (r *Registry) Default() *slog.Logger {
	return r.fallback
}

// Resolve returns the logger bound to name. An empty name yields the default
// handle silently; an invalid or unknown name yields the default handle and a
// one-time warning.
func (r *Registry) Resolve(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return r.fallback
	}
	if l, ok := r.Lookup(name); ok {
		return l
	}
	if _, seen := r.warned.LoadOrStore(name, struct{}{}); !seen {
		r.internal.Warn("logger not found, using default logger", "name", name)
	}
	return r.fallback
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		if unicode.IsSpace(c) || unicode.IsControl(c) {
			return false
		}
	}
	return true
}
