package mixin

import (
	"errors"
	"fmt"
	"sync"
)

// Registry holds the extensions available to a host, keyed by name.
type Registry struct {
	mu    sync.RWMutex
	exts  map[string]*Extension
	order []string
}

func NewRegistry() *Registry {
	return &Registry{exts: map[string]*Extension{}}
}

// Register creates the extension for def and adds it under def.Name.
func (g *Registry) Register(def Definition, cfg Config) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.exts[def.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateExtension, def.Name)
	}
	ext, err := New(def, cfg)
	if err != nil {
		return err
	}
	g.exts[def.Name] = ext
	g.order = append(g.order, def.Name)
	return nil
}

// RegisterAll registers every definition. Failures are reported on r and
// the failing definition is skipped; the number registered is returned.
func (g *Registry) RegisterAll(defs []Definition, cfg Config, r Reporter) int {
	n := 0
	for _, def := range defs {
		if err := g.Register(def, cfg); err != nil {
			errorf(r, Span{}, "%v", err)
			continue
		}
		n++
	}
	return n
}

func (g *Registry) Lookup(name string) (*Extension, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ext, ok := g.exts[name]
	return ext, ok
}

// Names returns registered names in registration order.
func (g *Registry) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Close removes every sandbox.
func (g *Registry) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var errs []error
	for _, name := range g.order {
		if err := g.exts[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
