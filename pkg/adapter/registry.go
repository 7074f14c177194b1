package adapter

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/leapstack-labs/movierank/pkg/core"
)

// Factory builds an unconnected adapter. A nil logger means discard.
type Factory func(*slog.Logger) Adapter

var factories = struct {
	sync.RWMutex
	byName map[string]Factory
}{byName: make(map[string]Factory)}

// Register makes an adapter available under name. Adapters call it from
// init(); registering a name twice replaces the earlier factory.
func Register(name string, factory Factory) {
	factories.Lock()
	defer factories.Unlock()
	factories.byName[name] = factory
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	factories.RLock()
	defer factories.RUnlock()
	f, ok := factories.byName[name]
	return f, ok
}

// NewAdapter builds the adapter selected by cfg.Type.
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	factory, ok := Lookup(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	return factory(logger), nil
}

// ListAdapters returns the registered adapter names in sorted order.
func ListAdapters() []string {
	factories.RLock()
	defer factories.RUnlock()
	names := make([]string, 0, len(factories.byName))
	for name := range factories.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// UnknownAdapterError is returned for an adapter type nobody registered,
// usually because its package was not imported.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("no table engine named %q (registered: %v); import its package under pkg/adapters", e.Type, e.Available)
}
