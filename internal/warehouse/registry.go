package warehouse

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry = make(map[string]Dialect)
	mu       sync.RWMutex
)

// Register adds a dialect to the registry.
func Register(d Dialect) {
	mu.Lock()
	defer mu.Unlock()
	registry[d.Name()] = d
}

// Get retrieves a dialect by name.
func Get(name string) (Dialect, error) {
	mu.RLock()
	defer mu.RUnlock()

	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown dialect: %s", name)
	}
	return d, nil
}

// List returns all registered dialect names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
