package source

import (
	"context"
	"fmt"
	"io"
	"sort"
)

// Constructor creates a Source from shared settings.
type Constructor func(cfg Config) Source

var registry = map[string]Constructor{}

// Register adds a source constructor under the given scheme.
func Register(scheme string, ctor Constructor) {
	registry[scheme] = ctor
}

// Get returns the source constructor for the given scheme.
func Get(scheme string) (Constructor, error) {
	ctor, ok := registry[scheme]
	if !ok {
		return nil, fmt.Errorf("unknown corpus source scheme: %s", scheme)
	}
	return ctor, nil
}

// Schemes returns the names of all registered schemes, sorted.
func Schemes() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open dispatches location to the source registered for its scheme.
func Open(ctx context.Context, location string, cfg Config) (io.ReadCloser, error) {
	ctor, err := Get(Scheme(location))
	if err != nil {
		return nil, err
	}
	return ctor(cfg).Open(ctx, location)
}
