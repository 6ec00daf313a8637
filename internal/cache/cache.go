// Package cache memoizes classification results. Keys must identify both the
// compiled tables and the query, so a cached entry can never outlive the
// tables it was computed from.
package cache

import (
	"context"
	"strings"
)

// Cache stores ranked label lists by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, labels []string) error
}

// Key builds a cache key from the artifact fingerprint, n-gram variant and query.
func Key(fingerprint, variant, query string) string {
	var b strings.Builder
	b.Grow(len(fingerprint) + len(variant) + len(query) + 2)
	b.WriteString(fingerprint)
	b.WriteByte('|')
	b.WriteString(variant)
	b.WriteByte('|')
	b.WriteString(query)
	return b.String()
}

// Nop is a Cache that stores nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]string, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, []string) error { return nil }

var _ Cache = Nop{}
