// Package testutils provides shared fixtures for the mapping engine tests:
// an in-memory lookup with call counting and a transform wrapper that
// counts applications.
package testutils

import (
	"context"
	"reflect"
	"sync"

	"github.com/ahrav/go-wrangle/pipeline"
)

// MemoryLookup is an in-memory pipeline.LookupFunc implementation. Stored
// instances are matched by comparing every field of the query key against
// the fields the instance was stored under. Calls are counted so tests can
// assert how often a lookup was consulted.
type MemoryLookup struct {
	mu      sync.Mutex
	calls   int
	entries map[string][]entry
}

type entry struct {
	key      map[string]any
	instance any
}

// NewMemoryLookup creates an empty MemoryLookup.
func NewMemoryLookup() *MemoryLookup {
	return &MemoryLookup{entries: make(map[string][]entry)}
}

// Add stores an instance of the named model under the given match fields.
func (l *MemoryLookup) Add(model string, key map[string]any, instance any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[model] = append(l.entries[model], entry{key: key, instance: instance})
}

// Lookup implements pipeline.LookupFunc. An instance matches when every
// field of the query key equals the corresponding stored field.
func (l *MemoryLookup) Lookup(_ context.Context, model string, key map[string]any) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	for _, e := range l.entries[model] {
		if matches(e.key, key) {
			return e.instance, nil
		}
	}
	return nil, nil
}

// Calls returns how many times Lookup has been invoked.
func (l *MemoryLookup) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func matches(stored, query map[string]any) bool {
	for field, want := range query {
		got, ok := stored[field]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return len(query) > 0
}

// Counting wraps a transform and counts how many times it is applied,
// which is how the tests pin down the re-run semantics of get-or-create.
type Counting struct {
	Next pipeline.Transform

	mu sync.Mutex
	n  int
}

// NewCounting creates a counting wrapper around next.
func NewCounting(next pipeline.Transform) *Counting {
	return &Counting{Next: next}
}

// Name reports the wrapped transform's name to keep provenance transparent.
func (c *Counting) Name() string { return c.Next.Name() }

// Apply counts the application and delegates through the call contract.
func (c *Counting) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return pipeline.Run(ctx, c.Next, p, data, extra...)
}

// Count returns how many times Apply has run.
func (c *Counting) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
