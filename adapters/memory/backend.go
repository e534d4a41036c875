// Package memory provides an in-memory Backend. Provisioning is
// simulated: creation succeeds immediately and actions flip the
// resource state through a transition table.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/ports"
)

// defaultTransitions maps action terms to the resource state they leave
// behind. Terms not listed keep the current state.
var defaultTransitions = map[string]string{
	"start":   "active",
	"stop":    "inactive",
	"restart": "active",
	"suspend": "suspended",
	"up":      "active",
	"down":    "inactive",
	"online":  "online",
	"offline": "offline",
}

// Backend is an in-memory implementation of ports.Backend.
type Backend struct {
	mu          sync.RWMutex
	records     map[string]ports.Record
	order       []string
	now         func() time.Time
	transitions map[string]string
}

// Option configures the backend.
type Option func(*Backend)

// WithClock substitutes the time source.
func WithClock(c ports.Clock) Option {
	return func(b *Backend) { b.now = c.Now }
}

// WithTransition overrides the state an action term transitions to.
func WithTransition(term, state string) Option {
	return func(b *Backend) { b.transitions[term] = state }
}

// New creates an empty in-memory backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		records:     make(map[string]ports.Record),
		now:         time.Now,
		transitions: make(map[string]string, len(defaultTransitions)),
	}
	for term, state := range defaultTransitions {
		b.transitions[term] = state
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name identifies the backend.
func (b *Backend) Name() string {
	return "memory"
}

// Create provisions a new resource. The record becomes active
// immediately.
func (b *Backend) Create(ctx context.Context, rec ports.Record) (ports.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.records[rec.ID]; exists {
		return ports.Record{}, fmt.Errorf("record %q already exists", rec.ID)
	}

	now := b.now()
	rec.State = "active"
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Attributes = copyAttributes(rec.Attributes)
	rec.Mixins = append([]string(nil), rec.Mixins...)

	b.records[rec.ID] = rec
	b.order = append(b.order, rec.ID)
	return rec, nil
}

// Get retrieves a record by entity ID.
func (b *Backend) Get(ctx context.Context, id string) (ports.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.records[id]
	if !ok {
		return ports.Record{}, ports.ErrNotFound
	}
	rec.Attributes = copyAttributes(rec.Attributes)
	return rec, nil
}

// List returns records matching the filter in creation order.
func (b *Backend) List(ctx context.Context, filter ports.ListFilter) ([]ports.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []ports.Record
	for _, id := range b.order {
		rec, ok := b.records[id]
		if !ok {
			continue
		}
		if filter.Kind != "" && rec.Kind != filter.Kind {
			continue
		}
		if filter.Mixin != "" && !containsMixin(rec.Mixins, filter.Mixin) {
			continue
		}
		rec.Attributes = copyAttributes(rec.Attributes)
		result = append(result, rec)
	}
	return result, nil
}

// Update replaces the stored attributes and mixins of a record.
func (b *Backend) Update(ctx context.Context, rec ports.Record) (ports.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.records[rec.ID]
	if !ok {
		return ports.Record{}, ports.ErrNotFound
	}

	old.Attributes = copyAttributes(rec.Attributes)
	old.Mixins = append([]string(nil), rec.Mixins...)
	old.UpdatedAt = b.now()

	b.records[rec.ID] = old
	return old, nil
}

// Delete removes a record.
func (b *Backend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.records[id]; !ok {
		return ports.ErrNotFound
	}
	delete(b.records, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// InvokeAction applies the transition table to the resource state. The
// new state is written both to the record state and to every attribute
// named with a ".state" suffix, mirroring what a provider would report.
func (b *Backend) InvokeAction(ctx context.Context, id string, action category.Identifier, attributes map[string]any) (ports.ActionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.records[id]
	if !ok {
		return ports.ActionResult{}, ports.ErrNotFound
	}

	state, ok := b.transitions[action.Term]
	if !ok {
		state = rec.State
	}

	changed := make(map[string]any)
	for name := range rec.Attributes {
		if strings.HasSuffix(name, ".state") {
			rec.Attributes[name] = state
			changed[name] = state
		}
	}
	rec.State = state
	rec.UpdatedAt = b.now()
	b.records[id] = rec

	return ports.ActionResult{State: state, Attributes: changed}, nil
}

// ExistsWithAttributeValue reports whether any record of the kind holds
// the value for the attribute.
func (b *Backend) ExistsWithAttributeValue(ctx context.Context, kind category.Identifier, attribute string, value any) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	want := kind.String()
	for _, rec := range b.records {
		if rec.Kind != want {
			continue
		}
		if v, ok := rec.Attributes[attribute]; ok && category.ValuesEqual(v, value) {
			return true, nil
		}
	}
	return false, nil
}

// HealthCheck always succeeds.
func (b *Backend) HealthCheck(ctx context.Context) error {
	return nil
}

// Len returns the number of stored records (for testing).
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Clear removes all records (for testing).
func (b *Backend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = make(map[string]ports.Record)
	b.order = nil
}

func copyAttributes(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func containsMixin(mixins []string, want string) bool {
	for _, m := range mixins {
		if m == want {
			return true
		}
	}
	return false
}

// Ensure interface compliance.
var _ ports.Backend = (*Backend)(nil)
