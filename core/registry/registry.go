// Package registry holds the process-wide catalogue of registered
// category definitions. A Registry is constructed once at startup and
// passed to every component that needs it; registration is write-rare,
// lookup is read-mostly.
package registry

import (
	"fmt"
	"iter"
	"sync"

	"github.com/artpar/occi/core/category"
)

// Filter selects which definition flavors List yields.
type Filter int

const (
	All Filter = iota
	Kinds
	Mixins
	Actions
)

// String returns the filter name for logs and metrics labels.
func (f Filter) String() string {
	switch f {
	case Kinds:
		return "kind"
	case Mixins:
		return "mixin"
	case Actions:
		return "action"
	default:
		return "all"
	}
}

// Definition is a registrable category definition: *category.Kind,
// *category.Mixin or *category.Action.
type Definition interface {
	ID() category.Identifier
}

// Registry is a concurrency-safe catalogue of definitions. Writes
// (Register, Unregister) are serialized; reads may proceed
// concurrently against a stable snapshot.
type Registry struct {
	mu    sync.RWMutex
	defs  map[category.Identifier]Definition
	order []category.Identifier
	refs  map[category.Identifier]int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		defs: make(map[category.Identifier]Definition),
		refs: make(map[category.Identifier]int),
	}
}

// Register adds a definition under its scheme#term key. Registering
// the identical definition again is a no-op; a different definition
// under an occupied key fails with *DuplicateCategoryError. A kind's
// parent and a mixin's dependencies must already be registered.
// Actions declared by a kind or mixin are registered alongside it; the
// whole registration applies atomically or not at all.
func (r *Registry) Register(def Definition) error {
	if def == nil {
		return fmt.Errorf("register: nil definition")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []Definition

	switch d := def.(type) {
	case *category.Kind:
		if err := d.Validate(); err != nil {
			return err
		}
		if d.Parent != nil {
			if err := r.checkParentLocked(d); err != nil {
				return err
			}
		}
		if _, err := d.Ancestors(); err != nil {
			return err
		}
		for _, act := range d.Actions {
			pending = append(pending, act)
		}
	case *category.Mixin:
		if err := d.Validate(); err != nil {
			return err
		}
		for _, dep := range d.Depends {
			if err := r.checkDependencyLocked(d, dep); err != nil {
				return err
			}
		}
		for _, act := range d.Actions {
			pending = append(pending, act)
		}
	case *category.Action:
		if err := d.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("register %s: unsupported definition type %T", def.ID(), def)
	}

	pending = append(pending, def)

	// Check every addition before touching state, so a late conflict
	// cannot leave a partial registration behind.
	for _, p := range pending {
		if existing, ok := r.defs[p.ID()]; ok && !definitionsEqual(existing, p) {
			return &DuplicateCategoryError{ID: p.ID()}
		}
	}
	for _, p := range pending {
		if _, ok := r.defs[p.ID()]; ok {
			continue
		}
		r.defs[p.ID()] = p
		r.order = append(r.order, p.ID())
	}
	return nil
}

func (r *Registry) checkParentLocked(k *category.Kind) error {
	parentID := k.Parent.ID()
	parent, ok := r.defs[parentID].(*category.Kind)
	if !ok {
		return fmt.Errorf("register kind %s: parent: %w", k.ID(), &UnknownCategoryError{ID: parentID, Flavor: "kind"})
	}
	if !parent.Equal(k.Parent) {
		return fmt.Errorf("register kind %s: parent %s differs from the registered definition", k.ID(), parentID)
	}
	return nil
}

func (r *Registry) checkDependencyLocked(m *category.Mixin, dep *category.Mixin) error {
	registered, ok := r.defs[dep.ID()].(*category.Mixin)
	if !ok {
		return fmt.Errorf("register mixin %s: dependency: %w", m.ID(), &UnknownCategoryError{ID: dep.ID(), Flavor: "mixin"})
	}
	if !registered.Equal(dep) {
		return fmt.Errorf("register mixin %s: dependency %s differs from the registered definition", m.ID(), dep.ID())
	}
	return nil
}

// Lookup returns the definition registered under scheme#term.
func (r *Registry) Lookup(scheme, term string) (Definition, error) {
	id := category.Identifier{Scheme: scheme, Term: term}

	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[id]
	if !ok {
		return nil, &UnknownCategoryError{ID: id}
	}
	return def, nil
}

// LookupKind returns the kind registered under scheme#term.
func (r *Registry) LookupKind(scheme, term string) (*category.Kind, error) {
	id := category.Identifier{Scheme: scheme, Term: term}

	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.defs[id].(*category.Kind)
	if !ok {
		return nil, &UnknownCategoryError{ID: id, Flavor: "kind"}
	}
	return k, nil
}

// LookupMixin returns the mixin registered under scheme#term.
func (r *Registry) LookupMixin(scheme, term string) (*category.Mixin, error) {
	id := category.Identifier{Scheme: scheme, Term: term}

	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.defs[id].(*category.Mixin)
	if !ok {
		return nil, &UnknownCategoryError{ID: id, Flavor: "mixin"}
	}
	return m, nil
}

// LookupAction returns the action registered under scheme#term.
func (r *Registry) LookupAction(scheme, term string) (*category.Action, error) {
	id := category.Identifier{Scheme: scheme, Term: term}

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.defs[id].(*category.Action)
	if !ok {
		return nil, &UnknownCategoryError{ID: id, Flavor: "action"}
	}
	return a, nil
}

// ResolveKind implements category.Resolver.
func (r *Registry) ResolveKind(id category.Identifier) (*category.Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.defs[id].(*category.Kind)
	return k, ok
}

// ResolveMixin implements category.Resolver.
func (r *Registry) ResolveMixin(id category.Identifier) (*category.Mixin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.defs[id].(*category.Mixin)
	return m, ok
}

// List yields matching definitions in registration order. The
// sequence snapshots the registry when iteration starts, so it is safe
// against concurrent writes and can be ranged over more than once.
func (r *Registry) List(f Filter) iter.Seq[Definition] {
	return func(yield func(Definition) bool) {
		r.mu.RLock()
		snapshot := make([]Definition, 0, len(r.order))
		for _, id := range r.order {
			def := r.defs[id]
			if f.matches(def) {
				snapshot = append(snapshot, def)
			}
		}
		r.mu.RUnlock()

		for _, def := range snapshot {
			if !yield(def) {
				return
			}
		}
	}
}

func (f Filter) matches(def Definition) bool {
	switch f {
	case Kinds:
		_, ok := def.(*category.Kind)
		return ok
	case Mixins:
		_, ok := def.(*category.Mixin)
		return ok
	case Actions:
		_, ok := def.(*category.Action)
		return ok
	default:
		return true
	}
}

// Unregister removes the definition under scheme#term. It fails with
// *CategoryInUseError while a live entity references the definition or
// another registered definition depends on it.
func (r *Registry) Unregister(scheme, term string) error {
	id := category.Identifier{Scheme: scheme, Term: term}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[id]; !ok {
		return &UnknownCategoryError{ID: id}
	}
	if n := r.refs[id]; n > 0 {
		return &CategoryInUseError{ID: id, Reason: fmt.Sprintf("referenced by %d live entities", n)}
	}
	if reason := r.definitionUseLocked(id); reason != "" {
		return &CategoryInUseError{ID: id, Reason: reason}
	}

	delete(r.defs, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// definitionUseLocked reports whether another registered definition
// still points at id.
func (r *Registry) definitionUseLocked(id category.Identifier) string {
	for _, oid := range r.order {
		if oid == id {
			continue
		}
		switch other := r.defs[oid].(type) {
		case *category.Kind:
			if other.Parent != nil && other.Parent.ID() == id {
				return fmt.Sprintf("parent of kind %s", oid)
			}
			for _, act := range other.Actions {
				if act.ID() == id {
					return fmt.Sprintf("action of kind %s", oid)
				}
			}
		case *category.Mixin:
			if other.DependsOn(id) {
				return fmt.Sprintf("dependency of mixin %s", oid)
			}
			for _, act := range other.Actions {
				if act.ID() == id {
					return fmt.Sprintf("action of mixin %s", oid)
				}
			}
		}
	}
	return ""
}

// Acquire marks the identified definitions as referenced by a live
// entity. Either every identifier is acquired or none is.
func (r *Registry) Acquire(ids ...category.Identifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if _, ok := r.defs[id]; !ok {
			return &UnknownCategoryError{ID: id}
		}
	}
	for _, id := range ids {
		r.refs[id]++
	}
	return nil
}

// Release drops live-entity references taken by Acquire. Releasing an
// unreferenced identifier is a no-op.
func (r *Registry) Release(ids ...category.Identifier) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if r.refs[id] <= 1 {
			delete(r.refs, id)
			continue
		}
		r.refs[id]--
	}
}

// Len is the total number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Count is the number of registered definitions matching the filter.
func (r *Registry) Count(f Filter) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, id := range r.order {
		if f.matches(r.defs[id]) {
			n++
		}
	}
	return n
}

func definitionsEqual(a, b Definition) bool {
	switch x := a.(type) {
	case *category.Kind:
		y, ok := b.(*category.Kind)
		return ok && x.Equal(y)
	case *category.Mixin:
		y, ok := b.(*category.Mixin)
		return ok && x.Equal(y)
	case *category.Action:
		y, ok := b.(*category.Action)
		return ok && x.Equal(y)
	}
	return false
}
