// Package entity implements the runtime instances of the category
// model: an Entity is bound to one kind, carries zero or more attached
// mixins and holds a validated attribute value map.
package entity

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/occi/core/category"
)

// State tracks an entity through its lifecycle. An entity starts
// Bound, passes validation into Validated, is handed to the backend as
// Submitted, lives as Active and ends Deleted.
type State int

const (
	StateBound State = iota
	StateValidated
	StateSubmitted
	StateActive
	StateDeleted
)

// String returns the state name used in logs and renderings.
func (s State) String() string {
	switch s {
	case StateBound:
		return "bound"
	case StateValidated:
		return "validated"
	case StateSubmitted:
		return "submitted"
	case StateActive:
		return "active"
	case StateDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// UniquenessChecker reports whether another entity of the kind already
// holds a value. Backends implement it over their stored records.
type UniquenessChecker interface {
	ExistsWithAttributeValue(ctx context.Context, kind category.Identifier, attribute string, value any) (bool, error)
}

// Entity is one resource instance. All methods are safe for
// concurrent use; mutations are serialized per entity.
type Entity struct {
	mu      sync.Mutex
	id      string
	kind    *category.Kind
	mixins  []*category.Mixin
	schema  *category.Schema
	values  map[string]any
	state   State
	checker UniquenessChecker
}

// Option configures an entity at construction.
type Option func(*Entity)

// WithUniquenessChecker wires the collaborator consulted before
// writing unique attributes. Without one, uniqueness is not enforced.
func WithUniquenessChecker(c UniquenessChecker) Option {
	return func(e *Entity) { e.checker = c }
}

// New binds a fresh entity to a kind. The kind's declared defaults are
// materialized into the value map, and the entity's id is stored under
// occi.core.id when the schema declares it.
func New(id string, kind *category.Kind, opts ...Option) (*Entity, error) {
	if id == "" {
		return nil, fmt.Errorf("entity: empty id")
	}

	s, err := category.NewSchema(kind, nil)
	if err != nil {
		return nil, err
	}

	e := &Entity{
		id:     id,
		kind:   kind,
		schema: s,
		values: make(map[string]any),
		state:  StateBound,
	}
	for _, opt := range opts {
		opt(e)
	}

	for name, dv := range s.Defaults() {
		e.values[name] = dv
	}
	if s.Has(category.AttrCoreID) {
		e.values[category.AttrCoreID] = id
	}
	return e, nil
}

// Restore rebuilds an entity from a persisted record. The values are
// type-checked against the schema; the entity comes back Active.
func Restore(id string, kind *category.Kind, mixins []*category.Mixin, values map[string]any, opts ...Option) (*Entity, error) {
	if id == "" {
		return nil, fmt.Errorf("entity: empty id")
	}

	s, err := category.NewSchema(kind, mixins)
	if err != nil {
		return nil, err
	}

	e := &Entity{
		id:     id,
		kind:   kind,
		mixins: append([]*category.Mixin(nil), mixins...),
		schema: s,
		values: make(map[string]any, len(values)),
		state:  StateActive,
	}
	for _, opt := range opts {
		opt(e)
	}

	for name, v := range values {
		sa, ok := s.Lookup(name)
		if !ok {
			return nil, &UnknownAttributeError{Name: name}
		}
		normalized := category.Normalize(v)
		if err := sa.Check(normalized); err != nil {
			return nil, err
		}
		e.values[name] = normalized
	}
	if s.Has(category.AttrCoreID) {
		e.values[category.AttrCoreID] = id
	}
	return e, nil
}

// ID returns the entity identifier.
func (e *Entity) ID() string {
	return e.id
}

// Kind returns the kind the entity is bound to.
func (e *Entity) Kind() *category.Kind {
	return e.kind
}

// State returns the current lifecycle state.
func (e *Entity) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Mixins returns the attached mixins in attachment order.
func (e *Entity) Mixins() []*category.Mixin {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*category.Mixin(nil), e.mixins...)
}

// MixinIDs returns the attached mixin identifiers in attachment order.
func (e *Entity) MixinIDs() []category.Identifier {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]category.Identifier, len(e.mixins))
	for i, m := range e.mixins {
		ids[i] = m.ID()
	}
	return ids
}

// Schema returns the current effective schema.
func (e *Entity) Schema() *category.Schema {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schema
}

// Values returns a copy of the attribute value map.
func (e *Entity) Values() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]any, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Get reads one attribute value. Reading a name outside the effective
// schema fails with *UnknownAttributeError; a declared but unset
// attribute reads as nil.
func (e *Entity) Get(name string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDeleted {
		return nil, &EntityDeletedError{ID: e.id}
	}
	if !e.schema.Has(name) {
		return nil, &UnknownAttributeError{Name: name}
	}
	return e.values[name], nil
}

// Set writes one attribute value after validating it against the
// effective schema: the name must be declared, immutable attributes
// reject writes once the entity has been created, the value must match
// the descriptor, and unique attributes consult the uniqueness
// checker. A failed write leaves the value map untouched.
func (e *Entity) Set(ctx context.Context, name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDeleted {
		return &EntityDeletedError{ID: e.id}
	}

	sa, ok := e.schema.Lookup(name)
	if !ok {
		return &UnknownAttributeError{Name: name}
	}
	if e.createdLocked() && !sa.Mutable {
		return &ImmutableAttributeError{Name: name}
	}
	normalized := category.Normalize(value)
	if err := sa.Check(normalized); err != nil {
		return err
	}

	if sa.Unique && e.checker != nil && !category.ValuesEqual(e.values[name], normalized) {
		exists, err := e.checker.ExistsWithAttributeValue(ctx, e.kind.ID(), name, normalized)
		if err != nil {
			return fmt.Errorf("uniqueness check for %q: %w", name, err)
		}
		if exists {
			return &UniqueConstraintViolation{Name: name, Value: normalized}
		}
	}

	e.values[name] = normalized
	if !e.createdLocked() {
		e.state = StateBound
	}
	return nil
}

// Attach adds a mixin to the entity and recomputes the effective
// schema. Attaching an already-attached mixin is a no-op. Every direct
// dependency of the mixin must already be attached. A schema conflict
// leaves the entity unchanged.
func (e *Entity) Attach(m *category.Mixin) error {
	if m == nil {
		return fmt.Errorf("attach: nil mixin")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDeleted {
		return &EntityDeletedError{ID: e.id}
	}
	if e.attachedLocked(m.ID()) {
		return nil
	}
	for _, dep := range m.Depends {
		if !e.attachedLocked(dep.ID()) {
			return &MixinDependencyError{Mixin: m.ID(), Requires: dep.ID()}
		}
	}

	next := append(append([]*category.Mixin(nil), e.mixins...), m)
	s, err := category.NewSchema(e.kind, next)
	if err != nil {
		return err
	}

	e.mixins = next
	e.schema = s
	for name, dv := range s.Defaults() {
		if _, ok := e.values[name]; !ok {
			e.values[name] = dv
		}
	}
	if !e.createdLocked() {
		e.state = StateBound
	}
	return nil
}

// Detach removes an attached mixin and recomputes the effective
// schema. Values whose only contributing source was the detached mixin
// are dropped from the value map. Detaching a mixin that is not
// attached fails with *UnrelatedMixinError; detaching one that another
// attached mixin depends on fails with *MixinDependencyError.
func (e *Entity) Detach(m *category.Mixin) error {
	if m == nil {
		return fmt.Errorf("detach: nil mixin")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDeleted {
		return &EntityDeletedError{ID: e.id}
	}

	idx := -1
	for i, att := range e.mixins {
		if att.ID() == m.ID() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &UnrelatedMixinError{Mixin: m.ID()}
	}
	for _, att := range e.mixins {
		if att.ID() != m.ID() && att.DependsOn(m.ID()) {
			return &MixinDependencyError{Mixin: att.ID(), Requires: m.ID()}
		}
	}

	next := make([]*category.Mixin, 0, len(e.mixins)-1)
	next = append(next, e.mixins[:idx]...)
	next = append(next, e.mixins[idx+1:]...)

	s, err := category.NewSchema(e.kind, next)
	if err != nil {
		return err
	}

	e.mixins = next
	e.schema = s
	for name := range e.values {
		if !s.Has(name) {
			delete(e.values, name)
		}
	}
	if !e.createdLocked() {
		e.state = StateBound
	}
	return nil
}

// ValidateForSubmission checks that every required attribute holds a
// non-default value, listing all violations in one
// *MissingRequiredAttributeError. On success a pre-creation entity
// moves to Validated.
func (e *Entity) ValidateForSubmission() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDeleted {
		return &EntityDeletedError{ID: e.id}
	}

	var missing []string
	for _, name := range e.schema.Required() {
		sa, _ := e.schema.Lookup(name)
		v, ok := e.values[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if sa.Default != nil && category.ValuesEqual(v, sa.Default) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingRequiredAttributeError{Names: missing}
	}

	if !e.createdLocked() {
		e.state = StateValidated
	}
	return nil
}

// ApplicableActions is the union of the kind chain's actions and the
// attached mixins' actions.
func (e *Entity) ApplicableActions() []*category.Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schema.Actions()
}

// ValidateAction checks an invocation against the action's attribute
// descriptors and returns the canonical attribute map to forward to
// the backend, with defaults applied. Invoking an action outside the
// effective schema fails with *ActionNotApplicableError.
func (e *Entity) ValidateAction(action *category.Action, attrs map[string]any) (map[string]any, error) {
	if action == nil {
		return nil, fmt.Errorf("validate action: nil action")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDeleted {
		return nil, &EntityDeletedError{ID: e.id}
	}
	if !e.schema.HasAction(action.ID()) {
		return nil, &ActionNotApplicableError{Action: action.ID(), Entity: e.id}
	}

	byName := make(map[string]category.Attribute, len(action.Attributes))
	for _, a := range action.Attributes {
		byName[a.Name] = a
	}

	out := make(map[string]any, len(attrs))
	for name, v := range attrs {
		a, ok := byName[name]
		if !ok {
			return nil, &UnknownAttributeError{Name: name}
		}
		normalized := category.Normalize(v)
		if err := a.Check(normalized); err != nil {
			return nil, err
		}
		out[name] = normalized
	}

	var missing []string
	for _, a := range action.Attributes {
		if _, ok := out[a.Name]; ok {
			continue
		}
		if a.Default != nil {
			out[a.Name] = category.Normalize(a.Default)
			continue
		}
		if a.Required {
			missing = append(missing, a.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingRequiredAttributeError{Names: missing}
	}
	return out, nil
}

// MarkSubmitted records that the entity has been handed to the
// backend. Only a validated entity may be submitted.
func (e *Entity) MarkSubmitted() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateValidated {
		return fmt.Errorf("entity %s: cannot submit from state %s", e.id, e.state)
	}
	e.state = StateSubmitted
	return nil
}

// MarkActive records the backend's acknowledgement of creation.
func (e *Entity) MarkActive() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateSubmitted {
		return fmt.Errorf("entity %s: cannot activate from state %s", e.id, e.state)
	}
	e.state = StateActive
	return nil
}

// MarkDeleted moves the entity to its terminal state. Every later
// operation fails with *EntityDeletedError.
func (e *Entity) MarkDeleted() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateDeleted
}

// Created reports whether the entity has reached the backend.
func (e *Entity) Created() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createdLocked()
}

func (e *Entity) createdLocked() bool {
	return e.state == StateSubmitted || e.state == StateActive
}

func (e *Entity) attachedLocked(id category.Identifier) bool {
	for _, m := range e.mixins {
		if m.ID() == id {
			return true
		}
	}
	return false
}
