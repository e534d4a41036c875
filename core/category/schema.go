package category

import (
	"fmt"
	"sort"
)

// SchemaAttribute is an attribute descriptor together with every
// category that declared it, in merge order.
type SchemaAttribute struct {
	Attribute
	Sources []Identifier
}

// Schema is the merged attribute and action surface of one kind chain
// plus a set of attached mixins. A schema is immutable once built;
// recompute it after attach or detach.
type Schema struct {
	attrs   map[string]*SchemaAttribute
	names   []string
	actions map[Identifier]*Action
	actIDs  []Identifier
}

// NewSchema merges the kind's inheritance chain with the attached
// mixins. Same-name declarations must agree field for field; the first
// disagreement reports *SchemaConflictError. The resulting set does
// not depend on mixin order.
func NewSchema(kind *Kind, mixins []*Mixin) (*Schema, error) {
	if kind == nil {
		return nil, fmt.Errorf("schema: nil kind")
	}

	chain, err := kind.Ancestors()
	if err != nil {
		return nil, err
	}

	s := &Schema{
		attrs:   make(map[string]*SchemaAttribute),
		actions: make(map[Identifier]*Action),
	}
	for _, k := range chain {
		if err := s.merge(k.ID(), k.Attributes, k.Actions); err != nil {
			return nil, err
		}
	}
	for _, m := range mixins {
		if m == nil {
			return nil, fmt.Errorf("schema: nil mixin")
		}
		if err := s.merge(m.ID(), m.Attributes, m.Actions); err != nil {
			return nil, err
		}
	}

	sort.Strings(s.names)
	sort.Slice(s.actIDs, func(i, j int) bool {
		return s.actIDs[i].String() < s.actIDs[j].String()
	})
	return s, nil
}

func (s *Schema) merge(src Identifier, attrs []Attribute, actions []*Action) error {
	for _, a := range attrs {
		cur, ok := s.attrs[a.Name]
		if !ok {
			s.attrs[a.Name] = &SchemaAttribute{Attribute: a, Sources: []Identifier{src}}
			s.names = append(s.names, a.Name)
			continue
		}
		if !cur.Attribute.Equal(a) {
			return &SchemaConflictError{Name: a.Name, First: cur.Sources[0], Second: src}
		}
		cur.Sources = append(cur.Sources, src)
	}

	// Action identifiers are globally unique, so a repeat is the same
	// definition contributed twice.
	for _, act := range actions {
		if _, ok := s.actions[act.ID()]; ok {
			continue
		}
		s.actions[act.ID()] = act
		s.actIDs = append(s.actIDs, act.ID())
	}
	return nil
}

// Has reports whether the schema declares an attribute name.
func (s *Schema) Has(name string) bool {
	_, ok := s.attrs[name]
	return ok
}

// Lookup returns the merged descriptor for an attribute name.
func (s *Schema) Lookup(name string) (*SchemaAttribute, bool) {
	sa, ok := s.attrs[name]
	return sa, ok
}

// Names returns the declared attribute names in sorted order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Attributes returns the merged descriptors in name order.
func (s *Schema) Attributes() []*SchemaAttribute {
	out := make([]*SchemaAttribute, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.attrs[name])
	}
	return out
}

// Required returns the names of required attributes in sorted order.
func (s *Schema) Required() []string {
	var out []string
	for _, name := range s.names {
		if s.attrs[name].Required {
			out = append(out, name)
		}
	}
	return out
}

// Defaults returns the declared default values keyed by attribute
// name.
func (s *Schema) Defaults() map[string]any {
	out := make(map[string]any)
	for name, sa := range s.attrs {
		if sa.Default != nil {
			out[name] = Normalize(sa.Default)
		}
	}
	return out
}

// HasAction reports whether the schema declares an action.
func (s *Schema) HasAction(id Identifier) bool {
	_, ok := s.actions[id]
	return ok
}

// Action returns a declared action by identifier.
func (s *Schema) Action(id Identifier) (*Action, bool) {
	act, ok := s.actions[id]
	return act, ok
}

// Actions returns the declared actions ordered by identifier.
func (s *Schema) Actions() []*Action {
	out := make([]*Action, 0, len(s.actIDs))
	for _, id := range s.actIDs {
		out = append(out, s.actions[id])
	}
	return out
}

// Len is the number of declared attributes.
func (s *Schema) Len() int {
	return len(s.names)
}
