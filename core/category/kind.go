package category

import "fmt"

// Kind is a resource type descriptor. Kinds form a forest through
// Parent: a kind inherits the attributes and actions of every
// ancestor.
type Kind struct {
	Category
	Parent     *Kind
	Attributes []Attribute
	Actions    []*Action
}

// Validate checks the kind definition. The parent chain is checked
// separately by Ancestors.
func (k *Kind) Validate() error {
	if k == nil {
		return fmt.Errorf("kind: nil definition")
	}
	if err := k.Category.Validate(); err != nil {
		return fmt.Errorf("kind: %w", err)
	}
	owner := fmt.Sprintf("kind %s", k.ID())
	if err := validateAttributes(owner, k.Attributes); err != nil {
		return err
	}
	return validateActions(owner, k.Actions)
}

// Ancestors returns the inheritance chain ordered from k itself up to
// the forest root. A chain that revisits an identifier reports
// *CyclicKindError.
func (k *Kind) Ancestors() ([]*Kind, error) {
	seen := make(map[Identifier]bool)
	var chain []*Kind
	for cur := k; cur != nil; cur = cur.Parent {
		if seen[cur.ID()] {
			return nil, &CyclicKindError{Kind: k.ID(), Repeated: cur.ID()}
		}
		seen[cur.ID()] = true
		chain = append(chain, cur)
	}
	return chain, nil
}

// IsKindOf reports whether other appears in k's ancestor chain. Every
// kind is a kind of itself. A cyclic chain reports false.
func (k *Kind) IsKindOf(other *Kind) bool {
	if k == nil || other == nil {
		return false
	}
	chain, err := k.Ancestors()
	if err != nil {
		return false
	}
	want := other.ID()
	for _, a := range chain {
		if a.ID() == want {
			return true
		}
	}
	return false
}

// EffectiveAttributes is the merged attribute set of the kind and all
// its ancestors, ordered by name.
func (k *Kind) EffectiveAttributes() ([]Attribute, error) {
	s, err := NewSchema(k, nil)
	if err != nil {
		return nil, err
	}
	merged := s.Attributes()
	attrs := make([]Attribute, len(merged))
	for i, sa := range merged {
		attrs[i] = sa.Attribute
	}
	return attrs, nil
}

// EffectiveActions is the merged action set of the kind and all its
// ancestors.
func (k *Kind) EffectiveActions() ([]*Action, error) {
	s, err := NewSchema(k, nil)
	if err != nil {
		return nil, err
	}
	return s.Actions(), nil
}

// Equal reports whether two kind definitions are interchangeable.
// Parents are compared by identifier.
func (k *Kind) Equal(o *Kind) bool {
	if k == nil || o == nil {
		return k == o
	}
	if k.Category != o.Category {
		return false
	}
	if (k.Parent == nil) != (o.Parent == nil) {
		return false
	}
	if k.Parent != nil && k.Parent.ID() != o.Parent.ID() {
		return false
	}
	return attributesEqual(k.Attributes, o.Attributes) && actionsEqual(k.Actions, o.Actions)
}
