package category

import "fmt"

// Action is an invocable operation declared by a Kind or Mixin. Its
// attributes describe the invocation parameters, validated with the
// same descriptor rules as entity attributes.
type Action struct {
	Category
	Attributes []Attribute
}

// Validate checks the action definition.
func (a *Action) Validate() error {
	if a == nil {
		return fmt.Errorf("action: nil definition")
	}
	if err := a.Category.Validate(); err != nil {
		return fmt.Errorf("action: %w", err)
	}
	return validateAttributes(fmt.Sprintf("action %s", a.ID()), a.Attributes)
}

// Equal reports whether two action definitions are interchangeable.
// The title is identity metadata and participates in the comparison.
func (a *Action) Equal(o *Action) bool {
	if a == nil || o == nil {
		return a == o
	}
	return a.Category == o.Category && attributesEqual(a.Attributes, o.Attributes)
}

// actionsEqual compares two action sets ignoring order.
func actionsEqual(a, b []*Action) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[Identifier]*Action, len(a))
	for _, act := range a {
		byID[act.ID()] = act
	}
	for _, act := range b {
		other, ok := byID[act.ID()]
		if !ok || !other.Equal(act) {
			return false
		}
	}
	return true
}

// validateActions checks each action and rejects duplicate identifiers.
func validateActions(owner string, actions []*Action) error {
	seen := make(map[Identifier]bool, len(actions))
	for _, act := range actions {
		if err := act.Validate(); err != nil {
			return fmt.Errorf("%s: %w", owner, err)
		}
		if seen[act.ID()] {
			return fmt.Errorf("%s: duplicate action %s", owner, act.ID())
		}
		seen[act.ID()] = true
	}
	return nil
}
