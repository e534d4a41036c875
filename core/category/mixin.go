package category

import "fmt"

// Mixin is an attachable trait descriptor. Attaching a mixin to an
// entity adds its attributes and actions to the entity's effective
// schema without changing the entity's kind. A mixin may require other
// mixins to be attached first.
type Mixin struct {
	Category
	Depends    []*Mixin
	Attributes []Attribute
	Actions    []*Action
}

// Validate checks the mixin definition.
func (m *Mixin) Validate() error {
	if m == nil {
		return fmt.Errorf("mixin: nil definition")
	}
	if err := m.Category.Validate(); err != nil {
		return fmt.Errorf("mixin: %w", err)
	}
	owner := fmt.Sprintf("mixin %s", m.ID())
	seen := make(map[Identifier]bool, len(m.Depends))
	for _, dep := range m.Depends {
		if dep == nil {
			return fmt.Errorf("%s: nil dependency", owner)
		}
		if dep.ID() == m.ID() {
			return fmt.Errorf("%s: depends on itself", owner)
		}
		if seen[dep.ID()] {
			return fmt.Errorf("%s: duplicate dependency %s", owner, dep.ID())
		}
		seen[dep.ID()] = true
	}
	if err := validateAttributes(owner, m.Attributes); err != nil {
		return err
	}
	return validateActions(owner, m.Actions)
}

// DependsOn reports whether id is a direct dependency of the mixin.
func (m *Mixin) DependsOn(id Identifier) bool {
	for _, dep := range m.Depends {
		if dep.ID() == id {
			return true
		}
	}
	return false
}

// Equal reports whether two mixin definitions are interchangeable.
// Dependencies are compared by identifier, ignoring order.
func (m *Mixin) Equal(o *Mixin) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Category != o.Category {
		return false
	}
	if len(m.Depends) != len(o.Depends) {
		return false
	}
	deps := make(map[Identifier]bool, len(m.Depends))
	for _, dep := range m.Depends {
		deps[dep.ID()] = true
	}
	for _, dep := range o.Depends {
		if !deps[dep.ID()] {
			return false
		}
	}
	return attributesEqual(m.Attributes, o.Attributes) && actionsEqual(m.Actions, o.Actions)
}
