package category

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// Attribute-set union over a fixed mixin collection must not depend on
// the order the mixins were attached in.
func TestSchemaMergeOrderIndependent(t *testing.T) {
	base := &Kind{Category: Category{Scheme: "http://example.org/prop#", Term: "base"}}

	// One fixed descriptor per name, so any overlap between mixins
	// agrees and the merge cannot conflict.
	pool := []Attribute{
		{Name: "alpha", Type: TypeString, Mutable: true},
		{Name: "beta", Type: TypeNumber, Range: &Range{Min: floatPtr(0)}},
		{Name: "gamma", Type: TypeBoolean, Mutable: true},
		{Name: "delta", Type: TypeString, Required: true},
		{Name: "epsilon", Type: TypeNumber, Mutable: true, Unique: true},
	}

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(rt, "mixins")
		mixins := make([]*Mixin, n)
		for i := range mixins {
			var attrs []Attribute
			for _, a := range pool {
				if rapid.Bool().Draw(rt, "take") {
					attrs = append(attrs, a)
				}
			}
			mixins[i] = &Mixin{
				Category:   Category{Scheme: "http://example.org/prop#", Term: fmt.Sprintf("m%d", i)},
				Attributes: attrs,
			}
		}

		shuffled := make([]*Mixin, n)
		copy(shuffled, mixins)
		for i := n - 1; i > 0; i-- {
			j := rapid.IntRange(0, i).Draw(rt, "swap")
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		}

		s1, err := NewSchema(base, mixins)
		if err != nil {
			rt.Fatalf("NewSchema() error = %v", err)
		}
		s2, err := NewSchema(base, shuffled)
		if err != nil {
			rt.Fatalf("NewSchema() shuffled error = %v", err)
		}

		names1, names2 := s1.Names(), s2.Names()
		if len(names1) != len(names2) {
			rt.Fatalf("schema sizes differ: %d vs %d", len(names1), len(names2))
		}
		for i, name := range names1 {
			if names2[i] != name {
				rt.Fatalf("name order differs at %d: %q vs %q", i, name, names2[i])
			}
			a1, _ := s1.Lookup(name)
			a2, _ := s2.Lookup(name)
			if !a1.Attribute.Equal(a2.Attribute) {
				rt.Fatalf("descriptor for %q differs between orders", name)
			}
		}
	})
}

// A conflicting pair must be reported no matter where in the
// attachment order the two mixins land.
func TestSchemaMergeConflictOrderIndependent(t *testing.T) {
	base := &Kind{Category: Category{Scheme: "http://example.org/prop#", Term: "base"}}

	first := &Mixin{
		Category:   Category{Scheme: "http://example.org/prop#", Term: "first"},
		Attributes: []Attribute{{Name: "clash", Type: TypeString}},
	}
	second := &Mixin{
		Category:   Category{Scheme: "http://example.org/prop#", Term: "second"},
		Attributes: []Attribute{{Name: "clash", Type: TypeNumber}},
	}
	neutral := &Mixin{
		Category:   Category{Scheme: "http://example.org/prop#", Term: "neutral"},
		Attributes: []Attribute{{Name: "other", Type: TypeBoolean}},
	}

	rapid.Check(t, func(rt *rapid.T) {
		mixins := []*Mixin{first, second, neutral}
		for i := len(mixins) - 1; i > 0; i-- {
			j := rapid.IntRange(0, i).Draw(rt, "swap")
			mixins[i], mixins[j] = mixins[j], mixins[i]
		}

		_, err := NewSchema(base, mixins)
		if err == nil {
			rt.Fatalf("NewSchema() error = nil, want conflict for order %v", mixins)
		}
	})
}
