package category

import (
	"fmt"
	"strings"
)

// Identifier is the identity key of a definition: scheme plus term.
// The scheme includes the trailing '#'.
type Identifier struct {
	Scheme string
	Term   string
}

// ParseIdentifier splits a full "scheme#term" string on the last '#'.
func ParseIdentifier(s string) (Identifier, error) {
	i := strings.LastIndex(s, "#")
	if i < 0 {
		return Identifier{}, fmt.Errorf("identifier %q: missing '#' separator", s)
	}

	id := Identifier{Scheme: s[:i+1], Term: s[i+1:]}
	if err := id.Validate(); err != nil {
		return Identifier{}, err
	}

	return id, nil
}

// String returns the full "scheme#term" form.
func (id Identifier) String() string {
	return id.Scheme + id.Term
}

// IsZero reports whether the identifier is unset.
func (id Identifier) IsZero() bool {
	return id.Scheme == "" && id.Term == ""
}

// Validate checks the identifier's structural rules.
func (id Identifier) Validate() error {
	if id.Scheme == "" {
		return fmt.Errorf("identifier: scheme is required")
	}
	if !strings.HasSuffix(id.Scheme, "#") {
		return fmt.Errorf("identifier %q: scheme must end with '#'", id.Scheme)
	}
	if strings.Count(id.Scheme, "#") > 1 {
		return fmt.Errorf("identifier %q: scheme contains '#' before the terminator", id.Scheme)
	}
	if id.Term == "" {
		return fmt.Errorf("identifier %q: term is required", id.Scheme)
	}
	if !isValidTerm(id.Term) {
		return fmt.Errorf("identifier: term %q is not a valid term", id.Term)
	}
	return nil
}

// Category is the identity shared by Kind, Mixin and Action: the
// scheme#term key plus a human-readable title.
type Category struct {
	Scheme string
	Term   string
	Title  string
}

// ID returns the category's identity key.
func (c Category) ID() Identifier {
	return Identifier{Scheme: c.Scheme, Term: c.Term}
}

// String returns the full "scheme#term" form.
func (c Category) String() string {
	return c.ID().String()
}

// Validate checks the category's identity.
func (c Category) Validate() error {
	return c.ID().Validate()
}

// isValidTerm checks a term: lowercase-ish word characters, with
// '-', '_' and '.' allowed after the first character.
func isValidTerm(term string) bool {
	for i, r := range term {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
