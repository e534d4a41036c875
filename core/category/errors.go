package category

import "fmt"

// CyclicKindError reports a parent chain that revisits a kind.
type CyclicKindError struct {
	Kind     Identifier
	Repeated Identifier
}

func (e *CyclicKindError) Error() string {
	return fmt.Sprintf("kind %s: cyclic parent chain through %s", e.Kind, e.Repeated)
}

// SchemaConflictError reports two schema sources declaring the same
// attribute name with disagreeing descriptors.
type SchemaConflictError struct {
	Name   string
	First  Identifier
	Second Identifier
}

func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("attribute %q: conflicting declarations in %s and %s", e.Name, e.First, e.Second)
}

// AttributeTypeError reports a value that does not satisfy an
// attribute descriptor's type or range.
type AttributeTypeError struct {
	Name   string
	Want   AttrType
	Got    string
	Detail string
}

func (e *AttributeTypeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("attribute %q: %s", e.Name, e.Detail)
	}
	return fmt.Sprintf("attribute %q: expected %s, got %s", e.Name, e.Want, e.Got)
}
