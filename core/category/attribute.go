package category

import (
	"fmt"
	"strconv"
	"strings"
)

// AttrType is the value type of an attribute.
type AttrType string

// Supported attribute types.
const (
	TypeString  AttrType = "string"
	TypeNumber  AttrType = "number"
	TypeBoolean AttrType = "boolean"
)

// Valid reports whether t is a supported attribute type.
func (t AttrType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

// Range bounds a number attribute inclusively. A nil end is open.
type Range struct {
	Min *float64
	Max *float64
}

// Contains reports whether v lies within the range.
func (r *Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// String renders the range as "[min,max]" with open ends blank.
func (r *Range) String() string {
	var b strings.Builder
	b.WriteByte('[')
	if r.Min != nil {
		b.WriteString(formatNumber(*r.Min))
	}
	b.WriteByte(',')
	if r.Max != nil {
		b.WriteString(formatNumber(*r.Max))
	}
	b.WriteByte(']')
	return b.String()
}

func (r *Range) equal(o *Range) bool {
	if r == nil || o == nil {
		return r == o
	}
	return floatPtrEqual(r.Min, o.Min) && floatPtrEqual(r.Max, o.Max)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Attribute describes one typed, named field of a definition.
type Attribute struct {
	Name     string
	Type     AttrType
	Mutable  bool
	Required bool
	Unique   bool
	Default  any
	Range    *Range
}

// Validate checks the descriptor's internal consistency.
func (a Attribute) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("attribute: name is required")
	}
	if !isValidTerm(a.Name) {
		return fmt.Errorf("attribute %q: invalid name", a.Name)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("attribute %q: unknown type %q", a.Name, a.Type)
	}
	if a.Range != nil {
		if a.Type != TypeNumber {
			return fmt.Errorf("attribute %q: range requires number type, got %s", a.Name, a.Type)
		}
		if a.Range.Min != nil && a.Range.Max != nil && *a.Range.Min > *a.Range.Max {
			return fmt.Errorf("attribute %q: range min %v exceeds max %v", a.Name, *a.Range.Min, *a.Range.Max)
		}
	}
	if a.Default != nil {
		if err := a.Check(a.Default); err != nil {
			return fmt.Errorf("attribute %q: default: %w", a.Name, err)
		}
	}
	return nil
}

// Check validates a candidate value against the descriptor's type and
// range. The failure is an *AttributeTypeError.
func (a Attribute) Check(v any) error {
	switch a.Type {
	case TypeString:
		if _, ok := v.(string); !ok {
			return &AttributeTypeError{Name: a.Name, Want: a.Type, Got: describeValue(v)}
		}
	case TypeNumber:
		f, ok := numericValue(v)
		if !ok {
			return &AttributeTypeError{Name: a.Name, Want: a.Type, Got: describeValue(v)}
		}
		if a.Range != nil && !a.Range.Contains(f) {
			return &AttributeTypeError{
				Name:   a.Name,
				Want:   a.Type,
				Got:    describeValue(v),
				Detail: fmt.Sprintf("value %s outside range %s", formatNumber(f), a.Range),
			}
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return &AttributeTypeError{Name: a.Name, Want: a.Type, Got: describeValue(v)}
		}
	default:
		return &AttributeTypeError{Name: a.Name, Want: a.Type, Got: describeValue(v), Detail: "unknown attribute type"}
	}
	return nil
}

// Equal reports whether two descriptors agree field for field.
func (a Attribute) Equal(o Attribute) bool {
	return a.Name == o.Name &&
		a.Type == o.Type &&
		a.Mutable == o.Mutable &&
		a.Required == o.Required &&
		a.Unique == o.Unique &&
		ValuesEqual(a.Default, o.Default) &&
		a.Range.equal(o.Range)
}

// ParseValue converts a textual value (flag, environment, prompt) into
// the canonical Go representation for the type.
func ParseValue(t AttrType, raw string) (any, error) {
	switch t {
	case TypeString:
		return raw, nil
	case TypeNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("parse number %q: %w", raw, err)
		}
		return f, nil
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("parse boolean %q: %w", raw, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown attribute type %q", t)
}

// Normalize coerces the accepted Go representations of a value into
// the canonical one: string, float64 or bool. Other values pass
// through unchanged.
func Normalize(v any) any {
	if f, ok := numericValue(v); ok {
		return f
	}
	return v
}

// ValuesEqual compares two attribute values after normalization, so
// int(5) and float64(5) compare equal.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Normalize(a) == Normalize(b)
}

// numericValue extracts a float64 from any accepted numeric
// representation. Booleans are not numbers.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// describeValue names a value's type for error messages.
func describeValue(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		if _, ok := numericValue(v); ok {
			return "number"
		}
		return fmt.Sprintf("%T", v)
	}
}

// formatNumber renders a float without a trailing ".0" for integral
// values.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// attributesEqual compares two descriptor sets ignoring order.
func attributesEqual(a, b []Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	byName := make(map[string]Attribute, len(a))
	for _, attr := range a {
		byName[attr.Name] = attr
	}
	for _, attr := range b {
		other, ok := byName[attr.Name]
		if !ok || !other.Equal(attr) {
			return false
		}
	}
	return true
}

// validateAttributes checks each descriptor and rejects duplicates.
func validateAttributes(owner string, attrs []Attribute) error {
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("%s: %w", owner, err)
		}
		if seen[a.Name] {
			return fmt.Errorf("%s: duplicate attribute %q", owner, a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}
