package category

import (
	"errors"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }

func TestAttributeCheck(t *testing.T) {
	vlan := Attribute{Name: "occi.network.vlan", Type: TypeNumber, Mutable: true, Range: &Range{Min: floatPtr(0), Max: floatPtr(4095)}}

	tests := []struct {
		name    string
		attr    Attribute
		value   any
		wantErr bool
	}{
		{
			name:  "string accepts string",
			attr:  Attribute{Name: "occi.core.title", Type: TypeString},
			value: "db1",
		},
		{
			name:    "string rejects number",
			attr:    Attribute{Name: "occi.core.title", Type: TypeString},
			value:   42,
			wantErr: true,
		},
		{
			name:  "number accepts float64",
			attr:  Attribute{Name: "occi.compute.memory", Type: TypeNumber},
			value: 2048.0,
		},
		{
			name:  "number accepts int",
			attr:  Attribute{Name: "occi.compute.cores", Type: TypeNumber},
			value: 4,
		},
		{
			name:    "number rejects string",
			attr:    Attribute{Name: "occi.compute.cores", Type: TypeNumber},
			value:   "4",
			wantErr: true,
		},
		{
			name:    "number rejects bool",
			attr:    Attribute{Name: "occi.compute.cores", Type: TypeNumber},
			value:   true,
			wantErr: true,
		},
		{
			name:  "boolean accepts bool",
			attr:  Attribute{Name: "enabled", Type: TypeBoolean},
			value: true,
		},
		{
			name:    "boolean rejects string",
			attr:    Attribute{Name: "enabled", Type: TypeBoolean},
			value:   "true",
			wantErr: true,
		},
		{
			name:  "range accepts bound",
			attr:  vlan,
			value: 4095,
		},
		{
			name:    "range rejects above max",
			attr:    vlan,
			value:   4096,
			wantErr: true,
		},
		{
			name:    "range rejects below min",
			attr:    vlan,
			value:   -1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.attr.Check(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var typeErr *AttributeTypeError
			if !errors.As(err, &typeErr) {
				t.Errorf("Check(%v) error type = %T, want *AttributeTypeError", tt.value, err)
			}
		})
	}
}

func TestAttributeValidate(t *testing.T) {
	tests := []struct {
		name    string
		attr    Attribute
		wantErr bool
	}{
		{
			name: "valid",
			attr: Attribute{Name: "occi.network.label", Type: TypeString, Mutable: true},
		},
		{
			name:    "empty name",
			attr:    Attribute{Type: TypeString},
			wantErr: true,
		},
		{
			name:    "unknown type",
			attr:    Attribute{Name: "x", Type: "integer"},
			wantErr: true,
		},
		{
			name:    "range on string",
			attr:    Attribute{Name: "x", Type: TypeString, Range: &Range{Min: floatPtr(0)}},
			wantErr: true,
		},
		{
			name:    "inverted range",
			attr:    Attribute{Name: "x", Type: TypeNumber, Range: &Range{Min: floatPtr(10), Max: floatPtr(1)}},
			wantErr: true,
		},
		{
			name: "default matching type",
			attr: Attribute{Name: "x", Type: TypeNumber, Default: 5},
		},
		{
			name:    "default violating type",
			attr:    Attribute{Name: "x", Type: TypeNumber, Default: "five"},
			wantErr: true,
		},
		{
			name:    "default outside range",
			attr:    Attribute{Name: "x", Type: TypeNumber, Default: 99, Range: &Range{Max: floatPtr(10)}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.attr.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAttributeEqual(t *testing.T) {
	base := Attribute{Name: "occi.network.vlan", Type: TypeNumber, Mutable: true, Range: &Range{Min: floatPtr(0), Max: floatPtr(4095)}}

	tests := []struct {
		name  string
		other Attribute
		want  bool
	}{
		{
			name:  "identical",
			other: Attribute{Name: "occi.network.vlan", Type: TypeNumber, Mutable: true, Range: &Range{Min: floatPtr(0), Max: floatPtr(4095)}},
			want:  true,
		},
		{
			name:  "different type",
			other: Attribute{Name: "occi.network.vlan", Type: TypeString, Mutable: true, Range: &Range{Min: floatPtr(0), Max: floatPtr(4095)}},
			want:  false,
		},
		{
			name:  "different mutability",
			other: Attribute{Name: "occi.network.vlan", Type: TypeNumber, Range: &Range{Min: floatPtr(0), Max: floatPtr(4095)}},
			want:  false,
		},
		{
			name:  "different range",
			other: Attribute{Name: "occi.network.vlan", Type: TypeNumber, Mutable: true, Range: &Range{Min: floatPtr(0), Max: floatPtr(4094)}},
			want:  false,
		},
		{
			name:  "missing range",
			other: Attribute{Name: "occi.network.vlan", Type: TypeNumber, Mutable: true},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAttributeEqualNormalizesDefaults(t *testing.T) {
	a := Attribute{Name: "occi.compute.cores", Type: TypeNumber, Default: 2}
	b := Attribute{Name: "occi.compute.cores", Type: TypeNumber, Default: 2.0}
	if !a.Equal(b) {
		t.Errorf("Equal() = false for int and float defaults of the same value")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		typ     AttrType
		raw     string
		want    any
		wantErr bool
	}{
		{name: "string", typ: TypeString, raw: "lab1", want: "lab1"},
		{name: "number", typ: TypeNumber, raw: "42", want: 42.0},
		{name: "number decimal", typ: TypeNumber, raw: "2.5", want: 2.5},
		{name: "number garbage", typ: TypeNumber, raw: "many", wantErr: true},
		{name: "boolean true", typ: TypeBoolean, raw: "true", want: true},
		{name: "boolean garbage", typ: TypeBoolean, raw: "yep", wantErr: true},
		{name: "unknown type", typ: "enum", raw: "a", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.typ, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseValue(%q, %q) error = %v, wantErr %v", tt.typ, tt.raw, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("ParseValue(%q, %q) = %v (%T), want %v (%T)", tt.typ, tt.raw, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "int and float", a: 5, b: 5.0, want: true},
		{name: "equal strings", a: "x", b: "x", want: true},
		{name: "different numbers", a: 5, b: 6, want: false},
		{name: "nil and value", a: nil, b: "x", want: false},
		{name: "both nil", a: nil, b: nil, want: true},
		{name: "bool not number", a: true, b: 1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValuesEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("ValuesEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRangeString(t *testing.T) {
	tests := []struct {
		name string
		r    *Range
		want string
	}{
		{name: "closed", r: &Range{Min: floatPtr(0), Max: floatPtr(4095)}, want: "[0,4095]"},
		{name: "open max", r: &Range{Min: floatPtr(1)}, want: "[1,]"},
		{name: "open min", r: &Range{Max: floatPtr(10)}, want: "[,10]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
