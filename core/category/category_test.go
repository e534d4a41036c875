package category

import (
	"testing"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Identifier
		wantErr bool
	}{
		{
			name:  "infrastructure kind",
			input: "http://schemas.ogf.org/occi/infrastructure#network",
			want:  Identifier{Scheme: "http://schemas.ogf.org/occi/infrastructure#", Term: "network"},
		},
		{
			name:  "nested action scheme",
			input: "http://schemas.ogf.org/occi/infrastructure/network/action#up",
			want:  Identifier{Scheme: "http://schemas.ogf.org/occi/infrastructure/network/action#", Term: "up"},
		},
		{
			name:  "term with underscore",
			input: "http://schemas.ogf.org/occi/infrastructure#os_tpl",
			want:  Identifier{Scheme: "http://schemas.ogf.org/occi/infrastructure#", Term: "os_tpl"},
		},
		{
			name:    "missing separator",
			input:   "http://schemas.ogf.org/occi/infrastructure",
			wantErr: true,
		},
		{
			name:    "empty term",
			input:   "http://schemas.ogf.org/occi/infrastructure#",
			wantErr: true,
		},
		{
			name:    "empty scheme",
			input:   "#network",
			wantErr: true,
		},
		{
			name:    "term with space",
			input:   "http://schemas.ogf.org/occi/infrastructure#net work",
			wantErr: true,
		},
		{
			name:    "term starting with digit",
			input:   "http://schemas.ogf.org/occi/infrastructure#9net",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIdentifier(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIdentifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("ParseIdentifier(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIdentifierString(t *testing.T) {
	id := Identifier{Scheme: "http://schemas.ogf.org/occi/core#", Term: "entity"}
	want := "http://schemas.ogf.org/occi/core#entity"
	if got := id.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestIdentifierRoundTrip(t *testing.T) {
	id := Identifier{Scheme: "http://schemas.ogf.org/occi/infrastructure#", Term: "compute"}
	parsed, err := ParseIdentifier(id.String())
	if err != nil {
		t.Fatalf("ParseIdentifier() error = %v", err)
	}
	if parsed != id {
		t.Errorf("round trip = %+v, want %+v", parsed, id)
	}
}

func TestIdentifierValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      Identifier
		wantErr bool
	}{
		{
			name: "valid",
			id:   Identifier{Scheme: "http://schemas.ogf.org/occi/core#", Term: "resource"},
		},
		{
			name:    "scheme without terminator",
			id:      Identifier{Scheme: "http://schemas.ogf.org/occi/core", Term: "resource"},
			wantErr: true,
		},
		{
			name:    "scheme with embedded hash",
			id:      Identifier{Scheme: "http://schemas.ogf.org/occi#core#", Term: "resource"},
			wantErr: true,
		},
		{
			name:    "zero value",
			id:      Identifier{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryID(t *testing.T) {
	c := Category{Scheme: "http://schemas.ogf.org/occi/core#", Term: "entity", Title: "Entity"}
	want := Identifier{Scheme: "http://schemas.ogf.org/occi/core#", Term: "entity"}
	if got := c.ID(); got != want {
		t.Errorf("ID() = %+v, want %+v", got, want)
	}
}
