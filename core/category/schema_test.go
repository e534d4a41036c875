package category

import (
	"errors"
	"testing"
)

func testIPNetworkMixin() *Mixin {
	return &Mixin{
		Category: Category{Scheme: "http://schemas.ogf.org/occi/infrastructure#", Term: "ipnetwork", Title: "IP Network"},
		Attributes: []Attribute{
			{Name: "occi.network.address", Type: TypeString, Mutable: true},
			{Name: "occi.network.gateway", Type: TypeString, Mutable: true},
			{Name: "occi.network.allocation", Type: TypeString, Mutable: true},
		},
	}
}

func TestNewSchemaMergesChainAndMixins(t *testing.T) {
	_, _, network := testKindChain()
	ipnet := testIPNetworkMixin()

	s, err := NewSchema(network, []*Mixin{ipnet})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}

	for _, name := range []string{
		"occi.core.id", "occi.core.title", "occi.core.summary",
		"occi.network.vlan", "occi.network.label", "occi.network.state",
		"occi.network.address", "occi.network.gateway", "occi.network.allocation",
	} {
		if !s.Has(name) {
			t.Errorf("Has(%q) = false, want true", name)
		}
	}
	if s.Len() != 9 {
		t.Errorf("Len() = %d, want 9", s.Len())
	}
}

func TestNewSchemaSources(t *testing.T) {
	_, _, network := testKindChain()
	ipnet := testIPNetworkMixin()

	s, err := NewSchema(network, []*Mixin{ipnet})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}

	sa, ok := s.Lookup("occi.network.address")
	if !ok {
		t.Fatal("Lookup(occi.network.address) = false")
	}
	if len(sa.Sources) != 1 || sa.Sources[0] != ipnet.ID() {
		t.Errorf("Sources = %v, want [%s]", sa.Sources, ipnet.ID())
	}

	sa, ok = s.Lookup("occi.network.vlan")
	if !ok {
		t.Fatal("Lookup(occi.network.vlan) = false")
	}
	if len(sa.Sources) != 1 || sa.Sources[0] != network.ID() {
		t.Errorf("Sources = %v, want [%s]", sa.Sources, network.ID())
	}
}

func TestNewSchemaAgreeingDuplicate(t *testing.T) {
	_, _, network := testKindChain()

	// Declares occi.network.label identically to the kind.
	tagger := &Mixin{
		Category: Category{Scheme: "http://example.org/test#", Term: "tagger"},
		Attributes: []Attribute{
			{Name: "occi.network.label", Type: TypeString, Mutable: true},
		},
	}

	s, err := NewSchema(network, []*Mixin{tagger})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}

	sa, _ := s.Lookup("occi.network.label")
	if len(sa.Sources) != 2 {
		t.Fatalf("Sources length = %d, want 2", len(sa.Sources))
	}
	if sa.Sources[0] != network.ID() || sa.Sources[1] != tagger.ID() {
		t.Errorf("Sources = %v, want [%s %s]", sa.Sources, network.ID(), tagger.ID())
	}
}

func TestNewSchemaConflict(t *testing.T) {
	_, _, network := testKindChain()

	// Same name as the kind's label but a different type.
	clash := &Mixin{
		Category: Category{Scheme: "http://example.org/test#", Term: "clash"},
		Attributes: []Attribute{
			{Name: "occi.network.label", Type: TypeNumber, Mutable: true},
		},
	}

	_, err := NewSchema(network, []*Mixin{clash})
	if err == nil {
		t.Fatal("NewSchema() error = nil, want SchemaConflictError")
	}
	var conflict *SchemaConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("NewSchema() error type = %T, want *SchemaConflictError", err)
	}
	if conflict.Name != "occi.network.label" {
		t.Errorf("conflict.Name = %q, want occi.network.label", conflict.Name)
	}
	if conflict.First != network.ID() || conflict.Second != clash.ID() {
		t.Errorf("conflict sources = %s, %s, want %s, %s", conflict.First, conflict.Second, network.ID(), clash.ID())
	}
}

func TestNewSchemaMutabilityConflict(t *testing.T) {
	_, _, network := testKindChain()

	// Same name and type but disagreeing mutability.
	clash := &Mixin{
		Category: Category{Scheme: "http://example.org/test#", Term: "clash"},
		Attributes: []Attribute{
			{Name: "occi.network.label", Type: TypeString},
		},
	}

	_, err := NewSchema(network, []*Mixin{clash})
	var conflict *SchemaConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("NewSchema() error = %v, want *SchemaConflictError", err)
	}
}

func TestNewSchemaActions(t *testing.T) {
	_, _, network := testKindChain()
	up := Identifier{Scheme: "http://schemas.ogf.org/occi/infrastructure/network/action#", Term: "up"}

	s, err := NewSchema(network, nil)
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}

	if !s.HasAction(up) {
		t.Errorf("HasAction(%s) = false, want true", up)
	}
	if _, ok := s.Action(up); !ok {
		t.Errorf("Action(%s) = false, want true", up)
	}
	if got := len(s.Actions()); got != 2 {
		t.Errorf("Actions() length = %d, want 2", got)
	}
}

func TestSchemaRequired(t *testing.T) {
	_, _, network := testKindChain()

	s, err := NewSchema(network, nil)
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}

	want := []string{"occi.core.id", "occi.network.state"}
	got := s.Required()
	if len(got) != len(want) {
		t.Fatalf("Required() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Required()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSchemaDefaults(t *testing.T) {
	kind := &Kind{
		Category: Category{Scheme: "http://example.org/test#", Term: "thing"},
		Attributes: []Attribute{
			{Name: "size", Type: TypeNumber, Default: 10},
			{Name: "label", Type: TypeString},
		},
	}

	s, err := NewSchema(kind, nil)
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}

	defaults := s.Defaults()
	if len(defaults) != 1 {
		t.Fatalf("Defaults() = %v, want one entry", defaults)
	}
	if defaults["size"] != 10.0 {
		t.Errorf("Defaults()[size] = %v, want 10", defaults["size"])
	}
}

func TestNewSchemaNilKind(t *testing.T) {
	if _, err := NewSchema(nil, nil); err == nil {
		t.Error("NewSchema(nil) error = nil, want error")
	}
}
