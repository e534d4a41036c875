package category

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Document is a parsed catalogue definition file.
type Document struct {
	Kinds  []KindDef  `yaml:"kinds,omitempty" json:"kinds,omitempty"`
	Mixins []MixinDef `yaml:"mixins,omitempty" json:"mixins,omitempty"`
}

// KindDef is the on-disk form of a Kind. Parent references the full
// "scheme#term" identifier of another kind.
type KindDef struct {
	Term       string             `yaml:"term" json:"term"`
	Scheme     string             `yaml:"scheme" json:"scheme"`
	Title      string             `yaml:"title,omitempty" json:"title,omitempty"`
	Parent     string             `yaml:"parent,omitempty" json:"parent,omitempty"`
	Attributes map[string]AttrDef `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Actions    []ActionDef        `yaml:"actions,omitempty" json:"actions,omitempty"`
}

// MixinDef is the on-disk form of a Mixin. Depends lists full
// identifiers of mixins that must be attached first.
type MixinDef struct {
	Term       string             `yaml:"term" json:"term"`
	Scheme     string             `yaml:"scheme" json:"scheme"`
	Title      string             `yaml:"title,omitempty" json:"title,omitempty"`
	Depends    []string           `yaml:"depends,omitempty" json:"depends,omitempty"`
	Attributes map[string]AttrDef `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Actions    []ActionDef        `yaml:"actions,omitempty" json:"actions,omitempty"`
}

// ActionDef is the on-disk form of an Action.
type ActionDef struct {
	Term       string             `yaml:"term" json:"term"`
	Scheme     string             `yaml:"scheme" json:"scheme"`
	Title      string             `yaml:"title,omitempty" json:"title,omitempty"`
	Attributes map[string]AttrDef `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// AttrDef is the on-disk form of an attribute descriptor.
type AttrDef struct {
	Type     string    `yaml:"type" json:"type"`
	Mutable  bool      `yaml:"mutable,omitempty" json:"mutable,omitempty"`
	Required bool      `yaml:"required,omitempty" json:"required,omitempty"`
	Unique   bool      `yaml:"unique,omitempty" json:"unique,omitempty"`
	Default  any       `yaml:"default,omitempty" json:"default,omitempty"`
	Range    *RangeDef `yaml:"range,omitempty" json:"range,omitempty"`
}

// RangeDef is the on-disk form of a numeric range.
type RangeDef struct {
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// ParseFile parses a catalogue document from a YAML file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Parse parses a catalogue document from YAML bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &doc, nil
}

// Resolver supplies already-registered definitions for references
// that the document itself does not define.
type Resolver interface {
	ResolveKind(Identifier) (*Kind, bool)
	ResolveMixin(Identifier) (*Mixin, bool)
}

// Resolve links the document's definitions into Kind and Mixin values.
// Parent and dependency references may point at definitions in the
// same document, in any order, or at definitions known to r. Kinds
// come back parents-first and mixins dependencies-first, so the result
// can be registered in order. A nil resolver restricts references to
// the document itself.
func (d *Document) Resolve(r Resolver) ([]*Kind, []*Mixin, error) {
	res := &docResolver{
		doc:      d,
		external: r,
		kinds:    make(map[Identifier]*Kind),
		mixins:   make(map[Identifier]*Mixin),
		kindDefs: make(map[Identifier]*KindDef),
		mixDefs:  make(map[Identifier]*MixinDef),
	}

	for i := range d.Kinds {
		def := &d.Kinds[i]
		id, err := defIdentifier(def.Scheme, def.Term)
		if err != nil {
			return nil, nil, fmt.Errorf("kind %q: %w", def.Term, err)
		}
		if _, dup := res.kindDefs[id]; dup {
			return nil, nil, fmt.Errorf("duplicate kind definition %s", id)
		}
		res.kindDefs[id] = def
	}
	for i := range d.Mixins {
		def := &d.Mixins[i]
		id, err := defIdentifier(def.Scheme, def.Term)
		if err != nil {
			return nil, nil, fmt.Errorf("mixin %q: %w", def.Term, err)
		}
		if _, dup := res.mixDefs[id]; dup {
			return nil, nil, fmt.Errorf("duplicate mixin definition %s", id)
		}
		if _, dup := res.kindDefs[id]; dup {
			return nil, nil, fmt.Errorf("definition %s declared as both kind and mixin", id)
		}
		res.mixDefs[id] = def
	}

	for i := range d.Kinds {
		id, _ := defIdentifier(d.Kinds[i].Scheme, d.Kinds[i].Term)
		if _, err := res.kind(id, nil); err != nil {
			return nil, nil, err
		}
	}
	for i := range d.Mixins {
		id, _ := defIdentifier(d.Mixins[i].Scheme, d.Mixins[i].Term)
		if _, err := res.mixin(id, nil); err != nil {
			return nil, nil, err
		}
	}

	// kind() and mixin() append in construction order, which places
	// parents and dependencies before their dependents.
	return res.kindOrder, res.mixOrder, nil
}

// docResolver memoizes definition construction across parent and
// dependency references.
type docResolver struct {
	doc      *Document
	external Resolver

	kindDefs map[Identifier]*KindDef
	mixDefs  map[Identifier]*MixinDef

	kinds     map[Identifier]*Kind
	mixins    map[Identifier]*Mixin
	kindOrder []*Kind
	mixOrder  []*Mixin
}

func (r *docResolver) kind(id Identifier, trail []Identifier) (*Kind, error) {
	if k, ok := r.kinds[id]; ok {
		return k, nil
	}
	for _, t := range trail {
		if t == id {
			return nil, &CyclicKindError{Kind: trail[0], Repeated: id}
		}
	}

	def, ok := r.kindDefs[id]
	if !ok {
		if r.external != nil {
			if k, ok := r.external.ResolveKind(id); ok {
				return k, nil
			}
		}
		return nil, fmt.Errorf("unresolved kind reference %s", id)
	}

	k := &Kind{Category: Category{Scheme: def.Scheme, Term: def.Term, Title: def.Title}}
	if def.Parent != "" {
		parentID, err := ParseIdentifier(def.Parent)
		if err != nil {
			return nil, fmt.Errorf("kind %s: parent: %w", id, err)
		}
		parent, err := r.kind(parentID, append(trail, id))
		if err != nil {
			return nil, err
		}
		k.Parent = parent
	}

	attrs, err := buildAttributes(def.Attributes)
	if err != nil {
		return nil, fmt.Errorf("kind %s: %w", id, err)
	}
	k.Attributes = attrs

	actions, err := buildActions(def.Actions)
	if err != nil {
		return nil, fmt.Errorf("kind %s: %w", id, err)
	}
	k.Actions = actions

	if err := k.Validate(); err != nil {
		return nil, err
	}

	r.kinds[id] = k
	r.kindOrder = append(r.kindOrder, k)
	return k, nil
}

func (r *docResolver) mixin(id Identifier, trail []Identifier) (*Mixin, error) {
	if m, ok := r.mixins[id]; ok {
		return m, nil
	}
	for _, t := range trail {
		if t == id {
			return nil, fmt.Errorf("mixin %s: cyclic dependency through %s", trail[0], id)
		}
	}

	def, ok := r.mixDefs[id]
	if !ok {
		if r.external != nil {
			if m, ok := r.external.ResolveMixin(id); ok {
				return m, nil
			}
		}
		return nil, fmt.Errorf("unresolved mixin reference %s", id)
	}

	m := &Mixin{Category: Category{Scheme: def.Scheme, Term: def.Term, Title: def.Title}}
	for _, depRef := range def.Depends {
		depID, err := ParseIdentifier(depRef)
		if err != nil {
			return nil, fmt.Errorf("mixin %s: depends: %w", id, err)
		}
		dep, err := r.mixin(depID, append(trail, id))
		if err != nil {
			return nil, err
		}
		m.Depends = append(m.Depends, dep)
	}

	attrs, err := buildAttributes(def.Attributes)
	if err != nil {
		return nil, fmt.Errorf("mixin %s: %w", id, err)
	}
	m.Attributes = attrs

	actions, err := buildActions(def.Actions)
	if err != nil {
		return nil, fmt.Errorf("mixin %s: %w", id, err)
	}
	m.Actions = actions

	if err := m.Validate(); err != nil {
		return nil, err
	}

	r.mixins[id] = m
	r.mixOrder = append(r.mixOrder, m)
	return m, nil
}

// buildAttributes converts the name-keyed definition map into sorted
// descriptors, so construction is deterministic.
func buildAttributes(defs map[string]AttrDef) ([]Attribute, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	attrs := make([]Attribute, 0, len(names))
	for _, name := range names {
		def := defs[name]
		a := Attribute{
			Name:     name,
			Type:     AttrType(def.Type),
			Mutable:  def.Mutable,
			Required: def.Required,
			Unique:   def.Unique,
			Default:  def.Default,
		}
		if def.Range != nil {
			a.Range = &Range{Min: def.Range.Min, Max: def.Range.Max}
		}
		if a.Default != nil {
			a.Default = Normalize(a.Default)
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func buildActions(defs []ActionDef) ([]*Action, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	actions := make([]*Action, 0, len(defs))
	for _, def := range defs {
		attrs, err := buildAttributes(def.Attributes)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", def.Term, err)
		}
		act := &Action{
			Category:   Category{Scheme: def.Scheme, Term: def.Term, Title: def.Title},
			Attributes: attrs,
		}
		if err := act.Validate(); err != nil {
			return nil, err
		}
		actions = append(actions, act)
	}
	return actions, nil
}

func defIdentifier(scheme, term string) (Identifier, error) {
	id := Identifier{Scheme: scheme, Term: term}
	if err := id.Validate(); err != nil {
		return Identifier{}, err
	}
	return id, nil
}
