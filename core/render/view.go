package render

import (
	"sort"

	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/core/entity"
)

// EntityView is a flat, renderable snapshot of an entity.
type EntityView struct {
	ID         string         `json:"id" yaml:"id"`
	Kind       string         `json:"kind" yaml:"kind"`
	State      string         `json:"state" yaml:"state"`
	Mixins     []string       `json:"mixins,omitempty" yaml:"mixins,omitempty"`
	Attributes map[string]any `json:"attributes" yaml:"attributes"`
}

// NewEntityView builds a view from a live entity.
func NewEntityView(e *entity.Entity) EntityView {
	var mixins []string
	for _, id := range e.MixinIDs() {
		mixins = append(mixins, id.String())
	}
	return EntityView{
		ID:         e.ID(),
		Kind:       e.Kind().ID().String(),
		State:      e.State().String(),
		Mixins:     mixins,
		Attributes: e.Values(),
	}
}

// AttributeView describes one attribute of a catalogue definition.
type AttributeView struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Mutable  bool   `json:"mutable" yaml:"mutable"`
	Required bool   `json:"required" yaml:"required"`
	Unique   bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
	Default  any    `json:"default,omitempty" yaml:"default,omitempty"`
	Range    string `json:"range,omitempty" yaml:"range,omitempty"`
}

// CategoryView is a flat, renderable snapshot of a catalogue definition.
type CategoryView struct {
	ID         string          `json:"id" yaml:"id"`
	Flavor     string          `json:"flavor" yaml:"flavor"`
	Title      string          `json:"title,omitempty" yaml:"title,omitempty"`
	Parent     string          `json:"parent,omitempty" yaml:"parent,omitempty"`
	Depends    []string        `json:"depends,omitempty" yaml:"depends,omitempty"`
	Attributes []AttributeView `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Actions    []string        `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// NewCategoryView builds a view from a catalogue definition. Definitions
// other than kinds, mixins and actions render with an empty flavor.
func NewCategoryView(def any) CategoryView {
	switch d := def.(type) {
	case *category.Kind:
		v := CategoryView{
			ID:         d.ID().String(),
			Flavor:     "kind",
			Title:      d.Title,
			Attributes: attributeViews(d.Attributes),
			Actions:    actionIDs(d.Actions),
		}
		if d.Parent != nil {
			v.Parent = d.Parent.ID().String()
		}
		return v
	case *category.Mixin:
		v := CategoryView{
			ID:         d.ID().String(),
			Flavor:     "mixin",
			Title:      d.Title,
			Attributes: attributeViews(d.Attributes),
			Actions:    actionIDs(d.Actions),
		}
		for _, dep := range d.Depends {
			v.Depends = append(v.Depends, dep.ID().String())
		}
		return v
	case *category.Action:
		return CategoryView{
			ID:         d.ID().String(),
			Flavor:     "action",
			Title:      d.Title,
			Attributes: attributeViews(d.Attributes),
		}
	default:
		return CategoryView{}
	}
}

func attributeViews(attrs []category.Attribute) []AttributeView {
	if len(attrs) == 0 {
		return nil
	}
	views := make([]AttributeView, 0, len(attrs))
	for _, a := range attrs {
		v := AttributeView{
			Name:     a.Name,
			Type:     string(a.Type),
			Mutable:  a.Mutable,
			Required: a.Required,
			Unique:   a.Unique,
			Default:  a.Default,
		}
		if a.Range != nil {
			v.Range = a.Range.String()
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views
}

func actionIDs(actions []*category.Action) []string {
	if len(actions) == 0 {
		return nil
	}
	ids := make([]string, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.ID().String())
	}
	sort.Strings(ids)
	return ids
}

// attributeNames returns the sorted attribute names of a view, narrowed
// to the requested set when one is given.
func attributeNames(attrs map[string]any, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
