package category

// NewDocument converts resolved definitions back into their portable
// document form. Resolving the result against an empty resolver
// reproduces equal definitions, so a registry's contents survive a
// round trip through export and import.
func NewDocument(kinds []*Kind, mixins []*Mixin) *Document {
	doc := &Document{}
	for _, k := range kinds {
		def := KindDef{
			Term:       k.Term,
			Scheme:     k.Scheme,
			Title:      k.Title,
			Attributes: attrDefs(k.Attributes),
			Actions:    actionDefs(k.Actions),
		}
		if k.Parent != nil {
			def.Parent = k.Parent.ID().String()
		}
		doc.Kinds = append(doc.Kinds, def)
	}
	for _, m := range mixins {
		def := MixinDef{
			Term:       m.Term,
			Scheme:     m.Scheme,
			Title:      m.Title,
			Attributes: attrDefs(m.Attributes),
			Actions:    actionDefs(m.Actions),
		}
		for _, dep := range m.Depends {
			def.Depends = append(def.Depends, dep.ID().String())
		}
		doc.Mixins = append(doc.Mixins, def)
	}
	return doc
}

func attrDefs(attrs []Attribute) map[string]AttrDef {
	if len(attrs) == 0 {
		return nil
	}
	defs := make(map[string]AttrDef, len(attrs))
	for _, a := range attrs {
		def := AttrDef{
			Type:     string(a.Type),
			Mutable:  a.Mutable,
			Required: a.Required,
			Unique:   a.Unique,
			Default:  a.Default,
		}
		if a.Range != nil {
			def.Range = &RangeDef{Min: a.Range.Min, Max: a.Range.Max}
		}
		defs[a.Name] = def
	}
	return defs
}

func actionDefs(actions []*Action) []ActionDef {
	if len(actions) == 0 {
		return nil
	}
	defs := make([]ActionDef, 0, len(actions))
	for _, act := range actions {
		defs = append(defs, ActionDef{
			Term:       act.Term,
			Scheme:     act.Scheme,
			Title:      act.Title,
			Attributes: attrDefs(act.Attributes),
		})
	}
	return defs
}
