package jsonapi

// DocumentBuilder provides a fluent API for building Document objects.
type DocumentBuilder struct {
	doc Document
}

// NewDocument creates a new DocumentBuilder.
func NewDocument() *DocumentBuilder {
	return &DocumentBuilder{}
}

// Data sets the primary data of the document.
// Can be a Resource, []Resource, or nil.
func (b *DocumentBuilder) Data(data any) *DocumentBuilder {
	b.doc.Data = data
	return b
}

// DataCollection sets a collection of resources as the primary data.
// A nil slice renders as an empty array, not null.
func (b *DocumentBuilder) DataCollection(resources []Resource) *DocumentBuilder {
	if resources == nil {
		resources = []Resource{}
	}
	b.doc.Data = resources
	return b
}

// Errors sets the errors array. This is mutually exclusive with Data.
func (b *DocumentBuilder) Errors(errors ...Error) *DocumentBuilder {
	b.doc.Errors = errors
	b.doc.Data = nil
	return b
}

// Meta adds a metadata entry to the document.
func (b *DocumentBuilder) Meta(key string, value any) *DocumentBuilder {
	if b.doc.Meta == nil {
		b.doc.Meta = make(Meta)
	}
	b.doc.Meta[key] = value
	return b
}

// MetaAll sets all metadata at once.
func (b *DocumentBuilder) MetaAll(meta Meta) *DocumentBuilder {
	b.doc.Meta = meta
	return b
}

// Pagination adds pagination metadata and links.
func (b *DocumentBuilder) Pagination(p *Pagination) *DocumentBuilder {
	if p == nil {
		return b
	}
	if b.doc.Meta == nil {
		b.doc.Meta = make(Meta)
	}
	b.doc.Meta["total"] = p.Total
	b.doc.Meta["page"] = p.Page
	b.doc.Meta["per_page"] = p.PerPage
	b.doc.Links = p.Links()
	return b
}

// Build returns the constructed Document.
func (b *DocumentBuilder) Build() Document {
	return b.doc
}

// NewSingleResourceDocument is a convenience function for creating a document with a single resource.
func NewSingleResourceDocument(r Resource) Document {
	return NewDocument().Data(r).Build()
}

// NewCollectionDocument is a convenience function for creating a document with a collection.
func NewCollectionDocument(resources []Resource, pagination *Pagination) Document {
	builder := NewDocument().DataCollection(resources)
	if pagination != nil {
		builder.Pagination(pagination)
	}
	return builder.Build()
}

// NewErrorDocument is a convenience function for creating an error document.
func NewErrorDocument(errors ...Error) Document {
	return NewDocument().Errors(errors...).Build()
}
