package render

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Description returns the formatter description.
func (f *JSONFormatter) Description() string {
	return "JSON output format"
}

// FormatEntity formats a single entity as JSON.
func (f *JSONFormatter) FormatEntity(w io.Writer, view EntityView, opts Options) error {
	view.Attributes = filterAttributes(view.Attributes, opts.Attributes)
	return f.encode(w, view, opts.Compact)
}

// FormatEntities formats a list of entities as JSON.
func (f *JSONFormatter) FormatEntities(w io.Writer, views []EntityView, opts Options) error {
	filtered := make([]EntityView, len(views))
	for i, view := range views {
		view.Attributes = filterAttributes(view.Attributes, opts.Attributes)
		filtered[i] = view
	}

	output := map[string]any{
		"count": len(filtered),
		"data":  filtered,
	}

	return f.encode(w, output, opts.Compact)
}

// FormatCatalogue formats catalogue definitions as JSON.
func (f *JSONFormatter) FormatCatalogue(w io.Writer, views []CategoryView, opts Options) error {
	output := map[string]any{
		"count": len(views),
		"data":  views,
	}
	return f.encode(w, output, opts.Compact)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := map[string]any{
		"error": err.Error(),
	}
	return f.encode(w, output, false)
}

// encode writes JSON to the writer.
func (f *JSONFormatter) encode(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// filterAttributes narrows an attribute map to the requested names.
func filterAttributes(attrs map[string]any, requested []string) map[string]any {
	if len(requested) == 0 {
		return attrs
	}
	result := make(map[string]any)
	for _, name := range requested {
		if val, ok := attrs[name]; ok {
			result[name] = val
		}
	}
	return result
}

func init() {
	if err := Register(NewJSONFormatter()); err != nil {
		fmt.Printf("failed to register json formatter: %v\n", err)
	}
}
