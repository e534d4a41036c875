package render

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Name returns the formatter name.
func (f *YAMLFormatter) Name() string {
	return "yaml"
}

// Description returns the formatter description.
func (f *YAMLFormatter) Description() string {
	return "YAML output format"
}

// FormatEntity formats a single entity as YAML.
func (f *YAMLFormatter) FormatEntity(w io.Writer, view EntityView, opts Options) error {
	view.Attributes = filterAttributes(view.Attributes, opts.Attributes)
	return f.encode(w, view)
}

// FormatEntities formats a list of entities as YAML.
func (f *YAMLFormatter) FormatEntities(w io.Writer, views []EntityView, opts Options) error {
	filtered := make([]EntityView, len(views))
	for i, view := range views {
		view.Attributes = filterAttributes(view.Attributes, opts.Attributes)
		filtered[i] = view
	}

	output := map[string]any{
		"count": len(filtered),
		"data":  filtered,
	}

	return f.encode(w, output)
}

// FormatCatalogue formats catalogue definitions as YAML.
func (f *YAMLFormatter) FormatCatalogue(w io.Writer, views []CategoryView, opts Options) error {
	output := map[string]any{
		"count": len(views),
		"data":  views,
	}
	return f.encode(w, output)
}

// FormatError formats an error as YAML.
func (f *YAMLFormatter) FormatError(w io.Writer, err error) error {
	output := map[string]any{
		"error": err.Error(),
	}
	return f.encode(w, output)
}

// encode writes YAML to the writer.
func (f *YAMLFormatter) encode(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}

func init() {
	if err := Register(NewYAMLFormatter()); err != nil {
		fmt.Printf("failed to register yaml formatter: %v\n", err)
	}
}
