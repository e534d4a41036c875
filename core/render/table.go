package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TableFormatter formats output as aligned text tables.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Name returns the formatter name.
func (f *TableFormatter) Name() string {
	return "table"
}

// Description returns the formatter description.
func (f *TableFormatter) Description() string {
	return "Aligned text table output"
}

// FormatEntity formats a single entity as key-value pairs.
func (f *TableFormatter) FormatEntity(w io.Writer, view EntityView, opts Options) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Id:\t%s\n", view.ID)
	fmt.Fprintf(tw, "Kind:\t%s\n", view.Kind)
	fmt.Fprintf(tw, "State:\t%s\n", view.State)
	if len(view.Mixins) > 0 {
		fmt.Fprintf(tw, "Mixins:\t%s\n", strings.Join(view.Mixins, ", "))
	}
	for _, name := range attributeNames(view.Attributes, opts.Attributes) {
		fmt.Fprintf(tw, "%s:\t%s\n", name, f.formatValue(view.Attributes[name], 0))
	}

	return tw.Flush()
}

// FormatEntities formats a list of entities as a table.
func (f *TableFormatter) FormatEntities(w io.Writer, views []EntityView, opts Options) error {
	if len(views) == 0 {
		fmt.Fprintln(w, "No entities found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	columns := append([]string{"id", "kind", "state", "mixins"}, opts.Attributes...)
	if !opts.NoHeader {
		headers := make([]string, len(columns))
		for i, col := range columns {
			headers[i] = strings.ToUpper(col)
		}
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}

	for _, view := range views {
		values := []string{
			view.ID,
			view.Kind,
			view.State,
			f.formatValue(len(view.Mixins), 0),
		}
		for _, name := range opts.Attributes {
			values = append(values, f.formatValue(view.Attributes[name], opts.MaxWidth))
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}

	return tw.Flush()
}

// FormatCatalogue formats catalogue definitions as a table.
func (f *TableFormatter) FormatCatalogue(w io.Writer, views []CategoryView, opts Options) error {
	if len(views) == 0 {
		fmt.Fprintln(w, "No definitions found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !opts.NoHeader {
		fmt.Fprintln(tw, "ID\tFLAVOR\tTITLE\tRELATES\tATTRS\tACTIONS")
	}

	for _, view := range views {
		relates := view.Parent
		if relates == "" && len(view.Depends) > 0 {
			relates = strings.Join(view.Depends, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			view.ID,
			view.Flavor,
			f.formatValue(view.Title, opts.MaxWidth),
			f.formatValue(relates, opts.MaxWidth),
			len(view.Attributes),
			len(view.Actions),
		)
	}

	return tw.Flush()
}

// FormatError formats an error message.
func (f *TableFormatter) FormatError(w io.Writer, err error) error {
	fmt.Fprintf(w, "Error: %s\n", err.Error())
	return nil
}

// formatValue formats a value for display.
func (f *TableFormatter) formatValue(val any, maxWidth int) string {
	if val == nil {
		return "-"
	}

	var str string
	switch v := val.(type) {
	case string:
		if v == "" {
			return "-"
		}
		str = v
	case bool:
		if v {
			str = "yes"
		} else {
			str = "no"
		}
	case int:
		str = fmt.Sprintf("%d", v)
	case float64:
		// Check if it's a whole number
		if v == float64(int64(v)) {
			str = fmt.Sprintf("%d", int64(v))
		} else {
			str = fmt.Sprintf("%.2f", v)
		}
	default:
		b, _ := json.Marshal(v)
		str = string(b)
	}

	// Truncate if needed
	if maxWidth > 0 && len(str) > maxWidth {
		str = str[:maxWidth-3] + "..."
	}

	return str
}

func init() {
	Register(NewTableFormatter())
}
