package category

import (
	_ "embed"
	"fmt"
)

//go:embed builtin.yaml
var builtinYAML []byte

// Schemes of the built-in catalogue.
const (
	SchemeCore           = "http://schemas.ogf.org/occi/core#"
	SchemeInfrastructure = "http://schemas.ogf.org/occi/infrastructure#"
)

// Core attribute names every entity kind inherits.
const (
	AttrCoreID      = "occi.core.id"
	AttrCoreTitle   = "occi.core.title"
	AttrCoreSummary = "occi.core.summary"
)

// Builtin parses the embedded core and infrastructure catalogue.
func Builtin() (*Document, error) {
	doc, err := Parse(builtinYAML)
	if err != nil {
		return nil, fmt.Errorf("builtin catalogue: %w", err)
	}
	return doc, nil
}
