package registry

import (
	"fmt"

	"github.com/artpar/occi/core/category"
)

// DuplicateCategoryError reports an attempt to register a different
// definition under an occupied scheme#term key.
type DuplicateCategoryError struct {
	ID category.Identifier
}

func (e *DuplicateCategoryError) Error() string {
	return fmt.Sprintf("category %s: already registered with a different definition", e.ID)
}

// UnknownCategoryError reports a lookup miss. Flavor narrows the
// failure to the definition type that was requested.
type UnknownCategoryError struct {
	ID     category.Identifier
	Flavor string
}

func (e *UnknownCategoryError) Error() string {
	if e.Flavor != "" {
		return fmt.Sprintf("unknown %s %s", e.Flavor, e.ID)
	}
	return fmt.Sprintf("unknown category %s", e.ID)
}

// CategoryInUseError reports an unregister attempt on a definition
// that live entities or other definitions still reference.
type CategoryInUseError struct {
	ID     category.Identifier
	Reason string
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category %s: in use: %s", e.ID, e.Reason)
}
