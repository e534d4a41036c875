package entity

import (
	"fmt"
	"strings"

	"github.com/artpar/occi/core/category"
)

// UnknownAttributeError reports a read or write of an attribute name
// outside the entity's effective schema.
type UnknownAttributeError struct {
	Name string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("unknown attribute %q", e.Name)
}

// ImmutableAttributeError reports a write to an immutable attribute of
// a created entity.
type ImmutableAttributeError struct {
	Name string
}

func (e *ImmutableAttributeError) Error() string {
	return fmt.Sprintf("attribute %q: immutable after creation", e.Name)
}

// MissingRequiredAttributeError lists every required attribute that
// lacks a non-default value.
type MissingRequiredAttributeError struct {
	Names []string
}

func (e *MissingRequiredAttributeError) Error() string {
	return fmt.Sprintf("missing required attributes: %s", strings.Join(e.Names, ", "))
}

// UniqueConstraintViolation reports a unique attribute value another
// entity of the same kind already holds.
type UniqueConstraintViolation struct {
	Name  string
	Value any
}

func (e *UniqueConstraintViolation) Error() string {
	return fmt.Sprintf("attribute %q: value %v already in use", e.Name, e.Value)
}

// UnrelatedMixinError reports a detach of a mixin that is not
// attached.
type UnrelatedMixinError struct {
	Mixin category.Identifier
}

func (e *UnrelatedMixinError) Error() string {
	return fmt.Sprintf("mixin %s is not attached", e.Mixin)
}

// MixinDependencyError reports a mixin dependency that blocks an
// attach or detach: Mixin requires Requires to stay attached.
type MixinDependencyError struct {
	Mixin    category.Identifier
	Requires category.Identifier
}

func (e *MixinDependencyError) Error() string {
	return fmt.Sprintf("mixin %s requires mixin %s", e.Mixin, e.Requires)
}

// ActionNotApplicableError reports an action invocation outside the
// entity's effective schema.
type ActionNotApplicableError struct {
	Action category.Identifier
	Entity string
}

func (e *ActionNotApplicableError) Error() string {
	return fmt.Sprintf("action %s not applicable to entity %s", e.Action, e.Entity)
}

// EntityDeletedError reports an operation on a deleted entity.
type EntityDeletedError struct {
	ID string
}

func (e *EntityDeletedError) Error() string {
	return fmt.Sprintf("entity %s is deleted", e.ID)
}
