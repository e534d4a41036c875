// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/occi/core/category"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher provides password hashing.
type Hasher interface {
	// Hash generates a hash from a plaintext value.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// CredentialPrompter reads credentials interactively.
type CredentialPrompter interface {
	// Prompt reads a visible line.
	Prompt(label string) (string, error)

	// PromptSecret reads a line without echoing it.
	PromptSecret(label string) (string, error)
}

// -----------------------------------------------------------------------------
// Backend Ports
// -----------------------------------------------------------------------------

// ErrNotFound is returned by backends when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Record is the persisted form of an entity.
type Record struct {
	ID         string
	Kind       string
	Mixins     []string
	Attributes map[string]any
	State      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ListFilter narrows a backend listing.
type ListFilter struct {
	// Kind restricts results to entities of this kind (empty = all).
	Kind string

	// Mixin restricts results to entities with this mixin attached.
	Mixin string
}

// ActionResult is the backend's answer to an action invocation.
type ActionResult struct {
	// State is the resource state after the action took effect.
	State string

	// Attributes carries attribute changes caused by the action.
	Attributes map[string]any
}

// Backend provisions and tracks resources. Implementations decide what
// creation, mutation and actions actually do; callers pass records that
// already passed schema validation. Errors come back unchanged.
type Backend interface {
	// Name identifies the backend (e.g., "memory", "sqlite", "remote").
	Name() string

	// Create provisions a new resource.
	Create(ctx context.Context, rec Record) (Record, error)

	// Get retrieves a record by entity ID.
	Get(ctx context.Context, id string) (Record, error)

	// List returns records matching the filter.
	List(ctx context.Context, filter ListFilter) ([]Record, error)

	// Update replaces the stored attributes and mixins of a record.
	Update(ctx context.Context, rec Record) (Record, error)

	// Delete removes a record.
	Delete(ctx context.Context, id string) error

	// InvokeAction runs an action against a resource. The attribute map
	// has already been validated against the action's descriptors.
	InvokeAction(ctx context.Context, id string, action category.Identifier, attributes map[string]any) (ActionResult, error)

	// ExistsWithAttributeValue reports whether any record of the kind
	// already holds the value for the attribute.
	ExistsWithAttributeValue(ctx context.Context, kind category.Identifier, attribute string, value any) (bool, error)

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error
}

// CatalogueSource is implemented by backends that publish their own
// category catalogue (remote backends typically do).
type CatalogueSource interface {
	// Catalogue returns the backend's category definitions.
	Catalogue(ctx context.Context) (*category.Document, error)
}
