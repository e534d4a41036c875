// Package http provides the REST API for the resource model: entity
// CRUD, mixin relationships, action invocation and the category
// catalogue, served as JSON:API over chi.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/artpar/occi/adapters/metrics"
	"github.com/artpar/occi/app"
	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/core/entity"
	"github.com/artpar/occi/core/registry"
	_ "github.com/artpar/occi/docs/swagger" // swagger docs
	"github.com/artpar/occi/pkg/jsonapi"
	"github.com/artpar/occi/ports"
)

// defaultPageSize is used when the request carries no page[size].
const defaultPageSize = 50

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
	Service string `json:"service" example:"occi"`
}

// EntityHandler serves the /v1/entities routes.
type EntityHandler struct {
	entities *app.EntityService
	backend  ports.Backend
	logger   zerolog.Logger
}

// NewEntityHandler creates a new entity handler. The backend is only
// consulted directly for the uniqueness probe endpoint; everything
// else goes through the service.
func NewEntityHandler(entities *app.EntityService, backend ports.Backend, logger zerolog.Logger) *EntityHandler {
	return &EntityHandler{
		entities: entities,
		backend:  backend,
		logger:   logger,
	}
}

// entityDocument is the JSON:API body accepted by Create and Update.
type entityDocument struct {
	Data struct {
		Type          string         `json:"type"`
		ID            string         `json:"id"`
		Attributes    map[string]any `json:"attributes"`
		Relationships struct {
			Mixins *struct {
				Data []jsonapi.ResourceIdentifier `json:"data"`
			} `json:"mixins"`
		} `json:"relationships"`
	} `json:"data"`
}

// relationshipDocument is the JSON:API body accepted by the
// relationship endpoints.
type relationshipDocument struct {
	Data []jsonapi.ResourceIdentifier `json:"data"`
}

// Create provisions a new entity.
//
//	@Summary		Create entity
//	@Description	Creates an entity of the given kind, validates its attributes and submits it to the backend
//	@Tags			Entities
//	@Accept			json
//	@Produce		json
//	@Success		201	"Created entity"
//	@Failure		400	{object}	jsonapi.Document	"Malformed document"
//	@Failure		409	{object}	jsonapi.Document	"Unique attribute conflict"
//	@Failure		422	{object}	jsonapi.Document	"Validation failure"
//	@Router			/v1/entities [post]
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body entityDocument
	if err := jsonapi.ReadDocument(r, &body); err != nil {
		jsonapi.WriteBadRequest(w, "invalid document: "+err.Error())
		return
	}
	if body.Data.Type == "" {
		jsonapi.WriteError(w, jsonapi.ErrValidation("missing_kind", "data.type must carry the kind identifier"))
		return
	}

	req := app.CreateRequest{
		ID:         body.Data.ID,
		Kind:       body.Data.Type,
		Attributes: body.Data.Attributes,
	}
	if m := body.Data.Relationships.Mixins; m != nil {
		for _, ref := range m.Data {
			req.Mixins = append(req.Mixins, ref.ID)
		}
	}

	inst, err := h.entities.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	jsonapi.WriteCreated(w, entityResource(inst), "/v1/entities/"+inst.Entity.ID())
}

// List returns entities, optionally filtered by kind or mixin.
//
//	@Summary		List entities
//	@Description	Lists entities with optional kind and mixin filters and JSON:API pagination
//	@Tags			Entities
//	@Produce		json
//	@Param			kind			query	string	false	"Kind identifier filter"
//	@Param			mixin			query	string	false	"Mixin identifier filter"
//	@Param			page[number]	query	int		false	"Page number"
//	@Param			page[size]		query	int		false	"Page size"
//	@Success		200	"Entity collection"
//	@Failure		422	{object}	jsonapi.Document	"Unknown kind or mixin"
//	@Router			/v1/entities [get]
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	instances, err := h.entities.List(r.Context(), app.ListOptions{
		Kind:  q.Get("kind"),
		Mixin: q.Get("mixin"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	page, perPage := jsonapi.ParsePaginationParams(q, defaultPageSize)
	p := jsonapi.NewPagination(len(instances), page, perPage, r.URL.String())

	lo, hi := p.Slice(len(instances))
	resources := make([]jsonapi.Resource, 0, hi-lo)
	for _, inst := range instances[lo:hi] {
		resources = append(resources, entityResource(inst))
	}

	jsonapi.WriteCollection(w, http.StatusOK, resources, p)
}

// Describe returns a single entity.
//
//	@Summary		Describe entity
//	@Description	Returns the entity's attributes, mixins and resource state
//	@Tags			Entities
//	@Produce		json
//	@Param			id	path	string	true	"Entity ID"
//	@Success		200	"Entity resource"
//	@Failure		404	{object}	jsonapi.Document	"Entity not found"
//	@Router			/v1/entities/{id} [get]
func (h *EntityHandler) Describe(w http.ResponseWriter, r *http.Request) {
	inst, err := h.entities.Describe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, entityResource(inst))
}

// Update applies attribute changes and, when the document carries a
// mixins relationship, reconciles attached mixins against it.
//
//	@Summary		Update entity
//	@Description	Writes the given attributes and optionally replaces the mixin set
//	@Tags			Entities
//	@Accept			json
//	@Produce		json
//	@Param			id	path	string	true	"Entity ID"
//	@Success		200	"Updated entity"
//	@Failure		404	{object}	jsonapi.Document	"Entity not found"
//	@Failure		409	{object}	jsonapi.Document	"Unique attribute conflict"
//	@Failure		422	{object}	jsonapi.Document	"Validation failure"
//	@Router			/v1/entities/{id} [patch]
func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body entityDocument
	if err := jsonapi.ReadDocument(r, &body); err != nil {
		jsonapi.WriteBadRequest(w, "invalid document: "+err.Error())
		return
	}

	inst, err := h.entities.Describe(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if m := body.Data.Relationships.Mixins; m != nil {
		inst, err = h.reconcileMixins(r.Context(), inst, m.Data)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	// Unchanged values are dropped before the write so clients may
	// PATCH their full attribute state without tripping immutability.
	if changed := changedAttributes(inst, body.Data.Attributes); len(changed) > 0 {
		inst, err = h.entities.SetAttributes(r.Context(), id, changed)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	jsonapi.WriteResource(w, http.StatusOK, entityResource(inst))
}

func changedAttributes(inst *app.Instance, attrs map[string]any) map[string]any {
	current := inst.Entity.Values()
	changed := make(map[string]any, len(attrs))
	for name, value := range attrs {
		if cur, ok := current[name]; ok && category.ValuesEqual(cur, category.Normalize(value)) {
			continue
		}
		changed[name] = value
	}
	return changed
}

// reconcileMixins attaches mixins named in want but not attached, then
// detaches attached mixins absent from want. Detach runs in reverse
// attachment order so dependency chains unwind cleanly.
func (h *EntityHandler) reconcileMixins(ctx context.Context, inst *app.Instance, want []jsonapi.ResourceIdentifier) (*app.Instance, error) {
	id := inst.Entity.ID()

	attached := make(map[string]bool)
	for _, mid := range inst.Entity.MixinIDs() {
		attached[mid.String()] = true
	}

	wanted := make(map[string]bool, len(want))
	for _, ref := range want {
		wanted[ref.ID] = true
		if attached[ref.ID] {
			continue
		}
		next, err := h.entities.AttachMixin(ctx, id, ref.ID)
		if err != nil {
			return nil, err
		}
		inst = next
	}

	current := inst.Entity.MixinIDs()
	for i := len(current) - 1; i >= 0; i-- {
		mid := current[i].String()
		if wanted[mid] {
			continue
		}
		next, err := h.entities.DetachMixin(ctx, id, mid)
		if err != nil {
			return nil, err
		}
		inst = next
	}

	return inst, nil
}

// Delete removes an entity.
//
//	@Summary		Delete entity
//	@Description	Deletes the entity from the backend and releases its definitions
//	@Tags			Entities
//	@Param			id	path	string	true	"Entity ID"
//	@Success		204	"Deleted"
//	@Failure		404	{object}	jsonapi.Document	"Entity not found"
//	@Router			/v1/entities/{id} [delete]
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.entities.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	jsonapi.WriteNoContent(w)
}

// AttachMixins adds the mixins named in the relationship document.
//
//	@Summary		Attach mixins
//	@Description	Attaches each mixin in the document to the entity
//	@Tags			Entities
//	@Accept			json
//	@Produce		json
//	@Param			id	path	string	true	"Entity ID"
//	@Success		200	"Updated mixin relationship"
//	@Failure		404	{object}	jsonapi.Document	"Entity not found"
//	@Failure		422	{object}	jsonapi.Document	"Unknown mixin or dependency failure"
//	@Router			/v1/entities/{id}/relationships/mixins [post]
func (h *EntityHandler) AttachMixins(w http.ResponseWriter, r *http.Request) {
	h.modifyMixins(w, r, h.entities.AttachMixin)
}

// DetachMixins removes the mixins named in the relationship document.
//
//	@Summary		Detach mixins
//	@Description	Detaches each mixin in the document from the entity
//	@Tags			Entities
//	@Accept			json
//	@Produce		json
//	@Param			id	path	string	true	"Entity ID"
//	@Success		200	"Updated mixin relationship"
//	@Failure		404	{object}	jsonapi.Document	"Entity not found"
//	@Failure		422	{object}	jsonapi.Document	"Mixin not attached"
//	@Router			/v1/entities/{id}/relationships/mixins [delete]
func (h *EntityHandler) DetachMixins(w http.ResponseWriter, r *http.Request) {
	h.modifyMixins(w, r, h.entities.DetachMixin)
}

func (h *EntityHandler) modifyMixins(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, string) (*app.Instance, error)) {
	id := chi.URLParam(r, "id")

	var body relationshipDocument
	if err := jsonapi.ReadDocument(r, &body); err != nil {
		jsonapi.WriteBadRequest(w, "invalid document: "+err.Error())
		return
	}

	inst, err := h.entities.Describe(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	for _, ref := range body.Data {
		inst, err = apply(r.Context(), id, ref.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	doc := jsonapi.NewDocument().Data(mixinRefs(inst.Entity.MixinIDs())).Build()
	jsonapi.WriteDocument(w, http.StatusOK, doc)
}

// Actions lists the actions applicable to the entity.
//
//	@Summary		List applicable actions
//	@Description	Returns the actions declared by the entity's kind chain and attached mixins
//	@Tags			Actions
//	@Produce		json
//	@Param			id	path	string	true	"Entity ID"
//	@Success		200	"Action collection"
//	@Failure		404	{object}	jsonapi.Document	"Entity not found"
//	@Router			/v1/entities/{id}/actions [get]
func (h *EntityHandler) Actions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.entities.ApplicableActions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resources := make([]jsonapi.Resource, 0, len(actions))
	for _, a := range actions {
		resources = append(resources, actionResource(a))
	}
	jsonapi.WriteCollection(w, http.StatusOK, resources, nil)
}

// triggerRequest is the body accepted by Trigger.
type triggerRequest struct {
	Action     string         `json:"action"`
	Attributes map[string]any `json:"attributes"`
}

// Trigger invokes an action against the entity.
//
//	@Summary		Trigger action
//	@Description	Validates the action parameters and invokes the action through the backend
//	@Tags			Actions
//	@Accept			json
//	@Produce		json
//	@Param			id	path	string	true	"Entity ID"
//	@Success		200	"Entity after the action"
//	@Failure		404	{object}	jsonapi.Document	"Entity not found"
//	@Failure		422	{object}	jsonapi.Document	"Action not applicable or parameters invalid"
//	@Router			/v1/entities/{id}/actions [post]
func (h *EntityHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var body triggerRequest
	if err := jsonapi.ReadDocument(r, &body); err != nil {
		jsonapi.WriteBadRequest(w, "invalid document: "+err.Error())
		return
	}
	if body.Action == "" {
		jsonapi.WriteError(w, jsonapi.ErrValidation("missing_action", "action must carry the action identifier"))
		return
	}

	inst, err := h.entities.Trigger(r.Context(), chi.URLParam(r, "id"), body.Action, body.Attributes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, entityResource(inst))
}

// Exists probes whether any entity of a kind holds a value for a
// unique attribute. Remote frontends use this as their uniqueness
// checker.
//
//	@Summary		Probe attribute uniqueness
//	@Description	Reports whether any entity of the kind already holds the value for the attribute
//	@Tags			Entities
//	@Produce		json
//	@Param			kind		query	string	true	"Kind identifier"
//	@Param			attribute	query	string	true	"Attribute name"
//	@Param			value		query	string	true	"Attribute value, JSON-encoded"
//	@Success		200	"meta.exists reports the probe result"
//	@Failure		400	{object}	jsonapi.Document	"Malformed kind identifier"
//	@Router			/v1/entities/exists [get]
func (h *EntityHandler) Exists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind, err := category.ParseIdentifier(q.Get("kind"))
	if err != nil {
		jsonapi.WriteBadRequest(w, err.Error())
		return
	}
	attribute := q.Get("attribute")
	if attribute == "" {
		jsonapi.WriteBadRequest(w, "attribute parameter is required")
		return
	}

	// Values travel JSON-encoded so numbers and booleans survive the
	// query string. A bare string that fails to decode is taken as-is.
	raw := q.Get("value")
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}

	exists, err := h.backend.ExistsWithAttributeValue(r.Context(), kind, attribute, value)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	jsonapi.WriteMeta(w, http.StatusOK, jsonapi.Meta{"exists": exists})
}

// CatalogueHandler serves the /v1/catalogue routes.
type CatalogueHandler struct {
	catalogue *app.CatalogueService
	logger    zerolog.Logger
}

// NewCatalogueHandler creates a new catalogue handler.
func NewCatalogueHandler(catalogue *app.CatalogueService, logger zerolog.Logger) *CatalogueHandler {
	return &CatalogueHandler{
		catalogue: catalogue,
		logger:    logger,
	}
}

// Get returns the registered catalogue as a category document.
//
//	@Summary		Export catalogue
//	@Description	Returns every registered kind and mixin as a resolvable category document
//	@Tags			Catalogue
//	@Produce		json
//	@Success		200	{object}	category.Document	"Category document"
//	@Router			/v1/catalogue [get]
func (h *CatalogueHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.catalogue.Export())
}

// Register adds the kinds and mixins of a category document to the
// catalogue.
//
//	@Summary		Register definitions
//	@Description	Resolves a category document against the registry and registers its definitions
//	@Tags			Catalogue
//	@Accept			json
//	@Produce		json
//	@Success		200	"Updated catalogue counts"
//	@Failure		400	{object}	jsonapi.Document	"Malformed document"
//	@Failure		409	{object}	jsonapi.Document	"Conflicting definition already registered"
//	@Router			/v1/catalogue [post]
func (h *CatalogueHandler) Register(w http.ResponseWriter, r *http.Request) {
	var doc category.Document
	if err := jsonapi.ReadDocument(r, &doc); err != nil {
		jsonapi.WriteBadRequest(w, "invalid document: "+err.Error())
		return
	}

	if err := h.catalogue.LoadDocument(&doc); err != nil {
		writeDomainError(w, err)
		return
	}

	reg := h.catalogue.Registry()
	jsonapi.WriteMeta(w, http.StatusOK, jsonapi.Meta{
		"kinds":   reg.Count(registry.Kinds),
		"mixins":  reg.Count(registry.Mixins),
		"actions": reg.Count(registry.Actions),
	})
}

// Unregister removes one definition from the catalogue.
//
//	@Summary		Unregister definition
//	@Description	Removes the definition unless live entities or other definitions still reference it
//	@Tags			Catalogue
//	@Produce		json
//	@Param			category	query	string	true	"Category identifier"
//	@Success		204	"Removed"
//	@Failure		404	{object}	jsonapi.Document	"Unknown category"
//	@Failure		409	{object}	jsonapi.Document	"Definition still in use"
//	@Router			/v1/catalogue [delete]
func (h *CatalogueHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	id, err := category.ParseIdentifier(r.URL.Query().Get("category"))
	if err != nil {
		jsonapi.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.catalogue.Unregister(id); err != nil {
		var unknown *registry.UnknownCategoryError
		if errors.As(err, &unknown) {
			jsonapi.WriteError(w, jsonapi.ErrNotFoundWithID("category", id.String()))
			return
		}
		writeDomainError(w, err)
		return
	}
	jsonapi.WriteNoContent(w)
}

// entityResource shapes an instance as a JSON:API resource: the kind
// identifier is the resource type, attributes carry the value map,
// mixins hang off a relationship, and the operational state rides in
// meta.
func entityResource(inst *app.Instance) jsonapi.Resource {
	e := inst.Entity
	b := jsonapi.NewResource(e.Kind().ID().String(), e.ID()).
		Attrs(e.Values()).
		Meta("state", inst.State).
		Link("/v1/entities/" + e.ID())

	if !inst.CreatedAt.IsZero() {
		b.Meta("created_at", inst.CreatedAt.UTC().Format(time.RFC3339))
	}
	if !inst.UpdatedAt.IsZero() {
		b.Meta("updated_at", inst.UpdatedAt.UTC().Format(time.RFC3339))
	}

	return b.HasMany("mixins", mixinRefs(e.MixinIDs())).Build()
}

func mixinRefs(ids []category.Identifier) []jsonapi.ResourceIdentifier {
	refs := make([]jsonapi.ResourceIdentifier, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, jsonapi.ResourceIdentifier{Type: "mixin", ID: id.String()})
	}
	return refs
}

// actionResource shapes an action definition, including its parameter
// descriptors so clients can build invocation forms.
func actionResource(a *category.Action) jsonapi.Resource {
	b := jsonapi.NewResource("action", a.ID().String())
	if a.Title != "" {
		b.Attr("title", a.Title)
	}

	if len(a.Attributes) > 0 {
		params := make(map[string]any, len(a.Attributes))
		for _, attr := range a.Attributes {
			desc := map[string]any{"type": string(attr.Type)}
			if attr.Required {
				desc["required"] = true
			}
			if attr.Range != nil {
				desc["range"] = attr.Range.String()
			}
			params[attr.Name] = desc
		}
		b.Attr("parameters", params)
	}

	return b.Build()
}

// writeDomainError maps domain errors onto JSON:API error responses.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		deleted       *entity.EntityDeletedError
		unknownCat    *registry.UnknownCategoryError
		duplicate     *registry.DuplicateCategoryError
		inUse         *registry.CategoryInUseError
		unique        *entity.UniqueConstraintViolation
		unknownAttr   *entity.UnknownAttributeError
		immutable     *entity.ImmutableAttributeError
		missing       *entity.MissingRequiredAttributeError
		typeErr       *category.AttributeTypeError
		conflict      *category.SchemaConflictError
		unrelated     *entity.UnrelatedMixinError
		dependency    *entity.MixinDependencyError
		notApplicable *entity.ActionNotApplicableError
	)

	switch {
	case errors.Is(err, ports.ErrNotFound):
		jsonapi.WriteError(w, jsonapi.ErrNotFound("entity"))
	case errors.As(err, &deleted):
		jsonapi.WriteError(w, jsonapi.ErrGone(err.Error()))
	case errors.As(err, &unknownCat):
		jsonapi.WriteError(w, jsonapi.ErrValidation("unknown_category", err.Error()))
	case errors.As(err, &duplicate):
		jsonapi.WriteError(w, jsonapi.ErrConflict("duplicate_category", err.Error()))
	case errors.As(err, &inUse):
		jsonapi.WriteError(w, jsonapi.ErrConflict("category_in_use", err.Error()))
	case errors.As(err, &unique):
		jsonapi.WriteError(w, jsonapi.ErrConflict("unique_constraint", err.Error()))
	case errors.As(err, &unknownAttr):
		jsonapi.WriteError(w, jsonapi.ErrValidationAttr("unknown_attribute", unknownAttr.Name, err.Error()))
	case errors.As(err, &immutable):
		jsonapi.WriteError(w, jsonapi.ErrValidationAttr("immutable_attribute", immutable.Name, err.Error()))
	case errors.As(err, &typeErr):
		jsonapi.WriteError(w, jsonapi.ErrValidationAttr("type_mismatch", typeErr.Name, err.Error()))
	case errors.As(err, &missing):
		jsonapi.WriteError(w, jsonapi.ErrValidation("missing_required", err.Error()))
	case errors.As(err, &conflict):
		jsonapi.WriteError(w, jsonapi.ErrValidation("schema_conflict", err.Error()))
	case errors.As(err, &unrelated):
		jsonapi.WriteError(w, jsonapi.ErrValidation("mixin_not_attached", err.Error()))
	case errors.As(err, &dependency):
		jsonapi.WriteError(w, jsonapi.ErrValidation("mixin_dependency", err.Error()))
	case errors.As(err, &notApplicable):
		jsonapi.WriteError(w, jsonapi.ErrValidation("action_not_applicable", err.Error()))
	default:
		jsonapi.WriteError(w, jsonapi.ErrInternal(err.Error()))
	}
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	backend HealthChecker
}

// HealthChecker interface for checking backend health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(backend HealthChecker) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// Liveness returns a simple liveness check.
//
//	@Summary		Liveness check
//	@Description	Returns OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	map[string]string	"status: ok"
//	@Router			/health [get]
//	@Router			/health/live [get]
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readiness checks if the service is ready to handle traffic.
//
//	@Summary		Readiness check
//	@Description	Checks if the service and backend are ready to handle traffic
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	map[string]string		"status: ok"
//	@Failure		503	{object}	map[string]interface{}	"status: unhealthy, error: message"
//	@Router			/health/ready [get]
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.backend != nil {
		if err := h.backend.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Version returns the service version.
//
//	@Summary		Get service version
//	@Description	Returns the version information for the OCCI service
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	VersionResponse	"Version information"
//	@Router			/version [get]
func Version(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(VersionResponse{
		Version: "dev",
		Service: "occi",
	})
}

// BasicAuth guards the /v1 routes with a username and hashed password.
type BasicAuth struct {
	Username string
	Password []byte
	Hasher   ports.Hasher
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics       *metrics.Collector
	EnableOpenAPI bool
	BasicAuth     *BasicAuth
}

// NewRouter creates the main HTTP router.
func NewRouter(entities *EntityHandler, catalogue *CatalogueHandler, health *HealthHandler, logger zerolog.Logger) chi.Router {
	return NewRouterWithConfig(entities, catalogue, health, logger, RouterConfig{})
}

// NewRouterWithConfig creates the main HTTP router with optional config.
func NewRouterWithConfig(entities *EntityHandler, catalogue *CatalogueHandler, health *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Metrics middleware (if enabled)
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	// Health endpoints (no auth required)
	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Metrics endpoint
	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	// OpenAPI/Swagger endpoints (if enabled)
	if cfg.EnableOpenAPI {
		r.Get("/.well-known/openapi.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Access-Control-Allow-Origin", "*")
			http.ServeFile(w, r, "docs/swagger/swagger.json")
		})
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/.well-known/openapi.json"),
		))
	}

	// Version endpoint
	r.Get("/version", Version)

	r.Route("/v1", func(r chi.Router) {
		if cfg.BasicAuth != nil {
			r.Use(NewBasicAuthMiddleware(cfg.BasicAuth))
		}

		r.Route("/entities", func(r chi.Router) {
			r.Get("/", entities.List)
			r.Post("/", entities.Create)
			r.Get("/exists", entities.Exists)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", entities.Describe)
				r.Patch("/", entities.Update)
				r.Delete("/", entities.Delete)
				r.Get("/actions", entities.Actions)
				r.Post("/actions", entities.Trigger)
				r.Post("/relationships/mixins", entities.AttachMixins)
				r.Delete("/relationships/mixins", entities.DetachMixins)
			})
		})

		r.Route("/catalogue", func(r chi.Router) {
			r.Get("/", catalogue.Get)
			r.Post("/", catalogue.Register)
			r.Delete("/", catalogue.Unregister)
		})
	})

	return r
}

// NewBasicAuthMiddleware creates middleware that rejects requests
// without valid basic auth credentials.
func NewBasicAuthMiddleware(auth *BasicAuth) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != auth.Username || !auth.Hasher.Compare(auth.Password, pass) {
				w.Header().Set("WWW-Authenticate", `Basic realm="occi"`)
				jsonapi.WriteUnauthorized(w, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewMetricsMiddleware creates middleware that records request metrics.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" ||
				strings.HasPrefix(r.URL.Path, "/swagger") || strings.HasPrefix(r.URL.Path, "/.well-known") {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := statusLabel(ww.Status())
			path := metrics.NormalizePath(r.URL.Path)

			m.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
		})
	}
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
