package app

import (
	"context"
	"sort"
	"time"

	"github.com/artpar/occi/adapters/metrics"
	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/core/entity"
	"github.com/artpar/occi/core/registry"
	"github.com/artpar/occi/ports"
	"github.com/rs/zerolog"
)

// EntityService orchestrates the entity lifecycle: it resolves
// definitions from the registry, runs validation in the core, and
// persists records through the backend.
type EntityService struct {
	registry *registry.Registry
	backend  ports.Backend
	clock    ports.Clock
	idGen    ports.IDGenerator
	metrics  *metrics.Collector
	logger   zerolog.Logger
}

// EntityDeps contains dependencies for EntityService.
type EntityDeps struct {
	Registry *registry.Registry
	Backend  ports.Backend
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  *metrics.Collector
	Logger   zerolog.Logger
}

// NewEntityService creates a new entity service.
func NewEntityService(deps EntityDeps) *EntityService {
	return &EntityService{
		registry: deps.Registry,
		backend:  deps.Backend,
		clock:    deps.Clock,
		idGen:    deps.IDGen,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With().Str("service", "entity").Logger(),
	}
}

// Instance is a live entity together with its backend record state.
// Entity carries the validated attribute map; State is the operational
// state the backend reports, which actions move.
type Instance struct {
	Entity    *entity.Entity
	State     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateRequest describes a new entity.
type CreateRequest struct {
	ID         string         // Generated when empty
	Kind       string         // Full scheme#term identifier
	Mixins     []string       // Full identifiers, in attachment order
	Attributes map[string]any // Initial attribute values
}

// ListOptions narrows a List call. Empty fields match everything.
type ListOptions struct {
	Kind  string // Full kind identifier
	Mixin string // Full mixin identifier
}

// Create builds, validates and persists a new entity.
func (s *EntityService) Create(ctx context.Context, req CreateRequest) (*Instance, error) {
	kind, err := s.resolveKind(req.Kind)
	if err != nil {
		s.countOp("create", "", "error")
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = s.idGen.New()
	}

	e, err := entity.New(id, kind, entity.WithUniquenessChecker(s.backend))
	if err != nil {
		s.countOp("create", kind.Term, "error")
		return nil, err
	}

	mixins := make([]*category.Mixin, 0, len(req.Mixins))
	for _, raw := range req.Mixins {
		m, err := s.resolveMixin(raw)
		if err != nil {
			s.countOp("create", kind.Term, "error")
			return nil, err
		}
		if err := e.Attach(m); err != nil {
			s.countOp("create", kind.Term, "error")
			return nil, err
		}
		mixins = append(mixins, m)
	}

	// Sorted writes keep validation failures deterministic.
	for _, name := range sortedKeys(req.Attributes) {
		if err := e.Set(ctx, name, req.Attributes[name]); err != nil {
			s.metrics.ValidationFailures.WithLabelValues("attribute").Inc()
			s.countOp("create", kind.Term, "invalid")
			return nil, err
		}
	}

	if err := e.ValidateForSubmission(); err != nil {
		s.metrics.ValidationFailures.WithLabelValues("submission").Inc()
		s.countOp("create", kind.Term, "invalid")
		return nil, err
	}

	// Live entities pin their definitions in the registry.
	refs := definitionRefs(kind, mixins)
	if err := s.registry.Acquire(refs...); err != nil {
		s.countOp("create", kind.Term, "error")
		return nil, err
	}

	if err := e.MarkSubmitted(); err != nil {
		s.registry.Release(refs...)
		s.countOp("create", kind.Term, "error")
		return nil, err
	}

	rec := ports.Record{
		ID:         e.ID(),
		Kind:       kind.ID().String(),
		Mixins:     identifierStrings(e.MixinIDs()),
		Attributes: e.Values(),
	}
	created, err := s.createRecord(ctx, rec)
	if err != nil {
		s.registry.Release(refs...)
		s.countOp("create", kind.Term, "error")
		return nil, err
	}

	if err := e.MarkActive(); err != nil {
		s.countOp("create", kind.Term, "error")
		return nil, err
	}

	s.metrics.EntitiesLive.WithLabelValues(kind.Term).Inc()
	s.countOp("create", kind.Term, "ok")
	s.logger.Info().
		Str("entity", e.ID()).
		Str("kind", kind.ID().String()).
		Int("mixins", len(mixins)).
		Msg("entity created")

	return &Instance{
		Entity:    e,
		State:     created.State,
		CreatedAt: created.CreatedAt,
		UpdatedAt: created.UpdatedAt,
	}, nil
}

// Describe loads one entity by id.
func (s *EntityService) Describe(ctx context.Context, id string) (*Instance, error) {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.restore(rec)
}

// List loads the entities matching the options, in creation order.
// Records whose definitions have left the catalogue are skipped with a
// warning rather than failing the whole listing.
func (s *EntityService) List(ctx context.Context, opts ListOptions) ([]*Instance, error) {
	if opts.Kind != "" {
		if _, err := s.resolveKind(opts.Kind); err != nil {
			return nil, err
		}
	}
	if opts.Mixin != "" {
		if _, err := s.resolveMixin(opts.Mixin); err != nil {
			return nil, err
		}
	}

	recs, err := s.listRecords(ctx, ports.ListFilter{Kind: opts.Kind, Mixin: opts.Mixin})
	if err != nil {
		return nil, err
	}

	out := make([]*Instance, 0, len(recs))
	for _, rec := range recs {
		inst, err := s.restore(rec)
		if err != nil {
			s.logger.Warn().
				Str("entity", rec.ID).
				Str("kind", rec.Kind).
				Err(err).
				Msg("skipping unrestorable record")
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

// SetAttributes writes attribute values on an existing entity and
// persists the result. Immutable attributes reject the write.
func (s *EntityService) SetAttributes(ctx context.Context, id string, attrs map[string]any) (*Instance, error) {
	inst, err := s.Describe(ctx, id)
	if err != nil {
		s.countOp("update", "", "error")
		return nil, err
	}
	kindTerm := inst.Entity.Kind().Term

	for _, name := range sortedKeys(attrs) {
		if err := inst.Entity.Set(ctx, name, attrs[name]); err != nil {
			s.metrics.ValidationFailures.WithLabelValues("attribute").Inc()
			s.countOp("update", kindTerm, "invalid")
			return nil, err
		}
	}

	return s.persist(ctx, inst, "update")
}

// AttachMixin adds a mixin to an existing entity and persists the
// result. The mixin's definitions are pinned for the entity's lifetime.
func (s *EntityService) AttachMixin(ctx context.Context, id, mixinID string) (*Instance, error) {
	inst, err := s.Describe(ctx, id)
	if err != nil {
		s.countOp("mixin_attach", "", "error")
		return nil, err
	}
	kindTerm := inst.Entity.Kind().Term

	m, err := s.resolveMixin(mixinID)
	if err != nil {
		s.countOp("mixin_attach", kindTerm, "error")
		return nil, err
	}

	already := len(inst.Entity.MixinIDs())
	if err := inst.Entity.Attach(m); err != nil {
		s.metrics.ValidationFailures.WithLabelValues("mixin").Inc()
		s.countOp("mixin_attach", kindTerm, "invalid")
		return nil, err
	}

	// Attach is a no-op for an already-attached mixin; only new
	// attachments take a registry reference.
	acquired := false
	if len(inst.Entity.MixinIDs()) > already {
		if err := s.registry.Acquire(m.ID()); err != nil {
			s.countOp("mixin_attach", kindTerm, "error")
			return nil, err
		}
		acquired = true
	}

	out, err := s.persist(ctx, inst, "mixin_attach")
	if err != nil {
		if acquired {
			s.registry.Release(m.ID())
		}
		return nil, err
	}
	return out, nil
}

// DetachMixin removes a mixin from an existing entity and persists the
// result. Values contributed solely by the mixin are dropped.
func (s *EntityService) DetachMixin(ctx context.Context, id, mixinID string) (*Instance, error) {
	inst, err := s.Describe(ctx, id)
	if err != nil {
		s.countOp("mixin_detach", "", "error")
		return nil, err
	}
	kindTerm := inst.Entity.Kind().Term

	m, err := s.resolveMixin(mixinID)
	if err != nil {
		s.countOp("mixin_detach", kindTerm, "error")
		return nil, err
	}

	if err := inst.Entity.Detach(m); err != nil {
		s.metrics.ValidationFailures.WithLabelValues("mixin").Inc()
		s.countOp("mixin_detach", kindTerm, "invalid")
		return nil, err
	}

	out, err := s.persist(ctx, inst, "mixin_detach")
	if err != nil {
		return nil, err
	}
	s.registry.Release(m.ID())
	return out, nil
}

// Trigger validates and invokes an action on an entity. The action
// must be applicable through the entity's kind chain or an attached
// mixin; invocation attributes are validated against the action's
// declared parameters with defaults filled in.
func (s *EntityService) Trigger(ctx context.Context, id, actionID string, attrs map[string]any) (*Instance, error) {
	inst, err := s.Describe(ctx, id)
	if err != nil {
		return nil, err
	}
	e := inst.Entity

	aid, err := category.ParseIdentifier(actionID)
	if err != nil {
		return nil, err
	}
	action, ok := e.Schema().Action(aid)
	if !ok {
		// Resolve the declared action for a precise error; an action
		// nobody declares is simply unknown.
		if act, lookupErr := s.registry.LookupAction(aid.Scheme, aid.Term); lookupErr == nil {
			_, err := e.ValidateAction(act, attrs)
			s.metrics.ActionInvocations.WithLabelValues(aid.Term, "rejected").Inc()
			return nil, err
		}
		s.metrics.ActionInvocations.WithLabelValues(aid.Term, "rejected").Inc()
		return nil, &registry.UnknownCategoryError{ID: aid, Flavor: "action"}
	}

	merged, err := e.ValidateAction(action, attrs)
	if err != nil {
		s.metrics.ValidationFailures.WithLabelValues("action").Inc()
		s.metrics.ActionInvocations.WithLabelValues(aid.Term, "rejected").Inc()
		return nil, err
	}

	start := s.clock.Now()
	result, err := s.backend.InvokeAction(ctx, id, aid, merged)
	s.observeBackend("invoke_action", start, err)
	if err != nil {
		s.metrics.ActionInvocations.WithLabelValues(aid.Term, "error").Inc()
		return nil, err
	}
	s.metrics.ActionInvocations.WithLabelValues(aid.Term, "ok").Inc()

	s.logger.Info().
		Str("entity", id).
		Str("action", aid.String()).
		Str("state", result.State).
		Msg("action invoked")

	// The backend persisted the transition; reload to pick up the
	// attribute changes it made.
	return s.Describe(ctx, id)
}

// Delete removes an entity and releases its definition references.
func (s *EntityService) Delete(ctx context.Context, id string) error {
	inst, err := s.Describe(ctx, id)
	if err != nil {
		s.countOp("delete", "", "error")
		return err
	}
	kind := inst.Entity.Kind()
	refs := definitionRefs(kind, inst.Entity.Mixins())

	start := s.clock.Now()
	err = s.backend.Delete(ctx, id)
	s.observeBackend("delete", start, err)
	if err != nil {
		s.countOp("delete", kind.Term, "error")
		return err
	}

	inst.Entity.MarkDeleted()
	s.registry.Release(refs...)
	s.metrics.EntitiesLive.WithLabelValues(kind.Term).Dec()
	s.countOp("delete", kind.Term, "ok")
	s.logger.Info().
		Str("entity", id).
		Str("kind", kind.ID().String()).
		Msg("entity deleted")
	return nil
}

// ApplicableActions lists the actions an entity can currently trigger.
func (s *EntityService) ApplicableActions(ctx context.Context, id string) ([]*category.Action, error) {
	inst, err := s.Describe(ctx, id)
	if err != nil {
		return nil, err
	}
	return inst.Entity.ApplicableActions(), nil
}

// persist writes the entity's current values back to the backend.
func (s *EntityService) persist(ctx context.Context, inst *Instance, op string) (*Instance, error) {
	e := inst.Entity
	kindTerm := e.Kind().Term

	rec := ports.Record{
		ID:         e.ID(),
		Kind:       e.Kind().ID().String(),
		Mixins:     identifierStrings(e.MixinIDs()),
		Attributes: e.Values(),
		State:      inst.State,
	}

	start := s.clock.Now()
	updated, err := s.backend.Update(ctx, rec)
	s.observeBackend("update", start, err)
	if err != nil {
		s.countOp(op, kindTerm, "error")
		return nil, err
	}

	s.countOp(op, kindTerm, "ok")
	return &Instance{
		Entity:    e,
		State:     updated.State,
		CreatedAt: updated.CreatedAt,
		UpdatedAt: updated.UpdatedAt,
	}, nil
}

// restore rebuilds a validated entity from a backend record.
func (s *EntityService) restore(rec ports.Record) (*Instance, error) {
	kindID, err := category.ParseIdentifier(rec.Kind)
	if err != nil {
		return nil, err
	}
	kind, ok := s.registry.ResolveKind(kindID)
	if !ok {
		return nil, &registry.UnknownCategoryError{ID: kindID, Flavor: "kind"}
	}

	mixins := make([]*category.Mixin, 0, len(rec.Mixins))
	for _, raw := range rec.Mixins {
		mid, err := category.ParseIdentifier(raw)
		if err != nil {
			return nil, err
		}
		m, ok := s.registry.ResolveMixin(mid)
		if !ok {
			return nil, &registry.UnknownCategoryError{ID: mid, Flavor: "mixin"}
		}
		mixins = append(mixins, m)
	}

	e, err := entity.Restore(rec.ID, kind, mixins, rec.Attributes, entity.WithUniquenessChecker(s.backend))
	if err != nil {
		return nil, err
	}
	return &Instance{
		Entity:    e,
		State:     rec.State,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (s *EntityService) resolveKind(raw string) (*category.Kind, error) {
	id, err := category.ParseIdentifier(raw)
	if err != nil {
		return nil, err
	}
	kind, ok := s.registry.ResolveKind(id)
	if !ok {
		return nil, &registry.UnknownCategoryError{ID: id, Flavor: "kind"}
	}
	return kind, nil
}

func (s *EntityService) resolveMixin(raw string) (*category.Mixin, error) {
	id, err := category.ParseIdentifier(raw)
	if err != nil {
		return nil, err
	}
	m, ok := s.registry.ResolveMixin(id)
	if !ok {
		return nil, &registry.UnknownCategoryError{ID: id, Flavor: "mixin"}
	}
	return m, nil
}

func (s *EntityService) createRecord(ctx context.Context, rec ports.Record) (ports.Record, error) {
	start := s.clock.Now()
	created, err := s.backend.Create(ctx, rec)
	s.observeBackend("create", start, err)
	return created, err
}

func (s *EntityService) getRecord(ctx context.Context, id string) (ports.Record, error) {
	start := s.clock.Now()
	rec, err := s.backend.Get(ctx, id)
	s.observeBackend("get", start, err)
	return rec, err
}

func (s *EntityService) listRecords(ctx context.Context, f ports.ListFilter) ([]ports.Record, error) {
	start := s.clock.Now()
	recs, err := s.backend.List(ctx, f)
	s.observeBackend("list", start, err)
	return recs, err
}

// observeBackend records backend call duration and failures.
func (s *EntityService) observeBackend(op string, start time.Time, err error) {
	s.metrics.BackendDuration.WithLabelValues(s.backend.Name(), op).
		Observe(s.clock.Now().Sub(start).Seconds())
	if err != nil {
		s.metrics.BackendErrors.WithLabelValues(s.backend.Name(), op).Inc()
	}
}

// countOp labels entity operations with the kind term rather than the
// full identifier, keeping metric cardinality bounded by the catalogue.
func (s *EntityService) countOp(op, kindTerm, outcome string) {
	if kindTerm == "" {
		kindTerm = "unknown"
	}
	s.metrics.EntityOps.WithLabelValues(op, kindTerm, outcome).Inc()
}

// definitionRefs collects the identifiers a live entity pins.
func definitionRefs(kind *category.Kind, mixins []*category.Mixin) []category.Identifier {
	refs := make([]category.Identifier, 0, 1+len(mixins))
	refs = append(refs, kind.ID())
	for _, m := range mixins {
		refs = append(refs, m.ID())
	}
	return refs
}

func identifierStrings(ids []category.Identifier) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
