// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/occi/adapters/metrics"
	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/core/registry"
	"github.com/artpar/occi/ports"
	"github.com/rs/zerolog"
)

// CatalogueService loads category definitions into the registry and
// keeps them fresh. Definitions come from the embedded built-in
// catalogue, from YAML files on disk, or from a remote server.
type CatalogueService struct {
	registry *registry.Registry
	clock    ports.Clock
	metrics  *metrics.Collector
	logger   zerolog.Logger

	mu    sync.Mutex
	files []string
}

// CatalogueConfig contains configuration for CatalogueService.
type CatalogueConfig struct {
	Files        []string // Extra definition files loaded after the built-ins
	SkipBuiltins bool     // Leave out the embedded core and infrastructure catalogue
}

// NewCatalogueService creates a new catalogue service.
func NewCatalogueService(
	reg *registry.Registry,
	clock ports.Clock,
	m *metrics.Collector,
	logger zerolog.Logger,
	cfg CatalogueConfig,
) (*CatalogueService, error) {
	s := &CatalogueService{
		registry: reg,
		clock:    clock,
		metrics:  m,
		logger:   logger.With().Str("service", "catalogue").Logger(),
		files:    cfg.Files,
	}

	if !cfg.SkipBuiltins {
		doc, err := category.Builtin()
		if err != nil {
			return nil, err
		}
		if err := s.LoadDocument(doc); err != nil {
			return nil, fmt.Errorf("register builtin catalogue: %w", err)
		}
	}

	return s, nil
}

// Registry returns the underlying definition registry.
func (s *CatalogueService) Registry() *registry.Registry {
	return s.registry
}

// Load reads every configured definition file into the registry.
func (s *CatalogueService) Load(ctx context.Context) error {
	s.mu.Lock()
	files := s.files
	s.mu.Unlock()

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.LoadFile(path); err != nil {
			s.metrics.CatalogueReloadErrs.Inc()
			return err
		}
	}

	s.recordLoad()
	return nil
}

// LoadFile parses one definition file and registers its contents.
func (s *CatalogueService) LoadFile(path string) error {
	doc, err := category.ParseFile(path)
	if err != nil {
		return err
	}
	if err := s.LoadDocument(doc); err != nil {
		return fmt.Errorf("register %s: %w", path, err)
	}
	s.logger.Debug().
		Str("file", path).
		Int("kinds", len(doc.Kinds)).
		Int("mixins", len(doc.Mixins)).
		Msg("catalogue file loaded")
	return nil
}

// LoadSource pulls the full catalogue from a remote source and
// registers it. Used when the backend is a remote server, so local
// validation sees the server's definitions.
func (s *CatalogueService) LoadSource(ctx context.Context, src ports.CatalogueSource) error {
	doc, err := src.Catalogue(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalogue: %w", err)
	}
	if err := s.LoadDocument(doc); err != nil {
		return fmt.Errorf("register remote catalogue: %w", err)
	}
	s.recordLoad()
	return nil
}

// LoadDocument resolves a parsed document against the registry and
// registers the result. Already-registered references (parents,
// dependencies) may be omitted from the document itself.
func (s *CatalogueService) LoadDocument(doc *category.Document) error {
	kinds, mixins, err := doc.Resolve(s.registry)
	if err != nil {
		return err
	}
	for _, k := range kinds {
		if err := s.registry.Register(k); err != nil {
			return err
		}
	}
	for _, m := range mixins {
		if err := s.registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Reload re-reads the configured definition files. New definitions are
// added and unchanged ones are no-ops; a definition that changed in an
// incompatible way fails the reload and leaves the registry as it was.
func (s *CatalogueService) Reload(ctx context.Context) error {
	if err := s.Load(ctx); err != nil {
		s.logger.Error().Err(err).Msg("catalogue reload failed")
		return err
	}
	s.logger.Info().
		Int("definitions", s.registry.Len()).
		Msg("catalogue reloaded")
	return nil
}

// SetFiles replaces the set of definition files used by Load and
// Reload. Files already loaded stay registered.
func (s *CatalogueService) SetFiles(files []string) {
	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
}

// Definitions returns the registered definitions matching the filter,
// in registration order.
func (s *CatalogueService) Definitions(f registry.Filter) []registry.Definition {
	var defs []registry.Definition
	for def := range s.registry.List(f) {
		defs = append(defs, def)
	}
	return defs
}

// Lookup finds a single registered definition by identifier.
func (s *CatalogueService) Lookup(id category.Identifier) (registry.Definition, error) {
	return s.registry.Lookup(id.Scheme, id.Term)
}

// Unregister removes a definition that no live entity references.
func (s *CatalogueService) Unregister(id category.Identifier) error {
	return s.registry.Unregister(id.Scheme, id.Term)
}

// Export collects the registered kinds and mixins into a portable
// document. Actions travel with the definitions that declare them.
func (s *CatalogueService) Export() *category.Document {
	var kinds []*category.Kind
	for def := range s.registry.List(registry.Kinds) {
		kinds = append(kinds, def.(*category.Kind))
	}
	var mixins []*category.Mixin
	for def := range s.registry.List(registry.Mixins) {
		mixins = append(mixins, def.(*category.Mixin))
	}
	return category.NewDocument(kinds, mixins)
}

// recordLoad refreshes the catalogue gauges after a successful load.
func (s *CatalogueService) recordLoad() {
	s.metrics.CatalogueDefinitions.WithLabelValues("kind").Set(float64(s.registry.Count(registry.Kinds)))
	s.metrics.CatalogueDefinitions.WithLabelValues("mixin").Set(float64(s.registry.Count(registry.Mixins)))
	s.metrics.CatalogueDefinitions.WithLabelValues("action").Set(float64(s.registry.Count(registry.Actions)))
	s.metrics.CatalogueReloads.Inc()
	s.metrics.CatalogueLastReload.Set(float64(s.clock.Now().Unix()))
}
