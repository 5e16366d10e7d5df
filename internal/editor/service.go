package editor

import (
	"context"
	"time"

	"quiltcore/internal/infra/persistence/memory"
	"quiltcore/pkg/design"
)

// Service exposes transactional CRUD over stored designs, wrapped with the
// logging, audit, metrics, and tracing hooks configured at construction. It
// also opens editing sessions over stored documents.
type Service struct {
	store   PersistentStore
	clock   Clock
	now     func() time.Time
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	idGen   func() string
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		idGen:   defaultIDGenerator,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.now = selectNowFunc(store, s.clock)
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store. A nil
// engine gets the default rule set.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(NewMemoryStore(engine), opts...)
}

// NewMemoryStore constructs the in-memory storage backend.
func NewMemoryStore(engine *RulesEngine) *memory.Store {
	return memory.NewStore(engine)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// NewBlockEditor opens an editing session over the stored block design,
// inheriting the service's logger and id generator. The session is detached:
// write it back with UpdateBlockDesign when done.
func (s *Service) NewBlockEditor(ctx context.Context, id string) (*BlockEditor, bool) {
	record, ok := s.store.GetBlockDesign(id)
	if !ok {
		return nil, false
	}
	_ = ctx
	return NewBlockEditor(record.Document,
		WithEditorLogger(s.logger),
		WithEditorIDGenerator(s.idGen),
	), true
}

// NewPatternEditor opens an editing session over the stored pattern design.
func (s *Service) NewPatternEditor(ctx context.Context, id string) (*PatternEditor, bool) {
	record, ok := s.store.GetPatternDesign(id)
	if !ok {
		return nil, false
	}
	_ = ctx
	return NewPatternEditor(record.Document,
		WithEditorLogger(s.logger),
		WithEditorIDGenerator(s.idGen),
	), true
}

// CreateBlockDesign persists a new block design.
func (s *Service) CreateBlockDesign(ctx context.Context, record BlockDesign) (BlockDesign, Result, error) {
	var created BlockDesign
	res, err := s.run(ctx, "create_block_design", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateBlockDesign(record)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// UpdateBlockDesign mutates a stored block design using the provided mutator.
func (s *Service) UpdateBlockDesign(ctx context.Context, id string, mutator func(*BlockDesign) error) (BlockDesign, Result, error) {
	var updated BlockDesign
	res, err := s.run(ctx, "update_block_design", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateBlockDesign(id, mutator)
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// DeleteBlockDesign removes a stored block design. Deletion fails while any
// pattern still places the block.
func (s *Service) DeleteBlockDesign(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_block_design", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteBlockDesign(id)
		})
		return id, res, err
	})
}

// CreatePatternDesign persists a new pattern design.
func (s *Service) CreatePatternDesign(ctx context.Context, record PatternDesign) (PatternDesign, Result, error) {
	var created PatternDesign
	res, err := s.run(ctx, "create_pattern_design", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreatePatternDesign(record)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// UpdatePatternDesign mutates a stored pattern design.
func (s *Service) UpdatePatternDesign(ctx context.Context, id string, mutator func(*PatternDesign) error) (PatternDesign, Result, error) {
	var updated PatternDesign
	res, err := s.run(ctx, "update_pattern_design", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdatePatternDesign(id, mutator)
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// DeletePatternDesign removes a stored pattern design.
func (s *Service) DeletePatternDesign(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_pattern_design", func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeletePatternDesign(id)
		})
		return id, res, err
	})
}

// GetBlockDesign fetches a stored block design by id.
func (s *Service) GetBlockDesign(_ context.Context, id string) (BlockDesign, bool) {
	return s.store.GetBlockDesign(id)
}

// ListBlockDesigns returns all stored block designs.
func (s *Service) ListBlockDesigns(_ context.Context) []BlockDesign {
	return s.store.ListBlockDesigns()
}

// GetPatternDesign fetches a stored pattern design by id.
func (s *Service) GetPatternDesign(_ context.Context, id string) (PatternDesign, bool) {
	return s.store.GetPatternDesign(id)
}

// ListPatternDesigns returns all stored pattern designs.
func (s *Service) ListPatternDesigns(_ context.Context) []PatternDesign {
	return s.store.ListPatternDesigns()
}

// run wraps one catalogued operation with tracing, timing, metrics, logging,
// and audit recording. fn returns the id of the entity the operation touched,
// which feeds the audit entry.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) (string, Result, error)) (Result, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, op)
	s.logger.Debug("service operation started", "operation", op)
	entityID, res, err := fn(ctx)
	duration := s.now().Sub(start)
	s.metrics.Observe(ctx, op, err == nil, duration)
	span.End(err)
	if err != nil {
		s.logger.Error("service operation failed", "operation", op, "error", err)
		s.recordAuditError(ctx, op, entityID, duration, err)
		return res, err
	}
	s.logger.Debug("service operation completed", "operation", op, "duration_ms", duration.Milliseconds())
	s.recordAuditSuccess(ctx, op, entityID, duration)
	return res, err
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	descriptor, ok := auditCatalog[op]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    descriptor.entity,
		Action:    descriptor.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.now(),
	})
}

func (s *Service) recordAuditError(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	descriptor, ok := auditCatalog[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    descriptor.entity,
		Action:    descriptor.action,
		EntityID:  entityID,
		Status:    AuditStatusError,
		Duration:  duration,
		Timestamp: s.now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

// selectNowFunc resolves the service time source: a store that carries its
// own clock wins so audit timestamps agree with persisted record timestamps,
// then an explicit clock option, then system UTC.
func selectNowFunc(store PersistentStore, clock Clock) func() time.Time {
	if provider, ok := store.(interface{ NowFunc() func() time.Time }); ok {
		if fn := provider.NowFunc(); fn != nil {
			return func() time.Time { return fn().UTC() }
		}
	}
	if clock != nil {
		return func() time.Time { return clock.Now() }
	}
	return func() time.Time { return time.Now().UTC() }
}

// extractRulesEngine surfaces the engine from stores that expose one, so
// callers can register additional rules after construction.
func extractRulesEngine(store PersistentStore) *RulesEngine {
	if provider, ok := store.(interface{ RulesEngine() *design.RulesEngine }); ok {
		return provider.RulesEngine()
	}
	return nil
}

// RulesEngine returns the engine behind the service's store, or nil when the
// backend does not expose one.
func (s *Service) RulesEngine() *RulesEngine {
	return extractRulesEngine(s.store)
}
