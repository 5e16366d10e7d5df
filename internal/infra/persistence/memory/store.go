// Package memory provides an in-memory implementation of the design
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"quiltcore/pkg/design"
)

// Compile-time contract assertion ensuring memory.Store adheres to the design persistence interface.
var _ design.PersistentStore = (*Store)(nil)

type (
	// BlockDesign aliases design.BlockDesign for in-memory persistence operations.
	BlockDesign = design.BlockDesign
	// PatternDesign aliases design.PatternDesign.
	PatternDesign = design.PatternDesign
	// Change aliases design.Change captured in transactions.
	Change = design.Change
	// Result aliases design.Result summarizing rule evaluation.
	Result = design.Result
	// RulesEngine aliases design.RulesEngine used to evaluate rules.
	RulesEngine = design.RulesEngine
	// Transaction aliases design.Transaction representing a mutable unit of work.
	Transaction = design.Transaction
	// TransactionView aliases design.TransactionView providing read-only state.
	TransactionView = design.TransactionView
	// PersistentStore aliases design.PersistentStore abstraction.
	PersistentStore = design.PersistentStore
)

type memoryState struct {
	blocks   map[string]BlockDesign
	patterns map[string]PatternDesign
}

// Snapshot captures a point-in-time clone of the store state. SchemaVersion
// records the document schema the snapshot was written under so imports can
// migrate older payloads forward.
type Snapshot struct {
	SchemaVersion int                      `json:"schema_version"`
	Blocks        map[string]BlockDesign   `json:"blocks"`
	Patterns      map[string]PatternDesign `json:"patterns"`
}

func newMemoryState() memoryState {
	return memoryState{
		blocks:   make(map[string]BlockDesign),
		patterns: make(map[string]PatternDesign),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	snapshot := Snapshot{
		SchemaVersion: design.SchemaVersion,
		Blocks:        make(map[string]BlockDesign, len(state.blocks)),
		Patterns:      make(map[string]PatternDesign, len(state.patterns)),
	}
	for k, v := range state.blocks {
		snapshot.Blocks[k] = cloneBlockDesign(v)
	}
	for k, v := range state.patterns {
		snapshot.Patterns[k] = clonePatternDesign(v)
	}
	return snapshot
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Blocks {
		state.blocks[k] = cloneBlockDesign(v)
	}
	for k, v := range s.Patterns {
		state.patterns[k] = clonePatternDesign(v)
	}
	return state
}

// migrateSnapshot normalizes an imported snapshot: nil maps become empty,
// records recover their map key as id when the payload predates explicit ids,
// and documents gain defaults for fields newer than the snapshot's schema
// version. Migration is additive only; dangling references are surfaced by
// the rules engine on the next transaction rather than dropped here.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Blocks == nil {
		snapshot.Blocks = map[string]BlockDesign{}
	}
	if snapshot.Patterns == nil {
		snapshot.Patterns = map[string]PatternDesign{}
	}
	version := snapshot.SchemaVersion
	for id, record := range snapshot.Blocks {
		if record.ID == "" {
			record.ID = id
		}
		record.Document = design.MigrateBlockDocument(record.Document, version)
		snapshot.Blocks[id] = record
	}
	for id, record := range snapshot.Patterns {
		if record.ID == "" {
			record.ID = id
		}
		record.Document = design.MigratePatternDocument(record.Document, version)
		snapshot.Patterns[id] = record
	}
	snapshot.SchemaVersion = design.SchemaVersion
	return snapshot
}

func (s memoryState) clone() memoryState {
	out := newMemoryState()
	for k, v := range s.blocks {
		out.blocks[k] = cloneBlockDesign(v)
	}
	for k, v := range s.patterns {
		out.patterns[k] = clonePatternDesign(v)
	}
	return out
}

func cloneBlockDesign(b BlockDesign) BlockDesign {
	out := b
	out.Document = design.CloneBlockDocument(b.Document)
	return out
}

func clonePatternDesign(p PatternDesign) PatternDesign {
	out := p
	out.Document = design.ClonePatternDocument(p.Document)
	return out
}

// Store is the in-memory persistence backend. All access is serialized
// through its mutex; transactions operate on a cloned state that replaces the
// live one only after rule evaluation passes.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = design.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListBlockDesigns returns all block designs within the transaction snapshot.
func (v transactionView) ListBlockDesigns() []BlockDesign {
	out := make([]BlockDesign, 0, len(v.state.blocks))
	for _, b := range v.state.blocks {
		out = append(out, cloneBlockDesign(b))
	}
	return out
}

// ListPatternDesigns returns all pattern designs within the transaction snapshot.
func (v transactionView) ListPatternDesigns() []PatternDesign {
	out := make([]PatternDesign, 0, len(v.state.patterns))
	for _, p := range v.state.patterns {
		out = append(out, clonePatternDesign(p))
	}
	return out
}

// FindBlockDesign retrieves a block design by ID from the snapshot.
func (v transactionView) FindBlockDesign(id string) (BlockDesign, bool) {
	b, ok := v.state.blocks[id]
	if !ok {
		return BlockDesign{}, false
	}
	return cloneBlockDesign(b), true
}

// FindPatternDesign retrieves a pattern design by ID from the snapshot.
func (v transactionView) FindPatternDesign(id string) (PatternDesign, bool) {
	p, ok := v.state.patterns[id]
	if !ok {
		return PatternDesign{}, false
	}
	return clonePatternDesign(p), true
}

// RunInTransaction executes fn against a cloned state, evaluates the rules
// engine over the outcome, and commits only when no blocking violations are
// present.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, design.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindBlockDesign exposes block design lookup within the transaction scope.
func (tx *transaction) FindBlockDesign(id string) (BlockDesign, bool) {
	b, ok := tx.state.blocks[id]
	if !ok {
		return BlockDesign{}, false
	}
	return cloneBlockDesign(b), true
}

// FindPatternDesign exposes pattern design lookup within the transaction scope.
func (tx *transaction) FindPatternDesign(id string) (PatternDesign, bool) {
	p, ok := tx.state.patterns[id]
	if !ok {
		return PatternDesign{}, false
	}
	return clonePatternDesign(p), true
}

// CreateBlockDesign stores a new block design within the transaction. The
// document is normalized so zero-valued size and palette fields receive
// defaults before the record is persisted.
func (tx *transaction) CreateBlockDesign(b BlockDesign) (BlockDesign, error) {
	if b.ID == "" {
		b.ID = tx.store.newID()
	}
	if _, exists := tx.state.blocks[b.ID]; exists {
		return BlockDesign{}, fmt.Errorf("block design %q already exists", b.ID)
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	b.Document = design.MigrateBlockDocument(b.Document, design.SchemaVersion)
	tx.state.blocks[b.ID] = cloneBlockDesign(b)
	tx.recordChange(Change{Entity: design.EntityBlockDesign, Action: design.ActionCreate, After: cloneBlockDesign(b)})
	return cloneBlockDesign(b), nil
}

// UpdateBlockDesign mutates a block design using the provided mutator function.
func (tx *transaction) UpdateBlockDesign(id string, mutator func(*BlockDesign) error) (BlockDesign, error) {
	current, ok := tx.state.blocks[id]
	if !ok {
		return BlockDesign{}, design.ErrNotFound{Entity: design.EntityBlockDesign, ID: id}
	}
	before := cloneBlockDesign(current)
	if err := mutator(&current); err != nil {
		return BlockDesign{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	current.Document = design.MigrateBlockDocument(current.Document, design.SchemaVersion)
	tx.state.blocks[id] = cloneBlockDesign(current)
	tx.recordChange(Change{Entity: design.EntityBlockDesign, Action: design.ActionUpdate, Before: before, After: cloneBlockDesign(current)})
	return cloneBlockDesign(current), nil
}

// DeleteBlockDesign removes a block design from the transaction state. A
// block still placed by any pattern cannot be deleted.
func (tx *transaction) DeleteBlockDesign(id string) error {
	current, ok := tx.state.blocks[id]
	if !ok {
		return design.ErrNotFound{Entity: design.EntityBlockDesign, ID: id}
	}
	for _, pattern := range tx.state.patterns {
		for _, instance := range pattern.Document.Instances {
			if instance.BlockID == id {
				return fmt.Errorf("block design %q still referenced by pattern design %q", id, pattern.ID)
			}
		}
	}
	delete(tx.state.blocks, id)
	tx.recordChange(Change{Entity: design.EntityBlockDesign, Action: design.ActionDelete, Before: cloneBlockDesign(current)})
	return nil
}

// CreatePatternDesign stores a new pattern design within the transaction.
func (tx *transaction) CreatePatternDesign(p PatternDesign) (PatternDesign, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.patterns[p.ID]; exists {
		return PatternDesign{}, fmt.Errorf("pattern design %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	p.Document = design.MigratePatternDocument(p.Document, design.SchemaVersion)
	tx.state.patterns[p.ID] = clonePatternDesign(p)
	tx.recordChange(Change{Entity: design.EntityPatternDesign, Action: design.ActionCreate, After: clonePatternDesign(p)})
	return clonePatternDesign(p), nil
}

// UpdatePatternDesign mutates a pattern design using the provided mutator function.
func (tx *transaction) UpdatePatternDesign(id string, mutator func(*PatternDesign) error) (PatternDesign, error) {
	current, ok := tx.state.patterns[id]
	if !ok {
		return PatternDesign{}, design.ErrNotFound{Entity: design.EntityPatternDesign, ID: id}
	}
	before := clonePatternDesign(current)
	if err := mutator(&current); err != nil {
		return PatternDesign{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	current.Document = design.MigratePatternDocument(current.Document, design.SchemaVersion)
	tx.state.patterns[id] = clonePatternDesign(current)
	tx.recordChange(Change{Entity: design.EntityPatternDesign, Action: design.ActionUpdate, Before: before, After: clonePatternDesign(current)})
	return clonePatternDesign(current), nil
}

// DeletePatternDesign removes a pattern design from the transaction state.
func (tx *transaction) DeletePatternDesign(id string) error {
	current, ok := tx.state.patterns[id]
	if !ok {
		return design.ErrNotFound{Entity: design.EntityPatternDesign, ID: id}
	}
	delete(tx.state.patterns, id)
	tx.recordChange(Change{Entity: design.EntityPatternDesign, Action: design.ActionDelete, Before: clonePatternDesign(current)})
	return nil
}

// GetBlockDesign retrieves a block design by ID.
func (s *Store) GetBlockDesign(id string) (BlockDesign, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.blocks[id]
	if !ok {
		return BlockDesign{}, false
	}
	return cloneBlockDesign(b), true
}

// ListBlockDesigns returns all block designs.
func (s *Store) ListBlockDesigns() []BlockDesign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BlockDesign, 0, len(s.state.blocks))
	for _, b := range s.state.blocks {
		out = append(out, cloneBlockDesign(b))
	}
	return out
}

// GetPatternDesign retrieves a pattern design by ID.
func (s *Store) GetPatternDesign(id string) (PatternDesign, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.patterns[id]
	if !ok {
		return PatternDesign{}, false
	}
	return clonePatternDesign(p), true
}

// ListPatternDesigns returns all pattern designs.
func (s *Store) ListPatternDesigns() []PatternDesign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PatternDesign, 0, len(s.state.patterns))
	for _, p := range s.state.patterns {
		out = append(out, clonePatternDesign(p))
	}
	return out
}
