package design

import "context"

// Transaction exposes the design operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateBlockDesign(BlockDesign) (BlockDesign, error)
	UpdateBlockDesign(id string, mutator func(*BlockDesign) error) (BlockDesign, error)
	DeleteBlockDesign(id string) error
	CreatePatternDesign(PatternDesign) (PatternDesign, error)
	UpdatePatternDesign(id string, mutator func(*PatternDesign) error) (PatternDesign, error)
	DeletePatternDesign(id string) error
	FindBlockDesign(id string) (BlockDesign, bool)
	FindPatternDesign(id string) (PatternDesign, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListBlockDesigns() []BlockDesign
	ListPatternDesigns() []PatternDesign
	FindBlockDesign(id string) (BlockDesign, bool)
	FindPatternDesign(id string) (PatternDesign, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetBlockDesign(id string) (BlockDesign, bool)
	ListBlockDesigns() []BlockDesign
	GetPatternDesign(id string) (PatternDesign, bool)
	ListPatternDesigns() []PatternDesign
}
