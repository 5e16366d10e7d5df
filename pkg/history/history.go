// Package history implements the bounded undo/redo log shared by the block
// and pattern editors. It is generic over the operation vocabulary so one
// implementation serves both, with inversion supplied by the vocabulary.
package history

// DefaultLimit bounds the undo stack. Recording past the cap silently drops
// the oldest entry; the redo stack needs no cap of its own because it is
// cleared on every newly recorded operation.
const DefaultLimit = 100

// Log tracks the recorded operations of one open document.
type Log[T any] struct {
	invert func(T) T
	limit  int
	undo   []T
	redo   []T
}

// New returns a log with the default capacity. invert must map every
// operation to its exact inverse.
func New[T any](invert func(T) T) *Log[T] {
	return NewWithLimit(invert, DefaultLimit)
}

// NewWithLimit returns a log holding at most limit undoable operations.
// Non-positive limits fall back to the default.
func NewWithLimit[T any](invert func(T) T, limit int) *Log[T] {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Log[T]{invert: invert, limit: limit}
}

// Record appends op to the undo stack, dropping the oldest entry when at
// capacity, and clears any redo history.
func (l *Log[T]) Record(op T) {
	if len(l.undo) >= l.limit {
		drop := len(l.undo) - l.limit + 1
		l.undo = append(l.undo[:0], l.undo[drop:]...)
	}
	l.undo = append(l.undo, op)
	l.redo = nil
}

// Undo pops the most recent operation, moves it onto the redo stack, and
// returns its inverse for the caller to apply. ok is false when the undo
// stack is empty.
func (l *Log[T]) Undo() (T, bool) {
	var zero T
	if len(l.undo) == 0 {
		return zero, false
	}
	op := l.undo[len(l.undo)-1]
	l.undo = l.undo[:len(l.undo)-1]
	l.redo = append(l.redo, op)
	return l.invert(op), true
}

// Redo pops the most recently undone operation, moves it back onto the undo
// stack, and returns it unchanged for the caller to reapply. ok is false
// when the redo stack is empty.
func (l *Log[T]) Redo() (T, bool) {
	var zero T
	if len(l.redo) == 0 {
		return zero, false
	}
	op := l.redo[len(l.redo)-1]
	l.redo = l.redo[:len(l.redo)-1]
	l.undo = append(l.undo, op)
	return op, true
}

// CanUndo reports whether at least one operation can be undone.
func (l *Log[T]) CanUndo() bool {
	return len(l.undo) > 0
}

// CanRedo reports whether at least one undone operation can be reapplied.
func (l *Log[T]) CanRedo() bool {
	return len(l.redo) > 0
}

// UndoDepth returns how many operations the undo stack holds.
func (l *Log[T]) UndoDepth() int {
	return len(l.undo)
}

// RedoDepth returns how many operations the redo stack holds.
func (l *Log[T]) RedoDepth() int {
	return len(l.redo)
}

// Clear empties both stacks; used when a new document is loaded.
func (l *Log[T]) Clear() {
	l.undo = nil
	l.redo = nil
}
