package editor

import (
	"fmt"

	"quiltcore/pkg/design"
	"quiltcore/pkg/design/unitdef"
	"quiltcore/pkg/history"
)

// BlockEditor drives interactive edits over a single block document. Every
// mutating method validates its input against the current document, applies
// the resulting operation, and records it for undo. Invalid input is answered
// with a false return and an untouched document, never an error or panic.
//
// The editor is single-threaded by contract. Callers own serialization; the
// struct carries no locks.
type BlockEditor struct {
	doc       design.BlockDocument
	log       *history.Log[design.BlockOperation]
	logger    Logger
	nextID    func() string
	placement *pendingPlacement
}

// pendingPlacement is the awaiting-second-cell state of the two-tap gesture.
// The valid cell set is computed once at the first tap; completion only
// checks membership.
type pendingPlacement struct {
	unitType design.UnitType
	first    design.Position
	valid    []design.Position
	role     string
	contrast string
}

// NewBlockEditor starts an editing session over a copy of doc. The caller's
// value is never mutated; read the session's state back with Document.
func NewBlockEditor(doc design.BlockDocument, opts ...EditorOption) *BlockEditor {
	cfg := newEditorConfig(opts)
	return &BlockEditor{
		doc:    design.CloneBlockDocument(doc),
		log:    history.NewWithLimit(design.InvertBlockOperation, cfg.historyLimit),
		logger: cfg.logger,
		nextID: cfg.idGen,
	}
}

// Document returns a deep copy of the current document state.
func (e *BlockEditor) Document() design.BlockDocument {
	return design.CloneBlockDocument(e.doc)
}

// Load replaces the session state with a copy of doc and clears history. Any
// pending two-tap placement is cancelled.
func (e *BlockEditor) Load(doc design.BlockDocument) {
	e.doc = design.CloneBlockDocument(doc)
	e.log.Clear()
	e.placement = nil
}

// PlaceUnit places a single-tap unit with its anchor at pos, using the type's
// default orientation. Empty role ids resolve to the palette's leading roles;
// unknown role ids, unknown or two-tap unit types, and footprints that leave
// the grid or overlap an existing unit are all rejected. No id is consumed on
// a rejected placement, so accepted units number densely.
func (e *BlockEditor) PlaceUnit(t design.UnitType, pos design.Position, roleID, contrastID string) (design.Unit, bool) {
	def, ok := unitdef.Lookup(t)
	if !ok || def.Placement != unitdef.PlacementSingleTap {
		return design.Unit{}, false
	}
	role, contrast, ok := e.resolveRoles(def, roleID, contrastID)
	if !ok {
		return design.Unit{}, false
	}
	if !e.fits(pos, def.SpanFor(def.DefaultOrientation), "") {
		return design.Unit{}, false
	}
	unit, ok := unitdef.Instantiate(t, e.nextID(), pos, "", role, contrast)
	if !ok {
		return design.Unit{}, false
	}
	if !e.applyAndRecord(design.AddUnit{Unit: unit}) {
		return design.Unit{}, false
	}
	return unit, true
}

// StartTwoTapPlacement begins the two-cell gesture for a two-tap unit type.
// It succeeds only when first is an in-bounds, unoccupied cell with at least
// one valid adjacent cell; on success the editor transitions to
// awaiting-second-cell, replacing any previous pending gesture.
func (e *BlockEditor) StartTwoTapPlacement(t design.UnitType, first design.Position, roleID, contrastID string) bool {
	def, ok := unitdef.Lookup(t)
	if !ok || def.Placement != unitdef.PlacementTwoTap {
		return false
	}
	role, contrast, ok := e.resolveRoles(def, roleID, contrastID)
	if !ok {
		return false
	}
	if !e.doc.InBounds(first) || e.doc.Occupied(first) {
		return false
	}
	valid := e.doc.ValidAdjacentCells(first)
	if len(valid) == 0 {
		return false
	}
	e.placement = &pendingPlacement{
		unitType: t,
		first:    first,
		valid:    valid,
		role:     role,
		contrast: contrast,
	}
	return true
}

// AwaitingSecondCell reports whether a two-tap gesture is in progress.
func (e *BlockEditor) AwaitingSecondCell() bool {
	return e.placement != nil
}

// ValidSecondCells returns the cells that would complete the pending two-tap
// gesture, or nil when no gesture is in progress.
func (e *BlockEditor) ValidSecondCells() []design.Position {
	if e.placement == nil {
		return nil
	}
	cells := make([]design.Position, len(e.placement.valid))
	copy(cells, e.placement.valid)
	return cells
}

// CompleteTwoTapPlacement finishes the pending gesture at second. The editor
// returns to idle regardless of outcome: a second cell outside the
// precomputed valid set cancels the gesture silently. On success the unit's
// orientation points from the first tap toward the second and its anchor is
// the top-left of the two cells.
func (e *BlockEditor) CompleteTwoTapPlacement(second design.Position) (design.Unit, bool) {
	pending := e.placement
	e.placement = nil
	if pending == nil || !containsPosition(pending.valid, second) {
		return design.Unit{}, false
	}
	orientation := orientationForDirection(design.DirectionBetween(pending.first, second))
	anchor := design.AnchorOf(pending.first, second)
	unit, ok := unitdef.Instantiate(pending.unitType, e.nextID(), anchor, orientation, pending.role, pending.contrast)
	if !ok {
		return design.Unit{}, false
	}
	if !e.applyAndRecord(design.AddUnit{Unit: unit}) {
		return design.Unit{}, false
	}
	return unit, true
}

// CancelTwoTapPlacement abandons any pending gesture.
func (e *BlockEditor) CancelTwoTapPlacement() {
	e.placement = nil
}

// RemoveUnit deletes the unit with the given id.
func (e *BlockEditor) RemoveUnit(id string) bool {
	unit, _, ok := e.doc.FindUnit(id)
	if !ok {
		return false
	}
	return e.applyAndRecord(design.RemoveUnit{Unit: design.CloneUnit(unit)})
}

// RemoveUnitAt deletes whichever unit covers pos, matching a tap-to-erase
// gesture on multi-cell units.
func (e *BlockEditor) RemoveUnitAt(pos design.Position) bool {
	unit, ok := e.doc.UnitAt(pos)
	if !ok {
		return false
	}
	return e.applyAndRecord(design.RemoveUnit{Unit: design.CloneUnit(unit)})
}

// RotateUnit advances the unit one step through its type's rotation cycle.
// Rotations that would push the unit's footprint out of bounds or onto
// another unit are rejected.
func (e *BlockEditor) RotateUnit(id string) bool {
	return e.transformUnit(id, unitdef.Rotate)
}

// FlipUnitHorizontal mirrors the unit across its vertical axis.
func (e *BlockEditor) FlipUnitHorizontal(id string) bool {
	return e.transformUnit(id, unitdef.FlipHorizontal)
}

// FlipUnitVertical mirrors the unit across its horizontal axis.
func (e *BlockEditor) FlipUnitVertical(id string) bool {
	return e.transformUnit(id, unitdef.FlipVertical)
}

func (e *BlockEditor) transformUnit(id string, transform func(design.Unit) (design.UnitPatch, bool)) bool {
	unit, _, ok := e.doc.FindUnit(id)
	if !ok {
		return false
	}
	patch, ok := transform(unit)
	if !ok || patch.IsZero() {
		return false
	}
	if patch.Position != nil || patch.Span != nil {
		pos := unit.Position
		if patch.Position != nil {
			pos = *patch.Position
		}
		span := unit.Span
		if patch.Span != nil {
			span = *patch.Span
		}
		if !e.fits(pos, span, unit.ID) {
			return false
		}
	}
	return e.applyAndRecord(design.UpdateUnit{
		UnitID: id,
		Prev:   design.PrevUnitPatch(unit, patch),
		Next:   patch,
	})
}

// AssignRoleToUnit sets one of the unit's role slots to roleID. An empty part
// targets the unit's primary part. The role must exist in the palette;
// assigning the value a slot already holds is a no-op.
func (e *BlockEditor) AssignRoleToUnit(id, roleID string, part design.PartID) bool {
	if _, _, ok := design.FindRole(e.doc.Palette, roleID); !ok {
		return false
	}
	unit, _, ok := e.doc.FindUnit(id)
	if !ok {
		return false
	}
	change, ok := unitdef.AssignRole(unit, roleID, part)
	if !ok {
		return false
	}
	return e.applyAndRecord(design.UpdateUnit{UnitID: id, Prev: change.Prev, Next: change.Next})
}

// FillRange places one unit per unoccupied cell in the rectangle between
// anchor and end, recorded as a single undoable step. Only single-tap,
// single-cell unit types participate; a nil anchor degenerates the range to
// the end cell alone. Returns the placed units in row-major order.
func (e *BlockEditor) FillRange(t design.UnitType, anchor *design.Position, end design.Position, roleID, contrastID string) ([]design.Unit, bool) {
	def, ok := unitdef.Lookup(t)
	if !ok || def.Placement != unitdef.PlacementSingleTap {
		return nil, false
	}
	if def.SpanFor(def.DefaultOrientation) != design.SingleCell {
		return nil, false
	}
	role, contrast, ok := e.resolveRoles(def, roleID, contrastID)
	if !ok {
		return nil, false
	}
	cells := e.doc.RangeFill(anchor, end)
	if len(cells) == 0 {
		return nil, false
	}
	placed := make([]design.Unit, 0, len(cells))
	members := make([]design.BlockOperation, 0, len(cells))
	for _, cell := range cells {
		unit, ok := unitdef.Instantiate(t, e.nextID(), cell, "", role, contrast)
		if !ok {
			return nil, false
		}
		placed = append(placed, unit)
		members = append(members, design.AddUnit{Unit: unit})
	}
	if !e.applyAndRecord(design.BlockBatch{Operations: members}) {
		return nil, false
	}
	return placed, true
}

// AddRole appends a role to the palette with the next unused fallback color.
// An empty name receives a positional default. Rejected once the palette
// holds MaxPaletteRoles entries.
func (e *BlockEditor) AddRole(name string) (design.Role, bool) {
	if len(e.doc.Palette) >= design.MaxPaletteRoles {
		return design.Role{}, false
	}
	if name == "" {
		name = fmt.Sprintf("Fabric %d", len(e.doc.Palette)+1)
	}
	role := design.Role{
		ID:    e.nextID(),
		Name:  name,
		Color: design.NextFallbackColor(e.doc.Palette),
	}
	if !e.applyAndRecord(design.AddRole{Role: role, Index: len(e.doc.Palette)}) {
		return design.Role{}, false
	}
	return role, true
}

// RemoveRole deletes a palette role, reassigning every unit slot that
// referenced it to the fallback role. An empty, unknown, or self-referential
// fallback resolves to the first remaining role. The last role cannot be
// removed. Removal and all reassignments form one undoable step.
func (e *BlockEditor) RemoveRole(roleID, fallbackID string) bool {
	role, index, ok := design.FindRole(e.doc.Palette, roleID)
	if !ok || len(e.doc.Palette) <= 1 {
		return false
	}
	fallback, ok := e.fallbackRole(roleID, fallbackID)
	if !ok {
		return false
	}
	op := design.RemoveRole{Role: role, Index: index, FallbackID: fallback.ID}
	for _, unit := range e.doc.Units {
		patch, changed := unitdef.ReplaceRole(unit, roleID, fallback.ID)
		if !changed {
			continue
		}
		op.Units = append(op.Units, design.UnitRoleSnapshot{
			UnitID: unit.ID,
			Prev:   design.PrevUnitPatch(unit, patch),
			Next:   patch,
		})
	}
	return e.applyAndRecord(op)
}

// RenameRole changes a role's display name.
func (e *BlockEditor) RenameRole(roleID, name string) bool {
	role, _, ok := design.FindRole(e.doc.Palette, roleID)
	if !ok || role.Name == name {
		return false
	}
	return e.applyAndRecord(design.RenameRole{RoleID: roleID, PrevName: role.Name, NextName: name})
}

// SetRoleColor changes a role's color. Every unit referencing the role picks
// up the new color implicitly, since units store role ids, not colors.
func (e *BlockEditor) SetRoleColor(roleID, color string) bool {
	role, _, ok := design.FindRole(e.doc.Palette, roleID)
	if !ok || color == "" || role.Color == color {
		return false
	}
	return e.applyAndRecord(design.UpdatePaletteColor{RoleID: roleID, PrevColor: role.Color, NextColor: color})
}

// Resize changes the square grid to size×size. Units whose footprint no
// longer fits are removed in the same undoable step, so undo restores both
// the size and the evicted units together.
func (e *BlockEditor) Resize(size int) bool {
	if size < 1 || size == e.doc.Size {
		return false
	}
	return e.applyAndRecord(design.ResizeBlock{
		PrevSize: e.doc.Size,
		NextSize: size,
		Removed:  design.UnitsOutsideSquare(e.doc.Units, size, design.Offset{}),
	})
}

// Undo reverts the most recent recorded operation.
func (e *BlockEditor) Undo() bool {
	e.placement = nil
	op, ok := e.log.Undo()
	if !ok {
		return false
	}
	e.doc, _ = design.ApplyBlockOperation(e.doc, op)
	return true
}

// Redo reapplies the most recently undone operation.
func (e *BlockEditor) Redo() bool {
	e.placement = nil
	op, ok := e.log.Redo()
	if !ok {
		return false
	}
	e.doc, _ = design.ApplyBlockOperation(e.doc, op)
	return true
}

// CanUndo reports whether an operation is available to undo.
func (e *BlockEditor) CanUndo() bool { return e.log.CanUndo() }

// CanRedo reports whether an undone operation is available to redo.
func (e *BlockEditor) CanRedo() bool { return e.log.CanRedo() }

// applyAndRecord runs op against the document and, when it changed anything,
// commits the new state and records the operation. Any successful edit
// invalidates a pending two-tap gesture, whose valid-cell set was computed
// against the previous state.
func (e *BlockEditor) applyAndRecord(op design.BlockOperation) bool {
	next, changed := design.ApplyBlockOperation(e.doc, op)
	if !changed {
		return false
	}
	e.doc = next
	e.log.Record(op)
	e.placement = nil
	e.logger.Debug("recorded block edit", "op", fmt.Sprintf("%T", op))
	return true
}

// fits reports whether a footprint anchored at pos lies inside the grid and
// overlaps no unit other than exceptID.
func (e *BlockEditor) fits(pos design.Position, span design.Span, exceptID string) bool {
	if !design.InBounds(pos, span, e.doc.Size, e.doc.Size) {
		return false
	}
	for _, cell := range design.CellsCovered(pos, span) {
		if u, ok := e.doc.UnitAt(cell); ok && u.ID != exceptID {
			return false
		}
	}
	return true
}

// resolveRoles maps the caller's role choices onto palette entries. Empty ids
// default to the palette's first role, and for types with secondary parts the
// second role, so a fresh document paints in its two starter fabrics. Unknown
// ids are rejected.
func (e *BlockEditor) resolveRoles(def unitdef.Definition, roleID, contrastID string) (string, string, bool) {
	palette := e.doc.Palette
	if len(palette) == 0 {
		return "", "", false
	}
	if roleID == "" {
		roleID = palette[0].ID
	} else if _, _, ok := design.FindRole(palette, roleID); !ok {
		return "", "", false
	}
	if len(def.SecondaryParts) == 0 {
		return roleID, "", true
	}
	if contrastID == "" {
		contrastID = palette[0].ID
		if len(palette) > 1 {
			contrastID = palette[1].ID
		}
	} else if _, _, ok := design.FindRole(palette, contrastID); !ok {
		return "", "", false
	}
	return roleID, contrastID, true
}

// fallbackRole picks the reassignment target for RemoveRole.
func (e *BlockEditor) fallbackRole(removedID, fallbackID string) (design.Role, bool) {
	if fallbackID != "" && fallbackID != removedID {
		if role, _, ok := design.FindRole(e.doc.Palette, fallbackID); ok {
			return role, true
		}
	}
	for _, role := range e.doc.Palette {
		if role.ID != removedID {
			return role, true
		}
	}
	return design.Role{}, false
}

func orientationForDirection(dir design.Direction) design.Orientation {
	switch dir {
	case design.DirectionRight:
		return design.OrientationRight
	case design.DirectionLeft:
		return design.OrientationLeft
	case design.DirectionDown:
		return design.OrientationDown
	default:
		return design.OrientationUp
	}
}

func containsPosition(cells []design.Position, pos design.Position) bool {
	for _, cell := range cells {
		if cell == pos {
			return true
		}
	}
	return false
}
