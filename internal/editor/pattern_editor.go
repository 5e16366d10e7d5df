package editor

import (
	"fmt"

	"quiltcore/pkg/design"
	"quiltcore/pkg/history"
)

// PatternEditor drives interactive edits over a single pattern document:
// block instances on a rectangular grid, the pattern palette, and the border
// set. As with BlockEditor, invalid input is answered with a false return and
// an untouched document, and the editor is single-threaded by contract.
//
// Variant palette entries are never edited directly. They are derived from
// the override colors in use and resynchronized after every applied
// operation, so palette methods reject variant role ids outright.
type PatternEditor struct {
	doc    design.PatternDocument
	log    *history.Log[design.PatternOperation]
	logger Logger
	nextID func() string
}

// NewPatternEditor starts an editing session over a copy of doc.
func NewPatternEditor(doc design.PatternDocument, opts ...EditorOption) *PatternEditor {
	cfg := newEditorConfig(opts)
	return &PatternEditor{
		doc:    design.ClonePatternDocument(doc),
		log:    history.NewWithLimit(design.InvertPatternOperation, cfg.historyLimit),
		logger: cfg.logger,
		nextID: cfg.idGen,
	}
}

// Document returns a deep copy of the current document state.
func (e *PatternEditor) Document() design.PatternDocument {
	return design.ClonePatternDocument(e.doc)
}

// Load replaces the session state with a copy of doc and clears history.
func (e *PatternEditor) Load(doc design.PatternDocument) {
	e.doc = design.ClonePatternDocument(doc)
	e.log.Clear()
}

// PlaceInstance puts an instance of the given block at pos. A position holds
// at most one instance: placing onto an occupied cell replaces the prior
// occupant, and the replacement is a single undoable step that restores the
// old instance, overrides and all, on undo.
func (e *PatternEditor) PlaceInstance(blockID string, pos design.Position) (design.PlacedInstance, bool) {
	if blockID == "" || !e.doc.InBounds(pos) {
		return design.PlacedInstance{}, false
	}
	instance := design.PlacedInstance{
		ID:       e.nextID(),
		BlockID:  blockID,
		Position: pos,
	}
	var op design.PatternOperation = design.AddInstance{Instance: instance}
	if prior, ok := e.doc.InstanceAt(pos); ok {
		op = design.PatternBatch{Operations: []design.PatternOperation{
			design.RemoveInstance{Instance: design.CloneInstance(prior)},
			design.AddInstance{Instance: instance},
		}}
	}
	if !e.applyAndRecord(op) {
		return design.PlacedInstance{}, false
	}
	return instance, true
}

// RemoveInstance deletes the instance with the given id.
func (e *PatternEditor) RemoveInstance(id string) bool {
	instance, _, ok := e.doc.FindInstance(id)
	if !ok {
		return false
	}
	return e.applyAndRecord(design.RemoveInstance{Instance: design.CloneInstance(instance)})
}

// RemoveInstanceAt deletes the instance occupying pos, if any.
func (e *PatternEditor) RemoveInstanceAt(pos design.Position) bool {
	instance, ok := e.doc.InstanceAt(pos)
	if !ok {
		return false
	}
	return e.applyAndRecord(design.RemoveInstance{Instance: design.CloneInstance(instance)})
}

// RotateInstance advances the instance one quarter turn clockwise.
func (e *PatternEditor) RotateInstance(id string) bool {
	instance, _, ok := e.doc.FindInstance(id)
	if !ok {
		return false
	}
	next := design.NextQuarterTurn(instance.Rotation)
	return e.updateInstance(instance, design.InstancePatch{Rotation: &next})
}

// FlipInstanceHorizontal toggles the instance's horizontal mirror.
func (e *PatternEditor) FlipInstanceHorizontal(id string) bool {
	instance, _, ok := e.doc.FindInstance(id)
	if !ok {
		return false
	}
	flipped := !instance.FlipHorizontal
	return e.updateInstance(instance, design.InstancePatch{FlipHorizontal: &flipped})
}

// FlipInstanceVertical toggles the instance's vertical mirror.
func (e *PatternEditor) FlipInstanceVertical(id string) bool {
	instance, _, ok := e.doc.FindInstance(id)
	if !ok {
		return false
	}
	flipped := !instance.FlipVertical
	return e.updateInstance(instance, design.InstancePatch{FlipVertical: &flipped})
}

// SetInstanceOverride recolors one palette role for this instance alone. The
// role must be a non-variant palette entry; setting the color an override
// already holds is a no-op. A color no base role serves registers a variant
// palette entry as a side effect of applying the operation.
func (e *PatternEditor) SetInstanceOverride(id, roleID, color string) bool {
	if color == "" {
		return false
	}
	role, _, ok := design.FindRole(e.doc.Palette, roleID)
	if !ok || role.Variant {
		return false
	}
	instance, _, ok := e.doc.FindInstance(id)
	if !ok {
		return false
	}
	if current, ok := instance.Overrides[roleID]; ok && current == color {
		return false
	}
	return e.updateInstance(instance, design.InstancePatch{
		Overrides: map[string]*string{roleID: &color},
	})
}

// RemoveInstanceOverride drops one role's override, returning that role to
// its palette color for this instance.
func (e *PatternEditor) RemoveInstanceOverride(id, roleID string) bool {
	instance, _, ok := e.doc.FindInstance(id)
	if !ok {
		return false
	}
	if _, ok := instance.Overrides[roleID]; !ok {
		return false
	}
	return e.updateInstance(instance, design.InstancePatch{
		Overrides: map[string]*string{roleID: nil},
	})
}

func (e *PatternEditor) updateInstance(instance design.PlacedInstance, next design.InstancePatch) bool {
	return e.applyAndRecord(design.UpdateInstance{
		InstanceID: instance.ID,
		Prev:       design.PrevInstancePatch(instance, next),
		Next:       next,
	})
}

// Resize changes the pattern grid to rows×cols. Instances outside the new
// bounds are removed in the same undoable step.
func (e *PatternEditor) Resize(rows, cols int) bool {
	if rows < 1 || cols < 1 {
		return false
	}
	if rows == e.doc.Rows && cols == e.doc.Cols {
		return false
	}
	return e.applyAndRecord(design.ResizePattern{
		PrevRows: e.doc.Rows,
		PrevCols: e.doc.Cols,
		NextRows: rows,
		NextCols: cols,
		Removed:  design.InstancesOutsideGrid(e.doc.Instances, rows, cols, design.Offset{}),
	})
}

// AddBorder appends a border strip outside any existing ones. Width must be
// positive; an empty style, corner style, or fabric role receives the
// default, while an unknown one is rejected. Adding the first border
// materializes the border config in enabled state.
func (e *PatternEditor) AddBorder(widthInches float64, style design.BorderStyle, fabricRoleID string, corner design.CornerStyle) (design.Border, bool) {
	if widthInches <= 0 {
		return design.Border{}, false
	}
	if style == "" {
		style = design.BorderStyleSolid
	}
	if corner == "" {
		corner = design.CornerStyleOverlap
	}
	if !style.Valid() || !corner.Valid() {
		return design.Border{}, false
	}
	fabric, ok := e.borderFabricRole(fabricRoleID)
	if !ok {
		return design.Border{}, false
	}
	border := design.Border{
		ID:          e.nextID(),
		WidthInches: widthInches,
		Style:       style,
		FabricRole:  fabric,
		CornerStyle: corner,
	}
	index := 0
	if e.doc.Borders != nil {
		index = len(e.doc.Borders.Borders)
	}
	if !e.applyAndRecord(design.AddBorder{Border: border, Index: index}) {
		return design.Border{}, false
	}
	return border, true
}

// RemoveBorder deletes a border strip. Removing the last border drops the
// border config entirely, as if none had ever been added. When that config
// was disabled, the removal records the enabled flip alongside it: a
// re-materialized config always starts enabled, so undo needs the flip to
// land back on the disabled state.
func (e *PatternEditor) RemoveBorder(id string) bool {
	border, index, ok := design.FindBorder(e.doc.Borders, id)
	if !ok {
		return false
	}
	remove := design.RemoveBorder{Border: border, Index: index}
	if len(e.doc.Borders.Borders) == 1 && !e.doc.Borders.Enabled {
		return e.applyAndRecord(design.PatternBatch{Operations: []design.PatternOperation{
			design.SetBordersEnabled{Prev: false, Next: true},
			remove,
		}})
	}
	return e.applyAndRecord(remove)
}

// UpdateBorder applies a partial update to one border. Each present field is
// validated the same way AddBorder validates it; a patch that changes nothing
// is a no-op.
func (e *PatternEditor) UpdateBorder(id string, patch design.BorderPatch) bool {
	border, _, ok := design.FindBorder(e.doc.Borders, id)
	if !ok || patch.IsZero() {
		return false
	}
	if patch.WidthInches != nil && *patch.WidthInches <= 0 {
		return false
	}
	if patch.Style != nil && !patch.Style.Valid() {
		return false
	}
	if patch.CornerStyle != nil && !patch.CornerStyle.Valid() {
		return false
	}
	if patch.FabricRole != nil {
		role, _, ok := design.FindRole(e.doc.Palette, *patch.FabricRole)
		if !ok || role.Variant {
			return false
		}
	}
	if design.MergeBorderPatch(border, patch) == border {
		return false
	}
	return e.applyAndRecord(design.UpdateBorder{
		BorderID: id,
		Prev:     design.PrevBorderPatch(border, patch),
		Next:     patch,
	})
}

// SetBordersEnabled toggles rendering of the border set. Meaningful only once
// a border exists; a document with no border config rejects the toggle.
func (e *PatternEditor) SetBordersEnabled(enabled bool) bool {
	if e.doc.Borders == nil || e.doc.Borders.Enabled == enabled {
		return false
	}
	return e.applyAndRecord(design.SetBordersEnabled{Prev: e.doc.Borders.Enabled, Next: enabled})
}

// AddRole appends a role to the pattern palette with the next unused
// fallback color. Variant entries count against the palette cap.
func (e *PatternEditor) AddRole(name string) (design.Role, bool) {
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

// RemoveRole deletes a palette role. Instance overrides keyed by the role are
// dropped, and borders whose fabric was the role are reassigned to the
// fallback, all in one undoable step. Variant roles cannot be removed by
// hand, and at least one non-variant role must remain to serve as fallback.
func (e *PatternEditor) RemoveRole(roleID, fallbackID string) bool {
	role, index, ok := design.FindRole(e.doc.Palette, roleID)
	if !ok || role.Variant {
		return false
	}
	fallback, ok := e.fallbackRole(roleID, fallbackID)
	if !ok {
		return false
	}
	remove := design.RemoveRole{Role: role, Index: index, FallbackID: fallback.ID}
	for _, instance := range e.doc.Instances {
		if _, ok := instance.Overrides[roleID]; !ok {
			continue
		}
		next := design.InstancePatch{Overrides: map[string]*string{roleID: nil}}
		remove.Instances = append(remove.Instances, design.InstanceRoleSnapshot{
			InstanceID: instance.ID,
			Prev:       design.PrevInstancePatch(instance, next),
			Next:       next,
		})
	}
	var borderMembers []design.PatternOperation
	if e.doc.Borders != nil {
		for _, border := range e.doc.Borders.Borders {
			if border.FabricRole != roleID {
				continue
			}
			next := design.BorderPatch{FabricRole: &fallback.ID}
			borderMembers = append(borderMembers, design.UpdateBorder{
				BorderID: border.ID,
				Prev:     design.PrevBorderPatch(border, next),
				Next:     next,
			})
		}
	}
	if len(borderMembers) == 0 {
		return e.applyAndRecord(remove)
	}
	return e.applyAndRecord(design.PatternBatch{
		Operations: append(borderMembers, remove),
	})
}

// RenameRole changes a non-variant role's display name.
func (e *PatternEditor) RenameRole(roleID, name string) bool {
	role, _, ok := design.FindRole(e.doc.Palette, roleID)
	if !ok || role.Variant || role.Name == name {
		return false
	}
	return e.applyAndRecord(design.RenameRole{RoleID: roleID, PrevName: role.Name, NextName: name})
}

// SetRoleColor changes a non-variant role's color. A variant role's color is
// its identity and cannot be edited.
func (e *PatternEditor) SetRoleColor(roleID, color string) bool {
	role, _, ok := design.FindRole(e.doc.Palette, roleID)
	if !ok || role.Variant || color == "" || role.Color == color {
		return false
	}
	return e.applyAndRecord(design.UpdatePaletteColor{RoleID: roleID, PrevColor: role.Color, NextColor: color})
}

// Undo reverts the most recent recorded operation.
func (e *PatternEditor) Undo() bool {
	op, ok := e.log.Undo()
	if !ok {
		return false
	}
	e.doc, _ = design.ApplyPatternOperation(e.doc, op)
	return true
}

// Redo reapplies the most recently undone operation.
func (e *PatternEditor) Redo() bool {
	op, ok := e.log.Redo()
	if !ok {
		return false
	}
	e.doc, _ = design.ApplyPatternOperation(e.doc, op)
	return true
}

// CanUndo reports whether an operation is available to undo.
func (e *PatternEditor) CanUndo() bool { return e.log.CanUndo() }

// CanRedo reports whether an undone operation is available to redo.
func (e *PatternEditor) CanRedo() bool { return e.log.CanRedo() }

func (e *PatternEditor) applyAndRecord(op design.PatternOperation) bool {
	next, changed := design.ApplyPatternOperation(e.doc, op)
	if !changed {
		return false
	}
	e.doc = next
	e.log.Record(op)
	e.logger.Debug("recorded pattern edit", "op", fmt.Sprintf("%T", op))
	return true
}

// borderFabricRole resolves the fabric role for a new border: empty picks the
// first non-variant palette role, anything else must name one.
func (e *PatternEditor) borderFabricRole(roleID string) (string, bool) {
	if roleID == "" {
		for _, role := range e.doc.Palette {
			if !role.Variant {
				return role.ID, true
			}
		}
		return "", false
	}
	role, _, ok := design.FindRole(e.doc.Palette, roleID)
	if !ok || role.Variant {
		return "", false
	}
	return role.ID, true
}

// fallbackRole picks the reassignment target for RemoveRole from the
// remaining non-variant roles.
func (e *PatternEditor) fallbackRole(removedID, fallbackID string) (design.Role, bool) {
	if fallbackID != "" && fallbackID != removedID {
		if role, _, ok := design.FindRole(e.doc.Palette, fallbackID); ok && !role.Variant {
			return role, true
		}
	}
	for _, role := range e.doc.Palette {
		if role.ID != removedID && !role.Variant {
			return role, true
		}
	}
	return design.Role{}, false
}
