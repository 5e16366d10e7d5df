package design

// BlockOperation is the closed set of reversible edits understood by the
// block-level editor. Every operation carries enough data to both apply and
// invert itself without consulting outside state: removals embed the full
// removed value, updates embed prev/next patches over the same fields.
type BlockOperation interface {
	isBlockOperation()
}

// AddUnit places a unit. Its mirror image is RemoveUnit.
type AddUnit struct {
	Unit Unit `json:"unit"`
}

// RemoveUnit deletes a unit, carrying the full entity so the inverse add
// needs no lookup.
type RemoveUnit struct {
	Unit Unit `json:"unit"`
}

// UpdateUnit is a generic partial-field update. Prev holds the old values of
// exactly the fields Next changes.
type UpdateUnit struct {
	UnitID string    `json:"unit_id"`
	Prev   UnitPatch `json:"prev"`
	Next   UnitPatch `json:"next"`
}

// ResizeBlock changes the square grid size. Removed lists the units the
// resize pushes out of bounds (at their original positions); Restored lists
// units re-added when the operation runs in the other direction; Shift is the
// displacement applied to surviving units. Removal, shift, and size change
// commit atomically so undo never observes an inconsistent pair.
type ResizeBlock struct {
	PrevSize int    `json:"prev_size"`
	NextSize int    `json:"next_size"`
	Removed  []Unit `json:"removed,omitempty"`
	Restored []Unit `json:"restored,omitempty"`
	Shift    Offset `json:"shift"`
}

// BlockBatch groups operations applied in order and undone as one step.
type BlockBatch struct {
	Operations []BlockOperation `json:"operations"`
}

// UpdatePaletteColor recolors a role. Shared by both editor vocabularies.
type UpdatePaletteColor struct {
	RoleID    string `json:"role_id"`
	PrevColor string `json:"prev_color"`
	NextColor string `json:"next_color"`
}

// AddRole inserts a role at Index in palette order.
type AddRole struct {
	Role  Role `json:"role"`
	Index int  `json:"index"`
}

// UnitRoleSnapshot records how one unit's role slots were reassigned when a
// role was removed: Prev is the original per-slot state, Next the fallback
// state. Undo restores whichever slot held the role, not just "a role id".
type UnitRoleSnapshot struct {
	UnitID string    `json:"unit_id"`
	Prev   UnitPatch `json:"prev"`
	Next   UnitPatch `json:"next"`
}

// InstanceRoleSnapshot records the override entries dropped from one pattern
// instance when a role was removed.
type InstanceRoleSnapshot struct {
	InstanceID string        `json:"instance_id"`
	Prev       InstancePatch `json:"prev"`
	Next       InstancePatch `json:"next"`
}

// RemoveRole deletes a role and cascades reassignment of every reference to
// the fallback role. Units carries block-level reassignments, Instances the
// pattern-level override removals; whichever editor recorded the operation
// fills its slice. Its inverse is a batch of AddRole followed by one update
// per affected unit or instance.
type RemoveRole struct {
	Role       Role                   `json:"role"`
	Index      int                    `json:"index"`
	FallbackID string                 `json:"fallback_id,omitempty"`
	Units      []UnitRoleSnapshot     `json:"units,omitempty"`
	Instances  []InstanceRoleSnapshot `json:"instances,omitempty"`
}

// RenameRole changes a role's display name.
type RenameRole struct {
	RoleID   string `json:"role_id"`
	PrevName string `json:"prev_name"`
	NextName string `json:"next_name"`
}

func (AddUnit) isBlockOperation()            {}
func (RemoveUnit) isBlockOperation()         {}
func (UpdateUnit) isBlockOperation()         {}
func (ResizeBlock) isBlockOperation()        {}
func (BlockBatch) isBlockOperation()         {}
func (UpdatePaletteColor) isBlockOperation() {}
func (AddRole) isBlockOperation()            {}
func (RemoveRole) isBlockOperation()         {}
func (RenameRole) isBlockOperation()         {}

// InvertBlockOperation returns the operation that exactly undoes op. It is
// structural and total: add/remove mirror each other, updates swap prev and
// next, resize swaps sizes and negates the shift, and a batch inverts each
// member and reverses their order so later members are undone first.
// RemoveRole inverts to a batch of AddRole plus one UpdateUnit per affected
// slot, per the cascade contract; a removal that affected no units inverts
// to the AddRole alone.
func InvertBlockOperation(op BlockOperation) BlockOperation {
	switch o := op.(type) {
	case AddUnit:
		return RemoveUnit{Unit: CloneUnit(o.Unit)}
	case RemoveUnit:
		return AddUnit{Unit: CloneUnit(o.Unit)}
	case UpdateUnit:
		return UpdateUnit{UnitID: o.UnitID, Prev: CloneUnitPatch(o.Next), Next: CloneUnitPatch(o.Prev)}
	case ResizeBlock:
		return ResizeBlock{
			PrevSize: o.NextSize,
			NextSize: o.PrevSize,
			Removed:  CloneUnits(o.Restored),
			Restored: CloneUnits(o.Removed),
			Shift:    o.Shift.Negated(),
		}
	case UpdatePaletteColor:
		return UpdatePaletteColor{RoleID: o.RoleID, PrevColor: o.NextColor, NextColor: o.PrevColor}
	case AddRole:
		return RemoveRole{Role: o.Role, Index: o.Index}
	case RemoveRole:
		if len(o.Units) == 0 {
			return AddRole{Role: o.Role, Index: o.Index}
		}
		members := []BlockOperation{AddRole{Role: o.Role, Index: o.Index}}
		for _, snap := range o.Units {
			members = append(members, UpdateUnit{
				UnitID: snap.UnitID,
				Prev:   CloneUnitPatch(snap.Next),
				Next:   CloneUnitPatch(snap.Prev),
			})
		}
		return BlockBatch{Operations: members}
	case RenameRole:
		return RenameRole{RoleID: o.RoleID, PrevName: o.NextName, NextName: o.PrevName}
	case BlockBatch:
		inverted := make([]BlockOperation, len(o.Operations))
		for i, member := range o.Operations {
			inverted[len(o.Operations)-1-i] = InvertBlockOperation(member)
		}
		return BlockBatch{Operations: inverted}
	default:
		return op
	}
}

// ApplyToUnits reduces the unit slice by one operation. Operations irrelevant
// to units, and operations referencing ids absent from the slice, leave it
// unchanged and report false so callers can skip downstream work.
func ApplyToUnits(units []Unit, op BlockOperation) ([]Unit, bool) {
	switch o := op.(type) {
	case AddUnit:
		if _, ok := findUnitIndex(units, o.Unit.ID); ok {
			return units, false
		}
		next := CloneUnits(units)
		return append(next, CloneUnit(o.Unit)), true
	case RemoveUnit:
		idx, ok := findUnitIndex(units, o.Unit.ID)
		if !ok {
			return units, false
		}
		next := CloneUnits(units)
		return append(next[:idx], next[idx+1:]...), true
	case UpdateUnit:
		idx, ok := findUnitIndex(units, o.UnitID)
		if !ok || o.Next.IsZero() {
			return units, false
		}
		next := CloneUnits(units)
		next[idx] = MergeUnitPatch(next[idx], o.Next)
		return next, true
	case RemoveRole:
		changed := false
		next := units
		for _, snap := range o.Units {
			idx, ok := findUnitIndex(next, snap.UnitID)
			if !ok || snap.Next.IsZero() {
				continue
			}
			if !changed {
				next = CloneUnits(next)
				changed = true
			}
			next[idx] = MergeUnitPatch(next[idx], snap.Next)
		}
		return next, changed
	case ResizeBlock:
		return resizeUnits(units, o)
	case BlockBatch:
		changed := false
		next := units
		for _, member := range o.Operations {
			var memberChanged bool
			next, memberChanged = ApplyToUnits(next, member)
			changed = changed || memberChanged
		}
		return next, changed
	default:
		return units, false
	}
}

func resizeUnits(units []Unit, op ResizeBlock) ([]Unit, bool) {
	removed := make(map[string]bool, len(op.Removed))
	for _, u := range op.Removed {
		removed[u.ID] = true
	}
	changed := len(op.Restored) > 0
	next := make([]Unit, 0, len(units)+len(op.Restored))
	for _, u := range units {
		if removed[u.ID] {
			changed = true
			continue
		}
		kept := CloneUnit(u)
		if !op.Shift.IsZero() {
			kept.Position = kept.Position.Shifted(op.Shift)
			changed = true
		}
		next = append(next, kept)
	}
	for _, u := range op.Restored {
		next = append(next, CloneUnit(u))
	}
	if !changed {
		return units, false
	}
	return next, true
}

// ApplyToBlockPalette reduces the palette slice by one block operation.
func ApplyToBlockPalette(palette []Role, op BlockOperation) ([]Role, bool) {
	if batch, ok := op.(BlockBatch); ok {
		changed := false
		next := palette
		for _, member := range batch.Operations {
			var memberChanged bool
			next, memberChanged = ApplyToBlockPalette(next, member)
			changed = changed || memberChanged
		}
		return next, changed
	}
	return applyPaletteChange(palette, op)
}

// applyPaletteChange handles the palette operations shared by both editor
// vocabularies.
func applyPaletteChange(palette []Role, op any) ([]Role, bool) {
	switch o := op.(type) {
	case UpdatePaletteColor:
		_, idx, ok := FindRole(palette, o.RoleID)
		if !ok {
			return palette, false
		}
		next := ClonePalette(palette)
		next[idx].Color = o.NextColor
		return next, true
	case AddRole:
		if _, _, ok := FindRole(palette, o.Role.ID); ok {
			return palette, false
		}
		idx := o.Index
		if idx < 0 || idx > len(palette) {
			idx = len(palette)
		}
		next := make([]Role, 0, len(palette)+1)
		next = append(next, palette[:idx]...)
		next = append(next, o.Role)
		next = append(next, palette[idx:]...)
		return next, true
	case RemoveRole:
		_, idx, ok := FindRole(palette, o.Role.ID)
		if !ok {
			return palette, false
		}
		next := ClonePalette(palette)
		return append(next[:idx], next[idx+1:]...), true
	case RenameRole:
		_, idx, ok := FindRole(palette, o.RoleID)
		if !ok {
			return palette, false
		}
		next := ClonePalette(palette)
		next[idx].Name = o.NextName
		return next, true
	default:
		return palette, false
	}
}

// ApplyToBlockSize reduces the grid size by one block operation.
func ApplyToBlockSize(size int, op BlockOperation) (int, bool) {
	switch o := op.(type) {
	case ResizeBlock:
		if o.NextSize == size {
			return size, false
		}
		return o.NextSize, true
	case BlockBatch:
		changed := false
		next := size
		for _, member := range o.Operations {
			var memberChanged bool
			next, memberChanged = ApplyToBlockSize(next, member)
			changed = changed || memberChanged
		}
		return next, changed
	default:
		return size, false
	}
}

// ApplyBlockOperation reduces a whole block document by one operation,
// returning the updated copy and whether anything changed. Batch members are
// applied in order across all slices.
func ApplyBlockOperation(doc BlockDocument, op BlockOperation) (BlockDocument, bool) {
	if batch, ok := op.(BlockBatch); ok {
		changed := false
		next := doc
		for _, member := range batch.Operations {
			var memberChanged bool
			next, memberChanged = ApplyBlockOperation(next, member)
			changed = changed || memberChanged
		}
		return next, changed
	}
	units, unitsChanged := ApplyToUnits(doc.Units, op)
	palette, paletteChanged := ApplyToBlockPalette(doc.Palette, op)
	size, sizeChanged := ApplyToBlockSize(doc.Size, op)
	if !unitsChanged && !paletteChanged && !sizeChanged {
		return doc, false
	}
	return BlockDocument{Size: size, Units: units, Palette: palette}, true
}

func findUnitIndex(units []Unit, id string) (int, bool) {
	for i, u := range units {
		if u.ID == id {
			return i, true
		}
	}
	return 0, false
}
