package design

// PatternOperation is the closed set of reversible edits understood by the
// pattern-level editor. The palette operations (UpdatePaletteColor, AddRole,
// RemoveRole, RenameRole) are shared with the block vocabulary; everything
// else is pattern-specific.
type PatternOperation interface {
	isPatternOperation()
}

// AddInstance places a block instance. Its mirror image is RemoveInstance.
type AddInstance struct {
	Instance PlacedInstance `json:"instance"`
}

// RemoveInstance deletes a block instance, carrying the full entity so the
// inverse add needs no lookup.
type RemoveInstance struct {
	Instance PlacedInstance `json:"instance"`
}

// UpdateInstance is a generic partial-field update over an instance. Prev
// holds the old values of exactly the fields Next changes.
type UpdateInstance struct {
	InstanceID string        `json:"instance_id"`
	Prev       InstancePatch `json:"prev"`
	Next       InstancePatch `json:"next"`
}

// ResizePattern changes the pattern grid dimensions. Rows and columns are
// carried explicitly so a resize that grows one axis while shrinking the
// other still records exactly which instances were removed and how survivors
// shifted; nothing is inferred from size-delta direction.
type ResizePattern struct {
	PrevRows int              `json:"prev_rows"`
	PrevCols int              `json:"prev_cols"`
	NextRows int              `json:"next_rows"`
	NextCols int              `json:"next_cols"`
	Removed  []PlacedInstance `json:"removed,omitempty"`
	Restored []PlacedInstance `json:"restored,omitempty"`
	Shift    Offset           `json:"shift"`
}

// AddBorder inserts a border at Index. Adding the first border materializes
// the border config.
type AddBorder struct {
	Border Border `json:"border"`
	Index  int    `json:"index"`
}

// RemoveBorder deletes a border. Removing the last border drops the config.
type RemoveBorder struct {
	Border Border `json:"border"`
	Index  int    `json:"index"`
}

// UpdateBorder is a partial-field update over one border.
type UpdateBorder struct {
	BorderID string      `json:"border_id"`
	Prev     BorderPatch `json:"prev"`
	Next     BorderPatch `json:"next"`
}

// SetBordersEnabled toggles whether the border set is rendered.
type SetBordersEnabled struct {
	Prev bool `json:"prev"`
	Next bool `json:"next"`
}

// PatternBatch groups operations applied in order and undone as one step.
type PatternBatch struct {
	Operations []PatternOperation `json:"operations"`
}

func (AddInstance) isPatternOperation()        {}
func (RemoveInstance) isPatternOperation()     {}
func (UpdateInstance) isPatternOperation()     {}
func (ResizePattern) isPatternOperation()      {}
func (AddBorder) isPatternOperation()          {}
func (RemoveBorder) isPatternOperation()       {}
func (UpdateBorder) isPatternOperation()       {}
func (SetBordersEnabled) isPatternOperation()  {}
func (PatternBatch) isPatternOperation()       {}
func (UpdatePaletteColor) isPatternOperation() {}
func (AddRole) isPatternOperation()            {}
func (RemoveRole) isPatternOperation()         {}
func (RenameRole) isPatternOperation()         {}

// InvertPatternOperation returns the operation that exactly undoes op, with
// the same structural guarantees as InvertBlockOperation.
func InvertPatternOperation(op PatternOperation) PatternOperation {
	switch o := op.(type) {
	case AddInstance:
		return RemoveInstance{Instance: CloneInstance(o.Instance)}
	case RemoveInstance:
		return AddInstance{Instance: CloneInstance(o.Instance)}
	case UpdateInstance:
		return UpdateInstance{
			InstanceID: o.InstanceID,
			Prev:       CloneInstancePatch(o.Next),
			Next:       CloneInstancePatch(o.Prev),
		}
	case ResizePattern:
		return ResizePattern{
			PrevRows: o.NextRows,
			PrevCols: o.NextCols,
			NextRows: o.PrevRows,
			NextCols: o.PrevCols,
			Removed:  CloneInstances(o.Restored),
			Restored: CloneInstances(o.Removed),
			Shift:    o.Shift.Negated(),
		}
	case AddBorder:
		return RemoveBorder{Border: o.Border, Index: o.Index}
	case RemoveBorder:
		return AddBorder{Border: o.Border, Index: o.Index}
	case UpdateBorder:
		return UpdateBorder{BorderID: o.BorderID, Prev: o.Next, Next: o.Prev}
	case SetBordersEnabled:
		return SetBordersEnabled{Prev: o.Next, Next: o.Prev}
	case UpdatePaletteColor:
		return UpdatePaletteColor{RoleID: o.RoleID, PrevColor: o.NextColor, NextColor: o.PrevColor}
	case AddRole:
		return RemoveRole{Role: o.Role, Index: o.Index}
	case RemoveRole:
		if len(o.Instances) == 0 {
			return AddRole{Role: o.Role, Index: o.Index}
		}
		members := []PatternOperation{AddRole{Role: o.Role, Index: o.Index}}
		for _, snap := range o.Instances {
			members = append(members, UpdateInstance{
				InstanceID: snap.InstanceID,
				Prev:       CloneInstancePatch(snap.Next),
				Next:       CloneInstancePatch(snap.Prev),
			})
		}
		return PatternBatch{Operations: members}
	case RenameRole:
		return RenameRole{RoleID: o.RoleID, PrevName: o.NextName, NextName: o.PrevName}
	case PatternBatch:
		inverted := make([]PatternOperation, len(o.Operations))
		for i, member := range o.Operations {
			inverted[len(o.Operations)-1-i] = InvertPatternOperation(member)
		}
		return PatternBatch{Operations: inverted}
	default:
		return op
	}
}

// ApplyToInstances reduces the instance slice by one operation.
func ApplyToInstances(instances []PlacedInstance, op PatternOperation) ([]PlacedInstance, bool) {
	switch o := op.(type) {
	case AddInstance:
		if _, ok := findInstanceIndex(instances, o.Instance.ID); ok {
			return instances, false
		}
		next := CloneInstances(instances)
		return append(next, CloneInstance(o.Instance)), true
	case RemoveInstance:
		idx, ok := findInstanceIndex(instances, o.Instance.ID)
		if !ok {
			return instances, false
		}
		next := CloneInstances(instances)
		return append(next[:idx], next[idx+1:]...), true
	case UpdateInstance:
		idx, ok := findInstanceIndex(instances, o.InstanceID)
		if !ok || o.Next.IsZero() {
			return instances, false
		}
		next := CloneInstances(instances)
		next[idx] = MergeInstancePatch(next[idx], o.Next)
		return next, true
	case RemoveRole:
		changed := false
		next := instances
		for _, snap := range o.Instances {
			idx, ok := findInstanceIndex(next, snap.InstanceID)
			if !ok || snap.Next.IsZero() {
				continue
			}
			if !changed {
				next = CloneInstances(next)
				changed = true
			}
			next[idx] = MergeInstancePatch(next[idx], snap.Next)
		}
		return next, changed
	case ResizePattern:
		return resizeInstances(instances, o)
	case PatternBatch:
		changed := false
		next := instances
		for _, member := range o.Operations {
			var memberChanged bool
			next, memberChanged = ApplyToInstances(next, member)
			changed = changed || memberChanged
		}
		return next, changed
	default:
		return instances, false
	}
}

func resizeInstances(instances []PlacedInstance, op ResizePattern) ([]PlacedInstance, bool) {
	removed := make(map[string]bool, len(op.Removed))
	for _, in := range op.Removed {
		removed[in.ID] = true
	}
	changed := len(op.Restored) > 0
	next := make([]PlacedInstance, 0, len(instances)+len(op.Restored))
	for _, in := range instances {
		if removed[in.ID] {
			changed = true
			continue
		}
		kept := CloneInstance(in)
		if !op.Shift.IsZero() {
			kept.Position = kept.Position.Shifted(op.Shift)
			changed = true
		}
		next = append(next, kept)
	}
	for _, in := range op.Restored {
		next = append(next, CloneInstance(in))
	}
	if !changed {
		return instances, false
	}
	return next, true
}

// ApplyToPatternPalette reduces the palette slice by one pattern operation.
func ApplyToPatternPalette(palette []Role, op PatternOperation) ([]Role, bool) {
	if batch, ok := op.(PatternBatch); ok {
		changed := false
		next := palette
		for _, member := range batch.Operations {
			var memberChanged bool
			next, memberChanged = ApplyToPatternPalette(next, member)
			changed = changed || memberChanged
		}
		return next, changed
	}
	return applyPaletteChange(palette, op)
}

// ApplyToPatternSize reduces the grid dimensions by one pattern operation.
func ApplyToPatternSize(rows, cols int, op PatternOperation) (int, int, bool) {
	switch o := op.(type) {
	case ResizePattern:
		if o.NextRows == rows && o.NextCols == cols {
			return rows, cols, false
		}
		return o.NextRows, o.NextCols, true
	case PatternBatch:
		changed := false
		nextRows, nextCols := rows, cols
		for _, member := range o.Operations {
			var memberChanged bool
			nextRows, nextCols, memberChanged = ApplyToPatternSize(nextRows, nextCols, member)
			changed = changed || memberChanged
		}
		return nextRows, nextCols, changed
	default:
		return rows, cols, false
	}
}

// ApplyToBorders reduces the border config by one pattern operation. Adding
// to a nil config materializes it enabled; removing the last border returns
// the config to nil.
func ApplyToBorders(cfg *BorderConfig, op PatternOperation) (*BorderConfig, bool) {
	switch o := op.(type) {
	case AddBorder:
		if _, _, ok := FindBorder(cfg, o.Border.ID); ok {
			return cfg, false
		}
		next := CloneBorderConfig(cfg)
		if next == nil {
			next = &BorderConfig{Enabled: true}
		}
		idx := o.Index
		if idx < 0 || idx > len(next.Borders) {
			idx = len(next.Borders)
		}
		borders := make([]Border, 0, len(next.Borders)+1)
		borders = append(borders, next.Borders[:idx]...)
		borders = append(borders, o.Border)
		borders = append(borders, next.Borders[idx:]...)
		next.Borders = borders
		return next, true
	case RemoveBorder:
		_, idx, ok := FindBorder(cfg, o.Border.ID)
		if !ok {
			return cfg, false
		}
		next := CloneBorderConfig(cfg)
		next.Borders = append(next.Borders[:idx], next.Borders[idx+1:]...)
		if len(next.Borders) == 0 {
			return nil, true
		}
		return next, true
	case UpdateBorder:
		_, idx, ok := FindBorder(cfg, o.BorderID)
		if !ok || o.Next.IsZero() {
			return cfg, false
		}
		next := CloneBorderConfig(cfg)
		next.Borders[idx] = MergeBorderPatch(next.Borders[idx], o.Next)
		return next, true
	case SetBordersEnabled:
		if cfg == nil || cfg.Enabled == o.Next {
			return cfg, false
		}
		next := CloneBorderConfig(cfg)
		next.Enabled = o.Next
		return next, true
	case PatternBatch:
		changed := false
		next := cfg
		for _, member := range o.Operations {
			var memberChanged bool
			next, memberChanged = ApplyToBorders(next, member)
			changed = changed || memberChanged
		}
		return next, changed
	default:
		return cfg, false
	}
}

// ApplyPatternOperation reduces a whole pattern document by one operation,
// then reconciles variant palette entries against the override colors in
// use. Batch members are applied in order across all slices.
func ApplyPatternOperation(doc PatternDocument, op PatternOperation) (PatternDocument, bool) {
	next, changed := applyPatternSlices(doc, op)
	palette, reconciled := ReconcileVariantRoles(next)
	if reconciled {
		next.Palette = palette
		changed = true
	}
	return next, changed
}

func applyPatternSlices(doc PatternDocument, op PatternOperation) (PatternDocument, bool) {
	if batch, ok := op.(PatternBatch); ok {
		changed := false
		next := doc
		for _, member := range batch.Operations {
			var memberChanged bool
			next, memberChanged = applyPatternSlices(next, member)
			changed = changed || memberChanged
		}
		return next, changed
	}
	instances, instancesChanged := ApplyToInstances(doc.Instances, op)
	palette, paletteChanged := ApplyToPatternPalette(doc.Palette, op)
	rows, cols, sizeChanged := ApplyToPatternSize(doc.Rows, doc.Cols, op)
	borders, bordersChanged := ApplyToBorders(doc.Borders, op)
	if !instancesChanged && !paletteChanged && !sizeChanged && !bordersChanged {
		return doc, false
	}
	return PatternDocument{
		Rows:      rows,
		Cols:      cols,
		Instances: instances,
		Palette:   palette,
		Borders:   borders,
	}, true
}

func findInstanceIndex(instances []PlacedInstance, id string) (int, bool) {
	for i, in := range instances {
		if in.ID == id {
			return i, true
		}
	}
	return 0, false
}
