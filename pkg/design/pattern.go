package design

import (
	"sort"
	"strings"
)

// Rotation is a quarter-turn instance rotation in degrees.
type Rotation int

// Supported instance rotations.
const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// NextQuarterTurn returns the rotation advanced by 90 degrees.
func NextQuarterTurn(r Rotation) Rotation {
	return Rotation((int(r) + 90) % 360)
}

// PlacedInstance is one placement of a block inside a pattern grid. It
// references the block by id and layers on per-instance transforms plus a
// sparse map of palette-role color overrides, independent of the block's own
// palette.
type PlacedInstance struct {
	ID             string            `json:"id"`
	BlockID        string            `json:"block_id"`
	Position       Position          `json:"position"`
	Rotation       Rotation          `json:"rotation"`
	FlipHorizontal bool              `json:"flip_horizontal"`
	FlipVertical   bool              `json:"flip_vertical"`
	Overrides      map[string]string `json:"overrides,omitempty"`
}

// CloneInstance returns a deep copy of the instance.
func CloneInstance(in PlacedInstance) PlacedInstance {
	out := in
	if in.Overrides != nil {
		out.Overrides = make(map[string]string, len(in.Overrides))
		for role, color := range in.Overrides {
			out.Overrides[role] = color
		}
	}
	return out
}

// CloneInstances returns a deep copy of an instance slice.
func CloneInstances(instances []PlacedInstance) []PlacedInstance {
	if instances == nil {
		return nil
	}
	out := make([]PlacedInstance, len(instances))
	for i, in := range instances {
		out[i] = CloneInstance(in)
	}
	return out
}

// InstancePatch is a partial update to a placed instance. Nil fields are
// untouched. Overrides uses a nil value to delete the override for that role
// and a non-nil value to set it.
type InstancePatch struct {
	Position       *Position          `json:"position,omitempty"`
	Rotation       *Rotation          `json:"rotation,omitempty"`
	FlipHorizontal *bool              `json:"flip_horizontal,omitempty"`
	FlipVertical   *bool              `json:"flip_vertical,omitempty"`
	Overrides      map[string]*string `json:"overrides,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p InstancePatch) IsZero() bool {
	return p.Position == nil && p.Rotation == nil && p.FlipHorizontal == nil &&
		p.FlipVertical == nil && len(p.Overrides) == 0
}

// CloneInstancePatch returns a deep copy of the patch.
func CloneInstancePatch(p InstancePatch) InstancePatch {
	out := InstancePatch{}
	if p.Position != nil {
		pos := *p.Position
		out.Position = &pos
	}
	if p.Rotation != nil {
		rot := *p.Rotation
		out.Rotation = &rot
	}
	if p.FlipHorizontal != nil {
		f := *p.FlipHorizontal
		out.FlipHorizontal = &f
	}
	if p.FlipVertical != nil {
		f := *p.FlipVertical
		out.FlipVertical = &f
	}
	if p.Overrides != nil {
		out.Overrides = make(map[string]*string, len(p.Overrides))
		for role, color := range p.Overrides {
			if color == nil {
				out.Overrides[role] = nil
				continue
			}
			c := *color
			out.Overrides[role] = &c
		}
	}
	return out
}

// MergeInstancePatch applies a patch to an instance, returning the updated
// copy. The input instance is not mutated.
func MergeInstancePatch(in PlacedInstance, p InstancePatch) PlacedInstance {
	out := CloneInstance(in)
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Rotation != nil {
		out.Rotation = *p.Rotation
	}
	if p.FlipHorizontal != nil {
		out.FlipHorizontal = *p.FlipHorizontal
	}
	if p.FlipVertical != nil {
		out.FlipVertical = *p.FlipVertical
	}
	if len(p.Overrides) > 0 {
		if out.Overrides == nil {
			out.Overrides = make(map[string]string, len(p.Overrides))
		}
		for role, color := range p.Overrides {
			if color == nil {
				delete(out.Overrides, role)
				continue
			}
			out.Overrides[role] = *color
		}
		if len(out.Overrides) == 0 {
			out.Overrides = nil
		}
	}
	return out
}

// PrevInstancePatch captures the instance's current values for exactly the
// fields a forthcoming patch will change, so the pair forms an invertible
// update.
func PrevInstancePatch(in PlacedInstance, next InstancePatch) InstancePatch {
	prev := InstancePatch{}
	if next.Position != nil {
		pos := in.Position
		prev.Position = &pos
	}
	if next.Rotation != nil {
		rot := in.Rotation
		prev.Rotation = &rot
	}
	if next.FlipHorizontal != nil {
		f := in.FlipHorizontal
		prev.FlipHorizontal = &f
	}
	if next.FlipVertical != nil {
		f := in.FlipVertical
		prev.FlipVertical = &f
	}
	if len(next.Overrides) > 0 {
		prev.Overrides = make(map[string]*string, len(next.Overrides))
		for role := range next.Overrides {
			if current, ok := in.Overrides[role]; ok {
				c := current
				prev.Overrides[role] = &c
			} else {
				prev.Overrides[role] = nil
			}
		}
	}
	return prev
}

// PatternDocument is the working state of the pattern-level editor: a
// rectangular grid of block instances keyed by position, the pattern palette,
// and an optional border set.
type PatternDocument struct {
	Rows      int              `json:"rows"`
	Cols      int              `json:"cols"`
	Instances []PlacedInstance `json:"instances"`
	Palette   []Role           `json:"palette"`
	Borders   *BorderConfig    `json:"borders,omitempty"`
}

// Default pattern grid dimensions for new documents.
const (
	DefaultPatternRows = 3
	DefaultPatternCols = 3
)

// NewPatternDocument returns an empty pattern document with the default
// palette.
func NewPatternDocument(rows, cols int) PatternDocument {
	if rows <= 0 {
		rows = DefaultPatternRows
	}
	if cols <= 0 {
		cols = DefaultPatternCols
	}
	return PatternDocument{Rows: rows, Cols: cols, Palette: DefaultPalette()}
}

// ClonePatternDocument returns a deep copy of the document.
func ClonePatternDocument(doc PatternDocument) PatternDocument {
	return PatternDocument{
		Rows:      doc.Rows,
		Cols:      doc.Cols,
		Instances: CloneInstances(doc.Instances),
		Palette:   ClonePalette(doc.Palette),
		Borders:   CloneBorderConfig(doc.Borders),
	}
}

// FindInstance locates an instance by id.
func (d PatternDocument) FindInstance(id string) (PlacedInstance, int, bool) {
	for i, in := range d.Instances {
		if in.ID == id {
			return in, i, true
		}
	}
	return PlacedInstance{}, -1, false
}

// InstanceAt returns the instance occupying the cell, if any. A position
// holds at most one instance.
func (d PatternDocument) InstanceAt(pos Position) (PlacedInstance, bool) {
	for _, in := range d.Instances {
		if in.Position == pos {
			return in, true
		}
	}
	return PlacedInstance{}, false
}

// InBounds reports whether the cell lies inside the pattern grid.
func (d PatternDocument) InBounds(pos Position) bool {
	return InBounds(pos, SingleCell, d.Rows, d.Cols)
}

// InstancesOutsideGrid lists the instances that, after the shift is applied,
// fall outside a rows×cols grid.
func InstancesOutsideGrid(instances []PlacedInstance, rows, cols int, shift Offset) []PlacedInstance {
	var removed []PlacedInstance
	for _, in := range instances {
		if !InBounds(in.Position.Shifted(shift), SingleCell, rows, cols) {
			removed = append(removed, CloneInstance(in))
		}
	}
	return removed
}

// ReconcileVariantRoles synchronizes auto-registered variant palette entries
// with the override colors currently in use. An override color that is not
// served by a non-variant role gains a variant entry named after the color;
// variant entries whose color is no longer referenced by any instance are
// removed. The palette is reference-counted by color value, not by role id.
// Returns the updated palette and whether it changed.
func ReconcileVariantRoles(doc PatternDocument) ([]Role, bool) {
	baseColors := make(map[string]bool)
	for _, role := range doc.Palette {
		if !role.Variant {
			baseColors[strings.ToLower(role.Color)] = true
		}
	}
	wanted := make(map[string]string) // normalized color -> original spelling
	for _, in := range doc.Instances {
		for _, color := range in.Overrides {
			normalized := strings.ToLower(color)
			if !baseColors[normalized] {
				if _, ok := wanted[normalized]; !ok {
					wanted[normalized] = color
				}
			}
		}
	}

	changed := false
	next := make([]Role, 0, len(doc.Palette))
	for _, role := range doc.Palette {
		if role.Variant {
			normalized := strings.ToLower(role.Color)
			if _, stillWanted := wanted[normalized]; !stillWanted {
				changed = true
				continue
			}
			delete(wanted, normalized)
		}
		next = append(next, role)
	}

	missing := make([]string, 0, len(wanted))
	for normalized := range wanted {
		missing = append(missing, normalized)
	}
	sort.Strings(missing)
	for _, normalized := range missing {
		color := wanted[normalized]
		next = append(next, Role{
			ID:      VariantRoleID(color),
			Name:    color,
			Color:   color,
			Variant: true,
		})
		changed = true
	}
	if !changed {
		return doc.Palette, false
	}
	return next, true
}
