package design

// UnitType tags the geometric variant of a placed unit.
type UnitType string

// Built-in unit types. The unitdef registry holds the behavior descriptor for
// each tag; adding a type means adding a descriptor there, not extending
// switches across the codebase.
const (
	// UnitSquare is a single solid square patch.
	UnitSquare UnitType = "square"
	// UnitHalfSquareTriangle is a square split along one diagonal.
	UnitHalfSquareTriangle UnitType = "hst"
	// UnitFlyingGeese is a two-cell directional triangle-in-rectangle piece.
	UnitFlyingGeese UnitType = "flying_geese"
	// UnitQuarterSquareTriangle is a square split along both diagonals.
	UnitQuarterSquareTriangle UnitType = "qst"
)

// Orientation records which way an orientation-bearing unit faces. For an
// hst it names the corner the first triangle occupies; for flying geese it is
// the pointing direction.
type Orientation string

// Corner orientations used by half-square triangles.
const (
	OrientationNW Orientation = "nw"
	OrientationNE Orientation = "ne"
	OrientationSE Orientation = "se"
	OrientationSW Orientation = "sw"
)

// Directional orientations used by flying geese.
const (
	OrientationUp    Orientation = "up"
	OrientationRight Orientation = "right"
	OrientationDown  Orientation = "down"
	OrientationLeft  Orientation = "left"
)

// PartID names one visual part of a unit. Each part carries its own fabric
// role slot.
type PartID string

// Unit is a placed geometric piece inside a block grid. Roles maps each of
// the unit's parts to a palette role id; which parts exist is dictated by the
// unit type's definition.
type Unit struct {
	ID          string            `json:"id"`
	Type        UnitType          `json:"type"`
	Position    Position          `json:"position"`
	Span        Span              `json:"span"`
	Orientation Orientation       `json:"orientation,omitempty"`
	Roles       map[PartID]string `json:"roles"`
}

// CloneUnit returns a deep copy of the unit.
func CloneUnit(u Unit) Unit {
	out := u
	if u.Roles != nil {
		out.Roles = make(map[PartID]string, len(u.Roles))
		for part, role := range u.Roles {
			out.Roles[part] = role
		}
	}
	return out
}

// CloneUnits returns a deep copy of a unit slice.
func CloneUnits(units []Unit) []Unit {
	if units == nil {
		return nil
	}
	out := make([]Unit, len(units))
	for i, u := range units {
		out[i] = CloneUnit(u)
	}
	return out
}

// UnitPatch is a partial update to a unit. Nil fields are untouched; Roles
// lists only the part slots that change.
type UnitPatch struct {
	Position    *Position         `json:"position,omitempty"`
	Span        *Span             `json:"span,omitempty"`
	Orientation *Orientation      `json:"orientation,omitempty"`
	Roles       map[PartID]string `json:"roles,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p UnitPatch) IsZero() bool {
	return p.Position == nil && p.Span == nil && p.Orientation == nil && len(p.Roles) == 0
}

// CloneUnitPatch returns a deep copy of the patch.
func CloneUnitPatch(p UnitPatch) UnitPatch {
	out := UnitPatch{}
	if p.Position != nil {
		pos := *p.Position
		out.Position = &pos
	}
	if p.Span != nil {
		span := *p.Span
		out.Span = &span
	}
	if p.Orientation != nil {
		or := *p.Orientation
		out.Orientation = &or
	}
	if p.Roles != nil {
		out.Roles = make(map[PartID]string, len(p.Roles))
		for part, role := range p.Roles {
			out.Roles[part] = role
		}
	}
	return out
}

// MergeUnitPatch applies a patch to a unit, returning the updated copy. The
// input unit is not mutated.
func MergeUnitPatch(u Unit, p UnitPatch) Unit {
	out := CloneUnit(u)
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Span != nil {
		out.Span = *p.Span
	}
	if p.Orientation != nil {
		out.Orientation = *p.Orientation
	}
	if len(p.Roles) > 0 {
		if out.Roles == nil {
			out.Roles = make(map[PartID]string, len(p.Roles))
		}
		for part, role := range p.Roles {
			out.Roles[part] = role
		}
	}
	return out
}

// PrevUnitPatch captures the unit's current values for exactly the fields a
// forthcoming patch will change, so the pair forms an invertible update.
func PrevUnitPatch(u Unit, next UnitPatch) UnitPatch {
	prev := UnitPatch{}
	if next.Position != nil {
		pos := u.Position
		prev.Position = &pos
	}
	if next.Span != nil {
		span := u.Span
		prev.Span = &span
	}
	if next.Orientation != nil {
		or := u.Orientation
		prev.Orientation = &or
	}
	if len(next.Roles) > 0 {
		prev.Roles = make(map[PartID]string, len(next.Roles))
		for part := range next.Roles {
			prev.Roles[part] = u.Roles[part]
		}
	}
	return prev
}
