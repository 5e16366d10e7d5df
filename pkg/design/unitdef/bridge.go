package unitdef

import "quiltcore/pkg/design"

// RoleChange pairs the before and after patches of a role assignment so the
// caller can record an invertible update without a second lookup.
type RoleChange struct {
	Prev design.UnitPatch
	Next design.UnitPatch
}

// Instantiate builds a new unit of the given type anchored at pos. An empty
// orientation selects the type's default; a non-empty orientation must belong
// to the type's rotation cycle. The chosen role fills the type's primary
// parts and contrastRole fills its secondary parts. Returns false for unknown
// types and invalid orientations.
func Instantiate(t design.UnitType, id string, pos design.Position, orientation design.Orientation, role, contrastRole string) (design.Unit, bool) {
	def, ok := Lookup(t)
	if !ok {
		return design.Unit{}, false
	}
	if orientation == "" {
		orientation = def.DefaultOrientation
	} else if !inCycle(def.Orientations, orientation) {
		return design.Unit{}, false
	}
	unit := design.Unit{
		ID:          id,
		Type:        t,
		Position:    pos,
		Span:        def.SpanFor(orientation),
		Orientation: orientation,
		Roles:       make(map[design.PartID]string, len(def.Parts)),
	}
	secondary := make(map[design.PartID]bool, len(def.SecondaryParts))
	for _, part := range def.SecondaryParts {
		secondary[part] = true
	}
	for _, part := range def.Parts {
		if secondary[part] {
			unit.Roles[part] = contrastRole
		} else {
			unit.Roles[part] = role
		}
	}
	return unit, true
}

// Rotate returns the patch for one clockwise quarter turn, or false when the
// type is rotation-insensitive or the turn would change nothing.
func Rotate(u design.Unit) (design.UnitPatch, bool) {
	def, ok := Lookup(u.Type)
	if !ok {
		return design.UnitPatch{}, false
	}
	patch := design.UnitPatch{}
	if len(def.Orientations) > 0 {
		next := nextInCycle(def.Orientations, orientationOf(def, u))
		or := next
		patch.Orientation = &or
		if span := def.SpanFor(next); span != u.Span {
			s := span
			patch.Span = &s
		}
	}
	if len(def.RotateParts) > 0 {
		patch.Roles = cycleRoles(def.RotateParts, u.Roles)
	}
	if patch.IsZero() {
		return design.UnitPatch{}, false
	}
	return patch, true
}

// FlipHorizontal returns the patch that mirrors the unit across its vertical
// axis, or false when the mirror image is identical.
func FlipHorizontal(u design.Unit) (design.UnitPatch, bool) {
	return flip(u, func(def Definition) FlipRule { return def.FlipHorizontal })
}

// FlipVertical returns the patch that mirrors the unit across its horizontal
// axis, or false when the mirror image is identical.
func FlipVertical(u design.Unit) (design.UnitPatch, bool) {
	return flip(u, func(def Definition) FlipRule { return def.FlipVertical })
}

func flip(u design.Unit, pick func(Definition) FlipRule) (design.UnitPatch, bool) {
	def, ok := Lookup(u.Type)
	if !ok {
		return design.UnitPatch{}, false
	}
	rule := pick(def)
	patch := design.UnitPatch{}
	if len(rule.Orientations) > 0 {
		current := orientationOf(def, u)
		if next, mapped := rule.Orientations[current]; mapped && next != current {
			or := next
			patch.Orientation = &or
			if span := def.SpanFor(next); span != u.Span {
				s := span
				patch.Span = &s
			}
		}
	}
	if rule.SwapParts[0] != "" {
		a, b := rule.SwapParts[0], rule.SwapParts[1]
		roleA, okA := u.Roles[a]
		roleB, okB := u.Roles[b]
		if okA && okB && roleA != roleB {
			patch.Roles = map[design.PartID]string{a: roleB, b: roleA}
		}
	}
	if patch.IsZero() {
		return design.UnitPatch{}, false
	}
	return patch, true
}

// AssignRole resolves the part to a concrete slot, falling back to the
// primary slot when part is absent or not declared by the type, and returns
// the before/after patch pair. Returns false when the slot already holds the
// role.
func AssignRole(u design.Unit, roleID string, part design.PartID) (RoleChange, bool) {
	def, ok := Lookup(u.Type)
	if !ok {
		return RoleChange{}, false
	}
	slot := part
	if slot == "" || !def.HasPart(slot) {
		slot = def.PrimaryPart()
	}
	if u.Roles[slot] == roleID {
		return RoleChange{}, false
	}
	next := design.UnitPatch{Roles: map[design.PartID]string{slot: roleID}}
	return RoleChange{Prev: design.PrevUnitPatch(u, next), Next: next}, true
}

// ReplaceRole substitutes newRoleID into every slot holding oldRoleID.
// Returns false when the unit does not reference the role.
func ReplaceRole(u design.Unit, oldRoleID, newRoleID string) (design.UnitPatch, bool) {
	if oldRoleID == newRoleID {
		return design.UnitPatch{}, false
	}
	var roles map[design.PartID]string
	for part, role := range u.Roles {
		if role == oldRoleID {
			if roles == nil {
				roles = make(map[design.PartID]string)
			}
			roles[part] = newRoleID
		}
	}
	if roles == nil {
		return design.UnitPatch{}, false
	}
	return design.UnitPatch{Roles: roles}, true
}

// UsesRole reports whether any of the unit's slots holds the role.
func UsesRole(u design.Unit, roleID string) bool {
	for _, role := range u.Roles {
		if role == roleID {
			return true
		}
	}
	return false
}

func orientationOf(def Definition, u design.Unit) design.Orientation {
	if u.Orientation != "" {
		return u.Orientation
	}
	return def.DefaultOrientation
}

func inCycle(cycle []design.Orientation, o design.Orientation) bool {
	for _, c := range cycle {
		if c == o {
			return true
		}
	}
	return false
}

func nextInCycle(cycle []design.Orientation, current design.Orientation) design.Orientation {
	for i, o := range cycle {
		if o == current {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

// cycleRoles shifts each assigned role one slot forward through the cycle,
// dropping entries that end up unchanged so the patch stays minimal.
func cycleRoles(cycle []design.PartID, roles map[design.PartID]string) map[design.PartID]string {
	var out map[design.PartID]string
	for i, part := range cycle {
		role, ok := roles[part]
		if !ok {
			continue
		}
		target := cycle[(i+1)%len(cycle)]
		if roles[target] == role {
			continue
		}
		if out == nil {
			out = make(map[design.PartID]string, len(cycle))
		}
		out[target] = role
	}
	return out
}
