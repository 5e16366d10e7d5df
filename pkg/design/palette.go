package design

import (
	"fmt"
	"strings"
)

// Role is a named, colored fabric slot referenced by units and instances
// instead of a literal color. Variant marks palette entries that were
// auto-registered from per-instance color overrides; they are garbage
// collected when the last referencing override disappears.
type Role struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Variant bool   `json:"variant,omitempty"`
}

// MaxPaletteRoles caps how many roles a palette may hold. AddRole rejects
// once the cap is reached.
const MaxPaletteRoles = 12

// defaultRoleColors is the fixed fallback palette cycled through when new
// roles are created without an explicit color.
var defaultRoleColors = []string{
	"#f4efe6",
	"#1f3a5f",
	"#a8323e",
	"#3e7c4f",
	"#e0a030",
	"#6b4f9e",
	"#2e8b94",
	"#d96c9f",
}

// DefaultPalette returns the palette a fresh document starts with. A palette
// must never be empty, so new documents begin with these roles.
func DefaultPalette() []Role {
	return []Role{
		{ID: "background", Name: "Background", Color: defaultRoleColors[0]},
		{ID: "feature", Name: "Feature", Color: defaultRoleColors[1]},
	}
}

// NextFallbackColor picks the first default color not already used by a role,
// cycling back to the start of the fixed list when all are taken.
func NextFallbackColor(palette []Role) string {
	used := make(map[string]bool, len(palette))
	for _, role := range palette {
		used[strings.ToLower(role.Color)] = true
	}
	for _, color := range defaultRoleColors {
		if !used[strings.ToLower(color)] {
			return color
		}
	}
	return defaultRoleColors[len(palette)%len(defaultRoleColors)]
}

// FindRole locates a role by id, returning its index in palette order.
func FindRole(palette []Role, id string) (Role, int, bool) {
	for i, role := range palette {
		if role.ID == id {
			return role, i, true
		}
	}
	return Role{}, -1, false
}

// ClonePalette returns a deep copy of the palette slice.
func ClonePalette(palette []Role) []Role {
	if palette == nil {
		return nil
	}
	out := make([]Role, len(palette))
	copy(out, palette)
	return out
}

const variantRolePrefix = "variant-"

// VariantRoleID derives the deterministic role id used for an auto-registered
// variant color, so undo, redo, and reload converge on identical palettes.
func VariantRoleID(color string) string {
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(color), "#"))
	return fmt.Sprintf("%s%s", variantRolePrefix, normalized)
}
