// Package unitdef holds the behavior descriptor for each unit type and the
// type-erased transformation bridge built on top of them. Editors call the
// bridge without knowing which variant a unit is; adding a unit type means
// registering one new Definition, not extending switches across the codebase.
package unitdef

import (
	"fmt"
	"sort"
	"sync"

	"quiltcore/pkg/design"
)

// PlacementMode describes the gesture that creates a unit of a given type.
type PlacementMode string

const (
	// PlacementSingleTap places the unit on one tapped cell.
	PlacementSingleTap PlacementMode = "single_tap"
	// PlacementTwoTap places the unit across two adjacent cells chosen by
	// consecutive taps.
	PlacementTwoTap PlacementMode = "two_tap"
)

// Part slots used by the built-in unit types.
const (
	PartFill      design.PartID = "fill"
	PartPrimary   design.PartID = "primary"
	PartSecondary design.PartID = "secondary"
	PartGoose     design.PartID = "goose"
	PartSky       design.PartID = "sky"
	PartNorth     design.PartID = "north"
	PartEast      design.PartID = "east"
	PartSouth     design.PartID = "south"
	PartWest      design.PartID = "west"
)

// FlipRule describes how one flip axis transforms a unit: by remapping the
// orientation tag, by swapping two part role assignments, or both. A type
// whose mirror image is itself carries a zero rule and flips as a no-op.
type FlipRule struct {
	Orientations map[design.Orientation]design.Orientation
	SwapParts    [2]design.PartID
}

// Definition describes one unit type: its part slots, geometry, and how the
// transform operations behave on it.
type Definition struct {
	Type design.UnitType
	// Parts lists the role slots in display order. Parts[0] is the primary
	// slot, used when a role assignment names no part.
	Parts []design.PartID
	// SecondaryParts default to the contrast role at instantiation; all
	// other parts default to the chosen role.
	SecondaryParts []design.PartID
	DefaultSpan    design.Span
	// DefaultOrientation is the orientation of a freshly placed unit; empty
	// for orientation-less types.
	DefaultOrientation design.Orientation
	// Orientations is the clockwise rotation cycle. Empty means a quarter
	// turn does not touch the orientation tag.
	Orientations []design.Orientation
	// SpanByOrientation overrides DefaultSpan for orientations whose
	// footprint differs.
	SpanByOrientation map[design.Orientation]design.Span
	// RotateParts, when non-empty, cycles role assignments through these
	// slots on rotation, for types whose quarter turn is a recoloring
	// rather than an orientation change.
	RotateParts    []design.PartID
	FlipHorizontal FlipRule
	FlipVertical   FlipRule
	Placement      PlacementMode
}

// SpanFor returns the footprint of the type at the given orientation.
func (d Definition) SpanFor(o design.Orientation) design.Span {
	if span, ok := d.SpanByOrientation[o]; ok {
		return span
	}
	return d.DefaultSpan
}

// PrimaryPart returns the slot used when a role assignment names no part.
func (d Definition) PrimaryPart() design.PartID {
	return d.Parts[0]
}

// HasPart reports whether the definition declares the slot.
func (d Definition) HasPart(p design.PartID) bool {
	for _, part := range d.Parts {
		if part == p {
			return true
		}
	}
	return false
}

var (
	mu          sync.RWMutex
	definitions = map[design.UnitType]Definition{}
)

func init() {
	for _, def := range builtins() {
		if err := Register(def); err != nil {
			panic(err)
		}
	}
}

// Register adds a unit type definition. Registration fails for malformed
// definitions and for types already registered.
func Register(def Definition) error {
	if err := validate(def); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := definitions[def.Type]; exists {
		return fmt.Errorf("unit type %q already registered", def.Type)
	}
	definitions[def.Type] = def
	return nil
}

// Lookup returns the definition for a unit type.
func Lookup(t design.UnitType) (Definition, bool) {
	mu.RLock()
	defer mu.RUnlock()
	def, ok := definitions[t]
	return def, ok
}

// Types returns the registered unit types in lexical order.
func Types() []design.UnitType {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]design.UnitType, 0, len(definitions))
	for t := range definitions {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func validate(def Definition) error {
	if def.Type == "" {
		return fmt.Errorf("unit definition missing type tag")
	}
	if len(def.Parts) == 0 {
		return fmt.Errorf("unit type %q declares no parts", def.Type)
	}
	seen := map[design.PartID]bool{}
	for _, part := range def.Parts {
		if part == "" {
			return fmt.Errorf("unit type %q declares an empty part id", def.Type)
		}
		if seen[part] {
			return fmt.Errorf("unit type %q declares part %q twice", def.Type, part)
		}
		seen[part] = true
	}
	for _, part := range def.SecondaryParts {
		if !def.HasPart(part) {
			return fmt.Errorf("unit type %q secondary part %q is not a declared part", def.Type, part)
		}
	}
	for _, part := range def.RotateParts {
		if !def.HasPart(part) {
			return fmt.Errorf("unit type %q rotate part %q is not a declared part", def.Type, part)
		}
	}
	for _, rule := range []FlipRule{def.FlipHorizontal, def.FlipVertical} {
		if rule.SwapParts[0] == "" && rule.SwapParts[1] == "" {
			continue
		}
		if !def.HasPart(rule.SwapParts[0]) || !def.HasPart(rule.SwapParts[1]) {
			return fmt.Errorf("unit type %q flip swaps undeclared parts", def.Type)
		}
	}
	if def.DefaultSpan.Rows < 1 || def.DefaultSpan.Cols < 1 {
		return fmt.Errorf("unit type %q default span must cover at least one cell", def.Type)
	}
	if len(def.Orientations) > 0 {
		found := false
		for _, o := range def.Orientations {
			if o == def.DefaultOrientation {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unit type %q default orientation %q is not in its rotation cycle", def.Type, def.DefaultOrientation)
		}
	}
	switch def.Placement {
	case PlacementSingleTap, PlacementTwoTap:
	default:
		return fmt.Errorf("unit type %q has unknown placement mode %q", def.Type, def.Placement)
	}
	return nil
}

func builtins() []Definition {
	return []Definition{
		{
			Type:        design.UnitSquare,
			Parts:       []design.PartID{PartFill},
			DefaultSpan: design.SingleCell,
			Placement:   PlacementSingleTap,
		},
		{
			Type:               design.UnitHalfSquareTriangle,
			Parts:              []design.PartID{PartPrimary, PartSecondary},
			SecondaryParts:     []design.PartID{PartSecondary},
			DefaultSpan:        design.SingleCell,
			DefaultOrientation: design.OrientationNW,
			Orientations: []design.Orientation{
				design.OrientationNW,
				design.OrientationNE,
				design.OrientationSE,
				design.OrientationSW,
			},
			FlipHorizontal: FlipRule{Orientations: map[design.Orientation]design.Orientation{
				design.OrientationNW: design.OrientationNE,
				design.OrientationNE: design.OrientationNW,
				design.OrientationSE: design.OrientationSW,
				design.OrientationSW: design.OrientationSE,
			}},
			FlipVertical: FlipRule{Orientations: map[design.Orientation]design.Orientation{
				design.OrientationNW: design.OrientationSW,
				design.OrientationSW: design.OrientationNW,
				design.OrientationNE: design.OrientationSE,
				design.OrientationSE: design.OrientationNE,
			}},
			Placement: PlacementSingleTap,
		},
		{
			Type:               design.UnitFlyingGeese,
			Parts:              []design.PartID{PartGoose, PartSky},
			SecondaryParts:     []design.PartID{PartSky},
			DefaultSpan:        design.Span{Rows: 1, Cols: 2},
			DefaultOrientation: design.OrientationRight,
			Orientations: []design.Orientation{
				design.OrientationRight,
				design.OrientationDown,
				design.OrientationLeft,
				design.OrientationUp,
			},
			SpanByOrientation: map[design.Orientation]design.Span{
				design.OrientationRight: {Rows: 1, Cols: 2},
				design.OrientationLeft:  {Rows: 1, Cols: 2},
				design.OrientationUp:    {Rows: 2, Cols: 1},
				design.OrientationDown:  {Rows: 2, Cols: 1},
			},
			FlipHorizontal: FlipRule{Orientations: map[design.Orientation]design.Orientation{
				design.OrientationRight: design.OrientationLeft,
				design.OrientationLeft:  design.OrientationRight,
			}},
			FlipVertical: FlipRule{Orientations: map[design.Orientation]design.Orientation{
				design.OrientationUp:   design.OrientationDown,
				design.OrientationDown: design.OrientationUp,
			}},
			Placement: PlacementTwoTap,
		},
		{
			Type:           design.UnitQuarterSquareTriangle,
			Parts:          []design.PartID{PartNorth, PartEast, PartSouth, PartWest},
			SecondaryParts: []design.PartID{PartEast, PartWest},
			DefaultSpan:    design.SingleCell,
			RotateParts:    []design.PartID{PartNorth, PartEast, PartSouth, PartWest},
			FlipHorizontal: FlipRule{SwapParts: [2]design.PartID{PartEast, PartWest}},
			FlipVertical:   FlipRule{SwapParts: [2]design.PartID{PartNorth, PartSouth}},
			Placement:      PlacementSingleTap,
		},
	}
}
