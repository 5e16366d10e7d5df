package design

import (
	"reflect"
	"testing"
)

func testInstance(id string, row, col int) PlacedInstance {
	return PlacedInstance{
		ID:       id,
		BlockID:  "b-1",
		Position: Position{Row: row, Col: col},
	}
}

func TestNextQuarterTurn(t *testing.T) {
	seq := []Rotation{Rotation0, Rotation90, Rotation180, Rotation270, Rotation0}
	for i := 0; i < len(seq)-1; i++ {
		if got := NextQuarterTurn(seq[i]); got != seq[i+1] {
			t.Fatalf("NextQuarterTurn(%d) = %d, want %d", seq[i], got, seq[i+1])
		}
	}
}

func TestNewPatternDocumentDefaults(t *testing.T) {
	doc := NewPatternDocument(0, 0)
	if doc.Rows != DefaultPatternRows || doc.Cols != DefaultPatternCols {
		t.Fatalf("dimensions = %dx%d", doc.Rows, doc.Cols)
	}
	if !reflect.DeepEqual(doc.Palette, DefaultPalette()) {
		t.Fatalf("palette = %+v", doc.Palette)
	}
	doc = NewPatternDocument(2, 5)
	if doc.Rows != 2 || doc.Cols != 5 {
		t.Fatalf("explicit dimensions = %dx%d", doc.Rows, doc.Cols)
	}
}

func TestInstanceLookups(t *testing.T) {
	doc := NewPatternDocument(3, 3)
	doc.Instances = []PlacedInstance{testInstance("i-1", 0, 0), testInstance("i-2", 1, 2)}

	if got, ok := doc.InstanceAt(Position{Row: 1, Col: 2}); !ok || got.ID != "i-2" {
		t.Fatalf("InstanceAt = %+v, %v", got, ok)
	}
	if _, ok := doc.InstanceAt(Position{Row: 2, Col: 2}); ok {
		t.Fatalf("empty cell reported occupied")
	}
	if _, idx, ok := doc.FindInstance("i-1"); !ok || idx != 0 {
		t.Fatalf("FindInstance idx = %d, ok = %v", idx, ok)
	}
	if _, idx, ok := doc.FindInstance("missing"); ok || idx != -1 {
		t.Fatalf("FindInstance(missing) idx = %d, ok = %v", idx, ok)
	}
}

func TestInstancesOutsideGrid(t *testing.T) {
	instances := []PlacedInstance{
		testInstance("i-1", 0, 0),
		testInstance("i-2", 2, 2),
	}
	removed := InstancesOutsideGrid(instances, 2, 3, Offset{})
	if len(removed) != 1 || removed[0].ID != "i-2" {
		t.Fatalf("shrink removed %+v", removed)
	}
	removed = InstancesOutsideGrid(instances, 3, 3, Offset{Cols: 1})
	if len(removed) != 1 || removed[0].ID != "i-2" {
		t.Fatalf("shift removed %+v", removed)
	}
}

func TestMergeInstancePatchOverrides(t *testing.T) {
	in := testInstance("i-1", 0, 0)
	in.Overrides = map[string]string{"feature": "#111111"}

	set := "#222222"
	out := MergeInstancePatch(in, InstancePatch{Overrides: map[string]*string{"background": &set}})
	if out.Overrides["background"] != "#222222" || out.Overrides["feature"] != "#111111" {
		t.Fatalf("overrides after set = %v", out.Overrides)
	}
	if in.Overrides["background"] != "" {
		t.Fatalf("input instance mutated: %v", in.Overrides)
	}

	out = MergeInstancePatch(in, InstancePatch{Overrides: map[string]*string{"feature": nil}})
	if out.Overrides != nil {
		t.Fatalf("deleting the last override must clear the map, got %v", out.Overrides)
	}
}

func TestPrevInstancePatchRoundTrips(t *testing.T) {
	in := testInstance("i-1", 1, 1)
	in.Rotation = Rotation90
	in.Overrides = map[string]string{"feature": "#111111"}

	pos := Position{Row: 2, Col: 2}
	rot := Rotation180
	flip := true
	set := "#222222"
	next := InstancePatch{
		Position:       &pos,
		Rotation:       &rot,
		FlipHorizontal: &flip,
		Overrides:      map[string]*string{"feature": &set, "background": &set},
	}

	prev := PrevInstancePatch(in, next)
	if prev.Overrides["background"] != nil {
		t.Fatalf("absent override must capture nil, got %v", prev.Overrides["background"])
	}
	if prev.Overrides["feature"] == nil || *prev.Overrides["feature"] != "#111111" {
		t.Fatalf("present override captured %v", prev.Overrides["feature"])
	}

	restored := MergeInstancePatch(MergeInstancePatch(in, next), prev)
	if !reflect.DeepEqual(restored, in) {
		t.Fatalf("patch pair is not invertible: %+v vs %+v", restored, in)
	}
}

func TestReconcileVariantRolesRegistersAndCollects(t *testing.T) {
	doc := NewPatternDocument(3, 3)
	doc.Instances = []PlacedInstance{
		testInstance("i-1", 0, 0),
		testInstance("i-2", 0, 1),
	}
	doc.Instances[0].Overrides = map[string]string{"feature": "#FF8800"}
	doc.Instances[1].Overrides = map[string]string{"feature": "#ff8800"}

	palette, changed := ReconcileVariantRoles(doc)
	if !changed {
		t.Fatalf("expected a variant entry to be registered")
	}
	if len(palette) != 3 {
		t.Fatalf("palette = %+v", palette)
	}
	variant := palette[2]
	if !variant.Variant || variant.ID != "variant-ff8800" {
		t.Fatalf("variant entry = %+v", variant)
	}
	if variant.Name != "#FF8800" || variant.Color != "#FF8800" {
		t.Fatalf("first spelling encountered must win, got %+v", variant)
	}

	// A second pass over the reconciled document is a no-op.
	doc.Palette = palette
	if same, changed := ReconcileVariantRoles(doc); changed || !reflect.DeepEqual(same, palette) {
		t.Fatalf("reconcile not idempotent: %+v", same)
	}

	// The entry survives while either spelling is referenced and is
	// collected when the last reference disappears.
	doc.Instances[0].Overrides = nil
	if palette, changed := ReconcileVariantRoles(doc); changed || len(palette) != 3 {
		t.Fatalf("variant collected while still referenced: %+v", palette)
	}
	doc.Instances[1].Overrides = nil
	palette, changed = ReconcileVariantRoles(doc)
	if !changed || len(palette) != 2 {
		t.Fatalf("orphaned variant not collected: %+v", palette)
	}
}

func TestReconcileVariantRolesIgnoresBaseColors(t *testing.T) {
	doc := NewPatternDocument(3, 3)
	doc.Instances = []PlacedInstance{testInstance("i-1", 0, 0)}
	doc.Instances[0].Overrides = map[string]string{"feature": "#F4EFE6"}

	palette, changed := ReconcileVariantRoles(doc)
	if changed {
		t.Fatalf("override matching a base color registered a variant: %+v", palette)
	}
}

func TestReconcileVariantRolesAppendsSorted(t *testing.T) {
	doc := NewPatternDocument(3, 3)
	doc.Instances = []PlacedInstance{
		testInstance("i-1", 0, 0),
		testInstance("i-2", 0, 1),
	}
	doc.Instances[0].Overrides = map[string]string{"feature": "#CC0000"}
	doc.Instances[1].Overrides = map[string]string{"feature": "#AA0000"}

	palette, changed := ReconcileVariantRoles(doc)
	if !changed || len(palette) != 4 {
		t.Fatalf("palette = %+v", palette)
	}
	if palette[2].ID != "variant-aa0000" || palette[3].ID != "variant-cc0000" {
		t.Fatalf("variants not appended in color order: %+v", palette[2:])
	}
}
