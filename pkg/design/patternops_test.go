package design

import (
	"reflect"
	"testing"
)

// patternOpsDocument is reconciled at rest: the accent override on i-1 is
// matched by the variant entry appended last in the palette, so applying any
// operation and its inverse lands back on an identical document.
func patternOpsDocument() PatternDocument {
	doc := NewPatternDocument(3, 3)
	doc.Palette = append(doc.Palette,
		Role{ID: "accent", Name: "Accent", Color: "#a8323e"},
		Role{ID: "variant-123123", Name: "#123123", Color: "#123123", Variant: true},
	)
	doc.Instances = []PlacedInstance{testInstance("i-1", 0, 0), testInstance("i-2", 2, 2)}
	doc.Instances[0].Overrides = map[string]string{"accent": "#123123"}
	doc.Borders = &BorderConfig{Enabled: true, Borders: []Border{{
		ID:          "border-1",
		WidthInches: 2.5,
		Style:       BorderStyleSolid,
		FabricRole:  "background",
		CornerStyle: CornerStyleOverlap,
	}}}
	return doc
}

func TestInvertPatternOperationRoundTrips(t *testing.T) {
	rot := Rotation90
	prevRot := Rotation0
	width := 4.0
	prevWidth := 2.5
	override := "#123123"

	cases := []struct {
		name string
		op   PatternOperation
	}{
		{"add instance", AddInstance{Instance: testInstance("i-9", 1, 1)}},
		{"remove instance", RemoveInstance{Instance: patternOpsDocument().Instances[1]}},
		{"update instance", UpdateInstance{
			InstanceID: "i-2",
			Prev:       InstancePatch{Rotation: &prevRot},
			Next:       InstancePatch{Rotation: &rot},
		}},
		{"resize", ResizePattern{
			PrevRows: 3, PrevCols: 3,
			NextRows: 2, NextCols: 3,
			Removed: []PlacedInstance{patternOpsDocument().Instances[1]},
		}},
		{"add border", AddBorder{
			Border: Border{ID: "border-2", WidthInches: 3, Style: BorderStylePieced, FabricRole: "feature", CornerStyle: CornerStyleMitered},
			Index:  1,
		}},
		{"remove last border", RemoveBorder{Border: patternOpsDocument().Borders.Borders[0], Index: 0}},
		{"update border", UpdateBorder{
			BorderID: "border-1",
			Prev:     BorderPatch{WidthInches: &prevWidth},
			Next:     BorderPatch{WidthInches: &width},
		}},
		{"toggle borders", SetBordersEnabled{Prev: true, Next: false}},
		{"recolor role", UpdatePaletteColor{RoleID: "feature", PrevColor: "#1f3a5f", NextColor: "#000000"}},
		{"rename role", RenameRole{RoleID: "feature", PrevName: "Feature", NextName: "Sashing"}},
		{"remove role with override cascade", RemoveRole{
			Role:       Role{ID: "accent", Name: "Accent", Color: "#a8323e"},
			Index:      2,
			FallbackID: "background",
			Instances: []InstanceRoleSnapshot{{
				InstanceID: "i-1",
				Prev:       InstancePatch{Overrides: map[string]*string{"accent": &override}},
				Next:       InstancePatch{Overrides: map[string]*string{"accent": nil}},
			}},
		}},
		{"replace occupant batch", PatternBatch{Operations: []PatternOperation{
			RemoveInstance{Instance: patternOpsDocument().Instances[1]},
			AddInstance{Instance: testInstance("i-9", 2, 2)},
		}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := patternOpsDocument()
			applied, changed := ApplyPatternOperation(doc, tc.op)
			if !changed {
				t.Fatalf("operation reported no change")
			}
			restored, changed := ApplyPatternOperation(applied, InvertPatternOperation(tc.op))
			if !changed {
				t.Fatalf("inverse reported no change")
			}
			if !reflect.DeepEqual(restored, doc) {
				t.Fatalf("round trip diverged:\n got %+v\nwant %+v", restored, doc)
			}
		})
	}
}

// Double inversion returns every operation to its original structure, with
// the same snapshot-carrying RemoveRole carve-out as the block vocabulary.
func TestInvertPatternOperationIsInvolutive(t *testing.T) {
	rot := Rotation90
	prevRot := Rotation0
	width := 4.0
	prevWidth := 2.5

	cases := []struct {
		name string
		op   PatternOperation
	}{
		{"add instance", AddInstance{Instance: testInstance("i-9", 1, 1)}},
		{"remove instance", RemoveInstance{Instance: patternOpsDocument().Instances[1]}},
		{"update instance", UpdateInstance{
			InstanceID: "i-2",
			Prev:       InstancePatch{Rotation: &prevRot},
			Next:       InstancePatch{Rotation: &rot},
		}},
		{"resize", ResizePattern{
			PrevRows: 3, PrevCols: 3,
			NextRows: 2, NextCols: 3,
			Removed: []PlacedInstance{patternOpsDocument().Instances[1]},
			Shift:   Offset{Rows: -1},
		}},
		{"add border", AddBorder{Border: patternOpsDocument().Borders.Borders[0], Index: 0}},
		{"remove border", RemoveBorder{Border: patternOpsDocument().Borders.Borders[0], Index: 0}},
		{"update border", UpdateBorder{
			BorderID: "border-1",
			Prev:     BorderPatch{WidthInches: &prevWidth},
			Next:     BorderPatch{WidthInches: &width},
		}},
		{"toggle borders", SetBordersEnabled{Prev: true, Next: false}},
		{"recolor role", UpdatePaletteColor{RoleID: "feature", PrevColor: "#1f3a5f", NextColor: "#000000"}},
		{"rename role", RenameRole{RoleID: "feature", PrevName: "Feature", NextName: "Sashing"}},
		{"add role", AddRole{Role: Role{ID: "sashing", Name: "Sashing", Color: "#3e7c4f"}, Index: 1}},
		{"remove unreferenced role", RemoveRole{Role: Role{ID: "sashing", Name: "Sashing", Color: "#3e7c4f"}, Index: 1}},
		{"batch", PatternBatch{Operations: []PatternOperation{
			RemoveInstance{Instance: patternOpsDocument().Instances[1]},
			AddInstance{Instance: testInstance("i-9", 2, 2)},
		}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InvertPatternOperation(InvertPatternOperation(tc.op))
			if !reflect.DeepEqual(got, tc.op) {
				t.Fatalf("double inversion diverged:\n got %+v\nwant %+v", got, tc.op)
			}
		})
	}
}

func TestRemoveRoleCascadeCollectsVariant(t *testing.T) {
	doc := patternOpsDocument()
	override := "#123123"
	op := RemoveRole{
		Role:       Role{ID: "accent", Name: "Accent", Color: "#a8323e"},
		Index:      2,
		FallbackID: "background",
		Instances: []InstanceRoleSnapshot{{
			InstanceID: "i-1",
			Prev:       InstancePatch{Overrides: map[string]*string{"accent": &override}},
			Next:       InstancePatch{Overrides: map[string]*string{"accent": nil}},
		}},
	}

	applied, changed := ApplyPatternOperation(doc, op)
	if !changed {
		t.Fatalf("cascade reported no change")
	}
	if applied.Instances[0].Overrides != nil {
		t.Fatalf("override survived: %v", applied.Instances[0].Overrides)
	}
	if len(applied.Palette) != 2 {
		t.Fatalf("accent and its variant must both be gone: %+v", applied.Palette)
	}
}

func TestApplyToBordersLifecycle(t *testing.T) {
	border := Border{
		ID:          "border-1",
		WidthInches: 2.5,
		Style:       BorderStyleSolid,
		FabricRole:  "background",
		CornerStyle: CornerStyleOverlap,
	}

	cfg, changed := ApplyToBorders(nil, AddBorder{Border: border, Index: 0})
	if !changed || cfg == nil || !cfg.Enabled || len(cfg.Borders) != 1 {
		t.Fatalf("first add did not materialize the config: %+v", cfg)
	}

	if _, changed := ApplyToBorders(cfg, AddBorder{Border: border, Index: 0}); changed {
		t.Fatalf("duplicate border id accepted")
	}
	if _, changed := ApplyToBorders(cfg, UpdateBorder{BorderID: "border-1"}); changed {
		t.Fatalf("zero patch accepted")
	}
	if _, changed := ApplyToBorders(cfg, SetBordersEnabled{Prev: true, Next: true}); changed {
		t.Fatalf("same-value toggle accepted")
	}
	if _, changed := ApplyToBorders(nil, SetBordersEnabled{Prev: true, Next: false}); changed {
		t.Fatalf("toggle on missing config accepted")
	}

	second := border
	second.ID = "border-2"
	cfg, _ = ApplyToBorders(cfg, AddBorder{Border: second, Index: 99})
	if len(cfg.Borders) != 2 || cfg.Borders[1].ID != "border-2" {
		t.Fatalf("out-of-range index not clamped: %+v", cfg.Borders)
	}

	cfg, _ = ApplyToBorders(cfg, RemoveBorder{Border: second, Index: 1})
	if len(cfg.Borders) != 1 {
		t.Fatalf("borders = %+v", cfg.Borders)
	}
	cfg, changed = ApplyToBorders(cfg, RemoveBorder{Border: border, Index: 0})
	if !changed || cfg != nil {
		t.Fatalf("removing the last border must drop the config, got %+v", cfg)
	}
}

func TestApplyPatternOperationReconciles(t *testing.T) {
	t.Run("new override color registers a variant", func(t *testing.T) {
		doc := NewPatternDocument(3, 3)
		doc.Instances = []PlacedInstance{testInstance("i-1", 0, 0)}

		color := "#FF8800"
		applied, changed := ApplyPatternOperation(doc, UpdateInstance{
			InstanceID: "i-1",
			Next:       InstancePatch{Overrides: map[string]*string{"feature": &color}},
		})
		if !changed {
			t.Fatalf("override reported no change")
		}
		if len(applied.Palette) != 3 || applied.Palette[2].ID != "variant-ff8800" {
			t.Fatalf("variant not registered: %+v", applied.Palette)
		}
	})

	t.Run("stale variant is collected even by a no-op", func(t *testing.T) {
		doc := NewPatternDocument(3, 3)
		doc.Palette = append(doc.Palette, Role{ID: "variant-ff8800", Name: "#FF8800", Color: "#FF8800", Variant: true})

		applied, changed := ApplyPatternOperation(doc, RemoveInstance{Instance: testInstance("missing", 0, 0)})
		if !changed {
			t.Fatalf("reconciliation reported no change")
		}
		if len(applied.Palette) != 2 {
			t.Fatalf("stale variant survived: %+v", applied.Palette)
		}
	})
}
