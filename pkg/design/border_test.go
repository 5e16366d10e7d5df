package design

import (
	"reflect"
	"testing"
)

func TestBorderStyleValid(t *testing.T) {
	for _, s := range []BorderStyle{BorderStyleSolid, BorderStylePieced, BorderStyleScrappy} {
		if !s.Valid() {
			t.Errorf("style %q reported invalid", s)
		}
	}
	for _, s := range []BorderStyle{"", "zigzag"} {
		if s.Valid() {
			t.Errorf("style %q reported valid", s)
		}
	}
}

func TestCornerStyleValid(t *testing.T) {
	for _, c := range []CornerStyle{CornerStyleOverlap, CornerStyleMitered, CornerStyleCornerstone} {
		if !c.Valid() {
			t.Errorf("corner %q reported invalid", c)
		}
	}
	for _, c := range []CornerStyle{"", "folded"} {
		if c.Valid() {
			t.Errorf("corner %q reported valid", c)
		}
	}
}

func TestBorderPatchPairIsInvertible(t *testing.T) {
	border := Border{
		ID:          "border-1",
		WidthInches: 2.5,
		Style:       BorderStyleSolid,
		FabricRole:  "background",
		CornerStyle: CornerStyleOverlap,
	}

	width := 4.0
	style := BorderStylePieced
	next := BorderPatch{WidthInches: &width, Style: &style}
	prev := PrevBorderPatch(border, next)

	if prev.FabricRole != nil || prev.CornerStyle != nil {
		t.Fatalf("prev captured untouched fields: %+v", prev)
	}

	updated := MergeBorderPatch(border, next)
	if updated.WidthInches != 4.0 || updated.Style != BorderStylePieced {
		t.Fatalf("merge = %+v", updated)
	}
	if updated.FabricRole != "background" || updated.CornerStyle != CornerStyleOverlap {
		t.Fatalf("merge touched unpatched fields: %+v", updated)
	}
	if restored := MergeBorderPatch(updated, prev); restored != border {
		t.Fatalf("restored = %+v, want %+v", restored, border)
	}
}

func TestBorderPatchIsZero(t *testing.T) {
	if !(BorderPatch{}).IsZero() {
		t.Fatalf("empty patch not zero")
	}
	role := "feature"
	if (BorderPatch{FabricRole: &role}).IsZero() {
		t.Fatalf("fabric patch reported zero")
	}
}

func TestCloneBorderConfig(t *testing.T) {
	if CloneBorderConfig(nil) != nil {
		t.Fatalf("nil config must clone to nil")
	}
	cfg := &BorderConfig{Enabled: true, Borders: []Border{{ID: "border-1"}}}
	clone := CloneBorderConfig(cfg)
	clone.Borders[0].ID = "mutated"
	if cfg.Borders[0].ID != "border-1" {
		t.Fatalf("clone shares border slice")
	}
	if !reflect.DeepEqual(CloneBorderConfig(cfg), cfg) {
		t.Fatalf("clone not equal to source")
	}
}

func TestFindBorder(t *testing.T) {
	if _, idx, ok := FindBorder(nil, "border-1"); ok || idx != -1 {
		t.Fatalf("nil config lookup = %d, %v", idx, ok)
	}
	cfg := &BorderConfig{Borders: []Border{{ID: "border-1"}, {ID: "border-2"}}}
	if b, idx, ok := FindBorder(cfg, "border-2"); !ok || idx != 1 || b.ID != "border-2" {
		t.Fatalf("lookup = %+v, %d, %v", b, idx, ok)
	}
	if _, idx, ok := FindBorder(cfg, "missing"); ok || idx != -1 {
		t.Fatalf("missing lookup = %d, %v", idx, ok)
	}
}
