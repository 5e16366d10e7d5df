package editor

import (
	"fmt"
	"reflect"
	"testing"

	"quiltcore/pkg/design"
	"quiltcore/pkg/design/unitdef"
)

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newBlockSession(t *testing.T, size int, opts ...EditorOption) *BlockEditor {
	t.Helper()
	opts = append([]EditorOption{WithEditorIDGenerator(seqIDs("u"))}, opts...)
	return NewBlockEditor(design.NewBlockDocument(size), opts...)
}

func mustPlaceSquare(t *testing.T, e *BlockEditor, row, col int) design.Unit {
	t.Helper()
	unit, ok := e.PlaceUnit(design.UnitSquare, design.Position{Row: row, Col: col}, "", "")
	if !ok {
		t.Fatalf("place square at (%d,%d) rejected", row, col)
	}
	return unit
}

func TestPlaceUnitDefaultsAndRejections(t *testing.T) {
	e := newBlockSession(t, 3)

	unit := mustPlaceSquare(t, e, 0, 0)
	if unit.ID != "u-1" {
		t.Fatalf("expected first generated id, got %s", unit.ID)
	}
	if unit.Roles[unitdef.PartFill] != "background" {
		t.Fatalf("expected fill role defaulted to leading palette role, got %v", unit.Roles)
	}
	if unit.Span != design.SingleCell {
		t.Fatalf("unexpected span %+v", unit.Span)
	}

	if _, ok := e.PlaceUnit(design.UnitSquare, design.Position{Row: 0, Col: 0}, "", ""); ok {
		t.Fatalf("expected occupied cell to reject placement")
	}
	if _, ok := e.PlaceUnit(design.UnitSquare, design.Position{Row: 3, Col: 0}, "", ""); ok {
		t.Fatalf("expected out-of-bounds placement rejected")
	}
	if _, ok := e.PlaceUnit(design.UnitSquare, design.Position{Row: 1, Col: 1}, "no-such-role", ""); ok {
		t.Fatalf("expected unknown role rejected")
	}
	if _, ok := e.PlaceUnit(design.UnitFlyingGeese, design.Position{Row: 1, Col: 1}, "", ""); ok {
		t.Fatalf("expected two-tap type rejected by single-tap placement")
	}
	if _, ok := e.PlaceUnit(design.UnitType("star"), design.Position{Row: 1, Col: 1}, "", ""); ok {
		t.Fatalf("expected unknown type rejected")
	}

	// Rejected placements consume no ids, so accepted units number densely.
	next := mustPlaceSquare(t, e, 1, 1)
	if next.ID != "u-2" {
		t.Fatalf("expected rejections to leave the id sequence untouched, got %s", next.ID)
	}
}

func TestPlaceUnitContrastDefaults(t *testing.T) {
	e := newBlockSession(t, 3)
	unit, ok := e.PlaceUnit(design.UnitHalfSquareTriangle, design.Position{Row: 0, Col: 0}, "", "")
	if !ok {
		t.Fatalf("place hst rejected")
	}
	if unit.Orientation != design.OrientationNW {
		t.Fatalf("expected default orientation nw, got %s", unit.Orientation)
	}
	if unit.Roles[unitdef.PartPrimary] != "background" || unit.Roles[unitdef.PartSecondary] != "feature" {
		t.Fatalf("expected leading roles as primary and contrast defaults, got %v", unit.Roles)
	}

	explicit, ok := e.PlaceUnit(design.UnitHalfSquareTriangle, design.Position{Row: 1, Col: 1}, "feature", "background")
	if !ok {
		t.Fatalf("place hst with explicit roles rejected")
	}
	if explicit.Roles[unitdef.PartPrimary] != "feature" || explicit.Roles[unitdef.PartSecondary] != "background" {
		t.Fatalf("expected explicit roles honored, got %v", explicit.Roles)
	}
}

func TestUndoRedoRestoresPlacementsWithStableIDs(t *testing.T) {
	e := newBlockSession(t, 3)
	placed := []design.Unit{
		mustPlaceSquare(t, e, 0, 0),
		mustPlaceSquare(t, e, 0, 1),
		mustPlaceSquare(t, e, 0, 2),
	}

	for i := 0; i < 3; i++ {
		if !e.Undo() {
			t.Fatalf("undo %d failed", i)
		}
	}
	if got := len(e.Document().Units); got != 0 {
		t.Fatalf("expected empty document after undos, got %d units", got)
	}
	if e.Undo() {
		t.Fatalf("expected exhausted undo stack")
	}

	for i := 0; i < 3; i++ {
		if !e.Redo() {
			t.Fatalf("redo %d failed", i)
		}
	}
	doc := e.Document()
	if len(doc.Units) != 3 {
		t.Fatalf("expected 3 units after redos, got %d", len(doc.Units))
	}
	for _, want := range placed {
		unit, _, ok := doc.FindUnit(want.ID)
		if !ok {
			t.Fatalf("unit %s lost its id across undo/redo", want.ID)
		}
		if unit.Position != want.Position {
			t.Fatalf("unit %s moved across undo/redo: %+v", want.ID, unit.Position)
		}
	}
	if e.Redo() {
		t.Fatalf("expected exhausted redo stack")
	}
}

func TestRedoInvalidatedByNewEdit(t *testing.T) {
	e := newBlockSession(t, 3)
	mustPlaceSquare(t, e, 0, 0)
	mustPlaceSquare(t, e, 0, 1)
	if !e.Undo() {
		t.Fatalf("undo failed")
	}
	if !e.CanRedo() {
		t.Fatalf("expected redo available after undo")
	}
	mustPlaceSquare(t, e, 2, 2)
	if e.CanRedo() {
		t.Fatalf("expected new edit to clear redo history")
	}
}

func TestHistoryLimitDropsOldest(t *testing.T) {
	e := newBlockSession(t, 3, WithEditorHistoryLimit(2))
	mustPlaceSquare(t, e, 0, 0)
	mustPlaceSquare(t, e, 0, 1)
	mustPlaceSquare(t, e, 0, 2)

	if !e.Undo() || !e.Undo() {
		t.Fatalf("expected two undos within the limit")
	}
	if e.Undo() {
		t.Fatalf("expected the oldest operation to be dropped at capacity")
	}
	doc := e.Document()
	if len(doc.Units) != 1 || doc.Units[0].Position != (design.Position{Row: 0, Col: 0}) {
		t.Fatalf("expected the earliest placement to survive, got %+v", doc.Units)
	}
}

func TestRemoveUnitAndRemoveUnitAt(t *testing.T) {
	e := newBlockSession(t, 3)
	unit := mustPlaceSquare(t, e, 1, 1)

	if e.RemoveUnit("missing") {
		t.Fatalf("expected unknown id rejected")
	}
	if !e.RemoveUnit(unit.ID) {
		t.Fatalf("remove failed")
	}
	if len(e.Document().Units) != 0 {
		t.Fatalf("unit still present after removal")
	}
	if !e.Undo() {
		t.Fatalf("undo of removal failed")
	}
	if _, _, ok := e.Document().FindUnit(unit.ID); !ok {
		t.Fatalf("undo did not restore the removed unit")
	}

	// Multi-cell units erase from any covered cell.
	if !e.StartTwoTapPlacement(design.UnitFlyingGeese, design.Position{Row: 2, Col: 0}, "", "") {
		t.Fatalf("start two-tap failed")
	}
	geese, ok := e.CompleteTwoTapPlacement(design.Position{Row: 2, Col: 1})
	if !ok {
		t.Fatalf("complete two-tap failed")
	}
	if !e.RemoveUnitAt(design.Position{Row: 2, Col: 1}) {
		t.Fatalf("expected removal via covered non-anchor cell")
	}
	if _, _, ok := e.Document().FindUnit(geese.ID); ok {
		t.Fatalf("geese still present after removal")
	}
	if e.RemoveUnitAt(design.Position{Row: 2, Col: 1}) {
		t.Fatalf("expected empty cell to reject removal")
	}
}

func TestRotateUnitFourTimesIsIdentity(t *testing.T) {
	e := newBlockSession(t, 3)
	unit, ok := e.PlaceUnit(design.UnitHalfSquareTriangle, design.Position{Row: 0, Col: 0}, "", "")
	if !ok {
		t.Fatalf("place hst rejected")
	}
	before := e.Document()

	wantCycle := []design.Orientation{
		design.OrientationNE,
		design.OrientationSE,
		design.OrientationSW,
		design.OrientationNW,
	}
	for i, want := range wantCycle {
		if !e.RotateUnit(unit.ID) {
			t.Fatalf("rotation %d failed", i)
		}
		got, _, _ := e.Document().FindUnit(unit.ID)
		if got.Orientation != want {
			t.Fatalf("rotation %d: expected %s, got %s", i, want, got.Orientation)
		}
	}
	if !reflect.DeepEqual(before, e.Document()) {
		t.Fatalf("four quarter turns did not return to the original document")
	}
}

func TestRotateGeeseSwapsSpanAndRespectsCollisions(t *testing.T) {
	e := newBlockSession(t, 3)
	if !e.StartTwoTapPlacement(design.UnitFlyingGeese, design.Position{Row: 0, Col: 0}, "", "") {
		t.Fatalf("start two-tap failed")
	}
	geese, ok := e.CompleteTwoTapPlacement(design.Position{Row: 0, Col: 1})
	if !ok {
		t.Fatalf("complete two-tap failed")
	}
	if geese.Span != (design.Span{Rows: 1, Cols: 2}) {
		t.Fatalf("unexpected initial span %+v", geese.Span)
	}

	// right -> down turns the footprint vertical.
	if !e.RotateUnit(geese.ID) {
		t.Fatalf("rotate failed")
	}
	rotated, _, _ := e.Document().FindUnit(geese.ID)
	if rotated.Orientation != design.OrientationDown || rotated.Span != (design.Span{Rows: 2, Cols: 1}) {
		t.Fatalf("expected down orientation with 2x1 span, got %+v", rotated)
	}

	// Occupy the cell the next rotation's footprint needs.
	mustPlaceSquare(t, e, 0, 1)
	if e.RotateUnit(geese.ID) {
		t.Fatalf("expected rotation blocked by occupied footprint")
	}
	unchanged, _, _ := e.Document().FindUnit(geese.ID)
	if unchanged.Orientation != design.OrientationDown {
		t.Fatalf("blocked rotation still mutated the unit: %+v", unchanged)
	}
}

func TestFlipUnitIsInvolution(t *testing.T) {
	e := newBlockSession(t, 3)
	unit, ok := e.PlaceUnit(design.UnitHalfSquareTriangle, design.Position{Row: 0, Col: 0}, "", "")
	if !ok {
		t.Fatalf("place hst rejected")
	}
	before := e.Document()

	if !e.FlipUnitHorizontal(unit.ID) {
		t.Fatalf("horizontal flip failed")
	}
	flipped, _, _ := e.Document().FindUnit(unit.ID)
	if flipped.Orientation != design.OrientationNE {
		t.Fatalf("expected nw to mirror to ne, got %s", flipped.Orientation)
	}
	if !e.FlipUnitHorizontal(unit.ID) {
		t.Fatalf("second horizontal flip failed")
	}
	if !reflect.DeepEqual(before, e.Document()) {
		t.Fatalf("horizontal flip applied twice did not restore the document")
	}

	if !e.FlipUnitVertical(unit.ID) {
		t.Fatalf("vertical flip failed")
	}
	flipped, _, _ = e.Document().FindUnit(unit.ID)
	if flipped.Orientation != design.OrientationSW {
		t.Fatalf("expected nw to mirror to sw, got %s", flipped.Orientation)
	}
	if !e.FlipUnitVertical(unit.ID) {
		t.Fatalf("second vertical flip failed")
	}
	if !reflect.DeepEqual(before, e.Document()) {
		t.Fatalf("vertical flip applied twice did not restore the document")
	}

	// A plain square has no distinguishable mirror image.
	square := mustPlaceSquare(t, e, 2, 2)
	if e.FlipUnitHorizontal(square.ID) || e.FlipUnitVertical(square.ID) {
		t.Fatalf("expected square flips to be no-ops")
	}
}

func TestRotateQuarterSquareCyclesRoles(t *testing.T) {
	e := newBlockSession(t, 3)
	unit, ok := e.PlaceUnit(design.UnitQuarterSquareTriangle, design.Position{Row: 0, Col: 0}, "", "")
	if !ok {
		t.Fatalf("place qst rejected")
	}
	if unit.Roles[unitdef.PartNorth] != "background" || unit.Roles[unitdef.PartEast] != "feature" {
		t.Fatalf("unexpected starting roles %v", unit.Roles)
	}

	if !e.RotateUnit(unit.ID) {
		t.Fatalf("rotate failed")
	}
	rotated, _, _ := e.Document().FindUnit(unit.ID)
	want := map[design.PartID]string{
		unitdef.PartNorth: "feature",
		unitdef.PartEast:  "background",
		unitdef.PartSouth: "feature",
		unitdef.PartWest:  "background",
	}
	if !reflect.DeepEqual(rotated.Roles, want) {
		t.Fatalf("expected roles cycled one slot clockwise, got %v", rotated.Roles)
	}
	if rotated.Orientation != "" {
		t.Fatalf("qst rotation should not tag an orientation, got %s", rotated.Orientation)
	}

	if !e.RotateUnit(unit.ID) {
		t.Fatalf("second rotate failed")
	}
	back, _, _ := e.Document().FindUnit(unit.ID)
	if !reflect.DeepEqual(back.Roles, unit.Roles) {
		t.Fatalf("two quarter turns should restore the alternating roles, got %v", back.Roles)
	}
}

func TestAssignRoleToUnit(t *testing.T) {
	e := newBlockSession(t, 3)
	unit := mustPlaceSquare(t, e, 0, 0)

	if e.AssignRoleToUnit(unit.ID, "no-such-role", "") {
		t.Fatalf("expected unknown role rejected")
	}
	if e.AssignRoleToUnit("missing", "feature", "") {
		t.Fatalf("expected unknown unit rejected")
	}
	if !e.AssignRoleToUnit(unit.ID, "feature", "") {
		t.Fatalf("assign to primary slot failed")
	}
	got, _, _ := e.Document().FindUnit(unit.ID)
	if got.Roles[unitdef.PartFill] != "feature" {
		t.Fatalf("expected empty part to target the primary slot, got %v", got.Roles)
	}
	if e.AssignRoleToUnit(unit.ID, "feature", "") {
		t.Fatalf("expected re-assigning the held role to be a no-op")
	}
	if !e.Undo() {
		t.Fatalf("undo failed")
	}
	got, _, _ = e.Document().FindUnit(unit.ID)
	if got.Roles[unitdef.PartFill] != "background" {
		t.Fatalf("undo did not restore the previous role, got %v", got.Roles)
	}
}

func TestFillRangePlacesOnlyUnoccupiedCells(t *testing.T) {
	e := newBlockSession(t, 3)
	mustPlaceSquare(t, e, 1, 1)

	anchor := design.Position{Row: 0, Col: 0}
	placed, ok := e.FillRange(design.UnitSquare, &anchor, design.Position{Row: 2, Col: 2}, "", "")
	if !ok {
		t.Fatalf("fill range failed")
	}
	if len(placed) != 8 {
		t.Fatalf("expected 8 placements around the occupied center, got %d", len(placed))
	}
	wantFirst := design.Position{Row: 0, Col: 0}
	wantLast := design.Position{Row: 2, Col: 2}
	if placed[0].Position != wantFirst || placed[len(placed)-1].Position != wantLast {
		t.Fatalf("expected row-major order from %+v to %+v, got %+v and %+v",
			wantFirst, wantLast, placed[0].Position, placed[len(placed)-1].Position)
	}
	if len(e.Document().Units) != 9 {
		t.Fatalf("expected a full grid, got %d units", len(e.Document().Units))
	}

	// The whole fill is one undoable step.
	if !e.Undo() {
		t.Fatalf("undo failed")
	}
	if len(e.Document().Units) != 1 {
		t.Fatalf("expected single undo to remove the whole fill, got %d units", len(e.Document().Units))
	}

	// A fully occupied range has nothing to place.
	if _, ok := e.FillRange(design.UnitSquare, nil, design.Position{Row: 1, Col: 1}, "", ""); ok {
		t.Fatalf("expected occupied degenerate range rejected")
	}
	single, ok := e.FillRange(design.UnitSquare, nil, design.Position{Row: 0, Col: 0}, "", "")
	if !ok || len(single) != 1 {
		t.Fatalf("expected nil anchor to degenerate to the end cell, got %v", single)
	}

	// Multi-cell and two-tap types sit outside range fill.
	if _, ok := e.FillRange(design.UnitFlyingGeese, &anchor, design.Position{Row: 2, Col: 2}, "", ""); ok {
		t.Fatalf("expected two-tap type rejected")
	}
}

func TestPaletteRoleLifecycle(t *testing.T) {
	e := newBlockSession(t, 3)

	role, ok := e.AddRole("Accent")
	if !ok {
		t.Fatalf("add role failed")
	}
	if role.Name != "Accent" || role.Color == "" {
		t.Fatalf("unexpected role %+v", role)
	}
	doc := e.Document()
	if len(doc.Palette) != 3 || doc.Palette[2].ID != role.ID {
		t.Fatalf("expected role appended, got %+v", doc.Palette)
	}
	for _, existing := range doc.Palette[:2] {
		if existing.Color == role.Color {
			t.Fatalf("fallback color %s collides with existing role", role.Color)
		}
	}

	unnamed, ok := e.AddRole("")
	if !ok {
		t.Fatalf("add unnamed role failed")
	}
	if unnamed.Name != "Fabric 4" {
		t.Fatalf("expected positional default name, got %q", unnamed.Name)
	}

	if !e.RenameRole(role.ID, "Trim") {
		t.Fatalf("rename failed")
	}
	if e.RenameRole(role.ID, "Trim") {
		t.Fatalf("expected same-name rename to be a no-op")
	}
	if !e.SetRoleColor(role.ID, "#123456") {
		t.Fatalf("set color failed")
	}
	if e.SetRoleColor(role.ID, "#123456") {
		t.Fatalf("expected same-color set to be a no-op")
	}
	if e.SetRoleColor(role.ID, "") {
		t.Fatalf("expected empty color rejected")
	}
}

func TestRemoveRoleReassignsReferences(t *testing.T) {
	e := newBlockSession(t, 3)
	hst, ok := e.PlaceUnit(design.UnitHalfSquareTriangle, design.Position{Row: 0, Col: 0}, "feature", "background")
	if !ok {
		t.Fatalf("place hst rejected")
	}
	square, ok := e.PlaceUnit(design.UnitSquare, design.Position{Row: 1, Col: 1}, "feature", "")
	if !ok {
		t.Fatalf("place square rejected")
	}

	// A self-referential fallback resolves to the first remaining role.
	if !e.RemoveRole("feature", "feature") {
		t.Fatalf("remove role failed")
	}
	doc := e.Document()
	if _, _, ok := design.FindRole(doc.Palette, "feature"); ok {
		t.Fatalf("role still in palette after removal")
	}
	gotHst, _, _ := doc.FindUnit(hst.ID)
	if gotHst.Roles[unitdef.PartPrimary] != "background" {
		t.Fatalf("expected hst primary reassigned to fallback, got %v", gotHst.Roles)
	}
	gotSquare, _, _ := doc.FindUnit(square.ID)
	if gotSquare.Roles[unitdef.PartFill] != "background" {
		t.Fatalf("expected square fill reassigned to fallback, got %v", gotSquare.Roles)
	}

	// Removal and reassignment undo as one step.
	if !e.Undo() {
		t.Fatalf("undo failed")
	}
	doc = e.Document()
	if _, _, ok := design.FindRole(doc.Palette, "feature"); !ok {
		t.Fatalf("undo did not restore the role")
	}
	gotHst, _, _ = doc.FindUnit(hst.ID)
	if gotHst.Roles[unitdef.PartPrimary] != "feature" {
		t.Fatalf("undo did not restore the hst assignment, got %v", gotHst.Roles)
	}
	gotSquare, _, _ = doc.FindUnit(square.ID)
	if gotSquare.Roles[unitdef.PartFill] != "feature" {
		t.Fatalf("undo did not restore the square assignment, got %v", gotSquare.Roles)
	}

	// The last role can never be removed.
	if !e.RemoveRole("feature", "") {
		t.Fatalf("second removal failed")
	}
	if e.RemoveRole("background", "") {
		t.Fatalf("expected the last role to be irremovable")
	}
	if e.RemoveRole("missing", "") {
		t.Fatalf("expected unknown role rejected")
	}
}

func TestResizeRemovesEvictedUnitsAtomically(t *testing.T) {
	e := newBlockSession(t, 4)
	corner := mustPlaceSquare(t, e, 3, 3)
	inside := mustPlaceSquare(t, e, 0, 0)

	if e.Resize(4) {
		t.Fatalf("expected same-size resize rejected")
	}
	if e.Resize(0) {
		t.Fatalf("expected non-positive size rejected")
	}

	if !e.Resize(3) {
		t.Fatalf("resize failed")
	}
	doc := e.Document()
	if doc.Size != 3 {
		t.Fatalf("expected size 3, got %d", doc.Size)
	}
	if _, _, ok := doc.FindUnit(corner.ID); ok {
		t.Fatalf("expected evicted unit removed")
	}
	if _, _, ok := doc.FindUnit(inside.ID); !ok {
		t.Fatalf("expected in-bounds unit kept")
	}

	// Undo restores the size and the evicted unit together.
	if !e.Undo() {
		t.Fatalf("undo failed")
	}
	doc = e.Document()
	if doc.Size != 4 {
		t.Fatalf("undo did not restore the size, got %d", doc.Size)
	}
	restored, _, ok := doc.FindUnit(corner.ID)
	if !ok || restored.Position != (design.Position{Row: 3, Col: 3}) {
		t.Fatalf("undo did not restore the evicted unit, got %+v", restored)
	}

	if !e.Redo() {
		t.Fatalf("redo failed")
	}
	doc = e.Document()
	if doc.Size != 3 {
		t.Fatalf("redo did not reapply the resize, got %d", doc.Size)
	}
	if _, _, ok := doc.FindUnit(corner.ID); ok {
		t.Fatalf("redo did not re-evict the unit")
	}
}

func TestLoadReplacesStateAndClearsHistory(t *testing.T) {
	e := newBlockSession(t, 3)
	mustPlaceSquare(t, e, 0, 0)
	if !e.StartTwoTapPlacement(design.UnitFlyingGeese, design.Position{Row: 2, Col: 0}, "", "") {
		t.Fatalf("start two-tap failed")
	}

	e.Load(design.NewBlockDocument(5))
	doc := e.Document()
	if doc.Size != 5 || len(doc.Units) != 0 {
		t.Fatalf("load did not replace the document, got %+v", doc)
	}
	if e.CanUndo() || e.CanRedo() {
		t.Fatalf("load did not clear history")
	}
	if e.AwaitingSecondCell() {
		t.Fatalf("load did not cancel the pending gesture")
	}
}

func TestDocumentReturnsIsolatedCopy(t *testing.T) {
	e := newBlockSession(t, 3)
	unit := mustPlaceSquare(t, e, 0, 0)

	doc := e.Document()
	doc.Units[0].Roles[unitdef.PartFill] = "tampered"
	doc.Palette[0].Color = "#000000"

	fresh := e.Document()
	if fresh.Units[0].Roles[unitdef.PartFill] != "background" {
		t.Fatalf("caller mutation leaked into the session unit %s", unit.ID)
	}
	if fresh.Palette[0].Color == "#000000" {
		t.Fatalf("caller mutation leaked into the session palette")
	}
}
