package design

// BlockDocument is the working state of the block-level editor: a fixed-size
// square grid of non-overlapping units plus the palette they reference.
// Overlap is prevented by placement logic, not re-checked at rest.
type BlockDocument struct {
	Size    int    `json:"size"`
	Units   []Unit `json:"units"`
	Palette []Role `json:"palette"`
}

// DefaultBlockSize is the grid size new block documents start with.
const DefaultBlockSize = 4

// NewBlockDocument returns an empty block document with the default palette.
func NewBlockDocument(size int) BlockDocument {
	if size <= 0 {
		size = DefaultBlockSize
	}
	return BlockDocument{Size: size, Palette: DefaultPalette()}
}

// CloneBlockDocument returns a deep copy of the document.
func CloneBlockDocument(doc BlockDocument) BlockDocument {
	return BlockDocument{
		Size:    doc.Size,
		Units:   CloneUnits(doc.Units),
		Palette: ClonePalette(doc.Palette),
	}
}

// FindUnit locates a unit by id.
func (d BlockDocument) FindUnit(id string) (Unit, int, bool) {
	for i, u := range d.Units {
		if u.ID == id {
			return u, i, true
		}
	}
	return Unit{}, -1, false
}

// InBounds reports whether the cell lies inside the grid.
func (d BlockDocument) InBounds(pos Position) bool {
	return InBounds(pos, SingleCell, d.Size, d.Size)
}

// Occupied reports whether any unit's footprint covers the cell. Linear in
// the unit count, which stays small in practice.
func (d BlockDocument) Occupied(pos Position) bool {
	_, ok := d.UnitAt(pos)
	return ok
}

// UnitAt returns the unit whose footprint covers the cell, if any. Multi-cell
// units are discoverable at every covered cell, not just their anchor.
func (d BlockDocument) UnitAt(pos Position) (Unit, bool) {
	for _, u := range d.Units {
		if Covers(u.Position, u.Span, pos) {
			return u, true
		}
	}
	return Unit{}, false
}

// ValidAdjacentCells returns the up/down/left/right neighbors of pos that are
// both inside the grid and unoccupied. This set drives two-tap placement.
func (d BlockDocument) ValidAdjacentCells(pos Position) []Position {
	neighbors := []Position{
		{Row: pos.Row, Col: pos.Col + 1},
		{Row: pos.Row, Col: pos.Col - 1},
		{Row: pos.Row + 1, Col: pos.Col},
		{Row: pos.Row - 1, Col: pos.Col},
	}
	valid := make([]Position, 0, 4)
	for _, n := range neighbors {
		if d.InBounds(n) && !d.Occupied(n) {
			valid = append(valid, n)
		}
	}
	return valid
}

// RangeFill returns every unoccupied cell inside the axis-aligned rectangle
// between anchor and end, inclusive, iterated row-major. A nil anchor
// degenerates the range to the single end cell.
func (d BlockDocument) RangeFill(anchor *Position, end Position) []Position {
	start := end
	if anchor != nil {
		start = *anchor
	}
	top, bottom := start.Row, end.Row
	if top > bottom {
		top, bottom = bottom, top
	}
	left, right := start.Col, end.Col
	if left > right {
		left, right = right, left
	}
	var cells []Position
	for r := top; r <= bottom; r++ {
		for c := left; c <= right; c++ {
			cell := Position{Row: r, Col: c}
			if d.InBounds(cell) && !d.Occupied(cell) {
				cells = append(cells, cell)
			}
		}
	}
	return cells
}

// UnitsOutsideSquare lists the units whose footprint, after the shift is
// applied, no longer fits inside a size×size grid. Used when constructing
// resize operations so removal and resize commit atomically.
func UnitsOutsideSquare(units []Unit, size int, shift Offset) []Unit {
	var removed []Unit
	for _, u := range units {
		if !InBounds(u.Position.Shifted(shift), u.Span, size, size) {
			removed = append(removed, CloneUnit(u))
		}
	}
	return removed
}
