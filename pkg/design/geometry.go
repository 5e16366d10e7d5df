package design

// Position addresses a single grid cell. Rows and columns are zero-indexed
// from the top-left corner.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Shifted returns the position moved by the given offset.
func (p Position) Shifted(off Offset) Position {
	return Position{Row: p.Row + off.Rows, Col: p.Col + off.Cols}
}

// Span is the rectangular cell footprint a unit occupies from its anchor.
type Span struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// SingleCell is the footprint of a one-cell unit.
var SingleCell = Span{Rows: 1, Cols: 1}

// Offset is a signed row/column displacement applied during grid resizes.
type Offset struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Negated returns the offset with both components sign-flipped.
func (o Offset) Negated() Offset {
	return Offset{Rows: -o.Rows, Cols: -o.Cols}
}

// IsZero reports whether the offset displaces nothing.
func (o Offset) IsZero() bool {
	return o.Rows == 0 && o.Cols == 0
}

// Direction names the four cardinal neighbors of a cell. It doubles as the
// pointing direction of directional units.
type Direction string

// Cardinal directions in the decision order used by two-tap placement.
const (
	DirectionRight Direction = "right"
	DirectionLeft  Direction = "left"
	DirectionDown  Direction = "down"
	DirectionUp    Direction = "up"
)

// CellsCovered enumerates every cell covered by a footprint anchored at pos,
// iterated row-major.
func CellsCovered(pos Position, span Span) []Position {
	cells := make([]Position, 0, span.Rows*span.Cols)
	for r := 0; r < span.Rows; r++ {
		for c := 0; c < span.Cols; c++ {
			cells = append(cells, Position{Row: pos.Row + r, Col: pos.Col + c})
		}
	}
	return cells
}

// Covers reports whether a footprint anchored at anchor contains the cell.
func Covers(anchor Position, span Span, cell Position) bool {
	return cell.Row >= anchor.Row && cell.Row < anchor.Row+span.Rows &&
		cell.Col >= anchor.Col && cell.Col < anchor.Col+span.Cols
}

// InBounds reports whether a footprint anchored at pos fits entirely within a
// rows×cols grid.
func InBounds(pos Position, span Span, rows, cols int) bool {
	return pos.Row >= 0 && pos.Col >= 0 &&
		pos.Row+span.Rows <= rows && pos.Col+span.Cols <= cols
}

// DirectionBetween derives the direction from one cell to an adjacent cell.
// Horizontal wins over vertical so diagonal inputs, which adjacency
// precomputation already excludes, degrade deterministically.
func DirectionBetween(from, to Position) Direction {
	switch {
	case to.Col > from.Col:
		return DirectionRight
	case to.Col < from.Col:
		return DirectionLeft
	case to.Row > from.Row:
		return DirectionDown
	default:
		return DirectionUp
	}
}

// AnchorOf returns the top-left cell of the two-cell pair formed by a two-tap
// gesture.
func AnchorOf(first, second Position) Position {
	anchor := first
	if second.Row < anchor.Row {
		anchor.Row = second.Row
	}
	if second.Col < anchor.Col {
		anchor.Col = second.Col
	}
	return anchor
}
