package design

import (
	"reflect"
	"testing"
)

func TestCellsCoveredIteratesRowMajor(t *testing.T) {
	cells := CellsCovered(Position{Row: 1, Col: 2}, Span{Rows: 2, Cols: 2})
	want := []Position{
		{Row: 1, Col: 2},
		{Row: 1, Col: 3},
		{Row: 2, Col: 2},
		{Row: 2, Col: 3},
	}
	if !reflect.DeepEqual(cells, want) {
		t.Fatalf("cells = %v, want %v", cells, want)
	}

	if single := CellsCovered(Position{Row: 0, Col: 0}, SingleCell); len(single) != 1 {
		t.Fatalf("single cell footprint covers %v", single)
	}
}

func TestCovers(t *testing.T) {
	anchor := Position{Row: 1, Col: 1}
	span := Span{Rows: 1, Cols: 2}
	cases := []struct {
		cell Position
		want bool
	}{
		{Position{Row: 1, Col: 1}, true},
		{Position{Row: 1, Col: 2}, true},
		{Position{Row: 1, Col: 3}, false},
		{Position{Row: 0, Col: 1}, false},
		{Position{Row: 2, Col: 1}, false},
		{Position{Row: 1, Col: 0}, false},
	}
	for _, tc := range cases {
		if got := Covers(anchor, span, tc.cell); got != tc.want {
			t.Errorf("Covers(%v) = %v, want %v", tc.cell, got, tc.want)
		}
	}
}

func TestInBounds(t *testing.T) {
	cases := []struct {
		name string
		pos  Position
		span Span
		want bool
	}{
		{"fits exactly", Position{Row: 2, Col: 1}, Span{Rows: 1, Cols: 2}, true},
		{"negative row", Position{Row: -1, Col: 0}, SingleCell, false},
		{"negative col", Position{Row: 0, Col: -1}, SingleCell, false},
		{"row overflow", Position{Row: 2, Col: 0}, Span{Rows: 2, Cols: 1}, false},
		{"col overflow", Position{Row: 0, Col: 2}, Span{Rows: 1, Cols: 2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InBounds(tc.pos, tc.span, 3, 3); got != tc.want {
				t.Fatalf("InBounds(%v, %v) = %v, want %v", tc.pos, tc.span, got, tc.want)
			}
		})
	}
}

func TestDirectionBetween(t *testing.T) {
	from := Position{Row: 1, Col: 1}
	cases := []struct {
		name string
		to   Position
		want Direction
	}{
		{"right", Position{Row: 1, Col: 2}, DirectionRight},
		{"left", Position{Row: 1, Col: 0}, DirectionLeft},
		{"down", Position{Row: 2, Col: 1}, DirectionDown},
		{"up", Position{Row: 0, Col: 1}, DirectionUp},
		{"diagonal resolves horizontally", Position{Row: 2, Col: 2}, DirectionRight},
		{"same cell resolves up", Position{Row: 1, Col: 1}, DirectionUp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DirectionBetween(from, tc.to); got != tc.want {
				t.Fatalf("DirectionBetween(%v, %v) = %q, want %q", from, tc.to, got, tc.want)
			}
		})
	}
}

func TestAnchorOfPicksTopLeft(t *testing.T) {
	cases := []struct {
		first, second, want Position
	}{
		{Position{Row: 1, Col: 1}, Position{Row: 1, Col: 2}, Position{Row: 1, Col: 1}},
		{Position{Row: 1, Col: 2}, Position{Row: 1, Col: 1}, Position{Row: 1, Col: 1}},
		{Position{Row: 2, Col: 1}, Position{Row: 1, Col: 1}, Position{Row: 1, Col: 1}},
		{Position{Row: 1, Col: 1}, Position{Row: 2, Col: 1}, Position{Row: 1, Col: 1}},
	}
	for _, tc := range cases {
		if got := AnchorOf(tc.first, tc.second); got != tc.want {
			t.Errorf("AnchorOf(%v, %v) = %v, want %v", tc.first, tc.second, got, tc.want)
		}
	}
}

func TestOffsetHelpers(t *testing.T) {
	off := Offset{Rows: -1, Cols: 2}
	if off.IsZero() {
		t.Fatalf("offset %v reported zero", off)
	}
	if got := off.Negated(); got != (Offset{Rows: 1, Cols: -2}) {
		t.Fatalf("Negated() = %v", got)
	}
	if !(Offset{}).IsZero() {
		t.Fatalf("zero offset not recognized")
	}
	if got := (Position{Row: 3, Col: 3}).Shifted(off); got != (Position{Row: 2, Col: 5}) {
		t.Fatalf("Shifted() = %v", got)
	}
}
