package tree

import "fmt"

// Point - позиция внутри текстового листа: путь к листу и байтовое смещение в его тексте.
type Point struct {
	Path   Path
	Offset int
}

func (p Point) String() string {
	return fmt.Sprintf("%s:%d", p.Path, p.Offset)
}

// Compare сравнивает точки сначала по пути, затем по смещению.
func (p Point) Compare(other Point) int {
	if c := ComparePath(p.Path, other.Path); c != 0 {
		return c
	}
	switch {
	case p.Offset < other.Offset:
		return -1
	case p.Offset > other.Offset:
		return 1
	}
	return 0
}

func (p Point) Equal(other Point) bool {
	return p.Offset == other.Offset && p.Path.Equal(other.Path)
}

func (p Point) IsBefore(other Point) bool {
	return p.Compare(other) < 0
}

func (p Point) IsAfter(other Point) bool {
	return p.Compare(other) > 0
}

func (p Point) Clone() Point {
	return Point{Path: p.Path.Clone(), Offset: p.Offset}
}

// Range - пара точек anchor (где выделение начато) и focus (где находится курсор).
type Range struct {
	Anchor Point
	Focus  Point
}

// Collapsed создает свернутый диапазон - курсор без выделения.
func Collapsed(p Point) Range {
	return Range{Anchor: p.Clone(), Focus: p.Clone()}
}

func (r Range) String() string {
	return fmt.Sprintf("%s..%s", r.Anchor, r.Focus)
}

// IsCollapsed возвращает true, если anchor и focus совпадают.
func (r Range) IsCollapsed() bool {
	return r.Anchor.Equal(r.Focus)
}

// IsBackward возвращает true, если focus стоит раньше anchor.
func (r Range) IsBackward() bool {
	return r.Anchor.IsAfter(r.Focus)
}

// Edges возвращает начало и конец диапазона независимо от направления выделения.
func (r Range) Edges() (start, end Point) {
	if r.IsBackward() {
		return r.Focus, r.Anchor
	}
	return r.Anchor, r.Focus
}

// Includes возвращает true, если точка лежит внутри диапазона включая границы.
func (r Range) Includes(p Point) bool {
	start, end := r.Edges()
	return p.Compare(start) >= 0 && p.Compare(end) <= 0
}

func (r Range) Clone() Range {
	return Range{Anchor: r.Anchor.Clone(), Focus: r.Focus.Clone()}
}
