package dom

// RectUnion is a set of pairwise-disjoint rectangles describing an area
// already painted by higher stacking content.
type RectUnion struct {
	rects []Rect
}

// Len returns the number of disjoint rectangles held.
func (u *RectUnion) Len() int {
	return len(u.rects)
}

// Area returns the total covered area.
func (u *RectUnion) Area() float64 {
	var total float64
	for _, r := range u.rects {
		total += r.Area()
	}
	return total
}

// splitDiff returns a minus b as up to four disjoint slices:
// bottom and top spanning a's full width, then left and right of the overlap band.
func splitDiff(a, b Rect) []Rect {
	parts := make([]Rect, 0, 4)

	if a.Y1 < b.Y1 {
		parts = append(parts, Rect{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: b.Y1})
	}
	if b.Y2 < a.Y2 {
		parts = append(parts, Rect{X1: a.X1, Y1: b.Y2, X2: a.X2, Y2: a.Y2})
	}

	yLo := max(a.Y1, b.Y1)
	yHi := min(a.Y2, b.Y2)
	if a.X1 < b.X1 {
		parts = append(parts, Rect{X1: a.X1, Y1: yLo, X2: b.X1, Y2: yHi})
	}
	if b.X2 < a.X2 {
		parts = append(parts, Rect{X1: b.X2, Y1: yLo, X2: a.X2, Y2: yHi})
	}

	return parts
}

// subtract removes every rectangle in the union from pieces and returns what survives.
func (u *RectUnion) subtract(pieces []Rect) []Rect {
	for _, s := range u.rects {
		next := make([]Rect, 0, len(pieces))
		for _, p := range pieces {
			switch {
			case s.Contains(p):
			case p.Intersects(s):
				next = append(next, splitDiff(p, s)...)
			default:
				next = append(next, p)
			}
		}
		if len(next) == 0 {
			return nil
		}
		pieces = next
	}
	return pieces
}

// Contains reports whether r is fully covered by the union.
func (u *RectUnion) Contains(r Rect) bool {
	if len(u.rects) == 0 || r.Empty() {
		return false
	}
	return len(u.subtract([]Rect{r})) == 0
}

// Add inserts the parts of r not already covered. It reports whether the
// union grew.
func (u *RectUnion) Add(r Rect) bool {
	if r.Empty() {
		return false
	}
	rest := u.subtract([]Rect{r})
	if len(rest) == 0 {
		return false
	}
	u.rects = append(u.rects, rest...)
	return true
}
