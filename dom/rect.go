package dom

// BoundingBox is a DOM rectangle in CSS pixels.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the rectangle area, zero for degenerate boxes.
func (b BoundingBox) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Translate returns the box moved by dx, dy.
func (b BoundingBox) Translate(dx, dy float64) BoundingBox {
	return BoundingBox{X: b.X + dx, Y: b.Y + dy, Width: b.Width, Height: b.Height}
}

// Rect converts the box to corner form.
func (b BoundingBox) Rect() Rect {
	return Rect{X1: b.X, Y1: b.Y, X2: b.X + b.Width, Y2: b.Y + b.Height}
}

// boxFromSlice decodes a snapshot rectangle ([x, y, w, h]).
func boxFromSlice(v []float64, scale float64) *BoundingBox {
	if len(v) < 4 {
		return nil
	}
	if scale <= 0 {
		scale = 1
	}
	return &BoundingBox{X: v[0] / scale, Y: v[1] / scale, Width: v[2] / scale, Height: v[3] / scale}
}

// containmentRatio returns the fraction of inner's area covered by outer.
// Zero-area inner boxes report 0.
func containmentRatio(inner, outer BoundingBox) float64 {
	innerArea := inner.Area()
	if innerArea <= 0 {
		return 0
	}

	x1 := max(inner.X, outer.X)
	y1 := max(inner.Y, outer.Y)
	x2 := min(inner.X+inner.Width, outer.X+outer.Width)
	y2 := min(inner.Y+inner.Height, outer.Y+outer.Height)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	return (x2 - x1) * (y2 - y1) / innerArea
}

// isContainedWithin checks if inner is at least threshold contained within outer.
func isContainedWithin(inner, outer BoundingBox, threshold float64) bool {
	if inner.Area() <= 0 {
		return false
	}
	return containmentRatio(inner, outer) >= threshold
}

// Rect is an axis-aligned rectangle in corner form. Intersection tests are
// half-open, so rectangles that only share an edge do not intersect.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// Area returns the rectangle area.
func (r Rect) Area() float64 {
	if r.X2 <= r.X1 || r.Y2 <= r.Y1 {
		return 0
	}
	return (r.X2 - r.X1) * (r.Y2 - r.Y1)
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.X2 <= r.X1 || r.Y2 <= r.Y1
}

// Intersects reports whether r and o share interior area.
func (r Rect) Intersects(o Rect) bool {
	return !(r.X2 <= o.X1 || o.X2 <= r.X1 || r.Y2 <= o.Y1 || o.Y2 <= r.Y1)
}

// Contains reports whether o lies fully inside r.
func (r Rect) Contains(o Rect) bool {
	return r.X1 <= o.X1 && r.Y1 <= o.Y1 && o.X2 <= r.X2 && o.Y2 <= r.Y2
}
