package sprig

import "math"

// Bounds is an axis-aligned box stored as min/max pairs.
//
// Boxes computed by this package keep MinX <= MaxX and MinY <= MaxY for
// non-negative texture sizes. A zero-size texture yields a zero-extent box at
// the anchor offset. Boxes assembled by hand may be inverted; Contains and
// Normalized treat them as the same region with the pairs swapped.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns MaxX - MinX. Negative for inverted boxes.
func (b Bounds) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns MaxY - MinY. Negative for inverted boxes.
func (b Bounds) Height() float64 {
	return b.MaxY - b.MinY
}

// IsEmpty reports whether the box has zero area.
func (b Bounds) IsEmpty() bool {
	return b.MinX == b.MaxX || b.MinY == b.MaxY
}

// Normalized returns b with each min/max pair ordered.
func (b Bounds) Normalized() Bounds {
	if b.MinX > b.MaxX {
		b.MinX, b.MaxX = b.MaxX, b.MinX
	}
	if b.MinY > b.MaxY {
		b.MinY, b.MaxY = b.MaxY, b.MinY
	}
	return b
}

// Contains reports whether (x, y) lies inside the normalized box. Both edges
// are inclusive, so a zero-extent box contains exactly its corner point.
func (b Bounds) Contains(x, y float64) bool {
	b = b.Normalized()
	return x >= b.MinX && x <= b.MaxX &&
		y >= b.MinY && y <= b.MaxY
}

// Rect converts the normalized box to a Rect.
func (b Bounds) Rect() Rect {
	b = b.Normalized()
	return Rect{X: b.MinX, Y: b.MinY, Width: b.MaxX - b.MinX, Height: b.MaxY - b.MinY}
}

// Union returns the smallest box containing both normalized boxes.
func (b Bounds) Union(o Bounds) Bounds {
	b = b.Normalized()
	o = o.Normalized()
	return Bounds{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// Transform returns the axis-aligned box around the four corners of b
// mapped through the affine matrix m.
func (b Bounds) Transform(m [6]float64) Bounds {
	xs := [4]float64{b.MinX, b.MaxX, b.MinX, b.MaxX}
	ys := [4]float64{b.MinY, b.MinY, b.MaxY, b.MaxY}
	out := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for i := range xs {
		x, y := transformPoint(m, xs[i], ys[i])
		out.MinX = math.Min(out.MinX, x)
		out.MinY = math.Min(out.MinY, y)
		out.MaxX = math.Max(out.MaxX, x)
		out.MaxY = math.Max(out.MaxY, y)
	}
	return out
}

// quadBounds places a w×h footprint so that anchor lands on the local
// origin, offset by (ox, oy) inside an ow×oh original frame.
func quadBounds(anchor Vec2, ow, oh, ox, oy, w, h float64) Bounds {
	minX := ox - anchor.X*ow
	minY := oy - anchor.Y*oh
	return Bounds{MinX: minX, MinY: minY, MaxX: minX + w, MaxY: minY + h}
}

// cachedBounds memoizes one derived box. The cell is dirty while its flag is
// set on the owning node; reading a dirty cell recomputes and clears it.
type cachedBounds struct {
	flag       UpdateFlags
	value      Bounds
	recomputes int
}

func (c *cachedBounds) get(n *Node, compute func() Bounds) Bounds {
	if n.flags&c.flag != 0 {
		c.value = compute()
		c.recomputes++
		n.flags &^= c.flag
	}
	return c.value
}
