package sprig

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// computeLocalTransform computes the local affine matrix from the node's
// transform properties. Returns [a, b, c, d, tx, ty].
//
// Composition order:
//
//	Translate(-PivotX, -PivotY) -> Scale -> Skew -> Rotate -> Translate(X, Y)
func computeLocalTransform(n *Node) [6]float64 {
	sx := n.scaleX
	sy := n.scaleY

	sin, cos := math.Sincos(n.rotation)

	var tanSkewX, tanSkewY float64
	if n.skewX != 0 {
		tanSkewX = math.Tan(n.skewX)
	}
	if n.skewY != 0 {
		tanSkewY = math.Tan(n.skewY)
	}

	// After Skew:
	a := sx
	b := tanSkewY * sx
	c := tanSkewX * sy
	d := sy

	px := n.pivotX
	py := n.pivotY
	preTx := -px*sx - tanSkewX*py*sy
	preTy := -tanSkewY*px*sx - py*sy

	// After Rotate:
	ra := cos*a - sin*b
	rb := sin*a + cos*b
	rc := cos*c - sin*d
	rd := sin*c + cos*d
	rtx := cos*preTx - sin*preTy
	rty := sin*preTx + cos*preTy

	// After Translate(X, Y):
	return [6]float64{ra, rb, rc, rd, rtx + n.x, rty + n.y}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular.
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// --- Transform properties ---

// Position returns the node's local position.
func (n *Node) Position() Vec2 {
	return Vec2{n.x, n.y}
}

// SetPosition sets the node's local position.
func (n *Node) SetPosition(x, y float64) {
	if n.x == x && n.y == y {
		return
	}
	n.x = x
	n.y = y
	n.markUpdated(UpdateTransform | UpdateRenderable)
}

// Scale returns the node's local scale.
func (n *Node) Scale() Vec2 {
	return Vec2{n.scaleX, n.scaleY}
}

// SetScale sets the node's scale. Negative values flip the axis.
func (n *Node) SetScale(sx, sy float64) {
	if n.scaleX == sx && n.scaleY == sy {
		return
	}
	n.scaleX = sx
	n.scaleY = sy
	n.markUpdated(UpdateTransform | UpdateRenderable)
}

// Rotation returns the node's rotation in radians.
func (n *Node) Rotation() float64 {
	return n.rotation
}

// SetRotation sets the node's rotation (in radians).
func (n *Node) SetRotation(r float64) {
	if n.rotation == r {
		return
	}
	n.rotation = r
	n.markUpdated(UpdateTransform | UpdateRenderable)
}

// Skew returns the node's skew angles in radians.
func (n *Node) Skew() Vec2 {
	return Vec2{n.skewX, n.skewY}
}

// SetSkew sets the node's skew angles (in radians).
func (n *Node) SetSkew(sx, sy float64) {
	if n.skewX == sx && n.skewY == sy {
		return
	}
	n.skewX = sx
	n.skewY = sy
	n.markUpdated(UpdateTransform | UpdateRenderable)
}

// Pivot returns the local point the node scales and rotates around.
func (n *Node) Pivot() Vec2 {
	return Vec2{n.pivotX, n.pivotY}
}

// SetPivot sets the local point the node scales and rotates around.
func (n *Node) SetPivot(px, py float64) {
	if n.pivotX == px && n.pivotY == py {
		return
	}
	n.pivotX = px
	n.pivotY = py
	n.markUpdated(UpdateTransform | UpdateRenderable)
}

// Alpha returns the node's local alpha.
func (n *Node) Alpha() float64 {
	return n.alpha
}

// SetAlpha sets the node's alpha. Children inherit it multiplicatively.
func (n *Node) SetAlpha(a float64) {
	if n.alpha == a {
		return
	}
	n.alpha = a
	n.markUpdated(UpdateTransform | UpdateRenderable)
}

// --- World state ---

// WorldTransform returns the local-to-world matrix computed on the last frame.
func (n *Node) WorldTransform() [6]float64 {
	return n.worldTransform
}

// WorldAlpha returns the alpha accumulated from the root on the last frame.
func (n *Node) WorldAlpha() float64 {
	return n.worldAlpha
}

// WorldToLocal converts a world-space point to this node's local coordinate space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	inv := invertAffine(n.worldTransform)
	return transformPoint(inv, wx, wy)
}

// LocalToWorld converts a local-space point to world-space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return transformPoint(n.worldTransform, lx, ly)
}

// updateWorldTransform recomputes world transforms for the subtree rooted at
// n. Nodes whose world state changed are queued for a pipe update. Composite
// members are updated relative to their owner.
func updateWorldTransform(n *Node, parentTransform [6]float64, parentAlpha float64, parentRecomputed bool) {
	recompute := n.flags&UpdateTransform != 0 || parentRecomputed
	if recompute {
		n.worldTransform = multiplyAffine(parentTransform, computeLocalTransform(n))
		n.worldAlpha = parentAlpha * n.alpha
		n.flags &^= UpdateTransform
		if n.pipeID != PipeNone || n.owner != nil {
			n.flags |= UpdateRenderable
			n.notify()
		}
	}

	if c, ok := n.self.(Composite); ok {
		for i := 0; i < c.NumMembers(); i++ {
			updateWorldTransform(c.MemberAt(i).RenderNode(), n.worldTransform, n.worldAlpha, recompute)
		}
	}
	for _, child := range n.children {
		updateWorldTransform(child, n.worldTransform, n.worldAlpha, recompute)
	}
}
