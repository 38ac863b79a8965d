package sprig

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 values of a node simultaneously and writes them
// back through the node's setters, so every step goes through the ordinary
// change notification. Create one via the convenience constructors and call
// Update(dt) each frame, or hand it to Scene.AddTween. If the target node is
// destroyed, the group stops immediately.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	values [4]float64
	apply  func(v *[4]float64)
	target *Node
	Done   bool
}

func newTweenGroup(target *Node, from, to []float64, duration float32, fn ease.TweenFunc, apply func(v *[4]float64)) *TweenGroup {
	g := &TweenGroup{count: len(from), target: target, apply: apply}
	for i := range from {
		g.tweens[i] = gween.New(float32(from[i]), float32(to[i]), duration, fn)
		g.values[i] = from[i]
	}
	return g
}

// Update advances all tweens by dt seconds and applies the values to the
// target. If the target node has been destroyed, Done is set to true and no
// writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDestroyed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		g.values[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(&g.values)
}

// TweenPosition animates the node's position to (toX, toY).
func TweenPosition(r Renderable, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	n := r.RenderNode()
	return newTweenGroup(n, []float64{n.x, n.y}, []float64{toX, toY}, duration, fn, func(v *[4]float64) {
		n.SetPosition(v[0], v[1])
	})
}

// TweenScale animates the node's scale to (toSX, toSY).
func TweenScale(r Renderable, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	n := r.RenderNode()
	return newTweenGroup(n, []float64{n.scaleX, n.scaleY}, []float64{toSX, toSY}, duration, fn, func(v *[4]float64) {
		n.SetScale(v[0], v[1])
	})
}

// TweenAlpha animates the node's alpha.
func TweenAlpha(r Renderable, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	n := r.RenderNode()
	return newTweenGroup(n, []float64{n.alpha}, []float64{to}, duration, fn, func(v *[4]float64) {
		n.SetAlpha(v[0])
	})
}

// TweenRotation animates the node's rotation in radians.
func TweenRotation(r Renderable, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	n := r.RenderNode()
	return newTweenGroup(n, []float64{n.rotation}, []float64{to}, duration, fn, func(v *[4]float64) {
		n.SetRotation(v[0])
	})
}

// TweenColor animates all four tint components of a sprite.
func TweenColor(s *Sprite, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	c := s.color
	return newTweenGroup(&s.Node, []float64{c.R, c.G, c.B, c.A}, []float64{to.R, to.G, to.B, to.A}, duration, fn, func(v *[4]float64) {
		s.SetColor(Color{R: v[0], G: v[1], B: v[2], A: v[3]})
	})
}

// TweenSize animates a sprite's width and height through SetSize, keeping
// any flip.
func TweenSize(s *Sprite, toW, toH float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(&s.Node, []float64{s.Width(), s.Height()}, []float64{toW, toH}, duration, fn, func(v *[4]float64) {
		s.SetSize(v[0], v[1])
	})
}
