package sprig

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Scene is the top-level object that owns the node tree, the renderer and
// the running tweens.
type Scene struct {
	root     *Node
	renderer *Renderer
	debug    bool

	tweens     []*TweenGroup
	updateFunc func() error
	fps        *fpsWidget

	// ClearColor fills the target before drawing. Skipped when A is zero.
	ClearColor Color
}

// NewScene creates a scene rendering through the default registry.
func NewScene() *Scene {
	return NewSceneWithRegistry(NewDefaultRegistry())
}

// NewSceneWithRegistry creates a scene rendering through reg. Use it to
// override built-in pipes or to add pipes for custom node kinds.
func NewSceneWithRegistry(reg *Registry) *Scene {
	return &Scene{
		root:     NewGroupContainer("root"),
		renderer: NewRenderer(reg),
	}
}

// Root returns the scene's root group container.
func (s *Scene) Root() *Node {
	return s.root
}

// Registry returns the registry the scene renders through.
func (s *Scene) Registry() *Registry {
	return s.renderer.registry
}

// Renderer returns the scene's renderer.
func (s *Scene) Renderer() *Renderer {
	return s.renderer
}

// SetUpdateFunc sets a callback run at the start of every Update.
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// AddTween runs g on every Update until it is done.
func (s *Scene) AddTween(g *TweenGroup) {
	s.tweens = append(s.tweens, g)
}

// NumTweens returns the number of tweens still running.
func (s *Scene) NumTweens() int {
	return len(s.tweens)
}

// Update advances the scene by one tick at the current ebiten TPS.
func (s *Scene) Update() error {
	return s.UpdateDelta(1.0 / float64(ebiten.TPS()))
}

// UpdateDelta runs the update callback, advances tweens and particle
// emitters by dt seconds, then renders the scene graph into instructions.
func (s *Scene) UpdateDelta(dt float64) error {
	if s.updateFunc != nil {
		if err := s.updateFunc(); err != nil {
			return err
		}
	}

	live := s.tweens[:0]
	for _, g := range s.tweens {
		g.Update(float32(dt))
		if !g.Done {
			live = append(live, g)
		}
	}
	clear(s.tweens[len(live):])
	s.tweens = live

	updateEmitters(s.root, dt)
	if s.fps != nil {
		s.fps.update(dt)
	}
	return s.renderer.Render(s.root)
}

// Draw submits the instructions built by the last Update to screen.
func (s *Scene) Draw(screen *ebiten.Image) {
	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor.NRGBA())
	}
	s.renderer.Draw(screen, s.root)
}

// SetDebugMode enables or disables debug mode on the scene's renderer.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	s.renderer.SetDebugMode(enabled)
}

// NRGBA converts c to a non-premultiplied 8-bit color.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
