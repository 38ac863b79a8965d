package sprig

import (
	"errors"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Renderer turns a scene graph into draw calls. Render brings every render
// group's instruction set up to date; Draw submits the instructions. Pipe
// lookups go through the registry handed to NewRenderer.
type Renderer struct {
	registry *Registry
	stats    FrameStats
	debug    bool
}

// NewRenderer creates a renderer using reg. Panics if reg is nil.
func NewRenderer(reg *Registry) *Renderer {
	if reg == nil {
		panic("sprig: renderer needs a registry")
	}
	return &Renderer{registry: reg}
}

// Registry returns the registry the renderer dispatches through.
func (r *Renderer) Registry() *Registry {
	return r.registry
}

// Stats returns the counters of the last Render/Draw pair.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// SetDebugMode enables or disables debug mode. When enabled, destroyed-node
// access panics, tree depth and child count warnings are printed, and
// per-frame stats are logged to stderr.
func (r *Renderer) SetDebugMode(enabled bool) {
	r.debug = enabled
	globalDebug = enabled
}

// Render updates world transforms below root and processes every render
// group reachable from it. root must be a group container.
//
// A node whose pipe id has no registered pipe yields an *UnknownPipeError,
// also when the lookup happens inside a fan-out pipe. The affected group is
// rebuilt on a later frame. The registry is locked for the duration of the
// call.
func (r *Renderer) Render(root *Node) (err error) {
	g := root.ownGroup
	if g == nil {
		panic("sprig: render root must be a group container")
	}
	r.stats = FrameStats{}

	reg := r.registry
	reg.locked = true
	defer func() {
		reg.locked = false
		if v := recover(); v != nil {
			var upe *UnknownPipeError
			if e, ok := v.(error); ok && errors.As(e, &upe) {
				g.structureDirty = true
				err = upe
				return
			}
			panic(v)
		}
	}()

	var t0 time.Time
	if r.debug {
		t0 = time.Now()
	}

	updateWorldTransform(root, identityTransform, 1.0, false)

	if r.debug {
		r.stats.TransformTime = time.Since(t0)
		t0 = time.Now()
	}

	err = r.process(g)

	if r.debug {
		r.stats.ProcessTime = time.Since(t0)
	}
	return err
}

func (r *Renderer) process(g *RenderGroup) error {
	if err := g.process(r.registry, &r.stats); err != nil {
		return err
	}
	for _, child := range g.childGroups {
		if err := r.process(child); err != nil {
			return err
		}
	}
	return nil
}

// Draw executes the instructions built by the last Render onto target.
// Nested render groups are drawn in place.
func (r *Renderer) Draw(target *ebiten.Image, root *Node) {
	g := root.ownGroup
	if g == nil {
		panic("sprig: render root must be a group container")
	}
	if !root.visible {
		return
	}

	var t0 time.Time
	if r.debug {
		t0 = time.Now()
	}

	r.stats.Instructions = 0
	r.stats.DrawCalls = 0
	r.drawGroup(target, g)

	if r.debug {
		r.stats.SubmitTime = time.Since(t0)
		r.debugLog(r.stats)
	}
}

func (r *Renderer) drawGroup(target *ebiten.Image, g *RenderGroup) {
	for i := 0; i < g.set.Len(); i++ {
		r.stats.Instructions++
		switch in := g.set.At(i).(type) {
		case *RenderGroup:
			r.drawGroup(target, in)
		case Executor:
			in.Execute(target)
			r.stats.DrawCalls++
		}
	}
}
