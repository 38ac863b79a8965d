package sprig

import (
	"math"
	"math/rand/v2"
)

// ParticleContainer is a composite node: it owns an ordered list of sprites
// as members and is dispatched as one unit. Members are not scene children;
// they are transformed relative to the container and drawn in insertion
// order through the sprite pipe.
type ParticleContainer struct {
	Node

	members []*Sprite
	bounds  cachedBounds
	emitter *ParticleEmitter
}

// NewParticleContainer creates an empty particle container.
func NewParticleContainer(name string) *ParticleContainer {
	c := &ParticleContainer{bounds: cachedBounds{flag: UpdateBounds}}
	c.Node.Init(c, name, PipeParticleContainer)
	return c
}

// NumMembers implements Composite.
func (c *ParticleContainer) NumMembers() int {
	return len(c.members)
}

// MemberAt implements Composite.
func (c *ParticleContainer) MemberAt(i int) Renderable {
	return c.members[i]
}

// Particles returns the member list. The returned slice MUST NOT be mutated by the caller.
func (c *ParticleContainer) Particles() []*Sprite {
	return c.members
}

// AddParticle appends p to the members and takes ownership of it.
// Panics if p is nil, is in the scene graph, or belongs to another composite.
func (c *ParticleContainer) AddParticle(p *Sprite) *Sprite {
	if p == nil {
		panic("sprig: cannot add nil particle")
	}
	if globalDebug {
		debugCheckDestroyed(&c.Node, "AddParticle (container)")
		debugCheckDestroyed(&p.Node, "AddParticle (particle)")
	}
	c.AdoptMember(p)
	c.members = append(c.members, p)
	c.InvalidateInstructions()
	c.flags |= UpdateBounds
	return p
}

// RemoveParticle removes p from the members without destroying it.
// Panics if p is not a member of c.
func (c *ParticleContainer) RemoveParticle(p *Sprite) {
	for i, m := range c.members {
		if m == p {
			c.RemoveParticleAt(i)
			return
		}
	}
	panic("sprig: particle is not a member of this container")
}

// RemoveParticleAt removes and returns the member at index i, keeping the
// order of the remaining members.
func (c *ParticleContainer) RemoveParticleAt(i int) *Sprite {
	if i < 0 || i >= len(c.members) {
		panic("sprig: particle index out of range")
	}
	p := c.members[i]
	copy(c.members[i:], c.members[i+1:])
	c.members[len(c.members)-1] = nil
	c.members = c.members[:len(c.members)-1]
	c.ReleaseMember(p)
	c.InvalidateInstructions()
	c.flags |= UpdateBounds
	return p
}

func (c *ParticleContainer) removeMember(m *Node) {
	for i, p := range c.members {
		if &p.Node == m {
			c.RemoveParticleAt(i)
			return
		}
	}
}

// RemoveParticles releases all members without destroying them.
func (c *ParticleContainer) RemoveParticles() {
	for _, p := range c.members {
		c.ReleaseMember(p)
	}
	clear(c.members)
	c.members = c.members[:0]
	c.InvalidateInstructions()
	c.flags |= UpdateBounds
}

// Bounds returns the union of the visible members' bounds in the
// container's local space. Cached until a member changes.
func (c *ParticleContainer) Bounds() Bounds {
	return c.bounds.get(&c.Node, c.computeBounds)
}

func (c *ParticleContainer) computeBounds() Bounds {
	var out Bounds
	first := true
	for _, p := range c.members {
		if !p.visible {
			continue
		}
		b := p.Bounds().Transform(computeLocalTransform(&p.Node))
		if first {
			out = b
			first = false
			continue
		}
		out = out.Union(b)
	}
	return out
}

// Emitter returns the emitter driving the members, or nil.
func (c *ParticleContainer) Emitter() *ParticleEmitter {
	return c.emitter
}

// Destroy releases the container and its members with default options.
func (c *ParticleContainer) Destroy() {
	c.DestroyWith(DestroyOptions{})
}

// DestroyWith releases the container's pipe state (each member once), then
// destroys every member. Members are owned, so they are destroyed regardless
// of opts.Children; opts.Texture is forwarded to them. Calling it twice is a
// no-op.
func (c *ParticleContainer) DestroyWith(opts DestroyOptions) {
	if c.destroyed {
		return
	}
	c.Node.DestroyWith(opts)
	members := c.members
	c.members = nil
	for _, p := range members {
		p.owner = nil
		p.registry, p.pipe = nil, nil // released through the container above
		p.DestroyWith(opts)
	}
	c.emitter = nil
}

// --- Emitter ---

// particle holds per-particle simulation state for the member sprite it drives.
type particle struct {
	sprite     *Sprite
	x, y       float64
	vx, vy     float64
	life       float64 // remaining lifetime in seconds
	maxLife    float64 // initial lifetime (for computing t)
	startScale float64
	endScale   float64
	startAlpha float64
	endAlpha   float64
}

// Range is a general-purpose min/max range.
type Range struct {
	Min, Max float64
}

// Random returns a random float64 in [Min, Max].
func (r Range) Random() float64 {
	if r.Min == r.Max {
		return r.Min
	}
	return r.Min + rand.Float64()*(r.Max-r.Min)
}

// EmitterConfig controls how particles are spawned and behave.
type EmitterConfig struct {
	// MaxParticles is the pool size. New particles are silently dropped when full.
	MaxParticles int
	// EmitRate is the number of particles spawned per second.
	EmitRate float64
	// Lifetime is the range of particle lifetimes in seconds.
	Lifetime Range
	// Speed is the range of initial particle speeds in pixels per second.
	Speed Range
	// Angle is the range of emission angles in radians.
	Angle Range
	// StartScale is the range of scale factors at birth, interpolated to EndScale over lifetime.
	StartScale Range
	// EndScale is the range of scale factors at death.
	EndScale Range
	// StartAlpha is the range of alpha values at birth, interpolated to EndAlpha over lifetime.
	StartAlpha Range
	// EndAlpha is the range of alpha values at death.
	EndAlpha Range
	// Gravity is the constant acceleration applied to all particles each frame.
	Gravity Vec2
	// StartColor is the tint at birth, interpolated to EndColor over lifetime.
	StartColor Color
	// EndColor is the tint at death.
	EndColor Color
	// Texture is shared by every particle sprite.
	Texture *Texture
	// BlendMode is the compositing operation for particle rendering.
	BlendMode BlendMode
}

// ParticleEmitter simulates particles on the CPU and writes the result into
// a pool of member sprites of its container. Pool sprites stay members for
// the emitter's lifetime; dead particles are hidden, so the container's
// instructions are patched in place instead of rebuilt.
type ParticleEmitter struct {
	config    EmitterConfig
	particles []particle
	alive     int
	emitAccum float64
	active    bool
}

// NewParticleEmitter creates a particle container with a preallocated pool of
// hidden member sprites driven by an emitter.
func NewParticleEmitter(name string, cfg EmitterConfig) *ParticleContainer {
	max := cfg.MaxParticles
	if max <= 0 {
		max = 128
	}
	c := NewParticleContainer(name)
	e := &ParticleEmitter{config: cfg, particles: make([]particle, max)}
	for i := range e.particles {
		s := NewSprite(name, cfg.Texture)
		s.SetAnchor(0.5, 0.5)
		s.SetBlendMode(cfg.BlendMode)
		s.SetVisible(false)
		e.particles[i].sprite = c.AddParticle(s)
	}
	c.emitter = e
	return c
}

// Start begins emitting particles.
func (e *ParticleEmitter) Start() {
	e.active = true
}

// Stop stops emitting new particles. Existing particles continue to live out.
func (e *ParticleEmitter) Stop() {
	e.active = false
}

// Reset stops emitting and kills all alive particles.
func (e *ParticleEmitter) Reset() {
	e.active = false
	for i := 0; i < e.alive; i++ {
		e.particles[i].sprite.SetVisible(false)
	}
	e.alive = 0
	e.emitAccum = 0
}

// IsActive reports whether the emitter is currently emitting new particles.
func (e *ParticleEmitter) IsActive() bool {
	return e.active
}

// AliveCount returns the number of alive particles.
func (e *ParticleEmitter) AliveCount() int {
	return e.alive
}

// Config returns a pointer to the emitter's config for live tuning.
// Texture and BlendMode changes apply to newly spawned particles.
func (e *ParticleEmitter) Config() *EmitterConfig {
	return &e.config
}

// update advances particle simulation by dt seconds and writes the state of
// every live particle into its sprite.
func (e *ParticleEmitter) update(dt float64) {
	gx := e.config.Gravity.X * dt
	gy := e.config.Gravity.Y * dt

	// Update existing particles, swap-remove dead ones. Sprites travel with
	// their particle, so member order never changes.
	i := 0
	for i < e.alive {
		p := &e.particles[i]
		p.life -= dt
		if p.life <= 0 {
			p.sprite.SetVisible(false)
			e.alive--
			e.particles[i], e.particles[e.alive] = e.particles[e.alive], e.particles[i]
			continue
		}

		p.vx += gx
		p.vy += gy
		p.x += p.vx * dt
		p.y += p.vy * dt

		e.apply(p)
		i++
	}

	// Emit new particles.
	if e.active && e.config.EmitRate > 0 {
		e.emitAccum += e.config.EmitRate * dt
		for e.emitAccum >= 1.0 {
			e.emitAccum -= 1.0
			if e.alive < len(e.particles) {
				e.spawnParticle()
			}
		}
	}
}

// apply writes the interpolated particle state into its sprite.
func (e *ParticleEmitter) apply(p *particle) {
	t := 1.0 - p.life/p.maxLife
	scale := lerp(p.startScale, p.endScale, t)
	s := p.sprite
	s.SetPosition(p.x, p.y)
	s.SetScale(scale, scale)
	s.SetAlpha(lerp(p.startAlpha, p.endAlpha, t))
	s.SetColor(Color{
		R: lerp(e.config.StartColor.R, e.config.EndColor.R, t),
		G: lerp(e.config.StartColor.G, e.config.EndColor.G, t),
		B: lerp(e.config.StartColor.B, e.config.EndColor.B, t),
		A: 1,
	})
}

// spawnParticle initializes the particle at slot e.alive and increments alive.
func (e *ParticleEmitter) spawnParticle() {
	p := &e.particles[e.alive]

	angle := e.config.Angle.Random()
	speed := e.config.Speed.Random()
	p.vx = math.Cos(angle) * speed
	p.vy = math.Sin(angle) * speed
	p.x = 0
	p.y = 0

	p.life = e.config.Lifetime.Random()
	if p.life <= 0 {
		p.life = 1.0
	}
	p.maxLife = p.life

	p.startScale = e.config.StartScale.Random()
	p.endScale = e.config.EndScale.Random()
	p.startAlpha = e.config.StartAlpha.Random()
	p.endAlpha = e.config.EndAlpha.Random()

	s := p.sprite
	s.SetTexture(e.config.Texture)
	s.SetBlendMode(e.config.BlendMode)
	s.SetVisible(true)
	e.apply(p)

	e.alive++
}

// lerp linearly interpolates between a and b by t.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// updateEmitters advances every emitter in the subtree rooted at n.
func updateEmitters(n *Node, dt float64) {
	if c, ok := n.self.(*ParticleContainer); ok && c.emitter != nil {
		c.emitter.update(dt)
	}
	for _, child := range n.children {
		updateEmitters(child, dt)
	}
}
