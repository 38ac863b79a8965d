package sprig

import (
	"math"
	"testing"
)

func defaultTestConfig(max int) EmitterConfig {
	return EmitterConfig{
		MaxParticles: max,
		EmitRate:     100,
		Lifetime:     Range{1.0, 1.0},
		Speed:        Range{100, 100},
		Angle:        Range{0, 0},
		StartScale:   Range{1, 1},
		EndScale:     Range{0.5, 0.5},
		StartAlpha:   Range{1, 1},
		EndAlpha:     Range{0, 0},
		Gravity:      Vec2{0, 0},
		StartColor:   Color{1, 1, 1, 1},
		EndColor:     Color{0, 0, 0, 1},
		Texture:      testTexture(16, 16),
	}
}

func newTestEmitter(cfg EmitterConfig) (*ParticleContainer, *ParticleEmitter) {
	c := NewParticleEmitter("emitter", cfg)
	return c, c.Emitter()
}

// --- Container ---

func TestParticleContainerDefaults(t *testing.T) {
	c := NewParticleContainer("p")
	if c.PipeID() != PipeParticleContainer {
		t.Errorf("PipeID = %v, want %v", c.PipeID(), PipeParticleContainer)
	}
	if c.NumMembers() != 0 {
		t.Errorf("NumMembers = %d, want 0", c.NumMembers())
	}
	if c.Emitter() != nil {
		t.Error("plain container should have no emitter")
	}
}

func TestParticleContainerAddRemoveOrder(t *testing.T) {
	c := NewParticleContainer("p")
	a := c.AddParticle(NewSprite("a", nil))
	b := c.AddParticle(NewSprite("b", nil))
	d := c.AddParticle(NewSprite("d", nil))

	if c.MemberAt(0) != a || c.MemberAt(1) != b || c.MemberAt(2) != d {
		t.Fatal("members not in insertion order")
	}
	if a.Owner() != &c.Node {
		t.Error("member owner should be the container")
	}
	if a.Parent() != nil {
		t.Error("member should not have a scene parent")
	}

	c.RemoveParticle(b)
	if c.NumMembers() != 2 || c.MemberAt(0) != a || c.MemberAt(1) != d {
		t.Errorf("after remove: got %d members, want [a d]", c.NumMembers())
	}
	if b.Owner() != nil {
		t.Error("removed member should have no owner")
	}
	if b.IsDestroyed() {
		t.Error("RemoveParticle should not destroy the member")
	}

	if got := c.RemoveParticleAt(0); got != a {
		t.Error("RemoveParticleAt(0) should return a")
	}
	c.RemoveParticles()
	if c.NumMembers() != 0 {
		t.Errorf("NumMembers = %d, want 0", c.NumMembers())
	}
	if d.Owner() != nil {
		t.Error("RemoveParticles should release members")
	}
}

func TestParticleContainerAddPanics(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *ParticleContainer) *Sprite
	}{
		{"nil", func(c *ParticleContainer) *Sprite { return nil }},
		{"has parent", func(c *ParticleContainer) *Sprite {
			s := NewSprite("s", nil)
			NewContainer("parent").AddChild(s)
			return s
		}},
		{"owned elsewhere", func(c *ParticleContainer) *Sprite {
			s := NewSprite("s", nil)
			NewParticleContainer("other").AddParticle(s)
			return s
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewParticleContainer("p")
			s := tt.setup(c)
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			c.AddParticle(s)
		})
	}
}

func TestParticleContainerRemoveNonMemberPanics(t *testing.T) {
	c := NewParticleContainer("p")
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	c.RemoveParticle(NewSprite("stranger", nil))
}

func TestParticleContainerBoundsUnion(t *testing.T) {
	c := NewParticleContainer("p")
	a := c.AddParticle(NewSprite("a", testTexture(16, 16)))
	b := c.AddParticle(NewSprite("b", testTexture(16, 16)))
	b.SetPosition(10, 20)

	want := Bounds{0, 0, 26, 36}
	if got := c.Bounds(); got != want {
		t.Errorf("Bounds = %+v, want %+v", got, want)
	}

	// Hidden members do not contribute.
	b.SetVisible(false)
	if got := c.Bounds(); got != (Bounds{0, 0, 16, 16}) {
		t.Errorf("Bounds with hidden member = %+v, want {0 0 16 16}", got)
	}

	// A member move after the cache was filled is picked up.
	a.SetPosition(-4, 0)
	if got := c.Bounds(); got.MinX != -4 {
		t.Errorf("MinX = %f, want -4", got.MinX)
	}
}

func TestParticleContainerBoundsEmpty(t *testing.T) {
	c := NewParticleContainer("p")
	if got := c.Bounds(); got != (Bounds{}) {
		t.Errorf("Bounds = %+v, want zero", got)
	}
}

func TestDestroyedMemberLeavesContainer(t *testing.T) {
	c := NewParticleContainer("p")
	a := c.AddParticle(NewSprite("a", nil))
	b := c.AddParticle(NewSprite("b", nil))

	a.Destroy()
	if c.NumMembers() != 1 || c.MemberAt(0) != b {
		t.Errorf("NumMembers = %d, want only b left", c.NumMembers())
	}
}

func TestParticleContainerDestroyDestroysMembers(t *testing.T) {
	c := NewParticleContainer("p")
	a := c.AddParticle(NewSprite("a", nil))
	b := c.AddParticle(NewSprite("b", nil))

	c.Destroy()
	if !a.IsDestroyed() || !b.IsDestroyed() {
		t.Error("members should be destroyed with the container")
	}
	if c.NumMembers() != 0 {
		t.Errorf("NumMembers = %d, want 0", c.NumMembers())
	}
	c.Destroy() // no-op
}

// --- Emitter ---

func TestEmitterConfigCreatesPool(t *testing.T) {
	c, e := newTestEmitter(defaultTestConfig(500))
	if len(e.particles) != 500 {
		t.Errorf("pool size = %d, want 500", len(e.particles))
	}
	if c.NumMembers() != 500 {
		t.Errorf("members = %d, want 500", c.NumMembers())
	}
	if e.alive != 0 {
		t.Errorf("alive = %d, want 0", e.alive)
	}
	for i, p := range c.Particles() {
		if p.Visible() {
			t.Fatalf("pool sprite %d should start hidden", i)
		}
	}
}

func TestEmitterDefaultMaxParticles(t *testing.T) {
	_, e := newTestEmitter(EmitterConfig{MaxParticles: 0})
	if len(e.particles) != 128 {
		t.Errorf("pool size = %d, want 128 (default)", len(e.particles))
	}
}

func TestEmitterStartStopReset(t *testing.T) {
	_, e := newTestEmitter(defaultTestConfig(100))

	if e.IsActive() {
		t.Error("emitter should not be active initially")
	}
	e.Start()
	if !e.IsActive() {
		t.Error("emitter should be active after Start")
	}
	e.Stop()
	if e.IsActive() {
		t.Error("emitter should not be active after Stop")
	}

	e.Start()
	e.update(0.1) // ~10 particles at 100/s
	if e.AliveCount() == 0 {
		t.Fatal("expected particles after update")
	}

	e.Reset()
	if e.IsActive() {
		t.Error("emitter should not be active after Reset")
	}
	if e.AliveCount() != 0 {
		t.Errorf("alive = %d, want 0 after Reset", e.AliveCount())
	}
	for i := range e.particles {
		if e.particles[i].sprite.Visible() {
			t.Fatalf("particle %d still visible after Reset", i)
		}
	}
}

func TestParticleSpawnRate(t *testing.T) {
	cfg := defaultTestConfig(1000)
	cfg.EmitRate = 60
	_, e := newTestEmitter(cfg)
	e.Start()

	for i := 0; i < 60; i++ {
		e.update(1.0 / 60.0)
	}

	if alive := e.AliveCount(); alive != 60 {
		t.Errorf("alive = %d, want 60", alive)
	}
}

func TestSpawnShowsSprite(t *testing.T) {
	cfg := defaultTestConfig(4)
	cfg.BlendMode = BlendAdd
	c, e := newTestEmitter(cfg)
	e.Start()
	e.update(0.015) // exactly one particle

	if e.AliveCount() != 1 {
		t.Fatalf("alive = %d, want 1", e.AliveCount())
	}
	s := e.particles[0].sprite
	if !s.Visible() {
		t.Error("spawned particle sprite should be visible")
	}
	if s.Texture() != cfg.Texture {
		t.Error("spawned sprite should use the config texture")
	}
	if s.BlendMode() != BlendAdd {
		t.Errorf("BlendMode = %v, want BlendAdd", s.BlendMode())
	}
	visible := 0
	for _, p := range c.Particles() {
		if p.Visible() {
			visible++
		}
	}
	if visible != 1 {
		t.Errorf("visible members = %d, want 1", visible)
	}
}

func TestSwapRemoveHidesDead(t *testing.T) {
	cfg := defaultTestConfig(100)
	cfg.Lifetime = Range{0.05, 0.05}
	cfg.EmitRate = 100
	c, e := newTestEmitter(cfg)
	e.Start()

	e.update(0.02)
	if e.AliveCount() == 0 {
		t.Fatal("expected particles spawned")
	}

	e.Stop()
	e.update(0.1)
	if e.AliveCount() != 0 {
		t.Errorf("alive = %d, want 0 after particles expire", e.AliveCount())
	}
	for _, p := range c.Particles() {
		if p.Visible() {
			t.Fatal("expired particle sprite should be hidden")
		}
	}
	if c.NumMembers() != 100 {
		t.Errorf("members = %d, want pool to stay at 100", c.NumMembers())
	}
}

func TestSwapRemoveKeepsMemberOrder(t *testing.T) {
	cfg := defaultTestConfig(8)
	c, e := newTestEmitter(cfg)
	before := append([]*Sprite(nil), c.Particles()...)

	e.Start()
	e.update(0.05)
	e.Stop()
	e.update(2)

	for i, p := range c.Particles() {
		if p != before[i] {
			t.Fatalf("member %d changed after swap-remove", i)
		}
	}
}

func TestGravityAffectsVelocity(t *testing.T) {
	cfg := defaultTestConfig(10)
	cfg.Gravity = Vec2{0, 100}
	cfg.Speed = Range{0, 0}
	cfg.Angle = Range{0, 0}
	cfg.Lifetime = Range{10, 10}
	cfg.EmitRate = 10000
	_, e := newTestEmitter(cfg)
	e.Start()

	e.update(0.001) // emitAccum = 10, spawn 10
	e.Stop()
	e.update(1.0)
	if e.AliveCount() == 0 {
		t.Fatal("expected alive particles")
	}

	p := &e.particles[0]
	assertNear(t, "vy", p.vy, 100.0)
	if p.y < 50 {
		t.Errorf("y = %f, expected > 50 with gravity", p.y)
	}
	assertNear(t, "sprite.y", p.sprite.Position().Y, p.y)
}

func TestLifetimeInterpolation(t *testing.T) {
	cfg := defaultTestConfig(1)
	cfg.EmitRate = 1000
	cfg.Lifetime = Range{1, 1}
	cfg.StartScale = Range{2, 2}
	cfg.EndScale = Range{0, 0}
	cfg.StartAlpha = Range{1, 1}
	cfg.EndAlpha = Range{0, 0}
	cfg.StartColor = Color{1, 0, 0, 1}
	cfg.EndColor = Color{0, 1, 0, 1}
	_, e := newTestEmitter(cfg)
	e.Start()

	e.update(0.001)
	e.Stop()
	if e.AliveCount() != 1 {
		t.Fatalf("alive = %d, want 1", e.AliveCount())
	}

	p := &e.particles[0]
	s := p.sprite

	assertNear(t, "scale@t0", s.Scale().X, 2.0)
	assertNear(t, "alpha@t0", s.Alpha(), 1.0)
	assertNear(t, "colorR@t0", s.Color().R, 1.0)
	assertNear(t, "colorG@t0", s.Color().G, 0.0)

	// Spawned particles skip the first dt, so update(0.5) lands on t = 0.5.
	e.update(0.5)
	t50 := 1.0 - p.life/p.maxLife
	assertNear(t, "t~0.5", t50, 0.5)
	assertNear(t, "scale@t0.5", s.Scale().X, lerp(2, 0, t50))
	assertNear(t, "alpha@t0.5", s.Alpha(), lerp(1, 0, t50))
	assertNear(t, "colorR@t0.5", s.Color().R, lerp(1, 0, t50))
	assertNear(t, "colorG@t0.5", s.Color().G, lerp(0, 1, t50))
}

func TestMaxParticlesCap(t *testing.T) {
	cfg := defaultTestConfig(5)
	cfg.EmitRate = 10000
	_, e := newTestEmitter(cfg)
	e.Start()

	e.update(1.0)
	if e.AliveCount() > 5 {
		t.Errorf("alive = %d, exceeds max 5", e.AliveCount())
	}
}

func TestRangeRandom(t *testing.T) {
	r := Range{10, 20}
	for i := 0; i < 100; i++ {
		v := r.Random()
		if v < 10 || v > 20 {
			t.Fatalf("Random() = %f, outside [10, 20]", v)
		}
	}

	r2 := Range{5, 5}
	for i := 0; i < 10; i++ {
		if r2.Random() != 5 {
			t.Fatal("Random() with Min==Max should return Min")
		}
	}
}

func TestLerp(t *testing.T) {
	assertNear(t, "lerp(0,10,0)", lerp(0, 10, 0), 0)
	assertNear(t, "lerp(0,10,0.5)", lerp(0, 10, 0.5), 5)
	assertNear(t, "lerp(0,10,1)", lerp(0, 10, 1), 10)
}

func TestUpdateEmittersRecursive(t *testing.T) {
	root := NewContainer("root")
	child := NewContainer("child")
	root.AddChild(child)

	cfg := defaultTestConfig(100)
	e1 := NewParticleEmitter("e1", cfg)
	e1.Emitter().Start()
	root.AddChild(e1)

	e2 := NewParticleEmitter("e2", cfg)
	e2.Emitter().Start()
	child.AddChild(e2)

	updateEmitters(root, 0.1)

	if e1.Emitter().AliveCount() == 0 {
		t.Error("e1 should have particles after updateEmitters")
	}
	if e2.Emitter().AliveCount() == 0 {
		t.Error("e2 should have particles after updateEmitters (nested)")
	}
}

func TestEmitterDestroyDropsEmitter(t *testing.T) {
	c, _ := newTestEmitter(defaultTestConfig(4))
	c.Destroy()
	if c.Emitter() != nil {
		t.Error("Emitter should be nil after Destroy")
	}
	updateEmitters(&c.Node, 0.1)
}

func TestZeroAllocsDuringUpdate(t *testing.T) {
	cfg := defaultTestConfig(1000)
	cfg.EmitRate = 500
	_, e := newTestEmitter(cfg)
	e.Start()

	for i := 0; i < 100; i++ {
		e.update(1.0 / 60.0)
	}

	allocs := testing.AllocsPerRun(100, func() {
		e.update(1.0 / 60.0)
	})
	if allocs > 0 {
		t.Errorf("update allocs = %f, want 0", allocs)
	}
}

func TestConfigPointerForLiveTuning(t *testing.T) {
	_, e := newTestEmitter(defaultTestConfig(100))
	ptr := e.Config()
	ptr.EmitRate = 999
	if e.config.EmitRate != 999 {
		t.Error("Config() should return pointer to internal config")
	}
}

func TestParticleMovesWithAngle(t *testing.T) {
	cfg := defaultTestConfig(1)
	cfg.EmitRate = 10000
	cfg.Speed = Range{100, 100}
	cfg.Angle = Range{math.Pi / 2, math.Pi / 2} // straight down
	cfg.Lifetime = Range{10, 10}
	_, e := newTestEmitter(cfg)
	e.Start()

	e.update(1.0)
	if e.AliveCount() == 0 {
		t.Fatal("expected alive particles")
	}
	e.update(1.0)

	p := &e.particles[0]
	assertNear(t, "vx", p.vx, 0)
	assertNear(t, "vy", p.vy, 100)
	if pos := p.sprite.Position(); pos.Y < 99 || math.Abs(pos.X) > 1e-6 {
		t.Errorf("position = %+v, want straight down", pos)
	}
}

// --- Benchmarks ---

func BenchmarkParticleUpdate_1000(b *testing.B) {
	cfg := defaultTestConfig(1000)
	cfg.EmitRate = 1000
	_, e := newTestEmitter(cfg)
	e.Start()
	for i := 0; i < 60; i++ {
		e.update(1.0 / 60.0)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.update(1.0 / 60.0)
	}
}

func BenchmarkParticleRender_1000(b *testing.B) {
	cfg := defaultTestConfig(1000)
	cfg.EmitRate = 1000
	root := NewGroupContainer("root")
	c := NewParticleEmitter("p", cfg)
	root.AddChild(c)
	c.Emitter().Start()
	r := NewRenderer(NewDefaultRegistry())

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		updateEmitters(root, 1.0/60.0)
		if err := r.Render(root); err != nil {
			b.Fatal(err)
		}
	}
}
