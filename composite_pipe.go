package sprig

import "fmt"

// CompositePipe renders Composite nodes by forwarding every operation to the
// pipe registered for each member, in member order. New aggregate kinds get
// batching for free by reusing the member kind's pipe.
type CompositePipe struct {
	registry *Registry
}

// NewCompositePipe creates a fan-out pipe that resolves member pipes in reg.
func NewCompositePipe(reg *Registry) *CompositePipe {
	return &CompositePipe{registry: reg}
}

func asComposite(r Renderable) Composite {
	c, ok := r.(Composite)
	if !ok {
		panic(fmt.Sprintf("sprig: composite pipe cannot render %T", r))
	}
	return c
}

// AddRenderable implements Pipe.
func (p *CompositePipe) AddRenderable(r Renderable, set *InstructionSet) {
	c := asComposite(r)
	for i := 0; i < c.NumMembers(); i++ {
		m := c.MemberAt(i)
		p.registry.mustPipeFor(m).AddRenderable(m, set)
	}
}

// UpdateRenderable implements Pipe.
func (p *CompositePipe) UpdateRenderable(r Renderable) {
	c := asComposite(r)
	for i := 0; i < c.NumMembers(); i++ {
		m := c.MemberAt(i)
		p.registry.mustPipeFor(m).UpdateRenderable(m)
	}
}

// ValidateRenderable is true only when every member validates. Every member
// is asked, even after the first failure.
func (p *CompositePipe) ValidateRenderable(r Renderable) bool {
	c := asComposite(r)
	valid := true
	for i := 0; i < c.NumMembers(); i++ {
		m := c.MemberAt(i)
		if !p.registry.mustPipeFor(m).ValidateRenderable(m) {
			valid = false
		}
	}
	return valid
}

// DestroyRenderable implements Pipe. Members whose pipe has since been
// unregistered have nothing to release and are skipped.
func (p *CompositePipe) DestroyRenderable(r Renderable) {
	c := asComposite(r)
	for i := 0; i < c.NumMembers(); i++ {
		m := c.MemberAt(i)
		if pipe, err := p.registry.pipeFor(m); err == nil {
			pipe.DestroyRenderable(m)
		}
	}
}
