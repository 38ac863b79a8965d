package sprig

import (
	"errors"
	"fmt"
	"slices"
)

// Pipe translates one node kind into draw instructions.
//
// For every dispatch unit a render group calls, once per frame at most,
// ValidateRenderable and then either UpdateRenderable (instructions still
// valid, refresh in place) or AddRenderable (first emission, or a rebuild of
// the whole group). DestroyRenderable is called when the node is destroyed
// after having been added.
type Pipe interface {
	// AddRenderable emits instructions for r into set.
	AddRenderable(r Renderable, set *InstructionSet)
	// UpdateRenderable refreshes previously emitted instructions in place.
	// Calling it before AddRenderable panics with ErrUpdateBeforeAdd.
	UpdateRenderable(r Renderable)
	// ValidateRenderable reports whether the instructions emitted for r can
	// be reused. False forces the group to rebuild.
	ValidateRenderable(r Renderable) bool
	// DestroyRenderable releases any state the pipe holds for r.
	DestroyRenderable(r Renderable)
}

// ErrUpdateBeforeAdd is the panic value (wrapped) raised by pipes asked to
// update a node they never added.
var ErrUpdateBeforeAdd = errors.New("sprig: update before add")

// UnknownPipeError reports a node whose pipe id has no registered pipe.
type UnknownPipeError struct {
	ID   PipeID
	Node string
}

func (e *UnknownPipeError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("sprig: no render pipe registered for %q", e.ID)
	}
	return fmt.Sprintf("sprig: no render pipe registered for %q (node %q)", e.ID, e.Node)
}

// updateBeforeAdd builds the panic value for an update on an unknown node.
func updateBeforeAdd(pipe PipeID, r Renderable) error {
	return fmt.Errorf("%w: pipe %q, node %q", ErrUpdateBeforeAdd, pipe, r.RenderNode().Name)
}

// Registry maps pipe ids to pipes. It is built once, handed to a Renderer,
// and may be amended between frames. Mutating it while the renderer is
// traversing panics.
type Registry struct {
	pipes   map[PipeID]Pipe
	version uint64
	locked  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pipes: make(map[PipeID]Pipe)}
}

// NewDefaultRegistry creates a registry with the built-in pipes: sprites,
// render groups, and the fan-out pipe shared by particle containers and text.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(PipeSprite, NewSpritePipe())
	r.Register(PipeParticleContainer, NewCompositePipe(r))
	r.Register(PipeRenderGroup, renderGroupPipe{})
	r.Register(PipeText, NewCompositePipe(r))
	return r
}

// Register installs pipe under id, replacing any previous pipe for that id.
func (r *Registry) Register(id PipeID, pipe Pipe) {
	if id == PipeNone {
		panic("sprig: cannot register a pipe under the empty id")
	}
	if pipe == nil {
		panic("sprig: cannot register a nil pipe")
	}
	r.checkUnlocked("Register")
	r.pipes[id] = pipe
	r.version++
}

// Unregister removes the pipe for id. Nodes using id fail to render until a
// new pipe is registered.
func (r *Registry) Unregister(id PipeID) {
	r.checkUnlocked("Unregister")
	if _, ok := r.pipes[id]; !ok {
		return
	}
	delete(r.pipes, id)
	r.version++
}

// Pipe returns the pipe registered for id, or an *UnknownPipeError.
func (r *Registry) Pipe(id PipeID) (Pipe, error) {
	p, ok := r.pipes[id]
	if !ok {
		return nil, &UnknownPipeError{ID: id}
	}
	return p, nil
}

// Has reports whether a pipe is registered for id.
func (r *Registry) Has(id PipeID) bool {
	_, ok := r.pipes[id]
	return ok
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []PipeID {
	ids := make([]PipeID, 0, len(r.pipes))
	for id := range r.pipes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Version increases on every registration change. Render groups compare it
// to decide whether pipe state from earlier frames is still theirs.
func (r *Registry) Version() uint64 {
	return r.version
}

// Dispatch hands r to the pipe registered for its pipe id.
func (r *Registry) Dispatch(rn Renderable, set *InstructionSet) error {
	pipe, err := r.pipeFor(rn)
	if err != nil {
		return err
	}
	pipe.AddRenderable(rn, set)
	return nil
}

// pipeFor looks up the pipe for rn, naming the node in the error.
func (r *Registry) pipeFor(rn Renderable) (Pipe, error) {
	n := rn.RenderNode()
	p, ok := r.pipes[n.pipeID]
	if !ok {
		return nil, &UnknownPipeError{ID: n.pipeID, Node: n.Name}
	}
	return p, nil
}

// mustPipeFor is pipeFor for use inside pipes, where errors cannot be
// returned. The renderer recovers the panic and returns the error.
func (r *Registry) mustPipeFor(rn Renderable) Pipe {
	p, err := r.pipeFor(rn)
	if err != nil {
		panic(err)
	}
	return p
}

// serves reports whether p is still the pipe registered for rn's pipe id.
func (r *Registry) serves(rn Renderable, p Pipe) bool {
	cur, ok := r.pipes[rn.RenderNode().pipeID]
	return ok && cur == p
}

func (r *Registry) checkUnlocked(op string) {
	if r.locked {
		panic("sprig: registry " + op + " during render")
	}
}
