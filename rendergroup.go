package sprig

// RenderGroup aggregates the renderables below a group container into one
// instruction set. Nodes report changes to their nearest group; the group
// decides each frame whether to patch instructions in place or rebuild.
type RenderGroup struct {
	root   *Node
	parent *RenderGroup // weak

	set         InstructionSet
	units       []Renderable // dispatch units in set, tree order
	childGroups []*RenderGroup
	updates     []Renderable // queued this frame, each at most once

	structureDirty  bool
	pipesChanged    bool      // registry changed since the last rebuild
	registry        *Registry // weak; the registry that built set
	registryVersion uint64
	notifications   int
}

func newRenderGroup(root *Node) *RenderGroup {
	return &RenderGroup{root: root, structureDirty: true}
}

// PipeID implements Instruction: a group appears in its parent's set as a
// nested instruction list.
func (g *RenderGroup) PipeID() PipeID {
	return PipeRenderGroup
}

// Root returns the group container this group belongs to.
func (g *RenderGroup) Root() *Node {
	return g.root
}

// Parent returns the enclosing render group, or nil for the scene root.
func (g *RenderGroup) Parent() *RenderGroup {
	return g.parent
}

// Instructions returns the group's instruction set.
func (g *RenderGroup) Instructions() *InstructionSet {
	return &g.set
}

// NeedsRebuild reports whether the next frame rebuilds the set from scratch.
func (g *RenderGroup) NeedsRebuild() bool {
	return g.structureDirty
}

// Pending returns the number of dispatch units queued for this frame.
func (g *RenderGroup) Pending() int {
	return len(g.updates)
}

// Notifications returns the total number of change notifications received.
func (g *RenderGroup) Notifications() int {
	return g.notifications
}

func (g *RenderGroup) onChildUpdate(n *Node) {
	g.updates = append(g.updates, n.self)
	g.notifications++
}

// process brings the instruction set up to date: validate queued units, then
// either update them in place or rebuild everything.
func (g *RenderGroup) process(reg *Registry, st *FrameStats) error {
	st.Groups++
	if g.registry != reg || g.registryVersion != reg.Version() {
		g.registry = reg
		g.registryVersion = reg.Version()
		g.structureDirty = true
		g.pipesChanged = true
	}

	if !g.structureDirty {
		for _, r := range g.updates {
			// Units outside the set are hidden or belong to another group now.
			if r.RenderNode().inSet != g {
				continue
			}
			pipe, err := reg.pipeFor(r)
			if err != nil {
				return err
			}
			st.Validates++
			if !pipe.ValidateRenderable(r) {
				g.structureDirty = true
				break
			}
		}
	}

	if g.structureDirty {
		if err := g.rebuild(reg, st); err != nil {
			return err
		}
	} else {
		for _, r := range g.updates {
			if r.RenderNode().inSet != g {
				continue
			}
			pipe, err := reg.pipeFor(r)
			if err != nil {
				return err
			}
			pipe.UpdateRenderable(r)
			st.Updates++
		}
	}

	for _, r := range g.updates {
		if r.RenderNode().group == g {
			resetUpdate(r)
		}
	}
	clear(g.updates)
	g.updates = g.updates[:0]
	return nil
}

// rebuild resets the set and adds every visible unit in tree order.
func (g *RenderGroup) rebuild(reg *Registry, st *FrameStats) error {
	for _, u := range g.units {
		n := u.RenderNode()
		if n.inSet == g {
			n.inSet = nil
		}
		if g.pipesChanged {
			releaseStale(n, reg)
		}
	}
	g.pipesChanged = false
	clear(g.units)
	g.units = g.units[:0]
	g.childGroups = g.childGroups[:0]
	g.set.Reset()

	if err := g.collect(g.root, reg, st); err != nil {
		return err
	}
	g.structureDirty = false
	st.Rebuilds++
	return nil
}

func (g *RenderGroup) collect(n *Node, reg *Registry, st *FrameStats) error {
	for _, child := range n.sortedChildList() {
		if !child.visible {
			continue
		}
		if child.pipeID != PipeNone {
			pipe, err := reg.pipeFor(child.self)
			if err != nil {
				return err
			}
			pipe.AddRenderable(child.self, &g.set)
			st.Adds++
			g.adopt(child, reg, pipe)
			if child.ownGroup != nil {
				g.childGroups = append(g.childGroups, child.ownGroup)
				continue
			}
		}
		if err := g.collect(child, reg, st); err != nil {
			return err
		}
	}
	return nil
}

// adopt records that n's instructions now live in g and which pipes hold
// its state.
func (g *RenderGroup) adopt(n *Node, reg *Registry, pipe Pipe) {
	n.inSet = g
	n.registry, n.pipe = reg, pipe
	g.units = append(g.units, n.self)
	if c, ok := n.self.(Composite); ok {
		for i := 0; i < c.NumMembers(); i++ {
			m := c.MemberAt(i)
			mn := m.RenderNode()
			mn.registry = reg
			mn.pipe, _ = reg.pipeFor(m)
		}
	}
	resetUpdate(n.self)
}

// releaseStale returns n's state to any pipe that reg no longer maps n or
// one of its members to. A replaced pipe never sees those nodes again.
func releaseStale(n *Node, reg *Registry) {
	releaseStaleMembers(n, reg)
	if n.pipe != nil && !reg.serves(n.self, n.pipe) {
		n.pipe.DestroyRenderable(n.self)
		n.pipe = nil
	}
}

func releaseStaleMembers(n *Node, reg *Registry) {
	c, ok := n.self.(Composite)
	if !ok {
		return
	}
	for i := 0; i < c.NumMembers(); i++ {
		m := c.MemberAt(i)
		mn := m.RenderNode()
		if mn.pipe != nil && !reg.serves(m, mn.pipe) {
			mn.pipe.DestroyRenderable(m)
			mn.pipe = nil
		}
	}
}

// destroy drops everything the group holds.
func (g *RenderGroup) destroy() {
	for _, u := range g.units {
		if n := u.RenderNode(); n.inSet == g {
			n.inSet = nil
		}
	}
	g.set.Reset()
	g.units = nil
	g.childGroups = nil
	g.updates = nil
	g.parent = nil
	g.registry = nil
}

// renderGroupPipe places a nested group's instruction set into its parent's.
// The nested group maintains its own instructions, so there is nothing to
// update or release here.
type renderGroupPipe struct{}

func (renderGroupPipe) AddRenderable(r Renderable, set *InstructionSet) {
	n := r.RenderNode()
	if n.ownGroup == nil {
		panic("sprig: render group pipe given a node without a render group")
	}
	set.Add(n.ownGroup)
}

func (renderGroupPipe) UpdateRenderable(Renderable) {}

func (renderGroupPipe) ValidateRenderable(Renderable) bool { return true }

func (renderGroupPipe) DestroyRenderable(Renderable) {}

// --- Child ordering ---

// sortedChildList returns the children in ZIndex order, stable by insertion.
func (n *Node) sortedChildList() []*Node {
	if !n.childrenSorted {
		n.rebuildSortedChildren()
	}
	if n.sortedChildren != nil {
		return n.sortedChildren
	}
	return n.children
}

// rebuildSortedChildren rebuilds the ZIndex-sorted traversal order for a node.
// Uses insertion sort: zero allocations, stable, and optimal for the typical
// case of few children that are nearly sorted (O(n) when already sorted).
func (n *Node) rebuildSortedChildren() {
	nc := len(n.children)
	if cap(n.sortedChildren) < nc {
		n.sortedChildren = make([]*Node, nc)
	}
	n.sortedChildren = n.sortedChildren[:nc]
	copy(n.sortedChildren, n.children)
	for i := 1; i < nc; i++ {
		key := n.sortedChildren[i]
		j := i - 1
		for j >= 0 && n.sortedChildren[j].zIndex > key.zIndex {
			n.sortedChildren[j+1] = n.sortedChildren[j]
			j--
		}
		n.sortedChildren[j+1] = key
	}
	n.childrenSorted = true
}
