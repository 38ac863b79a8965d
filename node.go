package sprig

// Renderable is implemented by every node kind. Kinds embed Node and call
// Node.Init with themselves so the renderer can hand the concrete value to
// the pipe registered for its pipe id.
type Renderable interface {
	RenderNode() *Node
}

// Composite is implemented by node kinds that own member nodes outside the
// ordinary child list. Members are dispatched through the composite's pipe,
// in index order.
type Composite interface {
	Renderable
	NumMembers() int
	MemberAt(i int) Renderable
}

// DestroyOptions selects what a destroy call releases besides the node itself.
type DestroyOptions struct {
	// Children destroys descendants too. Otherwise they are only detached.
	Children bool
	// Texture destroys the textures referenced by destroyed sprites.
	// Textures are shared, so this is off by default.
	Texture bool
	// TextureSource also deallocates the source image of destroyed textures.
	// Only honored together with Texture.
	TextureSource bool
}

// destroyer is implemented by kinds that release more than the base node.
type destroyer interface {
	DestroyWith(opts DestroyOptions)
}

// memberRemover is implemented by composites so that destroying a member
// directly also drops it from the owner's member list.
type memberRemover interface {
	removeMember(m *Node)
}

// nodeIDCounter is a plain counter (no atomic — sprig is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the scene graph element shared by every kind. It carries identity,
// hierarchy, the local transform, update flags and the weak links used for
// change notification.
type Node struct {
	// Identity
	ID   uint32
	Name string

	self   Renderable
	pipeID PipeID

	// Hierarchy
	parent   *Node
	children []*Node

	// Transform (local)
	x, y           float64
	scaleX, scaleY float64
	rotation       float64
	skewX, skewY   float64
	pivotX, pivotY float64
	alpha          float64
	visible        bool
	zIndex         int
	worldTransform [6]float64
	worldAlpha     float64

	// Change tracking
	flags       UpdateFlags
	changeCount uint64
	queued      bool

	// Weak links. None of these own their target.
	group    *RenderGroup // nearest render group, for notification
	ownGroup *RenderGroup // set when this node roots a render group
	owner    *Node        // composite holding this node as a member
	inSet    *RenderGroup // group whose current instructions include this node
	registry *Registry    // registry that dispatched this node
	pipe     Pipe         // pipe holding state for this node

	// Metadata
	UserData any

	// Internal
	destroyed      bool
	childrenSorted bool
	sortedChildren []*Node // reused buffer for ZIndex-sorted traversal order
}

// Init prepares a Node embedded in a custom kind. self is the kind itself and
// pipe the id under which its pipe is registered. The pipe id cannot change
// afterwards.
func (n *Node) Init(self Renderable, name string, pipe PipeID) {
	if self == nil {
		self = n
	}
	n.ID = nextNodeID()
	n.Name = name
	n.self = self
	n.pipeID = pipe
	n.scaleX = 1
	n.scaleY = 1
	n.alpha = 1
	n.worldAlpha = 1
	n.worldTransform = identityTransform
	n.visible = true
	n.flags = UpdateAll
	n.childrenSorted = true
}

// NewContainer creates a node with no visual representation. Its children
// are dispatched individually.
func NewContainer(name string) *Node {
	n := &Node{}
	n.Init(n, name, PipeNone)
	return n
}

// NewGroupContainer creates a container that batches its subtree into its
// own instruction set. It is dispatched as a single unit in its parent's
// render group.
func NewGroupContainer(name string) *Node {
	n := &Node{}
	n.Init(n, name, PipeRenderGroup)
	n.ownGroup = newRenderGroup(n)
	return n
}

// RenderNode returns n. It makes *Node a Renderable for plain containers.
func (n *Node) RenderNode() *Node {
	return n
}

// Self returns the concrete kind this node belongs to.
func (n *Node) Self() Renderable {
	return n.self
}

// PipeID returns the id of the pipe responsible for rendering this node.
func (n *Node) PipeID() PipeID {
	return n.pipeID
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// Owner returns the composite owning this node as a member, or nil.
func (n *Node) Owner() *Node {
	return n.owner
}

// Group returns the render group this node reports to. Members report to
// their owner's group.
func (n *Node) Group() *RenderGroup {
	if n.owner != nil {
		return n.owner.Group()
	}
	return n.group
}

// OwnGroup returns the render group rooted at this node, or nil.
func (n *Node) OwnGroup() *RenderGroup {
	return n.ownGroup
}

// childGroup returns the render group this node's children belong to.
func (n *Node) childGroup() *RenderGroup {
	if n.ownGroup != nil {
		return n.ownGroup
	}
	return n.group
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil, is a composite member, or is an ancestor of this
// node (cycle).
func (n *Node) AddChild(child Renderable) {
	c := n.checkChild(child, "AddChild")
	c.detachFromParent()
	c.parent = n
	n.children = append(n.children, c)
	n.attachChild(c)
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child Renderable, index int) {
	c := n.checkChild(child, "AddChildAt")
	c.detachFromParent()
	if index < 0 || index > len(n.children) {
		panic("sprig: child index out of range")
	}
	c.parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = c
	n.attachChild(c)
}

func (n *Node) checkChild(child Renderable, op string) *Node {
	if child == nil {
		panic("sprig: cannot add nil child")
	}
	c := child.RenderNode()
	if globalDebug {
		debugCheckDestroyed(n, op+" (parent)")
		debugCheckDestroyed(c, op+" (child)")
	}
	if c.owner != nil {
		panic("sprig: node is a composite member and cannot be a child")
	}
	if isAncestor(c, n) {
		panic("sprig: adding child would create a cycle")
	}
	return c
}

func (n *Node) attachChild(c *Node) {
	n.childrenSorted = false
	markSubtreeDirty(c)
	c.attachGroup(n.childGroup())
	c.invalidateStructure()
	if globalDebug {
		debugCheckTreeDepth(c)
		debugCheckChildCount(n)
	}
}

// detachFromParent removes n from its current parent, if any.
func (n *Node) detachFromParent() {
	p := n.parent
	if p == nil {
		return
	}
	p.removeChildByPtr(n)
	p.childrenSorted = false
	n.parent = nil
	n.invalidateStructure()
	n.attachGroup(nil)
	markSubtreeDirty(n)
}

// RemoveChild detaches child from this node.
// Panics if child's parent is not n.
func (n *Node) RemoveChild(child Renderable) {
	c := child.RenderNode()
	if globalDebug {
		debugCheckDestroyed(n, "RemoveChild (parent)")
	}
	if c.parent != n {
		panic("sprig: child's parent is not this node")
	}
	c.detachFromParent()
}

// RemoveChildAt removes and returns the child at the given index.
func (n *Node) RemoveChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		panic("sprig: child index out of range")
	}
	child := n.children[index]
	child.detachFromParent()
	return child
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	n.detachFromParent()
}

// RemoveChildren detaches all children from this node.
// Children are NOT destroyed.
func (n *Node) RemoveChildren() {
	for _, child := range n.children {
		child.parent = nil
		child.invalidateStructure()
		child.attachGroup(nil)
		markSubtreeDirty(child)
	}
	clear(n.children)
	n.children = n.children[:0]
	n.childrenSorted = false
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// SetChildIndex moves child to a new index among its siblings.
func (n *Node) SetChildIndex(child Renderable, index int) {
	c := child.RenderNode()
	if c.parent != n {
		panic("sprig: child's parent is not this node")
	}
	nc := len(n.children)
	if index < 0 || index >= nc {
		panic("sprig: child index out of range")
	}
	oldIndex := -1
	for i, ch := range n.children {
		if ch == c {
			oldIndex = i
			break
		}
	}
	if oldIndex == index {
		return
	}
	// Shift elements to fill the gap and open the target slot.
	if oldIndex < index {
		copy(n.children[oldIndex:], n.children[oldIndex+1:index+1])
	} else {
		copy(n.children[index+1:], n.children[index:oldIndex])
	}
	n.children[index] = c
	n.childrenSorted = false
	c.invalidateStructure()
}

// ZIndex returns the node's sort key among its siblings.
func (n *Node) ZIndex() int {
	return n.zIndex
}

// SetZIndex sets the node's ZIndex and marks the parent's children as unsorted.
func (n *Node) SetZIndex(z int) {
	if n.zIndex == z {
		return
	}
	n.zIndex = z
	n.changeCount++
	if n.parent != nil {
		n.parent.childrenSorted = false
		n.invalidateStructure()
	}
}

// Visible reports whether the node and its subtree are drawn.
func (n *Node) Visible() bool {
	return n.visible
}

// SetVisible shows or hides the node and its subtree. Hiding a dispatch unit
// removes it from its group's instructions; hiding a composite member only
// skips its quad.
func (n *Node) SetVisible(v bool) {
	if n.visible == v {
		return
	}
	n.visible = v
	n.markUpdated(UpdateRenderable)
	if n.owner == nil {
		n.invalidateStructure()
	}
}

// --- Members ---

// AdoptMember records n as the owner of m. Composite kinds call it when a
// member is added; m's notifications are then routed through n.
// Panics if m already has a parent or an owner.
func (n *Node) AdoptMember(m Renderable) {
	mn := m.RenderNode()
	if mn.parent != nil || mn.owner != nil {
		panic("sprig: member already belongs to a parent or composite")
	}
	if mn == n || isAncestor(mn, n) {
		panic("sprig: composite cannot own itself or an ancestor")
	}
	mn.owner = n
	mn.queued = false
	markSubtreeDirty(mn)
}

// ReleaseMember clears the ownership link set by AdoptMember.
func (n *Node) ReleaseMember(m Renderable) {
	mn := m.RenderNode()
	if mn.owner != n {
		panic("sprig: member is not owned by this node")
	}
	mn.owner = nil
	mn.queued = false
}

// --- Destruction ---

// Destroy releases the node with default options: children are detached but
// not destroyed, and textures are left alone. Calling it twice is a no-op.
func (n *Node) Destroy() {
	n.DestroyWith(DestroyOptions{})
}

// DestroyWith removes the node from its parent, releases any pipe-held state
// and marks the node destroyed. Calling it twice is a no-op.
func (n *Node) DestroyWith(opts DestroyOptions) {
	if n.destroyed {
		return
	}
	n.destroyed = true
	n.releasePipeState()
	if n.owner != nil {
		if mr, ok := n.owner.self.(memberRemover); ok {
			mr.removeMember(n)
		} else {
			n.owner.ReleaseMember(n)
		}
	}
	n.detachFromParent()

	children := n.children
	n.children = nil
	n.sortedChildren = nil
	for _, child := range children {
		child.parent = nil
		child.attachGroup(nil)
		if opts.Children {
			destroyRenderable(child.self, opts)
		}
	}
	if n.ownGroup != nil {
		n.ownGroup.destroy()
	}
	n.owner = nil
	n.UserData = nil
}

// IsDestroyed reports whether the node has been destroyed.
func (n *Node) IsDestroyed() bool {
	return n.destroyed
}

// releasePipeState hands the node back to the pipe that rendered it, even
// when that pipe has since been replaced in the registry.
func (n *Node) releasePipeState() {
	reg, pipe := n.registry, n.pipe
	n.registry, n.pipe = nil, nil
	if reg == nil || pipe == nil {
		return
	}
	releaseStaleMembers(n, reg)
	pipe.DestroyRenderable(n.self)
}

// destroyRenderable destroys r through its kind-specific destroy when it has one.
func destroyRenderable(r Renderable, opts DestroyOptions) {
	if d, ok := r.(destroyer); ok {
		d.DestroyWith(opts)
		return
	}
	r.RenderNode().DestroyWith(opts)
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// attachGroup points the subtree at g. Descendants of a group container keep
// reporting to the container's own group.
func (n *Node) attachGroup(g *RenderGroup) {
	if n.group != g {
		n.group = g
		n.queued = false
	}
	if n.ownGroup != nil {
		n.ownGroup.parent = g
		return
	}
	for _, child := range n.children {
		child.attachGroup(g)
	}
}

// markSubtreeDirty raises UpdateTransform on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.flags |= UpdateTransform
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}
