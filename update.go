package sprig

// UpdateFlags marks which derived state of a node is stale.
type UpdateFlags uint8

const (
	UpdateTransform    UpdateFlags = 1 << iota // world transform and alpha
	UpdateBounds                               // local bounds cache
	UpdateSourceBounds                         // trim-aware bounds cache
	UpdateRenderable                           // pipe-held instructions

	UpdateAll = UpdateTransform | UpdateBounds | UpdateSourceBounds | UpdateRenderable
)

// Has reports whether every bit in m is set.
func (f UpdateFlags) Has(m UpdateFlags) bool {
	return f&m == m
}

// Flags returns the node's pending update flags.
func (n *Node) Flags() UpdateFlags {
	return n.flags
}

// ChangeCount returns the number of attribute mutations recorded on this node.
// Composites also count mutations of their members.
func (n *Node) ChangeCount() uint64 {
	return n.changeCount
}

// MarkDirty flags all derived state as stale, forcing recomputation and a
// pipe update on the next frame.
func (n *Node) MarkDirty() {
	n.markUpdated(UpdateAll)
}

// markUpdated records a mutation: bumps the change counter, raises flags and
// notifies upward once per frame.
func (n *Node) markUpdated(flags UpdateFlags) {
	n.changeCount++
	n.flags |= flags
	n.notify()
}

// notify delivers at most one notification per frame. Members report to their
// owning composite; dispatch units report to their render group. Containers
// without a pipe never notify: their children do.
func (n *Node) notify() {
	if n.owner != nil {
		// The owner's bounds depend on every member, queued or not.
		n.owner.flags |= UpdateBounds
		if n.queued {
			return
		}
		n.queued = true
		n.owner.markUpdated(UpdateRenderable | UpdateBounds)
		return
	}
	if n.queued {
		return
	}
	if n.pipeID == PipeNone || n.group == nil {
		return
	}
	n.queued = true
	n.group.onChildUpdate(n)
}

// invalidateStructure forces the node's render group to rebuild its
// instruction set on the next frame.
func (n *Node) invalidateStructure() {
	if n.group != nil {
		n.group.structureDirty = true
	}
}

// InvalidateInstructions forces the enclosing render group to rebuild from
// scratch on the next frame. Composite kinds call it when their membership
// changes.
func (n *Node) InvalidateInstructions() {
	n.markUpdated(UpdateRenderable)
	n.invalidateStructure()
}

// resetUpdate clears the per-frame notification state of a processed dispatch
// unit and, for composites, of its members.
func resetUpdate(r Renderable) {
	n := r.RenderNode()
	n.queued = false
	n.flags &^= UpdateRenderable
	if c, ok := r.(Composite); ok {
		for i := 0; i < c.NumMembers(); i++ {
			m := c.MemberAt(i).RenderNode()
			m.queued = false
			m.flags &^= UpdateRenderable
		}
	}
}
