package fiber

import "time"

// commit applies one finished pass: the mutation phase walks the effect
// list in construction order, then the committed buffer is swapped, then
// immediate effects run synchronously and a single deferred flush is
// scheduled for any pending passive effects.
func (rt *Runtime) commit(r *Root, finished *Node) {
	first := r.firstEffect

	// mutation phase
	for e := first; e != nil; e = e.NextEffect {
		if e.Flags&FlagDeletion != 0 {
			rt.commitDeletion(r, e)
			e.Flags &^= FlagDeletion
			continue
		}
		if e.Flags&FlagPlacement != 0 {
			rt.commitPlacement(e)
			e.Flags &^= FlagPlacement
		}
		if e.Flags&FlagUpdate != 0 {
			rt.commitUpdate(e)
			e.Flags &^= FlagUpdate
		}
	}

	r.node = finished

	// immediate effects, in registration order
	for e := first; e != nil; e = e.NextEffect {
		if e.Flags&FlagLayout != 0 {
			rt.runEffects(e, EffectLayout)
			e.Flags &^= FlagLayout
		}
	}

	// deferred effects: collected here, flushed once as a batch
	for e := first; e != nil; e = e.NextEffect {
		if e.Flags&FlagPassive != 0 {
			rt.pendingPassive = append(rt.pendingPassive, e)
			e.Flags &^= FlagPassive
		}
	}

	// effect-list pointers die with the commit
	for e := first; e != nil; {
		next := e.NextEffect
		e.NextEffect = nil
		e = next
	}
	r.firstEffect, r.lastEffect = nil, nil
	// consumed invalidations are now committed for good
	r.observedState = r.observedState[:0]

	if len(rt.pendingPassive) > 0 && !rt.passiveScheduled {
		rt.passiveScheduled = true
		switch rt.deferredFlush {
		case FlushAfterCommit:
			rt.flushPassive()
		case FlushOnFrame:
			rt.frames.Request(func(time.Time) {
				rt.mu.Lock()
				defer rt.mu.Unlock()
				rt.flushPassive()
			})
		}
	}
}

// runEffects executes the changed records of one class on a node, cleanup
// before create per record. A throwing action is reported and yields no
// cleanup; it never aborts the remainder of the batch.
func (rt *Runtime) runEffects(n *Node, class EffectClass) {
	h := n.Hooks
	if h == nil {
		return
	}
	for _, cell := range h.cells {
		rec, ok := cell.(*EffectRecord)
		if !ok || rec.Class != class || !rec.changed || rec.done {
			continue
		}
		rt.destroyRecord(n, rec)
		rt.createRecord(n, rec)
	}
}

func (rt *Runtime) destroyRecord(n *Node, rec *EffectRecord) {
	if rec.cleanup == nil {
		return
	}
	cleanup := rec.cleanup
	rec.cleanup = nil
	if err := cleanup(); err != nil {
		rt.reportError(n, err)
	}
}

func (rt *Runtime) createRecord(n *Node, rec *EffectRecord) {
	rec.changed = false
	rec.firstRun = false
	rec.deps = rec.pendingDeps
	cleanup, err := rec.Create()
	if err != nil {
		rt.reportError(n, err)
		return
	}
	rec.cleanup = cleanup
}

// flushPassive runs the deferred batch: every pending cleanup across all
// pending components, then every pending create.
func (rt *Runtime) flushPassive() {
	nodes := rt.pendingPassive
	rt.pendingPassive = nil
	rt.passiveScheduled = false

	for _, n := range nodes {
		h := n.Hooks
		if h == nil {
			continue
		}
		for _, cell := range h.cells {
			rec, ok := cell.(*EffectRecord)
			if !ok || rec.Class != EffectPassive || !rec.changed || rec.done {
				continue
			}
			rt.destroyRecord(n, rec)
		}
	}
	for _, n := range nodes {
		h := n.Hooks
		if h == nil || h.deleted {
			continue
		}
		for _, cell := range h.cells {
			rec, ok := cell.(*EffectRecord)
			if !ok || rec.Class != EffectPassive || !rec.changed || rec.done {
				continue
			}
			rt.createRecord(n, rec)
		}
	}
}

// commitDeletion cascades cleanup over the deleted subtree per the
// configured order, then removes its host objects.
func (rt *Runtime) commitDeletion(r *Root, n *Node) {
	parent := rt.hostParentOf(r, n)
	rt.cascadeCleanup(n)
	rt.removeHostSubtree(parent, n)
}

func (rt *Runtime) cascadeCleanup(n *Node) {
	if rt.cleanupOrder == CleanupParentFirst {
		rt.cleanupNode(n)
	}
	for c := n.Child; c != nil; c = c.Sibling {
		rt.cascadeCleanup(c)
	}
	if rt.cleanupOrder == CleanupChildrenFirst {
		rt.cleanupNode(n)
	}
}

// cleanupNode destroys every executed effect on a component node; records
// become terminal.
func (rt *Runtime) cleanupNode(n *Node) {
	h := n.Hooks
	if h == nil {
		return
	}
	h.deleted = true
	for _, cell := range h.cells {
		rec, ok := cell.(*EffectRecord)
		if !ok || rec.done {
			continue
		}
		rt.destroyRecord(n, rec)
		rec.done = true
	}
}

func (rt *Runtime) removeHostSubtree(parent HostNode, n *Node) {
	if n.Host != nil {
		rt.host.RemoveChild(parent, n.Host)
		return
	}
	for c := n.Child; c != nil; c = c.Sibling {
		rt.removeHostSubtree(parent, c)
	}
}

// commitPlacement inserts the host objects under n into their host parent,
// anchored before the nearest following host sibling that is not itself
// being placed this commit.
func (rt *Runtime) commitPlacement(n *Node) {
	parent := rt.hostParentOfAttached(n)
	before := rt.hostSiblingOf(n)
	rt.placeNode(parent, n, before)
}

func (rt *Runtime) placeNode(parent HostNode, n *Node, before HostNode) {
	if n.Host != nil {
		if before != nil {
			rt.host.InsertBefore(parent, n.Host, before)
		} else {
			rt.host.AppendChild(parent, n.Host)
		}
		return
	}
	// composite nodes own no host object; recurse to host-bearing
	// descendants
	for c := n.Child; c != nil; c = c.Sibling {
		rt.placeNode(parent, c, before)
	}
}

func (rt *Runtime) commitUpdate(n *Node) {
	switch n.Kind {
	case KindText:
		rt.host.SetText(n.Host, n.Text)
	case KindHost:
		var prev Props
		if n.Alternate != nil {
			prev = n.Alternate.MemoizedProps
		}
		rt.host.SetAttributes(n.Host, prev, n.PendingProps)
	}
}

// hostParentOfAttached resolves the nearest ancestor carrying a host
// object, which for placements is the working-copy parent chain.
func (rt *Runtime) hostParentOfAttached(n *Node) HostNode {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Host != nil && (p.Kind == KindHost || p.Kind == KindRoot) {
			return p.Host
		}
	}
	panic("fiber: node has no host parent")
}

// hostParentOf resolves the host parent for a deletion, whose parent links
// still point into the previously committed buffer.
func (rt *Runtime) hostParentOf(r *Root, n *Node) HostNode {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == KindRoot {
			return r.container
		}
		if p.Kind == KindHost && p.Host != nil {
			return p.Host
		}
	}
	return r.container
}

// hostSiblingOf finds the host object this placement must be anchored
// before: the first host-bearing node after n, skipping nodes that are
// themselves marked for placement.
func (rt *Runtime) hostSiblingOf(n *Node) HostNode {
	node := n
siblings:
	for {
		for node.Sibling == nil {
			if node.Parent == nil || node.Parent.Kind == KindHost || node.Parent.Kind == KindRoot {
				return nil
			}
			node = node.Parent
		}
		node = node.Sibling
		for node.Kind != KindHost && node.Kind != KindText {
			if node.Flags&FlagPlacement != 0 {
				continue siblings
			}
			if node.Child == nil {
				continue siblings
			}
			node = node.Child
		}
		if node.Flags&FlagPlacement == 0 {
			return node.Host
		}
	}
}
