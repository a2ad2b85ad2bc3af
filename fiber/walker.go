package fiber

// performUnitOfWork begins work on one node and returns the next unit:
// the first child when descent continues, otherwise the result of the
// upward completion walk.
func (rt *Runtime) performUnitOfWork(r *Root, n *Node) *Node {
	next := rt.beginWork(r, n)
	if next != nil {
		return next
	}
	return rt.completeUnitOfWork(r, n)
}

func (rt *Runtime) beginWork(r *Root, wip *Node) *Node {
	switch wip.Kind {
	case KindRoot:
		var children []any
		if r.element != nil {
			children = []any{r.element}
		}
		rt.reconcileChildren(r, wip, children)
		return wip.Child
	case KindComponent:
		return rt.beginComponent(r, wip)
	case KindHost:
		cur := wip.Alternate
		if cur != nil && wip.Flags&flagMutationMask == 0 &&
			propsEqual(cur.MemoizedProps, wip.PendingProps) &&
			childrenSame(cur.memoizedChildren, wip.pendingChildren) {
			return rt.cloneChildren(wip)
		}
		rt.reconcileChildren(r, wip, wip.pendingChildren)
		return wip.Child
	case KindText:
		return nil
	}
	panic("fiber: unknown node kind")
}

func (rt *Runtime) beginComponent(r *Root, wip *Node) *Node {
	cur := wip.Alternate
	if cur != nil && wip.Flags&flagMutationMask == 0 &&
		(wip.Hooks == nil || !wip.Hooks.invalidated) &&
		propsEqual(cur.MemoizedProps, wip.PendingProps) {
		return rt.cloneChildren(wip)
	}

	h := wip.Hooks
	if h == nil {
		h = newHooks(rt, r)
		wip.Hooks = h
	}
	h.begin(wip)

	el, err := wip.Type.(Component)(h, wip.PendingProps)
	if err != nil {
		rt.reportError(wip, err)
		// no further state change from this call: the previous child
		// chain stands
		if cur != nil {
			return rt.cloneChildren(wip)
		}
		return nil
	}
	h.finish(wip)

	var children []any
	if el != nil {
		children = []any{el}
	}
	rt.reconcileChildren(r, wip, children)
	return wip.Child
}

// cloneChildren bails out of re-evaluating a subtree by structurally
// copying the previous child chain. Each clone keeps its own committed
// inputs pending, so its own bailout eligibility is preserved when the
// walker reaches it.
func (rt *Runtime) cloneChildren(wip *Node) *Node {
	cur := wip.Alternate
	if cur == nil || cur.Child == nil {
		return nil
	}
	var prev *Node
	for c := cur.Child; c != nil; c = c.Sibling {
		w := createWorkInProgress(c, c.MemoizedProps, c.memoizedChildren)
		w.Parent = wip
		if prev == nil {
			wip.Child = w
		} else {
			prev.Sibling = w
		}
		prev = w
	}
	return wip.Child
}

// completeUnitOfWork completes n and walks upward until a sibling is found
// or the root is reached, in which case the pass is finished.
func (rt *Runtime) completeUnitOfWork(r *Root, n *Node) *Node {
	for n != nil {
		rt.completeWork(r, n)
		if n.Sibling != nil {
			return n.Sibling
		}
		n = n.Parent
	}
	return nil
}

func (rt *Runtime) completeWork(r *Root, n *Node) {
	switch n.Kind {
	case KindHost:
		// the host object is allocated off-tree on first creation only,
		// never recreated on update
		if n.Host == nil {
			n.Host = rt.host.CreateNode(n.Type.(string))
			rt.host.SetAttributes(n.Host, nil, n.PendingProps)
		}
	case KindText:
		if n.Host == nil {
			n.Host = rt.host.CreateTextNode(n.Text)
		}
	}

	for c := n.Child; c != nil; c = c.Sibling {
		n.SubtreeFlags |= c.Flags | c.SubtreeFlags
	}

	n.MemoizedProps = n.PendingProps
	n.memoizedChildren = n.pendingChildren
	n.memoText = n.Text

	// post-order append: children land on the effect list before parents
	if n.Flags&flagEffectMask != 0 {
		r.appendEffect(n)
	}
}
