package fiber

import (
	"log"

	mapset "github.com/deckarep/golang-set/v2"
)

// reconcileChildren diffs the previous child chain of wip's alternate
// against a new ordered children collection and attaches the resulting
// chain under wip.
//
// Keyed mode is used only when every new child carries a non-empty key and
// none are text leaves; anything else falls back to positional matching.
func (rt *Runtime) reconcileChildren(r *Root, wip *Node, newChildren []any) {
	descs := normalizeChildren(newChildren)

	var oldFirst *Node
	if wip.Alternate != nil {
		oldFirst = wip.Alternate.Child
	}

	if keyedEligible(descs) {
		rt.reconcileKeyed(r, wip, oldFirst, descs)
		return
	}
	rt.reconcileLinear(r, wip, oldFirst, descs)
}

func keyedEligible(descs []childDesc) bool {
	if len(descs) == 0 {
		return false
	}
	for _, d := range descs {
		if d.isText || d.el.Key == "" {
			return false
		}
	}
	return true
}

// reconcileKeyed matches children by identity key, marking moves with the
// single-pass greedy lastPlacedIndex heuristic: a matched node whose
// original index precedes the highest original index already kept in place
// must move forward.
func (rt *Runtime) reconcileKeyed(r *Root, wip *Node, oldFirst *Node, descs []childDesc) {
	existing := make(map[string]*Node)
	for old := oldFirst; old != nil; old = old.Sibling {
		if _, dup := existing[old.Key]; !dup {
			existing[old.Key] = old
		}
	}

	consumed := mapset.NewThreadUnsafeSet[*Node]()
	seen := mapset.NewThreadUnsafeSet[string]()
	lastPlaced := 0
	var first, prev *Node
	for i, d := range descs {
		key := d.el.Key
		if !seen.Add(key) {
			log.Printf("fiber: duplicate key %q under %s element, matching is unreliable", key, wip.Kind)
		}

		old := existing[key]
		var w *Node
		switch {
		case old != nil && typeEqual(old.Type, d.el.Type):
			delete(existing, key)
			consumed.Add(old)
			w = createWorkInProgress(old, d.el.Props, d.el.Children)
			if !propsEqual(old.MemoizedProps, d.el.Props) {
				w.Flags |= FlagUpdate
			}
			if old.index < lastPlaced {
				w.Flags |= FlagPlacement
			} else {
				lastPlaced = old.index
			}
		case old != nil:
			// key match but type mismatch forces replacement
			delete(existing, key)
			consumed.Add(old)
			rt.deleteChild(r, old)
			fallthrough
		default:
			w = newNode(d)
			w.Flags |= FlagPlacement
		}

		w.index = i
		w.Parent = wip
		if prev == nil {
			first = w
		} else {
			prev.Sibling = w
		}
		prev = w
	}

	// unconsumed old entries, in original sibling order
	for old := oldFirst; old != nil; old = old.Sibling {
		if !consumed.Contains(old) {
			rt.deleteChild(r, old)
		}
	}

	wip.Child = first
}

// reconcileLinear walks old and new lists pairwise by position. A type or
// key mismatch at a position replaces the node and marks the displaced old
// entry for deletion.
func (rt *Runtime) reconcileLinear(r *Root, wip *Node, oldFirst *Node, descs []childDesc) {
	old := oldFirst
	var first, prev *Node
	for i, d := range descs {
		var w *Node
		switch {
		case old != nil && old.Kind == KindText && d.isText:
			w = createWorkInProgress(old, nil, nil)
			w.Text = d.text
			if old.memoText != d.text {
				w.Flags |= FlagUpdate
			}
		case old != nil && old.Kind != KindText && !d.isText &&
			typeEqual(old.Type, d.el.Type) && old.Key == d.el.Key:
			w = createWorkInProgress(old, d.el.Props, d.el.Children)
			if !propsEqual(old.MemoizedProps, d.el.Props) {
				w.Flags |= FlagUpdate
			}
		default:
			if old != nil {
				rt.deleteChild(r, old)
			}
			w = newNode(d)
			w.Flags |= FlagPlacement
		}

		w.index = i
		w.Parent = wip
		if prev == nil {
			first = w
		} else {
			prev.Sibling = w
		}
		prev = w

		if old != nil {
			old = old.Sibling
		}
	}

	for ; old != nil; old = old.Sibling {
		rt.deleteChild(r, old)
	}

	wip.Child = first
}

// deleteChild records a deletion at diff time by appending the old node to
// the pending effect list.
func (rt *Runtime) deleteChild(r *Root, old *Node) {
	old.Flags |= FlagDeletion
	r.appendEffect(old)
}
