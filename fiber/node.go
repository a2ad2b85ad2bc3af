package fiber

// Kind is the closed set of node variants.
type Kind uint8

const (
	KindRoot Kind = iota
	KindHost
	KindComponent
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindHost:
		return "host"
	case KindComponent:
		return "component"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Flags is the per-node side-effect bitset.
type Flags uint16

const (
	FlagPlacement Flags = 1 << iota
	FlagUpdate
	FlagDeletion
	FlagLayout  // node has immediate-class effect records pending
	FlagPassive // node has deferred-class effect records pending
)

const flagMutationMask = FlagPlacement | FlagUpdate | FlagDeletion
const flagEffectMask = flagMutationMask | FlagLayout | FlagPassive

// Node is one unit of the dual-buffered render tree. At most two Node
// objects exist per identity: the committed one and its working copy,
// linked symmetrically through Alternate.
type Node struct {
	Kind Kind
	Type any    // host tag string or Component; nil for root and text
	Key  string // identity key, "" when unkeyed
	Text string // text leaves: payload for this pass

	// Host is the corresponding host-tree object, exclusively owned by
	// this alternate pair once created.
	Host HostNode

	Parent  *Node
	Child   *Node
	Sibling *Node

	Alternate *Node

	PendingProps  Props
	MemoizedProps Props

	Flags        Flags
	SubtreeFlags Flags
	NextEffect   *Node

	// Hooks is the component's local-state container, opaque to the
	// reconciler beyond the effect-scheduling contract. It passes through
	// bailout clones unmodified.
	Hooks *Hooks

	pendingChildren  []any
	memoizedChildren []any
	memoText         string
	index            int // position among siblings in the chain this node was built into
}

// createWorkInProgress returns the working copy of current for this pass,
// allocating the second buffer on first use and reusing it afterwards.
// A nil current is a contract violation.
func createWorkInProgress(current *Node, props Props, children []any) *Node {
	if current == nil {
		panic("fiber: working copy requested without a current node")
	}
	wip := current.Alternate
	if wip == nil {
		wip = &Node{
			Kind:      current.Kind,
			Type:      current.Type,
			Key:       current.Key,
			Alternate: current,
		}
		current.Alternate = wip
	} else {
		wip.Flags = 0
		wip.SubtreeFlags = 0
		wip.NextEffect = nil
	}
	wip.Host = current.Host
	wip.Hooks = current.Hooks
	wip.Text = current.Text
	wip.memoText = current.memoText
	wip.MemoizedProps = current.MemoizedProps
	wip.memoizedChildren = current.memoizedChildren
	wip.PendingProps = props
	wip.pendingChildren = children
	wip.Child = nil
	wip.Sibling = nil
	wip.Parent = nil
	wip.index = current.index
	return wip
}

func newNode(d childDesc) *Node {
	if d.isText {
		return &Node{Kind: KindText, Text: d.text}
	}
	kind := KindHost
	if _, ok := d.el.Type.(Component); ok {
		kind = KindComponent
	}
	return &Node{
		Kind:            kind,
		Type:            d.el.Type,
		Key:             d.el.Key,
		PendingProps:    d.el.Props,
		pendingChildren: d.el.Children,
	}
}
