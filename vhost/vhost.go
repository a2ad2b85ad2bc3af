// Package vhost is an in-memory host tree for the fiber reconciler: an
// ordered-children node store with a mutation journal, usable as a test
// double, a benchmark target, or a render sink that can be dumped as HTML.
package vhost

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/fiberparty/fiber"
)

// Node is one object in the host tree.
type Node struct {
	ID       uint64 // stable debug identity
	Tag      string
	Text     string
	IsText   bool
	Attrs    fiber.Props
	Parent   *Node
	Children []*Node
}

func (n *Node) String() string {
	if n.IsText {
		return fmt.Sprintf("#text(%q)", n.Text)
	}
	return fmt.Sprintf("<%s#%x>", n.Tag, n.ID)
}

// Op classifies one journal entry.
type Op uint8

const (
	OpCreate Op = iota
	OpCreateText
	OpSetAttrs
	OpSetText
	OpAppend
	OpInsert
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpCreateText:
		return "create-text"
	case OpSetAttrs:
		return "set-attrs"
	case OpSetText:
		return "set-text"
	case OpAppend:
		return "append"
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Mutation is one recorded host call.
type Mutation struct {
	Op     Op
	Node   *Node
	Parent *Node
	Detail string
}

func (m Mutation) String() string {
	if m.Detail == "" {
		return fmt.Sprintf("%s %s", m.Op, m.Node)
	}
	return fmt.Sprintf("%s %s %s", m.Op, m.Node, m.Detail)
}

// Tree owns a container node, every node created under it, and the journal
// of mutations applied.
type Tree struct {
	root    *Node
	seq     uint64
	journal []Mutation
	live    mapset.Set[*Node]
}

func New() *Tree {
	t := &Tree{live: mapset.NewThreadUnsafeSet[*Node]()}
	t.root = &Node{Tag: "#container", ID: t.nextID("#container")}
	t.live.Add(t.root)
	return t
}

// Root returns the container to mount into.
func (t *Tree) Root() *Node { return t.root }

// Journal returns the mutations recorded since the last reset.
func (t *Tree) Journal() []Mutation { return t.journal }

// ResetJournal clears the recorded mutations.
func (t *Tree) ResetJournal() { t.journal = nil }

// Live reports whether a node is currently attached under the container or
// detached but not yet removed.
func (t *Tree) Live(n *Node) bool { return t.live.Contains(n) }

// Size counts the nodes attached under the container.
func (t *Tree) Size() int {
	count := 0
	var walk func(*Node)
	walk = func(n *Node) {
		count++
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.root)
	return count - 1 // container itself excluded
}

func (t *Tree) nextID(seed string) uint64 {
	t.seq++
	return xxhash.Sum64String(fmt.Sprintf("%s#%d", seed, t.seq))
}

func (t *Tree) record(m Mutation) {
	t.journal = append(t.journal, m)
}

var _ fiber.Host = (*Tree)(nil)

func (t *Tree) CreateNode(tag string) fiber.HostNode {
	n := &Node{Tag: tag, ID: t.nextID(tag)}
	t.live.Add(n)
	t.record(Mutation{Op: OpCreate, Node: n})
	return n
}

func (t *Tree) CreateTextNode(text string) fiber.HostNode {
	n := &Node{IsText: true, Text: text, ID: t.nextID("#text")}
	t.live.Add(n)
	t.record(Mutation{Op: OpCreateText, Node: n})
	return n
}

func (t *Tree) SetAttributes(h fiber.HostNode, prev, next fiber.Props) {
	n := t.must(h)
	if n.Attrs == nil {
		n.Attrs = fiber.Props{}
	}
	for k := range prev {
		if _, kept := next[k]; !kept {
			delete(n.Attrs, k)
		}
	}
	for k, v := range next {
		n.Attrs[k] = v
	}
	t.record(Mutation{Op: OpSetAttrs, Node: n, Detail: fmt.Sprintf("%d attrs", len(next))})
}

func (t *Tree) SetText(h fiber.HostNode, text string) {
	n := t.must(h)
	if !n.IsText {
		panic(fmt.Sprintf("vhost: set-text on non-text node %s", n))
	}
	n.Text = text
	t.record(Mutation{Op: OpSetText, Node: n, Detail: fmt.Sprintf("%q", text)})
}

func (t *Tree) AppendChild(parent, child fiber.HostNode) {
	p, c := t.must(parent), t.must(child)
	t.detach(c)
	c.Parent = p
	p.Children = append(p.Children, c)
	t.record(Mutation{Op: OpAppend, Node: c, Parent: p})
}

func (t *Tree) InsertBefore(parent, child, before fiber.HostNode) {
	p, c, b := t.must(parent), t.must(child), t.must(before)
	t.detach(c)
	idx := -1
	for i, sib := range p.Children {
		if sib == b {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic(fmt.Sprintf("vhost: anchor %s is not a child of %s", b, p))
	}
	c.Parent = p
	p.Children = append(p.Children, nil)
	copy(p.Children[idx+1:], p.Children[idx:])
	p.Children[idx] = c
	t.record(Mutation{Op: OpInsert, Node: c, Parent: p, Detail: fmt.Sprintf("before %s", b)})
}

func (t *Tree) RemoveChild(parent, child fiber.HostNode) {
	p, c := t.must(parent), t.must(child)
	if c.Parent != p {
		panic(fmt.Sprintf("vhost: %s is not a child of %s", c, p))
	}
	t.detach(c)
	var drop func(*Node)
	drop = func(n *Node) {
		t.live.Remove(n)
		for _, gc := range n.Children {
			drop(gc)
		}
	}
	drop(c)
	t.record(Mutation{Op: OpRemove, Node: c, Parent: p})
}

func (t *Tree) detach(c *Node) {
	p := c.Parent
	if p == nil {
		return
	}
	for i, sib := range p.Children {
		if sib == c {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	c.Parent = nil
}

func (t *Tree) must(h fiber.HostNode) *Node {
	n, ok := h.(*Node)
	if !ok || n == nil {
		panic(fmt.Sprintf("vhost: foreign host node %T", h))
	}
	return n
}
