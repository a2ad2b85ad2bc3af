package fiber

// HostNode is an opaque reference to an object in the external host tree.
type HostNode any

// Host is the outbound mutation surface toward the external stateful tree.
// The reconciler calls it only during the commit mutation phase, except for
// off-tree allocation of fresh nodes during completion.
type Host interface {
	CreateNode(tag string) HostNode
	CreateTextNode(text string) HostNode
	SetAttributes(n HostNode, prev, next Props)
	SetText(n HostNode, text string)
	AppendChild(parent, child HostNode)
	InsertBefore(parent, child, before HostNode)
	RemoveChild(parent, child HostNode)
}
