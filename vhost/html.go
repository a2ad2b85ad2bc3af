package vhost

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/valyala/quicktemplate"
)

// HTML renders the container's subtree as an HTML fragment. Text and
// attribute values are escaped through quicktemplate's streaming writer.
func (t *Tree) HTML() string {
	var buf bytes.Buffer
	qw := quicktemplate.AcquireWriter(&buf)
	defer quicktemplate.ReleaseWriter(qw)
	for _, c := range t.root.Children {
		writeNode(qw, c)
	}
	return buf.String()
}

func writeNode(qw *quicktemplate.Writer, n *Node) {
	if n.IsText {
		qw.E().S(n.Text)
		return
	}

	qw.N().S("<")
	qw.N().S(n.Tag)

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		qw.N().S(" ")
		qw.N().S(k)
		qw.N().S(`="`)
		qw.E().S(fmt.Sprint(n.Attrs[k]))
		qw.N().S(`"`)
	}
	qw.N().S(">")

	for _, c := range n.Children {
		writeNode(qw, c)
	}

	qw.N().S("</")
	qw.N().S(n.Tag)
	qw.N().S(">")
}
