package part

import (
	"fmt"
	"io"
	"strings"
)

//---------------------
// Tree Dump (Debug)
//---------------------

// Dump writes a visual tree representation to w.
func (t *Tree[V]) Dump(w io.Writer) {
	if t.root == nil {
		fmt.Fprintln(w, "EMPTY")
		return
	}
	t.dump(w, "", t.root, 0)
}

func (t *Tree[V]) dump(w io.Writer, label string, n node[V], depth int) {
	h := n.hdr()

	if l, ok := n.(*Leaf[V]); ok {
		fmt.Fprintf(w, "%s%s%s refs=%d key=%q val=%+v\n", dumpPre(depth), label, h.kind, h.refs.Load(), l.key, l.val)
		return
	}

	in := asInner(n)
	fmt.Fprintf(w, "%s%s%s refs=%d prefix=%q/%d children=%d\n",
		dumpPre(depth), label, h.kind, h.refs.Load(), in.prefix[:min(in.prefixLen, maxPrefixLen)], in.prefixLen, in.numChildren)

	depth++
	if in.term != nil {
		t.dump(w, "[$] ", in.term, depth)
	}
	forEachChild(n, func(c byte, child node[V]) bool {
		t.dump(w, fmt.Sprintf("[%q] ", c), child, depth)
		return true
	})
}

func dumpPre(depth int) string {
	if depth == 0 {
		return "-- "
	}
	var b strings.Builder
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
	b.WriteString("|__ ")
	return b.String()
}
