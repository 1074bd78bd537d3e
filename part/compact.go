package part

// leafSlab hands out leaves from one contiguous allocation, like a node pool without a free
// list: leaves are never returned to it.
type leafSlab[V any] struct {
	leaves []Leaf[V]
	used   int
}

func (s *leafSlab[V]) get() *Leaf[V] {
	if s.used < len(s.leaves) {
		l := &s.leaves[s.used]
		s.used++
		return l
	}
	return new(Leaf[V])
}

// Compact returns a deep copy of the tree that shares no nodes with it. Leaves of the copy
// are laid out in key order in one allocation, which makes in-order scans sequential in
// memory. The copy shares usage accounting with t.
func (t *Tree[V]) Compact() *Tree[V] {
	c := &Tree[V]{
		size:  t.size,
		opts:  t.opts,
		lb16:  t.lb16,
		usage: t.usage,
	}
	if t.root == nil {
		return c
	}
	slab := &leafSlab[V]{leaves: make([]Leaf[V], t.size)}

	c.root = c.copyNode(t.root, slab)
	c.root.hdr().incRef()
	return c
}

// copyNode copies n and everything below it, terminal leaf first so leaves come out in
// key order.
func (t *Tree[V]) copyNode(n node[V], slab *leafSlab[V]) node[V] {
	if l, ok := n.(*Leaf[V]); ok {
		return t.initLeaf(slab.get(), l.key, l.val)
	}

	var (
		src = asInner(n)
		dst = t.newInner(n.hdr().kind)
		in  = asInner(dst)
	)
	in.prefix = src.prefix
	in.prefixLen = src.prefixLen
	if src.term != nil {
		in.term = t.copyNode(src.term, slab).(*Leaf[V])
		in.term.incRef()
	}
	forEachChild(n, func(c byte, child node[V]) bool {
		addChild(dst, c, t.copyNode(child, slab), t.lb16)
		return true
	})
	return dst
}
