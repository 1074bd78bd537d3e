package part

import "fmt"

//---------------------
// Allocation
//---------------------

func (t *Tree[V]) initLeaf(l *Leaf[V], key []byte, val V) *Leaf[V] {
	l.kind = KindLeaf
	l.key = key
	l.val = val
	t.usage.alloc(KindLeaf, sizeOf[V](l))
	return l
}

// newLeaf creates a leaf owning a copy of key.
func (t *Tree[V]) newLeaf(key []byte, val V) *Leaf[V] {
	return t.initLeaf(new(Leaf[V]), copyBytes(key), val)
}

func (t *Tree[V]) newInner(k Kind) node[V] {
	var n node[V]
	switch k {
	case KindNode16:
		n = &node16[V]{}
	case KindNode48:
		n = &node48[V]{}
	case KindNode256:
		n = &node256[V]{}
	default:
		n, k = &node4[V]{}, KindNode4
	}
	n.hdr().kind = k
	t.usage.alloc(k, sizeOf(n))
	return n
}

// copyMeta copies the prefix and shares the terminal leaf of src into dst
func copyMeta[V any](dst, src *inner[V]) {
	dst.prefix = src.prefix
	dst.prefixLen = src.prefixLen
	if src.term != nil {
		src.term.incRef()
		dst.term = src.term
	}
}

//---------------------
// Copy-on-Write
//---------------------

// switchRef links n into slot, taking a reference to n before dropping the old occupant so a
// subtree shared by both survives.
func (t *Tree[V]) switchRef(slot *node[V], n node[V]) {
	n.hdr().incRef()
	if old := *slot; old != nil {
		t.release(old)
	}
	*slot = n
}

// switchTerm is switchRef for the terminal leaf slot of in.
func (t *Tree[V]) switchTerm(in *inner[V], l *Leaf[V]) {
	l.incRef()
	if old := in.term; old != nil {
		t.release(old)
	}
	in.term = l
}

// mutable returns the node in slot ready for an in-place change: the node itself when this
// path is its only owner, otherwise a clone that replaces it in slot.
func (t *Tree[V]) mutable(slot *node[V]) node[V] {
	n := *slot
	if n.hdr().shared() {
		c := t.clone(n)
		t.switchRef(slot, c)
		n = c
	}
	n.hdr().checkpointed = false
	return n
}

// clone makes a shallow copy of n with a zero refcount; every child gains a reference.
func (t *Tree[V]) clone(n node[V]) node[V] {
	t.opts.Logger.Trace().Stringer("kind", n.hdr().kind).Msg("clone")

	if l, ok := n.(*Leaf[V]); ok {
		return t.initLeaf(new(Leaf[V]), l.key, l.val)
	}

	c := t.newInner(n.hdr().kind)
	switch c := c.(type) {
	case *node4[V]:
		src := n.(*node4[V])
		c.keys, c.children = src.keys, src.children
	case *node16[V]:
		src := n.(*node16[V])
		c.keys, c.children = src.keys, src.children
	case *node48[V]:
		src := n.(*node48[V])
		c.present, c.index, c.children = src.present, src.index, src.children
	case *node256[V]:
		src := n.(*node256[V])
		c.present, c.children = src.present, src.children
	}

	ci, si := asInner(c), asInner(n)
	copyMeta(ci, si)
	ci.numChildren = si.numChildren

	forEachChild(c, func(_ byte, child node[V]) bool {
		child.hdr().incRef()
		return true
	})
	return c
}

// grow copies n into the next larger variant; every child gains a reference.
func (t *Tree[V]) grow(n node[V]) node[V] {
	var g node[V]

	switch n := n.(type) {
	case *node4[V]:
		g16 := t.newInner(KindNode16).(*node16[V])
		copy(g16.keys[:], n.keys[:n.numChildren])
		copy(g16.children[:], n.children[:n.numChildren])
		g16.numChildren = n.numChildren
		g = g16
	case *node16[V]:
		g48 := t.newInner(KindNode48).(*node48[V])
		for i := 0; i < n.numChildren; i++ {
			c := n.keys[i]
			g48.children[i] = n.children[i]
			g48.index[c] = byte(i + 1)
			g48.present.set(c)
		}
		g48.numChildren = n.numChildren
		g = g48
	case *node48[V]:
		g256 := t.newInner(KindNode256).(*node256[V])
		for c, ok := n.present.next(0); ok; c, ok = n.present.next(int(c) + 1) {
			g256.children[c] = n.children[n.index[c]-1]
			g256.present.set(c)
		}
		g256.numChildren = n.numChildren
		g = g256
	default:
		panic(fmt.Errorf("%w: cannot grow %s", ErrInvariant, n.hdr().kind))
	}

	copyMeta(asInner(g), asInner(n))
	forEachChild(g, func(_ byte, child node[V]) bool {
		child.hdr().incRef()
		return true
	})

	t.opts.Logger.Trace().
		Stringer("from", n.hdr().kind).
		Stringer("to", g.hdr().kind).
		Msg("grow")
	return g
}

// release drops one reference to n. Nodes reaching zero are freed along with every child
// that reaches zero in turn; the bytes reclaimed are returned.
func (t *Tree[V]) release(n node[V]) int64 {
	var (
		freed  int64
		toFree = []node[V]{n}
	)
	for len(toFree) > 0 {
		n = toFree[len(toFree)-1]
		toFree = toFree[:len(toFree)-1]

		if n.hdr().decRef() > 0 {
			continue
		}
		size := sizeOf(n)
		t.usage.free(n.hdr().kind, size)
		freed += size

		if in := asInner(n); in != nil {
			if in.term != nil {
				toFree = append(toFree, in.term)
			}
			forEachChild(n, func(_ byte, child node[V]) bool {
				toFree = append(toFree, child)
				return true
			})
		}
	}
	if freed > 0 {
		t.opts.Logger.Trace().Int64("bytes", freed).Msg("release")
	}
	return freed
}
