package part

import (
	"bytes"
	"fmt"
)

// Tree is one version of a persistent adaptive radix tree.
//
// A Tree must be mutated by one goroutine at a time. Snapshots taken from it are
// independent values that may be read, and destroyed, from other goroutines.
type Tree[V any] struct {
	root  node[V]
	size  int
	opts  *Options
	lb16  searchFunc
	usage *usage
}

// New creates an empty tree.
func New[V any](opts ...Option) *Tree[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Tree[V]{
		opts:  &o,
		lb16:  o.Node16.search(),
		usage: new(usage),
	}
}

// Len returns the number of keys in the tree.
func (t *Tree[V]) Len() int {
	return t.size
}

func (t *Tree[V]) Empty() bool {
	return t.root == nil
}

// Snapshot returns an immutable view of the tree as it is now. It costs one refcount
// increment; later inserts into t copy whatever they touch.
func (t *Tree[V]) Snapshot() *Tree[V] {
	s := &Tree[V]{
		root:  t.root,
		size:  t.size,
		opts:  t.opts,
		lb16:  t.lb16,
		usage: t.usage,
	}
	if s.root != nil {
		s.root.hdr().incRef()
	}
	return s
}

// Destroy releases this version and returns the bytes of every node it alone held.
// The tree is empty afterwards.
func (t *Tree[V]) Destroy() int64 {
	if t.root == nil {
		return 0
	}
	freed := t.release(t.root)
	t.root, t.size = nil, 0
	return freed
}

//---------------------
// Insert
//---------------------

// Insert stores val under key, replacing the value of an existing key, and returns the leaf
// now holding it. The key is copied. Insert panics with ErrKeyTooLong when key exceeds the
// tree's maximum key length.
func (t *Tree[V]) Insert(key []byte, val V) *Leaf[V] {
	if len(key) > t.opts.MaxKeyLen {
		panic(fmt.Errorf("%w: %d bytes, limit %d", ErrKeyTooLong, len(key), t.opts.MaxKeyLen))
	}
	l, added := t.insert(&t.root, key, val)
	if added {
		t.size++
	}
	return l
}

func (t *Tree[V]) insert(slot *node[V], key []byte, val V) (*Leaf[V], bool) {
	depth := 0

	for {
		n := *slot

		// empty slot
		if n == nil {
			l := t.newLeaf(key, val)
			t.switchRef(slot, l)
			return l, true
		}

		// leaf: update or split
		if old, ok := n.(*Leaf[V]); ok {
			if bytes.Equal(old.key, key) {
				if u := t.updated(old, val); u != old {
					t.switchRef(slot, u)
					return u, false
				}
				return old, false
			}
			return t.splitLeaf(slot, old, key, val, depth), true
		}

		// internal node: the prefix must match entirely to go on
		in := asInner(n)
		if in.prefixLen > 0 {
			if p := prefixMismatch(n, key, depth); p < in.prefixLen {
				return t.splitPrefix(slot, key, val, depth, p), true
			}
			depth += in.prefixLen
		}

		// the key ends right after the prefix
		if depth == len(key) {
			in = asInner(t.mutable(slot))
			if in.term != nil {
				u := t.updated(in.term, val)
				if u != in.term {
					t.switchTerm(in, u)
				}
				return u, false
			}
			l := t.newLeaf(key, val)
			t.switchTerm(in, l)
			return l, true
		}

		c := key[depth]
		if childRef(n, c, t.lb16) == nil {
			l := t.newLeaf(key, val)
			if isFull(n) {
				// growing already yields a fresh node, shared or not
				g := t.grow(n)
				addChild[V](g, c, l, t.lb16)
				t.switchRef(slot, g)
			} else {
				addChild[V](t.mutable(slot), c, l, t.lb16)
			}
			return l, true
		}

		n = t.mutable(slot)
		slot = childRef(n, c, t.lb16)
		depth++
	}
}

// updated returns the leaf that should hold val for l's key: l itself when unshared,
// otherwise a clone.
func (t *Tree[V]) updated(l *Leaf[V], val V) *Leaf[V] {
	if l.shared() {
		t.opts.Logger.Trace().Stringer("kind", KindLeaf).Msg("clone")
		return t.initLeaf(new(Leaf[V]), l.key, val)
	}
	l.val = val
	l.checkpointed = false
	return l
}

// splitLeaf replaces the leaf in slot with a node holding both it and a new leaf for key.
func (t *Tree[V]) splitLeaf(slot *node[V], old *Leaf[V], key []byte, val V, depth int) *Leaf[V] {
	var (
		lcp = commonPrefixLen(old.key[depth:], key[depth:])
		nn  = t.newInner(t.opts.startKind)
		l   = t.newLeaf(key, val)
	)
	asInner(nn).setPrefix(key[depth:depth+lcp], lcp)

	t.attach(nn, old, depth+lcp)
	t.attach(nn, l, depth+lcp)
	t.switchRef(slot, nn)

	t.opts.Logger.Trace().Int("depth", depth).Int("prefix", lcp).Msg("split leaf")
	return l
}

// splitPrefix puts a new node above the one in slot whose prefix diverges from key at p.
func (t *Tree[V]) splitPrefix(slot *node[V], key []byte, val V, depth, p int) *Leaf[V] {
	var (
		n    = t.mutable(slot)
		in   = asInner(n)
		full = fullPrefix(n, depth)
		nn   = t.newInner(t.opts.startKind)
		l    = t.newLeaf(key, val)
	)
	asInner(nn).setPrefix(key[depth:depth+p], p)

	// demote n below nn, keeping what follows the discriminating byte
	rest := full[p+1:]
	in.setPrefix(rest, len(rest))
	addChild(nn, full[p], n, t.lb16)

	t.attach(nn, l, depth+p)
	t.switchRef(slot, nn)

	t.opts.Logger.Trace().Int("depth", depth).Int("at", p).Msg("split prefix")
	return l
}

// attach links l under n, a fresh node whose prefix ends at depth d
func (t *Tree[V]) attach(n node[V], l *Leaf[V], d int) {
	if len(l.key) == d {
		t.switchTerm(asInner(n), l)
		return
	}
	addChild[V](n, l.key[d], l, t.lb16)
}

//---------------------
// Search
//---------------------

// Search returns the leaf holding key exactly, or nil.
func (t *Tree[V]) Search(key []byte) *Leaf[V] {
	var (
		n     = t.root
		depth = 0
	)
	for n != nil {
		if l, ok := n.(*Leaf[V]); ok {
			if bytes.Equal(l.key, key) {
				return l
			}
			return nil
		}

		in := asInner(n)
		if in.prefixLen > 0 {
			// only the stored bytes are checked here, the leaf comparison settles the rest
			if len(key)-depth < in.prefixLen {
				return nil
			}
			stored := min(in.prefixLen, maxPrefixLen)
			if !bytes.Equal(in.prefix[:stored], key[depth:depth+stored]) {
				return nil
			}
			depth += in.prefixLen
		}

		if depth == len(key) {
			if in.term != nil && bytes.Equal(in.term.key, key) {
				return in.term
			}
			return nil
		}

		ref := childRef(n, key[depth], t.lb16)
		if ref == nil {
			return nil
		}
		n = *ref
		depth++
	}
	return nil
}

// Get returns the value stored under key.
func (t *Tree[V]) Get(key []byte) (val V, ok bool) {
	if l := t.Search(key); l != nil {
		return l.val, true
	}
	return
}
