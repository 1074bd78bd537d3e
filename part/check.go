package part

import (
	"bytes"
	"fmt"
)

// Validate walks the whole tree and checks its structural invariants: positive refcounts,
// capacities, sorted child tables, bitmaps agreeing with child tables, prefixes agreeing with
// the keys below them, ascending keys and the key count. The error wraps ErrInvariant.
func (t *Tree[V]) Validate() error {
	if t.root == nil {
		if t.size != 0 {
			return fmt.Errorf("%w: empty tree with size %d", ErrInvariant, t.size)
		}
		return nil
	}

	var (
		count int
		prev  []byte
	)
	if err := t.validate(t.root, nil, func(l *Leaf[V]) error {
		if count > 0 && bytes.Compare(prev, l.key) >= 0 {
			return fmt.Errorf("%w: key %q after %q", ErrInvariant, l.key, prev)
		}
		prev = l.key
		count++
		return nil
	}); err != nil {
		return err
	}

	if count != t.size {
		return fmt.Errorf("%w: %d leaves, size %d", ErrInvariant, count, t.size)
	}
	return nil
}

// validate checks n, reached through path, and hands leaves to onLeaf in key order.
func (t *Tree[V]) validate(n node[V], path []byte, onLeaf func(*Leaf[V]) error) error {
	h := n.hdr()
	if h.refs.Load() < 1 {
		return fmt.Errorf("%w: %s at %q has refcount %d", ErrInvariant, h.kind, path, h.refs.Load())
	}

	if l, ok := n.(*Leaf[V]); ok {
		if !bytes.HasPrefix(l.key, path) || len(l.key) < len(path) {
			return fmt.Errorf("%w: leaf %q under path %q", ErrInvariant, l.key, path)
		}
		return onLeaf(l)
	}

	in := asInner(n)
	if in.numChildren > h.kind.capacity() {
		return fmt.Errorf("%w: %s at %q has %d children", ErrInvariant, h.kind, path, in.numChildren)
	}
	if in.entries() < 2 {
		return fmt.Errorf("%w: %s at %q has %d entries", ErrInvariant, h.kind, path, in.entries())
	}
	if err := validateTable(n); err != nil {
		return fmt.Errorf("%s at %q: %w", h.kind, path, err)
	}

	// the stored prefix must agree with the keys below
	lo := minimum(n)
	if len(lo.key) < len(path)+in.prefixLen {
		return fmt.Errorf("%w: %s at %q: prefix %d longer than key %q", ErrInvariant, h.kind, path, in.prefixLen, lo.key)
	}
	full := lo.key[len(path) : len(path)+in.prefixLen]
	if !bytes.Equal(in.prefix[:min(in.prefixLen, maxPrefixLen)], full[:min(in.prefixLen, maxPrefixLen)]) {
		return fmt.Errorf("%w: %s at %q: prefix %q, keys have %q", ErrInvariant, h.kind, path, in.prefix[:min(in.prefixLen, maxPrefixLen)], full)
	}
	path = append(path[:len(path):len(path)], full...)

	if in.term != nil {
		if !bytes.Equal(in.term.key, path) {
			return fmt.Errorf("%w: terminal leaf %q at %q", ErrInvariant, in.term.key, path)
		}
		if err := t.validate(in.term, path, onLeaf); err != nil {
			return err
		}
	}

	var err error
	forEachChild(n, func(c byte, child node[V]) bool {
		err = t.validate(child, append(path[:len(path):len(path)], c), onLeaf)
		return err == nil
	})
	return err
}

// validateTable checks the child table of an internal node against its own bookkeeping.
func validateTable[V any](n node[V]) error {
	switch n := n.(type) {
	case *node4[V]:
		return validateSorted(n.keys[:n.numChildren], n.children[:n.numChildren])
	case *node16[V]:
		return validateSorted(n.keys[:n.numChildren], n.children[:n.numChildren])
	case *node48[V]:
		if err := validateBitmap(&n.present, n.numChildren, func(c byte) bool { return n.index[c] != 0 }); err != nil {
			return err
		}
		var used [48]bool
		for c := 0; c < 256; c++ {
			slot := int(n.index[c])
			if slot == 0 {
				continue
			}
			if slot > n.numChildren || used[slot-1] || n.children[slot-1] == nil {
				return fmt.Errorf("%w: bad slot %d for %q", ErrInvariant, slot, byte(c))
			}
			used[slot-1] = true
		}
	case *node256[V]:
		return validateBitmap(&n.present, n.numChildren, func(c byte) bool { return n.children[c] != nil })
	}
	return nil
}

// validateBitmap checks b against the child table (occupied) and the child count; the rank of
// every marked byte must match its position among the occupied slots.
func validateBitmap(b *bitmap, numChildren int, occupied func(c byte) bool) error {
	if cnt := b.count(); cnt != numChildren {
		return fmt.Errorf("%w: bitmap has %d bytes, %d children", ErrInvariant, cnt, numChildren)
	}
	seen := 0
	for c := 0; c < 256; c++ {
		if occupied(byte(c)) != b.has(byte(c)) {
			return fmt.Errorf("%w: child table and bitmap disagree on %q", ErrInvariant, byte(c))
		}
		if !b.has(byte(c)) {
			continue
		}
		if r := b.rank(byte(c)); r != seen {
			return fmt.Errorf("%w: rank of %q is %d, want %d", ErrInvariant, byte(c), r, seen)
		}
		seen++
	}
	return nil
}

func validateSorted[V any](keys []byte, children []node[V]) error {
	for i := range keys {
		if children[i] == nil {
			return fmt.Errorf("%w: nil child for %q", ErrInvariant, keys[i])
		}
		if i > 0 && keys[i-1] >= keys[i] {
			return fmt.Errorf("%w: keys out of order: %q", ErrInvariant, keys)
		}
	}
	return nil
}
