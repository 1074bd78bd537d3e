package part

import "bytes"

//---------------------
// Iterator
//---------------------

// Iterator points at a leaf found by a bound search. The zero Iterator is exhausted.
type Iterator[V any] struct {
	leaf *Leaf[V]
	root node[V]
	lb16 searchFunc
}

// Valid reports whether the iterator points at a leaf.
func (it Iterator[V]) Valid() bool {
	return it.leaf != nil
}

func (it Iterator[V]) Leaf() *Leaf[V] {
	return it.leaf
}

// Key returns the current key, nil when exhausted.
func (it Iterator[V]) Key() []byte {
	if it.leaf == nil {
		return nil
	}
	return it.leaf.key
}

// Value returns the current value, the zero V when exhausted.
func (it Iterator[V]) Value() (val V) {
	if it.leaf != nil {
		val = it.leaf.val
	}
	return
}

// Next moves to the following key in the version the iterator came from. That version must
// not have been mutated since; iterate a Snapshot for a stable cursor.
func (it *Iterator[V]) Next() bool {
	if it.leaf == nil {
		return false
	}
	it.leaf = seek(it.root, it.leaf.key, true, it.lb16)
	return it.leaf != nil
}

// LowerBound positions an iterator at the smallest key >= key.
func (t *Tree[V]) LowerBound(key []byte) Iterator[V] {
	return Iterator[V]{leaf: seek(t.root, key, false, t.lb16), root: t.root, lb16: t.lb16}
}

// UpperBound positions an iterator at the smallest key > key.
func (t *Tree[V]) UpperBound(key []byte) Iterator[V] {
	return Iterator[V]{leaf: seek(t.root, key, true, t.lb16), root: t.root, lb16: t.lb16}
}

// First positions an iterator at the smallest key.
func (t *Tree[V]) First() Iterator[V] {
	return Iterator[V]{leaf: minimum(t.root), root: t.root, lb16: t.lb16}
}

//---------------------
// Bound Search
//---------------------

type boundCheck uint8

const (
	boundFound     boundCheck = iota // every key under the node qualifies, take its minimum
	boundDepth                       // prefix matched, descend by the next key byte
	boundBacktrack                   // every key under the node is too small
)

// seek returns the first leaf under root whose key is >= key (> key when strict).
func seek[V any](root node[V], key []byte, strict bool, lb16 searchFunc) *Leaf[V] {
	var (
		stack boundStack[V]
		n     = root
		depth = 0
	)

descent:
	for n != nil {
		res, check := checkBound(n, key, &depth, strict)
		switch check {
		case boundFound:
			return res
		case boundBacktrack:
			break descent
		}

		c := key[depth]
		stack.push(boundFrame[V]{n, c})

		child, exact := lowerBound(n, c, lb16)
		if child == nil {
			break
		}
		if !exact {
			// the child's byte is already past the query
			return minimum(child)
		}
		n = child
		depth++
	}

	for stack.len() > 0 {
		f := stack.pop()
		if next := findNext(f.n, f.c, lb16); next != nil {
			return minimum(next)
		}
	}
	return nil
}

// checkBound classifies n against key at *depth. For boundDepth *depth is advanced past n's
// prefix and key has a byte there.
func checkBound[V any](n node[V], key []byte, depth *int, strict bool) (*Leaf[V], boundCheck) {
	if l, ok := n.(*Leaf[V]); ok {
		cmp := bytes.Compare(l.key, key)
		if cmp < 0 || (cmp == 0 && strict) {
			return nil, boundBacktrack
		}
		return l, boundFound
	}

	var (
		in = asInner(n)
		d  = *depth
	)
	if in.prefixLen > 0 {
		rest := len(key) - d
		switch cmp := comparePrefix(n, key, d, min(in.prefixLen, rest)); {
		case cmp < 0:
			return nil, boundBacktrack
		case cmp > 0:
			return minimum(n), boundFound
		case rest < in.prefixLen:
			// the query ends inside the prefix: every key here extends it
			return minimum(n), boundFound
		}
		d += in.prefixLen
	}
	*depth = d

	if d == len(key) {
		// the terminal leaf equals the query; every child is greater
		if !strict && in.term != nil {
			return in.term, boundFound
		}
		if c := firstChild(n); c != nil {
			return minimum(c), boundFound
		}
		return nil, boundBacktrack
	}
	return nil, boundDepth
}

//---------------------
// Backtracking Stack
//---------------------

type boundFrame[V any] struct {
	n node[V]
	c byte
}

// boundStack keeps short descents in an inline array and spills to s when deeper.
type boundStack[V any] struct {
	a    [8]boundFrame[V]
	aLen int8 // -1 when using s
	s    []boundFrame[V]
}

func (bs *boundStack[V]) push(f boundFrame[V]) {
	if bs.aLen == -1 {
		bs.s = append(bs.s, f)
	} else if int(bs.aLen) == len(bs.a) {
		bs.s = make([]boundFrame[V], int(bs.aLen)+1, 2*int(bs.aLen))
		copy(bs.s, bs.a[:])
		bs.s[int(bs.aLen)] = f
		bs.aLen = -1
	} else {
		bs.a[bs.aLen] = f
		bs.aLen++
	}
}

func (bs *boundStack[V]) pop() boundFrame[V] {
	if bs.aLen == -1 {
		f := bs.s[len(bs.s)-1]
		bs.s = bs.s[:len(bs.s)-1]
		return f
	}
	bs.aLen--
	return bs.a[bs.aLen]
}

func (bs *boundStack[V]) len() int {
	if bs.aLen == -1 {
		return len(bs.s)
	}
	return int(bs.aLen)
}
