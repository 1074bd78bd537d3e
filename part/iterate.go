package part

import "slices"

type visit uint8

const (
	descend visit = iota // go on into the node's children
	skip                 // leave the node's children out
	stop                 // end the walk
)

type walkFrame[V any] struct {
	n     node[V]
	depth int
}

// walk visits root and every node below it, parents before children and leaves in key
// order. It reports false when fn stopped it.
func walk[V any](root node[V], fn func(n node[V], depth int) visit) bool {
	if root == nil {
		return true
	}
	toVisit := []walkFrame[V]{{root, 0}}

	for len(toVisit) > 0 {
		f := toVisit[len(toVisit)-1]
		toVisit = toVisit[:len(toVisit)-1]

		switch fn(f.n, f.depth) {
		case stop:
			return false
		case skip:
			continue
		}

		in := asInner(f.n)
		if in == nil {
			continue
		}
		// push children reversed so the smallest pops first, the terminal leaf on top
		mark := len(toVisit)
		forEachChild(f.n, func(_ byte, child node[V]) bool {
			toVisit = append(toVisit, walkFrame[V]{child, f.depth + 1})
			return true
		})
		slices.Reverse(toVisit[mark:])
		if in.term != nil {
			toVisit = append(toVisit, walkFrame[V]{in.term, f.depth + 1})
		}
	}
	return true
}

// Iterate calls handler for every key in ascending order until it returns false.
// It reports whether the whole tree was visited.
func (t *Tree[V]) Iterate(handler func(key []byte, val V) bool) bool {
	return walk(t.root, func(n node[V], _ int) visit {
		if l, ok := n.(*Leaf[V]); ok && !handler(l.key, l.val) {
			return stop
		}
		return descend
	})
}

// Keys returns all keys in ascending order.
func (t *Tree[V]) Keys() [][]byte {
	keys := make([][]byte, 0, t.size)
	t.Iterate(func(key []byte, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
