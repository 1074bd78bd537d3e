package part

import (
	"sync/atomic"
	"unsafe"
)

//---------------------
// Live Node Accounting
//---------------------

// usage counts the live nodes of a tree and all of its snapshots.
type usage struct {
	nodes [kindCount]atomic.Int64
	bytes atomic.Int64
}

func (u *usage) alloc(k Kind, size int64) {
	u.nodes[k].Add(1)
	u.bytes.Add(size)
}

func (u *usage) free(k Kind, size int64) {
	u.nodes[k].Add(-1)
	u.bytes.Add(-size)
}

// Usage is a point-in-time copy of the live node accounting shared by a tree, its snapshots
// and its compacted copies.
type Usage struct {
	Nodes [kindCount]int64 // live nodes, indexed by Kind
	Bytes int64            // live bytes
}

// Live returns the total number of live nodes.
func (u Usage) Live() (total int64) {
	for _, n := range u.Nodes {
		total += n
	}
	return
}

func (t *Tree[V]) Usage() Usage {
	var u Usage
	for k := range u.Nodes {
		u.Nodes[k] = t.usage.nodes[k].Load()
	}
	u.Bytes = t.usage.bytes.Load()
	return u
}

//---------------------
// Diagnostics
//---------------------

// NodeSize returns the bytes of every node reachable from the root.
func (t *Tree[V]) NodeSize() (total int64) {
	walk(t.root, func(n node[V], _ int) visit {
		total += sizeOf(n)
		return descend
	})
	return
}

// MaxDepth returns the depth of the deepest node; the root is at depth 0.
func (t *Tree[V]) MaxDepth() (depth int) {
	walk(t.root, func(_ node[V], d int) visit {
		depth = max(depth, d)
		return descend
	})
	return
}

// AvgStride returns the mean address distance between leaves adjacent in key order. Small
// values mean a scan touches memory sequentially.
func (t *Tree[V]) AvgStride() float64 {
	var (
		total, count int64
		prev         uintptr
	)
	walk(t.root, func(n node[V], _ int) visit {
		if l, ok := n.(*Leaf[V]); ok {
			addr := uintptr(unsafe.Pointer(l))
			if count > 0 {
				d := int64(addr) - int64(prev)
				if d < 0 {
					d = -d
				}
				total += d
			}
			prev = addr
			count++
		}
		return descend
	})
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

// Checkpoint returns the bytes a checkpoint of this version would write: the root and its
// children always, and every deeper subtree not written by an earlier checkpoint. Subtrees it
// counts are marked; it returns 0 when nothing changed since the previous call.
func (t *Tree[V]) Checkpoint() int64 {
	if t.root == nil || t.root.hdr().checkpointed {
		return 0
	}
	var total int64

	walk(t.root, func(n node[V], depth int) visit {
		if depth <= 1 {
			total += sizeOf(n)
			return descend
		}
		if n.hdr().checkpointed {
			return skip
		}
		walk(n, func(m node[V], _ int) visit {
			total += sizeOf(m)
			return descend
		})
		n.hdr().checkpointed = true
		return skip
	})

	t.root.hdr().checkpointed = true
	return total
}
