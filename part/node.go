package part

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"unsafe"
)

const (
	maxPrefixLen = 8

	// DefaultMaxKeyLen is the longest key Insert accepts unless WithMaxKeyLen says otherwise.
	DefaultMaxKeyLen = 10000
)

// Kind tags a node variant.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindNode4
	KindNode16
	KindNode48
	KindNode256

	kindCount = int(KindNode256) + 1
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "LEAF"
	case KindNode4:
		return "NODE4"
	case KindNode16:
		return "NODE16"
	case KindNode48:
		return "NODE48"
	case KindNode256:
		return "NODE256"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// capacity is the maximum number of children of an internal kind
func (k Kind) capacity() int {
	switch k {
	case KindNode4:
		return 4
	case KindNode16:
		return 16
	case KindNode48:
		return 48
	case KindNode256:
		return 256
	}
	return 0
}

//---------------------
// Node Header
//---------------------

type header struct {
	refs         atomic.Int32
	kind         Kind
	checkpointed bool
}

func (h *header) hdr() *header { return h }

func (h *header) incRef() { h.refs.Add(1) }

func (h *header) decRef() int32 {
	r := h.refs.Add(-1)
	if r < 0 {
		panic(fmt.Errorf("%w: refcount %d on %s", ErrInvariant, r, h.kind))
	}
	return r
}

func (h *header) shared() bool { return h.refs.Load() > 1 }

// node is the closed set of tree nodes: *Leaf[V], *node4[V], *node16[V], *node48[V], *node256[V].
type node[V any] interface {
	hdr() *header
	valueType(V)
}

//---------------------
// Variants
//---------------------

// Leaf holds a full key and its value.
type Leaf[V any] struct {
	header
	key []byte
	val V
}

// Key returns the leaf's key. It must not be modified.
func (l *Leaf[V]) Key() []byte { return l.key }

// Value returns the value stored with the key.
func (l *Leaf[V]) Value() V { return l.val }

func (*Leaf[V]) valueType(V) {}

type inner[V any] struct {
	header
	prefix      [maxPrefixLen]byte
	prefixLen   int
	numChildren int
	term        *Leaf[V] // key ending right after the prefix
}

func (*inner[V]) valueType(V) {}

// setPrefix stores the first bytes of p (of logical length n); p may alias in.prefix
func (in *inner[V]) setPrefix(p []byte, n int) {
	var b [maxPrefixLen]byte
	copy(b[:], p[:min(n, maxPrefixLen)])
	in.prefix = b
	in.prefixLen = n
}

// entries counts the children plus the terminal leaf
func (in *inner[V]) entries() int {
	if in.term != nil {
		return in.numChildren + 1
	}
	return in.numChildren
}

type node4[V any] struct {
	inner[V]
	keys     [4]byte
	children [4]node[V]
}

type node16[V any] struct {
	inner[V]
	keys     [16]byte
	children [16]node[V]
}

type node48[V any] struct {
	inner[V]
	present  bitmap
	index    [256]byte // 1-based slot into children, 0 means absent
	children [48]node[V]
}

type node256[V any] struct {
	inner[V]
	present  bitmap
	children [256]node[V]
}

//---------------------
// Variant Dispatch
//---------------------

func asInner[V any](n node[V]) *inner[V] {
	switch n := n.(type) {
	case *node4[V]:
		return &n.inner
	case *node16[V]:
		return &n.inner
	case *node48[V]:
		return &n.inner
	case *node256[V]:
		return &n.inner
	}
	return nil
}

// sizeOf reports the bytes a node accounts for.
func sizeOf[V any](n node[V]) int64 {
	switch n := n.(type) {
	case *Leaf[V]:
		return int64(unsafe.Sizeof(*n)) + int64(len(n.key))
	case *node4[V]:
		return int64(unsafe.Sizeof(*n))
	case *node16[V]:
		return int64(unsafe.Sizeof(*n))
	case *node48[V]:
		return int64(unsafe.Sizeof(*n))
	case *node256[V]:
		return int64(unsafe.Sizeof(*n))
	}
	return 0
}

func isFull[V any](n node[V]) bool {
	in := asInner(n)
	return in.numChildren >= n.hdr().kind.capacity()
}

// childRef returns the slot holding the child for byte c, or nil.
func childRef[V any](n node[V], c byte, lb16 searchFunc) *node[V] {
	switch n := n.(type) {
	case *node4[V]:
		for i := 0; i < n.numChildren; i++ {
			if n.keys[i] == c {
				return &n.children[i]
			}
		}
	case *node16[V]:
		if i := lb16(&n.keys, n.numChildren, c); i < n.numChildren && n.keys[i] == c {
			return &n.children[i]
		}
	case *node48[V]:
		if i := n.index[c]; i != 0 {
			return &n.children[i-1]
		}
	case *node256[V]:
		if n.children[c] != nil {
			return &n.children[c]
		}
	}
	return nil
}

// lowerBound returns the child with the smallest key byte >= c and whether that byte is c.
func lowerBound[V any](n node[V], c byte, lb16 searchFunc) (node[V], bool) {
	switch n := n.(type) {
	case *node4[V]:
		for i := 0; i < n.numChildren; i++ {
			if n.keys[i] >= c {
				checkBracket(n.keys[:n.numChildren], i, c)
				return n.children[i], n.keys[i] == c
			}
		}
	case *node16[V]:
		if i := lb16(&n.keys, n.numChildren, c); i < n.numChildren {
			checkBracket(n.keys[:n.numChildren], i, c)
			return n.children[i], n.keys[i] == c
		}
	case *node48[V]:
		if b, ok := n.present.next(int(c)); ok {
			return n.children[n.index[b]-1], b == c
		}
	case *node256[V]:
		if b, ok := n.present.next(int(c)); ok {
			return n.children[b], b == c
		}
	}
	return nil, false
}

// checkBracket panics unless keys[i] is the first key >= c and the next key follows it.
func checkBracket(keys []byte, i int, c byte) {
	if keys[i] < c || (i > 0 && keys[i-1] >= c) || (i+1 < len(keys) && keys[i+1] <= keys[i]) {
		panic(fmt.Errorf("%w: unsorted keys %q at %d looking for %q", ErrInvariant, keys, i, c))
	}
}

// findNext returns the child with the smallest key byte strictly greater than c.
func findNext[V any](n node[V], c byte, lb16 searchFunc) node[V] {
	if c == 0xff {
		return nil
	}
	child, _ := lowerBound(n, c+1, lb16)
	return child
}

func firstChild[V any](n node[V]) node[V] {
	switch n := n.(type) {
	case *node4[V]:
		if n.numChildren > 0 {
			return n.children[0]
		}
	case *node16[V]:
		if n.numChildren > 0 {
			return n.children[0]
		}
	case *node48[V]:
		if b, ok := n.present.next(0); ok {
			return n.children[n.index[b]-1]
		}
	case *node256[V]:
		if b, ok := n.present.next(0); ok {
			return n.children[b]
		}
	}
	return nil
}

// forEachChild calls fn for every child in ascending key byte order until fn returns false.
func forEachChild[V any](n node[V], fn func(c byte, child node[V]) bool) {
	switch n := n.(type) {
	case *node4[V]:
		for i := 0; i < n.numChildren; i++ {
			if !fn(n.keys[i], n.children[i]) {
				return
			}
		}
	case *node16[V]:
		for i := 0; i < n.numChildren; i++ {
			if !fn(n.keys[i], n.children[i]) {
				return
			}
		}
	case *node48[V]:
		for b, ok := n.present.next(0); ok; b, ok = n.present.next(int(b) + 1) {
			if !fn(b, n.children[n.index[b]-1]) {
				return
			}
		}
	case *node256[V]:
		for b, ok := n.present.next(0); ok; b, ok = n.present.next(int(b) + 1) {
			if !fn(b, n.children[b]) {
				return
			}
		}
	}
}

// addChild links child under byte c and takes a reference to it. The node must not be full.
func addChild[V any](n node[V], c byte, child node[V], lb16 searchFunc) {
	if isFull(n) {
		panic(fmt.Errorf("%w: add to full %s", ErrInvariant, n.hdr().kind))
	}
	child.hdr().incRef()

	switch n := n.(type) {
	case *node4[V]:
		i := 0
		for i < n.numChildren && n.keys[i] < c {
			i++
		}
		insertAt(n.keys[:n.numChildren+1], n.children[:n.numChildren+1], i, c, child)
	case *node16[V]:
		i := lb16(&n.keys, n.numChildren, c)
		insertAt(n.keys[:n.numChildren+1], n.children[:n.numChildren+1], i, c, child)
	case *node48[V]:
		// slots fill in order since children are never removed
		slot := n.numChildren
		n.children[slot] = child
		n.index[c] = byte(slot + 1)
		n.present.set(c)
	case *node256[V]:
		n.children[c] = child
		n.present.set(c)
	}
	asInner(n).numChildren++
}

// insertAt shifts keys[i:] and children[i:] right by one and puts (c, child) at i
func insertAt[V any](keys []byte, children []node[V], i int, c byte, child node[V]) {
	copy(keys[i+1:], keys[i:])
	copy(children[i+1:], children[i:])
	keys[i] = c
	children[i] = child
}

// minimum returns the smallest leaf under n.
func minimum[V any](n node[V]) *Leaf[V] {
	for n != nil {
		if l, ok := n.(*Leaf[V]); ok {
			return l
		}
		if in := asInner(n); in.term != nil {
			return in.term
		}
		n = firstChild(n)
	}
	return nil
}

//---------------------
// Prefix Helpers
//---------------------

// prefixMismatch returns the index of the first byte where n's full prefix and key[depth:]
// differ, capped by the prefix length and by the remaining key length.
func prefixMismatch[V any](n node[V], key []byte, depth int) int {
	var (
		in     = asInner(n)
		limit  = min(in.prefixLen, len(key)-depth)
		stored = min(limit, maxPrefixLen)
	)
	for i := 0; i < stored; i++ {
		if in.prefix[i] != key[depth+i] {
			return i
		}
	}
	if limit > maxPrefixLen {
		// the rest of the prefix is only known from the leaves
		full := minimum(n).key
		for i := maxPrefixLen; i < limit; i++ {
			if full[depth+i] != key[depth+i] {
				return i
			}
		}
	}
	return limit
}

// comparePrefix compares the first m bytes of n's full prefix with key[depth:depth+m].
func comparePrefix[V any](n node[V], key []byte, depth, m int) int {
	var (
		in     = asInner(n)
		stored = min(m, maxPrefixLen)
	)
	if c := bytes.Compare(in.prefix[:stored], key[depth:depth+stored]); c != 0 {
		return c
	}
	if m > maxPrefixLen {
		full := minimum(n).key
		return bytes.Compare(full[depth+maxPrefixLen:depth+m], key[depth+maxPrefixLen:depth+m])
	}
	return 0
}

// fullPrefix returns n's whole prefix for a node sitting at depth. The result never aliases
// n's inline prefix array.
func fullPrefix[V any](n node[V], depth int) []byte {
	in := asInner(n)
	if in.prefixLen <= maxPrefixLen {
		return copyBytes(in.prefix[:in.prefixLen])
	}
	return minimum(n).key[depth : depth+in.prefixLen]
}
