// Package part implements a persistent adaptive radix tree (PART): an ordered, prefix-compressed
// byte-keyed index whose versions share structure.
//
// Nodes:
// -----
//
//   - Leaf    - a full key and its value;
//   - Node4   - up to 4 children in a sorted key array;
//   - Node16  - up to 16 children in a sorted key array, searched by a scalar or SWAR kernel;
//   - Node48  - up to 48 children behind a 256-entry byte->slot index;
//   - Node256 - a direct 256-entry child table.
//
// Every internal node carries a compressed path prefix (up to 8 bytes stored inline, longer
// prefixes are checked against the subtree's minimum leaf) and an optional terminal leaf: the
// key that ends exactly after the prefix. The terminal leaf sorts before every child, so keys
// that are prefixes of other keys ("a", "ab") live side by side.
//
// Versions:
// --------
//
// Each node has a reference count. Snapshot increments the root's count and aliases the root,
// so it is O(1). Insert never changes a node owned by more than one parent: it clones it first,
// which copies the root-to-leaf path and shares everything else. Destroy releases a version and
// frees exactly the nodes no other version still references.
//
// The tree is single-writer. Any number of goroutines may read their own snapshots while one
// goroutine keeps inserting into the tree the snapshots were taken from.
package part
