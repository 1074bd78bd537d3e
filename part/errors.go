package part

import "errors"

var (
	// ErrKeyTooLong is the panic value (wrapped) of Insert when a key exceeds the tree's limit.
	ErrKeyTooLong = errors.New("part: key too long")

	// ErrInvariant marks a broken structural invariant: a refcount below zero, unsorted child
	// keys, a bitmap disagreeing with its child table. It is a programming error.
	ErrInvariant = errors.New("part: invariant violated")
)
