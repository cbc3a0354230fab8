// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

package lpmtrie

import "github.com/ipgraft/lpmtrie/internal/faultinj"

// bNode is one node of the 1-trie, the authoritative prefix store. A node
// with hasPayload set represents a stored prefix whose bit-path from the
// root spells the first depth bits of some inserted address.
type bNode struct {
	payload    any
	hasPayload bool
	child      [2]*bNode
}

// newBNode allocates a zeroed node, or nil if the fault-injection hook (or
// a real allocator, were this not Go) reports exhaustion.
func newBNode() *bNode {
	if faultinj.Tick() {
		return nil
	}
	return &bNode{}
}

// pathStatus is the outcome of addPath.
type pathStatus int

const (
	pathExists pathStatus = iota
	pathCreated
	pathResources
)

// findNode walks masklen bits from root, returning nil if any child along
// the way is missing. masklen 0 returns root itself.
func (root *bNode) findNode(addr Addr, masklen int) *bNode {
	n := root
	for i := 0; i < masklen; i++ {
		n = n.child[bitAt(addr, i)]
		if n == nil {
			return nil
		}
	}
	return n
}

// addPath walks masklen bits from root, allocating whatever children are
// missing. It reports the end node, plus the parent and bit of the first
// node it allocated - the anchor a caller can later pass to
// detachAndFreeChain to undo the whole appended chain. The appended chain
// is guaranteed linear: every allocated node has at most one child filled
// in by this call.
func (root *bNode) addPath(addr Addr, masklen int, nodeAllocs *int64) (end, anchorParent *bNode, anchorBit uint8, anchorSet bool, status pathStatus) {
	n := root
	for i := 0; i < masklen; i++ {
		b := bitAt(addr, i)
		if n.child[b] == nil {
			c := newBNode()
			if c == nil {
				return nil, anchorParent, anchorBit, anchorSet, pathResources
			}
			n.child[b] = c
			*nodeAllocs++
			if !anchorSet {
				anchorParent, anchorBit, anchorSet = n, b, true
			}
		}
		n = n.child[b]
	}
	if anchorSet {
		return n, anchorParent, anchorBit, true, pathCreated
	}
	return n, nil, 0, false, pathExists
}

// detachAndFreeChain detaches the child at bit from parent and frees the
// linear chain rooted there. It aborts - treats it as a fatal bug - if it
// finds a node with two children, since that could only happen if this
// chain was never a pure rollback chain.
func detachAndFreeChain(parent *bNode, bit uint8, nodeAllocs *int64) {
	n := parent.child[bit]
	parent.child[bit] = nil
	for n != nil {
		c0, c1 := n.child[0], n.child[1]
		if c0 != nil && c1 != nil {
			internalPanic("rollback chain is not linear: node has two children")
		}
		*nodeAllocs--
		if c0 != nil {
			n = c0
		} else {
			n = c1
		}
	}
}

// destroySubtree frees the subtree rooted at n, post-order, including n
// itself. Recursion is bounded at maxMaskLen+1; past that bound the descent
// silently stops, without failing (a 128-bit trie can never actually be
// deeper).
func destroySubtree(n *bNode, nodeAllocs *int64, depth int) {
	if n == nil {
		return
	}
	if depth > maxMaskLen+1 {
		return
	}
	destroySubtree(n.child[0], nodeAllocs, depth+1)
	destroySubtree(n.child[1], nodeAllocs, depth+1)
	*nodeAllocs--
}

// subtreeHasPayload reports whether any descendant of n (not n itself)
// carries a payload.
func subtreeHasPayload(n *bNode) bool {
	for _, c := range n.child {
		if c != nil && (c.hasPayload || subtreeHasPayload(c)) {
			return true
		}
	}
	return false
}

// WalkFunc is invoked once per stored prefix during Table.Walk. Returning
// false aborts the walk; Walk then returns ErrExotic.
type WalkFunc func(addr Addr, masklen int, payload any) bool

// dfsWalk invokes cb for every node with a payload, pre-order, bit 0 before
// bit 1. It maintains a single scratch address, set before descending into
// the bit-1 child and cleared after returning from it, so cb always sees
// the correct path for the node it was called with.
func dfsWalk(n *bNode, path *Addr, depth int, cb func(addr Addr, depth int, payload any) bool) bool {
	if n == nil {
		return true
	}
	if depth > maxMaskLen+1 {
		return true
	}
	if n.hasPayload && !cb(*path, depth, n.payload) {
		return false
	}
	if n.child[0] != nil && !dfsWalk(n.child[0], path, depth+1, cb) {
		return false
	}
	if n.child[1] != nil {
		setBit(path, depth)
		cont := dfsWalk(n.child[1], path, depth+1, cb)
		clearBit(path, depth)
		if !cont {
			return false
		}
	}
	return true
}
