// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

package lpmtrie

// del removes (addr, masklen) from the 1-trie and restores the m-trie to
// the state it would be in had the prefix never been inserted: repainted
// with the nearest less-specific ancestor payload (the "LSR") or NULL, then
// prunes now-empty 1-trie branches, freeing m-trie blocks that become
// unreachable at stride boundaries.
func (t *Table) del(addr Addr, masklen int) error {
	if masklen == 0 {
		if !t.btrieRoot.hasPayload {
			return ErrNotFound
		}
		t.btrieRoot.hasPayload = false
		t.btrieRoot.payload = nil
		t.stats.RouteCount--
		t.stats.DataPerMasklen[0]--
		return nil
	}

	n := t.btrieRoot
	var lsr *bNode
	lsrDepth := 0
	for i := 0; i < masklen; i++ {
		// The root's own payload is the zero route, restored separately
		// (§4.6); it is never used as an LSR.
		if i > 0 && n.hasPayload {
			lsr, lsrDepth = n, i
		}
		n = n.child[bitAt(addr, i)]
		if n == nil {
			return ErrNotFound
		}
	}
	if !n.hasPayload {
		return ErrNotFound
	}

	t.logger.Trace().Str("op", "del").Int("masklen", masklen).Msg("repaint window start")
	defer t.logger.Trace().Str("op", "del").Int("masklen", masklen).Msg("repaint window end")

	n.hasPayload = false
	n.payload = nil
	t.stats.RouteCount--
	t.stats.DataPerMasklen[masklen]--

	hasDescendants := subtreeHasPayload(n)

	var err error
	switch {
	case lsr != nil && (masklen-1)/8 == (lsrDepth-1)/8:
		// target and LSR share a block: re-expand from the LSR so its
		// payload reclaims the range the deleted prefix dominated. Both
		// sides divide (depth-1) by the stride width, since a node's own
		// m-trie entry always lives in block level (own_masklen-1)/8 (the
		// same convention expand.go uses via bitpos = masklen-1).
		err = t.expand(addr, lsrDepth, lsr, lsr.payload, true)
	case lsr != nil:
		// LSR lives in a shallower block; that block's own entries still
		// answer lookups once this block's footprint is erased.
		err = t.expand(addr, masklen, n, nil, false)
	case hasDescendants:
		// no LSR, but more specific prefixes still live under n; erase n's
		// own footprint and let them re-assert through their own blocks.
		err = t.expand(addr, masklen, n, nil, false)
	default:
		t.zeroOut(addr, masklen)
	}
	if err != nil {
		return err
	}

	path := addr
	pruneDepth := 0
	pruneRoot := t.btrieRoot
	if lsr != nil {
		pruneRoot = lsr
		pruneDepth = lsrDepth
	}
	t.pruneSubtree(pruneRoot, path, pruneDepth)

	return nil
}

// zeroOut is the fast path for the no-LSR, no-descendants case: no other
// prefix on or under the deleted node's path has a payload to repaint, so
// there is exactly one block to clear, reached without allocating anything.
// It walks the existing chain, defensively nulling entry payloads en route
// (they are expected to already be absent, since only an ancestor prefix
// writes into those entries and there is none), then pattern-writes NULL
// at the level the masklen is consumed.
func (t *Table) zeroOut(addr Addr, masklen int) {
	level := (masklen - 1) / 8
	block := t.mtrieRoot
	for l := 0; l < level; l++ {
		e := &block.entries[addr[l]]
		e.payload = nil
		e.hasPayload = false
		if e.next == nil {
			internalPanic("zero-out: m-trie block missing at level %d", l+1)
		}
		block = e.next
	}
	patternWrite(block, int(addr[level]), masklen-1, nil, false)
}

// pruneSubtree depth-first, post-order removes 1-trie nodes under n (n
// itself, located at depth and reached via path, is never removed by this
// call - the caller is either the true root or the LSR, both of which stay
// in place). A subtree is deletable iff it holds no payload anywhere; when
// a deletion happens to land on a stride boundary, the corresponding,
// now-unreachable m-trie block is unlinked from its parent entry and
// freed.
func (t *Table) pruneSubtree(n *bNode, path Addr, depth int) bool {
	if depth > maxMaskLen+1 {
		return false
	}

	if n.child[0] != nil {
		childPath := path
		clearBit(&childPath, depth)
		if t.pruneSubtree(n.child[0], childPath, depth+1) {
			t.freeBNode(childPath, depth+1)
			n.child[0] = nil
		}
	}
	if n.child[1] != nil {
		childPath := path
		setBit(&childPath, depth)
		if t.pruneSubtree(n.child[1], childPath, depth+1) {
			t.freeBNode(childPath, depth+1)
			n.child[1] = nil
		}
	}

	return !n.hasPayload && n.child[0] == nil && n.child[1] == nil
}

// freeBNode accounts for one freed 1-trie node. When it sits on an m-trie
// stride boundary, the block it owns is unlinked and freed too.
func (t *Table) freeBNode(path Addr, depth int) {
	t.stats.BtrieNodeAllocs--
	if depth%8 == 0 {
		t.unlinkAndFreeMBlock(path, depth)
	}
}

// unlinkAndFreeMBlock frees the m-trie block that became unreachable when
// the 1-trie node at depth (a multiple of 8) was pruned. The block must
// hold no live children - if it did, some deeper prefix would still exist,
// and the 1-trie node above it would not have been empty. That is checked
// and treated as a fatal bug if violated.
func (t *Table) unlinkAndFreeMBlock(path Addr, depth int) {
	level := depth / 8
	parentLevel := level - 1

	block := t.mtrieRoot
	for l := 0; l < parentLevel; l++ {
		block = block.entries[path[l]].next
		if block == nil {
			internalPanic("m-trie ancestor missing while freeing block at level %d", level)
		}
	}

	byteIdx := path[parentLevel]
	child := block.entries[byteIdx].next
	if child == nil {
		return
	}
	for i := range child.entries {
		if child.entries[i].next != nil {
			internalPanic("orphan m-trie block still has live children")
		}
	}
	block.entries[byteIdx].next = nil
	freeBlockRecursive(child, &t.stats.MtrieBlockAllocs)
}
