// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

package lpmtrie

// expansionState tracks every m-trie block newly linked into the reachable
// DAG during one top-level expand call, so that a failure anywhere in the
// recursion can roll back every block that call allocated - not just the
// one pattern_write that failed. Blocks that existed before this call began
// are never touched by rollback.
type expansionState struct {
	blockAllocs *int64
	linked      []linkedBlock
}

type linkedBlock struct {
	parent *mBlock
	idx    byte
	block  *mBlock
}

func (st *expansionState) rollback() {
	for i := len(st.linked) - 1; i >= 0; i-- {
		lb := st.linked[i]
		if lb.parent.entries[lb.idx].next == lb.block {
			lb.parent.entries[lb.idx].next = nil
		}
		freeBlockRecursive(lb.block, st.blockAllocs)
	}
	st.linked = nil
}

// expand is Controlled Prefix Expansion: it writes payload into every
// m-trie entry covered by (addr, masklen) except the sub-ranges the 1-trie
// subtree rooted at subtreeRoot shows are already claimed by a more
// specific prefix. masklen 0 is a no-op: the zero route lives only in the
// 1-trie root. On RESOURCES, every m-trie block this call allocated is
// freed before the error is returned - all-or-nothing.
func (t *Table) expand(addr Addr, masklen int, subtreeRoot *bNode, payload any, present bool) error {
	if masklen == 0 {
		return nil
	}
	st := &expansionState{blockAllocs: &t.stats.MtrieBlockAllocs}
	if err := t.expandRec(st, addr, masklen-1, subtreeRoot, payload, present); err != nil {
		st.rollback()
		return err
	}
	return nil
}

// expandRec implements the recursive case of §4.4.3. bitpos is the bit
// position just written by the caller's own insertion; node is the 1-trie
// node at that exact bit-path.
func (t *Table) expandRec(st *expansionState, addr Addr, bitpos int, node *bNode, payload any, present bool) error {
	if isBoundary(bitpos) || (node.child[0] == nil && node.child[1] == nil) {
		return t.writeOneBlock(st, addr, bitpos, payload, present)
	}

	for b := uint8(0); b <= 1; b++ {
		child := node.child[b]

		childAddr := addr
		setBitTo(&childAddr, bitpos+1, b)

		switch {
		case child == nil:
			// no narrower prefix here: this half belongs to payload.
			if err := t.writeOneBlock(st, childAddr, bitpos+1, payload, present); err != nil {
				return err
			}
		case child.hasPayload:
			// a more specific prefix already owns this half, skip it.
		default:
			if err := t.expandRec(st, childAddr, bitpos+1, child, payload, present); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeOneBlock reaches the m-trie block that bitpos falls into, allocating
// any missing intermediate blocks along the way, then writes the pattern.
func (t *Table) writeOneBlock(st *expansionState, addr Addr, bitpos int, payload any, present bool) error {
	level := bitpos / 8
	block, err := reachBlock(st, t.mtrieRoot, addr, level)
	if err != nil {
		return err
	}
	patternWrite(block, int(addr[level]), bitpos, payload, present)
	return nil
}

// reachBlock walks level 0 through level, building a chain of blocks along
// the bytes of addr. Missing blocks are allocated; if any allocation fails,
// every block this call allocated (which, not yet being linked in, are
// reachable only from this function's local chain) is freed and it returns
// ErrResources - no next link for this call has been installed yet. Once
// the whole chain is in hand, blocks are linked bottom-up: until the
// top-most new link lands, new blocks stay invisible to readers. For a
// level that was not newly allocated, the existing next link must already
// equal the block reached through it, or that is a fatal internal
// inconsistency.
func reachBlock(st *expansionState, root *mBlock, addr Addr, level int) (*mBlock, error) {
	if level == 0 {
		return root, nil
	}

	blocks := make([]*mBlock, level+1)
	newlyAlloc := make([]bool, level+1)
	blocks[0] = root

	for l := 1; l <= level; l++ {
		parent := blocks[l-1]
		byteIdx := addr[l-1]
		if parent.entries[byteIdx].next != nil {
			blocks[l] = parent.entries[byteIdx].next
			continue
		}
		nb := allocBlock()
		if nb == nil {
			for i := l - 1; i >= 1; i-- {
				if newlyAlloc[i] {
					freeBlockRecursive(blocks[i], st.blockAllocs)
				}
			}
			return nil, ErrResources
		}
		*st.blockAllocs++
		blocks[l] = nb
		newlyAlloc[l] = true
	}

	for l := 1; l <= level; l++ {
		parent := blocks[l-1]
		byteIdx := addr[l-1]
		pe := &parent.entries[byteIdx]
		if newlyAlloc[l] {
			pe.next = blocks[l]
			st.linked = append(st.linked, linkedBlock{parent: parent, idx: byteIdx, block: blocks[l]})
		} else if pe.next != blocks[l] {
			internalPanic("m-trie next-link mismatch at level %d", l)
		}
	}

	return blocks[level], nil
}
