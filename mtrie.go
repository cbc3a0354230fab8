// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

package lpmtrie

import "github.com/ipgraft/lpmtrie/internal/faultinj"

// mEntry is one slot of an m-trie block: the currently effective payload
// for this byte value, plus an optional pointer into the next stride.
type mEntry struct {
	payload    any
	hasPayload bool
	next       *mBlock
}

// mBlock is a stride-8 level of the m-trie: a fixed 256-entry array, as
// mandated by the spec's "256 x sizeof(entry) contiguous memory" block
// shape - deliberately not popcount-compressed.
type mBlock struct {
	entries [256]mEntry
}

// allocBlock allocates a zeroed block, or nil on simulated exhaustion.
func allocBlock() *mBlock {
	if faultinj.Tick() {
		return nil
	}
	return &mBlock{}
}

// freeBlockRecursive frees the whole sub-DAG rooted at b, post-order.
func freeBlockRecursive(b *mBlock, blockAllocs *int64) {
	if b == nil {
		return
	}
	for i := range b.entries {
		if b.entries[i].next != nil {
			freeBlockRecursive(b.entries[i].next, blockAllocs)
			b.entries[i].next = nil
		}
	}
	*blockAllocs--
}

// patternLowMaskTbl[mod] gives, for a write starting at bit position bitpos
// with mod = (bitpos+1) % 8, the low-bits mask of the range of entries one
// pattern_write touches inside a single block. mod 0 is the boundary case:
// the mask is 0 and the write covers exactly one entry. This replaces the
// runtime mask arithmetic with a lookup table, the same idiom the teacher's
// internal/allot package used for its own precomputed range table.
var patternLowMaskTbl = [8]byte{
	0x00, // mod 0 (boundary): exactly block[idx]
	0x7F, // mod 1
	0x3F, // mod 2
	0x1F, // mod 3
	0x0F, // mod 4
	0x07, // mod 5
	0x03, // mod 6
	0x01, // mod 7
}

// patternWrite overwrites every entry in the range one controlled-prefix-
// expansion write touches with payload (which may itself be absent, to
// erase). idx is the byte value reached at this block; bitpos is the
// absolute bit position of the prefix being written, used only to derive
// the range width within this block.
func patternWrite(block *mBlock, idx int, bitpos int, payload any, present bool) {
	mod := (bitpos + 1) % 8
	lowMask := int(patternLowMaskTbl[mod])
	lo := idx &^ lowMask
	hi := idx | lowMask
	for i := lo; i <= hi; i++ {
		block.entries[i].payload = payload
		block.entries[i].hasPayload = present
	}
}
