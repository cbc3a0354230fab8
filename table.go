// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

package lpmtrie

import (
	"reflect"

	"github.com/rs/zerolog"
)

// nameLen bounds Table names to NAME_LEN-1 significant bytes, §6.
const nameLen = 32

// Table is the LPM facade (C6): the authoritative 1-trie, the derived
// m-trie, the promoted default route and the live statistics.
//
// Scheduling model, §5: single writer, many readers, no internal locking.
// Add, Update, Del, UpdateDefault, DeleteDefault and Destroy must be
// serialized by the caller. Search and FindExact may run concurrently with
// each other and with an in-flight mutation - new m-trie blocks are linked
// bottom-up (expand.go) and pattern_write only ever swaps a payload value,
// so a racing reader observes either the pre- or post-mutation state, never
// a half-built one. Deletion does not give the same guarantee in general
// (unlinking a block while a reader is inside it); callers that delete
// concurrently with readers need their own RCU-style grace period.
type Table struct {
	name string

	btrieRoot *bNode
	mtrieRoot *mBlock

	hasDefault     bool
	defaultPayload any
	defaultAddr    Addr
	defaultMasklen int

	stats  Stats
	logger zerolog.Logger
	debug  debugCategories
}

// New creates a table, allocating its 1-trie root and level-0 m-trie
// block. Both must succeed or New fails and unwinds whatever it already
// allocated.
func New(name string) (*Table, error) {
	if len(name) >= nameLen {
		name = name[:nameLen-1]
	}

	t := &Table{name: name, logger: newLogger(name)}

	t.btrieRoot = newBNode()
	if t.btrieRoot == nil {
		return nil, ErrResources
	}
	t.stats.BtrieNodeAllocs++

	t.mtrieRoot = allocBlock()
	if t.mtrieRoot == nil {
		destroySubtree(t.btrieRoot, &t.stats.BtrieNodeAllocs, 0)
		return nil, ErrResources
	}
	t.stats.MtrieBlockAllocs++

	return t, nil
}

// Destroy frees the m-trie recursively, then the 1-trie recursively. The
// Table must not be used afterwards.
func (t *Table) Destroy() error {
	if t == nil {
		return ErrInvalid
	}
	freeBlockRecursive(t.mtrieRoot, &t.stats.MtrieBlockAllocs)
	destroySubtree(t.btrieRoot, &t.stats.BtrieNodeAllocs, 0)
	t.mtrieRoot = nil
	t.btrieRoot = nil
	return nil
}

// DebugSupport toggles a logging/diagnostics category, §6.
func (t *Table) DebugSupport(category DebugCategory, on bool) error {
	if t == nil {
		return ErrInvalid
	}
	t.debug.set(category, on)
	t.logger = t.logger.Level(levelForDebug(t.debug))
	return nil
}

// Add validates its arguments, then stores (addr, masklen) -> payload in
// the 1-trie and expands it into the m-trie. An identical (prefix, payload)
// pair already present yields ErrExists; the same prefix mapped to a
// different payload yields ErrConflict and leaves the table untouched. On
// ErrResources the table is rolled back to its pre-call state: the payload
// is cleared and any newly appended 1-trie chain is detached and freed.
func (t *Table) Add(addr Addr, masklen int, payload any) error {
	if t == nil || payload == nil || masklen < 0 || masklen > maxMaskLen {
		return ErrInvalid
	}

	node, anchorParent, anchorBit, anchorSet, status := t.btrieRoot.addPath(addr, masklen, &t.stats.BtrieNodeAllocs)
	if status == pathResources {
		if anchorSet {
			detachAndFreeChain(anchorParent, anchorBit, &t.stats.BtrieNodeAllocs)
		}
		return ErrResources
	}

	if node.hasPayload {
		if payloadEqual(node.payload, payload) {
			return ErrExists
		}
		return ErrConflict
	}

	node.payload = payload
	node.hasPayload = true
	t.stats.RouteCount++
	t.stats.DataPerMasklen[masklen]++

	if masklen == 0 {
		return nil
	}

	if err := t.expand(addr, masklen, node, payload, true); err != nil {
		node.payload = nil
		node.hasPayload = false
		t.stats.RouteCount--
		t.stats.DataPerMasklen[masklen]--
		if anchorSet {
			detachAndFreeChain(anchorParent, anchorBit, &t.stats.BtrieNodeAllocs)
		}
		return err
	}
	return nil
}

// Update overwrites the payload of an existing prefix and re-derives its
// m-trie footprint. It requires the prefix to already exist.
func (t *Table) Update(addr Addr, masklen int, payload any) error {
	if t == nil || payload == nil || masklen < 0 || masklen > maxMaskLen {
		return ErrInvalid
	}

	node := t.btrieRoot.findNode(addr, masklen)
	if node == nil || !node.hasPayload {
		return ErrNotFound
	}

	old := node.payload
	node.payload = payload
	if masklen == 0 {
		return nil
	}

	if err := t.expand(addr, masklen, node, payload, true); err != nil {
		// Pattern-writes on blocks that already exist cannot themselves
		// fail; expand's own rollback already undid every block it
		// allocated this call, so restoring the payload is sufficient.
		node.payload = old
		return err
	}
	return nil
}

// Del removes (addr, masklen), §4.5.
func (t *Table) Del(addr Addr, masklen int) error {
	if t == nil || masklen < 0 || masklen > maxMaskLen {
		return ErrInvalid
	}
	return t.del(addr, masklen)
}

// FindExact returns the 1-trie payload stored at exactly (addr, masklen),
// or nil, false if no such prefix is present.
func (t *Table) FindExact(addr Addr, masklen int) (payload any, ok bool) {
	if t == nil || masklen < 0 || masklen > maxMaskLen {
		return nil, false
	}
	node := t.btrieRoot.findNode(addr, masklen)
	if node == nil || !node.hasPayload {
		return nil, false
	}
	return node.payload, true
}

// Search is the datapath: it follows the m-trie bytes of addr, remembering
// the last non-absent entry payload seen, and stops as soon as an entry has
// no next block. If no payload was ever seen it falls back to the
// default, reporting usedDefault. Worst case touches levelMax blocks.
func (t *Table) Search(addr Addr) (payload any, usedDefault bool) {
	if t == nil {
		return nil, true
	}

	block := t.mtrieRoot
	var last any
	var seen bool

	for level := 0; level < levelMax; level++ {
		e := &block.entries[addr[level]]
		if e.hasPayload {
			last, seen = e.payload, true
		}
		if e.next == nil {
			break
		}
		block = e.next
	}

	if seen {
		return last, false
	}
	if t.hasDefault {
		return t.defaultPayload, true
	}
	return nil, true
}

// UpdateDefault promotes an existing prefix's payload to the default
// route. The default is a copy of that prefix's payload; changing the
// prefix later does not change the default.
func (t *Table) UpdateDefault(addr Addr, masklen int) error {
	if t == nil || masklen < 0 || masklen > maxMaskLen {
		return ErrInvalid
	}
	node := t.btrieRoot.findNode(addr, masklen)
	if node == nil || !node.hasPayload {
		return ErrNotFound
	}
	t.hasDefault = true
	t.defaultPayload = node.payload
	t.defaultMasklen = masklen
	t.defaultAddr = maskAddr(addr, masklen)
	return nil
}

// DeleteDefault clears the default slot. The 1-trie is untouched: if the
// default was promoted from a still-live prefix, that prefix is unaffected.
func (t *Table) DeleteDefault() error {
	if t == nil {
		return ErrInvalid
	}
	if !t.hasDefault {
		return ErrNotFound
	}
	t.hasDefault = false
	t.defaultPayload = nil
	return nil
}

// Walk invokes cb, pre-order, for every stored prefix (bit 0 before bit 1
// at each node), then for the default route if one is promoted. Returning
// false from cb aborts the walk; Walk then returns ErrExotic.
func (t *Table) Walk(cb WalkFunc) error {
	if t == nil {
		return ErrInvalid
	}

	var path Addr
	ok := dfsWalk(t.btrieRoot, &path, 0, func(a Addr, depth int, payload any) bool {
		return cb(a, depth, payload)
	})
	if !ok {
		return ErrExotic
	}

	if t.hasDefault && !cb(t.defaultAddr, t.defaultMasklen, t.defaultPayload) {
		return ErrExotic
	}
	return nil
}

// Statistics returns a snapshot of the live counters (§3 invariant 4, 6).
func (t *Table) Statistics() Stats {
	if t == nil {
		return Stats{}
	}
	return t.stats
}

// payloadEqual compares two opaque payloads the way Add needs to tell
// EXISTS from CONFLICT. Payloads are caller-owned and not required to be
// comparable with ==, so this falls back to reflect.DeepEqual.
func payloadEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
