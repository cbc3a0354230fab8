// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

package lpmtrie

import (
	"errors"
	"testing"

	"github.com/ipgraft/lpmtrie/internal/faultinj"
)

// A RESOURCES failure partway through the 1-trie chain append must leave the
// table exactly as it was before the call - invariant 5.
func TestAddRollsBackOnBtrieAllocationFailure(t *testing.T) {
	tbl := newTestTable(t)
	must(t, tbl.Add(ipv4(10, 0, 0, 0), 8, "existing"))
	before := tbl.Statistics()

	faultinj.FailAfter(2)
	err := tbl.Add(ipv4(172, 16, 5, 0), 24, "new")
	faultinj.Disable()

	if !errors.Is(err, ErrResources) {
		t.Fatalf("err = %v, want ErrResources", err)
	}
	if got := tbl.Statistics(); got != before {
		t.Fatalf("stats after rollback = %+v, want unchanged %+v", got, before)
	}
	if _, ok := tbl.FindExact(ipv4(172, 16, 5, 0), 24); ok {
		t.Fatal("partially-inserted prefix must not be findable after rollback")
	}
	if v, used := tbl.Search(ipv4(172, 16, 5, 1)); v != nil || !used {
		t.Fatalf("search of rolled-back prefix = %v, usedDefault=%v; want nil, true", v, used)
	}
}

// A RESOURCES failure partway through expand's m-trie block allocation must
// undo every block that expand call linked in, not just the one write that
// failed, and must also undo the 1-trie insertion that triggered it.
func TestAddRollsBackOnMtrieAllocationFailure(t *testing.T) {
	tbl := newTestTable(t)
	before := tbl.Statistics()

	// A fresh /24 insert needs exactly 24 new bNode allocations to build its
	// 1-trie chain, then (24 is a stride boundary) reachBlock needs two new
	// m-trie blocks (level 1 and level 2) to write the pattern. Letting the
	// first 24 ticks succeed exhausts the budget exactly when the first
	// m-trie block is allocated, so the 1-trie insertion has already fully
	// committed by the time RESOURCES hits.
	faultinj.FailAfter(24)
	err := tbl.Add(ipv4(203, 0, 113, 0), 24, "v")
	faultinj.Disable()

	if err == nil {
		t.Skip("fault budget was never exhausted by this insert; nothing to assert")
	}
	if !errors.Is(err, ErrResources) {
		t.Fatalf("err = %v, want ErrResources", err)
	}
	if got := tbl.Statistics(); got != before {
		t.Fatalf("stats after rollback = %+v, want unchanged %+v", got, before)
	}
	if _, ok := tbl.FindExact(ipv4(203, 0, 113, 0), 24); ok {
		t.Fatal("partially-expanded prefix must not be findable after rollback")
	}
}

// Updating a prefix re-expands using only blocks that its own original
// insert already built - a byte-aligned masklen hits the boundary case on
// the very first expandRec call, which never allocates. Update must
// therefore succeed even with the simulated allocator fully exhausted.
func TestUpdateNeverAllocatesOnAnAlreadyExpandedPrefix(t *testing.T) {
	tbl := newTestTable(t)
	must(t, tbl.Add(ipv4(10, 1, 0, 0), 16, "old"))
	before := tbl.Statistics()

	faultinj.FailAfter(0)
	err := tbl.Update(ipv4(10, 1, 0, 0), 16, "new")
	faultinj.Disable()

	if err != nil {
		t.Fatalf("update of an already-expanded prefix should never need to allocate, got err = %v", err)
	}
	if v, ok := tbl.FindExact(ipv4(10, 1, 0, 0), 16); !ok || v != "new" {
		t.Fatalf("payload after update = %v, %v; want new, true", v, ok)
	}
	if got := tbl.Statistics(); got != before {
		t.Fatalf("stats should be unaffected by a payload-only update: got %+v, want %+v", got, before)
	}
	if v, used := tbl.Search(ipv4(10, 5, 5, 5)); v != "new" || used {
		t.Fatalf("search after update = %v, usedDefault=%v; want new, false", v, used)
	}
}
