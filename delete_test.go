// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

package lpmtrie

import "testing"

// Same-block LSR: target and its less-specific ancestor fall in the same
// m-trie block, so deleting the target must repaint via expand from the LSR.
func TestDeleteSameBlockLSR(t *testing.T) {
	tbl := newTestTable(t)
	must(t, tbl.Add(ipv4(10, 0, 0, 0), 6, "coarse"))
	must(t, tbl.Add(ipv4(10, 0, 0, 0), 8, "fine"))

	must(t, tbl.Del(ipv4(10, 0, 0, 0), 8))

	if v, used := tbl.Search(ipv4(10, 255, 255, 255)); v != "coarse" || used {
		t.Fatalf("search after same-block LSR delete = %v, usedDefault=%v; want coarse, false", v, used)
	}
}

// Shallower-block LSR: the ancestor prefix lives in an earlier m-trie block
// than the deleted one; deleting must erase the deeper block's footprint
// without touching the shallower block at all.
func TestDeleteShallowerBlockLSR(t *testing.T) {
	tbl := newTestTable(t)
	must(t, tbl.Add(ipv4(10, 0, 0, 0), 8, "coarse"))
	must(t, tbl.Add(ipv4(10, 20, 30, 0), 24, "fine"))

	must(t, tbl.Del(ipv4(10, 20, 30, 0), 24))

	if v, used := tbl.Search(ipv4(10, 20, 30, 1)); v != "coarse" || used {
		t.Fatalf("search after shallower-block LSR delete = %v, usedDefault=%v; want coarse, false", v, used)
	}
	if v, used := tbl.Search(ipv4(10, 1, 1, 1)); v != "coarse" || used {
		t.Fatalf("unrelated address under the same coarse prefix = %v, usedDefault=%v; want coarse, false", v, used)
	}
}

// No LSR but live descendants: deleting a mid-length prefix that still has
// more specific children must erase only its own footprint.
func TestDeleteNoLSRWithDescendants(t *testing.T) {
	tbl := newTestTable(t)
	must(t, tbl.Add(ipv4(10, 0, 0, 0), 8, "mid"))
	must(t, tbl.Add(ipv4(10, 20, 0, 0), 16, "child"))

	must(t, tbl.Del(ipv4(10, 0, 0, 0), 8))

	if v, used := tbl.Search(ipv4(10, 20, 5, 5)); v != "child" || used {
		t.Fatalf("search under surviving child = %v, usedDefault=%v; want child, false", v, used)
	}
	if v, used := tbl.Search(ipv4(10, 1, 0, 0)); v != nil || !used {
		t.Fatalf("search outside the surviving child = %v, usedDefault=%v; want nil, true", v, used)
	}
	if _, ok := tbl.FindExact(ipv4(10, 0, 0, 0), 8); ok {
		t.Fatal("deleted prefix must no longer be found exactly")
	}
}

// Deleting a prefix that shares its 1-trie chain with no one else, and has
// neither ancestor nor descendant payloads, prunes all the way back to the
// nearest branching node and frees every m-trie block it owned.
func TestDeleteLoneDeepPrefixPrunesFully(t *testing.T) {
	tbl := newTestTable(t)
	must(t, tbl.Add(ipv4(10, 20, 30, 0), 24, "lone"))

	before := tbl.Statistics()
	if before.MtrieBlockAllocs <= 1 {
		t.Fatalf("expected several blocks allocated, got %d", before.MtrieBlockAllocs)
	}

	must(t, tbl.Del(ipv4(10, 20, 30, 0), 24))

	after := tbl.Statistics()
	if after.MtrieBlockAllocs != 1 {
		t.Fatalf("MtrieBlockAllocs after full prune = %d, want 1", after.MtrieBlockAllocs)
	}
	if after.BtrieNodeAllocs != 1 {
		t.Fatalf("BtrieNodeAllocs after full prune = %d, want 1 (root only)", after.BtrieNodeAllocs)
	}
}

// The zero route must never act as an LSR: deleting a top-level prefix
// while a /0 is also stored must fall all the way back to the default
// (if promoted) rather than have the m-trie incorrectly repainted with the
// zero route's payload, which never has any m-trie footprint of its own.
func TestDeleteNeverUsesZeroRouteAsLSR(t *testing.T) {
	tbl := newTestTable(t)
	must(t, tbl.Add(ipv4(0, 0, 0, 0), 0, "Z"))
	must(t, tbl.UpdateDefault(ipv4(0, 0, 0, 0), 0))
	must(t, tbl.Add(ipv4(10, 0, 0, 0), 8, "X"))

	must(t, tbl.Del(ipv4(10, 0, 0, 0), 8))

	if v, used := tbl.Search(ipv4(10, 1, 2, 3)); v != "Z" || !used {
		t.Fatalf("search after deleting the only non-default prefix = %v, usedDefault=%v; want Z, true", v, used)
	}
	if v, ok := tbl.FindExact(ipv4(0, 0, 0, 0), 0); !ok || v != "Z" {
		t.Fatalf("the zero route itself must be untouched: %v, %v", v, ok)
	}
}

func TestZeroOutFastPath(t *testing.T) {
	tbl := newTestTable(t)
	must(t, tbl.Add(ipv4(192, 168, 1, 0), 24, "solo"))

	must(t, tbl.Del(ipv4(192, 168, 1, 0), 24))

	if v, used := tbl.Search(ipv4(192, 168, 1, 1)); v != nil || !used {
		t.Fatalf("search after zero_out = %v, usedDefault=%v; want nil, true", v, used)
	}
}
