// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

package lpmtrie

import (
	"encoding/hex"
	"fmt"
	"io"
)

// Fprint writes a box-drawn tree of the 1-trie to w, for debugging - the
// same role the teacher's dumper.go plays for its ART node tree, adapted
// here to walk bNode's binary children instead of a 256-way sparse array.
func (t *Table) Fprint(w io.Writer) {
	if t == nil {
		return
	}
	fmt.Fprintln(w, "▼")
	var path Addr
	dumpRec(w, t.btrieRoot, path, 0, "")
	if t.hasDefault {
		fmt.Fprintf(w, "default: %v (promoted from /%d)\n", t.defaultPayload, t.defaultMasklen)
	}
}

func dumpRec(w io.Writer, n *bNode, path Addr, depth int, prefix string) {
	type kid struct {
		node *bNode
		path Addr
	}
	var kids []kid
	if n.child[0] != nil {
		kids = append(kids, kid{n.child[0], path})
	}
	if n.child[1] != nil {
		p := path
		setBit(&p, depth)
		kids = append(kids, kid{n.child[1], p})
	}

	for i, k := range kids {
		last := i == len(kids)-1
		branch, nextPrefix := "├─ ", prefix+"│  "
		if last {
			branch, nextPrefix = "└─ ", prefix+"   "
		}

		if k.node.hasPayload {
			fmt.Fprintf(w, "%s%s%s (%v)\n", prefix, branch, formatPrefix(k.path, depth+1), k.node.payload)
		} else {
			fmt.Fprintf(w, "%s%s%s\n", prefix, branch, formatPrefix(k.path, depth+1))
		}
		dumpRec(w, k.node, k.path, depth+1, nextPrefix)
	}
}

func formatPrefix(addr Addr, masklen int) string {
	return fmt.Sprintf("%s/%d", hex.EncodeToString(addr[:]), masklen)
}
