// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

// Package lpmtrie implements a longest-prefix-match table for variable
// length bit-string keys of up to 128 bits, as used for IPv4/IPv6 route
// lookup.
//
// The index is a dual structure: an authoritative bit-trie (the "1-trie")
// holds every inserted (addr, masklen) prefix and its payload, while a
// stride-8 256-way trie (the "m-trie") is derived from it and does the
// actual lookup work. Writers mutate the 1-trie and re-derive the affected
// m-trie ranges; readers only ever touch the m-trie.
//
// Mutating methods (Add, Update, Del, UpdateDefault, DeleteDefault,
// Destroy) must be serialized by the caller, see the Table type's doc
// comment in table.go. Search and FindExact may run concurrently with each other and
// with any reader-safe in-flight mutation.
package lpmtrie
