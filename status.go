// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

package lpmtrie

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure status code of the facade's error model
// except INTERNAL, which is reported by internalPanic instead. Callers
// compare with errors.Is, e.g. errors.Is(err, ErrNotFound).
var (
	ErrResources = errors.New("lpmtrie: resource allocation failed")
	ErrInvalid   = errors.New("lpmtrie: invalid argument")
	ErrNotFound  = errors.New("lpmtrie: prefix not found")
	ErrExists    = errors.New("lpmtrie: prefix already present with that payload")
	ErrConflict  = errors.New("lpmtrie: prefix already present with a different payload")
	ErrExotic    = errors.New("lpmtrie: walk callback aborted")
)

// internalPanic reports a structural inconsistency that the spec treats as
// a fatal bug: assert and abort, recovery would hide corruption.
func internalPanic(format string, args ...any) {
	panic(fmt.Sprintf("lpmtrie: internal inconsistency: "+format, args...))
}
