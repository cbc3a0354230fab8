// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

package lpmtrie

import (
	"os"

	"github.com/rs/zerolog"
)

// DebugCategory is the set of logging categories the facade exposes,
// mirroring the spec's debug_support(table, category, on) knob.
type DebugCategory int

const (
	DebugNormal DebugCategory = iota
	DebugMemory
	DebugAlgorithm
	DebugAll
	DebugLogging
)

type debugCategories uint8

const (
	debugNormal debugCategories = 1 << iota
	debugMemory
	debugAlgorithm
	debugLogging
)

func (d *debugCategories) set(c DebugCategory, on bool) {
	var bit debugCategories
	switch c {
	case DebugNormal:
		bit = debugNormal
	case DebugMemory:
		bit = debugMemory
	case DebugAlgorithm:
		bit = debugAlgorithm
	case DebugAll:
		bit = debugNormal | debugMemory | debugAlgorithm
	case DebugLogging:
		bit = debugLogging
	default:
		internalPanic("unknown debug category %d", c)
	}
	if on {
		*d |= bit
	} else {
		*d &^= bit
	}
}

// newLogger builds a child logger scoped to one table instance, silent by
// default - LOGGING must be turned on via DebugSupport before anything at
// all is emitted.
func newLogger(name string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
		With().Timestamp().Str("table", name).Logger().
		Level(zerolog.Disabled)
}

func levelForDebug(d debugCategories) zerolog.Level {
	if d&debugLogging == 0 {
		return zerolog.Disabled
	}
	if d&(debugAlgorithm|debugMemory) != 0 {
		return zerolog.TraceLevel
	}
	return zerolog.DebugLevel
}
