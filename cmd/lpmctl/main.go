// Copyright (c) 2025 lpmtrie contributors
// SPDX-License-Identifier: MIT

// Command lpmctl is a thin demonstration driver over the lpmtrie facade.
// It is not part of the table's design - spec.md scopes the human CLI out
// as an external collaborator - it only exists to exercise Add/Search/Fprint
// from the command line.
package main

import (
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/ipgraft/lpmtrie"
)

func main() {
	var (
		name   = pflag.String("name", "lpmctl", "table name")
		add    = pflag.StringArray("add", nil, "prefix=value to insert, e.g. 10.0.0.0/8=upstream-a")
		search = pflag.StringArray("search", nil, "address to look up, e.g. 10.1.2.3")
		debug  = pflag.Bool("debug", false, "enable verbose table logging")
		dump   = pflag.Bool("dump", false, "print the 1-trie after processing")
	)
	pflag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	t, err := lpmtrie.New(*name)
	if err != nil {
		log.Fatal().Err(err).Msg("create table")
	}
	if *debug {
		_ = t.DebugSupport(lpmtrie.DebugAll, true)
		_ = t.DebugSupport(lpmtrie.DebugLogging, true)
	}

	for _, spec := range *add {
		prefixStr, value, ok := splitPair(spec)
		if !ok {
			log.Warn().Str("spec", spec).Msg("skipping malformed --add, want prefix=value")
			continue
		}
		pfx, err := netip.ParsePrefix(prefixStr)
		if err != nil {
			log.Warn().Err(err).Str("prefix", prefixStr).Msg("bad prefix")
			continue
		}
		if err := t.Add(addrFromNetip(pfx.Addr()), pfx.Bits(), value); err != nil {
			log.Warn().Err(err).Str("prefix", prefixStr).Msg("add failed")
		}
	}

	for _, s := range *search {
		a, err := netip.ParseAddr(s)
		if err != nil {
			log.Warn().Err(err).Str("addr", s).Msg("bad address")
			continue
		}
		value, usedDefault := t.Search(addrFromNetip(a))
		fmt.Printf("%-40s value=%v usedDefault=%v\n", s, value, usedDefault)
	}

	if *dump {
		t.Fprint(os.Stdout)
	}
}

// addrFromNetip places an IPv4 address at the front of the 128-bit key
// space (zero-extended, §8 scenario convention) rather than at the
// IPv4-in-IPv6-mapped offset; IPv6 addresses are used as-is.
func addrFromNetip(a netip.Addr) lpmtrie.Addr {
	var out lpmtrie.Addr
	if a.Is4() {
		b4 := a.As4()
		copy(out[:4], b4[:])
		return out
	}
	return lpmtrie.Addr(a.As16())
}

func splitPair(s string) (prefix, value string, ok bool) {
	i := strings.LastIndexByte(s, '=')
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}
