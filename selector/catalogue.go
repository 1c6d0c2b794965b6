// Copyright 2019 MPI-SWS, Valentin Wuestholz, and ConsenSys AG

// This file is part of Jumptab.
//
// Jumptab is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Jumptab is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Jumptab.  If not, see <https://www.gnu.org/licenses/>.

// Package selector derives 4-byte function selectors and table footprints
// from a list of function signatures.
package selector

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/crypto/sha3"

	"github.com/practical-formal-methods/jumptab/failure"
)

// FallbackName names the synthetic entry that receives unmatched calls.
const FallbackName = "fallback"

// Selector is the big-endian value of the first four bytes of the keccak256
// hash of a canonical signature.
type Selector uint32

// Compute derives the selector of a canonical signature string.
func Compute(canonical string) Selector {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(canonical))
	return Selector(binary.BigEndian.Uint32(h.Sum(nil)[:4]))
}

func (s Selector) Bytes() [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(s))
	return b
}

func (s Selector) String() string {
	return fmt.Sprintf("0x%08x", uint32(s))
}

// FunctionEntry is one routable function. Footprint is the number of
// contiguous table slots its code occupies.
type FunctionEntry struct {
	Name      string
	Signature string
	Selector  Selector
	Footprint int
	Fallback  bool
}

// Footprints overrides the default single slot footprint by function name.
type Footprints map[string]int

// Catalogue is the immutable, selector-ordered set of entries.
type Catalogue struct {
	entries []FunctionEntry
	byName  map[string]int
}

// New parses signatures, derives their selectors and appends the fallback
// entry with selector zero. It fails on malformed signatures, duplicate names,
// duplicate selectors and non-positive footprints.
func New(signatures []string, footprints Footprints) (*Catalogue, error) {
	sigs := make([]Signature, 0, len(signatures))
	for _, raw := range signatures {
		sig, err := ParseSignature(raw)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return FromSignatures(sigs, footprints)
}

// FromSignatures builds a catalogue from already parsed signatures.
func FromSignatures(sigs []Signature, footprints Footprints) (*Catalogue, error) {
	entries := make([]FunctionEntry, 0, len(sigs))
	for _, sig := range sigs {
		canonical := sig.Canonical()
		sel := Compute(canonical)
		log.Debug("Derived selector", "signature", canonical, "selector", sel)
		entry := FunctionEntry{Name: sig.Name, Signature: canonical, Selector: sel}
		if size, ok := footprints[sig.Name]; ok {
			if size < 1 {
				return nil, failure.Configuration(failure.InvalidFootprint, sig.Name, "%d", size)
			}
			entry.Footprint = size
		}
		entries = append(entries, entry)
	}
	if size, ok := footprints[FallbackName]; ok {
		if size < 1 {
			return nil, failure.Configuration(failure.InvalidFootprint, FallbackName, "%d", size)
		}
		entries = append(entries, FunctionEntry{Name: FallbackName, Signature: FallbackName + "()", Fallback: true, Footprint: size})
	}
	c, err := FromEntries(entries)
	if err != nil {
		return nil, err
	}
	for name := range footprints {
		if _, ok := c.byName[name]; !ok {
			log.Debug("Ignoring footprint of unknown function", "name", name)
		}
	}
	return c, nil
}

// FromEntries builds a catalogue from entries whose selectors are already
// known. A zero footprint means one slot. The fallback entry is appended
// unless one of the entries is marked as fallback.
func FromEntries(entries []FunctionEntry) (*Catalogue, error) {
	c := &Catalogue{
		entries: make([]FunctionEntry, 0, len(entries)+1),
		byName:  make(map[string]int, len(entries)+1),
	}
	seen := map[string]string{}
	hasFallback := false
	for _, entry := range entries {
		if prev, exists := seen[entry.Name]; exists {
			return nil, failure.Configuration(failure.DuplicateName, entry.Name, "%v and %v", prev, entry.Signature)
		}
		seen[entry.Name] = entry.Signature
		if entry.Footprint == 0 {
			entry.Footprint = 1
		}
		if entry.Footprint < 0 {
			return nil, failure.Configuration(failure.InvalidFootprint, entry.Name, "%d", entry.Footprint)
		}
		if entry.Fallback {
			if hasFallback {
				return nil, failure.Configuration(failure.DuplicateName, entry.Name, "second fallback entry")
			}
			hasFallback = true
			entry.Selector = 0
		}
		c.entries = append(c.entries, entry)
	}
	if !hasFallback {
		if prev, exists := seen[FallbackName]; exists {
			return nil, failure.Configuration(failure.DuplicateName, FallbackName, "%v and %v()", prev, FallbackName)
		}
		c.entries = append(c.entries, FunctionEntry{
			Name:      FallbackName,
			Signature: FallbackName + "()",
			Footprint: 1,
			Fallback:  true,
		})
	}

	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].Selector < c.entries[j].Selector
	})
	for i := 1; i < len(c.entries); i++ {
		prev, curr := c.entries[i-1], c.entries[i]
		if prev.Selector == curr.Selector {
			return nil, failure.Configuration(failure.DuplicateSelector, curr.Selector.String(), "%v and %v", prev.Signature, curr.Signature)
		}
	}
	for i, entry := range c.entries {
		c.byName[entry.Name] = i
	}
	return c, nil
}

// Entries returns the entries sorted by ascending selector. The fallback
// entry, with selector zero, is always first.
func (c *Catalogue) Entries() []FunctionEntry {
	out := make([]FunctionEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalogue) Len() int {
	return len(c.entries)
}

// Lookup returns the entry with the given function name.
func (c *Catalogue) Lookup(name string) (FunctionEntry, bool) {
	i, ok := c.byName[name]
	if !ok {
		return FunctionEntry{}, false
	}
	return c.entries[i], true
}
