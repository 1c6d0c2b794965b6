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

package dispatch

import (
	"context"
	"math/bits"

	"github.com/ethereum/go-ethereum/log"

	"github.com/practical-formal-methods/jumptab/failure"
	"github.com/practical-formal-methods/jumptab/selector"
)

// Rejection causes tallied by FindSchemes.
const (
	overlapCause  = "overlap"
	terminalCause = "terminal"
)

// SchemeSearch bounds FindSchemes.
type SchemeSearch struct {
	// Bits is the mask popcount; the table has 2^Bits slots.
	Bits int
	// Limit stops the search after this many schemes, 0 for no limit.
	Limit int
}

// SchemeResult lists the accepted schemes in enumeration order.
type SchemeResult struct {
	Schemes  []Scheme
	Tried    int
	Rejected map[string]int
}

// FindSchemes enumerates every mask with opts.Bits set bits in ascending
// numeric order, shifted down to its lowest bit, and keeps the schemes under
// which the catalogue fits the table: each entry owns its footprint of slots
// starting at its dense index, regions never overlap or run past the table,
// and the last slot stays free for the no-match path.
func FindSchemes(ctx context.Context, cat *selector.Catalogue, opts SchemeSearch) (*SchemeResult, error) {
	if opts.Bits < 1 || opts.Bits > MaxIndexBits {
		return nil, failure.Configuration(failure.InvalidParameters, "bits", "%d not in 1..%d", opts.Bits, MaxIndexBits)
	}
	res := &SchemeResult{Rejected: map[string]int{}}
	entries := cat.Entries()
	owned := make([]bool, 1<<opts.Bits)
	for m := uint64(1)<<opts.Bits - 1; m < 1<<32; m = nextMask(m) {
		if res.Tried%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		res.Tried++
		s := Scheme{Mask: uint32(m), Shift: uint(bits.TrailingZeros64(m))}
		if cause := place(entries, s, owned); cause != "" {
			res.Rejected[cause]++
			continue
		}
		res.Schemes = append(res.Schemes, s)
		log.Debug("Found scheme", "scheme", s, "tried", res.Tried)
		if opts.Limit > 0 && len(res.Schemes) >= opts.Limit {
			break
		}
	}
	return res, nil
}

// Fits reports why the catalogue does not fit the table of s, or nil.
func Fits(cat *selector.Catalogue, s Scheme) error {
	if err := s.Validate(); err != nil {
		return err
	}
	switch place(cat.Entries(), s, make([]bool, s.Capacity())) {
	case overlapCause:
		return failure.Configuration(failure.OverlappingFootprint, s.String(), "footprints overlap")
	case terminalCause:
		return failure.Configuration(failure.SlotOutOfRange, s.String(), "slot %#x is reserved", s.Capacity()-1)
	}
	return nil
}

// place marks the slots of every entry in owned, which is cleared first, and
// returns the first rejection cause. A region running past the table always
// crosses the last slot first.
func place(entries []selector.FunctionEntry, s Scheme, owned []bool) string {
	clear(owned)
	terminal := len(owned) - 1
	for _, e := range entries {
		start := s.Index(e.Selector)
		for d := 0; d < e.Footprint; d++ {
			slot := start + d
			if slot == terminal {
				return terminalCause
			}
			if owned[slot] {
				return overlapCause
			}
			owned[slot] = true
		}
	}
	return ""
}

// nextMask returns the next larger integer with the same popcount.
func nextMask(m uint64) uint64 {
	low := m & -m
	ripple := m + low
	return (((ripple ^ m) >> 2) / low) | ripple
}
