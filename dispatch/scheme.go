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

// Package dispatch evaluates mask/shift index-extraction schemes against a
// selector catalogue.
package dispatch

import (
	"fmt"
	"math/bits"

	"github.com/practical-formal-methods/jumptab/failure"
	"github.com/practical-formal-methods/jumptab/selector"
)

// MaxIndexBits bounds the number of mask bits, and so the table capacity.
const MaxIndexBits = 16

// Scheme extracts a raw bucket from a selector as (selector & Mask) >> Shift.
type Scheme struct {
	Mask  uint32
	Shift uint
}

// TopByte routes on the first selector byte.
var TopByte = Scheme{Mask: 0xff000000, Shift: 24}

func (s Scheme) String() string {
	return fmt.Sprintf("(sel & %#08x) >> %d", s.Mask, s.Shift)
}

// Validate checks that no mask bit is shifted out and that the capacity is
// bounded.
func (s Scheme) Validate() error {
	if s.Mask == 0 {
		return failure.Configuration(failure.InvalidScheme, s.String(), "empty mask")
	}
	if s.Shift >= 32 {
		return failure.Configuration(failure.InvalidScheme, s.String(), "shift %d", s.Shift)
	}
	if s.Mask&(1<<s.Shift-1) != 0 {
		return failure.Configuration(failure.InvalidScheme, s.String(), "mask bits below shift")
	}
	if n := bits.OnesCount32(s.Mask); n > MaxIndexBits {
		return failure.Configuration(failure.InvalidScheme, s.String(), "%d mask bits", n)
	}
	return nil
}

// Raw applies the scheme to a selector.
func (s Scheme) Raw(sel selector.Selector) uint32 {
	return (uint32(sel) & s.Mask) >> s.Shift
}

// Capacity is the number of distinct raw buckets, 2^popcount(Mask).
func (s Scheme) Capacity() int {
	return 1 << bits.OnesCount32(s.Mask)
}

// Dense returns the rank of a raw bucket among all raw buckets in ascending
// order. This packs the mask bits together.
func (s Scheme) Dense(raw uint32) int {
	m := s.Mask >> s.Shift
	out, bit := 0, 0
	for m != 0 {
		low := m & -m
		if raw&low != 0 {
			out |= 1 << bit
		}
		bit++
		m &^= low
	}
	return out
}

// RawOf is the inverse of Dense.
func (s Scheme) RawOf(dense int) uint32 {
	m := s.Mask >> s.Shift
	var out uint32
	for bit := 0; m != 0; bit++ {
		low := m & -m
		if dense&(1<<bit) != 0 {
			out |= low
		}
		m &^= low
	}
	return out
}

// Index maps a selector straight to its dense bucket index.
func (s Scheme) Index(sel selector.Selector) int {
	return s.Dense(s.Raw(sel))
}
