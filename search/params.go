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

package search

import (
	"github.com/practical-formal-methods/jumptab/failure"
)

// Params shape how a bit sequence is cut into destination windows.
//
// The sequence is split into groups of GroupBits, oldest group at the low
// end. Each group yields GroupBits-WindowBits+1 overlapping windows of
// WindowBits, one per bit position. Window j of group g is the destination of
// dense bucket g*(GroupBits-WindowBits+1)+j.
type Params struct {
	GroupBits  int
	WindowBits int
	// Cap is the hard length limit; longer sequences are always rejected.
	Cap int
	// Target is the length at which a valid sequence is a solution.
	Target int
	// MinDest is the lowest destination value; smaller ones are reserved.
	MinDest int
	// DestShift converts a destination value into a code offset.
	DestShift uint
}

// DefaultParams returns the parameters of the 32 bucket METH dispatcher.
func DefaultParams() Params {
	return Params{
		GroupBits:  12,
		WindowBits: 5,
		Cap:        48,
		Target:     48,
		MinDest:    3,
		DestShift:  4,
	}
}

func (p Params) Validate() error {
	switch {
	case p.WindowBits < 1 || p.WindowBits > 16:
		return failure.Configuration(failure.InvalidParameters, "window-bits", "%d", p.WindowBits)
	case p.GroupBits < p.WindowBits:
		return failure.Configuration(failure.InvalidParameters, "group-bits", "%d < window %d", p.GroupBits, p.WindowBits)
	case p.Cap < 1 || p.Cap > MaxBits:
		return failure.Configuration(failure.InvalidParameters, "cap", "%d", p.Cap)
	case p.Target < p.WindowBits || p.Target > MaxBits:
		return failure.Configuration(failure.InvalidParameters, "target", "%d", p.Target)
	case p.MinDest < 0 || p.MinDest >= 1<<p.WindowBits:
		return failure.Configuration(failure.InvalidParameters, "min-dest", "%d", p.MinDest)
	}
	return nil
}

func (p Params) windowsPerGroup() int {
	return p.GroupBits - p.WindowBits + 1
}

// Windows returns the number of complete windows in a sequence of size bits.
func (p Params) Windows(size int) int {
	full := size / p.GroupBits * p.windowsPerGroup()
	if rest := size%p.GroupBits - p.WindowBits + 1; rest > 0 {
		full += rest
	}
	return full
}

// eachWindow calls fn with every (bucket index, destination value) pair of
// seq, newest group first and within a group the highest window first. It
// stops early when fn returns false.
func (p Params) eachWindow(seq BitSeq, fn func(index, value int) bool) {
	groups := (seq.Size + p.GroupBits - p.WindowBits) / p.GroupBits
	for g := groups - 1; g >= 0; g-- {
		base := g * p.GroupBits
		avail := seq.Size - base
		if avail > p.GroupBits {
			avail = p.GroupBits
		}
		for j := avail - p.WindowBits; j >= 0; j-- {
			if !fn(g*p.windowsPerGroup()+j, seq.window(base+j, p.WindowBits)) {
				return
			}
		}
	}
}
