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
	"github.com/practical-formal-methods/jumptab/dispatch"
)

var LengthCapFail = "length-cap"
var ReservedDestinationFail = "reserved-destination"
var DestinationCollisionFail = "destination-collision"
var NoMatchAliasFail = "no-match-alias"
var BeyondTableFail = "window-beyond-table"

type result struct {
	valid        bool
	failureCause string
	index        int
	value        int
}

func accept() result {
	return result{valid: true}
}

func reject(cause string, index, value int) result {
	return result{
		failureCause: cause,
		index:        index,
		value:        value,
	}
}

// validator checks a sequence against the no-match aliasing rule: two
// buckets may share a destination only if neither routes to a function.
type validator struct {
	params  Params
	noMatch []bool
	// scratch, indexed by destination value
	taken   []bool
	aliased []bool
}

func newValidator(buckets dispatch.Buckets, params Params) *validator {
	v := &validator{
		params:  params,
		noMatch: make([]bool, len(buckets)),
		taken:   make([]bool, 1<<params.WindowBits),
		aliased: make([]bool, 1<<params.WindowBits),
	}
	for _, b := range buckets {
		v.noMatch[b.Index] = b.NoMatch()
	}
	return v
}

func (v *validator) check(seq BitSeq) result {
	if seq.Size > v.params.Cap {
		return reject(LengthCapFail, -1, seq.Size)
	}
	clear(v.taken)
	clear(v.aliased)

	res := accept()
	v.params.eachWindow(seq, func(index, value int) bool {
		switch {
		case index >= len(v.noMatch):
			res = reject(BeyondTableFail, index, value)
		case value < v.params.MinDest:
			res = reject(ReservedDestinationFail, index, value)
		case v.taken[value]:
			res = reject(DestinationCollisionFail, index, value)
		case v.noMatch[index]:
			v.aliased[value] = true
		case v.aliased[value]:
			res = reject(NoMatchAliasFail, index, value)
		default:
			v.taken[value] = true
		}
		return res.valid
	})
	return res
}
