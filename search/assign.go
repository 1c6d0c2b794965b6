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
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/practical-formal-methods/jumptab/dispatch"
	"github.com/practical-formal-methods/jumptab/selector"
)

// DestinationKind says what the code at a destination has to do.
type DestinationKind int

const (
	NoMatchDestination DestinationKind = iota
	FallbackDestination
	FunctionDestination
)

func (k DestinationKind) String() string {
	switch k {
	case NoMatchDestination:
		return "NO_MATCH"
	case FallbackDestination:
		return "RECEIVE_CHECK"
	case FunctionDestination:
		return "FUNC_CHECK"
	}
	return fmt.Sprintf("DestinationKind(%d)", int(k))
}

// Destination is one distinct destination and every bucket routed to it.
type Destination struct {
	Value   int
	Offset  uint64
	Kind    DestinationKind
	Buckets []dispatch.Bucket
}

// Function returns the function checked at this destination.
func (d Destination) Function() (selector.FunctionEntry, bool) {
	for _, b := range d.Buckets {
		if fn, ok := b.Function(); ok {
			return fn, true
		}
	}
	return selector.FunctionEntry{}, false
}

// Assignment is the dispatch table encoded by a solved sequence.
type Assignment struct {
	Seq BitSeq
	// Values holds the destination value of each dense bucket index.
	Values       []int
	Destinations []Destination
}

// Constant is the packed value the dispatcher shifts and masks.
func (a *Assignment) Constant() *uint256.Int {
	return a.Seq.Constant()
}

// Assign decodes a solved sequence into per-bucket destinations. It fails if
// the sequence is not of the target length or does not pass validation.
func Assign(seq BitSeq, buckets dispatch.Buckets, params Params) (*Assignment, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if seq.Size != params.Target {
		return nil, fmt.Errorf("sequence has %d bits, want %d", seq.Size, params.Target)
	}
	if n := params.Windows(seq.Size); n != len(buckets) {
		return nil, fmt.Errorf("sequence yields %d destinations for %d buckets", n, len(buckets))
	}
	if res := newValidator(buckets, params).check(seq); !res.valid {
		return nil, fmt.Errorf("invalid sequence %v: %v at bucket %d (value %d)", seq, res.failureCause, res.index, res.value)
	}

	a := &Assignment{Seq: seq, Values: make([]int, len(buckets))}
	byValue := map[int]*Destination{}
	params.eachWindow(seq, func(index, value int) bool {
		a.Values[index] = value
		return true
	})
	for _, b := range buckets {
		value := a.Values[b.Index]
		d, ok := byValue[value]
		if !ok {
			d = &Destination{
				Value:  value,
				Offset: uint64(value) << params.DestShift,
				Kind:   NoMatchDestination,
			}
			byValue[value] = d
		}
		d.Buckets = append(d.Buckets, b)
		if _, isFn := b.Function(); isFn {
			d.Kind = FunctionDestination
		} else if b.HasFallback() {
			d.Kind = FallbackDestination
		}
	}
	for _, d := range byValue {
		a.Destinations = append(a.Destinations, *d)
	}
	sort.Slice(a.Destinations, func(i, j int) bool {
		return a.Destinations[i].Value < a.Destinations[j].Value
	})
	return a, nil
}
