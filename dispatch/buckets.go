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
	"fmt"

	"github.com/practical-formal-methods/jumptab/failure"
	"github.com/practical-formal-methods/jumptab/selector"
)

// Bucket is one raw bucket of a scheme together with the entries routed to it.
// At most one of them is a real function; the fallback may share it.
type Bucket struct {
	Index   int
	Raw     uint32
	Entries []selector.FunctionEntry
}

// Function returns the real function routed to the bucket, if any.
func (b Bucket) Function() (selector.FunctionEntry, bool) {
	for _, e := range b.Entries {
		if !e.Fallback {
			return e, true
		}
	}
	return selector.FunctionEntry{}, false
}

// HasFallback reports whether the empty selector lands in this bucket.
func (b Bucket) HasFallback() bool {
	for _, e := range b.Entries {
		if e.Fallback {
			return true
		}
	}
	return false
}

// NoMatch reports whether no entry at all is routed to the bucket.
func (b Bucket) NoMatch() bool {
	return len(b.Entries) == 0
}

func (b Bucket) String() string {
	if fn, ok := b.Function(); ok {
		return fmt.Sprintf("%#x: %v", b.Raw, fn.Signature)
	}
	if b.HasFallback() {
		return fmt.Sprintf("%#x: %v()", b.Raw, selector.FallbackName)
	}
	return fmt.Sprintf("%#x: no match", b.Raw)
}

// Buckets holds every bucket of a scheme ordered by dense index.
type Buckets []Bucket

// NoMatch returns the dense indices of unrouted buckets.
func (bs Buckets) NoMatch() map[int]bool {
	out := map[int]bool{}
	for _, b := range bs {
		if b.NoMatch() {
			out[b.Index] = true
		}
	}
	return out
}

// IndicesFor applies the scheme to every catalogue selector. It rejects the
// scheme if two real functions share a raw bucket.
func IndicesFor(cat *selector.Catalogue, s Scheme) (Buckets, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	buckets := make(Buckets, s.Capacity())
	for i := range buckets {
		buckets[i] = Bucket{Index: i, Raw: s.RawOf(i)}
	}
	for _, entry := range cat.Entries() {
		b := &buckets[s.Index(entry.Selector)]
		if !entry.Fallback {
			if prev, taken := b.Function(); taken {
				return nil, failure.Configuration(failure.AliasedBuckets, fmt.Sprintf("bucket %#x", b.Raw),
					"%v [%v] and %v [%v] under %v", prev.Signature, prev.Selector, entry.Signature, entry.Selector, s)
			}
		}
		b.Entries = append(b.Entries, entry)
	}
	return buckets, nil
}
