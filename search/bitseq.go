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
	"strings"

	"github.com/holiman/uint256"
)

// MaxBits is the longest sequence a BitSeq can hold.
const MaxBits = 64

// BitSeq is an append-only bit sequence. Bit i is the i-th appended bit and
// lives at position i of Bits, so the newest bit is the most significant.
type BitSeq struct {
	Bits uint64
	Size int
}

// Append returns the sequence extended by bit (0 or 1).
func (s BitSeq) Append(bit uint) BitSeq {
	return BitSeq{
		Bits: s.Bits | uint64(bit&1)<<s.Size,
		Size: s.Size + 1,
	}
}

// Bit returns the i-th appended bit.
func (s BitSeq) Bit(i int) uint {
	return uint(s.Bits>>i) & 1
}

// window returns width bits starting at bit offset.
func (s BitSeq) window(offset, width int) int {
	return int(s.Bits>>offset) & (1<<width - 1)
}

// String renders the sequence newest bit first, zero padded to Size.
func (s BitSeq) String() string {
	if s.Size == 0 {
		return ""
	}
	return fmt.Sprintf("%0*b", s.Size, s.Bits)
}

// Constant returns the sequence as the packed constant the dispatcher
// shifts and masks at runtime.
func (s BitSeq) Constant() *uint256.Int {
	return new(uint256.Int).SetUint64(s.Bits)
}

// ParseBitSeq parses a string of '0' and '1' characters, newest bit first.
// Surrounding whitespace and an optional "found: " prefix are ignored.
func ParseBitSeq(text string) (BitSeq, error) {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "found:"))
	if len(text) > MaxBits {
		return BitSeq{}, fmt.Errorf("sequence of %d bits exceeds %d", len(text), MaxBits)
	}
	var seq BitSeq
	for i, c := range text {
		switch c {
		case '0':
		case '1':
			seq.Bits |= 1 << (len(text) - 1 - i)
		default:
			return BitSeq{}, fmt.Errorf("invalid character %q at %d", c, i)
		}
	}
	seq.Size = len(text)
	return seq, nil
}
