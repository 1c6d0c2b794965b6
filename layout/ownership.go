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

// Package layout checks that compiled bytecode realizes a dispatch table:
// one fixed-size slot per raw bucket, each either a function entry, the
// continuation of a multi-slot function or the shared no-match revert.
package layout

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/practical-formal-methods/jumptab/dispatch"
	"github.com/practical-formal-methods/jumptab/failure"
	"github.com/practical-formal-methods/jumptab/selector"
	jvm "github.com/practical-formal-methods/jumptab/vm"
)

type OwnerKind int

const (
	Unowned OwnerKind = iota
	Entry
	Continuation
)

func (k OwnerKind) String() string {
	switch k {
	case Unowned:
		return "no-match"
	case Entry:
		return "entry"
	case Continuation:
		return "continuation"
	}
	return fmt.Sprintf("OwnerKind(%d)", int(k))
}

// SlotOwner tags a slot. Function is the zero entry for unowned slots.
type SlotOwner struct {
	Kind     OwnerKind
	Function selector.FunctionEntry
}

func (o SlotOwner) String() string {
	if o.Kind == Unowned {
		return o.Kind.String()
	}
	return fmt.Sprintf("%v:%v", o.Kind, o.Function.Name)
}

// Config describes the physical table.
type Config struct {
	Capacity  int
	SlotSize  int
	HeaderLen int
	// Scheme maps a selector to its slot.
	Scheme dispatch.Scheme
	// NoMatch is the exact content of every unowned slot.
	NoMatch []byte
	// NoMatchCoreLen is the prefix of NoMatch an entry slot may not start with.
	NoMatchCoreLen int
	// Instructions decides which bytes are push data and jump targets.
	Instructions *jvm.InstructionSet
}

// DefaultConfig is the 256 slot table routed on the first selector byte.
func DefaultConfig() Config {
	const slotSize = 64
	noMatch := make([]byte, slotSize)
	copy(noMatch, jvm.NoMatchCore())
	return Config{
		Capacity:       256,
		SlotSize:       slotSize,
		HeaderLen:      slotSize - 1,
		Scheme:         dispatch.TopByte,
		NoMatch:        noMatch,
		NoMatchCoreLen: 3,
		Instructions:   jvm.DefaultInstructionSet(),
	}
}

// Offset returns the byte offset of a slot.
func (c Config) Offset(slot int) int {
	return c.HeaderLen + slot*c.SlotSize
}

// Terminal is the last slot, which must stay unowned.
func (c Config) Terminal() int {
	return c.Capacity - 1
}

func (c Config) Validate() error {
	if err := c.Scheme.Validate(); err != nil {
		return err
	}
	switch {
	case c.Capacity < 1:
		return failure.Configuration(failure.InvalidParameters, "capacity", "%d", c.Capacity)
	case c.Scheme.Capacity() > c.Capacity:
		return failure.Configuration(failure.InvalidScheme, c.Scheme.String(),
			"%d buckets exceed %d slots", c.Scheme.Capacity(), c.Capacity)
	case c.SlotSize < 1 || c.HeaderLen < 0:
		return failure.Configuration(failure.InvalidParameters, "slot-size", "%d with header %d", c.SlotSize, c.HeaderLen)
	case len(c.NoMatch) != c.SlotSize:
		return failure.Configuration(failure.InvalidParameters, "no-match", "%d bytes in %d byte slots", len(c.NoMatch), c.SlotSize)
	case c.Instructions == nil:
		return failure.Configuration(failure.InvalidParameters, "instructions", "no instruction set")
	case !c.Instructions[c.NoMatch[0]].IsTarget():
		return failure.Configuration(failure.InvalidParameters, "no-match", "starts with %v", vm.OpCode(c.NoMatch[0]))
	case c.NoMatchCoreLen < 1 || c.NoMatchCoreLen > len(c.NoMatch):
		return failure.Configuration(failure.InvalidParameters, "no-match-core", "%d", c.NoMatchCoreLen)
	}
	if _, err := c.Instructions.PushRange(); err != nil {
		return failure.Configuration(failure.InvalidParameters, "instructions", "%v", err)
	}
	return nil
}

// Ownership marks each entry's first slot and the footprint-1 slots after it.
// Overlapping regions and regions running past the table are configuration
// errors, detected before any bytecode is read.
func Ownership(cat *selector.Catalogue, cfg Config) ([]SlotOwner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	owners := make([]SlotOwner, cfg.Capacity)
	for _, fn := range cat.Entries() {
		start := cfg.Scheme.Index(fn.Selector)
		for d := 0; d < fn.Footprint; d++ {
			slot := start + d
			if slot >= cfg.Capacity {
				return nil, failure.Configuration(failure.SlotOutOfRange, fn.Signature,
					"slot 0x%02x of %d slot footprint beyond %d slots", slot, fn.Footprint, cfg.Capacity)
			}
			kind := Continuation
			if d == 0 {
				kind = Entry
			}
			if prev := owners[slot]; prev.Kind != Unowned {
				return nil, failure.Configuration(failure.OverlappingFootprint, fn.Signature,
					"%v of %v [%v] meets %v of %v [%v] at slot 0x%02x",
					kind, fn.Signature, fn.Selector, prev.Kind, prev.Function.Signature, prev.Function.Selector, slot)
			}
			owners[slot] = SlotOwner{Kind: kind, Function: fn}
		}
	}
	return owners, nil
}
