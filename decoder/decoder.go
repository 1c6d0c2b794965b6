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

// Package decoder walks EVM bytecode and recovers push operands.
package decoder

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"

	jvm "github.com/practical-formal-methods/jumptab/vm"
)

// ErrNotFound is returned by FindFirst when the scan exhausts the buffer.
var ErrNotFound = errors.New("opcode not found")

// Push is one decoded push instruction.
type Push struct {
	// Offset of the first operand byte, one past the opcode.
	Offset int
	Op     vm.OpCode
	// Data is always the declared width, left-padded with zeros when the
	// buffer ended before the operand did.
	Data []byte
	// Truncated is the number of operand bytes missing from the buffer.
	Truncated int
}

// Value returns the operand as an unsigned 256-bit integer.
func (p Push) Value() *uint256.Int {
	return new(uint256.Int).SetBytes(p.Data)
}

// Iterator walks a byte buffer one instruction at a time. It is single pass;
// create a new one to start over.
type Iterator struct {
	code   []byte
	pushes jvm.PushRange
	pc     int
	next   int
	op     vm.OpCode
	arg    []byte
	short  int
	done   bool
}

// NewIterator returns an iterator positioned before the first instruction.
func NewIterator(code []byte, pushes jvm.PushRange) *Iterator {
	return &Iterator{code: code, pushes: pushes}
}

// Next advances to the following instruction and reports whether one exists.
func (it *Iterator) Next() bool {
	if it.done || it.next >= len(it.code) {
		it.done = true
		return false
	}
	it.pc = it.next
	it.op = vm.OpCode(it.code[it.pc])
	it.arg = nil
	it.short = 0
	it.next = it.pc + 1
	if width := it.pushes.Width(it.op); width > 0 {
		start := it.next
		end := start + width
		if end > len(it.code) {
			it.short = end - len(it.code)
			end = len(it.code)
		}
		it.arg = make([]byte, width)
		copy(it.arg[it.short:], it.code[start:end])
		it.next = start + width
	}
	return true
}

// PC returns the offset of the current opcode.
func (it *Iterator) PC() int { return it.pc }

// Op returns the current opcode.
func (it *Iterator) Op() vm.OpCode { return it.op }

// Arg returns the reconstructed operand, nil for non-push instructions.
func (it *Iterator) Arg() []byte { return it.arg }

// IsPush reports whether the current instruction carries an operand.
func (it *Iterator) IsPush() bool { return it.arg != nil }

// Push returns the current instruction as a Push. Only valid if IsPush.
func (it *Iterator) Push() Push {
	return Push{
		Offset:    it.pc + 1,
		Op:        it.op,
		Data:      it.arg,
		Truncated: it.short,
	}
}

// Pushes decodes every push instruction in code.
func Pushes(code []byte, pushes jvm.PushRange) []Push {
	var out []Push
	it := NewIterator(code, pushes)
	for it.Next() {
		if it.IsPush() {
			out = append(out, it.Push())
		}
	}
	return out
}

// FindFirst returns the offset of the first instruction whose opcode is op.
// Operand bytes are never mistaken for opcodes.
func FindFirst(code []byte, op vm.OpCode, pushes jvm.PushRange) (int, error) {
	it := NewIterator(code, pushes)
	for it.Next() {
		if it.Op() == op {
			return it.PC(), nil
		}
	}
	return 0, fmt.Errorf("%w: %v in %d bytes", ErrNotFound, op, len(code))
}

// CodeBitmap marks each offset of code that starts an instruction.
func CodeBitmap(code []byte, pushes jvm.PushRange) []bool {
	bits := make([]bool, len(code))
	it := NewIterator(code, pushes)
	for it.Next() {
		bits[it.PC()] = true
	}
	return bits
}
