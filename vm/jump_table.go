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

package vm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/vm"
)

// Operation describes how a single opcode is laid out in a byte stream.
type Operation struct {
	// Immediate is the number of operand bytes that follow the opcode.
	Immediate int
	// Valid indicates whether the opcode is known in the instruction set.
	Valid bool

	halts    bool // indicates whether the operation stops execution
	jumps    bool // indicates whether the program counter should not increment
	reverts  bool // determines whether the operation reverts state (implicitly halts)
	jumpdest bool // marks a legal jump target
}

func (op Operation) Halts() bool    { return op.halts || op.reverts }
func (op Operation) Jumps() bool    { return op.jumps }
func (op Operation) IsTarget() bool { return op.jumpdest }

// InstructionSet maps every byte value to its operation.
type InstructionSet [256]Operation

var cancunInstructionSet = NewCancunInstructionSet()

// DefaultInstructionSet returns the latest supported instruction set.
func DefaultInstructionSet() *InstructionSet {
	set := cancunInstructionSet
	return &set
}

// NewCancunInstructionSet returns the instructions up to and including cancun.
func NewCancunInstructionSet() InstructionSet {
	instructionSet := NewShanghaiInstructionSet()
	enable(&instructionSet, vm.BLOBHASH, vm.BLOBBASEFEE, vm.TLOAD, vm.TSTORE, vm.MCOPY)
	return instructionSet
}

// NewShanghaiInstructionSet adds PUSH0, which has no operand.
func NewShanghaiInstructionSet() InstructionSet {
	instructionSet := NewLondonInstructionSet()
	instructionSet[vm.PUSH0] = Operation{Valid: true}
	return instructionSet
}

// NewLondonInstructionSet returns the frontier through london instructions.
func NewLondonInstructionSet() InstructionSet {
	instructionSet := NewIstanbulInstructionSet()
	enable(&instructionSet, vm.BASEFEE)
	return instructionSet
}

// NewIstanbulInstructionSet returns the frontier through istanbul instructions.
func NewIstanbulInstructionSet() InstructionSet {
	instructionSet := NewConstantinopleInstructionSet()
	enable(&instructionSet, vm.CHAINID, vm.SELFBALANCE)
	return instructionSet
}

// NewConstantinopleInstructionSet returns the frontier, homestead
// byzantium and constantinople instructions.
func NewConstantinopleInstructionSet() InstructionSet {
	instructionSet := NewByzantiumInstructionSet()
	enable(&instructionSet, vm.SHL, vm.SHR, vm.SAR, vm.EXTCODEHASH, vm.CREATE2)
	return instructionSet
}

// NewByzantiumInstructionSet returns the frontier, homestead and
// byzantium instructions.
func NewByzantiumInstructionSet() InstructionSet {
	instructionSet := newHomesteadInstructionSet()
	enable(&instructionSet, vm.STATICCALL, vm.RETURNDATASIZE, vm.RETURNDATACOPY)
	instructionSet[vm.REVERT] = Operation{
		Valid:   true,
		reverts: true,
	}
	return instructionSet
}

func newHomesteadInstructionSet() InstructionSet {
	instructionSet := newFrontierInstructionSet()
	enable(&instructionSet, vm.DELEGATECALL)
	return instructionSet
}

// newFrontierInstructionSet returns the frontier instructions.
func newFrontierInstructionSet() InstructionSet {
	var instructionSet InstructionSet
	for _, r := range [][2]vm.OpCode{
		{vm.STOP, vm.SIGNEXTEND},
		{vm.LT, vm.BYTE},
		{vm.KECCAK256, vm.KECCAK256},
		{vm.ADDRESS, vm.EXTCODECOPY},
		{vm.BLOCKHASH, vm.GASLIMIT},
		{vm.POP, vm.GAS},
		{vm.DUP1, vm.DUP16},
		{vm.SWAP1, vm.SWAP16},
		{vm.LOG0, vm.LOG4},
		{vm.CREATE, vm.RETURN},
		{vm.SELFDESTRUCT, vm.SELFDESTRUCT},
	} {
		for op := int(r[0]); op <= int(r[1]); op++ {
			instructionSet[op] = Operation{Valid: true}
		}
	}
	for _, op := range []vm.OpCode{vm.STOP, vm.RETURN, vm.SELFDESTRUCT} {
		instructionSet[op].halts = true
	}
	instructionSet[vm.JUMP].jumps = true
	instructionSet[vm.JUMPI].jumps = true
	instructionSet[vm.JUMPDEST] = Operation{
		Valid:    true,
		jumpdest: true,
	}
	for op := vm.PUSH1; op <= vm.PUSH32; op++ {
		instructionSet[op] = makePush(int(op-vm.PUSH1) + 1)
	}
	return instructionSet
}

func makePush(size int) Operation {
	return Operation{
		Immediate: size,
		Valid:     true,
	}
}

func enable(set *InstructionSet, ops ...vm.OpCode) {
	for _, op := range ops {
		set[op] = Operation{Valid: true}
	}
}

// PushRange is a contiguous run of opcodes that each push an immediate
// operand. The first opcode pushes one byte, each following one byte more.
type PushRange struct {
	First vm.OpCode
	Last  vm.OpCode
}

// DefaultPushRange is PUSH1 through PUSH32.
var DefaultPushRange = PushRange{First: vm.PUSH1, Last: vm.PUSH32}

func (r PushRange) Contains(op vm.OpCode) bool {
	return r.First <= op && op <= r.Last
}

// Width returns the declared operand width of op, or 0 outside the range.
func (r PushRange) Width(op vm.OpCode) int {
	if !r.Contains(op) {
		return 0
	}
	return int(op-r.First) + 1
}

func (r PushRange) String() string {
	return fmt.Sprintf("%v..%v", r.First, r.Last)
}

// PushRange derives the operand-carrying opcode range from the set. It fails
// if those opcodes are not contiguous or their widths do not grow by one.
func (set *InstructionSet) PushRange() (PushRange, error) {
	first, last := -1, -1
	for op := 0; op < len(set); op++ {
		if set[op].Immediate == 0 {
			continue
		}
		if first < 0 {
			first = op
		} else if last != op-1 {
			return PushRange{}, fmt.Errorf("push opcodes not contiguous at %#x", op)
		}
		if set[op].Immediate != op-first+1 {
			return PushRange{}, fmt.Errorf("push opcode %#x declares %d operand bytes", op, set[op].Immediate)
		}
		last = op
	}
	if first < 0 {
		return PushRange{}, fmt.Errorf("instruction set has no push opcodes")
	}
	return PushRange{First: vm.OpCode(first), Last: vm.OpCode(last)}, nil
}

// NoMatchCore is the revert sequence every unmatched dispatch slot begins
// with: JUMPDEST RETURNDATASIZE RETURNDATASIZE REVERT.
func NoMatchCore() []byte {
	return []byte{byte(vm.JUMPDEST), byte(vm.RETURNDATASIZE), byte(vm.RETURNDATASIZE), byte(vm.REVERT)}
}
