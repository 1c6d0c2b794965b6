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
	"testing"

	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushRangeFromInstructionSets(t *testing.T) {
	tests := []struct {
		name string
		set  InstructionSet
	}{
		{"frontier", newFrontierInstructionSet()},
		{"byzantium", NewByzantiumInstructionSet()},
		{"shanghai", NewShanghaiInstructionSet()},
		{"cancun", NewCancunInstructionSet()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.set.PushRange()
			require.NoError(t, err)
			assert.Equal(t, DefaultPushRange, r)
		})
	}
}

func TestPushRangeRejectsGaps(t *testing.T) {
	set := NewCancunInstructionSet()
	set[vm.PUSH7] = Operation{Valid: true}
	_, err := set.PushRange()
	assert.Error(t, err)

	var empty InstructionSet
	_, err = empty.PushRange()
	assert.Error(t, err)
}

func TestPushRangeWidth(t *testing.T) {
	assert.Equal(t, 1, DefaultPushRange.Width(vm.PUSH1))
	assert.Equal(t, 20, DefaultPushRange.Width(vm.PUSH20))
	assert.Equal(t, 32, DefaultPushRange.Width(vm.PUSH32))
	assert.Equal(t, 0, DefaultPushRange.Width(vm.PUSH0))
	assert.Equal(t, 0, DefaultPushRange.Width(vm.JUMPDEST))
}

func TestForkLayering(t *testing.T) {
	frontier := newFrontierInstructionSet()
	byzantium := NewByzantiumInstructionSet()
	shanghai := NewShanghaiInstructionSet()

	assert.False(t, frontier[vm.REVERT].Valid)
	assert.True(t, byzantium[vm.REVERT].Valid)
	assert.True(t, byzantium[vm.REVERT].Halts())
	assert.True(t, byzantium[vm.RETURNDATASIZE].Valid)

	assert.False(t, byzantium[vm.PUSH0].Valid)
	assert.True(t, shanghai[vm.PUSH0].Valid)
	assert.Zero(t, shanghai[vm.PUSH0].Immediate)

	assert.True(t, frontier[vm.JUMPDEST].IsTarget())
	assert.True(t, frontier[vm.JUMPI].Jumps())
	assert.False(t, frontier[0x0c].Valid)
}

func TestNoMatchCore(t *testing.T) {
	assert.Equal(t, []byte{0x5b, 0x3d, 0x3d, 0xfd}, NoMatchCore())
}
