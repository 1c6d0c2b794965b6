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

package decoder

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jvm "github.com/practical-formal-methods/jumptab/vm"
)

func TestPushesTruncatedAtEnd(t *testing.T) {
	code := make([]byte, 13)
	for i := 0; i < 10; i++ {
		code[i] = byte(vm.JUMPDEST)
	}
	code[10] = byte(vm.PUSH32)
	code[11] = 0xab
	code[12] = 0xcd

	pushes := Pushes(code, jvm.DefaultPushRange)
	require.Len(t, pushes, 1)
	p := pushes[0]
	assert.Equal(t, 11, p.Offset)
	assert.Equal(t, vm.PUSH32, p.Op)
	require.Len(t, p.Data, 32)
	assert.Equal(t, make([]byte, 30), p.Data[:30])
	assert.Equal(t, []byte{0xab, 0xcd}, p.Data[30:])
	assert.Equal(t, 30, p.Truncated)
	assert.Equal(t, uint64(0xabcd), p.Value().Uint64())
}

func TestPushesRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		width int
		value []byte
	}{
		{"push1", 1, []byte{0x7f}},
		{"push4 selector", 4, []byte{0xa9, 0x05, 0x9c, 0xbb}},
		{"push20 address", 20, bytes.Repeat([]byte{0x11}, 20)},
		{"push32 word", 32, bytes.Repeat([]byte{0xff}, 32)},
	}
	var code []byte
	for _, tt := range tests {
		code = append(code, byte(vm.PUSH1)+byte(tt.width-1))
		code = append(code, tt.value...)
	}
	pushes := Pushes(code, jvm.DefaultPushRange)
	require.Len(t, pushes, len(tests))

	offset := 0
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, offset+1, pushes[i].Offset)
			assert.Equal(t, tt.value, pushes[i].Data)
			assert.Zero(t, pushes[i].Truncated)
		})
		offset += 1 + tt.width
	}
}

func TestPushesNarrowEncodingOfWideValue(t *testing.T) {
	// 0x01 written into a 32 byte slot by an encoder that dropped the
	// leading zero bytes at the end of the code.
	code := []byte{byte(vm.PUSH32), 0x01}
	pushes := Pushes(code, jvm.DefaultPushRange)
	require.Len(t, pushes, 1)

	want := make([]byte, 32)
	want[31] = 0x01
	assert.Equal(t, want, pushes[0].Data)
	assert.Equal(t, uint64(1), pushes[0].Value().Uint64())
}

func TestPushesEmptyOperandAtEnd(t *testing.T) {
	pushes := Pushes([]byte{byte(vm.PUSH2)}, jvm.DefaultPushRange)
	require.Len(t, pushes, 1)
	assert.Equal(t, []byte{0, 0}, pushes[0].Data)
	assert.Equal(t, 1, pushes[0].Offset)
}

func TestFindFirstSkipsOperands(t *testing.T) {
	code := []byte{
		byte(vm.PUSH2), byte(vm.RETURN), byte(vm.RETURN),
		byte(vm.CALLDATASIZE),
		byte(vm.RETURN),
	}
	offset, err := FindFirst(code, vm.RETURN, jvm.DefaultPushRange)
	require.NoError(t, err)
	assert.Equal(t, 4, offset)

	_, err = FindFirst(code, vm.REVERT, jvm.DefaultPushRange)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIteratorIsSinglePass(t *testing.T) {
	it := NewIterator([]byte{byte(vm.STOP)}, jvm.DefaultPushRange)
	assert.True(t, it.Next())
	assert.Equal(t, vm.STOP, it.Op())
	assert.False(t, it.IsPush())
	assert.False(t, it.Next())
	assert.False(t, it.Next())
}

func TestCodeBitmap(t *testing.T) {
	code := []byte{byte(vm.PUSH1), byte(vm.JUMPDEST), byte(vm.JUMPDEST)}
	assert.Equal(t, []bool{true, false, true}, CodeBitmap(code, jvm.DefaultPushRange))
}

func TestCustomPushRange(t *testing.T) {
	// Only PUSH1..PUSH4 carry operands; PUSH5 is a plain byte here.
	r := jvm.PushRange{First: vm.PUSH1, Last: vm.PUSH4}
	code := []byte{byte(vm.PUSH5), byte(vm.PUSH1), 0x42}
	pushes := Pushes(code, r)
	require.Len(t, pushes, 1)
	assert.Equal(t, 2, pushes[0].Offset)
	assert.Equal(t, []byte{0x42}, pushes[0].Data)
}

func TestDisassemble(t *testing.T) {
	code := []byte{byte(vm.JUMPDEST), byte(vm.PUSH1), 0x2a, byte(vm.REVERT), 0x0c}
	out, err := Disassemble(code, 0x10, jvm.DefaultInstructionSet())
	require.NoError(t, err)
	assert.Equal(t, "00010: JUMPDEST\n00011: PUSH1 0x2a\n00013: REVERT ;\n00014: INVALID(0x0c)\n", out)
}
