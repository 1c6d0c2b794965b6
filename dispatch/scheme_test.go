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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practical-formal-methods/jumptab/failure"
	"github.com/practical-formal-methods/jumptab/selector"
)

var methScheme = Scheme{Mask: 0x31c00000, Shift: 22}

func TestSchemeValidate(t *testing.T) {
	tests := []struct {
		name   string
		scheme Scheme
		ok     bool
	}{
		{"top byte", TopByte, true},
		{"meth", methScheme, true},
		{"empty mask", Scheme{Mask: 0, Shift: 0}, false},
		{"bits below shift", Scheme{Mask: 0x00000f00, Shift: 10}, false},
		{"shift too large", Scheme{Mask: 0x80000000, Shift: 32}, false},
		{"too many bits", Scheme{Mask: 0xffff8000, Shift: 15}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scheme.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, failure.HasCause(err, failure.InvalidScheme), "got %v", err)
		})
	}
}

func TestSchemeCapacityAndDense(t *testing.T) {
	assert.Equal(t, 256, TopByte.Capacity())
	assert.Equal(t, 32, methScheme.Capacity())

	// mask >> shift = 0b11000111
	assert.Equal(t, 0, methScheme.Dense(0x00))
	assert.Equal(t, 1, methScheme.Dense(0x01))
	assert.Equal(t, 7, methScheme.Dense(0x07))
	assert.Equal(t, 8, methScheme.Dense(0x40))
	assert.Equal(t, 31, methScheme.Dense(0xc7))

	for i := 0; i < methScheme.Capacity(); i++ {
		raw := methScheme.RawOf(i)
		assert.Equal(t, i, methScheme.Dense(raw))
		if i > 0 {
			assert.Greater(t, raw, methScheme.RawOf(i-1), "dense order follows raw order")
		}
	}
}

func TestSchemeRaw(t *testing.T) {
	assert.Equal(t, uint32(0xa9), TopByte.Raw(0xa9059cbb))
	assert.Equal(t, 0xa9, TopByte.Index(0xa9059cbb))
	assert.Equal(t, uint32(0xc7), methScheme.Raw(0xffffffff))
	assert.Equal(t, uint32(0), methScheme.Raw(0xce3fffff))
}

func TestIndicesForRejectsAliasedFunctions(t *testing.T) {
	scheme := Scheme{Mask: 0x0000000f, Shift: 0}
	cat, err := selector.FromEntries([]selector.FunctionEntry{
		{Name: "foo", Signature: "foo()", Selector: 0x11111113},
		{Name: "bar", Signature: "bar()", Selector: 0x22222223},
	})
	require.NoError(t, err)

	_, err = IndicesFor(cat, scheme)
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrConfiguration)
	assert.True(t, failure.HasCause(err, failure.AliasedBuckets))
	assert.Contains(t, err.Error(), "bucket 0x3")
	assert.Contains(t, err.Error(), "foo()")
	assert.Contains(t, err.Error(), "bar()")
}

func TestIndicesForFallbackMayShare(t *testing.T) {
	scheme := Scheme{Mask: 0x0000000f, Shift: 0}
	cat, err := selector.FromEntries([]selector.FunctionEntry{
		{Name: "foo", Signature: "foo()", Selector: 0x11111110},
		{Name: "bar", Signature: "bar()", Selector: 0x22222225},
	})
	require.NoError(t, err)

	buckets, err := IndicesFor(cat, scheme)
	require.NoError(t, err)
	require.Len(t, buckets, 16)

	fn, ok := buckets[0].Function()
	require.True(t, ok)
	assert.Equal(t, "foo", fn.Name)
	assert.True(t, buckets[0].HasFallback())
	assert.False(t, buckets[0].NoMatch())

	fn, ok = buckets[5].Function()
	require.True(t, ok)
	assert.Equal(t, "bar", fn.Name)
	assert.False(t, buckets[5].HasFallback())

	noMatch := buckets.NoMatch()
	assert.Len(t, noMatch, 14)
	assert.False(t, noMatch[0])
	assert.False(t, noMatch[5])
	assert.True(t, noMatch[1])
}

func TestIndicesForMeth(t *testing.T) {
	cat, err := selector.New(methSignatures, nil)
	require.NoError(t, err)

	buckets, err := IndicesFor(cat, methScheme)
	require.NoError(t, err)
	require.Len(t, buckets, 32)

	routed := 0
	for i, b := range buckets {
		assert.Equal(t, i, b.Index)
		routed += len(b.Entries)
	}
	assert.Equal(t, cat.Len(), routed)
	assert.True(t, buckets[0].HasFallback())
}

var methSignatures = []string{
	"name()",
	"symbol()",
	"decimals()",
	"totalSupply()",
	"transferFrom(address,address,uint256)",
	"transfer(address,uint256)",
	"balanceOf(address)",
	"approve(address,uint256)",
	"allowance(address,address)",
	"deposit()",
	"depositTo(address)",
	"depositAmountTo(address,uint256)",
	"depositAmount(uint256)",
	"withdraw(uint256)",
	"withdrawTo(address,uint256)",
	"withdrawFrom(address,uint256)",
	"withdrawFromTo(address,address,uint256)",
	"DOMAIN_SEPARATOR()",
	"nonces(address)",
	"permit(address,address,uint256,uint256,uint8,bytes32,bytes32)",
	"multicall(bytes[])",
}
