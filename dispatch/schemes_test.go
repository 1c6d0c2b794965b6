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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practical-formal-methods/jumptab/failure"
	"github.com/practical-formal-methods/jumptab/selector"
)

// spreadCatalogue routes only when bits 0, 8 and 31 are all in the mask.
func spreadCatalogue(t *testing.T) *selector.Catalogue {
	t.Helper()
	cat, err := selector.FromEntries([]selector.FunctionEntry{
		{Name: "low", Signature: "low()", Selector: 0x00000001},
		{Name: "wide", Signature: "wide()", Selector: 0x00000100, Footprint: 2},
		{Name: "high", Signature: "high()", Selector: 0x80000000},
	})
	require.NoError(t, err)
	return cat
}

func TestFindSchemes(t *testing.T) {
	tests := []struct {
		name     string
		opts     SchemeSearch
		want     []Scheme
		tried    int
		rejected map[string]int
	}{
		{
			name:     "too small",
			opts:     SchemeSearch{Bits: 2},
			tried:    496,
			rejected: map[string]int{"overlap": 495, "terminal": 1},
		},
		{
			name:     "exact",
			opts:     SchemeSearch{Bits: 3},
			want:     []Scheme{{Mask: 0x80000101, Shift: 0}},
			tried:    4960,
			rejected: map[string]int{"overlap": 4959},
		},
		{
			name:     "limited",
			opts:     SchemeSearch{Bits: 4, Limit: 2},
			want:     []Scheme{{Mask: 0x80000103, Shift: 0}, {Mask: 0x80000105, Shift: 0}},
			tried:    31523,
			rejected: map[string]int{"overlap": 31521},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := FindSchemes(context.Background(), spreadCatalogue(t), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Schemes)
			assert.Equal(t, tt.tried, res.Tried)
			assert.Equal(t, tt.rejected, res.Rejected)
		})
	}
}

func TestFindSchemesAllFit(t *testing.T) {
	res, err := FindSchemes(context.Background(), spreadCatalogue(t), SchemeSearch{Bits: 4})
	require.NoError(t, err)
	assert.Len(t, res.Schemes, 29)
	for _, s := range res.Schemes {
		assert.NoError(t, Fits(spreadCatalogue(t), s), "%v", s)
		_, err := IndicesFor(spreadCatalogue(t), s)
		assert.NoError(t, err, "%v", s)
	}
}

func TestFindSchemesErrors(t *testing.T) {
	for _, bits := range []int{0, MaxIndexBits + 1} {
		_, err := FindSchemes(context.Background(), spreadCatalogue(t), SchemeSearch{Bits: bits})
		assert.True(t, failure.HasCause(err, failure.InvalidParameters), "bits %d", bits)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := FindSchemes(ctx, spreadCatalogue(t), SchemeSearch{Bits: 3})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Tried)
}

func TestFits(t *testing.T) {
	footprints := selector.Footprints{
		"approve": 2, "withdrawTo": 2, "transferFrom": 2, "withdraw": 2,
		"withdrawFromTo": 2, "transfer": 2, "permit": 4,
	}
	meth, err := selector.New(methSignatures, footprints)
	require.NoError(t, err)
	plain, err := selector.New(methSignatures, nil)
	require.NoError(t, err)

	assert.NoError(t, Fits(meth, TopByte))
	assert.NoError(t, Fits(plain, methScheme))
	assert.True(t, failure.HasCause(Fits(meth, methScheme), failure.OverlappingFootprint))

	cat := spreadCatalogue(t)
	assert.True(t, failure.HasCause(Fits(cat, Scheme{Mask: 0x3, Shift: 0}), failure.OverlappingFootprint))

	last, err := selector.FromEntries([]selector.FunctionEntry{
		{Name: "last", Signature: "last()", Selector: 0x00000002, Footprint: 3},
	})
	require.NoError(t, err)
	err = Fits(last, Scheme{Mask: 0x3, Shift: 0})
	assert.True(t, failure.HasCause(err, failure.SlotOutOfRange))
	assert.Contains(t, err.Error(), "slot 0x3 is reserved")
	assert.True(t, failure.HasCause(Fits(cat, Scheme{}), failure.InvalidScheme))
}
