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

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/practical-formal-methods/jumptab/config"
	"github.com/practical-formal-methods/jumptab/layout"
	"github.com/practical-formal-methods/jumptab/locator"
	"github.com/practical-formal-methods/jumptab/search"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	return newApp().Run(append([]string{"jumptab", "--verbosity", "1"}, args...))
}

// methCode lays out runtime code that passes verification with the
// default configuration.
func methCode(t *testing.T) []byte {
	t.Helper()
	cfg := config.Default()
	cat, err := cfg.Catalogue()
	require.NoError(t, err)
	lc, err := cfg.LayoutConfig()
	require.NoError(t, err)
	owners, err := layout.Ownership(cat, lc)
	require.NoError(t, err)

	code := make([]byte, lc.Offset(lc.Capacity))
	for slot, owner := range owners {
		switch owner.Kind {
		case layout.Unowned:
			copy(code[lc.Offset(slot):], lc.NoMatch)
		case layout.Entry:
			code[lc.Offset(slot)] = byte(vm.JUMPDEST)
		}
	}
	return code
}

func writeCode(t *testing.T, code []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runtime.hex")
	require.NoError(t, os.WriteFile(path, []byte(hexutil.Encode(code)[2:]+"\n"), 0o644))
	return path
}

func TestReadBytecode(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    []byte
		wantErr bool
	}{
		{"prefixed", "0x5b00", []byte{0x5b, 0x00}, false},
		{"bare with newline", "5b3dfd\n", []byte{0x5b, 0x3d, 0xfd}, false},
		{"odd length", "5b3", nil, true},
		{"not hex", "zz", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			code, err := readBytecode(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestSearchThenTable(t *testing.T) {
	out := filepath.Join(t.TempDir(), "good-seq.txt")
	require.NoError(t, run(t, "search", "--output", out))

	seq, err := search.LoadSequence(out)
	require.NoError(t, err)
	assert.Equal(t, "000111010111010011111001100011011000001010010000", seq.String())

	require.NoError(t, run(t, "table", out))
	assert.Error(t, run(t, "table", filepath.Join(t.TempDir(), "missing.txt")))
}

func TestSearchBudget(t *testing.T) {
	err := run(t, "search", "--budget", "5", "--output", "")
	assert.ErrorIs(t, err, search.ErrBudgetExhausted)
}

func TestVerify(t *testing.T) {
	code := methCode(t)
	require.NoError(t, run(t, "verify", "--owners", writeCode(t, code)))
	require.NoError(t, run(t, "dump", writeCode(t, code)))

	code[layout.DefaultConfig().Offset(3)] = byte(vm.STOP)
	err := run(t, "verify", writeCode(t, code))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 violations")

	assert.Error(t, run(t, "verify"))
}

func TestLocateMissingPlaceholders(t *testing.T) {
	path := writeCode(t, methCode(t))
	for _, args := range [][]string{{"locate", "--json", path}, {"locate", path}} {
		err := run(t, args...)
		require.Error(t, err)
		assert.ErrorIs(t, err, locator.ErrNoSitesFound)
		assert.Len(t, multierr.Errors(err), 2)
		assert.Contains(t, err.Error(), "no sites found for old-weth")
		assert.Contains(t, err.Error(), "no sites found for cached-domain-separator")
	}
}

func TestSchemes(t *testing.T) {
	require.NoError(t, run(t, "schemes", "--limit", "1"))

	err := run(t, "schemes", "--bits", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no 3 bit scheme fits 22 entries")

	assert.Error(t, run(t, "schemes", "--bits", "0"))
}

func TestDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jumptab.yaml")
	require.NoError(t, run(t, "defaults", path))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	require.NoError(t, run(t, "--config", path, "selectors"))
}
