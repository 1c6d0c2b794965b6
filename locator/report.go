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

package locator

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/olekukonko/tablewriter"
)

// Offsets maps placeholder names to their operand offsets.
func Offsets(sites []Site) map[string][]int {
	out := make(map[string][]int, len(sites))
	for _, s := range sites {
		offsets := s.Offsets
		if offsets == nil {
			offsets = []int{}
		}
		out[s.Placeholder.Name] = offsets
	}
	return out
}

// WriteJSON writes the offsets of every site as an indented JSON object.
func WriteJSON(w io.Writer, sites []Site) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Offsets(sites))
}

// WriteTable writes one row per placeholder.
func WriteTable(w io.Writer, sites []Site) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Placeholder", "Width", "Var", "Pattern", "Offsets"})
	table.SetAutoWrapText(false)
	for _, s := range sites {
		offsets := make([]string, len(s.Offsets))
		for i, off := range s.Offsets {
			offsets[i] = fmt.Sprintf("0x%04x", off)
		}
		table.Append([]string{
			s.Placeholder.Name,
			fmt.Sprint(s.Placeholder.Width),
			s.Placeholder.Var,
			hexutil.Encode(s.Pattern),
			strings.Join(offsets, ", "),
		})
	}
	table.Render()
}
