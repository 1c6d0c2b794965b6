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

package layout

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/olekukonko/tablewriter"
)

// WriteTable renders the violations, or a single success line.
func (r *Report) WriteTable(w io.Writer) {
	if r.OK() {
		fmt.Fprintf(w, "layout ok: %d slots\n", len(r.Owners))
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Slot", "Offset", "Owner", "Kind", "Message", "Expected", "Actual", "Hints"})
	table.SetAutoWrapText(false)
	for _, v := range r.Violations {
		table.Append([]string{
			fmt.Sprintf("0x%02x", v.Slot),
			fmt.Sprint(v.Offset),
			v.Owner.String(),
			v.Kind.String(),
			v.Message,
			encodeOrEmpty(v.Expected),
			encodeOrEmpty(v.Actual),
			FormatHints(v.Hints),
		})
	}
	table.Render()
}

// WriteOwners renders every owned slot.
func (r *Report) WriteOwners(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Slot", "Owner", "Selector", "Signature"})
	for slot, owner := range r.Owners {
		if owner.Kind == Unowned {
			continue
		}
		table.Append([]string{
			fmt.Sprintf("0x%02x", slot),
			owner.String(),
			owner.Function.Selector.String(),
			owner.Function.Signature,
		})
	}
	table.Render()
}

func encodeOrEmpty(b []byte) string {
	if b == nil {
		return ""
	}
	return hexutil.Encode(b)
}
