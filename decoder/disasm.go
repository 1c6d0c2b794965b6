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
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	jvm "github.com/practical-formal-methods/jumptab/vm"
)

// Disassemble renders code one instruction per line, prefixed by base+pc.
// Opcodes unknown to set are printed as INVALID.
func Disassemble(code []byte, base int, set *jvm.InstructionSet) (string, error) {
	pushes, err := set.PushRange()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	it := NewIterator(code, pushes)
	for it.Next() {
		op := it.Op()
		name := op.String()
		if !set[op].Valid {
			name = fmt.Sprintf("INVALID(0x%02x)", byte(op))
		}
		fmt.Fprintf(&sb, "%05x: %v", base+it.PC(), name)
		if it.IsPush() {
			fmt.Fprintf(&sb, " %v", hexutil.Encode(it.Arg()))
			if it.Push().Truncated > 0 {
				fmt.Fprintf(&sb, " (truncated %d)", it.Push().Truncated)
			}
		}
		if set[op].Halts() || set[op].Jumps() {
			sb.WriteString(" ;")
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
