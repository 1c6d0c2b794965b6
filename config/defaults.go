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

package config

import (
	"github.com/practical-formal-methods/jumptab/layout"
	"github.com/practical-formal-methods/jumptab/locator"
	"github.com/practical-formal-methods/jumptab/search"
	"github.com/practical-formal-methods/jumptab/selector"
)

// MethSignatures is the external interface of the METH token.
var MethSignatures = []string{
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

// MethFootprints lists every function whose code spans more than one slot.
// Names missing from the catalogue are ignored.
func MethFootprints() selector.Footprints {
	return selector.Footprints{
		"approve":           2,
		"withdrawTo":        2,
		"transferFrom":      2,
		"depositAndApprove": 2,
		"withdraw":          2,
		"withdrawFromTo":    2,
		"withdrawAll":       2,
		"transfer":          2,
		"sweepLost":         2,
		"withdrawAllTo":     2,
		"depositWithOldTo":  3,
		"permit":            4,
	}
}

// Default returns the METH project configuration.
func Default() *Config {
	params := search.DefaultParams()
	lc := layout.DefaultConfig()
	return &Config{
		Signatures: append([]string(nil), MethSignatures...),
		Footprints: MethFootprints(),
		Fork:       "cancun",
		Search: Search{
			Scheme:     Scheme{Mask: 0x31c00000, Shift: 22},
			GroupBits:  params.GroupBits,
			WindowBits: params.WindowBits,
			Cap:        params.Cap,
			Target:     params.Target,
			MinDest:    params.MinDest,
			DestShift:  params.DestShift,
			Output:     "good-seq.txt",
		},
		Layout: Layout{
			Scheme:         Scheme{Mask: lc.Scheme.Mask, Shift: lc.Scheme.Shift},
			Capacity:       lc.Capacity,
			SlotSize:       lc.SlotSize,
			HeaderLen:      lc.HeaderLen,
			NoMatch:        lc.NoMatch,
			NoMatchCoreLen: lc.NoMatchCoreLen,
		},
		Locator: Locator{
			Namespace: locator.DefaultNamespace,
			Placeholders: []locator.Placeholder{
				{Name: "old-weth", Width: 20, Var: "oldWeth"},
				{Name: "cached-domain-separator", Width: 32, Var: "domainSeparator"},
			},
		},
	}
}
