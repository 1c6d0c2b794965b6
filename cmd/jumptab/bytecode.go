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
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/practical-formal-methods/jumptab/decoder"
	"github.com/practical-formal-methods/jumptab/layout"
	"github.com/practical-formal-methods/jumptab/locator"
)

var (
	verifyCommand = &cli.Command{
		Name:      "verify",
		Usage:     "Check every dispatch slot of runtime bytecode",
		ArgsUsage: "<bytecode file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "owners", Usage: "Also print the slot ownership map"},
		},
		Action: verifyCmd,
	}
	dumpCommand = &cli.Command{
		Name:      "dump",
		Usage:     "Print the dispatcher head and the bytes of every slot",
		ArgsUsage: "<bytecode file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "disasm", Usage: "Disassemble slots instead of printing hex"},
		},
		Action: dumpCmd,
	}
	locateCommand = &cli.Command{
		Name:      "locate",
		Usage:     "Find the operand offsets of placeholder constants",
		ArgsUsage: "<bytecode file>",
		Flags:     []cli.Flag{jsonFlag},
		Action:    locateCmd,
	}
	defaultsCommand = &cli.Command{
		Name:      "defaults",
		Usage:     "Write the default project configuration",
		ArgsUsage: "<yaml file>",
		Action:    defaultsCmd,
	}
)

// readBytecode reads a hex file, with or without 0x prefix.
func readBytecode(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(data))
	if !strings.HasPrefix(text, "0x") && !strings.HasPrefix(text, "0X") {
		text = "0x" + text
	}
	code, err := hexutil.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return code, nil
}

func bytecodeArg(ctx *cli.Context) ([]byte, error) {
	if ctx.NArg() != 1 {
		return nil, fmt.Errorf("expected one bytecode file, got %d arguments", ctx.NArg())
	}
	return readBytecode(ctx.Args().First())
}

func verifyCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	code, err := bytecodeArg(ctx)
	if err != nil {
		return err
	}
	cat, err := cfg.Catalogue()
	if err != nil {
		return err
	}
	lc, err := cfg.LayoutConfig()
	if err != nil {
		return err
	}
	report, err := layout.Verify(code, cat, lc)
	if err != nil {
		return err
	}
	if ctx.Bool("owners") {
		report.WriteOwners(os.Stdout)
	}
	report.WriteTable(os.Stdout)
	if !report.OK() {
		return fmt.Errorf("layout has %d violations", len(report.Violations))
	}
	return nil
}

func dumpCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	code, err := bytecodeArg(ctx)
	if err != nil {
		return err
	}
	lc, err := cfg.LayoutConfig()
	if err != nil {
		return err
	}
	if err := lc.Validate(); err != nil {
		return err
	}
	set := lc.Instructions
	disasm := ctx.Bool("disasm")

	head := code[:min(lc.HeaderLen, len(code))]
	fmt.Printf("dispatcher head:\n    %v\n", hexutil.Encode(head))
	for slot := 0; slot < lc.Capacity; slot++ {
		offset := lc.Offset(slot)
		if offset >= len(code) {
			log.Warn("Code ends before slot", "slot", slot, "offset", offset, "size", len(code))
			break
		}
		body := code[offset:min(offset+lc.SlotSize, len(code))]
		fmt.Printf("slot 0x%02x:\n", slot)
		if disasm {
			text, err := decoder.Disassemble(body, offset, set)
			if err != nil {
				return err
			}
			fmt.Print(text)
		} else {
			fmt.Printf("    %v\n", hexutil.Encode(body))
		}
		if !set[body[0]].IsTarget() {
			raw := lc.Scheme.RawOf(slot) << lc.Scheme.Shift
			log.Warn(fmt.Sprintf("Missing selectors 0x%08x - 0x%08x", raw, raw|^lc.Scheme.Mask), "slot", slot)
		}
	}
	return nil
}

func locateCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	code, err := bytecodeArg(ctx)
	if err != nil {
		return err
	}
	opts, err := cfg.LocatorOptions()
	if err != nil {
		return err
	}
	sites, err := locator.Locate(code, cfg.Locator.Placeholders, opts)
	if sites == nil {
		return err
	}
	if ctx.Bool(jsonFlag.Name) {
		if werr := locator.WriteJSON(os.Stdout, sites); werr != nil {
			return werr
		}
	} else {
		locator.WriteTable(os.Stdout, sites)
	}
	return err
}

func defaultsCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected one output file")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	return cfg.Write(ctx.Args().First())
}
