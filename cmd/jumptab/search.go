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
	"math/bits"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/practical-formal-methods/jumptab/config"
	"github.com/practical-formal-methods/jumptab/dispatch"
	"github.com/practical-formal-methods/jumptab/search"
	"github.com/practical-formal-methods/jumptab/selector"
)

var (
	selectorsCommand = &cli.Command{
		Name:   "selectors",
		Usage:  "Print the selector catalogue with search buckets and layout slots",
		Action: selectorsCmd,
	}
	searchCommand = &cli.Command{
		Name:  "search",
		Usage: "Search the packed destination sequence and write it to a file",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "budget", Usage: "Iteration budget, 0 for unlimited"},
			&cli.IntFlag{Name: "cap", Usage: "Override the sequence length cap"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Sequence file to write"},
		},
		Action: searchCmd,
	}
	schemesCommand = &cli.Command{
		Name:  "schemes",
		Usage: "Enumerate index-extraction masks under which the catalogue fits the table",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "bits", Usage: "Mask bits, defaults to the layout scheme's"},
			&cli.IntFlag{Name: "limit", Value: 10, Usage: "Stop after this many schemes, 0 for all"},
		},
		Action: schemesCmd,
	}
	tableCommand = &cli.Command{
		Name:      "table",
		Usage:     "Decode a sequence into per-bucket destinations",
		ArgsUsage: "[<sequence file>]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "seq", Usage: "Sequence digits, newest bit first"},
		},
		Action: tableCmd,
	}
)

func catalogueAndBuckets(cfg *config.Config) (*selector.Catalogue, dispatch.Buckets, error) {
	cat, err := cfg.Catalogue()
	if err != nil {
		return nil, nil, err
	}
	buckets, err := dispatch.IndicesFor(cat, cfg.Search.Scheme.Dispatch())
	if err != nil {
		return nil, nil, err
	}
	return cat, buckets, nil
}

func selectorsCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	cat, _, err := catalogueAndBuckets(cfg)
	if err != nil {
		return err
	}
	searchScheme := cfg.Search.Scheme.Dispatch()
	slotScheme := cfg.Layout.Scheme.Dispatch()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Selector", "Signature", "Footprint", "Bucket", "Slot"})
	for _, e := range cat.Entries() {
		table.Append([]string{
			e.Selector.String(),
			e.Signature,
			fmt.Sprint(e.Footprint),
			fmt.Sprintf("%#x", searchScheme.Raw(e.Selector)),
			fmt.Sprintf("0x%02x", slotScheme.Index(e.Selector)),
		})
	}
	table.Render()
	return nil
}

func schemesCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	cat, err := cfg.Catalogue()
	if err != nil {
		return err
	}
	opts := dispatch.SchemeSearch{
		Bits:  bits.OnesCount32(cfg.Layout.Scheme.Mask),
		Limit: ctx.Int("limit"),
	}
	if ctx.IsSet("bits") {
		opts.Bits = ctx.Int("bits")
	}
	res, err := dispatch.FindSchemes(ctx.Context, cat, opts)
	if err != nil {
		return err
	}
	fmt.Printf("tried: %d, found: %d, rejected: %v\n", res.Tried, len(res.Schemes), res.Rejected)
	if len(res.Schemes) == 0 {
		return fmt.Errorf("no %d bit scheme fits %d entries", opts.Bits, cat.Len())
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Mask", "Shift", "Slots"})
	for _, sc := range res.Schemes {
		table.Append([]string{
			fmt.Sprintf("0x%08x", sc.Mask),
			fmt.Sprint(sc.Shift),
			fmt.Sprint(sc.Capacity()),
		})
	}
	table.Render()
	return nil
}

func searchCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	_, buckets, err := catalogueAndBuckets(cfg)
	if err != nil {
		return err
	}
	params := cfg.Search.Params()
	if ctx.IsSet("cap") {
		params.Cap = ctx.Int("cap")
	}
	opts := cfg.Search.Options()
	if ctx.IsSet("budget") {
		opts.Budget = ctx.Uint64("budget")
	}
	output := cfg.Search.Output
	if ctx.IsSet("output") {
		output = ctx.String("output")
	}

	searcher, err := search.NewSearcher(buckets, params, opts)
	if err != nil {
		return err
	}
	seq, err := searcher.Search(ctx.Context)
	printStats(searcher)
	if err != nil {
		return err
	}
	fmt.Printf("found: %v\n", seq)
	if output == "" {
		return nil
	}
	return search.SaveSequence(output, seq)
}

func printStats(s *search.Searcher) {
	fmt.Printf("iterations: %d, accepted: %d, rejected: %d, max depth: %d, time: %v\n",
		s.Iterations(), s.NumAccepted(), s.NumRejected(), s.MaxDepth(), s.Time())
	causes := s.FailureCauses()
	if len(causes) == 0 {
		return
	}
	names := make([]string, 0, len(causes))
	for cause := range causes {
		names = append(names, cause)
	}
	sort.Strings(names)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rejection", "Count"})
	for _, cause := range names {
		table.Append([]string{cause, fmt.Sprint(causes[cause])})
	}
	table.Render()
}

func tableCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	_, buckets, err := catalogueAndBuckets(cfg)
	if err != nil {
		return err
	}

	var seq search.BitSeq
	switch {
	case ctx.IsSet("seq"):
		seq, err = search.ParseBitSeq(ctx.String("seq"))
	case ctx.Args().Present():
		seq, err = search.LoadSequence(ctx.Args().First())
	default:
		seq, err = search.LoadSequence(cfg.Search.Output)
	}
	if err != nil {
		return err
	}

	a, err := search.Assign(seq, buckets, cfg.Search.Params())
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Dest", "Offset", "Kind", "Buckets"})
	table.SetAutoWrapText(false)
	for _, d := range a.Destinations {
		label := d.Kind.String()
		if fn, ok := d.Function(); ok {
			label = fmt.Sprintf("%v(%v)", label, fn.Name)
		}
		raws := make([]string, len(d.Buckets))
		for i, b := range d.Buckets {
			raws[i] = fmt.Sprintf("%#x", b.Raw)
		}
		table.Append([]string{
			fmt.Sprint(d.Value),
			fmt.Sprintf("0x%04x", d.Offset),
			label,
			fmt.Sprint(raws),
		})
	}
	table.Render()
	fmt.Printf("constant: %v\n", a.Constant().Hex())
	return nil
}
