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

// Package config loads the project description shared by all commands.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/practical-formal-methods/jumptab/dispatch"
	"github.com/practical-formal-methods/jumptab/failure"
	"github.com/practical-formal-methods/jumptab/layout"
	"github.com/practical-formal-methods/jumptab/locator"
	"github.com/practical-formal-methods/jumptab/search"
	"github.com/practical-formal-methods/jumptab/selector"
	jvm "github.com/practical-formal-methods/jumptab/vm"
)

type Scheme struct {
	Mask  uint32 `yaml:"mask"`
	Shift uint   `yaml:"shift"`
}

func (s Scheme) Dispatch() dispatch.Scheme {
	return dispatch.Scheme{Mask: s.Mask, Shift: s.Shift}
}

type Search struct {
	Scheme           Scheme `yaml:"scheme"`
	GroupBits        int    `yaml:"group-bits"`
	WindowBits       int    `yaml:"window-bits"`
	Cap              int    `yaml:"cap"`
	Target           int    `yaml:"target"`
	MinDest          int    `yaml:"min-dest"`
	DestShift        uint   `yaml:"dest-shift"`
	Budget           uint64 `yaml:"budget"`
	ProgressInterval uint64 `yaml:"progress-interval"`
	Output           string `yaml:"output"`
}

func (s Search) Params() search.Params {
	return search.Params{
		GroupBits:  s.GroupBits,
		WindowBits: s.WindowBits,
		Cap:        s.Cap,
		Target:     s.Target,
		MinDest:    s.MinDest,
		DestShift:  s.DestShift,
	}
}

func (s Search) Options() search.Options {
	return search.Options{Budget: s.Budget, ProgressInterval: s.ProgressInterval}
}

type Layout struct {
	Scheme         Scheme        `yaml:"scheme"`
	Capacity       int           `yaml:"capacity"`
	SlotSize       int           `yaml:"slot-size"`
	HeaderLen      int           `yaml:"header-len"`
	NoMatch        hexutil.Bytes `yaml:"no-match"`
	NoMatchCoreLen int           `yaml:"no-match-core-len"`
}

type Locator struct {
	Namespace    string                `yaml:"namespace"`
	Placeholders []locator.Placeholder `yaml:"placeholders"`
}

// Config is the full project description. Interface, when set, names a file
// of "#define function" lines that replaces Signatures.
type Config struct {
	Signatures []string            `yaml:"signatures"`
	Interface  string              `yaml:"interface"`
	Footprints selector.Footprints `yaml:"footprints"`
	Fork       string              `yaml:"fork"`
	Search     Search              `yaml:"search"`
	Layout     Layout              `yaml:"layout"`
	Locator    Locator             `yaml:"locator"`
}

var forks = map[string]func() jvm.InstructionSet{
	"byzantium":      jvm.NewByzantiumInstructionSet,
	"constantinople": jvm.NewConstantinopleInstructionSet,
	"istanbul":       jvm.NewIstanbulInstructionSet,
	"london":         jvm.NewLondonInstructionSet,
	"shanghai":       jvm.NewShanghaiInstructionSet,
	"cancun":         jvm.NewCancunInstructionSet,
}

// InstructionSet returns the instruction set of a fork; empty means cancun.
func InstructionSet(fork string) (*jvm.InstructionSet, error) {
	if fork == "" {
		return jvm.DefaultInstructionSet(), nil
	}
	newSet, ok := forks[fork]
	if !ok {
		return nil, failure.Configuration(failure.InvalidParameters, "fork", "unknown fork %q", fork)
	}
	set := newSet()
	return &set, nil
}

// PushRange returns the push opcodes of a fork.
func PushRange(fork string) (jvm.PushRange, error) {
	set, err := InstructionSet(fork)
	if err != nil {
		return jvm.PushRange{}, err
	}
	return set.PushRange()
}

// Catalogue builds the selector catalogue from the interface file or the
// inline signatures.
func (c *Config) Catalogue() (*selector.Catalogue, error) {
	if c.Interface == "" {
		return selector.New(c.Signatures, c.Footprints)
	}
	f, err := os.Open(c.Interface)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sigs, err := selector.ParseInterface(f)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", c.Interface, err)
	}
	return selector.FromSignatures(sigs, c.Footprints)
}

// LayoutConfig converts the layout section, taking the instruction set from
// the fork. A no-match sequence shorter than a slot is zero-padded to it.
func (c *Config) LayoutConfig() (layout.Config, error) {
	set, err := InstructionSet(c.Fork)
	if err != nil {
		return layout.Config{}, err
	}
	l := c.Layout
	noMatch := make([]byte, max(l.SlotSize, len(l.NoMatch)))
	copy(noMatch, l.NoMatch)
	return layout.Config{
		Capacity:       l.Capacity,
		SlotSize:       l.SlotSize,
		HeaderLen:      l.HeaderLen,
		Scheme:         l.Scheme.Dispatch(),
		NoMatch:        noMatch,
		NoMatchCoreLen: l.NoMatchCoreLen,
		Instructions:   set,
	}, nil
}

func (c *Config) LocatorOptions() (locator.Options, error) {
	pushes, err := PushRange(c.Fork)
	if err != nil {
		return locator.Options{}, err
	}
	return locator.Options{Namespace: c.Locator.Namespace, Pushes: pushes}, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs error
	if len(c.Signatures) == 0 && c.Interface == "" {
		errs = multierr.Append(errs, failure.Configuration(failure.InvalidParameters, "signatures", "none given"))
	}
	for name, n := range c.Footprints {
		if n < 1 {
			errs = multierr.Append(errs, failure.Configuration(failure.InvalidFootprint, name, "%d", n))
		}
	}
	errs = multierr.Append(errs, c.Search.Scheme.Dispatch().Validate())
	errs = multierr.Append(errs, c.Search.Params().Validate())
	if lc, err := c.LayoutConfig(); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		errs = multierr.Append(errs, lc.Validate())
	}
	for _, p := range c.Locator.Placeholders {
		if _, err := p.Pattern(c.Locator.Namespace); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Load reads a YAML file over the defaults and validates the result. Lists
// replace the defaults; footprint entries are merged into them.
func Load(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return cfg, nil
}

// Write encodes cfg as YAML.
func (c *Config) Write(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
