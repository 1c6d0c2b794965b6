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

// Package locator finds the push operands of compiled bytecode that hold
// placeholder constants, so a deployment step can overwrite them.
package locator

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"go.uber.org/multierr"

	"github.com/practical-formal-methods/jumptab/decoder"
	"github.com/practical-formal-methods/jumptab/failure"
	jvm "github.com/practical-formal-methods/jumptab/vm"
)

// ErrNoSitesFound means a placeholder pattern never appears as a push operand.
var ErrNoSitesFound = errors.New("no sites found")

// DefaultNamespace prefixes every placeholder name before hashing.
const DefaultNamespace = "meth.immutable."

// Placeholder is a named constant compiled into the code as the trailing
// Width bytes of the keccak256 hash of its namespaced name. Var is the
// variable whose value replaces it.
type Placeholder struct {
	Name  string `yaml:"name" json:"name"`
	Width int    `yaml:"width" json:"width"`
	Var   string `yaml:"var,omitempty" json:"var,omitempty"`
}

func (p Placeholder) Preimage(namespace string) string {
	return namespace + p.Name
}

func (p Placeholder) validate() error {
	if p.Width < 1 || p.Width > common.HashLength {
		return failure.Configuration(failure.InvalidParameters, p.Name, "width %d outside 1..%d", p.Width, common.HashLength)
	}
	return nil
}

// Pattern returns the operand bytes that mark the placeholder.
func (p Placeholder) Pattern(namespace string) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	h := crypto.Keccak256Hash([]byte(p.Preimage(namespace)))
	return h[common.HashLength-p.Width:], nil
}

// Site lists the operand offsets holding one placeholder, in code order.
type Site struct {
	Placeholder Placeholder
	Pattern     []byte
	Offsets     []int
}

// MissingError reports a placeholder without sites.
type MissingError struct {
	Name     string
	Preimage string
	Pattern  []byte
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%v for %v (%q -> %v)", ErrNoSitesFound, e.Name, e.Preimage, hexutil.Encode(e.Pattern))
}

func (e *MissingError) Unwrap() error {
	return ErrNoSitesFound
}

type Options struct {
	Namespace string
	Pushes    jvm.PushRange
}

func DefaultOptions() Options {
	return Options{Namespace: DefaultNamespace, Pushes: jvm.DefaultPushRange}
}

// Locate decodes code once and matches every push operand against every
// placeholder pattern. Invalid placeholders fail the whole call. Otherwise
// every placeholder gets a Site, and those without offsets are also reported
// together in the returned error.
func Locate(code []byte, placeholders []Placeholder, opts Options) ([]Site, error) {
	var errs error
	seen := map[string]bool{}
	sites := make([]Site, 0, len(placeholders))
	for _, p := range placeholders {
		if seen[p.Name] {
			errs = multierr.Append(errs, failure.Configuration(failure.DuplicateName, p.Name, ""))
			continue
		}
		seen[p.Name] = true
		pattern, err := p.Pattern(opts.Namespace)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		sites = append(sites, Site{Placeholder: p, Pattern: pattern})
	}
	if errs != nil {
		return nil, errs
	}

	for _, push := range decoder.Pushes(code, opts.Pushes) {
		for i := range sites {
			if bytes.Equal(push.Data, sites[i].Pattern) {
				sites[i].Offsets = append(sites[i].Offsets, push.Offset)
			}
		}
	}
	for _, s := range sites {
		if len(s.Offsets) == 0 {
			errs = multierr.Append(errs, &MissingError{
				Name:     s.Placeholder.Name,
				Preimage: s.Placeholder.Preimage(opts.Namespace),
				Pattern:  s.Pattern,
			})
			continue
		}
		log.Debug("Located placeholder", "name", s.Placeholder.Name, "sites", len(s.Offsets))
	}
	return sites, errs
}
