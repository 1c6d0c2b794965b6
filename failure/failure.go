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

// Package failure holds the error taxonomy shared by the catalogue, the
// evaluator and the layout verifier.
package failure

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

const (
	DuplicateSelector    = "duplicate-selector"
	DuplicateName        = "duplicate-name"
	MalformedSignature   = "malformed-signature"
	UnknownType          = "unknown-type"
	InvalidFootprint     = "invalid-footprint"
	OverlappingFootprint = "overlapping-footprint"
	SlotOutOfRange       = "slot-out-of-range"
	AliasedBuckets       = "aliased-buckets"
	InvalidScheme        = "invalid-scheme"
	InvalidParameters    = "invalid-parameters"
)

// ConfigurationError is fatal and never retried. Entity names the offending
// signature, slot or parameter and Value carries the numeric detail, if any.
type ConfigurationError struct {
	Cause  string
	Entity string
	Value  string
}

func Configuration(cause, entity, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{
		Cause:  cause,
		Entity: entity,
		Value:  fmt.Sprintf(format, args...),
	}
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%v: %v: %v", ErrConfiguration, e.Cause, e.Entity)
	}
	return fmt.Sprintf("%v: %v: %v (%v)", ErrConfiguration, e.Cause, e.Entity, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// HasCause reports whether err carries a ConfigurationError with the given cause.
func HasCause(err error, cause string) bool {
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		return false
	}
	return cfgErr.Cause == cause
}
