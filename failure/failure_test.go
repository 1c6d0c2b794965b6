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

package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationError(t *testing.T) {
	err := Configuration(InvalidFootprint, "permit", "footprint %d", 0)
	assert.Equal(t, "configuration error: invalid-footprint: permit (footprint 0)", err.Error())
	assert.True(t, errors.Is(err, ErrConfiguration))

	bare := &ConfigurationError{Cause: DuplicateName, Entity: "transfer"}
	assert.Equal(t, "configuration error: duplicate-name: transfer", bare.Error())
}

func TestHasCause(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", Configuration(InvalidScheme, "mask", ""))
	assert.True(t, HasCause(wrapped, InvalidScheme))
	assert.False(t, HasCause(wrapped, InvalidParameters))
	assert.False(t, HasCause(errors.New("plain"), InvalidScheme))
	assert.False(t, HasCause(nil, InvalidScheme))
}
