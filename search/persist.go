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

package search

import (
	"fmt"
	"io"
	"os"
)

// WriteSequence writes seq as binary digits, newest bit first.
func WriteSequence(w io.Writer, seq BitSeq) error {
	_, err := fmt.Fprintln(w, seq.String())
	return err
}

// SaveSequence writes seq to path. The file is closed on every return path.
func SaveSequence(path string, seq BitSeq) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteSequence(f, seq)
}

// LoadSequence reads a sequence written by SaveSequence.
func LoadSequence(path string) (BitSeq, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BitSeq{}, err
	}
	seq, err := ParseBitSeq(string(data))
	if err != nil {
		return BitSeq{}, fmt.Errorf("%v: %w", path, err)
	}
	return seq, nil
}
