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

// Package search finds the packed destination constant of a dispatch table
// by depth-first search over bit sequences.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/practical-formal-methods/jumptab/dispatch"
	"github.com/practical-formal-methods/jumptab/failure"
)

var (
	// ErrInfeasible means the decision tree was exhausted below the target length.
	ErrInfeasible = errors.New("search infeasible")
	// ErrBudgetExhausted means the iteration budget ran out first.
	ErrBudgetExhausted = errors.New("search budget exhausted")
)

// InfeasibleError is the definitive negative result of a search.
type InfeasibleError struct {
	Cap        int
	Target     int
	Iterations uint64
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("%v: no valid %d bit sequence within cap %d after %d iterations", ErrInfeasible, e.Target, e.Cap, e.Iterations)
}

func (e *InfeasibleError) Unwrap() error {
	return ErrInfeasible
}

// rootBit marks the empty sequence at the bottom of the stack.
const rootBit = -1

// SearchNode is one step of the current path: the decision that produced it
// and the resulting sequence.
type SearchNode struct {
	Bit int
	Seq BitSeq
}

// Progress is reported every ProgressInterval iterations.
type Progress struct {
	Iterations uint64
	Depth      int
	Seq        BitSeq
}

// Options control how long a search may run and how it reports.
type Options struct {
	// Budget limits iterations; zero means unlimited.
	Budget           uint64
	ProgressInterval uint64
	OnProgress       func(Progress)
}

const defaultProgressInterval = 100_000

// Searcher explores bit sequences smallest-bits-first, so repeated runs
// return the same sequence.
type Searcher struct {
	params    Params
	validator *validator
	opts      Options

	iterations    uint64
	numAccepted   uint64
	numRejected   uint64
	maxDepth      int
	failureCauses map[string]uint64
	time          time.Duration
	startTime     time.Time
}

// NewSearcher prepares a search over the given buckets. The target length
// must produce exactly one window per bucket.
func NewSearcher(buckets dispatch.Buckets, params Params, opts Options) (*Searcher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if n := params.Windows(params.Target); n != len(buckets) {
		return nil, failure.Configuration(failure.InvalidParameters, "target",
			"%d bits give %d windows for %d buckets", params.Target, n, len(buckets))
	}
	if opts.ProgressInterval == 0 {
		opts.ProgressInterval = defaultProgressInterval
	}
	return &Searcher{
		params:        params,
		validator:     newValidator(buckets, params),
		opts:          opts,
		failureCauses: map[string]uint64{},
	}, nil
}

// Search runs until the first sequence of the target length passes the
// validity check, the tree is exhausted, the budget runs out or ctx ends.
func (s *Searcher) Search(ctx context.Context) (BitSeq, error) {
	s.startTimer()
	defer s.stopTimer()

	stack := []SearchNode{{Bit: rootBit}}
	for {
		s.iterations++
		if s.opts.Budget != 0 && s.iterations > s.opts.Budget {
			return BitSeq{}, fmt.Errorf("%w: %d iterations at depth %d", ErrBudgetExhausted, s.opts.Budget, len(stack)-1)
		}
		select {
		case <-ctx.Done():
			return BitSeq{}, ctx.Err()
		default:
		}
		if s.iterations%s.opts.ProgressInterval == 0 {
			s.reportProgress(stack[len(stack)-1].Seq)
		}

		top := stack[len(stack)-1].Seq
		extended := false
		for bit := uint(0); bit <= 1; bit++ {
			next := top.Append(bit)
			if !s.accept(next) {
				continue
			}
			if next.Size == s.params.Target {
				s.recordSolution(next)
				return next, nil
			}
			stack = append(stack, SearchNode{Bit: int(bit), Seq: next})
			extended = true
			break
		}
		if extended {
			continue
		}

		// Backtrack to the nearest 0 decision and flip it.
		for {
			for stack[len(stack)-1].Bit == 1 {
				stack = stack[:len(stack)-1]
			}
			if stack[len(stack)-1].Bit == rootBit {
				return BitSeq{}, &InfeasibleError{
					Cap:        s.params.Cap,
					Target:     s.params.Target,
					Iterations: s.iterations,
				}
			}
			flipped := stack[len(stack)-2].Seq.Append(1)
			stack[len(stack)-1] = SearchNode{Bit: 1, Seq: flipped}
			if s.accept(flipped) {
				if flipped.Size == s.params.Target {
					s.recordSolution(flipped)
					return flipped, nil
				}
				break
			}
		}
	}
}

func (s *Searcher) accept(seq BitSeq) bool {
	res := s.validator.check(seq)
	if !res.valid {
		s.numRejected++
		s.failureCauses[res.failureCause]++
		return false
	}
	s.numAccepted++
	if seq.Size > s.maxDepth {
		s.maxDepth = seq.Size
	}
	return true
}

// Valid reports whether seq passes the validity check on its own.
func (s *Searcher) Valid(seq BitSeq) bool {
	return s.validator.check(seq).valid
}

func (s *Searcher) reportProgress(seq BitSeq) {
	log.Info("Searching dispatch sequence", "iterations", s.iterations, "depth", seq.Size, "maxdepth", s.maxDepth, "seq", seq)
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(Progress{Iterations: s.iterations, Depth: seq.Size, Seq: seq})
	}
}

func (s *Searcher) recordSolution(seq BitSeq) {
	log.Info("Found dispatch sequence", "seq", seq, "iterations", s.iterations, "elapsed", time.Since(s.startTime))
}

func (s *Searcher) startTimer() {
	s.startTime = time.Now()
}

func (s *Searcher) stopTimer() {
	s.time += time.Since(s.startTime)
}

func (s *Searcher) Iterations() uint64 {
	return s.iterations
}

func (s *Searcher) NumAccepted() uint64 {
	return s.numAccepted
}

func (s *Searcher) NumRejected() uint64 {
	return s.numRejected
}

func (s *Searcher) MaxDepth() int {
	return s.maxDepth
}

func (s *Searcher) Time() time.Duration {
	return s.time
}

func (s *Searcher) FailureCauses() map[string]uint64 {
	fcs := map[string]uint64{}
	for cause, cnt := range s.failureCauses {
		fcs[cause] = cnt
	}
	return fcs
}
