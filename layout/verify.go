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

package layout

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"

	"github.com/practical-formal-methods/jumptab/decoder"
	"github.com/practical-formal-methods/jumptab/selector"
	jvm "github.com/practical-formal-methods/jumptab/vm"
)

type ViolationKind int

const (
	TerminalOwned ViolationKind = iota
	SlotBeyondCode
	MissingJumpdest
	PushDataJumpdest
	ContinuationJumpdest
	NoMatchMismatch
	ShadowedEntry
)

func (k ViolationKind) String() string {
	switch k {
	case TerminalOwned:
		return "terminal-owned"
	case SlotBeyondCode:
		return "slot-beyond-code"
	case MissingJumpdest:
		return "missing-jumpdest"
	case PushDataJumpdest:
		return "push-data-jumpdest"
	case ContinuationJumpdest:
		return "continuation-jumpdest"
	case NoMatchMismatch:
		return "no-match-mismatch"
	case ShadowedEntry:
		return "shadowed-entry"
	}
	return fmt.Sprintf("ViolationKind(%d)", int(k))
}

// Violation is one defect of the bytecode. Expected and Actual are nil when
// the message says it all. Hints are the padding deltas that would move the
// nearest JUMPDESTs onto the slot offset.
type Violation struct {
	Kind     ViolationKind
	Slot     int
	Offset   int
	Owner    SlotOwner
	Message  string
	Expected []byte
	Actual   []byte
	Hints    []int
}

func (v Violation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "slot 0x%02x (%v @ %d): %v", v.Slot, v.Owner, v.Offset, v.Message)
	if v.Expected != nil || v.Actual != nil {
		fmt.Fprintf(&b, ": expected %v, found %v", hexutil.Encode(v.Expected), hexutil.Encode(v.Actual))
	}
	if len(v.Hints) > 0 {
		fmt.Fprintf(&b, "; add %v padding", FormatHints(v.Hints))
	}
	return b.String()
}

// FormatHints renders hints the way they are applied: "2/-1".
func FormatHints(hints []int) string {
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = strconv.Itoa(h)
	}
	return strings.Join(parts, "/")
}

// Report collects every violation of one run.
type Report struct {
	Owners     []SlotOwner
	Violations []Violation
}

func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

func (r *Report) add(v Violation) {
	log.Debug("Layout violation", "slot", v.Slot, "kind", v.Kind, "offset", v.Offset)
	r.Violations = append(r.Violations, v)
}

const (
	maxHintDistance = 100
	maxHints        = 3
)

// nearestJumpdests scans outwards from offset, one byte either side at a
// time, and returns up to three padding deltas.
func nearestJumpdests(code []byte, set *jvm.InstructionSet, offset int) []int {
	var hints []int
	for d := 1; d <= maxHintDistance && len(hints) < maxHints; d++ {
		for _, delta := range []int{d, -d} {
			at := offset + delta
			if at >= 0 && at < len(code) && set[code[at]].IsTarget() {
				hints = append(hints, -delta)
				if len(hints) == maxHints {
					break
				}
			}
		}
	}
	return hints
}

// Verify checks code slot by slot against the ownership the catalogue
// implies. Configuration errors are returned as errors; bytecode defects are
// collected in the report, at most one per slot plus the terminal check.
func Verify(code []byte, cat *selector.Catalogue, cfg Config) (*Report, error) {
	owners, err := Ownership(cat, cfg)
	if err != nil {
		return nil, err
	}
	report := &Report{Owners: owners}

	terminal := cfg.Terminal()
	if owner := owners[terminal]; owner.Kind != Unowned {
		report.add(Violation{
			Kind:    TerminalOwned,
			Slot:    terminal,
			Offset:  cfg.Offset(terminal),
			Owner:   owner,
			Message: "expected unowned terminal slot",
		})
	}

	pushes, err := cfg.Instructions.PushRange()
	if err != nil {
		return nil, err
	}
	isCode := decoder.CodeBitmap(code, pushes)
	for slot, owner := range owners {
		if v, bad := checkSlot(code, isCode, cfg, slot, owner); bad {
			report.add(v)
		}
	}
	log.Debug("Verified layout", "slots", len(owners), "violations", len(report.Violations))
	return report, nil
}

func checkSlot(code []byte, isCode []bool, cfg Config, slot int, owner SlotOwner) (Violation, bool) {
	offset := cfg.Offset(slot)
	v := Violation{Slot: slot, Offset: offset, Owner: owner}
	if offset >= len(code) {
		v.Kind = SlotBeyondCode
		v.Message = fmt.Sprintf("slot starts past the end of %d bytes of code", len(code))
		return v, true
	}

	jumpdest := cfg.Instructions[code[offset]].IsTarget()
	switch {
	case owner.Kind == Continuation && jumpdest && isCode[offset]:
		v.Kind = ContinuationJumpdest
		v.Message = fmt.Sprintf("continuation of %v is a JUMPDEST", owner.Function.Name)
		return v, true
	case owner.Kind == Continuation:
		return v, false
	case !jumpdest:
		v.Kind = MissingJumpdest
		v.Message = fmt.Sprintf("missing JUMPDEST at %v slot", owner.Kind)
		v.Actual = code[offset : offset+1]
		v.Hints = nearestJumpdests(code, cfg.Instructions, offset)
		return v, true
	case !isCode[offset]:
		v.Kind = PushDataJumpdest
		v.Message = "JUMPDEST byte is push data"
		v.Hints = nearestJumpdests(code, cfg.Instructions, offset)
		return v, true
	}

	if owner.Kind == Entry {
		core := cfg.NoMatch[:cfg.NoMatchCoreLen]
		if end := offset + len(core); end <= len(code) && bytes.Equal(code[offset:end], core) {
			v.Kind = ShadowedEntry
			v.Message = fmt.Sprintf("found no-match core while expecting %v [%v]", owner.Function.Signature, owner.Function.Selector)
			v.Actual = code[offset:end]
			return v, true
		}
		return v, false
	}

	// The terminal slot may be cut short by the end of the code, but must
	// hold at least the revert itself.
	want := cfg.NoMatch
	if avail := len(code) - offset; avail < len(want) && slot == cfg.Terminal() {
		want = want[:max(avail, min(len(jvm.NoMatchCore()), len(want)))]
	}
	got := code[offset:min(offset+len(want), len(code))]
	if !bytes.Equal(got, want) {
		v.Kind = NoMatchMismatch
		v.Message = "invalid no-match slot"
		v.Expected = want
		v.Actual = got
		return v, true
	}
	return v, false
}
