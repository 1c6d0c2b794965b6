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

package selector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/practical-formal-methods/jumptab/failure"
)

// Signature is a parsed function signature with canonical parameter types.
type Signature struct {
	Name   string
	Params []string
}

// Canonical returns the string that is hashed to derive the selector.
func (s Signature) Canonical() string {
	return s.Name + "(" + strings.Join(s.Params, ",") + ")"
}

func (s Signature) String() string {
	return s.Canonical()
}

// typeAliases maps shorthand spellings to their canonical form.
var typeAliases = map[string]string{
	"uint": "uint256",
	"int":  "int256",
	"byte": "bytes1",
}

// ParseSignature parses "name(type [name], ...)" into a Signature. Parameter
// names, data locations and spacing are dropped and type aliases are
// canonicalised. Anything after the closing parenthesis is ignored so that
// interface definitions with return clauses are accepted.
func ParseSignature(raw string) (Signature, error) {
	p := &sigParser{src: strings.TrimSpace(raw)}
	sig, err := p.signature()
	if err != nil {
		var cfgErr *failure.ConfigurationError
		if errors.As(err, &cfgErr) {
			return Signature{}, fmt.Errorf("signature %q: %w", raw, err)
		}
		return Signature{}, failure.Configuration(failure.MalformedSignature, raw, "%v", err)
	}
	return sig, nil
}

// ParseInterface extracts every "#define function" line of a Huff interface.
func ParseInterface(r io.Reader) ([]Signature, error) {
	const prefix = "#define function"
	var sigs []Signature
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(text, prefix) {
			continue
		}
		sig, err := ParseSignature(strings.TrimPrefix(text, prefix))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		sigs = append(sigs, sig)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sigs, nil
}

type sigParser struct {
	src string
	pos int
}

func (p *sigParser) signature() (Signature, error) {
	name := p.ident()
	if name == "" {
		return Signature{}, fmt.Errorf("missing function name at %d", p.pos)
	}
	p.space()
	if !p.accept('(') {
		return Signature{}, fmt.Errorf("expected '(' after %q", name)
	}
	params, err := p.list()
	if err != nil {
		return Signature{}, err
	}
	return Signature{Name: name, Params: params}, nil
}

// list parses comma separated types up to and including the closing ')'.
func (p *sigParser) list() ([]string, error) {
	params := []string{}
	p.space()
	if p.accept(')') {
		return params, nil
	}
	for {
		typ, err := p.typ()
		if err != nil {
			return nil, err
		}
		params = append(params, typ)
		// Data locations and parameter names.
		p.space()
		for p.ident() != "" {
			p.space()
		}
		if p.accept(',') {
			continue
		}
		if p.accept(')') {
			return params, nil
		}
		return nil, fmt.Errorf("unexpected %q at %d", p.rest(), p.pos)
	}
}

func (p *sigParser) typ() (string, error) {
	p.space()
	var base string
	if p.accept('(') {
		components, err := p.list()
		if err != nil {
			return "", err
		}
		base = "(" + strings.Join(components, ",") + ")"
	} else {
		word := p.ident()
		if word == "" {
			return "", fmt.Errorf("expected type at %d", p.pos)
		}
		canonical, err := canonicalType(word)
		if err != nil {
			return "", err
		}
		base = canonical
	}
	for p.accept('[') {
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		size := p.src[start:p.pos]
		if size != "" {
			if n, err := strconv.Atoi(size); err != nil || n == 0 {
				return "", fmt.Errorf("invalid array length %q", size)
			}
		}
		if !p.accept(']') {
			return "", fmt.Errorf("unterminated array at %d", p.pos)
		}
		base += "[" + size + "]"
	}
	return base, nil
}

// canonicalType resolves an elementary type through the ABI type parser. The
// parser matches a prefix of its input, so the result must spell the word
// back exactly.
func canonicalType(word string) (string, error) {
	if alias, ok := typeAliases[word]; ok {
		word = alias
	}
	typ, err := abi.NewType(word, "", nil)
	if err != nil {
		return "", failure.Configuration(failure.UnknownType, word, "%v", err)
	}
	var want string
	switch typ.T {
	case abi.IntTy:
		want = "int" + strconv.Itoa(typ.Size)
	case abi.UintTy:
		want = "uint" + strconv.Itoa(typ.Size)
	case abi.FixedBytesTy:
		want = "bytes" + strconv.Itoa(typ.Size)
	case abi.BytesTy:
		want = "bytes"
	case abi.StringTy:
		want = "string"
	case abi.BoolTy:
		want = "bool"
	case abi.AddressTy:
		want = "address"
	case abi.FunctionTy:
		want = "function"
	}
	if (typ.T == abi.IntTy || typ.T == abi.UintTy) && (typ.Size%8 != 0 || typ.Size < 8 || typ.Size > 256) {
		return "", failure.Configuration(failure.UnknownType, word, "invalid size %d", typ.Size)
	}
	if want != word {
		return "", failure.Configuration(failure.UnknownType, word, "")
	}
	return typ.String(), nil
}

func (p *sigParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		isLetter := c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && p.pos > start) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *sigParser) space() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *sigParser) accept(c byte) bool {
	p.space()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *sigParser) rest() string {
	if p.pos >= len(p.src) {
		return "<end>"
	}
	return p.src[p.pos:]
}
