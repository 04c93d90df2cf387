package aterm

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"
)

// Parse reads a term in the textual format produced by TermRef.String:
//
//	term  ::= number | name | name "(" term ("," term)* ")"
//	name  ::= ident | quoted string
//
// Symbols are interned with the arity implied by the argument list, so
// parse after print returns the address of the original term.
func (tp *ThreadPool) Parse(text string) (Term, error) {
	if tp.closed {
		return Term{}, ErrUnregisteredThread
	}
	p := &termParser{tp: tp, input: text}
	t, err := p.parseTerm()
	if err != nil {
		return Term{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		t.Drop()
		return Term{}, p.errf("trailing input %q", p.input[p.pos:])
	}
	return t, nil
}

type termParser struct {
	tp    *ThreadPool
	input string
	pos   int
}

func (p *termParser) errf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s at offset %d", ErrParse, msg, p.pos)
}

func (p *termParser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *termParser) parseTerm() (Term, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return Term{}, p.errf("unexpected end of input")
	}
	switch c := p.input[p.pos]; {
	case c >= '0' && c <= '9':
		return p.parseNumber()
	case c == '"':
		name, err := p.parseQuoted()
		if err != nil {
			return Term{}, err
		}
		return p.parseApplication(name)
	case isIdentStart(c):
		return p.parseApplication(p.scanIdent())
	default:
		return Term{}, p.errf("unexpected character %q", c)
	}
}

func (p *termParser) parseNumber() (Term, error) {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	value, err := strconv.ParseUint(p.input[start:p.pos], 10, 64)
	if err != nil {
		return Term{}, p.errf("numeric literal %q out of range", p.input[start:p.pos])
	}
	return p.tp.MakeNumeric(value)
}

func (p *termParser) parseQuoted() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case '\\':
			p.pos += 2
		case '"':
			p.pos++
			name, err := strconv.Unquote(p.input[start:p.pos])
			if err != nil {
				return "", p.errf("malformed quoted name %q", p.input[start:p.pos])
			}
			return name, nil
		default:
			p.pos++
		}
	}
	return "", p.errf("unterminated quoted name")
}

func (p *termParser) scanIdent() string {
	start := p.pos
	for p.pos < len(p.input) && isIdentPart(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

// parseApplication parses an optional argument list and interns the
// head symbol with the implied arity.
func (p *termParser) parseApplication(name string) (Term, error) {
	var children []Term
	dropChildren := func() {
		for i := range children {
			children[i].Drop()
		}
	}

	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '(' {
		p.pos++
		for {
			child, err := p.parseTerm()
			if err != nil {
				dropChildren()
				return Term{}, err
			}
			children = append(children, child)
			p.skipSpace()
			if p.pos >= len(p.input) {
				dropChildren()
				return Term{}, p.errf("unterminated argument list")
			}
			if p.input[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.input[p.pos] == ')' {
				p.pos++
				break
			}
			dropChildren()
			return Term{}, p.errf("expected ',' or ')', found %q", p.input[p.pos])
		}
	}

	arity, err := safecast.Conv[uint32](len(children))
	if err != nil {
		dropChildren()
		return Term{}, p.errf("argument list too long")
	}
	sym, err := p.tp.Intern(name, arity)
	if err != nil {
		dropChildren()
		return Term{}, err
	}
	defer sym.Drop()

	refs := make([]TermRef, len(children))
	for i := range children {
		refs[i] = children[i].Borrow()
	}
	t, err := p.tp.MakeApplication(sym.Ref(), refs...)
	dropChildren()
	if err != nil {
		return Term{}, err
	}
	return t, nil
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
