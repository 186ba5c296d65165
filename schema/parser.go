package schema

import "fmt"

// Parse lexes and parses schema source text into a Schema, per the
// grammar in SPEC_FULL.md section 3. It does not resolve bit widths,
// containers, or named-field bindings — that is package compiler's job
// (SPEC_FULL.md section 4.1/4.4); Parse produces only syntax.
func Parse(src string) (*Schema, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseSchema()
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.peek()
	if t.kind != kind {
		return token{}, fmt.Errorf("schema: expected %s at position %d, got %q", what, t.pos, t.text)
	}
	return p.advance(), nil
}

func (p *parser) parseSchema() (*Schema, error) {
	s := &Schema{}
	for p.peek().kind == tokIdent && p.peek().text == "param" {
		p.advance()
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		name, err := p.expect(tokIdent, "parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSemi, "';'"); err != nil {
			return nil, err
		}
		s.Params = append(s.Params, Param{Type: typ, Name: name.text})
	}
	for p.peek().kind != tokEOF {
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}

func (p *parser) parseField() (Field, error) {
	pos := p.peek().pos
	typ, err := p.parseType()
	if err != nil {
		return Field{}, err
	}
	// Tolerate the prose form's literal ':' between type and name
	// (SPEC_FULL.md section 3's grammar note), in addition to bare
	// whitespace separation.
	if p.peek().kind == tokColon {
		p.advance()
	}

	f := Field{Type: typ, Pos: pos}

	if p.peek().kind == tokIdent && p.peek().text == "_" {
		p.advance()
		f.Mult = Anonymous
	} else {
		name, err := p.expect(tokIdent, "field name")
		if err != nil {
			return Field{}, err
		}
		f.Name = name.text
		f.Mult = Single

		if p.peek().kind == tokLBracket {
			p.advance()
			if p.peek().kind == tokRBracket {
				f.Mult = SequenceOpen
			} else {
				expr, err := p.parseExpr()
				if err != nil {
					return Field{}, err
				}
				f.Mult = SequenceExplicit
				f.CountExpr = expr
			}
			if _, err := p.expect(tokRBracket, "']'"); err != nil {
				return Field{}, err
			}
		}
	}

	if p.peek().kind == tokEquals {
		p.advance()
		m, err := p.parseMagic()
		if err != nil {
			return Field{}, err
		}
		f.Magic = m
	}

	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return Field{}, err
	}
	return f, nil
}

func (p *parser) parseMagic() (*Magic, error) {
	t := p.peek()
	switch t.kind {
	case tokString:
		p.advance()
		return &Magic{IsString: true, StrVal: t.text}, nil
	case tokNumber:
		p.advance()
		return &Magic{IntVal: uint64(t.num)}, nil
	default:
		return nil, fmt.Errorf("schema: expected magic literal at position %d, got %q", t.pos, t.text)
	}
}

// parseType parses one type-token: a bare integer, u<N>, f32/f64, s,
// s<N>, or a *name(args...) custom codec reference.
func (p *parser) parseType() (Type, error) {
	t := p.peek()
	pos := t.pos
	switch {
	case t.kind == tokNumber:
		p.advance()
		return Type{Kind: TypeSigned, Bits: int(t.num), Pos: pos}, nil
	case t.kind == tokStar:
		p.advance()
		name, err := p.expect(tokIdent, "custom codec name")
		if err != nil {
			return Type{}, err
		}
		if _, err := p.expect(tokLParen, "'('"); err != nil {
			return Type{}, err
		}
		var args []Expr
		if p.peek().kind != tokRParen {
			for {
				e, err := p.parseExpr()
				if err != nil {
					return Type{}, err
				}
				args = append(args, e)
				if p.peek().kind == tokComma {
					p.advance()
					continue
				}
				break
			}
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return Type{}, err
		}
		return Type{Kind: TypeCustom, CustomName: name.text, CustomArgs: args, Pos: pos}, nil
	case t.kind == tokIdent:
		switch {
		case t.text == "u":
			p.advance()
			n, err := p.expect(tokNumber, "bit width after 'u'")
			if err != nil {
				return Type{}, err
			}
			return Type{Kind: TypeUnsigned, Bits: int(n.num), Pos: pos}, nil
		case t.text == "f32":
			p.advance()
			return Type{Kind: TypeFloat32, Bits: 32, Pos: pos}, nil
		case t.text == "f64":
			p.advance()
			return Type{Kind: TypeFloat64, Bits: 64, Pos: pos}, nil
		case t.text == "s":
			p.advance()
			if p.peek().kind == tokNumber {
				n := p.advance()
				return Type{Kind: TypeFixedString, ByteLen: int(n.num), Pos: pos}, nil
			}
			return Type{Kind: TypeNulString, Pos: pos}, nil
		case len(t.text) > 1 && t.text[0] == 'u':
			// Accept a fused form like "u8" as a single identifier
			// token, since the lexer has no reason to split letters
			// from digits.
			p.advance()
			n, err := parseUintSuffix(t.text[1:])
			if err != nil {
				return Type{}, fmt.Errorf("schema: invalid unsigned type %q at %d", t.text, pos)
			}
			return Type{Kind: TypeUnsigned, Bits: n, Pos: pos}, nil
		case len(t.text) > 1 && t.text[0] == 's':
			p.advance()
			n, err := parseUintSuffix(t.text[1:])
			if err != nil {
				return Type{}, fmt.Errorf("schema: invalid string type %q at %d", t.text, pos)
			}
			return Type{Kind: TypeFixedString, ByteLen: n, Pos: pos}, nil
		}
	}
	return Type{}, fmt.Errorf("schema: unexpected token %q at position %d while parsing a type", t.text, pos)
}

func parseUintSuffix(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty suffix")
	}
	var n int
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit in suffix")
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// parseExpr parses the arithmetic expression grammar: term (('+'|'-') term)*.
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPlus || p.peek().kind == tokMinus {
		op := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		opByte := byte('+')
		if op.kind == tokMinus {
			opByte = '-'
		}
		left = BinOp{Op: opByte, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokStar || p.peek().kind == tokSlash {
		op := p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		opByte := byte('*')
		if op.kind == tokSlash {
			opByte = '/'
		}
		left = BinOp{Op: opByte, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.advance()
		return IntLit{Value: t.num}, nil
	case tokIdent:
		p.advance()
		return Ident{Name: t.text}, nil
	case tokLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("schema: unexpected token %q at position %d in expression", t.text, t.pos)
	}
}
