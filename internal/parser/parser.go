// Package parser implements the cbuf schema grammar (spec §4.C): a
// recursive-descent parser that turns a token.Token stream from the lexer
// into an ast.File. It never resolves types or folds expressions itself —
// expression trees are handed unevaluated to internal/eval, and type names
// are resolved later by internal/symtab — but it does enforce the grammar's
// structural policies (duplicate names, unknown annotations, unqualified
// array forms) as it recognizes them.
package parser

import (
	"github.com/bearlytools/cbuf/internal/ast"
	"github.com/bearlytools/cbuf/internal/cerr"
	"github.com/bearlytools/cbuf/internal/lexer"
	"github.com/bearlytools/cbuf/internal/token"
)

// Parser consumes tokens from a lexer.Lexer and builds an ast.File.
type Parser struct {
	lex *lexer.Lexer
}

// New creates a Parser over src.
func New(src string) *Parser {
	return &Parser{lex: lexer.New(src)}
}

// Parse parses a complete schema file.
func Parse(src string) (*ast.File, error) {
	return New(src).ParseFile()
}

func (p *Parser) next() (token.Token, error) {
	t, err := p.lex.Next()
	return t, lexErr(err)
}

func (p *Parser) peek() (token.Token, error) {
	t, err := p.lex.Peek()
	return t, lexErr(err)
}

// lexErr gives a lexer failure the cerr.LexError kind, keeping its position.
func lexErr(err error) error {
	if le, ok := err.(*lexer.Error); ok {
		return cerr.At(cerr.LexError, le.Line, le.Column, "%s", le.Msg)
	}
	return err
}

func perr(t token.Token, format string, args ...any) error {
	return cerr.At(cerr.ParseError, t.Line, t.Column, format, args...)
}

// expect consumes the next token and checks its Kind.
func (p *Parser) expect(k token.Kind) (token.Token, error) {
	t, err := p.next()
	if err != nil {
		return t, err
	}
	if t.Kind != k {
		return t, perr(t, "expected %s, got %s", k, t.Kind)
	}
	return t, nil
}

// expectName consumes the next token and checks that it is an Ident. It
// does not reject keywords used as names.
func (p *Parser) expectName() (token.Token, error) {
	t, err := p.expect(token.Ident)
	if err != nil {
		return t, err
	}
	return t, nil
}

// ParseFile parses every namespace block, struct, enum and const at the top
// level (spec §4.C: "top level = namespace blocks, struct defs, enum defs,
// const decls; outside any namespace = global").
func (p *Parser) ParseFile() (*ast.File, error) {
	f := &ast.File{Global: &ast.Namespace{Name: ""}}
	seenNS := map[string]bool{}

	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.Kind == token.EOF {
			break
		}
		if t.Kind != token.Ident {
			return nil, perr(t, "unexpected token %s at top level", t.Kind)
		}
		switch t.Text {
		case "namespace":
			ns, err := p.parseNamespace()
			if err != nil {
				return nil, err
			}
			if seenNS[ns.Name] {
				return nil, perr(t, "duplicate namespace %q", ns.Name)
			}
			seenNS[ns.Name] = true
			f.Namespaces = append(f.Namespaces, ns)
		case "struct":
			sd, err := p.parseStruct()
			if err != nil {
				return nil, err
			}
			f.Global.Structs = append(f.Global.Structs, sd)
		case "enum":
			ed, err := p.parseEnum()
			if err != nil {
				return nil, err
			}
			f.Global.Enums = append(f.Global.Enums, ed)
		case "const":
			cd, err := p.parseConst()
			if err != nil {
				return nil, err
			}
			f.Global.Consts = append(f.Global.Consts, cd)
		default:
			return nil, perr(t, "unexpected identifier %q at top level", t.Text)
		}
	}

	if err := checkDuplicates(f.Global); err != nil {
		return nil, err
	}
	for _, ns := range f.Namespaces {
		if err := checkDuplicates(ns); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func checkDuplicates(ns *ast.Namespace) error {
	seen := map[string]bool{}
	for _, sd := range ns.Structs {
		if seen[sd.Name] {
			return cerr.At(cerr.ParseError, sd.Pos.Line, sd.Pos.Column,
				"duplicate struct name %q in namespace %q", sd.Name, ns.Name)
		}
		seen[sd.Name] = true
	}
	for _, ed := range ns.Enums {
		if seen[ed.Name] {
			return cerr.At(cerr.ParseError, ed.Pos.Line, ed.Pos.Column,
				"duplicate type name %q in namespace %q", ed.Name, ns.Name)
		}
		seen[ed.Name] = true
	}
	return nil
}

func (p *Parser) parseNamespace() (*ast.Namespace, error) {
	if _, err := p.next(); err != nil { // 'namespace'
		return nil, err
	}
	nameTok, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	ns := &ast.Namespace{Name: nameTok.Text}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.Kind == token.RBrace {
			p.next()
			return ns, nil
		}
		if t.Kind != token.Ident {
			return nil, perr(t, "unexpected token %s inside namespace %q", t.Kind, ns.Name)
		}
		switch t.Text {
		case "struct":
			sd, err := p.parseStruct()
			if err != nil {
				return nil, err
			}
			ns.Structs = append(ns.Structs, sd)
		case "enum":
			ed, err := p.parseEnum()
			if err != nil {
				return nil, err
			}
			ns.Enums = append(ns.Enums, ed)
		case "const":
			cd, err := p.parseConst()
			if err != nil {
				return nil, err
			}
			ns.Consts = append(ns.Consts, cd)
		case "namespace":
			return nil, perr(t, "nested namespaces are not supported")
		default:
			return nil, perr(t, "unexpected identifier %q inside namespace %q", t.Text, ns.Name)
		}
	}
}

func (p *Parser) parseStruct() (*ast.StructDef, error) {
	if _, err := p.next(); err != nil { // 'struct'
		return nil, err
	}
	nameTok, err := p.expectName()
	if err != nil {
		return nil, err
	}
	sd := &ast.StructDef{
		Name: nameTok.Text,
		Pos:  ast.Position{Line: nameTok.Line, Column: nameTok.Column},
	}

	// Optional @naked annotation before the body.
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if t.Kind == token.At {
		p.next()
		ann, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if ann.Text != "naked" {
			return nil, perr(ann, "unknown annotation @%s on struct %q", ann.Text, sd.Name)
		}
		sd.Naked = true
	}

	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.Kind == token.RBrace {
			p.next()
			return sd, nil
		}
		el, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		sd.Elements = append(sd.Elements, el)
	}
}

func (p *Parser) parseTypeRef() (ast.TypeRef, string, error) {
	nameTok, err := p.expectName()
	if err != nil {
		return ast.TypeRef{}, "", err
	}
	rawFirst := nameTok.Text
	t := ast.TypeRef{Name: nameTok.Text, Pos: ast.Position{Line: nameTok.Line, Column: nameTok.Column}}

	pk, err := p.peek()
	if err != nil {
		return ast.TypeRef{}, "", err
	}
	if pk.Kind == token.ColonColon {
		p.next()
		nameTok2, err := p.expectName()
		if err != nil {
			return ast.TypeRef{}, "", err
		}
		t.Namespace = rawFirst
		t.Name = nameTok2.Text
	}
	return t, rawFirst, nil
}

func (p *Parser) parseElement() (*ast.Element, error) {
	typeRef, rawFirst, err := p.parseTypeRef()
	if err != nil {
		return nil, err
	}

	nameTok, err := p.expectName()
	if err != nil {
		return nil, err
	}
	el := &ast.Element{
		Name: nameTok.Text,
		Type: typeRef,
		Pos:  ast.Position{Line: nameTok.Line, Column: nameTok.Column},
	}
	// short_string is recognized only as an unqualified primitive spelling.
	if !typeRef.IsQualified() && rawFirst == "short_string" {
		el.Type.Name = "short_string"
	}

	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if t.Kind == token.LBracket {
		p.next()
		pk, err := p.peek()
		if err != nil {
			return nil, err
		}
		arr := &ast.ArraySuffix{Pos: ast.Position{Line: pk.Line, Column: pk.Column}}
		if pk.Kind != token.RBracket {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			arr.Size = expr
		}
		if _, err := p.expect(token.RBracket); err != nil {
			return nil, err
		}
		el.Array = arr
	}

	t, err = p.peek()
	if err != nil {
		return nil, err
	}
	if t.Kind == token.At {
		p.next()
		ann, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if ann.Text != "compact" {
			return nil, perr(ann, "unknown annotation @%s on element %q", ann.Text, el.Name)
		}
		if el.Array == nil || el.Array.Size == nil {
			return nil, perr(ann, "@compact requires a fixed array size on element %q", el.Name)
		}
		el.Compact = true
	}

	t, err = p.peek()
	if err != nil {
		return nil, err
	}
	if t.Kind == token.Assign {
		p.next()
		expr, err := p.parseDefaultValue()
		if err != nil {
			return nil, err
		}
		el.Default = expr
	}

	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	return el, nil
}

// parseDefaultValue handles the value forms a default may take: a constant
// arithmetic expression, a bool/string literal (which eval never folds,
// since those aren't arithmetic), or a brace-enclosed array initializer
// list (e.g. `u8 n[4] = {1,2,3,4};`), which the grammar accepts for an
// array-typed element even though the schema builder does not preserve
// its elements (spec: array defaults only need to parse, not round-trip).
func (p *Parser) parseDefaultValue() (ast.Expr, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if t.Kind == token.String {
		p.next()
		return &stringLit{Val: t.StrVal, Pos: ast.Position{Line: t.Line, Column: t.Column}}, nil
	}
	if t.Kind == token.Ident && (t.Text == "true" || t.Text == "false") {
		p.next()
		return &boolLit{Val: t.Text == "true", Pos: ast.Position{Line: t.Line, Column: t.Column}}, nil
	}
	if t.Kind == token.LBrace {
		return p.parseArrayLit()
	}
	return p.parseExpr()
}

// parseArrayLit parses a brace-enclosed, comma-separated list of default
// values, allowing a trailing comma and an empty `{}`.
func (p *Parser) parseArrayLit() (ast.Expr, error) {
	open, err := p.next() // '{'
	if err != nil {
		return nil, err
	}
	lit := &arrayLit{Pos: ast.Position{Line: open.Line, Column: open.Column}}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.Kind == token.RBrace {
			p.next()
			return lit, nil
		}
		elem, err := p.parseDefaultValue()
		if err != nil {
			return nil, err
		}
		lit.Elems = append(lit.Elems, elem)

		t, err = p.peek()
		if err != nil {
			return nil, err
		}
		if t.Kind == token.Comma {
			p.next()
		}
	}
}

// stringLit and boolLit are default-value literal forms outside the
// arithmetic grammar internal/eval folds; schema's descriptor emitter
// recognizes them through the StringLit and BoolLit interfaces below.
//
// Each literal type embeds a nil ast.Expr: ast.Expr's marker method is
// unexported, so a type outside package ast satisfies it only through the
// promoted method of an embedded ast.Expr.
type stringLit struct {
	ast.Expr
	Val string
	Pos ast.Position
}

// StringValue returns the literal's decoded value. It is exported so the
// schema package can read it through the StringLit interface.
func (s *stringLit) StringValue() string   { return s.Val }
func (s *stringLit) Position() ast.Position { return s.Pos }

type boolLit struct {
	ast.Expr
	Val bool
	Pos ast.Position
}

func (b *boolLit) BoolValue() bool      { return b.Val }
func (b *boolLit) Position() ast.Position { return b.Pos }

// StringLit and BoolLit let other packages recognize and unwrap these
// literal forms without depending on parser's unexported types.
type StringLit interface {
	ast.Expr
	StringValue() string
}

type BoolLit interface {
	ast.Expr
	BoolValue() bool
}

var _ StringLit = (*stringLit)(nil)
var _ BoolLit = (*boolLit)(nil)

// arrayLit is a brace-enclosed default-value initializer list.
type arrayLit struct {
	ast.Expr
	Elems []ast.Expr
	Pos   ast.Position
}

func (a *arrayLit) Position() ast.Position { return a.Pos }

// Elements returns the literal's parsed (but unfolded) element
// expressions.
func (a *arrayLit) Elements() []ast.Expr { return a.Elems }

// ArrayLit lets the schema package recognize a brace-enclosed default
// without depending on parser's unexported type.
type ArrayLit interface {
	ast.Expr
	Elements() []ast.Expr
}

var _ ArrayLit = (*arrayLit)(nil)

// Expression grammar: additive := multiplicative (('+'|'-') multiplicative)*
//                      multiplicative := unary (('*'|'/') unary)*
//                      unary := '-' unary | primary
//                      primary := INT | FLOAT | IDENT | '(' additive ')'

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseAdditive() }

func (p *Parser) parseAdditive() (ast.Expr, error) {
	x, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		var op ast.BinOp
		switch t.Kind {
		case token.Plus:
			op = ast.Add
		case token.Minus:
			op = ast.Sub
		default:
			return x, nil
		}
		p.next()
		y, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: op, X: x, Y: y, Pos: ast.Position{Line: t.Line, Column: t.Column}}
	}
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		var op ast.BinOp
		switch t.Kind {
		case token.Star:
			op = ast.Mul
		case token.Slash:
			op = ast.Div
		default:
			return x, nil
		}
		p.next()
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: op, X: x, Y: y, Pos: ast.Position{Line: t.Line, Column: t.Column}}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}
	if t.Kind == token.Minus {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{X: x, Pos: ast.Position{Line: t.Line, Column: t.Column}}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case token.Int:
		return &ast.IntLit{Val: t.IntVal, Pos: ast.Position{Line: t.Line, Column: t.Column}}, nil
	case token.Float:
		return &ast.FloatLit{Val: t.FloatVal, Pos: ast.Position{Line: t.Line, Column: t.Column}}, nil
	case token.Ident:
		return &ast.Ident{Name: t.Text, Pos: ast.Position{Line: t.Line, Column: t.Column}}, nil
	case token.LParen:
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return x, nil
	default:
		return nil, perr(t, "unexpected token %s in expression", t.Kind)
	}
}

func (p *Parser) parseEnum() (*ast.EnumDef, error) {
	if _, err := p.next(); err != nil { // 'enum'
		return nil, err
	}
	nameTok, err := p.expectName()
	if err != nil {
		return nil, err
	}
	ed := &ast.EnumDef{Name: nameTok.Text, Pos: ast.Position{Line: nameTok.Line, Column: nameTok.Column}}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}

	next := int64(0)
	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		if t.Kind == token.RBrace {
			p.next()
			return ed, nil
		}
		vnTok, err := p.expectName()
		if err != nil {
			return nil, err
		}
		ev := &ast.EnumValue{Name: vnTok.Text, Pos: ast.Position{Line: vnTok.Line, Column: vnTok.Column}}

		pk, err := p.peek()
		if err != nil {
			return nil, err
		}
		if pk.Kind == token.Assign {
			p.next()
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			// Enum values must fold to a plain int literal or simple
			// expression; full const folding happens later via eval, so we
			// stash the expression and let the caller (schema builder) fold
			// it. For the common case of a literal we resolve eagerly here
			// so auto-increment continues from the right value.
			if lit, ok := expr.(*ast.IntLit); ok {
				ev.Value = lit.Val
			}
			ev.Explicit = true
			ev.ValueExpr = expr
		} else {
			ev.Value = next
		}
		next = ev.Value + 1

		for i := range ed.Values {
			if ed.Values[i].Name == ev.Name {
				return nil, perr(vnTok, "duplicate enum value name %q in enum %q", ev.Name, ed.Name)
			}
		}
		ed.Values = append(ed.Values, ev)

		pk, err = p.peek()
		if err != nil {
			return nil, err
		}
		if pk.Kind == token.Comma {
			p.next()
		}
	}
}

func (p *Parser) parseConst() (*ast.ConstDef, error) {
	if _, err := p.next(); err != nil { // 'const'
		return nil, err
	}
	typeRef, _, err := p.parseTypeRef()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	return &ast.ConstDef{
		Name: nameTok.Text,
		Type: typeRef,
		Expr: expr,
		Pos:  ast.Position{Line: nameTok.Line, Column: nameTok.Column},
	}, nil
}
