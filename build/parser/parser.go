// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parser builds the syntax tree of a quill program by recursive descent.
//
// Parsing stops at the first error.
package parser

import (
	"strconv"
	"strings"

	"github.com/quill-lang/quill/build/ast"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/lexer"
	"github.com/quill-lang/quill/build/source"
)

type parser struct {
	toks []source.Located[lexer.Token]
	pos  int

	// noStructLit disables structure literals.
	// Set while parsing the head of if, while and for so that
	// in `if x { ... }`, `x { ... }` is not read as a literal.
	noStructLit bool
}

// Parse a source file into a program.
// Returns the first lexical or syntax error.
func Parse(file *source.File) (*ast.Program, error) {
	toks, err := lexer.Tokenize(file)
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses a sequence of tokens ending with an EOF token.
func ParseTokens(toks []source.Located[lexer.Token]) (*ast.Program, error) {
	if len(toks) == 0 || toks[len(toks)-1].Val.Kind != lexer.EOF {
		return nil, fmterr.Errorf(fmterr.Syntax, source.Span{}, "token sequence does not end with %s", lexer.EOF)
	}
	p := &parser{toks: toks}
	return p.program()
}

// ----------------------------------------------------------------------------
// Token helpers.

func (p *parser) peek() source.Located[lexer.Token] {
	return p.toks[p.pos]
}

func (p *parser) peekKind(n int) lexer.Kind {
	if p.pos+n >= len(p.toks) {
		return lexer.EOF
	}
	return p.toks[p.pos+n].Val.Kind
}

func (p *parser) at(kind lexer.Kind) bool {
	return p.peek().Val.Kind == kind
}

func (p *parser) next() source.Located[lexer.Token] {
	tok := p.toks[p.pos]
	if tok.Val.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

// prevSpan returns the span of the last consumed token.
func (p *parser) prevSpan() source.Span {
	if p.pos == 0 {
		return p.toks[0].Span
	}
	return p.toks[p.pos-1].Span
}

// from returns the span from a start span to the last consumed token.
func (p *parser) from(start source.Span) source.Span {
	return start.To(p.prevSpan())
}

func (p *parser) accept(kind lexer.Kind) bool {
	if !p.at(kind) {
		return false
	}
	p.next()
	return true
}

func (p *parser) errorf(span source.Span, format string, a ...any) error {
	return fmterr.Errorf(fmterr.Syntax, span, format, a...)
}

func (p *parser) unexpected(what string) error {
	tok := p.peek()
	return p.errorf(tok.Span, "expected %s, found %s", what, tok.Val)
}

func (p *parser) expect(kind lexer.Kind) (source.Located[lexer.Token], error) {
	if !p.at(kind) {
		return p.peek(), p.unexpected(kind.String())
	}
	return p.next(), nil
}

func (p *parser) ident() (*ast.Ident, error) {
	tok, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	return &ast.Ident{Src: tok.Span, Name: tok.Val.Text}, nil
}

// withStructLit runs a parsing function with structure literals enabled or not.
func withStructLit[T any](p *parser, enabled bool, f func() (T, error)) (T, error) {
	prev := p.noStructLit
	p.noStructLit = !enabled
	defer func() { p.noStructLit = prev }()
	return f()
}

// list parses a comma-separated list ending with a closing token.
// The opening token has already been consumed.
// A trailing comma is accepted.
func list[T any](p *parser, closing lexer.Kind, elem func() (T, error)) ([]T, error) {
	var elts []T
	for !p.at(closing) {
		elt, err := elem()
		if err != nil {
			return nil, err
		}
		elts = append(elts, elt)
		if !p.accept(lexer.Comma) {
			break
		}
	}
	if _, err := p.expect(closing); err != nil {
		return nil, err
	}
	return elts, nil
}

// ----------------------------------------------------------------------------
// Declarations.

func (p *parser) program() (*ast.Program, error) {
	prog := &ast.Program{Src: p.peek().Span}
	for !p.at(lexer.EOF) {
		decl, err := p.decl()
		if err != nil {
			return nil, err
		}
		prog.Decls = append(prog.Decls, decl)
	}
	prog.Src = p.from(prog.Src)
	return prog, nil
}

func (p *parser) decl() (ast.Decl, error) {
	switch p.peek().Val.Kind {
	case lexer.Fn:
		return p.funcDecl()
	case lexer.Struct:
		return p.structDecl()
	case lexer.Enum:
		return p.enumDecl()
	case lexer.Type:
		return p.aliasDecl()
	}
	return nil, p.unexpected("declaration")
}

func (p *parser) param() (*ast.Param, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}
	typ, err := p.typeExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Param{Src: p.from(name.Src), Name: name, Type: typ}, nil
}

// signature parses the parameters and the optional result of a function.
func (p *parser) signature() ([]*ast.Param, ast.TypeExpr, error) {
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, nil, err
	}
	params, err := list(p, lexer.RParen, p.param)
	if err != nil {
		return nil, nil, err
	}
	if !p.accept(lexer.Arrow) {
		return params, nil, nil
	}
	result, err := p.typeExpr()
	if err != nil {
		return nil, nil, err
	}
	return params, result, nil
}

func (p *parser) funcDecl() (*ast.FuncDecl, error) {
	start := p.next().Span
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	params, result, err := p.signature()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{
		Src:    p.from(start),
		Name:   name,
		Params: params,
		Result: result,
		Body:   body,
	}, nil
}

func (p *parser) field() (*ast.Field, error) {
	param, err := p.param()
	if err != nil {
		return nil, err
	}
	return &ast.Field{Src: param.Src, Name: param.Name, Type: param.Type}, nil
}

func (p *parser) structDecl() (*ast.StructDecl, error) {
	start := p.next().Span
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	fields, err := list(p, lexer.RBrace, p.field)
	if err != nil {
		return nil, err
	}
	return &ast.StructDecl{Src: p.from(start), Name: name, Fields: fields}, nil
}

func (p *parser) variant() (*ast.Variant, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	variant := &ast.Variant{Name: name}
	if p.accept(lexer.LParen) {
		if variant.Payload, err = list(p, lexer.RParen, p.typeExpr); err != nil {
			return nil, err
		}
	}
	variant.Src = p.from(name.Src)
	return variant, nil
}

func (p *parser) enumDecl() (*ast.EnumDecl, error) {
	start := p.next().Span
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	variants, err := list(p, lexer.RBrace, p.variant)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, p.errorf(p.from(start), "enum %s has no variant", name.Name)
	}
	return &ast.EnumDecl{Src: p.from(start), Name: name, Variants: variants}, nil
}

func (p *parser) aliasDecl() (*ast.AliasDecl, error) {
	start := p.next().Span
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Assign); err != nil {
		return nil, err
	}
	typ, err := p.typeExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	return &ast.AliasDecl{Src: p.from(start), Name: name, Type: typ}, nil
}

// ----------------------------------------------------------------------------
// Types.

func (p *parser) typeExpr() (ast.TypeExpr, error) {
	tok := p.peek()
	switch tok.Val.Kind {
	case lexer.Ident:
		p.next()
		return &ast.NamedType{Src: tok.Span, Name: tok.Val.Text}, nil
	case lexer.LBracket:
		p.next()
		elem, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBracket); err != nil {
			return nil, err
		}
		return &ast.ArrayType{Src: p.from(tok.Span), Elem: elem}, nil
	case lexer.Fn:
		p.next()
		if _, err := p.expect(lexer.LParen); err != nil {
			return nil, err
		}
		params, err := list(p, lexer.RParen, p.typeExpr)
		if err != nil {
			return nil, err
		}
		ftype := &ast.FuncType{Params: params}
		if p.accept(lexer.Arrow) {
			if ftype.Result, err = p.typeExpr(); err != nil {
				return nil, err
			}
		}
		ftype.Src = p.from(tok.Span)
		return ftype, nil
	}
	return nil, p.unexpected("type")
}

// ----------------------------------------------------------------------------
// Statements and blocks.

func (p *parser) block() (*ast.BlockExpr, error) {
	start, err := p.expect(lexer.LBrace)
	if err != nil {
		return nil, err
	}
	return withStructLit(p, true, func() (*ast.BlockExpr, error) {
		return p.blockContent(start.Span)
	})
}

func (p *parser) blockContent(start source.Span) (*ast.BlockExpr, error) {
	block := &ast.BlockExpr{}
	for !p.accept(lexer.RBrace) {
		var stmt ast.Stmt
		var err error
		switch p.peek().Val.Kind {
		case lexer.Let:
			stmt, err = p.letStmt()
		case lexer.Return:
			stmt, err = p.returnStmt()
		case lexer.While:
			stmt, err = p.whileStmt()
		case lexer.For:
			stmt, err = p.forStmt()
		case lexer.Semicolon:
			p.next()
			continue
		case lexer.EOF:
			return nil, p.unexpected(lexer.RBrace.String())
		default:
			var x ast.Expr
			if x, err = p.expr(); err != nil {
				return nil, err
			}
			if p.accept(lexer.RBrace) {
				block.Value = x
				block.Src = p.from(start)
				return block, nil
			}
			if !p.accept(lexer.Semicolon) && !isBlockLike(x) {
				return nil, p.unexpected("; or }")
			}
			stmt = &ast.ExprStmt{Src: x.Span(), X: x}
		}
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	block.Src = p.from(start)
	return block, nil
}

// isBlockLike returns true if an expression ends with a block
// and does not need a semicolon to be used as a statement.
func isBlockLike(x ast.Expr) bool {
	switch x.(type) {
	case *ast.IfExpr, *ast.BlockExpr:
		return true
	}
	return false
}

func (p *parser) letStmt() (*ast.LetStmt, error) {
	start := p.next().Span
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	stmt := &ast.LetStmt{Name: name}
	if p.accept(lexer.Colon) {
		if stmt.Type, err = p.typeExpr(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.Assign); err != nil {
		return nil, err
	}
	if stmt.Value, err = p.expr(); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	stmt.Src = p.from(start)
	return stmt, nil
}

func (p *parser) returnStmt() (*ast.ReturnStmt, error) {
	start := p.next().Span
	stmt := &ast.ReturnStmt{}
	if !p.at(lexer.Semicolon) && !p.at(lexer.RBrace) {
		var err error
		if stmt.Value, err = p.expr(); err != nil {
			return nil, err
		}
	}
	stmt.Src = p.from(start)
	p.accept(lexer.Semicolon)
	return stmt, nil
}

// head parses the expression of an if, while, or for statement.
func (p *parser) head() (ast.Expr, error) {
	return withStructLit(p, false, p.expr)
}

func (p *parser) whileStmt() (*ast.WhileStmt, error) {
	start := p.next().Span
	cond, err := p.head()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Src: p.from(start), Cond: cond, Body: body}, nil
}

func (p *parser) forStmt() (*ast.ForStmt, error) {
	start := p.next().Span
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.In); err != nil {
		return nil, err
	}
	stmt := &ast.ForStmt{Var: name}
	if stmt.Start, err = p.head(); err != nil {
		return nil, err
	}
	if p.accept(lexer.DotDot) {
		if stmt.End, err = p.head(); err != nil {
			return nil, err
		}
	}
	if stmt.Body, err = p.block(); err != nil {
		return nil, err
	}
	stmt.Src = p.from(start)
	return stmt, nil
}

// ----------------------------------------------------------------------------
// Expressions.

func (p *parser) expr() (ast.Expr, error) {
	return p.assign()
}

func (p *parser) assign() (ast.Expr, error) {
	target, err := p.binary(1)
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.Assign) {
		return target, nil
	}
	eq := p.next()
	switch target.(type) {
	case *ast.Ident, *ast.FieldExpr, *ast.IndexExpr:
	default:
		return nil, p.errorf(eq.Span, "cannot assign to %s", ast.String(target))
	}
	value, err := p.assign()
	if err != nil {
		return nil, err
	}
	return &ast.AssignExpr{
		Src:    target.Span().To(value.Span()),
		Target: target,
		Value:  value,
	}, nil
}

// precedences of binary operators. A higher value binds tighter.
var precedences = map[ast.Op]int{
	ast.LOr:  1,
	ast.LAnd: 2,
	ast.Eql:  3,
	ast.Neq:  3,
	ast.Lss:  4,
	ast.Leq:  4,
	ast.Gtr:  4,
	ast.Geq:  4,
	ast.Add:  5,
	ast.Sub:  5,
	ast.Mul:  6,
	ast.Div:  6,
	ast.Rem:  6,
}

// binary parses binary expressions with operators of a precedence
// greater or equal to minPrec (precedence climbing).
func (p *parser) binary(minPrec int) (ast.Expr, error) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ast.BinaryOp(p.peek().Val.Kind)
		if !ok || precedences[op] < minPrec {
			return x, nil
		}
		p.next()
		y, err := p.binary(precedences[op] + 1)
		if err != nil {
			return nil, err
		}
		x = &ast.BinaryExpr{
			Src: x.Span().To(y.Span()),
			Op:  op,
			X:   x,
			Y:   y,
		}
	}
}

func (p *parser) unary() (ast.Expr, error) {
	var op ast.Op
	switch p.peek().Val.Kind {
	case lexer.Minus:
		op = ast.Neg
	case lexer.Bang:
		op = ast.Not
	default:
		return p.postfix()
	}
	if op == ast.Neg && p.peekKind(1) == lexer.Int {
		if lit, ok := p.minInt(); ok {
			return lit, nil
		}
	}
	start := p.next().Span
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryExpr{Src: start.To(x.Span()), Op: op, X: x}, nil
}

// minInt parses a negated integer literal whose absolute value only fits
// in an int64 once negated.
func (p *parser) minInt() (ast.Expr, bool) {
	switch p.peekKind(2) {
	case lexer.LParen, lexer.Dot, lexer.LBracket:
		return nil, false
	}
	text := p.toks[p.pos+1].Val.Text
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return nil, false
	}
	val, err := strconv.ParseInt("-"+text, 10, 64)
	if err != nil {
		return nil, false
	}
	start := p.next().Span
	end := p.next().Span
	return &ast.BasicLit{Src: start.To(end), Kind: ast.IntLit, Int: val}, true
}

func (p *parser) postfix() (ast.Expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Val.Kind {
		case lexer.LParen:
			p.next()
			args, err := withStructLit(p, true, func() ([]ast.Expr, error) {
				return list(p, lexer.RParen, p.expr)
			})
			if err != nil {
				return nil, err
			}
			x = &ast.CallExpr{Src: p.from(x.Span()), Callee: x, Args: args}
		case lexer.Dot:
			p.next()
			fields, err := p.selectors()
			if err != nil {
				return nil, err
			}
			for _, field := range fields {
				x = &ast.FieldExpr{Src: x.Span().To(field.Src), X: x, Field: field}
			}
		case lexer.LBracket:
			p.next()
			index, err := withStructLit(p, true, p.expr)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBracket); err != nil {
				return nil, err
			}
			x = &ast.IndexExpr{Src: p.from(x.Span()), X: x, Index: index}
		default:
			return x, nil
		}
	}
}

// selectors parses the field names following a '.'.
// A field is either a name or the position of a payload in an enum variant.
// The lexer reads x.0.1 as x, '.', and 0.1: the float is split in two positions.
func (p *parser) selectors() ([]*ast.Ident, error) {
	tok := p.peek()
	switch tok.Val.Kind {
	case lexer.Int:
		p.next()
		field, err := position(tok.Span, tok.Val.Text)
		if err != nil {
			return nil, err
		}
		return []*ast.Ident{field}, nil
	case lexer.Float:
		p.next()
		first, second, _ := strings.Cut(tok.Val.Text, ".")
		span := tok.Span
		firstSpan := source.Span{Start: span.Start, End: span.Start}
		firstSpan.End.Offset += len(first) - 1
		firstSpan.End.Col += len(first) - 1
		secondSpan := source.Span{Start: firstSpan.End, End: span.End}
		secondSpan.Start.Offset += 2
		secondSpan.Start.Col += 2
		x, err := position(firstSpan, first)
		if err != nil {
			return nil, err
		}
		y, err := position(secondSpan, second)
		if err != nil {
			return nil, err
		}
		return []*ast.Ident{x, y}, nil
	}
	field, err := p.ident()
	if err != nil {
		return nil, err
	}
	return []*ast.Ident{field}, nil
}

func position(span source.Span, text string) (*ast.Ident, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, fmterr.Errorf(fmterr.Syntax, span, "invalid field position %s", text)
	}
	return &ast.Ident{Src: span, Name: strconv.Itoa(n)}, nil
}

func (p *parser) primary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Val.Kind {
	case lexer.Int:
		p.next()
		val, err := strconv.ParseInt(tok.Val.Text, 10, 64)
		if err != nil {
			return nil, p.errorf(tok.Span, "integer literal %s out of range", tok.Val.Text)
		}
		return &ast.BasicLit{Src: tok.Span, Kind: ast.IntLit, Int: val}, nil
	case lexer.Float:
		p.next()
		val, err := strconv.ParseFloat(tok.Val.Text, 64)
		if err != nil {
			return nil, p.errorf(tok.Span, "invalid float literal %s", tok.Val.Text)
		}
		return &ast.BasicLit{Src: tok.Span, Kind: ast.FloatLit, Float: val}, nil
	case lexer.String:
		p.next()
		return &ast.BasicLit{Src: tok.Span, Kind: ast.StringLit, Str: tok.Val.Text}, nil
	case lexer.True, lexer.False:
		p.next()
		return &ast.BasicLit{Src: tok.Span, Kind: ast.BoolLit, Bool: tok.Val.Kind == lexer.True}, nil
	case lexer.Ident:
		if p.isStructLit() {
			return p.structLit()
		}
		p.next()
		return &ast.Ident{Src: tok.Span, Name: tok.Val.Text}, nil
	case lexer.LParen:
		p.next()
		x, err := withStructLit(p, true, p.expr)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return x, nil
	case lexer.LBracket:
		p.next()
		elems, err := withStructLit(p, true, func() ([]ast.Expr, error) {
			return list(p, lexer.RBracket, p.expr)
		})
		if err != nil {
			return nil, err
		}
		return &ast.ArrayLit{Src: p.from(tok.Span), Elems: elems}, nil
	case lexer.LBrace:
		return p.block()
	case lexer.If:
		return p.ifExpr()
	case lexer.Fn:
		return p.lambda()
	}
	return nil, p.unexpected("expression")
}

// isStructLit returns true if the next tokens start a structure literal:
//
//	Name {}
//	Name { field: ...
func (p *parser) isStructLit() bool {
	if p.noStructLit || p.peekKind(1) != lexer.LBrace {
		return false
	}
	if p.peekKind(2) == lexer.RBrace {
		return true
	}
	return p.peekKind(2) == lexer.Ident && p.peekKind(3) == lexer.Colon
}

func (p *parser) fieldValue() (*ast.FieldValue, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}
	value, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.FieldValue{Src: p.from(name.Src), Name: name, Value: value}, nil
}

func (p *parser) structLit() (*ast.StructLit, error) {
	typeName, err := p.ident()
	if err != nil {
		return nil, err
	}
	p.next() // {
	fields, err := withStructLit(p, true, func() ([]*ast.FieldValue, error) {
		return list(p, lexer.RBrace, p.fieldValue)
	})
	if err != nil {
		return nil, err
	}
	return &ast.StructLit{Src: p.from(typeName.Src), Type: typeName, Fields: fields}, nil
}

func (p *parser) ifExpr() (*ast.IfExpr, error) {
	start := p.next().Span
	cond, err := p.head()
	if err != nil {
		return nil, err
	}
	then, err := p.block()
	if err != nil {
		return nil, err
	}
	expr := &ast.IfExpr{Cond: cond, Then: then}
	if p.accept(lexer.Else) {
		if p.at(lexer.If) {
			if expr.Else, err = p.ifExpr(); err != nil {
				return nil, err
			}
		} else {
			if expr.Else, err = p.block(); err != nil {
				return nil, err
			}
		}
	}
	expr.Src = p.from(start)
	return expr, nil
}

func (p *parser) lambda() (*ast.LambdaExpr, error) {
	start := p.next().Span
	params, result, err := p.signature()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.LambdaExpr{
		Src:    p.from(start),
		Params: params,
		Result: result,
		Body:   body,
	}, nil
}
