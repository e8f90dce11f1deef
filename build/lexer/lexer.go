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

// Package lexer turns quill source code into a sequence of tokens.
package lexer

import (
	"iter"
	"strings"

	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/source"
)

// Lexer produces the tokens of a source file.
type Lexer struct {
	file *source.File
}

// New returns a lexer for a source file.
func New(file *source.File) *Lexer {
	return &Lexer{file: file}
}

// All returns the tokens of the file, ending with an EOF token.
// The sequence is lazy and every call restarts from the beginning of the file.
// Iteration stops after the first error.
func (lx *Lexer) All() iter.Seq2[source.Located[Token], error] {
	return func(yield func(source.Located[Token], error) bool) {
		sc := scanner{src: lx.file.Src, pos: source.Pos{Line: 1, Col: 1}}
		for {
			tok, err := sc.next()
			if err != nil {
				yield(tok, err)
				return
			}
			if !yield(tok, nil) {
				return
			}
			if tok.Val.Kind == EOF {
				return
			}
		}
	}
}

// Tokenize returns all the tokens of a file or the first lexical error.
func Tokenize(file *source.File) ([]source.Located[Token], error) {
	var toks []source.Located[Token]
	for tok, err := range New(file).All() {
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

type scanner struct {
	src string
	pos source.Pos
}

func (sc *scanner) eof() bool {
	return sc.pos.Offset >= len(sc.src)
}

func (sc *scanner) peek() byte {
	return sc.peekAt(0)
}

func (sc *scanner) peekAt(n int) byte {
	if sc.pos.Offset+n >= len(sc.src) {
		return 0
	}
	return sc.src[sc.pos.Offset+n]
}

// advance moves the scanner forward by one byte and returns the position of that byte.
func (sc *scanner) advance() source.Pos {
	at := sc.pos
	if sc.src[sc.pos.Offset] == '\n' {
		sc.pos.Line++
		sc.pos.Col = 1
	} else {
		sc.pos.Col++
	}
	sc.pos.Offset++
	return at
}

func (sc *scanner) skipSpaceAndComments() {
	for !sc.eof() {
		c := sc.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			sc.advance()
		case c == '/' && sc.peekAt(1) == '/':
			for !sc.eof() && sc.peek() != '\n' {
				sc.advance()
			}
		default:
			return
		}
	}
}

func isLetter(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func (sc *scanner) token(kind Kind, text string, start, end source.Pos) source.Located[Token] {
	return source.At(Token{Kind: kind, Text: text}, source.Span{Start: start, End: end})
}

func (sc *scanner) next() (source.Located[Token], error) {
	sc.skipSpaceAndComments()
	if sc.eof() {
		return sc.token(EOF, "", sc.pos, sc.pos), nil
	}
	c := sc.peek()
	switch {
	case isLetter(c):
		return sc.word(), nil
	case isDigit(c):
		return sc.number(), nil
	case c == '"':
		return sc.string()
	}
	for _, kind := range operators {
		spelling := kindNames[kind]
		if !strings.HasPrefix(sc.src[sc.pos.Offset:], spelling) {
			continue
		}
		start := sc.pos
		end := start
		for range spelling {
			end = sc.advance()
		}
		return sc.token(kind, spelling, start, end), nil
	}
	start := sc.advance()
	span := source.Span{Start: start, End: start}
	return source.At(Token{}, span), fmterr.Errorf(fmterr.Lexical, span, "unexpected character %q", c)
}

func (sc *scanner) word() source.Located[Token] {
	start := sc.pos
	end := start
	for !sc.eof() && (isLetter(sc.peek()) || isDigit(sc.peek())) {
		end = sc.advance()
	}
	text := sc.src[start.Offset : end.Offset+1]
	kind, isKeyword := keywords[text]
	if !isKeyword {
		kind = Ident
	}
	return sc.token(kind, text, start, end)
}

func (sc *scanner) number() source.Located[Token] {
	start := sc.pos
	end := start
	for !sc.eof() && isDigit(sc.peek()) {
		end = sc.advance()
	}
	kind := Int
	// A '.' followed by a digit continues the literal as a float.
	// Otherwise, the '.' starts the next token (for example: 1..5).
	if sc.peek() == '.' && isDigit(sc.peekAt(1)) {
		kind = Float
		sc.advance()
		for !sc.eof() && isDigit(sc.peek()) {
			end = sc.advance()
		}
	}
	return sc.token(kind, sc.src[start.Offset:end.Offset+1], start, end)
}

var escapes = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'0':  0,
	'\\': '\\',
	'"':  '"',
}

func (sc *scanner) string() (source.Located[Token], error) {
	start := sc.advance()
	var val strings.Builder
	for {
		if sc.eof() || sc.peek() == '\n' {
			span := source.Span{Start: start, End: start}
			return source.At(Token{}, span), fmterr.Errorf(fmterr.Lexical, span, "unterminated string literal")
		}
		c := sc.peek()
		at := sc.advance()
		switch c {
		case '"':
			return sc.token(String, val.String(), start, at), nil
		case '\\':
			if sc.eof() {
				continue
			}
			esc := sc.peek()
			escEnd := sc.advance()
			r, ok := escapes[esc]
			if !ok {
				span := source.Span{Start: at, End: escEnd}
				return source.At(Token{}, span), fmterr.Errorf(fmterr.Lexical, span, "unknown escape sequence \\%c", esc)
			}
			val.WriteByte(r)
		default:
			val.WriteByte(c)
		}
	}
}
