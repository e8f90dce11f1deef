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

package lexer

import "fmt"

// Kind is the kind of a token.
type Kind int

// Token kinds.
const (
	EOF Kind = iota
	Ident
	Int
	Float
	String

	keywordBegin
	True
	False
	Fn
	Let
	Return
	If
	Else
	While
	For
	In
	Type
	Struct
	Enum
	keywordEnd

	operatorBegin
	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Percent   // %
	Assign    // =
	Eq        // ==
	NotEq     // !=
	Less      // <
	LessEq    // <=
	Greater   // >
	GreaterEq // >=
	AndAnd    // &&
	OrOr      // ||
	Bang      // !
	Arrow     // ->
	Dot       // .
	DotDot    // ..
	operatorEnd

	delimiterBegin
	Comma     // ,
	Colon     // :
	Semicolon // ;
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	LBracket  // [
	RBracket  // ]
	Pipe      // |
	delimiterEnd
)

var kindNames = [...]string{
	EOF:    "end of file",
	Ident:  "identifier",
	Int:    "integer literal",
	Float:  "float literal",
	String: "string literal",

	True:   "true",
	False:  "false",
	Fn:     "fn",
	Let:    "let",
	Return: "return",
	If:     "if",
	Else:   "else",
	While:  "while",
	For:    "for",
	In:     "in",
	Type:   "type",
	Struct: "struct",
	Enum:   "enum",

	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Percent:   "%",
	Assign:    "=",
	Eq:        "==",
	NotEq:     "!=",
	Less:      "<",
	LessEq:    "<=",
	Greater:   ">",
	GreaterEq: ">=",
	AndAnd:    "&&",
	OrOr:      "||",
	Bang:      "!",
	Arrow:     "->",
	Dot:       ".",
	DotDot:    "..",

	Comma:     ",",
	Colon:     ":",
	Semicolon: ";",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
	LBracket:  "[",
	RBracket:  "]",
	Pipe:      "|",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) || kindNames[k] == "" {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsKeyword returns true if the kind is a reserved word.
func (k Kind) IsKeyword() bool {
	return keywordBegin < k && k < keywordEnd
}

// IsOperator returns true if the kind is an operator.
func (k Kind) IsOperator() bool {
	return operatorBegin < k && k < operatorEnd
}

// IsDelimiter returns true if the kind is a delimiter.
func (k Kind) IsDelimiter() bool {
	return delimiterBegin < k && k < delimiterEnd
}

// IsLiteral returns true if the kind is a literal value.
func (k Kind) IsLiteral() bool {
	switch k {
	case Int, Float, String, True, False:
		return true
	}
	return false
}

var keywords = func() map[string]Kind {
	m := make(map[string]Kind)
	for k := keywordBegin + 1; k < keywordEnd; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// operators lists operators and delimiters made of punctuation,
// longest spellings first so that the first match is the longest one.
var operators = []Kind{
	Eq, NotEq, LessEq, GreaterEq, AndAnd, OrOr, Arrow, DotDot,
	Plus, Minus, Star, Slash, Percent, Assign, Less, Greater, Bang, Dot,
	Comma, Colon, Semicolon, LParen, RParen, LBrace, RBrace, LBracket, RBracket, Pipe,
}

// Token is a lexical token.
type Token struct {
	Kind Kind
	// Text is the source text of the token.
	// For string literals, Text is the value of the literal, that is
	// without the quotes and with escape sequences resolved.
	Text string
}

func (t Token) String() string {
	switch t.Kind {
	case Ident, Int, Float:
		return t.Text
	case String:
		return fmt.Sprintf("%q", t.Text)
	}
	return t.Kind.String()
}
