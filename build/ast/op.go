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

package ast

import (
	"fmt"

	"github.com/quill-lang/quill/build/lexer"
)

// Op is a unary or binary operator.
type Op int

// Operators.
const (
	Add Op = iota
	Sub
	Mul
	Div
	Rem
	Eql
	Neq
	Lss
	Leq
	Gtr
	Geq
	LAnd
	LOr
	Neg
	Not
)

var opNames = [...]string{
	Add:  "+",
	Sub:  "-",
	Mul:  "*",
	Div:  "/",
	Rem:  "%",
	Eql:  "==",
	Neq:  "!=",
	Lss:  "<",
	Leq:  "<=",
	Gtr:  ">",
	Geq:  ">=",
	LAnd: "&&",
	LOr:  "||",
	Neg:  "-",
	Not:  "!",
}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opNames[op]
}

// IsArithmetic returns true for +, -, *, / and %.
func (op Op) IsArithmetic() bool {
	return op <= Rem
}

// IsEquality returns true for == and !=.
func (op Op) IsEquality() bool {
	return op == Eql || op == Neq
}

// IsOrdering returns true for <, <=, > and >=.
func (op Op) IsOrdering() bool {
	return Lss <= op && op <= Geq
}

// IsLogical returns true for && and ||.
func (op Op) IsLogical() bool {
	return op == LAnd || op == LOr
}

var binaryOps = map[lexer.Kind]Op{
	lexer.Plus:      Add,
	lexer.Minus:     Sub,
	lexer.Star:      Mul,
	lexer.Slash:     Div,
	lexer.Percent:   Rem,
	lexer.Eq:        Eql,
	lexer.NotEq:     Neq,
	lexer.Less:      Lss,
	lexer.LessEq:    Leq,
	lexer.Greater:   Gtr,
	lexer.GreaterEq: Geq,
	lexer.AndAnd:    LAnd,
	lexer.OrOr:      LOr,
}

// BinaryOp returns the binary operator of a token kind.
func BinaryOp(kind lexer.Kind) (Op, bool) {
	op, ok := binaryOps[kind]
	return op, ok
}
