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

// Package ir is the quill Intermediate Representation (IR).
//
// The IR is a three-address code: every instruction reads at most two
// operands and writes at most one virtual register. Virtual registers are
// unlimited and numbered from 0 in each function; function parameters are
// the first registers. Control flow uses symbolic labels.
//
// The IR is built by [github.com/quill-lang/quill/build/irgen], rewritten
// in place by [github.com/quill-lang/quill/build/opt] and compiled to
// bytecode by [github.com/quill-lang/quill/build/codegen].
package ir

import (
	"github.com/quill-lang/quill/build/source"
)

// ----------------------------------------------------------------------------
// Operands.
type (
	// Operand of an instruction: either a virtual register or a literal.
	Operand interface {
		operand()
		String() string
	}

	// VarID identifies a virtual register in a function.
	VarID int

	// Var reads the value of a virtual register.
	Var struct {
		ID VarID
	}

	// LitKind is the kind of a literal.
	LitKind int

	// Lit is a literal value.
	Lit struct {
		Kind  LitKind
		Int   int64
		Float float64
		Bool  bool
		// Str is the value of a string literal
		// or the name of the function for a function reference.
		Str string
	}
)

// Literal kinds.
const (
	IntLit LitKind = iota
	FloatLit
	BoolLit
	StringLit
	FuncLit
)

func (Var) operand() {}
func (Lit) operand() {}

// IntOf returns an integer literal.
func IntOf(x int64) Lit { return Lit{Kind: IntLit, Int: x} }

// FloatOf returns a float literal.
func FloatOf(x float64) Lit { return Lit{Kind: FloatLit, Float: x} }

// BoolOf returns a boolean literal.
func BoolOf(x bool) Lit { return Lit{Kind: BoolLit, Bool: x} }

// StringOf returns a string literal.
func StringOf(x string) Lit { return Lit{Kind: StringLit, Str: x} }

// FuncOf returns a reference to a function.
func FuncOf(name string) Lit { return Lit{Kind: FuncLit, Str: name} }

// ----------------------------------------------------------------------------
// Operators.

// BinOp is a binary operator.
type BinOp int

// Binary operators.
const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
)

// UnOp is a unary operator.
type UnOp int

// Unary operators.
const (
	// Neg negates a number.
	Neg UnOp = iota
	// Not is the logical negation.
	Not
	// Len returns the length of an array or a string.
	Len
	// IntToFloat converts an int to a float.
	IntToFloat
)

// ----------------------------------------------------------------------------
// Instructions.
type (
	// Instr is an instruction of a function.
	Instr interface {
		instr()
		String() string
	}

	// Assign copies an operand into a register.
	Assign struct {
		Dst VarID
		Src Operand
	}

	// BinaryOp computes Dst = X Op Y.
	BinaryOp struct {
		Dst  VarID
		Op   BinOp
		X, Y Operand
	}

	// UnaryOp computes Dst = Op X.
	UnaryOp struct {
		Dst VarID
		Op  UnOp
		X   Operand
	}

	// Call calls a function and stores its result in Dst.
	Call struct {
		Dst    VarID
		Callee Operand
		Args   []Operand
	}

	// Return returns from the function.
	// Value is nil to return no value.
	Return struct {
		Value Operand
	}

	// CondJump jumps to a label if the condition is false.
	CondJump struct {
		Cond  Operand
		Label string
	}

	// Jump jumps to a label.
	Jump struct {
		Label string
	}

	// Label marks a position in a function that jumps can target.
	Label struct {
		Name string
	}

	// ArrayNew creates an array from a list of elements.
	ArrayNew struct {
		Dst   VarID
		Elems []Operand
	}

	// IndexGet reads an element of an array: Dst = Array[Index].
	IndexGet struct {
		Dst          VarID
		Array, Index Operand
	}

	// IndexSet writes an element of an array: Array[Index] = Value.
	IndexSet struct {
		Array, Index, Value Operand
	}

	// FieldGet reads a field of a record: Dst = Record.Field.
	FieldGet struct {
		Dst    VarID
		Record Operand
		Field  string
	}

	// FieldSet writes a field of a record: Record.Field = Value.
	FieldSet struct {
		Record Operand
		Field  string
		Value  Operand
	}

	// RecordNew creates a record of a given type name.
	// Fields and Values have the same length.
	RecordNew struct {
		Dst    VarID
		Type   string
		Fields []string
		Values []Operand
	}

	// Print writes the textual form of a value to the standard output.
	Print struct {
		Value Operand
	}
)

func (*Assign) instr()    {}
func (*BinaryOp) instr()  {}
func (*UnaryOp) instr()   {}
func (*Call) instr()      {}
func (*Return) instr()    {}
func (*CondJump) instr()  {}
func (*Jump) instr()      {}
func (*Label) instr()     {}
func (*ArrayNew) instr()  {}
func (*IndexGet) instr()  {}
func (*IndexSet) instr()  {}
func (*FieldGet) instr()  {}
func (*FieldSet) instr()  {}
func (*RecordNew) instr() {}
func (*Print) instr()     {}

// ----------------------------------------------------------------------------
// Functions and programs.
type (
	// Function is a flat list of instructions.
	Function struct {
		Name string
		// Params are the names of the parameters.
		// Parameter i is stored in register i.
		Params []string
		// NumVars is the number of registers used by the function.
		NumVars int
		Body    []source.Located[Instr]
	}

	// Program is a list of functions.
	Program struct {
		Funcs []*Function
	}
)

// Find returns a function given its name.
func (p *Program) Find(name string) *Function {
	for _, fn := range p.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Def returns the register written by an instruction.
func Def(instr Instr) (VarID, bool) {
	switch in := instr.(type) {
	case *Assign:
		return in.Dst, true
	case *BinaryOp:
		return in.Dst, true
	case *UnaryOp:
		return in.Dst, true
	case *Call:
		return in.Dst, true
	case *ArrayNew:
		return in.Dst, true
	case *IndexGet:
		return in.Dst, true
	case *FieldGet:
		return in.Dst, true
	case *RecordNew:
		return in.Dst, true
	}
	return 0, false
}

// Uses returns the operands read by an instruction in evaluation order.
func Uses(instr Instr) []Operand {
	switch in := instr.(type) {
	case *Assign:
		return []Operand{in.Src}
	case *BinaryOp:
		return []Operand{in.X, in.Y}
	case *UnaryOp:
		return []Operand{in.X}
	case *Call:
		return append(append([]Operand{}, in.Args...), in.Callee)
	case *Return:
		if in.Value == nil {
			return nil
		}
		return []Operand{in.Value}
	case *CondJump:
		return []Operand{in.Cond}
	case *ArrayNew:
		return in.Elems
	case *IndexGet:
		return []Operand{in.Array, in.Index}
	case *IndexSet:
		return []Operand{in.Array, in.Index, in.Value}
	case *FieldGet:
		return []Operand{in.Record}
	case *FieldSet:
		return []Operand{in.Record, in.Value}
	case *RecordNew:
		return in.Values
	case *Print:
		return []Operand{in.Value}
	}
	return nil
}
