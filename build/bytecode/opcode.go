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

// Package bytecode defines the instructions executed by the quill
// virtual machine and the programs made of these instructions.
package bytecode

import (
	"fmt"
	"math"
)

// Opcode identifies a bytecode operation.
type Opcode uint8

// Opcodes. The comment of an opcode documents its operand and the values it
// pops from and pushes onto the operand stack.
const (
	// Const pushes the constant Arg of the constant pool.
	Const Opcode = iota
	// Load pushes the local slot Arg.
	Load
	// Store pops a value and writes it to the local slot Arg.
	Store
	// Pop discards the top of the stack.
	Pop
	// Null pushes a null value.
	Null

	// Arithmetic, comparison and logical operators pop two values
	// and push the result.
	Add
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

	// Neg pops a number and pushes its opposite.
	Neg
	// Not pops a boolean and pushes its negation.
	Not
	// Len pops an array or a string and pushes its length.
	Len
	// ToFloat pops a number and pushes it as a float.
	ToFloat

	// Jump sets the instruction pointer to Arg.
	Jump
	// JumpIfFalse pops a boolean and sets the instruction pointer to Arg if it is false.
	JumpIfFalse
	// Call pops a function reference, then Arg arguments, and calls the function.
	Call
	// Return pops the result and returns to the caller.
	Return
	// Print pops a value and writes its textual form to the standard output.
	Print

	// Array pops Arg elements and pushes an array.
	Array
	// IndexGet pops an index and an array and pushes the element.
	IndexGet
	// IndexSet pops a value, an index and an array and sets the element.
	IndexSet
	// Record pops Arg (name, value) pairs and a type name and pushes a record.
	Record
	// FieldGet pops a record and pushes its field named by the constant Arg.
	FieldGet
	// FieldSet pops a value and a record and sets the field named by the constant Arg.
	FieldSet

	numOpcodes
)

var opcodeNames = [...]string{
	Const:       "CONST",
	Load:        "LOAD",
	Store:       "STORE",
	Pop:         "POP",
	Null:        "NULL",
	Add:         "ADD",
	Sub:         "SUB",
	Mul:         "MUL",
	Div:         "DIV",
	Mod:         "MOD",
	Eq:          "EQ",
	Ne:          "NE",
	Lt:          "LT",
	Le:          "LE",
	Gt:          "GT",
	Ge:          "GE",
	And:         "AND",
	Or:          "OR",
	Neg:         "NEG",
	Not:         "NOT",
	Len:         "LEN",
	ToFloat:     "TOFLOAT",
	Jump:        "JUMP",
	JumpIfFalse: "JUMPIFFALSE",
	Call:        "CALL",
	Return:      "RETURN",
	Print:       "PRINT",
	Array:       "ARRAY",
	IndexGet:    "INDEXGET",
	IndexSet:    "INDEXSET",
	Record:      "RECORD",
	FieldGet:    "FIELDGET",
	FieldSet:    "FIELDSET",
}

// IsValid returns true if the opcode is defined.
func (op Opcode) IsValid() bool {
	return op < numOpcodes
}

func (op Opcode) String() string {
	if op.IsValid() {
		return opcodeNames[op]
	}
	return fmt.Sprintf("OPCODE(%d)", uint8(op))
}

// HasArg returns true if the opcode uses the operand of its instruction.
func (op Opcode) HasArg() bool {
	switch op {
	case Const, Load, Store, Jump, JumpIfFalse, Call, Array, Record, FieldGet, FieldSet:
		return true
	}
	return false
}

// ArgIsConst returns true if the operand of the opcode is an index in the constant pool.
func (op Opcode) ArgIsConst() bool {
	return op == Const || op == FieldGet || op == FieldSet
}

// MaxArg is the largest value of an instruction operand.
const MaxArg = math.MaxUint16

// Instruction is an opcode with its operand.
type Instruction struct {
	Op  Opcode
	Arg uint16
}

// Instr returns an instruction without operand.
func Instr(op Opcode) Instruction {
	return Instruction{Op: op}
}

// InstrArg returns an instruction with an operand.
func InstrArg(op Opcode, arg uint16) Instruction {
	return Instruction{Op: op, Arg: arg}
}

func (in Instruction) String() string {
	if !in.Op.HasArg() {
		return in.Op.String()
	}
	return fmt.Sprintf("%s %d", in.Op, in.Arg)
}
