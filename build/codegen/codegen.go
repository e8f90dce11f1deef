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

// Package codegen compiles the quill IR to bytecode.
//
// Every IR instruction is compiled to a sequence of stack machine
// instructions pushing the operands, applying the operator, and storing the
// result in the local slot of the destination register. Jumps are emitted
// with a placeholder target and backfilled once the function is complete.
package codegen

import (
	"fmt"
	"log"
	"strings"

	"github.com/quill-lang/quill/base/ordered"
	"github.com/quill-lang/quill/build/bytecode"
	"github.com/quill-lang/quill/build/check"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/ir"
	"github.com/quill-lang/quill/build/source"
	"github.com/quill-lang/quill/interp/value"
)

// constKey identifies a constant in the pool.
// Floats are keyed by their textual form so that 1 and 1.0 are distinct.
type constKey struct {
	kind value.Kind
	repr string
}

type generator struct {
	prog   *bytecode.Program
	consts *ordered.Map[constKey, value.Value]
	funcs  map[string]int
	trace  *log.Logger
}

// Option configures the code generator.
type Option func(*generator)

// WithTrace logs the disassembly of the generated program.
func WithTrace(logger *log.Logger) Option {
	return func(g *generator) {
		g.trace = logger
	}
}

// Generate the bytecode of a program.
func Generate(prog *ir.Program, opts ...Option) (*bytecode.Program, error) {
	g := &generator{
		prog:   &bytecode.Program{},
		consts: ordered.NewMap[constKey, value.Value](),
		funcs:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	for i, fn := range prog.Funcs {
		if _, exists := g.funcs[fn.Name]; exists {
			return nil, fmterr.Errorf(fmterr.CodeGen, source.Span{}, "function %s defined more than once", fn.Name)
		}
		g.funcs[fn.Name] = i
	}
	entry, ok := g.funcs[check.EntryName]
	if !ok {
		return nil, fmterr.Errorf(fmterr.CodeGen, source.Span{}, "no %s function", check.EntryName)
	}
	g.prog.Entry = entry
	for _, fn := range prog.Funcs {
		bFn, err := g.function(fn)
		if err != nil {
			return nil, err
		}
		g.prog.Funcs = append(g.prog.Funcs, bFn)
	}
	if g.consts.Size() > bytecode.MaxArg+1 {
		return nil, fmterr.Errorf(fmterr.CodeGen, source.Span{}, "too many constants: %d > %d", g.consts.Size(), bytecode.MaxArg+1)
	}
	g.prog.Consts = g.consts.Values()
	if g.trace != nil {
		g.trace.Printf("bytecode:\n%s", g.prog)
	}
	return g.prog, nil
}

// constant returns the index of a value in the constant pool.
func (g *generator) constant(val value.Value) int {
	i, _ := g.consts.Intern(constKey{kind: val.Kind(), repr: val.String()}, val)
	return i
}

// pendingJump is a jump emitted before the position of its label is known.
type pendingJump struct {
	pc    int
	label string
	span  source.Span
}

type funcGen struct {
	g     *generator
	src   *ir.Function
	fn    *bytecode.Function
	slots map[ir.VarID]int
	// labels maps label names to bytecode offsets.
	labels  map[string]int
	pending []pendingJump
	span    source.Span
}

func (g *generator) function(fn *ir.Function) (*bytecode.Function, error) {
	fg := &funcGen{
		g:      g,
		src:    fn,
		fn:     &bytecode.Function{Name: fn.Name, NumParams: len(fn.Params)},
		slots:  make(map[ir.VarID]int),
		labels: make(map[string]int),
	}
	for i := range fn.Params {
		fg.slot(ir.VarID(i))
	}
	for _, instr := range fn.Body {
		fg.span = instr.Span
		if err := fg.instr(instr.Val); err != nil {
			return nil, err
		}
	}
	if err := fg.resolveJumps(); err != nil {
		return nil, err
	}
	if len(fg.fn.Code) > bytecode.MaxArg {
		return nil, fg.errorf("function too long: %d instructions", len(fg.fn.Code))
	}
	fg.fn.NumLocals = len(fg.slots)
	return fg.fn, nil
}

func (fg *funcGen) errorf(format string, a ...any) error {
	return fmterr.Errorf(fmterr.CodeGen, fg.span, "function %s: %s", fg.src.Name, fmt.Sprintf(format, a...))
}

// slot returns the local slot of a register, allocating a new one on first sight.
func (fg *funcGen) slot(id ir.VarID) int {
	if s, ok := fg.slots[id]; ok {
		return s
	}
	s := len(fg.slots)
	fg.slots[id] = s
	return s
}

// arg checks that an operand fits in an instruction.
func (fg *funcGen) arg(x int, what string) (uint16, error) {
	if x < 0 || x > bytecode.MaxArg {
		return 0, fg.errorf("%s %d out of range", what, x)
	}
	return uint16(x), nil
}

func (fg *funcGen) emit(op bytecode.Opcode) {
	fg.fn.Code = append(fg.fn.Code, bytecode.Instr(op))
	fg.fn.Spans = append(fg.fn.Spans, fg.span)
}

func (fg *funcGen) emitArg(op bytecode.Opcode, x int, what string) error {
	arg, err := fg.arg(x, what)
	if err != nil {
		return err
	}
	fg.fn.Code = append(fg.fn.Code, bytecode.InstrArg(op, arg))
	fg.fn.Spans = append(fg.fn.Spans, fg.span)
	return nil
}

func (fg *funcGen) pushConst(val value.Value) error {
	return fg.emitArg(bytecode.Const, fg.g.constant(val), "constant")
}

// push emits the instructions pushing an operand onto the stack.
func (fg *funcGen) push(op ir.Operand) error {
	switch opT := op.(type) {
	case ir.Var:
		s, ok := fg.slots[opT.ID]
		if !ok {
			return fg.errorf("unknown local %s", opT)
		}
		return fg.emitArg(bytecode.Load, s, "local slot")
	case ir.Lit:
		val, err := fg.literal(opT)
		if err != nil {
			return err
		}
		return fg.pushConst(val)
	}
	return fg.errorf("operand %T not supported", op)
}

func (fg *funcGen) pushAll(ops ...ir.Operand) error {
	for _, op := range ops {
		if err := fg.push(op); err != nil {
			return err
		}
	}
	return nil
}

func (fg *funcGen) literal(lit ir.Lit) (value.Value, error) {
	switch lit.Kind {
	case ir.IntLit:
		return value.Int(lit.Int), nil
	case ir.FloatLit:
		return value.Float(lit.Float), nil
	case ir.BoolLit:
		return value.Bool(lit.Bool), nil
	case ir.StringLit:
		return value.Str(lit.Str), nil
	case ir.FuncLit:
		index, ok := fg.g.funcs[lit.Str]
		if !ok {
			return nil, fg.errorf("undefined function %s", lit.Str)
		}
		return value.Func{Name: lit.Str, Index: index}, nil
	}
	return nil, fg.errorf("literal %s not supported", lit)
}

// store emits the instruction popping the top of the stack into the slot of a register.
func (fg *funcGen) store(dst ir.VarID) error {
	return fg.emitArg(bytecode.Store, fg.slot(dst), "local slot")
}

var binOps = map[ir.BinOp]bytecode.Opcode{
	ir.Add: bytecode.Add,
	ir.Sub: bytecode.Sub,
	ir.Mul: bytecode.Mul,
	ir.Div: bytecode.Div,
	ir.Mod: bytecode.Mod,
	ir.Eq:  bytecode.Eq,
	ir.Ne:  bytecode.Ne,
	ir.Lt:  bytecode.Lt,
	ir.Le:  bytecode.Le,
	ir.Gt:  bytecode.Gt,
	ir.Ge:  bytecode.Ge,
	ir.And: bytecode.And,
	ir.Or:  bytecode.Or,
}

var unOps = map[ir.UnOp]bytecode.Opcode{
	ir.Neg:        bytecode.Neg,
	ir.Not:        bytecode.Not,
	ir.Len:        bytecode.Len,
	ir.IntToFloat: bytecode.ToFloat,
}

func (fg *funcGen) instr(instr ir.Instr) error {
	switch in := instr.(type) {
	case *ir.Assign:
		if err := fg.push(in.Src); err != nil {
			return err
		}
		return fg.store(in.Dst)
	case *ir.BinaryOp:
		op, ok := binOps[in.Op]
		if !ok {
			return fg.errorf("binary operator %s not supported", in.Op)
		}
		if err := fg.pushAll(in.X, in.Y); err != nil {
			return err
		}
		fg.emit(op)
		return fg.store(in.Dst)
	case *ir.UnaryOp:
		op, ok := unOps[in.Op]
		if !ok {
			return fg.errorf("unary operator %s not supported", in.Op)
		}
		if err := fg.push(in.X); err != nil {
			return err
		}
		fg.emit(op)
		return fg.store(in.Dst)
	case *ir.Call:
		if err := fg.pushAll(in.Args...); err != nil {
			return err
		}
		if err := fg.push(in.Callee); err != nil {
			return err
		}
		if err := fg.emitArg(bytecode.Call, len(in.Args), "number of arguments"); err != nil {
			return err
		}
		return fg.store(in.Dst)
	case *ir.Return:
		if in.Value == nil {
			fg.emit(bytecode.Null)
		} else if err := fg.push(in.Value); err != nil {
			return err
		}
		fg.emit(bytecode.Return)
		return nil
	case *ir.CondJump:
		if err := fg.push(in.Cond); err != nil {
			return err
		}
		return fg.jump(bytecode.JumpIfFalse, in.Label)
	case *ir.Jump:
		return fg.jump(bytecode.Jump, in.Label)
	case *ir.Label:
		if _, exists := fg.labels[in.Name]; exists {
			return fg.errorf("label %s defined more than once", in.Name)
		}
		fg.labels[in.Name] = len(fg.fn.Code)
		return nil
	case *ir.ArrayNew:
		if err := fg.pushAll(in.Elems...); err != nil {
			return err
		}
		if err := fg.emitArg(bytecode.Array, len(in.Elems), "number of elements"); err != nil {
			return err
		}
		return fg.store(in.Dst)
	case *ir.IndexGet:
		if err := fg.pushAll(in.Array, in.Index); err != nil {
			return err
		}
		fg.emit(bytecode.IndexGet)
		return fg.store(in.Dst)
	case *ir.IndexSet:
		if err := fg.pushAll(in.Array, in.Index, in.Value); err != nil {
			return err
		}
		fg.emit(bytecode.IndexSet)
		return nil
	case *ir.FieldGet:
		if err := fg.push(in.Record); err != nil {
			return err
		}
		if err := fg.emitArg(bytecode.FieldGet, fg.g.constant(value.Str(in.Field)), "constant"); err != nil {
			return err
		}
		return fg.store(in.Dst)
	case *ir.FieldSet:
		if err := fg.pushAll(in.Record, in.Value); err != nil {
			return err
		}
		return fg.emitArg(bytecode.FieldSet, fg.g.constant(value.Str(in.Field)), "constant")
	case *ir.RecordNew:
		return fg.record(in)
	case *ir.Print:
		if err := fg.push(in.Value); err != nil {
			return err
		}
		fg.emit(bytecode.Print)
		return nil
	}
	return fg.errorf("instruction %T not supported", instr)
}

func (fg *funcGen) record(in *ir.RecordNew) error {
	if len(in.Fields) != len(in.Values) {
		return fg.errorf("%s: %d fields but %d values", in, len(in.Fields), len(in.Values))
	}
	if err := fg.pushConst(value.Str(in.Type)); err != nil {
		return err
	}
	for i, name := range in.Fields {
		if err := fg.pushConst(value.Str(name)); err != nil {
			return err
		}
		if err := fg.push(in.Values[i]); err != nil {
			return err
		}
	}
	if err := fg.emitArg(bytecode.Record, len(in.Fields), "number of fields"); err != nil {
		return err
	}
	return fg.store(in.Dst)
}

// jump emits a jump with a placeholder target resolved by resolveJumps.
func (fg *funcGen) jump(op bytecode.Opcode, label string) error {
	fg.pending = append(fg.pending, pendingJump{pc: len(fg.fn.Code), label: label, span: fg.span})
	fg.emit(op)
	return nil
}

// resolveJumps backfills the target of all the jumps of the function.
func (fg *funcGen) resolveJumps() error {
	var undefined []string
	for _, jump := range fg.pending {
		target, ok := fg.labels[jump.label]
		if !ok {
			undefined = append(undefined, jump.label)
			fg.span = jump.span
			continue
		}
		arg, err := fg.arg(target, "jump target")
		if err != nil {
			return err
		}
		fg.fn.Code[jump.pc].Arg = arg
	}
	if len(undefined) > 0 {
		return fg.errorf("jump to undefined label %s", strings.Join(undefined, ", "))
	}
	return nil
}
