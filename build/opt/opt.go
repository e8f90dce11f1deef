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

// Package opt rewrites the IR of a program to make it faster to execute.
//
// Passes rewrite instructions in place: an instruction may be replaced by
// another instruction at the same index, but instructions are never added,
// removed or reordered, so labels and jumps remain valid.
package opt

import (
	"github.com/quill-lang/quill/build/ir"
	"github.com/quill-lang/quill/interp/value"
)

// Pass is an optimization applied to every function of a program.
type Pass interface {
	// Name of the pass, used in traces.
	Name() string
	// Run the pass on a function and return the number of rewritten instructions.
	Run(fn *ir.Function) int
}

// DefaultPasses are the passes run when no pass is specified.
var DefaultPasses = []Pass{ConstantFolding{}}

// Stats counts the instructions rewritten by each pass.
type Stats map[string]int

// Optimize runs a list of passes, in order, on every function of a program.
// The default passes are used if no pass is given.
func Optimize(prog *ir.Program, passes ...Pass) Stats {
	if len(passes) == 0 {
		passes = DefaultPasses
	}
	stats := make(Stats)
	for _, pass := range passes {
		for _, fn := range prog.Funcs {
			stats[pass.Name()] += pass.Run(fn)
		}
	}
	return stats
}

// ConstantFolding replaces operations on literals by the literal result.
//
// Operations that would fail at runtime, like a division by zero,
// are not folded such that the error is still reported at runtime.
type ConstantFolding struct{}

// Name of the pass.
func (ConstantFolding) Name() string { return "constant-folding" }

// Run the pass on a function.
func (ConstantFolding) Run(fn *ir.Function) int {
	folded := 0
	for i, instr := range fn.Body {
		var result ir.Operand
		var dst ir.VarID
		switch in := instr.Val.(type) {
		case *ir.BinaryOp:
			result, dst = foldBinary(in), in.Dst
		case *ir.UnaryOp:
			result, dst = foldUnary(in), in.Dst
		}
		if result == nil {
			continue
		}
		fn.Body[i].Val = &ir.Assign{Dst: dst, Src: result}
		folded++
	}
	return folded
}

var binOps = map[ir.BinOp]value.Op{
	ir.Add: value.Add,
	ir.Sub: value.Sub,
	ir.Mul: value.Mul,
	ir.Div: value.Div,
	ir.Mod: value.Mod,
	ir.Eq:  value.Eq,
	ir.Ne:  value.Ne,
	ir.Lt:  value.Lt,
	ir.Le:  value.Le,
	ir.Gt:  value.Gt,
	ir.Ge:  value.Ge,
	ir.And: value.And,
	ir.Or:  value.Or,
}

func foldBinary(in *ir.BinaryOp) ir.Operand {
	x, xOk := toValue(in.X)
	y, yOk := toValue(in.Y)
	op, opOk := binOps[in.Op]
	if !xOk || !yOk || !opOk {
		return nil
	}
	r, err := value.Binary(op, x, y)
	if err != nil {
		return nil
	}
	return toLit(r)
}

func foldUnary(in *ir.UnaryOp) ir.Operand {
	x, ok := toValue(in.X)
	if !ok {
		return nil
	}
	var r value.Value
	var err error
	switch in.Op {
	case ir.Neg:
		r, err = value.Neg(x)
	case ir.Not:
		r, err = value.Not(x)
	case ir.Len:
		r, err = value.Len(x)
	case ir.IntToFloat:
		r, err = value.ToFloat(x)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return toLit(r)
}

// toValue returns the value of a literal of a primitive type.
func toValue(op ir.Operand) (value.Value, bool) {
	lit, ok := op.(ir.Lit)
	if !ok {
		return nil, false
	}
	switch lit.Kind {
	case ir.IntLit:
		return value.Int(lit.Int), true
	case ir.FloatLit:
		return value.Float(lit.Float), true
	case ir.BoolLit:
		return value.Bool(lit.Bool), true
	case ir.StringLit:
		return value.Str(lit.Str), true
	}
	return nil, false
}

func toLit(v value.Value) ir.Operand {
	switch vT := v.(type) {
	case value.Int:
		return ir.IntOf(int64(vT))
	case value.Float:
		return ir.FloatOf(float64(vT))
	case value.Bool:
		return ir.BoolOf(bool(vT))
	case value.Str:
		return ir.StringOf(string(vT))
	}
	return nil
}
