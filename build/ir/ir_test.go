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

package ir_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/ir"
	"github.com/quill-lang/quill/build/source"
)

func body(instrs ...ir.Instr) []source.Located[ir.Instr] {
	located := make([]source.Located[ir.Instr], len(instrs))
	for i, instr := range instrs {
		located[i] = source.At(instr, source.Span{})
	}
	return located
}

func v(id int) ir.Var {
	return ir.Var{ID: ir.VarID(id)}
}

func TestString(t *testing.T) {
	fn := &ir.Function{
		Name:    "abs",
		Params:  []string{"x"},
		NumVars: 3,
		Body: body(
			&ir.BinaryOp{Dst: 1, Op: ir.Lt, X: v(0), Y: ir.IntOf(0)},
			&ir.CondJump{Cond: v(1), Label: "else.0"},
			&ir.UnaryOp{Dst: 2, Op: ir.Neg, X: v(0)},
			&ir.Jump{Label: "end.1"},
			&ir.Label{Name: "else.0"},
			&ir.Assign{Dst: 2, Src: v(0)},
			&ir.Label{Name: "end.1"},
			&ir.Print{Value: ir.StringOf("done")},
			&ir.Return{Value: v(2)},
		),
	}
	want := `func abs(v0 x) {
	v1 = v0 < 0
	ifnot v1 goto else.0
	v2 = neg v0
	goto end.1
else.0:
	v2 = v0
end.1:
	print "done"
	return v2
}
`
	if diff := cmp.Diff(want, fn.String()); diff != "" {
		t.Errorf("unexpected listing (-want +got):\n%s", diff)
	}
}

func TestOperandString(t *testing.T) {
	tests := []struct {
		op   ir.Operand
		want string
	}{
		{op: v(4), want: "v4"},
		{op: ir.IntOf(-3), want: "-3"},
		{op: ir.FloatOf(2), want: "2.0"},
		{op: ir.FloatOf(0.25), want: "0.25"},
		{op: ir.BoolOf(true), want: "true"},
		{op: ir.StringOf("a\n"), want: `"a\n"`},
		{op: ir.FuncOf("main"), want: "@main"},
	}
	for _, test := range tests {
		if got := test.op.String(); got != test.want {
			t.Errorf("got %q but want %q", got, test.want)
		}
	}
}

func TestInstrString(t *testing.T) {
	tests := []struct {
		instr ir.Instr
		want  string
	}{
		{instr: &ir.Call{Dst: 3, Callee: ir.FuncOf("f"), Args: []ir.Operand{v(1), ir.IntOf(2)}}, want: "v3 = call @f(v1, 2)"},
		{instr: &ir.ArrayNew{Dst: 0, Elems: []ir.Operand{ir.IntOf(1), ir.IntOf(2)}}, want: "v0 = [1, 2]"},
		{instr: &ir.IndexGet{Dst: 1, Array: v(0), Index: ir.IntOf(0)}, want: "v1 = v0[0]"},
		{instr: &ir.IndexSet{Array: v(0), Index: ir.IntOf(0), Value: v(1)}, want: "v0[0] = v1"},
		{instr: &ir.FieldGet{Dst: 2, Record: v(1), Field: "x"}, want: "v2 = v1.x"},
		{instr: &ir.FieldSet{Record: v(1), Field: "x", Value: ir.FloatOf(1.5)}, want: "v1.x = 1.5"},
		{
			instr: &ir.RecordNew{Dst: 1, Type: "Point", Fields: []string{"x", "y"}, Values: []ir.Operand{v(0), ir.FloatOf(1)}},
			want:  "v1 = Point {x: v0, y: 1.0}",
		},
		{instr: &ir.UnaryOp{Dst: 1, Op: ir.IntToFloat, X: v(0)}, want: "v1 = itof v0"},
		{instr: &ir.Return{}, want: "return"},
	}
	for _, test := range tests {
		if got := test.instr.String(); got != test.want {
			t.Errorf("got %q but want %q", got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		fn  *ir.Function
		err string
	}{
		{
			fn: &ir.Function{Name: "ok", Params: []string{"a"}, NumVars: 2, Body: body(
				&ir.BinaryOp{Dst: 1, Op: ir.Add, X: v(0), Y: ir.IntOf(1)},
				&ir.Return{Value: v(1)},
			)},
		},
		{
			fn: &ir.Function{Name: "f", NumVars: 2, Body: body(
				&ir.Assign{Dst: 0, Src: v(1)},
				&ir.Return{},
			)},
			err: "function f: v0 = v1: v1 used before being defined",
		},
		{
			fn: &ir.Function{Name: "f", NumVars: 1, Body: body(
				&ir.Jump{Label: "end.0"},
				&ir.Return{},
			)},
			err: "undefined label end.0",
		},
		{
			fn: &ir.Function{Name: "f", NumVars: 1, Body: body(
				&ir.Label{Name: "loop.0"},
				&ir.Label{Name: "loop.0"},
				&ir.Return{},
			)},
			err: "label loop.0 defined more than once",
		},
		{
			fn: &ir.Function{Name: "f", NumVars: 1, Body: body(
				&ir.Assign{Dst: 3, Src: ir.IntOf(1)},
			)},
			err: "register v3 out of range",
		},
	}
	for _, test := range tests {
		err := ir.Validate(&ir.Program{Funcs: []*ir.Function{test.fn}})
		if test.err == "" {
			if err != nil {
				t.Errorf("%s: unexpected error: %v", test.fn.Name, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("%s: expected error %q but got nil", test.fn.Name, test.err)
			continue
		}
		if !strings.Contains(err.Error(), test.err) {
			t.Errorf("got error %q but want an error containing %q", err.Error(), test.err)
		}
		if stage, _ := fmterr.StageOf(err); stage != fmterr.IR {
			t.Errorf("error %v is not an IR error", err)
		}
	}
}

func TestFind(t *testing.T) {
	prog := &ir.Program{Funcs: []*ir.Function{{Name: "main"}, {Name: "f"}}}
	if got := prog.Find("f"); got != prog.Funcs[1] {
		t.Errorf("Find(f) = %v", got)
	}
	if got := prog.Find("g"); got != nil {
		t.Errorf("Find(g) = %v but want nil", got)
	}
}
