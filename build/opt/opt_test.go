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

package opt_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quill-lang/quill/build/check"
	"github.com/quill-lang/quill/build/ir"
	"github.com/quill-lang/quill/build/irgen"
	"github.com/quill-lang/quill/build/opt"
	"github.com/quill-lang/quill/build/parser"
	"github.com/quill-lang/quill/build/source"
)

func generate(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, err := parser.Parse(source.NewFile("test.ql", src))
	if err != nil {
		t.Fatalf("cannot parse:\n%s\nerror: %v", src, err)
	}
	pkg, err := check.Check(prog)
	if err != nil {
		t.Fatalf("cannot check:\n%s\nerror: %v", src, err)
	}
	irProg, err := irgen.Generate(pkg)
	if err != nil {
		t.Fatalf("cannot generate IR:\n%s\nerror: %v", src, err)
	}
	return irProg
}

func TestFoldInstr(t *testing.T) {
	v := func(id int) ir.Var { return ir.Var{ID: ir.VarID(id)} }
	tests := []struct {
		instr ir.Instr
		want  string
	}{
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.Add, X: ir.IntOf(1), Y: ir.IntOf(2)}, want: "v0 = 3"},
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.Add, X: ir.IntOf(1), Y: ir.FloatOf(0.5)}, want: "v0 = 1.5"},
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.Div, X: ir.IntOf(7), Y: ir.IntOf(2)}, want: "v0 = 3"},
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.Mod, X: ir.IntOf(7), Y: ir.IntOf(2)}, want: "v0 = 1"},
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.Div, X: ir.IntOf(10), Y: ir.IntOf(0)}, want: "v0 = 10 / 0"},
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.Mod, X: ir.FloatOf(1), Y: ir.FloatOf(0)}, want: "v0 = 1.0 % 0.0"},
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.Add, X: v(1), Y: ir.IntOf(2)}, want: "v0 = v1 + 2"},
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.Add, X: ir.StringOf("a"), Y: ir.StringOf("b")}, want: `v0 = "ab"`},
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.Le, X: ir.IntOf(1), Y: ir.IntOf(2)}, want: "v0 = true"},
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.Eq, X: ir.IntOf(1), Y: ir.FloatOf(1)}, want: "v0 = true"},
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.And, X: ir.BoolOf(true), Y: ir.BoolOf(false)}, want: "v0 = false"},
		{instr: &ir.BinaryOp{Dst: 0, Op: ir.Eq, X: ir.FuncOf("f"), Y: ir.FuncOf("f")}, want: "v0 = @f == @f"},
		{instr: &ir.UnaryOp{Dst: 0, Op: ir.Neg, X: ir.IntOf(3)}, want: "v0 = -3"},
		{instr: &ir.UnaryOp{Dst: 0, Op: ir.Not, X: ir.BoolOf(true)}, want: "v0 = false"},
		{instr: &ir.UnaryOp{Dst: 0, Op: ir.Len, X: ir.StringOf("abc")}, want: "v0 = 3"},
		{instr: &ir.UnaryOp{Dst: 0, Op: ir.IntToFloat, X: ir.IntOf(2)}, want: "v0 = 2.0"},
		{instr: &ir.UnaryOp{Dst: 0, Op: ir.IntToFloat, X: v(1)}, want: "v0 = itof v1"},
	}
	for _, test := range tests {
		fn := &ir.Function{Name: "f", NumVars: 2, Body: []source.Located[ir.Instr]{
			source.At(test.instr, source.Span{}),
		}}
		opt.ConstantFolding{}.Run(fn)
		if got := fn.Body[0].Val.String(); got != test.want {
			t.Errorf("got %q but want %q", got, test.want)
		}
	}
}

func TestOptimize(t *testing.T) {
	prog := generate(t, `
fn main() {
	let x = 1 + 2;
	while x < 10 * 2 {
		x = x + 1;
	}
	if !false { x } else { 10 / 0 }
}`)
	before := prog.Funcs[0].String()
	numInstrs := len(prog.Funcs[0].Body)
	stats := opt.Optimize(prog)
	if got, want := len(prog.Funcs[0].Body), numInstrs; got != want {
		t.Errorf("got %d instructions after optimization but want %d", got, want)
	}
	if diff := cmp.Diff(opt.Stats{"constant-folding": 3}, stats); diff != "" {
		t.Errorf("unexpected statistics (-want +got):\n%s", diff)
	}
	want := strings.NewReplacer(
		"v0 = 1 + 2", "v0 = 3",
		"v2 = 10 * 2", "v2 = 20",
		"v5 = not false", "v5 = true",
	).Replace(before)
	if diff := cmp.Diff(want, prog.Funcs[0].String()); diff != "" {
		t.Errorf("unexpected IR (-want +got):\n%s", diff)
	}
	if err := ir.Validate(prog); err != nil {
		t.Errorf("optimized IR is invalid: %v", err)
	}
}

func TestCustomPasses(t *testing.T) {
	prog := generate(t, `fn main() { 1 + 2 }`)
	stats := opt.Optimize(prog, countPass{})
	if diff := cmp.Diff(opt.Stats{"count": 2}, stats); diff != "" {
		t.Errorf("unexpected statistics (-want +got):\n%s", diff)
	}
	if _, folded := prog.Funcs[0].Body[0].Val.(*ir.Assign); folded {
		t.Errorf("default passes have been run")
	}
}

type countPass struct{}

func (countPass) Name() string { return "count" }

func (countPass) Run(fn *ir.Function) int { return len(fn.Body) }
