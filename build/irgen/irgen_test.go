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

package irgen_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quill-lang/quill/base/ordered"
	"github.com/quill-lang/quill/build/ast"
	"github.com/quill-lang/quill/build/check"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/ir"
	"github.com/quill-lang/quill/build/irgen"
	"github.com/quill-lang/quill/build/parser"
	"github.com/quill-lang/quill/build/source"
	"github.com/quill-lang/quill/build/types"
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
		t.Fatalf("cannot generate IR:\n%s\nerror: %+v", src, err)
	}
	return irProg
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "arithmetic",
			src:  `fn main() { 2 + 3 * 4 }`,
			want: `
func main() {
	v0 = 3 * 4
	v1 = 2 + v0
	return v1
}
`,
		},
		{
			name: "factorial",
			src: `
fn f(n: int) -> int { if n <= 1 { 1 } else { n * f(n - 1) } }
fn main() { f(5) }
`,
			want: `
func f(v0 n) {
	v1 = v0 <= 1
	ifnot v1 goto else.0
	v5 = 1
	goto end.1
else.0:
	v2 = v0 - 1
	v3 = call @f(v2)
	v4 = v0 * v3
	v5 = v4
end.1:
	return v5
}

func main() {
	v0 = call @f(5)
	return v0
}
`,
		},
		{
			name: "short circuit",
			src:  `fn main() { true && false }`,
			want: `
func main() {
	v0 = true
	ifnot v0 goto sc.0
	v0 = false
sc.0:
	return v0
}
`,
		},
		{
			name: "or",
			src:  `fn main() { false || true }`,
			want: `
func main() {
	v0 = false
	v1 = not v0
	ifnot v1 goto sc.0
	v0 = true
sc.0:
	return v0
}
`,
		},
		{
			name: "for range",
			src:  `fn main() { let s = 0; for i in 0..3 { s = s + i; } s }`,
			want: `
func main() {
	v0 = 0
	v1 = 0
	v2 = 3
loop.0:
	v3 = v1 < v2
	ifnot v3 goto end.1
	v4 = v1
	v5 = v0 + v4
	v0 = v5
	v1 = v1 + 1
	goto loop.0
end.1:
	return v0
}
`,
		},
		{
			name: "for array",
			src:  `fn main() { for x in [7] { print(x); } }`,
			want: `
func main() {
	v0 = [7]
	v1 = v0
	v2 = len v1
	v3 = 0
loop.0:
	v4 = v3 < v2
	ifnot v4 goto end.1
	v5 = v1[v3]
	print v5
	v3 = v3 + 1
	goto loop.0
end.1:
	return
}
`,
		},
		{
			name: "while",
			src:  `fn main() { let i = 0; while i < 2 { i = i + 1; } }`,
			want: `
func main() {
	v0 = 0
loop.0:
	v1 = v0 < 2
	ifnot v1 goto end.1
	v2 = v0 + 1
	v0 = v2
	goto loop.0
end.1:
	return
}
`,
		},
		{
			name: "if without else",
			src:  `fn main() { if true { print(1); } }`,
			want: `
func main() {
	ifnot true goto end.0
	print 1
end.0:
	return
}
`,
		},
		{
			name: "lambda",
			src:  `fn main() { let f = fn(x: int) -> int { x + 1 }; f(2) }`,
			want: `
func main() {
	v0 = @main$lambda.0
	v1 = call v0(2)
	return v1
}

func main$lambda.0(v0 x) {
	v1 = v0 + 1
	return v1
}
`,
		},
		{
			name: "widening",
			src:  `fn main() { let x: float = 1; x }`,
			want: `
func main() {
	v0 = itof 1
	v1 = v0
	return v1
}
`,
		},
		{
			name: "records",
			src: `
struct P { x: int, y: int }
enum E { A, B(int) }
fn main() {
	let p = P { y: 2, x: 1 };
	p.x = len("ab");
	let e = E.B(p.y);
	e == E.A
}
`,
			want: `
func main() {
	v0 = P {x: 1, y: 2}
	v1 = v0
	v2 = len "ab"
	v1.x = v2
	v3 = v1.y
	v4 = E.B {0: v3}
	v5 = v4
	v6 = E.A {}
	v7 = v5 == v6
	return v7
}
`,
		},
		{
			name: "arrays",
			src:  `fn main() { let a = [1, 2]; a[0] = a[1]; -a[0] }`,
			want: `
func main() {
	v0 = [1, 2]
	v1 = v0
	v2 = v1[1]
	v1[0] = v2
	v3 = v1[0]
	v4 = neg v3
	return v4
}
`,
		},
		{
			name: "return",
			src:  `fn f(x: int) -> int { if x < 0 { return 0; } x } fn main() {}`,
			want: `
func f(v0 x) {
	v1 = v0 < 0
	ifnot v1 goto end.0
	return 0
end.0:
	return v0
}

func main() {
	return
}
`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := generate(t, test.src).String()
			want := strings.TrimPrefix(test.want, "\n")
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("unexpected IR (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLabelsAreUnique(t *testing.T) {
	prog := generate(t, `
fn main() {
	let n = 0;
	while n < 10 {
		if n % 2 == 0 && n > 3 { print(n); } else { print(0); }
		for i in 0..n { if i == 1 || i == 2 { print(i); } }
		n = n + 1;
	}
}`)
	labels := make(map[string]bool)
	for _, instr := range prog.Funcs[0].Body {
		label, ok := instr.Val.(*ir.Label)
		if !ok {
			continue
		}
		if labels[label.Name] {
			t.Errorf("label %s defined twice", label.Name)
		}
		labels[label.Name] = true
	}
	if len(labels) != 9 {
		t.Errorf("got %d labels but want 9", len(labels))
	}
}

func TestUnboundVariable(t *testing.T) {
	prog, err := parser.Parse(source.NewFile("test.ql", "fn main() { y }"))
	if err != nil {
		t.Fatal(err)
	}
	main := prog.Decls[0].(*ast.FuncDecl)
	funcs := ordered.NewMap[string, *check.Func]()
	funcs.Store("main", &check.Func{Decl: main, Type: &types.Func{Result: types.UnitType()}})
	pkg := &check.Package{
		Program: prog,
		Defs:    ordered.NewMap[string, *check.TypeDef](),
		Funcs:   funcs,
		Types:   map[ast.Expr]types.Type{},
		Widen:   map[ast.Expr]bool{},
	}
	_, err = irgen.Generate(pkg)
	if err == nil {
		t.Fatal("expected an error but got nil")
	}
	if stage, _ := fmterr.StageOf(err); stage != fmterr.IR {
		t.Errorf("error %v is not an IR error", err)
	}
	if want := "reference to unbound variable y"; !strings.Contains(err.Error(), want) {
		t.Errorf("got error %q but want an error containing %q", err, want)
	}
}
