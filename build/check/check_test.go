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

package check_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quill-lang/quill/build/ast"
	"github.com/quill-lang/quill/build/check"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/parser"
	"github.com/quill-lang/quill/build/source"
	"github.com/quill-lang/quill/build/types"
)

func checkSource(src string) (*check.Package, error) {
	prog, err := parser.Parse(source.NewFile("test.ql", src))
	if err != nil {
		return nil, err
	}
	return check.Check(prog)
}

func mustCheck(t *testing.T, src string) *check.Package {
	t.Helper()
	pkg, err := checkSource(src)
	if err != nil {
		t.Fatalf("cannot check:\n%s\nerror: %+v", src, err)
	}
	return pkg
}

// valueType returns the type of the value of the main function.
func valueType(t *testing.T, pkg *check.Package) string {
	t.Helper()
	main, ok := pkg.Funcs.Load(check.EntryName)
	if !ok {
		t.Fatal("main function not found")
	}
	value := main.Decl.Body.Value
	if value == nil {
		return "<none>"
	}
	typ, ok := pkg.Types[value]
	if !ok {
		t.Fatalf("no type for %s", ast.String(value))
	}
	return typ.String()
}

func TestExprTypes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: "2 + 3 * 4", want: "int"},
		{src: "2 + 3.5", want: "float"},
		{src: "10 / 0", want: "int"},
		{src: `"a" + "b"`, want: "string"},
		{src: "1 < 2.5 && !false", want: "bool"},
		{src: "[1, 2.5]", want: "[float]"},
		{src: "[[1], []]", want: "[[int]]"},
		{src: "if true { 1 } else { 2.0 }", want: "float"},
		{src: "if true { 1 }", want: "unit"},
		{src: "{ let x = 1; x = 2; x }", want: "int"},
		{src: "len([1, 2, 3])", want: "int"},
		{src: `len("abc")`, want: "int"},
		{src: "print(1)", want: "unit"},
		{src: "-(1.5)", want: "float"},
		{src: "fn(x: int) -> int { x * 2 }", want: "fn(int) -> int"},
		{src: "fn(x: int) { x * 2 }(3)", want: "int"},
		{src: "[1, 2][0]", want: "int"},
		{src: "1 == 1.0", want: "bool"},
	}
	for _, test := range tests {
		pkg, err := checkSource("fn main() { " + test.src + " }")
		if err != nil {
			t.Errorf("%s: %v", test.src, err)
			continue
		}
		if got := valueType(t, pkg); got != test.want {
			t.Errorf("%s: got type %s but want %s", test.src, got, test.want)
		}
	}
}

func TestFunctions(t *testing.T) {
	pkg := mustCheck(t, `
fn factorial(n: int) -> int {
	if n <= 1 { 1 } else { n * factorial(n - 1) }
}

fn twice(f: fn(int) -> int, x: int) -> int {
	f(f(x))
}

fn inc(x: int) { x + 1 }

fn sign(x: int) {
	if x < 0 { return -1; }
	return 1;
}

fn half(x: int) -> float { x }

fn main() {
	print(twice(inc, factorial(5)) + sign(2));
}
`)
	got := make(map[string]string)
	for name, fn := range pkg.Funcs.Iter() {
		got[name] = fn.Type.String()
	}
	want := map[string]string{
		"factorial": "fn(int) -> int",
		"twice":     "fn(fn(int) -> int, int) -> int",
		"inc":       "fn(int) -> int",
		"sign":      "fn(int) -> int",
		"half":      "fn(int) -> float",
		"main":      "fn()",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected function types (-want +got):\n%s", diff)
	}
	half, _ := pkg.Funcs.Load("half")
	if !pkg.Widen[half.Decl.Body] {
		t.Errorf("body of half is not widened to float")
	}
}

func TestWiden(t *testing.T) {
	pkg := mustCheck(t, `
fn main() {
	let x: float = 1;
	x
}`)
	main, _ := pkg.Funcs.Load("main")
	let := main.Decl.Body.Stmts[0].(*ast.LetStmt)
	if !pkg.Widen[let.Value] {
		t.Errorf("value of let statement is not widened")
	}
	if got := valueType(t, pkg); got != "float" {
		t.Errorf("got type %s but want float", got)
	}
}

func TestTypeDefinitions(t *testing.T) {
	pkg := mustCheck(t, `
struct Point { x: float, y: float }

enum Shape {
	Circle(float),
	Rect(Point, Point),
	Empty,
}

type Points = [Point];

fn area(s: Shape) -> float {
	if s == Shape.Empty { 0.0 } else { 1.0 }
}

fn main() {
	let pts: Points = [Point { y: 2.0, x: 1 }];
	pts[0].x = 3.0;
	let s = Shape.Circle(2.0);
	area(s) + pts[0].y
}
`)
	if got := valueType(t, pkg); got != "float" {
		t.Errorf("got type %s but want float", got)
	}
	shape, ok := pkg.Defs.Load("Shape")
	if !ok {
		t.Fatal("enum Shape not defined")
	}
	var variants []string
	for _, v := range shape.Variants.Values() {
		variants = append(variants, v.RecordName())
	}
	if diff := cmp.Diff([]string{"Shape.Circle", "Shape.Rect", "Shape.Empty"}, variants); diff != "" {
		t.Errorf("unexpected variants (-want +got):\n%s", diff)
	}
	if len(pkg.Variants) != 2 {
		t.Errorf("got %d variant expressions but want 2", len(pkg.Variants))
	}
	points, _ := pkg.Defs.Load("Points")
	if !types.Equal(points.Alias, &types.Array{Elem: &types.Named{Name: "Point"}}) {
		t.Errorf("alias Points resolved to %s", points.Alias)
	}
}

func TestPayloads(t *testing.T) {
	const decls = `
enum Shape { Circle(float), Rect(float, float), Empty }
enum Tree { Leaf(int), Node(Tree, Tree) }
enum Pair { Of(Shape, Shape) }
`
	tests := []struct {
		body string
		want string
	}{
		{body: "Shape.Circle(2.0).0", want: "float"},
		{body: "Shape.Rect(1.0, 2.0).1", want: "float"},
		{body: "Tree.Node(Tree.Leaf(1), Tree.Leaf(2)).1", want: "Tree"},
		{body: "Pair.Of(Shape.Empty, Shape.Circle(1.0)).1.0", want: "float"},
	}
	for _, test := range tests {
		pkg := mustCheck(t, decls+"fn main() { "+test.body+" }")
		if got := valueType(t, pkg); got != test.want {
			t.Errorf("%s: got type %s but want %s", test.body, got, test.want)
		}
	}
	errs := []struct {
		body string
		err  string
	}{
		{body: "Shape.Empty.2", err: "no variant of enum Shape has a payload 2"},
		{body: "Tree.Leaf(1).0", err: "payload 0 of enum Tree is int or Tree depending on the variant"},
		{body: "Shape.Empty.x", err: "enum Shape has no field x"},
	}
	for _, test := range errs {
		_, err := checkSource(decls + "fn main() { " + test.body + " }")
		if err == nil || !strings.Contains(err.Error(), test.err) {
			t.Errorf("%s: got error %v but want %q", test.body, err, test.err)
		}
	}
}

func TestBuiltins(t *testing.T) {
	pkg := mustCheck(t, `fn main() { print(len([1])); }`)
	var got []string
	for call, builtin := range pkg.Builtins {
		got = append(got, ast.String(call)+":"+builtin.String())
	}
	if len(got) != 2 {
		t.Errorf("got builtins %v but want print and len", got)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src string
		err string
	}{
		{
			src: `fn main() { let x: int = "hello"; }`,
			err: `1:26: type error: cannot use "hello" (type string) as int value in assignment to x`,
		},
		{src: `fn main() { 1 + "a" }`, err: "operator + not defined on int and string"},
		{src: `fn main() { y }`, err: "undefined: y"},
		{src: `fn main() { if 1 { 2 } }`, err: "non-boolean condition 1 (type int) in if expression"},
		{src: `fn main() { if true { 1 } else { "a" } }`, err: "if branches have mismatched types int and string"},
		{src: `fn f(x: int) -> int { x } fn main() { f(1, 2) }`, err: "wrong number of arguments in call to f: got 2, want 1"},
		{src: `fn f(x: int) -> int { x } fn main() { f(1.5) }`, err: "cannot use 1.5 (type float) as int value in argument to f"},
		{src: `fn main() { let x = 1; x(2) }`, err: "cannot call non-function x (type int)"},
		{src: `fn f() { f() } fn main() { f() }`, err: "function f is recursive and needs an explicit result type"},
		{src: `fn f() -> int { "s" } fn main() {}`, err: "as int value in function result"},
		{src: `fn f() -> int { return 1.5; } fn main() {}`, err: "in return statement"},
		{src: `fn other() {}`, err: "function main is undeclared"},
		{src: `fn main(x: int) {}`, err: "function main must have no parameters"},
		{src: `fn f() {} fn f() {} fn main() {}`, err: "function f redeclared"},
		{src: `struct P { x: int } struct P { y: int } fn main() {}`, err: "type P redeclared"},
		{src: `struct P { x: T } fn main() {}`, err: "undefined type: T"},
		{src: `type A = B; type B = A; fn main() {}`, err: "invalid recursive type alias"},
		{src: `fn main() { let x = 1; let f = fn() -> int { x }; }`, err: "function literal cannot capture local variable x"},
		{src: `fn main() { print }`, err: "builtin function print must be called"},
		{src: `fn main() { print(1, 2) }`, err: "wrong number of arguments in call to print: got 2, want 1"},
		{src: `fn main() { len(1) }`, err: "invalid argument 1 (type int) for len"},
		{src: `fn print() {} fn main() {}`, err: "cannot redefine builtin function print"},
		{src: `struct P { x: int } fn main() { P { x: 1 }.y }`, err: "has no field y"},
		{src: `struct P { x: int } fn main() { P {} }`, err: "missing field x in P literal"},
		{src: `struct P { x: int } fn main() { P { x: 1, z: 2 } }`, err: "unknown field z in P literal"},
		{src: `enum E { A, B(int) } fn main() { E.C }`, err: "enum E has no variant C"},
		{src: `enum E { A, B(int) } fn main() { E.B }`, err: "variant E.B requires 1 arguments"},
		{src: `enum E { A, B(int) } fn main() { E.A(1) }`, err: "variant E.A has no payload"},
		{src: `fn main() { let x = []; }`, err: "cannot infer the type of x: add a type annotation"},
		{src: `fn main() { let x = print(1); }`, err: "(type unit) used as value"},
		{src: `fn main() { [1][true] }`, err: "invalid index true (type bool): must be int"},
		{src: `fn main() { for i in 0..1.5 {} }`, err: "range bounds must be int, got int and float"},
		{src: `fn main() { for i in 3 {} }`, err: "cannot range over 3 (type int)"},
		{src: `fn main() { main = main; }`, err: "cannot assign to function main"},
		{src: `fn main() { while 1 {} }`, err: "non-boolean condition 1 (type int) in while statement"},
		{src: `fn main() { [1, "a"] }`, err: `cannot use "a" (type string) as int value in array literal`},
		{src: `fn main() -> int { return; }`, err: "not enough return values: want int"},
		{src: `struct int { x: int } fn main() {}`, err: "cannot redefine builtin type int"},
		{src: `fn main() { -true }`, err: "operator - not defined on bool"},
		{src: `fn main() { "a" < "b" }`, err: "operator < not defined on string and string"},
	}
	for _, test := range tests {
		_, err := checkSource(test.src)
		if err == nil {
			t.Errorf("%s: expected an error but got nil", test.src)
			continue
		}
		if !strings.Contains(err.Error(), test.err) {
			t.Errorf("%s: got error %q but want an error containing %q", test.src, err.Error(), test.err)
		}
		if stage, ok := fmterr.StageOf(err); !ok || stage != fmterr.Type {
			t.Errorf("%s: error %v is not a type error", test.src, err)
		}
	}
}

func TestDeterministic(t *testing.T) {
	const src = `
fn a() -> int { b() }
fn b() -> int { 1 }
fn main() { a() }
`
	var want []string
	for i := 0; i < 5; i++ {
		pkg := mustCheck(t, src)
		var got []string
		for name := range pkg.Funcs.Keys() {
			got = append(got, name)
		}
		if i == 0 {
			want = got
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("run %d: unexpected function order (-want +got):\n%s", i, diff)
		}
	}
}
