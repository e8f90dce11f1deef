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

// Package irgen lowers a type checked program to the quill IR.
//
// Every expression is lowered to zero or more instructions and an operand
// holding its value. Literals stay literals, everything computed is written
// to a fresh register. Operands are lowered from left to right.
package irgen

import (
	"fmt"
	"strconv"

	"github.com/quill-lang/quill/base/uname"
	"github.com/quill-lang/quill/build/ast"
	"github.com/quill-lang/quill/build/check"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/ir"
	"github.com/quill-lang/quill/build/source"
	"github.com/quill-lang/quill/internal/base/scope"
)

type generator struct {
	pkg  *check.Package
	prog *ir.Program
}

// Generate the IR of a type checked program.
// Functions are generated in declaration order. Function literals are
// generated as separate functions named after their enclosing function.
func Generate(pkg *check.Package) (*ir.Program, error) {
	g := &generator{pkg: pkg, prog: &ir.Program{}}
	for _, fn := range pkg.Funcs.Values() {
		decl := fn.Decl
		if _, err := g.function(decl.Name.Name, decl.Params, decl.Body); err != nil {
			return nil, err
		}
	}
	if err := ir.Validate(g.prog); err != nil {
		return nil, fmterr.Internal(err)
	}
	return g.prog, nil
}

// function generates the IR of a function and adds it to the program.
func (g *generator) function(name string, params []*ast.Param, body *ast.BlockExpr) (*ir.Function, error) {
	fg := &funcGen{
		g:  g,
		fn: &ir.Function{Name: name},
		sc: scope.NewScope[ir.VarID](nil),
	}
	// The function is added before its body is generated
	// so that it comes before its function literals.
	g.prog.Funcs = append(g.prog.Funcs, fg.fn)
	for _, param := range params {
		fg.fn.Params = append(fg.fn.Params, param.Name.Name)
		fg.sc.Define(param.Name.Name, fg.newVar())
	}
	result, err := fg.expr(body)
	if err != nil {
		return nil, err
	}
	fg.emit(body.Src, &ir.Return{Value: result})
	return fg.fn, nil
}

// funcGen generates the instructions of a single function.
type funcGen struct {
	g  *generator
	fn *ir.Function
	sc *scope.RWScope[ir.VarID]

	labels  uname.Counter
	lambdas uname.Counter
}

func (fg *funcGen) newVar() ir.VarID {
	id := ir.VarID(fg.fn.NumVars)
	fg.fn.NumVars++
	return id
}

// newLabel returns a label name unique in the function.
func (fg *funcGen) newLabel(prefix string) string {
	return fg.labels.Name(prefix)
}

func (fg *funcGen) emit(span source.Span, instr ir.Instr) {
	fg.fn.Body = append(fg.fn.Body, source.At(instr, span))
}

// errorf returns an IR error. IR errors are only returned on programs
// that the type checker should have rejected.
func (fg *funcGen) errorf(node ast.Node, format string, a ...any) error {
	return fmterr.Errorf(fmterr.IR, node.Span(), "function %s: %s", fg.fn.Name, fmt.Sprintf(format, a...))
}

// pushScope opens a new scope and returns a function closing it.
func (fg *funcGen) pushScope() func() {
	parent := fg.sc
	fg.sc = scope.NewScope[ir.VarID](parent)
	return func() { fg.sc = parent }
}

// expr lowers an expression and returns the operand holding its value,
// nil if the expression has no value.
func (fg *funcGen) expr(x ast.Expr) (ir.Operand, error) {
	op, err := fg.lowerExpr(x)
	if err != nil {
		return nil, err
	}
	if op == nil || !fg.g.pkg.Widen[x] {
		return op, nil
	}
	dst := fg.newVar()
	fg.emit(x.Span(), &ir.UnaryOp{Dst: dst, Op: ir.IntToFloat, X: op})
	return ir.Var{ID: dst}, nil
}

// value lowers an expression which must have a value.
func (fg *funcGen) value(x ast.Expr) (ir.Operand, error) {
	op, err := fg.expr(x)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fg.errorf(x, "%s has no value", ast.String(x))
	}
	return op, nil
}

func (fg *funcGen) values(xs []ast.Expr) ([]ir.Operand, error) {
	ops := make([]ir.Operand, len(xs))
	for i, x := range xs {
		var err error
		if ops[i], err = fg.value(x); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

func (fg *funcGen) lowerExpr(x ast.Expr) (ir.Operand, error) {
	switch xT := x.(type) {
	case *ast.BasicLit:
		return basicLit(xT), nil
	case *ast.Ident:
		return fg.ident(xT)
	case *ast.BinaryExpr:
		return fg.binary(xT)
	case *ast.UnaryExpr:
		return fg.unary(xT)
	case *ast.CallExpr:
		return fg.call(xT)
	case *ast.IfExpr:
		return fg.ifExpr(xT)
	case *ast.BlockExpr:
		return fg.block(xT)
	case *ast.AssignExpr:
		return nil, fg.assign(xT)
	case *ast.FieldExpr:
		return fg.field(xT)
	case *ast.ArrayLit:
		elems, err := fg.values(xT.Elems)
		if err != nil {
			return nil, err
		}
		dst := fg.newVar()
		fg.emit(xT.Src, &ir.ArrayNew{Dst: dst, Elems: elems})
		return ir.Var{ID: dst}, nil
	case *ast.IndexExpr:
		array, err := fg.value(xT.X)
		if err != nil {
			return nil, err
		}
		index, err := fg.value(xT.Index)
		if err != nil {
			return nil, err
		}
		dst := fg.newVar()
		fg.emit(xT.Src, &ir.IndexGet{Dst: dst, Array: array, Index: index})
		return ir.Var{ID: dst}, nil
	case *ast.LambdaExpr:
		return fg.lambda(xT)
	case *ast.StructLit:
		return fg.structLit(xT)
	}
	return nil, fg.errorf(x, "expression %T not supported", x)
}

func basicLit(lit *ast.BasicLit) ir.Operand {
	switch lit.Kind {
	case ast.IntLit:
		return ir.IntOf(lit.Int)
	case ast.FloatLit:
		return ir.FloatOf(lit.Float)
	case ast.StringLit:
		return ir.StringOf(lit.Str)
	default:
		return ir.BoolOf(lit.Bool)
	}
}

func (fg *funcGen) ident(ident *ast.Ident) (ir.Operand, error) {
	if id, ok := fg.sc.Find(ident.Name); ok {
		return ir.Var{ID: id}, nil
	}
	if _, ok := fg.g.pkg.Funcs.Load(ident.Name); ok {
		return ir.FuncOf(ident.Name), nil
	}
	return nil, fg.errorf(ident, "reference to unbound variable %s", ident.Name)
}

var binOps = map[ast.Op]ir.BinOp{
	ast.Add: ir.Add,
	ast.Sub: ir.Sub,
	ast.Mul: ir.Mul,
	ast.Div: ir.Div,
	ast.Rem: ir.Mod,
	ast.Eql: ir.Eq,
	ast.Neq: ir.Ne,
	ast.Lss: ir.Lt,
	ast.Leq: ir.Le,
	ast.Gtr: ir.Gt,
	ast.Geq: ir.Ge,
}

func (fg *funcGen) binary(expr *ast.BinaryExpr) (ir.Operand, error) {
	if expr.Op.IsLogical() {
		return fg.logical(expr)
	}
	op, ok := binOps[expr.Op]
	if !ok {
		return nil, fg.errorf(expr, "binary operator %s not supported", expr.Op)
	}
	x, err := fg.value(expr.X)
	if err != nil {
		return nil, err
	}
	y, err := fg.value(expr.Y)
	if err != nil {
		return nil, err
	}
	dst := fg.newVar()
	fg.emit(expr.Src, &ir.BinaryOp{Dst: dst, Op: op, X: x, Y: y})
	return ir.Var{ID: dst}, nil
}

// logical lowers && and || such that the right operand is only
// evaluated when the left operand does not determine the result.
func (fg *funcGen) logical(expr *ast.BinaryExpr) (ir.Operand, error) {
	x, err := fg.value(expr.X)
	if err != nil {
		return nil, err
	}
	dst := fg.newVar()
	fg.emit(expr.X.Span(), &ir.Assign{Dst: dst, Src: x})
	end := fg.newLabel("sc")
	var cond ir.Operand = ir.Var{ID: dst}
	if expr.Op == ast.LOr {
		not := fg.newVar()
		fg.emit(expr.Src, &ir.UnaryOp{Dst: not, Op: ir.Not, X: cond})
		cond = ir.Var{ID: not}
	}
	fg.emit(expr.Src, &ir.CondJump{Cond: cond, Label: end})
	y, err := fg.value(expr.Y)
	if err != nil {
		return nil, err
	}
	fg.emit(expr.Y.Span(), &ir.Assign{Dst: dst, Src: y})
	fg.emit(expr.Src, &ir.Label{Name: end})
	return ir.Var{ID: dst}, nil
}

func (fg *funcGen) unary(expr *ast.UnaryExpr) (ir.Operand, error) {
	var op ir.UnOp
	switch expr.Op {
	case ast.Neg:
		op = ir.Neg
	case ast.Not:
		op = ir.Not
	default:
		return nil, fg.errorf(expr, "unary operator %s not supported", expr.Op)
	}
	x, err := fg.value(expr.X)
	if err != nil {
		return nil, err
	}
	dst := fg.newVar()
	fg.emit(expr.Src, &ir.UnaryOp{Dst: dst, Op: op, X: x})
	return ir.Var{ID: dst}, nil
}

func (fg *funcGen) call(call *ast.CallExpr) (ir.Operand, error) {
	if builtin, ok := fg.g.pkg.Builtins[call]; ok {
		return fg.builtin(call, builtin)
	}
	if variant, ok := fg.g.pkg.Variants[call]; ok {
		return fg.variant(call, variant, call.Args)
	}
	callee, err := fg.value(call.Callee)
	if err != nil {
		return nil, err
	}
	args, err := fg.values(call.Args)
	if err != nil {
		return nil, err
	}
	dst := fg.newVar()
	fg.emit(call.Src, &ir.Call{Dst: dst, Callee: callee, Args: args})
	return ir.Var{ID: dst}, nil
}

func (fg *funcGen) builtin(call *ast.CallExpr, builtin check.Builtin) (ir.Operand, error) {
	arg, err := fg.value(call.Args[0])
	if err != nil {
		return nil, err
	}
	switch builtin {
	case check.Print:
		fg.emit(call.Src, &ir.Print{Value: arg})
		return nil, nil
	case check.Len:
		dst := fg.newVar()
		fg.emit(call.Src, &ir.UnaryOp{Dst: dst, Op: ir.Len, X: arg})
		return ir.Var{ID: dst}, nil
	}
	return nil, fg.errorf(call, "builtin %s not supported", builtin)
}

// variant builds the record of an enum variant.
// The fields of the payload are named by their position.
func (fg *funcGen) variant(x ast.Expr, variant *check.Variant, payload []ast.Expr) (ir.Operand, error) {
	values, err := fg.values(payload)
	if err != nil {
		return nil, err
	}
	fields := make([]string, len(values))
	for i := range fields {
		fields[i] = strconv.Itoa(i)
	}
	dst := fg.newVar()
	fg.emit(x.Span(), &ir.RecordNew{Dst: dst, Type: variant.RecordName(), Fields: fields, Values: values})
	return ir.Var{ID: dst}, nil
}

func (fg *funcGen) ifExpr(expr *ast.IfExpr) (ir.Operand, error) {
	cond, err := fg.value(expr.Cond)
	if err != nil {
		return nil, err
	}
	if expr.Else == nil {
		end := fg.newLabel("end")
		fg.emit(expr.Cond.Span(), &ir.CondJump{Cond: cond, Label: end})
		if _, err := fg.expr(expr.Then); err != nil {
			return nil, err
		}
		fg.emit(expr.Src, &ir.Label{Name: end})
		return nil, nil
	}
	elseLabel := fg.newLabel("else")
	end := fg.newLabel("end")
	fg.emit(expr.Cond.Span(), &ir.CondJump{Cond: cond, Label: elseLabel})
	// The result register is allocated after the branches have been lowered.
	// A branch with a value assigns it once the register is known.
	var pending []*ir.Assign
	branch := func(x ast.Expr) error {
		op, err := fg.expr(x)
		if err != nil || op == nil {
			return err
		}
		assign := &ir.Assign{Src: op}
		pending = append(pending, assign)
		fg.emit(x.Span(), assign)
		return nil
	}
	if err := branch(expr.Then); err != nil {
		return nil, err
	}
	fg.emit(expr.Then.Src, &ir.Jump{Label: end})
	fg.emit(expr.Src, &ir.Label{Name: elseLabel})
	if err := branch(expr.Else); err != nil {
		return nil, err
	}
	fg.emit(expr.Src, &ir.Label{Name: end})
	if len(pending) == 0 {
		return nil, nil
	}
	dst := fg.newVar()
	for _, assign := range pending {
		assign.Dst = dst
	}
	return ir.Var{ID: dst}, nil
}

func (fg *funcGen) block(block *ast.BlockExpr) (ir.Operand, error) {
	defer fg.pushScope()()
	for _, stmt := range block.Stmts {
		if err := fg.stmt(stmt); err != nil {
			return nil, err
		}
	}
	if block.Value == nil {
		return nil, nil
	}
	return fg.expr(block.Value)
}

func (fg *funcGen) assign(expr *ast.AssignExpr) error {
	switch target := expr.Target.(type) {
	case *ast.Ident:
		id, ok := fg.sc.Find(target.Name)
		if !ok {
			return fg.errorf(target, "assignment to unbound variable %s", target.Name)
		}
		val, err := fg.value(expr.Value)
		if err != nil {
			return err
		}
		fg.emit(expr.Src, &ir.Assign{Dst: id, Src: val})
	case *ast.FieldExpr:
		record, err := fg.value(target.X)
		if err != nil {
			return err
		}
		val, err := fg.value(expr.Value)
		if err != nil {
			return err
		}
		fg.emit(expr.Src, &ir.FieldSet{Record: record, Field: target.Field.Name, Value: val})
	case *ast.IndexExpr:
		array, err := fg.value(target.X)
		if err != nil {
			return err
		}
		index, err := fg.value(target.Index)
		if err != nil {
			return err
		}
		val, err := fg.value(expr.Value)
		if err != nil {
			return err
		}
		fg.emit(expr.Src, &ir.IndexSet{Array: array, Index: index, Value: val})
	default:
		return fg.errorf(target, "cannot assign to %s", ast.String(target))
	}
	return nil
}

func (fg *funcGen) field(expr *ast.FieldExpr) (ir.Operand, error) {
	if variant, ok := fg.g.pkg.Variants[expr]; ok {
		return fg.variant(expr, variant, nil)
	}
	record, err := fg.value(expr.X)
	if err != nil {
		return nil, err
	}
	dst := fg.newVar()
	fg.emit(expr.Src, &ir.FieldGet{Dst: dst, Record: record, Field: expr.Field.Name})
	return ir.Var{ID: dst}, nil
}

func (fg *funcGen) lambda(lambda *ast.LambdaExpr) (ir.Operand, error) {
	name := fg.lambdas.Name(fg.fn.Name + "$lambda")
	if _, err := fg.g.function(name, lambda.Params, lambda.Body); err != nil {
		return nil, err
	}
	return ir.FuncOf(name), nil
}

func (fg *funcGen) structLit(lit *ast.StructLit) (ir.Operand, error) {
	typ, ok := fg.g.pkg.Types[lit]
	if !ok {
		return nil, fg.errorf(lit, "no type for structure literal")
	}
	def, ok := fg.g.pkg.Defs.Load(typ.String())
	if !ok || def.Fields == nil {
		return nil, fg.errorf(lit, "%s is not a structure", typ)
	}
	// Field values are evaluated in source order
	// but stored in declaration order.
	values := make(map[string]ir.Operand, len(lit.Fields))
	for _, field := range lit.Fields {
		val, err := fg.value(field.Value)
		if err != nil {
			return nil, err
		}
		values[field.Name.Name] = val
	}
	record := &ir.RecordNew{Type: def.Name}
	for name := range def.Fields.Keys() {
		record.Fields = append(record.Fields, name)
		record.Values = append(record.Values, values[name])
	}
	record.Dst = fg.newVar()
	fg.emit(lit.Src, record)
	return ir.Var{ID: record.Dst}, nil
}
