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

package check

import (
	"strconv"

	"github.com/quill-lang/quill/build/ast"
	"github.com/quill-lang/quill/build/types"
	"github.com/quill-lang/quill/internal/base/scope"
)

type bindingKind int

const (
	localBinding bindingKind = iota
	funcBinding
)

// binding is what a name refers to in a scope.
type binding struct {
	kind bindingKind
	// typ is the type of a local variable.
	typ types.Type
	// fn is the function of a function binding.
	fn *Func
}

type returnSite struct {
	stmt *ast.ReturnStmt
	typ  types.Type
}

// funcChecker checks the body of a single function.
type funcChecker struct {
	c *checker
	// result is the declared result type. nil if it is inferred.
	result types.Type
	// returns are the return statements found in a function
	// whose result type is inferred.
	returns []returnSite
	// outer is the scope enclosing a function literal.
	outer *scope.RWScope[*binding]
}

// assign checks that a value of type vt can be used as a value of type target.
func (fc *funcChecker) assign(value ast.Expr, vt, target types.Type, context string) error {
	switch types.AssignableTo(vt, target) {
	case types.Widened:
		fc.c.pkg.Widen[value] = true
	case types.NotAssignable:
		return errorf(value, "cannot use %s (type %s) as %s value in %s", ast.String(value), vt, target, context)
	}
	return nil
}

func (fc *funcChecker) record(x ast.Expr, typ types.Type) (types.Type, error) {
	fc.c.pkg.Types[x] = typ
	return typ, nil
}

func (fc *funcChecker) checkExpr(sc *scope.RWScope[*binding], x ast.Expr) (types.Type, error) {
	switch xT := x.(type) {
	case *ast.BasicLit:
		return fc.record(x, basicLitType(xT))
	case *ast.Ident:
		return fc.checkIdent(sc, xT)
	case *ast.BinaryExpr:
		return fc.checkBinary(sc, xT)
	case *ast.UnaryExpr:
		return fc.checkUnary(sc, xT)
	case *ast.CallExpr:
		return fc.checkCall(sc, xT)
	case *ast.IfExpr:
		return fc.checkIf(sc, xT)
	case *ast.BlockExpr:
		return fc.checkBlock(sc, xT)
	case *ast.AssignExpr:
		return fc.checkAssign(sc, xT)
	case *ast.FieldExpr:
		return fc.checkField(sc, xT)
	case *ast.ArrayLit:
		return fc.checkArrayLit(sc, xT)
	case *ast.IndexExpr:
		return fc.checkIndex(sc, xT)
	case *ast.LambdaExpr:
		return fc.checkLambda(sc, xT)
	case *ast.StructLit:
		return fc.checkStructLit(sc, xT)
	}
	return nil, errorf(x, "expression %T not supported", x)
}

func basicLitType(lit *ast.BasicLit) types.Type {
	switch lit.Kind {
	case ast.IntLit:
		return types.IntType()
	case ast.FloatLit:
		return types.FloatType()
	case ast.StringLit:
		return types.StringType()
	default:
		return types.BoolType()
	}
}

// funcType returns the type of a declared function,
// checking its body first if its result type needs to be inferred.
func (fc *funcChecker) funcType(ref *ast.Ident, fn *Func) (*types.Func, error) {
	if fn.Type.Result != nil {
		return fn.Type, nil
	}
	if fn.state == checking {
		return nil, errorf(ref, "function %s is recursive and needs an explicit result type", fn.Decl.Name.Name)
	}
	if err := fc.c.checkFunc(fn); err != nil {
		return nil, err
	}
	return fn.Type, nil
}

func (fc *funcChecker) checkIdent(sc *scope.RWScope[*binding], ident *ast.Ident) (types.Type, error) {
	b, ok := sc.Find(ident.Name)
	if !ok {
		return nil, fc.undefined(ident)
	}
	if b.kind == funcBinding {
		ftype, err := fc.funcType(ident, b.fn)
		if err != nil {
			return nil, err
		}
		return fc.record(ident, ftype)
	}
	return fc.record(ident, b.typ)
}

// undefined returns the error for a name that cannot be found in a scope.
func (fc *funcChecker) undefined(ident *ast.Ident) error {
	if fc.outer != nil {
		if b, ok := fc.outer.Find(ident.Name); ok && b.kind == localBinding {
			return errorf(ident, "function literal cannot capture local variable %s", ident.Name)
		}
	}
	if _, ok := builtins[ident.Name]; ok {
		return errorf(ident, "builtin function %s must be called", ident.Name)
	}
	if _, ok := fc.c.pkg.Defs.Load(ident.Name); ok {
		return errorf(ident, "%s is a type, not a value", ident.Name)
	}
	return errorf(ident, "undefined: %s", ident.Name)
}

func (fc *funcChecker) checkBinary(sc *scope.RWScope[*binding], expr *ast.BinaryExpr) (types.Type, error) {
	xt, err := fc.checkExpr(sc, expr.X)
	if err != nil {
		return nil, err
	}
	yt, err := fc.checkExpr(sc, expr.Y)
	if err != nil {
		return nil, err
	}
	mismatch := func() error {
		return errorf(expr, "invalid operation: operator %s not defined on %s and %s", expr.Op, xt, yt)
	}
	switch {
	case expr.Op.IsLogical():
		if !types.Is(xt, types.Bool) || !types.Is(yt, types.Bool) {
			return nil, mismatch()
		}
		return fc.record(expr, types.BoolType())
	case expr.Op.IsEquality():
		if !types.Comparable(xt, yt) {
			return nil, mismatch()
		}
		return fc.record(expr, types.BoolType())
	case expr.Op.IsOrdering():
		if !types.IsNumeric(xt) || !types.IsNumeric(yt) {
			return nil, mismatch()
		}
		return fc.record(expr, types.BoolType())
	case expr.Op == ast.Add && types.Is(xt, types.String) && types.Is(yt, types.String):
		return fc.record(expr, types.StringType())
	case expr.Op.IsArithmetic():
		if !types.IsNumeric(xt) || !types.IsNumeric(yt) {
			return nil, mismatch()
		}
		if types.Is(xt, types.Int) && types.Is(yt, types.Int) {
			return fc.record(expr, types.IntType())
		}
		return fc.record(expr, types.FloatType())
	}
	return nil, errorf(expr, "binary operator %s not supported", expr.Op)
}

func (fc *funcChecker) checkUnary(sc *scope.RWScope[*binding], expr *ast.UnaryExpr) (types.Type, error) {
	xt, err := fc.checkExpr(sc, expr.X)
	if err != nil {
		return nil, err
	}
	switch expr.Op {
	case ast.Neg:
		if !types.IsNumeric(xt) {
			return nil, errorf(expr, "invalid operation: operator - not defined on %s", xt)
		}
		return fc.record(expr, xt)
	case ast.Not:
		if !types.Is(xt, types.Bool) {
			return nil, errorf(expr, "invalid operation: operator ! not defined on %s", xt)
		}
		return fc.record(expr, xt)
	}
	return nil, errorf(expr, "unary operator %s not supported", expr.Op)
}

func (fc *funcChecker) checkArgs(sc *scope.RWScope[*binding], call *ast.CallExpr, name string, params []types.Type) error {
	if len(call.Args) != len(params) {
		return errorf(call, "wrong number of arguments in call to %s: got %d, want %d", name, len(call.Args), len(params))
	}
	for i, arg := range call.Args {
		at, err := fc.checkExpr(sc, arg)
		if err != nil {
			return err
		}
		if err := fc.assign(arg, at, params[i], "argument to "+name); err != nil {
			return err
		}
	}
	return nil
}

func (fc *funcChecker) checkCall(sc *scope.RWScope[*binding], call *ast.CallExpr) (types.Type, error) {
	if ident, ok := call.Callee.(*ast.Ident); ok {
		if _, defined := sc.Find(ident.Name); !defined {
			if builtin, ok := builtins[ident.Name]; ok {
				return fc.checkBuiltin(sc, call, builtin)
			}
		}
	}
	if variant, err := fc.variant(sc, call.Callee); err != nil {
		return nil, err
	} else if variant != nil {
		if len(variant.Payload) == 0 {
			return nil, errorf(call, "variant %s has no payload", variant.RecordName())
		}
		if err := fc.checkArgs(sc, call, variant.RecordName(), variant.Payload); err != nil {
			return nil, err
		}
		fc.c.pkg.Variants[call] = variant
		return fc.record(call, &types.Named{Name: variant.Enum.Name})
	}
	ct, err := fc.checkExpr(sc, call.Callee)
	if err != nil {
		return nil, err
	}
	ftype, ok := ct.(*types.Func)
	if !ok {
		return nil, errorf(call.Callee, "invalid operation: cannot call non-function %s (type %s)", ast.String(call.Callee), ct)
	}
	if err := fc.checkArgs(sc, call, ast.String(call.Callee), ftype.Params); err != nil {
		return nil, err
	}
	return fc.record(call, ftype.Result)
}

func (fc *funcChecker) checkBuiltin(sc *scope.RWScope[*binding], call *ast.CallExpr, builtin Builtin) (types.Type, error) {
	if len(call.Args) != 1 {
		return nil, errorf(call, "wrong number of arguments in call to %s: got %d, want 1", builtin, len(call.Args))
	}
	at, err := fc.checkExpr(sc, call.Args[0])
	if err != nil {
		return nil, err
	}
	var result types.Type
	switch builtin {
	case Print:
		if types.Is(at, types.Unit) || types.Is(at, types.Never) {
			return nil, errorf(call.Args[0], "cannot print a value of type %s", at)
		}
		result = types.UnitType()
	case Len:
		_, isArray := at.(*types.Array)
		if !isArray && !types.Is(at, types.String) {
			return nil, errorf(call.Args[0], "invalid argument %s (type %s) for len", ast.String(call.Args[0]), at)
		}
		result = types.IntType()
	}
	fc.c.pkg.Builtins[call] = builtin
	return fc.record(call, result)
}

// variant returns the enum variant an expression refers to
// or nil if the expression does not refer to a variant.
func (fc *funcChecker) variant(sc *scope.RWScope[*binding], x ast.Expr) (*Variant, error) {
	field, ok := x.(*ast.FieldExpr)
	if !ok {
		return nil, nil
	}
	ident, ok := field.X.(*ast.Ident)
	if !ok {
		return nil, nil
	}
	if _, isValue := sc.Find(ident.Name); isValue {
		return nil, nil
	}
	def, ok := fc.c.pkg.Defs.Load(ident.Name)
	if !ok {
		return nil, nil
	}
	if def.Kind != EnumDef {
		return nil, errorf(field, "type %s has no variant", def.Name)
	}
	variant, ok := def.Variants.Load(field.Field.Name)
	if !ok {
		return nil, errorf(field.Field, "enum %s has no variant %s", def.Name, field.Field.Name)
	}
	return variant, nil
}

func (fc *funcChecker) checkIf(sc *scope.RWScope[*binding], expr *ast.IfExpr) (types.Type, error) {
	ct, err := fc.checkExpr(sc, expr.Cond)
	if err != nil {
		return nil, err
	}
	if !types.Is(ct, types.Bool) {
		return nil, errorf(expr.Cond, "non-boolean condition %s (type %s) in if expression", ast.String(expr.Cond), ct)
	}
	tt, err := fc.checkExpr(sc, expr.Then)
	if err != nil {
		return nil, err
	}
	if expr.Else == nil {
		return fc.record(expr, types.UnitType())
	}
	et, err := fc.checkExpr(sc, expr.Else)
	if err != nil {
		return nil, err
	}
	joined, ok := types.Join(tt, et)
	if !ok {
		return nil, errorf(expr, "if branches have mismatched types %s and %s", tt, et)
	}
	if err := fc.assign(expr.Then, tt, joined, "if branch"); err != nil {
		return nil, err
	}
	if err := fc.assign(expr.Else, et, joined, "else branch"); err != nil {
		return nil, err
	}
	return fc.record(expr, joined)
}

func (fc *funcChecker) checkAssign(sc *scope.RWScope[*binding], expr *ast.AssignExpr) (types.Type, error) {
	var target types.Type
	switch t := expr.Target.(type) {
	case *ast.Ident:
		b, ok := sc.Find(t.Name)
		if !ok {
			return nil, fc.undefined(t)
		}
		if b.kind != localBinding {
			return nil, errorf(t, "cannot assign to function %s", t.Name)
		}
		target = b.typ
		fc.record(t, target)
	case *ast.FieldExpr, *ast.IndexExpr:
		var err error
		if target, err = fc.checkExpr(sc, t); err != nil {
			return nil, err
		}
		if _, isVariant := fc.c.pkg.Variants[t]; isVariant {
			return nil, errorf(t, "cannot assign to %s", ast.String(t))
		}
	default:
		return nil, errorf(t, "cannot assign to %s", ast.String(t))
	}
	vt, err := fc.checkExpr(sc, expr.Value)
	if err != nil {
		return nil, err
	}
	if err := fc.assign(expr.Value, vt, target, "assignment to "+ast.String(expr.Target)); err != nil {
		return nil, err
	}
	return fc.record(expr, types.UnitType())
}

func (fc *funcChecker) checkField(sc *scope.RWScope[*binding], expr *ast.FieldExpr) (types.Type, error) {
	variant, err := fc.variant(sc, expr)
	if err != nil {
		return nil, err
	}
	if variant != nil {
		if len(variant.Payload) > 0 {
			return nil, errorf(expr, "variant %s requires %d arguments", variant.RecordName(), len(variant.Payload))
		}
		fc.c.pkg.Variants[expr] = variant
		return fc.record(expr, &types.Named{Name: variant.Enum.Name})
	}
	xt, err := fc.checkExpr(sc, expr.X)
	if err != nil {
		return nil, err
	}
	named, ok := xt.(*types.Named)
	if !ok {
		return nil, errorf(expr, "%s (type %s) has no field %s", ast.String(expr.X), xt, expr.Field.Name)
	}
	def, _ := fc.c.pkg.Defs.Load(named.Name)
	if def != nil && def.Kind == EnumDef {
		ft, err := payloadType(def, expr.Field)
		if err != nil {
			return nil, err
		}
		return fc.record(expr, ft)
	}
	if def == nil || def.Kind != StructDef {
		return nil, errorf(expr, "%s (type %s) has no field %s", ast.String(expr.X), xt, expr.Field.Name)
	}
	ft, ok := def.Fields.Load(expr.Field.Name)
	if !ok {
		return nil, errorf(expr.Field, "%s (type %s) has no field %s", ast.String(expr.X), xt, expr.Field.Name)
	}
	return fc.record(expr, ft)
}

// payloadType returns the type of the payload at a given position in the
// variants of an enum. All the variants with a payload at that position
// need to agree on its type. Reading the payload of a variant without it
// fails at runtime.
func payloadType(def *TypeDef, field *ast.Ident) (types.Type, error) {
	pos, err := strconv.Atoi(field.Name)
	if err != nil {
		return nil, errorf(field, "enum %s has no field %s", def.Name, field.Name)
	}
	var ft types.Type
	for _, variant := range def.Variants.Values() {
		if pos >= len(variant.Payload) {
			continue
		}
		pt := variant.Payload[pos]
		if ft == nil {
			ft = pt
			continue
		}
		if !types.Equal(ft, pt) {
			return nil, errorf(field, "payload %d of enum %s is %s or %s depending on the variant", pos, def.Name, ft, pt)
		}
	}
	if ft == nil {
		return nil, errorf(field, "no variant of enum %s has a payload %d", def.Name, pos)
	}
	return ft, nil
}

func (fc *funcChecker) checkArrayLit(sc *scope.RWScope[*binding], lit *ast.ArrayLit) (types.Type, error) {
	var elem types.Type = types.NeverType()
	elemTypes := make([]types.Type, len(lit.Elems))
	for i, x := range lit.Elems {
		xt, err := fc.checkExpr(sc, x)
		if err != nil {
			return nil, err
		}
		joined, ok := types.Join(elem, xt)
		if !ok {
			return nil, errorf(x, "cannot use %s (type %s) as %s value in array literal", ast.String(x), xt, elem)
		}
		elem, elemTypes[i] = joined, xt
	}
	for i, x := range lit.Elems {
		if err := fc.assign(x, elemTypes[i], elem, "array literal"); err != nil {
			return nil, err
		}
	}
	return fc.record(lit, &types.Array{Elem: elem})
}

func (fc *funcChecker) checkIndex(sc *scope.RWScope[*binding], expr *ast.IndexExpr) (types.Type, error) {
	xt, err := fc.checkExpr(sc, expr.X)
	if err != nil {
		return nil, err
	}
	array, ok := xt.(*types.Array)
	if !ok {
		return nil, errorf(expr, "invalid operation: cannot index %s (type %s)", ast.String(expr.X), xt)
	}
	it, err := fc.checkExpr(sc, expr.Index)
	if err != nil {
		return nil, err
	}
	if !types.Is(it, types.Int) {
		return nil, errorf(expr.Index, "invalid index %s (type %s): must be int", ast.String(expr.Index), it)
	}
	return fc.record(expr, array.Elem)
}

func (fc *funcChecker) checkLambda(sc *scope.RWScope[*binding], lambda *ast.LambdaExpr) (types.Type, error) {
	ftype, err := fc.c.signature(lambda.Params, lambda.Result)
	if err != nil {
		return nil, err
	}
	if ftype.Result, err = fc.c.checkBody(lambda.Params, ftype, lambda.Body, sc); err != nil {
		return nil, err
	}
	return fc.record(lambda, ftype)
}

func (fc *funcChecker) checkStructLit(sc *scope.RWScope[*binding], lit *ast.StructLit) (types.Type, error) {
	def, ok := fc.c.pkg.Defs.Load(lit.Type.Name)
	if !ok {
		return nil, errorf(lit.Type, "undefined type: %s", lit.Type.Name)
	}
	if def.Kind == AliasDef {
		named, isNamed := def.Alias.(*types.Named)
		if isNamed {
			def, _ = fc.c.pkg.Defs.Load(named.Name)
		}
	}
	if def == nil || def.Kind != StructDef {
		return nil, errorf(lit.Type, "%s is not a structure type", lit.Type.Name)
	}
	set := make(map[string]bool)
	for _, field := range lit.Fields {
		ft, ok := def.Fields.Load(field.Name.Name)
		if !ok {
			return nil, errorf(field.Name, "unknown field %s in %s literal", field.Name.Name, def.Name)
		}
		if set[field.Name.Name] {
			return nil, errorf(field.Name, "duplicate field %s in %s literal", field.Name.Name, def.Name)
		}
		set[field.Name.Name] = true
		vt, err := fc.checkExpr(sc, field.Value)
		if err != nil {
			return nil, err
		}
		if err := fc.assign(field.Value, vt, ft, "field "+field.Name.Name); err != nil {
			return nil, err
		}
	}
	for name := range def.Fields.Keys() {
		if !set[name] {
			return nil, errorf(lit, "missing field %s in %s literal", name, def.Name)
		}
	}
	return fc.record(lit, &types.Named{Name: def.Name})
}
