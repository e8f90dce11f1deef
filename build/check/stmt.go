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
	"github.com/quill-lang/quill/build/ast"
	"github.com/quill-lang/quill/build/types"
	"github.com/quill-lang/quill/internal/base/scope"
)

// checkBlock checks a block in a new scope.
// The type of a block is the type of its value, never if its last statement
// does not complete normally, or unit otherwise.
func (fc *funcChecker) checkBlock(parent *scope.RWScope[*binding], block *ast.BlockExpr) (types.Type, error) {
	sc := scope.NewScope[*binding](parent)
	diverges := false
	for _, stmt := range block.Stmts {
		var err error
		if diverges, err = fc.checkStmt(sc, stmt); err != nil {
			return nil, err
		}
	}
	switch {
	case block.Value != nil:
		vt, err := fc.checkExpr(sc, block.Value)
		if err != nil {
			return nil, err
		}
		return fc.record(block, vt)
	case diverges:
		return fc.record(block, types.NeverType())
	default:
		return fc.record(block, types.UnitType())
	}
}

// checkStmt checks a statement and reports if the statement never completes normally.
func (fc *funcChecker) checkStmt(sc *scope.RWScope[*binding], stmt ast.Stmt) (bool, error) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		return false, fc.checkLet(sc, s)
	case *ast.ReturnStmt:
		return true, fc.checkReturn(sc, s)
	case *ast.WhileStmt:
		return false, fc.checkWhile(sc, s)
	case *ast.ForStmt:
		return false, fc.checkFor(sc, s)
	case *ast.ExprStmt:
		xt, err := fc.checkExpr(sc, s.X)
		if err != nil {
			return false, err
		}
		return types.Is(xt, types.Never), nil
	}
	return false, errorf(stmt, "statement %T not supported", stmt)
}

func (fc *funcChecker) checkLet(sc *scope.RWScope[*binding], stmt *ast.LetStmt) error {
	vt, err := fc.checkExpr(sc, stmt.Value)
	if err != nil {
		return err
	}
	typ := vt
	if stmt.Type != nil {
		if typ, err = fc.c.resolveType(stmt.Type); err != nil {
			return err
		}
		if err := fc.assign(stmt.Value, vt, typ, "assignment to "+stmt.Name.Name); err != nil {
			return err
		}
	}
	switch {
	case types.Is(typ, types.Unit), types.Is(typ, types.Never):
		return errorf(stmt.Value, "%s (type %s) used as value", ast.String(stmt.Value), typ)
	case isEmptyArray(typ):
		return errorf(stmt, "cannot infer the type of %s: add a type annotation", stmt.Name.Name)
	}
	sc.Define(stmt.Name.Name, &binding{kind: localBinding, typ: typ})
	return nil
}

func isEmptyArray(typ types.Type) bool {
	array, ok := typ.(*types.Array)
	return ok && types.Is(array.Elem, types.Never)
}

func (fc *funcChecker) checkReturn(sc *scope.RWScope[*binding], stmt *ast.ReturnStmt) error {
	var vt types.Type = types.UnitType()
	if stmt.Value != nil {
		var err error
		if vt, err = fc.checkExpr(sc, stmt.Value); err != nil {
			return err
		}
	}
	if fc.result == nil {
		fc.returns = append(fc.returns, returnSite{stmt: stmt, typ: vt})
		return nil
	}
	if stmt.Value == nil {
		if !types.Is(fc.result, types.Unit) {
			return errorf(stmt, "not enough return values: want %s", fc.result)
		}
		return nil
	}
	return fc.assign(stmt.Value, vt, fc.result, "return statement")
}

func (fc *funcChecker) checkCond(sc *scope.RWScope[*binding], cond ast.Expr, context string) error {
	ct, err := fc.checkExpr(sc, cond)
	if err != nil {
		return err
	}
	if !types.Is(ct, types.Bool) {
		return errorf(cond, "non-boolean condition %s (type %s) in %s", ast.String(cond), ct, context)
	}
	return nil
}

func (fc *funcChecker) checkWhile(sc *scope.RWScope[*binding], stmt *ast.WhileStmt) error {
	if err := fc.checkCond(sc, stmt.Cond, "while statement"); err != nil {
		return err
	}
	_, err := fc.checkBlock(sc, stmt.Body)
	return err
}

func (fc *funcChecker) checkFor(sc *scope.RWScope[*binding], stmt *ast.ForStmt) error {
	st, err := fc.checkExpr(sc, stmt.Start)
	if err != nil {
		return err
	}
	var varType types.Type
	if stmt.End != nil {
		et, err := fc.checkExpr(sc, stmt.End)
		if err != nil {
			return err
		}
		if !types.Is(st, types.Int) || !types.Is(et, types.Int) {
			return errorf(stmt, "range bounds must be int, got %s and %s", st, et)
		}
		varType = types.IntType()
	} else {
		array, ok := st.(*types.Array)
		if !ok {
			return errorf(stmt.Start, "cannot range over %s (type %s)", ast.String(stmt.Start), st)
		}
		varType = array.Elem
	}
	loop := scope.NewScope[*binding](sc)
	loop.Define(stmt.Var.Name, &binding{kind: localBinding, typ: varType})
	_, err = fc.checkBlock(loop, stmt.Body)
	return err
}
