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

package irgen

import (
	"github.com/quill-lang/quill/build/ast"
	"github.com/quill-lang/quill/build/ir"
)

func (fg *funcGen) stmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		val, err := fg.value(s.Value)
		if err != nil {
			return err
		}
		dst := fg.newVar()
		fg.emit(s.Src, &ir.Assign{Dst: dst, Src: val})
		fg.sc.Define(s.Name.Name, dst)
		return nil
	case *ast.ReturnStmt:
		var val ir.Operand
		if s.Value != nil {
			var err error
			if val, err = fg.value(s.Value); err != nil {
				return err
			}
		}
		fg.emit(s.Src, &ir.Return{Value: val})
		return nil
	case *ast.WhileStmt:
		return fg.while(s)
	case *ast.ForStmt:
		if s.End != nil {
			return fg.forRange(s)
		}
		return fg.forArray(s)
	case *ast.ExprStmt:
		_, err := fg.expr(s.X)
		return err
	}
	return fg.errorf(stmt, "statement %T not supported", stmt)
}

func (fg *funcGen) while(stmt *ast.WhileStmt) error {
	loop := fg.newLabel("loop")
	end := fg.newLabel("end")
	fg.emit(stmt.Src, &ir.Label{Name: loop})
	cond, err := fg.value(stmt.Cond)
	if err != nil {
		return err
	}
	fg.emit(stmt.Cond.Span(), &ir.CondJump{Cond: cond, Label: end})
	if _, err := fg.expr(stmt.Body); err != nil {
		return err
	}
	fg.emit(stmt.Src, &ir.Jump{Label: loop})
	fg.emit(stmt.Src, &ir.Label{Name: end})
	return nil
}

// loop lowers the body of a for statement iterating while counter < limit.
// elem writes the value of the loop variable given the counter.
func (fg *funcGen) loop(stmt *ast.ForStmt, counter ir.VarID, limit ir.Operand, elem func(dst ir.VarID) ir.Instr) error {
	loop := fg.newLabel("loop")
	end := fg.newLabel("end")
	fg.emit(stmt.Src, &ir.Label{Name: loop})
	cond := fg.newVar()
	fg.emit(stmt.Src, &ir.BinaryOp{Dst: cond, Op: ir.Lt, X: ir.Var{ID: counter}, Y: limit})
	fg.emit(stmt.Src, &ir.CondJump{Cond: ir.Var{ID: cond}, Label: end})
	// The loop variable is distinct from the counter
	// such that assigning to it does not change the iteration.
	closeScope := fg.pushScope()
	v := fg.newVar()
	fg.emit(stmt.Var.Src, elem(v))
	fg.sc.Define(stmt.Var.Name, v)
	if _, err := fg.expr(stmt.Body); err != nil {
		return err
	}
	closeScope()
	fg.emit(stmt.Src, &ir.BinaryOp{Dst: counter, Op: ir.Add, X: ir.Var{ID: counter}, Y: ir.IntOf(1)})
	fg.emit(stmt.Src, &ir.Jump{Label: loop})
	fg.emit(stmt.Src, &ir.Label{Name: end})
	return nil
}

func (fg *funcGen) forRange(stmt *ast.ForStmt) error {
	start, err := fg.value(stmt.Start)
	if err != nil {
		return err
	}
	end, err := fg.value(stmt.End)
	if err != nil {
		return err
	}
	counter := fg.newVar()
	fg.emit(stmt.Start.Span(), &ir.Assign{Dst: counter, Src: start})
	limit := fg.newVar()
	fg.emit(stmt.End.Span(), &ir.Assign{Dst: limit, Src: end})
	return fg.loop(stmt, counter, ir.Var{ID: limit}, func(dst ir.VarID) ir.Instr {
		return &ir.Assign{Dst: dst, Src: ir.Var{ID: counter}}
	})
}

func (fg *funcGen) forArray(stmt *ast.ForStmt) error {
	val, err := fg.value(stmt.Start)
	if err != nil {
		return err
	}
	array := fg.newVar()
	fg.emit(stmt.Start.Span(), &ir.Assign{Dst: array, Src: val})
	limit := fg.newVar()
	fg.emit(stmt.Start.Span(), &ir.UnaryOp{Dst: limit, Op: ir.Len, X: ir.Var{ID: array}})
	counter := fg.newVar()
	fg.emit(stmt.Start.Span(), &ir.Assign{Dst: counter, Src: ir.IntOf(0)})
	return fg.loop(stmt, counter, ir.Var{ID: limit}, func(dst ir.VarID) ir.Instr {
		return &ir.IndexGet{Dst: dst, Array: ir.Var{ID: array}, Index: ir.Var{ID: counter}}
	})
}
