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

// Package ast declares the types used to represent quill syntax trees.
//
// Every node records the span of source code it has been parsed from.
// Nodes own their children: a tree has no sharing and no cycle.
package ast

import (
	"github.com/quill-lang/quill/build/source"
)

// ----------------------------------------------------------------------------
// Interfaces.
type (
	// Node in the tree.
	Node interface {
		// Span returns the source code of the node.
		Span() source.Span
	}

	// Expr is an expression.
	Expr interface {
		Node
		exprNode()
	}

	// Stmt is a statement.
	Stmt interface {
		Node
		stmtNode()
	}

	// Decl is a top-level declaration.
	Decl interface {
		Node
		declNode()
	}

	// TypeExpr is a type as written in the source code.
	TypeExpr interface {
		Node
		typeNode()
	}
)

// Program is the root of a syntax tree.
type Program struct {
	Src   source.Span
	Decls []Decl
}

// Span returns the source code of the node.
func (n *Program) Span() source.Span { return n.Src }

// ----------------------------------------------------------------------------
// Expressions.

// LitKind is the kind of a literal.
type LitKind int

// Literal kinds.
const (
	IntLit LitKind = iota
	FloatLit
	StringLit
	BoolLit
)

type (
	// BasicLit is a literal of a primitive type.
	BasicLit struct {
		Src   source.Span
		Kind  LitKind
		Int   int64
		Float float64
		Str   string
		Bool  bool
	}

	// Ident is a reference to a name.
	Ident struct {
		Src  source.Span
		Name string
	}

	// BinaryExpr is an expression with an operator between two operands.
	BinaryExpr struct {
		Src  source.Span
		Op   Op
		X, Y Expr
	}

	// UnaryExpr is an expression with an operator before an operand.
	UnaryExpr struct {
		Src source.Span
		Op  Op
		X   Expr
	}

	// CallExpr calls a function.
	CallExpr struct {
		Src    source.Span
		Callee Expr
		Args   []Expr
	}

	// IfExpr is a conditional expression.
	// Else is nil if there is no else branch.
	// Else is either a *BlockExpr or a *IfExpr.
	IfExpr struct {
		Src  source.Span
		Cond Expr
		Then *BlockExpr
		Else Expr
	}

	// BlockExpr is a sequence of statements optionally followed by an expression:
	// the value of the block. Value is nil if the block has no value.
	BlockExpr struct {
		Src   source.Span
		Stmts []Stmt
		Value Expr
	}

	// AssignExpr assigns a value to a variable, a field, or an array element.
	AssignExpr struct {
		Src    source.Span
		Target Expr
		Value  Expr
	}

	// FieldExpr selects a field of a structure or a variant of an enum.
	FieldExpr struct {
		Src   source.Span
		X     Expr
		Field *Ident
	}

	// ArrayLit is an array literal.
	ArrayLit struct {
		Src   source.Span
		Elems []Expr
	}

	// IndexExpr selects an element of an array.
	IndexExpr struct {
		Src   source.Span
		X     Expr
		Index Expr
	}

	// LambdaExpr is an anonymous function.
	LambdaExpr struct {
		Src    source.Span
		Params []*Param
		Result TypeExpr
		Body   *BlockExpr
	}

	// StructLit builds a value of a structure type.
	StructLit struct {
		Src    source.Span
		Type   *Ident
		Fields []*FieldValue
	}

	// FieldValue is the value of a field in a structure literal.
	FieldValue struct {
		Src   source.Span
		Name  *Ident
		Value Expr
	}
)

// Span returns the source code of the node.
func (n *BasicLit) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *Ident) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *BinaryExpr) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *UnaryExpr) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *CallExpr) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *IfExpr) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *BlockExpr) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *AssignExpr) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *FieldExpr) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *ArrayLit) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *IndexExpr) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *LambdaExpr) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *StructLit) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *FieldValue) Span() source.Span { return n.Src }

func (*BasicLit) exprNode()   {}
func (*Ident) exprNode()      {}
func (*BinaryExpr) exprNode() {}
func (*UnaryExpr) exprNode()  {}
func (*CallExpr) exprNode()   {}
func (*IfExpr) exprNode()     {}
func (*BlockExpr) exprNode()  {}
func (*AssignExpr) exprNode() {}
func (*FieldExpr) exprNode()  {}
func (*ArrayLit) exprNode()   {}
func (*IndexExpr) exprNode()  {}
func (*LambdaExpr) exprNode() {}
func (*StructLit) exprNode()  {}

// ----------------------------------------------------------------------------
// Statements.
type (
	// LetStmt declares a new variable.
	// Type is nil if the type of the variable is inferred.
	LetStmt struct {
		Src   source.Span
		Name  *Ident
		Type  TypeExpr
		Value Expr
	}

	// ReturnStmt returns from the current function.
	// Value is nil when returning no value.
	ReturnStmt struct {
		Src   source.Span
		Value Expr
	}

	// WhileStmt is a loop running while a condition is true.
	WhileStmt struct {
		Src  source.Span
		Cond Expr
		Body *BlockExpr
	}

	// ForStmt iterates either over a range of integers (when End is not nil):
	//
	//	for i in start..end { ... }
	//
	// or over the elements of an array (when End is nil):
	//
	//	for x in array { ... }
	ForStmt struct {
		Src   source.Span
		Var   *Ident
		Start Expr
		End   Expr
		Body  *BlockExpr
	}

	// ExprStmt is an expression evaluated for its side effects.
	ExprStmt struct {
		Src source.Span
		X   Expr
	}
)

// Span returns the source code of the node.
func (n *LetStmt) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *ReturnStmt) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *WhileStmt) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *ForStmt) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *ExprStmt) Span() source.Span { return n.Src }

func (*LetStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode() {}
func (*WhileStmt) stmtNode()  {}
func (*ForStmt) stmtNode()    {}
func (*ExprStmt) stmtNode()   {}

// ----------------------------------------------------------------------------
// Declarations.
type (
	// Param is a function parameter.
	Param struct {
		Src  source.Span
		Name *Ident
		Type TypeExpr
	}

	// FuncDecl declares a function.
	// Result is nil if the return type is inferred from the body.
	FuncDecl struct {
		Src    source.Span
		Name   *Ident
		Params []*Param
		Result TypeExpr
		Body   *BlockExpr
	}

	// Field is a field in a structure declaration.
	Field struct {
		Src  source.Span
		Name *Ident
		Type TypeExpr
	}

	// StructDecl declares a structure type.
	StructDecl struct {
		Src    source.Span
		Name   *Ident
		Fields []*Field
	}

	// Variant is a variant of an enum with the types of its payload.
	Variant struct {
		Src     source.Span
		Name    *Ident
		Payload []TypeExpr
	}

	// EnumDecl declares a tagged union.
	EnumDecl struct {
		Src      source.Span
		Name     *Ident
		Variants []*Variant
	}

	// AliasDecl declares another name for an existing type.
	AliasDecl struct {
		Src  source.Span
		Name *Ident
		Type TypeExpr
	}
)

// Span returns the source code of the node.
func (n *Param) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *FuncDecl) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *Field) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *StructDecl) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *Variant) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *EnumDecl) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *AliasDecl) Span() source.Span { return n.Src }

func (*FuncDecl) declNode()   {}
func (*StructDecl) declNode() {}
func (*EnumDecl) declNode()   {}
func (*AliasDecl) declNode()  {}

// ----------------------------------------------------------------------------
// Types.
type (
	// NamedType refers to a type by its name: either a primitive type
	// or a type declared in the program.
	NamedType struct {
		Src  source.Span
		Name string
	}

	// ArrayType is the type of an array: [T].
	ArrayType struct {
		Src  source.Span
		Elem TypeExpr
	}

	// FuncType is the type of a function: fn(T1, T2) -> R.
	// Result is nil if the function returns no value.
	FuncType struct {
		Src    source.Span
		Params []TypeExpr
		Result TypeExpr
	}
)

// Span returns the source code of the node.
func (n *NamedType) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *ArrayType) Span() source.Span { return n.Src }

// Span returns the source code of the node.
func (n *FuncType) Span() source.Span { return n.Src }

func (*NamedType) typeNode() {}
func (*ArrayType) typeNode() {}
func (*FuncType) typeNode()  {}
