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

// Package check verifies that a quill program is well typed and
// infers the type of every expression.
//
// Checking is done in two passes:
//  1. all type definitions and function signatures are registered,
//  2. the body of every function is checked in a scope seeded with its
//     parameters and whose parent is the global scope.
//
// Checking stops at the first error.
package check

import (
	"github.com/quill-lang/quill/base/ordered"
	"github.com/quill-lang/quill/build/ast"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/types"
	"github.com/quill-lang/quill/internal/base/scope"
)

// EntryName is the name of the function called to run a program.
const EntryName = "main"

type (
	// DefKind is the kind of a type definition.
	DefKind int

	// TypeDef is a type defined in a program.
	TypeDef struct {
		Kind DefKind
		Decl ast.Decl
		Name string
		// Fields of a structure, in declaration order.
		Fields *ordered.Map[string, types.Type]
		// Variants of an enum, in declaration order.
		Variants *ordered.Map[string, *Variant]
		// Alias is the type for which an alias is another name.
		Alias types.Type

		resolving bool
	}

	// Variant is a variant of an enum.
	Variant struct {
		Enum    *TypeDef
		Name    string
		Payload []types.Type
	}

	// Func is a function declared in a program.
	Func struct {
		Decl *ast.FuncDecl
		// Type of the function. Its result is nil until it has been inferred
		// for a function without an explicit result type.
		Type  *types.Func
		state funcState
	}

	// Builtin is a function provided by the language.
	Builtin int

	// Package is a type checked program.
	Package struct {
		Program *ast.Program

		// Defs are the types defined by the program.
		Defs *ordered.Map[string, *TypeDef]
		// Funcs are the functions declared by the program.
		Funcs *ordered.Map[string, *Func]
		// Types maps every expression to its type.
		Types map[ast.Expr]types.Type
		// Widen is the set of int expressions used as float values.
		Widen map[ast.Expr]bool
		// Builtins maps calls to builtin functions to the function being called.
		Builtins map[*ast.CallExpr]Builtin
		// Variants maps expressions building an enum value to the variant they build.
		// Keys are either a *ast.FieldExpr (variant without payload)
		// or a *ast.CallExpr (variant with a payload).
		Variants map[ast.Expr]*Variant
	}
)

// Type definition kinds.
const (
	StructDef DefKind = iota
	EnumDef
	AliasDef
)

// Builtin functions.
const (
	Print Builtin = iota
	Len
)

var builtins = map[string]Builtin{
	"print": Print,
	"len":   Len,
}

func (b Builtin) String() string {
	for name, builtin := range builtins {
		if builtin == b {
			return name
		}
	}
	return "unknown builtin"
}

type funcState int

const (
	unchecked funcState = iota
	checking
	checked
)

// RecordName returns the name of the runtime records of a variant.
func (v *Variant) RecordName() string {
	return v.Enum.Name + "." + v.Name
}

type checker struct {
	pkg     *Package
	globals scope.Scope[*binding]
}

func errorf(node ast.Node, format string, a ...any) error {
	return fmterr.Errorf(fmterr.Type, node.Span(), format, a...)
}

// Check a program.
func Check(prog *ast.Program) (*Package, error) {
	c := &checker{pkg: &Package{
		Program:  prog,
		Defs:     ordered.NewMap[string, *TypeDef](),
		Funcs:    ordered.NewMap[string, *Func](),
		Types:    make(map[ast.Expr]types.Type),
		Widen:    make(map[ast.Expr]bool),
		Builtins: make(map[*ast.CallExpr]Builtin),
		Variants: make(map[ast.Expr]*Variant),
	}}
	if err := c.registerTypes(prog); err != nil {
		return nil, err
	}
	if err := c.registerFuncs(prog); err != nil {
		return nil, err
	}
	for _, fn := range c.pkg.Funcs.Values() {
		if err := c.checkFunc(fn); err != nil {
			return nil, err
		}
	}
	return c.pkg, nil
}

// ----------------------------------------------------------------------------
// Pass 1: registration.

func (c *checker) registerTypes(prog *ast.Program) error {
	for _, decl := range prog.Decls {
		def := &TypeDef{Decl: decl}
		var name *ast.Ident
		switch declT := decl.(type) {
		case *ast.StructDecl:
			def.Kind, name = StructDef, declT.Name
		case *ast.EnumDecl:
			def.Kind, name = EnumDef, declT.Name
		case *ast.AliasDecl:
			def.Kind, name = AliasDef, declT.Name
		default:
			continue
		}
		def.Name = name.Name
		if _, isPrimitive := types.Primitives[def.Name]; isPrimitive {
			return errorf(name, "cannot redefine builtin type %s", def.Name)
		}
		if _, exists := c.pkg.Defs.Load(def.Name); exists {
			return errorf(name, "type %s redeclared", def.Name)
		}
		c.pkg.Defs.Store(def.Name, def)
	}
	for _, def := range c.pkg.Defs.Values() {
		if err := c.resolveDef(def); err != nil {
			return err
		}
	}
	return nil
}

// resolveDef resolves the types used by a definition.
func (c *checker) resolveDef(def *TypeDef) error {
	switch decl := def.Decl.(type) {
	case *ast.StructDecl:
		if def.Fields != nil {
			return nil
		}
		def.Fields = ordered.NewMap[string, types.Type]()
		for _, field := range decl.Fields {
			if _, exists := def.Fields.Load(field.Name.Name); exists {
				return errorf(field.Name, "duplicate field %s in structure %s", field.Name.Name, def.Name)
			}
			typ, err := c.resolveType(field.Type)
			if err != nil {
				return err
			}
			def.Fields.Store(field.Name.Name, typ)
		}
	case *ast.EnumDecl:
		if def.Variants != nil {
			return nil
		}
		def.Variants = ordered.NewMap[string, *Variant]()
		for _, variant := range decl.Variants {
			if _, exists := def.Variants.Load(variant.Name.Name); exists {
				return errorf(variant.Name, "duplicate variant %s in enum %s", variant.Name.Name, def.Name)
			}
			v := &Variant{Enum: def, Name: variant.Name.Name}
			for _, texpr := range variant.Payload {
				typ, err := c.resolveType(texpr)
				if err != nil {
					return err
				}
				v.Payload = append(v.Payload, typ)
			}
			def.Variants.Store(v.Name, v)
		}
	case *ast.AliasDecl:
		if def.Alias != nil {
			return nil
		}
		if def.resolving {
			return errorf(decl.Name, "invalid recursive type alias %s", def.Name)
		}
		def.resolving = true
		typ, err := c.resolveType(decl.Type)
		if err != nil {
			return err
		}
		def.Alias, def.resolving = typ, false
	}
	return nil
}

// resolveType returns the type of a type expression.
func (c *checker) resolveType(texpr ast.TypeExpr) (types.Type, error) {
	switch t := texpr.(type) {
	case *ast.NamedType:
		if prim, ok := types.Primitives[t.Name]; ok {
			return prim, nil
		}
		def, ok := c.pkg.Defs.Load(t.Name)
		if !ok {
			return nil, errorf(t, "undefined type: %s", t.Name)
		}
		if def.Kind == AliasDef {
			if def.Alias == nil {
				if err := c.resolveDef(def); err != nil {
					return nil, err
				}
			}
			return def.Alias, nil
		}
		return &types.Named{Name: def.Name}, nil
	case *ast.ArrayType:
		elem, err := c.resolveType(t.Elem)
		if err != nil {
			return nil, err
		}
		return &types.Array{Elem: elem}, nil
	case *ast.FuncType:
		ftype := &types.Func{Result: types.UnitType()}
		for _, param := range t.Params {
			typ, err := c.resolveType(param)
			if err != nil {
				return nil, err
			}
			ftype.Params = append(ftype.Params, typ)
		}
		if t.Result != nil {
			var err error
			if ftype.Result, err = c.resolveType(t.Result); err != nil {
				return nil, err
			}
		}
		return ftype, nil
	}
	return nil, fmterr.Errorf(fmterr.Type, texpr.Span(), "type expression %T not supported", texpr)
}

// signature returns the type of a function given its parameters and result.
// The result of the function type is nil if result is nil.
func (c *checker) signature(params []*ast.Param, result ast.TypeExpr) (*types.Func, error) {
	ftype := &types.Func{}
	names := make(map[string]bool)
	for _, param := range params {
		if names[param.Name.Name] {
			return nil, errorf(param.Name, "duplicate parameter %s", param.Name.Name)
		}
		names[param.Name.Name] = true
		typ, err := c.resolveType(param.Type)
		if err != nil {
			return nil, err
		}
		ftype.Params = append(ftype.Params, typ)
	}
	if result == nil {
		return ftype, nil
	}
	var err error
	if ftype.Result, err = c.resolveType(result); err != nil {
		return nil, err
	}
	return ftype, nil
}

func (c *checker) registerFuncs(prog *ast.Program) error {
	globals := ordered.NewMap[string, *binding]()
	for _, decl := range prog.Decls {
		fDecl, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		name := fDecl.Name.Name
		if _, isBuiltin := builtins[name]; isBuiltin {
			return errorf(fDecl.Name, "cannot redefine builtin function %s", name)
		}
		if _, exists := c.pkg.Funcs.Load(name); exists {
			return errorf(fDecl.Name, "function %s redeclared", name)
		}
		if _, exists := c.pkg.Defs.Load(name); exists {
			return errorf(fDecl.Name, "%s redeclared: a type already has this name", name)
		}
		ftype, err := c.signature(fDecl.Params, fDecl.Result)
		if err != nil {
			return err
		}
		fn := &Func{Decl: fDecl, Type: ftype}
		c.pkg.Funcs.Store(name, fn)
		globals.Store(name, &binding{kind: funcBinding, fn: fn})
	}
	c.globals = scope.NewReadOnly[*binding](nil, globals)
	main, ok := c.pkg.Funcs.Load(EntryName)
	if !ok {
		return fmterr.Errorf(fmterr.Type, prog.Span(), "function %s is undeclared", EntryName)
	}
	if len(main.Type.Params) > 0 {
		return errorf(main.Decl.Name, "function %s must have no parameters", EntryName)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Pass 2: function bodies.

// checkFunc checks the body of a function.
// Functions without an explicit result type are checked on demand when
// their type is required, so that their result type can be inferred.
func (c *checker) checkFunc(fn *Func) error {
	switch fn.state {
	case checked:
		return nil
	case checking:
		if fn.Type.Result == nil {
			return errorf(fn.Decl.Name, "function %s is recursive and needs an explicit result type", fn.Decl.Name.Name)
		}
		return nil
	}
	fn.state = checking
	result, err := c.checkBody(fn.Decl.Params, fn.Type, fn.Decl.Body, nil)
	if err != nil {
		return err
	}
	fn.Type.Result = result
	fn.state = checked
	return nil
}

// checkBody checks the body of a function or of a function literal
// and returns the result type of the function.
// outer is the scope enclosing a function literal, nil for a function declaration.
func (c *checker) checkBody(params []*ast.Param, ftype *types.Func, body *ast.BlockExpr, outer *scope.RWScope[*binding]) (types.Type, error) {
	fc := &funcChecker{c: c, result: ftype.Result, outer: outer}
	sc := scope.NewScope(c.globals)
	for i, param := range params {
		sc.Define(param.Name.Name, &binding{kind: localBinding, typ: ftype.Params[i]})
	}
	bodyType, err := fc.checkBlock(sc, body)
	if err != nil {
		return nil, err
	}
	if fc.result != nil {
		if types.Is(fc.result, types.Unit) {
			return fc.result, nil
		}
		return fc.result, fc.assign(body, bodyType, fc.result, "function result")
	}
	// Infer the result type from the body and the return statements.
	result := bodyType
	for _, ret := range fc.returns {
		joined, ok := types.Join(result, ret.typ)
		if !ok {
			return nil, errorf(ret.stmt, "cannot return %s: function returns %s", ret.typ, result)
		}
		result = joined
	}
	if types.Is(result, types.Never) {
		result = types.UnitType()
	}
	if err := fc.assign(body, bodyType, result, "function result"); err != nil {
		return nil, err
	}
	for _, ret := range fc.returns {
		if ret.stmt.Value == nil {
			continue
		}
		if err := fc.assign(ret.stmt.Value, ret.typ, result, "return statement"); err != nil {
			return nil, err
		}
	}
	return result, nil
}
