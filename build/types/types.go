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

// Package types defines the types of quill values and the rules relating them.
//
// Types are immutable once constructed and compared structurally.
package types

import (
	"strings"
)

// Type of a value.
type Type interface {
	// String representation of the type, as written in quill source code.
	String() string
	typ()
}

// Kind of a primitive type.
type Kind int

// Primitive kinds.
const (
	Int Kind = iota
	Float
	Bool
	String
	// Unit is the type of expressions without value.
	Unit
	// Never is the type of expressions which do not complete,
	// for example a block ending with a return statement.
	Never
)

var kindNames = [...]string{
	Int:    "int",
	Float:  "float",
	Bool:   "bool",
	String: "string",
	Unit:   "unit",
	Never:  "never",
}

type (
	// Primitive is a builtin type.
	Primitive struct {
		Kind Kind
	}

	// Named is a type declared in the program: a structure or an enum.
	Named struct {
		Name string
	}

	// Func is the type of a function.
	Func struct {
		Params []Type
		Result Type
	}

	// Array is the type of an array.
	Array struct {
		Elem Type
	}
)

func (*Primitive) typ() {}
func (*Named) typ()     {}
func (*Func) typ()      {}
func (*Array) typ()     {}

var (
	intType    = &Primitive{Kind: Int}
	floatType  = &Primitive{Kind: Float}
	boolType   = &Primitive{Kind: Bool}
	stringType = &Primitive{Kind: String}
	unitType   = &Primitive{Kind: Unit}
	neverType  = &Primitive{Kind: Never}
)

// IntType returns the int type.
func IntType() Type { return intType }

// FloatType returns the float type.
func FloatType() Type { return floatType }

// BoolType returns the bool type.
func BoolType() Type { return boolType }

// StringType returns the string type.
func StringType() Type { return stringType }

// UnitType returns the type of expressions without value.
func UnitType() Type { return unitType }

// NeverType returns the type of expressions which never complete.
func NeverType() Type { return neverType }

// Primitives maps the spelling of primitive types in source code to their type.
var Primitives = map[string]Type{
	"int":    intType,
	"float":  floatType,
	"bool":   boolType,
	"string": stringType,
}

func (t *Primitive) String() string {
	return kindNames[t.Kind]
}

func (t *Named) String() string {
	return t.Name
}

func (t *Func) String() string {
	ss := make([]string, len(t.Params))
	for i, param := range t.Params {
		ss[i] = param.String()
	}
	s := "fn(" + strings.Join(ss, ", ") + ")"
	if !Is(t.Result, Unit) {
		s += " -> " + t.Result.String()
	}
	return s
}

func (t *Array) String() string {
	return "[" + t.Elem.String() + "]"
}

// Is returns true if a type is a primitive type of a given kind.
func Is(t Type, kind Kind) bool {
	prim, ok := t.(*Primitive)
	return ok && prim.Kind == kind
}

// IsNumeric returns true if a type is int or float.
func IsNumeric(t Type) bool {
	return Is(t, Int) || Is(t, Float)
}

// Equal returns true if two types are identical.
func Equal(a, b Type) bool {
	switch aT := a.(type) {
	case *Primitive:
		bT, ok := b.(*Primitive)
		return ok && aT.Kind == bT.Kind
	case *Named:
		bT, ok := b.(*Named)
		return ok && aT.Name == bT.Name
	case *Array:
		bT, ok := b.(*Array)
		return ok && Equal(aT.Elem, bT.Elem)
	case *Func:
		bT, ok := b.(*Func)
		if !ok || len(aT.Params) != len(bT.Params) {
			return false
		}
		for i, param := range aT.Params {
			if !Equal(param, bT.Params[i]) {
				return false
			}
		}
		return Equal(aT.Result, bT.Result)
	}
	return false
}

// Assignability is the result of checking if a value of a type
// can be used where a value of another type is expected.
type Assignability int

const (
	// NotAssignable means the value cannot be used.
	NotAssignable Assignability = iota
	// Assignable means the value can be used as is.
	Assignable
	// Widened means the value can be used once converted from int to float.
	Widened
)

// AssignableTo reports whether a value of type value can be used
// where a value of type target is expected.
// Values are never narrowed: only int values are widened to float.
func AssignableTo(value, target Type) Assignability {
	switch {
	case Equal(value, target):
		return Assignable
	case Is(value, Never):
		return Assignable
	case Is(value, Int) && Is(target, Float):
		return Widened
	}
	vArray, vOk := value.(*Array)
	_, tOk := target.(*Array)
	if vOk && tOk && Is(vArray.Elem, Never) {
		// Empty array literal.
		return Assignable
	}
	return NotAssignable
}

// Comparable returns true if values of two types can be compared with == and !=.
func Comparable(a, b Type) bool {
	if IsNumeric(a) && IsNumeric(b) {
		return true
	}
	if Is(a, Unit) || Is(a, Never) {
		return false
	}
	return Equal(a, b)
}

// Join returns the type of an expression which can be either of a type or another,
// for example the branches of an if expression or the elements of an array literal.
// Returns false if the types cannot be joined.
func Join(a, b Type) (Type, bool) {
	switch {
	case Is(a, Never):
		return b, true
	case Is(b, Never):
		return a, true
	case Equal(a, b):
		return a, true
	case IsNumeric(a) && IsNumeric(b):
		return floatType, true
	}
	aArray, aOk := a.(*Array)
	bArray, bOk := b.(*Array)
	if !aOk || !bOk {
		return nil, false
	}
	// Arrays are not converted element by element:
	// only empty array literals join with other arrays.
	switch {
	case Is(aArray.Elem, Never):
		return b, true
	case Is(bArray.Elem, Never):
		return a, true
	}
	return nil, false
}
