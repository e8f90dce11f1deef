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

// Package value defines the values manipulated by the quill virtual machine
// and the operations on these values.
package value

import (
	"strconv"
	"strings"

	qfmt "github.com/quill-lang/quill/base/fmt"
	"github.com/quill-lang/quill/base/ordered"
)

// Kind of a value.
type Kind int

// Value kinds.
const (
	NullKind Kind = iota
	IntKind
	FloatKind
	BoolKind
	StringKind
	ArrayKind
	RecordKind
	FuncKind
)

var kindNames = [...]string{
	NullKind:   "null",
	IntKind:    "int",
	FloatKind:  "float",
	BoolKind:   "bool",
	StringKind: "string",
	ArrayKind:  "array",
	RecordKind: "record",
	FuncKind:   "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

type (
	// Value is a runtime value.
	Value interface {
		Kind() Kind
		// String returns the textual form of the value, as printed by a program.
		String() string
	}

	// Null is the absence of value.
	Null struct{}

	// Int is a signed 64-bit integer.
	Int int64

	// Float is a 64-bit floating point number.
	Float float64

	// Bool is a boolean.
	Bool bool

	// Str is a string.
	Str string

	// Array is a mutable sequence of values.
	// Arrays are references: copying an array value shares its elements.
	Array struct {
		Elems []Value
	}

	// Record is a value of a structure or of an enum variant.
	// Records are references, like arrays.
	Record struct {
		// Type is the name of the structure or the name of the variant
		// prefixed with the name of its enum.
		Type   string
		Fields *ordered.Map[string, Value]
	}

	// Func is a reference to a function of a program.
	Func struct {
		Name  string
		Index int
	}
)

// Kind of the value.
func (Null) Kind() Kind { return NullKind }

// Kind of the value.
func (Int) Kind() Kind { return IntKind }

// Kind of the value.
func (Float) Kind() Kind { return FloatKind }

// Kind of the value.
func (Bool) Kind() Kind { return BoolKind }

// Kind of the value.
func (Str) Kind() Kind { return StringKind }

// Kind of the value.
func (*Array) Kind() Kind { return ArrayKind }

// Kind of the value.
func (*Record) Kind() Kind { return RecordKind }

// Kind of the value.
func (Func) Kind() Kind { return FuncKind }

func (Null) String() string { return "null" }

func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }

func (v Float) String() string { return qfmt.Float(float64(v)) }

func (v Bool) String() string { return strconv.FormatBool(bool(v)) }

func (v Str) String() string { return string(v) }

func (v *Array) String() string {
	return printer{}.str(v)
}

func (v *Record) String() string {
	return printer{}.str(v)
}

func (v Func) String() string { return "<fn " + v.Name + ">" }

// printer prints nested values.
// It keeps the arrays and records being printed to cut cycles.
type printer map[Value]bool

func (p printer) str(v Value) string {
	switch vT := v.(type) {
	case *Array:
		if p[vT] {
			return "[...]"
		}
		p[vT] = true
		defer delete(p, vT)
		return p.array(vT)
	case *Record:
		if p[vT] {
			return vT.Type + " {...}"
		}
		p[vT] = true
		defer delete(p, vT)
		return p.record(vT)
	}
	return v.String()
}

func (p printer) array(v *Array) string {
	elems := make([]string, len(v.Elems))
	for i, elem := range v.Elems {
		elems[i] = p.quoted(elem)
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

func (p printer) record(v *Record) string {
	var fields []string
	positional := true
	for name, val := range v.Fields.Iter() {
		if _, err := strconv.Atoi(name); err != nil {
			positional = false
		}
		fields = append(fields, name+": "+p.quoted(val))
	}
	if len(fields) == 0 {
		return v.Type
	}
	if positional {
		for i, val := range v.Fields.Values() {
			fields[i] = p.quoted(val)
		}
		return v.Type + "(" + strings.Join(fields, ", ") + ")"
	}
	return v.Type + " { " + strings.Join(fields, ", ") + " }"
}

// quoted returns the string of a value nested in another value.
// Nested strings are quoted.
func (p printer) quoted(v Value) string {
	if s, ok := v.(Str); ok {
		return strconv.Quote(string(s))
	}
	return p.str(v)
}

// NewArray returns a new array.
func NewArray(elems ...Value) *Array {
	return &Array{Elems: elems}
}

// NewRecord returns a new record without fields.
func NewRecord(typ string) *Record {
	return &Record{Type: typ, Fields: ordered.NewMap[string, Value]()}
}

// Equal returns true if two values are equal.
// Numbers are compared after promotion to float.
// Arrays and records are compared element by element. A pair of arrays or
// records met again while comparing them is considered equal, so that
// cyclic values compare without looping.
func Equal(x, y Value) bool {
	return equaler{}.equal(x, y)
}

type equaler map[[2]Value]bool

func (eq equaler) visit(x, y Value) bool {
	key := [2]Value{x, y}
	if eq[key] {
		return true
	}
	eq[key] = true
	return false
}

func (eq equaler) equal(x, y Value) bool {
	switch xT := x.(type) {
	case Null:
		_, ok := y.(Null)
		return ok
	case Int:
		switch yT := y.(type) {
		case Int:
			return xT == yT
		case Float:
			return Float(xT) == yT
		}
	case Float:
		switch yT := y.(type) {
		case Int:
			return xT == Float(yT)
		case Float:
			return xT == yT
		}
	case Bool:
		yT, ok := y.(Bool)
		return ok && xT == yT
	case Str:
		yT, ok := y.(Str)
		return ok && xT == yT
	case *Array:
		yT, ok := y.(*Array)
		if !ok || len(xT.Elems) != len(yT.Elems) {
			return false
		}
		if xT == yT || eq.visit(xT, yT) {
			return true
		}
		for i, elem := range xT.Elems {
			if !eq.equal(elem, yT.Elems[i]) {
				return false
			}
		}
		return true
	case *Record:
		yT, ok := y.(*Record)
		if !ok || xT.Type != yT.Type || xT.Fields.Size() != yT.Fields.Size() {
			return false
		}
		if xT == yT || eq.visit(xT, yT) {
			return true
		}
		for name, val := range xT.Fields.Iter() {
			other, ok := yT.Fields.Load(name)
			if !ok || !eq.equal(val, other) {
				return false
			}
		}
		return true
	case Func:
		yT, ok := y.(Func)
		return ok && xT.Name == yT.Name
	}
	return false
}
