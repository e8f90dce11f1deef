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

package value

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

var (
	// ErrTypeMismatch is returned when an operation is applied to values
	// of kinds it is not defined on.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrDivisionByZero is returned on a division or a modulo by zero.
	ErrDivisionByZero = errors.New("division by zero")
)

// Op is an operator on two values.
type Op int

// Binary operators.
const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
)

var opNames = [...]string{
	Add: "+",
	Sub: "-",
	Mul: "*",
	Div: "/",
	Mod: "%",
	Eq:  "==",
	Ne:  "!=",
	Lt:  "<",
	Le:  "<=",
	Gt:  ">",
	Ge:  ">=",
	And: "&&",
	Or:  "||",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

type number interface {
	constraints.Integer | constraints.Float
}

func arith[T number](op Op, x, y T) (T, bool) {
	switch op {
	case Add:
		return x + y, true
	case Sub:
		return x - y, true
	case Mul:
		return x * y, true
	case Div:
		return x / y, true
	}
	return 0, false
}

func compare[T constraints.Ordered](op Op, x, y T) (bool, bool) {
	switch op {
	case Lt:
		return x < y, true
	case Le:
		return x <= y, true
	case Gt:
		return x > y, true
	case Ge:
		return x >= y, true
	}
	return false, false
}

func mismatch(op Op, x, y Value) error {
	return errors.Wrapf(ErrTypeMismatch, "operator %s not defined on %s and %s", op, x.Kind(), y.Kind())
}

// Binary applies a binary operator to two values.
// Integers are promoted to float when the other operand is a float.
// Integer arithmetic wraps around on overflow.
func Binary(op Op, x, y Value) (Value, error) {
	switch op {
	case Eq, Ne:
		if !comparable(x, y) {
			return nil, mismatch(op, x, y)
		}
		return Bool(Equal(x, y) == (op == Eq)), nil
	case And, Or:
		xb, xOk := x.(Bool)
		yb, yOk := y.(Bool)
		if !xOk || !yOk {
			return nil, mismatch(op, x, y)
		}
		if op == And {
			return xb && yb, nil
		}
		return xb || yb, nil
	}
	switch xT := x.(type) {
	case Int:
		switch yT := y.(type) {
		case Int:
			return numeric(op, xT, yT, func(a, b Int) Int { return a % b })
		case Float:
			return numeric(op, Float(xT), yT, floatMod)
		}
	case Float:
		switch yT := y.(type) {
		case Int:
			return numeric(op, xT, Float(yT), floatMod)
		case Float:
			return numeric(op, xT, yT, floatMod)
		}
	case Str:
		if yT, ok := y.(Str); ok && op == Add {
			return xT + yT, nil
		}
	}
	return nil, mismatch(op, x, y)
}

func floatMod(x, y Float) Float {
	return Float(math.Mod(float64(x), float64(y)))
}

func numeric[T interface {
	Int | Float
	Value
}](op Op, x, y T, mod func(T, T) T) (Value, error) {
	if (op == Div || op == Mod) && y == 0 {
		return nil, errors.Wrapf(ErrDivisionByZero, "%s %s %s", x, op, y)
	}
	if op == Mod {
		return mod(x, y), nil
	}
	if r, ok := arith(op, x, y); ok {
		return r, nil
	}
	if r, ok := compare(op, x, y); ok {
		return Bool(r), nil
	}
	return nil, mismatch(op, x, y)
}

// comparable returns true if two values can be compared with == and !=.
func comparable(x, y Value) bool {
	isNum := func(v Value) bool {
		k := v.Kind()
		return k == IntKind || k == FloatKind
	}
	if isNum(x) && isNum(y) {
		return true
	}
	return x.Kind() == y.Kind()
}

// Neg returns the opposite of a number.
func Neg(x Value) (Value, error) {
	switch xT := x.(type) {
	case Int:
		return -xT, nil
	case Float:
		return -xT, nil
	}
	return nil, errors.Wrapf(ErrTypeMismatch, "operator - not defined on %s", x.Kind())
}

// Not returns the logical negation of a boolean.
func Not(x Value) (Value, error) {
	if b, ok := x.(Bool); ok {
		return !b, nil
	}
	return nil, errors.Wrapf(ErrTypeMismatch, "operator ! not defined on %s", x.Kind())
}

// Len returns the number of elements of an array or the number of bytes of a string.
func Len(x Value) (Value, error) {
	switch xT := x.(type) {
	case *Array:
		return Int(len(xT.Elems)), nil
	case Str:
		return Int(len(xT)), nil
	}
	return nil, errors.Wrapf(ErrTypeMismatch, "len not defined on %s", x.Kind())
}

// ToFloat converts a number to a float.
func ToFloat(x Value) (Value, error) {
	switch xT := x.(type) {
	case Int:
		return Float(xT), nil
	case Float:
		return xT, nil
	}
	return nil, errors.Wrapf(ErrTypeMismatch, "cannot convert %s to float", x.Kind())
}
