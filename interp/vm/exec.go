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

package vm

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/quill-lang/quill/build/bytecode"
	"github.com/quill-lang/quill/interp/value"
)

var binaryOps = map[bytecode.Opcode]value.Op{
	bytecode.Add: value.Add,
	bytecode.Sub: value.Sub,
	bytecode.Mul: value.Mul,
	bytecode.Div: value.Div,
	bytecode.Mod: value.Mod,
	bytecode.Eq:  value.Eq,
	bytecode.Ne:  value.Ne,
	bytecode.Lt:  value.Lt,
	bytecode.Le:  value.Le,
	bytecode.Gt:  value.Gt,
	bytecode.Ge:  value.Ge,
	bytecode.And: value.And,
	bytecode.Or:  value.Or,
}

var unaryOps = map[bytecode.Opcode]func(value.Value) (value.Value, error){
	bytecode.Neg:     value.Neg,
	bytecode.Not:     value.Not,
	bytecode.Len:     value.Len,
	bytecode.ToFloat: value.ToFloat,
}

// exec executes a single instruction of the current frame.
// It returns the result of the program and true once the entry function has returned.
func (m *VM) exec(fr *frame, instr bytecode.Instruction) (value.Value, bool, error) {
	if op, ok := binaryOps[instr.Op]; ok {
		return nil, false, m.binary(fr, op)
	}
	if op, ok := unaryOps[instr.Op]; ok {
		return nil, false, m.unary(fr, op)
	}
	arg := int(instr.Arg)
	switch instr.Op {
	case bytecode.Const:
		val, err := m.constant(fr, arg)
		if err != nil {
			return nil, false, err
		}
		m.push(val)
	case bytecode.Load:
		slot := fr.base + arg
		if arg >= fr.locals || slot >= len(m.stack) {
			return nil, false, m.fail(fr, StackUnderflow, errors.Wrapf(ErrStackUnderflow, "local slot %d not initialized", arg))
		}
		m.push(m.stack[slot])
	case bytecode.Store:
		val, err := m.pop(fr)
		if err != nil {
			return nil, false, err
		}
		slot := fr.base + arg
		for len(m.stack) <= slot {
			m.stack = append(m.stack, value.Null{})
		}
		fr.locals = max(fr.locals, arg+1)
		m.stack[slot] = val
	case bytecode.Pop:
		if _, err := m.pop(fr); err != nil {
			return nil, false, err
		}
	case bytecode.Null:
		m.push(value.Null{})
	case bytecode.Jump:
		return nil, false, m.jump(fr, arg)
	case bytecode.JumpIfFalse:
		val, err := m.pop(fr)
		if err != nil {
			return nil, false, err
		}
		cond, ok := val.(value.Bool)
		if !ok {
			return nil, false, m.fail(fr, TypeMismatch, errors.Wrapf(ErrTypeMismatch, "condition is a %s, not a bool", val.Kind()))
		}
		if !cond {
			return nil, false, m.jump(fr, arg)
		}
	case bytecode.Call:
		return nil, false, m.call(fr, arg)
	case bytecode.Return:
		result, err := m.pop(fr)
		if err != nil {
			return nil, false, err
		}
		return result, m.leave(result), nil
	case bytecode.Print:
		val, err := m.pop(fr)
		if err != nil {
			return nil, false, err
		}
		fmt.Fprintln(m.stdout, val.String())
	case bytecode.Array:
		elems, err := m.popN(fr, arg)
		if err != nil {
			return nil, false, err
		}
		m.push(value.NewArray(elems...))
	case bytecode.IndexGet:
		return nil, false, m.indexGet(fr)
	case bytecode.IndexSet:
		return nil, false, m.indexSet(fr)
	case bytecode.Record:
		return nil, false, m.record(fr, arg)
	case bytecode.FieldGet:
		return nil, false, m.fieldGet(fr, arg)
	case bytecode.FieldSet:
		return nil, false, m.fieldSet(fr, arg)
	default:
		return nil, false, m.fail(fr, InvalidOpcode, errors.Wrapf(ErrInvalidOpcode, "%s", instr.Op))
	}
	return nil, false, nil
}

func (m *VM) constant(fr *frame, index int) (value.Value, error) {
	if index >= len(m.prog.Consts) {
		return nil, m.fail(fr, InvalidOpcode, errors.Wrapf(ErrInvalidOpcode, "constant %d out of range", index))
	}
	return m.prog.Consts[index], nil
}

func (m *VM) jump(fr *frame, target int) error {
	if target > len(fr.fn.Code) {
		return m.fail(fr, InvalidOpcode, errors.Wrapf(ErrInvalidOpcode, "jump target %d out of range", target))
	}
	fr.ip = target
	return nil
}

func (m *VM) binary(fr *frame, op value.Op) error {
	y, err := m.pop(fr)
	if err != nil {
		return err
	}
	x, err := m.pop(fr)
	if err != nil {
		return err
	}
	r, err := value.Binary(op, x, y)
	if err != nil {
		return m.fail(fr, kindOf(err), err)
	}
	m.push(r)
	return nil
}

func (m *VM) unary(fr *frame, op func(value.Value) (value.Value, error)) error {
	x, err := m.pop(fr)
	if err != nil {
		return err
	}
	r, err := op(x)
	if err != nil {
		return m.fail(fr, kindOf(err), err)
	}
	m.push(r)
	return nil
}

func (m *VM) call(fr *frame, numArgs int) error {
	callee, err := m.pop(fr)
	if err != nil {
		return err
	}
	fnRef, ok := callee.(value.Func)
	if !ok {
		return m.fail(fr, TypeMismatch, errors.Wrapf(ErrTypeMismatch, "cannot call a %s", callee.Kind()))
	}
	if fnRef.Index < 0 || fnRef.Index >= len(m.prog.Funcs) {
		return m.fail(fr, InvalidOpcode, errors.Wrapf(ErrInvalidOpcode, "function %s (%d) out of range", fnRef.Name, fnRef.Index))
	}
	fn := m.prog.Funcs[fnRef.Index]
	if numArgs != fn.NumParams {
		return m.fail(fr, TypeMismatch, errors.Wrapf(ErrTypeMismatch, "%s called with %d arguments, want %d", fn.Name, numArgs, fn.NumParams))
	}
	if m.operands(fr) < numArgs {
		return m.fail(fr, StackUnderflow, errors.Wrapf(ErrStackUnderflow, "%s needs %d arguments", fn.Name, numArgs))
	}
	if err := m.enter(fn, numArgs); err != nil {
		return m.fail(fr, StackOverflow, err)
	}
	return nil
}

func (m *VM) array(fr *frame, val value.Value) (*value.Array, error) {
	arr, ok := val.(*value.Array)
	if !ok {
		return nil, m.fail(fr, TypeMismatch, errors.Wrapf(ErrTypeMismatch, "cannot index a %s", val.Kind()))
	}
	return arr, nil
}

func (m *VM) index(fr *frame, arr *value.Array, val value.Value) (int, error) {
	i, ok := val.(value.Int)
	if !ok {
		return 0, m.fail(fr, TypeMismatch, errors.Wrapf(ErrTypeMismatch, "index is a %s, not an int", val.Kind()))
	}
	if i < 0 || int64(i) >= int64(len(arr.Elems)) {
		return 0, m.fail(fr, IndexOutOfBounds, errors.Wrapf(ErrIndexOutOfBounds, "index %d with length %d", i, len(arr.Elems)))
	}
	return int(i), nil
}

func (m *VM) indexGet(fr *frame) error {
	vals, err := m.popN(fr, 2)
	if err != nil {
		return err
	}
	arr, err := m.array(fr, vals[0])
	if err != nil {
		return err
	}
	i, err := m.index(fr, arr, vals[1])
	if err != nil {
		return err
	}
	m.push(arr.Elems[i])
	return nil
}

func (m *VM) indexSet(fr *frame) error {
	vals, err := m.popN(fr, 3)
	if err != nil {
		return err
	}
	arr, err := m.array(fr, vals[0])
	if err != nil {
		return err
	}
	i, err := m.index(fr, arr, vals[1])
	if err != nil {
		return err
	}
	arr.Elems[i] = vals[2]
	return nil
}

func (m *VM) str(fr *frame, val value.Value) (string, error) {
	s, ok := val.(value.Str)
	if !ok {
		return "", m.fail(fr, TypeMismatch, errors.Wrapf(ErrTypeMismatch, "expected a string name, got a %s", val.Kind()))
	}
	return string(s), nil
}

// record builds a record from a type name followed by numFields pairs of
// field name and field value.
func (m *VM) record(fr *frame, numFields int) error {
	vals, err := m.popN(fr, 1+2*numFields)
	if err != nil {
		return err
	}
	typ, err := m.str(fr, vals[0])
	if err != nil {
		return err
	}
	rec := value.NewRecord(typ)
	for i := 1; i < len(vals); i += 2 {
		name, err := m.str(fr, vals[i])
		if err != nil {
			return err
		}
		rec.Fields.Store(name, vals[i+1])
	}
	m.push(rec)
	return nil
}

func (m *VM) field(fr *frame, val value.Value, nameIndex int) (*value.Record, string, error) {
	rec, ok := val.(*value.Record)
	if !ok {
		return nil, "", m.fail(fr, TypeMismatch, errors.Wrapf(ErrTypeMismatch, "cannot access a field of a %s", val.Kind()))
	}
	nameVal, err := m.constant(fr, nameIndex)
	if err != nil {
		return nil, "", err
	}
	name, err := m.str(fr, nameVal)
	if err != nil {
		return nil, "", err
	}
	if _, ok := rec.Fields.Load(name); !ok {
		return nil, "", m.fail(fr, UnknownField, errors.Wrapf(ErrUnknownField, "%s has no field %s", rec.Type, name))
	}
	return rec, name, nil
}

func (m *VM) fieldGet(fr *frame, nameIndex int) error {
	val, err := m.pop(fr)
	if err != nil {
		return err
	}
	rec, name, err := m.field(fr, val, nameIndex)
	if err != nil {
		return err
	}
	fieldVal, _ := rec.Fields.Load(name)
	m.push(fieldVal)
	return nil
}

func (m *VM) fieldSet(fr *frame, nameIndex int) error {
	vals, err := m.popN(fr, 2)
	if err != nil {
		return err
	}
	rec, name, err := m.field(fr, vals[0], nameIndex)
	if err != nil {
		return err
	}
	rec.Fields.Store(name, vals[1])
	return nil
}
