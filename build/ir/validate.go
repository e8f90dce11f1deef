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

package ir

import (
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/source"
)

// Validate checks that every register is written before it is read
// (in instruction order) and that every label referenced by a jump
// is defined exactly once in the function.
func Validate(prog *Program) error {
	for _, fn := range prog.Funcs {
		if err := validateFunc(fn); err != nil {
			return err
		}
	}
	return nil
}

func validateFunc(fn *Function) error {
	errorf := func(span source.Span, format string, a ...any) error {
		return fmterr.Errorf(fmterr.IR, span, "function %s: "+format, append([]any{fn.Name}, a...)...)
	}
	defined := make([]bool, fn.NumVars)
	for i := range fn.Params {
		if i >= fn.NumVars {
			return errorf(source.Span{}, "parameter %s has no register", fn.Params[i])
		}
		defined[i] = true
	}
	labels := make(map[string]bool)
	for _, instr := range fn.Body {
		if label, ok := instr.Val.(*Label); ok {
			if labels[label.Name] {
				return errorf(instr.Span, "label %s defined more than once", label.Name)
			}
			labels[label.Name] = true
		}
	}
	for _, instr := range fn.Body {
		for _, use := range Uses(instr.Val) {
			v, isVar := use.(Var)
			if !isVar {
				continue
			}
			if int(v.ID) >= fn.NumVars || !defined[v.ID] {
				return errorf(instr.Span, "%s: %s used before being defined", instr.Val, v)
			}
		}
		if dst, ok := Def(instr.Val); ok {
			if int(dst) >= fn.NumVars {
				return errorf(instr.Span, "%s: register %s out of range", instr.Val, dst)
			}
			defined[dst] = true
		}
		var target string
		switch jump := instr.Val.(type) {
		case *Jump:
			target = jump.Label
		case *CondJump:
			target = jump.Label
		default:
			continue
		}
		if !labels[target] {
			return errorf(instr.Span, "%s: undefined label %s", instr.Val, target)
		}
	}
	return nil
}
