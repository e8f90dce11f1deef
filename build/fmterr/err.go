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

// Package fmterr builds compiler errors attached to a position in quill
// source code and formats them for the user.
package fmterr

import (
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/quill-lang/quill/build/source"
)

// Stage is the compiler stage reporting an error.
type Stage int

// Compiler stages, in pipeline order.
const (
	Lexical Stage = iota
	Syntax
	Type
	IR
	CodeGen
	Runtime
)

var stageNames = map[Stage]string{
	Lexical: "lexical error",
	Syntax:  "syntax error",
	Type:    "type error",
	IR:      "ir error",
	CodeGen: "codegen error",
	Runtime: "runtime error",
}

func (s Stage) String() string {
	name, ok := stageNames[s]
	if !ok {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return name
}

// Error is an error reported by a compiler stage at a position in the source.
type Error struct {
	Stage Stage
	Span  source.Span
	Err   error
}

var _ error = (*Error)(nil)

// Position attaches a stage and a position to an existing error.
func Position(stage Stage, span source.Span, err error) *Error {
	return &Error{Stage: stage, Span: span, Err: err}
}

// Errorf returns a formatted compiler error for the user.
func Errorf(stage Stage, span source.Span, format string, a ...any) *Error {
	return Position(stage, span, errors.Errorf(format, a...))
}

// Internal marks an error as a bug of the compiler rather than of the program.
// The stage and position of err, if any, are kept.
func Internal(err error) error {
	return errors.Wrap(err, "internal compiler error, please report it")
}

// Error returns a string description of the error.
func (err *Error) Error() (s string) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s = fmt.Sprintf("recovered from panic when building error message: %T:\n%v", err.Err, string(debug.Stack()))
	}()
	if !err.Span.Start.IsValid() {
		return err.Stage.String() + ": " + err.Err.Error()
	}
	return err.Span.Start.String() + ": " + err.Stage.String() + ": " + err.Err.Error()
}

// Msg returns the message of the error without its stage and position.
func (err *Error) Msg() string {
	return err.Err.Error()
}

// Unwrap the error.
func (err *Error) Unwrap() error {
	return err.Err
}

// Format writes the error into the state of the formatter.
func (err *Error) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}

// StageOf returns the stage of a compiler error and true,
// or false if err has not been reported by a compiler stage.
func StageOf(err error) (Stage, bool) {
	var cErr *Error
	if !errors.As(err, &cErr) {
		return 0, false
	}
	return cErr.Stage, true
}
