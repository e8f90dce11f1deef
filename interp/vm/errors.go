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
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/source"
	"github.com/quill-lang/quill/interp/value"
)

// Kind is the category of a runtime error.
type Kind int

// Runtime error kinds.
const (
	StackUnderflow Kind = iota
	InvalidOpcode
	TypeMismatch
	DivisionByZero
	IndexOutOfBounds
	UnknownField
	StackOverflow
)

// Sentinel errors wrapped by runtime errors.
// They can be tested with errors.Is.
var (
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrInvalidOpcode    = errors.New("invalid opcode")
	ErrTypeMismatch     = value.ErrTypeMismatch
	ErrDivisionByZero   = value.ErrDivisionByZero
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	ErrUnknownField     = errors.New("unknown field")
	ErrStackOverflow    = errors.New("stack overflow")
)

var sentinels = [...]error{
	StackUnderflow:   ErrStackUnderflow,
	InvalidOpcode:    ErrInvalidOpcode,
	TypeMismatch:     ErrTypeMismatch,
	DivisionByZero:   ErrDivisionByZero,
	IndexOutOfBounds: ErrIndexOutOfBounds,
	UnknownField:     ErrUnknownField,
	StackOverflow:    ErrStackOverflow,
}

// Sentinel returns the sentinel error of a kind.
func (k Kind) Sentinel() error {
	if k < 0 || int(k) >= len(sentinels) {
		return nil
	}
	return sentinels[k]
}

func (k Kind) String() string {
	if err := k.Sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// RuntimeError is an error raised while executing a program.
type RuntimeError struct {
	Kind Kind
	// Func is the name of the function being executed.
	Func string
	// IP is the index of the failing instruction in the function.
	IP   int
	Span source.Span
	Err  error
}

var _ fmterr.Diagnostic = (*RuntimeError)(nil)

func (err *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s in %s at %d: %s", fmterr.Runtime, err.Func, err.IP, err.Err)
	if !err.Span.Start.IsValid() {
		return msg
	}
	return err.Span.Start.String() + ": " + msg
}

// Unwrap returns the underlying error.
func (err *RuntimeError) Unwrap() error {
	return err.Err
}

// Format the error. Use %+v to print the stack trace of the error.
func (err *RuntimeError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s\n%+v", err.Error(), err.Err)
		return
	}
	fmt.Fprint(s, err.Error())
}

// Diagnostic returns the runtime stage, the span, and the message of the error.
func (err *RuntimeError) Diagnostic() (fmterr.Stage, source.Span, string) {
	return fmterr.Runtime, err.Span, err.Err.Error()
}

// kindOf returns the kind of an error returned by an operation on values.
func kindOf(err error) Kind {
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return Kind(kind)
		}
	}
	return TypeMismatch
}
