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

// Package vm executes quill bytecode programs.
//
// The machine has a single operand stack shared by all call frames.
// The locals of a frame are stored at the bottom of its region of the stack,
// starting at the base offset of the frame, and are followed by the
// temporary operands of the instruction being executed.
package vm

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	qfmt "github.com/quill-lang/quill/base/fmt"
	"github.com/quill-lang/quill/build/bytecode"
	"github.com/quill-lang/quill/interp/value"
)

// DefaultMaxCallDepth is the maximum number of nested calls of a machine.
const DefaultMaxCallDepth = 1024

// State of a machine.
type State int

// Machine states.
const (
	Ready State = iota
	Running
	Halted
	Failed
)

var stateNames = [...]string{
	Ready:   "ready",
	Running: "running",
	Halted:  "halted",
	Failed:  "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

type frame struct {
	fn   *bytecode.Function
	ip   int
	base int
	// locals is the number of local slots above base.
	// Operands are pushed above the local slots.
	locals int
}

// operands returns the number of operands of the frame on the stack.
func (m *VM) operands(fr *frame) int {
	return len(m.stack) - fr.base - fr.locals
}

// VM executes a program. A VM is not safe for concurrent use.
type VM struct {
	prog   *bytecode.Program
	stack  []value.Value
	frames []frame

	state  State
	result value.Value
	err    error

	stdout   io.Writer
	trace    *log.Logger
	maxDepth int
}

// Option configures a machine.
type Option func(*VM)

// WithStdout sets the writer used by the print instruction.
func WithStdout(w io.Writer) Option {
	return func(m *VM) {
		m.stdout = w
	}
}

// WithTrace logs every instruction and the content of the stack.
func WithTrace(logger *log.Logger) Option {
	return func(m *VM) {
		m.trace = logger
	}
}

// WithMaxCallDepth sets the maximum number of nested calls.
func WithMaxCallDepth(depth int) Option {
	return func(m *VM) {
		m.maxDepth = depth
	}
}

// New returns a machine ready to execute a program.
func New(prog *bytecode.Program, opts ...Option) *VM {
	m := &VM{
		prog:     prog,
		stdout:   os.Stdout,
		maxDepth: DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the state of the machine.
func (m *VM) State() State {
	return m.state
}

// Stack returns a copy of the operand stack.
func (m *VM) Stack() []value.Value {
	return append([]value.Value{}, m.stack...)
}

// Run executes the entry function of the program and returns its result.
// Once the machine has halted or failed, Run returns the same result.
func (m *VM) Run() (value.Value, error) {
	switch m.state {
	case Halted, Failed:
		return m.result, m.err
	case Running:
		return nil, errors.Errorf("machine is already running")
	}
	m.state = Running
	m.result, m.err = m.run()
	if m.err != nil {
		m.state = Failed
		m.result = nil
	} else {
		m.state = Halted
	}
	return m.result, m.err
}

func (m *VM) run() (value.Value, error) {
	entry := m.prog.Entry
	if entry < 0 || entry >= len(m.prog.Funcs) {
		return nil, &RuntimeError{
			Kind: InvalidOpcode,
			Err:  errors.Wrapf(ErrInvalidOpcode, "entry function %d out of range", entry),
		}
	}
	if err := m.enter(m.prog.Funcs[entry], 0); err != nil {
		return nil, &RuntimeError{Kind: StackOverflow, Func: m.prog.Funcs[entry].Name, Err: err}
	}
	for {
		fr := &m.frames[len(m.frames)-1]
		if fr.ip >= len(fr.fn.Code) {
			result := value.Value(value.Null{})
			if m.operands(fr) > 0 {
				result = m.stack[len(m.stack)-1]
			}
			if done := m.leave(result); done {
				return result, nil
			}
			continue
		}
		instr := fr.fn.Code[fr.ip]
		if m.trace != nil {
			m.trace.Printf("%s:%d %s [%s]", fr.fn.Name, fr.ip, instr, qfmt.Join(m.stack, ", "))
		}
		fr.ip++
		result, done, err := m.exec(fr, instr)
		if err != nil {
			return nil, err
		}
		if done {
			return result, nil
		}
	}
}

// enter pushes a frame for a function whose arguments are the numArgs
// values on the top of the stack.
func (m *VM) enter(fn *bytecode.Function, numArgs int) error {
	if len(m.frames) >= m.maxDepth {
		return errors.Wrapf(ErrStackOverflow, "call depth exceeds %d calling %s", m.maxDepth, fn.Name)
	}
	fr := frame{fn: fn, base: len(m.stack) - numArgs, locals: max(fn.NumLocals, numArgs)}
	for len(m.stack) < fr.base+fr.locals {
		m.stack = append(m.stack, value.Null{})
	}
	m.frames = append(m.frames, fr)
	return nil
}

// leave pops the current frame and pushes its result on the stack.
// It returns true if the entry function has returned.
func (m *VM) leave(result value.Value) bool {
	fr := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]
	m.stack = append(m.stack[:fr.base], result)
	return len(m.frames) == 0
}

func (m *VM) fail(fr *frame, kind Kind, err error) error {
	ip := fr.ip - 1
	return &RuntimeError{
		Kind: kind,
		Func: fr.fn.Name,
		IP:   ip,
		Span: fr.fn.Span(ip),
		Err:  err,
	}
}

func (m *VM) push(val value.Value) {
	m.stack = append(m.stack, val)
}

// pop removes the value at the top of the stack.
// Only the operands of the current frame can be removed.
func (m *VM) pop(fr *frame) (value.Value, error) {
	if m.operands(fr) <= 0 {
		return nil, m.fail(fr, StackUnderflow, errors.Wrapf(ErrStackUnderflow, "%s", fr.fn.Code[fr.ip-1]))
	}
	val := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return val, nil
}

// popN removes n values from the stack and returns them in push order.
func (m *VM) popN(fr *frame, n int) ([]value.Value, error) {
	if m.operands(fr) < n {
		return nil, m.fail(fr, StackUnderflow, errors.Wrapf(ErrStackUnderflow, "%s needs %d values", fr.fn.Code[fr.ip-1], n))
	}
	vals := append([]value.Value{}, m.stack[len(m.stack)-n:]...)
	m.stack = m.stack[:len(m.stack)-n]
	return vals, nil
}
