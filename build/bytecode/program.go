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

package bytecode

import (
	"fmt"
	"strings"

	qfmt "github.com/quill-lang/quill/base/fmt"
	"github.com/quill-lang/quill/build/source"
	"github.com/quill-lang/quill/interp/value"
)

type (
	// Function is the bytecode of a function.
	Function struct {
		Name      string
		NumParams int
		// NumLocals is the number of local slots, parameters included.
		NumLocals int
		Code      []Instruction
		// Spans maps every instruction to the source code it has been compiled from.
		// Spans is either empty or of the same length as Code.
		Spans []source.Span
	}

	// Program is a compiled quill program.
	Program struct {
		// Consts is the constant pool.
		Consts []value.Value
		Funcs  []*Function
		// Entry is the index of the function called to run the program.
		Entry int
	}
)

// Span returns the source code of the instruction at a given index.
func (f *Function) Span(ip int) source.Span {
	if ip < 0 || ip >= len(f.Spans) {
		return source.Span{}
	}
	return f.Spans[ip]
}

// Find returns the index of a function given its name.
func (p *Program) Find(name string) (int, bool) {
	for i, fn := range p.Funcs {
		if fn.Name == name {
			return i, true
		}
	}
	return -1, false
}

func constString(val value.Value) string {
	if s, ok := val.(value.Str); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return val.String()
}

// Disassemble returns a human readable listing of a function.
// consts is the constant pool used to annotate instructions
// referencing a constant. It can be nil.
func (f *Function) Disassemble(consts []value.Value) string {
	var code strings.Builder
	for _, in := range f.Code {
		code.WriteString(in.String())
		if in.Op.ArgIsConst() && int(in.Arg) < len(consts) {
			code.WriteString(" ; " + constString(consts[in.Arg]))
		}
		code.WriteString("\n")
	}
	header := fmt.Sprintf("fn %s (params: %d, locals: %d)\n", f.Name, f.NumParams, f.NumLocals)
	if len(f.Code) == 0 {
		return header
	}
	return header + qfmt.Indent(qfmt.NumberFrom(0, code.String()))
}

// String returns a listing of the constant pool and of all the functions.
func (p *Program) String() string {
	var s strings.Builder
	s.WriteString("consts:\n")
	var consts strings.Builder
	for _, val := range p.Consts {
		fmt.Fprintf(&consts, "%s %s\n", val.Kind(), constString(val))
	}
	if len(p.Consts) > 0 {
		s.WriteString(qfmt.Indent(qfmt.NumberFrom(0, consts.String())))
	}
	for i, fn := range p.Funcs {
		s.WriteString("\n")
		if i == p.Entry {
			s.WriteString("entry ")
		}
		s.WriteString(fn.Disassemble(p.Consts))
	}
	return s.String()
}
