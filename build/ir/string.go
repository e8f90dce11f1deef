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
	"fmt"
	"strconv"
	"strings"

	qfmt "github.com/quill-lang/quill/base/fmt"
)

func (id VarID) String() string {
	return "v" + strconv.Itoa(int(id))
}

func (v Var) String() string {
	return v.ID.String()
}

func (l Lit) String() string {
	switch l.Kind {
	case IntLit:
		return strconv.FormatInt(l.Int, 10)
	case FloatLit:
		return qfmt.Float(l.Float)
	case BoolLit:
		return strconv.FormatBool(l.Bool)
	case StringLit:
		return strconv.Quote(l.Str)
	case FuncLit:
		return "@" + l.Str
	}
	return "<invalid literal>"
}

var binOps = [...]string{
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

func (op BinOp) String() string {
	if int(op) < len(binOps) {
		return binOps[op]
	}
	return fmt.Sprintf("BinOp(%d)", int(op))
}

var unOps = [...]string{
	Neg:        "neg",
	Not:        "not",
	Len:        "len",
	IntToFloat: "itof",
}

func (op UnOp) String() string {
	if int(op) < len(unOps) {
		return unOps[op]
	}
	return fmt.Sprintf("UnOp(%d)", int(op))
}

func (in *Assign) String() string {
	return fmt.Sprintf("%s = %s", in.Dst, in.Src)
}

func (in *BinaryOp) String() string {
	return fmt.Sprintf("%s = %s %s %s", in.Dst, in.X, in.Op, in.Y)
}

func (in *UnaryOp) String() string {
	return fmt.Sprintf("%s = %s %s", in.Dst, in.Op, in.X)
}

func (in *Call) String() string {
	return fmt.Sprintf("%s = call %s(%s)", in.Dst, in.Callee, qfmt.Join(in.Args, ", "))
}

func (in *Return) String() string {
	if in.Value == nil {
		return "return"
	}
	return "return " + in.Value.String()
}

func (in *CondJump) String() string {
	return fmt.Sprintf("ifnot %s goto %s", in.Cond, in.Label)
}

func (in *Jump) String() string {
	return "goto " + in.Label
}

func (in *Label) String() string {
	return in.Name + ":"
}

func (in *ArrayNew) String() string {
	return fmt.Sprintf("%s = [%s]", in.Dst, qfmt.Join(in.Elems, ", "))
}

func (in *IndexGet) String() string {
	return fmt.Sprintf("%s = %s[%s]", in.Dst, in.Array, in.Index)
}

func (in *IndexSet) String() string {
	return fmt.Sprintf("%s[%s] = %s", in.Array, in.Index, in.Value)
}

func (in *FieldGet) String() string {
	return fmt.Sprintf("%s = %s.%s", in.Dst, in.Record, in.Field)
}

func (in *FieldSet) String() string {
	return fmt.Sprintf("%s.%s = %s", in.Record, in.Field, in.Value)
}

func (in *RecordNew) String() string {
	fields := make([]string, len(in.Fields))
	for i, name := range in.Fields {
		fields[i] = name + ": " + in.Values[i].String()
	}
	return fmt.Sprintf("%s = %s {%s}", in.Dst, in.Type, strings.Join(fields, ", "))
}

func (in *Print) String() string {
	return "print " + in.Value.String()
}

// String returns a listing of the function.
// Labels are not indented.
func (f *Function) String() string {
	params := make([]string, len(f.Params))
	for i, name := range f.Params {
		params[i] = fmt.Sprintf("%s %s", VarID(i), name)
	}
	var s strings.Builder
	fmt.Fprintf(&s, "func %s(%s) {\n", f.Name, strings.Join(params, ", "))
	for _, instr := range f.Body {
		if _, isLabel := instr.Val.(*Label); !isLabel {
			s.WriteString("\t")
		}
		s.WriteString(instr.Val.String())
		s.WriteString("\n")
	}
	s.WriteString("}\n")
	return s.String()
}

func (p *Program) String() string {
	return qfmt.Join(p.Funcs, "\n")
}
