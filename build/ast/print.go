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

package ast

import (
	"fmt"
	"strconv"
	"strings"

	qfmt "github.com/quill-lang/quill/base/fmt"
)

// String returns a compact S-expression representation of a node.
func String(node Node) string {
	var s strings.Builder
	write(&s, node)
	return s.String()
}

func writeList[T Node](s *strings.Builder, nodes []T) {
	for _, node := range nodes {
		s.WriteString(" ")
		write(s, node)
	}
}

func writeOpt(s *strings.Builder, node Node) {
	if node == nil {
		return
	}
	s.WriteString(" ")
	write(s, node)
}

func write(s *strings.Builder, node Node) {
	switch n := node.(type) {
	case *Program:
		s.WriteString("(program")
		writeList(s, n.Decls)
		s.WriteString(")")
	case *BasicLit:
		switch n.Kind {
		case IntLit:
			s.WriteString(strconv.FormatInt(n.Int, 10))
		case FloatLit:
			s.WriteString(qfmt.Float(n.Float))
		case StringLit:
			s.WriteString(strconv.Quote(n.Str))
		case BoolLit:
			s.WriteString(strconv.FormatBool(n.Bool))
		}
	case *Ident:
		s.WriteString(n.Name)
	case *BinaryExpr:
		fmt.Fprintf(s, "(%s ", n.Op)
		write(s, n.X)
		s.WriteString(" ")
		write(s, n.Y)
		s.WriteString(")")
	case *UnaryExpr:
		fmt.Fprintf(s, "(%s ", n.Op)
		write(s, n.X)
		s.WriteString(")")
	case *CallExpr:
		s.WriteString("(call ")
		write(s, n.Callee)
		writeList(s, n.Args)
		s.WriteString(")")
	case *IfExpr:
		s.WriteString("(if ")
		write(s, n.Cond)
		s.WriteString(" ")
		write(s, n.Then)
		writeOpt(s, n.Else)
		s.WriteString(")")
	case *BlockExpr:
		s.WriteString("(block")
		writeList(s, n.Stmts)
		writeOpt(s, n.Value)
		s.WriteString(")")
	case *AssignExpr:
		s.WriteString("(= ")
		write(s, n.Target)
		s.WriteString(" ")
		write(s, n.Value)
		s.WriteString(")")
	case *FieldExpr:
		s.WriteString("(. ")
		write(s, n.X)
		s.WriteString(" " + n.Field.Name + ")")
	case *ArrayLit:
		s.WriteString("(array")
		writeList(s, n.Elems)
		s.WriteString(")")
	case *IndexExpr:
		s.WriteString("(index ")
		write(s, n.X)
		s.WriteString(" ")
		write(s, n.Index)
		s.WriteString(")")
	case *LambdaExpr:
		s.WriteString("(fn (")
		writeParams(s, n.Params)
		s.WriteString(")")
		writeOpt(s, n.Result)
		s.WriteString(" ")
		write(s, n.Body)
		s.WriteString(")")
	case *StructLit:
		s.WriteString("(struct " + n.Type.Name)
		for _, field := range n.Fields {
			s.WriteString(" (" + field.Name.Name + " ")
			write(s, field.Value)
			s.WriteString(")")
		}
		s.WriteString(")")
	case *LetStmt:
		s.WriteString("(let " + n.Name.Name)
		writeOpt(s, n.Type)
		s.WriteString(" ")
		write(s, n.Value)
		s.WriteString(")")
	case *ReturnStmt:
		s.WriteString("(return")
		writeOpt(s, n.Value)
		s.WriteString(")")
	case *WhileStmt:
		s.WriteString("(while ")
		write(s, n.Cond)
		s.WriteString(" ")
		write(s, n.Body)
		s.WriteString(")")
	case *ForStmt:
		s.WriteString("(for " + n.Var.Name + " ")
		write(s, n.Start)
		writeOpt(s, n.End)
		s.WriteString(" ")
		write(s, n.Body)
		s.WriteString(")")
	case *ExprStmt:
		write(s, n.X)
	case *FuncDecl:
		s.WriteString("(fn " + n.Name.Name + " (")
		writeParams(s, n.Params)
		s.WriteString(")")
		writeOpt(s, n.Result)
		s.WriteString(" ")
		write(s, n.Body)
		s.WriteString(")")
	case *StructDecl:
		s.WriteString("(struct " + n.Name.Name)
		for _, field := range n.Fields {
			s.WriteString(" (" + field.Name.Name + " ")
			write(s, field.Type)
			s.WriteString(")")
		}
		s.WriteString(")")
	case *EnumDecl:
		s.WriteString("(enum " + n.Name.Name)
		for _, variant := range n.Variants {
			s.WriteString(" (" + variant.Name.Name)
			writeList(s, variant.Payload)
			s.WriteString(")")
		}
		s.WriteString(")")
	case *AliasDecl:
		s.WriteString("(type " + n.Name.Name + " ")
		write(s, n.Type)
		s.WriteString(")")
	case *NamedType:
		s.WriteString(n.Name)
	case *ArrayType:
		s.WriteString("[")
		write(s, n.Elem)
		s.WriteString("]")
	case *FuncType:
		s.WriteString("fn(")
		for i, param := range n.Params {
			if i > 0 {
				s.WriteString(", ")
			}
			write(s, param)
		}
		s.WriteString(")")
		if n.Result != nil {
			s.WriteString(" -> ")
			write(s, n.Result)
		}
	default:
		fmt.Fprintf(s, "<%T>", node)
	}
}

func writeParams(s *strings.Builder, params []*Param) {
	for i, param := range params {
		if i > 0 {
			s.WriteString(" ")
		}
		s.WriteString(param.Name.Name + ":")
		write(s, param.Type)
	}
}
