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

package bytecode_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quill-lang/quill/build/bytecode"
	"github.com/quill-lang/quill/build/source"
	"github.com/quill-lang/quill/interp/value"
)

func sampleProgram() *bytecode.Program {
	span := source.Span{
		Start: source.Pos{Offset: 12, Line: 1, Col: 13},
		End:   source.Pos{Offset: 21, Line: 1, Col: 22},
	}
	return &bytecode.Program{
		Consts: []value.Value{
			value.Int(3),
			value.Float(-0.5),
			value.Bool(true),
			value.Str("x"),
			value.Func{Name: "main", Index: 1},
		},
		Funcs: []*bytecode.Function{
			{
				Name:      "id",
				NumParams: 1,
				NumLocals: 1,
				Code: []bytecode.Instruction{
					bytecode.InstrArg(bytecode.Load, 0),
					bytecode.Instr(bytecode.Return),
				},
			},
			{
				Name:      "main",
				NumLocals: 1,
				Code: []bytecode.Instruction{
					bytecode.InstrArg(bytecode.Const, 0),
					bytecode.InstrArg(bytecode.Store, 0),
					bytecode.InstrArg(bytecode.Load, 0),
					bytecode.InstrArg(bytecode.FieldGet, 3),
					bytecode.InstrArg(bytecode.JumpIfFalse, 6),
					bytecode.Instr(bytecode.Add),
					bytecode.Instr(bytecode.Return),
				},
				Spans: []source.Span{span, span, span, span, span, span, span},
			},
		},
		Entry: 1,
	}
}

func TestDisassemble(t *testing.T) {
	got := sampleProgram().String()
	want := `consts:
	0 int 3
	1 float -0.5
	2 bool true
	3 string "x"
	4 function <fn main>

fn id (params: 1, locals: 1)
	0 LOAD 0
	1 RETURN

entry fn main (params: 0, locals: 1)
	0 CONST 0 ; 3
	1 STORE 0
	2 LOAD 0
	3 FIELDGET 3 ; "x"
	4 JUMPIFFALSE 6
	5 ADD
	6 RETURN
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected disassembly (-want +got):\n%s", diff)
	}
}

func TestOpcodes(t *testing.T) {
	if got := bytecode.Opcode(255).String(); got != "OPCODE(255)" {
		t.Errorf("got %q but want OPCODE(255)", got)
	}
	if bytecode.Opcode(255).IsValid() {
		t.Errorf("opcode 255 is valid")
	}
	for op := bytecode.Const; op.IsValid(); op++ {
		if strings.HasPrefix(op.String(), "OPCODE") || op.String() == "" {
			t.Errorf("opcode %d has no name", op)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	prog := sampleProgram()
	var buf bytes.Buffer
	if err := bytecode.Encode(&buf, prog); err != nil {
		t.Fatalf("cannot encode program: %+v", err)
	}
	got, err := bytecode.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("cannot decode program: %+v", err)
	}
	if diff := cmp.Diff(prog, got); diff != "" {
		t.Errorf("decoded program differs (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := bytecode.Encode(&buf, sampleProgram()); err != nil {
		t.Fatal(err)
	}
	valid := buf.Bytes()
	tests := []struct {
		name string
		data []byte
		err  string
	}{
		{name: "empty", data: nil, err: "not a quill bytecode file"},
		{name: "magic", data: []byte("ELF\x00\x06v1.0.0"), err: "not a quill bytecode file"},
		{name: "truncated", data: valid[:len(valid)-4], err: "cannot decode bytecode"},
		{name: "major version", data: []byte("QBC\x00\x06v2.0.0"), err: "incompatible"},
		{name: "newer version", data: []byte("QBC\x00\x06v1.9.0"), err: "newer"},
		{name: "invalid version", data: []byte("QBC\x00\x031.0"), err: "invalid bytecode format version"},
	}
	for _, test := range tests {
		_, err := bytecode.Decode(bytes.NewReader(test.data))
		if err == nil {
			t.Errorf("%s: expected an error but got nil", test.name)
			continue
		}
		if !strings.Contains(err.Error(), test.err) {
			t.Errorf("%s: got error %q but want an error containing %q", test.name, err, test.err)
		}
	}
}

func TestCheckVersion(t *testing.T) {
	for _, version := range []string{"v1.0.0", "v1", "v1.0"} {
		if err := bytecode.CheckVersion(version); err != nil {
			t.Errorf("CheckVersion(%q): unexpected error: %v", version, err)
		}
	}
}
