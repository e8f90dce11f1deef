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

package fmterr_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/source"
)

func span(line, col, endCol int) source.Span {
	return source.Span{
		Start: source.Pos{Line: line, Col: col},
		End:   source.Pos{Line: line, Col: endCol},
	}
}

func TestError(t *testing.T) {
	err := fmterr.Errorf(fmterr.Type, span(2, 3, 5), "undefined: %s", "abc")
	if got, want := err.Error(), "2:3: type error: undefined: abc"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	wrapped := errors.Wrap(err, "cannot compile")
	stage, ok := fmterr.StageOf(wrapped)
	if !ok || stage != fmterr.Type {
		t.Errorf("got stage %v, %v but want %v, true", stage, ok, fmterr.Type)
	}
	if _, ok := fmterr.StageOf(errors.New("other")); ok {
		t.Errorf("stage found for a non compiler error")
	}
	noPos := fmterr.Errorf(fmterr.CodeGen, source.Span{}, "too many constants")
	if got, want := noPos.Error(), "codegen error: too many constants"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}

func TestInternal(t *testing.T) {
	err := fmterr.Internal(fmterr.Errorf(fmterr.IR, span(3, 1, 4), "label end.0 defined more than once"))
	if got, want := err.Error(), "internal compiler error, please report it: 3:1: ir error: label end.0 defined more than once"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	if stage, ok := fmterr.StageOf(err); !ok || stage != fmterr.IR {
		t.Errorf("got stage %v, %v but want %v, true", stage, ok, fmterr.IR)
	}
	var diag fmterr.Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("no diagnostic in %v", err)
	}
	if _, _, msg := diag.Diagnostic(); msg != "label end.0 defined more than once" {
		t.Errorf("got message %q", msg)
	}
}

func TestVerboseFormat(t *testing.T) {
	err := fmterr.ToStackTraceError(fmterr.Errorf(fmterr.Syntax, span(1, 1, 1), "unexpected }"))
	got := fmt.Sprintf("%+v", err)
	if !strings.HasPrefix(got, "1:1: syntax error: unexpected }") {
		t.Errorf("unexpected error string:\n%s", got)
	}
	if !strings.Contains(got, "Error generated at:") {
		t.Errorf("stack trace missing from:\n%s", got)
	}
	if got := fmt.Sprintf("%v", err); got != "1:1: syntax error: unexpected }" {
		t.Errorf("got %q", got)
	}
}

func TestRender(t *testing.T) {
	file := source.NewFile("main.ql", "fn main() {\n  let x: int = \"hello\";\n}\n")
	err := fmterr.Errorf(fmterr.Type, span(2, 3, 22), "cannot use string as int")
	got := fmterr.Render(file, err, false)
	want := strings.Join([]string{
		"error: type error",
		" --> main.ql:2:3",
		"  |",
		`2 |   let x: int = "hello";`,
		"  |   " + strings.Repeat("^", 20) + " cannot use string as int",
	}, "\n")
	if got != want {
		t.Errorf("got:\n%s\nbut want:\n%s\ndiff:\n%s", got, want, cmp.Diff(got, want))
	}
	if got, want := fmterr.Render(file, errors.New("boom"), false), "error: boom"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}

func TestFilePrefix(t *testing.T) {
	file := source.NewFile("main.ql", "")
	prefix := fmterr.FilePrefixWith(file)
	got := prefix(fmterr.Errorf(fmterr.Lexical, span(3, 4, 4), "unexpected character")).Error()
	if want := "main.ql:3:4: lexical error: unexpected character"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	got = prefix(errors.New("cannot read")).Error()
	if want := "main.ql: cannot read"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}
