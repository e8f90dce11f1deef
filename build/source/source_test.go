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

package source_test

import (
	"testing"

	"github.com/quill-lang/quill/build/source"
)

func TestFileLines(t *testing.T) {
	f := source.NewFile("test.ql", "fn main() {\n  1\r\n}")
	if got, want := f.NumLines(), 3; got != want {
		t.Fatalf("got %d lines but want %d", got, want)
	}
	tests := []struct {
		line int
		want string
	}{
		{line: 1, want: "fn main() {"},
		{line: 2, want: "  1"},
		{line: 3, want: "}"},
		{line: 4, want: ""},
	}
	for _, test := range tests {
		if got := f.Line(test.line); got != test.want {
			t.Errorf("line %d: got %q but want %q", test.line, got, test.want)
		}
	}
}

func TestSpan(t *testing.T) {
	f := source.NewFile("test.ql", "let abc = 1;")
	a := source.Span{
		Start: source.Pos{Offset: 4, Line: 1, Col: 5},
		End:   source.Pos{Offset: 6, Line: 1, Col: 7},
	}
	if got := f.Slice(a); got != "abc" {
		t.Errorf("got %q but want %q", got, "abc")
	}
	b := source.Span{
		Start: source.Pos{Offset: 10, Line: 1, Col: 11},
		End:   source.Pos{Offset: 10, Line: 1, Col: 11},
	}
	if got := f.Slice(a.To(b)); got != "abc = 1" {
		t.Errorf("got %q but want %q", got, "abc = 1")
	}
	if got := a.String(); got != "1:5" {
		t.Errorf("got %q but want %q", got, "1:5")
	}
}
