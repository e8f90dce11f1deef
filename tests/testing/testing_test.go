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

package testing_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	qltesting "github.com/quill-lang/quill/tests/testing"
)

func TestParseExpectations(t *testing.T) {
	tests := []struct {
		src  string
		want qltesting.Expectations
	}{
		{
			src:  "// Want: 14\nfn main() { 14 }",
			want: qltesting.Expectations{Want: "14", HasWant: true},
		},
		{
			src: `
// Output:
// a
//   b
// Want: "c"
fn main() {}`,
			want: qltesting.Expectations{
				Want:      `"c"`,
				HasWant:   true,
				Output:    "a\nb\n",
				HasOutput: true,
			},
		},
		{
			src: `
// Output:
// a

// not part of the output
fn main() {}`,
			want: qltesting.Expectations{Output: "a\n", HasOutput: true},
		},
		{
			src:  "fn main() { 1 / 0 } // Error: division by zero",
			want: qltesting.Expectations{},
		},
		{
			src:  "\t// Error: division by zero\nfn main() { 1 / 0 }",
			want: qltesting.Expectations{Error: "division by zero"},
		},
	}
	for i, test := range tests {
		got, err := qltesting.ParseExpectations(test.src)
		if test.want == (qltesting.Expectations{}) {
			if err == nil {
				t.Errorf("test %d: expected an error but got %+v", i, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if diff := cmp.Diff(&test.want, got); diff != "" {
			t.Errorf("test %d: unexpected expectations (-want +got):\n%s", i, diff)
		}
	}
}

func TestParseExpectationsErrors(t *testing.T) {
	tests := []struct {
		src string
		err string
	}{
		{src: "fn main() {}", err: "no Want:, Output:, or Error: directive"},
		{src: "// Want: 1\n// Want: 2\n", err: "line 2: more than one Want: directive"},
		{src: "// Error:\n", err: "line 1: empty Error: directive"},
		{src: "// Error: x\n// Want: 1\n", err: "Error: directive cannot be used"},
	}
	for _, test := range tests {
		_, err := qltesting.ParseExpectations(test.src)
		if err == nil {
			t.Errorf("%q: expected an error", test.src)
			continue
		}
		if !strings.Contains(err.Error(), test.err) {
			t.Errorf("%q: got error %q but want %q", test.src, err.Error(), test.err)
		}
	}
}
