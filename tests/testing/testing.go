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

// Package testing runs quill test programs.
//
// A test program declares what it expects in comments:
//
//	// Want: 120
//	// Output:
//	// first printed line
//	// second printed line
//	// Error: division by zero
//
// Want is the textual form of the value returned by main,
// Output the lines printed by the program,
// and Error a substring of the error returned by the compiler or the machine.
package testing

import (
	"bytes"
	"io/fs"
	"path"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/quill-lang/quill/api"
)

// Directive prefixes.
const (
	WantPrefix   = "Want:"
	OutputPrefix = "Output:"
	ErrorPrefix  = "Error:"
)

// Expectations of a test program.
type Expectations struct {
	Want    string
	HasWant bool

	Output    string
	HasOutput bool

	Error string
}

func commentText(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "//") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, "//")), true
}

// ParseExpectations parses the directives in the comments of a test program.
func ParseExpectations(src string) (*Expectations, error) {
	exp := &Expectations{}
	var output []string
	inOutput := false
	for i, line := range strings.Split(src, "\n") {
		text, isComment := commentText(line)
		if !isComment {
			inOutput = false
			continue
		}
		directive := func(prefix string) (string, bool) {
			if !strings.HasPrefix(text, prefix) {
				return "", false
			}
			return strings.TrimSpace(strings.TrimPrefix(text, prefix)), true
		}
		if want, ok := directive(WantPrefix); ok {
			if exp.HasWant {
				return nil, errors.Errorf("line %d: more than one %s directive", i+1, WantPrefix)
			}
			exp.Want, exp.HasWant, inOutput = want, true, false
			continue
		}
		if errMsg, ok := directive(ErrorPrefix); ok {
			if exp.Error != "" {
				return nil, errors.Errorf("line %d: more than one %s directive", i+1, ErrorPrefix)
			}
			if errMsg == "" {
				return nil, errors.Errorf("line %d: empty %s directive", i+1, ErrorPrefix)
			}
			exp.Error, inOutput = errMsg, false
			continue
		}
		if _, ok := directive(OutputPrefix); ok {
			if exp.HasOutput {
				return nil, errors.Errorf("line %d: more than one %s directive", i+1, OutputPrefix)
			}
			exp.HasOutput, inOutput = true, true
			continue
		}
		if inOutput {
			output = append(output, text+"\n")
		}
	}
	exp.Output = strings.Join(output, "")
	if !exp.HasWant && !exp.HasOutput && exp.Error == "" {
		return nil, errors.Errorf("no %s, %s, or %s directive", WantPrefix, OutputPrefix, ErrorPrefix)
	}
	if exp.Error != "" && (exp.HasWant || exp.HasOutput) {
		return nil, errors.Errorf("%s directive cannot be used with %s or %s", ErrorPrefix, WantPrefix, OutputPrefix)
	}
	return exp, nil
}

func runWith(t *testing.T, exp *Expectations, src string, opts ...api.Option) {
	t.Helper()
	var out bytes.Buffer
	opts = append(opts, api.WithStdout(&out))
	prog, err := api.Compile(src, opts...)
	if err == nil {
		val, execErr := api.Execute(prog, opts...)
		err = execErr
		if err == nil && exp.HasWant && val.String() != exp.Want {
			t.Errorf("incorrect result: got %s but want %s", val, exp.Want)
		}
	}
	if exp.Error != "" {
		if err == nil {
			t.Errorf("expected an error containing %q", exp.Error)
		} else if !strings.Contains(err.Error(), exp.Error) {
			t.Errorf("got error:\n%v\nbut want an error containing:\n%s", err, exp.Error)
		}
		return
	}
	if err != nil {
		t.Errorf("%+v", err)
		return
	}
	if exp.HasOutput {
		if diff := cmp.Diff(exp.Output, out.String()); diff != "" {
			t.Errorf("incorrect output (-want +got):\n%s", diff)
		}
	}
}

// Run a test program with and without optimizations.
func Run(t *testing.T, src string) {
	t.Helper()
	exp, err := ParseExpectations(src)
	if err != nil {
		t.Errorf("incorrect test declaration: %v", err)
		return
	}
	runWith(t, exp, src)
	t.Run("no-opt", func(t *testing.T) {
		runWith(t, exp, src, api.WithoutOptimization())
	})
}

// RunAll runs all the test programs in a directory of a filesystem.
// Returns the number of programs that have been run.
func RunAll(t *testing.T, fsys fs.FS, dir string) (numTests int) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		t.Fatalf("cannot read test directory %s: %v", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".ql" {
			continue
		}
		src, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			t.Errorf("cannot read %s: %v", name, err)
			continue
		}
		numTests++
		t.Run(strings.TrimSuffix(name, ".ql"), func(t *testing.T) {
			Run(t, string(src))
		})
	}
	return
}
