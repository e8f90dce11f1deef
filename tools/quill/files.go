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

package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/quill-lang/quill/api"
	"github.com/quill-lang/quill/build/bytecode"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/source"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// readSourceFiles reads all the source files given on the command line.
func readSourceFiles(names []string) ([]*source.File, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("no source file")
	}
	var files []*source.File
	var errs error
	for _, name := range names {
		if ext := filepath.Ext(name); ext != sourceExt {
			errs = multierr.Append(errs, errors.Errorf("cannot use %s: extension %q is not %s", name, ext, sourceExt))
			continue
		}
		src, err := os.ReadFile(name)
		if err != nil {
			errs = multierr.Append(errs, errors.WithStack(err))
			continue
		}
		files = append(files, source.NewFile(name, string(src)))
	}
	return files, errs
}

// compiled is the result of compiling a source file.
type compiled struct {
	file *source.File
	prog *bytecode.Program
	err  error
}

// compileAll compiles source files concurrently, one pipeline per file.
// Results are in the same order as the files. The returned error is
// the first compilation error, if any.
func compileAll(files []*source.File, opts []api.Option) ([]compiled, error) {
	results := make([]compiled, len(files))
	var g errgroup.Group
	for i, file := range files {
		g.Go(func() error {
			prog, err := api.CompileFile(file, opts...)
			results[i] = compiled{file: file, prog: prog, err: err}
			if err != nil {
				return fmterr.FilePrefixWith(file)(err)
			}
			return nil
		})
	}
	return results, g.Wait()
}

func writeProgram(name string, prog *bytecode.Program) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return errors.WithStack(err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))
	return bytecode.Encode(f, prog)
}

func readProgram(name string) (_ *bytecode.Program, err error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))
	prog, err := bytecode.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", name)
	}
	return prog, nil
}
