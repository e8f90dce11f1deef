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

// Package api compiles quill source code to bytecode and executes it.
package api

import (
	"github.com/quill-lang/quill/build/bytecode"
	"github.com/quill-lang/quill/build/check"
	"github.com/quill-lang/quill/build/codegen"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/irgen"
	"github.com/quill-lang/quill/build/opt"
	"github.com/quill-lang/quill/build/parser"
	"github.com/quill-lang/quill/build/source"
	"github.com/quill-lang/quill/interp/value"
	"github.com/quill-lang/quill/interp/vm"
)

// DefaultFileName is the name of the file of a source compiled from a string.
const DefaultFileName = "main.ql"

// Compile quill source code into a bytecode program.
func Compile(src string, opts ...Option) (*bytecode.Program, error) {
	return CompileFile(source.NewFile(DefaultFileName, src), opts...)
}

// CompileFile compiles a source file into a bytecode program.
// Compilation stops at the first error. Errors are *fmterr.Error and
// print the location where they have been generated with %+v.
func CompileFile(file *source.File, opts ...Option) (_ *bytecode.Program, err error) {
	defer func() {
		err = fmterr.ToStackTraceError(err)
	}()
	cfg := newConfig(opts)
	prog, err := parser.Parse(file)
	if err != nil {
		return nil, err
	}
	pkg, err := check.Check(prog)
	if err != nil {
		return nil, err
	}
	irProg, err := irgen.Generate(pkg)
	if err != nil {
		return nil, err
	}
	if cfg.optimize {
		stats := opt.Optimize(irProg, cfg.passes...)
		if cfg.trace != nil {
			cfg.trace.Printf("%s: optimizer: %v", file.Name, stats)
		}
	}
	var cgOpts []codegen.Option
	if cfg.trace != nil {
		cgOpts = append(cgOpts, codegen.WithTrace(cfg.trace))
	}
	return codegen.Generate(irProg, cgOpts...)
}

// Execute a program and return the value returned by its entry function.
// Runtime errors are *vm.RuntimeError.
func Execute(prog *bytecode.Program, opts ...Option) (value.Value, error) {
	cfg := newConfig(opts)
	vmOpts := []vm.Option{
		vm.WithStdout(cfg.stdout),
		vm.WithMaxCallDepth(cfg.maxCallDepth),
	}
	if cfg.trace != nil {
		vmOpts = append(vmOpts, vm.WithTrace(cfg.trace))
	}
	return vm.New(prog, vmOpts...).Run()
}

// Run compiles and executes quill source code.
func Run(src string, opts ...Option) (value.Value, error) {
	prog, err := Compile(src, opts...)
	if err != nil {
		return nil, err
	}
	return Execute(prog, opts...)
}
