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

package api

import (
	"io"
	"log"
	"os"

	"github.com/quill-lang/quill/build/opt"
	"github.com/quill-lang/quill/interp/vm"
)

type config struct {
	trace        *log.Logger
	stdout       io.Writer
	maxCallDepth int
	optimize     bool
	passes       []opt.Pass
}

// Option configures the compiler or the virtual machine.
// Options which do not apply to a stage are ignored by that stage.
type Option func(*config)

func newConfig(opts []Option) *config {
	cfg := &config{
		stdout:       os.Stdout,
		maxCallDepth: vm.DefaultMaxCallDepth,
		optimize:     true,
	}
	for _, option := range opts {
		option(cfg)
	}
	return cfg
}

// WithTrace logs the generated bytecode when compiling
// and every executed instruction when executing.
func WithTrace(logger *log.Logger) Option {
	return func(cfg *config) {
		cfg.trace = logger
	}
}

// WithStdout sets the writer of the print builtin function.
// The default is os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(cfg *config) {
		cfg.stdout = w
	}
}

// WithMaxCallDepth sets the maximum number of nested calls.
func WithMaxCallDepth(depth int) Option {
	return func(cfg *config) {
		cfg.maxCallDepth = depth
	}
}

// WithoutOptimization disables the optimizer.
func WithoutOptimization() Option {
	return func(cfg *config) {
		cfg.optimize = false
	}
}

// WithPasses sets the optimization passes.
func WithPasses(passes ...opt.Pass) Option {
	return func(cfg *config) {
		cfg.passes = passes
	}
}
