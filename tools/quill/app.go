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
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/quill-lang/quill/api"
	"github.com/quill-lang/quill/build/bytecode"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/source"
	"github.com/quill-lang/quill/interp/value"
	"github.com/urfave/cli"
	"go.uber.org/multierr"
)

const (
	sourceExt   = ".ql"
	bytecodeExt = ".qbc"
)

type app struct {
	stdout, stderr io.Writer

	noColor bool
	trace   bool
	noOpt   bool
	output  string
}

func newApp(stdout, stderr io.Writer) *cli.App {
	a := &app{stdout: stdout, stderr: stderr}
	noColorFlag := cli.BoolFlag{
		Name:        "no-color",
		Usage:       "print diagnostics without colors",
		Destination: &a.noColor,
	}
	traceFlag := cli.BoolFlag{
		Name:        "trace",
		Usage:       "log the generated bytecode and every executed instruction",
		Destination: &a.trace,
	}
	noOptFlag := cli.BoolFlag{
		Name:        "no-opt",
		Usage:       "disable the optimizer",
		Destination: &a.noOpt,
	}
	outputFlag := cli.StringFlag{
		Name:        "output, o",
		Usage:       "bytecode file to write (default: the source file with a " + bytecodeExt + " extension)",
		Destination: &a.output,
	}

	cliApp := cli.NewApp()
	cliApp.Name = "quill"
	cliApp.Usage = "compile and run quill programs"
	cliApp.Version = bytecode.FormatVersion
	cliApp.Writer = stdout
	cliApp.ErrWriter = stderr
	cliApp.Commands = []cli.Command{
		{
			Name:      "run",
			Aliases:   []string{"r"},
			Usage:     "compile and execute source files",
			ArgsUsage: "FILE" + sourceExt + "...",
			Flags:     []cli.Flag{noColorFlag, traceFlag, noOptFlag},
			Action:    a.run,
		},
		{
			Name:      "check",
			Aliases:   []string{"c"},
			Usage:     "compile source files without executing them",
			ArgsUsage: "FILE" + sourceExt + "...",
			Flags:     []cli.Flag{noColorFlag, noOptFlag},
			Action:    a.check,
		},
		{
			Name:      "build",
			Aliases:   []string{"b"},
			Usage:     "compile a source file into a bytecode file",
			ArgsUsage: "FILE" + sourceExt,
			Flags:     []cli.Flag{noColorFlag, traceFlag, noOptFlag, outputFlag},
			Action:    a.build,
		},
		{
			Name:      "exec",
			Aliases:   []string{"x"},
			Usage:     "execute a bytecode file",
			ArgsUsage: "FILE" + bytecodeExt,
			Flags:     []cli.Flag{noColorFlag, traceFlag},
			Action:    a.exec,
		},
		{
			Name:      "disasm",
			Aliases:   []string{"d"},
			Usage:     "print the bytecode of a source or bytecode file",
			ArgsUsage: "FILE",
			Flags:     []cli.Flag{noColorFlag, noOptFlag},
			Action:    a.disasm,
		},
		{
			Name:      "watch",
			Aliases:   []string{"w"},
			Usage:     "run a source file every time it changes",
			ArgsUsage: "FILE" + sourceExt,
			Flags:     []cli.Flag{noColorFlag, traceFlag, noOptFlag},
			Action:    a.watch,
		},
	}
	cliApp.Action = func(c *cli.Context) error {
		return cli.ShowAppHelp(c)
	}
	return cliApp
}

func (a *app) options() []api.Option {
	opts := []api.Option{api.WithStdout(a.stdout)}
	if a.trace {
		opts = append(opts, api.WithTrace(log.New(a.stderr, "trace: ", 0)))
	}
	if a.noOpt {
		opts = append(opts, api.WithoutOptimization())
	}
	return opts
}

// report prints a diagnostic for an error located in a file.
func (a *app) report(file *source.File, err error) {
	var diag fmterr.Diagnostic
	if !errors.As(err, &diag) && file != nil {
		err = fmterr.FilePrefixWith(file)(err)
	}
	fmt.Fprintln(a.stderr, fmterr.Render(file, err, !a.noColor))
}

// reportAll reports all the compilation errors and returns a summary.
func (a *app) reportAll(results []compiled) error {
	var errs error
	for _, r := range results {
		if r.err == nil {
			continue
		}
		a.report(r.file, r.err)
		errs = multierr.Append(errs, r.err)
	}
	return errors.Errorf("%d of %d files failed to compile", len(multierr.Errors(errs)), len(results))
}

func oneArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.Errorf("%s expects a single file, got %d arguments", c.Command.Name, c.NArg())
	}
	return c.Args().First(), nil
}

func (a *app) run(c *cli.Context) error {
	files, err := readSourceFiles(c.Args())
	if err != nil {
		return err
	}
	opts := a.options()
	results, err := compileAll(files, opts)
	if err != nil {
		return a.reportAll(results)
	}
	for _, r := range results {
		if err := a.execute(r.file, r.prog, opts); err != nil {
			return err
		}
	}
	return nil
}

// execute a program and print its result if it is not null.
func (a *app) execute(file *source.File, prog *bytecode.Program, opts []api.Option) error {
	val, err := api.Execute(prog, opts...)
	if err != nil {
		a.report(file, err)
		return errors.Errorf("%s: execution failed", file.Name)
	}
	if _, isNull := val.(value.Null); !isNull {
		fmt.Fprintln(a.stdout, val)
	}
	return nil
}

func (a *app) check(c *cli.Context) error {
	files, err := readSourceFiles(c.Args())
	if err != nil {
		return err
	}
	if results, err := compileAll(files, a.options()); err != nil {
		return a.reportAll(results)
	}
	return nil
}

func (a *app) compileOne(name string) (*source.File, *bytecode.Program, error) {
	files, err := readSourceFiles([]string{name})
	if err != nil {
		return nil, nil, err
	}
	results, err := compileAll(files, a.options())
	if err != nil {
		return nil, nil, a.reportAll(results)
	}
	return results[0].file, results[0].prog, nil
}

func (a *app) build(c *cli.Context) error {
	name, err := oneArg(c)
	if err != nil {
		return err
	}
	_, prog, err := a.compileOne(name)
	if err != nil {
		return err
	}
	output := a.output
	if output == "" {
		output = strings.TrimSuffix(name, sourceExt) + bytecodeExt
	}
	return writeProgram(output, prog)
}

func (a *app) exec(c *cli.Context) error {
	name, err := oneArg(c)
	if err != nil {
		return err
	}
	prog, err := readProgram(name)
	if err != nil {
		return err
	}
	return a.execute(source.NewFile(name, ""), prog, a.options())
}

func (a *app) disasm(c *cli.Context) error {
	name, err := oneArg(c)
	if err != nil {
		return err
	}
	var prog *bytecode.Program
	if filepath.Ext(name) == bytecodeExt {
		prog, err = readProgram(name)
	} else {
		_, prog, err = a.compileOne(name)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, prog.String())
	return nil
}

// runFile compiles and executes a source file, reporting errors
// on the standard error.
func (a *app) runFile(name string) {
	file, prog, err := a.compileOne(name)
	if err != nil {
		return
	}
	if err := a.execute(file, prog, a.options()); err != nil {
		fmt.Fprintln(a.stderr, err)
	}
}

func (a *app) watch(c *cli.Context) error {
	name, err := oneArg(c)
	if err != nil {
		return err
	}
	if name, err = filepath.Abs(name); err != nil {
		return errors.WithStack(err)
	}
	w, err := newWatcher(name)
	if err != nil {
		return err
	}
	defer w.Close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	a.runFile(name)
	return watchLoop(ctx, w, name, func() {
		fmt.Fprintf(a.stderr, "%s changed\n", filepath.Base(name))
		a.runFile(name)
	})
}
