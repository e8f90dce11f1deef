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

package fmterr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/quill-lang/quill/build/source"
)

// Diagnostic is an error that can be located in the source code.
type Diagnostic interface {
	error
	// Diagnostic returns the stage which reported the error,
	// where the error is in the source, and the message for the user.
	Diagnostic() (Stage, source.Span, string)
}

var _ Diagnostic = (*Error)(nil)

// Diagnostic returns the stage, the span, and the message of the error.
func (err *Error) Diagnostic() (Stage, source.Span, string) {
	return err.Stage, err.Span, err.Msg()
}

type palette struct {
	header, focus, margin *color.Color
}

func newPalette(withColor bool) palette {
	p := palette{
		header: color.New(color.FgRed, color.Bold),
		focus:  color.New(color.FgRed),
		margin: color.New(color.FgBlue),
	}
	if !withColor {
		p.header.DisableColor()
		p.focus.DisableColor()
		p.margin.DisableColor()
	}
	return p
}

// Render an error as a message for a terminal:
//
//	error: type error
//	 --> main.ql:2:3
//	  |
//	2 |   let x: int = "hello";
//	  |   ^^^^^^^^^^^^^^^^^^^^^ cannot use string as int
//
// Errors which cannot be located are rendered on a single line.
func Render(file *source.File, err error, withColor bool) string {
	p := newPalette(withColor)
	var diag Diagnostic
	if !errors.As(err, &diag) {
		return p.header.Sprint("error: ") + err.Error()
	}
	stage, span, msg := diag.Diagnostic()
	if file == nil || !span.Start.IsValid() || span.Start.Line > file.NumLines() {
		return p.header.Sprintf("error: %s: ", stage) + msg
	}
	end := span.End
	if end.Line != span.Start.Line || end.Col < span.Start.Col {
		// Only underline the first line of a multi-line span.
		end = source.Pos{Line: span.Start.Line, Col: len(file.Line(span.Start.Line))}
	}
	numWidth := len(strconv.Itoa(span.Start.Line))
	pad := strings.Repeat(" ", numWidth)
	lines := []string{
		p.header.Sprintf("error: %s", stage),
		fmt.Sprintf("%s%s %s:%d:%d", pad, p.margin.Sprint("-->"), file.Name, span.Start.Line, span.Start.Col),
		p.margin.Sprintf("%s |", pad),
	}
	line := file.Line(span.Start.Line)
	prefix, focus, suffix := splitLine(line, span.Start.Col, end.Col)
	lines = append(lines, fmt.Sprintf("%s %s%s%s",
		p.margin.Sprintf("%d |", span.Start.Line),
		prefix, p.focus.Sprint(focus), suffix))
	width := max(len(focus), 1)
	lines = append(lines, fmt.Sprintf("%s %s%s",
		p.margin.Sprintf("%s |", pad),
		strings.Repeat(" ", len(prefix)),
		p.focus.Sprint(strings.Repeat("^", width)+" "+msg)))
	return strings.Join(lines, "\n")
}

// splitLine splits a line in three given the first and last columns
// of the middle part (starting at 1).
func splitLine(line string, start, end int) (prefix, focus, suffix string) {
	start = min(max(start-1, 0), len(line))
	end = min(max(end, start), len(line))
	return line[:start], line[start:end], line[end:]
}
