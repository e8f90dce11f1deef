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

// Package source locates compiler objects in quill source code.
package source

import (
	"fmt"
	"strings"
)

type (
	// Pos is a position in a source file.
	// Line and Col start at 1. Offset is a byte offset starting at 0.
	Pos struct {
		Offset int
		Line   int
		Col    int
	}

	// Span is the range of source code between two positions.
	// End is the position of the last byte of the range.
	Span struct {
		Start Pos
		End   Pos
	}

	// Located pairs a value with the span of source code it comes from.
	Located[T any] struct {
		Val T
		Span
	}
)

// At returns a located value.
func At[T any](val T, span Span) Located[T] {
	return Located[T]{Val: val, Span: span}
}

// IsValid returns true if the position points to some source code.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// To returns a span from the start of s to the end of other.
func (s Span) To(other Span) Span {
	return Span{Start: s.Start, End: other.End}
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset + 1
}

func (s Span) String() string {
	return s.Start.String()
}

// File is a quill source file.
type File struct {
	Name string
	Src  string

	lines []int
}

// NewFile returns a new source file given its name and content.
func NewFile(name, src string) *File {
	f := &File{Name: name, Src: src, lines: []int{0}}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			f.lines = append(f.lines, i+1)
		}
	}
	return f
}

// NumLines returns the number of lines in the file.
func (f *File) NumLines() int {
	return len(f.lines)
}

// Line returns the content of a line given its number (starting at 1),
// without the line terminator.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}
	start := f.lines[n-1]
	end := len(f.Src)
	if n < len(f.lines) {
		end = f.lines[n]
	}
	return strings.TrimRight(f.Src[start:end], "\r\n")
}

// Slice returns the source code covered by a span.
func (f *File) Slice(s Span) string {
	start, end := s.Start.Offset, s.End.Offset+1
	if start < 0 || start > len(f.Src) {
		return ""
	}
	if end > len(f.Src) {
		end = len(f.Src)
	}
	return f.Src[start:end]
}
