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

// Package fmt provides utility methods for building listings of quill objects.
package fmt

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// NumberFrom adds a number prefix to all lines in a string.
// The first line gets the number first.
// Numbers are padded with zeros to all have the same width.
func NumberFrom(first int, x string) string {
	lines := slices.Collect(strings.Lines(x))
	last := max(first+len(lines)-1, 1)
	numDigits := int(math.Log10(float64(last))) + 1
	fmtString := fmt.Sprintf("%%0%dd %%s", numDigits)
	var s strings.Builder
	for i, line := range lines {
		s.WriteString(fmt.Sprintf(fmtString, first+i, line))
	}
	return s.String()
}

// Number adds a number prefix, starting at 1, to all lines in a string.
func Number(x string) string {
	return NumberFrom(1, x)
}

// IndentSkip skips some lines and indent the rest with a tabulation.
func IndentSkip(skip int, x string) string {
	var y strings.Builder
	n := 0
	for line := range strings.Lines(x) {
		if n >= skip {
			y.WriteString("\t")
		}
		y.WriteString(line)
		n++
	}
	return y.String()
}

// Indent the given string by a tabulation.
func Indent(x string) string {
	return IndentSkip(0, x)
}

// Join the string representation of a list of elements with a separator.
func Join[T fmt.Stringer](elts []T, sep string) string {
	ss := make([]string, len(elts))
	for i, elt := range elts {
		ss[i] = elt.String()
	}
	return strings.Join(ss, sep)
}

// Float formats a float such that it always reads back as a float.
func Float(f float64) string {
	str := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(str, ".eIN") {
		return str
	}
	return str + ".0"
}
