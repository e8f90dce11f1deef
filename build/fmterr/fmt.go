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

	"github.com/quill-lang/quill/build/source"
)

// PrefixWith returns a function to prefix errors with a formatted string.
func PrefixWith(s string, o ...any) func(err error) error {
	return func(err error) error {
		return fmt.Errorf("%s%w", fmt.Sprintf(s, o...), err)
	}
}

// FilePrefixWith returns a function to prefix errors with a file name.
// Compiler errors also get the position of the error in the file.
func FilePrefixWith(file *source.File) func(err error) error {
	return func(err error) error {
		cErr, ok := err.(*Error)
		if !ok || !cErr.Span.Start.IsValid() {
			return fmt.Errorf("%s: %w", file.Name, err)
		}
		return fmt.Errorf("%s:%d:%d: %s: %w", file.Name, cErr.Span.Start.Line, cErr.Span.Start.Col, cErr.Stage, cErr.Err)
	}
}
