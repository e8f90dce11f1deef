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
	"io"

	"github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// withStack prints the stack trace of the error it wraps when
// formatted with %+v.
type withStack struct {
	err error
}

func formatVerbose(err error, s fmt.State) {
	io.WriteString(s, err.Error())
	var withSt stackTracer
	if !errors.As(err, &withSt) {
		return
	}
	fmt.Fprintf(s, "\nError generated at:%+v\n", withSt.StackTrace())
}

func format(err error, s fmt.State, verb rune) {
	switch verb {
	case 'w', 'v':
		if s.Flag('+') {
			formatVerbose(err, s)
			return
		}
		io.WriteString(s, err.Error())
	case 's':
		io.WriteString(s, err.Error())
	case 'q':
		fmt.Fprintf(s, "%q", err.Error())
	}
}

// ToStackTraceError returns an error that displays where it has been
// generated in verbose formatting.
func ToStackTraceError(err error) error {
	if err == nil {
		return nil
	}
	return withStack{err: err}
}

func (err withStack) Unwrap() error {
	return err.err
}

func (err withStack) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}

func (err withStack) Error() string {
	return err.err.Error()
}
