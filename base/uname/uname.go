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

// Package uname provides unique names.
package uname

import "strconv"

// Counter generates unique names by suffixing a prefix with a number.
// The number is shared by all prefixes such that names stay unique
// even if a prefix ends with a number.
type Counter struct {
	next int
}

// Name returns a new unique name given a prefix.
func (c *Counter) Name(prefix string) string {
	name := prefix + "." + strconv.Itoa(c.next)
	c.next++
	return name
}

// Count returns the number of names generated so far.
func (c *Counter) Count() int {
	return c.next
}
