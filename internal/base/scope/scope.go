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

// Package scope provides nested scopes mapping names to values.
// A scope links to its enclosing scope by a pointer: entering a function or a
// block creates a child scope, leaving it drops the child.
package scope

import (
	"fmt"
	"iter"
	"strings"

	"github.com/pkg/errors"
	"github.com/quill-lang/quill/base/ordered"
)

type (
	// Scope provides a set of values that can be found given their name.
	Scope[V any] interface {
		Find(string) (V, bool)
		Items() *ordered.Map[string, V]
	}

	roScope[V any] struct {
		parent Scope[V]
		local  *ordered.Map[string, V]
	}
)

func find[V any](key string, local *ordered.Map[string, V], parent Scope[V]) (value V, ok bool) {
	value, ok = local.Load(key)
	if ok || parent == nil {
		return
	}
	return parent.Find(key)
}

func mergeItems[V any](parent Scope[V], local *ordered.Map[string, V]) *ordered.Map[string, V] {
	all := ordered.NewMap[string, V]()
	if parent != nil {
		for k, v := range parent.Items().Iter() {
			all.Store(k, v)
		}
	}
	for k, v := range local.Iter() {
		all.Store(k, v)
	}
	return all
}

// NewReadOnly returns a scope that cannot be modified.
func NewReadOnly[V any](parent Scope[V], vals *ordered.Map[string, V]) Scope[V] {
	return &roScope[V]{parent: parent, local: vals.Clone()}
}

func (s *roScope[V]) Find(key string) (value V, ok bool) {
	return find(key, s.local, s.parent)
}

func (s *roScope[V]) Items() *ordered.Map[string, V] {
	return mergeItems(s.parent, s.local)
}

func (s *roScope[V]) String() string {
	return scopeString[V](s.local, s.parent)
}

// RWScope is a scope in which names can be defined and assigned.
type RWScope[V any] struct {
	parent Scope[V]
	local  *ordered.Map[string, V]
}

var _ Scope[any] = (*RWScope[any])(nil)

// NewScope returns a new scope given its parent. The parent can be nil.
func NewScope[V any](parent Scope[V]) *RWScope[V] {
	return &RWScope[V]{
		parent: parent,
		local:  ordered.NewMap[string, V](),
	}
}

// Parent returns the enclosing scope.
func (s *RWScope[V]) Parent() Scope[V] {
	return s.parent
}

// Define a name in the local scope. A previous definition of the same name
// in the local scope or in a parent scope is shadowed.
func (s *RWScope[V]) Define(k string, v V) {
	s.local.Store(k, v)
}

// LocalKeys iterates over the names defined in the local scope.
func (s *RWScope[V]) LocalKeys() iter.Seq[string] {
	return s.local.Keys()
}

// IsLocal returns true if a name is defined in the local scope.
func (s *RWScope[V]) IsLocal(key string) bool {
	_, ok := s.local.Load(key)
	return ok
}

// Find the value of a name in the scope or its parents.
func (s *RWScope[V]) Find(key string) (value V, ok bool) {
	return find(key, s.local, s.parent)
}

// Assign a new value to a name already defined in the scope or one of its parents.
func (s *RWScope[V]) Assign(key string, value V) error {
	if s.IsLocal(key) {
		s.Define(key, value)
		return nil
	}
	if s.parent == nil {
		return errors.Errorf("cannot assign %s: not defined in scope", key)
	}
	rwParent, ok := s.parent.(*RWScope[V])
	if !ok {
		return errors.Errorf("cannot assign %s: scope parent of type %T does not support assignment", key, s.parent)
	}
	return rwParent.Assign(key, value)
}

// Items returns all the names visible from the scope.
func (s *RWScope[V]) Items() *ordered.Map[string, V] {
	return mergeItems(s.parent, s.local)
}

// ReadOnly returns a read-only view of the scope.
func (s *RWScope[V]) ReadOnly() Scope[V] {
	return &roScope[V]{parent: s.parent, local: s.local}
}

func localString[V any](local *ordered.Map[string, V]) string {
	if local.Size() == 0 {
		return "empty"
	}
	var kvs []string
	for k, v := range local.Iter() {
		kvs = append(kvs, fmt.Sprintf("%s: %v", k, v))
	}
	return strings.Join(kvs, "\n")
}

func scopeString[V any](local *ordered.Map[string, V], parent Scope[V]) string {
	parentS := "root"
	if parent != nil {
		parentS = fmt.Sprint(parent)
	}
	return fmt.Sprintf("%s\n-- %p --\n%s\n", parentS, local, localString(local))
}

func (s *RWScope[V]) String() string {
	return scopeString(s.local, s.parent)
}
