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

// Package ordered provides a map keeping its keys in insertion order.
package ordered

import "iter"

// Map is a map remembering the order in which keys have been inserted.
// Every key is also given a stable index: its insertion rank.
type Map[K comparable, V any] struct {
	keys []K
	vals []V
	idx  map[K]int
}

// NewMap returns a new empty map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{idx: make(map[K]int)}
}

// Store a value for a key. Overwriting a key keeps its index.
// Returns the index of the key.
func (m *Map[K, V]) Store(k K, v V) int {
	if i, in := m.idx[k]; in {
		m.vals[i] = v
		return i
	}
	i := len(m.keys)
	m.idx[k] = i
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	return i
}

// Intern stores a value only if the key is not already present.
// Returns the index of the key and true if the key has been added.
func (m *Map[K, V]) Intern(k K, v V) (int, bool) {
	if i, in := m.idx[k]; in {
		return i, false
	}
	return m.Store(k, v), true
}

// Load returns the value stored for a key.
func (m *Map[K, V]) Load(k K) (V, bool) {
	i, ok := m.idx[k]
	if !ok {
		var zero V
		return zero, false
	}
	return m.vals[i], true
}

// Index returns the insertion index of a key.
func (m *Map[K, V]) Index(k K) (int, bool) {
	i, ok := m.idx[k]
	return i, ok
}

// At returns the key and the value stored at a given index.
func (m *Map[K, V]) At(i int) (K, V) {
	return m.keys[i], m.vals[i]
}

// Iter iterates over keys and values in insertion order.
func (m *Map[K, V]) Iter() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				break
			}
		}
	}
}

// Keys iterates over the keys in insertion order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for _, k := range m.keys {
			if !yield(k) {
				break
			}
		}
	}
}

// Values returns a copy of all the values in insertion order.
func (m *Map[K, V]) Values() []V {
	return append([]V{}, m.vals...)
}

// Clone returns a shallow copy of the map.
func (m *Map[K, V]) Clone() *Map[K, V] {
	r := NewMap[K, V]()
	for k, v := range m.Iter() {
		r.Store(k, v)
	}
	return r
}

// Size returns the number of keys in the map.
func (m *Map[K, V]) Size() int {
	return len(m.keys)
}
