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

package ordered_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quill-lang/quill/base/ordered"
)

type entry struct {
	k string
	v int
}

func TestMap(t *testing.T) {
	tests := []struct {
		entries []entry
		want    []entry
	}{
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
			want: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
		},
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "a", v: 3},
			},
			want: []entry{
				{k: "a", v: 3},
				{k: "b", v: 2},
			},
		},
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "a", v: 2},
				{k: "a", v: 3},
				{k: "a", v: 4},
			},
			want: []entry{
				{k: "a", v: 4},
			},
		},
	}
	for ti, test := range tests {
		m := ordered.NewMap[string, int]()
		for _, entry := range test.entries {
			m.Store(entry.k, entry.v)
		}
		if m.Size() != len(test.want) {
			t.Errorf("test %d: map has %d entries but want %d", ti, m.Size(), len(test.want))
			continue
		}
		m = m.Clone()
		i := 0
		for gotK, gotV := range m.Iter() {
			wantK, wantV := test.want[i].k, test.want[i].v
			if gotK != wantK || gotV != wantV {
				t.Errorf("test %d entry %d: got %s->%d but want %s->%d", ti, i, gotK, gotV, wantK, wantV)
			}
			if idx, _ := m.Index(gotK); idx != i {
				t.Errorf("test %d entry %d: got index %d", ti, i, idx)
			}
			if k, v := m.At(i); k != wantK || v != wantV {
				t.Errorf("test %d entry %d: At returned %s->%d but want %s->%d", ti, i, k, v, wantK, wantV)
			}
			i++
		}
	}
}

func TestIntern(t *testing.T) {
	m := ordered.NewMap[string, int]()
	var got []int
	for _, k := range []string{"x", "y", "x", "z", "y"} {
		i, _ := m.Intern(k, len(k))
		got = append(got, i)
	}
	want := []int{0, 1, 0, 2, 1}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("unexpected indices (-got +want):\n%s", diff)
	}
	if _, added := m.Intern("w", 0); !added {
		t.Errorf("new key has not been added")
	}
	var keys []string
	for k := range m.Keys() {
		keys = append(keys, k)
	}
	if diff := cmp.Diff(keys, []string{"x", "y", "z", "w"}); diff != "" {
		t.Errorf("unexpected keys (-got +want):\n%s", diff)
	}
}
