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

package types_test

import (
	"testing"

	"github.com/quill-lang/quill/build/types"
)

var (
	intArray   = &types.Array{Elem: types.IntType()}
	floatArray = &types.Array{Elem: types.FloatType()}
	emptyArray = &types.Array{Elem: types.NeverType()}
	point      = &types.Named{Name: "Point"}
	binaryFunc = &types.Func{
		Params: []types.Type{types.IntType(), types.IntType()},
		Result: types.IntType(),
	}
)

func TestAssignableTo(t *testing.T) {
	tests := []struct {
		value, target types.Type
		want          types.Assignability
	}{
		{value: types.IntType(), target: types.IntType(), want: types.Assignable},
		{value: types.IntType(), target: types.FloatType(), want: types.Widened},
		{value: types.FloatType(), target: types.IntType(), want: types.NotAssignable},
		{value: types.StringType(), target: types.IntType(), want: types.NotAssignable},
		{value: types.NeverType(), target: types.StringType(), want: types.Assignable},
		{value: emptyArray, target: intArray, want: types.Assignable},
		{value: intArray, target: floatArray, want: types.NotAssignable},
		{value: point, target: &types.Named{Name: "Point"}, want: types.Assignable},
		{value: point, target: &types.Named{Name: "Vec"}, want: types.NotAssignable},
		{
			value: binaryFunc,
			target: &types.Func{
				Params: []types.Type{types.IntType(), types.IntType()},
				Result: types.IntType(),
			},
			want: types.Assignable,
		},
		{
			value: binaryFunc,
			target: &types.Func{
				Params: []types.Type{types.IntType()},
				Result: types.IntType(),
			},
			want: types.NotAssignable,
		},
	}
	for _, test := range tests {
		if got := types.AssignableTo(test.value, test.target); got != test.want {
			t.Errorf("AssignableTo(%s, %s) = %v but want %v", test.value, test.target, got, test.want)
		}
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		a, b types.Type
		want string
	}{
		{a: types.IntType(), b: types.IntType(), want: "int"},
		{a: types.IntType(), b: types.FloatType(), want: "float"},
		{a: types.NeverType(), b: types.StringType(), want: "string"},
		{a: intArray, b: floatArray, want: ""},
		{a: emptyArray, b: intArray, want: "[int]"},
		{a: types.IntType(), b: types.StringType(), want: ""},
	}
	for _, test := range tests {
		got, ok := types.Join(test.a, test.b)
		gotS := ""
		if ok {
			gotS = got.String()
		}
		if gotS != test.want {
			t.Errorf("Join(%s, %s) = %q but want %q", test.a, test.b, gotS, test.want)
		}
	}
}

func TestComparable(t *testing.T) {
	tests := []struct {
		a, b types.Type
		want bool
	}{
		{a: types.IntType(), b: types.FloatType(), want: true},
		{a: types.StringType(), b: types.StringType(), want: true},
		{a: types.StringType(), b: types.IntType(), want: false},
		{a: point, b: point, want: true},
		{a: types.UnitType(), b: types.UnitType(), want: false},
	}
	for _, test := range tests {
		if got := types.Comparable(test.a, test.b); got != test.want {
			t.Errorf("Comparable(%s, %s) = %t but want %t", test.a, test.b, got, test.want)
		}
	}
}

func TestString(t *testing.T) {
	fn := &types.Func{
		Params: []types.Type{intArray, point},
		Result: types.UnitType(),
	}
	if got, want := fn.String(), "fn([int], Point)"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	if got, want := binaryFunc.String(), "fn(int, int) -> int"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}
