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

package lexer_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/quill-lang/quill/build/fmterr"
	"github.com/quill-lang/quill/build/lexer"
	"github.com/quill-lang/quill/build/source"
)

func tokens(t *testing.T, src string) []lexer.Token {
	t.Helper()
	toks, err := lexer.Tokenize(source.NewFile("test.ql", src))
	if err != nil {
		t.Fatalf("cannot tokenize %q: %v", src, err)
	}
	vals := make([]lexer.Token, len(toks))
	for i, tok := range toks {
		vals[i] = tok.Val
	}
	return vals
}

func tok(kind lexer.Kind, text string) lexer.Token {
	return lexer.Token{Kind: kind, Text: text}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		src  string
		want []lexer.Token
	}{
		{
			src: "fn main() { 2 + 3 * 4 }",
			want: []lexer.Token{
				tok(lexer.Fn, "fn"),
				tok(lexer.Ident, "main"),
				tok(lexer.LParen, "("),
				tok(lexer.RParen, ")"),
				tok(lexer.LBrace, "{"),
				tok(lexer.Int, "2"),
				tok(lexer.Plus, "+"),
				tok(lexer.Int, "3"),
				tok(lexer.Star, "*"),
				tok(lexer.Int, "4"),
				tok(lexer.RBrace, "}"),
				tok(lexer.EOF, ""),
			},
		},
		{
			src: "1.5 1..5 x.y",
			want: []lexer.Token{
				tok(lexer.Float, "1.5"),
				tok(lexer.Int, "1"),
				tok(lexer.DotDot, ".."),
				tok(lexer.Int, "5"),
				tok(lexer.Ident, "x"),
				tok(lexer.Dot, "."),
				tok(lexer.Ident, "y"),
				tok(lexer.EOF, ""),
			},
		},
		{
			src: "a<=b // comment\n!=->&&||!",
			want: []lexer.Token{
				tok(lexer.Ident, "a"),
				tok(lexer.LessEq, "<="),
				tok(lexer.Ident, "b"),
				tok(lexer.NotEq, "!="),
				tok(lexer.Arrow, "->"),
				tok(lexer.AndAnd, "&&"),
				tok(lexer.OrOr, "||"),
				tok(lexer.Bang, "!"),
				tok(lexer.EOF, ""),
			},
		},
		{
			src: `"a\tb\n\"c\"\\" true lettrue`,
			want: []lexer.Token{
				tok(lexer.String, "a\tb\n\"c\"\\"),
				tok(lexer.True, "true"),
				tok(lexer.Ident, "lettrue"),
				tok(lexer.EOF, ""),
			},
		},
		{
			src:  "  // only a comment",
			want: []lexer.Token{tok(lexer.EOF, "")},
		},
	}
	for _, test := range tests {
		got := tokens(t, test.src)
		if diff := cmp.Diff(got, test.want); diff != "" {
			t.Errorf("incorrect tokens for %q (-got +want):\n%s", test.src, diff)
		}
	}
}

func TestSpans(t *testing.T) {
	toks, err := lexer.Tokenize(source.NewFile("test.ql", "let x\n  = 10;"))
	if err != nil {
		t.Fatal(err)
	}
	want := []source.Span{
		{Start: source.Pos{Offset: 0, Line: 1, Col: 1}, End: source.Pos{Offset: 2, Line: 1, Col: 3}},
		{Start: source.Pos{Offset: 4, Line: 1, Col: 5}, End: source.Pos{Offset: 4, Line: 1, Col: 5}},
		{Start: source.Pos{Offset: 8, Line: 2, Col: 3}, End: source.Pos{Offset: 8, Line: 2, Col: 3}},
		{Start: source.Pos{Offset: 10, Line: 2, Col: 5}, End: source.Pos{Offset: 11, Line: 2, Col: 6}},
		{Start: source.Pos{Offset: 12, Line: 2, Col: 7}, End: source.Pos{Offset: 12, Line: 2, Col: 7}},
	}
	var got []source.Span
	for _, tok := range toks[:len(toks)-1] {
		got = append(got, tok.Span)
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("incorrect spans (-got +want):\n%s", diff)
	}
}

func TestRestart(t *testing.T) {
	lx := lexer.New(source.NewFile("test.ql", "a b c"))
	count := func() int {
		n := 0
		for _, err := range lx.All() {
			if err != nil {
				t.Fatal(err)
			}
			n++
		}
		return n
	}
	first, second := count(), count()
	if first != 4 || second != 4 {
		t.Errorf("got %d then %d tokens but want 4 each time", first, second)
	}
	// Stopping early does not affect the next iteration.
	for range lx.All() {
		break
	}
	if got := count(); got != 4 {
		t.Errorf("got %d tokens after an early stop but want 4", got)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src  string
		err  string
		line int
		col  int
	}{
		{src: "let x = #;", err: "unexpected character '#'", line: 1, col: 9},
		{src: "let s = \"abc", err: "unterminated string literal", line: 1, col: 9},
		{src: "\"abc\ndef\"", err: "unterminated string literal", line: 1, col: 1},
		{src: `"a\qb"`, err: `unknown escape sequence \q`, line: 1, col: 3},
	}
	for _, test := range tests {
		_, err := lexer.Tokenize(source.NewFile("test.ql", test.src))
		if err == nil {
			t.Errorf("%q: expected an error", test.src)
			continue
		}
		if !strings.Contains(err.Error(), test.err) {
			t.Errorf("%q: got error %q but want %q", test.src, err.Error(), test.err)
		}
		cErr, ok := err.(*fmterr.Error)
		if !ok {
			t.Errorf("%q: got error of type %T", test.src, err)
			continue
		}
		if cErr.Stage != fmterr.Lexical {
			t.Errorf("%q: got stage %v", test.src, cErr.Stage)
		}
		if cErr.Span.Start.Line != test.line || cErr.Span.Start.Col != test.col {
			t.Errorf("%q: got error at %v but want %d:%d", test.src, cErr.Span.Start, test.line, test.col)
		}
	}
}
