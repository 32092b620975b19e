// MIT License
//
// Copyright (c) 2023 Lack
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package extension

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNamed(t *testing.T) {
	inv, err := Parse("{ns:Foo Bar=1, Baz=2}")
	require.NoError(t, err)

	assert.Equal(t, "ns", inv.Prefix)
	assert.Equal(t, "Foo", inv.Name)
	assert.Empty(t, inv.Positional)
	assert.Equal(t, []Arg{{Name: "Bar", Value: "1"}, {Name: "Baz", Value: "2"}}, inv.Named)

	v, ok := inv.Lookup("Baz")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *Invocation
	}{
		{"bare", "{x:Null}", &Invocation{Prefix: "x", Name: "Null"}},
		{"spaces", "{ Foo  }", &Invocation{Name: "Foo"}},
		{"positional", "{x:Type wf:Code}", &Invocation{Prefix: "x", Name: "Type", Positional: []string{"wf:Code"}}},
		{"mixed", "{Bind a, b, Path=c}", &Invocation{Name: "Bind", Positional: []string{"a", "b"}, Named: []Arg{{"Path", "c"}}}},
		{"nested", "{Bind Type={x:Type wf:Code}, Path=a}", &Invocation{Name: "Bind", Named: []Arg{{"Type", "{x:Type wf:Code}"}, {"Path", "a"}}}},
		{"nested with commas", "{Bind {Rule a=1, b=2}}", &Invocation{Name: "Bind", Positional: []string{"{Rule a=1, b=2}"}}},
		{"quoted", "{Foo 'a, b', Name=\"x=y\"}", &Invocation{Name: "Foo", Positional: []string{"a, b"}, Named: []Arg{{"Name", "x=y"}}}},
		{"empty quoted", "{Foo ''}", &Invocation{Name: "Foo", Positional: []string{""}}},
		{"escapes kept", "{Foo a\\,b}", &Invocation{Name: "Foo", Positional: []string{"a\\,b"}}},
		{"inner spaces", "{Foo hello world}", &Invocation{Name: "Foo", Positional: []string{"hello world"}}},
		{"trailing space", "{Foo a }  ", &Invocation{Name: "Foo", Positional: []string{"a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		text   string
		offset int
	}{
		{"{Foo Bar=}", 9},
		{"{Foo a=1, b}", 10},
		{"{Foo a=b=c}", 8},
		{"{Foo ,a}", 5},
		{"{Foo a,,b}", 7},
		{"{Foo a}x", 7},
		{"{Foo a", 6},
		{"{Foo 'a}", 5},
		{"{Foo a=1, a=2}", 10},
		{"{}", 0},
		{"{ }", 2},
		{"{Foo,Bar}", 4},
		{"{:Foo}", 1},
		{"{Foo 'a' b}", 9},
		{"{Foo x'a'}", 6},
	}

	for _, tt := range tests {
		_, err := Parse(tt.text)
		var se *SyntaxError
		if !assert.True(t, errors.As(err, &se), "Parse(%q) = %v", tt.text, err) {
			continue
		}
		assert.Equal(t, tt.offset, se.Offset, "Parse(%q): %s", tt.text, se.Msg)
	}
}

func TestIsExtension(t *testing.T) {
	assert.True(t, IsExtension("{x:Null}"))
	assert.True(t, IsExtension("{broken"))
	assert.False(t, IsExtension("{}{x:Null}"))
	assert.False(t, IsExtension(" {x:Null}"))
	assert.False(t, IsExtension("plain"))
	assert.False(t, IsExtension(""))
}

func TestFormatRoundTrip(t *testing.T) {
	tests := []*Invocation{
		{Name: "Foo"},
		{Prefix: "wf", Name: "Bind", Positional: []string{"a", "b c"}, Named: []Arg{{"Path", "x"}}},
		{Name: "Foo", Named: []Arg{{"Text", "a, b = {c}"}, {"Quote", `it's "q"`}}},
		{Name: "Foo", Positional: []string{"", "  padded "}},
		{Name: "Foo", Named: []Arg{{"Type", "{x:Type wf:Code}"}}},
		{Name: "Foo", Positional: []string{`back\slash`}},
	}

	for _, want := range tests {
		text := Format(want)
		got, err := Parse(text)
		require.NoError(t, err, text)

		unescape := func(in []string) []string {
			if in == nil {
				return nil
			}
			out := make([]string, len(in))
			for i, v := range in {
				out[i] = RemoveEscapes(v)
			}
			return out
		}
		assert.Equal(t, want.TypeName(), got.TypeName(), text)
		assert.Equal(t, want.Positional, unescape(got.Positional), text)
		if assert.Len(t, got.Named, len(want.Named), text) {
			for i := range want.Named {
				assert.Equal(t, want.Named[i].Name, got.Named[i].Name, text)
				want := want.Named[i].Value
				gotValue := got.Named[i].Value
				if !IsExtension(gotValue) {
					gotValue = RemoveEscapes(gotValue)
				}
				assert.Equal(t, want, gotValue, text)
			}
		}
	}
}

func TestRemoveEscapes(t *testing.T) {
	assert.Equal(t, "a,b", RemoveEscapes(`a\,b`))
	assert.Equal(t, `a\b`, RemoveEscapes(`a\\b`))
	assert.Equal(t, "plain", RemoveEscapes("plain"))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "abc", Quote("abc"))
	assert.Equal(t, `a\,b`, Quote("a,b"))
	assert.Equal(t, "''", Quote(""))
	assert.Equal(t, "' a'", Quote(" a"))
	assert.Equal(t, "{x:Null}", Quote("{x:Null}"))
	assert.Equal(t, `\{\}abc`, Quote("{}abc"))
}
