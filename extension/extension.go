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

// Package extension implements the compact inline markup extension syntax
//
//	{prefix:Type positional, other, name=value, nested={x:Type wf:Code}}
//
// The package knows nothing about types. It only splits the text into a
// type reference plus positional and named argument strings. Backslash
// escapes are kept verbatim in the argument strings; callers strip them with
// RemoveEscapes right before converting a value, once nested extensions have
// been handed back to Parse.
package extension

import (
	"fmt"
	"strings"
)

// Arg is one named argument, kept in source order.
type Arg struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Invocation is a parsed compact extension.
type Invocation struct {
	Prefix     string   `json:"prefix,omitempty"`
	Name       string   `json:"name"`
	Positional []string `json:"positional,omitempty"`
	Named      []Arg    `json:"named,omitempty"`
}

// TypeName returns the type reference as written, prefix included.
func (inv *Invocation) TypeName() string {
	if inv.Prefix == "" {
		return inv.Name
	}
	return inv.Prefix + ":" + inv.Name
}

// Lookup returns the value of the named argument.
func (inv *Invocation) Lookup(name string) (string, bool) {
	for _, arg := range inv.Named {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return "", false
}

func (inv *Invocation) String() string {
	return Format(inv)
}

// SyntaxError reports malformed compact extension text. Offset is the byte
// offset into the parsed text.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("compact extension: %s at offset %d", e.Msg, e.Offset)
}

func syntaxErr(offset int, format string, a ...interface{}) *SyntaxError {
	return &SyntaxError{Offset: offset, Msg: fmt.Sprintf(format, a...)}
}

// IsExtension reports whether text must be read as a compact extension.
// Text escaped with the leading "{}" pair is literal.
func IsExtension(text string) bool {
	return strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "{}")
}

// Parse splits text into an Invocation.
func Parse(text string) (*Invocation, error) {
	if !IsExtension(text) {
		return nil, syntaxErr(0, "text does not start with '{'")
	}

	i := 1
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	start := i
	for i < len(text) && !isSpace(text[i]) && text[i] != '}' {
		i++
	}
	ref := text[start:i]
	if ref == "" {
		return nil, syntaxErr(start, "missing type name")
	}
	if n := strings.IndexAny(ref, reserved); n >= 0 {
		return nil, syntaxErr(start+n, "unexpected '%c' in type name", ref[n])
	}

	inv := &Invocation{Name: ref}
	if n := strings.IndexByte(ref, ':'); n >= 0 {
		inv.Prefix, inv.Name = ref[:n], ref[n+1:]
		if inv.Prefix == "" || inv.Name == "" || strings.IndexByte(inv.Name, ':') >= 0 {
			return nil, syntaxErr(start, "invalid type name '%s'", ref)
		}
	}

	toks, err := tokenize(text, i)
	if err != nil {
		return nil, err
	}
	if err = inv.fill(toks); err != nil {
		return nil, err
	}

	return inv, nil
}

func (inv *Invocation) fill(toks []token) error {
	seen := map[string]struct{}{}
	for i := 0; i < len(toks); {
		t := toks[i]
		if t.kind != tokText {
			return syntaxErr(t.offset, "unexpected '%s'", t.text)
		}

		if i+1 < len(toks) && toks[i+1].kind == tokEquals {
			if i+2 >= len(toks) || toks[i+2].kind != tokText {
				return syntaxErr(toks[i+1].offset, "missing value for '%s'", t.text)
			}
			if t.quoted || t.text == "" || strings.ContainsAny(t.text, " \t\r\n\\") {
				return syntaxErr(t.offset, "invalid argument name '%s'", t.text)
			}
			if _, ok := seen[t.text]; ok {
				return syntaxErr(t.offset, "duplicate argument '%s'", t.text)
			}
			seen[t.text] = struct{}{}
			inv.Named = append(inv.Named, Arg{Name: t.text, Value: toks[i+2].text})
			i += 3
		} else {
			if len(inv.Named) > 0 {
				return syntaxErr(t.offset, "positional argument '%s' follows named arguments", t.text)
			}
			inv.Positional = append(inv.Positional, t.text)
			i++
		}

		if i < len(toks) {
			switch toks[i].kind {
			case tokComma:
				i++
			case tokEquals:
				return syntaxErr(toks[i].offset, "unexpected '='")
			default:
				return syntaxErr(toks[i].offset, "missing ',' before '%s'", toks[i].text)
			}
		}
	}
	return nil
}

// Format renders inv so that Parse recovers it.
func Format(inv *Invocation) string {
	var b strings.Builder
	b.WriteByte('{')
	b.WriteString(inv.TypeName())
	sep := " "
	for _, v := range inv.Positional {
		b.WriteString(sep)
		b.WriteString(Quote(v))
		sep = ", "
	}
	for _, arg := range inv.Named {
		b.WriteString(sep)
		b.WriteString(arg.Name)
		b.WriteByte('=')
		b.WriteString(Quote(arg.Value))
		sep = ", "
	}
	b.WriteByte('}')
	return b.String()
}

const reserved = "\\,={}'\""

// Quote prepares a materialized argument value for Format. Nested
// extensions are returned unchanged.
func Quote(v string) string {
	if IsExtension(v) {
		return v
	}
	if v == "" || isSpace(v[0]) || isSpace(v[len(v)-1]) {
		return "'" + escape(v, "\\'") + "'"
	}
	return escape(v, reserved)
}

func escape(v, special string) string {
	if !strings.ContainsAny(v, special) {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if strings.IndexByte(special, v[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

// RemoveEscapes drops every backslash and keeps the character after it.
func RemoveEscapes(v string) string {
	if strings.IndexByte(v, '\\') < 0 {
		return v
	}
	var b strings.Builder
	escaped := false
	for i := 0; i < len(v); i++ {
		if !escaped && v[i] == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteByte(v[i])
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
