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

import "strings"

type tokenKind int

const (
	tokText tokenKind = iota
	tokComma
	tokEquals
)

type token struct {
	kind   tokenKind
	text   string
	offset int
	quoted bool
}

// tokenize splits the argument part of s, starting at pos, into text and
// delimiter tokens. It stops at the closing brace of the outer extension.
// Nested extensions are kept as raw text and escapes stay in place.
func tokenize(s string, pos int) ([]token, error) {
	var (
		toks     []token
		buf      strings.Builder
		bufStart = -1
		inQuotes bool
		quote    byte
		qStart   int
		depth    int
		escaped  bool
		started  bool
		closed   = -1
	)

	push := func(kind tokenKind, text string, offset int, quoted bool) {
		toks = append(toks, token{kind: kind, text: text, offset: offset, quoted: quoted})
	}
	flush := func() bool {
		text := trimUnescaped(buf.String())
		buf.Reset()
		offset := bufStart
		bufStart = -1
		if text == "" {
			return false
		}
		push(tokText, text, offset, false)
		return true
	}
	lastIsDelim := func() bool {
		return len(toks) == 0 || toks[len(toks)-1].kind != tokText
	}

loop:
	for i := pos; i < len(s); i++ {
		c := s[i]
		if !escaped && c == '\\' {
			escaped = true
			if bufStart < 0 {
				bufStart = i
			}
			continue
		}
		if !started && !isSpace(c) {
			started = true
		}
		if !inQuotes && depth == 0 && !started {
			continue
		}
		if bufStart < 0 {
			bufStart = i
		}

		if escaped {
			buf.WriteByte('\\')
			buf.WriteByte(c)
			escaped = false
			continue
		}

		if inQuotes {
			if c == quote {
				inQuotes = false
				push(tokText, buf.String(), qStart, true)
				buf.Reset()
				bufStart = -1
				started = false
			} else {
				buf.WriteByte(c)
			}
			continue
		}

		if depth > 0 {
			switch c {
			case '{':
				depth++
			case '}':
				depth--
			}
			buf.WriteByte(c)
			continue
		}

		switch c {
		case '"', '\'':
			if strings.TrimSpace(buf.String()) != "" {
				return nil, syntaxErr(i, "unexpected quote")
			}
			buf.Reset()
			inQuotes = true
			quote = c
			qStart = i
		case ',', '=':
			if !flush() && lastIsDelim() {
				return nil, syntaxErr(i, "unexpected '%c'", c)
			}
			kind := tokComma
			if c == '=' {
				kind = tokEquals
			}
			push(kind, string(c), i, false)
			started = false
		case '}':
			if !flush() && len(toks) > 0 && lastIsDelim() {
				return nil, syntaxErr(i, "missing value before '}'")
			}
			closed = i
			break loop
		default:
			if c == '{' {
				depth++
			}
			buf.WriteByte(c)
		}
	}

	if closed < 0 {
		if inQuotes {
			return nil, syntaxErr(qStart, "unterminated quote")
		}
		return nil, syntaxErr(len(s), "missing '}'")
	}
	for i := closed + 1; i < len(s); i++ {
		if !isSpace(s[i]) {
			return nil, syntaxErr(i, "unexpected characters after '}'")
		}
	}

	return toks, nil
}

// trimUnescaped trims surrounding whitespace but keeps an escaped trailing
// space.
func trimUnescaped(v string) string {
	v = strings.TrimLeft(v, " \t\r\n")
	end := len(v)
	for end > 0 && isSpace(v[end-1]) {
		if end >= 2 && v[end-2] == '\\' {
			break
		}
		end--
	}
	return v[:end]
}
