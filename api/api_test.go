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

package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestErrorRender(t *testing.T) {
	e := Grammar("unexpected '%s'", "=").WithPosition(3, 14)
	parsed := Parse(e.Error())

	assert.Equal(t, KindGrammar, parsed.Kind)
	assert.Equal(t, "Grammar", parsed.Status)
	assert.Equal(t, "unexpected '='", parsed.Detail)
	assert.Equal(t, 3, parsed.Line)
	assert.Equal(t, 14, parsed.Column)
	assert.True(t, Equal(e, parsed))
}

func TestParsePlainText(t *testing.T) {
	e := Parse("not json")
	assert.Equal(t, "not json", e.Detail)
}

func TestWithPositionIgnoresUnknown(t *testing.T) {
	e := Value("bad").WithPosition(0, 7)
	assert.False(t, e.HasPosition())
	assert.Equal(t, 0, e.Column)
}

func TestCause(t *testing.T) {
	cause := errors.New("strconv: invalid syntax")
	e := Value("cannot convert 'abc' to int").WithCause(cause)

	assert.ErrorIs(t, e, cause)
	assert.Equal(t, cause.Error(), e.Cause)
}

func TestToGRPC(t *testing.T) {
	tests := []struct {
		err  *Error
		code codes.Code
	}{
		{Resolution("type"), codes.NotFound},
		{Grammar("syntax"), codes.InvalidArgument},
		{Value("conv"), codes.InvalidArgument},
		{Overflow("cycle"), codes.ResourceExhausted},
	}

	for i, tt := range tests {
		s := tt.err.ToGRPC()
		if s.Code() != tt.code {
			t.Errorf("#%d: code = %v, want %v", i, s.Code(), tt.code)
		}
		back := FromErr(s.Err())
		if tt.err.Kind != KindGrammar && back.Kind != tt.err.Kind {
			t.Errorf("#%d: kind = %v, want %v", i, back.Kind, tt.err.Kind)
		}
	}
}

func TestFromErr(t *testing.T) {
	assert.Nil(t, FromErr(nil))

	e := Resolution("unknown type")
	wrapped := fmt.Errorf("deserialize: %w", e)
	assert.Same(t, e, FromErr(wrapped))
	assert.True(t, IsKind(wrapped, KindResolution))

	plain := FromErr(errors.New("boom"))
	assert.Equal(t, KindValue, plain.Kind)
}

func TestErrorList(t *testing.T) {
	l := NewErrorList()
	assert.NoError(t, l.Err())

	var sink Sink = l
	sink.Report(Resolution("a"))
	sink.Report(nil)
	sink.Report(Grammar("b").WithPosition(1, 2))

	assert.Equal(t, 2, l.Len())
	assert.Len(t, l.Filter(KindGrammar), 1)
	assert.Error(t, l.Err())
	assert.True(t, IsKind(l.Err(), KindResolution))

	var target *Error
	if assert.True(t, errors.As(l.Err(), &target)) {
		assert.Equal(t, "a", target.Detail)
	}
}

func TestSinkFunc(t *testing.T) {
	n := 0
	var s Sink = SinkFunc(func(err *Error) { n++ })
	s.Report(Value("x"))
	assert.Equal(t, 1, n)
}
