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
	"strings"
)

// Sink receives recorded errors. Implementations never fail.
type Sink interface {
	Report(err *Error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(err *Error)

func (f SinkFunc) Report(err *Error) { f(err) }

// ErrorList collects recorded errors in the order they were reported.
// It is not safe for concurrent use; a session owns exactly one.
type ErrorList struct {
	errs []*Error
}

var _ Sink = (*ErrorList)(nil)

func NewErrorList() *ErrorList {
	return &ErrorList{}
}

func (l *ErrorList) Report(err *Error) {
	if err == nil {
		return
	}
	l.errs = append(l.errs, err)
}

func (l *ErrorList) Len() int {
	return len(l.errs)
}

// List returns a copy of recorded errors.
func (l *ErrorList) List() []*Error {
	out := make([]*Error, len(l.errs))
	copy(out, l.errs)
	return out
}

// Filter returns the recorded errors of the given kind.
func (l *ErrorList) Filter(kind Kind) []*Error {
	out := make([]*Error, 0)
	for _, e := range l.errs {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Err returns nil when nothing was recorded, the list itself otherwise.
func (l *ErrorList) Err() error {
	if l == nil || len(l.errs) == 0 {
		return nil
	}
	return l
}

func (l *ErrorList) Error() string {
	parts := make([]string, 0, len(l.errs))
	for _, e := range l.errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the recorded errors to errors.Is and errors.As.
func (l *ErrorList) Unwrap() []error {
	out := make([]error, 0, len(l.errs))
	for _, e := range l.errs {
		out = append(out, e)
	}
	return out
}
