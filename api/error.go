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
	"path/filepath"
	"runtime"
	"strings"

	json "github.com/json-iterator/go"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies the failures a serialization session produces.
type Kind int32

const (
	// KindResolution is an unknown type, namespace or member.
	KindResolution Kind = iota + 1
	// KindGrammar is malformed markup: a bad compact extension, unexpected
	// attributes or content, trailing characters.
	KindGrammar
	// KindValue is a text conversion or property assignment failure.
	KindValue
	// KindOverflow is a re-entrant walk over a live object. It aborts the call.
	KindOverflow
)

func (k Kind) String() string {
	switch k {
	case KindResolution:
		return "Resolution"
	case KindGrammar:
		return "Grammar"
	case KindValue:
		return "Value"
	case KindOverflow:
		return "Overflow"
	}
	return "Unknown"
}

// Error is the error value recorded by a serialization session.
type Error struct {
	Kind   Kind   `json:"kind"`
	Status string `json:"status"`
	Detail string `json:"detail"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	// Path locates the object being walked, e.g. Workflow.Activities/Code.
	Path   string `json:"path,omitempty"`
	Caller string `json:"caller,omitempty"`
	Cause  string `json:"cause,omitempty"`

	cause error
}

// New generates a custom error.
func New(detail string, kind Kind) *Error {
	e := &Error{
		Kind:   kind,
		Detail: detail,
		Status: kind.String(),
	}
	return e
}

func (e *Error) WithKind(kind Kind) *Error {
	e.Kind = kind
	e.Status = kind.String()
	return e
}

// WithPosition fills the source position, ignoring non-positive values.
func (e *Error) WithPosition(line, column int) *Error {
	if line > 0 {
		e.Line = line
		e.Column = column
	}
	return e
}

func (e *Error) WithCause(err error) *Error {
	if err == nil {
		return e
	}
	e.cause = err
	e.Cause = err.Error()
	return e
}

// WithCaller fills Error.Caller
func (e *Error) WithCaller() *Error {
	_, file, line, _ := runtime.Caller(1)
	if index := strings.Index(file, "/src/"); index != -1 {
		file = file[index+5:]
	}
	file = strings.Replace(file, string(filepath.Separator), "/", -1)
	e.Caller = fmt.Sprintf("%s:%d", file, line)
	return e
}

func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// HasPosition reports whether the error carries a source position.
func (e *Error) HasPosition() bool {
	return e.Line > 0
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// ToGRPC converts the error into a grpc status.
func (e *Error) ToGRPC() *status.Status {
	switch e.Kind {
	case KindResolution:
		return status.New(codes.NotFound, e.Detail)
	case KindGrammar, KindValue:
		return status.New(codes.InvalidArgument, e.Detail)
	case KindOverflow:
		return status.New(codes.ResourceExhausted, e.Detail)
	default:
		return status.New(codes.Unknown, e.Detail)
	}
}

// Parse tries to parse a JSON string into an error. If that
// fails, it will set the given string as the error detail.
func Parse(err string) *Error {
	e := new(Error)
	errr := json.Unmarshal([]byte(err), e)
	if errr != nil {
		e.Detail = err
	}
	return e
}

// Resolution generates an unknown type or member error.
func Resolution(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), KindResolution)
}

// Grammar generates a malformed markup error.
func Grammar(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), KindGrammar)
}

// Value generates a conversion error.
func Value(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), KindValue)
}

// Overflow generates a re-entrant serialization error.
func Overflow(format string, a ...interface{}) *Error {
	return New(fmt.Sprintf(format, a...), KindOverflow)
}

// Equal tries to compare errors
func Equal(err1 error, err2 error) bool {
	verr1, ok1 := err1.(*Error)
	verr2, ok2 := err2.(*Error)

	if ok1 != ok2 {
		return false
	}

	if !ok1 {
		return err1 == err2
	}

	return verr1.Kind == verr2.Kind && verr1.Detail == verr2.Detail
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// FromErr try to convert go error go *Error
func FromErr(err error) *Error {
	if err == nil {
		return nil
	}

	var verr *Error
	if errors.As(err, &verr) && verr != nil {
		return verr
	}

	if se, ok := err.(interface {
		GRPCStatus() *status.Status
	}); ok {
		s := se.GRPCStatus()
		switch s.Code() {
		case codes.NotFound:
			return Resolution("%s", s.Message())
		case codes.InvalidArgument:
			return Value("%s", s.Message())
		case codes.ResourceExhausted:
			return Overflow("%s", s.Message())
		}
		return Parse(s.Message())
	}

	return Value("%s", err.Error()).WithCause(err)
}
