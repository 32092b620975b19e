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

// Package codec converts scalar values to and from their attribute text.
package codec

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateTimeFormat is the fixed round-trip layout of time.Time values.
const DateTimeFormat = time.RFC3339Nano

// EscapePrefix marks text that would otherwise be read as a compact extension.
const EscapePrefix = "{}"

// Enum is implemented by integer types with symbolic names. The name of
// value n is EnumNames()[n].
type Enum interface {
	EnumNames() []string
}

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	timeType            = reflect.TypeOf(time.Time{})
	uuidType            = reflect.TypeOf(uuid.UUID{})
	decimalType         = reflect.TypeOf(decimal.Decimal{})
	enumType            = reflect.TypeOf((*Enum)(nil)).Elem()
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// CanInlineType reports whether values of t have a text form.
func CanInlineType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t {
	case durationType, timeType, uuidType, decimalType:
		return true
	}
	if isEnum(t) || isText(t) || isBytes(t) {
		return true
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String, reflect.Func,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// CanInline reports whether v can be written as attribute text. Nil values
// cannot.
func CanInline(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Func && rv.IsNil() {
		return false
	}
	return CanInlineType(rv.Type())
}

// ToText renders v, escaping text that starts with '{'.
func ToText(v any) (string, error) {
	text, err := toText(reflect.ValueOf(v))
	if err != nil {
		return "", err
	}
	return Escape(text), nil
}

// ToTextValue is ToText for a reflect.Value.
func ToTextValue(rv reflect.Value) (string, error) {
	text, err := toText(rv)
	if err != nil {
		return "", err
	}
	return Escape(text), nil
}

func toText(rv reflect.Value) (string, error) {
	if !rv.IsValid() {
		return "", fmt.Errorf("nil value has no text form")
	}
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", fmt.Errorf("nil %s has no text form", rv.Type())
		}
		rv = rv.Elem()
	}

	t := rv.Type()
	switch t {
	case durationType:
		return time.Duration(rv.Int()).String(), nil
	case timeType:
		return rv.Interface().(time.Time).Format(DateTimeFormat), nil
	}

	if isEnum(t) {
		names := rv.Interface().(Enum).EnumNames()
		n, ok := enumIndex(rv)
		if ok && n < len(names) {
			return names[n], nil
		}
	}

	if t.Implements(textMarshalerType) {
		b, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if isBytes(t) {
		b := make([]byte, rv.Len())
		for i := range b {
			b[i] = byte(rv.Index(i).Uint())
		}
		return base64.StdEncoding.EncodeToString(b), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, t.Bits()), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Func:
		if rv.IsNil() {
			return "", fmt.Errorf("nil %s has no text form", t)
		}
		return FuncName(rv), nil
	}

	return "", fmt.Errorf("type %s has no text form", t)
}

// FromText parses text into a value of type t. A pointer type parses its
// element type.
func FromText(text string, t reflect.Type) (reflect.Value, error) {
	return fromText(Unescape(text), t)
}

func fromText(text string, t reflect.Type) (reflect.Value, error) {
	if t.Kind() == reflect.Ptr {
		v, err := fromText(text, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, nil
	}
	if t.Kind() == reflect.Interface {
		v := reflect.ValueOf(text)
		if !v.Type().AssignableTo(t) {
			return reflect.Value{}, fmt.Errorf("text cannot be assigned to %s", t)
		}
		return v, nil
	}

	out := reflect.New(t).Elem()
	switch t {
	case durationType:
		d, err := time.ParseDuration(text)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(int64(d))
		return out, nil
	case timeType:
		ts, err := time.Parse(DateTimeFormat, text)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Set(reflect.ValueOf(ts))
		return out, nil
	}

	if isEnum(t) {
		names := out.Interface().(Enum).EnumNames()
		for i, name := range names {
			if strings.EqualFold(name, text) {
				setIndex(out, i)
				return out, nil
			}
		}
	}

	if reflect.PtrTo(t).Implements(textUnmarshalerType) {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return reflect.Value{}, err
		}
		return p.Elem(), nil
	}
	if isBytes(t) {
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return reflect.Value{}, err
		}
		if t.Kind() == reflect.Array {
			if len(b) != t.Len() {
				return reflect.Value{}, fmt.Errorf("%d bytes do not fit %s", len(b), t)
			}
		} else {
			out = reflect.MakeSlice(t, len(b), len(b))
		}
		for i, c := range b {
			out.Index(i).SetUint(uint64(c))
		}
		return out, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimSpace(text), 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetFloat(f)
	case reflect.String:
		out.SetString(text)
	case reflect.Func:
		return reflect.Value{}, fmt.Errorf("handler '%s' cannot be converted to %s without a binder", text, t)
	default:
		return reflect.Value{}, fmt.Errorf("type %s has no text form", t)
	}

	return out, nil
}

// Escape adds the escape prefix when text would be read as a compact extension.
func Escape(text string) string {
	if strings.HasPrefix(text, "{") {
		return EscapePrefix + text
	}
	return text
}

// Unescape strips one escape prefix.
func Unescape(text string) string {
	return strings.TrimPrefix(text, EscapePrefix)
}

// FuncName returns the bare method or function name of a func value.
func FuncName(rv reflect.Value) string {
	fn := runtime.FuncForPC(rv.Pointer())
	if fn == nil {
		return ""
	}
	name := strings.TrimSuffix(fn.Name(), "-fm")
	if n := strings.LastIndexByte(name, '.'); n >= 0 {
		name = name[n+1:]
	}
	return name
}

func isEnum(t reflect.Type) bool {
	if !t.Implements(enumType) {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// isBytes reports whether t is a byte slice or array, written as base64.
func isBytes(t reflect.Type) bool {
	k := t.Kind()
	return (k == reflect.Slice || k == reflect.Array) && t.Elem().Kind() == reflect.Uint8
}

func isText(t reflect.Type) bool {
	return t.Implements(textMarshalerType) && reflect.PtrTo(t).Implements(textUnmarshalerType)
}

func enumIndex(rv reflect.Value) (int, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		return int(n), n >= 0
	default:
		return int(rv.Uint()), true
	}
}

func setIndex(rv reflect.Value, n int) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(int64(n))
	default:
		rv.SetUint(uint64(n))
	}
}
