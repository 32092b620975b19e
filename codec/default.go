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

package codec

import (
	"fmt"
	"math"
	"reflect"
)

// Coerce converts v to type t. Numeric values convert across kinds when the
// result is exact, text parses through FromText, other values must be
// convertible.
func Coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	dv := reflect.ValueOf(v)
	if dv.Type() == t {
		return dv, nil
	}
	if dv.Kind() == reflect.Ptr && t.Kind() != reflect.Ptr {
		if dv.IsNil() {
			return reflect.Value{}, fmt.Errorf("nil %s cannot be converted to %s", dv.Type(), t)
		}
		return Coerce(dv.Elem().Interface(), t)
	}
	if t.Kind() == reflect.Ptr {
		ev, err := Coerce(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(ev)
		return p, nil
	}
	if dv.Kind() == reflect.String && t.Kind() != reflect.String && t.Kind() != reflect.Interface {
		return FromText(dv.String(), t)
	}

	out := reflect.New(t).Elem()
	switch {
	case isInt(dv.Kind()) && isInt(t.Kind()):
		if out.OverflowInt(dv.Int()) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", v, t)
		}
		out.SetInt(dv.Int())
		return out, nil
	case isInt(dv.Kind()) && isUint(t.Kind()):
		if dv.Int() < 0 || out.OverflowUint(uint64(dv.Int())) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", v, t)
		}
		out.SetUint(uint64(dv.Int()))
		return out, nil
	case isUint(dv.Kind()) && isInt(t.Kind()):
		if dv.Uint() > math.MaxInt64 || out.OverflowInt(int64(dv.Uint())) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", v, t)
		}
		out.SetInt(int64(dv.Uint()))
		return out, nil
	case isUint(dv.Kind()) && isUint(t.Kind()):
		if out.OverflowUint(dv.Uint()) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", v, t)
		}
		out.SetUint(dv.Uint())
		return out, nil
	case isFloat(dv.Kind()) && (isInt(t.Kind()) || isUint(t.Kind())):
		f := dv.Float()
		if f != math.Trunc(f) {
			return reflect.Value{}, fmt.Errorf("%v is not integral", v)
		}
		return Coerce(int64(f), t)
	}

	if dv.Type().ConvertibleTo(t) {
		return dv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%s cannot be converted to %s", dv.Type(), t)
}

// Equal reports whether value equals def once def is converted to the
// declared type t. Types with an Equal(T) bool method compare through it.
func Equal(value reflect.Value, def any, t reflect.Type) bool {
	for value.Kind() == reflect.Interface && !value.IsNil() {
		value = value.Elem()
		t = value.Type()
	}
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return def == nil
		}
		if def == nil {
			return false
		}
		value = value.Elem()
		t = t.Elem()
	}

	cv, err := Coerce(def, t)
	if err != nil {
		return false
	}

	if m := value.MethodByName("Equal"); m.IsValid() {
		mt := m.Type()
		if mt.NumIn() == 1 && mt.In(0) == t && mt.NumOut() == 1 && mt.Out(0).Kind() == reflect.Bool {
			return m.Call([]reflect.Value{cv})[0].Bool()
		}
	}
	return reflect.DeepEqual(value.Interface(), cv.Interface())
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
