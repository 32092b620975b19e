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

package property

import (
	"fmt"
	"reflect"

	"github.com/vine-io/markup/schema"
)

// RuntimeName returns the provider writing the field named by
// RuntimeNameProperty as x:Name. The field itself is no longer listed.
func RuntimeName() Provider {
	return ProviderFunc(func(ctx *Context, obj any) []*Extended {
		rn, ok := obj.(RuntimeNamer)
		if !ok {
			return nil
		}
		field := rn.RuntimeNameProperty()
		if field == "" {
			return nil
		}

		return []*Extended{{
			Name:      "Name",
			Namespace: schema.DefinitionsNamespace,
			Replaces:  field,
			Get: func(_ *Context, obj any) (any, bool) {
				fv := indirect(reflect.ValueOf(obj)).FieldByName(field)
				if !fv.IsValid() || fv.Kind() != reflect.String || fv.String() == "" {
					return nil, false
				}
				return fv.String(), true
			},
			Set: func(_ *Context, obj any, v any) error {
				fv := indirect(reflect.ValueOf(obj)).FieldByName(field)
				if !fv.IsValid() || fv.Kind() != reflect.String || !fv.CanSet() {
					return fmt.Errorf("runtime name field %s is not a settable string", field)
				}
				s, ok := v.(string)
				if !ok {
					return fmt.Errorf("x:Name takes text, got %T", v)
				}
				fv.SetString(s)
				return nil
			},
		}}
	})
}

// DictionaryKey returns the provider exposing the key of the dictionary
// entry being walked as x:Key.
func DictionaryKey() Provider {
	return ProviderFunc(func(ctx *Context, obj any) []*Extended {
		e := ctx.EntryOf(obj)
		if e == nil {
			return nil
		}

		return []*Extended{{
			Name:      "Key",
			Namespace: schema.DefinitionsNamespace,
			Get: func(*Context, any) (any, bool) {
				return e.Key, e.HasKey
			},
			Set: func(_ *Context, _ any, v any) error {
				e.Key, e.HasKey = v, true
				return nil
			},
		}}
	})
}

// DefaultProviders are installed by every serializer.
func DefaultProviders() []Provider {
	return []Provider{RuntimeName(), DictionaryKey()}
}
