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
	"strings"

	"github.com/vine-io/markup/codec"
	"github.com/vine-io/markup/schema"
)

// Kind tags the member behind a Descriptor.
type Kind int

const (
	KindField Kind = iota + 1
	KindEvent
	KindDependency
	KindExtended
)

func (k Kind) String() string {
	switch k {
	case KindField:
		return "Field"
	case KindEvent:
		return "Event"
	case KindDependency:
		return "Dependency"
	case KindExtended:
		return "Extended"
	}
	return "Unknown"
}

// Descriptor is one serializable member of an object.
type Descriptor struct {
	Kind       Kind
	Name       string
	Type       reflect.Type
	CanRead    bool
	CanWrite   bool
	Attached   bool
	Visibility schema.Visibility
	// Content marks the type's content property.
	Content bool

	Default    any
	HasDefault bool
	OmitEmpty  bool
	// Null writes a nil value as {x:Null} instead of leaving it out.
	Null bool

	// Dependency is set for KindDependency and for events backed by a
	// dependency property.
	Dependency *schema.DependencyProperty
	// Extended is set for KindExtended.
	Extended *Extended

	field string
	index []int
}

// IsEvent reports whether the member holds a handler.
func (d *Descriptor) IsEvent() bool {
	return d.Kind == KindEvent || (d.Dependency != nil && d.Dependency.Event)
}

// IsCollection reports whether values are written item by item.
func (d *Descriptor) IsCollection() bool {
	k := d.Type.Kind()
	return k == reflect.Slice && d.Type.Elem().Kind() != reflect.Uint8 || k == reflect.Map
}

func (d *Descriptor) String() string {
	return d.Kind.String() + " " + d.Name
}

// Get reads the member from obj, a pointer to the instance.
func (d *Descriptor) Get(obj reflect.Value) (reflect.Value, error) {
	switch d.Kind {
	case KindField, KindEvent:
		fv, err := indirect(obj).FieldByIndexErr(d.index)
		if err != nil {
			return reflect.Value{}, err
		}
		return fv, nil
	case KindDependency:
		holder, err := holderOf(obj)
		if err != nil {
			return reflect.Value{}, err
		}
		if d.Dependency.Event {
			return reflect.ValueOf(holder.Store().Handler(d.Dependency)), nil
		}
		v := holder.Store().GetValue(d.Dependency)
		if v == nil {
			return reflect.Zero(d.Type), nil
		}
		return reflect.ValueOf(v), nil
	case KindExtended:
		return reflect.Value{}, fmt.Errorf("extended property %s is read through its provider", d.Name)
	}
	panic("property: unknown descriptor kind")
}

// IsSet reports whether a dependency property holds a value of its own.
// Other members are always set.
func (d *Descriptor) IsSet(obj reflect.Value) bool {
	if d.Kind != KindDependency {
		return true
	}
	holder, err := holderOf(obj)
	if err != nil {
		return false
	}
	return holder.Store().IsSet(d.Dependency)
}

// Set assigns v to the member of obj, converting when v is not assignable.
func (d *Descriptor) Set(obj reflect.Value, v reflect.Value) error {
	if !d.CanWrite {
		return fmt.Errorf("property %s is read-only", d.Name)
	}

	switch d.Kind {
	case KindField, KindEvent:
		fv, err := fieldAlloc(indirect(obj), d.index)
		if err != nil {
			return err
		}
		cv, err := convert(v, d.Type)
		if err != nil {
			return fmt.Errorf("property %s: %w", d.Name, err)
		}
		fv.Set(cv)
		return nil
	case KindDependency:
		holder, err := holderOf(obj)
		if err != nil {
			return err
		}
		if d.Dependency.Event {
			if v.Kind() != reflect.String {
				return fmt.Errorf("event %s takes a handler name", d.Name)
			}
			holder.Store().SetHandler(d.Dependency, v.String())
			return nil
		}
		if !v.IsValid() {
			holder.Store().SetValue(d.Dependency, nil)
			return nil
		}
		cv, err := convert(v, d.Type)
		if err != nil {
			return fmt.Errorf("property %s: %w", d.Name, err)
		}
		holder.Store().SetValue(d.Dependency, cv.Interface())
		return nil
	case KindExtended:
		return fmt.Errorf("extended property %s is set through its provider", d.Name)
	}
	panic("property: unknown descriptor kind")
}

// Append adds v to a slice member in place. Read-only members accept it,
// the slice is owned by the instance.
func (d *Descriptor) Append(obj reflect.Value, v reflect.Value) error {
	if d.Type.Kind() != reflect.Slice {
		return fmt.Errorf("property %s is not a list", d.Name)
	}
	item, err := convert(v, d.Type.Elem())
	if err != nil {
		return fmt.Errorf("property %s: %w", d.Name, err)
	}

	switch d.Kind {
	case KindField:
		fv, err := fieldAlloc(indirect(obj), d.index)
		if err != nil {
			return err
		}
		fv.Set(reflect.Append(fv, item))
		return nil
	case KindDependency:
		holder, err := holderOf(obj)
		if err != nil {
			return err
		}
		list := reflect.Zero(d.Type)
		if cur := holder.Store().GetValue(d.Dependency); cur != nil && holder.Store().IsSet(d.Dependency) {
			list = reflect.ValueOf(cur)
		}
		holder.Store().SetValue(d.Dependency, reflect.Append(list, item).Interface())
		return nil
	}
	return fmt.Errorf("property %s cannot hold items", d.Name)
}

// Put stores v under key in a map member, allocating the map when nil.
func (d *Descriptor) Put(obj reflect.Value, key, v reflect.Value) error {
	if d.Type.Kind() != reflect.Map {
		return fmt.Errorf("property %s is not a dictionary", d.Name)
	}
	k, err := convert(key, d.Type.Key())
	if err != nil {
		return fmt.Errorf("property %s key: %w", d.Name, err)
	}
	item, err := convert(v, d.Type.Elem())
	if err != nil {
		return fmt.Errorf("property %s: %w", d.Name, err)
	}

	switch d.Kind {
	case KindField:
		fv, err := fieldAlloc(indirect(obj), d.index)
		if err != nil {
			return err
		}
		if fv.IsNil() {
			fv.Set(reflect.MakeMap(d.Type))
		}
		fv.SetMapIndex(k, item)
		return nil
	case KindDependency:
		holder, err := holderOf(obj)
		if err != nil {
			return err
		}
		m := reflect.MakeMap(d.Type)
		if cur := holder.Store().GetValue(d.Dependency); cur != nil && holder.Store().IsSet(d.Dependency) {
			m = reflect.ValueOf(cur)
		}
		m.SetMapIndex(k, item)
		holder.Store().SetValue(d.Dependency, m.Interface())
		return nil
	}
	return fmt.Errorf("property %s cannot hold entries", d.Name)
}

func convert(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(t), nil
	}
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if v.Kind() == reflect.Interface && !v.IsNil() {
		return convert(v.Elem(), t)
	}
	if v.Kind() == reflect.Ptr && !v.IsNil() && v.Type().Elem().AssignableTo(t) {
		return v.Elem(), nil
	}
	if t.Kind() == reflect.Ptr && reflect.PtrTo(v.Type()).AssignableTo(t) {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p, nil
	}
	return codec.Coerce(v.Interface(), t)
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

func fieldAlloc(v reflect.Value, index []int) (reflect.Value, error) {
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%s is not a struct", v.Type())
	}
	for i, n := range index {
		if i > 0 {
			if v.Kind() == reflect.Ptr {
				if v.IsNil() {
					if !v.CanSet() {
						return reflect.Value{}, fmt.Errorf("nil embedded %s", v.Type())
					}
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
		}
		v = v.Field(n)
	}
	if !v.CanSet() {
		return reflect.Value{}, fmt.Errorf("field of %s is not settable", v.Type())
	}
	return v, nil
}

func holderOf(obj reflect.Value) (Holder, error) {
	if obj.CanInterface() {
		if h, ok := obj.Interface().(Holder); ok {
			return h, nil
		}
	}
	if obj.CanAddr() {
		if h, ok := obj.Addr().Interface().(Holder); ok {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%s has no dependency object store", obj.Type())
}

// tag is the parsed form of a `markup:"..."` struct tag.
type tag struct {
	name       string
	hidden     bool
	content    bool
	readonly   bool
	omitempty  bool
	null       bool
	visibility schema.Visibility
	def        string
	hasDefault bool
}

func parseTag(text string) *tag {
	t := &tag{}
	if text == "-" {
		t.hidden = true
		return t
	}
	parts := strings.Split(text, ";")
	for i, part := range parts {
		part = strings.Trim(part, " ")
		switch {
		case part == "":
		case part == "hidden":
			t.hidden = true
		case part == "content":
			t.content = true
		case part == "readonly":
			t.readonly = true
		case part == "omitempty":
			t.omitempty = true
		case part == "null":
			t.null = true
		case part == "visibility:content":
			t.visibility = schema.Content
		case part == "visibility:hidden":
			t.hidden = true
		case strings.HasPrefix(part, "name:"):
			t.name = strings.TrimPrefix(part, "name:")
		case strings.HasPrefix(part, "default:"):
			// the default keeps any ';' that follows
			t.def = strings.TrimPrefix(strings.TrimLeft(strings.Join(parts[i:], ";"), " "), "default:")
			t.hasDefault = true
			return t
		}
	}
	return t
}
