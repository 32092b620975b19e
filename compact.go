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

package markup

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vine-io/markup/api"
	"github.com/vine-io/markup/codec"
	"github.com/vine-io/markup/extension"
	"github.com/vine-io/markup/schema"
)

var arrayExtensionType = reflect.TypeOf(schema.ArrayExtension{})

// compact materializes compact extension text read at line:column. A nil
// result is a valid value.
func (ss *session) compact(text string, line, column int) (reflect.Value, bool) {
	inv, err := extension.Parse(text)
	if err != nil {
		ss.report(api.Grammar("malformed extension '%s': %v", text, err).WithPosition(line, column).WithCause(err))
		return reflect.Value{}, false
	}
	v, err := ss.materialize(inv)
	if err != nil {
		ss.report(api.FromErr(err).WithPosition(line, column))
		return reflect.Value{}, false
	}
	return v, true
}

func (ss *session) materialize(inv *extension.Invocation) (reflect.Value, error) {
	t, err := ss.ResolveTypeName(inv.TypeName())
	if err != nil {
		return reflect.Value{}, err
	}
	pv, err := ss.construct(t, inv.Positional)
	if err != nil {
		return reflect.Value{}, err
	}

	members := ss.in.Members(ss.ctx, pv)
	for _, arg := range inv.Named {
		d, ok := members.Lookup(arg.Name)
		if !ok {
			return reflect.Value{}, api.Resolution("type %s has no property '%s'", t.Name(), arg.Name)
		}
		if d.IsEvent() {
			return reflect.Value{}, api.Grammar("event %s cannot be set in a compact extension", arg.Name)
		}
		v, err := ss.argValue(arg.Value, d.Type)
		if err != nil {
			return reflect.Value{}, err
		}
		if err = d.Set(pv, v); err != nil {
			return reflect.Value{}, api.Value("%s.%s: %v", t.Name(), arg.Name, err).WithCause(err)
		}
	}

	if ext, ok := pv.Interface().(schema.MarkupExtension); ok {
		out, err := ext.ProvideValue(ss)
		if err != nil {
			return reflect.Value{}, api.FromErr(err)
		}
		return reflect.ValueOf(out), nil
	}
	return pv, nil
}

// construct picks the one constructor of t taking len(args) arguments.
func (ss *session) construct(t reflect.Type, args []string) (reflect.Value, error) {
	var ctors []reflect.Value
	for _, ctor := range ss.opts.Registry.Constructors(t) {
		if ctor.Type().NumIn() == len(args) {
			ctors = append(ctors, ctor)
		}
	}
	switch {
	case len(ctors) == 0 && len(args) == 0:
		return ss.instantiate(t)
	case len(ctors) == 0:
		return reflect.Value{}, api.Grammar("no constructor of %s takes %d arguments", t.Name(), len(args))
	case len(ctors) > 1:
		return reflect.Value{}, api.Grammar("%d constructors of %s take %d arguments", len(ctors), t.Name(), len(args))
	}

	ctor := ctors[0]
	in := make([]reflect.Value, 0, len(args))
	for i, arg := range args {
		pt := ctor.Type().In(i)
		v, err := ss.argValue(arg, pt)
		if err != nil {
			return reflect.Value{}, err
		}
		if v, err = assignable(v, pt); err != nil {
			return reflect.Value{}, api.Value("argument %d of %s: %v", i+1, t.Name(), err)
		}
		in = append(in, v)
	}
	return call(ctor, in)
}

// argValue materializes one argument. Escapes are removed here, once, and
// nested extension text is handed to the parser untouched.
func (ss *session) argValue(text string, t reflect.Type) (reflect.Value, error) {
	if extension.IsExtension(text) {
		inv, err := extension.Parse(text)
		if err != nil {
			return reflect.Value{}, api.Grammar("malformed extension '%s': %v", text, err).WithCause(err)
		}
		return ss.materialize(inv)
	}
	v, err := codec.FromText(extension.RemoveEscapes(text), t)
	if err != nil {
		return reflect.Value{}, api.Value("cannot read '%s' as %s: %v", text, t, err).WithCause(err)
	}
	return v, nil
}

func (ss *session) instantiate(t reflect.Type) (reflect.Value, error) {
	if fn := ss.opts.Instantiator; fn != nil {
		v, err := fn(t)
		if err != nil {
			return reflect.Value{}, api.Value("instantiate %s: %v", t.Name(), err).WithCause(err)
		}
		if v.IsValid() {
			if v.Kind() != reflect.Ptr {
				p := reflect.New(v.Type())
				p.Elem().Set(v)
				v = p
			}
			return v, nil
		}
	}
	for _, ctor := range ss.opts.Registry.Constructors(t) {
		if ctor.Type().NumIn() == 0 {
			return call(ctor, nil)
		}
	}
	return reflect.New(t), nil
}

// call runs a constructor and returns a pointer to its result.
func call(ctor reflect.Value, in []reflect.Value) (reflect.Value, error) {
	out := ctor.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		err := out[1].Interface().(error)
		return reflect.Value{}, api.Value("constructor: %v", err).WithCause(err)
	}
	v := out[0]
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, api.Value("constructor returned nil %s", v.Type())
		}
		return v, nil
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p, nil
}

func assignable(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	switch {
	case !v.IsValid():
		return reflect.Zero(t), nil
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Kind() == reflect.Ptr && !v.IsNil() && v.Type().Elem().AssignableTo(t):
		return v.Elem(), nil
	case v.Type().ConvertibleTo(t):
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), t)
}

// compactText renders a markup extension value as compact text when every
// property it carries is inline.
func (ss *session) compactText(val reflect.Value) (string, bool) {
	obj := val
	if obj.Kind() != reflect.Ptr {
		obj = reflect.New(val.Type())
		obj.Elem().Set(val)
	}
	if obj.Type().Elem() == arrayExtensionType || ss.isOpen(obj.Interface()) {
		return "", false
	}
	if _, ok := obj.Interface().(schema.MarkupExtension); !ok {
		return "", false
	}

	qn, preferred, err := ss.resolver.QualifiedName(obj.Type())
	if err != nil {
		return "", false
	}
	inv := &extension.Invocation{Prefix: ss.prefix(qn.Space, preferred), Name: ss.shortName(qn, obj.Type())}

	ss.open = append(ss.open, obj.Interface())
	defer func() { ss.open = ss.open[:len(ss.open)-1] }()

	members := ss.in.Members(ss.ctx, obj)
	if len(members.Extended) > 0 {
		return "", false
	}
	for _, d := range members.Properties {
		v, err := d.Get(obj)
		if err != nil {
			return "", false
		}
		if !ss.shouldSerialize(obj, d, v) {
			continue
		}
		if d.IsCollection() {
			return "", false
		}
		text, ok, err := ss.inlineText(d.Type, d.Null, v)
		if err != nil || !ok {
			return "", false
		}
		inv.Named = append(inv.Named, extension.Arg{Name: d.Name, Value: text})
	}
	for _, d := range members.Events {
		if v, err := d.Get(obj); err == nil && !isNil(v) && !(v.Kind() == reflect.String && v.String() == "") {
			return "", false
		}
	}
	return extension.Format(inv), true
}

// shortName drops the Extension suffix from qn when the short name still
// resolves to t.
func (ss *session) shortName(qn schema.QName, t reflect.Type) string {
	short := strings.TrimSuffix(qn.Local, schema.ExtensionSuffix)
	if short == qn.Local || short == "" {
		return qn.Local
	}
	rt, err := ss.resolver.Resolve(schema.QName{Space: qn.Space, Local: short})
	if err != nil || elemType(rt) != elemType(t) {
		return qn.Local
	}
	return short
}
