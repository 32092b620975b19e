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
	"sort"

	"github.com/beevik/etree"

	"github.com/vine-io/markup/api"
	"github.com/vine-io/markup/codec"
	"github.com/vine-io/markup/extension"
	"github.com/vine-io/markup/property"
	"github.com/vine-io/markup/schema"
)

func (ss *session) serialize(obj any) (*etree.Document, error) {
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() {
		return nil, api.Value("nothing to serialize")
	}
	if t := elemType(rv.Type()); t.Kind() != reflect.Slice {
		if qn, _, err := ss.resolver.QualifiedName(t); err == nil && qn.Space != schema.DefinitionsNamespace {
			ss.resolver.Prefixes().BindDefault(qn.Space)
		}
	}

	root, err := ss.writeObject(rv)
	if err != nil {
		return nil, err
	}
	declare(root, ss.resolver.Prefixes().Bindings())

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.SetRoot(root)
	if ss.opts.Indent > 0 {
		settings := etree.NewIndentSettings()
		settings.Spaces = ss.opts.Indent
		settings.PreserveLeafWhitespace = true
		doc.IndentWithSettings(settings)
	}
	return doc, nil
}

// declare puts the namespace declarations first on the root element.
func declare(root *etree.Element, bindings []schema.Binding) {
	attrs := root.Attr
	root.Attr = nil
	for _, b := range bindings {
		if b.Prefix == "" {
			root.CreateAttr("xmlns", b.Namespace)
		} else {
			root.CreateAttr("xmlns:"+b.Prefix, b.Namespace)
		}
	}
	for _, a := range attrs {
		root.CreateAttr(a.FullKey(), a.Value)
	}
}

// writeObject writes rv as one element. Failures other than overflow come
// back as errors for the caller to record.
func (ss *session) writeObject(rv reflect.Value) (*etree.Element, error) {
	for rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	if isNil(rv) {
		return ss.writeNull(), nil
	}
	if t, ok := rv.Interface().(reflect.Type); ok {
		ref, err := ss.typeRef(t)
		if err != nil {
			return nil, err
		}
		return ss.writeObject(reflect.ValueOf(schema.NewTypeExtension(ref)))
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return ss.writeObject(reflect.ValueOf(schema.NewArrayExtension(rv.Interface())))
		}
	case reflect.Map:
		return nil, api.Value("dictionary %s must be the value of a property", rv.Type())
	}

	obj := rv
	if rv.Kind() == reflect.Ptr {
		id := rv.Interface()
		if ss.isOpen(id) {
			if ss.pair == nil || !property.Same(ss.pair, id) {
				return nil, api.Overflow("%s is already being serialized at %s", rv.Type(), ss.ctx.Path())
			}
			ss.pair = nil
		}
		ss.open = append(ss.open, id)
		defer func() { ss.open = ss.open[:len(ss.open)-1] }()
	} else {
		obj = reflect.New(rv.Type())
		obj.Elem().Set(rv)
	}

	qn, preferred, err := ss.resolver.QualifiedName(obj.Type())
	if err != nil {
		return nil, err
	}
	el := etree.NewElement(qn.Local)
	el.Space = ss.prefix(qn.Space, preferred)

	if err = ss.writeBody(el, obj); err != nil {
		return nil, err
	}
	return el, nil
}

// writeBody writes the members of obj, a pointer, onto el.
func (ss *session) writeBody(el *etree.Element, obj reflect.Value) error {
	t := obj.Type().Elem()
	instance := obj.Interface()
	if h, ok := instance.(property.BeforeSerializer); ok {
		if err := h.BeforeSerialize(); err != nil {
			ss.report(api.Value("%s: before serialize: %v", t.Name(), err).WithCause(err))
		}
	}

	mark := ss.ctx.Push(property.Frame{Object: instance})
	defer ss.ctx.Pop(mark)

	members := ss.in.Members(ss.ctx, obj)
	for _, d := range members.Extended {
		if err := ss.writeExtended(el, instance, d); err != nil {
			return err
		}
	}

	if codec.CanInlineType(t) {
		text, err := codec.ToTextValue(obj.Elem())
		if err != nil {
			return api.Value("%s: %v", t.Name(), err).WithCause(err)
		}
		el.SetText(text)
		return nil
	}

	content := members.Content
	for _, d := range members.Properties {
		if d == content {
			continue
		}
		if err := ss.writeProperty(el, obj, d); err != nil {
			return err
		}
	}
	for _, d := range members.Events {
		ss.writeEvent(el, obj, d)
	}

	return ss.writeContent(el, obj, content)
}

func (ss *session) writeNull() *etree.Element {
	el := etree.NewElement("Null")
	el.Space = ss.prefix(schema.DefinitionsNamespace, schema.DefinitionsPrefix)
	return el
}

func (ss *session) writeExtended(el *etree.Element, instance any, d *property.Descriptor) error {
	if d.Extended.Get == nil {
		return nil
	}
	val, ok := d.Extended.Get(ss.ctx, instance)
	if !ok {
		return nil
	}
	rv := reflect.ValueOf(val)
	prefix := ss.prefix(d.Extended.Namespace, "")

	text, ok, err := ss.inlineText(nil, false, rv)
	if err != nil {
		ss.report(api.FromErr(err))
		return nil
	}
	if ok {
		el.CreateAttr(qualify(prefix, d.Name), text)
		return nil
	}

	mark := ss.ctx.Push(property.Frame{Property: d})
	defer ss.ctx.Pop(mark)
	item, err := ss.writeObject(rv)
	if err != nil {
		return ss.failed(err)
	}
	child := etree.NewElement(d.Name)
	child.Space = prefix
	child.AddChild(item)
	el.AddChild(child)
	return nil
}

func (ss *session) writeProperty(el *etree.Element, obj reflect.Value, d *property.Descriptor) error {
	val, err := d.Get(obj)
	if err != nil {
		ss.report(api.Value("%s: %v", d.Name, err).WithCause(err))
		return nil
	}
	if !ss.shouldSerialize(obj, d, val) {
		return nil
	}

	if !d.IsCollection() {
		text, ok, err := ss.inlineText(d.Type, d.Null, val)
		if err != nil {
			ss.report(api.FromErr(err))
			return nil
		}
		if ok {
			name, err := ss.attrName(obj.Type(), d)
			if err != nil {
				ss.report(api.FromErr(err))
				return nil
			}
			el.CreateAttr(name, text)
			return nil
		}
	}

	prefix, owner, err := ss.owner(obj.Type(), d)
	if err != nil {
		ss.report(api.FromErr(err))
		return nil
	}
	child := etree.NewElement(owner + "." + d.Name)
	child.Space = prefix

	mark := ss.ctx.Push(property.Frame{Property: d})
	defer ss.ctx.Pop(mark)

	switch {
	case d.IsCollection():
		if err := ss.writeItems(child, val); err != nil {
			return err
		}
	case !d.CanWrite:
		// filled in place on read, so the members go on the property element
		val = indirectValue(val)
		if val.Kind() != reflect.Ptr {
			ss.report(api.Value("read-only property %s must hold a pointer", d.Name))
			return nil
		}
		if ss.isOpen(val.Interface()) {
			return api.Overflow("%s is already being serialized at %s", val.Type(), ss.ctx.Path())
		}
		ss.open = append(ss.open, val.Interface())
		err := ss.writeBody(child, val)
		ss.open = ss.open[:len(ss.open)-1]
		if err != nil {
			return ss.failed(err)
		}
	default:
		item, err := ss.writeObject(val)
		if err != nil {
			return ss.failed(err)
		}
		child.AddChild(item)
	}
	el.AddChild(child)
	return nil
}

func (ss *session) writeEvent(el *etree.Element, obj reflect.Value, d *property.Descriptor) {
	if m := shouldSerializeMethod(obj, d.Name); m.IsValid() && !m.Call(nil)[0].Bool() {
		return
	}

	name := ""
	switch d.Kind {
	case property.KindDependency:
		if v, err := d.Get(obj); err == nil && v.Kind() == reflect.String {
			name = v.String()
		}
	case property.KindEvent:
		if h, ok := obj.Interface().(property.Holder); ok {
			name, _ = h.Store().HandlerName(d.Name)
		}
		if name == "" {
			if fn, err := d.Get(obj); err == nil {
				name = ss.handlerName(fn)
			}
		}
	}
	if name == "" {
		return
	}

	attr, err := ss.attrName(obj.Type(), d)
	if err != nil {
		ss.report(api.FromErr(err))
		return
	}
	el.CreateAttr(attr, name)
}

func (ss *session) writeContent(el *etree.Element, obj reflect.Value, content *property.Descriptor) error {
	if content == nil {
		c, ok := obj.Interface().(property.Container)
		if !ok {
			return nil
		}
		for _, child := range c.Children() {
			item, err := ss.writeObject(reflect.ValueOf(child))
			if err != nil {
				if err = ss.failed(err); err != nil {
					return err
				}
				continue
			}
			el.AddChild(item)
		}
		return nil
	}

	val, err := content.Get(obj)
	if err != nil {
		ss.report(api.Value("%s: %v", content.Name, err).WithCause(err))
		return nil
	}
	if !ss.shouldSerialize(obj, content, val) {
		return nil
	}

	mark := ss.ctx.Push(property.Frame{Property: content})
	defer ss.ctx.Pop(mark)

	if content.IsCollection() {
		return ss.writeItems(el, val)
	}
	if content.Type.Kind() != reflect.Interface && !isNil(val) {
		text, ok, err := ss.inlineText(content.Type, false, val)
		if err != nil {
			ss.report(api.FromErr(err))
			return nil
		}
		if ok {
			el.SetText(text)
			return nil
		}
	}
	item, err := ss.writeObject(val)
	if err != nil {
		return ss.failed(err)
	}
	el.AddChild(item)
	return nil
}

// writeItems writes the items of a list, or the entries of a dictionary
// sorted by key text.
func (ss *session) writeItems(el *etree.Element, val reflect.Value) error {
	for val.Kind() == reflect.Interface && !val.IsNil() {
		val = val.Elem()
	}

	if val.Kind() != reflect.Map {
		for i := 0; i < val.Len(); i++ {
			item, err := ss.writeObject(val.Index(i))
			if err != nil {
				if err = ss.failed(err); err != nil {
					return err
				}
				continue
			}
			el.AddChild(item)
		}
		return nil
	}

	keys := val.MapKeys()
	texts := make(map[int]string, len(keys))
	for i, k := range keys {
		texts[i] = keyText(k)
	}
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return texts[order[a]] < texts[order[b]] })

	for _, i := range order {
		k, v := keys[i], val.MapIndex(keys[i])
		entry := &property.Entry{Key: k.Interface(), HasKey: true, Value: v.Interface()}
		if property.Same(entry.Key, entry.Value) {
			ss.pair = entry.Value
		}

		mark := ss.ctx.Push(property.Frame{Entry: entry})
		item, err := ss.writeObject(v)
		ss.ctx.Pop(mark)
		ss.pair = nil

		if err != nil {
			if err = ss.failed(err); err != nil {
				return err
			}
			continue
		}
		el.AddChild(item)
	}
	return nil
}

// inlineText returns the attribute text of val when it can be written
// inline into a slot of the declared type.
func (ss *session) inlineText(declared reflect.Type, null bool, val reflect.Value) (string, bool, error) {
	for val.Kind() == reflect.Interface && !val.IsNil() {
		val = val.Elem()
	}
	if isNil(val) {
		if !null {
			return "", false, nil
		}
		inv := &extension.Invocation{Prefix: ss.prefix(schema.DefinitionsNamespace, schema.DefinitionsPrefix), Name: "Null"}
		return extension.Format(inv), true, nil
	}

	if t, ok := val.Interface().(reflect.Type); ok {
		ref, err := ss.typeRef(t)
		if err != nil {
			return "", false, err
		}
		inv := &extension.Invocation{
			Prefix:     ss.prefix(schema.DefinitionsNamespace, schema.DefinitionsPrefix),
			Name:       "Type",
			Positional: []string{ref},
		}
		return extension.Format(inv), true, nil
	}
	if text, ok := ss.compactText(val); ok {
		return text, true, nil
	}

	if !codec.CanInlineType(val.Type()) {
		return "", false, nil
	}
	if declared != nil && declared.Kind() == reflect.Interface && val.Kind() != reflect.String {
		return "", false, nil
	}
	text, err := codec.ToTextValue(val)
	if err != nil {
		return "", false, api.Value("%v", err).WithCause(err)
	}
	return text, true, nil
}

func (ss *session) shouldSerialize(obj reflect.Value, d *property.Descriptor, val reflect.Value) bool {
	if m := shouldSerializeMethod(obj, d.Name); m.IsValid() {
		return m.Call(nil)[0].Bool()
	}
	if !val.IsValid() || !d.IsSet(obj) {
		return false
	}
	if isNil(val) {
		return d.Null && !d.IsCollection()
	}
	if d.IsCollection() {
		v := val
		for v.Kind() == reflect.Interface {
			v = v.Elem()
		}
		return v.Len() > 0
	}
	if d.OmitEmpty && val.IsZero() {
		return false
	}
	if d.HasDefault && codec.Equal(val, d.Default, d.Type) {
		return false
	}
	return true
}

func shouldSerializeMethod(obj reflect.Value, name string) reflect.Value {
	m := obj.MethodByName("ShouldSerialize" + name)
	if !m.IsValid() {
		return reflect.Value{}
	}
	mt := m.Type()
	if mt.NumIn() != 0 || mt.NumOut() != 1 || mt.Out(0).Kind() != reflect.Bool {
		return reflect.Value{}
	}
	return m
}

// owner returns the prefix and local name qualifying a property element:
// the declaring type of attached properties, t for the others.
func (ss *session) owner(t reflect.Type, d *property.Descriptor) (string, string, error) {
	if d.Attached {
		t = d.Dependency.Owner
	}
	qn, preferred, err := ss.resolver.QualifiedName(t)
	if err != nil {
		return "", "", err
	}
	return ss.prefix(qn.Space, preferred), qn.Local, nil
}

func (ss *session) attrName(t reflect.Type, d *property.Descriptor) (string, error) {
	if !d.Attached {
		return d.Name, nil
	}
	prefix, owner, err := ss.owner(t, d)
	if err != nil {
		return "", err
	}
	return qualify(prefix, owner+"."+d.Name), nil
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func keyText(k reflect.Value) string {
	if codec.CanInlineType(k.Type()) {
		if text, err := codec.ToTextValue(k); err == nil {
			return text
		}
	}
	return fmt.Sprint(k.Interface())
}

func indirectValue(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
