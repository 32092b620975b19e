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
	"errors"
	"io"
	"reflect"
	"strings"

	log "github.com/vine-io/vine/lib/logger"

	"github.com/vine-io/markup/api"
	"github.com/vine-io/markup/codec"
	"github.com/vine-io/markup/extension"
	"github.com/vine-io/markup/property"
	"github.com/vine-io/markup/schema"
	"github.com/vine-io/markup/xmlstream"
)

// deserialize reads the document and returns its root value. Everything
// that goes wrong is recorded; the result may be partially populated.
func (ss *session) deserialize() any {
	var (
		root any
		seen bool
	)

loop:
	for {
		tok, err := ss.next()
		if err != nil {
			break
		}
		switch tok.Kind {
		case xmlstream.Text:
			if strings.TrimSpace(tok.Text) != "" {
				ss.report(api.Grammar("text outside the root element").WithPosition(tok.Line, tok.Column))
			}
		case xmlstream.StartElement:
			if seen {
				ss.report(api.Grammar("more than one root element").WithPosition(tok.Line, tok.Column))
				if !ss.skip() {
					break loop
				}
				continue
			}
			seen = true
			if v, ok := ss.readElement(tok); ok && v.IsValid() {
				root = v.Interface()
			}
		}
	}

	if !seen && ss.errs.Len() == 0 {
		ss.report(api.Grammar("document has no root element"))
	}
	return root
}

// next returns the next token. A broken document is recorded once and
// stops every level of the walk; io.EOF is not recorded.
func (ss *session) next() (*xmlstream.Token, error) {
	tok, err := ss.r.Next()
	if err != nil && !ss.broken {
		ss.broken = true
		if !errors.Is(err, io.EOF) {
			ss.report(api.FromErr(err))
		}
	}
	return tok, err
}

func (ss *session) skip() bool {
	if err := ss.r.Skip(); err != nil {
		if !ss.broken {
			ss.broken = true
			ss.report(api.FromErr(err))
		}
		return false
	}
	return true
}

// readElement reads the element started by tok through its end. The bool
// is false when no value could be produced; an invalid value with true is
// a nil value.
func (ss *session) readElement(tok *xmlstream.Token) (reflect.Value, bool) {
	t, err := ss.resolver.Resolve(schema.QName{Space: tok.Name.Space, Local: tok.Name.Local})
	if err != nil {
		ss.report(api.FromErr(err).WithPosition(tok.Line, tok.Column))
		ss.skip()
		return reflect.Value{}, false
	}
	if codec.CanInlineType(t) {
		return ss.readText(tok, t)
	}

	pv, err := ss.instantiate(t)
	if err != nil {
		ss.report(api.FromErr(err).WithPosition(tok.Line, tok.Column))
		ss.skip()
		return reflect.Value{}, false
	}
	if !ss.readBody(pv, tok) {
		return reflect.Value{}, false
	}

	instance := pv.Interface()
	if h, ok := instance.(property.AfterDeserializer); ok {
		if err := h.AfterDeserialize(); err != nil {
			ss.report(api.Value("%s: after deserialize: %v", t.Name(), err).WithCause(err).WithPosition(tok.Line, tok.Column))
		}
	}
	if ext, ok := instance.(schema.MarkupExtension); ok {
		out, err := ext.ProvideValue(ss)
		if err != nil {
			ss.report(api.FromErr(err).WithPosition(tok.Line, tok.Column))
			return reflect.Value{}, false
		}
		return reflect.ValueOf(out), true
	}
	return pv, true
}

// readText reads an element of an inline type, <x:Int32>5</x:Int32>.
func (ss *session) readText(tok *xmlstream.Token, t reflect.Type) (reflect.Value, bool) {
	members := ss.in.Members(ss.ctx, reflect.Value{})
	for _, a := range tok.Attrs {
		if d, ok := members.LookupExtended(a.Name.Space, a.Name.Local); ok {
			ss.setExtended(d, nil, a.Value, tok)
			continue
		}
		ss.report(api.Grammar("attribute '%s' is not allowed on <%s>", a.Name, tok.Name).WithPosition(tok.Line, tok.Column))
	}

	var b strings.Builder
	for {
		child, err := ss.next()
		if err != nil {
			return reflect.Value{}, false
		}
		switch child.Kind {
		case xmlstream.Text:
			b.WriteString(child.Text)
		case xmlstream.StartElement:
			ss.report(api.Grammar("unexpected element <%s> in <%s>", child.Name, tok.Name).WithPosition(child.Line, child.Column))
			if !ss.skip() {
				return reflect.Value{}, false
			}
		case xmlstream.EndElement:
			v, err := codec.FromText(b.String(), t)
			if err != nil {
				ss.report(api.Value("cannot read '%s' as %s: %v", b.String(), tok.Name.Local, err).WithCause(err).WithPosition(tok.Line, tok.Column))
				return reflect.Value{}, false
			}
			return v, true
		}
	}
}

// readBody applies the attributes and children of tok to pv. It returns
// false only when the document is broken.
func (ss *session) readBody(pv reflect.Value, tok *xmlstream.Token) bool {
	instance := pv.Interface()
	mark := ss.ctx.Push(property.Frame{Object: instance})
	defer ss.ctx.Pop(mark)

	t := pv.Type().Elem()
	members := ss.in.Members(ss.ctx, pv)
	for _, a := range tok.Attrs {
		ss.readAttr(pv, t, members, tok, a)
	}

	content := members.Content

	var (
		pending  *xmlstream.Token
		hadChild bool
		assigned bool
	)
	flush := func(trim bool) {
		if pending == nil {
			return
		}
		text := pending.Text
		if trim {
			text = strings.TrimSpace(text)
		}
		ss.addText(pv, t, content, &assigned, text, pending)
		pending = nil
	}

	for {
		child, err := ss.next()
		if err != nil {
			return false
		}
		switch child.Kind {
		case xmlstream.EndElement:
			flush(hadChild)
			return true
		case xmlstream.Text:
			if strings.TrimSpace(child.Text) != "" || !hadChild && keepsBlank(content) {
				pending = child
			}
		case xmlstream.StartElement:
			flush(true)
			hadChild = true
			if !ss.readChild(pv, t, members, content, &assigned, child) {
				return false
			}
		}
	}
}

// keepsBlank reports whether whitespace-only text is a value of d.
func keepsBlank(d *property.Descriptor) bool {
	if d == nil || d.IsCollection() {
		return false
	}
	t := d.Type
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.String
}

func (ss *session) readAttr(pv reflect.Value, t reflect.Type, members *property.Members, tok *xmlstream.Token, a xmlstream.Attr) {
	switch a.Name.Space {
	case xmlstream.XMLNamespace:
		return
	case schema.DefinitionsNamespace:
		if d, ok := members.LookupExtended(a.Name.Space, a.Name.Local); ok {
			ss.setExtended(d, pv.Interface(), a.Value, tok)
		} else {
			log.Debugf("markup: skip directive attribute %s at %d:%d", a.Name, tok.Line, tok.Column)
		}
		return
	}

	d, err := ss.member(t, members, a.Name, true)
	if err != nil {
		ss.report(err.WithPosition(tok.Line, tok.Column))
		return
	}
	ss.setSimple(pv, d, a.Value, tok)
}

func (ss *session) readChild(pv reflect.Value, t reflect.Type, members *property.Members, content *property.Descriptor, assigned *bool, child *xmlstream.Token) bool {
	if child.Name.Space == schema.DefinitionsNamespace {
		if d, ok := members.LookupExtended(child.Name.Space, child.Name.Local); ok {
			mark := ss.ctx.Push(property.Frame{Property: d})
			v, ok, alive := ss.readSingle(child, d.Type)
			ss.ctx.Pop(mark)
			if ok && d.Extended.Set != nil {
				if err := d.Extended.Set(ss.ctx, pv.Interface(), valueOf(v)); err != nil {
					ss.report(api.FromErr(err).WithPosition(child.Line, child.Column))
				}
			}
			return alive
		}
		if _, ok := schema.WellKnown(child.Name.Local); !ok {
			log.Debugf("markup: skip directive <%s> at %d:%d", child.Name, child.Line, child.Column)
			return ss.skip()
		}
	}

	if strings.IndexByte(child.Name.Local, '.') >= 0 {
		return ss.readCompound(pv, t, members, child)
	}

	if content != nil && content.Type.Kind() == reflect.Map {
		return ss.readEntry(pv, content, child)
	}
	v, ok := ss.readElement(child)
	if ss.broken {
		return false
	}
	if ok {
		ss.addContent(pv, t, content, assigned, v, child)
	}
	return true
}

// readCompound reads an Owner.Prop element.
func (ss *session) readCompound(pv reflect.Value, t reflect.Type, members *property.Members, child *xmlstream.Token) bool {
	d, err := ss.member(t, members, child.Name, false)
	if err != nil {
		ss.report(err.WithPosition(child.Line, child.Column))
		return ss.skip()
	}

	mark := ss.ctx.Push(property.Frame{Property: d})
	defer ss.ctx.Pop(mark)

	switch {
	case d.IsCollection():
		for _, a := range child.Attrs {
			ss.report(api.Grammar("unexpected attribute '%s' on <%s>", a.Name, child.Name).WithPosition(child.Line, child.Column))
		}
		return ss.readItems(pv, d, child)
	case !d.CanWrite:
		cur, err := d.Get(pv)
		if err != nil || isNil(cur) || cur.Kind() != reflect.Ptr {
			ss.report(api.Value("read-only property %s holds no instance to fill", d.Name).WithPosition(child.Line, child.Column))
			return ss.skip()
		}
		return ss.readBody(cur, child)
	}

	for _, a := range child.Attrs {
		ss.report(api.Grammar("unexpected attribute '%s' on <%s>", a.Name, child.Name).WithPosition(child.Line, child.Column))
	}
	if d.IsEvent() {
		ss.report(api.Grammar("event %s cannot be set by an element", d.Name).WithPosition(child.Line, child.Column))
		return ss.skip()
	}
	v, ok, alive := ss.readSingle(child, d.Type)
	if ok {
		if err := d.Set(pv, v); err != nil {
			ss.report(api.Value("%s.%s: %v", t.Name(), d.Name, err).WithCause(err).WithPosition(child.Line, child.Column))
		}
	}
	return alive
}

// readItems appends each child element of parent to the list or
// dictionary d.
func (ss *session) readItems(pv reflect.Value, d *property.Descriptor, parent *xmlstream.Token) bool {
	for {
		child, err := ss.next()
		if err != nil {
			return false
		}
		switch child.Kind {
		case xmlstream.EndElement:
			return true
		case xmlstream.Text:
			if strings.TrimSpace(child.Text) != "" {
				ss.report(api.Grammar("unexpected text in <%s>", parent.Name).WithPosition(child.Line, child.Column))
			}
		case xmlstream.StartElement:
			if child.Name.Space == schema.DefinitionsNamespace {
				if _, ok := schema.WellKnown(child.Name.Local); !ok {
					log.Debugf("markup: skip directive <%s> at %d:%d", child.Name, child.Line, child.Column)
					if !ss.skip() {
						return false
					}
					continue
				}
			}
			if d.Type.Kind() == reflect.Map {
				if !ss.readEntry(pv, d, child) {
					return false
				}
				continue
			}
			v, ok := ss.readElement(child)
			if ss.broken {
				return false
			}
			if ok {
				if err := d.Append(pv, v); err != nil {
					ss.report(api.Value("%s: %v", d.Name, err).WithCause(err).WithPosition(child.Line, child.Column))
				}
			}
		}
	}
}

// readEntry reads one dictionary entry; its key comes from x:Key.
func (ss *session) readEntry(pv reflect.Value, d *property.Descriptor, child *xmlstream.Token) bool {
	entry := &property.Entry{}
	mark := ss.ctx.Push(property.Frame{Entry: entry})
	v, ok := ss.readElement(child)
	ss.ctx.Pop(mark)
	if ss.broken {
		return false
	}
	if !ok {
		return true
	}
	if !entry.HasKey {
		ss.report(api.Grammar("dictionary entry <%s> has no x:Key", child.Name).WithPosition(child.Line, child.Column))
		return true
	}
	if err := d.Put(pv, reflect.ValueOf(entry.Key), v); err != nil {
		ss.report(api.Value("%s: %v", d.Name, err).WithCause(err).WithPosition(child.Line, child.Column))
	}
	return true
}

// readSingle reads the one value held by parent: text or a single element.
// The last result is false when the document is broken.
func (ss *session) readSingle(parent *xmlstream.Token, t reflect.Type) (reflect.Value, bool, bool) {
	var (
		text    *xmlstream.Token
		value   reflect.Value
		got, ok bool
	)
	for {
		child, err := ss.next()
		if err != nil {
			return reflect.Value{}, false, false
		}
		switch child.Kind {
		case xmlstream.EndElement:
			if !got && text != nil {
				v, ok := ss.textValue(text.Text, t, text)
				return v, ok, true
			}
			return value, ok, true
		case xmlstream.Text:
			if strings.TrimSpace(child.Text) == "" {
				continue
			}
			if got || text != nil {
				ss.report(api.Grammar("<%s> takes a single value", parent.Name).WithPosition(child.Line, child.Column))
				continue
			}
			text = child
		case xmlstream.StartElement:
			if got || text != nil {
				ss.report(api.Grammar("<%s> takes a single value", parent.Name).WithPosition(child.Line, child.Column))
				if !ss.skip() {
					return reflect.Value{}, false, false
				}
				continue
			}
			got = true
			value, ok = ss.readElement(child)
			if ss.broken {
				return reflect.Value{}, false, false
			}
		}
	}
}

// member finds the property named by an attribute or property element:
// Prop, Owner.Prop for the element's own type, or an attached Owner.Prop.
func (ss *session) member(t reflect.Type, members *property.Members, name xmlstream.Name, attr bool) (*property.Descriptor, *api.Error) {
	n := strings.LastIndexByte(name.Local, '.')
	if n < 0 {
		if attr && name.Space != "" {
			return nil, api.Resolution("attribute '%s' is not a property of %s", name, t.Name())
		}
		if d, ok := members.Lookup(name.Local); ok {
			return d, nil
		}
		return nil, api.Resolution("type %s has no property '%s'", t.Name(), name.Local)
	}

	ownerName, prop := name.Local[:n], name.Local[n+1:]
	ns := name.Space
	if attr && name.Prefix == "" {
		ns, _ = ss.r.LookupPrefix("")
	}
	owner, err := ss.resolver.Resolve(schema.QName{Space: ns, Local: ownerName})
	if err != nil {
		return nil, api.FromErr(err)
	}

	if owner == t || embeds(t, owner) {
		if d, ok := members.Lookup(prop); ok {
			return d, nil
		}
	}
	if d, ok := ss.in.Attached(owner, prop); ok {
		return d, nil
	}
	return nil, api.Resolution("'%s.%s' is not a property of %s", ownerName, prop, t.Name())
}

func (ss *session) setSimple(pv reflect.Value, d *property.Descriptor, text string, tok *xmlstream.Token) {
	if d.IsEvent() {
		ss.bindEvent(pv, d, text, tok)
		return
	}
	v, ok := ss.textValue(text, d.Type, tok)
	if !ok {
		return
	}
	if err := d.Set(pv, v); err != nil {
		ss.report(api.Value("%s.%s: %v", pv.Type().Elem().Name(), d.Name, err).WithCause(err).WithPosition(tok.Line, tok.Column))
	}
}

func (ss *session) setExtended(d *property.Descriptor, instance any, text string, tok *xmlstream.Token) {
	if d.Extended.Set == nil {
		ss.report(api.Value("x:%s is read-only", d.Name).WithPosition(tok.Line, tok.Column))
		return
	}
	v, ok := ss.textValue(text, d.Type, tok)
	if !ok {
		return
	}
	if err := d.Extended.Set(ss.ctx, instance, valueOf(v)); err != nil {
		ss.report(api.FromErr(err).WithPosition(tok.Line, tok.Column))
	}
}

// textValue converts attribute or element text to t. Compact extensions
// are materialized; other text is unescaped by the codec.
func (ss *session) textValue(text string, t reflect.Type, tok *xmlstream.Token) (reflect.Value, bool) {
	if extension.IsExtension(text) {
		return ss.compact(text, tok.Line, tok.Column)
	}
	v, err := codec.FromText(text, t)
	if err != nil {
		ss.report(api.Value("cannot read '%s' as %s: %v", text, t, err).WithCause(err).WithPosition(tok.Line, tok.Column))
		return reflect.Value{}, false
	}
	return v, true
}

func (ss *session) bindEvent(pv reflect.Value, d *property.Descriptor, name string, tok *xmlstream.Token) {
	if d.Kind == property.KindDependency {
		if err := d.Set(pv, reflect.ValueOf(name)); err != nil {
			ss.report(api.Value("%s: %v", d.Name, err).WithCause(err).WithPosition(tok.Line, tok.Column))
		}
		return
	}

	holder, isHolder := pv.Interface().(property.Holder)
	if isHolder {
		holder.Store().SetHandlerName(d.Name, name)
	}
	if ss.opts.Handlers != nil {
		if fn, ok := ss.opts.Handlers.Bind(name, d.Type); ok {
			if err := d.Set(pv, fn); err != nil {
				ss.report(api.Value("%s: %v", d.Name, err).WithCause(err).WithPosition(tok.Line, tok.Column))
			}
			return
		}
		if !isHolder {
			ss.report(api.Resolution("handler '%s' of event %s is not bound", name, d.Name).WithPosition(tok.Line, tok.Column))
		}
		return
	}
	if !isHolder {
		ss.report(api.Value("event %s needs a handler binder", d.Name).WithPosition(tok.Line, tok.Column))
	}
}

func (ss *session) addContent(pv reflect.Value, t reflect.Type, content *property.Descriptor, assigned *bool, v reflect.Value, tok *xmlstream.Token) {
	var err error
	switch {
	case content != nil && content.IsCollection():
		err = content.Append(pv, v)
	case content != nil:
		if *assigned {
			ss.report(api.Grammar("content property %s of %s takes a single value", content.Name, t.Name()).WithPosition(tok.Line, tok.Column))
			return
		}
		*assigned = true
		err = content.Set(pv, v)
	default:
		c, ok := pv.Interface().(property.Container)
		if !ok {
			ss.report(api.Grammar("type %s does not accept content", t.Name()).WithPosition(tok.Line, tok.Column))
			return
		}
		err = c.AddChild(valueOf(v))
	}
	if err != nil {
		ss.report(api.FromErr(err).WithPosition(tok.Line, tok.Column))
	}
}

func (ss *session) addText(pv reflect.Value, t reflect.Type, content *property.Descriptor, assigned *bool, text string, tok *xmlstream.Token) {
	if text == "" {
		return
	}
	switch {
	case content != nil && content.IsCollection():
		if content.Type.Kind() == reflect.Map {
			ss.report(api.Grammar("unexpected text in %s", t.Name()).WithPosition(tok.Line, tok.Column))
			return
		}
		if v, ok := ss.textValue(text, content.Type.Elem(), tok); ok {
			ss.addContent(pv, t, content, assigned, v, tok)
		}
	case content != nil:
		if *assigned {
			ss.report(api.Grammar("content property %s of %s takes a single value", content.Name, t.Name()).WithPosition(tok.Line, tok.Column))
			return
		}
		*assigned = true
		ss.setSimple(pv, content, text, tok)
	default:
		v, ok := ss.textValue(text, anyType, tok)
		if ok {
			ss.addContent(pv, t, nil, assigned, v, tok)
		}
	}
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

func valueOf(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

// embeds reports whether t embeds owner, directly or deeper.
func embeds(t, owner reflect.Type) bool {
	t = elemType(t)
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := elemType(f.Type)
		if ft == owner || embeds(ft, owner) {
			return true
		}
	}
	return false
}
