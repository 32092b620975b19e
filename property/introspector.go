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

// Package property enumerates the serializable members of objects: struct
// fields, func-typed event fields, dependency properties kept in a
// DependencyObject store and extended properties contributed by providers.
//
// Fields are configured with the markup struct tag:
//
//	Name     string   `markup:"name:Title;omitempty"`
//	Items    []Item   `markup:"content"`
//	Children []Item   `markup:"readonly;visibility:content"`
//	Retries  int      `markup:"default:3"`
//	Parent   *Item    `markup:"-"`
package property

import (
	"fmt"
	"reflect"

	"github.com/vine-io/markup/codec"
	"github.com/vine-io/markup/schema"
)

// ContentPropertyer names the property receiving nested content.
type ContentPropertyer interface {
	ContentProperty() string
}

// Container receives nested content when a type has no content property.
type Container interface {
	Children() []any
	AddChild(child any) error
}

// RuntimeNamer names the field written as x:Name.
type RuntimeNamer interface {
	RuntimeNameProperty() string
}

// BeforeSerializer is called before an object is written.
type BeforeSerializer interface {
	BeforeSerialize() error
}

// AfterDeserializer is called once an object and its children are read.
type AfterDeserializer interface {
	AfterDeserialize() error
}

var dependencyObjectType = reflect.TypeOf(DependencyObject{})

// Members is the member list of one instance.
type Members struct {
	Extended   []*Descriptor
	Properties []*Descriptor
	Events     []*Descriptor
	// Content is the member receiving nested content, if any. It is also
	// listed in Properties.
	Content *Descriptor
}

// Lookup finds a property or event by name.
func (m *Members) Lookup(name string) (*Descriptor, bool) {
	for _, d := range m.Properties {
		if d.Name == name {
			return d, true
		}
	}
	for _, d := range m.Events {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// LookupExtended finds an extended property by namespace and name.
func (m *Members) LookupExtended(ns, name string) (*Descriptor, bool) {
	for _, d := range m.Extended {
		if d.Name == name && d.Extended.Namespace == ns {
			return d, true
		}
	}
	return nil, false
}

// Introspector builds member lists. It caches field descriptors per type
// and belongs to one session.
type Introspector struct {
	reg       *schema.Registry
	providers []Provider
	fields    map[reflect.Type][]*Descriptor
}

func NewIntrospector(reg *schema.Registry, providers ...Provider) *Introspector {
	if reg == nil {
		panic("property: introspector requires a registry")
	}
	return &Introspector{reg: reg, providers: providers, fields: map[reflect.Type][]*Descriptor{}}
}

// Fields returns the descriptors of t's exported fields, events included.
func (in *Introspector) Fields(t reflect.Type) []*Descriptor {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if ds, ok := in.fields[t]; ok {
		return ds
	}

	ds := make([]*Descriptor, 0)
	content := ""
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Type == dependencyObjectType {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if f.Anonymous && ft.Kind() == reflect.Struct {
			continue
		}

		tg := parseTag(f.Tag.Get("markup"))
		if tg.hidden {
			continue
		}
		d := &Descriptor{
			Kind:       KindField,
			Name:       f.Name,
			Type:       f.Type,
			CanRead:    true,
			CanWrite:   !tg.readonly,
			Visibility: tg.visibility,
			OmitEmpty:  tg.omitempty,
			Null:       tg.null,
			field:      f.Name,
			index:      f.Index,
		}
		if tg.name != "" {
			d.Name = tg.name
		}
		if f.Type.Kind() == reflect.Func {
			d.Kind = KindEvent
		}
		if tg.hasDefault {
			v, err := codec.FromText(tg.def, f.Type)
			if err != nil {
				panic(fmt.Sprintf("property: default of %s.%s: %v", t.Name(), f.Name, err))
			}
			d.Default, d.HasDefault = v.Interface(), true
		}
		if tg.content {
			content = d.Name
		}
		ds = append(ds, d)
	}

	if content == "" {
		if cp, ok := reflect.New(t).Interface().(ContentPropertyer); ok {
			content = cp.ContentProperty()
		}
	}
	for _, d := range ds {
		if d.Name == content && d.Kind == KindField {
			d.Content = true
		}
	}

	in.fields[t] = ds
	return ds
}

// contentName names the content property of t: the field tagged content,
// else the name given by ContentProperty.
func (in *Introspector) contentName(t reflect.Type) string {
	for _, d := range in.Fields(t) {
		if d.Content {
			return d.Name
		}
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cp, ok := reflect.New(t).Interface().(ContentPropertyer); ok {
		return cp.ContentProperty()
	}
	return ""
}

// Members lists the serializable members of obj, a pointer to an instance.
// Dependency properties hide fields of the same name, extended properties
// hide the field they replace, and hidden or read-only members without
// the content marker are left out.
func (in *Introspector) Members(ctx *Context, obj reflect.Value) *Members {
	m := &Members{}
	var instance any
	if obj.IsValid() && obj.CanInterface() {
		instance = obj.Interface()
	}

	suppressed := map[string]bool{}
	for _, p := range in.providers {
		for _, ext := range p.ExtendedProperties(ctx, instance) {
			m.Extended = append(m.Extended, &Descriptor{
				Kind:     KindExtended,
				Name:     ext.Name,
				Type:     reflect.TypeOf((*any)(nil)).Elem(),
				CanRead:  ext.Get != nil,
				CanWrite: ext.Set != nil,
				Extended: ext,
			})
			if ext.Replaces != "" {
				suppressed[ext.Replaces] = true
			}
		}
	}

	if !obj.IsValid() {
		return m
	}

	content := in.contentName(obj.Type())
	dps := in.dependencies(obj)
	for _, d := range dps {
		suppressed[d.Name] = true
		if d.Name == content && !d.Attached {
			d.Content = true
		}
	}

	for _, d := range in.Fields(obj.Type()) {
		if suppressed[d.Name] || suppressed[d.field] || !visible(d) {
			continue
		}
		if d.Kind == KindEvent {
			m.Events = append(m.Events, d)
		} else {
			m.Properties = append(m.Properties, d)
		}
	}
	for _, d := range dps {
		if !visible(d) {
			continue
		}
		if d.IsEvent() {
			m.Events = append(m.Events, d)
		} else {
			m.Properties = append(m.Properties, d)
		}
	}
	for _, d := range m.Properties {
		if d.Content {
			m.Content = d
		}
	}
	return m
}

// Attached finds an attached property declared by owner.
func (in *Introspector) Attached(owner reflect.Type, name string) (*Descriptor, bool) {
	dp, ok := in.reg.DependencyProperty(owner, name)
	if !ok || !dp.Attachable() {
		return nil, false
	}
	return dependencyDescriptor(dp), true
}

func (in *Introspector) dependencies(obj reflect.Value) []*Descriptor {
	holder, err := holderOf(obj)
	if err != nil {
		return nil
	}

	out := make([]*Descriptor, 0)
	seen := map[*schema.DependencyProperty]bool{}
	for _, dp := range in.reg.DependencyProperties(obj.Type()) {
		seen[dp] = true
		out = append(out, dependencyDescriptor(dp))
	}
	for _, dp := range holder.Store().Properties() {
		if seen[dp] || !dp.Attached || !dp.Attachable() {
			continue
		}
		seen[dp] = true
		out = append(out, dependencyDescriptor(dp))
	}
	return out
}

func dependencyDescriptor(dp *schema.DependencyProperty) *Descriptor {
	return &Descriptor{
		Kind:       KindDependency,
		Name:       dp.Name,
		Type:       dp.Type,
		CanRead:    true,
		CanWrite:   !dp.ReadOnly,
		Attached:   dp.Attached,
		Visibility: dp.Visibility,
		Default:    dp.Default,
		HasDefault: dp.Default != nil,
		Dependency: dp,
	}
}

func visible(d *Descriptor) bool {
	if d.Visibility == schema.Hidden {
		return false
	}
	if !d.CanWrite && d.Visibility != schema.Content && !d.Content {
		return false
	}
	return d.CanRead
}
