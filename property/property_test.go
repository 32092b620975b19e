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
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vine-io/markup/schema"
)

type Step struct {
	DependencyObject

	ID       string `markup:"name:Id"`
	Title    string `markup:"omitempty"`
	Retries  int    `markup:"default:3"`
	Children []any  `markup:"readonly;visibility:content"`
	Steps    []*Step
	Secret   string `markup:"-"`
	Note     string `markup:"hidden"`
	Done     func()
	Label    string

	internal int
}

func (s *Step) RuntimeNameProperty() string { return "ID" }

type Panel struct {
	Items []any
}

func (Panel) ContentProperty() string { return "Items" }

type Timer struct{}

func (Timer) GetDelay(obj any) int    { return 0 }
func (Timer) SetDelay(obj any, v int) {}

var (
	labelProperty = &schema.DependencyProperty{
		Name:  "Label",
		Type:  reflect.TypeOf(""),
		Owner: reflect.TypeOf(Step{}),
	}
	delayProperty = &schema.DependencyProperty{
		Name:     "Delay",
		Type:     reflect.TypeOf(0),
		Owner:    reflect.TypeOf(Timer{}),
		Attached: true,
		Default:  0,
	}
	orphanProperty = &schema.DependencyProperty{
		Name:     "Orphan",
		Type:     reflect.TypeOf(0),
		Owner:    reflect.TypeOf(Panel{}),
		Attached: true,
	}
)

func testRegistry(t *testing.T) *schema.Registry {
	reg := schema.NewRegistry()
	err := reg.Register(schema.NewAssembly("property.test").
		Namespace("http://vine.io/markup/property", "github.com/vine-io/markup/property", "p").
		Type(Step{}).
		Type(Panel{}).
		Type(Timer{}).
		Property(labelProperty, delayProperty, orphanProperty))
	require.NoError(t, err)
	return reg
}

func names(ds []*Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

func TestParseTag(t *testing.T) {
	tg := parseTag("name:Foo;omitempty; null;default:a;b")
	assert.Equal(t, "Foo", tg.name)
	assert.True(t, tg.omitempty)
	assert.True(t, tg.null)
	assert.True(t, tg.hasDefault)
	assert.Equal(t, "a;b", tg.def)

	assert.True(t, parseTag("-").hidden)
	assert.Equal(t, schema.Content, parseTag("readonly;visibility:content").visibility)
}

func TestFields(t *testing.T) {
	in := NewIntrospector(testRegistry(t))

	ds := in.Fields(reflect.TypeOf(&Step{}))
	assert.Equal(t, []string{"Id", "Title", "Retries", "Children", "Steps", "Done", "Label"}, names(ds))

	retries := ds[2]
	assert.True(t, retries.HasDefault)
	assert.Equal(t, 3, retries.Default)
	assert.Equal(t, KindEvent, ds[5].Kind)
	assert.False(t, ds[3].CanWrite)
	assert.True(t, ds[4].IsCollection())

	// cached
	assert.Equal(t, ds, in.Fields(reflect.TypeOf(Step{})))

	m := in.Members(NewContext(), reflect.ValueOf(&Panel{}))
	require.NotNil(t, m.Content)
	assert.Equal(t, "Items", m.Content.Name)
	assert.Equal(t, KindField, m.Content.Kind)
	assert.Nil(t, in.Members(NewContext(), reflect.ValueOf(&Step{})).Content)
}

type Board struct {
	DependencyObject

	Title string
}

func (b *Board) ContentProperty() string { return "Cards" }

func TestDependencyContent(t *testing.T) {
	cards := &schema.DependencyProperty{
		Name:  "Cards",
		Type:  reflect.TypeOf([]any{}),
		Owner: reflect.TypeOf(Board{}),
	}
	reg := schema.NewRegistry()
	require.NoError(t, reg.Register(schema.NewAssembly("property.board").
		Namespace("http://vine.io/markup/property/board", "github.com/vine-io/markup/property", "b").
		Type(Board{}).
		Property(cards)))
	in := NewIntrospector(reg)

	m := in.Members(NewContext(), reflect.ValueOf(&Board{}))
	require.NotNil(t, m.Content)
	assert.Equal(t, "Cards", m.Content.Name)
	assert.Equal(t, KindDependency, m.Content.Kind)
	assert.Equal(t, []string{"Title", "Cards"}, names(m.Properties))
}

func TestBadDefaultPanics(t *testing.T) {
	type bad struct {
		N int `markup:"default:many"`
	}
	in := NewIntrospector(schema.NewRegistry())
	assert.Panics(t, func() { in.Fields(reflect.TypeOf(bad{})) })
}

func TestMembers(t *testing.T) {
	in := NewIntrospector(testRegistry(t), DefaultProviders()...)
	ctx := NewContext()

	s := &Step{ID: "s1"}
	s.Store().SetValue(delayProperty, 5)
	s.Store().SetValue(orphanProperty, 1)

	m := in.Members(ctx, reflect.ValueOf(s))
	// Id is replaced by x:Name, Label by the dependency property.
	assert.Equal(t, []string{"Title", "Retries", "Children", "Steps", "Label", "Delay"}, names(m.Properties))
	assert.Equal(t, []string{"Done"}, names(m.Events))
	assert.Equal(t, []string{"Name"}, names(m.Extended))

	label, ok := m.Lookup("Label")
	require.True(t, ok)
	assert.Equal(t, KindDependency, label.Kind)

	delay, ok := m.Lookup("Delay")
	require.True(t, ok)
	assert.True(t, delay.Attached)
	v, err := delay.Get(reflect.ValueOf(s))
	require.NoError(t, err)
	assert.Equal(t, 5, v.Interface())

	_, ok = m.Lookup("Orphan")
	assert.False(t, ok)

	name, ok := m.LookupExtended(schema.DefinitionsNamespace, "Name")
	require.True(t, ok)
	got, ok := name.Extended.Get(ctx, s)
	assert.True(t, ok)
	assert.Equal(t, "s1", got)
	require.NoError(t, name.Extended.Set(ctx, s, "s2"))
	assert.Equal(t, "s2", s.ID)
}

func TestDescriptorGetSet(t *testing.T) {
	in := NewIntrospector(testRegistry(t))
	s := &Step{}
	m := in.Members(NewContext(), reflect.ValueOf(s))

	retries, _ := m.Lookup("Retries")
	require.NoError(t, retries.Set(reflect.ValueOf(s), reflect.ValueOf(int64(7))))
	assert.Equal(t, 7, s.Retries)
	assert.Error(t, retries.Set(reflect.ValueOf(s), reflect.ValueOf("many")))

	label, _ := m.Lookup("Label")
	require.NoError(t, label.Set(reflect.ValueOf(s), reflect.ValueOf("hi")))
	assert.Equal(t, "hi", s.Store().GetValue(labelProperty))
	assert.Equal(t, "", s.Label)

	children, _ := m.Lookup("Children")
	assert.Error(t, children.Set(reflect.ValueOf(s), reflect.ValueOf([]any{})))

	attached, ok := in.Attached(reflect.TypeOf(Timer{}), "Delay")
	require.True(t, ok)
	require.NoError(t, attached.Set(reflect.ValueOf(s), reflect.ValueOf("9")))
	assert.Equal(t, 9, s.Store().GetValue(delayProperty))

	_, ok = in.Attached(reflect.TypeOf(Panel{}), "Orphan")
	assert.False(t, ok)
}

func TestDependencyObject(t *testing.T) {
	var o DependencyObject
	assert.Equal(t, 0, o.GetValue(delayProperty))
	assert.False(t, o.IsSet(delayProperty))

	o.SetValue(delayProperty, 2)
	o.SetValue(labelProperty, "x")
	assert.True(t, o.IsSet(delayProperty))
	assert.Len(t, o.Properties(), 2)

	o.ClearValue(delayProperty)
	assert.Equal(t, []*schema.DependencyProperty{labelProperty}, o.Properties())

	o.SetHandlerName("Done", "OnDone")
	h, ok := o.HandlerName("Done")
	assert.True(t, ok)
	assert.Equal(t, "OnDone", h)
}

func TestContext(t *testing.T) {
	ctx := NewContext()
	root := &Panel{}
	m1 := ctx.Push(Frame{Object: root})
	m2 := ctx.Push(Frame{Property: &Descriptor{Name: "Items"}})
	e := &Entry{Key: "k", HasKey: true}
	m3 := ctx.Push(Frame{Entry: e})
	child := &Step{}
	m4 := ctx.Push(Frame{Object: child})

	assert.Equal(t, 4, ctx.Depth())
	assert.Same(t, e, ctx.EntryOf(child))
	assert.Nil(t, ctx.EntryOf(root))
	assert.Same(t, child, ctx.Object())
	assert.Equal(t, "Items", ctx.Property().Name)
	assert.Equal(t, "Panel.Items[k]/Step", ctx.Path())

	assert.Panics(t, func() { ctx.Pop(m3) })
	ctx.Pop(m4)
	ctx.Pop(m3)
	ctx.Pop(m2)
	ctx.Pop(m1)
	assert.Equal(t, 0, ctx.Depth())
}

func TestDictionaryKeyProvider(t *testing.T) {
	ctx := NewContext()
	p := DictionaryKey()
	v := &Step{}
	assert.Empty(t, p.ExtendedProperties(ctx, v))

	e := &Entry{}
	ctx.Push(Frame{Entry: e})
	ctx.Push(Frame{Object: v})
	exts := p.ExtendedProperties(ctx, v)
	require.Len(t, exts, 1)
	_, ok := exts[0].Get(ctx, v)
	assert.False(t, ok)
	require.NoError(t, exts[0].Set(ctx, v, "key"))
	assert.Equal(t, "key", e.Key)
	assert.True(t, e.HasKey)
}
