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
	"github.com/tidwall/btree"

	"github.com/vine-io/markup/schema"
)

type entry struct {
	dp      *schema.DependencyProperty
	value   any
	handler string
}

// DependencyObject stores dependency property values and event handler
// names out-of-band. Embed it in a struct to make the struct a Holder.
type DependencyObject struct {
	values   btree.Map[string, *entry]
	handlers btree.Map[string, string]
}

// Holder is implemented by types embedding DependencyObject.
type Holder interface {
	Store() *DependencyObject
}

func (o *DependencyObject) Store() *DependencyObject {
	return o
}

// GetValue returns the stored value or the declared default.
func (o *DependencyObject) GetValue(dp *schema.DependencyProperty) any {
	if e, ok := o.values.Get(dp.Key()); ok {
		return e.value
	}
	return dp.Default
}

func (o *DependencyObject) SetValue(dp *schema.DependencyProperty, v any) {
	o.values.Set(dp.Key(), &entry{dp: dp, value: v})
}

func (o *DependencyObject) IsSet(dp *schema.DependencyProperty) bool {
	_, ok := o.values.Get(dp.Key())
	return ok
}

func (o *DependencyObject) ClearValue(dp *schema.DependencyProperty) {
	o.values.Delete(dp.Key())
}

// Handler returns the handler name bound to an event property.
func (o *DependencyObject) Handler(dp *schema.DependencyProperty) string {
	if e, ok := o.values.Get(dp.Key()); ok {
		return e.handler
	}
	return ""
}

func (o *DependencyObject) SetHandler(dp *schema.DependencyProperty, name string) {
	o.values.Set(dp.Key(), &entry{dp: dp, handler: name})
}

// HandlerName returns the handler name recorded for an event field.
func (o *DependencyObject) HandlerName(event string) (string, bool) {
	return o.handlers.Get(event)
}

func (o *DependencyObject) SetHandlerName(event, name string) {
	o.handlers.Set(event, name)
}

// Properties lists the properties with a stored value, ordered by key.
func (o *DependencyObject) Properties() []*schema.DependencyProperty {
	out := make([]*schema.DependencyProperty, 0, o.values.Len())
	o.values.Scan(func(_ string, e *entry) bool {
		out = append(out, e.dp)
		return true
	})
	return out
}
