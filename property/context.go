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
)

// Entry is the dictionary entry being walked.
type Entry struct {
	Key    any
	HasKey bool
	Value  any
}

// Frame is one level of the walk: an object, a property of the object
// below it, or a dictionary entry.
type Frame struct {
	Object   any
	Property *Descriptor
	Entry    *Entry
}

// Context is the explicit stack of frames threaded through a walk.
// Push returns a mark and Pop must be given the mark of the top frame;
// anything else is a defect in the walker and panics.
type Context struct {
	frames []Frame
}

func NewContext() *Context {
	return &Context{}
}

func (c *Context) Push(f Frame) int {
	c.frames = append(c.frames, f)
	return len(c.frames)
}

func (c *Context) Pop(mark int) {
	if mark != len(c.frames) || mark == 0 {
		panic(fmt.Sprintf("property: unbalanced context pop: mark %d, depth %d", mark, len(c.frames)))
	}
	c.frames = c.frames[:mark-1]
}

func (c *Context) Depth() int {
	return len(c.frames)
}

// Top returns the innermost frame.
func (c *Context) Top() (Frame, bool) {
	if len(c.frames) == 0 {
		return Frame{}, false
	}
	return c.frames[len(c.frames)-1], true
}

// Object returns the innermost object.
func (c *Context) Object() any {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Object != nil {
			return c.frames[i].Object
		}
	}
	return nil
}

// Property returns the innermost property frame.
func (c *Context) Property() *Descriptor {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Property != nil {
			return c.frames[i].Property
		}
	}
	return nil
}

// EntryOf returns the dictionary entry obj is the value of: the entry is
// the top frame, or sits right below obj's own frame.
func (c *Context) EntryOf(obj any) *Entry {
	n := len(c.frames)
	if n == 0 {
		return nil
	}
	top := c.frames[n-1]
	if top.Entry != nil {
		return top.Entry
	}
	if n >= 2 && c.frames[n-2].Entry != nil && same(top.Object, obj) {
		return c.frames[n-2].Entry
	}
	return nil
}

// Path renders the stack for diagnostics.
func (c *Context) Path() string {
	parts := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		switch {
		case f.Property != nil:
			parts = append(parts, "."+f.Property.Name)
		case f.Entry != nil:
			parts = append(parts, fmt.Sprintf("[%v]", f.Entry.Key))
		case f.Object != nil:
			t := reflect.TypeOf(f.Object)
			for t.Kind() == reflect.Ptr {
				t = t.Elem()
			}
			parts = append(parts, "/"+t.Name())
		}
	}
	return strings.TrimPrefix(strings.Join(parts, ""), "/")
}

func same(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	if va.Type().Comparable() {
		return a == b
	}
	return false
}

// Same reports whether a and b are the same instance.
func Same(a, b any) bool {
	return same(a, b)
}

// Extended is a property an external provider adds to an instance.
type Extended struct {
	Name string
	// Namespace of the attribute or element carrying the value.
	Namespace string
	// Replaces names a field the extended property stands in for.
	Replaces string
	Get      func(ctx *Context, obj any) (any, bool)
	Set      func(ctx *Context, obj any, v any) error
}

// Provider contributes extended properties during a walk.
type Provider interface {
	ExtendedProperties(ctx *Context, obj any) []*Extended
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx *Context, obj any) []*Extended

func (f ProviderFunc) ExtendedProperties(ctx *Context, obj any) []*Extended {
	return f(ctx, obj)
}
