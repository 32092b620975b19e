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

// Package markup serializes object graphs to XML markup and back.
//
// Elements name types through xmlns mappings registered on a
// schema.Registry. Inline values are written as attributes, other values
// as Owner.Property elements, and the designated content of a type as
// nested elements or text. Attribute values may use the compact form
// {prefix:Type arg, Name=value} in place of nested elements.
//
//	reg := schema.NewRegistry()
//	_ = reg.Register(activity.Assembly())
//	s := markup.NewSerializer(markup.WithRegistry(reg))
//	text, err := s.SerializeToString(wf)
//
// Errors found while walking are recorded and returned together as an
// *api.ErrorList next to the best-effort result. Serializing a graph that
// contains a cycle stops at once with an api.KindOverflow error.
package markup

import (
	"bytes"
	"io"
	"strings"

	"github.com/vine-io/markup/api"
	"github.com/vine-io/markup/schema"
	"github.com/vine-io/markup/xmlstream"
)

// Serializer reads and writes markup. It holds configuration only and is
// safe for concurrent use; every call runs in a session of its own.
type Serializer struct {
	opts Options
}

func NewSerializer(opts ...Option) *Serializer {
	return &Serializer{opts: NewOptions(opts...)}
}

func (s *Serializer) Registry() *schema.Registry {
	return s.opts.Registry
}

func (s *Serializer) Options() Options {
	return s.opts
}

// Serialize writes obj to w.
func (s *Serializer) Serialize(w io.Writer, obj any) error {
	if w == nil {
		panic("markup: nil writer")
	}

	ss := newSession(&s.opts)
	doc, err := ss.serialize(obj)
	if err != nil {
		e := api.FromErr(err)
		if e.Kind == api.KindOverflow {
			return e
		}
		ss.report(e)
		return ss.result()
	}

	if _, err = doc.WriteTo(w); err != nil {
		return api.Value("write markup: %v", err).WithCause(err)
	}
	return ss.result()
}

func (s *Serializer) SerializeToString(obj any) (string, error) {
	var buf bytes.Buffer
	err := s.Serialize(&buf, obj)
	return buf.String(), err
}

// Deserialize reads one document from r. The result may be partially
// populated when an error is returned.
func (s *Serializer) Deserialize(r io.Reader) (any, error) {
	if r == nil {
		panic("markup: nil reader")
	}

	ss := newSession(&s.opts)
	ss.r = xmlstream.NewReader(r)
	v := ss.deserialize()
	return v, ss.result()
}

func (s *Serializer) DeserializeString(text string) (any, error) {
	return s.Deserialize(strings.NewReader(text))
}
