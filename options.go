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
	"reflect"

	"github.com/vine-io/markup/api"
	"github.com/vine-io/markup/property"
	"github.com/vine-io/markup/schema"
)

// Instantiator creates the instance for an element of type t. Returning a
// nil value falls back to the default instantiation.
type Instantiator func(t reflect.Type) (reflect.Value, error)

// Option represents a configuration option for the Serializer.
type Option func(options *Options)

type Options struct {
	Registry     *schema.Registry
	Cache        schema.Cache
	Providers    []property.Provider
	Indent       int
	Handlers     HandlerBinder
	Instantiator Instantiator
	Sink         api.Sink
}

func NewOptions(opts ...Option) Options {
	options := Options{Indent: 2}
	for _, o := range opts {
		o(&options)
	}

	if options.Registry == nil {
		options.Registry = schema.NewRegistry()
	}
	return options
}

// WithRegistry sets the registry types are resolved against.
func WithRegistry(reg *schema.Registry) Option {
	return func(o *Options) {
		o.Registry = reg
	}
}

// WithSharedCache shares cache between every session of the serializer.
// The cache must be safe for concurrent use.
func WithSharedCache(cache *schema.SharedCache) Option {
	return func(o *Options) {
		if cache != nil {
			o.Cache = cache
		}
	}
}

// WithProviders appends extended property providers after the built-in ones.
func WithProviders(providers ...property.Provider) Option {
	return func(o *Options) {
		o.Providers = append(o.Providers, providers...)
	}
}

// WithIndent sets the indentation width of the output. Zero writes a
// single line.
func WithIndent(n int) Option {
	return func(o *Options) {
		o.Indent = n
	}
}

func WithHandlers(binder HandlerBinder) Option {
	return func(o *Options) {
		o.Handlers = binder
	}
}

func WithInstantiator(fn Instantiator) Option {
	return func(o *Options) {
		o.Instantiator = fn
	}
}

// WithSink receives every recorded error in addition to the returned list.
func WithSink(sink api.Sink) Option {
	return func(o *Options) {
		o.Sink = sink
	}
}
