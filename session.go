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
	"strings"

	log "github.com/vine-io/vine/lib/logger"

	"github.com/vine-io/markup/api"
	"github.com/vine-io/markup/property"
	"github.com/vine-io/markup/schema"
	"github.com/vine-io/markup/xmlstream"
)

// session is the state of one Serialize or Deserialize call. Nothing in it
// outlives the call except what the shared cache keeps.
type session struct {
	opts     *Options
	resolver *schema.Resolver
	in       *property.Introspector
	ctx      *property.Context
	errs     *api.ErrorList

	// serializing
	open []any
	pair any

	// deserializing
	r      *xmlstream.Reader
	broken bool
}

var _ schema.ValueContext = (*session)(nil)

func newSession(opts *Options) *session {
	providers := append(property.DefaultProviders(), opts.Providers...)
	return &session{
		opts:     opts,
		resolver: schema.NewResolver(opts.Registry, opts.Registry, opts.Cache),
		in:       property.NewIntrospector(opts.Registry, providers...),
		ctx:      property.NewContext(),
		errs:     api.NewErrorList(),
	}
}

// report records err and lets the walk continue.
func (ss *session) report(err *api.Error) {
	if err == nil {
		return
	}
	if err.Path == "" {
		err.WithPath(ss.ctx.Path())
	}
	log.Debugf("markup: %s error at %d:%d: %s", err.Kind, err.Line, err.Column, err.Detail)
	ss.errs.Report(err)
	if ss.opts.Sink != nil {
		ss.opts.Sink.Report(err)
	}
}

// failed reports err unless it must stop the walk, in which case it is
// returned.
func (ss *session) failed(err error) error {
	e := api.FromErr(err)
	if e.Kind == api.KindOverflow {
		return e
	}
	ss.report(e)
	return nil
}

func (ss *session) result() error {
	return ss.errs.Err()
}

// ResolveTypeName resolves prefix:Local against the namespaces in scope of
// the element being read.
func (ss *session) ResolveTypeName(name string) (reflect.Type, error) {
	prefix, local := "", name
	if n := strings.IndexByte(name, ':'); n >= 0 {
		prefix, local = name[:n], name[n+1:]
	}
	ns, ok := ss.lookupPrefix(prefix)
	if !ok {
		return nil, api.Grammar("undeclared prefix '%s' in '%s'", prefix, name)
	}
	return ss.resolver.Resolve(schema.QName{Space: ns, Local: local})
}

func (ss *session) lookupPrefix(prefix string) (string, bool) {
	if ss.r != nil {
		return ss.r.LookupPrefix(prefix)
	}
	return ss.resolver.Prefixes().Namespace(prefix)
}

// prefix returns the prefix bound to ns in the output.
func (ss *session) prefix(ns, preferred string) string {
	return ss.resolver.Prefix(ns, preferred)
}

// typeRef renders t as prefix:Local for compact extensions.
func (ss *session) typeRef(t reflect.Type) (string, error) {
	qn, preferred, err := ss.resolver.QualifiedName(t)
	if err != nil {
		return "", err
	}
	if p := ss.prefix(qn.Space, preferred); p != "" {
		return p + ":" + qn.Local, nil
	}
	return qn.Local, nil
}

func (ss *session) isOpen(obj any) bool {
	for _, o := range ss.open {
		if property.Same(o, obj) {
			return true
		}
	}
	return false
}

func elemType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
