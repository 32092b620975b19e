// Package xmlstream is a pull reader over encoding/xml that reports the
// source position of every token and keeps its own namespace scopes, so the
// prefixes used inside attribute values can be resolved.
package xmlstream

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/vine-io/markup/api"
)

// XMLNamespace is the namespace bound to the xml prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

type Kind int

const (
	StartElement Kind = iota + 1
	EndElement
	Text
)

func (k Kind) String() string {
	switch k {
	case StartElement:
		return "StartElement"
	case EndElement:
		return "EndElement"
	case Text:
		return "Text"
	}
	return "Unknown"
}

// Name is a resolved name. Space is the namespace URI.
type Name struct {
	Space  string
	Prefix string
	Local  string
}

func (n Name) String() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

type Attr struct {
	Name  Name
	Value string
}

// Token is one node. Attrs excludes namespace declarations.
type Token struct {
	Kind   Kind
	Name   Name
	Attrs  []Attr
	Text   string
	Line   int
	Column int
}

type binding struct {
	prefix string
	ns     string
}

type raw struct {
	tok          xml.Token
	line, column int
}

type Reader struct {
	dec     *xml.Decoder
	scopes  [][]binding
	open    []Name
	pending *raw
	err     error
}

func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("xmlstream: nil reader")
	}
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel
	return &Reader{dec: dec}
}

// Depth is the number of open elements.
func (r *Reader) Depth() int {
	return len(r.open)
}

// Err returns the error that stopped the reader, if any.
func (r *Reader) Err() error {
	return r.err
}

// LookupPrefix resolves a prefix against the scopes of the open elements.
func (r *Reader) LookupPrefix(prefix string) (string, bool) {
	switch prefix {
	case "xml":
		return XMLNamespace, true
	case "xmlns":
		return "", false
	}
	for i := len(r.scopes) - 1; i >= 0; i-- {
		scope := r.scopes[i]
		for j := len(scope) - 1; j >= 0; j-- {
			if scope[j].prefix == prefix {
				return scope[j].ns, true
			}
		}
	}
	return "", prefix == ""
}

func (r *Reader) raw() (*raw, error) {
	if r.pending != nil {
		p := r.pending
		r.pending = nil
		return p, nil
	}
	for {
		line, column := r.dec.InputPos()
		tok, err := r.dec.RawToken()
		if err != nil {
			return nil, err
		}
		switch tok.(type) {
		case xml.Comment, xml.ProcInst, xml.Directive:
			continue
		}
		return &raw{tok: xml.CopyToken(tok), line: line, column: column}, nil
	}
}

// Next returns the next token, or io.EOF after the document ends. Adjacent
// character data is merged into one Text token.
func (r *Reader) Next() (*Token, error) {
	if r.err != nil {
		return nil, r.err
	}
	tok, err := r.next()
	if err != nil {
		r.err = err
	}
	return tok, err
}

func (r *Reader) next() (*Token, error) {
	p, err := r.raw()
	if err != nil {
		return nil, r.translate(err)
	}

	switch t := p.tok.(type) {
	case xml.StartElement:
		return r.start(t, p.line, p.column)
	case xml.EndElement:
		return r.end(t, p.line, p.column)
	case xml.CharData:
		var b strings.Builder
		b.Write(t)
		for {
			np, err := r.raw()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, r.translate(err)
			}
			cd, ok := np.tok.(xml.CharData)
			if !ok {
				r.pending = np
				break
			}
			b.Write(cd)
		}
		return &Token{Kind: Text, Text: b.String(), Line: p.line, Column: p.column}, nil
	}

	return nil, api.Grammar("unexpected token %T", p.tok).WithPosition(p.line, p.column)
}

func (r *Reader) start(t xml.StartElement, line, column int) (*Token, error) {
	scope := make([]binding, 0)
	for _, a := range t.Attr {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			scope = append(scope, binding{prefix: "", ns: a.Value})
		case a.Name.Space == "xmlns":
			if a.Value == "" {
				return nil, api.Grammar("prefix '%s' bound to empty namespace", a.Name.Local).WithPosition(line, column)
			}
			scope = append(scope, binding{prefix: a.Name.Local, ns: a.Value})
		}
	}
	r.scopes = append(r.scopes, scope)

	name, err := r.resolve(t.Name, true)
	if err != nil {
		return nil, err.WithPosition(line, column)
	}
	r.open = append(r.open, name)

	tok := &Token{Kind: StartElement, Name: name, Line: line, Column: column}
	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		an, err := r.resolve(a.Name, false)
		if err != nil {
			return nil, err.WithPosition(line, column)
		}
		tok.Attrs = append(tok.Attrs, Attr{Name: an, Value: a.Value})
	}
	return tok, nil
}

func (r *Reader) end(t xml.EndElement, line, column int) (*Token, error) {
	if len(r.open) == 0 {
		return nil, api.Grammar("unexpected end element </%s>", rawName(t.Name)).WithPosition(line, column)
	}
	top := r.open[len(r.open)-1]
	if top.Prefix != t.Name.Space || top.Local != t.Name.Local {
		return nil, api.Grammar("element <%s> closed by </%s>", top, rawName(t.Name)).WithPosition(line, column)
	}
	r.open = r.open[:len(r.open)-1]
	r.scopes = r.scopes[:len(r.scopes)-1]
	return &Token{Kind: EndElement, Name: top, Line: line, Column: column}, nil
}

// resolve maps a raw name whose Space holds the prefix. Unprefixed
// attributes have no namespace.
func (r *Reader) resolve(n xml.Name, element bool) (Name, *api.Error) {
	out := Name{Prefix: n.Space, Local: n.Local}
	if n.Space == "" && !element {
		return out, nil
	}
	ns, ok := r.LookupPrefix(n.Space)
	if !ok {
		return out, api.Grammar("undeclared prefix '%s'", n.Space)
	}
	out.Space = ns
	return out, nil
}

// Skip consumes tokens up to and including the end of the element whose
// start was returned last.
func (r *Reader) Skip() error {
	depth := len(r.open)
	for {
		tok, err := r.Next()
		if err != nil {
			return err
		}
		if tok.Kind == EndElement && len(r.open) < depth {
			return nil
		}
	}
}

func (r *Reader) translate(err error) error {
	if errors.Is(err, io.EOF) {
		if len(r.open) > 0 {
			line, column := r.dec.InputPos()
			return api.Grammar("unexpected end of document inside <%s>", r.open[len(r.open)-1]).WithPosition(line, column)
		}
		return io.EOF
	}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return api.Grammar("%s", se.Msg).WithPosition(se.Line, 0).WithCause(err)
	}
	return api.Grammar("%v", err).WithCause(err)
}

func rawName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
