package schema

import (
	"strconv"

	"github.com/tidwall/btree"
)

// Binding is one namespace declaration.
type Binding struct {
	Prefix    string
	Namespace string
}

var reservedPrefixes = map[string]bool{
	"xml":             true,
	"xmlns":           true,
	DefinitionsPrefix: true,
}

// Prefixes assigns collision-free prefixes to namespaces, in the order they
// are first seen. The zero value is not usable; call NewPrefixes.
type Prefixes struct {
	byPrefix    *btree.Map[string, string]
	byNamespace *btree.Map[string, string]
	order       []Binding
}

func NewPrefixes() *Prefixes {
	return &Prefixes{
		byPrefix:    &btree.Map[string, string]{},
		byNamespace: &btree.Map[string, string]{},
	}
}

// Lookup returns the prefix bound to ns.
func (p *Prefixes) Lookup(ns string) (string, bool) {
	return p.byNamespace.Get(ns)
}

// Namespace returns the namespace bound to prefix.
func (p *Prefixes) Namespace(prefix string) (string, bool) {
	return p.byPrefix.Get(prefix)
}

// BindDefault binds ns to the empty prefix when nothing holds it yet.
func (p *Prefixes) BindDefault(ns string) bool {
	if _, ok := p.byNamespace.Get(ns); ok {
		return false
	}
	if _, ok := p.byPrefix.Get(""); ok {
		return false
	}
	p.bind("", ns)
	return true
}

// Bind returns the prefix of ns, allocating one on first use. The preferred
// prefix is taken when free, otherwise the first free of preferred0,
// preferred1 and so on; without a preference ns0, ns1 and so on.
func (p *Prefixes) Bind(ns, preferred string) string {
	if prefix, ok := p.byNamespace.Get(ns); ok {
		return prefix
	}
	if ns == DefinitionsNamespace {
		p.bind(DefinitionsPrefix, ns)
		return DefinitionsPrefix
	}

	if preferred != "" && !prefixPattern.MatchString(preferred) {
		preferred = ""
	}
	if preferred != "" && p.free(preferred) {
		p.bind(preferred, ns)
		return preferred
	}

	base := preferred
	if base == "" {
		base = "ns"
	}
	for i := 0; ; i++ {
		candidate := base + strconv.Itoa(i)
		if p.free(candidate) {
			p.bind(candidate, ns)
			return candidate
		}
	}
}

func (p *Prefixes) free(prefix string) bool {
	if reservedPrefixes[prefix] {
		return false
	}
	_, taken := p.byPrefix.Get(prefix)
	return !taken
}

func (p *Prefixes) bind(prefix, ns string) {
	p.byPrefix.Set(prefix, ns)
	p.byNamespace.Set(ns, prefix)
	p.order = append(p.order, Binding{Prefix: prefix, Namespace: ns})
}

// Bindings lists the declarations in allocation order.
func (p *Prefixes) Bindings() []Binding {
	out := make([]Binding, len(p.order))
	copy(out, p.order)
	return out
}
