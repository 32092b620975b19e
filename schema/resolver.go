package schema

import (
	"reflect"
	"strings"

	log "github.com/vine-io/vine/lib/logger"

	"github.com/vine-io/markup/api"
)

// TypeLoader finds types by name. Registry implements it.
type TypeLoader interface {
	LoadType(name string) (reflect.Type, bool)
	AssemblyName(t reflect.Type) string
}

// MappingSource lists xmlns mappings. Registry implements it.
type MappingSource interface {
	Mappings(xmlns string) []TypeMapping
	Reverse(pkg, assembly string) (TypeMapping, bool)
}

// Resolver resolves names for one serialization session.
type Resolver struct {
	loader   TypeLoader
	mappings MappingSource
	cache    Cache
	prefixes *Prefixes
}

// NewResolver panics when loader or mappings is nil. A nil cache means a
// fresh session-local one.
func NewResolver(loader TypeLoader, mappings MappingSource, cache Cache) *Resolver {
	if loader == nil || mappings == nil {
		panic("schema: resolver requires a type loader and a mapping source")
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{
		loader:   loader,
		mappings: mappings,
		cache:    cache,
		prefixes: NewPrefixes(),
	}
}

// Resolve maps a qualified name to a type. When nothing matches and the
// name lacks the Extension suffix, the suffixed name is tried too.
func (r *Resolver) Resolve(qn QName) (reflect.Type, error) {
	if t, ok := r.resolve(qn); ok {
		return t, nil
	}
	if !strings.HasSuffix(qn.Local, ExtensionSuffix) {
		if t, ok := r.resolve(QName{Space: qn.Space, Local: qn.Local + ExtensionSuffix}); ok {
			return t, nil
		}
	}
	if qn.Space == "" {
		return nil, api.Resolution("type '%s' has no namespace", qn.Local)
	}
	return nil, api.Resolution("type '%s' cannot be resolved in namespace '%s'", qn.Local, qn.Space)
}

func (r *Resolver) resolve(qn QName) (reflect.Type, bool) {
	if qn.Space == DefinitionsNamespace {
		return WellKnown(qn.Local)
	}
	if t, ok := r.cache.Type(qn); ok {
		return t, true
	}

	log.Tracef("resolve %s: cache miss", qn)
	for _, m := range r.mappingsOf(qn.Space) {
		name := m.Namespace + "." + qn.Local
		if m.Assembly != "" {
			name += ", " + m.Assembly
		}
		if t, ok := r.loader.LoadType(name); ok {
			r.cache.SetType(qn, t)
			return t, true
		}
	}

	if qn.Space != "" {
		if t, ok := r.loader.LoadType(qn.Space + "." + qn.Local); ok {
			r.cache.SetType(qn, t)
			return t, true
		}
	}
	return nil, false
}

func (r *Resolver) mappingsOf(xmlns string) []TypeMapping {
	if ms, ok := r.cache.Mappings(xmlns); ok {
		return ms
	}
	var ms []TypeMapping
	if pkg, asm, ok := ParseClrNamespace(xmlns); ok {
		ms = []TypeMapping{{XMLNamespace: xmlns, Namespace: pkg, Assembly: asm}}
	} else {
		ms = r.mappings.Mappings(xmlns)
	}
	r.cache.SetMappings(xmlns, ms)
	return ms
}

// QualifiedName maps a type to its markup name and the prefix its assembly
// prefers for the namespace.
func (r *Resolver) QualifiedName(t reflect.Type) (QName, string, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if local, ok := WellKnownName(t); ok {
		return QName{Space: DefinitionsNamespace, Local: local}, DefinitionsPrefix, nil
	}
	if m, ok := r.cache.Mapping(t); ok {
		return QName{Space: m.XMLNamespace, Local: t.Name()}, m.Prefix, nil
	}

	if t.Name() == "" || t.PkgPath() == "" {
		return QName{}, "", api.Resolution("type %s has no markup name", t)
	}
	if strings.ContainsAny(t.Name(), "[],") {
		return QName{}, "", api.Resolution("generic type %s has no markup name", t)
	}

	asm := r.loader.AssemblyName(t)
	m, ok := r.mappings.Reverse(t.PkgPath(), asm)
	if !ok {
		m = TypeMapping{XMLNamespace: ClrNamespace(t.PkgPath(), asm), Namespace: t.PkgPath(), Assembly: asm}
	}
	r.cache.SetMapping(t, m)
	return QName{Space: m.XMLNamespace, Local: t.Name()}, m.Prefix, nil
}

// Prefixes returns the session prefix table.
func (r *Resolver) Prefixes() *Prefixes {
	return r.prefixes
}

// Prefix binds ns in the session prefix table.
func (r *Resolver) Prefix(ns, preferred string) string {
	return r.prefixes.Bind(ns, preferred)
}
