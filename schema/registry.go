package schema

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Assembly is a named bundle of types registered together.
type Assembly struct {
	Name  string
	Xmlns []XmlnsDefinition

	types []assemblyType
	props []*DependencyProperty
}

type assemblyType struct {
	t     reflect.Type
	ctors []any
}

func NewAssembly(name string) *Assembly {
	return &Assembly{Name: name}
}

// Namespace declares that xmlns covers the Go package pkg.
func (a *Assembly) Namespace(xmlns, pkg, prefix string) *Assembly {
	a.Xmlns = append(a.Xmlns, XmlnsDefinition{XMLNamespace: xmlns, Namespace: pkg, Prefix: prefix})
	return a
}

// Type adds the type of v, a value or pointer, with its constructors. A
// constructor is a func returning T or *T, optionally followed by an error.
func (a *Assembly) Type(v any, ctors ...any) *Assembly {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	a.types = append(a.types, assemblyType{t: t, ctors: ctors})
	return a
}

// Property adds dependency properties owned by the assembly's types.
func (a *Assembly) Property(dps ...*DependencyProperty) *Assembly {
	a.props = append(a.props, dps...)
	return a
}

func (a *Assembly) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Name, validation.Required),
		validation.Field(&a.Xmlns),
	)
}

// Registry holds every registered assembly. It is safe for concurrent use
// and is usually built once at startup.
type Registry struct {
	sync.RWMutex

	assemblies map[string]*Assembly
	types      map[string]reflect.Type
	owners     map[reflect.Type]string
	xmlns      map[string][]TypeMapping
	reverse    map[string]TypeMapping
	ctors      map[reflect.Type][]reflect.Value
	props      map[reflect.Type][]*DependencyProperty
	byName     map[string]*DependencyProperty
}

func NewRegistry() *Registry {
	r := &Registry{
		assemblies: map[string]*Assembly{},
		types:      map[string]reflect.Type{},
		owners:     map[reflect.Type]string{},
		xmlns:      map[string][]TypeMapping{},
		reverse:    map[string]TypeMapping{},
		ctors:      map[reflect.Type][]reflect.Value{},
		props:      map[reflect.Type][]*DependencyProperty{},
		byName:     map[string]*DependencyProperty{},
	}
	for t, ctors := range builtinConstructors {
		for _, ctor := range ctors {
			r.ctors[t] = append(r.ctors[t], reflect.ValueOf(ctor))
		}
	}
	return r
}

// Register adds asm. Registering a name twice is an error.
func (r *Registry) Register(asm *Assembly) error {
	if err := asm.Validate(); err != nil {
		return errorf("assembly %s: %v", asm.Name, err)
	}

	ctors := map[reflect.Type][]reflect.Value{}
	for _, at := range asm.types {
		if at.t.Name() == "" || at.t.PkgPath() == "" {
			return errorf("assembly %s: type %s is not a named package type", asm.Name, at.t)
		}
		for _, ctor := range at.ctors {
			cv := reflect.ValueOf(ctor)
			if err := checkConstructor(cv, at.t); err != nil {
				return errorf("assembly %s: %v", asm.Name, err)
			}
			ctors[at.t] = append(ctors[at.t], cv)
		}
	}
	for _, dp := range asm.props {
		if err := dp.Validate(); err != nil {
			return errorf("assembly %s: property %s: %v", asm.Name, dp.Name, err)
		}
	}

	r.Lock()
	defer r.Unlock()

	if _, ok := r.assemblies[asm.Name]; ok {
		return errorf("assembly %s already registered", asm.Name)
	}
	r.assemblies[asm.Name] = asm
	for _, at := range asm.types {
		r.types[FullName(at.t)] = at.t
		r.owners[at.t] = asm.Name
	}
	for t, cs := range ctors {
		r.ctors[t] = append(r.ctors[t], cs...)
	}
	for _, def := range asm.Xmlns {
		r.addMapping(TypeMapping{
			XMLNamespace: def.XMLNamespace,
			Namespace:    def.Namespace,
			Assembly:     asm.Name,
			Prefix:       def.Prefix,
		})
	}
	for _, dp := range asm.props {
		owner := dp.Owner
		for owner.Kind() == reflect.Ptr {
			owner = owner.Elem()
		}
		r.props[owner] = append(r.props[owner], dp)
		r.byName[FullName(owner)+"."+dp.Name] = dp
	}

	return nil
}

// AddMapping adds an extra xmlns alias for an already registered package.
func (r *Registry) AddMapping(m TypeMapping) error {
	if err := m.Validate(); err != nil {
		return errorf("mapping %s: %v", m.XMLNamespace, err)
	}

	r.Lock()
	defer r.Unlock()
	if m.Assembly != "" {
		if _, ok := r.assemblies[m.Assembly]; !ok {
			return errorf("mapping %s: unknown assembly %s", m.XMLNamespace, m.Assembly)
		}
	}
	r.addMapping(m)
	return nil
}

func (r *Registry) addMapping(m TypeMapping) {
	r.xmlns[m.XMLNamespace] = append(r.xmlns[m.XMLNamespace], m)
	if _, ok := r.reverse[m.key()]; !ok {
		r.reverse[m.key()] = m
	}
}

// LoadType finds a type by "pkgpath.Name" optionally followed by
// ", assembly". The assembly, when given, must own the type.
func (r *Registry) LoadType(name string) (reflect.Type, bool) {
	full, asm := name, ""
	if n := strings.IndexByte(name, ','); n >= 0 {
		full, asm = strings.TrimSpace(name[:n]), strings.TrimSpace(name[n+1:])
	}

	r.RLock()
	defer r.RUnlock()
	t, ok := r.types[full]
	if !ok {
		return nil, false
	}
	if asm != "" && r.owners[t] != asm {
		return nil, false
	}
	return t, true
}

func (r *Registry) AssemblyName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.RLock()
	defer r.RUnlock()
	return r.owners[t]
}

// Mappings lists the mappings of xmlns in registration order.
func (r *Registry) Mappings(xmlns string) []TypeMapping {
	r.RLock()
	defer r.RUnlock()
	ms := r.xmlns[xmlns]
	out := make([]TypeMapping, len(ms))
	copy(out, ms)
	return out
}

// Reverse returns the first mapping registered for a package and assembly.
func (r *Registry) Reverse(pkg, assembly string) (TypeMapping, bool) {
	r.RLock()
	defer r.RUnlock()
	m, ok := r.reverse[pkg+"|"+assembly]
	return m, ok
}

// Constructors lists the constructors registered for t.
func (r *Registry) Constructors(t reflect.Type) []reflect.Value {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.RLock()
	defer r.RUnlock()
	out := make([]reflect.Value, len(r.ctors[t]))
	copy(out, r.ctors[t])
	return out
}

// DependencyProperties lists the non-attached dependency properties owned by
// t or by the structs it embeds.
func (r *Registry) DependencyProperties(t reflect.Type) []*DependencyProperty {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	r.RLock()
	defer r.RUnlock()

	out := make([]*DependencyProperty, 0)
	seen := map[reflect.Type]bool{}
	var walk func(t reflect.Type)
	walk = func(t reflect.Type) {
		if seen[t] {
			return
		}
		seen[t] = true
		for _, dp := range r.props[t] {
			if !dp.Attached {
				out = append(out, dp)
			}
		}
		if t.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.Anonymous {
				continue
			}
			ft := f.Type
			for ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			walk(ft)
		}
	}
	walk(t)
	return out
}

// DependencyProperty finds a property by owner type and name.
func (r *Registry) DependencyProperty(owner reflect.Type, name string) (*DependencyProperty, bool) {
	r.RLock()
	defer r.RUnlock()
	dp, ok := r.byName[FullName(owner)+"."+name]
	return dp, ok
}

// Assemblies lists the registered assembly names, sorted.
func (r *Registry) Assemblies() []string {
	r.RLock()
	defer r.RUnlock()
	out := make([]string, 0, len(r.assemblies))
	for name := range r.assemblies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

func checkConstructor(cv reflect.Value, t reflect.Type) error {
	if cv.Kind() != reflect.Func {
		return errorf("constructor of %s is a %s", t, cv.Kind())
	}
	ct := cv.Type()
	if ct.IsVariadic() {
		return errorf("constructor of %s must not be variadic", t)
	}
	switch ct.NumOut() {
	case 2:
		if ct.Out(1) != errorInterface {
			return errorf("constructor of %s must return an error second", t)
		}
		fallthrough
	case 1:
		out := ct.Out(0)
		if out != t && out != reflect.PtrTo(t) {
			return errorf("constructor of %s returns %s", t, out)
		}
	default:
		return errorf("constructor of %s must return one value and an optional error", t)
	}
	return nil
}
