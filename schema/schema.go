// Package schema maps markup qualified names to Go types and back.
//
// Go types are grouped into named assemblies registered on a Registry. An
// assembly declares which XML namespaces cover which Go packages (its xmlns
// definitions), the constructors usable from compact extensions and the
// dependency properties its types own. A Resolver answers name lookups for
// one serialization session, caching what it found and allocating stable
// prefixes for the namespaces it emits.
package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefinitionsNamespace holds the reserved directives (x:Name, x:Key),
	// the well-known types and the built-in extensions.
	DefinitionsNamespace = "http://vine.io/markup/2023/definitions"
	// DefinitionsPrefix is always bound to DefinitionsNamespace.
	DefinitionsPrefix = "x"

	// ExtensionSuffix lets {Foo} name a type called FooExtension.
	ExtensionSuffix = "Extension"

	clrNamespacePrefix = "clr-namespace:"
	assemblyPart       = ";assembly="
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// QName is a namespace qualified name.
type QName struct {
	Space string
	Local string
}

func (q QName) String() string {
	if q.Space == "" {
		return q.Local
	}
	return "{" + q.Space + "}" + q.Local
}

// FullName returns the package path and name of t, pointers removed.
func FullName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}

// Visibility controls whether a member takes part in serialization.
type Visibility int

const (
	Visible Visibility = iota
	Hidden
	// Content marks a member without a setter whose value is a mutable
	// container filled in place.
	Content
)

func (v Visibility) String() string {
	switch v {
	case Hidden:
		return "Hidden"
	case Content:
		return "Content"
	default:
		return "Visible"
	}
}

// TypeMapping binds an XML namespace to a Go package of an assembly.
type TypeMapping struct {
	XMLNamespace string `json:"xmlns" yaml:"xmlns"`
	Namespace    string `json:"namespace" yaml:"namespace"`
	Assembly     string `json:"assembly,omitempty" yaml:"assembly"`
	Prefix       string `json:"prefix,omitempty" yaml:"prefix"`
}

func (m TypeMapping) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.XMLNamespace, validation.Required),
		validation.Field(&m.Namespace, validation.Required),
		validation.Field(&m.Prefix, validation.Match(prefixPattern)),
	)
}

func (m TypeMapping) key() string {
	return m.Namespace + "|" + m.Assembly
}

// XmlnsDefinition is the assembly-level declaration that an XML namespace
// covers a Go package.
type XmlnsDefinition struct {
	XMLNamespace string
	Namespace    string
	Prefix       string
}

func (d XmlnsDefinition) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.XMLNamespace, validation.Required),
		validation.Field(&d.Namespace, validation.Required),
		validation.Field(&d.Prefix, validation.Match(prefixPattern)),
	)
}

// ClrNamespace synthesizes the namespace URI of a package without an xmlns
// definition.
func ClrNamespace(pkg, assembly string) string {
	if assembly == "" {
		return clrNamespacePrefix + pkg
	}
	return clrNamespacePrefix + pkg + assemblyPart + assembly
}

// ParseClrNamespace splits a clr-namespace URI.
func ParseClrNamespace(uri string) (pkg, assembly string, ok bool) {
	if !strings.HasPrefix(uri, clrNamespacePrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(uri, clrNamespacePrefix)
	if n := strings.Index(rest, assemblyPart); n >= 0 {
		rest, assembly = rest[:n], rest[n+len(assemblyPart):]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", "", false
	}
	return rest, strings.TrimSpace(assembly), true
}

// DependencyProperty describes a value stored out-of-band on an object,
// keyed by its owner type and name.
type DependencyProperty struct {
	Name  string
	Type  reflect.Type
	Owner reflect.Type
	// Attached properties may be set on objects of any type.
	Attached   bool
	Event      bool
	ReadOnly   bool
	Visibility Visibility
	// Default is the declared default. Nil means none.
	Default any
}

func (dp *DependencyProperty) Validate() error {
	return validation.ValidateStruct(dp,
		validation.Field(&dp.Name, validation.Required),
		validation.Field(&dp.Type, validation.NotNil),
		validation.Field(&dp.Owner, validation.NotNil),
	)
}

// Key identifies the property in a dependency object store.
func (dp *DependencyProperty) Key() string {
	return FullName(dp.Owner) + "." + dp.Name
}

// QualifiedName returns the Owner.Name form used in markup.
func (dp *DependencyProperty) QualifiedName() string {
	owner := dp.Owner
	for owner.Kind() == reflect.Ptr {
		owner = owner.Elem()
	}
	return owner.Name() + "." + dp.Name
}

func (dp *DependencyProperty) String() string {
	return dp.QualifiedName()
}

// Attachable reports whether an attached property has a round-trip path: its
// owner exposes Get<Name> and Set<Name> methods, or Add<Name>Handler for
// events. Non-attached properties are always attachable.
func (dp *DependencyProperty) Attachable() bool {
	if !dp.Attached {
		return true
	}
	if dp.Event {
		return hasMethod(dp.Owner, "Add"+dp.Name+"Handler")
	}
	return hasMethod(dp.Owner, "Get"+dp.Name) && hasMethod(dp.Owner, "Set"+dp.Name)
}

func hasMethod(t reflect.Type, name string) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if _, ok := t.MethodByName(name); ok {
		return true
	}
	_, ok := reflect.PtrTo(t).MethodByName(name)
	return ok
}

var wellKnown = map[string]reflect.Type{
	"String":   reflect.TypeOf(""),
	"Boolean":  reflect.TypeOf(false),
	"Byte":     reflect.TypeOf(uint8(0)),
	"SByte":    reflect.TypeOf(int8(0)),
	"Int16":    reflect.TypeOf(int16(0)),
	"Int32":    reflect.TypeOf(int32(0)),
	"Int64":    reflect.TypeOf(int64(0)),
	"Int":      reflect.TypeOf(0),
	"UInt16":   reflect.TypeOf(uint16(0)),
	"UInt32":   reflect.TypeOf(uint32(0)),
	"UInt64":   reflect.TypeOf(uint64(0)),
	"UInt":     reflect.TypeOf(uint(0)),
	"Single":   reflect.TypeOf(float32(0)),
	"Double":   reflect.TypeOf(float64(0)),
	"Decimal":  reflect.TypeOf(decimal.Decimal{}),
	"DateTime": reflect.TypeOf(time.Time{}),
	"TimeSpan": reflect.TypeOf(time.Duration(0)),
	"Guid":     reflect.TypeOf(uuid.UUID{}),
	"Null":     reflect.TypeOf(NullExtension{}),
	"Type":     reflect.TypeOf(TypeExtension{}),
	"Array":    reflect.TypeOf(ArrayExtension{}),
}

var wellKnownNames = func() map[reflect.Type]string {
	out := make(map[reflect.Type]string, len(wellKnown))
	for name, t := range wellKnown {
		out[t] = name
	}
	return out
}()

// WellKnown returns the type behind a local name of the definitions namespace.
func WellKnown(local string) (reflect.Type, bool) {
	t, ok := wellKnown[local]
	return t, ok
}

// WellKnownName is the reverse of WellKnown.
func WellKnownName(t reflect.Type) (string, bool) {
	name, ok := wellKnownNames[t]
	return name, ok
}

func errorf(format string, a ...interface{}) error {
	return fmt.Errorf("schema: "+format, a...)
}
