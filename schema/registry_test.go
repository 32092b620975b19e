package schema

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testXmlns = "http://vine.io/markup/test"

type Point struct {
	X, Y int
}

func NewPoint(x, y int) *Point {
	return &Point{X: x, Y: y}
}

type BindExtension struct {
	Path string
}

type Base struct{}

type Derived struct {
	Base
	Name string
}

type Rules struct{}

func (Rules) GetPriority(obj any) int { return 0 }
func (Rules) SetPriority(obj any, v int) {}
func (Rules) AddCompletedHandler(obj any) {}
func (*Rules) GetDeadline(obj any) int { return 0 }

var (
	priorityProperty = &DependencyProperty{
		Name:     "Priority",
		Type:     reflect.TypeOf(0),
		Owner:    reflect.TypeOf(Rules{}),
		Attached: true,
		Default:  0,
	}
	deadlineProperty = &DependencyProperty{
		Name:     "Deadline",
		Type:     reflect.TypeOf(0),
		Owner:    reflect.TypeOf(Rules{}),
		Attached: true,
	}
	completedProperty = &DependencyProperty{
		Name:     "Completed",
		Type:     reflect.TypeOf(func() {}),
		Owner:    reflect.TypeOf(Rules{}),
		Attached: true,
		Event:    true,
	}
	labelProperty = &DependencyProperty{
		Name:  "Label",
		Type:  reflect.TypeOf(""),
		Owner: reflect.TypeOf(Base{}),
	}
)

func testAssembly() *Assembly {
	return NewAssembly("markup.test").
		Namespace(testXmlns, "github.com/vine-io/markup/schema", "t").
		Type(Point{}, NewPoint).
		Type(&BindExtension{}).
		Type(Derived{}).
		Type(Rules{}).
		Property(priorityProperty, deadlineProperty, completedProperty, labelProperty)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testAssembly()))

	pt, ok := r.LoadType("github.com/vine-io/markup/schema.Point")
	assert.True(t, ok)
	assert.Equal(t, reflect.TypeOf(Point{}), pt)

	_, ok = r.LoadType("github.com/vine-io/markup/schema.Point, markup.test")
	assert.True(t, ok)
	_, ok = r.LoadType("github.com/vine-io/markup/schema.Point, other")
	assert.False(t, ok)

	assert.Equal(t, "markup.test", r.AssemblyName(reflect.TypeOf(&Point{})))
	assert.Len(t, r.Constructors(reflect.TypeOf(Point{})), 1)
	assert.Len(t, r.Constructors(reflect.TypeOf(TypeExtension{})), 1)

	ms := r.Mappings(testXmlns)
	if assert.Len(t, ms, 1) {
		assert.Equal(t, "t", ms[0].Prefix)
		assert.Equal(t, "markup.test", ms[0].Assembly)
	}

	m, ok := r.Reverse("github.com/vine-io/markup/schema", "markup.test")
	assert.True(t, ok)
	assert.Equal(t, testXmlns, m.XMLNamespace)

	dp, ok := r.DependencyProperty(reflect.TypeOf(Rules{}), "Priority")
	assert.True(t, ok)
	assert.Same(t, priorityProperty, dp)

	assert.Equal(t, []*DependencyProperty{labelProperty}, r.DependencyProperties(reflect.TypeOf(&Derived{})))
	assert.Equal(t, []string{"markup.test"}, r.Assemblies())

	assert.Error(t, r.Register(testAssembly()))
}

func TestRegistryRejects(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(NewAssembly("")))
	assert.Error(t, r.Register(NewAssembly("bad.prefix").Namespace(testXmlns, "pkg", "1st")))
	assert.Error(t, r.Register(NewAssembly("bad.ctor").Type(Point{}, func() *Derived { return nil })))
	assert.Error(t, r.Register(NewAssembly("bad.ctor2").Type(Point{}, func() (*Point, int) { return nil, 0 })))
	assert.Error(t, r.Register(NewAssembly("bad.type").Type(struct{}{})))
	assert.Error(t, r.Register(NewAssembly("bad.prop").Property(&DependencyProperty{Name: "Only"})))

	assert.Error(t, r.AddMapping(TypeMapping{XMLNamespace: "urn:x", Namespace: "pkg", Assembly: "missing"}))
	assert.Error(t, r.AddMapping(TypeMapping{Namespace: "pkg"}))
	assert.NoError(t, r.AddMapping(TypeMapping{XMLNamespace: "urn:x", Namespace: "pkg"}))
}

func TestAttachable(t *testing.T) {
	assert.True(t, priorityProperty.Attachable())
	assert.True(t, completedProperty.Attachable())
	assert.False(t, deadlineProperty.Attachable(), "no SetDeadline")
	assert.True(t, labelProperty.Attachable())

	assert.Equal(t, "Rules.Priority", priorityProperty.QualifiedName())
	assert.Equal(t, "github.com/vine-io/markup/schema.Rules.Priority", priorityProperty.Key())
}

func TestClrNamespace(t *testing.T) {
	uri := ClrNamespace("github.com/acme/model", "acme")
	assert.Equal(t, "clr-namespace:github.com/acme/model;assembly=acme", uri)

	pkg, asm, ok := ParseClrNamespace(uri)
	assert.True(t, ok)
	assert.Equal(t, "github.com/acme/model", pkg)
	assert.Equal(t, "acme", asm)

	pkg, asm, ok = ParseClrNamespace("clr-namespace:github.com/acme/model")
	assert.True(t, ok)
	assert.Equal(t, "github.com/acme/model", pkg)
	assert.Equal(t, "", asm)

	_, _, ok = ParseClrNamespace("http://acme")
	assert.False(t, ok)
	_, _, ok = ParseClrNamespace("clr-namespace:;assembly=acme")
	assert.False(t, ok)
}

func TestPrefixes(t *testing.T) {
	p := NewPrefixes()

	assert.True(t, p.BindDefault("urn:root"))
	assert.False(t, p.BindDefault("urn:other"))
	assert.Equal(t, "", p.Bind("urn:root", "wf"))

	assert.Equal(t, "wf", p.Bind("urn:a", "wf"))
	assert.Equal(t, "wf0", p.Bind("urn:b", "wf"))
	assert.Equal(t, "wf1", p.Bind("urn:c", "wf"))
	assert.Equal(t, "wf", p.Bind("urn:a", "other"))

	assert.Equal(t, "ns0", p.Bind("urn:d", ""))
	assert.Equal(t, "ns1", p.Bind("urn:e", "9bad"))
	assert.Equal(t, "x0", p.Bind("urn:f", "x"))
	assert.Equal(t, "x", p.Bind(DefinitionsNamespace, "whatever"))

	seen := map[string]bool{}
	for _, b := range p.Bindings() {
		assert.False(t, seen[b.Prefix], "prefix %q bound twice", b.Prefix)
		seen[b.Prefix] = true
	}
	assert.Len(t, p.Bindings(), 8)

	ns, ok := p.Namespace("wf0")
	assert.True(t, ok)
	assert.Equal(t, "urn:b", ns)
}

func TestPrefixesProbeAroundTaken(t *testing.T) {
	p := NewPrefixes()
	assert.Equal(t, "wf0", p.Bind("urn:a", "wf0"))
	assert.Equal(t, "wf", p.Bind("urn:b", "wf"))
	assert.Equal(t, "wf1", p.Bind("urn:c", "wf"))
}

func TestWellKnown(t *testing.T) {
	st, ok := WellKnown("String")
	assert.True(t, ok)
	assert.Equal(t, reflect.TypeOf(""), st)

	name, ok := WellKnownName(reflect.TypeOf(int32(0)))
	assert.True(t, ok)
	assert.Equal(t, "Int32", name)

	_, ok = WellKnown("Code")
	assert.False(t, ok)
}

func TestSharedCache(t *testing.T) {
	c := NewSharedCache()
	qn := QName{Space: testXmlns, Local: "Point"}

	_, ok := c.Type(qn)
	assert.False(t, ok)
	c.SetType(qn, reflect.TypeOf(Point{}))
	got, ok := c.Type(qn)
	assert.True(t, ok)
	assert.Equal(t, reflect.TypeOf(Point{}), got)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}
