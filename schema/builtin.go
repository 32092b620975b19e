package schema

import (
	"fmt"
	"reflect"

	"github.com/vine-io/markup/codec"
)

// ValueContext is what a markup extension sees while it provides a value.
type ValueContext interface {
	// ResolveTypeName resolves a prefix:Local reference against the
	// namespaces in scope.
	ResolveTypeName(name string) (reflect.Type, error)
}

// MarkupExtension is a type whose instances stand for another value.
type MarkupExtension interface {
	ProvideValue(ctx ValueContext) (any, error)
}

// NullExtension is {x:Null}.
type NullExtension struct{}

func (NullExtension) ProvideValue(ValueContext) (any, error) {
	return nil, nil
}

// TypeExtension is {x:Type prefix:Name}.
type TypeExtension struct {
	TypeName string
	Type     reflect.Type `markup:"-"`
}

func NewTypeExtension(typeName string) *TypeExtension {
	return &TypeExtension{TypeName: typeName}
}

func (e *TypeExtension) ProvideValue(ctx ValueContext) (any, error) {
	if e.Type != nil {
		return e.Type, nil
	}
	if e.TypeName == "" {
		return nil, fmt.Errorf("x:Type requires a type name")
	}
	return ctx.ResolveTypeName(e.TypeName)
}

// ArrayExtension is an x:Array element: a typed list written item by item.
type ArrayExtension struct {
	Type  reflect.Type
	Items []any `markup:"content"`
}

func (e *ArrayExtension) ProvideValue(ValueContext) (any, error) {
	if e.Type == nil {
		return nil, fmt.Errorf("x:Array requires a Type")
	}
	out := reflect.MakeSlice(reflect.SliceOf(e.Type), 0, len(e.Items))
	for i, item := range e.Items {
		v, err := codec.Coerce(item, e.Type)
		if err != nil {
			return nil, fmt.Errorf("x:Array item %d: %w", i, err)
		}
		out = reflect.Append(out, v)
	}
	return out.Interface(), nil
}

// NewArrayExtension wraps a slice value.
func NewArrayExtension(slice any) *ArrayExtension {
	rv := reflect.ValueOf(slice)
	e := &ArrayExtension{Type: rv.Type().Elem(), Items: make([]any, 0, rv.Len())}
	for i := 0; i < rv.Len(); i++ {
		e.Items = append(e.Items, rv.Index(i).Interface())
	}
	return e
}

var builtinConstructors = map[reflect.Type][]any{
	reflect.TypeOf(TypeExtension{}): {NewTypeExtension},
}
