package markup

import (
	"reflect"

	"github.com/vine-io/markup/codec"
)

// HandlerBinder resolves the handler names written for event members.
type HandlerBinder interface {
	Bind(name string, t reflect.Type) (reflect.Value, bool)
}

// HandlerNamer is implemented by binders that can name a bound handler.
type HandlerNamer interface {
	HandlerName(fn reflect.Value) (string, bool)
}

// Handlers binds handler names to funcs.
type Handlers map[string]any

var (
	_ HandlerBinder = Handlers(nil)
	_ HandlerNamer  = Handlers(nil)
)

func (h Handlers) Bind(name string, t reflect.Type) (reflect.Value, bool) {
	fn, ok := h[name]
	if !ok || fn == nil {
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(fn)
	switch {
	case v.Type().AssignableTo(t):
		return v, true
	case v.Type().ConvertibleTo(t):
		return v.Convert(t), true
	}
	return reflect.Value{}, false
}

func (h Handlers) HandlerName(fn reflect.Value) (string, bool) {
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return "", false
	}
	for name, v := range h {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Func && rv.Pointer() == fn.Pointer() {
			return name, true
		}
	}
	return "", false
}

func (ss *session) handlerName(fn reflect.Value) string {
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return ""
	}
	if namer, ok := ss.opts.Handlers.(HandlerNamer); ok {
		if name, ok := namer.HandlerName(fn); ok {
			return name
		}
	}
	return codec.FuncName(fn)
}
