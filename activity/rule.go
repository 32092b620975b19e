package activity

import (
	"fmt"
	"reflect"

	"github.com/vine-io/markup/property"
	"github.com/vine-io/markup/schema"
)

// Rule is a branch condition. Written inline it takes the compact form
// {wf:Rule Expression=text}.
type Rule struct {
	Expression string
	Negate     bool `markup:"omitempty"`
}

var _ schema.MarkupExtension = (*Rule)(nil)

func NewRule(expression string) *Rule {
	return &Rule{Expression: expression}
}

func (r *Rule) ProvideValue(schema.ValueContext) (any, error) {
	if r.Expression == "" {
		return nil, fmt.Errorf("rule requires an expression")
	}
	return r, nil
}

func (r *Rule) String() string {
	if r.Negate {
		return "!(" + r.Expression + ")"
	}
	return r.Expression
}

// Rules owns the attached Priority property: the evaluation order of a
// branch among its siblings, lowest first.
type Rules struct{}

var PriorityProperty = &schema.DependencyProperty{
	Name:     "Priority",
	Type:     reflect.TypeOf(0),
	Owner:    reflect.TypeOf(Rules{}),
	Attached: true,
	Default:  0,
}

func (Rules) GetPriority(a Activity) int {
	h, ok := a.(property.Holder)
	if !ok {
		return 0
	}
	v, _ := h.Store().GetValue(PriorityProperty).(int)
	return v
}

func (Rules) SetPriority(a Activity, priority int) {
	if h, ok := a.(property.Holder); ok {
		h.Store().SetValue(PriorityProperty, priority)
	}
}
