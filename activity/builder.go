package activity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vine-io/pkg/xname"
)

// Builder builds a Workflow. Composite activities opened with Sequence,
// Parallel, IfElse and Branch receive what follows until the matching End.
type Builder struct {
	w     *Workflow
	stack []Composite
	last  Activity
	err   error
}

func NewBuilder(name string) *Builder {
	w := NewWorkflow()
	w.Name = name
	w.ID = uuid.New()
	w.Created = time.Now().UTC()
	if w.Name == "" {
		w.Name = randShapeName(w)
	}
	return &Builder{w: w, stack: []Composite{w}}
}

func (b *Builder) Mode(mode Mode) *Builder {
	b.w.Mode = mode
	return b
}

func (b *Builder) Budget(budget decimal.Decimal) *Builder {
	b.w.Budget = budget
	return b
}

func (b *Builder) Timeout(timeout time.Duration) *Builder {
	b.w.Timeout = timeout
	return b
}

func (b *Builder) Param(key, value string) *Builder {
	if b.w.Parameters == nil {
		b.w.Parameters = map[string]string{}
	}
	b.w.Parameters[key] = value
	return b
}

// AppendElem adds a to the innermost open composite.
func (b *Builder) AppendElem(a Activity) *Builder {
	if b.err != nil {
		return b
	}
	if a.GetName() == "" {
		a.SetName(randShapeName(a))
	}
	if err := b.stack[len(b.stack)-1].Append(a); err != nil {
		b.err = err
		return b
	}
	b.last = a
	return b
}

func (b *Builder) Code(name string, fn Handler) *Builder {
	c := NewCode()
	c.Name = name
	c.ExecuteCode = fn
	return b.AppendElem(c)
}

func (b *Builder) Delay(name string, d time.Duration) *Builder {
	delay := NewDelay()
	delay.Name = name
	delay.Duration = d
	return b.AppendElem(delay)
}

func (b *Builder) Sequence(name string) *Builder {
	s := NewSequence()
	s.Name = name
	return b.open(s)
}

func (b *Builder) Parallel(name string) *Builder {
	p := NewParallel()
	p.Name = name
	return b.open(p)
}

func (b *Builder) IfElse(name string) *Builder {
	e := NewIfElse()
	e.Name = name
	return b.open(e)
}

// Branch opens a branch of the innermost IfElse. A nil rule makes the
// else branch.
func (b *Builder) Branch(name string, rule *Rule) *Builder {
	if b.err == nil {
		if _, ok := b.stack[len(b.stack)-1].(*IfElse); !ok {
			b.err = fmt.Errorf("branch %s outside of an IfElse", name)
			return b
		}
	}
	br := NewBranch()
	br.Name = name
	br.Condition = rule
	return b.open(br)
}

// Priority sets the attached Rules.Priority of the last added activity.
func (b *Builder) Priority(priority int) *Builder {
	if b.err != nil {
		return b
	}
	if b.last == nil {
		b.err = fmt.Errorf("priority %d set before any activity", priority)
		return b
	}
	Rules{}.SetPriority(b.last, priority)
	return b
}

// End closes the innermost open composite.
func (b *Builder) End() *Builder {
	if b.err != nil {
		return b
	}
	if len(b.stack) == 1 {
		b.err = fmt.Errorf("end without an open activity")
		return b
	}
	b.last = b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return b
}

func (b *Builder) Out() (*Workflow, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.stack) != 1 {
		return nil, fmt.Errorf("%s %s is not closed", b.stack[len(b.stack)-1].GetShape(), b.stack[len(b.stack)-1].GetName())
	}

	names := map[string]struct{}{}
	var dup error
	Walk(b.w, func(a Activity) bool {
		if _, ok := names[a.GetName()]; ok {
			dup = fmt.Errorf("duplicate activity name %s", a.GetName())
			return false
		}
		names[a.GetName()] = struct{}{}
		return true
	})
	if dup != nil {
		return nil, dup
	}
	if err := b.w.Validate(); err != nil {
		return nil, err
	}
	return b.w, nil
}

func (b *Builder) open(c Composite) *Builder {
	b.AppendElem(c)
	if b.err == nil {
		b.stack = append(b.stack, c)
	}
	return b
}

// Walk visits a and its descendants depth first until fn returns false.
func Walk(a Activity, fn func(Activity) bool) bool {
	if !fn(a) {
		return false
	}
	if c, ok := a.(Composite); ok {
		for _, child := range c.Activities() {
			if !Walk(child, fn) {
				return false
			}
		}
	}
	return true
}

func randName() string {
	return xname.Gen(xname.C(7), xname.Lowercase(), xname.Digit())
}

func randShapeName(a Activity) string {
	return a.GetShape().String() + "_" + randName()
}
