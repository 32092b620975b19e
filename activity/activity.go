// Package activity is a workflow activity model expressed in markup.
//
// A Workflow holds a tree of activities. Composite activities (Sequence,
// Parallel, IfElse and Branch) hold their children as content, so a
// workflow document reads top-down:
//
//	<Workflow xmlns="http://vine.io/markup/2023/workflow"
//	    xmlns:x="http://vine.io/markup/2023/definitions" x:Name="approve">
//	  <Code x:Name="load" ExecuteCode="Load"/>
//	  <IfElse x:Name="check">
//	    <Branch x:Name="big" Condition="{Rule Expression=amount > 100}" Rules.Priority="1">
//	      <Delay x:Name="wait">1h0m0s</Delay>
//	    </Branch>
//	  </IfElse>
//	</Workflow>
package activity

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vine-io/markup/property"
)

type Shape int32

const (
	WorkflowShape Shape = iota + 1
	SequenceShape
	ParallelShape
	CodeShape
	DelayShape
	IfElseShape
	BranchShape
)

func (s Shape) String() string {
	switch s {
	case WorkflowShape:
		return "Workflow"
	case SequenceShape:
		return "Sequence"
	case ParallelShape:
		return "Parallel"
	case CodeShape:
		return "Code"
	case DelayShape:
		return "Delay"
	case IfElseShape:
		return "IfElse"
	case BranchShape:
		return "Branch"
	default:
		return "Activity"
	}
}

type Activity interface {
	GetShape() Shape
	GetName() string
	SetName(string)
}

// Composite is an activity holding child activities.
type Composite interface {
	Activity
	Append(Activity) error
	Activities() []Activity
}

// Meta carries what every activity has. Its Name is written as x:Name.
type Meta struct {
	property.DependencyObject

	Name        string
	Description string `markup:"omitempty"`
	Enabled     bool   `markup:"default:true"`
}

func (m *Meta) GetName() string {
	return m.Name
}

func (m *Meta) SetName(name string) {
	m.Name = name
}

func (m *Meta) RuntimeNameProperty() string {
	return "Name"
}

// Mode selects how the top-level activities of a workflow run.
type Mode int32

const (
	Sequential Mode = iota
	Concurrent
)

func (Mode) EnumNames() []string {
	return []string{"Sequential", "Concurrent"}
}

// Handler is the code run by a Code activity.
type Handler func(ctx context.Context, a Activity) error

var (
	_ Composite = (*Workflow)(nil)
	_ Composite = (*Sequence)(nil)
	_ Composite = (*Parallel)(nil)
	_ Composite = (*IfElse)(nil)
	_ Composite = (*Branch)(nil)
	_ Activity  = (*Code)(nil)
	_ Activity  = (*Delay)(nil)
)

type Workflow struct {
	Meta

	ID         uuid.UUID
	Created    time.Time
	Budget     decimal.Decimal `markup:"omitempty"`
	Mode       Mode            `markup:"default:Sequential"`
	Timeout    time.Duration   `markup:"omitempty"`
	Parameters map[string]string
	Steps      []Activity `markup:"content"`
}

func NewWorkflow() *Workflow {
	return &Workflow{Meta: Meta{Enabled: true}}
}

func (w *Workflow) GetShape() Shape { return WorkflowShape }

func (w *Workflow) Append(a Activity) error {
	w.Steps = append(w.Steps, a)
	return nil
}

func (w *Workflow) Activities() []Activity { return w.Steps }

func (w *Workflow) Validate() error {
	return validation.ValidateStruct(w,
		validation.Field(&w.Name, validation.Required),
		validation.Field(&w.ID, validation.By(func(any) error {
			if w.ID == uuid.Nil {
				return fmt.Errorf("must be set")
			}
			return nil
		})),
		validation.Field(&w.Mode, validation.Min(Sequential), validation.Max(Concurrent)),
		validation.Field(&w.Timeout, validation.Min(time.Duration(0))),
	)
}

// AfterDeserialize rejects workflows that could not run.
func (w *Workflow) AfterDeserialize() error {
	return w.Validate()
}

type Sequence struct {
	Meta

	Steps []Activity `markup:"content"`
}

func NewSequence() *Sequence {
	return &Sequence{Meta: Meta{Enabled: true}}
}

func (s *Sequence) GetShape() Shape { return SequenceShape }

func (s *Sequence) Append(a Activity) error {
	s.Steps = append(s.Steps, a)
	return nil
}

func (s *Sequence) Activities() []Activity { return s.Steps }

type Parallel struct {
	Meta

	Branches []Activity `markup:"content"`
}

func NewParallel() *Parallel {
	return &Parallel{Meta: Meta{Enabled: true}}
}

func (p *Parallel) GetShape() Shape { return ParallelShape }

func (p *Parallel) Append(a Activity) error {
	p.Branches = append(p.Branches, a)
	return nil
}

func (p *Parallel) Activities() []Activity { return p.Branches }

type Code struct {
	Meta

	ExecuteCode Handler
}

func NewCode() *Code {
	return &Code{Meta: Meta{Enabled: true}}
}

func (c *Code) GetShape() Shape { return CodeShape }

// Execute runs the bound handler. A Code without one does nothing.
func (c *Code) Execute(ctx context.Context) error {
	if c.ExecuteCode == nil {
		return nil
	}
	return c.ExecuteCode(ctx, c)
}

type Delay struct {
	Meta

	Duration time.Duration `markup:"content"`
}

func NewDelay() *Delay {
	return &Delay{Meta: Meta{Enabled: true}}
}

func (d *Delay) GetShape() Shape { return DelayShape }

type IfElse struct {
	Meta

	Branches []*Branch `markup:"content"`
}

func NewIfElse() *IfElse {
	return &IfElse{Meta: Meta{Enabled: true}}
}

func (e *IfElse) GetShape() Shape { return IfElseShape }

func (e *IfElse) Append(a Activity) error {
	b, ok := a.(*Branch)
	if !ok {
		return fmt.Errorf("IfElse %s takes branches, not %s", e.Name, a.GetShape())
	}
	e.Branches = append(e.Branches, b)
	return nil
}

func (e *IfElse) Activities() []Activity {
	out := make([]Activity, 0, len(e.Branches))
	for _, b := range e.Branches {
		out = append(out, b)
	}
	return out
}

// Branch runs its steps when Condition holds. A branch without a condition
// is the else branch.
type Branch struct {
	Meta

	Condition *Rule
	Steps     []Activity `markup:"content"`
}

func NewBranch() *Branch {
	return &Branch{Meta: Meta{Enabled: true}}
}

func (b *Branch) GetShape() Shape { return BranchShape }

func (b *Branch) Append(a Activity) error {
	b.Steps = append(b.Steps, a)
	return nil
}

func (b *Branch) Activities() []Activity { return b.Steps }
