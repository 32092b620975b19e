package activity

import (
	"reflect"

	"github.com/vine-io/markup/schema"
)

const (
	// Namespace is the xmlns of the activity types.
	Namespace = "http://vine.io/markup/2023/workflow"
	// Prefix is the prefix the assembly asks for.
	Prefix = "wf"

	AssemblyName = "vine.markup.activity"
)

var pkgPath = reflect.TypeOf(Workflow{}).PkgPath()

// Assembly describes the activity types for a schema.Registry.
func Assembly() *schema.Assembly {
	return schema.NewAssembly(AssemblyName).
		Namespace(Namespace, pkgPath, Prefix).
		Type(Workflow{}, NewWorkflow).
		Type(Sequence{}, NewSequence).
		Type(Parallel{}, NewParallel).
		Type(Code{}, NewCode).
		Type(Delay{}, NewDelay).
		Type(IfElse{}, NewIfElse).
		Type(Branch{}, NewBranch).
		Type(Rule{}, NewRule).
		Type(Rules{}).
		Property(PriorityProperty)
}

// Register adds the activity assembly to reg.
func Register(reg *schema.Registry) error {
	return reg.Register(Assembly())
}
