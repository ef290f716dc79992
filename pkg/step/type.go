package step

import (
	"context"
)

// ExecuteFunc is the business logic of a step type. It reads inputs from s, writes results
// to s.Output() and may return a *Output or a map[string]any to be merged into it.
type ExecuteFunc func(ctx context.Context, s *Step) (any, error)

// TypeSpec describes a step type to Define.
type TypeSpec struct {
	// Parent is the type this one extends. Its input and output fields are inherited and
	// its execute is used when Execute is nil.
	Parent      *Type
	Execute     ExecuteFunc
	Name        string
	Description string
	Inputs      []Field
	Outputs     []Field
	// Abstract types may lack an execute implementation and cannot be instantiated.
	Abstract bool
}

// Type is a defined step type. It is immutable once Define returns.
type Type struct {
	parent      *Type
	registry    *Registry
	inputs      *Schema
	outputs     *Schema
	impl        ExecuteFunc
	execute     *wrapped
	name        string
	description string
	abstract    bool
}

func (t *Type) Name() string {
	return t.name
}

func (t *Type) Description() string {
	return t.description
}

func (t *Type) Parent() *Type {
	return t.parent
}

func (t *Type) Abstract() bool {
	return t.abstract
}

func (t *Type) Inputs() *Schema {
	return t.inputs
}

func (t *Type) Outputs() *Schema {
	return t.outputs
}

// Declares reports whether t provides its own execute implementation.
func (t *Type) Declares() bool {
	return t.impl != nil
}

// WrapCount returns how many lifecycle wrappers surround the execute installed on t.
// It is 1 for every concrete type and 0 for abstract types without an implementation.
func (t *Type) WrapCount() int {
	if t.execute == nil {
		return 0
	}

	return t.execute.count
}

// ExecuteOwner returns the type whose implementation runs when t executes.
func (t *Type) ExecuteOwner() *Type {
	if t.execute == nil {
		return nil
	}

	return t.execute.owner
}

// Ancestors returns the parents of t, nearest first.
func (t *Type) Ancestors() []*Type {
	var res []*Type
	for p := t.parent; p != nil; p = p.parent {
		res = append(res, p)
	}

	return res
}

// Is reports whether t is other or extends it.
func (t *Type) Is(other *Type) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}

	return false
}

// New is a shorthand for New(t, inputs, opts...).
func (t *Type) New(inputs Inputs, opts ...Option) (*Step, error) {
	return New(t, inputs, opts...)
}
