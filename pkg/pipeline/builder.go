package pipeline

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/askiada/go-steps/pkg/step"
)

// Builder creates the step a node executes. Build is called once per run with the outputs
// of the nodes the node runs after. defaults carry the name and logger assigned by the
// pipeline and must be applied before any option of the builder.
type Builder interface {
	Build(ctx context.Context, upstream Outputs, defaults ...step.Option) (*step.Step, error)
}

// BuildFunc adapts a function to Builder.
type BuildFunc func(ctx context.Context, upstream Outputs, defaults ...step.Option) (*step.Step, error)

func (f BuildFunc) Build(ctx context.Context, upstream Outputs, defaults ...step.Option) (*step.Step, error) {
	return f(ctx, upstream, defaults...)
}

// TypeBuilder builds steps of one type from static inputs and bindings to upstream
// outputs.
type TypeBuilder struct {
	typ      *step.Type
	inputs   step.Inputs
	bindings map[string]string
	opts     []step.Option
}

// StepOf builds a step of typ with static inputs.
func StepOf(typ *step.Type, inputs step.Inputs, opts ...step.Option) *TypeBuilder {
	return Bind(typ, inputs, nil, opts...)
}

// Bind builds a step of typ whose inputs are completed from upstream outputs. bindings
// maps an input field to a reference "<step>.<output field>"; the referenced step must be
// one the node runs after. Bound values override static inputs.
func Bind(typ *step.Type, inputs step.Inputs, bindings map[string]string, opts ...step.Option) *TypeBuilder {
	return &TypeBuilder{
		typ:      typ,
		inputs:   inputs,
		bindings: bindings,
		opts:     opts,
	}
}

func (b *TypeBuilder) Type() *step.Type {
	return b.typ
}

// Bindings returns the input bindings of the builder.
func (b *TypeBuilder) Bindings() map[string]string {
	return b.bindings
}

func (b *TypeBuilder) Build(_ context.Context, upstream Outputs, defaults ...step.Option) (*step.Step, error) {
	inputs := make(step.Inputs, len(b.inputs)+len(b.bindings))
	for k, v := range b.inputs {
		inputs[k] = v
	}

	fields := make([]string, 0, len(b.bindings))
	for field := range b.bindings {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	for _, field := range fields {
		value, err := upstream.Resolve(b.bindings[field])
		if err != nil {
			return nil, errors.Wrapf(err, "input %s", field)
		}

		inputs[field] = value
	}

	opts := make([]step.Option, 0, len(defaults)+len(b.opts))
	opts = append(opts, defaults...)
	opts = append(opts, b.opts...)

	return step.New(b.typ, inputs, opts...)
}

var _ Builder = (*TypeBuilder)(nil)
