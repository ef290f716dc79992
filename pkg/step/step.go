package step

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const maxDescriptionLength = 120

// Inputs are the values a step is constructed with, keyed by input field name.
type Inputs map[string]any

// Step is an instance of a Type with validated inputs. A step may execute any number of
// times but must not execute concurrently: build one instance per goroutine.
type Step struct {
	typ         *Type
	inputs      map[string]any
	output      *Output
	logger      *slog.Logger
	onWarning   func(*OutputTypeWarning)
	lifecycle   lifecycleLogger
	name        string
	description string
	frames      callStack
}

// New validates inputs against the input schema of typ and returns a step ready to
// execute. Defaults fill absent inputs, and string values of sensitive fields are stored
// as Secret. Invalid inputs fail with a *ConfigurationError before anything runs.
func New(typ *Type, inputs Inputs, opts ...Option) (*Step, error) {
	if typ == nil {
		return nil, &ConfigurationError{Err: ErrTypeMustBeSet}
	}

	if typ.abstract || typ.execute == nil {
		return nil, &ConfigurationError{Type: typ.name, Err: ErrAbstractType}
	}

	values := prepareInputs(typ.inputs, inputs)

	missing, invalid := typ.inputs.check(values)
	if len(missing) > 0 || len(invalid) > 0 {
		return nil, &ConfigurationError{
			Type:    typ.name,
			Missing: missing,
			Invalid: invalid,
			Err:     ErrInvalidInput,
		}
	}

	s := &Step{
		typ:    typ,
		inputs: values,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.name == "" {
		s.name = typ.name
	}

	s.description = describe(s.description, typ.description, s.name)
	s.lifecycle = lifecycleLogger{logger: s.logger.With(slog.String("step", s.name))}

	return s, nil
}

// FromStep builds a step of typ from the inputs of other, with overrides applied on top.
func FromStep(typ *Type, other *Step, overrides Inputs, opts ...Option) (*Step, error) {
	inputs := make(Inputs, len(other.inputs)+len(overrides))
	for k, v := range other.inputs {
		inputs[k] = v
	}

	for k, v := range overrides {
		inputs[k] = v
	}

	return New(typ, inputs, opts...)
}

func prepareInputs(schema *Schema, inputs Inputs) map[string]any {
	values := make(map[string]any, len(inputs)+schema.Len())
	for k, v := range inputs {
		values[k] = v
	}

	for _, f := range schema.Fields() {
		value, ok := values[f.Name]
		if (!ok || value == nil) && f.Default != nil {
			values[f.Name] = f.Default
		}

		if str, ok := values[f.Name].(string); ok && f.Sensitive {
			values[f.Name] = NewSecret(str)
		}
	}

	return values
}

// describe picks the first non empty line of the first non empty candidate and shortens
// it to about maxDescriptionLength characters, cutting on a word boundary.
func describe(candidates ...string) string {
	var desc string

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		for _, line := range strings.SplitN(candidate, "\n", 3) {
			if line = strings.TrimSpace(line); line != "" {
				desc = line

				break
			}
		}

		break
	}

	runes := []rune(desc)
	if len(runes) <= maxDescriptionLength {
		return desc
	}

	cut := maxDescriptionLength - 3
	if idx := slices.Index(runes[maxDescriptionLength-5:], ' '); idx != -1 {
		cut = maxDescriptionLength - 5 + idx
	}

	return string(runes[:cut]) + "..."
}

// Execute runs the step and returns its validated output. The error of the execute
// implementation is returned as is.
func (s *Step) Execute(ctx context.Context) (*Output, error) {
	return s.typ.execute.call(ctx, s)
}

// Run is an alias of Execute.
func (s *Step) Run(ctx context.Context) (*Output, error) {
	return s.Execute(ctx)
}

// Super runs the execute of the parent of the type whose implementation is currently
// running. Delegated calls neither log nor validate: the outermost call does.
func (s *Step) Super(ctx context.Context) (*Output, error) {
	owner, ok := s.frames.current()
	if !ok {
		return nil, ErrSuperOutsideExecute
	}

	if owner.parent == nil || owner.parent.execute == nil {
		return nil, ErrNoParentExecute
	}

	return owner.parent.execute.call(ctx, s)
}

// Output returns the output of the step, creating it on first access.
func (s *Step) Output() *Output {
	if s.output == nil {
		s.output = newStepOutput(s)
	}

	return s.output
}

func (s *Step) Type() *Type {
	return s.typ
}

func (s *Step) Name() string {
	return s.name
}

func (s *Step) Description() string {
	return s.description
}

// Logger returns the logger of the step, tagged with its name.
func (s *Step) Logger() *slog.Logger {
	return s.lifecycle.logger
}

// Input returns the raw value of an input. Secrets stay wrapped; see InputString.
func (s *Step) Input(key string) any {
	return s.inputs[key]
}

// Inputs returns a copy of the raw input values.
func (s *Step) Inputs() Inputs {
	res := make(Inputs, len(s.inputs))
	for k, v := range s.inputs {
		res[k] = v
	}

	return res
}

// InputString returns an input as a string. Secrets are revealed.
func (s *Step) InputString(key string) string {
	switch v := reveal(s.inputs[key]).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// InputInt returns an input as an int, converting numeric and string values. Fractional
// numbers and values outside the int range are rejected.
func (s *Step) InputInt(key string) (int, error) {
	switch v := reveal(s.inputs[key]).(type) {
	case int:
		return v, nil
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return 0, errors.Errorf("input %s: %d overflows int", key, v)
		}

		return int(v), nil
	case int32:
		return int(v), nil
	case uint:
		if v > math.MaxInt {
			return 0, errors.Errorf("input %s: %d overflows int", key, v)
		}

		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			return 0, errors.Errorf("input %s: %d overflows int", key, v)
		}

		return int(v), nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt || v >= math.MaxInt {
			return 0, errors.Errorf("input %s: %v is not an int", key, v)
		}

		return int(v), nil
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, errors.Wrapf(err, "input %s", key)
		}

		return i, nil
	default:
		return 0, errors.Errorf("input %s: cannot convert %T to int", key, v)
	}
}

// InputSecret returns an input as a Secret, wrapping plain strings.
func (s *Step) InputSecret(key string) Secret {
	switch v := s.inputs[key].(type) {
	case Secret:
		return v
	case *Secret:
		if v != nil {
			return *v
		}
	case string:
		return NewSecret(v)
	}

	return Secret{}
}

func (s *Step) inputValue() slog.Value {
	return maskedGroup(s.typ.inputs, s.inputs, inputKeys(s.typ.inputs, s.inputs))
}
