package step

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrTypeNameMustBeSet   = errors.New("type name must be set")
	ErrTypeMustBeSet       = errors.New("type must be set")
	ErrTypeExists          = errors.New("type already defined")
	ErrUnknownParent       = errors.New("parent type is not defined in this registry")
	ErrNoExecute           = errors.New("no execute implementation found in type chain")
	ErrAbstractType        = errors.New("abstract type cannot be instantiated")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidOutput       = errors.New("invalid output")
	ErrNoParentExecute     = errors.New("no parent execute to delegate to")
	ErrSuperOutsideExecute = errors.New("super must be called from an execute implementation")
	ErrInvalidRules        = errors.New("invalid validation rules")
)

// WrappingError is returned when a type cannot be defined.
type WrappingError struct {
	Type string
	Err  error
}

func (e *WrappingError) Error() string {
	return fmt.Sprintf("unable to define step type %q: %v", e.Type, e.Err)
}

func (e *WrappingError) Unwrap() error {
	return e.Err
}

// ConfigurationError is returned by New when the inputs do not satisfy the input schema
// of the type, or when the type cannot be instantiated at all.
type ConfigurationError struct {
	Invalid map[string]error
	Err     error
	Type    string
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("step type %q: %v%s", e.Type, e.Err, fieldProblems(e.Missing, e.Invalid))
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// OutputValidationError is returned by Execute when the output misses required fields or
// holds values that fail their field checks.
type OutputValidationError struct {
	Invalid map[string]error
	Step    string
	Missing []string
}

func (e *OutputValidationError) Error() string {
	return fmt.Sprintf("step %q: %v%s", e.Step, ErrInvalidOutput, fieldProblems(e.Missing, e.Invalid))
}

func (e *OutputValidationError) Unwrap() error {
	return ErrInvalidOutput
}

// OutputTypeWarning is emitted when an execute implementation returns a value that cannot
// be merged into the output. It never fails the call.
type OutputTypeWarning struct {
	Step string
	Got  string
}

func (w *OutputTypeWarning) Error() string {
	return fmt.Sprintf("execute of step %q returned %s instead of an output, the value is ignored", w.Step, w.Got)
}

func fieldProblems(missing []string, invalid map[string]error) string {
	var sbd strings.Builder

	if len(missing) > 0 {
		sbd.WriteString(": missing ")
		sbd.WriteString(strings.Join(missing, ", "))
	}

	if len(invalid) == 0 {
		return sbd.String()
	}

	names := make([]string, 0, len(invalid))
	for name := range invalid {
		names = append(names, name)
	}

	sort.Strings(names)

	sbd.WriteString(": invalid ")

	for i, name := range names {
		if i > 0 {
			sbd.WriteString(", ")
		}

		fmt.Fprintf(&sbd, "%s (%v)", name, invalid[name])
	}

	return sbd.String()
}
