package pipeline

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-steps/pkg/step"
)

// Outputs maps node names to the output of their step.
type Outputs map[string]*step.Output

// Resolve returns the value referenced by "<step>.<output field>". Step names may contain
// dots: the reference is split on the last one.
func (o Outputs) Resolve(ref string) (any, error) {
	name, field, err := splitReference(ref)
	if err != nil {
		return nil, err
	}

	out, ok := o[name]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidBinding, "no output for step %s", name)
	}

	value, ok := out.Get(field)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidBinding, "step %s has no output %s", name, field)
	}

	return value, nil
}

func splitReference(ref string) (string, string, error) {
	idx := strings.LastIndex(ref, ".")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", errors.Wrapf(ErrInvalidBinding, "reference %q is not <step>.<field>", ref)
	}

	return ref[:idx], ref[idx+1:], nil
}
