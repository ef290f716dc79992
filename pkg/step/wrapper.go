package step

import (
	"context"
	"fmt"
)

// sentinel marks executes wrapped by one registry. It has a size so that distinct
// allocations never share an address.
type sentinel struct {
	registry string
}

// wrapped is the lifecycle wrapper installed on a type around one raw implementation.
type wrapped struct {
	owner  *Type
	impl   ExecuteFunc
	marker *sentinel
	count  int
}

// resolveExecute finds the execute to install on t. Walking from t to the root, the first
// level that either carries an execute already wrapped by marker (inherited unchanged) or
// declares a raw implementation (wrapped now) wins.
func resolveExecute(t *Type, marker *sentinel) (*wrapped, error) {
	for level := t; level != nil; level = level.parent {
		if level.execute != nil && level.execute.marker == marker {
			return level.execute, nil
		}

		if level.impl != nil {
			w := &wrapped{
				owner:  level,
				impl:   level.impl,
				marker: marker,
			}
			w.count++

			return w, nil
		}
	}

	if t.abstract {
		return nil, nil
	}

	return nil, ErrNoExecute
}

func (w *wrapped) call(ctx context.Context, s *Step) (*Output, error) {
	delegated := s.frames.enter(w.owner)
	defer s.frames.exit()

	if !delegated {
		s.lifecycle.start(s)
	}

	ret, err := w.impl(ctx, s)
	if err != nil {
		if !delegated {
			s.lifecycle.failure(s, err)
		}

		return nil, err
	}

	out := s.reconcile(ret)

	if delegated {
		return out, nil
	}

	if _, err := out.Validate(); err != nil {
		s.lifecycle.failure(s, err)

		return nil, err
	}

	s.lifecycle.end(s)

	return out, nil
}

// reconcile merges a value returned by an implementation into the live output.
func (s *Step) reconcile(ret any) *Output {
	out := s.Output()

	switch v := ret.(type) {
	case nil:
	case *Output:
		if v != nil && v != out {
			out.Merge(v)
		}
	case map[string]any:
		out.MergeMap(v)
	default:
		warning := &OutputTypeWarning{Step: s.name, Got: fmt.Sprintf("%T", ret)}
		s.lifecycle.warn(s, warning)

		if s.onWarning != nil {
			s.onWarning(warning)
		}
	}

	return out
}
