package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/askiada/go-steps/pkg/pipeline"
	"github.com/askiada/go-steps/pkg/step"
)

type testTypes struct {
	source *step.Type
	double *step.Type
	sum    *step.Type
	fail   *step.Type
	sleep  *step.Type
}

func newTestTypes(t *testing.T) *testTypes {
	t.Helper()

	reg := step.NewRegistry()

	return &testTypes{
		source: reg.MustDefine(step.TypeSpec{
			Name:    "Source",
			Inputs:  []step.Field{{Name: "value", Required: true}},
			Outputs: []step.Field{{Name: "value", Required: true}},
			Execute: func(_ context.Context, s *step.Step) (any, error) {
				return map[string]any{"value": s.Input("value")}, nil
			},
		}),
		double: reg.MustDefine(step.TypeSpec{
			Name:    "Double",
			Inputs:  []step.Field{{Name: "n", Required: true}},
			Outputs: []step.Field{{Name: "n", Required: true}},
			Execute: func(_ context.Context, s *step.Step) (any, error) {
				n, err := s.InputInt("n")
				if err != nil {
					return nil, err
				}

				s.Output().Set("n", 2*n)

				return nil, nil
			},
		}),
		sum: reg.MustDefine(step.TypeSpec{
			Name:    "Sum",
			Inputs:  []step.Field{{Name: "left", Required: true}, {Name: "right", Required: true}},
			Outputs: []step.Field{{Name: "sum", Required: true}},
			Execute: func(_ context.Context, s *step.Step) (any, error) {
				left, err := s.InputInt("left")
				if err != nil {
					return nil, err
				}

				right, err := s.InputInt("right")
				if err != nil {
					return nil, err
				}

				s.Output().Set("sum", left+right)

				return nil, nil
			},
		}),
		fail: reg.MustDefine(step.TypeSpec{
			Name: "Fail",
			Execute: func(context.Context, *step.Step) (any, error) {
				return nil, assert.AnError
			},
		}),
		sleep: reg.MustDefine(step.TypeSpec{
			Name:   "Sleep",
			Inputs: []step.Field{{Name: "duration", Default: time.Duration(0)}},
			Execute: func(ctx context.Context, s *step.Step) (any, error) {
				duration, _ := s.Input("duration").(time.Duration)

				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(duration):
				}

				return nil, nil
			},
		}),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// inFlight builds steps that record how many of them execute at the same time.
type inFlight struct {
	current atomic.Int64
	max     atomic.Int64
	calls   atomic.Int64
}

func (f *inFlight) builder(typ *step.Type, hold time.Duration) pipeline.BuildFunc {
	return func(_ context.Context, _ pipeline.Outputs, defaults ...step.Option) (*step.Step, error) {
		f.calls.Add(1)

		cur := f.current.Add(1)
		for {
			prev := f.max.Load()
			if cur <= prev || f.max.CompareAndSwap(prev, cur) {
				break
			}
		}

		defer f.current.Add(-1)

		time.Sleep(hold)

		return step.New(typ, nil, defaults...)
	}
}
