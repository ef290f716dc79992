package steps

import (
	"context"
	"strings"

	"github.com/askiada/go-steps/pkg/step"
)

// DummyStep copies its inputs a and b to its output and sets c to a repeated b times.
//
//	s, _ := steps.DummyStep.New(step.Inputs{"a": "a", "b": 2})
//	out, _ := s.Execute(ctx) // a: "a", b: 2, c: "aa"
var DummyStep = step.MustDefine(step.TypeSpec{
	Name:        "DummyStep",
	Description: "Dummy step for testing purposes.",
	Inputs: []step.Field{
		{Name: "a", Required: true, Description: "text to repeat"},
		{Name: "b", Required: true, Rules: "gte=0", Description: "number of repetitions"},
	},
	Outputs: []step.Field{
		{Name: "a", Required: true},
		{Name: "b", Required: true},
		{Name: "c", Required: true, Description: "a repeated b times"},
	},
	Execute: func(_ context.Context, s *step.Step) (any, error) {
		times, err := s.InputInt("b")
		if err != nil {
			return nil, err
		}

		text := s.InputString("a")

		s.Output().
			Set("a", text).
			Set("b", times).
			Set("c", strings.Repeat(text, times))

		return nil, nil
	},
})

// UpperDummyStep runs DummyStep and adds the upper case version of c.
var UpperDummyStep = step.MustDefine(step.TypeSpec{
	Name:        "UpperDummyStep",
	Description: "Dummy step adding an upper case copy of its result.",
	Parent:      DummyStep,
	Outputs:     []step.Field{{Name: "upper", Required: true}},
	Execute: func(ctx context.Context, s *step.Step) (any, error) {
		out, err := s.Super(ctx)
		if err != nil {
			return nil, err
		}

		c, _ := out.Value("c").(string)

		return map[string]any{"upper": strings.ToUpper(c)}, nil
	},
})
