package steps

import (
	"context"

	"github.com/askiada/go-steps/pkg/step"
)

// EchoStep copies every input to its output. The token input is sensitive: it is masked
// in logs and representations, on the input and on the output.
var EchoStep = step.MustDefine(step.TypeSpec{
	Name:        "EchoStep",
	Description: "Copy inputs to outputs.",
	Inputs: []step.Field{
		{Name: "message", Default: ""},
		{Name: "token", Sensitive: true},
	},
	Outputs: []step.Field{
		{Name: "message", Required: true},
		{Name: "token", Sensitive: true},
	},
	Execute: func(_ context.Context, s *step.Step) (any, error) {
		res := make(map[string]any, len(s.Inputs()))
		for key, value := range s.Inputs() {
			res[key] = value
		}

		return res, nil
	},
})
