package pipeline

import (
	"github.com/pkg/errors"
)

var (
	ErrNameMustBeSet    = errors.New("step name must be set")
	ErrBuilderMustBeSet = errors.New("builder must be set")
	ErrStepExists       = errors.New("step already exists")
	ErrUnknownStep      = errors.New("unknown step")
	ErrInvalidBinding   = errors.New("invalid binding")
	ErrNotRun           = errors.New("pipeline has not run successfully")
)
