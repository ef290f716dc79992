package pipeline

import (
	"log/slog"

	"github.com/askiada/go-steps/pkg/pipeline/model"
)

type PipelineOption func(p *Pipeline)

// Concurrency limits how many nodes execute at the same time. Values below 1 mean one.
func Concurrency(concurrent int) PipelineOption {
	return func(p *Pipeline) {
		if concurrent < 1 {
			concurrent = 1
		}

		p.concurrent = concurrent
	}
}

// Logger sets the logger of the pipeline. Steps built by the pipeline log through it too.
func Logger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Hooks registers hooks notified of the pipeline lifecycle.
func Hooks(hooks ...model.PipelineOption) PipelineOption {
	return func(p *Pipeline) {
		p.hooks = append(p.hooks, hooks...)
	}
}
