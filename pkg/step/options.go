package step

import "log/slog"

type Option func(s *Step)

// WithName overrides the name of the step, which defaults to the type name.
func WithName(name string) Option {
	return func(s *Step) {
		s.name = name
	}
}

// WithDescription overrides the description of the step.
func WithDescription(description string) Option {
	return func(s *Step) {
		s.description = description
	}
}

// WithLogger sets the logger lifecycle events are written to. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Step) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWarningHandler registers fn to receive non fatal warnings, in addition to the log.
func WithWarningHandler(fn func(*OutputTypeWarning)) Option {
	return func(s *Step) {
		s.onWarning = fn
	}
}
