package step

import (
	"log/slog"
)

// lifecycleLogger emits the start, end and failure events of top-level executions.
type lifecycleLogger struct {
	logger *slog.Logger
}

func (l lifecycleLogger) start(s *Step) {
	l.logger.Info("Start running step")
	l.logger.Debug("Step input", slog.Any("input", s.inputValue()))
}

func (l lifecycleLogger) end(s *Step) {
	l.logger.Debug("Step output", slog.Any("output", s.Output().LogValue()))
	l.logger.Info("Finished running step")
}

func (l lifecycleLogger) failure(s *Step, err error) {
	l.logger.Error("Error while running step", slog.Any("error", err), slog.Any("input", s.inputValue()))
}

func (l lifecycleLogger) warn(_ *Step, warning *OutputTypeWarning) {
	l.logger.Warn(warning.Error())
}
