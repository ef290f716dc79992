// Package logging builds the slog loggers used by stepctl.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnknownFormat = errors.New("unknown log format")

// Format is the encoding of log records.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseLevel maps debug, info, warn and error to a slog level. Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger writing records of at least level to wrt.
func New(wrt io.Writer, level string, format Format) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	switch Format(strings.ToLower(string(format))) {
	case FormatText, "":
		return slog.New(slog.NewTextHandler(wrt, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(wrt, opts)), nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}
