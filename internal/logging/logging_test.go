package logging_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-steps/internal/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in   string
		want slog.Level
	}{
		"debug":   {in: "debug", want: slog.LevelDebug},
		"upper":   {in: " DEBUG ", want: slog.LevelDebug},
		"warn":    {in: "warn", want: slog.LevelWarn},
		"warning": {in: "warning", want: slog.LevelWarn},
		"error":   {in: "error", want: slog.LevelError},
		"info":    {in: "info", want: slog.LevelInfo},
		"unknown": {in: "verbose", want: slog.LevelInfo},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, logging.ParseLevel(tc.in))
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger, err := logging.New(buf, "warn", logging.FormatJSON)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("key", "value"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"key":"value"`)

	buf.Reset()
	logger, err = logging.New(buf, "", "")
	require.NoError(t, err)
	logger.Info("text")
	assert.Contains(t, buf.String(), "msg=text")

	_, err = logging.New(buf, "info", "xml")
	assert.ErrorIs(t, err, logging.ErrUnknownFormat)
}
