package step_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-steps/pkg/step"
)

type logRecorder struct {
	buf *bytes.Buffer
}

func newLogRecorder(t *testing.T) (*slog.Logger, *logRecorder) {
	t.Helper()

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return logger, &logRecorder{buf: buf}
}

func (r *logRecorder) entries(t *testing.T) []map[string]any {
	t.Helper()

	var res []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(r.buf.String()), "\n") {
		if line == "" {
			continue
		}

		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))

		res = append(res, entry)
	}

	return res
}

func (r *logRecorder) count(t *testing.T, msg string) int {
	t.Helper()

	total := 0

	for _, entry := range r.entries(t) {
		if entry["msg"] == msg {
			total++
		}
	}

	return total
}

func (r *logRecorder) messages(t *testing.T) []string {
	t.Helper()

	var res []string
	for _, entry := range r.entries(t) {
		res = append(res, entry["msg"].(string))
	}

	return res
}

func (r *logRecorder) String() string {
	return r.buf.String()
}

func noop(context.Context, *step.Step) (any, error) {
	return nil, nil
}

func setField(key string, value any) step.ExecuteFunc {
	return func(_ context.Context, s *step.Step) (any, error) {
		s.Output().Set(key, value)

		return nil, nil
	}
}

// superThenSet delegates to the parent execute and then sets key.
func superThenSet(key string, value any) step.ExecuteFunc {
	return func(ctx context.Context, s *step.Step) (any, error) {
		if _, err := s.Super(ctx); err != nil {
			return nil, err
		}

		s.Output().Set(key, value)

		return nil, nil
	}
}
