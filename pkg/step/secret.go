package step

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maskMarker = "(Masked)"

// Secret holds a sensitive string. Every display path (fmt, slog, JSON, YAML) renders it
// masked; only Reveal returns the value.
type Secret struct {
	value string
}

// NewSecret wraps value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Reveal returns the unmasked value.
func (s Secret) Reveal() string {
	return s.value
}

func (s Secret) String() string {
	return maskString(s.value)
}

func (s Secret) GoString() string {
	return "step.Secret(" + strconv.Quote(s.String()) + ")"
}

func (s Secret) Format(state fmt.State, verb rune) {
	switch verb {
	case 'q':
		_, _ = io.WriteString(state, strconv.Quote(s.String()))
	case 'v':
		if state.Flag('#') {
			_, _ = io.WriteString(state, s.GoString())

			return
		}

		_, _ = io.WriteString(state, s.String())
	default:
		_, _ = io.WriteString(state, s.String())
	}
}

func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s Secret) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func maskString(value string) string {
	return strings.Repeat("*", utf8.RuneCountInString(value)) + maskMarker
}

// maskValue renders any value as a same-length mask.
func maskValue(value any) string {
	switch v := value.(type) {
	case Secret:
		return v.String()
	case *Secret:
		if v == nil {
			return maskString("")
		}

		return v.String()
	default:
		return maskString(fmt.Sprint(value))
	}
}

func isSecret(value any) bool {
	switch value.(type) {
	case Secret, *Secret:
		return true
	default:
		return false
	}
}

func reveal(value any) any {
	switch v := value.(type) {
	case Secret:
		return v.Reveal()
	case *Secret:
		if v == nil {
			return nil
		}

		return v.Reveal()
	default:
		return value
	}
}
