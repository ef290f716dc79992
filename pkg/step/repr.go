package step

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// The representations below are for humans and logs. Sensitive values are masked, so they
// must not be used to persist or transport a step.

// LogValue renders the step as {input, output} with sensitive values masked.
func (s *Step) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Any("input", s.inputValue())}
	if s.output != nil && s.output.Len() > 0 {
		attrs = append(attrs, slog.Any("output", s.output.LogValue()))
	}

	return slog.GroupValue(attrs...)
}

// String renders the type name, an underline and the brief YAML representation.
func (s *Step) String() string {
	body, err := s.ReprYAML(true)
	if err != nil {
		body = err.Error() + "\n"
	}

	return s.typ.name + "\n" + strings.Repeat("=", len(s.typ.name)) + "\n" + body
}

// ReprJSON renders the step as JSON. When simple is false the name and description are
// included.
func (s *Step) ReprJSON(simple bool) (string, error) {
	res, err := json.Marshal(s.repr(simple))
	if err != nil {
		return "", errors.Wrap(err, "unable to marshal step to json")
	}

	return string(res), nil
}

// ReprYAML renders the step as YAML. See ReprJSON.
func (s *Step) ReprYAML(simple bool) (string, error) {
	res, err := yaml.Marshal(s.repr(simple))
	if err != nil {
		return "", errors.Wrap(err, "unable to marshal step to yaml")
	}

	return string(res), nil
}

func (s *Step) repr(simple bool) map[string]any {
	res := map[string]any{
		"input": maskedMap(s.typ.inputs, s.inputs),
	}

	if !simple {
		res["name"] = s.name
		if s.description != "" {
			res["description"] = s.description
		}
	}

	if s.output != nil && s.output.Len() > 0 {
		res["output"] = s.output.Masked()
	}

	return res
}

func inputKeys(schema *Schema, values map[string]any) []string {
	res := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for _, name := range schema.Names() {
		if _, ok := values[name]; ok {
			res = append(res, name)
			seen[name] = struct{}{}
		}
	}

	extras := make([]string, 0, len(values)-len(res))

	for k := range values {
		if _, ok := seen[k]; !ok {
			extras = append(extras, k)
		}
	}

	sort.Strings(extras)

	return append(res, extras...)
}

func maskedGroup(schema *Schema, values map[string]any, keys []string) slog.Value {
	attrs := make([]slog.Attr, 0, len(keys))

	for _, key := range keys {
		value := values[key]
		if schema.sensitive(key) || isSecret(value) {
			attrs = append(attrs, slog.String(key, maskValue(value)))

			continue
		}

		attrs = append(attrs, slog.Any(key, value))
	}

	return slog.GroupValue(attrs...)
}

func maskedMap(schema *Schema, values map[string]any) map[string]any {
	res := make(map[string]any, len(values))

	for key, value := range values {
		switch {
		case schema.sensitive(key) || isSecret(value):
			res[key] = maskValue(value)
		case !representable(value):
			res[key] = fmt.Sprintf("%T", value)
		default:
			res[key] = value
		}
	}

	return res
}

// representable reports whether value can go through json and yaml marshalling.
func representable(value any) bool {
	if value == nil {
		return true
	}

	switch reflect.TypeOf(value).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return false
	default:
		return true
	}
}
