package step

import (
	"log/slog"
	"sort"
)

// Output holds the result of a step. Fields are declared by the output schema of the step
// type; fields outside the schema are kept as extras. Only explicitly set fields exist:
// Get reports whether a field was set, and Merge copies set fields only.
type Output struct {
	schema      *Schema
	values      map[string]any
	step        string
	name        string
	description string
	keys        []string
}

// NewOutput creates an empty output for schema. Execute implementations may return one to
// have its fields merged into the step output.
func NewOutput(schema *Schema) *Output {
	return &Output{
		schema: schema,
		values: make(map[string]any),
	}
}

func newStepOutput(s *Step) *Output {
	out := NewOutput(s.typ.outputs)
	out.step = s.name
	out.name = s.name + ".Output"
	out.description = "Output for " + s.name

	return out
}

func (o *Output) Name() string {
	return o.name
}

func (o *Output) Description() string {
	return o.description
}

func (o *Output) Schema() *Schema {
	return o.schema
}

// Set assigns value to key, overwriting any previous value. The zero Output is usable and
// has no schema.
func (o *Output) Set(key string, value any) *Output {
	if o.values == nil {
		o.values = make(map[string]any)
	}

	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.values[key] = value

	return o
}

// Get returns the value of key and whether it was set.
func (o *Output) Get(key string) (any, bool) {
	v, ok := o.values[key]

	return v, ok
}

// Value returns the value of key, or nil when it was not set.
func (o *Output) Value(key string) any {
	return o.values[key]
}

func (o *Output) Has(key string) bool {
	_, ok := o.values[key]

	return ok
}

func (o *Output) Len() int {
	return len(o.values)
}

// Keys returns the set fields: schema fields in declaration order, then extras in the
// order they were first set.
func (o *Output) Keys() []string {
	res := make([]string, 0, len(o.values))
	seen := make(map[string]struct{}, len(o.values))

	for _, name := range o.schema.Names() {
		if _, ok := o.values[name]; ok {
			res = append(res, name)
			seen[name] = struct{}{}
		}
	}

	for _, key := range o.keys {
		if _, ok := seen[key]; !ok {
			res = append(res, key)
		}
	}

	return res
}

// Map returns a copy of the set fields.
func (o *Output) Map() map[string]any {
	res := make(map[string]any, len(o.values))
	for k, v := range o.values {
		res[k] = v
	}

	return res
}

// Merge copies every field set on other into o; fields not set on other are untouched.
func (o *Output) Merge(other *Output) *Output {
	if other == nil || other == o {
		return o
	}

	for _, key := range other.Keys() {
		o.Set(key, other.values[key])
	}

	return o
}

// MergeMap is Merge for a plain map. Keys are applied in sorted order.
func (o *Output) MergeMap(other map[string]any) *Output {
	keys := make([]string, 0, len(other))
	for k := range other {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, key := range keys {
		o.Set(key, other[key])
	}

	return o
}

// Validate checks the set fields against the schema and returns o unchanged when they
// satisfy it.
func (o *Output) Validate() (*Output, error) {
	missing, invalid := o.schema.check(o.values)
	if len(missing) > 0 || len(invalid) > 0 {
		return nil, &OutputValidationError{
			Step:    o.step,
			Missing: missing,
			Invalid: invalid,
		}
	}

	return o, nil
}

// LogValue renders the set fields with sensitive values masked.
func (o *Output) LogValue() slog.Value {
	return maskedGroup(o.schema, o.values, o.Keys())
}

// Masked returns a copy of the set fields with sensitive values masked, for display.
func (o *Output) Masked() map[string]any {
	return maskedMap(o.schema, o.values)
}
