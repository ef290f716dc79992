package step

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// Field declares one input or output field of a step type.
type Field struct {
	// Default is used for inputs that are not provided. Unused for outputs.
	Default any
	// Check runs after Rules on present, non-nil values.
	Check       func(value any) error
	Name        string
	Description string
	// Rules is a go-playground/validator tag, e.g. "min=1,max=10".
	Rules     string
	Required  bool
	Sensitive bool
}

// Schema is an ordered set of fields. A nil *Schema is a valid empty schema.
type Schema struct {
	index  map[string]int
	fields []Field
}

// NewSchema builds a schema. A later field replaces an earlier one with the same name.
func NewSchema(fields ...Field) *Schema {
	return (*Schema)(nil).Extend(fields...)
}

// Extend returns a copy of s with fields added. A field named like an existing one
// replaces it in place, which is how a child type narrows an inherited field.
func (s *Schema) Extend(fields ...Field) *Schema {
	res := &Schema{index: make(map[string]int)}

	for _, f := range s.Fields() {
		res.put(f)
	}

	for _, f := range fields {
		res.put(f)
	}

	return res
}

func (s *Schema) put(f Field) {
	if idx, ok := s.index[f.Name]; ok {
		s.fields[idx] = f

		return
	}

	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
}

// Fields returns a copy of the declared fields in declaration order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}

	res := make([]Field, len(s.fields))
	copy(res, s.fields)

	return res
}

// Field returns the field called name.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}

	idx, ok := s.index[name]
	if !ok {
		return Field{}, false
	}

	return s.fields[idx], true
}

func (s *Schema) Len() int {
	if s == nil {
		return 0
	}

	return len(s.fields)
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}

	res := make([]string, len(s.fields))
	for i, f := range s.fields {
		res[i] = f.Name
	}

	return res
}

func (s *Schema) sensitive(name string) bool {
	f, ok := s.Field(name)

	return ok && f.Sensitive
}

// check reports the required fields that are absent or nil, and the present fields that
// fail their rules or check function.
func (s *Schema) check(values map[string]any) ([]string, map[string]error) {
	var missing []string

	invalid := make(map[string]error)

	for _, f := range s.Fields() {
		value, ok := values[f.Name]
		if !ok || value == nil {
			if f.Required {
				missing = append(missing, f.Name)
			}

			continue
		}

		if f.Rules != "" {
			if err := applyRules(reveal(value), f.Rules); err != nil {
				invalid[f.Name] = err

				continue
			}
		}

		if f.Check != nil {
			if err := f.Check(value); err != nil {
				invalid[f.Name] = err
			}
		}
	}

	if len(invalid) == 0 {
		invalid = nil
	}

	return missing, invalid
}

// applyRules validates value against rules. validator panics on unknown tags and on
// value kinds a tag does not support; both are reported as ErrInvalidRules.
func applyRules(value any, rules string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrInvalidRules, "rules %q: %v", rules, r)
		}
	}()

	err = validate.Var(value, rules)
	if err != nil {
		return errors.Wrapf(err, "rules %q", rules)
	}

	return nil
}

// checkRules reports the first field whose rules validator cannot parse.
func checkRules(fields []Field) error {
	for _, f := range fields {
		if f.Rules == "" {
			continue
		}

		err := applyRules(nil, f.Rules)
		if errors.Is(err, ErrInvalidRules) {
			return errors.Wrapf(err, "field %s", f.Name)
		}
	}

	return nil
}
