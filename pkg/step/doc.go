// Package step provides the lifecycle engine every unit of pipeline logic runs in.
//
// A step type is declared once with Define, usually in a package level variable. The
// declaration lists the validated input fields, the output fields and the execute
// implementation holding the business logic. A type may extend a parent type: it inherits
// the parent's fields and, when it does not declare its own implementation, the parent's
// execute.
//
//	var Foo = step.MustDefine(step.TypeSpec{
//		Name:    "Foo",
//		Outputs: []step.Field{{Name: "a", Required: true}},
//		Execute: func(ctx context.Context, s *step.Step) (any, error) {
//			s.Output().Set("a", 1)
//			return nil, nil
//		},
//	})
//
//	var Bar = step.MustDefine(step.TypeSpec{
//		Name:    "Bar",
//		Parent:  Foo,
//		Outputs: []step.Field{{Name: "b", Required: true}},
//		Execute: func(ctx context.Context, s *step.Step) (any, error) {
//			if _, err := s.Super(ctx); err != nil {
//				return nil, err
//			}
//			s.Output().Set("b", 2)
//			return nil, nil
//		},
//	})
//
// Define wraps the execute implementation of each type exactly once. At call time the
// wrapper logs the start of the step, runs the implementation, merges a returned *Output
// or map into the live output, validates the output against the schema and logs the end
// of the step. Calls made through Super are detected with a per instance call stack: they
// run the parent's logic on the same output without logging or validating again, so one
// external Execute produces one start and one end event.
//
// Errors returned by an implementation are logged with the step inputs and returned to
// the caller unchanged. Invalid inputs fail New with a *ConfigurationError, invalid outputs
// fail Execute with an *OutputValidationError, and a type without any execute
// implementation fails Define with a *WrappingError.
//
// Sensitive values are masked as a same length run of '*' followed by "(Masked)" in logs
// and in the String, ReprJSON and ReprYAML representations. Programmatic accessors such as
// Step.InputString and Secret.Reveal return the real value.
//
// Execution is synchronous and a Step must not be executed from several goroutines at the
// same time; build one instance per goroutine instead.
package step
