// Package steps provides ready to use step types, registered on step.DefaultRegistry when
// the package is imported. They double as examples of how to write step types.
package steps
