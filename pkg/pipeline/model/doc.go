// Package model holds the types shared by the pipeline package and its hooks. Hooks such
// as the measure and drawer packages implement PipelineOption and only see StepInfo, so
// they never depend on the step engine itself.
package model
