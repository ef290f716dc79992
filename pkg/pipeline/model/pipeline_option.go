package model

import "time"

// PipelineOption defines the interface for pipeline hooks. Methods called while the
// pipeline runs may be called from several goroutines at once.
type PipelineOption interface {
	// New initialises the hook when the pipeline is created.
	New() error
	// PrepareStep runs when a node is added. Root nodes get StartStep as their only parent.
	PrepareStep(parents []*StepInfo, step *StepInfo) error
	// OnStepOutput runs after a node executed successfully, with the time spent waiting
	// for its parents and the time spent building and executing the step.
	OnStepOutput(step *StepInfo, waitDuration, executionDuration time.Duration) error
	// Finish runs after every node finished successfully.
	Finish(totalDuration time.Duration) error
}
