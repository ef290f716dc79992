package model

// StepInfo describes a pipeline node to hooks.
type StepInfo struct {
	Name string
	// Type is the name of the step type the node builds, when known.
	Type    string
	Parents []string
}

// StartStep and EndStep are virtual nodes framing the pipeline graph.
var (
	StartStep = &StepInfo{Name: "start"}
	EndStep   = &StepInfo{Name: "end"}
)
