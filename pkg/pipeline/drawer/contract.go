package drawer

import (
	"time"

	"github.com/askiada/go-steps/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddStep adds a step to the pipeline drawer.
	AddStep(stepName string) error
	// AddLink adds a link between parent and child steps.
	AddLink(parentStepName, childStepName string) error
	// Draw writes the pipeline graph.
	Draw() error
	// SetTotalTime labels the step with the total time.
	SetTotalTime(stepName string, totalTime time.Duration) error
	// AddMeasure labels and colours steps and links with measured durations.
	AddMeasure(measure measure.Measure) error
}
