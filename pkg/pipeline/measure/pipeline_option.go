package measure

import (
	"time"

	"github.com/askiada/go-steps/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	pm.AddMetric(model.StartStep.Name)
	pm.AddMetric(model.EndStep.Name)

	return nil
}

func (pm *pipelineMeasure) PrepareStep(_ []*model.StepInfo, step *model.StepInfo) error {
	pm.AddMetric(step.Name)

	return nil
}

func (pm *pipelineMeasure) OnStepOutput(step *model.StepInfo, waitDuration, executionDuration time.Duration) error {
	mt := pm.AddMetric(step.Name)
	mt.AddDuration(executionDuration)
	mt.AddWaitDuration(waitDuration)

	return nil
}

func (pm *pipelineMeasure) Finish(totalDuration time.Duration) error {
	pm.AddMetric(model.EndStep.Name).SetTotalDuration(totalDuration)

	return nil
}

// PipelineMeasure records step durations into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
