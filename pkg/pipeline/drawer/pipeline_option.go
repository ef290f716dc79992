package drawer

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-steps/pkg/pipeline/measure"
	"github.com/askiada/go-steps/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m        measure.Measure
	children map[string]int
	ended    map[string]struct{}
	steps    []string
	mu       sync.Mutex
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStep(model.StartStep.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}

	err = pd.AddStep(model.EndStep.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) PrepareStep(parents []*model.StepInfo, step *model.StepInfo) error {
	pd.mu.Lock()
	defer pd.mu.Unlock()

	err := pd.AddStep(step.Name)
	if err != nil {
		return err
	}

	for _, parent := range parents {
		err := pd.AddLink(parent.Name, step.Name)
		if err != nil {
			return err
		}

		pd.children[parent.Name]++
	}

	pd.steps = append(pd.steps, step.Name)

	return nil
}

func (pd *pipelineDrawer) OnStepOutput(*model.StepInfo, time.Duration, time.Duration) error {
	return nil
}

// Finish links every step without children to the end step and draws the graph.
func (pd *pipelineDrawer) Finish(totalDuration time.Duration) error {
	pd.mu.Lock()
	defer pd.mu.Unlock()

	leaves := make([]string, 0, len(pd.steps))
	for _, name := range pd.steps {
		if pd.children[name] == 0 {
			leaves = append(leaves, name)
		}
	}

	if len(leaves) == 0 {
		leaves = append(leaves, model.StartStep.Name)
	}

	for _, name := range leaves {
		if _, ok := pd.ended[name]; ok {
			continue
		}

		err := pd.AddLink(name, model.EndStep.Name)
		if err != nil {
			return err
		}

		pd.ended[name] = struct{}{}
	}

	if pd.m != nil {
		err := pd.SetTotalTime(model.EndStep.Name, totalDuration)
		if err != nil {
			return errors.Wrap(err, "unable to set total time")
		}

		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the pipeline with drawer once it finished. When msr is not nil the
// drawing carries its durations.
func PipelineDrawer(drawer Drawer, msr measure.Measure) model.PipelineOption {
	return &pipelineDrawer{
		Drawer:   drawer,
		m:        msr,
		children: make(map[string]int),
		ended:    make(map[string]struct{}),
	}
}
