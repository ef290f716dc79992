package pipeline_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-steps/pkg/pipeline"
	"github.com/askiada/go-steps/pkg/pipeline/drawer"
	"github.com/askiada/go-steps/pkg/pipeline/measure"
	"github.com/askiada/go-steps/pkg/step"
)

func TestRunBindsUpstreamOutputs(t *testing.T) {
	t.Parallel()

	types := newTestTypes(t)

	pipe, err := pipeline.New(pipeline.Logger(discardLogger()), pipeline.Concurrency(2))
	require.NoError(t, err)

	require.NoError(t, pipe.AddStep("left", pipeline.StepOf(types.source, step.Inputs{"value": 3})))
	require.NoError(t, pipe.AddStep("right", pipeline.StepOf(types.source, step.Inputs{"value": 4})))
	require.NoError(t, pipe.AddStep("double", pipeline.Bind(types.double, nil, map[string]string{"n": "left.value"}), "left"))
	require.NoError(t, pipe.AddStep("sum", pipeline.Bind(types.sum, nil, map[string]string{
		"left":  "double.n",
		"right": "right.value",
	}), "double", "right"))

	outputs, err := pipe.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outputs, 4)
	assert.Equal(t, 6, outputs["double"].Value("n"))
	assert.Equal(t, 10, outputs["sum"].Value("sum"))
	assert.Equal(t, "sum.Output", outputs["sum"].Name())

	// every run builds fresh steps
	again, err := pipe.Run(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, outputs["sum"], again["sum"])
	assert.Equal(t, 10, again["sum"].Value("sum"))

	steps, err := pipe.Steps()
	require.NoError(t, err)

	names := make([]string, 0, len(steps))
	for _, info := range steps {
		names = append(names, info.Name)
	}

	assert.Equal(t, []string{"left", "right", "double", "sum"}, names)
	assert.Equal(t, "Sum", steps[3].Type)
	assert.Equal(t, []string{"double", "right"}, steps[3].Parents)
	assert.Equal(t, 4, pipe.Len())
	assert.Equal(t, 3, pipe.Links())
}

func TestRunConcurrencyLimit(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		concurrent int
		wantMax    int64
	}{
		"sequential":   {concurrent: 1, wantMax: 1},
		"below one":    {concurrent: 0, wantMax: 1},
		"concurrent 2": {concurrent: 2, wantMax: 2},
		"concurrent 3": {concurrent: 3, wantMax: 3},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			types := newTestTypes(t)
			flight := &inFlight{}

			pipe, err := pipeline.New(pipeline.Logger(discardLogger()), pipeline.Concurrency(tc.concurrent))
			require.NoError(t, err)

			for i := range 6 {
				require.NoError(t, pipe.AddStep(fmt.Sprintf("step %d", i), flight.builder(types.sleep, 20*time.Millisecond)))
			}

			_, err = pipe.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(6), flight.calls.Load())
			assert.LessOrEqual(t, flight.max.Load(), tc.wantMax)
		})
	}
}

func TestRunParentsFinishFirst(t *testing.T) {
	t.Parallel()

	types := newTestTypes(t)

	var (
		order   atomic.Int64
		parentA atomic.Int64
		parentB atomic.Int64
		child   atomic.Int64
	)

	record := func(slot *atomic.Int64) pipeline.BuildFunc {
		return func(_ context.Context, _ pipeline.Outputs, defaults ...step.Option) (*step.Step, error) {
			slot.Store(order.Add(1))

			return step.New(types.sleep, step.Inputs{"duration": 5 * time.Millisecond}, defaults...)
		}
	}

	pipe, err := pipeline.New(pipeline.Logger(discardLogger()), pipeline.Concurrency(3))
	require.NoError(t, err)
	require.NoError(t, pipe.AddStep("a", record(&parentA)))
	require.NoError(t, pipe.AddStep("b", record(&parentB)))
	require.NoError(t, pipe.AddStep("c", record(&child), "a", "b"))

	_, err = pipe.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), child.Load())
}

func TestRunError(t *testing.T) {
	t.Parallel()

	types := newTestTypes(t)

	var executed atomic.Bool

	pipe, err := pipeline.New(pipeline.Logger(discardLogger()), pipeline.Concurrency(2))
	require.NoError(t, err)
	require.NoError(t, pipe.AddStep("fail", pipeline.StepOf(types.fail, nil)))
	require.NoError(t, pipe.AddStep("after", pipeline.BuildFunc(func(_ context.Context, _ pipeline.Outputs, defaults ...step.Option) (*step.Step, error) {
		executed.Store(true)

		return step.New(types.sleep, nil, defaults...)
	}), "fail"))

	outputs, err := pipe.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, outputs)
	assert.Equal(t, assert.AnError, errors.Cause(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "step fail")
	assert.False(t, executed.Load())

	_, _, err = pipe.CriticalPath()
	assert.ErrorIs(t, err, pipeline.ErrNotRun)
}

func TestRunBuildError(t *testing.T) {
	t.Parallel()

	types := newTestTypes(t)

	pipe, err := pipeline.New(pipeline.Logger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, pipe.AddStep("source", pipeline.StepOf(types.source, nil)))

	_, err = pipe.Run(context.Background())

	var cfgErr *step.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"value"}, cfgErr.Missing)
	assert.Contains(t, err.Error(), "step source")
}

func TestRunMissingBoundOutput(t *testing.T) {
	t.Parallel()

	types := newTestTypes(t)

	pipe, err := pipeline.New(pipeline.Logger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, pipe.AddStep("source", pipeline.StepOf(types.source, step.Inputs{"value": 1})))
	require.NoError(t, pipe.AddStep("double", pipeline.Bind(types.double, nil, map[string]string{"n": "source.missing"}), "source"))

	_, err = pipe.Run(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrInvalidBinding)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	types := newTestTypes(t)

	pipe, err := pipeline.New(pipeline.Logger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, pipe.AddStep("sleep", pipeline.StepOf(types.sleep, step.Inputs{"duration": time.Minute})))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = pipe.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAddStepErrors(t *testing.T) {
	t.Parallel()

	types := newTestTypes(t)

	pipe, err := pipeline.New(pipeline.Logger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, pipe.AddStep("source", pipeline.StepOf(types.source, step.Inputs{"value": 1})))
	require.NoError(t, pipe.AddStep("other", pipeline.StepOf(types.source, step.Inputs{"value": 2})))

	var nilFunc pipeline.BuildFunc

	tcs := map[string]struct {
		name    string
		builder pipeline.Builder
		after   []string
		want    error
	}{
		"empty name":      {name: "", builder: pipeline.StepOf(types.source, nil), want: pipeline.ErrNameMustBeSet},
		"nil builder":     {name: "x", builder: nil, want: pipeline.ErrBuilderMustBeSet},
		"nil build func":  {name: "x", builder: nilFunc, want: pipeline.ErrBuilderMustBeSet},
		"duplicate":       {name: "source", builder: pipeline.StepOf(types.source, nil), want: pipeline.ErrStepExists},
		"unknown parent":  {name: "x", builder: pipeline.StepOf(types.source, nil), after: []string{"nope"}, want: pipeline.ErrUnknownStep},
		"malformed ref":   {name: "x", builder: pipeline.Bind(types.double, nil, map[string]string{"n": "source"}), after: []string{"source"}, want: pipeline.ErrInvalidBinding},
		"ref not parent":  {name: "x", builder: pipeline.Bind(types.double, nil, map[string]string{"n": "other.value"}), after: []string{"source"}, want: pipeline.ErrInvalidBinding},
		"ref no parents":  {name: "x", builder: pipeline.Bind(types.double, nil, map[string]string{"n": "source.value"}), want: pipeline.ErrInvalidBinding},
		"trailing dot":    {name: "x", builder: pipeline.Bind(types.double, nil, map[string]string{"n": "source."}), after: []string{"source"}, want: pipeline.ErrInvalidBinding},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := pipe.AddStep(tc.name, tc.builder, tc.after...)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// duplicated parents are linked once
	require.NoError(t, pipe.AddStep("twice", pipeline.StepOf(types.sleep, nil), "source", "source"))
}

func TestRunHooks(t *testing.T) {
	t.Parallel()

	types := newTestTypes(t)
	msr := measure.NewDefaultMeasure()
	fileName := filepath.Join(t.TempDir(), "pipeline.dot")

	pipe, err := pipeline.New(
		pipeline.Logger(discardLogger()),
		pipeline.Hooks(measure.PipelineMeasure(msr), drawer.PipelineDrawer(drawer.NewDOTDrawer(fileName), msr)),
	)
	require.NoError(t, err)
	require.NoError(t, pipe.AddStep("source", pipeline.StepOf(types.source, step.Inputs{"value": 1})))
	require.NoError(t, pipe.AddStep("double", pipeline.Bind(types.double, nil, map[string]string{"n": "source.value"}), "source"))
	require.NoError(t, pipe.AddStep("alone", pipeline.StepOf(types.sleep, nil)))

	_, err = pipe.Run(context.Background())
	require.NoError(t, err)

	for _, name := range []string{"source", "double", "alone"} {
		mt := msr.GetMetric(name)
		require.NotNil(t, mt, name)
		assert.Equal(t, int64(1), mt.Count(), name)
	}

	assert.Positive(t, msr.GetMetric("end").GetTotalDuration())

	content, err := os.ReadFile(fileName)
	require.NoError(t, err)

	drawing := string(content)
	assert.Contains(t, drawing, `rankdir="LR"`)
	assert.Contains(t, drawing, `"start" -> "source"`)
	assert.Contains(t, drawing, `"start" -> "alone"`)
	assert.Contains(t, drawing, `"source" -> "double"`)
	assert.Contains(t, drawing, `"double" -> "end"`)
	assert.Contains(t, drawing, `"alone" -> "end"`)
	assert.NotContains(t, drawing, `"source" -> "end"`)
	assert.Contains(t, drawing, "total: ")

	// a second run reuses the links to the end step
	_, err = pipe.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), msr.GetMetric("double").Count())
}

func TestCriticalPath(t *testing.T) {
	t.Parallel()

	types := newTestTypes(t)

	pipe, err := pipeline.New(pipeline.Logger(discardLogger()), pipeline.Concurrency(4))
	require.NoError(t, err)

	_, _, err = pipe.CriticalPath()
	require.ErrorIs(t, err, pipeline.ErrNotRun)

	require.NoError(t, pipe.AddStep("root", pipeline.StepOf(types.sleep, nil)))
	require.NoError(t, pipe.AddStep("fast", pipeline.StepOf(types.sleep, nil), "root"))
	require.NoError(t, pipe.AddStep("slow", pipeline.StepOf(types.sleep, step.Inputs{"duration": 50 * time.Millisecond}), "root"))
	require.NoError(t, pipe.AddStep("last", pipeline.StepOf(types.sleep, nil), "fast", "slow"))

	_, err = pipe.Run(context.Background())
	require.NoError(t, err)

	path, total, err := pipe.CriticalPath()
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "slow", "last"}, path)
	assert.GreaterOrEqual(t, total, 50*time.Millisecond)
}

func TestEmptyPipeline(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(pipeline.Logger(discardLogger()))
	require.NoError(t, err)

	outputs, err := pipe.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outputs)
	assert.Zero(t, pipe.Links())

	path, total, err := pipe.CriticalPath()
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Zero(t, total)
}
