package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-steps/internal/config"
	"github.com/askiada/go-steps/pkg/pipeline"
	"github.com/askiada/go-steps/pkg/pipeline/drawer"
	"github.com/askiada/go-steps/pkg/pipeline/measure"
	"github.com/askiada/go-steps/pkg/pipeline/model"
	"github.com/askiada/go-steps/pkg/step"
)

// ErrUnknownType is returned when a pipeline file names a type missing from the registry.
var ErrUnknownType = errors.New("unknown step type")

type runOptions struct {
	file    string
	draw    string
	measure bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline of steps described in a YAML file",
		Long: `Run builds the pipeline described in the file given with -f, executes it and prints the
output of every step as YAML. Sensitive values are masked.`,
		Example: `  stepctl run -f pipeline.yaml --concurrency 4 --draw pipeline.dot --measure`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, opts)
		},
	}

	runCmd.Flags().StringVarP(&opts.file, "file", "f", "", "pipeline file")
	runCmd.Flags().StringVar(&opts.draw, "draw", "", "write the pipeline graph in DOT format to this file")
	runCmd.Flags().BoolVar(&opts.measure, "measure", false, "print the duration of every step and the critical path")
	runCmd.Flags().Int("concurrency", 1, "number of steps executing at the same time")
	bindFlag(a.viper, "pipeline.concurrency", runCmd.Flags().Lookup("concurrency"))

	_ = runCmd.MarkFlagRequired("file")

	return runCmd
}

func (a *app) run(cmd *cobra.Command, opts *runOptions) error {
	file, err := config.ReadPipelineFile(opts.file)
	if err != nil {
		return err
	}

	var (
		msr   measure.Measure
		hooks []model.PipelineOption
	)

	if opts.measure || opts.draw != "" {
		msr = measure.NewDefaultMeasure()
		hooks = append(hooks, measure.PipelineMeasure(msr))
	}

	if opts.draw != "" {
		hooks = append(hooks, drawer.PipelineDrawer(drawer.NewDOTDrawer(opts.draw), msr))
	}

	pipe, err := pipeline.New(
		pipeline.Concurrency(a.cfg.Pipeline.Concurrency),
		pipeline.Logger(a.logger),
		pipeline.Hooks(hooks...),
	)
	if err != nil {
		return errors.Wrap(err, "unable to create pipeline")
	}

	for _, spec := range file.Steps {
		typ, ok := a.registry.Lookup(spec.Type)
		if !ok {
			return errors.Wrapf(ErrUnknownType, "step %s: %s", spec.Name, spec.Type)
		}

		builder := pipeline.Bind(typ, step.Inputs(spec.Inputs), spec.Bind, step.WithDescription(spec.Description))

		err = pipe.AddStep(spec.Name, builder, spec.After...)
		if err != nil {
			return err
		}
	}

	outputs, err := pipe.Run(cmd.Context())
	if err != nil {
		return err
	}

	err = printOutputs(cmd.OutOrStdout(), outputs)
	if err != nil {
		return err
	}

	if !opts.measure {
		return nil
	}

	steps, err := pipe.Steps()
	if err != nil {
		return err
	}

	err = printMeasure(cmd.OutOrStdout(), steps, msr)
	if err != nil {
		return err
	}

	path, total, err := pipe.CriticalPath()
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write([]byte("critical path: " + strings.Join(path, " -> ") + " (" + measure.Round(total).String() + ")\n"))

	return errors.Wrap(err, "unable to print critical path")
}

func printOutputs(wrt io.Writer, outputs pipeline.Outputs) error {
	res := make(map[string]map[string]any, len(outputs))
	for name, out := range outputs {
		res[name] = out.Masked()
	}

	enc := yaml.NewEncoder(wrt)
	enc.SetIndent(2)

	err := enc.Encode(res)
	if err != nil {
		return errors.Wrap(err, "unable to print outputs")
	}

	return errors.Wrap(enc.Close(), "unable to print outputs")
}

func printMeasure(wrt io.Writer, steps []*model.StepInfo, msr measure.Measure) error {
	table := tablewriter.NewWriter(wrt)
	table.Header("Step", "Type", "Runs", "Duration", "Wait")

	for _, info := range steps {
		metric := msr.GetMetric(info.Name)
		if metric == nil {
			continue
		}

		err := table.Append([]string{
			info.Name,
			info.Type,
			strconv.FormatInt(metric.Count(), 10),
			measure.Round(metric.AVGDuration()).String(),
			measure.Round(metric.AVGWaitDuration()).String(),
		})
		if err != nil {
			return errors.Wrap(err, "unable to add row")
		}
	}

	return errors.Wrap(table.Render(), "unable to render measure")
}
