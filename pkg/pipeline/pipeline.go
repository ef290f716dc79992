package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-steps/internal/store"
	"github.com/askiada/go-steps/pkg/pipeline/model"
	"github.com/askiada/go-steps/pkg/step"
)

type node struct {
	info    *model.StepInfo
	builder Builder
}

func nodeHash(n *node) string {
	return n.info.Name
}

// Pipeline is a graph of steps.
type Pipeline struct {
	store      store.CustomStore[string, *node]
	graph      graph.Graph[string, *node]
	logger     *slog.Logger
	durations  map[string]time.Duration
	hooks      []model.PipelineOption
	mu         sync.Mutex
	concurrent int
}

// New creates a new pipeline.
func New(opts ...PipelineOption) (*Pipeline, error) {
	str := store.NewMemoryStore[string, *node]()

	pipe := &Pipeline{
		store:      str,
		graph:      graph.NewWithStore(nodeHash, str, graph.Directed(), graph.PreventCycles()),
		logger:     slog.Default(),
		concurrent: 1,
	}

	for _, opt := range opts {
		opt(pipe)
	}

	for _, hook := range pipe.hooks {
		err := hook.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// AddStep adds a node called name running after the given nodes, which must already
// exist. The builder creates the step each time the pipeline runs.
func (p *Pipeline) AddStep(name string, builder Builder, after ...string) error {
	if name == "" {
		return ErrNameMustBeSet
	}

	if fn, ok := builder.(BuildFunc); builder == nil || (ok && fn == nil) {
		return errors.Wrapf(ErrBuilderMustBeSet, "step %s", name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.graph.Vertex(name); err == nil {
		return errors.Wrapf(ErrStepExists, "step %s", name)
	}

	after = unique(after)
	parents := make([]*model.StepInfo, 0, len(after))

	for _, parent := range after {
		n, err := p.graph.Vertex(parent)
		if err != nil {
			return errors.Wrapf(ErrUnknownStep, "step %s runs after %s", name, parent)
		}

		parents = append(parents, n.info)
	}

	err := checkBindings(name, builder, after)
	if err != nil {
		return err
	}

	info := &model.StepInfo{Name: name, Parents: after}
	if typed, ok := builder.(interface{ Type() *step.Type }); ok && typed.Type() != nil {
		info.Type = typed.Type().Name()
	}

	err = p.graph.AddVertex(&node{info: info, builder: builder})
	if err != nil {
		return errors.Wrapf(err, "unable to add step %s", name)
	}

	for _, parent := range after {
		err = p.graph.AddEdge(parent, name)
		if err != nil {
			return errors.Wrapf(err, "unable to add link from %s to %s", parent, name)
		}
	}

	if len(parents) == 0 {
		parents = append(parents, model.StartStep)
	}

	for _, hook := range p.hooks {
		err = hook.PrepareStep(parents, info)
		if err != nil {
			return errors.Wrapf(err, "unable to prepare step %s", name)
		}
	}

	return nil
}

func checkBindings(name string, builder Builder, after []string) error {
	bound, ok := builder.(interface{ Bindings() map[string]string })
	if !ok {
		return nil
	}

	parents := make(map[string]struct{}, len(after))
	for _, parent := range after {
		parents[parent] = struct{}{}
	}

	for field, ref := range bound.Bindings() {
		source, _, err := splitReference(ref)
		if err != nil {
			return errors.Wrapf(err, "step %s input %s", name, field)
		}

		if _, ok := parents[source]; !ok {
			return errors.Wrapf(ErrInvalidBinding, "step %s input %s: %s does not run before it", name, field, source)
		}
	}

	return nil
}

// Len returns the number of steps in the pipeline.
func (p *Pipeline) Len() int {
	count, err := p.store.VertexCount()
	if err != nil {
		return 0
	}

	return count
}

// Links returns the number of dependencies between steps.
func (p *Pipeline) Links() int {
	count, err := p.store.EdgeCount()
	if err != nil {
		return 0
	}

	return count
}

// Steps returns the nodes of the pipeline in execution order.
func (p *Pipeline) Steps() ([]*model.StepInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	order, err := p.order()
	if err != nil {
		return nil, err
	}

	res := make([]*model.StepInfo, 0, len(order))

	for _, name := range order {
		n, err := p.graph.Vertex(name)
		if err != nil {
			return nil, errors.Wrapf(err, "step %s", name)
		}

		res = append(res, n.info)
	}

	return res, nil
}

func (p *Pipeline) order() ([]string, error) {
	order, err := graph.StableTopologicalSort(p.graph, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort steps")
	}

	return order, nil
}

type results struct {
	outputs   Outputs
	durations map[string]time.Duration
	mu        sync.Mutex
}

func (r *results) set(name string, out *step.Output, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[name] = out
	r.durations[name] = elapsed
}

func (r *results) upstream(parents []string) Outputs {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make(Outputs, len(parents))
	for _, parent := range parents {
		res[parent] = r.outputs[parent]
	}

	return res
}

// Run builds and executes every step and waits for them to finish. It returns the output
// of every step, keyed by node name, or the first error.
func (p *Pipeline) Run(ctx context.Context) (Outputs, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	startTime := time.Now()

	order, err := p.order()
	if err != nil {
		return nil, err
	}

	predecessors, err := p.graph.PredecessorMap()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get predecessors")
	}

	nodes := make([]*node, 0, len(order))
	done := make(map[string]chan struct{}, len(order))

	for _, name := range order {
		n, err := p.graph.Vertex(name)
		if err != nil {
			return nil, errors.Wrapf(err, "step %s", name)
		}

		nodes = append(nodes, n)
		done[name] = make(chan struct{})
	}

	res := &results{
		outputs:   make(Outputs, len(order)),
		durations: make(map[string]time.Duration, len(order)),
	}

	p.logger.Info("Start running pipeline",
		slog.Int("steps", len(order)),
		slog.Int("links", p.Links()),
		slog.Int("concurrency", p.concurrent))

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(p.concurrent)

	// nodes are started in topological order, so a node holding a slot while it waits
	// always has its parents started before it
	for _, n := range nodes {
		name := n.info.Name
		parents := sortedKeys(predecessors[name])

		errGrp.Go(func() error {
			err := p.runNode(dCtx, n, parents, done, res)
			if err != nil {
				return errors.Wrapf(err, "step %s", name)
			}

			close(done[name])

			return nil
		})
	}

	err = errGrp.Wait()
	if err != nil {
		p.logger.Error("Error while running pipeline", slog.Any("error", err))

		return nil, err
	}

	p.durations = res.durations

	return res.outputs, p.finishRun(time.Since(startTime))
}

func (p *Pipeline) runNode(ctx context.Context, n *node, parents []string, done map[string]chan struct{}, res *results) error {
	start := time.Now()

	for _, parent := range parents {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done[parent]:
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	waitDuration := time.Since(start)
	startFn := time.Now()

	s, err := n.builder.Build(ctx, res.upstream(parents), step.WithName(n.info.Name), step.WithLogger(p.logger))
	if err != nil {
		return errors.Wrap(err, "unable to build step")
	}

	out, err := s.Execute(ctx)
	if err != nil {
		return err
	}

	executionDuration := time.Since(startFn)
	res.set(n.info.Name, out, executionDuration)

	for _, hook := range p.hooks {
		err = hook.OnStepOutput(n.info, waitDuration, executionDuration)
		if err != nil {
			return errors.Wrap(err, "unable to record step output")
		}
	}

	return nil
}

func (p *Pipeline) finishRun(totalDuration time.Duration) error {
	for _, hook := range p.hooks {
		err := hook.Finish(totalDuration)
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	p.logger.Info("Finished running pipeline", slog.Duration("duration", totalDuration))

	return nil
}

// CriticalPath returns the chain of steps with the longest total execution time during
// the last successful run, and that time.
func (p *Pipeline) CriticalPath() ([]string, time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.durations == nil {
		return nil, 0, ErrNotRun
	}

	order, err := p.order()
	if err != nil {
		return nil, 0, err
	}

	predecessors, err := p.graph.PredecessorMap()
	if err != nil {
		return nil, 0, errors.Wrap(err, "unable to get predecessors")
	}

	longest := make(map[string]time.Duration, len(order))
	previous := make(map[string]string, len(order))

	var last string

	for _, name := range order {
		var base time.Duration

		for _, parent := range sortedKeys(predecessors[name]) {
			if _, ok := previous[name]; !ok || longest[parent] > base {
				base = longest[parent]
				previous[name] = parent
			}
		}

		longest[name] = base + p.durations[name]

		if last == "" || longest[name] > longest[last] {
			last = name
		}
	}

	if last == "" {
		return nil, 0, nil
	}

	path := []string{last}
	for cur, ok := previous[last]; ok; cur, ok = previous[cur] {
		path = append(path, cur)
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, longest[last], nil
}

func sortedKeys[V any](m map[string]V) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}

	sort.Strings(res)

	return res
}

func unique(names []string) []string {
	res := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		res = append(res, name)
	}

	return res
}
