package drawer

import (
	"io"
	"os"
	"sort"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-steps/internal/dot"
	"github.com/askiada/go-steps/internal/store"
	"github.com/askiada/go-steps/pkg/pipeline/measure"
)

// DOTDrawer is a drawer that writes the pipeline graph to a DOT file.
type DOTDrawer struct {
	store    store.CustomStore[string, string]
	graph    graph.Graph[string, string]
	fileName string
}

// NewDOTDrawer creates a new DOT drawer writing to fileName.
func NewDOTDrawer(fileName string) *DOTDrawer {
	str := store.NewMemoryStore[string, string]()

	return &DOTDrawer{
		store:    str,
		graph:    graph.NewWithStore(graph.StringHash, str, graph.Directed()),
		fileName: fileName,
	}
}

// AddStep adds a step to the pipeline graph.
func (d *DOTDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name, graph.VertexAttribute("shape", "box"))
	if err != nil {
		return errors.Wrap(err, "unable to add vertex")
	}

	return nil
}

// AddLink adds a link between parent and child steps.
func (d *DOTDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// Draw creates the DOT file.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}
	defer file.Close()

	err = d.Render(file)
	if err != nil {
		return errors.Wrapf(err, "unable to create dot file %s", d.fileName)
	}

	return nil
}

// Render writes the graph in DOT format to wrt.
func (d *DOTDrawer) Render(wrt io.Writer) error {
	return dot.Write(d.graph, wrt, dot.GraphAttribute("rankdir", "LR"))
}

// SetTotalTime sets the total time for the step.
func (d *DOTDrawer) SetTotalTime(stepName string, totalTime time.Duration) error {
	err := d.store.UpdateVertex(stepName, graph.VertexAttribute(dot.XLabel, "total: "+measure.Round(totalTime).String()))
	if err != nil {
		return errors.Wrapf(err, "unable to set total time of %s", stepName)
	}

	return nil
}

const maxRGB = 240

// AddMeasure adds measure to drawer. Steps are coloured from blue for the fastest to red
// for the slowest average execution.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	metrics := msr.AllMetrics()
	durations := make([]time.Duration, 0, len(metrics))

	for _, mt := range metrics {
		if mt.Count() == 0 {
			continue
		}

		durations = append(durations, mt.AVGDuration())
	}

	if len(durations) == 0 {
		return nil
	}

	sort.Slice(durations, func(i, j int) bool {
		return durations[i] < durations[j]
	})

	minValue, maxValue := durations[0], durations[len(durations)-1]

	predecessors, err := d.graph.PredecessorMap()
	if err != nil {
		return errors.Wrap(err, "unable to get predecessors")
	}

	for name, mt := range metrics {
		if mt.Count() == 0 {
			continue
		}

		err := d.updateStep(name, mt, heatFraction(mt.AVGDuration(), minValue, maxValue), predecessors[name])
		if err != nil {
			return errors.Wrap(err, "unable to update metrics")
		}
	}

	return nil
}

func (d *DOTDrawer) updateStep(name string, mt measure.Metric, fraction float64, parents map[string]graph.Edge[string]) error {
	colour, err := heatColour(fraction)
	if err != nil {
		return err
	}

	err = d.store.UpdateVertex(name,
		graph.VertexAttribute(dot.XLabel, mt.AVGDuration().String()),
		graph.VertexAttribute("color", colour),
		graph.VertexAttribute("penwidth", "2"),
	)
	if err != nil {
		return errors.Wrapf(err, "unable to update vertex %s", name)
	}

	wait := mt.AVGWaitDuration()
	if wait == 0 {
		return nil
	}

	for parent := range parents {
		err := d.graph.UpdateEdge(parent, name,
			graph.EdgeAttribute("label", wait.String()),
			graph.EdgeAttribute("fontcolor", "blue"),
		)
		if err != nil {
			return errors.Wrap(err, "unable to update edge")
		}
	}

	return nil
}

func heatFraction(value, minValue, maxValue time.Duration) float64 {
	if maxValue <= minValue {
		return 1
	}

	return float64(value-minValue) / float64(maxValue-minValue)
}

func heatColour(fraction float64) (string, error) {
	red := maxRGB * fraction
	blue := maxRGB - red

	colour, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	return colour.ToHEX().String(), nil
}

var _ Drawer = (*DOTDrawer)(nil)
