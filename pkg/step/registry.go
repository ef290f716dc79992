package step

import (
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-steps/internal/dot"
	"github.com/askiada/go-steps/internal/store"
)

// Registry holds step types and their hierarchy. Defining a type is serialized, so a
// type is wrapped exactly once even when packages define types concurrently.
type Registry struct {
	store  store.CustomStore[string, *Type]
	graph  graph.Graph[string, *Type]
	marker *sentinel
	mu     sync.Mutex
}

// DefaultRegistry is used by the package level Define, MustDefine and Lookup.
var DefaultRegistry = NewRegistry()

func typeHash(t *Type) string {
	return t.name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	str := store.NewMemoryStore[string, *Type]()

	return &Registry{
		store:  str,
		graph:  graph.NewWithStore(typeHash, str, graph.Directed(), graph.PreventCycles()),
		marker: &sentinel{registry: "step"},
	}
}

// Define creates a type from spec and installs its wrapped execute. It fails with a
// *WrappingError when the name is taken, the parent belongs to another registry, or a
// concrete type has no execute implementation anywhere in its chain.
func (r *Registry) Define(spec TypeSpec) (*Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if spec.Name == "" {
		return nil, &WrappingError{Err: ErrTypeNameMustBeSet}
	}

	if spec.Parent != nil && spec.Parent.registry != r {
		return nil, &WrappingError{Type: spec.Name, Err: ErrUnknownParent}
	}

	if _, err := r.graph.Vertex(spec.Name); err == nil {
		return nil, &WrappingError{Type: spec.Name, Err: ErrTypeExists}
	}

	for _, fields := range [][]Field{spec.Inputs, spec.Outputs} {
		if err := checkRules(fields); err != nil {
			return nil, &WrappingError{Type: spec.Name, Err: err}
		}
	}

	typ := &Type{
		name:        spec.Name,
		description: spec.Description,
		parent:      spec.Parent,
		abstract:    spec.Abstract,
		impl:        spec.Execute,
		registry:    r,
	}

	var parentInputs, parentOutputs *Schema
	if spec.Parent != nil {
		parentInputs, parentOutputs = spec.Parent.inputs, spec.Parent.outputs
	}

	typ.inputs = parentInputs.Extend(spec.Inputs...)
	typ.outputs = parentOutputs.Extend(spec.Outputs...)

	execute, err := resolveExecute(typ, r.marker)
	if err != nil {
		return nil, &WrappingError{Type: spec.Name, Err: err}
	}

	typ.execute = execute

	err = r.graph.AddVertex(typ, vertexAttributes(typ)...)
	if err != nil {
		return nil, &WrappingError{Type: spec.Name, Err: errors.Wrap(err, "unable to add vertex")}
	}

	if spec.Parent != nil {
		err = r.graph.AddEdge(spec.Parent.name, typ.name)
		if err != nil {
			return nil, &WrappingError{Type: spec.Name, Err: errors.Wrapf(err, "unable to add edge from %s", spec.Parent.name)}
		}
	}

	return typ, nil
}

func vertexAttributes(typ *Type) []func(*graph.VertexProperties) {
	attrs := []func(*graph.VertexProperties){
		graph.VertexAttribute("shape", "box"),
		graph.VertexAttribute(dot.XLabel, "wrapped: "+strconv.Itoa(typ.WrapCount())),
	}

	if typ.abstract {
		attrs = append(attrs, graph.VertexAttribute("style", "dashed"))
	}

	if typ.impl != nil {
		attrs = append(attrs, graph.VertexAttribute("penwidth", "2"))
	}

	return attrs
}

// MustDefine is Define for package level variables: a type that cannot be defined
// panics at program start.
func (r *Registry) MustDefine(spec TypeSpec) *Type {
	typ, err := r.Define(spec)
	if err != nil {
		panic(err)
	}

	return typ
}

// Lookup returns the type called name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	typ, err := r.graph.Vertex(name)
	if err != nil {
		return nil, false
	}

	return typ, true
}

// Types returns every defined type sorted by name.
func (r *Registry) Types() []*Type {
	names, err := r.store.ListVertices()
	if err != nil {
		return nil
	}

	sort.Strings(names)

	res := make([]*Type, 0, len(names))

	for _, name := range names {
		typ, _, err := r.store.Vertex(name)
		if err != nil {
			continue
		}

		res = append(res, typ)
	}

	return res
}

// Children returns the types directly extending name, sorted by name.
func (r *Registry) Children(name string) ([]*Type, error) {
	adjacencyMap, err := r.graph.AdjacencyMap()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get adjacency map")
	}

	edges, ok := adjacencyMap[name]
	if !ok {
		return nil, errors.Wrapf(graph.ErrVertexNotFound, "type %s", name)
	}

	names := make([]string, 0, len(edges))
	for child := range edges {
		names = append(names, child)
	}

	sort.Strings(names)

	res := make([]*Type, 0, len(names))

	for _, child := range names {
		typ, err := r.graph.Vertex(child)
		if err != nil {
			return nil, errors.Wrapf(err, "type %s", child)
		}

		res = append(res, typ)
	}

	return res, nil
}

// Draw writes the type hierarchy in DOT format.
func (r *Registry) Draw(wrt io.Writer) error {
	err := dot.Write(r.graph, wrt)
	if err != nil {
		return errors.Wrap(err, "unable to draw type hierarchy")
	}

	return nil
}

// Define defines a type on DefaultRegistry.
func Define(spec TypeSpec) (*Type, error) {
	return DefaultRegistry.Define(spec)
}

// MustDefine defines a type on DefaultRegistry and panics on failure.
func MustDefine(spec TypeSpec) *Type {
	return DefaultRegistry.MustDefine(spec)
}

// Lookup finds a type on DefaultRegistry.
func Lookup(name string) (*Type, bool) {
	return DefaultRegistry.Lookup(name)
}
