package step_test

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-steps/pkg/step"
)

func TestWrapCountEveryLevelDeclares(t *testing.T) {
	t.Parallel()

	for depth := 1; depth <= 6; depth++ {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			t.Parallel()

			reg := step.NewRegistry()

			var parent *step.Type

			for lvl := range depth {
				typ, err := reg.Define(step.TypeSpec{
					Name:    fmt.Sprintf("level%d", lvl),
					Parent:  parent,
					Execute: superThenSet(fmt.Sprintf("f%d", lvl), lvl),
				})
				require.NoError(t, err)
				assert.Equal(t, 1, typ.WrapCount())
				assert.Same(t, typ, typ.ExecuteOwner())

				parent = typ
			}
		})
	}
}

func TestWrapCountInheritedUnchanged(t *testing.T) {
	t.Parallel()

	reg := step.NewRegistry()
	base, err := reg.Define(step.TypeSpec{Name: "Base", Execute: noop})
	require.NoError(t, err)

	noExecute, err := reg.Define(step.TypeSpec{Name: "NoExecute", Parent: base})
	require.NoError(t, err)

	grandChild, err := reg.Define(step.TypeSpec{Name: "GrandChild", Parent: noExecute})
	require.NoError(t, err)

	own, err := reg.Define(step.TypeSpec{Name: "Own", Parent: noExecute, Execute: noop})
	require.NoError(t, err)

	tcs := map[string]struct {
		typ   *step.Type
		owner *step.Type
	}{
		"base":        {typ: base, owner: base},
		"no execute":  {typ: noExecute, owner: base},
		"grand child": {typ: grandChild, owner: base},
		"own":         {typ: own, owner: own},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, 1, tc.typ.WrapCount())
			assert.Same(t, tc.owner, tc.typ.ExecuteOwner())
		})
	}
}

func TestDefineNoExecute(t *testing.T) {
	t.Parallel()

	reg := step.NewRegistry()
	abstract, err := reg.Define(step.TypeSpec{Name: "Abstract", Abstract: true})
	require.NoError(t, err)
	assert.Equal(t, 0, abstract.WrapCount())

	_, err = reg.Define(step.TypeSpec{Name: "Concrete", Parent: abstract})

	var wrapErr *step.WrappingError
	require.ErrorAs(t, err, &wrapErr)
	assert.Equal(t, "Concrete", wrapErr.Type)
	assert.ErrorIs(t, err, step.ErrNoExecute)

	_, ok := reg.Lookup("Concrete")
	assert.False(t, ok)
}

func TestMustDefinePanics(t *testing.T) {
	t.Parallel()

	reg := step.NewRegistry()
	assert.Panics(t, func() {
		reg.MustDefine(step.TypeSpec{Name: "Broken"})
	})
}

func TestDefineErrors(t *testing.T) {
	t.Parallel()

	reg := step.NewRegistry()
	_, err := reg.Define(step.TypeSpec{Name: "Foo", Execute: noop})
	require.NoError(t, err)

	other := step.NewRegistry()
	foreign, err := other.Define(step.TypeSpec{Name: "Foreign", Execute: noop})
	require.NoError(t, err)

	tcs := map[string]struct {
		spec step.TypeSpec
		want error
	}{
		"empty name":     {spec: step.TypeSpec{Execute: noop}, want: step.ErrTypeNameMustBeSet},
		"duplicate":      {spec: step.TypeSpec{Name: "Foo", Execute: noop}, want: step.ErrTypeExists},
		"foreign parent": {spec: step.TypeSpec{Name: "Bar", Parent: foreign}, want: step.ErrUnknownParent},
		"unknown rule": {
			spec: step.TypeSpec{Name: "BadInput", Execute: noop, Inputs: []step.Field{{Name: "a", Rules: "notarule=1"}}},
			want: step.ErrInvalidRules,
		},
		"unknown output rule": {
			spec: step.TypeSpec{Name: "BadOutput", Execute: noop, Outputs: []step.Field{{Name: "a", Rules: "gte=0,bogus"}}},
			want: step.ErrInvalidRules,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := reg.Define(tc.spec)

			var wrapErr *step.WrappingError
			require.ErrorAs(t, err, &wrapErr)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDefineConcurrent(t *testing.T) {
	t.Parallel()

	reg := step.NewRegistry()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		defined int
	)

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := reg.Define(step.TypeSpec{Name: "Once", Execute: noop})
			if err == nil {
				mu.Lock()
				defined++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, defined)

	typ, ok := reg.Lookup("Once")
	require.True(t, ok)
	assert.Equal(t, 1, typ.WrapCount())
}

func TestRegistryHierarchy(t *testing.T) {
	t.Parallel()

	reg := step.NewRegistry()
	foo := reg.MustDefine(step.TypeSpec{Name: "Foo", Execute: noop})
	bar := reg.MustDefine(step.TypeSpec{Name: "Bar", Parent: foo})
	baz := reg.MustDefine(step.TypeSpec{Name: "Baz", Parent: foo, Execute: noop})
	qux := reg.MustDefine(step.TypeSpec{Name: "Qux", Parent: baz})

	children, err := reg.Children("Foo")
	require.NoError(t, err)
	assert.Equal(t, []*step.Type{bar, baz}, children)

	_, err = reg.Children("Unknown")
	assert.Error(t, err)

	assert.Equal(t, []*step.Type{bar, baz, foo, qux}, reg.Types())
	assert.Equal(t, []*step.Type{baz, foo}, qux.Ancestors())
	assert.True(t, qux.Is(foo))
	assert.False(t, bar.Is(baz))

	buf := &bytes.Buffer{}
	require.NoError(t, reg.Draw(buf))
	assert.Contains(t, buf.String(), "digraph")
	assert.Contains(t, buf.String(), `"Foo" -> "Bar"`)
	assert.Contains(t, buf.String(), `"Baz" -> "Qux"`)
}

func TestSchemaInheritance(t *testing.T) {
	t.Parallel()

	reg := step.NewRegistry()
	parent := reg.MustDefine(step.TypeSpec{
		Name:    "Parent",
		Inputs:  []step.Field{{Name: "a"}, {Name: "b"}},
		Outputs: []step.Field{{Name: "x"}},
		Execute: noop,
	})
	child := reg.MustDefine(step.TypeSpec{
		Name:    "Child",
		Parent:  parent,
		Inputs:  []step.Field{{Name: "b", Required: true}, {Name: "c"}},
		Outputs: []step.Field{{Name: "y", Required: true}},
	})

	assert.Equal(t, []string{"a", "b", "c"}, child.Inputs().Names())
	assert.Equal(t, []string{"x", "y"}, child.Outputs().Names())

	b, ok := child.Inputs().Field("b")
	require.True(t, ok)
	assert.True(t, b.Required)

	b, ok = parent.Inputs().Field("b")
	require.True(t, ok)
	assert.False(t, b.Required)
}
