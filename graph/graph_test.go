package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamondGraph(t *testing.T) *Graph {
	g, err := New(map[string][]string{
		"a": {},
		"b": {"a"},
		"c": {"a"},
		"d": {"b", "c"},
	})
	require.NoError(t, err)
	return g
}

func TestNewValidatesGraph(t *testing.T) {
	for name, test := range map[string]func(t *testing.T){
		"RejectsEmptyGraph": func(t *testing.T) {
			_, err := New(map[string][]string{})
			assert.Error(t, err)
		},
		"RejectsUnknownDependency": func(t *testing.T) {
			_, err := New(map[string][]string{"a": {"zz"}})
			assert.Error(t, err)
		},
		"RejectsSelfCycle": func(t *testing.T) {
			_, err := New(map[string][]string{"a": {"a"}})
			assert.Error(t, err)
		},
		"RejectsTransitiveCycle": func(t *testing.T) {
			_, err := New(map[string][]string{
				"a": {"c"},
				"b": {"a"},
				"c": {"b"},
			})
			assert.Error(t, err)
		},
		"RejectsComponentNameWithDot": func(t *testing.T) {
			_, err := New(map[string][]string{"a.b": {}})
			assert.Error(t, err)
		},
		"AcceptsDiamond": func(t *testing.T) {
			g, err := New(map[string][]string{
				"a": {},
				"b": {"a"},
				"c": {"a"},
				"d": {"b", "c"},
			})
			assert.NoError(t, err)
			assert.NotNil(t, g)
		},
	} {
		t.Run(name, test)
	}
}

func TestDownstreamClosure(t *testing.T) {
	g := diamondGraph(t)

	closure, err := g.DownstreamClosure("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, closure)

	closure, err = g.DownstreamClosure("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, closure)

	closure, err = g.DownstreamClosure("d")
	require.NoError(t, err)
	assert.Empty(t, closure)
}

func TestDownstreamClosureExcludesSelf(t *testing.T) {
	g := diamondGraph(t)

	for _, component := range g.Components() {
		closure, err := g.DownstreamClosure(component)
		require.NoError(t, err)
		assert.NotContains(t, closure, component)
	}
}

func TestDownstreamClosureIsClosed(t *testing.T) {
	g := diamondGraph(t)

	closure, err := g.DownstreamClosure("a")
	require.NoError(t, err)

	inClosure := map[string]bool{"a": true}
	for _, c := range closure {
		inClosure[c] = true
	}

	// nothing outside the closure may depend on anything inside it
	for _, component := range g.Components() {
		if inClosure[component] {
			continue
		}
		deps, err := g.Dependencies(component)
		require.NoError(t, err)
		for _, dep := range deps {
			assert.False(t, inClosure[dep], "component '%s' outside the closure depends on '%s' inside it", component, dep)
		}
	}
}

func TestDownstreamClosureUnknownComponent(t *testing.T) {
	g := diamondGraph(t)

	_, err := g.DownstreamClosure("zz")
	assert.Error(t, err)
	assert.True(t, IsUnknownComponent(err))
}

func TestDependencies(t *testing.T) {
	g := diamondGraph(t)

	deps, err := g.Dependencies("d")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, deps)

	_, err = g.Dependencies("zz")
	assert.True(t, IsUnknownComponent(err))
}

func TestClosureIsDeterministic(t *testing.T) {
	g := diamondGraph(t)

	first, err := g.DownstreamClosure("a")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		next, err := g.DownstreamClosure("a")
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}
