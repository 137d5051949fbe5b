package graph

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Graph is an immutable mapping from component to the set of
// components it directly depends on at build time. It is constructed
// once from configuration at process startup and never mutated, so the
// downstream closures are computed eagerly and cached for the life of
// the process.
type Graph struct {
	deps       map[string][]string
	downstream map[string][]string
}

// UnknownComponentError indicates that a component is not a member of
// the dependency graph.
type UnknownComponentError struct {
	Component string
}

func (e UnknownComponentError) Error() string {
	return errors.Errorf("unknown component '%s'", e.Component).Error()
}

// IsUnknownComponent reports whether err indicates a component missing
// from the graph.
func IsUnknownComponent(err error) bool {
	if err == nil {
		return false
	}
	_, ok := errors.Cause(err).(UnknownComponentError)
	return ok
}

// New validates the dependency mapping and constructs a Graph. Every
// dependency must itself be a component of the graph, component names
// must be usable as document field names, and the graph must be
// acyclic.
func New(deps map[string][]string) (*Graph, error) {
	if len(deps) == 0 {
		return nil, errors.New("dependency graph must not be empty")
	}

	for component, componentDeps := range deps {
		// components become keys in the job document, so the mongo
		// field name restrictions apply
		if component == "" || strings.ContainsAny(component, ".$") {
			return nil, errors.Errorf("invalid component name '%s'", component)
		}
		for _, dep := range componentDeps {
			if _, ok := deps[dep]; !ok {
				return nil, errors.Errorf("component '%s' depends on '%s', which is not in the graph", component, dep)
			}
		}
	}

	g := &Graph{deps: map[string][]string{}}
	for component, componentDeps := range deps {
		g.deps[component] = append([]string{}, componentDeps...)
	}

	if cycle := g.findCycle(); len(cycle) != 0 {
		return nil, errors.Errorf("dependency graph contains a cycle: %s", strings.Join(cycle, " -> "))
	}

	g.downstream = map[string][]string{}
	for component := range g.deps {
		g.downstream[component] = g.computeDownstream(component)
	}

	return g, nil
}

// Components returns the components of the graph in lexical order.
func (g *Graph) Components() []string {
	components := make([]string, 0, len(g.deps))
	for component := range g.deps {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// Contains reports whether the component is part of the graph.
func (g *Graph) Contains(component string) bool {
	_, ok := g.deps[component]
	return ok
}

// Dependencies returns the direct build-time dependencies of the
// component.
func (g *Graph) Dependencies(component string) ([]string, error) {
	deps, ok := g.deps[component]
	if !ok {
		return nil, UnknownComponentError{Component: component}
	}
	return append([]string{}, deps...), nil
}

// DownstreamClosure returns every component that depends on the given
// component, directly or transitively, excluding the component itself.
// The result is in lexical order.
func (g *Graph) DownstreamClosure(component string) ([]string, error) {
	closure, ok := g.downstream[component]
	if !ok {
		return nil, UnknownComponentError{Component: component}
	}
	return append([]string{}, closure...), nil
}

// computeDownstream walks the reverse edge relation breadth-first from
// the component, collecting everything that consumes it.
func (g *Graph) computeDownstream(component string) []string {
	visited := map[string]bool{}
	workQueue := []string{component}

	for len(workQueue) > 0 {
		current := workQueue[0]
		workQueue = workQueue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		for consumer, consumerDeps := range g.deps {
			for _, dep := range consumerDeps {
				if dep == current {
					workQueue = append(workQueue, consumer)
					break
				}
			}
		}
	}

	delete(visited, component)

	closure := make([]string, 0, len(visited))
	for c := range visited {
		closure = append(closure, c)
	}
	sort.Strings(closure)
	return closure
}

// findCycle returns one dependency cycle if the graph contains any,
// otherwise nil.
func (g *Graph) findCycle() []string {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := map[string]int{}

	var stack []string
	var walk func(component string) []string
	walk = func(component string) []string {
		state[component] = inStack
		stack = append(stack, component)

		for _, dep := range g.deps[component] {
			switch state[dep] {
			case inStack:
				return append(stack, dep)
			case unvisited:
				if cycle := walk(dep); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[component] = done
		return nil
	}

	for _, component := range g.Components() {
		if state[component] == unvisited {
			if cycle := walk(component); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
