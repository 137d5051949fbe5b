// Package orchestrator drives a composed build: given a root component
// and a branch, it computes every component downstream of the root,
// records the set as a job, and triggers each component's build once
// all of its tracked dependencies have finished building.
package orchestrator

import (
	"context"
	"sort"

	"github.com/compose-ci/compose"
	"github.com/compose-ci/compose/graph"
	"github.com/compose-ci/compose/model/job"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// ResolvedCommit is the commit a component will build at, together
// with the branch it was resolved from (possibly a fallback).
type ResolvedCommit struct {
	Branch string
	Commit string
}

// CommitResolver maps a (component, branch) pair to a concrete commit.
type CommitResolver interface {
	Resolve(ctx context.Context, component, branch string) (*ResolvedCommit, error)
}

// BuildSubmitter requests that the external CI system start a build,
// returning the CI system's request id. Implementations must be safe
// for concurrent calls for different components.
type BuildSubmitter interface {
	TriggerBuild(ctx context.Context, component, commit, branch, jobId string) (string, error)
}

// BuildStatusChecker asks the CI system whether a previously issued
// build request has produced a concrete build. An empty build id with a
// nil error means not yet.
type BuildStatusChecker interface {
	QueryBuildId(ctx context.Context, component, requestId string) (string, error)
}

// JobStore is the durable record store for jobs. All mutations are
// field-scoped so concurrent writers for different components of the
// same job cannot lose each other's updates.
type JobStore interface {
	InsertJob(ctx context.Context, j *job.Job) error
	FindJobId(ctx context.Context, id string) (*job.Job, error)
	SetBuildComplete(ctx context.Context, jobId, component string) error
	GetBuildRequestId(ctx context.Context, jobId, component string) (string, error)
	// SetBuildRequestId records a request id if and only if none is
	// recorded yet, returning job.ErrRequestIdAlreadySet otherwise.
	SetBuildRequestId(ctx context.Context, jobId, component, requestId string) error
	SetBuildId(ctx context.Context, jobId, component, buildId string) error
}

// Options collects the collaborators of an Orchestrator.
type Options struct {
	Graph     *graph.Graph
	Store     JobStore
	Resolver  CommitResolver
	Submitter BuildSubmitter
	Status    BuildStatusChecker
	// Env is used to queue best-effort background work; it may be nil,
	// which disables commit metadata publication.
	Env compose.Environment
}

type Orchestrator struct {
	graph     *graph.Graph
	store     JobStore
	resolver  CommitResolver
	submitter BuildSubmitter
	status    BuildStatusChecker
	env       compose.Environment
}

func New(opts Options) (*Orchestrator, error) {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(opts.Graph == nil, "must provide a dependency graph")
	catcher.NewWhen(opts.Store == nil, "must provide a job store")
	catcher.NewWhen(opts.Resolver == nil, "must provide a commit resolver")
	catcher.NewWhen(opts.Submitter == nil, "must provide a build submitter")
	catcher.NewWhen(opts.Status == nil, "must provide a build status checker")
	if err := catcher.Resolve(); err != nil {
		return nil, errors.Wrap(err, "invalid orchestrator options")
	}

	return &Orchestrator{
		graph:     opts.Graph,
		store:     opts.Store,
		resolver:  opts.Resolver,
		submitter: opts.Submitter,
		status:    opts.Status,
		env:       opts.Env,
	}, nil
}

// components returns the job's components in lexical order, so that
// evaluation order is deterministic.
func components(j *job.Job) []string {
	out := make([]string, 0, len(j.Repositories))
	for component := range j.Repositories {
		out = append(out, component)
	}
	sort.Strings(out)
	return out
}
