package orchestrator

import (
	"context"

	"github.com/compose-ci/compose/model/job"
	"github.com/compose-ci/compose/units"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// CreateJob starts a new composed build rooted at the given component.
// It resolves a commit for the root and everything downstream of it,
// triggers the initial wave of builds, and persists the job. Either the
// whole job is created or none of it: an unknown component or a failed
// commit resolution rejects the operation outright. A failed build
// trigger does not; the affected component stays pending and is retried
// the next time the job advances.
func (o *Orchestrator) CreateJob(ctx context.Context, rootComponent, branch string) (*job.Job, error) {
	if branch == "" {
		return nil, errors.New("branch must not be empty")
	}

	closure, err := o.graph.DownstreamClosure(rootComponent)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	repositories := map[string]job.RepositoryStatus{}
	for _, component := range append([]string{rootComponent}, closure...) {
		resolved, err := o.resolver.Resolve(ctx, component, branch)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving branch '%s' for component '%s'", branch, component)
		}
		repositories[component] = job.RepositoryStatus{
			Branch: resolved.Branch,
			Commit: resolved.Commit,
		}
	}

	j := &job.Job{
		Id:           job.NewId(),
		Repositories: repositories,
	}

	grip.Info(message.Fields{
		"message":    "creating composed build job",
		"job":        j.Id,
		"root":       rootComponent,
		"branch":     branch,
		"components": len(repositories),
	})

	// launch the initial wave before the job document exists so the
	// triggers and the created record land in one logical step
	grip.Error(message.WrapError(o.launchReady(ctx, j, false), message.Fields{
		"message": "triggering initial builds",
		"job":     j.Id,
	}))

	if err = o.store.InsertJob(ctx, j); err != nil {
		return nil, errors.Wrapf(err, "persisting job '%s'", j.Id)
	}

	o.publishCommits(ctx, j)

	return j, nil
}

// publishCommits queues best-effort publication of each component's
// resolved commit. Failures are logged and never affect the job.
func (o *Orchestrator) publishCommits(ctx context.Context, j *job.Job) {
	if o.env == nil || o.env.Settings().Bucket.Name == "" {
		return
	}

	queue := o.env.LocalQueue()
	catcher := grip.NewBasicCatcher()
	for _, component := range components(j) {
		catcher.Wrapf(queue.Put(ctx, units.NewCommitPublishJob(o.env, j.Id, component, j.Repositories[component].Commit)), "component '%s'", component)
	}
	grip.Warning(message.WrapError(catcher.Resolve(), message.Fields{
		"message": "queueing commit metadata publication",
		"job":     j.Id,
	}))
}
