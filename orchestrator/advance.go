package orchestrator

import (
	"context"

	"github.com/compose-ci/compose/db"
	"github.com/compose-ci/compose/model/job"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// Advance triggers a build for every component of the job that is
// ready: not yet requested, with every tracked dependency built. Each
// component is evaluated once per call; components that become ready as
// a result of this call's own triggers are picked up by later
// completion notifications, not chased here. Advance is idempotent on
// persisted state because a component with a recorded request id is
// never triggered again.
func (o *Orchestrator) Advance(ctx context.Context, j *job.Job) error {
	return o.launchReady(ctx, j, true)
}

// MarkBuildComplete records that the component's build finished and
// triggers any builds that completion unblocked. Returns the updated
// job.
func (o *Orchestrator) MarkBuildComplete(ctx context.Context, jobId, component string) (*job.Job, error) {
	j, err := o.store.FindJobId(ctx, jobId)
	if err != nil {
		return nil, errors.Wrapf(err, "finding job '%s'", jobId)
	}
	if j == nil {
		return nil, errors.Wrapf(db.ErrNotFound, "job '%s'", jobId)
	}
	record, ok := j.Repositories[component]
	if !ok {
		return nil, errors.Wrapf(db.ErrNotFound, "component '%s' in job '%s'", component, jobId)
	}

	if err = o.store.SetBuildComplete(ctx, jobId, component); err != nil {
		return nil, errors.Wrapf(err, "marking build complete for '%s' in job '%s'", component, jobId)
	}
	record.BuildComplete = true
	j.Repositories[component] = record

	grip.Info(message.Fields{
		"message":   "marked build complete",
		"job":       jobId,
		"component": component,
		"job_done":  j.IsComplete(),
	})

	// trigger failures are logged and retried on the next
	// notification; the completion itself already stuck
	grip.Error(message.WrapError(o.launchReady(ctx, j, true), message.Fields{
		"message": "advancing job after build completion",
		"job":     jobId,
	}))

	return j, nil
}

// launchReady makes one pass over the job's components, triggering
// every component that is ready to build. When the job is already
// persisted, the request-id guard is re-checked against the store right
// before triggering and the recorded id is written with a conditional
// field update, bounding the duplicate-trigger window under concurrent
// evaluations. A trigger or persistence failure for one component is
// collected and reported but does not stop evaluation of the others.
func (o *Orchestrator) launchReady(ctx context.Context, j *job.Job, persisted bool) error {
	catcher := grip.NewBasicCatcher()

	for _, component := range components(j) {
		record := j.Repositories[component]
		if record.BuildRequestId != "" {
			continue
		}
		if !o.isReady(j, component) {
			continue
		}

		if persisted {
			requestId, err := o.store.GetBuildRequestId(ctx, j.Id, component)
			if err != nil {
				catcher.Wrapf(err, "re-checking request id for '%s'", component)
				continue
			}
			if requestId != "" {
				// another evaluation got here first
				record.BuildRequestId = requestId
				j.Repositories[component] = record
				continue
			}
		}

		requestId, err := o.submitter.TriggerBuild(ctx, component, record.Commit, record.Branch, j.Id)
		if err != nil {
			grip.Error(message.WrapError(err, message.Fields{
				"message":   "triggering build",
				"job":       j.Id,
				"component": component,
			}))
			catcher.Wrapf(err, "triggering build for '%s'", component)
			continue
		}

		grip.Info(message.Fields{
			"message":    "triggered build",
			"job":        j.Id,
			"component":  component,
			"commit":     record.Commit,
			"branch":     record.Branch,
			"request_id": requestId,
		})

		if persisted {
			if err = o.store.SetBuildRequestId(ctx, j.Id, component, requestId); err != nil {
				if errors.Cause(err) == job.ErrRequestIdAlreadySet {
					grip.Warning(message.Fields{
						"message":    "duplicate trigger suppressed, keeping first recorded request id",
						"job":        j.Id,
						"component":  component,
						"request_id": requestId,
					})
					if recorded, getErr := o.store.GetBuildRequestId(ctx, j.Id, component); getErr == nil && recorded != "" {
						requestId = recorded
					}
				} else {
					catcher.Wrapf(err, "recording request id for '%s'", component)
					continue
				}
			}
		}

		record.BuildRequestId = requestId
		j.Repositories[component] = record
	}

	return catcher.Resolve()
}

// isReady reports whether every direct dependency of the component that
// the job tracks has completed its build. Dependencies outside the
// job's component set are treated as already satisfied.
func (o *Orchestrator) isReady(j *job.Job, component string) bool {
	deps, err := o.graph.Dependencies(component)
	if err != nil {
		// the job tracks a component the graph no longer knows; leave
		// it alone
		grip.Warning(message.WrapError(err, message.Fields{
			"message":   "job tracks component missing from the dependency graph",
			"job":       j.Id,
			"component": component,
		}))
		return false
	}

	for _, dep := range deps {
		if record, ok := j.Repositories[dep]; ok && !record.BuildComplete {
			return false
		}
	}
	return true
}
