package orchestrator

import (
	"context"

	"github.com/compose-ci/compose/db"
	"github.com/compose-ci/compose/model/job"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// FetchJob returns the job with any newly learned build ids filled in.
func (o *Orchestrator) FetchJob(ctx context.Context, jobId string) (*job.Job, error) {
	j, err := o.store.FindJobId(ctx, jobId)
	if err != nil {
		return nil, errors.Wrapf(err, "finding job '%s'", jobId)
	}
	if j == nil {
		return nil, errors.Wrapf(db.ErrNotFound, "job '%s'", jobId)
	}

	o.Reconcile(ctx, j)

	return j, nil
}

// Reconcile asks the CI system for the concrete build id of every
// component whose build was requested but whose build id is still
// unknown, persisting whatever it learns. This is read-path enrichment:
// it never triggers builds, and a status query failing for one
// component does not stop the others.
func (o *Orchestrator) Reconcile(ctx context.Context, j *job.Job) {
	for _, component := range components(j) {
		record := j.Repositories[component]
		if record.BuildRequestId == "" || record.BuildId != "" {
			continue
		}

		buildId, err := o.status.QueryBuildId(ctx, component, record.BuildRequestId)
		if err != nil {
			grip.Warning(message.WrapError(err, message.Fields{
				"message":    "querying build id",
				"job":        j.Id,
				"component":  component,
				"request_id": record.BuildRequestId,
			}))
			continue
		}
		if buildId == "" {
			// no concrete build yet
			continue
		}

		if err = o.store.SetBuildId(ctx, j.Id, component, buildId); err != nil {
			grip.Warning(message.WrapError(err, message.Fields{
				"message":   "recording build id",
				"job":       j.Id,
				"component": component,
				"build_id":  buildId,
			}))
			continue
		}

		record.BuildId = buildId
		j.Repositories[component] = record
	}
}
