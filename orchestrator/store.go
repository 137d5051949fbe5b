package orchestrator

import (
	"context"

	"github.com/compose-ci/compose/model/job"
)

// DBJobStore is the production JobStore, backed by the job collection.
type DBJobStore struct{}

var _ JobStore = &DBJobStore{}

func (*DBJobStore) InsertJob(ctx context.Context, j *job.Job) error {
	return job.Insert(ctx, j)
}

func (*DBJobStore) FindJobId(ctx context.Context, id string) (*job.Job, error) {
	return job.FindOneId(ctx, id)
}

func (*DBJobStore) SetBuildComplete(ctx context.Context, jobId, component string) error {
	return job.SetBuildComplete(ctx, jobId, component)
}

func (*DBJobStore) GetBuildRequestId(ctx context.Context, jobId, component string) (string, error) {
	return job.GetBuildRequestId(ctx, jobId, component)
}

func (*DBJobStore) SetBuildRequestId(ctx context.Context, jobId, component, requestId string) error {
	return job.SetBuildRequestId(ctx, jobId, component, requestId)
}

func (*DBJobStore) SetBuildId(ctx context.Context, jobId, component, buildId string) error {
	return job.SetBuildId(ctx, jobId, component, buildId)
}
