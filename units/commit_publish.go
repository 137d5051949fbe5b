package units

import (
	"context"
	"fmt"
	"strings"

	"github.com/compose-ci/compose"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const commitPublishJobName = "commit-publish"

func init() {
	registry.AddJobType(commitPublishJobName, func() amboy.Job {
		return makeCommitPublishJob()
	})
}

// commitPublishJob publishes the commit a component was resolved to
// for a given composed-build job, so build scripts can fetch the
// coherent commit set from the bucket. Publication is best-effort;
// the orchestrator never depends on it.
type commitPublishJob struct {
	job.Base `bson:"job_base" json:"job_base" yaml:"job_base"`

	ComposeJobId string `bson:"compose_job_id" json:"compose_job_id" yaml:"compose_job_id"`
	Component    string `bson:"component" json:"component" yaml:"component"`
	Commit       string `bson:"commit" json:"commit" yaml:"commit"`

	env compose.Environment
}

func makeCommitPublishJob() *commitPublishJob {
	j := &commitPublishJob{
		Base: job.Base{
			JobType: amboy.JobType{
				Name:    commitPublishJobName,
				Version: 0,
			},
		},
	}

	j.SetDependency(dependency.NewAlways())
	return j
}

func NewCommitPublishJob(env compose.Environment, composeJobId, component, commit string) amboy.Job {
	j := makeCommitPublishJob()

	j.env = env
	j.ComposeJobId = composeJobId
	j.Component = component
	j.Commit = commit

	j.SetID(fmt.Sprintf("%s.%s.%s", commitPublishJobName, composeJobId, component))

	return j
}

func (j *commitPublishJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = compose.GetEnvironment()
	}

	bucketConfig := j.env.Settings().Bucket
	if bucketConfig.Name == "" {
		return
	}

	bucket, err := bucketConfig.NewBucket()
	if err != nil {
		j.AddError(errors.Wrap(err, "constructing bucket"))
		return
	}

	key := fmt.Sprintf("compose/build/%s/commits/%s", j.ComposeJobId, j.Component)
	if err = bucket.Put(ctx, key, strings.NewReader(j.Commit)); err != nil {
		j.AddError(errors.Wrapf(err, "publishing commit for '%s'", j.Component))
		return
	}

	grip.Info(message.Fields{
		"message":   "published commit metadata",
		"job":       j.ComposeJobId,
		"component": j.Component,
		"key":       key,
	})
}
