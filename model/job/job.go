package job

import (
	"fmt"
	"time"

	"github.com/compose-ci/compose"
	"github.com/evergreen-ci/utility"
)

// Job is one orchestration run: a root component plus its downstream
// closure, captured at creation time, with the per-repository build
// state. The job document in the database is the source of truth; an
// in-memory Job is a working copy for the duration of one request.
type Job struct {
	Id           string                      `bson:"_id" json:"id"`
	Repositories map[string]RepositoryStatus `bson:"repositories" json:"repositories"`
}

// RepositoryStatus is the per-component state within a job. The
// BuildRequestId, BuildId, and BuildComplete fields are monotonic:
// once set they are never cleared or changed.
type RepositoryStatus struct {
	// Branch is the branch the commit was resolved from; it may be the
	// fallback branch rather than the requested one.
	Branch string `bson:"branch" json:"branch"`
	Commit string `bson:"commit" json:"commit"`

	BuildComplete bool `bson:"build_complete" json:"build_complete"`

	// BuildRequestId is set exactly once, when a build has been
	// requested from the CI system.
	BuildRequestId string `bson:"build_request_id,omitempty" json:"build_request_id,omitempty"`
	// BuildId is set once the CI system reports a concrete build for
	// the request.
	BuildId string `bson:"build_id,omitempty" json:"build_id,omitempty"`
}

// NewId returns a unique, time-derived job id.
func NewId() string {
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), utility.RandomString()[:8])
}

// Status reports where the repository is in the
// pending/requested/building/complete progression.
func (r *RepositoryStatus) Status() string {
	switch {
	case r.BuildComplete:
		return compose.RepoStatusComplete
	case r.BuildId != "":
		return compose.RepoStatusBuilding
	case r.BuildRequestId != "":
		return compose.RepoStatusRequested
	default:
		return compose.RepoStatusPending
	}
}

// IsComplete reports whether every repository in the job has finished
// building.
func (j *Job) IsComplete() bool {
	for _, r := range j.Repositories {
		if !r.BuildComplete {
			return false
		}
	}
	return true
}
