package model

import (
	"github.com/compose-ci/compose/model/job"
	"github.com/evergreen-ci/utility"
)

// APIJob is the model to be returned by the API whenever jobs are
// fetched.
type APIJob struct {
	Id           *string                        `json:"id"`
	Complete     bool                           `json:"complete"`
	Repositories map[string]APIRepositoryStatus `json:"repositories"`
}

type APIRepositoryStatus struct {
	Branch         *string `json:"branch"`
	Commit         *string `json:"commit"`
	Status         *string `json:"status"`
	BuildComplete  bool    `json:"build_complete"`
	BuildRequestId *string `json:"build_request_id,omitempty"`
	BuildId        *string `json:"build_id,omitempty"`
}

// BuildFromService converts from service level structs to an APIJob.
func (apiJob *APIJob) BuildFromService(j *job.Job) {
	apiJob.Id = utility.ToStringPtr(j.Id)
	apiJob.Complete = j.IsComplete()
	apiJob.Repositories = map[string]APIRepositoryStatus{}
	for component, record := range j.Repositories {
		status := APIRepositoryStatus{
			Branch:        utility.ToStringPtr(record.Branch),
			Commit:        utility.ToStringPtr(record.Commit),
			Status:        utility.ToStringPtr(record.Status()),
			BuildComplete: record.BuildComplete,
		}
		if record.BuildRequestId != "" {
			status.BuildRequestId = utility.ToStringPtr(record.BuildRequestId)
		}
		if record.BuildId != "" {
			status.BuildId = utility.ToStringPtr(record.BuildId)
		}
		apiJob.Repositories[component] = status
	}
}
