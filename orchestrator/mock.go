package orchestrator

import (
	"context"
	"sync"

	"github.com/compose-ci/compose/db"
	"github.com/compose-ci/compose/model/job"
	"github.com/pkg/errors"
)

// MockJobStore is an in-memory JobStore that mirrors the conditional
// update semantics of the database implementation. It is safe for
// concurrent use.
type MockJobStore struct {
	mu   sync.Mutex
	jobs map[string]*job.Job

	// FailSetBuildComplete, when set, makes SetBuildComplete fail.
	FailSetBuildComplete bool
}

var _ JobStore = &MockJobStore{}

func NewMockJobStore() *MockJobStore {
	return &MockJobStore{jobs: map[string]*job.Job{}}
}

func copyJob(j *job.Job) *job.Job {
	out := &job.Job{Id: j.Id, Repositories: map[string]job.RepositoryStatus{}}
	for component, record := range j.Repositories {
		out.Repositories[component] = record
	}
	return out
}

func (s *MockJobStore) InsertJob(_ context.Context, j *job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[j.Id]; ok {
		return errors.Errorf("duplicate job '%s'", j.Id)
	}
	s.jobs[j.Id] = copyJob(j)
	return nil
}

func (s *MockJobStore) FindJobId(_ context.Context, id string) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return copyJob(j), nil
}

func (s *MockJobStore) SetBuildComplete(_ context.Context, jobId, component string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSetBuildComplete {
		return errors.New("mock store failure")
	}

	record, err := s.findRecord(jobId, component)
	if err != nil {
		return err
	}
	record.BuildComplete = true
	s.jobs[jobId].Repositories[component] = *record
	return nil
}

func (s *MockJobStore) GetBuildRequestId(_ context.Context, jobId, component string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.findRecord(jobId, component)
	if err != nil {
		return "", err
	}
	return record.BuildRequestId, nil
}

func (s *MockJobStore) SetBuildRequestId(_ context.Context, jobId, component, requestId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.findRecord(jobId, component)
	if err != nil {
		return err
	}
	if record.BuildRequestId != "" {
		return job.ErrRequestIdAlreadySet
	}
	record.BuildRequestId = requestId
	s.jobs[jobId].Repositories[component] = *record
	return nil
}

func (s *MockJobStore) SetBuildId(_ context.Context, jobId, component, buildId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.findRecord(jobId, component)
	if err != nil {
		return err
	}
	if record.BuildRequestId == "" || record.BuildId != "" {
		return nil
	}
	record.BuildId = buildId
	s.jobs[jobId].Repositories[component] = *record
	return nil
}

func (s *MockJobStore) findRecord(jobId, component string) (*job.RepositoryStatus, error) {
	j, ok := s.jobs[jobId]
	if !ok {
		return nil, errors.Wrapf(db.ErrNotFound, "job '%s'", jobId)
	}
	record, ok := j.Repositories[component]
	if !ok {
		return nil, errors.Wrapf(db.ErrNotFound, "component '%s' in job '%s'", component, jobId)
	}
	return &record, nil
}

// MockCommitResolver resolves every component to a canned commit. If
// the requested branch is in MissingBranches, the fallback branch is
// reported instead, mirroring the github resolver's behavior.
type MockCommitResolver struct {
	Commit          string
	FallbackBranch  string
	MissingBranches map[string]bool
	FailComponents  map[string]bool
}

var _ CommitResolver = &MockCommitResolver{}

func (r *MockCommitResolver) Resolve(_ context.Context, component, branch string) (*ResolvedCommit, error) {
	if r.FailComponents[component] {
		return nil, errors.Errorf("no branch of '%s' could be resolved", component)
	}
	commit := r.Commit
	if commit == "" {
		commit = "abcdef0123456789"
	}
	if r.MissingBranches[branch] {
		return &ResolvedCommit{Branch: r.FallbackBranch, Commit: commit}, nil
	}
	return &ResolvedCommit{Branch: branch, Commit: commit}, nil
}

// MockBuildSubmitter records every trigger and hands out sequential
// request ids.
type MockBuildSubmitter struct {
	mu        sync.Mutex
	nextId    int
	Triggered []string

	FailComponents map[string]bool
}

var _ BuildSubmitter = &MockBuildSubmitter{}

func (s *MockBuildSubmitter) TriggerBuild(_ context.Context, component, _, _, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailComponents[component] {
		return "", errors.Errorf("CI system rejected trigger for '%s'", component)
	}
	s.nextId++
	s.Triggered = append(s.Triggered, component)
	return "req-" + component + "-" + string(rune('0'+s.nextId%10)), nil
}

// TriggerCount returns how many times the component was triggered.
func (s *MockBuildSubmitter) TriggerCount(component string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, c := range s.Triggered {
		if c == component {
			count++
		}
	}
	return count
}

// MockBuildStatusChecker maps request ids to build ids.
type MockBuildStatusChecker struct {
	BuildIds       map[string]string
	FailComponents map[string]bool
}

var _ BuildStatusChecker = &MockBuildStatusChecker{}

func (c *MockBuildStatusChecker) QueryBuildId(_ context.Context, component, requestId string) (string, error) {
	if c.FailComponents[component] {
		return "", errors.Errorf("CI system unavailable for '%s'", component)
	}
	return c.BuildIds[requestId], nil
}
