package job

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/compose-ci/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewId(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewId()
		assert.False(t, seen[id], "id '%s' is not unique", id)
		seen[id] = true

		parts := strings.SplitN(id, "_", 2)
		require.Len(t, parts, 2)
		millis, err := strconv.ParseInt(parts[0], 10, 64)
		require.NoError(t, err)
		assert.InDelta(t, time.Now().UnixMilli(), millis, float64(time.Minute.Milliseconds()))
	}
}

func TestRepositoryStatus(t *testing.T) {
	r := RepositoryStatus{Branch: "main", Commit: "abcdef"}
	assert.Equal(t, compose.RepoStatusPending, r.Status())

	r.BuildRequestId = "101"
	assert.Equal(t, compose.RepoStatusRequested, r.Status())

	r.BuildId = "202"
	assert.Equal(t, compose.RepoStatusBuilding, r.Status())

	r.BuildComplete = true
	assert.Equal(t, compose.RepoStatusComplete, r.Status())
}

func TestJobIsComplete(t *testing.T) {
	j := &Job{
		Id: NewId(),
		Repositories: map[string]RepositoryStatus{
			"a": {BuildComplete: true},
			"b": {BuildComplete: false},
		},
	}
	assert.False(t, j.IsComplete())

	b := j.Repositories["b"]
	b.BuildComplete = true
	j.Repositories["b"] = b
	assert.True(t, j.IsComplete())

	empty := &Job{Id: NewId(), Repositories: map[string]RepositoryStatus{}}
	assert.True(t, empty.IsComplete())
}

func TestRepositoryFieldKeys(t *testing.T) {
	assert.Equal(t, "repositories.pulumi", repositoryKey("pulumi"))
	assert.Equal(t, "repositories.pulumi.build_complete", repositoryFieldKey("pulumi", buildCompleteKey))
	assert.Equal(t, "repositories.pulumi.build_request_id", repositoryFieldKey("pulumi", buildRequestIdKey))
	assert.Equal(t, "repositories.pulumi.build_id", repositoryFieldKey("pulumi", buildIdKey))
}
