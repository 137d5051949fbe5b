package route

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/compose-ci/compose/graph"
	"github.com/compose-ci/compose/orchestrator"
	restmodel "github.com/compose-ci/compose/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestOrchestrator(t *testing.T) (*orchestrator.Orchestrator, *orchestrator.MockBuildSubmitter) {
	g, err := graph.New(map[string][]string{
		"pulumi":     {},
		"pulumi-aws": {"pulumi"},
	})
	require.NoError(t, err)

	submitter := &orchestrator.MockBuildSubmitter{}
	o, err := orchestrator.New(orchestrator.Options{
		Graph:     g,
		Store:     orchestrator.NewMockJobStore(),
		Resolver:  &orchestrator.MockCommitResolver{Commit: "deadbeef", FallbackBranch: "master"},
		Submitter: submitter,
		Status:    &orchestrator.MockBuildStatusChecker{BuildIds: map[string]string{}},
	})
	require.NoError(t, err)
	return o, submitter
}

func TestJobCreateHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesJob", func(t *testing.T) {
		o, submitter := makeTestOrchestrator(t)
		h := makeCreateJob(o).Factory()

		body := bytes.NewBufferString(`{"component": "pulumi", "branch": "feature"}`)
		r := httptest.NewRequest(http.MethodPost, "/jobs", body)
		require.NoError(t, h.Parse(ctx, r))

		resp := h.Run(ctx)
		require.Equal(t, http.StatusCreated, resp.Status())

		apiJob, ok := resp.Data().(*restmodel.APIJob)
		require.True(t, ok)
		assert.NotZero(t, utility.FromStringPtr(apiJob.Id))
		assert.Len(t, apiJob.Repositories, 2)
		assert.False(t, apiJob.Complete)
		assert.Equal(t, []string{"pulumi"}, submitter.Triggered)
	})
	t.Run("RejectsUnknownComponent", func(t *testing.T) {
		o, _ := makeTestOrchestrator(t)
		h := makeCreateJob(o).Factory()

		body := bytes.NewBufferString(`{"component": "nonexistent", "branch": "feature"}`)
		r := httptest.NewRequest(http.MethodPost, "/jobs", body)
		require.NoError(t, h.Parse(ctx, r))

		resp := h.Run(ctx)
		assert.Equal(t, http.StatusBadRequest, resp.Status())
	})
	t.Run("RejectsMissingBranch", func(t *testing.T) {
		o, _ := makeTestOrchestrator(t)
		h := makeCreateJob(o).Factory()

		body := bytes.NewBufferString(`{"component": "pulumi"}`)
		r := httptest.NewRequest(http.MethodPost, "/jobs", body)
		assert.Error(t, h.Parse(ctx, r))
	})
	t.Run("RejectsMalformedBody", func(t *testing.T) {
		o, _ := makeTestOrchestrator(t)
		h := makeCreateJob(o).Factory()

		body := bytes.NewBufferString(`{not json`)
		r := httptest.NewRequest(http.MethodPost, "/jobs", body)
		assert.Error(t, h.Parse(ctx, r))
	})
}

func TestJobGetHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("FetchesJob", func(t *testing.T) {
		o, _ := makeTestOrchestrator(t)
		j, err := o.CreateJob(ctx, "pulumi", "feature")
		require.NoError(t, err)

		h := makeGetJob(o).Factory()
		r := httptest.NewRequest(http.MethodGet, "/jobs/"+j.Id, nil)
		r = gimlet.SetURLVars(r, map[string]string{"job_id": j.Id})
		require.NoError(t, h.Parse(ctx, r))

		resp := h.Run(ctx)
		require.Equal(t, http.StatusOK, resp.Status())

		apiJob, ok := resp.Data().(*restmodel.APIJob)
		require.True(t, ok)
		assert.Equal(t, j.Id, utility.FromStringPtr(apiJob.Id))
	})
	t.Run("NotFound", func(t *testing.T) {
		o, _ := makeTestOrchestrator(t)

		h := makeGetJob(o).Factory()
		r := httptest.NewRequest(http.MethodGet, "/jobs/nonexistent", nil)
		r = gimlet.SetURLVars(r, map[string]string{"job_id": "nonexistent"})
		require.NoError(t, h.Parse(ctx, r))

		resp := h.Run(ctx)
		assert.Equal(t, http.StatusNotFound, resp.Status())
	})
	t.Run("RejectsEmptyJobId", func(t *testing.T) {
		o, _ := makeTestOrchestrator(t)

		h := makeGetJob(o).Factory()
		r := httptest.NewRequest(http.MethodGet, "/jobs/", nil)
		r = gimlet.SetURLVars(r, map[string]string{})
		assert.Error(t, h.Parse(ctx, r))
	})
}

func TestJobCompleteHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("MarksCompleteAndAdvances", func(t *testing.T) {
		o, submitter := makeTestOrchestrator(t)
		j, err := o.CreateJob(ctx, "pulumi", "feature")
		require.NoError(t, err)

		h := makeCompleteBuild(o).Factory()
		r := httptest.NewRequest(http.MethodPost, "/jobs/"+j.Id+"/complete/pulumi", nil)
		r = gimlet.SetURLVars(r, map[string]string{"job_id": j.Id, "component": "pulumi"})
		require.NoError(t, h.Parse(ctx, r))

		resp := h.Run(ctx)
		require.Equal(t, http.StatusOK, resp.Status())

		apiJob, ok := resp.Data().(*restmodel.APIJob)
		require.True(t, ok)
		assert.True(t, apiJob.Repositories["pulumi"].BuildComplete)
		assert.Equal(t, []string{"pulumi", "pulumi-aws"}, submitter.Triggered)
	})
	t.Run("NotFoundForUnknownComponent", func(t *testing.T) {
		o, _ := makeTestOrchestrator(t)
		j, err := o.CreateJob(ctx, "pulumi-aws", "feature")
		require.NoError(t, err)

		h := makeCompleteBuild(o).Factory()
		r := httptest.NewRequest(http.MethodPost, "/jobs/"+j.Id+"/complete/pulumi", nil)
		r = gimlet.SetURLVars(r, map[string]string{"job_id": j.Id, "component": "pulumi"})
		require.NoError(t, h.Parse(ctx, r))

		resp := h.Run(ctx)
		assert.Equal(t, http.StatusNotFound, resp.Status())
	})
}
