package route

import (
	"context"
	"fmt"
	"net/http"

	"github.com/compose-ci/compose/db"
	"github.com/compose-ci/compose/graph"
	"github.com/compose-ci/compose/orchestrator"
	"github.com/compose-ci/compose/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/pkg/errors"
)

////////////////////////////////////////////////////////////////////////
//
// POST /rest/v1/jobs

type jobCreateHandler struct {
	component string
	branch    string

	orchestrator *orchestrator.Orchestrator
}

func makeCreateJob(o *orchestrator.Orchestrator) gimlet.RouteHandler {
	return &jobCreateHandler{orchestrator: o}
}

func (h *jobCreateHandler) Factory() gimlet.RouteHandler {
	return &jobCreateHandler{orchestrator: h.orchestrator}
}

type jobCreateRequest struct {
	Component string `json:"component"`
	Branch    string `json:"branch"`
}

func (h *jobCreateHandler) Parse(ctx context.Context, r *http.Request) error {
	payload := jobCreateRequest{}
	if err := gimlet.GetJSON(r.Body, &payload); err != nil {
		return gimlet.ErrorResponse{
			Message:    errors.Wrap(err, "reading job options from request body").Error(),
			StatusCode: http.StatusBadRequest,
		}
	}
	if payload.Component == "" {
		return gimlet.ErrorResponse{
			Message:    "component cannot be empty",
			StatusCode: http.StatusBadRequest,
		}
	}
	if payload.Branch == "" {
		return gimlet.ErrorResponse{
			Message:    "branch cannot be empty",
			StatusCode: http.StatusBadRequest,
		}
	}

	h.component = payload.Component
	h.branch = payload.Branch
	return nil
}

func (h *jobCreateHandler) Run(ctx context.Context) gimlet.Responder {
	j, err := h.orchestrator.CreateJob(ctx, h.component, h.branch)
	if err != nil {
		if graph.IsUnknownComponent(err) {
			return gimlet.MakeJSONErrorResponder(gimlet.ErrorResponse{
				Message:    err.Error(),
				StatusCode: http.StatusBadRequest,
			})
		}
		return gimlet.NewJSONInternalErrorResponse(errors.Wrapf(err, "creating job for component '%s'", h.component))
	}

	apiJob := &model.APIJob{}
	apiJob.BuildFromService(j)

	resp := gimlet.NewJSONResponse(apiJob)
	if err = resp.SetStatus(http.StatusCreated); err != nil {
		return gimlet.NewJSONInternalErrorResponse(errors.Wrap(err, "setting response status"))
	}
	return resp
}

////////////////////////////////////////////////////////////////////////
//
// GET /rest/v1/jobs/{job_id}

type jobGetHandler struct {
	jobId string

	orchestrator *orchestrator.Orchestrator
}

func makeGetJob(o *orchestrator.Orchestrator) gimlet.RouteHandler {
	return &jobGetHandler{orchestrator: o}
}

func (h *jobGetHandler) Factory() gimlet.RouteHandler {
	return &jobGetHandler{orchestrator: h.orchestrator}
}

func (h *jobGetHandler) Parse(ctx context.Context, r *http.Request) error {
	h.jobId = gimlet.GetVars(r)["job_id"]
	if h.jobId == "" {
		return gimlet.ErrorResponse{
			Message:    "job ID cannot be empty",
			StatusCode: http.StatusBadRequest,
		}
	}
	return nil
}

func (h *jobGetHandler) Run(ctx context.Context) gimlet.Responder {
	j, err := h.orchestrator.FetchJob(ctx, h.jobId)
	if err != nil {
		if db.ResultsNotFound(err) {
			return gimlet.MakeJSONErrorResponder(gimlet.ErrorResponse{
				Message:    fmt.Sprintf("job '%s' not found", h.jobId),
				StatusCode: http.StatusNotFound,
			})
		}
		return gimlet.NewJSONInternalErrorResponse(errors.Wrapf(err, "finding job '%s'", h.jobId))
	}

	apiJob := &model.APIJob{}
	apiJob.BuildFromService(j)
	return gimlet.NewJSONResponse(apiJob)
}

////////////////////////////////////////////////////////////////////////
//
// POST /rest/v1/jobs/{job_id}/complete/{component}

type jobCompleteHandler struct {
	jobId     string
	component string

	orchestrator *orchestrator.Orchestrator
}

func makeCompleteBuild(o *orchestrator.Orchestrator) gimlet.RouteHandler {
	return &jobCompleteHandler{orchestrator: o}
}

func (h *jobCompleteHandler) Factory() gimlet.RouteHandler {
	return &jobCompleteHandler{orchestrator: h.orchestrator}
}

func (h *jobCompleteHandler) Parse(ctx context.Context, r *http.Request) error {
	vars := gimlet.GetVars(r)
	h.jobId = vars["job_id"]
	h.component = vars["component"]
	if h.jobId == "" {
		return gimlet.ErrorResponse{
			Message:    "job ID cannot be empty",
			StatusCode: http.StatusBadRequest,
		}
	}
	if h.component == "" {
		return gimlet.ErrorResponse{
			Message:    "component cannot be empty",
			StatusCode: http.StatusBadRequest,
		}
	}
	return nil
}

func (h *jobCompleteHandler) Run(ctx context.Context) gimlet.Responder {
	j, err := h.orchestrator.MarkBuildComplete(ctx, h.jobId, h.component)
	if err != nil {
		if db.ResultsNotFound(err) {
			return gimlet.MakeJSONErrorResponder(gimlet.ErrorResponse{
				Message:    fmt.Sprintf("component '%s' in job '%s' not found", h.component, h.jobId),
				StatusCode: http.StatusNotFound,
			})
		}
		return gimlet.NewJSONInternalErrorResponse(errors.Wrapf(err, "marking build complete for '%s' in job '%s'", h.component, h.jobId))
	}

	apiJob := &model.APIJob{}
	apiJob.BuildFromService(j)
	return gimlet.NewJSONResponse(apiJob)
}
