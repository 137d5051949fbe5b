package route

import (
	"github.com/compose-ci/compose"
	"github.com/compose-ci/compose/orchestrator"
	"github.com/evergreen-ci/gimlet"
)

// GetApp builds the REST application serving the orchestration API:
//
//	POST /rest/v1/jobs
//	GET  /rest/v1/jobs/{job_id}
//	POST /rest/v1/jobs/{job_id}/complete/{component}
func GetApp(o *orchestrator.Orchestrator) *gimlet.APIApp {
	app := gimlet.NewApp()
	app.SetPrefix(compose.RestRoutePrefix)

	app.AddRoute("/jobs").Version(1).Post().RouteHandler(makeCreateJob(o))
	app.AddRoute("/jobs/{job_id}").Version(1).Get().RouteHandler(makeGetJob(o))
	app.AddRoute("/jobs/{job_id}/complete/{component}").Version(1).Post().RouteHandler(makeCompleteBuild(o))

	return app
}
