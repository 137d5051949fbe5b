package service

import (
	"context"
	"net/http"
	"time"

	"github.com/compose-ci/compose"
	"github.com/compose-ci/compose/graph"
	"github.com/compose-ci/compose/orchestrator"
	"github.com/compose-ci/compose/rest/route"
	"github.com/compose-ci/compose/thirdparty"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// GetServer produces an HTTP server instance for a handler.
func GetServer(addr string, n http.Handler) *http.Server {
	grip.Notice(message.Fields{
		"action":  "starting service",
		"service": addr,
		"build":   compose.BuildRevision,
		"process": grip.Name(),
	})

	return &http.Server{
		Addr:              addr,
		Handler:           n,
		ReadTimeout:       time.Minute,
		ReadHeaderTimeout: 30 * time.Second,
		WriteTimeout:      time.Minute,
	}
}

// GetRouter assembles the orchestrator from the environment's settings
// and returns the HTTP handler serving the REST API.
func GetRouter(env compose.Environment) (http.Handler, error) {
	settings := env.Settings()

	g, err := graph.New(settings.Graph)
	if err != nil {
		return nil, errors.Wrap(err, "building dependency graph")
	}

	ci := thirdparty.NewTravisClient(settings.CI.BaseURL, settings.CI.Token, settings.CI.Owner, settings.CI.Script)
	o, err := orchestrator.New(orchestrator.Options{
		Graph:     g,
		Store:     &orchestrator.DBJobStore{},
		Resolver:  newGithubCommitResolver(settings.Github),
		Submitter: ci,
		Status:    ci,
		Env:       env,
	})
	if err != nil {
		return nil, errors.Wrap(err, "constructing orchestrator")
	}

	return route.GetApp(o).Handler()
}

// githubCommitResolver adapts branch resolution against github to the
// orchestrator's CommitResolver interface.
type githubCommitResolver struct {
	conf compose.GithubConfig
}

func newGithubCommitResolver(conf compose.GithubConfig) *githubCommitResolver {
	return &githubCommitResolver{conf: conf}
}

func (r *githubCommitResolver) Resolve(ctx context.Context, component, branch string) (*orchestrator.ResolvedCommit, error) {
	resolution, err := thirdparty.ResolveBranchCommit(ctx, r.conf.Token, r.conf.Owner, component, branch, r.conf.FallbackBranch)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &orchestrator.ResolvedCommit{
		Branch: resolution.Branch,
		Commit: resolution.Commit,
	}, nil
}
