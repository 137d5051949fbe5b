package mock

import (
	"context"

	"github.com/compose-ci/compose"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"go.mongodb.org/mongo-driver/mongo"
)

// this is just a hack to ensure that compile breaks clearly if the
// mock implementation diverges from the interface
var _ compose.Environment = &Environment{}

// Environment is a test implementation of compose.Environment. The
// database accessors return nil unless a client is provided; tests
// that only need settings and the local queue can leave them unset.
type Environment struct {
	ComposeSettings *compose.Settings
	Local           amboy.Queue
	MongoClient     *mongo.Client
}

func NewEnvironment(ctx context.Context, settings *compose.Settings) (*Environment, error) {
	e := &Environment{
		ComposeSettings: settings,
		Local:           queue.NewLocalLimitedSize(2, 128),
	}
	if err := e.Local.Start(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Environment) Settings() *compose.Settings { return e.ComposeSettings }
func (e *Environment) Client() *mongo.Client       { return e.MongoClient }
func (e *Environment) LocalQueue() amboy.Queue     { return e.Local }

func (e *Environment) DB() *mongo.Database {
	if e.MongoClient == nil {
		return nil
	}
	return e.MongoClient.Database(e.ComposeSettings.Database.DB)
}

func (e *Environment) Context() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

func (e *Environment) Close(context.Context) error { return nil }
