package compose

import (
	"context"
	"sync"
	"time"

	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultMongoDialTimeout = 5 * time.Second
	defaultLocalQueueSize   = 1024
	defaultLocalQueuePool   = 2
)

var (
	globalEnv     Environment
	globalEnvLock sync.RWMutex
)

// GetEnvironment returns the global application level environment. It
// is thread safe, but must be configured with SetEnvironment before
// use. Outside of amboy job implementations, prefer passing the
// Environment explicitly.
func GetEnvironment() Environment {
	globalEnvLock.RLock()
	defer globalEnvLock.RUnlock()

	return globalEnv
}

func SetEnvironment(env Environment) {
	globalEnvLock.Lock()
	defer globalEnvLock.Unlock()

	globalEnv = env
}

// Environment provides application-level services: configuration, the
// job record database, and the local background queue. There is a mock
// implementation for use in testing.
type Environment interface {
	Settings() *Settings
	Client() *mongo.Client
	DB() *mongo.Database

	// LocalQueue is a process-local amboy queue used for best-effort
	// background work; its results are not persisted between runs.
	LocalQueue() amboy.Queue

	// Context returns a cancelable context rooted in the environment's
	// lifetime context.
	Context() (context.Context, context.CancelFunc)

	Close(context.Context) error
}

// NewEnvironment constructs an Environment, establishing a connection
// to the database and starting the local queue. The context passed in
// bounds the lifetime of the environment.
func NewEnvironment(ctx context.Context, settings *Settings) (Environment, error) {
	if settings == nil {
		return nil, errors.New("cannot construct environment with nil settings")
	}
	if err := settings.ValidateAndDefault(); err != nil {
		return nil, errors.Wrap(err, "validating settings")
	}

	e := &envState{settings: settings}
	e.ctx, e.cancel = context.WithCancel(ctx)

	dialCtx, cancel := context.WithTimeout(e.ctx, defaultMongoDialTimeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(settings.Database.URL))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to the database")
	}
	if err = client.Ping(dialCtx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "pinging the database")
	}
	e.client = client

	e.localQueue = queue.NewLocalLimitedSize(defaultLocalQueuePool, defaultLocalQueueSize)
	if err = e.localQueue.Start(e.ctx); err != nil {
		return nil, errors.Wrap(err, "starting local queue")
	}

	return e, nil
}

type envState struct {
	settings   *Settings
	client     *mongo.Client
	localQueue amboy.Queue
	ctx        context.Context
	cancel     context.CancelFunc
}

func (e *envState) Settings() *Settings     { return e.settings }
func (e *envState) Client() *mongo.Client   { return e.client }
func (e *envState) DB() *mongo.Database     { return e.client.Database(e.settings.Database.DB) }
func (e *envState) LocalQueue() amboy.Queue { return e.localQueue }

func (e *envState) Context() (context.Context, context.CancelFunc) {
	return context.WithCancel(e.ctx)
}

func (e *envState) Close(ctx context.Context) error {
	e.cancel()
	return errors.Wrap(e.client.Disconnect(ctx), "disconnecting from the database")
}
