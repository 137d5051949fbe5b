package job

import (
	"context"
	"strings"

	"github.com/compose-ci/compose/db"
	"github.com/mongodb/anser/bsonutil"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// The MongoDB collection for job documents.
const Collection = "jobs"

var (
	// bson fields for the job struct
	IdKey           = bsonutil.MustHaveTag(Job{}, "Id")
	RepositoriesKey = bsonutil.MustHaveTag(Job{}, "Repositories")

	// bson fields for the embedded repository status
	branchKey         = bsonutil.MustHaveTag(RepositoryStatus{}, "Branch")
	commitKey         = bsonutil.MustHaveTag(RepositoryStatus{}, "Commit")
	buildCompleteKey  = bsonutil.MustHaveTag(RepositoryStatus{}, "BuildComplete")
	buildRequestIdKey = bsonutil.MustHaveTag(RepositoryStatus{}, "BuildRequestId")
	buildIdKey        = bsonutil.MustHaveTag(RepositoryStatus{}, "BuildId")
)

// ErrRequestIdAlreadySet indicates that a guarded request id write lost
// the race to a concurrent evaluation; the id already in the document
// wins.
var ErrRequestIdAlreadySet = errors.New("build request id is already recorded")

func repositoryKey(component string) string {
	return strings.Join([]string{RepositoriesKey, component}, ".")
}

func repositoryFieldKey(component, field string) string {
	return strings.Join([]string{RepositoriesKey, component, field}, ".")
}

// FindOneId returns the job with the given id, or nil if there is no
// such job.
func FindOneId(ctx context.Context, id string) (*Job, error) {
	j := &Job{}
	err := db.FindOne(ctx, Collection, bson.M{IdKey: id}, j)
	if db.ResultsNotFound(err) {
		return nil, nil
	}
	return j, err
}

// Insert writes the full job document. This is the only whole-document
// write; every later mutation is a field-scoped update.
func Insert(ctx context.Context, j *Job) error {
	return errors.Wrapf(db.Insert(ctx, Collection, j), "inserting job '%s'", j.Id)
}

// SetBuildComplete marks the component's build as finished. The update
// touches only that component's field, so concurrent completions of
// other components in the same job cannot lose writes. Returns
// db.ErrNotFound if the job or component does not exist.
func SetBuildComplete(ctx context.Context, jobId, component string) error {
	return db.UpdateOne(ctx,
		Collection,
		bson.M{
			IdKey:                    jobId,
			repositoryKey(component): bson.M{"$exists": true},
		},
		bson.M{"$set": bson.M{
			repositoryFieldKey(component, buildCompleteKey): true,
		}},
	)
}

// GetBuildRequestId reads the component's current build request id
// straight from the database, bypassing any in-memory copy of the job.
func GetBuildRequestId(ctx context.Context, jobId, component string) (string, error) {
	j, err := FindOneId(ctx, jobId)
	if err != nil {
		return "", errors.Wrapf(err, "finding job '%s'", jobId)
	}
	if j == nil {
		return "", errors.Wrapf(db.ErrNotFound, "job '%s'", jobId)
	}
	r, ok := j.Repositories[component]
	if !ok {
		return "", errors.Wrapf(db.ErrNotFound, "component '%s' in job '%s'", component, jobId)
	}
	return r.BuildRequestId, nil
}

// SetBuildRequestId records the id returned by the CI system for the
// component's build request. The write is guarded so the field can only
// transition from unset to set; if a concurrent evaluation already
// recorded an id, ErrRequestIdAlreadySet is returned and the document
// is unchanged.
func SetBuildRequestId(ctx context.Context, jobId, component, requestId string) error {
	err := db.UpdateOne(ctx,
		Collection,
		bson.M{
			IdKey:                    jobId,
			repositoryKey(component): bson.M{"$exists": true},
			repositoryFieldKey(component, buildRequestIdKey): bson.M{"$exists": false},
		},
		bson.M{"$set": bson.M{
			repositoryFieldKey(component, buildRequestIdKey): requestId,
		}},
	)
	if db.ResultsNotFound(err) {
		current, getErr := GetBuildRequestId(ctx, jobId, component)
		if getErr != nil {
			return getErr
		}
		if current != "" {
			return ErrRequestIdAlreadySet
		}
		return errors.Wrapf(db.ErrNotFound, "component '%s' in job '%s'", component, jobId)
	}
	return errors.Wrapf(err, "recording build request id for '%s' in job '%s'", component, jobId)
}

// SetBuildId records the concrete build id for a previously requested
// build. Guarded the same way as SetBuildRequestId; losing the race is
// not an error since both writers learned the id from the same CI
// request.
func SetBuildId(ctx context.Context, jobId, component, buildId string) error {
	err := db.UpdateOne(ctx,
		Collection,
		bson.M{
			IdKey: jobId,
			repositoryFieldKey(component, buildRequestIdKey): bson.M{"$exists": true},
			repositoryFieldKey(component, buildIdKey):        bson.M{"$exists": false},
		},
		bson.M{"$set": bson.M{
			repositoryFieldKey(component, buildIdKey): buildId,
		}},
	)
	if db.ResultsNotFound(err) {
		// already recorded by a concurrent fetch
		return nil
	}
	return errors.Wrapf(err, "recording build id for '%s' in job '%s'", component, jobId)
}
