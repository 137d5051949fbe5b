package compose

import (
	"os"

	"github.com/evergreen-ci/pail"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

const (
	DefaultDatabaseURL  = "mongodb://localhost:27017"
	DefaultDatabaseName = "compose"
	DefaultListenAddr   = ":9090"
	DefaultCIBaseURL    = "https://api.travis-ci.com"

	defaultFallbackBranch = "master"
)

// Settings contains the complete configuration for the orchestration
// service. It is loaded once from a yaml file at process startup and
// treated as read-only afterwards.
type Settings struct {
	Database DBSettings          `bson:"database" json:"database" yaml:"database"`
	Service  ServiceConfig       `bson:"service" json:"service" yaml:"service"`
	Graph    map[string][]string `bson:"graph" json:"graph" yaml:"graph"`
	Github   GithubConfig        `bson:"github" json:"github" yaml:"github"`
	CI       CIConfig            `bson:"ci" json:"ci" yaml:"ci"`
	Bucket   BucketConfig        `bson:"bucket" json:"bucket" yaml:"bucket"`
	LogLevel string              `bson:"log_level" json:"log_level" yaml:"log_level"`
}

// DBSettings holds the connection information for the job record store.
type DBSettings struct {
	URL string `bson:"url" json:"url" yaml:"url"`
	DB  string `bson:"db" json:"db" yaml:"db"`
}

// ServiceConfig holds relevant settings for the HTTP service.
type ServiceConfig struct {
	HTTPListenAddr string `bson:"http_listen_addr" json:"http_listen_addr" yaml:"http_listen_addr"`
}

// GithubConfig configures commit resolution. All repositories in the
// dependency graph are expected to live under a single owner.
type GithubConfig struct {
	Token string `bson:"token" json:"token" yaml:"token"`
	Owner string `bson:"owner" json:"owner" yaml:"owner"`
	// FallbackBranch is used when the requested branch does not exist
	// for a repository.
	FallbackBranch string `bson:"fallback_branch" json:"fallback_branch" yaml:"fallback_branch"`
}

// CIConfig configures the external CI system that runs the builds.
type CIConfig struct {
	BaseURL string `bson:"base_url" json:"base_url" yaml:"base_url"`
	Token   string `bson:"token" json:"token" yaml:"token"`
	Owner   string `bson:"owner" json:"owner" yaml:"owner"`
	// Script, if set, overrides the build script for triggered builds;
	// the job id is appended as its only argument.
	Script string `bson:"script" json:"script" yaml:"script"`
}

type BucketType string

const (
	BucketTypeLocal BucketType = "local"
	BucketTypeS3    BucketType = "s3"
)

// BucketConfig configures the bucket that commit metadata is published
// to when a job is created. Publication is best-effort; an empty Name
// disables it.
type BucketConfig struct {
	Name   string     `bson:"name" json:"name" yaml:"name"`
	Type   BucketType `bson:"type" json:"type" yaml:"type"`
	Region string     `bson:"region" json:"region" yaml:"region"`
}

// NewBucket constructs the configured pail bucket.
func (c BucketConfig) NewBucket() (pail.Bucket, error) {
	switch c.Type {
	case BucketTypeLocal:
		return pail.NewLocalBucket(pail.LocalOptions{Path: c.Name})
	case BucketTypeS3:
		return pail.NewS3Bucket(pail.S3Options{
			Name:        c.Name,
			Region:      c.Region,
			Permissions: pail.S3PermissionsPublicRead,
		})
	default:
		return nil, errors.Errorf("unrecognized bucket type '%s'", c.Type)
	}
}

// NewSettings builds the application configuration from a yaml file.
func NewSettings(filename string) (*Settings, error) {
	configData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading configuration file '%s'", filename)
	}

	settings := &Settings{}
	if err = yaml.Unmarshal(configData, settings); err != nil {
		return nil, errors.Wrapf(err, "unmarshalling configuration file '%s'", filename)
	}

	return settings, nil
}

// ValidateAndDefault checks the settings for validity, filling in
// defaults where values are unset.
func (s *Settings) ValidateAndDefault() error {
	catcher := grip.NewBasicCatcher()

	if s.Database.URL == "" {
		s.Database.URL = DefaultDatabaseURL
	}
	if s.Database.DB == "" {
		s.Database.DB = DefaultDatabaseName
	}
	if s.Service.HTTPListenAddr == "" {
		s.Service.HTTPListenAddr = DefaultListenAddr
	}
	if s.CI.BaseURL == "" {
		s.CI.BaseURL = DefaultCIBaseURL
	}
	if s.Github.FallbackBranch == "" {
		s.Github.FallbackBranch = defaultFallbackBranch
	}
	if s.Bucket.Name != "" && s.Bucket.Type == "" {
		s.Bucket.Type = BucketTypeS3
	}

	catcher.NewWhen(len(s.Graph) == 0, "must specify a dependency graph")
	catcher.NewWhen(s.Github.Owner == "", "must specify a github owner")
	catcher.NewWhen(s.CI.Owner == "", "must specify a CI owner")
	if s.Bucket.Name != "" && s.Bucket.Type != BucketTypeLocal && s.Bucket.Type != BucketTypeS3 {
		catcher.Errorf("unrecognized bucket type '%s'", s.Bucket.Type)
	}

	return catcher.Resolve()
}
