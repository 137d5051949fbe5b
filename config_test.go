package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettings(t *testing.T) {
	t.Run("ParsesYamlConfig", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(file, []byte(`
database:
  url: mongodb://db:27017
  db: compose_test
graph:
  pulumi: []
  pulumi-aws:
    - pulumi
github:
  token: gh-token
  owner: pulumi
ci:
  token: ci-token
  owner: pulumi
`), 0600))

		settings, err := NewSettings(file)
		require.NoError(t, err)
		assert.Equal(t, "mongodb://db:27017", settings.Database.URL)
		assert.Equal(t, "compose_test", settings.Database.DB)
		assert.Equal(t, []string{"pulumi"}, settings.Graph["pulumi-aws"])
		assert.Equal(t, "gh-token", settings.Github.Token)
		assert.Equal(t, "pulumi", settings.CI.Owner)
	})
	t.Run("MissingFile", func(t *testing.T) {
		_, err := NewSettings(filepath.Join(t.TempDir(), "nonexistent.yml"))
		assert.Error(t, err)
	})
	t.Run("MalformedYaml", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(file, []byte("{{{"), 0600))

		_, err := NewSettings(file)
		assert.Error(t, err)
	})
}

func TestSettingsValidateAndDefault(t *testing.T) {
	valid := func() *Settings {
		return &Settings{
			Graph:  map[string][]string{"pulumi": {}},
			Github: GithubConfig{Owner: "pulumi"},
			CI:     CIConfig{Owner: "pulumi"},
		}
	}

	t.Run("FillsDefaults", func(t *testing.T) {
		s := valid()
		require.NoError(t, s.ValidateAndDefault())
		assert.Equal(t, DefaultDatabaseURL, s.Database.URL)
		assert.Equal(t, DefaultDatabaseName, s.Database.DB)
		assert.Equal(t, DefaultListenAddr, s.Service.HTTPListenAddr)
		assert.Equal(t, DefaultCIBaseURL, s.CI.BaseURL)
		assert.Equal(t, "master", s.Github.FallbackBranch)
	})
	t.Run("KeepsExplicitValues", func(t *testing.T) {
		s := valid()
		s.Service.HTTPListenAddr = ":8080"
		s.Github.FallbackBranch = "main"
		require.NoError(t, s.ValidateAndDefault())
		assert.Equal(t, ":8080", s.Service.HTTPListenAddr)
		assert.Equal(t, "main", s.Github.FallbackBranch)
	})
	t.Run("RequiresGraph", func(t *testing.T) {
		s := valid()
		s.Graph = nil
		assert.Error(t, s.ValidateAndDefault())
	})
	t.Run("RequiresOwners", func(t *testing.T) {
		s := valid()
		s.Github.Owner = ""
		assert.Error(t, s.ValidateAndDefault())

		s = valid()
		s.CI.Owner = ""
		assert.Error(t, s.ValidateAndDefault())
	})
	t.Run("DefaultsBucketTypeToS3", func(t *testing.T) {
		s := valid()
		s.Bucket.Name = "compose-metadata"
		require.NoError(t, s.ValidateAndDefault())
		assert.Equal(t, BucketTypeS3, s.Bucket.Type)
	})
	t.Run("RejectsUnknownBucketType", func(t *testing.T) {
		s := valid()
		s.Bucket.Name = "compose-metadata"
		s.Bucket.Type = "ftp"
		assert.Error(t, s.ValidateAndDefault())
	})
}
