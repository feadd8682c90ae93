package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "k")
	t.Setenv("APP_STORAGE_DRIVER", "memory")

	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "k", c.JWT.Secret)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, 7*24*60, c.JWT.AccessTokenTTLMin)
	assert.EqualValues(t, 64, c.App.HTTP.MaxBodyMB)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, 5000, c.App.HTTP.Port)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  http:
    port: 8081
jwt:
  secret: from-file
storage:
  driver: s3
  s3:
    bucket: garage
    baseendpoint: http://127.0.0.1:9000
`
	require.NoError(t, os.WriteFile(p, []byte(yaml), 0o600))

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 8081, c.App.HTTP.Port)
	assert.Equal(t, "from-file", c.JWT.Secret)
	assert.Equal(t, "s3", c.Storage.Driver)
	assert.Equal(t, "garage", c.Storage.S3.Bucket)
	assert.Equal(t, "http://127.0.0.1:9000", c.Storage.S3.BaseEndpoint)
	assert.True(t, c.Storage.S3.PathStyle)
}

func TestLoad_RequiresSecret(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
