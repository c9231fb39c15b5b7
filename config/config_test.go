package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentperf/student"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 9090
  timeout: 5s
model:
  path: models/logistic_model.json
validation:
  report: first
cache:
  size: 256
`), 0o600))

	t.Setenv("STUDENTPERF_MODEL_PATH", "/srv/model.json")
	t.Setenv("STUDENTPERF_HTTP_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "/srv/model.json", cfg.Model.Path)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 256, cfg.Cache.Size)
	assert.Equal(t, student.ReportFirst, cfg.ReportMode())
	assert.Equal(t, "info", cfg.Log.Level, "unset keys keep defaults")
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("validation:\n  report: some\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("http: [1, 2"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)

	cfg := Default()
	cfg.Audit.Enabled = true
	cfg.Audit.Path = ""
	assert.Error(t, cfg.Validate())
}
