package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesRouterDefaults(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Router.Enabled)
	assert.Equal(t, 50_000, cfg.Router.TokenThreshold)
	assert.Equal(t, 8, cfg.MaxConcurrentAgents)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
router:
  enabled: true
  tokenThreshold: 1000
  fileSizeKbThreshold: 50
  fileCountThreshold: 3
  maxConcurrentAgents: 4
  contextWindowTokens: 100000
maxConcurrentAgents: 4
taskTimeoutSeconds: 30
`), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Router.TokenThreshold)
	assert.Equal(t, 4, cfg.MaxConcurrentAgents)
	assert.Equal(t, 30, cfg.TaskTimeoutSeconds)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unknownField: 1\n"), 0o644))

	_, err := Load(path)

	assert.Error(t, err)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")

	assert.Error(t, err)
}

func TestTaskTimeout_FallsBackWhenUnset(t *testing.T) {
	cfg := Config{}

	assert.Equal(t, int64(60), cfg.TaskTimeout().Milliseconds()/1000)
}
