package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefault(t *testing.T) {
	cfg := GetDefault()

	assert.Equal(t, "5000", cfg.API.ListenPort)
	assert.Equal(t, 8, cfg.Tasks.MaxParallelTasksAllowed)
	assert.Equal(t, "bytes", cfg.Stats.Unit)
	assert.Equal(t, 10, cfg.Stats.Limit)
	assert.Equal(t, "<!-- LANGUAGES:START -->", cfg.Output.MarkerStart)
	assert.Equal(t, "<!-- LANGUAGES:END -->", cfg.Output.MarkerEnd)
	assert.Equal(t, "rest", cfg.Stats.Source)
	assert.False(t, cfg.Projects.Enabled)
	assert.Equal(t, "<!-- PROJECTS:START -->", cfg.Projects.MarkerStart)
	assert.Equal(t, 8, cfg.Projects.MaxLatest)
}

func TestApplyEnvOverridesToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "from-env")

	cfg := GetDefault()
	cfg.Github.Token = "from-file"
	cfg.applyEnv()

	assert.Equal(t, "from-env", cfg.Github.Token)
}

func TestApplyEnvKeepsFileTokenWhenUnset(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	cfg := GetDefault()
	cfg.Github.Token = "from-file"
	cfg.applyEnv()

	assert.Equal(t, "from-file", cfg.Github.Token)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestSampleConfigIsPresent(t *testing.T) {
	_, err := os.Stat("config.toml")
	assert.NoError(t, err)
}
