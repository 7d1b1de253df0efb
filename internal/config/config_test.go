package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 1, c.MaxPages)
	assert.Equal(t, 10, c.MaxDetails)
	assert.Equal(t, 1500*time.Millisecond, c.Delay)
	assert.Equal(t, 500*time.Millisecond, c.Jitter)
	assert.Equal(t, "zameen_listings.csv", c.OutputPath)
	assert.Empty(t, c.UserAgent)
	assert.Zero(t, c.Timeout)
}

func TestLoadWithoutFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
search_url: https://www.zameen.com/Homes/Lahore-1-1.html
max_pages: 4
delay: 2s
user_agent: test-agent
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://www.zameen.com/Homes/Lahore-1-1.html", c.SearchURL)
	assert.Equal(t, 4, c.MaxPages)
	assert.Equal(t, 2*time.Second, c.Delay)
	assert.Equal(t, "test-agent", c.UserAgent)

	// Keys the file does not mention keep their defaults.
	assert.Equal(t, 10, c.MaxDetails)
	assert.Equal(t, 500*time.Millisecond, c.Jitter)
	assert.Equal(t, "zameen_listings.csv", c.OutputPath)
}

func TestLoadYAMLExplicitZero(t *testing.T) {
	path := writeConfigFile(t, "max_details: 0\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, c.MaxDetails)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := writeConfigFile(t, "max_pages: 3\ndelay: 2s\n")
	t.Setenv("ZAMEEN_MAX_PAGES", "7")
	t.Setenv("ZAMEEN_DELAY", "250ms")
	t.Setenv("ZAMEEN_OUTPUT", "env.csv")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, c.MaxPages)
	assert.Equal(t, 250*time.Millisecond, c.Delay)
	assert.Equal(t, "env.csv", c.OutputPath)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfigFile(t, "delay: fast\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delay")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
