package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", c.App.BaseURL)
	assert.Equal(t, 30*time.Second, c.App.RequestTimeout)
	assert.True(t, c.Browser.Headless)
	assert.Equal(t, 100*time.Millisecond, c.Poll.Interval)
	assert.Equal(t, 4*time.Second, c.Poll.Timeout)
	assert.Equal(t, "root@skills.org", c.Users.RootUser)
	assert.Equal(t, "percent", c.Snapshots.FailureThresholdType)
	assert.Contains(t, c.Audit.FailImpacts, "critical")
	assert.Equal(t, 0.9, c.Audit.LighthouseScores["accessibility"])
	assert.Same(t, c, Get())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "e2e.yaml")
	content := `
app:
  base_url: http://skills.test:9090
poll:
  interval: 50ms
  timeout: 2s
env:
  proxy_user: proxy@skills.org
  disabled_ui_login: true
snapshots:
  failure_threshold_type: pixel
  failure_threshold: 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://skills.test:9090", c.App.BaseURL)
	assert.Equal(t, 50*time.Millisecond, c.Poll.Interval)
	assert.Equal(t, 2*time.Second, c.Poll.Timeout)
	assert.Equal(t, "proxy@skills.org", c.Env.ProxyUser)
	assert.True(t, c.Env.UseAPILogin())
	assert.Equal(t, "pixel", c.Snapshots.FailureThresholdType)
	assert.Equal(t, 25.0, c.Snapshots.FailureThreshold)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SKILLTREE_E2E_APP_BASE_URL", "http://env.test:1234")
	t.Setenv("oauthMode", "true")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://env.test:1234", c.App.BaseURL)
	assert.True(t, c.Env.OAuthMode)
	assert.True(t, c.Env.UseAPILogin())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:       AppConfig{BaseURL: "http://x"},
			Poll:      PollConfig{Interval: time.Millisecond, Timeout: time.Second},
			Snapshots: SnapshotConfig{FailureThresholdType: "percent", Threshold: 0.1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty base url", mutate: func(c *Config) { c.App.BaseURL = "" }, wantErr: "base_url"},
		{name: "zero interval", mutate: func(c *Config) { c.Poll.Interval = 0 }, wantErr: "poll.interval"},
		{name: "timeout below interval", mutate: func(c *Config) { c.Poll.Timeout = 0 }, wantErr: "poll.timeout"},
		{name: "bad threshold type", mutate: func(c *Config) { c.Snapshots.FailureThresholdType = "ratio" }, wantErr: "failure_threshold_type"},
		{name: "threshold out of range", mutate: func(c *Config) { c.Snapshots.Threshold = 1.5 }, wantErr: "threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nST_DOTENV_A=\"quoted\"\nST_DOTENV_B=plain\nST_DOTENV_C=\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("ST_DOTENV_B", "already-set")
	t.Cleanup(func() { os.Unsetenv("ST_DOTENV_A") })

	readDotEnv(path)

	assert.Equal(t, "quoted", os.Getenv("ST_DOTENV_A"))
	assert.Equal(t, "already-set", os.Getenv("ST_DOTENV_B"))
	assert.Empty(t, os.Getenv("ST_DOTENV_C"))
}

func TestHelpers(t *testing.T) {
	app := AppConfig{BaseURL: "http://localhost:8080/"}
	assert.Equal(t, "http://localhost:8080/progress-and-rankings/projects/proj1", app.ClientDisplayURL("proj1"))

	db := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", db.GetDSN())
}
