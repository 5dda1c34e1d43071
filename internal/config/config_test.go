package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"FRAPPE_URL", "FRAPPE_API_KEY", "FRAPPE_API_SECRET", "DATABASE_URL",
	"INTERVIEW_ROUND_METHOD", "IMPORT_METHOD", "JOIN_WORKSPACE_METHOD",
	"SCREENING_VARIANT", "FILES_PREFIX", "PRIVATE_FILES_PREFIX", "SCREENING_TIMEZONE",
	"PORT", "SESSION_IDLE_MINUTES", "RELOAD_DELAY_MS", "LIST_LIMIT", "VERBOSE",
}

// clearEnv blanks every variable FromEnv reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"frappe_url": "https://erp.example.com",
		"api_key": "k",
		"api_secret": "s",
		"variant": "basic",
		"list_limit": 200,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://erp.example.com", cfg.FrappeURL)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "s", cfg.APISecret)
	assert.Equal(t, "basic", cfg.Variant)
	assert.Equal(t, 200, cfg.ListLimit)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_UnknownKey(t *testing.T) {
	path := writeConfig(t, `{"frappe_url": "https://erp.example.com", "max_bullets": 3}`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config error")
}

func TestLoadConfig_SchemaTypeMismatch(t *testing.T) {
	path := writeConfig(t, `{"port": "eighty"}`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRAPPE_URL", "https://erp.example.com")
	t.Setenv("FRAPPE_API_KEY", "key")
	t.Setenv("FRAPPE_API_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("RELOAD_DELAY_MS", " 750 ")
	t.Setenv("VERBOSE", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://erp.example.com", cfg.FrappeURL)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "secret", cfg.APISecret)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 750, cfg.ReloadDelayMS)
	assert.Zero(t, cfg.ListLimit)
	assert.True(t, cfg.Verbose)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "http"},
		{"LIST_LIMIT", "1.5"},
		{"SESSION_IDLE_MINUTES", "forever"},
		{"VERBOSE", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid "+tt.key)
		})
	}
}

func TestOverlay(t *testing.T) {
	base := &Config{FrappeURL: "https://file.example.com", Port: 8000, Variant: "basic", Verbose: true}
	env := Config{FrappeURL: "https://env.example.com", ListLimit: 50}

	got := base.Overlay(env)
	assert.Equal(t, "https://env.example.com", got.FrappeURL)
	assert.Equal(t, 8000, got.Port)
	assert.Equal(t, "basic", got.Variant)
	assert.Equal(t, 50, got.ListLimit)
	assert.True(t, got.Verbose)

	assert.Equal(t, "https://file.example.com", base.FrappeURL, "overlay must not modify the receiver")
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{FrappeURL: "https://erp.example.com", Variant: "basic"}

	merged := cfg.MergeWithDefaults(Defaults())
	assert.Equal(t, "basic", merged.Variant)
	assert.Equal(t, 8080, merged.Port)
	assert.Equal(t, 500, merged.ReloadDelayMS)
	assert.Equal(t, 60, merged.SessionIdleMinutes)
	assert.Equal(t, "/files/", merged.FilesPrefix)
	assert.Equal(t, "/private/files/", merged.PrivateFilesPrefix)
	assert.Equal(t, "Asia/Kolkata", merged.Timezone)
	assert.Zero(t, merged.ListLimit)
	assert.Contains(t, merged.InterviewRoundMethod, "ensure_call_round_interview_exists")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{FrappeURL: "https://erp.example.com"}
		return c.MergeWithDefaults(Defaults())
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults with url", mutate: func(c *Config) {}},
		{name: "missing url", mutate: func(c *Config) { c.FrappeURL = "" }, wantErr: true},
		{name: "bad url", mutate: func(c *Config) { c.FrappeURL = "erp" }, wantErr: true},
		{name: "key without secret", mutate: func(c *Config) { c.APIKey = "k" }, wantErr: true},
		{name: "key and secret", mutate: func(c *Config) { c.APIKey, c.APISecret = "k", "s" }},
		{name: "unknown variant", mutate: func(c *Config) { c.Variant = "fancy" }, wantErr: true},
		{name: "relative files prefix", mutate: func(c *Config) { c.FilesPrefix = "files/" }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "unknown timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{"frappe_url": "https://file.example.com", "port": 8001, "variant": "basic"}`)
	t.Setenv("PORT", "8002")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com", cfg.FrappeURL)
	assert.Equal(t, 8002, cfg.Port, "environment overrides the file")
	assert.Equal(t, "basic", cfg.Variant)
	assert.Equal(t, ":8002", cfg.Addr())
	assert.Equal(t, 500*time.Millisecond, cfg.ReloadDelay())
	assert.Equal(t, time.Hour, cfg.SessionIdle())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRAPPE_URL", "https://erp.example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "filtered", cfg.Variant)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}
