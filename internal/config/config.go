// Package config provides configuration loading and validation for the screening desk.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/screening-desk/internal/schemas"
)

// Config represents the service configuration. It can be loaded from a JSON
// file and overridden by environment variables; missing values use defaults.
type Config struct {
	// Server
	Port               int `json:"port,omitempty" validate:"min=1,max=65535"`
	SessionIdleMinutes int `json:"session_idle_minutes,omitempty" validate:"min=1"`

	// Record backend. DatabaseURL, when set, reads applicants from the
	// backend's PostgreSQL database instead of the API.
	FrappeURL   string `json:"frappe_url,omitempty" validate:"required,url"`
	APIKey      string `json:"api_key,omitempty" validate:"required_with=APISecret"`
	APISecret   string `json:"api_secret,omitempty" validate:"required_with=APIKey"`
	DatabaseURL string `json:"database_url,omitempty"`

	// Bespoke backend methods
	InterviewRoundMethod string `json:"interview_round_method,omitempty" validate:"required"`
	ImportMethod         string `json:"import_method,omitempty" validate:"required"`
	JoinWorkspaceMethod  string `json:"join_workspace_method,omitempty" validate:"required"`

	// Screening page. ListLimit 0 lists every applicant; Timezone is the zone
	// of the backend's timestamps.
	Variant            string `json:"variant,omitempty" validate:"oneof=basic filtered"`
	ReloadDelayMS      int    `json:"reload_delay_ms,omitempty" validate:"min=0"`
	ListLimit          int    `json:"list_limit,omitempty" validate:"min=0"`
	FilesPrefix        string `json:"files_prefix,omitempty" validate:"startswith=/"`
	PrivateFilesPrefix string `json:"private_files_prefix,omitempty" validate:"startswith=/"`
	Timezone           string `json:"timezone,omitempty" validate:"required"`

	Verbose bool `json:"verbose,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                 8080,
		SessionIdleMinutes:   60,
		InterviewRoundMethod: "alpinos.job_applicant_automation.ensure_call_round_interview_exists",
		ImportMethod:         "alpinos.slack_to_raven_import.run_slack_to_raven_import",
		JoinWorkspaceMethod:  "alpinos.slack_to_raven_import.add_current_user_to_slack_workspace",
		Variant:              "filtered",
		ReloadDelayMS:        500,
		FilesPrefix:          "/files/",
		PrivateFilesPrefix:   "/private/files/",
		Timezone:             "Asia/Kolkata",
	}
}

// Load builds the effective configuration: the JSON file at path (optional),
// then environment variables, then defaults. The result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	envCfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	merged := cfg.Overlay(*envCfg).MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read, parsed, or has unknown keys.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("failed to parse config JSON: %s is not valid JSON", path)
	}
	if err := schemas.ValidateJSON(schemas.Config, data); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. Unset variables
// leave the corresponding field zero.
func FromEnv() (*Config, error) {
	cfg := &Config{
		FrappeURL:            os.Getenv("FRAPPE_URL"),
		APIKey:               os.Getenv("FRAPPE_API_KEY"),
		APISecret:            os.Getenv("FRAPPE_API_SECRET"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		InterviewRoundMethod: os.Getenv("INTERVIEW_ROUND_METHOD"),
		ImportMethod:         os.Getenv("IMPORT_METHOD"),
		JoinWorkspaceMethod:  os.Getenv("JOIN_WORKSPACE_METHOD"),
		Variant:              os.Getenv("SCREENING_VARIANT"),
		FilesPrefix:          os.Getenv("FILES_PREFIX"),
		PrivateFilesPrefix:   os.Getenv("PRIVATE_FILES_PREFIX"),
		Timezone:             os.Getenv("SCREENING_TIMEZONE"),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"PORT", &cfg.Port},
		{"SESSION_IDLE_MINUTES", &cfg.SessionIdleMinutes},
		{"RELOAD_DELAY_MS", &cfg.ReloadDelayMS},
		{"LIST_LIMIT", &cfg.ListLimit},
	}
	for _, v := range ints {
		raw := strings.TrimSpace(os.Getenv(v.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", v.name, err)
		}
		*v.dst = n
	}

	if raw := os.Getenv("VERBOSE"); raw != "" {
		verbose, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid VERBOSE: %v", err)
		}
		cfg.Verbose = verbose
	}

	return cfg, nil
}

// Overlay returns a copy of c with every non-zero field of o applied on top.
func (c *Config) Overlay(o Config) *Config {
	result := *c

	for _, f := range []struct {
		dst *string
		src string
	}{
		{&result.FrappeURL, o.FrappeURL},
		{&result.APIKey, o.APIKey},
		{&result.APISecret, o.APISecret},
		{&result.DatabaseURL, o.DatabaseURL},
		{&result.InterviewRoundMethod, o.InterviewRoundMethod},
		{&result.ImportMethod, o.ImportMethod},
		{&result.JoinWorkspaceMethod, o.JoinWorkspaceMethod},
		{&result.Variant, o.Variant},
		{&result.FilesPrefix, o.FilesPrefix},
		{&result.PrivateFilesPrefix, o.PrivateFilesPrefix},
		{&result.Timezone, o.Timezone},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}

	if o.Port != 0 {
		result.Port = o.Port
	}
	if o.SessionIdleMinutes != 0 {
		result.SessionIdleMinutes = o.SessionIdleMinutes
	}
	if o.ReloadDelayMS != 0 {
		result.ReloadDelayMS = o.ReloadDelayMS
	}
	if o.ListLimit != 0 {
		result.ListLimit = o.ListLimit
	}
	// Bools cannot distinguish unset from false; true wins.
	result.Verbose = result.Verbose || o.Verbose

	return &result
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// ListLimit stays 0 (unbounded) unless set.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.FrappeURL == "" {
		result.FrappeURL = defaults.FrappeURL
	}
	if result.InterviewRoundMethod == "" {
		result.InterviewRoundMethod = defaults.InterviewRoundMethod
	}
	if result.ImportMethod == "" {
		result.ImportMethod = defaults.ImportMethod
	}
	if result.JoinWorkspaceMethod == "" {
		result.JoinWorkspaceMethod = defaults.JoinWorkspaceMethod
	}
	if result.Variant == "" {
		result.Variant = defaults.Variant
	}
	if result.FilesPrefix == "" {
		result.FilesPrefix = defaults.FilesPrefix
	}
	if result.PrivateFilesPrefix == "" {
		result.PrivateFilesPrefix = defaults.PrivateFilesPrefix
	}
	if result.Timezone == "" {
		result.Timezone = defaults.Timezone
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.SessionIdleMinutes == 0 {
		result.SessionIdleMinutes = defaults.SessionIdleMinutes
	}
	if result.ReloadDelayMS == 0 {
		result.ReloadDelayMS = defaults.ReloadDelayMS
	}

	return result
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config error: unknown timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the zone the backend's timestamps are written in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ReloadDelay returns the delay between a successful save and the reload.
func (c *Config) ReloadDelay() time.Duration {
	return time.Duration(c.ReloadDelayMS) * time.Millisecond
}

// SessionIdle returns how long an unused operator session is kept.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
