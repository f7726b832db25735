package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/thomasvincent/github-runner-cleanup/internal/github"
)

const (
	defaultPageDelay   = 100 * time.Millisecond
	defaultDeleteDelay = 500 * time.Millisecond
)

// Config is the run configuration, built once from the environment.
type Config struct {
	Org           string
	Token         string
	TokenSSMParam string
	BaseURL       string
	PageDelay     time.Duration
	DeleteDelay   time.Duration
	DryRun        bool
	DOToken       string
	// Timeout bounds the whole run. Zero means no deadline.
	Timeout time.Duration
}

// MissingError lists required variables that were not set.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("required environment variables not set: %s", strings.Join(e.Vars, ", "))
}

// Remediation is a human-readable hint for fixing a MissingError.
func (e *MissingError) Remediation() string {
	return `Please set the following environment variables:
- GITHUB_ORG: your GitHub organization name
- GITHUB_TOKEN: a personal access token with admin:org permissions
  (or GITHUB_TOKEN_SSM_PARAM: an SSM parameter holding that token)`
}

// Load reads configuration through getenv, normally os.Getenv.
func Load(getenv func(string) string) (*Config, error) {
	env := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	cfg := &Config{
		Org:           env("GITHUB_ORG"),
		Token:         env("GITHUB_TOKEN"),
		TokenSSMParam: env("GITHUB_TOKEN_SSM_PARAM"),
		BaseURL:       env("GITHUB_API_URL"),
		DOToken:       env("DIGITALOCEAN_TOKEN"),
	}

	var missing []string
	if cfg.Org == "" {
		missing = append(missing, "GITHUB_ORG")
	}
	if cfg.Token == "" && cfg.TokenSSMParam == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if len(missing) > 0 {
		return nil, &MissingError{Vars: missing}
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = github.DefaultBaseURL
	}

	var err error
	if cfg.PageDelay, err = durationOrDefault(env, "PAGE_DELAY", defaultPageDelay); err != nil {
		return nil, err
	}
	if cfg.DeleteDelay, err = durationOrDefault(env, "DELETE_DELAY", defaultDeleteDelay); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = durationOrDefault(env, "RUN_TIMEOUT", 0); err != nil {
		return nil, err
	}

	if v := env("DRY_RUN"); v != "" {
		cfg.DryRun, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DRY_RUN %q: %w", v, err)
		}
	}

	return cfg, nil
}

func durationOrDefault(env func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := env(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, v)
	}
	return d, nil
}
