package github

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com"
	// MaxPerPage is the largest page size the runners endpoint accepts.
	MaxPerPage = 100

	userAgent  = "github-runner-cleanup"
	apiVersion = "2022-11-28"
)

// HTTPClient is a shared client with timeouts for all GitHub API calls.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
	},
}

// Client talks to the GitHub REST API with a static bearer token.
type Client struct {
	rest *resty.Client
}

// Config holds GitHub client configuration.
type Config struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a GitHub API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base := cfg.HTTPClient
	if base == nil {
		base = HTTPClient
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = base.Timeout

	rest := resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", apiVersion).
		SetHeader("User-Agent", userAgent)

	return &Client{rest: rest}, nil
}

// APIError is a non-success response from the GitHub API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Message    string
	DocsURL    string
	Body       string
}

// errorBody is the JSON error document GitHub returns.
type errorBody struct {
	Message string `json:"message"`
	DocsURL string `json:"documentation_url"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Status)
	switch {
	case e.Message != "":
		msg += ": " + e.Message
	case e.Body != "":
		msg += ": " + e.Body
	}
	return msg
}

const maxErrorBody = 512

func newAPIError(resp *resty.Response, parsed *errorBody) *APIError {
	e := &APIError{
		Method:     resp.Request.Method,
		Path:       resp.Request.URL,
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
	}
	if raw := resp.Request.RawRequest; raw != nil {
		e.Path = raw.URL.Path
	}
	if e.Status == "" {
		e.Status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if parsed != nil {
		e.Message = parsed.Message
		e.DocsURL = parsed.DocsURL
	}
	if e.Message == "" {
		body := strings.TrimSpace(resp.String())
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		e.Body = body
	}
	return e
}
