package github

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tomnomnom/linkheader"
)

// RunnerStatus is the connection state GitHub reports for a runner.
type RunnerStatus string

const (
	StatusOnline  RunnerStatus = "online"
	StatusOffline RunnerStatus = "offline"
)

// Removable reports whether a runner in this state should be deleted.
// Only online runners are kept; any other reported value is removable.
func (s RunnerStatus) Removable() bool {
	switch s {
	case StatusOnline:
		return false
	default:
		return true
	}
}

// RunnerLabel is a label attached to a runner.
type RunnerLabel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Runner is a self-hosted runner registered to an organization.
type Runner struct {
	ID     int64         `json:"id"`
	Name   string        `json:"name"`
	OS     string        `json:"os"`
	Status RunnerStatus  `json:"status"`
	Busy   bool          `json:"busy"`
	Labels []RunnerLabel `json:"labels"`
}

// RunnerPage is one page of the org runners listing.
type RunnerPage struct {
	TotalCount int      `json:"total_count"`
	Runners    []Runner `json:"runners"`
	// HasNext is set when the Link header carries rel="next".
	HasNext bool `json:"-"`
}

// ListRunners fetches a single page of self-hosted runners for an org.
func (c *Client) ListRunners(ctx context.Context, org string, page, perPage int) (*RunnerPage, error) {
	var (
		result RunnerPage
		apiErr errorBody
	)
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("org", org).
		SetQueryParam("per_page", strconv.Itoa(perPage)).
		SetQueryParam("page", strconv.Itoa(page)).
		SetResult(&result).
		SetError(&apiErr).
		Get("/orgs/{org}/actions/runners")
	if err != nil {
		return nil, fmt.Errorf("list runners page %d: %w", page, err)
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(resp, &apiErr)
	}

	result.HasNext = hasNextPage(resp.Header().Get("Link"))
	return &result, nil
}

// DeleteRunner removes a self-hosted runner from an org.
func (c *Client) DeleteRunner(ctx context.Context, org string, id int64) error {
	var apiErr errorBody
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("org", org).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetError(&apiErr).
		Delete("/orgs/{org}/actions/runners/{id}")
	if err != nil {
		return fmt.Errorf("delete runner %d: %w", id, err)
	}
	if !resp.IsSuccess() {
		return newAPIError(resp, &apiErr)
	}
	return nil
}

func hasNextPage(link string) bool {
	if link == "" {
		return false
	}
	return len(linkheader.Parse(link).FilterByRel("next")) > 0
}
