package digitalocean

import (
	"context"
	"fmt"
	"log"

	"github.com/digitalocean/godo"
	"golang.org/x/oauth2"
)

// RunnerTag marks droplets that host a GitHub runner.
const RunnerTag = "github-runner"

// Client wraps the DigitalOcean API client.
type Client struct {
	client *godo.Client
}

// Config holds DigitalOcean client configuration.
type Config struct {
	Token string
	// BaseURL overrides the API endpoint; empty means the public API.
	BaseURL string
}

// NewClient creates a new DigitalOcean API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("digitalocean token is required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	tc := oauth2.NewClient(context.Background(), ts)

	var opts []godo.ClientOpt
	if cfg.BaseURL != "" {
		opts = append(opts, godo.SetBaseURL(cfg.BaseURL))
	}
	client, err := godo.New(tc, opts...)
	if err != nil {
		return nil, fmt.Errorf("create godo client: %w", err)
	}
	return &Client{client: client}, nil
}

// DeleteDroplet removes a droplet by ID.
func (c *Client) DeleteDroplet(ctx context.Context, id int) error {
	_, err := c.client.Droplets.Delete(ctx, id)
	return err
}

// ListRunnerDroplets returns all droplets tagged as github-runner.
func (c *Client) ListRunnerDroplets(ctx context.Context) ([]godo.Droplet, error) {
	var all []godo.Droplet
	opt := &godo.ListOptions{Page: 1, PerPage: 200}
	for {
		droplets, resp, err := c.client.Droplets.ListByTag(ctx, RunnerTag, opt)
		if err != nil {
			return nil, fmt.Errorf("list runner droplets: %w", err)
		}
		all = append(all, droplets...)

		if resp == nil || resp.Links == nil || resp.Links.IsLastPage() {
			return all, nil
		}
		page, err := resp.Links.CurrentPage()
		if err != nil {
			return nil, fmt.Errorf("list runner droplets: %w", err)
		}
		opt.Page = page + 1
	}
}

// DeleteRunnerDroplets deletes runner droplets whose name matches one of
// names and returns how many were deleted. A name also listed in keep is
// never deleted, since an online runner may share it. Failures are logged
// and skipped.
func (c *Client) DeleteRunnerDroplets(ctx context.Context, names, keep []string) (int, error) {
	kept := make(map[string]struct{}, len(keep))
	for _, n := range keep {
		kept[n] = struct{}{}
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := kept[n]; ok {
			log.Printf("Keeping runner droplet %s: name is also used by an online runner", n)
			continue
		}
		wanted[n] = struct{}{}
	}
	if len(wanted) == 0 {
		return 0, nil
	}

	droplets, err := c.ListRunnerDroplets(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, d := range droplets {
		if _, ok := wanted[d.Name]; !ok {
			continue
		}
		log.Printf("Deleting runner droplet %s (ID: %d, created: %s)", d.Name, d.ID, d.Created)
		if err := c.DeleteDroplet(ctx, d.ID); err != nil {
			log.Printf("Failed to delete droplet %d: %v", d.ID, err)
			continue
		}
		deleted++
	}

	return deleted, nil
}
