package cleanup

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/thomasvincent/github-runner-cleanup/internal/config"
	"github.com/thomasvincent/github-runner-cleanup/internal/github"
	"github.com/thomasvincent/github-runner-cleanup/internal/throttle"
)

type marks struct {
	success, failure, dryRun string
}

func newMarks(colored bool) marks {
	paint := func(attr color.Attribute, s string) string {
		c := color.New(attr)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.Sprint(s)
	}
	return marks{
		success: paint(color.FgGreen, "✅"),
		failure: paint(color.FgRed, "❌"),
		dryRun:  paint(color.FgYellow, "•"),
	}
}

// logColored reports whether the log destination, stderr, takes colour.
func logColored() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// RunnerAPI is the subset of the GitHub API the cleanup needs.
type RunnerAPI interface {
	ListRunners(ctx context.Context, org string, page, perPage int) (*github.RunnerPage, error)
	DeleteRunner(ctx context.Context, org string, id int64) error
}

// Cleaner collects an org's runners and removes the ones that are not online.
type Cleaner struct {
	cfg           *config.Config
	api           RunnerAPI
	pageLimiter   throttle.Limiter
	deleteLimiter throttle.Limiter
}

// New creates a Cleaner throttled by the delays in cfg.
func New(cfg *config.Config, api RunnerAPI) *Cleaner {
	return &Cleaner{
		cfg:           cfg,
		api:           api,
		pageLimiter:   throttle.Every(cfg.PageDelay),
		deleteLimiter: throttle.Every(cfg.DeleteDelay),
	}
}

// Report summarises a remediation pass.
type Report struct {
	Total     int
	Removable int
	// Kept holds the online runners that were left alone.
	Kept      []github.Runner
	Removed   []github.Runner
	Failed    []github.Runner
	Skipped   int
}

// Collect pages through every runner registered to the org. Paging stops
// as soon as a response has no next link, whatever its size. Any failure
// aborts the whole collection.
func (c *Cleaner) Collect(ctx context.Context) ([]github.Runner, error) {
	log.Printf("Fetching all runners...")

	var all []github.Runner
	for page := 1; ; page++ {
		if err := c.pageLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait before page %d: %w", page, err)
		}

		log.Printf("Fetching page %d...", page)
		resp, err := c.api.ListRunners(ctx, c.cfg.Org, page, github.MaxPerPage)
		if err != nil {
			return nil, fmt.Errorf("fetch runners: %w", err)
		}
		all = append(all, resp.Runners...)

		if !resp.HasNext {
			return all, nil
		}
	}
}

// Removable returns the runners that are not online, in input order.
func Removable(runners []github.Runner) []github.Runner {
	var out []github.Runner
	for _, r := range runners {
		if r.Status.Removable() {
			out = append(out, r)
		}
	}
	return out
}

// Remediate deletes every removable runner one at a time. A failed delete
// is logged and the loop moves on; only context cancellation stops it early.
func (c *Cleaner) Remediate(ctx context.Context, runners []github.Runner) (*Report, error) {
	targets := Removable(runners)
	report := &Report{Total: len(runners), Removable: len(targets)}
	for _, r := range runners {
		if !r.Status.Removable() {
			report.Kept = append(report.Kept, r)
		}
	}
	m := newMarks(logColored())

	log.Printf("Found %d offline runners.", len(targets))
	if len(targets) == 0 {
		log.Printf("No offline runners to remove.")
		return report, nil
	}

	if c.cfg.DryRun {
		for _, r := range targets {
			log.Printf("%s Would remove runner %s (ID: %d, status: %s)", m.dryRun, r.Name, r.ID, r.Status)
		}
		report.Skipped = len(targets)
		return report, nil
	}

	log.Printf("Starting removal of offline runners...")
	for _, r := range targets {
		if err := c.deleteLimiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("remediation interrupted: %w", err)
		}

		log.Printf("Removing runner %s (ID: %d)...", r.Name, r.ID)
		if err := c.api.DeleteRunner(ctx, c.cfg.Org, r.ID); err != nil {
			log.Printf("%s Failed to remove runner %s: %v", m.failure, r.Name, err)
			report.Failed = append(report.Failed, r)
			continue
		}
		log.Printf("%s Successfully removed runner %s", m.success, r.Name)
		report.Removed = append(report.Removed, r)
	}

	return report, nil
}

// Run collects then remediates.
func (c *Cleaner) Run(ctx context.Context) (*Report, error) {
	log.Printf("Fetching runners for organization: %s...", c.cfg.Org)

	runners, err := c.Collect(ctx)
	if err != nil {
		return nil, err
	}

	log.Printf("Total runners found: %d", len(runners))
	for _, r := range runners {
		log.Printf("Runner ID: %d, Name: %s, Status: %s", r.ID, r.Name, r.Status)
	}

	report, err := c.Remediate(ctx, runners)
	if err != nil {
		return report, err
	}

	log.Printf("Cleanup complete: %d removed, %d failed, %d skipped of %d runners",
		len(report.Removed), len(report.Failed), report.Skipped, report.Total)
	return report, nil
}
