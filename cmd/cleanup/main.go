package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thomasvincent/github-runner-cleanup/internal/cleanup"
	"github.com/thomasvincent/github-runner-cleanup/internal/config"
	"github.com/thomasvincent/github-runner-cleanup/internal/digitalocean"
	"github.com/thomasvincent/github-runner-cleanup/internal/github"
	"github.com/thomasvincent/github-runner-cleanup/internal/secrets"
)

func main() {
	os.Exit(realMain(os.Getenv))
}

// realMain returns 1 only for configuration errors, which are caught before
// any network call. Collection and per-runner failures are logged but do
// not change the exit code.
func realMain(getenv func(string) string) int {
	cfg, err := config.Load(getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var missing *config.MissingError
		if errors.As(err, &missing) {
			fmt.Fprintln(os.Stderr, missing.Remediation())
		}
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if err := run(ctx, cfg); err != nil {
		log.Printf("Error: %v", err)
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config) error {
	token := cfg.Token
	if token == "" {
		store, err := secrets.NewStore(ctx)
		if err != nil {
			return err
		}
		if token, err = store.Get(ctx, cfg.TokenSSMParam); err != nil {
			return fmt.Errorf("resolve GitHub token: %w", err)
		}
	}

	gh, err := github.NewClient(github.Config{Token: token, BaseURL: cfg.BaseURL})
	if err != nil {
		return err
	}

	report, err := cleanup.New(cfg, gh).Run(ctx)
	if err != nil {
		return err
	}

	if cfg.DOToken == "" || cfg.DryRun || len(report.Removed) == 0 {
		return nil
	}

	doClient, err := digitalocean.NewClient(digitalocean.Config{Token: cfg.DOToken})
	if err != nil {
		return fmt.Errorf("create DO client: %w", err)
	}
	deleted, err := doClient.DeleteRunnerDroplets(ctx, runnerNames(report.Removed), runnerNames(report.Kept))
	if err != nil {
		return fmt.Errorf("droplet cleanup: %w", err)
	}
	log.Printf("Droplet cleanup complete: deleted %d runner droplets", deleted)
	return nil
}

func runnerNames(runners []github.Runner) []string {
	names := make([]string, 0, len(runners))
	for _, r := range runners {
		names = append(names, r.Name)
	}
	return names
}
