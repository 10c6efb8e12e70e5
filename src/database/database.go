// Package database drives the lifecycle of the database under test: start, version switch,
// stop and destroy.
package database

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/models"
)

const (
	KindExternal = "external"
	KindCommand  = "command"
)

// Lifecycle controls the database process behind the sessions a scenario opens.
type Lifecycle interface {
	Start(ctx context.Context) error
	SwitchVersion(ctx context.Context) error
	Stop(ctx context.Context) error
	Destroy(ctx context.Context) error
}

// New returns the lifecycle implementation selected by cfg.Kind.
func New(cfg config.DatabaseConfig) (Lifecycle, error) {
	switch cfg.Kind {
	case KindExternal, "":
		return External{}, nil
	case KindCommand:
		return NewCommand(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown database kind %q", models.ErrConfiguration, cfg.Kind)
	}
}

// External is an already running cluster the tool neither starts nor stops.
type External struct{}

func (External) Start(context.Context) error {
	log.Debug("Using external database")
	return nil
}

// SwitchVersion cannot change an external cluster; both phases run against the same version.
func (External) SwitchVersion(context.Context) error {
	log.Warn("External database cannot switch versions, the second phase reuses the running cluster")
	return nil
}

func (External) Stop(context.Context) error { return nil }

func (External) Destroy(context.Context) error { return nil }

// Command drives the database through shell commands. An empty command is a no-op.
type Command struct {
	start       string
	stop        string
	switchTo    string
	destroy     string
	startupWait time.Duration
	run         func(ctx context.Context, command string) ([]byte, error)
}

func NewCommand(cfg config.DatabaseConfig) *Command {
	return &Command{
		start:       cfg.StartCommand,
		stop:        cfg.StopCommand,
		switchTo:    cfg.SwitchCommand,
		destroy:     cfg.DestroyCommand,
		startupWait: time.Duration(cfg.StartupWait) * time.Second,
		run:         runShell,
	}
}

func (c *Command) Start(ctx context.Context) error {
	if err := c.exec(ctx, "start", c.start); err != nil {
		return err
	}
	return c.waitForStartup(ctx)
}

func (c *Command) SwitchVersion(ctx context.Context) error {
	if err := c.exec(ctx, "switch", c.switchTo); err != nil {
		return err
	}
	return c.waitForStartup(ctx)
}

func (c *Command) Stop(ctx context.Context) error {
	return c.exec(ctx, "stop", c.stop)
}

func (c *Command) Destroy(ctx context.Context) error {
	return c.exec(ctx, "destroy", c.destroy)
}

func (c *Command) exec(ctx context.Context, action, command string) error {
	if strings.TrimSpace(command) == "" {
		return nil
	}

	log.Info("Running database %s command", action)
	output, err := c.run(ctx, command)
	if len(output) > 0 {
		log.Debug("%s output: %s", action, strings.TrimSpace(string(output)))
	}
	if err != nil {
		return fmt.Errorf("database %s command failed: %w", action, err)
	}
	return nil
}

func (c *Command) waitForStartup(ctx context.Context) error {
	if c.startupWait <= 0 {
		return nil
	}

	log.Debug("Waiting %s for the database to accept connections", c.startupWait)
	timer := time.NewTimer(c.startupWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func runShell(ctx context.Context, command string) ([]byte, error) {
	return exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
}
