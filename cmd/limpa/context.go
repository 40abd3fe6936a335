package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/deps"
	"github.com/duarteocarmo/limpa/internal/logging"
	"github.com/duarteocarmo/limpa/internal/pipeline"
	"github.com/duarteocarmo/limpa/internal/subscription"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds a file-only logger so command output stays clean.
func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Paths:  []string{filepath.Join(cfg.Paths.LogDir, "limpa.log")},
	})
}

// withStore runs fn against the subscription store. Service credentials are
// not required.
func (c *commandContext) withStore(fn func(cfg *config.Config, store *subscription.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := subscription.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// withRunner runs fn against a fully wired pipeline runner. The service
// configuration is validated first so misconfiguration surfaces before any
// work starts.
func (c *commandContext) withRunner(ctx context.Context, fn func(cfg *config.Config, runner *pipeline.Runner, store *subscription.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServices(); err != nil {
		return err
	}
	if err := deps.Verify(cfg); err != nil {
		return err
	}
	logger, err := c.newLogger(cfg)
	if err != nil {
		return err
	}
	store, err := subscription.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	wired, err := pipeline.ProductionDeps(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	runner, err := pipeline.NewRunner(cfg, wired)
	if err != nil {
		return err
	}
	return fn(cfg, runner, store)
}
