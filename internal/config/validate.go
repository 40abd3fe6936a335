package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports configuration problems that would prevent the pipeline
// from running.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

// ValidateServices checks the settings required for a full processing run.
// Kept separate from Validate so read-only commands (status, config show)
// work without credentials.
func (c *Config) ValidateServices() error {
	var problems []string
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		problems = append(problems, "llm.api_key is required")
	}
	if strings.TrimSpace(c.Transcriber.BaseURL) == "" {
		problems = append(problems, "transcriber.base_url is required")
	}
	if strings.TrimSpace(c.Store.Bucket) == "" {
		problems = append(problems, "store.bucket is required")
	}
	if strings.TrimSpace(c.Store.AccessKeyID) == "" || strings.TrimSpace(c.Store.SecretAccessKey) == "" {
		problems = append(problems, "store credentials are required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("config: paths.data_dir is required")
	}
	if c.Paths.WorkDir == "" {
		return errors.New("config: paths.work_dir is required")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.RefreshInterval < 60 {
		return fmt.Errorf("config: workflow.refresh_interval must be at least 60 seconds, got %d", c.Workflow.RefreshInterval)
	}
	return nil
}
