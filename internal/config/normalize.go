package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFeed()
	c.normalizeTranscriber()
	c.normalizeLLM()
	c.normalizeStore()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	for name, field := range map[string]*string{
		"data_dir": &c.Paths.DataDir,
		"work_dir": &c.Paths.WorkDir,
		"log_dir":  &c.Paths.LogDir,
	} {
		expanded, err := expandPath(*field)
		if err != nil {
			return fmt.Errorf("normalize %s: %w", name, err)
		}
		*field = expanded
	}
	return nil
}

func (c *Config) normalizeFeed() {
	if c.Feed.EpisodesPerRefresh <= 0 {
		c.Feed.EpisodesPerRefresh = defaultEpisodesPerRefresh
	}
	if c.Feed.FetchTimeout <= 0 {
		c.Feed.FetchTimeout = defaultFetchTimeout
	}
	if strings.TrimSpace(c.Feed.UserAgent) == "" {
		c.Feed.UserAgent = defaultUserAgent
	}
	if strings.TrimSpace(c.Feed.BrowserUserAgent) == "" {
		c.Feed.BrowserUserAgent = defaultBrowserUserAgent
	}
	c.Feed.AdFreeTag = strings.TrimSpace(c.Feed.AdFreeTag)
	if c.Feed.AdFreeTag == "" {
		c.Feed.AdFreeTag = defaultAdFreeTag
	}
}

func (c *Config) normalizeTranscriber() {
	c.Transcriber.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transcriber.BaseURL), "/")
	if c.Transcriber.TimeoutSeconds <= 0 {
		c.Transcriber.TimeoutSeconds = defaultTranscribeTimeout
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
	if c.LLM.MaxAttempts <= 0 {
		c.LLM.MaxAttempts = defaultLLMAttempts
	}
}

func (c *Config) normalizeStore() {
	c.Store.Endpoint = strings.TrimRight(strings.TrimSpace(c.Store.Endpoint), "/")
	c.Store.Bucket = strings.TrimSpace(c.Store.Bucket)
	if strings.TrimSpace(c.Store.Region) == "" {
		c.Store.Region = "auto"
	}
	c.Store.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Store.PublicBaseURL), "/")
	if c.Store.PublicBaseURL == "" && c.Store.Endpoint != "" && c.Store.Bucket != "" {
		c.Store.PublicBaseURL = c.Store.Endpoint + "/" + c.Store.Bucket
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.RefreshInterval <= 0 {
		c.Workflow.RefreshInterval = defaultRefreshInterval
	}
	if c.Workflow.RefreshTimeout <= 0 {
		c.Workflow.RefreshTimeout = defaultRefreshTimeout
	}
	if c.Workflow.DownloadTimeout <= 0 {
		c.Workflow.DownloadTimeout = defaultDownloadTimeout
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
