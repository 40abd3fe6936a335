package config

const (
	defaultEpisodesPerRefresh = 5
	defaultFetchTimeout       = 30
	defaultDownloadTimeout    = 300
	defaultTranscribeTimeout  = 900
	defaultLLMTimeout         = 120
	defaultLLMAttempts        = 3
	defaultRefreshInterval    = 3600
	defaultRefreshTimeout     = 1800
	defaultNtfyTimeout        = 10

	defaultUserAgent = "limpa/1.0 (+https://github.com/duarteocarmo/limpa)"
	// Some origin servers reject non-browser clients with 403; retried
	// requests identify as a browser instead.
	defaultBrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	defaultAdFreeTag = "[Ad-Free]"

	defaultLLMBaseURL = "https://openrouter.ai/api/v1"
	defaultLLMModel   = "deepseek/deepseek-chat-v3"
)

// Default returns the baseline configuration before file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: "~/.local/share/limpa",
			WorkDir: "~/.local/share/limpa/work",
			LogDir:  "~/.local/share/limpa/logs",
		},
		Feed: Feed{
			EpisodesPerRefresh: defaultEpisodesPerRefresh,
			FetchTimeout:       defaultFetchTimeout,
			UserAgent:          defaultUserAgent,
			BrowserUserAgent:   defaultBrowserUserAgent,
			AdFreeTag:          defaultAdFreeTag,
		},
		Transcriber: Transcriber{
			TimeoutSeconds: defaultTranscribeTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeout,
			MaxAttempts:    defaultLLMAttempts,
		},
		Store: Store{
			Region: "auto",
		},
		Workflow: Workflow{
			RefreshInterval: defaultRefreshInterval,
			RefreshTimeout:  defaultRefreshTimeout,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
