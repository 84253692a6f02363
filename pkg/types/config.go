package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "debrief-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-3-flash-preview").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// DebriefConfig holds settings for the debrief generation stage.
type DebriefConfig struct {
	AIConfig `yaml:",inline"`
}

// ResearchConfig holds settings for the async research stage.
type ResearchConfig struct {
	AIConfig `yaml:",inline"`

	// Agent is the deep research agent identifier
	// (e.g. "deep-research-pro-preview-12-2025").
	Agent string `json:"agent" yaml:"agent"`

	// Poll bounds the polling session for each deep research interaction.
	Poll PollPolicy `json:"poll" yaml:"poll"`

	// MinPriority filters identified tasks before batching (default 6).
	// Tasks below it are reported but not researched.
	MinPriority int `json:"min_priority" yaml:"min_priority"`

	// MinCrossTopicPriority filters cross-topic tasks before auto-research
	// (default 7).
	MinCrossTopicPriority int `json:"min_cross_topic_priority" yaml:"min_cross_topic_priority"`
}

// HistoryConfig holds settings for the research run history store.
type HistoryConfig struct {
	// Dir is the directory holding the history database (contains history.db).
	// Empty disables run recording.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// WatchConfig holds settings for the transcript watcher.
type WatchConfig struct {
	// Debounce is how long a topic directory must stay quiet before its
	// debrief is reprocessed (default 2s).
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	// DataDir is the directory containing one subdirectory per topic.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	Debrief  DebriefConfig  `json:"debrief" yaml:"debrief"`
	Research ResearchConfig `json:"research" yaml:"research"`
	History  HistoryConfig  `json:"history" yaml:"history"`
	Watch    WatchConfig    `json:"watch" yaml:"watch"`
}
