// Package config provides the configuration schema and loader for the
// ComputoVoce estimate server.
package config

import "time"

// LogLevel controls log verbosity for the ComputoVoce server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for ComputoVoce.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Filter    FilterConfig    `yaml:"filter"`
}

// ServerConfig holds network and logging settings for the ComputoVoce server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MaxUploadBytes caps the size of one price-list upload. Default 32 MiB.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage.
type ProvidersConfig struct {
	// Completion generates the estimate from the transcript and price list.
	Completion ProviderEntry `yaml:"completion"`

	// FallbackCompletion is tried when Completion fails or its breaker is
	// open. Optional.
	FallbackCompletion ProviderEntry `yaml:"fallback_completion"`

	// Expansion produces synonym keywords for the relevance filter. Optional;
	// when empty, filtering runs on survey-derived keywords only.
	Expansion ProviderEntry `yaml:"expansion"`

	// STT transcribes uploaded survey audio.
	STT ProviderEntry `yaml:"stt"`
}

// ProviderEntry is the common configuration block shared by all provider types.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "gemini", "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "gemini-2.5-pro", "whisper-1").
	Model string `yaml:"model"`
}

// FilterConfig holds the relevance-filter tunables. Zero fields fall back to
// the engine's baseline defaults.
type FilterConfig struct {
	// MinKeywordLength is the minimum rune length for survey-derived keywords.
	MinKeywordLength int `yaml:"min_keyword_length"`

	// ExpandedMinLength is the minimum rune length for synonym-expanded keywords.
	ExpandedMinLength int `yaml:"expanded_min_length"`

	// TopPerKeyword caps how many new rows one keyword may admit.
	TopPerKeyword int `yaml:"top_per_keyword"`

	// MaxRows is the global cap on the selected row count.
	MaxRows int `yaml:"max_rows"`

	// MaxFieldLength truncates each cell in the transfer payload.
	MaxFieldLength int `yaml:"max_field_length"`

	// TransferBudget is the maximum character length of the serialized payload.
	TransferBudget int `yaml:"transfer_budget"`

	// ExtraStopWords extends the built-in Italian stop-word list.
	ExtraStopWords []string `yaml:"extra_stop_words"`

	// WorkerTimeout is the per-request deadline for one filtering run.
	WorkerTimeout time.Duration `yaml:"worker_timeout"`

	// MaxConcurrent bounds how many filtering runs may execute at once.
	MaxConcurrent int64 `yaml:"max_concurrent"`
}
