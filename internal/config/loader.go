package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"completion": {"gemini", "openai", "anthropic", "ollama", "deepseek", "mistral", "groq"},
	"expansion":  {"gemini", "openai", "anthropic", "ollama", "deepseek", "mistral", "groq"},
	"stt":        {"openai", "whisper"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.MaxUploadBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes %d must not be negative", cfg.Server.MaxUploadBytes))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("completion", cfg.Providers.Completion.Name)
	validateProviderName("completion", cfg.Providers.FallbackCompletion.Name)
	validateProviderName("expansion", cfg.Providers.Expansion.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)

	if cfg.Providers.Completion.Name == "" {
		errs = append(errs, errors.New("providers.completion.name is required"))
	}
	if cfg.Providers.FallbackCompletion.Name != "" && cfg.Providers.FallbackCompletion.Name == cfg.Providers.Completion.Name &&
		cfg.Providers.FallbackCompletion.Model == cfg.Providers.Completion.Model {
		slog.Warn("fallback completion provider is identical to the primary; failover adds nothing",
			"provider", cfg.Providers.Completion.Name,
			"model", cfg.Providers.Completion.Model,
		)
	}
	if cfg.Providers.STT.Name == "" {
		slog.Warn("providers.stt is not configured; audio transcription will be unavailable")
	}
	if cfg.Providers.Expansion.Name == "" {
		slog.Warn("providers.expansion is not configured; filtering will use survey-derived keywords only")
	}

	// Filter
	f := cfg.Filter
	for _, check := range []struct {
		name  string
		value int
	}{
		{"filter.min_keyword_length", f.MinKeywordLength},
		{"filter.expanded_min_length", f.ExpandedMinLength},
		{"filter.top_per_keyword", f.TopPerKeyword},
		{"filter.max_rows", f.MaxRows},
	} {
		if check.value < 0 {
			errs = append(errs, fmt.Errorf("%s %d must not be negative", check.name, check.value))
		}
	}
	if f.ExpandedMinLength > 0 && f.MinKeywordLength > 0 && f.ExpandedMinLength > f.MinKeywordLength {
		errs = append(errs, fmt.Errorf("filter.expanded_min_length %d must not exceed filter.min_keyword_length %d",
			f.ExpandedMinLength, f.MinKeywordLength))
	}
	if f.WorkerTimeout < 0 {
		errs = append(errs, fmt.Errorf("filter.worker_timeout %s must not be negative", f.WorkerTimeout))
	}
	if f.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("filter.max_concurrent %d must not be negative", f.MaxConcurrent))
	}

	return errors.Join(errs...)
}

// SlogLevel converts l to the matching [slog.Level]. Unknown or empty levels
// map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
