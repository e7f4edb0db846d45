package config

import (
	"os"
	"strings"
	"time"

	"github.com/rmayhew/ddq/apperr"
)

// maxRetryCount bounds --retries to keep total wall-clock time sane.
const maxRetryCount = 100

// Options carries raw flag values before resolution. Empty strings fall
// back to the environment.
type Options struct {
	Site           string
	APIKey         string
	AppKey         string
	Compact        bool
	Output         string
	Retries        int
	BackoffMS      int64
	MaxBackoffMS   int64
	RetryRateLimit bool
	TimeoutSeconds int64
}

// RetryPolicy governs the attempt loop. Immutable once resolved.
type RetryPolicy struct {
	MaxRetries     int
	Backoff        time.Duration
	MaxBackoff     time.Duration
	RetryRateLimit bool
	Timeout        time.Duration
}

// Config is the resolved, validated configuration for one invocation.
type Config struct {
	APIKey  string
	AppKey  string
	BaseURL string
	Compact bool
	Retry   RetryPolicy
}

// Resolve applies flag-over-environment precedence, normalizes the base
// URL, and validates policy bounds. All failures are usage errors.
func Resolve(opts Options) (*Config, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("DD_API_KEY")
	}
	if apiKey == "" {
		return nil, apperr.Usagef("missing Datadog API key: set --api-key or DD_API_KEY")
	}

	appKey := opts.AppKey
	if appKey == "" {
		appKey = os.Getenv("DD_APP_KEY")
	}
	if appKey == "" {
		appKey = os.Getenv("DD_APPLICATION_KEY")
	}
	if appKey == "" {
		return nil, apperr.Usagef("missing Datadog application key: set --app-key or DD_APP_KEY (or DD_APPLICATION_KEY)")
	}

	site := opts.Site
	if site == "" {
		site = os.Getenv("DD_SITE")
	}
	if site == "" {
		site = "datadoghq.com"
	}
	baseURL, err := normalizeBaseURL(site)
	if err != nil {
		return nil, err
	}

	switch opts.Output {
	case "json", "pretty":
	default:
		return nil, apperr.Usagef("invalid --output %q, use json or pretty", opts.Output)
	}

	if opts.Retries < 0 || opts.Retries > maxRetryCount {
		return nil, apperr.Usagef("--retries must be between 0 and %d", maxRetryCount)
	}
	if opts.BackoffMS <= 0 {
		return nil, apperr.Usagef("--retry-backoff-ms must be greater than 0")
	}
	if opts.MaxBackoffMS < opts.BackoffMS {
		return nil, apperr.Usagef("--retry-max-backoff-ms must be greater than or equal to --retry-backoff-ms")
	}
	if opts.TimeoutSeconds <= 0 {
		return nil, apperr.Usagef("--timeout-seconds must be greater than 0")
	}

	return &Config{
		APIKey:  apiKey,
		AppKey:  appKey,
		BaseURL: baseURL,
		Compact: opts.Compact || opts.Output == "json",
		Retry: RetryPolicy{
			MaxRetries:     opts.Retries,
			Backoff:        time.Duration(opts.BackoffMS) * time.Millisecond,
			MaxBackoff:     time.Duration(opts.MaxBackoffMS) * time.Millisecond,
			RetryRateLimit: opts.RetryRateLimit,
			Timeout:        time.Duration(opts.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// normalizeBaseURL turns a site suffix or full URL into the API base.
// "datadoghq.eu" becomes "https://api.datadoghq.eu"; values already
// carrying a scheme or an "api." prefix pass through.
func normalizeBaseURL(site string) (string, error) {
	cleaned := strings.TrimRight(strings.TrimSpace(site), "/")
	if cleaned == "" {
		return "", apperr.Usagef("Datadog site value is empty")
	}
	if strings.HasPrefix(cleaned, "http://") || strings.HasPrefix(cleaned, "https://") {
		return cleaned, nil
	}
	if strings.HasPrefix(cleaned, "api.") {
		return "https://" + cleaned, nil
	}
	return "https://api." + cleaned, nil
}
