package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rmayhew/ddq/apperr"
	"github.com/rmayhew/ddq/config"
	"github.com/rmayhew/ddq/datadog"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var (
	rootSite           string
	rootAPIKey         string
	rootAppKey         string
	rootCompact        bool
	rootOutput         string
	rootVerbose        bool
	rootRetries        int
	rootBackoffMS      int64
	rootMaxBackoffMS   int64
	rootRetryRateLimit bool
	rootTimeoutSeconds int64
)

var rootCmd = &cobra.Command{
	Use:     "ddq",
	Short:   "Query Datadog APIs from the command line",
	Version: version,
	Long: `ddq issues one-shot queries against the Datadog HTTP API and prints the
JSON response on stdout. Failures are reported as a single JSON error
envelope on stderr with a deterministic exit code, so the tool is safe
to drive from scripts and automated agents.

Environment Variables:
  DD_API_KEY   (required)  Your Datadog API key
  DD_APP_KEY   (required)  Your Datadog Application key (DD_APPLICATION_KEY also works)
  DD_SITE      (optional)  Datadog site (default: datadoghq.com)
                           Examples: datadoghq.eu, us3.datadoghq.com, us5.datadoghq.com

Exit Codes:
  0 success, 1 internal error, 2 usage error, 3 auth error,
  4 rate limited, 5 upstream error after retries, 6 API error

Quick Start:
  export DD_API_KEY="your-api-key"
  export DD_APP_KEY="your-app-key"
  ddq logs "service:web status:error" --from now-1h`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if rootVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	addClientFlags(rootCmd.PersistentFlags())
	addRetryFlags(rootCmd.PersistentFlags())
}

// addClientFlags registers the site, credential, and output flags.
func addClientFlags(fs *pflag.FlagSet) {
	fs.StringVar(&rootSite, "site", "", "Datadog site suffix or full API base URL (e.g. datadoghq.eu, https://api.datadoghq.com)")
	fs.StringVar(&rootAPIKey, "api-key", "", "Datadog API key (falls back to DD_API_KEY)")
	fs.StringVar(&rootAppKey, "app-key", "", "Datadog application key (falls back to DD_APP_KEY or DD_APPLICATION_KEY)")
	fs.StringVar(&rootOutput, "output", "json", "Output format: json or pretty")
	fs.BoolVar(&rootCompact, "compact", false, "Print compact JSON (deprecated, prefer --output json)")
	fs.BoolVar(&rootVerbose, "verbose", false, "Log attempt-level debug detail on stderr")
}

// addRetryFlags registers the retry policy knobs.
func addRetryFlags(fs *pflag.FlagSet) {
	fs.IntVar(&rootRetries, "retries", 3, "Retry attempts for retryable upstream failures")
	fs.Int64Var(&rootBackoffMS, "retry-backoff-ms", 250, "Base retry backoff in milliseconds (exponential, capped by --retry-max-backoff-ms)")
	fs.Int64Var(&rootMaxBackoffMS, "retry-max-backoff-ms", 5000, "Maximum retry backoff in milliseconds")
	fs.BoolVar(&rootRetryRateLimit, "retry-rate-limit", true, "Retry rate-limited (HTTP 429) responses; pass --retry-rate-limit=false to disable")
	fs.Int64Var(&rootTimeoutSeconds, "timeout-seconds", 30, "HTTP timeout per attempt in seconds")
}

// resolveConfig folds the persistent flags and environment into one
// validated Config.
func resolveConfig() (*config.Config, error) {
	return config.Resolve(config.Options{
		Site:           rootSite,
		APIKey:         rootAPIKey,
		AppKey:         rootAppKey,
		Compact:        rootCompact,
		Output:         rootOutput,
		Retries:        rootRetries,
		BackoffMS:      rootBackoffMS,
		MaxBackoffMS:   rootMaxBackoffMS,
		RetryRateLimit: rootRetryRateLimit,
		TimeoutSeconds: rootTimeoutSeconds,
	})
}

// runQuery drives one command through the pipeline and renders the
// result on stdout.
func runQuery(cmd datadog.Command) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	client := datadog.NewClient(cfg)
	body, err := client.Do(context.Background(), cmd)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, body, cfg.Compact)
}

// envelopeFor renders any error as the compact JSON failure contract
// plus its exit code. Errors outside the taxonomy (cobra flag parsing,
// unknown subcommands) count as usage errors.
func envelopeFor(err error) ([]byte, int) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Usagef("%s", err)
	}
	out, mErr := json.Marshal(appErr.Envelope())
	if mErr != nil {
		return []byte(`{"error":{"category":"internal_error","exit_code":1,"status":null,"retryable":false,"retry_after_ms":null,"message":"failed serializing error output"}}`), apperr.ExitInternal
	}
	return out, appErr.ExitCode()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		out, code := envelopeFor(err)
		fmt.Fprintln(os.Stderr, string(out))
		os.Exit(code)
	}
}
