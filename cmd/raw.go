package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rmayhew/ddq/apperr"
	"github.com/rmayhew/ddq/datadog"
)

var (
	rawMethod   string
	rawPath     string
	rawParams   []string
	rawBody     string
	rawBodyFile string
)

var rawCmd = &cobra.Command{
	Use:   "raw --method METHOD --path PATH",
	Short: "Call an arbitrary Datadog API endpoint",
	Long: `Issue a single request against any Datadog API path. The method,
path, query parameters, and JSON body are sent verbatim; the response
body is printed on stdout.

The path may be relative to the resolved API base URL or a full
http(s):// URL. Idempotency of non-GET raw calls is the caller's
responsibility: retryable failures are replayed like any other command.`,
	Example: `  # Validate the configured credentials
  ddq raw --method GET --path /api/v1/validate

  # Post a deployment event
  ddq raw --method POST --path /api/v1/events --body '{"title":"deploy","text":"v2 rollout"}'

  # Query with parameters, body from a file
  ddq raw --method GET --path /api/v1/hosts --query filter=env:prod
  ddq raw --method POST --path /api/v2/logs/events/search --body-file search.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var body []byte
		switch {
		case rawBodyFile != "":
			raw, err := os.ReadFile(rawBodyFile)
			if err != nil {
				return apperr.Usagef("reading --body-file: %v", err)
			}
			body = raw
		case rawBody != "":
			body = []byte(rawBody)
		}
		return runQuery(&datadog.RawCommand{
			Method: rawMethod,
			Path:   rawPath,
			Params: rawParams,
			Body:   body,
		})
	},
}

func init() {
	rawCmd.Flags().StringVar(&rawMethod, "method", "", "HTTP method (required)")
	rawCmd.Flags().StringVar(&rawPath, "path", "", "API path under the base URL, or a full http(s) URL (required)")
	rawCmd.Flags().StringArrayVar(&rawParams, "query", nil, "Query parameter as key=value (repeatable)")
	rawCmd.Flags().StringVar(&rawBody, "body", "", "JSON request body")
	rawCmd.Flags().StringVar(&rawBodyFile, "body-file", "", "Read the JSON request body from a file")
	rawCmd.MarkFlagRequired("method")
	rawCmd.MarkFlagRequired("path")
	rawCmd.MarkFlagsMutuallyExclusive("body", "body-file")
	rootCmd.AddCommand(rawCmd)
}
