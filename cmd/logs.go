package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rmayhew/ddq/datadog"
)

var (
	logsFrom   string
	logsTo     string
	logsLimit  int32
	logsSort   string
	logsCursor string
)

var logsCmd = &cobra.Command{
	Use:   "logs QUERY",
	Short: "Search Datadog logs",
	Long: `Search Datadog logs with a query string and time range via
POST /api/v2/logs/events/search. The matching events are printed as the
raw API response on stdout.

The tool never paginates on its own: one invocation issues one search.
To fetch the next page, pass the cursor from the previous response's
meta.page.after via --cursor.`,
	Example: `  # Errors from the web service in the last hour
  ddq logs "service:web status:error" --from now-1h

  # Oldest first, fixed window, small page
  ddq logs "service:api" --from now-30m --to now-5m --limit 20 --sort asc

  # Continue from a previous response's cursor
  ddq logs "service:api" --cursor "eyJhZnRlciI6..."`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(&datadog.LogsCommand{
			Query:  args[0],
			From:   logsFrom,
			To:     logsTo,
			Limit:  logsLimit,
			Sort:   logsSort,
			Cursor: logsCursor,
		})
	},
}

func init() {
	logsCmd.Flags().StringVar(&logsFrom, "from", "now-15m", "Start of time range (now, unix seconds, RFC3339, or now-<N><s|m|h|d|w>)")
	logsCmd.Flags().StringVar(&logsTo, "to", "now", "End of time range (same formats as --from)")
	logsCmd.Flags().Int32Var(&logsLimit, "limit", 50, "Maximum number of log events to return")
	logsCmd.Flags().StringVar(&logsSort, "sort", "desc", "Sort order by timestamp: asc or desc")
	logsCmd.Flags().StringVar(&logsCursor, "cursor", "", "Pagination cursor from a previous response's meta.page.after")
	rootCmd.AddCommand(logsCmd)
}
