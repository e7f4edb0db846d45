package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rmayhew/ddq/datadog"
)

var (
	eventsQuery string
	eventsFrom  string
	eventsTo    string
	eventsLimit int32
	eventsSort  string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List Datadog events",
	Long: `List events in a time range via GET /api/v2/events, optionally
filtered by a query, and print the response on stdout.`,
	Example: `  # Everything from the last 15 minutes
  ddq events

  # Deploy events from the last day, oldest first
  ddq events --query "source:deploy" --from now-1d --sort asc`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(&datadog.EventsCommand{
			Query: eventsQuery,
			From:  eventsFrom,
			To:    eventsTo,
			Limit: eventsLimit,
			Sort:  eventsSort,
		})
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsQuery, "query", "", "Event filter query (omitted from the request when empty)")
	eventsCmd.Flags().StringVar(&eventsFrom, "from", "now-15m", "Start of time range (now, unix seconds, RFC3339, or now-<N><s|m|h|d|w>)")
	eventsCmd.Flags().StringVar(&eventsTo, "to", "now", "End of time range (same formats as --from)")
	eventsCmd.Flags().Int32Var(&eventsLimit, "limit", 50, "Maximum number of events to return")
	eventsCmd.Flags().StringVar(&eventsSort, "sort", "desc", "Sort order by timestamp: asc or desc")
	rootCmd.AddCommand(eventsCmd)
}
