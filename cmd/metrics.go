package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rmayhew/ddq/datadog"
)

var (
	metricsFrom string
	metricsTo   string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics QUERY",
	Short: "Evaluate a metrics query",
	Long: `Evaluate a metrics query expression over a time range via
GET /api/v1/query and print the timeseries response on stdout.`,
	Example: `  # Average CPU over the last hour
  ddq metrics "avg:system.cpu.user{*}" --from now-1h

  # A fixed window in the past
  ddq metrics "sum:trace.http.request.hits{service:api}" --from now-1d --to now-12h`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(&datadog.MetricsCommand{
			Query: args[0],
			From:  metricsFrom,
			To:    metricsTo,
		})
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsFrom, "from", "now-15m", "Start of time range (now, unix seconds, RFC3339, or now-<N><s|m|h|d|w>)")
	metricsCmd.Flags().StringVar(&metricsTo, "to", "now", "End of time range (same formats as --from, must be after --from)")
	rootCmd.AddCommand(metricsCmd)
}
