package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/importcache/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Load every resource file of the workspace and keep it cached while files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
			return c.app.Watch(cmd.Context(), c.dir, app.WatchOptions{MetricsAddr: metricsAddr})
		},
	}
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. localhost:9464")
	return cmd
}
