package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/importcache/internal/core/domain"
)

func (c *CLI) newCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "complete KIND [PARTIAL]",
		Short:     "List import names starting with PARTIAL",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"library", "resource", "variables"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseImportKind(args[0])
			if err != nil {
				return err
			}
			partial := ""
			if len(args) > 1 {
				partial = args[1]
			}
			baseDir, _ := cmd.Flags().GetString("base-dir")
			detailed, _ := cmd.Flags().GetBool("detail")

			items, err := c.app.Complete(cmd.Context(), c.dir, kind, partial, baseDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if detailed {
				return writeYAML(out, items)
			}
			for _, item := range items {
				_, _ = fmt.Fprintln(out, item.Label)
			}
			return nil
		},
	}
	cmd.Flags().StringP("base-dir", "b", "", "Directory of the importing file (default: the workspace directory)")
	cmd.Flags().Bool("detail", false, "Print kind and location of every candidate as YAML")
	return cmd
}
