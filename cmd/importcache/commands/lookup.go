package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/importcache/internal/app"
	"go.trai.ch/importcache/internal/core/domain"
)

func (c *CLI) newLookupCmd(kind domain.ImportKind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind.String() + " NAME [ARGS...]",
		Short: "Resolve a " + kind.String() + " import and print its documentation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, _ := cmd.Flags().GetString("base-dir")

			result, err := c.app.Lookup(cmd.Context(), c.dir, app.LookupOptions{
				Kind:    kind,
				Name:    args[0],
				Args:    args[1:],
				BaseDir: baseDir,
			})
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), result)
		},
	}
	if kind == domain.KindResource {
		cmd.Use = kind.String() + " NAME"
		cmd.Args = cobra.ExactArgs(1)
	}
	cmd.Flags().StringP("base-dir", "b", "", "Directory of the importing file (default: the workspace directory)")
	return cmd
}
