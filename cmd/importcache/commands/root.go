// Package commands implements the CLI commands for the importcache tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/importcache/internal/app"
	"go.trai.ch/importcache/internal/build"
	"go.trai.ch/importcache/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// CLI represents the command line interface for importcache.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	dir     string
}

// Application represents the application logic interface.
type Application interface {
	Configure(opts app.LogOptions)
	Lookup(ctx context.Context, dir string, opts app.LookupOptions) (*app.LookupResult, error)
	Complete(ctx context.Context, dir string, kind domain.ImportKind, partial, baseDir string) ([]domain.CompletionItem, error)
	Watch(ctx context.Context, dir string, opts app.WatchOptions) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "importcache",
		Short:         "Resolve, document and watch library, resource and variables imports",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.dir, "dir", "C", ".", "Workspace directory to run in")
	flags.String("log-format", "auto", "Log format: auto, pretty or json")
	flags.BoolP("quiet", "q", false, "Only log warnings and errors")
	flags.Bool("trace", false, "Log a line for every finished span")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		format, _ := cmd.Flags().GetString("log-format")
		quiet, _ := cmd.Flags().GetBool("quiet")
		trace, _ := cmd.Flags().GetBool("trace")
		c.app.Configure(app.LogOptions{Format: format, Quiet: quiet, Trace: trace})
	}

	rootCmd.AddCommand(c.newLookupCmd(domain.KindLibrary))
	rootCmd.AddCommand(c.newLookupCmd(domain.KindResource))
	rootCmd.AddCommand(c.newLookupCmd(domain.KindVariables))
	rootCmd.AddCommand(c.newCompleteCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// writeYAML writes v to w as a YAML document.
func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
