package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "calckeeper",
		Short: "Command-line client for the calckeeper calculator API",
		Long: `calckeeper registers accounts, signs in and manages your calculations
on a calckeeper server. Tokens are kept in a session file between runs
and refreshed automatically when the access token expires.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.connect()
		},
	}

	root.PersistentFlags().StringVarP(&a.config.ServerURL, "address", "a", a.config.ServerURL, "base URL of the calckeeper server")
	// Read before the command tree is built; declared so cobra accepts it.
	root.PersistentFlags().StringP("config", "c", "", "path to JSON config file")

	root.AddCommand(
		a.pingCommand(),
		a.registerCommand(),
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.calcCommand(),
		versionCommand(),
	)
	return root
}

func (a *App) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is up\n", a.config.ServerURL)
			return nil
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "calckeeper version %s\n", Version)
			fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(w, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
			return nil
		},
	}
}
