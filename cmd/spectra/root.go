package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "spectra",
		Short:         "Identify the song that is playing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx.configureLogging(cmd)
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.backend, "backend", "", "Recognition service base URL")
	rootCmd.PersistentFlags().BoolVar(&flags.json, "json", false, "Write machine-readable JSON")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	listenCmd := newListenCommand(ctx)
	rootCmd.RunE = listenCmd.RunE
	rootCmd.Flags().AddFlagSet(listenCmd.Flags())

	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(newMatchCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newDevBackendCommand())

	return rootCmd
}
