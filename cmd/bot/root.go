package main

import (
	"github.com/spf13/cobra"

	"botrouter/pkg/config"
)

type runFunc func(flags config.Flags) error

func newRootCmd(serve, check runFunc) *cobra.Command {
	var flags config.Flags

	root := &cobra.Command{
		Use:           "botrouter",
		Short:         "Telegram bot built on the update router",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.EnvFile, "env-file", "", "load environment from this file instead of .env")
	root.PersistentFlags().StringVar(&flags.Mode, "mode", "", "override bot.mode (polling|webhook)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(flags)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "check-config",
		Short: "Validate configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := check(flags); err != nil {
				return err
			}
			cmd.Printf("config ok (mode %s)\n", modeOrDefault(flags.Mode))
			return nil
		},
	})

	return root
}

func modeOrDefault(mode string) string {
	if mode == "" {
		return "from environment"
	}
	return mode
}
