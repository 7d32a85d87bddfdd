// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/log"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:          "soundvault",
		Short:        "A personal audio hosting service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			log.Init()

			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")

	registerServeCommands()
	registerUserCommands()
	registerProbeCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerMQCommands()
	registerKVCommands()
	registerStorageCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
