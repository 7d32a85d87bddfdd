package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/soundvault/pkg/configs"
	mq "github.com/yeisme/soundvault/pkg/internal/storage/mq"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Job queue backends",
		Long:    "Inspect the message queue backends that carry duration extraction jobs (mq.type in the config).",
		Aliases: []string{"messagequeue"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list registered job queue backends",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			types := mq.GetRegisteredMQTypes()
			names := make([]string, 0, len(types))
			for _, t := range types {
				names = append(names, string(t))
			}

			printBackends(cmd.OutOrStdout(), "Job queue backends:", names, string(configs.GetConfig().MQ.GetMQType()))
		},
	}
)

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd)
}
