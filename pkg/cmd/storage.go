package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/soundvault/pkg/internal/storage/blob"
)

var (
	storageCmd = &cobra.Command{
		Use:   "storage",
		Short: "Audio blob storage related commands",
	}

	storageListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered storage strategies",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered storage strategies:")
			for _, t := range blob.GetRegisteredTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}
)

// registerStorageCommands 注册存储策略相关命令.
func registerStorageCommands() {
	rootCmd.AddCommand(storageCmd)
	storageCmd.AddCommand(storageListCmd)
}
