package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yeisme/soundvault/pkg/configs"
	kv "github.com/yeisme/soundvault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Session store backends",
		Long:    "Inspect the key-value backends that can hold login sessions (kv.type in the config).",
		Aliases: []string{"keyvalue"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list registered session store backends",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			types := kv.GetRegisteredKVTypes()
			names := make([]string, 0, len(types))
			for _, t := range types {
				names = append(names, string(t))
			}

			printBackends(cmd.OutOrStdout(), "Session store backends:", names, string(configs.GetConfig().KV.GetKVType()))
		},
	}
)

// printBackends 按名称排序输出，当前配置使用的后端加上标记.
func printBackends(w io.Writer, title string, names []string, configured string) {
	sort.Strings(names)

	fmt.Fprintln(w, title)
	for _, name := range names {
		if name == configured {
			fmt.Fprintln(w, "   - "+name+" (configured)")
			continue
		}

		fmt.Fprintln(w, "   - "+name)
	}
}

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd)
}
