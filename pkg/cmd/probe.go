package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/jobs"
)

var probeCmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "print the duration ffprobe reports for a local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := jobs.NewFFProbe(configs.GetConfig().Probe).Probe(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		d, ok := res.Duration()
		if !ok {
			return jobs.ErrMissingDuration
		}

		fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(d, 'f', -1, 64))

		return nil
	},
}

func registerProbeCommands() {
	rootCmd.AddCommand(probeCmd)
}
