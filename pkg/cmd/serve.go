package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/soundvault/pkg/app"
	"github.com/yeisme/soundvault/pkg/configs"
)

var (
	noWorker bool
	noCron   bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "run the http server (with the job worker and cron unless disabled)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), app.Options{HTTP: true, Worker: !noWorker, Cron: !noCron})
		},
	}

	workerCmd = &cobra.Command{
		Use:   "worker",
		Short: "run only the duration job worker and cron jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), app.Options{Worker: true, Cron: !noCron})
		},
	}
)

func run(parent context.Context, opts app.Options) error {
	if parent == nil {
		parent = context.Background()
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, configs.GetConfig(), opts)
	if err != nil {
		return err
	}

	defer func() { _ = a.Close() }()

	return a.Run(ctx)
}

func registerServeCommands() {
	serveCmd.Flags().BoolVar(&noWorker, "no-worker", false, "do not consume duration jobs in this process")
	serveCmd.Flags().BoolVar(&noCron, "no-cron", false, "do not run sweep and purge cron jobs")
	workerCmd.Flags().BoolVar(&noCron, "no-cron", false, "do not run sweep and purge cron jobs")

	rootCmd.AddCommand(serveCmd, workerCmd)
}
