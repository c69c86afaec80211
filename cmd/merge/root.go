package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"csv-stock-merge/internal/config"
	"csv-stock-merge/internal/logging"
	"csv-stock-merge/internal/notify"
	"csv-stock-merge/internal/pipeline"
	"csv-stock-merge/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge per-source CSV exports and redistribute them",
	Long: `merge consolidates the structurally-similar CSV exports of several
source locations into one aggregated dataset, then writes one output file per
source with that source's own storage location restored.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		log, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		defer log.Sync()

		runs, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer runs.Close()

		notifier := notify.New(cfg.Telegram, log)
		orch := pipeline.NewOrchestrator(cfg, log, notifier, runs)
		return orch.Run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the configuration file")
}
