package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"devicelab/internal/adb"
	"devicelab/internal/collector"
	"devicelab/internal/config"
	"devicelab/internal/repository"
	"devicelab/internal/router"
	"devicelab/internal/util"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the device test web service",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "Listen address (overrides DEVICELAB_LISTEN_ADDR)")
	viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("listen"))
}

func serve(cmd *cobra.Command, args []string) error {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := util.NewEventLogger(cfg.LogDir, cfg.LogFile, zapcore.InfoLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	logger.Infof("Service starting on %s", cfg.ListenAddr)

	store := repository.NewSQLiteStore(cfg.DBPath)
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close()

	client := adb.NewClient()
	coll := collector.New(client, store, logger, cfg.AppPackage, cfg.AppActivity, cfg.CollectInterval)

	router.Run(cfg.ListenAddr, store, client, coll, logger, cfg.WindowSize)
	return nil
}
