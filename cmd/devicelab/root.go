package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"devicelab/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "devicelab",
	Short: "Android device test service",
	Long: `A web service that runs basic Android device tests over adb
(app launch time, CPU usage, memory usage), stores the results in SQLite
and serves chart data for the most recent measurements.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "Path to a config file (overrides defaults)")
	rootCmd.PersistentFlags().String("db-path", "", "Path to the SQLite database (overrides DEVICELAB_DB_PATH)")
	viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db-path"))
}

func initConfig() {
	config.SetDefaults()

	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			checkError(fmt.Errorf("failed to read config file %s: %w", cfgFile, err))
		}
	}
}

func checkError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
