package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"devicelab/internal/config"
	"devicelab/internal/domain"
	"devicelab/internal/repository"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate sample launch-time measurements",
	Long:  "Fill the database with randomized launch-time rows so the chart has data during development.",
	RunE:  seed,
}

var seedCount int

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedCount, "count", 15, "Number of rows to generate")
}

func seed(cmd *cobra.Command, args []string) error {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store := repository.NewSQLiteStore(cfg.DBPath)
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	start := time.Now().Add(-time.Duration(seedCount) * time.Minute)

	for i := 0; i < seedCount; i++ {
		state := domain.StartupCold
		startupTime := 700 + rng.Int63n(600)
		if rng.Intn(2) == 1 {
			state = domain.StartupWarm
			startupTime = 100 + rng.Int63n(200)
		}

		lt := domain.LaunchTime{
			Timestamp:      start.Add(time.Duration(i) * time.Minute).Unix(),
			IPAddress:      "192.168.1.50",
			Device:         "raven",
			AndroidVersion: "14",
			Application:    "youtube",
			StartupState:   state,
			StartupTimeMs:  startupTime,
		}

		if err := store.StoreLaunchTime(ctx, lt); err != nil {
			log.Printf("Error inserting row %d: %v", i, err)
			continue
		}
	}

	log.Printf("Seeded %d launch-time rows into %s", seedCount, cfg.DBPath)
	return nil
}
