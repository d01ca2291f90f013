package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"cpu-monitoring/internal/config"
	"cpu-monitoring/internal/domain"
	"cpu-monitoring/internal/repository"
	"cpu-monitoring/internal/sampler"
	"cpu-monitoring/internal/util"
)

var (
	configPath string
	span       time.Duration
	step       time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "ingest",
	Short:        "Backfills the SQLite store with synthetic CPU usage samples",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if step <= 0 || span <= 0 {
			return fmt.Errorf("--span and --step must be positive")
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Storage.Type != config.StorageSQLite {
			return fmt.Errorf("ingest needs a sqlite store, config has %q", cfg.Storage.Type)
		}

		if err := util.CheckAndCreateLogFolder(filepath.Dir(cfg.Storage.Path)); err != nil {
			return err
		}

		sqliteStore := repository.NewSQLiteStore(cfg.Storage.Path)
		if err := sqliteStore.Init(); err != nil {
			return fmt.Errorf("failed to initialize SQLite store for ingestion: %w", err)
		}
		defer sqliteStore.Close()

		endTime := time.Now().Truncate(time.Second)
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		log.Printf("Ingesting data from %s to %s...", endTime.Add(-span).Format(time.RFC3339), endTime.Format(time.RFC3339))
		n := generateAndIngest(cmd.Context(), sqliteStore, endTime.Add(-span), endTime, step, rng)
		log.Printf("Data ingestion complete, %d samples written.", n)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML config file.")
	rootCmd.Flags().DurationVar(&span, "span", 5*time.Minute, "How far back to generate samples.")
	rootCmd.Flags().DurationVar(&step, "step", 10*time.Second, "Spacing between generated samples.")
}

// generateAndIngest writes one sample per step in [startTime, endTime] and
// returns how many were stored. Individual write failures are logged and
// skipped.
func generateAndIngest(ctx context.Context, s domain.SampleStore, startTime, endTime time.Time, step time.Duration, rng *rand.Rand) int {
	written := 0

	for t := startTime; !t.After(endTime); t = t.Add(step) {
		sample := domain.Sample{
			Timestamp: t.Truncate(time.Second),
			Usage:     sampler.FormatUsage(rng.Float64() * 100.0),
		}

		if err := s.Append(ctx, sample); err != nil {
			log.Printf("Error inserting sample for %s: %v", sample.Timestamp.Format(time.RFC3339), err)
			continue
		}
		written++
	}

	return written
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
