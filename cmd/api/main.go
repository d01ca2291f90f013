package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"cpu-monitoring/internal/config"
	"cpu-monitoring/internal/domain"
	"cpu-monitoring/internal/monitoring"
	"cpu-monitoring/internal/observability"
	"cpu-monitoring/internal/repository"
	"cpu-monitoring/internal/router"
	"cpu-monitoring/internal/sampler"
	"cpu-monitoring/internal/util"
)

var (
	configPath string
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:          "cpumonitor",
	Short:        "Samples host CPU usage and serves range queries over it",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if listenAddr != "" {
			cfg.Server.Addr = listenAddr
		}
		return run(cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML config file. Defaults are used when empty.")
	rootCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address, overrides server.addr.")
}

func LoggerInitialize(cfg *config.Config) (*util.MonitorLogger, error) {
	logger := &util.MonitorLogger{}

	err := logger.Init(util.LoggerOptions{
		Dir:      cfg.Log.Dir,
		FileName: cfg.Log.File,
		Level:    cfg.Log.Level,
		Console:  cfg.Log.Console,
	})
	if err != nil {
		return nil, err
	}

	logger.LogEvent(util.LOG_LEVEL_INFO, "Service started")
	fmt.Fprintf(os.Stderr, "\n%s: CPU monitor started \n", time.Now().Format(time.RFC3339))

	return logger, nil
}

func NewStore(cfg config.StorageConfig) (domain.SampleStore, error) {
	switch cfg.Type {
	case config.StorageSQLite:
		if err := util.CheckAndCreateLogFolder(filepath.Dir(cfg.Path)); err != nil {
			return nil, err
		}
		return repository.NewSQLiteStore(cfg.Path), nil
	case config.StorageMemory:
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func run(cfg *config.Config) error {
	logger, err := LoggerInitialize(cfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.DeInit()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := NewStore(cfg.Storage)
	if err != nil {
		return err
	}
	if err := store.Init(); err != nil {
		return fmt.Errorf("initialize sample store: %w", err)
	}
	defer store.Close()

	if n, err := store.Count(context.Background()); err == nil {
		logger.LogEvent(util.LOG_LEVEL_INFO, "Sample store holds ", n, " samples")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewPromMetrics(reg)

	cpuSampler := sampler.New(sampler.NewCPUReader(cfg.Sampler.ReadWindow), store, time.Now, sampler.Options{
		Interval:       cfg.Sampler.Interval,
		WarmupCount:    cfg.Sampler.WarmupCount,
		WarmupInterval: cfg.Sampler.WarmupInterval,
	}, logger, metrics)

	if err := cpuSampler.Start(context.Background()); err != nil {
		return fmt.Errorf("start sampler: %w", err)
	}

	service := monitoring.NewService(store, time.Now, loc, metrics, logger)
	handler := router.NewRouter(service, reg, logger)

	return router.Run(cfg.Server.Addr, cfg.Server.ShutdownTimeout, handler, cpuSampler.Stop)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
