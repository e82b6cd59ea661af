package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/influence-spread-service/pkg/api"
	"github.com/gilchrisn/influence-spread-service/pkg/config"
	"github.com/gilchrisn/influence-spread-service/pkg/metrics"
	"github.com/gilchrisn/influence-spread-service/pkg/service"
)

type serveOptions struct {
	*rootOptions

	address        string
	allowedOrigins []string
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	cmd.Flags().StringVar(&opts.address, "address", "", "listen address, overrides server.address")
	cmd.Flags().StringSliceVar(&opts.allowedOrigins, "allowed-origins", nil, "CORS origins (default any)")

	return cmd
}

// serverConfig loads the server settings. Dataset paths given on the command
// line win over the configuration file.
func (o *serveOptions) serverConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.address != "" {
		cfg.Server.Address = o.address
	}

	flags := cmd.Flags()
	if flags.Changed("friendships") || cfg.Data.Friendships == "" {
		cfg.Data.Friendships = o.friendships
	}
	if flags.Changed("haters") || cfg.Data.Haters == "" {
		cfg.Data.Haters = o.haters
	}
	if flags.Changed("costs") || cfg.Data.Costs == "" {
		cfg.Data.Costs = o.costs
	}
	return cfg, nil
}

func (o *serveOptions) run(cmd *cobra.Command) error {
	log.Info().Msg("Starting influence spread service")

	cfg, err := o.serverConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Info().
		Str("address", cfg.Server.Address).
		Int("max_workers", cfg.Jobs.MaxWorkers).
		Dur("job_timeout", cfg.Jobs.JobTimeout).
		Msg("Configuration loaded")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// Initialize services (follow dependency order)
	datasetService := service.NewDatasetService()
	if _, err := datasetService.LoadFiles(cfg.Data.Friendships, cfg.Data.Haters, cfg.Data.Costs); err != nil {
		// the dataset can still be uploaded through the API
		log.Warn().Err(err).Msg("Starting without a dataset")
	}

	jobService := service.NewJobService(datasetService, o.config, m, service.JobOptions{
		MaxWorkers:      cfg.Jobs.MaxWorkers,
		JobTimeout:      cfg.Jobs.JobTimeout,
		ResultTTL:       cfg.Jobs.ResultTTL,
		CleanupInterval: cfg.Jobs.CleanupInterval,
	})
	defer jobService.Close()
	simulationService := service.NewSimulationService(datasetService, o.config, m)

	log.Info().Msg("Services initialized")

	handlers := api.NewHandlers(datasetService, jobService, simulationService, o.config).
		WithMaxUploadSize(cfg.Data.MaxFileSize)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(handlers, registry, o.allowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", cfg.Server.Address).
			Msg("HTTP server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server shutdown complete")
	return nil
}
