package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"studentperf/config"
	"studentperf/db"
	qhttp "studentperf/http"
	"studentperf/inference"
	"studentperf/logging"
	"studentperf/ml"
	"studentperf/monitoring"
	"studentperf/student"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Encoding:   cfg.Log.Encoding,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	handle := ml.Open(cfg.Model.Path, student.NumFeatures, logger)
	service, closeService, err := buildService(cfg, handle, logger)
	if err != nil {
		return err
	}
	defer closeService()

	api := qhttp.NewAPI(qhttp.APIConfig{
		Service:        service,
		Validator:      student.NewValidator(cfg.ReportMode()),
		Logger:         logger,
		Metrics:        monitoring.NewMetricsCollector(),
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, api, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Stop(shutdownCtx)
	})
	if cfg.Watch.Enabled {
		g.Go(func() error {
			if err := ml.NewWatcher(cfg.Model.Path, logger, nil).Run(gctx); err != nil {
				logger.Warn("Model watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	err = g.Wait()
	logger.Info("Exiting")
	return err
}

// buildService layers the optional result cache and audit log over the
// predictor. Audit sits outermost so cache hits are recorded too.
func buildService(cfg config.Config, handle *ml.Handle, logger *zap.Logger) (inference.Service, func(), error) {
	var service inference.Service = inference.NewPredictor(handle, logger)
	closer := func() {}

	if cfg.Cache.Size > 0 {
		cached, err := inference.NewCachedPredictor(service, cfg.Cache.Size)
		if err != nil {
			return nil, closer, err
		}
		service = cached
	}

	if cfg.Audit.Enabled {
		audit, err := db.Open(cfg.Audit.Path)
		if err != nil {
			return nil, closer, err
		}
		logger.Info("Prediction audit enabled", zap.String("path", cfg.Audit.Path))
		service = inference.NewRecordingPredictor(service, audit, logger)
		closer = func() {
			if err := audit.Close(); err != nil {
				logger.Warn("Failed to close audit log", zap.Error(err))
			}
		}
	}
	return service, closer, nil
}
