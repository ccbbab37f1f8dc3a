package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rsp2k/usecallmanager-services/internal/ami"
	directoryapp "github.com/rsp2k/usecallmanager-services/internal/directory_service/app"
	transport "github.com/rsp2k/usecallmanager-services/internal/phone_api_service/transport/http"
	"github.com/rsp2k/usecallmanager-services/internal/platform/config"
	"github.com/rsp2k/usecallmanager-services/internal/platform/logger"
	reportapp "github.com/rsp2k/usecallmanager-services/internal/report_service/app"
	"github.com/rsp2k/usecallmanager-services/internal/report_service/repository/filestore"
)

const (
	serviceName     = "phone-services"
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)

	appLogger.Info("Phone services starting...",
		"listen_address", cfg.ListenAddress,
		"manager_address", cfg.ManagerAddress,
		"manager_pool_size", cfg.ManagerPoolSize,
		"reports_dir", cfg.ReportsDir,
		"log_level", cfg.LogLevel,
	)

	pool := ami.NewPool(ami.Config{
		Address:       cfg.ManagerAddress,
		Username:      cfg.ManagerUsername,
		Secret:        cfg.ManagerSecret,
		DialTimeout:   cfg.DialTimeout,
		ActionTimeout: cfg.ActionTimeout,
	}, cfg.ManagerPoolSize, appLogger)
	defer pool.Close()

	store, err := filestore.New(cfg.ReportsDir, appLogger)
	if err != nil {
		appLogger.Error("Failed to prepare reports directory", "dir", cfg.ReportsDir, "error", err)
		os.Exit(1)
	}

	directory := directoryapp.NewService(pool, appLogger)
	capture := reportapp.NewCaptureService(pool, store, appLogger)

	router := transport.NewRouter(transport.Handlers{
		Services:     transport.NewServicesHandler(pool, appLogger),
		Directory:    transport.NewDirectoryHandler(directory, appLogger),
		DirectoryAPI: transport.NewDirectoryAPIHandler(directory, appLogger),
		Quality:      transport.NewQualityHandler(capture, appLogger),
		Problem:      transport.NewProblemHandler(store, appLogger),
		Information:  transport.NewInformationHandler(cfg.PhoneHelpFile, appLogger),
		Auth:         transport.NewAuthHandler(cfg.CGIUsername, cfg.CGIPassword, appLogger),
		Reports:      transport.NewReportsAPIHandler(store, appLogger),
	}, appLogger, requestTimeout)

	server := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: router,
	}

	errChan := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP server listening", "address", cfg.ListenAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		appLogger.Error("HTTP server failed", "error", err)
		os.Exit(1)
	case sig := <-stop:
		appLogger.Info("Shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Phone services stopped")
}
