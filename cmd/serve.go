package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imyashkale/geoconnect/internal/catalog"
	"github.com/imyashkale/geoconnect/internal/config"
	"github.com/imyashkale/geoconnect/internal/database"
	"github.com/imyashkale/geoconnect/internal/handlers"
	"github.com/imyashkale/geoconnect/internal/logger"
	"github.com/imyashkale/geoconnect/internal/metrics"
	"github.com/imyashkale/geoconnect/internal/middleware"
	"github.com/imyashkale/geoconnect/internal/permissions"
	"github.com/imyashkale/geoconnect/internal/plugins"
	"github.com/imyashkale/geoconnect/internal/queue"
	"github.com/imyashkale/geoconnect/internal/registry"
	"github.com/imyashkale/geoconnect/internal/repository"
	"github.com/imyashkale/geoconnect/internal/router"
	"github.com/imyashkale/geoconnect/internal/secrets"
	"github.com/imyashkale/geoconnect/internal/services"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the liveness probe workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration
	cfg := config.New()
	logger.Init(cfg.LogLevel)
	logger.Info("Configuration loaded successfully")

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	reg := registry.New(cat)
	if m != nil {
		reg.SetObserver(m)
	}
	plugins.Register(reg, plugins.ProbeOptions{
		Timeout:  cfg.ProbeTimeout,
		RetryMax: cfg.ProbeRetryMax,
	})

	// Initialize database configuration
	dbConfig := database.NewConfig(cfg)
	logger.WithFields(map[string]interface{}{
		"region":      dbConfig.Region,
		"servers":     dbConfig.ServersTable,
		"connections": dbConfig.ConnectionsTable,
	}).Info("Initializing DynamoDB client")

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return err
	}

	box, err := secrets.NewAESBox(cfg.SecretEncryptionKey)
	if err != nil {
		return err
	}

	perms, err := permissions.New(&permissions.Config{
		Type: permissions.DatabaseType(cfg.PermissionsDBType),
		Path: cfg.PermissionsDBPath,
		DSN:  cfg.PermissionsDBDSN,
	})
	if err != nil {
		return err
	}
	defer perms.Close()

	// Initialize repositories
	serverRepo := repository.NewServerRepository(database.NewServerTable(dbClient, dbConfig.ServersTable))
	connRepo := repository.NewConnectionRepository(
		database.NewConnectionTable(dbClient, dbConfig.ConnectionsTable, dbConfig.CredentialsTable),
		box,
	)

	svc := services.NewConnectionService(
		serverRepo,
		connRepo,
		perms,
		cat,
		services.NewSessionResolver(reg, m),
		services.NewLiveness(reg, m),
		services.NewGrantPolicy(perms, cfg.AnonymousUserName, m),
	)

	// Liveness probe workers
	probeQueue := queue.NewJobQueue(cfg.ProbeQueueSize)
	workerPool := queue.NewWorkerPool(probeQueue, cfg.ProbeWorkers)
	workerPool.Start(context.Background(), func(jobCtx context.Context, job *queue.ProbeJob) error {
		_, err := svc.RecordLiveness(jobCtx, job.ServerID)
		m.ObserveProbeJob(err)
		return err
	})
	logger.Infof("Probe worker pool started with %d workers", cfg.ProbeWorkers)

	var auth gin.HandlerFunc
	if cfg.Auth0Domain != "" {
		auth = middleware.AuthenticationWithAuth0(middleware.NewAuth0Config(cfg.Auth0Domain, cfg.Auth0Audience), svc)
	} else {
		logger.Warn("AUTH0_DOMAIN not set, token signatures are not verified")
		auth = middleware.Authentication(svc)
	}

	h := router.Handlers{
		Health:      handlers.NewHealthHandler(map[string]handlers.HealthCheck{"permissions": perms.Ping}),
		Catalog:     handlers.NewCatalogHandler(cat),
		Servers:     handlers.NewServerHandler(svc, probeQueue),
		Connections: handlers.NewConnectionHandler(svc),
	}
	if m != nil {
		h.Metrics = m.Handler()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(h, auth, gin.Logger(), middleware.CORS(cfg.CORSAllowedOrigins)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown failed: %v", err)
	}

	// Stop accepting probes and let the workers drain the queue
	probeQueue.Close()
	workerPool.Wait()
	logger.Info("All probe workers stopped")
	return nil
}
