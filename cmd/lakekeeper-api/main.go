// Package main provides the entry point for the Lakekeeper Iceberg REST
// catalog service: the Iceberg REST catalog API, the project/warehouse
// management API, and their shared storage/authorization/task-queue
// collaborators.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lakekeeper/lakekeeper/internal/api"
	catalogapi "github.com/lakekeeper/lakekeeper/internal/api/catalog"
	"github.com/lakekeeper/lakekeeper/internal/api/management"
	"github.com/lakekeeper/lakekeeper/internal/api/middleware"
	"github.com/lakekeeper/lakekeeper/internal/catalog/authz"
	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
	"github.com/lakekeeper/lakekeeper/internal/catalog/eventsink"
	"github.com/lakekeeper/lakekeeper/internal/catalog/secretsstore"
	"github.com/lakekeeper/lakekeeper/internal/catalog/storagebroker"
	"github.com/lakekeeper/lakekeeper/internal/catalog/store"
	"github.com/lakekeeper/lakekeeper/internal/catalog/taskqueue"
	"github.com/lakekeeper/lakekeeper/internal/cdc/health"
	"github.com/lakekeeper/lakekeeper/internal/config"
	"github.com/lakekeeper/lakekeeper/internal/crypto"
	"github.com/lakekeeper/lakekeeper/internal/vault"
)

func main() {
	// Setup structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LAKEKEEPER_LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("starting Lakekeeper catalog API",
		"version", cfg.Version,
		"environment", cfg.Environment,
		"listen_addr", cfg.API.ListenAddr,
	)

	// Initialize secret provider (Vault or environment fallback) for the
	// catalog database password.
	vaultCfg := &vault.Config{
		Enabled:               cfg.Vault.Enabled,
		Address:               cfg.Vault.Address,
		Namespace:             cfg.Vault.Namespace,
		AuthMethod:            cfg.Vault.AuthMethod,
		Role:                  cfg.Vault.Role,
		TokenPath:             cfg.Vault.TokenPath,
		Token:                 cfg.Vault.Token,
		TLSSkipVerify:         cfg.Vault.TLSSkipVerify,
		CACert:                cfg.Vault.CACert,
		SecretMountPath:       cfg.Vault.SecretMountPath,
		TokenRenewalInterval:  cfg.Vault.TokenRenewalInterval,
		SecretRefreshInterval: cfg.Vault.SecretRefreshInterval,
		FallbackToEnv:         cfg.Vault.FallbackToEnv,
		SecretPaths: vault.SecretPaths{
			DatabaseBuffer: cfg.Vault.SecretPaths.DatabaseBuffer,
			DatabaseSource: cfg.Vault.SecretPaths.DatabaseSource,
			StorageMinio:   cfg.Vault.SecretPaths.StorageMinio,
		},
	}

	secretProvider, err := vault.NewSecretProvider(context.Background(), vaultCfg, logger)
	if err != nil {
		logger.Error("failed to create secret provider", "error", err)
		os.Exit(1)
	}
	defer secretProvider.Close()

	// Get database password from secret provider if Vault is enabled
	if cfg.Vault.Enabled {
		dbPassword, err := secretProvider.GetDatabasePassword(context.Background())
		if err != nil {
			logger.Warn("failed to get database password from vault, using config value", "error", err)
		} else {
			cfg.Database.Password = dbPassword
		}
	}

	// Initialize the catalog database pool. The Catalog Store, task
	// queue, and postgres secret backend all share this pool.
	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(poolCtx, cfg.Database.DSN())
	poolCancel()
	if err != nil {
		logger.Error("failed to open database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := pool.Ping(pingCtx); err != nil {
		pingCancel()
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	pingCancel()
	logger.Info("database connection established")

	// Storage credential secret store: postgres-backed by default, plus
	// a kv2 (Vault) backend when Vault is enabled.
	encryptionKey := cfg.Secrets.EncryptionKeyBase64
	if encryptionKey == "" {
		logger.Warn("LAKEKEEPER_SECRETS_ENCRYPTION_KEY not set, generating an ephemeral key; stored credentials will not survive a restart")
		encryptionKey, err = crypto.GenerateKeyBase64()
		if err != nil {
			logger.Error("failed to generate ephemeral encryption key", "error", err)
			os.Exit(1)
		}
	}
	encryptor, err := crypto.NewEncryptorFromString(encryptionKey)
	if err != nil {
		logger.Error("failed to create secret encryptor", "error", err)
		os.Exit(1)
	}
	postgresSecrets := secretsstore.NewPostgresStore(pool, encryptor, logger)

	var vaultSecrets *secretsstore.VaultStore
	if cfg.Vault.Enabled {
		vaultClient, err := vault.NewClient(vaultCfg, logger)
		if err != nil {
			logger.Warn("failed to create vault client for storage secrets, kv2 credential backend unavailable", "error", err)
		} else if err := vaultClient.Authenticate(context.Background()); err != nil {
			logger.Warn("failed to authenticate vault client for storage secrets, kv2 credential backend unavailable", "error", err)
		} else {
			vaultSecrets = secretsstore.NewVaultStore(vaultClient, logger)
		}
	}
	secretsResolver := secretsstore.NewResolver(postgresSecrets, vaultSecrets, logger)

	// Catalog Store (C1).
	catalogStore := store.NewPostgresStore(pool, logger)

	// Authorization Engine (C3). AllowAll is the default backend; a
	// deployment that needs row-level relations or OPA policy swaps in
	// authz.NewRelationGraph or authz.NewPolicyBackend here.
	authzEngine := authz.New(authz.AllowAll{}, authz.NewLogAuditSink(logger), logger)

	// Storage Access Broker (C4).
	broker := storagebroker.NewBroker(secretsResolver, logger)

	// Task Queue (C5).
	taskQueue := taskqueue.NewQueue(pool, taskqueue.DefaultConfig(), logger)

	// Contract verification + event publication (C6). LogSink/AllowAllVerifier
	// are the no-external-dependency defaults; a deployment that wants
	// webhook delivery swaps in eventsink.NewWebhookSink/NewWebhookVerifier.
	eventSink := eventsink.NewLogSink(logger)
	contractVerifier := eventsink.AllowAllVerifier{}

	// Commit Engine (C2): store.Store already satisfies
	// storagebroker.TableResolver, and *authz.Engine already satisfies
	// commit.Authorizer, and *storagebroker.Broker already satisfies
	// commit.MetadataWriter and taskqueue.Queue already satisfies
	// commit.TaskEnqueuer, so every collaborator passes through with no
	// adapter type.
	commitEngine := commit.NewEngine(
		catalogStore,
		authzEngine,
		contractVerifier,
		eventSink,
		broker,
		taskQueue,
		commit.JSONMetadataEncoder{},
		logger,
	)

	catalogHandler := catalogapi.NewHandler(catalogStore, commitEngine, authzEngine, broker, logger)
	mgmtHandler := management.NewHandler(catalogStore, authzEngine, logger)

	// Create health manager
	healthManager := health.NewManager(health.DefaultManagerConfig(), logger)

	// Register health checkers
	healthManager.Register(health.NewComponentChecker("api", func(ctx context.Context) (health.Status, string, error) {
		return health.StatusHealthy, "API server is running", nil
	}))
	healthManager.Register(health.NewComponentChecker("database", func(ctx context.Context) (health.Status, string, error) {
		if err := pool.Ping(ctx); err != nil {
			return health.StatusUnhealthy, "database connection failed", err
		}
		return health.StatusHealthy, "database connection OK", nil
	}))

	// Register Vault health checker if enabled
	if cfg.Vault.Enabled {
		healthManager.Register(health.NewComponentChecker("vault", func(ctx context.Context) (health.Status, string, error) {
			if err := secretProvider.Refresh(ctx); err != nil {
				return health.StatusDegraded, "vault connection degraded", err
			}
			return health.StatusHealthy, "vault connection OK", nil
		}))
	}

	// Create server configuration. TokenVerifier is left nil: no
	// concrete extiface.TokenVerifier ships in this module (wiring an
	// identity provider's token verification is a deployment concern),
	// so the auth middleware trusts the X-Principal-Id header instead.
	serverCfg := api.ServerConfig{
		Config:            cfg,
		Logger:            logger,
		HealthManager:     healthManager,
		CatalogHandler:    catalogHandler,
		ManagementHandler: mgmtHandler,
		TokenVerifier:     nil,
		CORSConfig: middleware.CORSConfig{
			AllowedOrigins:   cfg.API.CORSOrigins,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		},
		RateLimitConfig: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.API.RateLimitRPS,
			BurstSize:         cfg.API.RateLimitBurst,
			PerClient:         true,
		},
	}

	// Create and start server
	server := api.NewServer(serverCfg)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop server gracefully", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
