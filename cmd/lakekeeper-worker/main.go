// Package main provides the entry point for the Lakekeeper task worker:
// the background process that claims and executes Task Queue (C5) work
// items — tabular expiration, object-storage purge, and any registered
// cron tasks — against the shared catalog database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

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
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting Lakekeeper task worker",
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	healthMgr := health.NewManager(health.DefaultManagerConfig(), logger)

	var healthServer *health.Server
	if cfg.CDC.Health.Enabled {
		healthServer = health.NewServer(healthMgr, health.ServerConfig{
			ListenAddr:   cfg.CDC.Health.ListenAddr,
			ReadTimeout:  cfg.CDC.Health.ReadinessTimeout,
			WriteTimeout: cfg.CDC.Health.ReadinessTimeout * 2,
		}, logger)

		go func() {
			if err := healthServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server failed", "error", err)
			}
		}()
		defer healthServer.Stop(context.Background())

		logger.Info("health server started", "addr", cfg.CDC.Health.ListenAddr)
	}

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

	secretProvider, err := vault.NewSecretProvider(ctx, vaultCfg, logger)
	if err != nil {
		return fmt.Errorf("create secret provider: %w", err)
	}
	defer secretProvider.Close()

	if cfg.Vault.Enabled {
		if dbPassword, err := secretProvider.GetDatabasePassword(ctx); err != nil {
			logger.Warn("failed to get database password from vault, using config value", "error", err)
		} else {
			cfg.Database.Password = dbPassword
		}
	}

	poolCtx, poolCancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := pgxpool.New(poolCtx, cfg.Database.DSN())
	poolCancel()
	if err != nil {
		return fmt.Errorf("open database pool: %w", err)
	}
	defer pool.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	err = pool.Ping(pingCtx)
	pingCancel()
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	healthMgr.Register(health.NewDatabaseChecker("task-database", func(ctx context.Context) error {
		return pool.Ping(ctx)
	}))

	encryptionKey := cfg.Secrets.EncryptionKeyBase64
	if encryptionKey == "" {
		logger.Warn("LAKEKEEPER_SECRETS_ENCRYPTION_KEY not set, generating an ephemeral key; this worker will not be able to decrypt credentials written by another process")
		encryptionKey, err = crypto.GenerateKeyBase64()
		if err != nil {
			return fmt.Errorf("generate ephemeral encryption key: %w", err)
		}
	}
	encryptor, err := crypto.NewEncryptorFromString(encryptionKey)
	if err != nil {
		return fmt.Errorf("create secret encryptor: %w", err)
	}
	postgresSecrets := secretsstore.NewPostgresStore(pool, encryptor, logger)

	var vaultSecrets *secretsstore.VaultStore
	if cfg.Vault.Enabled {
		vaultClient, err := vault.NewClient(vaultCfg, logger)
		if err != nil {
			logger.Warn("failed to create vault client for storage secrets, kv2 credential backend unavailable", "error", err)
		} else if err := vaultClient.Authenticate(ctx); err != nil {
			logger.Warn("failed to authenticate vault client for storage secrets, kv2 credential backend unavailable", "error", err)
		} else {
			vaultSecrets = secretsstore.NewVaultStore(vaultClient, logger)
		}
	}
	secretsResolver := secretsstore.NewResolver(postgresSecrets, vaultSecrets, logger)

	catalogStore := store.NewPostgresStore(pool, logger)
	broker := storagebroker.NewBroker(secretsResolver, logger)
	queue := taskqueue.NewQueue(pool, taskqueue.DefaultConfig(), logger)

	worker := taskqueue.NewWorker(queue, taskqueue.WorkerConfig{
		PollInterval: cfg.CDC.FlushInterval,
	}, logger)
	worker.RegisterHandler(taskqueue.QueueTabularExpiration, taskqueue.NewExpirationHandler(catalogStore))
	worker.RegisterHandler(taskqueue.QueueTabularPurge, taskqueue.NewPurgeHandler(catalogStore, broker))

	cronScheduler := taskqueue.NewCronScheduler(queue, time.Minute, logger)

	healthMgr.Register(health.NewComponentChecker("task-worker", func(ctx context.Context) (health.Status, string, error) {
		return health.StatusHealthy, "task worker is running", nil
	}))

	logger.Info("task worker configured",
		"poll_interval", cfg.CDC.FlushInterval,
		"health_enabled", cfg.CDC.Health.Enabled,
	)

	go cronScheduler.Run(ctx)
	worker.Run(ctx)

	logger.Info("task worker stopped gracefully")
	return nil
}
