// Package secretsstore implements the pluggable secret store behind
// model.StorageCredentialRef: a "postgres" backend (ciphertext in the
// catalog database, encrypted with internal/crypto) and a "kv2" backend
// (HashiCorp Vault KV v2, via internal/vault.Client), selected per
// credential by StorageCredentialRef.SecretBackend. Both satisfy
// storagebroker.SecretResolver, so a Broker never knows which one backs
// a given warehouse.
package secretsstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
	"github.com/lakekeeper/lakekeeper/internal/crypto"
	"github.com/lakekeeper/lakekeeper/internal/vault"
)

const (
	accessKeyField = "access_key_id"
	secretKeyField = "secret_access_key"
)

// Resolver dispatches a StorageCredentialRef to whichever backend its
// SecretBackend field names, so storagebroker.Broker can be handed one
// resolver regardless of how individual warehouses are configured.
type Resolver struct {
	postgres *PostgresStore
	vault    *VaultStore
	logger   *slog.Logger
}

// NewResolver wires a Resolver. Either backend may be nil if that
// credential backend is not configured; resolving a ref whose
// SecretBackend names an unwired backend fails with InternalCatalogError.
func NewResolver(postgres *PostgresStore, vaultStore *VaultStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{postgres: postgres, vault: vaultStore, logger: logger.With("component", "secrets-resolver")}
}

// ResolveCredential satisfies storagebroker.SecretResolver.
func (r *Resolver) ResolveCredential(ctx context.Context, ref model.StorageCredentialRef) (accessKey, secretKey string, err error) {
	switch ref.SecretBackend {
	case "postgres":
		if r.postgres == nil {
			return "", "", catalogerr.InternalCatalogError(fmt.Errorf("postgres secret backend not configured"))
		}
		return r.postgres.ResolveCredential(ctx, ref)
	case "kv2":
		if r.vault == nil {
			return "", "", catalogerr.InternalCatalogError(fmt.Errorf("kv2 secret backend not configured"))
		}
		return r.vault.ResolveCredential(ctx, ref)
	default:
		return "", "", catalogerr.InternalCatalogError(fmt.Errorf("unknown secret backend %q", ref.SecretBackend))
	}
}

// PostgresStore keeps storage credentials as AES-256-GCM ciphertext in
// the catalog database, encrypted with a server-wide key (the
// pg-encryption-key config option), mirroring the teacher's
// internal/crypto usage for at-rest secrets.
type PostgresStore struct {
	pool      *pgxpool.Pool
	encryptor *crypto.Encryptor
	logger    *slog.Logger
}

// NewPostgresStore wires a PostgresStore over an already-connected pool.
func NewPostgresStore(pool *pgxpool.Pool, encryptor *crypto.Encryptor, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, encryptor: encryptor, logger: logger.With("component", "secrets-postgres")}
}

// Put encrypts and upserts a credential at path.
func (s *PostgresStore) Put(ctx context.Context, path, accessKey, secretKey string) error {
	plaintext := accessKey + "\x00" + secretKey
	ciphertext, err := s.encryptor.EncryptToBytes(plaintext)
	if err != nil {
		return catalogerr.InternalCatalogError(fmt.Errorf("encrypt credential: %w", err))
	}
	const q = `
		INSERT INTO lakekeeper.storage_secret (secret_path, ciphertext)
		VALUES ($1, $2)
		ON CONFLICT (secret_path) DO UPDATE SET ciphertext = EXCLUDED.ciphertext`
	if _, err := s.pool.Exec(ctx, q, path, ciphertext); err != nil {
		return catalogerr.InternalCatalogError(fmt.Errorf("store credential: %w", err))
	}
	return nil
}

// ResolveCredential decrypts the credential stored at ref.SecretPath.
func (s *PostgresStore) ResolveCredential(ctx context.Context, ref model.StorageCredentialRef) (accessKey, secretKey string, err error) {
	const q = `SELECT ciphertext FROM lakekeeper.storage_secret WHERE secret_path = $1`
	var ciphertext []byte
	if err := s.pool.QueryRow(ctx, q, ref.SecretPath).Scan(&ciphertext); err != nil {
		return "", "", catalogerr.NotFound("no stored credential at path %q", ref.SecretPath)
	}
	plaintext, err := s.encryptor.DecryptFromBytes(ciphertext)
	if err != nil {
		return "", "", catalogerr.InternalCatalogError(fmt.Errorf("decrypt credential: %w", err))
	}
	for i := range plaintext {
		if plaintext[i] == '\x00' {
			return plaintext[:i], plaintext[i+1:], nil
		}
	}
	return "", "", catalogerr.InternalCatalogError(fmt.Errorf("malformed credential plaintext at %q", ref.SecretPath))
}

// VaultStore resolves storage credentials from a Vault KV v2 mount,
// reusing the teacher's internal/vault.Client rather than a bespoke
// Vault SDK wrapper.
type VaultStore struct {
	client *vault.Client
	logger *slog.Logger
}

// NewVaultStore wires a VaultStore over an authenticated vault.Client.
func NewVaultStore(client *vault.Client, logger *slog.Logger) *VaultStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &VaultStore{client: client, logger: logger.With("component", "secrets-vault")}
}

// ResolveCredential fetches access_key_id/secret_access_key from the
// KV v2 secret at ref.SecretPath.
func (s *VaultStore) ResolveCredential(ctx context.Context, ref model.StorageCredentialRef) (accessKey, secretKey string, err error) {
	accessKey, err = s.client.GetSecretString(ctx, ref.SecretPath, accessKeyField)
	if err != nil {
		return "", "", catalogerr.NotFound("resolve access key at %q: %v", ref.SecretPath, err)
	}
	secretKey, err = s.client.GetSecretString(ctx, ref.SecretPath, secretKeyField)
	if err != nil {
		return "", "", catalogerr.NotFound("resolve secret key at %q: %v", ref.SecretPath, err)
	}
	return accessKey, secretKey, nil
}
