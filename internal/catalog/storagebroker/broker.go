// Package storagebroker implements the Storage Access Broker (C4): the
// privileged server-side read/write path for metadata files, short-term
// vended credentials, and remote S3 request signing.
package storagebroker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/singleflight"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// SecretResolver decrypts and returns a warehouse's storage credential.
// Defined here by the consumer since the concrete secrets-store backend
// (postgres/kv2/vault) lives in a separate package.
type SecretResolver interface {
	ResolveCredential(ctx context.Context, ref model.StorageCredentialRef) (accessKey, secretKey string, err error)
}

// Broker is the C4 public contract: it satisfies commit.MetadataWriter
// for the engine's privileged metadata-file access, and additionally
// exposes VendCredentials and SignRequest for the client-facing
// data-plane access endpoints.
type Broker struct {
	secrets SecretResolver
	logger  *slog.Logger

	clientCache *clientCache
	credCache   *credentialCache
	signerCache *signerCache

	sfGroup singleflight.Group

	// CredentialTTL is how long a vended credential is minted for.
	CredentialTTL int64 // seconds
}

// NewBroker wires the broker's collaborators.
func NewBroker(secrets SecretResolver, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		secrets:       secrets,
		logger:        logger.With("component", "storage-broker"),
		clientCache:   newClientCache(),
		credCache:     newCredentialCache(),
		signerCache:   newSignerCache(),
		CredentialTTL: 3600,
	}
}

// minioClientFor returns (creating and caching if needed) a minio client
// authenticated with the warehouse's own long-lived credential — used
// for the broker's own metadata-file reads/writes, never handed to a
// client directly.
func (b *Broker) minioClientFor(ctx context.Context, w *model.Warehouse) (*minio.Client, error) {
	if c, ok := b.clientCache.get(w.ID, w.Version); ok {
		return c, nil
	}
	accessKey, secretKey, err := b.secrets.ResolveCredential(ctx, w.Credential)
	if err != nil {
		return nil, catalogerr.StorageUnavailable("resolving warehouse credential: %v", err)
	}
	client, err := minio.New(w.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: w.Storage.Endpoint != "" && !strings.HasPrefix(w.Storage.Endpoint, "http://"),
		Region: w.Storage.Region,
	})
	if err != nil {
		return nil, catalogerr.StorageUnavailable("constructing storage client: %v", err)
	}
	b.clientCache.put(w.ID, w.Version, client)
	return client, nil
}

// WriteMetadata satisfies commit.MetadataWriter: it uploads the encoded
// metadata document to the URI the commit engine computed.
func (b *Broker) WriteMetadata(ctx context.Context, w *model.Warehouse, uri string, body []byte) error {
	client, err := b.minioClientFor(ctx, w)
	if err != nil {
		return err
	}
	bucket, key, err := parseObjectURI(uri)
	if err != nil {
		return catalogerr.InvalidRequest("malformed metadata uri %q: %v", uri, err)
	}
	_, err = client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return catalogerr.StorageUnavailable("writing metadata file %s: %v", uri, err)
	}
	return nil
}

// ReadMetadata satisfies commit.MetadataWriter's read half, used by
// registerTable to validate a client-supplied metadata file.
func (b *Broker) ReadMetadata(ctx context.Context, w *model.Warehouse, uri string) ([]byte, error) {
	client, err := b.minioClientFor(ctx, w)
	if err != nil {
		return nil, err
	}
	bucket, key, err := parseObjectURI(uri)
	if err != nil {
		return nil, catalogerr.InvalidRequest("malformed metadata uri %q: %v", uri, err)
	}
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, catalogerr.StorageUnavailable("reading metadata file %s: %v", uri, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, catalogerr.StorageUnavailable("reading metadata file %s: %v", uri, err)
	}
	return data, nil
}

// parseObjectURI splits an "s3://bucket/key/path" location into its
// bucket and key components.
func parseObjectURI(uri string) (bucket, key string, err error) {
	const prefix = "s3://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", fmt.Errorf("uri %q does not have scheme %q", uri, prefix)
	}
	rest := uri[len(prefix):]
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("uri %q is missing a bucket or key", uri)
	}
	return parts[0], parts[1], nil
}

// PurgePrefix removes every object under location from the warehouse's
// storage, for the tabular_purge task (spec.md §4.5) that follows a
// dropTable with purgeRequested=true.
func (b *Broker) PurgePrefix(ctx context.Context, w *model.Warehouse, location string) error {
	client, err := b.minioClientFor(ctx, w)
	if err != nil {
		return err
	}
	bucket, prefix, err := parseObjectURI(location)
	if err != nil {
		return catalogerr.InvalidRequest("malformed purge location %q: %v", location, err)
	}

	objectsCh := client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	removeCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(removeCh)
		for obj := range objectsCh {
			if obj.Err != nil {
				continue
			}
			select {
			case removeCh <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	for result := range client.RemoveObjects(ctx, bucket, removeCh, minio.RemoveObjectsOptions{}) {
		if result.Err != nil {
			return catalogerr.StorageUnavailable("purging %s/%s: %v", bucket, result.ObjectName, result.Err)
		}
	}
	return nil
}

var _ commit.MetadataWriter = (*Broker)(nil)
