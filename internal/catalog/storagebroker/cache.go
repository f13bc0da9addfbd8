package storagebroker

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// clientCache holds one minio.Client per warehouse, invalidated whenever
// the warehouse's Version advances (spec.md §5's versioned-cache rule
// applies here too: a cache entry for a lower version is stale).
type clientCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]clientCacheEntry
}

type clientCacheEntry struct {
	version int64
	client  *minio.Client
}

func newClientCache() *clientCache {
	return &clientCache{entries: map[uuid.UUID]clientCacheEntry{}}
}

func (c *clientCache) get(id uuid.UUID, version int64) (*minio.Client, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok || e.version < version {
		return nil, false
	}
	return e.client, true
}

func (c *clientCache) put(id uuid.UUID, version int64, client *minio.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = clientCacheEntry{version: version, client: client}
}

// credentialKey identifies one cached vended credential (spec.md §4.4
// "Caching": keyed by warehouse, principal, table prefix, scope).
type credentialKey struct {
	warehouseID uuid.UUID
	principalID string
	prefix      string
	scope       string
}

type credentialEntry struct {
	creds     VendedCredentials
	expiresAt time.Time
}

// credentialCache holds minted short-term credentials until one minute
// before their expiry, per spec.md §4.4.
type credentialCache struct {
	mu      sync.Mutex
	entries map[credentialKey]credentialEntry
}

func newCredentialCache() *credentialCache {
	return &credentialCache{entries: map[credentialKey]credentialEntry{}}
}

func (c *credentialCache) get(key credentialKey, now time.Time) (VendedCredentials, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !now.Before(e.expiresAt.Add(-time.Minute)) {
		return VendedCredentials{}, false
	}
	return e.creds, true
}

func (c *credentialCache) put(key credentialKey, creds VendedCredentials, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = credentialEntry{creds: creds, expiresAt: expiresAt}
}

// signerEntry is one warehouse's decrypted signing credential, cached
// for the refresh interval the caller passes to get (one hour, as
// signingCredential calls it).
type signerEntry struct {
	accessKey, secretKey string
	cachedAt             time.Time
}

type signerCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]signerEntry
}

func newSignerCache() *signerCache {
	return &signerCache{entries: map[uuid.UUID]signerEntry{}}
}

func (c *signerCache) get(id uuid.UUID, refresh time.Duration, now time.Time) (accessKey, secretKey string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[id]
	if !found || now.Sub(e.cachedAt) > refresh {
		return "", "", false
	}
	return e.accessKey, e.secretKey, true
}

func (c *signerCache) put(id uuid.UUID, accessKey, secretKey string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = signerEntry{accessKey: accessKey, secretKey: secretKey, cachedAt: now}
}
