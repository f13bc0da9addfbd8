package model

import "time"

// WarehouseStatus is the operational status of a warehouse.
type WarehouseStatus string

const (
	WarehouseActive   WarehouseStatus = "active"
	WarehouseInactive WarehouseStatus = "inactive"
)

// DeleteProfileType selects whether a dropped tabular is immediately
// hard-deleted or parked soft-deleted for a TTL.
type DeleteProfileType string

const (
	DeleteProfileSoft DeleteProfileType = "soft"
	DeleteProfileHard DeleteProfileType = "hard"
)

// DeleteProfile is the warehouse's drop-table policy.
type DeleteProfile struct {
	Type DeleteProfileType
	// TTL is only meaningful when Type is DeleteProfileSoft.
	TTL time.Duration
}

// StorageFlavor is the cloud object-storage family backing a warehouse.
type StorageFlavor string

const (
	StorageS3    StorageFlavor = "s3"
	StorageADLS2 StorageFlavor = "adls2"
	StorageGCS   StorageFlavor = "gcs"
)

// StorageProfile describes where a warehouse's data and metadata live.
// Exactly one flavor applies per warehouse; the other fields are
// meaningless for a different flavor but kept on one struct because the
// store persists it as a single JSON column (sum types have no direct
// relational analog here).
type StorageProfile struct {
	Flavor StorageFlavor

	Bucket    string
	KeyPrefix string
	Region    string

	// Endpoint overrides the default cloud endpoint, for S3-compatible
	// stores (MinIO) or Azure/GCS emulators.
	Endpoint string
	// PathStyle forces path-style addressing for S3-compatible backends
	// that don't support virtual-hosted buckets.
	PathStyle bool
}

// BasePrefix returns the storage key prefix under which this warehouse's
// tables live, used by the storage broker's longest-prefix-match table
// resolution.
func (p StorageProfile) BasePrefix() string {
	if p.KeyPrefix == "" {
		return p.Bucket
	}
	return p.Bucket + "/" + p.KeyPrefix
}

// StorageCredentialRef points into the pluggable secret store (postgres
// or kv2 backend) rather than embedding the secret itself.
type StorageCredentialRef struct {
	SecretBackend string // "postgres" | "kv2"
	SecretPath    string
}

// Warehouse is a top-level container with its own storage profile and
// credentials; a project holds many.
type Warehouse struct {
	ID        WarehouseID
	ProjectID ProjectID

	Name string

	Status WarehouseStatus

	Storage    StorageProfile
	Credential StorageCredentialRef
	Delete     DeleteProfile

	// VendedCredentialsDisabled and RemoteSigningDisabled let an
	// operator turn off either data-plane access mode per warehouse.
	VendedCredentialsDisabled bool
	RemoteSigningDisabled     bool

	Properties map[string]string

	// Version is bumped on every update and used to invalidate the
	// versioned warehouse-metadata cache (§5): a cache entry holding a
	// lower version than the authoritative row is stale.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
