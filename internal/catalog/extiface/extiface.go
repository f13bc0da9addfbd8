// Package extiface declares the Go-level interfaces for external
// collaborators this module depends on but does not ship a concrete
// implementation of: the identity-provider bearer-token verifier, the
// storage-URI parser, and the schema-migration runner. Each is a narrow
// interface a real deployment wires a concrete adapter to; this package
// exists so the rest of the module can depend on the shape without
// depending on any one implementation. The Iceberg REST router itself
// is implemented directly, in internal/api/catalog — it is not one of
// these seams.
package extiface

import (
	"context"
)

// Principal is what a verified bearer token resolves to.
type Principal struct {
	Subject   string
	IsService bool
	Issuer    string
}

// TokenVerifier validates an OIDC/OAuth2 bearer token against the
// configured openid-provider-uri (and any openid-additional-issuers),
// per spec.md §6's configuration surface. No concrete implementation
// ships in this module; wiring one (e.g. coreos/go-oidc token
// verification) is a deployment concern.
type TokenVerifier interface {
	Verify(ctx context.Context, bearerToken string) (Principal, error)
}

// StorageURIParser resolves a warehouse-relative object key or a fully
// qualified cloud URI (s3://, abfss://, gs://) into the bucket/container
// and key components the Storage Access Broker signs against.
type StorageURIParser interface {
	Parse(uri string) (bucket, key string, err error)
}

// MigrationRunner applies the relational store's schema migrations at
// startup. Deployment-specific (golang-migrate, goose, or a bespoke
// runner); the module only depends on its having been run before the
// Catalog Store is constructed.
type MigrationRunner interface {
	Migrate(ctx context.Context) error
}
