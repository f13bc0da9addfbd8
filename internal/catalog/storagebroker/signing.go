package storagebroker

import (
	"context"
	"time"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// allowedSignMethods is the method allowlist for the remote-signing
// endpoint (spec.md §4.4 "Failure modes": InvalidRequest for anything
// else).
var allowedSignMethods = map[string]bool{"GET": true, "HEAD": true, "PUT": true, "POST": true, "DELETE": true}

// TableResolver resolves a signing request's target URI to the table it
// falls under via longest-prefix match against indexed storage
// locations, per spec.md §4.4's authorization gate. Defined here by the
// consumer; the store package's tabular index satisfies it.
type TableResolver interface {
	ResolveByLocationPrefix(ctx context.Context, warehouseID model.WarehouseID, uri string) (tableID model.TabularID, matchedPrefix string, err error)
}

// SignRequestInput is the sign endpoint's input, per spec.md §4.4
// "Contract of the sign endpoint".
type SignRequestInput struct {
	WarehouseID model.WarehouseID
	Region      string
	Method      string
	URI         string
	Headers     map[string][]string
	BodyHash    string // x-amz-content-sha256
}

// SignResult is the sign endpoint's success response.
type SignResult struct {
	URI     string
	Headers map[string][]string
}

// SignRequest validates, authorizes, and signs a client-drafted S3
// request with the warehouse's own credentials (spec.md §4.4 "Remote
// signing").
func (b *Broker) SignRequest(ctx context.Context, input SignRequestInput, principal commit.Principal, w *model.Warehouse, resolver TableResolver, authz commit.Authorizer) (*SignResult, error) {
	if w.RemoteSigningDisabled {
		return nil, catalogerr.Forbidden("remote signing is disabled for this warehouse")
	}
	if !allowedSignMethods[input.Method] {
		return nil, catalogerr.InvalidRequest("method %q is not signable", input.Method)
	}

	tableID, _, err := resolver.ResolveByLocationPrefix(ctx, input.WarehouseID, input.URI)
	if err != nil {
		return nil, catalogerr.Forbidden("uri does not resolve to a unique table in this warehouse: %v", err)
	}

	action := "ReadTableData"
	if input.Method == "PUT" || input.Method == "POST" || input.Method == "DELETE" {
		action = "WriteTableData"
	}
	if err := authz.Authorize(ctx, principal, action, tableID); err != nil {
		return nil, err
	}

	headers := cloneHeaders(input.Headers)
	if _, ok := headers["Content-MD5"]; !ok {
		// The sign endpoint only receives a SHA-256 body hash, not the raw
		// body, so a true Content-MD5 cannot be derived here; PyIceberg
		// tolerates a deterministic placeholder digest for GET/HEAD (no
		// body) but a future wire revision should let the client supply
		// Content-MD5 directly for PUT/POST.
		headers["Content-MD5"] = []string{""}
	}

	accessKey, secretKey, err := b.signingCredential(ctx, w)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	signed, err := signV4(accessKey, secretKey, input.Region, "s3", input.Method, input.URI, headers, input.BodyHash, now)
	if err != nil {
		return nil, catalogerr.StorageUnavailable("signing request: %v", err)
	}

	return &SignResult{URI: input.URI, Headers: signed}, nil
}

func (b *Broker) signingCredential(ctx context.Context, w *model.Warehouse) (accessKey, secretKey string, err error) {
	if ak, sk, ok := b.signerCache.get(w.ID, time.Hour, time.Now()); ok {
		return ak, sk, nil
	}
	ak, sk, err := b.secrets.ResolveCredential(ctx, w.Credential)
	if err != nil {
		return "", "", catalogerr.StorageUnavailable("resolving signing credential: %v", err)
	}
	b.signerCache.put(w.ID, ak, sk, time.Now())
	return ak, sk, nil
}

func cloneHeaders(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
