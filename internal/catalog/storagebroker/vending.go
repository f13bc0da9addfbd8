package storagebroker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// VendedCredentials is the short-term, prefix-scoped credential returned
// to a client in loadTable's `config` object, under the Iceberg standard
// keys (spec.md §4.4 "Vended credentials").
type VendedCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
}

// Keys renders the Iceberg standard credential keys for the loadTable
// response's `config` object.
func (v VendedCredentials) Keys() map[string]string {
	return map[string]string{
		"s3.access-key-id":     v.AccessKeyID,
		"s3.secret-access-key": v.SecretAccessKey,
		"s3.session-token":     v.SessionToken,
	}
}

// VendCredentials mints (or returns a cached) short-term credential
// scoped to the table's storage prefix, per spec.md §4.4. scope is
// "read" or "write".
func (b *Broker) VendCredentials(ctx context.Context, w *model.Warehouse, tableID model.TabularID, prefix string, principal commit.Principal, scope string) (VendedCredentials, error) {
	if w.VendedCredentialsDisabled {
		return VendedCredentials{}, catalogerr.Forbidden("vended credentials are disabled for this warehouse")
	}

	key := credentialKey{warehouseID: w.ID, principalID: principal.ID, prefix: prefix, scope: scope}
	if cached, ok := b.credCache.get(key, time.Now()); ok {
		return cached, nil
	}

	v, err, _ := b.sfGroup.Do(fmt.Sprintf("%s|%s|%s|%s", w.ID, principal.ID, prefix, scope), func() (interface{}, error) {
		if cached, ok := b.credCache.get(key, time.Now()); ok {
			return cached, nil
		}
		creds, expiresAt, err := b.mintCredential(ctx, w, prefix, principal, scope)
		if err != nil {
			return VendedCredentials{}, err
		}
		b.credCache.put(key, creds, expiresAt)
		return creds, nil
	})
	if err != nil {
		return VendedCredentials{}, err
	}
	return v.(VendedCredentials), nil
}

func (b *Broker) mintCredential(ctx context.Context, w *model.Warehouse, prefix string, principal commit.Principal, scope string) (VendedCredentials, time.Time, error) {
	accessKey, secretKey, err := b.secrets.ResolveCredential(ctx, w.Credential)
	if err != nil {
		return VendedCredentials{}, time.Time{}, catalogerr.StorageUnavailable("resolving warehouse credential: %v", err)
	}

	policy, err := scopedPolicy(w.Storage.Bucket, prefix, scope)
	if err != nil {
		return VendedCredentials{}, time.Time{}, catalogerr.InternalCatalogError(err)
	}

	sts, err := credentials.NewSTSAssumeRole(w.Storage.Endpoint, credentials.STSAssumeRoleOptions{
		AccessKey:       accessKey,
		SecretKey:       secretKey,
		Policy:          policy,
		DurationSeconds: int(b.CredentialTTL),
		RoleSessionName: principal.ID,
	})
	if err != nil {
		return VendedCredentials{}, time.Time{}, catalogerr.StorageUnavailable("constructing STS provider: %v", err)
	}

	val, err := sts.Get()
	if err != nil {
		return VendedCredentials{}, time.Time{}, catalogerr.StorageUnavailable("assuming role: %v", err)
	}

	expiresAt := time.Now().Add(time.Duration(b.CredentialTTL) * time.Second)
	return VendedCredentials{
		AccessKeyID:     val.AccessKeyID,
		SecretAccessKey: val.SecretAccessKey,
		SessionToken:    val.SessionToken,
	}, expiresAt, nil
}

// scopedPolicy renders a minimal IAM policy document scoping S3 access
// to the given bucket/prefix for the requested scope.
func scopedPolicy(bucket, prefix, scope string) (string, error) {
	actions := []string{"s3:GetObject"}
	if scope == "write" {
		actions = []string{"s3:GetObject", "s3:PutObject", "s3:DeleteObject"}
	}
	doc := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{
			{
				"Effect":   "Allow",
				"Action":   actions,
				"Resource": fmt.Sprintf("arn:aws:s3:::%s/%s*", bucket, prefix),
			},
		},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
