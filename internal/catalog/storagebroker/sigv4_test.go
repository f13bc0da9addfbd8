package storagebroker

import (
	"strings"
	"testing"
	"time"
)

func TestSignV4_ProducesAuthorizationHeader(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	headers := map[string][]string{"Host": {"bucket.s3.amazonaws.com"}}

	signed, err := signV4("AKIDEXAMPLE", "secret", "us-east-1", "s3", "GET", "/bucket/key", headers, "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	auth, ok := signed["Authorization"]
	if !ok || len(auth) != 1 {
		t.Fatalf("expected an Authorization header, got %v", signed)
	}
	if !strings.HasPrefix(auth[0], "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20260115/us-east-1/s3/aws4_request") {
		t.Errorf("unexpected Authorization header shape: %s", auth[0])
	}
	if signed["x-amz-date"][0] != "20260115T120000Z" {
		t.Errorf("unexpected x-amz-date: %v", signed["x-amz-date"])
	}
}

func TestSignV4_IsDeterministicForSameInput(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	headers := map[string][]string{"Host": {"bucket.s3.amazonaws.com"}}

	a, err := signV4("AKIDEXAMPLE", "secret", "us-east-1", "s3", "GET", "/bucket/key", headers, "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := signV4("AKIDEXAMPLE", "secret", "us-east-1", "s3", "GET", "/bucket/key", headers, "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a["Authorization"][0] != b["Authorization"][0] {
		t.Errorf("expected identical signatures for identical input")
	}
}

func TestSignV4_DifferentMethodsProduceDifferentSignatures(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	headers := map[string][]string{"Host": {"bucket.s3.amazonaws.com"}}

	get, err := signV4("AKIDEXAMPLE", "secret", "us-east-1", "s3", "GET", "/bucket/key", headers, "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	put, err := signV4("AKIDEXAMPLE", "secret", "us-east-1", "s3", "PUT", "/bucket/key", headers, "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if get["Authorization"][0] == put["Authorization"][0] {
		t.Errorf("expected GET and PUT to produce different signatures")
	}
}

func TestScopedPolicy_WriteScopeIncludesPutAndDelete(t *testing.T) {
	policy, err := scopedPolicy("mybucket", "warehouse/ns/table", "write")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(policy, "s3:PutObject") || !strings.Contains(policy, "s3:DeleteObject") {
		t.Errorf("expected write scope to include PutObject and DeleteObject, got %s", policy)
	}
}

func TestScopedPolicy_ReadScopeExcludesWriteActions(t *testing.T) {
	policy, err := scopedPolicy("mybucket", "warehouse/ns/table", "read")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(policy, "s3:PutObject") {
		t.Errorf("expected read scope to exclude PutObject, got %s", policy)
	}
}
