package storagebroker

import "testing"

func TestParseObjectURI_SplitsBucketAndKey(t *testing.T) {
	bucket, key, err := parseObjectURI("s3://mybucket/warehouse/ns/table/metadata/00001-abc.metadata.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket != "mybucket" {
		t.Errorf("expected bucket %q, got %q", "mybucket", bucket)
	}
	if key != "warehouse/ns/table/metadata/00001-abc.metadata.json" {
		t.Errorf("unexpected key: %q", key)
	}
}

func TestParseObjectURI_RejectsMissingScheme(t *testing.T) {
	if _, _, err := parseObjectURI("mybucket/key"); err == nil {
		t.Errorf("expected an error for a uri without the s3:// scheme")
	}
}

func TestParseObjectURI_RejectsMissingKey(t *testing.T) {
	if _, _, err := parseObjectURI("s3://mybucket"); err == nil {
		t.Errorf("expected an error for a uri with no key component")
	}
}
