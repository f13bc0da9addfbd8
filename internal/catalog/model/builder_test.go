package model

import "testing"

func baseMetadata() TableMetadata {
	schema := Schema{SchemaID: 0, Fields: []Field{{ID: 1, Name: "id", Type: TypeInt, Required: true}}}
	spec := PartitionSpec{SpecID: 0}
	sortOrder := SortOrder{SortID: 0}
	return *NewTableMetadata("s3://bucket/wh/tbl", 2, schema, spec, sortOrder)
}

func TestBuilder_AddSchema_ReassignsCollidingID(t *testing.T) {
	meta := baseMetadata()
	b := NewTableMetadataBuilder(meta, 1000)

	newSchema := Schema{SchemaID: 0, Fields: []Field{{ID: 1, Name: "id", Type: TypeInt, Required: true}, {ID: 2, Name: "name", Type: TypeString}}}
	out, err := b.Apply([]Update{AddSchema{Schema: newSchema}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Schemas) != 2 {
		t.Fatalf("expected 2 schemas, got %d", len(out.Schemas))
	}
	if out.Schemas[1].SchemaID == out.Schemas[0].SchemaID {
		t.Fatalf("expected schema id to be reassigned away from collision, got %d", out.Schemas[1].SchemaID)
	}
	if out.LastColumnID != 2 {
		t.Fatalf("expected last-column-id 2, got %d", out.LastColumnID)
	}
}

func TestBuilder_SetCurrentSchema_LatestSentinel(t *testing.T) {
	meta := baseMetadata()
	b := NewTableMetadataBuilder(meta, 1000)

	newSchema := Schema{SchemaID: 5, Fields: []Field{{ID: 1, Name: "id", Type: TypeInt}}}
	out, err := b.Apply([]Update{
		AddSchema{Schema: newSchema},
		SetCurrentSchema{SchemaID: -1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.CurrentSchemaID != out.Schemas[len(out.Schemas)-1].SchemaID {
		t.Fatalf("expected current schema to be the last added one")
	}
}

func TestBuilder_SetCurrentSchema_UnknownRejected(t *testing.T) {
	meta := baseMetadata()
	b := NewTableMetadataBuilder(meta, 1000)

	_, err := b.Apply([]Update{SetCurrentSchema{SchemaID: 99}})
	if err == nil {
		t.Fatal("expected error for unknown schema id")
	}
}

func TestBuilder_AddSnapshot_SequenceNumberNeverDecreases(t *testing.T) {
	meta := baseMetadata()
	meta.LastSequenceNumber = 10
	b := NewTableMetadataBuilder(meta, 1000)

	snap := Snapshot{SnapshotID: 1, SequenceNumber: 1, ManifestList: "s3://x/manifest1.avro", TimestampMs: 1, SchemaID: 0}
	out, err := b.Apply([]Update{AddSnapshot{Snapshot: snap}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.LastSequenceNumber <= 10 {
		t.Fatalf("expected last-sequence-number to strictly increase, got %d", out.LastSequenceNumber)
	}
}

func TestBuilder_AddSnapshot_RejectsUnknownSchema(t *testing.T) {
	meta := baseMetadata()
	b := NewTableMetadataBuilder(meta, 1000)

	snap := Snapshot{SnapshotID: 1, SequenceNumber: 1, ManifestList: "s3://x/manifest1.avro", TimestampMs: 1, SchemaID: 42}
	_, err := b.Apply([]Update{AddSnapshot{Snapshot: snap}})
	if err == nil {
		t.Fatal("expected error for snapshot referencing unknown schema")
	}
}

func TestBuilder_AddSnapshot_RewritesDuplicateTimestamp(t *testing.T) {
	meta := baseMetadata()
	b := NewTableMetadataBuilder(meta, 1000)

	snap1 := Snapshot{SnapshotID: 1, SequenceNumber: 1, ManifestList: "s3://x/m1.avro", TimestampMs: 5000, SchemaID: 0}
	snap2 := Snapshot{SnapshotID: 2, SequenceNumber: 2, ManifestList: "s3://x/m2.avro", TimestampMs: 5000, SchemaID: 0}
	out, err := b.Apply([]Update{AddSnapshot{Snapshot: snap1}, AddSnapshot{Snapshot: snap2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Snapshots[0].TimestampMs == out.Snapshots[1].TimestampMs {
		t.Fatalf("expected distinct timestamps after reuse, got %d == %d", out.Snapshots[0].TimestampMs, out.Snapshots[1].TimestampMs)
	}
}

func TestBuilder_SetSnapshotRef_RejectsNonexistentSnapshot(t *testing.T) {
	meta := baseMetadata()
	b := NewTableMetadataBuilder(meta, 1000)

	_, err := b.Apply([]Update{SetSnapshotRef{Ref: "main", Type: RefBranch, SnapshotID: 999}})
	if err == nil {
		t.Fatal("expected error setting a ref to a non-existent snapshot")
	}
}

func TestBuilder_SetSnapshotRef_MainUpdatesCurrentSnapshot(t *testing.T) {
	meta := baseMetadata()
	b := NewTableMetadataBuilder(meta, 1000)

	snap := Snapshot{SnapshotID: 7, SequenceNumber: 1, ManifestList: "s3://x/m.avro", TimestampMs: 1, SchemaID: 0}
	out, err := b.Apply([]Update{
		AddSnapshot{Snapshot: snap},
		SetSnapshotRef{Ref: "main", Type: RefBranch, SnapshotID: 7},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.CurrentSnapshotID == nil || *out.CurrentSnapshotID != 7 {
		t.Fatalf("expected current snapshot id 7, got %v", out.CurrentSnapshotID)
	}
}

func TestBuilder_SetProperties_RejectsBlacklisted(t *testing.T) {
	meta := baseMetadata()
	b := NewTableMetadataBuilder(meta, 1000)

	_, err := b.Apply([]Update{SetProperties{Properties: map[string]string{"write.metadata.path": "s3://evil"}}})
	if err == nil {
		t.Fatal("expected error setting a blacklisted property")
	}
}

func TestBuilder_UpgradeFormatVersion_RejectsDowngrade(t *testing.T) {
	meta := baseMetadata()
	meta.FormatVersion = 2
	b := NewTableMetadataBuilder(meta, 1000)

	_, err := b.Apply([]Update{UpgradeFormatVersion{FormatVersion: 1}})
	if err == nil {
		t.Fatal("expected error downgrading format version")
	}
}

func TestBuilder_RemoveSnapshots_ClearsCurrentIfRemoved(t *testing.T) {
	meta := baseMetadata()
	b := NewTableMetadataBuilder(meta, 1000)

	snap := Snapshot{SnapshotID: 1, SequenceNumber: 1, ManifestList: "s3://x/m.avro", TimestampMs: 1, SchemaID: 0}
	out, err := b.Apply([]Update{
		AddSnapshot{Snapshot: snap},
		SetSnapshotRef{Ref: "main", Type: RefBranch, SnapshotID: 1},
		RemoveSnapshots{SnapshotIDs: []int64{1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.CurrentSnapshotID != nil {
		t.Fatalf("expected current snapshot to be cleared, got %v", out.CurrentSnapshotID)
	}
	if len(out.Snapshots) != 0 {
		t.Fatalf("expected snapshot removed, got %d remaining", len(out.Snapshots))
	}
}
