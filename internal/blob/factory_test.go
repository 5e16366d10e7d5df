package blob

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestOpenSelectsDriverFromEnv(t *testing.T) {
	ctx := context.Background()

	t.Setenv("QUILTCORE_BLOB_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", store.Driver())
	}

	t.Setenv("QUILTCORE_BLOB_DRIVER", "fs")
	t.Setenv("QUILTCORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected fs driver, got %s", store.Driver())
	}

	t.Setenv("QUILTCORE_BLOB_DRIVER", "bogus")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected unknown driver error")
	}

	t.Setenv("QUILTCORE_BLOB_DRIVER", "s3")
	t.Setenv("QUILTCORE_BLOB_S3_BUCKET", "")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected s3 bucket required error")
	}
}

func TestFacadeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	payload := []byte(`{"size":4}`)
	info, err := store.Put(ctx, "exports/job-1/design.json", bytes.NewReader(payload), PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), info.Size)
	}
	got, rc, err := store.Get(ctx, "exports/job-1/design.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("expected payload round trip, got %s", data)
	}
	if got.ContentType != "application/json" {
		t.Fatalf("expected content type preserved, got %q", got.ContentType)
	}
}
