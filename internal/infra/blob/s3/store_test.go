package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"quiltcore/internal/blob/core"
)

func TestMockStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if store.Driver() != core.DriverS3 {
		t.Fatalf("expected s3 driver, got %s", store.Driver())
	}

	payload := []byte(`{"size":4,"units":[]}`)
	info, err := store.Put(ctx, "exports/job-1/block.json", bytes.NewReader(payload), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), info.Size)
	}
	if info.ETag == "" {
		t.Fatalf("expected etag from head")
	}

	if _, err := store.Put(ctx, "exports/job-1/block.json", bytes.NewReader(payload), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate put rejected")
	}

	got, rc, err := store.Get(ctx, "exports/job-1/block.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(data, payload) {
		t.Fatalf("payload mismatch: %s", data)
	}
	if got.ContentType != "application/json" {
		t.Fatalf("expected content type, got %q", got.ContentType)
	}

	if _, err := store.Head(ctx, "missing"); err == nil {
		t.Fatalf("expected head miss")
	}
}

func TestMockStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	for _, key := range []string{"exports/b.json", "exports/a.json", "renders/c.png"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "exports/a.json" || infos[1].Key != "exports/b.json" {
		t.Fatalf("expected sorted filtered list, got %+v", infos)
	}

	ok, err := store.Delete(ctx, "exports/a.json")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if _, _, err := store.Get(ctx, "exports/a.json"); err == nil {
		t.Fatalf("expected get miss after delete")
	}
}

func TestMockStorePresign(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	u, err := store.PresignURL(ctx, "exports/a.json", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if u == "" {
		t.Fatalf("expected presigned URL")
	}
	if _, err := store.PresignURL(ctx, "exports/a.json", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported for PUT, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket required error")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("QUILTCORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected bucket required error")
	}
}

func TestDecodeAWSChunked(t *testing.T) {
	body, ok := decodeAWSChunked([]byte("5\r\nhello\r\n0\r\n\r\n"))
	if !ok || string(body) != "hello" {
		t.Fatalf("expected decoded chunk, got %q ok=%v", body, ok)
	}
	if _, ok := decodeAWSChunked([]byte("plain body")); ok {
		t.Fatalf("expected plain body to pass through undecoded")
	}
}
