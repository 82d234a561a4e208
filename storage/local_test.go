package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}
	ctx := context.Background()

	content := "Zákon č. 187/2021 Z. z. o ochrane hospodárskej súťaže"
	path, err := store.Upload(ctx, "doc-123", "zakon 187.txt", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	reader, err := store.Download(ctx, path)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		t.Fatalf("reading download failed: %v", err)
	}
	if string(data) != content {
		t.Errorf("downloaded content = %q", data)
	}

	if err := store.Delete(ctx, path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Download(ctx, path); err == nil {
		t.Error("download after delete should fail")
	}
}

func TestGenerateStoragePath(t *testing.T) {
	path := generateStoragePath("abc123", "my file/name.pdf")
	if path != "ab/abc123_my_file_name.pdf" {
		t.Errorf("path = %q", path)
	}
}
