package sync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// isolateAWS points the SDK at static credentials and away from any local
// profile or instance metadata.
func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_SESSION_TOKEN", "")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func TestS3Destination_Write(t *testing.T) {
	isolateAWS(t)

	var puts atomic.Int64
	var gotPath, gotMethod atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		puts.Add(1)
		gotMethod.Store(r.Method)
		gotPath.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dest, err := NewS3Destination(context.Background(), S3Options{
		Bucket:   "backups",
		Key:      "standup/entries.jsonl",
		Region:   "us-east-1",
		Endpoint: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewS3Destination: %v", err)
	}

	if err := dest.Write(context.Background(), []byte(`{"type":"header"}`+"\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if puts.Load() != 1 {
		t.Fatalf("requests = %d, want 1", puts.Load())
	}
	if m := gotMethod.Load(); m != http.MethodPut {
		t.Errorf("method = %v, want PUT", m)
	}
	if p := gotPath.Load(); p != "/backups/standup/entries.jsonl" {
		t.Errorf("path = %v, want path-style /backups/standup/entries.jsonl", p)
	}
}

func TestS3Destination_WriteError(t *testing.T) {
	isolateAWS(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `<?xml version="1.0"?><Error><Code>NoSuchBucket</Code><Message>missing</Message></Error>`)
	}))
	defer srv.Close()

	dest, err := NewS3Destination(context.Background(), S3Options{
		Bucket: "missing", Key: "k", Region: "us-east-1", Endpoint: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewS3Destination: %v", err)
	}
	if err := dest.Write(context.Background(), []byte("{}\n")); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
