package mirror

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSigningKey(t *testing.T) {
	// Worked example from the SigV4 documentation.
	got := hex.EncodeToString(signingKey("wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", "20120215", "us-east-1", "iam"))
	if got != "f4780e2d9f65fa895f9c67b32ce1baf0b0d8a43505a000a1a9e090d414db404d" {
		t.Fatalf("signing key: %s", got)
	}
}

func TestClientPutFile(t *testing.T) {
	var (
		gotPath, gotAuth, gotDate string
		gotBody                   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotDate = r.Header.Get("x-amz-date")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{Endpoint: srv.URL, Bucket: "puzzles", AccessKey: "AK", SecretKey: "SK"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	local := filepath.Join(t.TempDir(), "a b.snap.zst")
	if err := os.WriteFile(local, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.PutFile(context.Background(), "/archives/solved/s1/a b.snap.zst", local); err != nil {
		t.Fatalf("PutFile: %v", err)
	}
	if gotPath != "/puzzles/archives/solved/s1/a%20b.snap.zst" {
		t.Fatalf("path: %s", gotPath)
	}
	if string(gotBody) != "payload" {
		t.Fatalf("body: %q", gotBody)
	}
	if gotDate != "20240301T120000Z" {
		t.Fatalf("x-amz-date: %s", gotDate)
	}
	if !strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=AK/20240301/auto/s3/aws4_request, SignedHeaders=host;x-amz-content-sha256;x-amz-date, Signature=") {
		t.Fatalf("auth: %s", gotAuth)
	}
}

func TestClientPutFile_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()
	c, _ := NewClient(ClientConfig{Endpoint: srv.URL, Bucket: "b", AccessKey: "a", SecretKey: "s"})
	local := filepath.Join(t.TempDir(), "f")
	_ = os.WriteFile(local, []byte("x"), 0o644)
	err := c.PutFile(context.Background(), "f", local)
	if err == nil || !strings.Contains(err.Error(), "status=403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(ClientConfig{Endpoint: "r2.example.com", Bucket: "b"}); err == nil {
		t.Fatalf("expected missing credentials error")
	}
	c, err := NewClient(ClientConfig{Endpoint: "r2.example.com", Bucket: "b", AccessKey: "a", SecretKey: "s"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.endpoint != "https://r2.example.com" || c.region != "auto" {
		t.Fatalf("defaults: %s %s", c.endpoint, c.region)
	}
}

type fakeUploader struct {
	mu    sync.Mutex
	keys  []string
	fails int
}

func (f *fakeUploader) PutFile(_ context.Context, key, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("flaky")
	}
	f.keys = append(f.keys, key)
	return nil
}

func TestMirror_KeysRetriesAndStats(t *testing.T) {
	dir := t.TempDir()
	up := &fakeUploader{fails: 1}
	m := New(up, dir, "/prod/", 1, nil)
	m.backoff = time.Millisecond

	m.Enqueue(filepath.Join(dir, "archives", "solved", "s1", "1.snap.zst"), filepath.Join(dir, "..", "escape"))
	m.Close()

	if len(up.keys) != 1 || up.keys[0] != "prod/archives/solved/s1/1.snap.zst" {
		t.Fatalf("keys: %v", up.keys)
	}
	st := m.Stats()
	if st.UploadedTotal != 1 || st.FailedTotal != 1 || st.DroppedTotal != 0 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestMirror_NilIsNoop(t *testing.T) {
	var m *Mirror
	m.Enqueue("x")
	m.Close()
	if m.Stats() != (Stats{}) {
		t.Fatalf("nil stats")
	}
}
