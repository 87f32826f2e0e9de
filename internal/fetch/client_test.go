// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGet_StreamsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "archive bytes")
	}))
	defer srv.Close()

	client := NewClient()
	body, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = body.Close() }()

	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(got) != "archive bytes" {
		t.Errorf("got body %q, want %q", got, "archive bytes")
	}
}

func TestGet_RejectsNonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient()
	_, err := client.Get(context.Background(), srv.URL+"/missing.tar.gz")
	if err == nil {
		t.Fatal("expected error for 404 response, got nil")
	}
	if !strings.Contains(err.Error(), "unexpected status 404") {
		t.Errorf("error %q should mention the status code", err)
	}
}

func TestGet_SendsUserAgent(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewClient(WithUserAgent("wpstack/1.2.3"))
	body, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = body.Close()

	if gotUA != "wpstack/1.2.3" {
		t.Errorf("got User-Agent %q, want %q", gotUA, "wpstack/1.2.3")
	}
}

func TestDownloadToTemp_WritesBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "tarball contents")
	}))
	defer srv.Close()

	dir := t.TempDir()
	client := NewClient()
	path, err := client.DownloadToTemp(context.Background(), srv.URL, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = os.Remove(path) }()

	if filepath.Dir(path) != dir {
		t.Errorf("temp file %s should live in %s", path, dir)
	}
	if !strings.HasPrefix(filepath.Base(path), "wpstack-download-") {
		t.Errorf("temp file %s should carry the wpstack-download- prefix", path)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading temp file: %v", err)
	}
	if string(got) != "tarball contents" {
		t.Errorf("got file contents %q, want %q", got, "tarball contents")
	}
}

func TestDownloadToTemp_RejectsOversizedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	dir := t.TempDir()
	client := NewClient(WithMaxBytes(16))
	_, err := client.DownloadToTemp(context.Background(), srv.URL, dir)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	// The partially written temp file must not be left behind.
	leftovers, globErr := filepath.Glob(filepath.Join(dir, "wpstack-download-*"))
	if globErr != nil {
		t.Fatalf("globbing temp dir: %v", globErr)
	}
	if len(leftovers) != 0 {
		t.Errorf("expected no leftover temp files, found %v", leftovers)
	}
}

func TestDownloadToTemp_CancelledContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient()
	_, err := client.DownloadToTemp(ctx, srv.URL, t.TempDir())
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}

func TestDownloadToTemp_ErrorRedactsQuery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient()
	_, err := client.DownloadToTemp(context.Background(), srv.URL+"/file.tar.gz?token=secret123", t.TempDir())
	if err == nil {
		t.Fatal("expected error for 403 response, got nil")
	}
	if strings.Contains(err.Error(), "secret123") {
		t.Errorf("error %q leaks the query string", err)
	}
	if !strings.Contains(err.Error(), "/file.tar.gz") {
		t.Errorf("error %q should keep the redacted path", err)
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "strips query", in: "https://example.com/a.tar.gz?token=abc", want: "https://example.com/a.tar.gz"},
		{name: "strips fragment", in: "https://example.com/a.tar.gz#frag", want: "https://example.com/a.tar.gz"},
		{name: "plain url unchanged", in: "https://example.com/a.tar.gz", want: "https://example.com/a.tar.gz"},
		{name: "invalid url", in: "ht tp://bad url", want: "<invalid-url>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := redactURL(tt.in); got != tt.want {
				t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
