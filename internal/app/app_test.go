package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/uaremad/imgcache/internal/errors"
)

func newTestApp(t *testing.T, extraArgs ...string) *Application {
	t.Helper()
	args := append([]string{"imgcache", "-dir", t.TempDir(), "-log-level", "none"}, extraArgs...)
	a, err := New(args, io.Discard)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return a
}

func TestNewParsesFlags(t *testing.T) {
	a := newTestApp(t, "-max-bytes", "1024", "-quiet", "https://cdn.example/a.png")

	if a.Config.MaxBytes != 1024 {
		t.Errorf("expected max-bytes 1024, got %d", a.Config.MaxBytes)
	}
	if !a.Config.Quiet {
		t.Error("expected quiet mode")
	}
	if len(a.Config.URLs) != 1 {
		t.Errorf("expected 1 URL, got %d", len(a.Config.URLs))
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New([]string{"imgcache", "-max-bytes", "0"}, io.Discard)
	if err == nil {
		t.Fatal("expected config validation error")
	}
}

func TestIsHelpError(t *testing.T) {
	_, err := New([]string{"imgcache", "-h"}, io.Discard)
	if !IsHelpError(err) {
		t.Errorf("expected help error, got %v", err)
	}
}

func TestRunFetchAndStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()

	fetch, err := New([]string{"imgcache", "-dir", dir, "-log-level", "none", "-quiet", srv.URL + "/a.png"}, io.Discard)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if code := fetch.Run(context.Background(), io.Discard); code != apperrors.ExitSuccess {
		t.Fatalf("expected success, got exit code %d", code)
	}

	stats, err := New([]string{"imgcache", "-dir", dir, "-log-level", "none", "-stats"}, io.Discard)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	var out bytes.Buffer
	if code := stats.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("expected success, got exit code %d", code)
	}
	if !strings.Contains(out.String(), "/a.png") {
		t.Errorf("expected stats output to list the cached URL, got:\n%s", out.String())
	}
}

func TestRunFetchReportsDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	a := newTestApp(t, "-quiet", srv.URL+"/missing.png")
	if code := a.Run(context.Background(), io.Discard); code != apperrors.ExitErrorDownload {
		t.Errorf("expected download exit code, got %d", code)
	}
}

func TestRunWithoutURLs(t *testing.T) {
	a := newTestApp(t)
	if code := a.Run(context.Background(), io.Discard); code != apperrors.ExitErrorConfig {
		t.Errorf("expected config exit code, got %d", code)
	}
}

func TestRunPurge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()

	fetch, err := New([]string{"imgcache", "-dir", dir, "-log-level", "none", "-quiet", srv.URL + "/a.png"}, io.Discard)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if code := fetch.Run(context.Background(), io.Discard); code != apperrors.ExitSuccess {
		t.Fatalf("fetch failed with exit code %d", code)
	}

	purge, err := New([]string{"imgcache", "-dir", dir, "-log-level", "none", "-purge"}, io.Discard)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	var out bytes.Buffer
	if code := purge.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("purge failed with exit code %d", code)
	}
	if !strings.Contains(out.String(), "Cache purged") {
		t.Errorf("expected purge confirmation, got:\n%s", out.String())
	}
}

func TestHasVersionFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"Long flag", []string{"--version"}, true},
		{"Short flag", []string{"-v"}, true},
		{"Single dash", []string{"-version"}, true},
		{"Absent", []string{"-stats"}, false},
		{"Empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasVersionFlag(tt.args); got != tt.want {
				t.Errorf("HasVersionFlag(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf)
	if !strings.Contains(buf.String(), "imgcache") {
		t.Errorf("expected version banner, got %q", buf.String())
	}
}
