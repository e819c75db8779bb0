package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/uaremad/imgcache/internal/errors"
)

// fastClient builds a client with near-zero backoff for tests.
func fastClient(opts ...Option) *Client {
	base := []Option{WithRetryInterval(time.Millisecond)}
	return NewClient(append(base, opts...)...)
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png bytes"))
	}))
	defer srv.Close()

	res, err := fastClient().Fetch(context.Background(), srv.URL, Conditional{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(res.Body) != "png bytes" {
		t.Errorf("Body = %q", res.Body)
	}
	if res.ETag != `"v1"` || res.ContentType != "image/png" {
		t.Errorf("metadata = %+v", res)
	}
	if res.NotModified {
		t.Error("fresh download should not report NotModified")
	}
}

func TestFetchConditionalHeaders(t *testing.T) {
	var gotETag, gotModSince string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotETag = r.Header.Get("If-None-Match")
		gotModSince = r.Header.Get("If-Modified-Since")
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	cond := Conditional{ETag: `"v1"`, LastModified: "Mon, 02 Jan 2006 15:04:05 GMT"}
	res, err := fastClient().Fetch(context.Background(), srv.URL, cond)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !res.NotModified {
		t.Error("304 should report NotModified")
	}
	if res.Body != nil {
		t.Error("304 should carry no body")
	}
	if gotETag != cond.ETag {
		t.Errorf("If-None-Match = %q, want %q", gotETag, cond.ETag)
	}
	if gotModSince != cond.LastModified {
		t.Errorf("If-Modified-Since = %q, want %q", gotModSince, cond.LastModified)
	}
}

func TestFetchOmitsEmptyConditionals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["If-None-Match"]; ok {
			t.Error("If-None-Match sent without a validator")
		}
		if _, ok := r.Header["If-Modified-Since"]; ok {
			t.Error("If-Modified-Since sent without a validator")
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	if _, err := fastClient().Fetch(context.Background(), srv.URL, Conditional{}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer srv.Close()

	res, err := fastClient().Fetch(context.Background(), srv.URL, Conditional{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(res.Body) != "finally" {
		t.Errorf("Body = %q", res.Body)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := fastClient().Fetch(context.Background(), srv.URL, Conditional{})

	var dlErr apperrors.DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("Fetch error = %v, want DownloadError", err)
	}
	if dlErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", dlErr.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry on 4xx)", got)
	}
}

func TestFetchExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := fastClient(WithMaxTries(2)).Fetch(context.Background(), srv.URL, Conditional{})
	if err == nil {
		t.Fatal("Fetch should fail once the budget is exhausted")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d calls, want 2", got)
	}
}

func TestFetchContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := fastClient().Fetch(ctx, srv.URL, Conditional{})
	if err == nil {
		t.Fatal("Fetch should fail when the context expires")
	}
}

func TestFetchRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// 50 req/s with burst 1: three sequential fetches need at least ~40ms.
	c := fastClient(WithRateLimit(50, 1))
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), srv.URL, Conditional{}); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("three fetches took %v, rate limit not applied", elapsed)
	}
}
