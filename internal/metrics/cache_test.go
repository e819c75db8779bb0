package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *CacheMetrics
	// None of these may panic on a nil recorder.
	m.IncHit()
	m.IncMiss()
	m.IncEviction()
	m.AddDownload(1024)
	m.IncRevalidation("refreshed")
	m.SetUsage(2048, 3)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.IncHit()
	m.IncHit()
	m.IncMiss()
	m.AddDownload(512)
	m.IncRevalidation("not-modified")
	m.SetUsage(4096, 7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		"imgcache_hits_total 2",
		"imgcache_misses_total 1",
		"imgcache_downloads_total 1",
		"imgcache_download_bytes_total 512",
		`imgcache_revalidations_total{outcome="not-modified"} 1`,
		"imgcache_bytes 4096",
		"imgcache_entries 7",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition should contain %q\n%s", want, body)
		}
	}
}

func TestReadMemory(t *testing.T) {
	snap := ReadMemory()
	if snap.HeapAlloc == 0 {
		t.Error("HeapAlloc should be non-zero in a running process")
	}
	if snap.Sys == 0 {
		t.Error("Sys should be non-zero in a running process")
	}
}
