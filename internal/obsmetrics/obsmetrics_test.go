package obsmetrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
	if c.registry == nil {
		t.Fatal("expected non-nil registry")
	}
}

func TestCollectorObservations(t *testing.T) {
	c := NewCollector()

	c.CrawlsTotal.WithLabelValues("completed").Inc()
	c.CrawlDuration.Observe(2.5)
	c.FilesEmittedTotal.Add(3)
	c.FilesSkippedTotal.WithLabelValues("binary").Inc()
	c.FilesFailedTotal.Inc()
	c.BatchSize.Observe(50)

	if v := testutil.ToFloat64(c.CrawlsTotal.WithLabelValues("completed")); v != 1 {
		t.Errorf("expected crawls_total{completed}=1, got %f", v)
	}
	if v := testutil.ToFloat64(c.FilesEmittedTotal); v != 3 {
		t.Errorf("expected files_emitted_total=3, got %f", v)
	}
	if v := testutil.ToFloat64(c.FilesSkippedTotal.WithLabelValues("binary")); v != 1 {
		t.Errorf("expected files_skipped_total{binary}=1, got %f", v)
	}
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector()
	c.CrawlsTotal.WithLabelValues("completed").Inc()
	c.FilesEmittedTotal.Add(1)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)
	for _, metric := range []string{
		"git_datasource_crawl_total",
		"git_datasource_crawl_files_emitted_total",
		"process_cpu_seconds_total",
		"go_goroutines",
	} {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("expected %q in /metrics output", metric)
		}
	}
}
