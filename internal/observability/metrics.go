package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

// Metrics is a small Prometheus text-format registry for pipeline runs. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	writes       *CounterVec
	writeLatency *HistogramVec
	conflicts    *CounterVec
	records      *CounterVec
	uploads      *CounterVec
	fetches      *CounterVec
	fetchLatency *HistogramVec
	catalogRows  *GaugeVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		writes: NewCounterVec("catalog_writes_total", "Catalog units of work by operation/status.", []string{"op", "status"}),
		writeLatency: NewHistogramVec(
			"catalog_write_duration_seconds",
			"Catalog unit of work latency in seconds by operation.",
			[]string{"op"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		conflicts: NewCounterVec("catalog_unique_conflicts_total", "Unique constraint conflicts by operation.", []string{"op"}),
		records:   NewCounterVec("catalog_feed_records_total", "Feed records by outcome.", []string{"outcome", "code"}),
		uploads:   NewCounterVec("catalog_uploads_total", "Object uploads by bucket category/status.", []string{"category", "status"}),
		fetches:   NewCounterVec("catalog_fetches_total", "Remote fetches by kind/status.", []string{"kind", "status"}),
		fetchLatency: NewHistogramVec(
			"catalog_fetch_duration_seconds",
			"Remote fetch latency in seconds by kind.",
			[]string{"kind"},
			[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		catalogRows: NewGaugeVec("catalog_rows", "Row counts observed after a run by table.", []string{"table"}),
	}
}

func (m *Metrics) ObserveOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.writes.Inc(name, status)
	m.writeLatency.Observe(dur.Seconds(), name)
}

func (m *Metrics) IncConflict(name string) {
	if m == nil {
		return
	}
	m.conflicts.Inc(name)
}

// ObserveRecord counts one feed record. code is empty for ingested records.
func (m *Metrics) ObserveRecord(outcome, code string) {
	if m == nil {
		return
	}
	if strings.TrimSpace(code) == "" {
		code = "none"
	}
	m.records.Inc(outcome, code)
}

func (m *Metrics) ObserveUpload(category, status string) {
	if m == nil {
		return
	}
	m.uploads.Inc(category, status)
}

func (m *Metrics) ObserveFetch(kind, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.fetches.Inc(kind, status)
	m.fetchLatency.Observe(dur.Seconds(), kind)
}

func (m *Metrics) SetRows(table string, n int64) {
	if m == nil {
		return
	}
	m.catalogRows.Set(float64(n), table)
}

func (m *Metrics) RecordCount(outcome, code string) float64 {
	if m == nil {
		return 0
	}
	if strings.TrimSpace(code) == "" {
		code = "none"
	}
	return m.records.Value(outcome, code)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	type writer interface{ WritePrometheus(io.Writer) error }
	for _, c := range []writer{m.writes, m.writeLatency, m.conflicts, m.records, m.uploads, m.fetches, m.fetchLatency, m.catalogRows} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

// WriteFile dumps the registry for node_exporter's textfile collector. The
// file is replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-metrics-*")
	if err != nil {
		return err
	}
	if err := m.WritePrometheus(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}
