package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	renderStartedTotal     atomic.Uint64
	renderCompletedTotal   atomic.Uint64
	renderFailedTotal      atomic.Uint64
	assetDegradedTotal     atomic.Uint64
	extractionSuccessTotal atomic.Uint64
	extractionFailedTotal  atomic.Uint64
	panicsTotal            atomic.Uint64

	renderDuration     = newHistogram([]float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
	extractionDuration = newHistogram([]float64{500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncRenderStarted increments the started counter.
func IncRenderStarted() {
	renderStartedTotal.Add(1)
}

// IncRenderCompleted increments the completed counter.
func IncRenderCompleted() {
	renderCompletedTotal.Add(1)
}

// IncRenderFailed increments the failed counter.
func IncRenderFailed() {
	renderFailedTotal.Add(1)
}

// IncAssetDegraded counts logos and backgrounds that could not be used.
func IncAssetDegraded() {
	assetDegradedTotal.Add(1)
}

// IncExtraction counts finished extractions by outcome.
func IncExtraction(ok bool) {
	if ok {
		extractionSuccessTotal.Add(1)
		return
	}
	extractionFailedTotal.Add(1)
}

// IncPanic counts handler panics caught by the recovery middleware.
func IncPanic() {
	panicsTotal.Add(1)
}

// ObserveRenderDurationMs records a render duration in milliseconds.
func ObserveRenderDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	renderDuration.Observe(value)
}

// ObserveExtractionDurationMs records an extraction duration in milliseconds.
func ObserveExtractionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	extractionDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "coa_render_started_total", "Total certificate renders started", renderStartedTotal.Load())
	writeCounter(&buf, "coa_render_completed_total", "Total certificate renders completed", renderCompletedTotal.Load())
	writeCounter(&buf, "coa_render_failed_total", "Total certificate renders failed", renderFailedTotal.Load())
	writeCounter(&buf, "coa_asset_degraded_total", "Logos and backgrounds rendered without their image", assetDegradedTotal.Load())
	writeCounter(&buf, "coa_extraction_success_total", "Total successful extractions", extractionSuccessTotal.Load())
	writeCounter(&buf, "coa_extraction_failed_total", "Total failed extractions", extractionFailedTotal.Load())
	writeCounter(&buf, "coa_http_panics_total", "Handler panics recovered", panicsTotal.Load())
	writeHistogram(&buf, "coa_render_duration_ms", "Certificate render duration in milliseconds", renderDuration.Snapshot())
	writeHistogram(&buf, "coa_extraction_duration_ms", "Extraction duration in milliseconds", extractionDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	// counts are per bucket; writeHistogram accumulates them.
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
