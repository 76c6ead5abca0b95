package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	reportsCreatedTotal     atomic.Uint64
	reportsDeletedTotal     atomic.Uint64
	revisionsTotal          atomic.Uint64
	inferenceFailedTotal    atomic.Uint64
	contractViolationsTotal atomic.Uint64
	chartsRejectedTotal     atomic.Uint64
	rejectedUploadsTotal    atomic.Uint64

	inferenceDuration = newHistogram([]float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000})
)

// IncReportsCreated counts persisted pipeline runs.
func IncReportsCreated() { reportsCreatedTotal.Add(1) }

// IncReportsDeleted counts owner-initiated deletes.
func IncReportsDeleted() { reportsDeletedTotal.Add(1) }

// IncRevisions counts applied feedback revisions.
func IncRevisions() { revisionsTotal.Add(1) }

// IncInferenceFailed counts gateway failures.
func IncInferenceFailed() { inferenceFailedTotal.Add(1) }

// IncContractViolations counts completions rejected at the top level.
func IncContractViolations() { contractViolationsTotal.Add(1) }

// AddChartsRejected counts chart entries dropped by validation.
func AddChartsRejected(n int) {
	if n > 0 {
		chartsRejectedTotal.Add(uint64(n))
	}
}

// IncRejectedUploads counts uploads refused before inference (format, size, empty content).
func IncRejectedUploads() { rejectedUploadsTotal.Add(1) }

// ObserveInferenceDurationMs records a gateway call duration in milliseconds.
func ObserveInferenceDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	inferenceDuration.Observe(value)
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
	writeCounter(&buf, "reports_created_total", "Reports persisted by the analysis pipeline", reportsCreatedTotal.Load())
	writeCounter(&buf, "reports_deleted_total", "Reports deleted by their owner", reportsDeletedTotal.Load())
	writeCounter(&buf, "report_revisions_total", "Feedback revisions applied", revisionsTotal.Load())
	writeCounter(&buf, "inference_failed_total", "Inference calls that failed", inferenceFailedTotal.Load())
	writeCounter(&buf, "inference_contract_violations_total", "Completions rejected by the response contract", contractViolationsTotal.Load())
	writeCounter(&buf, "charts_rejected_total", "Chart entries dropped during validation", chartsRejectedTotal.Load())
	writeCounter(&buf, "uploads_rejected_total", "Uploads rejected before inference", rejectedUploadsTotal.Load())
	writeHistogram(&buf, "inference_duration_ms", "Inference call duration in milliseconds", inferenceDuration.Snapshot())
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

// Observe stores value in the first bucket that holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
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
