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
	generationStartedTotal   atomic.Uint64
	generationCompletedTotal atomic.Uint64
	generationFailedTotal    atomic.Uint64
	generationRejectedTotal  atomic.Uint64

	extractionStartedTotal   atomic.Uint64
	extractionCompletedTotal atomic.Uint64
	extractionFailedTotal    atomic.Uint64

	promptTokensTotal     atomic.Uint64
	completionTokensTotal atomic.Uint64

	generationDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	extractionDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncGenerationStarted increments the started counter.
func IncGenerationStarted() {
	generationStartedTotal.Add(1)
}

// IncGenerationCompleted increments the completed counter.
func IncGenerationCompleted() {
	generationCompletedTotal.Add(1)
}

// IncGenerationFailed increments the failed counter.
func IncGenerationFailed() {
	generationFailedTotal.Add(1)
}

// IncGenerationRejected counts requests rejected before any model call.
func IncGenerationRejected() {
	generationRejectedTotal.Add(1)
}

// IncExtractionStarted increments the started counter.
func IncExtractionStarted() {
	extractionStartedTotal.Add(1)
}

// IncExtractionCompleted increments the completed counter.
func IncExtractionCompleted() {
	extractionCompletedTotal.Add(1)
}

// IncExtractionFailed increments the failed counter.
func IncExtractionFailed() {
	extractionFailedTotal.Add(1)
}

// AddTokens accumulates prompt and completion token usage.
func AddTokens(prompt, completion int) {
	if prompt > 0 {
		promptTokensTotal.Add(uint64(prompt))
	}
	if completion > 0 {
		completionTokensTotal.Add(uint64(completion))
	}
}

// ObserveGenerationDurationMs records a cover letter generation duration in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
}

// ObserveExtractionDurationMs records a resume extraction duration in milliseconds.
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
	writeCounter(&buf, "letter_generation_started_total", "Total cover letter generations started", generationStartedTotal.Load())
	writeCounter(&buf, "letter_generation_completed_total", "Total cover letter generations completed", generationCompletedTotal.Load())
	writeCounter(&buf, "letter_generation_failed_total", "Total cover letter generations failed", generationFailedTotal.Load())
	writeCounter(&buf, "letter_generation_rejected_total", "Total cover letter requests rejected by validation", generationRejectedTotal.Load())
	writeCounter(&buf, "extraction_started_total", "Total resume extractions started", extractionStartedTotal.Load())
	writeCounter(&buf, "extraction_completed_total", "Total resume extractions completed", extractionCompletedTotal.Load())
	writeCounter(&buf, "extraction_failed_total", "Total resume extractions failed", extractionFailedTotal.Load())
	writeCounter(&buf, "llm_prompt_tokens_total", "Total prompt tokens reported by the model provider", promptTokensTotal.Load())
	writeCounter(&buf, "llm_completion_tokens_total", "Total completion tokens reported by the model provider", completionTokensTotal.Load())
	writeHistogram(&buf, "letter_generation_duration_ms", "Cover letter generation duration in milliseconds", generationDuration.Snapshot())
	writeHistogram(&buf, "extraction_duration_ms", "Resume extraction duration in milliseconds", extractionDuration.Snapshot())
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
