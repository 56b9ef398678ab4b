package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulativeOnce(t *testing.T) {
	h := newHistogram([]float64{100, 250, 500})
	h.Observe(50)
	h.Observe(300)
	h.Observe(9000)

	var buf bytes.Buffer
	writeHistogram(&buf, "test_duration_ms", "help", h.Snapshot())
	out := buf.String()

	for _, line := range []string{
		`test_duration_ms_bucket{le="100"} 1`,
		`test_duration_ms_bucket{le="250"} 1`,
		`test_duration_ms_bucket{le="500"} 2`,
		`test_duration_ms_bucket{le="+Inf"} 3`,
		`test_duration_ms_count 3`,
	} {
		if !strings.Contains(out, line) {
			t.Fatalf("expected %q in output:\n%s", line, out)
		}
	}
}

func TestHistogramSumRendersFraction(t *testing.T) {
	h := newHistogram([]float64{100})
	h.Observe(0.5)

	var buf bytes.Buffer
	writeHistogram(&buf, "test_duration_ms", "help", h.Snapshot())
	if !strings.Contains(buf.String(), "test_duration_ms_sum 0.5") {
		t.Fatalf("expected fractional sum, got:\n%s", buf.String())
	}
}

func TestRenderListsAllSeries(t *testing.T) {
	out := Render()
	for _, name := range []string{
		"letter_generation_started_total",
		"letter_generation_completed_total",
		"letter_generation_failed_total",
		"letter_generation_rejected_total",
		"extraction_started_total",
		"extraction_completed_total",
		"extraction_failed_total",
		"llm_prompt_tokens_total",
		"llm_completion_tokens_total",
		"letter_generation_duration_ms",
		"extraction_duration_ms",
	} {
		if !strings.Contains(out, "# TYPE "+name) {
			t.Fatalf("expected series %s in render output", name)
		}
	}
}
