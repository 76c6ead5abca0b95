package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	var buf bytes.Buffer
	writeHistogram(&buf, "x", "test", h.Snapshot())

	for _, want := range []string{
		`x_bucket{le="10"} 1`,
		`x_bucket{le="100"} 2`,
		`x_bucket{le="+Inf"} 3`,
		`x_sum 555`,
		`x_count 3`,
	} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, buf.String())
		}
	}
}

func TestRenderIncludesPipelineCounters(t *testing.T) {
	AddChartsRejected(2)
	AddChartsRejected(0)
	out := Render()
	for _, name := range []string{
		"reports_created_total",
		"report_revisions_total",
		"inference_failed_total",
		"inference_contract_violations_total",
		"charts_rejected_total",
		"inference_duration_ms_count",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("missing metric %s", name)
		}
	}
}
