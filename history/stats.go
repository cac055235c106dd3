package history

import (
	"github.com/HdrHistogram/hdrhistogram-go"
)

// Percentages are recorded in hundredths so two decimal places survive the
// integer histogram.
const (
	histScale  = 100
	histMin    = 1
	histMax    = 100 * histScale
	histSigFig = 2
)

// Quantiles summarises every value recorded for one percentage metric over
// the whole process lifetime.
type Quantiles struct {
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Max   float64 `json:"max"`
	Count int64   `json:"count"`
}

// Stats holds lifetime quantiles for the percentage metrics.
type Stats struct {
	CPU    Quantiles `json:"cpu"`
	Memory Quantiles `json:"memory"`
}

// lifetime is an HdrHistogram of a 0-100 metric.
type lifetime struct {
	h *hdrhistogram.Histogram
}

func newLifetime() lifetime {
	return lifetime{h: hdrhistogram.New(histMin, histMax, histSigFig)}
}

func (l lifetime) record(pct float64) {
	v := int64(pct*histScale + 0.5)
	if v < 0 {
		v = 0
	}
	if v > histMax {
		v = histMax
	}
	// In range by construction, so the error is always nil.
	_ = l.h.RecordValue(v)
}

func (l lifetime) quantiles() Quantiles {
	if l.h.TotalCount() == 0 {
		return Quantiles{}
	}
	return Quantiles{
		P50:   fromHist(l.h.ValueAtQuantile(50)),
		P95:   fromHist(l.h.ValueAtQuantile(95)),
		Max:   fromHist(l.h.Max()),
		Count: l.h.TotalCount(),
	}
}

// fromHist converts a histogram value back to a percentage. Bucket upper
// bounds can overshoot the recorded value slightly, so the result is capped.
func fromHist(v int64) float64 {
	return min(float64(v)/histScale, 100)
}
