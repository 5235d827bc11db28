package dashboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const llmLatencyMetricName = "chatdesk_chat_llm_latency_seconds"

// LatencyBucket is one histogram bucket of LLM completion latency.
type LatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label"`
	Count     int64   `json:"count"`
}

// LatencySnapshot summarizes the LLM latency histogram at render time.
type LatencySnapshot struct {
	Total      int64           `json:"total"`
	AvgSeconds float64         `json:"avg_seconds"`
	Buckets    []LatencyBucket `json:"buckets"`
}

// snapshotLLMLatency reads the in-process latency histogram from the
// prometheus registry. Any gathering problem yields an empty snapshot.
func snapshotLLMLatency(gatherer prometheus.Gatherer) LatencySnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return LatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == llmLatencyMetricName {
			family = mf
			break
		}
	}
	if family == nil {
		return LatencySnapshot{}
	}

	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64
	var sampleSum float64
	for _, metric := range family.Metric {
		if metric == nil {
			continue
		}
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		sampleCount += h.GetSampleCount()
		sampleSum += h.GetSampleSum()
		for _, b := range h.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if sampleCount == 0 {
		return LatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	buckets := make([]LatencyBucket, 0, len(uppers))
	var prev uint64
	var lastFiniteUpper float64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		count := int64(0)
		if cum >= prev {
			count = int64(cum - prev)
		}
		prev = cum

		if math.IsInf(upper, 1) {
			if count > 0 {
				buckets = append(buckets, LatencyBucket{
					LeSeconds: lastFiniteUpper,
					Label:     ">" + formatSeconds(lastFiniteUpper),
					Count:     count,
				})
			}
			continue
		}
		lastFiniteUpper = upper
		if count > 0 {
			buckets = append(buckets, LatencyBucket{
				LeSeconds: upper,
				Label:     "<=" + formatSeconds(upper),
				Count:     count,
			})
		}
	}

	return LatencySnapshot{
		Total:      int64(sampleCount),
		AvgSeconds: sampleSum / float64(sampleCount),
		Buckets:    buckets,
	}
}

func formatSeconds(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0fs", v)
	}
	return fmt.Sprintf("%.2gs", v)
}
