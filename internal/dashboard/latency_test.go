package dashboard

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGatherer struct {
	families []*dto.MetricFamily
	err      error
}

func (s stubGatherer) Gather() ([]*dto.MetricFamily, error) {
	return s.families, s.err
}

var _ prometheus.Gatherer = stubGatherer{}

func ptrString(v string) *string { return &v }

func ptrUint64(v uint64) *uint64 { return &v }

func ptrFloat64(v float64) *float64 { return &v }

func latencyFamily() *dto.MetricFamily {
	metricType := dto.MetricType_HISTOGRAM
	return &dto.MetricFamily{
		Name: ptrString(llmLatencyMetricName),
		Type: &metricType,
		Metric: []*dto.Metric{
			{
				Histogram: &dto.Histogram{
					SampleCount: ptrUint64(10),
					SampleSum:   ptrFloat64(25),
					Bucket: []*dto.Bucket{
						{UpperBound: ptrFloat64(1), CumulativeCount: ptrUint64(4)},
						{UpperBound: ptrFloat64(5), CumulativeCount: ptrUint64(9)},
						{UpperBound: ptrFloat64(math.Inf(1)), CumulativeCount: ptrUint64(10)},
					},
				},
			},
		},
	}
}

func TestSnapshotLLMLatency(t *testing.T) {
	snap := snapshotLLMLatency(stubGatherer{families: []*dto.MetricFamily{latencyFamily()}})

	assert.Equal(t, int64(10), snap.Total)
	assert.InDelta(t, 2.5, snap.AvgSeconds, 1e-9)
	require.Len(t, snap.Buckets, 3)
	assert.Equal(t, "<=1s", snap.Buckets[0].Label)
	assert.Equal(t, int64(4), snap.Buckets[0].Count)
	assert.Equal(t, "<=5s", snap.Buckets[1].Label)
	assert.Equal(t, int64(5), snap.Buckets[1].Count)
	assert.Equal(t, ">5s", snap.Buckets[2].Label)
	assert.Equal(t, int64(1), snap.Buckets[2].Count)
}

func TestSnapshotLLMLatencyMissingFamily(t *testing.T) {
	snap := snapshotLLMLatency(stubGatherer{})
	assert.Zero(t, snap.Total)
	assert.Empty(t, snap.Buckets)
}

func TestSnapshotLLMLatencyGatherError(t *testing.T) {
	snap := snapshotLLMLatency(stubGatherer{err: assert.AnError})
	assert.Zero(t, snap.Total)
}
