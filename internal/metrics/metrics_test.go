package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	case out.Histogram != nil:
		return float64(out.Histogram.GetSampleCount())
	}
	return 0
}

func TestNilSyncIsSafe(t *testing.T) {
	var m *Sync
	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/", "200", time.Now())
		m.TrackRemote("push")(nil)
		m.RecordPush(OutcomeOK, map[string]int{"products": 1})
		m.RecordPull(OutcomeOK, nil)
		m.RecordReplay(OutcomeError)
		m.SetPendingDeletes(3)
		m.SetBackend("keyvalue")
	})
}

func TestSyncCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "posync")

	m.RecordPush(OutcomeOK, map[string]int{"products": 2, "sales": 1})
	m.RecordPush(OutcomeSkipped, nil)
	m.TrackRemote("pull")(errors.New("offline"))
	m.SetPendingDeletes(4)
	m.SetBackend("relational")
	m.SetBackend("keyvalue")

	assert.Equal(t, 1.0, value(t, m.PushTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, value(t, m.PushTotal.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, 2.0, value(t, m.PushedRecords.WithLabelValues("products")))
	assert.Equal(t, 4.0, value(t, m.PendingDeletes))
	assert.Equal(t, 1.0, value(t, m.StorageBackend.WithLabelValues("keyvalue")))

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "posync_storage_backend" {
			assert.Len(t, f.GetMetric(), 1, "only the selected backend is reported")
		}
		if f.GetName() == "posync_remote_request_duration_seconds" {
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, uint64(1), f.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
}
