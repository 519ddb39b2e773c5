package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync holds the daemon's Prometheus collectors. A nil *Sync is valid and
// records nothing.
type Sync struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RemoteRequestDuration *prometheus.HistogramVec

	PushTotal      *prometheus.CounterVec
	PushedRecords  *prometheus.CounterVec
	PullTotal      *prometheus.CounterVec
	PulledRecords  *prometheus.CounterVec
	DeleteReplayed *prometheus.CounterVec

	PendingDeletes prometheus.Gauge
	StorageBackend *prometheus.GaugeVec
}

// New registers the collectors on reg under prefix
func New(reg prometheus.Registerer, prefix string) *Sync {
	f := promauto.With(reg)
	return &Sync{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests served by the local daemon",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		RemoteRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_remote_request_duration_seconds",
				Help:    "Duration of calls to the sync server in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),
		PushTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_push_total",
				Help: "Push attempts by outcome",
			},
			[]string{"outcome"},
		),
		PushedRecords: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_pushed_records_total",
				Help: "Records sent to the sync server",
			},
			[]string{"table"},
		),
		PullTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_pull_total",
				Help: "Pull attempts by outcome",
			},
			[]string{"outcome"},
		),
		PulledRecords: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_pulled_records_total",
				Help: "Records received from the sync server",
			},
			[]string{"table"},
		),
		DeleteReplayed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_delete_replay_total",
				Help: "Queued deletes replayed by outcome",
			},
			[]string{"outcome"},
		),
		PendingDeletes: f.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_pending_deletes",
				Help: "Delete intents waiting for the server",
			},
		),
		StorageBackend: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "_storage_backend",
				Help: "1 for the local storage backend currently selected",
			},
			[]string{"kind"},
		),
	}
}

// Outcome labels
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
	OutcomeNoop     = "noop"
	OutcomeDegraded = "degraded"
)

func (m *Sync) ObserveHTTP(method, path, status string, started time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(started).Seconds())
}

// TrackRemote returns a function that records the duration of a remote call
func (m *Sync) TrackRemote(operation string) func(err error) {
	started := time.Now()
	return func(err error) {
		if m == nil {
			return
		}
		outcome := OutcomeOK
		if err != nil {
			outcome = OutcomeError
		}
		m.RemoteRequestDuration.WithLabelValues(operation, outcome).Observe(time.Since(started).Seconds())
	}
}

func (m *Sync) RecordPush(outcome string, counts map[string]int) {
	if m == nil {
		return
	}
	m.PushTotal.WithLabelValues(outcome).Inc()
	for table, n := range counts {
		m.PushedRecords.WithLabelValues(table).Add(float64(n))
	}
}

func (m *Sync) RecordPull(outcome string, counts map[string]int) {
	if m == nil {
		return
	}
	m.PullTotal.WithLabelValues(outcome).Inc()
	for table, n := range counts {
		m.PulledRecords.WithLabelValues(table).Add(float64(n))
	}
}

func (m *Sync) RecordReplay(outcome string) {
	if m == nil {
		return
	}
	m.DeleteReplayed.WithLabelValues(outcome).Inc()
}

func (m *Sync) SetPendingDeletes(n int) {
	if m == nil {
		return
	}
	m.PendingDeletes.Set(float64(n))
}

// SetBackend marks kind as the selected backend; an empty kind clears it
func (m *Sync) SetBackend(kind string) {
	if m == nil {
		return
	}
	m.StorageBackend.Reset()
	if kind != "" {
		m.StorageBackend.WithLabelValues(kind).Set(1)
	}
}
