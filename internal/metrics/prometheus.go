package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the relay.
type Metrics struct {
	// Segment flow
	SegmentsReceived  prometheus.Counter
	SegmentsDropped   prometheus.Counter
	SegmentsProcessed prometheus.Counter

	// Transcription
	TranscriptionDuration prometheus.Histogram
	TranscriptionFailures prometheus.Counter

	// Side effects
	LogFailures     prometheus.Counter
	ForwardFailures prometheus.Counter

	// Fan-out
	BroadcastsSent    prometheus.Counter
	BroadcastFailures prometheus.Counter

	// Connections
	ActiveSenders   prometheus.Gauge
	ActiveReceivers prometheus.Gauge
}

// NewMetrics creates and registers all relay metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SegmentsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxrelay_segments_received_total",
			Help: "Total number of audio segments reassembled from senders",
		}),
		SegmentsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxrelay_segments_dropped_total",
			Help: "Total number of segments dropped by the silence/garbage filter",
		}),
		SegmentsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxrelay_segments_processed_total",
			Help: "Total number of segments that produced an enriched result",
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxrelay_transcription_duration_seconds",
			Help:    "Time spent in the transcription backend per segment",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxrelay_transcription_failures_total",
			Help: "Total number of transcription backend errors (degraded to empty text)",
		}),
		LogFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxrelay_log_failures_total",
			Help: "Total number of failed log record appends",
		}),
		ForwardFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxrelay_forward_failures_total",
			Help: "Total number of failed dashboard forwards",
		}),
		BroadcastsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxrelay_broadcasts_sent_total",
			Help: "Total number of per-receiver semantic frame deliveries",
		}),
		BroadcastFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxrelay_broadcast_failures_total",
			Help: "Total number of per-receiver delivery failures",
		}),
		ActiveSenders: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voxrelay_active_senders",
			Help: "Current number of registered sender connections",
		}),
		ActiveReceivers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voxrelay_active_receivers",
			Help: "Current number of registered receiver connections",
		}),
	}
}
