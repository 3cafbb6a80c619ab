// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voicemail_notify"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Pipeline metrics
	PipelinesTotal   prometheus.Counter
	PipelinesActive  prometheus.Gauge
	PipelineOutcomes *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	StageDuration    *prometheus.HistogramVec

	// Recording search metrics
	SearchProbes    prometheus.Histogram
	RecordingsFound prometheus.Counter
	RecordingsLost  prometheus.Counter

	// Transcription metrics
	TranscriptionWait  prometheus.Histogram
	TranscriptionFails *prometheus.CounterVec

	// Dispatch metrics
	EmailsSent      prometheus.Counter
	EmailSendErrors prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Redirect endpoint metrics
	RedirectRequests *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		PipelinesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipelines_total",
			Help:      "Total number of pipeline invocations started",
		}),
		PipelinesActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipelines_active",
			Help:      "Number of currently running pipeline invocations",
		}),
		PipelineOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_outcomes_total",
			Help:      "Terminal pipeline states by outcome",
		}, []string{"state"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall-clock duration of one pipeline invocation",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"stage"}),

		SearchProbes: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_probes",
			Help:      "Existence probes issued per recording search",
			Buckets:   []float64{1, 2, 5, 10, 15, 20, 25, 30},
		}),
		RecordingsFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_found_total",
			Help:      "Total recordings located",
		}),
		RecordingsLost: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_not_found_total",
			Help:      "Total searches exhausted without a recording",
		}),

		TranscriptionWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_wait_seconds",
			Help:      "Time from job submission to terminal status",
			Buckets:   []float64{3, 10, 30, 60, 120, 300, 600},
		}),
		TranscriptionFails: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_failures_total",
			Help:      "Transcription failures by kind",
		}, []string{"kind"}),

		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Total notification emails dispatched",
		}),
		EmailSendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_send_errors_total",
			Help:      "Total notification dispatch failures",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		RedirectRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirect_requests_total",
			Help:      "Listen-link redirect requests by result",
		}, []string{"result"}),
	}
}

// RecordPipelineStart records a new pipeline invocation.
func (m *Metrics) RecordPipelineStart() {
	m.PipelinesTotal.Inc()
	m.PipelinesActive.Inc()
}

// RecordPipelineEnd records a pipeline invocation reaching a terminal state.
func (m *Metrics) RecordPipelineEnd(state string, durationSeconds float64) {
	m.PipelinesActive.Dec()
	m.PipelineOutcomes.WithLabelValues(state).Inc()
	m.PipelineDuration.Observe(durationSeconds)
}

// RecordStage records the duration of one pipeline stage.
func (m *Metrics) RecordStage(stage string, durationSeconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordSearch records the outcome of a recording search.
func (m *Metrics) RecordSearch(found bool, probes int) {
	m.SearchProbes.Observe(float64(probes))
	if found {
		m.RecordingsFound.Inc()
	} else {
		m.RecordingsLost.Inc()
	}
}

// RecordTranscription records a transcription job reaching a terminal status.
func (m *Metrics) RecordTranscription(waitSeconds float64, failKind string) {
	m.TranscriptionWait.Observe(waitSeconds)
	if failKind != "" {
		m.TranscriptionFails.WithLabelValues(failKind).Inc()
	}
}

// RecordDispatch records a notification send attempt.
func (m *Metrics) RecordDispatch(err error) {
	if err != nil {
		m.EmailSendErrors.Inc()
		return
	}
	m.EmailsSent.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt with its latency.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordRedirect records a listen-link redirect request outcome.
func (m *Metrics) RecordRedirect(result string) {
	m.RedirectRequests.WithLabelValues(result).Inc()
}
