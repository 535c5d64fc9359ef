package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for the monitoring pipeline.
// All observe methods are safe on a nil receiver so components can run
// without metrics wired.
type PipelineMetrics struct {
	framesSent       prometheus.Counter
	framesDropped    prometheus.Counter
	classifications  *prometheus.CounterVec
	streamReconnects prometheus.Counter
	streamWarnings   prometheus.Counter
	interventions    *prometheus.CounterVec
	alertsSent       prometheus.Counter
	alertRecipients  prometheus.Counter
	inferenceLatency prometheus.Histogram
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emotionmonitor",
			Subsystem: "stream",
			Name:      "frames_sent_total",
			Help:      "Total frames sent to the inference service",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emotionmonitor",
			Subsystem: "stream",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped because the connection was not open",
		}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emotionmonitor",
			Subsystem: "pipeline",
			Name:      "classifications_total",
			Help:      "Classifications produced, by severity tier",
		}, []string{"severity"}),
		streamReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emotionmonitor",
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Reconnect attempts to the inference service",
		}),
		streamWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emotionmonitor",
			Subsystem: "stream",
			Name:      "warnings_total",
			Help:      "Warning or malformed responses from the inference service",
		}),
		interventions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emotionmonitor",
			Subsystem: "pipeline",
			Name:      "interventions_total",
			Help:      "Interventions fired, by severity tier",
		}, []string{"severity"}),
		alertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emotionmonitor",
			Subsystem: "alert",
			Name:      "alerts_sent_total",
			Help:      "Alert fan-out episodes fired",
		}),
		alertRecipients: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emotionmonitor",
			Subsystem: "alert",
			Name:      "recipients_total",
			Help:      "Contacts successfully notified across all alerts",
		}),
		inferenceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "emotionmonitor",
			Subsystem: "stream",
			Name:      "inference_roundtrip_seconds",
			Help:      "Latency between sending a frame and receiving its classification",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.framesSent, m.framesDropped, m.classifications,
		m.streamReconnects, m.streamWarnings, m.interventions,
		m.alertsSent, m.alertRecipients, m.inferenceLatency,
	)
	return m
}

func (m *PipelineMetrics) ObserveFrameSent() {
	if m == nil {
		return
	}
	m.framesSent.Inc()
}

func (m *PipelineMetrics) ObserveFrameDropped() {
	if m == nil {
		return
	}
	m.framesDropped.Inc()
}

func (m *PipelineMetrics) ObserveClassification(severity string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(severity).Inc()
}

func (m *PipelineMetrics) ObserveReconnect() {
	if m == nil {
		return
	}
	m.streamReconnects.Inc()
}

func (m *PipelineMetrics) ObserveStreamWarning() {
	if m == nil {
		return
	}
	m.streamWarnings.Inc()
}

func (m *PipelineMetrics) ObserveIntervention(severity string) {
	if m == nil {
		return
	}
	m.interventions.WithLabelValues(severity).Inc()
}

func (m *PipelineMetrics) ObserveAlert(recipients int) {
	if m == nil {
		return
	}
	m.alertsSent.Inc()
	m.alertRecipients.Add(float64(recipients))
}

func (m *PipelineMetrics) ObserveInferenceLatency(seconds float64) {
	if m == nil {
		return
	}
	m.inferenceLatency.Observe(seconds)
}
