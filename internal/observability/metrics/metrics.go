package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the chat response pipeline.
type ChatMetrics struct {
	repliesTotal *prometheus.CounterVec
	llmLatency   prometheus.Histogram
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatdesk",
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Total chat replies by source",
		}, []string{"source"}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chatdesk",
			Subsystem: "chat",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM completions",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.repliesTotal, m.llmLatency)
	return m
}

// ObserveReply records a served chat reply. Source is one of
// "faq", "cache", "llm", or "fallback".
func (m *ChatMetrics) ObserveReply(source string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(source).Inc()
}

func (m *ChatMetrics) ObserveLLMLatency(seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.Observe(seconds)
}

// AppointmentMetrics exposes counters for the scheduling flow.
type AppointmentMetrics struct {
	scheduledTotal prometheus.Counter
	conflictsTotal prometheus.Counter
	cancelledTotal prometheus.Counter
}

func NewAppointmentMetrics(reg prometheus.Registerer) *AppointmentMetrics {
	m := &AppointmentMetrics{
		scheduledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatdesk",
			Subsystem: "appointments",
			Name:      "scheduled_total",
			Help:      "Total appointments scheduled",
		}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatdesk",
			Subsystem: "appointments",
			Name:      "conflicts_total",
			Help:      "Total scheduling attempts rejected for a time conflict",
		}),
		cancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatdesk",
			Subsystem: "appointments",
			Name:      "cancelled_total",
			Help:      "Total appointments cancelled",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.scheduledTotal, m.conflictsTotal, m.cancelledTotal)
	return m
}

func (m *AppointmentMetrics) ObserveScheduled() {
	if m == nil {
		return
	}
	m.scheduledTotal.Inc()
}

func (m *AppointmentMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *AppointmentMetrics) ObserveCancelled() {
	if m == nil {
		return
	}
	m.cancelledTotal.Inc()
}

// VoiceMetrics exposes counters for Twilio voice webhooks.
type VoiceMetrics struct {
	webhooksTotal *prometheus.CounterVec
}

func NewVoiceMetrics(reg prometheus.Registerer) *VoiceMetrics {
	m := &VoiceMetrics{
		webhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatdesk",
			Subsystem: "voice",
			Name:      "webhooks_total",
			Help:      "Total Twilio voice webhooks by event and status",
		}, []string{"event", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhooksTotal)
	return m
}

func (m *VoiceMetrics) ObserveWebhook(event, status string) {
	if m == nil {
		return
	}
	m.webhooksTotal.WithLabelValues(event, status).Inc()
}
