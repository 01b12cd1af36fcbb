package engagement

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters/histograms for the engagement pipeline.
type Metrics struct {
	turnsTotal         *prometheus.CounterVec
	llmLatency         *prometheus.HistogramVec
	sessionsTerminated *prometheus.CounterVec
	intelligenceTotal  *prometheus.CounterVec
	deliveryAttempts   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trapline",
			Subsystem: "engagement",
			Name:      "turns_total",
			Help:      "Total processed scammer turns",
		}, []string{"category", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trapline",
			Subsystem: "engagement",
			Name:      "llm_latency_seconds",
			Help:      "Latency of reply generation calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		sessionsTerminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trapline",
			Subsystem: "engagement",
			Name:      "sessions_terminated_total",
			Help:      "Total sessions that reached a terminal state",
		}, []string{"reason"}),
		intelligenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trapline",
			Subsystem: "engagement",
			Name:      "intelligence_artifacts_total",
			Help:      "Total extracted intelligence artifacts",
		}, []string{"category"}),
		deliveryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trapline",
			Subsystem: "report",
			Name:      "delivery_attempts_total",
			Help:      "Total final report delivery attempts",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.llmLatency, m.sessionsTerminated, m.intelligenceTotal, m.deliveryAttempts)
	return m
}

func (m *Metrics) ObserveTurn(category, status string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(category, status).Inc()
}

func (m *Metrics) ObserveLLMLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(status).Observe(seconds)
}

func (m *Metrics) ObserveTermination(reason string) {
	if m == nil {
		return
	}
	m.sessionsTerminated.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveIntelligence(category string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.intelligenceTotal.WithLabelValues(category).Add(float64(count))
}

func (m *Metrics) ObserveDelivery(status string) {
	if m == nil {
		return
	}
	m.deliveryAttempts.WithLabelValues(status).Inc()
}
