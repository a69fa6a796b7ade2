// metrics.go — Prometheus-метрики бизнес-операций analysis-module.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — метрики операций анализа.
type Metrics struct {
	// AnalysesTotal — количество анализов по результату
	// (success, concurrent_duplicate, content_unavailable, error).
	AnalysesTotal *prometheus.CounterVec
	// AnalysisDuration — длительность подсчёта статистики текста.
	AnalysisDuration prometheus.Histogram
}

// NewMetrics регистрирует метрики в глобальном Prometheus registry.
func NewMetrics(namespace string) *Metrics {
	return newMetrics(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer регистрирует метрики в указанном registry.
// Используется в тестах для изоляции.
func NewMetricsWithRegisterer(namespace string, reg prometheus.Registerer) *Metrics {
	return newMetrics(namespace, reg)
}

func newMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	return &Metrics{
		AnalysesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Количество выполненных анализов по результату.",
			},
			[]string{"result"},
		),
		AnalysisDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Длительность подсчёта статистики текста.",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}
