// metrics.go — Prometheus-метрики бизнес-операций storing-module.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — метрики операций с файлами.
type Metrics struct {
	// UploadsTotal — количество загрузок по результату
	// (success, too_large, error).
	UploadsTotal *prometheus.CounterVec
	// UploadBytes — суммарный объём загруженных данных.
	UploadBytes prometheus.Counter
	// DownloadsTotal — количество скачиваний содержимого по результату.
	DownloadsTotal *prometheus.CounterVec
	// DeletesTotal — количество удалений по результату.
	DeletesTotal *prometheus.CounterVec
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
		UploadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Количество загрузок файлов по результату.",
			},
			[]string{"result"},
		),
		UploadBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_bytes_total",
				Help:      "Суммарный объём загруженных данных в байтах.",
			},
		),
		DownloadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloads_total",
				Help:      "Количество скачиваний содержимого по результату.",
			},
			[]string{"result"},
		),
		DeletesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deletes_total",
				Help:      "Количество удалений файлов по результату.",
			},
			[]string{"result"},
		),
	}
}
