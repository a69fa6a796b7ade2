// health.go — обработчики health endpoints для Kubernetes probes.
package handlers

import (
	"net/http"
	"time"

	"github.com/bigkaa/textstore/internal/analysis/config"
)

// ReadinessChecker — проверка готовности одной зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "fail") и сообщение.
	CheckReady() (status string, message string)
}

// ReadinessFunc — адаптер функции к интерфейсу ReadinessChecker.
type ReadinessFunc func() (status string, message string)

// CheckReady вызывает функцию-проверку.
func (f ReadinessFunc) CheckReady() (string, string) { return f() }

// HealthHandler реализует health endpoints: /health/live, /health/ready.
type HealthHandler struct {
	version string
	// checks — именованные проверки готовности (БД)
	checks map[string]ReadinessChecker
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler(checks map[string]ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		version: config.Version,
		checks:  checks,
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   config.ServiceName,
	})
}

// HealthReady обрабатывает GET /health/ready.
// Прогоняет все зарегистрированные проверки; любой fail — 503.
// Доступность storing-module не входит в readiness: его отказ
// деградирует только новые анализы, сохранённые результаты отдаются.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	results := make(map[string]any, len(h.checks))
	for name, check := range h.checks {
		status, message := check.CheckReady()
		results[name] = map[string]string{
			"status":  status,
			"message": message,
		}
		if status != "ok" {
			overallStatus = "fail"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   config.ServiceName,
		"checks":    results,
	})
}
