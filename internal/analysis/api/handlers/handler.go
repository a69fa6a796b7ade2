// Пакет handlers — HTTP-обработчики API analysis-module.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/textstore/internal/analysis/service"
)

// APIHandler — основной обработчик API analysis-module.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	analysis *service.AnalysisService
	health   *HealthHandler
	logger   *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	analysis *service.AnalysisService,
	health *HealthHandler,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		analysis: analysis,
		health:   health,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// RegisterRoutes регистрирует маршруты API на chi router.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/analysis", func(r chi.Router) {
		r.Post("/{fileID}", h.RequestAnalysis)
		r.Get("/results/{fileID}", h.GetAnalysisResults)
	})

	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Handle("/metrics", promhttp.Handler())
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
