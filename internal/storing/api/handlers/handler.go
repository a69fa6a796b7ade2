// Пакет handlers — HTTP-обработчики API storing-module.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/textstore/internal/storing/service"
)

// APIHandler — основной обработчик API storing-module.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	maxFileSize int64
	uploads     *service.UploadService
	files       *service.FileService
	health      *HealthHandler
	logger      *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	maxFileSize int64,
	uploads *service.UploadService,
	files *service.FileService,
	health *HealthHandler,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		maxFileSize: maxFileSize,
		uploads:     uploads,
		files:       files,
		health:      health,
		logger:      logger.With(slog.String("component", "api_handler")),
	}
}

// RegisterRoutes регистрирует маршруты API на chi router.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/files", func(r chi.Router) {
		r.Post("/", h.UploadFile)
		r.Get("/", h.ListFiles)
		r.Get("/{fileID}", h.GetFileMetadata)
		r.Get("/{fileID}/content", h.GetFileContent)
		r.Delete("/{fileID}", h.DeleteFile)
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
