// analysis.go — обработчики операций анализа.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/bigkaa/textstore/internal/api/errors"
	"github.com/bigkaa/textstore/internal/analysis/domain/model"
	"github.com/bigkaa/textstore/internal/analysis/service"
)

// requestAnalysisBody — тело запроса на анализ.
type requestAnalysisBody struct {
	IsNewContent *bool `json:"isNewContent"`
}

// analysisResponse — результат анализа в API-ответах.
type analysisResponse struct {
	ID                 string `json:"id"`
	FileID             string `json:"fileId"`
	ParagraphCount     int    `json:"paragraphCount"`
	WordCount          int    `json:"wordCount"`
	CharacterCount     int    `json:"characterCount"`
	IsDuplicateContent bool   `json:"isDuplicateContent"`
	AnalysisTimestamp  string `json:"analysisTimestamp"`
}

func toAnalysisResponse(record *model.AnalysisRecord) analysisResponse {
	return analysisResponse{
		ID:                 record.ID,
		FileID:             record.FileID,
		ParagraphCount:     record.ParagraphCount,
		WordCount:          record.WordCount,
		CharacterCount:     record.CharacterCount,
		IsDuplicateContent: record.IsDuplicateContent,
		AnalysisTimestamp:  record.AnalysisTimestamp.UTC().Format(time.RFC3339Nano),
	}
}

// RequestAnalysis обрабатывает POST /api/v1/analysis/{fileID}.
// Возвращает сохранённый результат или выполняет анализ,
// запросив содержимое у storing-module.
func (h *APIHandler) RequestAnalysis(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.fileIDParam(w, r)
	if !ok {
		return
	}

	var body requestAnalysisBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON с полем isNewContent")
		return
	}
	if body.IsNewContent == nil {
		apierrors.ValidationError(w, "Поле isNewContent обязательно")
		return
	}

	record, err := h.analysis.GetOrCompute(r.Context(), fileID, *body.IsNewContent)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.logger.Warn("Содержимое файла недоступно для анализа", slog.String("file_id", fileID))
			apierrors.NotFound(w, "Содержимое файла недоступно")
			return
		}
		h.logger.Error("Ошибка выполнения анализа",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при выполнении анализа")
		return
	}

	writeJSON(w, http.StatusOK, toAnalysisResponse(record))
}

// GetAnalysisResults обрабатывает GET /api/v1/analysis/results/{fileID}.
// Возвращает только сохранённый результат, без вычисления.
func (h *APIHandler) GetAnalysisResults(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.fileIDParam(w, r)
	if !ok {
		return
	}

	record, err := h.analysis.GetExisting(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Результат анализа не найден")
			return
		}
		h.logger.Error("Ошибка получения результата анализа",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при получении результата")
		return
	}

	writeJSON(w, http.StatusOK, toAnalysisResponse(record))
}

// fileIDParam извлекает и валидирует UUID файла из пути.
func (h *APIHandler) fileIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	fileID := chi.URLParam(r, "fileID")
	if _, err := uuid.Parse(fileID); err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор файла")
		return "", false
	}
	return fileID, true
}
