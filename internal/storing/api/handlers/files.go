// files.go — обработчики операций с файлами.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/bigkaa/textstore/internal/api/errors"
	"github.com/bigkaa/textstore/internal/storing/domain/model"
	"github.com/bigkaa/textstore/internal/storing/service"
)

// multipartOverhead — запас на boundary и заголовки multipart-формы
// сверх лимита самого файла.
const multipartOverhead = 64 << 10

// uploadResponse — тело ответа на загрузку файла.
type uploadResponse struct {
	FileID           string `json:"fileId"`
	IsNew            bool   `json:"isNew"`
	OriginalFileName string `json:"originalFileName"`
}

// fileMetadataResponse — метаданные файла в API-ответах.
type fileMetadataResponse struct {
	FileID           string `json:"fileId"`
	OriginalFileName string `json:"originalFileName"`
	ContentHash      string `json:"contentHash"`
	Size             int64  `json:"size"`
	ContentType      string `json:"contentType"`
	UploadedAt       string `json:"uploadedAt"`
}

// fileListResponse — страница списка файлов.
type fileListResponse struct {
	Files  []fileMetadataResponse `json:"files"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// UploadFile обрабатывает POST /api/v1/files.
// Принимает multipart-форму с единственным полем file.
// Допускаются только файлы .txt размером до лимита конфигурации.
func (h *APIHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	// Первый рубеж: обрываем чтение тела на уровне запроса
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32 MB buffer
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apierrors.FileTooLarge(w, fmt.Sprintf("Размер файла превышает лимит %d байт", h.maxFileSize))
			return
		}
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Поле 'file' обязательно")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".txt") {
		apierrors.InvalidFileType(w, "Допустимые типы файлов: .txt")
		return
	}

	// Второй рубеж: явная проверка размера самого файла
	if header.Size > h.maxFileSize {
		apierrors.FileTooLarge(w, fmt.Sprintf("Размер файла %d байт превышает лимит %d байт", header.Size, h.maxFileSize))
		return
	}

	result, err := h.uploads.Upload(r.Context(), service.UploadParams{
		Reader:           file,
		OriginalFilename: header.Filename,
		ContentType:      header.Header.Get("Content-Type"),
		Size:             header.Size,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidArgument):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrFileTooLarge):
			apierrors.FileTooLarge(w, err.Error())
		default:
			h.logger.Error("Ошибка загрузки файла",
				slog.String("filename", header.Filename),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(w, "Внутренняя ошибка при загрузке файла")
		}
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		FileID:           result.Record.FileID,
		IsNew:            result.IsNew,
		OriginalFileName: result.Record.OriginalFilename,
	})
}

// GetFileContent обрабатывает GET /api/v1/files/{fileID}/content.
// Отдаёт оригинальные байты файла потоком.
func (h *APIHandler) GetFileContent(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.fileIDParam(w, r)
	if !ok {
		return
	}

	record, rc, err := h.files.OpenContent(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.logger.Warn("Содержимое файла не найдено", slog.String("file_id", fileID))
			apierrors.NotFound(w, "Файл не найден")
			return
		}
		h.logger.Error("Ошибка чтения содержимого файла",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при чтении файла")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", record.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(record.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment",
		map[string]string{"filename": record.OriginalFilename}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		// Заголовки уже отправлены, остаётся только залогировать
		h.logger.Warn("Обрыв передачи содержимого файла",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
	}
}

// GetFileMetadata обрабатывает GET /api/v1/files/{fileID}.
func (h *APIHandler) GetFileMetadata(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.fileIDParam(w, r)
	if !ok {
		return
	}

	record, err := h.files.GetMetadata(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Файл не найден")
			return
		}
		h.logger.Error("Ошибка получения метаданных файла",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при получении метаданных")
		return
	}

	writeJSON(w, http.StatusOK, toMetadataResponse(record))
}

// ListFiles обрабатывает GET /api/v1/files?limit&offset.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	records, total, err := h.files.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Ошибка получения списка файлов", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка при получении списка файлов")
		return
	}

	resp := fileListResponse{
		Files:  make([]fileMetadataResponse, 0, len(records)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for _, record := range records {
		resp.Files = append(resp.Files, toMetadataResponse(record))
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteFile обрабатывает DELETE /api/v1/files/{fileID}.
func (h *APIHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.fileIDParam(w, r)
	if !ok {
		return
	}

	if err := h.files.Delete(r.Context(), fileID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Файл не найден")
			return
		}
		h.logger.Error("Ошибка удаления файла",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при удалении файла")
		return
	}

	w.WriteHeader(http.StatusNoContent)
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

func toMetadataResponse(record *model.FileRecord) fileMetadataResponse {
	return fileMetadataResponse{
		FileID:           record.FileID,
		OriginalFileName: record.OriginalFilename,
		ContentHash:      record.ContentHash,
		Size:             record.Size,
		ContentType:      record.ContentType,
		UploadedAt:       record.UploadedAt.UTC().Format("2006-01-02T15:04:05.000000Z07:00"),
	}
}

// queryInt читает целочисленный query-параметр с значением по умолчанию.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
