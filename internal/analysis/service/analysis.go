// analysis.go — оркестрация анализа текста: кеш, каталог,
// получение содержимого из storing-module, подсчёт статистики.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/textstore/internal/analysis/domain/model"
	"github.com/bigkaa/textstore/internal/analysis/repository"
	"github.com/bigkaa/textstore/internal/analysis/storingclient"
	"github.com/bigkaa/textstore/internal/analysis/textstat"
)

// ErrNotFound — результат анализа или содержимое файла не найдено.
var ErrNotFound = errors.New("результат анализа не найден")

// ContentFetcher — источник содержимого файлов.
// Реализуется storingclient.Client.
type ContentFetcher interface {
	FetchContent(ctx context.Context, fileID string) ([]byte, error)
}

// AnalysisService — сервис анализа текста.
type AnalysisService struct {
	results repository.AnalysisResultRepository
	fetcher ContentFetcher
	cache   *CacheService
	metrics *Metrics
	logger  *slog.Logger
}

// NewAnalysisService создаёт сервис анализа.
func NewAnalysisService(
	results repository.AnalysisResultRepository,
	fetcher ContentFetcher,
	cache *CacheService,
	metrics *Metrics,
	logger *slog.Logger,
) *AnalysisService {
	return &AnalysisService{
		results: results,
		fetcher: fetcher,
		cache:   cache,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "analysis_service")),
	}
}

// GetOrCompute возвращает результат анализа файла, вычисляя его при
// необходимости.
//
// Поток:
//  1. LRU-кеш
//  2. Каталог результатов
//  3. Содержимое из storing-module (недоступно → ErrNotFound,
//     ничего не сохраняется)
//  4. Подсчёт статистики, вставка записи
//
// isNewContent — признак от вызывающей стороны; сохраняется
// инвертированным как IsDuplicateContent. Конкурентная вставка для
// одного файла разрешается уникальным индексом: проигравший повторно
// читает строку победителя.
func (s *AnalysisService) GetOrCompute(ctx context.Context, fileID string, isNewContent bool) (*model.AnalysisRecord, error) {
	if cached, ok := s.cache.Get(fileID); ok {
		return cached, nil
	}

	existing, err := s.results.GetByFileID(ctx, fileID)
	if err == nil {
		s.cache.Set(fileID, existing)
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("ошибка чтения каталога результатов: %w", err)
	}

	content, err := s.fetcher.FetchContent(ctx, fileID)
	if err != nil {
		if errors.Is(err, storingclient.ErrContentUnavailable) {
			s.metrics.AnalysesTotal.WithLabelValues("content_unavailable").Inc()
			s.logger.Warn("Содержимое файла недоступно, анализ не выполнен",
				slog.String("file_id", fileID),
			)
			return nil, ErrNotFound
		}
		s.metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ошибка получения содержимого: %w", err)
	}

	start := time.Now()
	stats := textstat.Analyze(string(content))
	s.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	record := &model.AnalysisRecord{
		ID:                 uuid.New().String(),
		FileID:             fileID,
		ParagraphCount:     stats.Paragraphs,
		WordCount:          stats.Words,
		CharacterCount:     stats.Characters,
		IsDuplicateContent: !isNewContent,
		AnalysisTimestamp:  time.Now().UTC(),
	}

	if err := s.results.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Конкурентный анализ того же файла успел первым —
			// возвращаем его строку
			winner, readErr := s.results.GetByFileID(ctx, fileID)
			if readErr != nil {
				return nil, fmt.Errorf("ошибка чтения результата после конфликта: %w", readErr)
			}
			s.cache.Set(fileID, winner)
			s.metrics.AnalysesTotal.WithLabelValues("concurrent_duplicate").Inc()
			return winner, nil
		}
		s.metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ошибка сохранения результата анализа: %w", err)
	}

	s.cache.Set(fileID, record)
	s.metrics.AnalysesTotal.WithLabelValues("success").Inc()
	s.logger.Info("Анализ выполнен",
		slog.String("file_id", fileID),
		slog.Int("paragraphs", record.ParagraphCount),
		slog.Int("words", record.WordCount),
		slog.Int("characters", record.CharacterCount),
		slog.Bool("is_duplicate_content", record.IsDuplicateContent),
	)

	return record, nil
}

// GetExisting возвращает сохранённый результат анализа без вычисления.
func (s *AnalysisService) GetExisting(ctx context.Context, fileID string) (*model.AnalysisRecord, error) {
	if cached, ok := s.cache.Get(fileID); ok {
		return cached, nil
	}

	record, err := s.results.GetByFileID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения каталога результатов: %w", err)
	}

	s.cache.Set(fileID, record)
	return record, nil
}
