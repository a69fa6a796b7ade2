package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/textstore/internal/analysis/domain/model"
)

// AnalysisResultRepository — интерфейс доступа к таблице analysis_results.
type AnalysisResultRepository interface {
	// Create вставляет результат анализа. Повторная вставка
	// для того же file_id возвращает ErrConflict.
	Create(ctx context.Context, r *model.AnalysisRecord) error
	// GetByFileID возвращает результат анализа по UUID файла.
	GetByFileID(ctx context.Context, fileID string) (*model.AnalysisRecord, error)
}

// analysisResultRepo — реализация AnalysisResultRepository.
type analysisResultRepo struct {
	db DBTX
}

// NewAnalysisResultRepository создаёт репозиторий результатов анализа.
func NewAnalysisResultRepository(db DBTX) AnalysisResultRepository {
	return &analysisResultRepo{db: db}
}

func (r *analysisResultRepo) Create(ctx context.Context, rec *model.AnalysisRecord) error {
	query := `
		INSERT INTO analysis_results (id, file_id, paragraph_count, word_count,
			character_count, is_duplicate_content, analysis_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.FileID, rec.ParagraphCount, rec.WordCount,
		rec.CharacterCount, rec.IsDuplicateContent, rec.AnalysisTimestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: результат для файла уже сохранён", ErrConflict)
		}
		return fmt.Errorf("ошибка сохранения результата анализа: %w", err)
	}
	return nil
}

func (r *analysisResultRepo) GetByFileID(ctx context.Context, fileID string) (*model.AnalysisRecord, error) {
	query := `
		SELECT id, file_id, paragraph_count, word_count, character_count,
			is_duplicate_content, analysis_timestamp
		FROM analysis_results
		WHERE file_id = $1`

	rec := &model.AnalysisRecord{}
	err := r.db.QueryRow(ctx, query, fileID).Scan(
		&rec.ID, &rec.FileID, &rec.ParagraphCount, &rec.WordCount,
		&rec.CharacterCount, &rec.IsDuplicateContent, &rec.AnalysisTimestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения результата анализа: %w", err)
	}
	return rec, nil
}
