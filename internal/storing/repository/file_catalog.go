package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/textstore/internal/storing/domain/model"
)

// FileCatalogRepository — интерфейс CRUD для таблицы file_catalog.
type FileCatalogRepository interface {
	// Create добавляет новую запись о файле в каталог.
	Create(ctx context.Context, f *model.FileRecord) error
	// GetByID возвращает запись по UUID файла.
	GetByID(ctx context.Context, fileID string) (*model.FileRecord, error)
	// List возвращает записи в порядке убывания времени загрузки.
	List(ctx context.Context, limit, offset int) ([]*model.FileRecord, error)
	// Count возвращает общее количество записей.
	Count(ctx context.Context) (int, error)
	// Delete удаляет запись каталога.
	Delete(ctx context.Context, fileID string) error
}

// fileCatalogRepo — реализация FileCatalogRepository.
type fileCatalogRepo struct {
	db DBTX
}

// NewFileCatalogRepository создаёт репозиторий каталога файлов.
func NewFileCatalogRepository(db DBTX) FileCatalogRepository {
	return &fileCatalogRepo{db: db}
}

func (r *fileCatalogRepo) Create(ctx context.Context, f *model.FileRecord) error {
	query := `
		INSERT INTO file_catalog (file_id, original_filename, content_hash,
			storage_path, size, content_type, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		f.FileID, f.OriginalFilename, f.ContentHash,
		f.StoragePath, f.Size, f.ContentType, f.UploadedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: файл с таким ID уже зарегистрирован", ErrConflict)
		}
		return fmt.Errorf("ошибка добавления файла в каталог: %w", err)
	}
	return nil
}

func (r *fileCatalogRepo) GetByID(ctx context.Context, fileID string) (*model.FileRecord, error) {
	query := `
		SELECT file_id, original_filename, content_hash, storage_path,
			size, content_type, uploaded_at
		FROM file_catalog
		WHERE file_id = $1`

	f := &model.FileRecord{}
	err := r.db.QueryRow(ctx, query, fileID).Scan(
		&f.FileID, &f.OriginalFilename, &f.ContentHash, &f.StoragePath,
		&f.Size, &f.ContentType, &f.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

func (r *fileCatalogRepo) List(ctx context.Context, limit, offset int) ([]*model.FileRecord, error) {
	query := `
		SELECT file_id, original_filename, content_hash, storage_path,
			size, content_type, uploaded_at
		FROM file_catalog
		ORDER BY uploaded_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка файлов: %w", err)
	}
	defer rows.Close()

	var files []*model.FileRecord
	for rows.Next() {
		f := &model.FileRecord{}
		if err := rows.Scan(
			&f.FileID, &f.OriginalFilename, &f.ContentHash, &f.StoragePath,
			&f.Size, &f.ContentType, &f.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации по строкам: %w", err)
	}
	return files, nil
}

func (r *fileCatalogRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM file_catalog`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта файлов: %w", err)
	}
	return count, nil
}

func (r *fileCatalogRepo) Delete(ctx context.Context, fileID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM file_catalog WHERE file_id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("ошибка удаления файла из каталога: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
