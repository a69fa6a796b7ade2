// Пакет model — доменные модели storing-module.
// FileRecord — маппинг таблицы file_catalog.
package model

import "time"

// DefaultContentType — тип содержимого по умолчанию для текстовых файлов.
const DefaultContentType = "text/plain"

// FileRecord — запись файла в каталоге file_catalog.
// Создаётся ровно один раз при успешной загрузке и не обновляется.
type FileRecord struct {
	// FileID — UUID файла (генерируется при загрузке)
	FileID string
	// OriginalFilename — оригинальное имя файла
	OriginalFilename string
	// ContentHash — SHA-256 контрольная сумма содержимого (64 hex-символа).
	// Сохраняется как метаданные; дедупликация по хэшу не выполняется —
	// каждая загрузка создаёт новую запись.
	ContentHash string
	// StoragePath — относительный путь блоба в data dir, уникален per-запись
	StoragePath string
	// Size — размер файла в байтах
	Size int64
	// ContentType — MIME-тип файла (по умолчанию text/plain)
	ContentType string
	// UploadedAt — время загрузки (UTC)
	UploadedAt time.Time
}
