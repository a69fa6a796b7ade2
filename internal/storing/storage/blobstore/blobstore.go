// Пакет blobstore — операции с физическими блобами на диске.
// Блобы складываются в поддиректории по календарному дню приёма (UTC),
// имя файла — свежий UUID плюс оригинальное расширение. Путь блоба —
// функция аллокации, не содержимого: две загрузки одинакового содержимого
// получают два разных пути.
package blobstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound — блоб отсутствует на диске.
// Ожидаемое состояние (расхождение каталога и хранилища), не сбой.
var ErrNotFound = errors.New("блоб не найден")

// BlobStore — управление физическими блобами на диске.
type BlobStore struct {
	// dataDir — корневая директория хранения блобов (FS_DATA_DIR)
	dataDir string
}

// SaveResult — результат сохранения блоба на диск.
type SaveResult struct {
	// StoragePath — относительный путь блоба в dataDir (yyyymmdd/uuid.ext)
	StoragePath string
	// Size — размер записанных данных в байтах
	Size int64
}

// New создаёт новый BlobStore. Проверяет и создаёт корневую директорию
// если она не существует.
func New(dataDir string) (*BlobStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}

	return &BlobStore{dataDir: dataDir}, nil
}

// Save записывает данные из reader на диск байт-в-байт.
// Путь: {yyyymmdd}/{uuid}{ext}, где yyyymmdd — календарный день приёма (UTC),
// ext — расширение оригинального имени файла. Промежуточные директории
// создаются по необходимости. Если reader поддерживает Seek, позиция
// сбрасывается в начало перед копированием.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется; при сбое записи каталог-запись
// создаваться не должна (ответственность вызывающего).
func (bs *BlobStore) Save(r io.Reader, originalFilename string) (*SaveResult, error) {
	storagePath := allocateStoragePath(originalFilename)
	fullPath := filepath.Join(bs.dataDir, storagePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return nil, fmt.Errorf("создание директории блоба: %w", err)
	}

	if seeker, ok := r.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("сброс позиции потока: %w", err)
		}
	}

	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("создание временного файла: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("запись данных блоба: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("fsync блоба: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("закрытие файла блоба: %w", err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("атомарное переименование блоба: %w", err)
	}

	return &SaveResult{
		StoragePath: storagePath,
		Size:        size,
	}, nil
}

// Open открывает блоб для чтения и возвращает io.ReadCloser.
// storagePath — относительный путь блоба в dataDir.
// Возвращает ErrNotFound если блоб физически отсутствует —
// это нормальное ожидаемое состояние, не сбой хранилища.
// Вызывающий код обязан закрыть ReadCloser.
func (bs *BlobStore) Open(storagePath string) (io.ReadCloser, error) {
	fullPath := filepath.Join(bs.dataDir, storagePath)

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("открытие блоба %s: %w", storagePath, err)
	}

	return f, nil
}

// Delete удаляет блоб с диска. Best-effort: отсутствие блоба не ошибка.
func (bs *BlobStore) Delete(storagePath string) error {
	fullPath := filepath.Join(bs.dataDir, storagePath)

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("удаление блоба %s: %w", storagePath, err)
	}
	return nil
}

// Exists проверяет существование блоба на диске.
func (bs *BlobStore) Exists(storagePath string) bool {
	_, err := os.Stat(filepath.Join(bs.dataDir, storagePath))
	return err == nil
}

// Root возвращает путь к корневой директории блобов.
func (bs *BlobStore) Root() string {
	return bs.dataDir
}

// allocateStoragePath генерирует относительный путь нового блоба.
// Формат: {yyyymmdd}/{uuid}{ext}
// Пример: 20260901/a1b2c3d4-e5f6-7a8b-9c0d-e1f2a3b4c5d6.txt
func allocateStoragePath(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	bucket := time.Now().UTC().Format("20060102")
	return filepath.Join(bucket, uuid.New().String()+ext)
}
