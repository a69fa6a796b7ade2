// Пакет hasher — вычисление контрольной суммы содержимого файла.
// SHA-256 в виде hex-строки в нижнем регистре (64 символа),
// детерминированной для одинакового содержимого.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Sum вычисляет SHA-256 хэш содержимого reader в streaming-режиме.
// Если reader поддерживает Seek, позиция сбрасывается в начало
// и до, и после хэширования — последующий потребитель (запись блоба)
// читает содержимое целиком.
// Ошибка чтения пробрасывается; частичный хэш не возвращается.
func Sum(r io.Reader) (string, error) {
	if seeker, ok := r.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("сброс позиции перед хэшированием: %w", err)
		}
	}

	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("чтение потока при хэшировании: %w", err)
	}

	if seeker, ok := r.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("сброс позиции после хэширования: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumString вычисляет SHA-256 хэш строки.
func SumString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
