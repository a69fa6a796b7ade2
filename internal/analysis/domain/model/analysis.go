// Пакет model — доменные модели analysis-module.
package model

import "time"

// AnalysisRecord — сохранённый результат анализа текста одного файла.
// Записи неизменяемы: после вставки строка никогда не обновляется,
// поэтому их можно кешировать без инвалидации.
type AnalysisRecord struct {
	// ID — UUID записи результата
	ID string
	// FileID — UUID проанализированного файла (уникален в таблице)
	FileID string
	// ParagraphCount — количество абзацев
	ParagraphCount int
	// WordCount — количество слов
	WordCount int
	// CharacterCount — количество символов (рун)
	CharacterCount int
	// IsDuplicateContent — признак повторного содержимого,
	// передаётся вызывающей стороной при постановке анализа
	IsDuplicateContent bool
	// AnalysisTimestamp — момент выполнения анализа (UTC)
	AnalysisTimestamp time.Time
}
