// Пакет textstat — подсчёт статистики текста:
// абзацы, слова, символы.
package textstat

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Stats — результат анализа текста.
type Stats struct {
	// Paragraphs — количество абзацев
	Paragraphs int
	// Words — количество слов
	Words int
	// Characters — количество символов (рун)
	Characters int
}

// paragraphSep — разделитель абзацев: две и более пустые строки подряд.
var paragraphSep = regexp.MustCompile(`(\r\n|\n){2,}`)

// wordDelimiters — разделители слов: пробельные символы и знаки препинания.
const wordDelimiters = " \r\n\t.,;:!?()[]{}\"'"

// Analyze считает статистику текста.
//
// Абзацы разделяются пустыми строками; непустой текст всегда содержит
// хотя бы один абзац. Слова разделяются пробельными символами и знаками
// препинания. Символы считаются по рунам исходного текста, включая
// пробелы и переводы строк.
func Analyze(text string) Stats {
	return Stats{
		Paragraphs: countParagraphs(text),
		Words:      countWords(text),
		Characters: utf8.RuneCountInString(text),
	}
}

// countParagraphs считает абзацы в тексте.
func countParagraphs(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}

	count := 0
	for _, segment := range paragraphSep.Split(trimmed, -1) {
		if strings.TrimSpace(segment) != "" {
			count++
		}
	}
	if count == 0 {
		// Непустой текст — минимум один абзац
		return 1
	}
	return count
}

// countWords считает слова в тексте.
func countWords(text string) int {
	count := 0
	for _, token := range strings.FieldsFunc(text, isWordDelimiter) {
		if token != "" {
			count++
		}
	}
	return count
}

func isWordDelimiter(r rune) bool {
	return strings.ContainsRune(wordDelimiters, r)
}
