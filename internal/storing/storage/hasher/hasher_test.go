package hasher

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// Эталонные SHA-256 дайджесты.
const (
	emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	abcSHA256   = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
)

func TestSum(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "пустой поток", data: "", want: emptySHA256},
		{name: "abc", data: "abc", want: abcSHA256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sum(strings.NewReader(tt.data))
			if err != nil {
				t.Fatalf("Sum() ошибка: %v", err)
			}
			if got != tt.want {
				t.Errorf("Sum() = %q, ожидалось %q", got, tt.want)
			}
		})
	}
}

func TestSumResetsSeeker(t *testing.T) {
	reader := bytes.NewReader([]byte("содержимое для повторного чтения"))

	// Сдвигаем позицию — Sum обязан начать с нуля
	if _, err := reader.Seek(5, io.SeekStart); err != nil {
		t.Fatalf("Seek() ошибка: %v", err)
	}

	digest, err := Sum(reader)
	if err != nil {
		t.Fatalf("Sum() ошибка: %v", err)
	}
	if digest != SumString("содержимое для повторного чтения") {
		t.Error("дайджест не совпадает с хешем полного содержимого")
	}

	// После Sum позиция возвращена в начало — поток читается целиком
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() ошибка: %v", err)
	}
	if string(data) != "содержимое для повторного чтения" {
		t.Errorf("после Sum() прочитано %q, ожидалось полное содержимое", data)
	}
}

func TestSumNonSeeker(t *testing.T) {
	// io.Reader без Seek: хешируется то, что осталось в потоке
	digest, err := Sum(io.LimitReader(strings.NewReader("abcdef"), 3))
	if err != nil {
		t.Fatalf("Sum() ошибка: %v", err)
	}
	if digest != abcSHA256 {
		t.Errorf("Sum() = %q, ожидалось %q", digest, abcSHA256)
	}
}

func TestSumString(t *testing.T) {
	if got := SumString(""); got != emptySHA256 {
		t.Errorf("SumString(\"\") = %q, ожидалось %q", got, emptySHA256)
	}
	if got := SumString("abc"); got != abcSHA256 {
		t.Errorf("SumString(\"abc\") = %q, ожидалось %q", got, abcSHA256)
	}
}
