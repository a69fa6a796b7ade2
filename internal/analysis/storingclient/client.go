// Пакет storingclient — HTTP-клиент для получения содержимого файлов
// из storing-module.
package storingclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrContentUnavailable — содержимое файла недоступно: storing-module
// вернул не 200, недоступен по сети или не ответил за таймаут.
// Детали причины различаются только в логах.
var ErrContentUnavailable = errors.New("содержимое файла недоступно")

// maxContentSize — верхняя граница чтения ответа, с запасом над лимитом
// загрузки storing-module.
const maxContentSize = 16 << 20

// Client — HTTP-клиент storing-module.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент storing-module.
// baseURL — базовый URL storing-module (FA_STORING_URL).
// timeout — таймаут запроса содержимого (FA_STORING_FETCH_TIMEOUT).
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				// Пул idle-соединений для переиспользования
				MaxIdleConnsPerHost: 10,
			},
		},
		logger: logger.With(slog.String("component", "storing_client")),
	}
}

// FetchContent запрашивает содержимое файла у storing-module.
//
// Формат запроса: GET {baseURL}/api/v1/files/{fileID}/content
//
// Любой исход кроме 200 с читаемым телом сворачивается
// в ErrContentUnavailable: для вызывающего кода нет разницы между
// отсутствующим файлом, сетевой ошибкой и таймаутом.
func (c *Client) FetchContent(ctx context.Context, fileID string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/api/v1/files/%s/content", c.baseURL, fileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса содержимого: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Запрос содержимого к storing-module не удался",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		return nil, ErrContentUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("storing-module вернул не 200",
			slog.String("file_id", fileID),
			slog.Int("status", resp.StatusCode),
		)
		return nil, ErrContentUnavailable
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentSize))
	if err != nil {
		c.logger.Warn("Обрыв чтения содержимого от storing-module",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		return nil, ErrContentUnavailable
	}

	return data, nil
}

// BaseURL возвращает базовый URL storing-module.
// Используется для настройки dephealth.
func (c *Client) BaseURL() string {
	return c.baseURL
}
