// Пакет service — бизнес-логика analysis-module.
// CacheService — LRU-кеш результатов анализа с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/textstore/internal/analysis/domain/model"
)

// Prometheus-метрики кеша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fa_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кеш результатов анализа.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fa_cache_misses_total",
		Help: "Общее количество промахов LRU-кеша результатов анализа.",
	})
)

// CacheService — LRU-кеш результатов анализа с автоматическим TTL.
// Записи анализа неизменяемы, поэтому кеш никогда не инвалидируется
// вручную — устаревание только по TTL и вытеснению.
type CacheService struct {
	cache *expirable.LRU[string, *model.AnalysisRecord]
}

// NewCacheService создаёт LRU-кеш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кеше.
// ttl — время жизни записи после добавления.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[string, *model.AnalysisRecord](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает результат анализа из кеша по fileID.
// Возвращает (запись, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *CacheService) Get(fileID string) (*model.AnalysisRecord, bool) {
	val, ok := c.cache.Get(fileID)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет запись в кеш.
func (c *CacheService) Set(fileID string, record *model.AnalysisRecord) {
	c.cache.Add(fileID, record)
}
