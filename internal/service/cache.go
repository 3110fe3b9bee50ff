package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gocdnstore/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cdn_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш метаданных.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cdn_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша метаданных.",
	})
)

// Cache — LRU-кэш метаданных файлов с автоматическим TTL.
// Экземпляр принадлежит одному Store, внешней синхронизации не требует:
// expirable.LRU потокобезопасен сам по себе.
type Cache struct {
	cache *expirable.LRU[string, *model.FileMetadata]
}

// NewCache создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кэше.
// ttl — время жизни записи после добавления.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	cache := expirable.NewLRU[string, *model.FileMetadata](maxSize, nil, ttl)
	return &Cache{cache: cache}
}

// Get возвращает метаданные из кэша по fileID.
// Возвращает (запись, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *Cache) Get(fileID string) (*model.FileMetadata, bool) {
	val, ok := c.cache.Get(fileID)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *Cache) Set(fileID string, meta *model.FileMetadata) {
	c.cache.Add(fileID, meta)
}

// Delete удаляет запись из кэша после мутации метаданных.
func (c *Cache) Delete(fileID string) {
	c.cache.Remove(fileID)
}

// Purge очищает кэш целиком. Используется после Restore.
func (c *Cache) Purge() {
	c.cache.Purge()
}
