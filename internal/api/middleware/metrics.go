// metrics.go — Prometheus HTTP метрики для CDN Store.
// Регистрирует метрики: cdn_http_requests_total, cdn_http_request_duration_seconds.
// Бизнес-метрики (cdn_files_total, cdn_content_bytes и др.) регистрируются
// здесь же и обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdn_http_requests_total",
			Help: "Общее количество HTTP-запросов к CDN Store",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cdn_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к CDN Store в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// FilesTotal — текущее количество активных файлов (gauge).
	FilesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cdn_files_total",
			Help: "Текущее количество активных файлов в хранилище",
		},
	)

	// ContentRecordsTotal — количество уникальных блоков содержимого (gauge).
	ContentRecordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cdn_content_records_total",
			Help: "Количество уникальных записей содержимого (после дедупликации)",
		},
	)

	// ContentBytes — объём хранимого содержимого (gauge).
	ContentBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cdn_content_bytes",
			Help: "Объём хранимого содержимого в байтах",
		},
	)

	// OperationsTotal — общее количество операций хранилища.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdn_operations_total",
			Help: "Общее количество операций хранилища",
		},
		[]string{"operation", "result"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем file_id на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

const filesPrefix = "/api/v1/files/"

// normalizePath заменяет идентификатор файла (64 hex-символа) на {id}
// для предотвращения взрывного роста кардинальности метрик.
// /api/v1/files/9f86d08…0015ad/content → /api/v1/files/{id}/content
func normalizePath(path string) string {
	if !strings.HasPrefix(path, filesPrefix) {
		return path
	}
	rest := path[len(filesPrefix):]
	id, suffix, _ := strings.Cut(rest, "/")
	if !isHexID(id) {
		return path
	}
	if suffix == "" {
		return filesPrefix + "{id}"
	}
	return filesPrefix + "{id}/" + suffix
}

// isHexID проверяет, что сегмент — hex-строка SHA-256 (64 символа).
func isHexID(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
