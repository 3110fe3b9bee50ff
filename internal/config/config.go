// Пакет config — загрузка и валидация конфигурации CDN Store
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/gocdnstore/internal/domain/model"
	"github.com/bigkaa/gocdnstore/internal/storage/chunk"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации процесса CDN Store.
// Изменяемые администраторами во время работы параметры
// (max_file_size, uploads_enabled, domain) живут в model.StoreConfig
// и входят в snapshot-файл; здесь только параметры процесса.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Хранилище ---

	// Путь к snapshot-файлу состояния
	SnapshotPath string
	// Интервал периодического сохранения состояния
	SnapshotInterval time.Duration
	// Размер чанка при разбиении содержимого (байты)
	ChunkSize int
	// Ёмкость LRU-кэша метаданных (0 — кэш отключён)
	CacheSize int
	// Время жизни записи кэша метаданных
	CacheTTL time.Duration
	// Начальный максимальный размер файла (байты); применяется
	// только при первом запуске без snapshot-файла
	MaxFileSize int64
	// Начальное доменное имя CDN; применяется только при первом запуске
	Domain string

	// --- Аутентификация ---

	// Идентификатор первого Admin (используется при пустом реестре ролей)
	BootstrapAdmin string
	// URL JWKS endpoint; пустое значение включает dev-режим X-Identity
	JWKSURL string
	// Путь к CA-сертификату для JWKS (опционально)
	CACertPath string
	// Пропускать проверку TLS-сертификатов JWKS
	TLSSkipVerify bool
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// CDN_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("CDN_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("CDN_PORT: %w", err)
	}

	// CDN_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("CDN_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("CDN_LOG_LEVEL: %w", err)
	}

	// CDN_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CDN_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CDN_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Хранилище ---

	// CDN_SNAPSHOT_PATH — путь к snapshot-файлу (обязательная)
	cfg.SnapshotPath, err = getEnvRequired("CDN_SNAPSHOT_PATH")
	if err != nil {
		return nil, err
	}

	// CDN_SNAPSHOT_INTERVAL — интервал сохранения (по умолчанию 5m)
	cfg.SnapshotInterval, err = getEnvDuration("CDN_SNAPSHOT_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CDN_SNAPSHOT_INTERVAL: %w", err)
	}
	if cfg.SnapshotInterval <= 0 {
		return nil, fmt.Errorf("CDN_SNAPSHOT_INTERVAL: значение должно быть > 0")
	}

	// CDN_CHUNK_SIZE — размер чанка (по умолчанию 1 МБ)
	cfg.ChunkSize, err = getEnvInt("CDN_CHUNK_SIZE", chunk.DefaultChunkSize)
	if err != nil {
		return nil, fmt.Errorf("CDN_CHUNK_SIZE: %w", err)
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CDN_CHUNK_SIZE: значение должно быть > 0")
	}

	// CDN_CACHE_SIZE — ёмкость кэша метаданных (по умолчанию 1024)
	cfg.CacheSize, err = getEnvInt("CDN_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("CDN_CACHE_SIZE: %w", err)
	}

	// CDN_CACHE_TTL — TTL записи кэша (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("CDN_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CDN_CACHE_TTL: %w", err)
	}

	// CDN_MAX_FILE_SIZE — начальный максимум размера файла (по умолчанию 50 МБ)
	cfg.MaxFileSize, err = getEnvInt64("CDN_MAX_FILE_SIZE", model.DefaultMaxFileSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("CDN_MAX_FILE_SIZE: %w", err)
	}
	if cfg.MaxFileSize <= 0 || cfg.MaxFileSize > model.HardCapBytes {
		return nil, fmt.Errorf("CDN_MAX_FILE_SIZE: значение должно быть в диапазоне (0, %d]", model.HardCapBytes)
	}

	// CDN_DOMAIN — начальное доменное имя CDN (опционально)
	cfg.Domain = os.Getenv("CDN_DOMAIN")
	if cfg.Domain != "" && !model.IsValidDomain(cfg.Domain) {
		return nil, fmt.Errorf("CDN_DOMAIN: некорректный формат %q", cfg.Domain)
	}

	// --- Аутентификация ---

	// CDN_BOOTSTRAP_ADMIN — первый Admin (опционально)
	cfg.BootstrapAdmin = os.Getenv("CDN_BOOTSTRAP_ADMIN")

	// CDN_JWKS_URL — JWKS endpoint; пусто — dev-режим X-Identity
	cfg.JWKSURL = os.Getenv("CDN_JWKS_URL")

	// CDN_CA_CERT — CA-сертификат для JWKS (опционально)
	cfg.CACertPath = os.Getenv("CDN_CA_CERT")

	// CDN_TLS_SKIP_VERIFY — пропуск проверки TLS (по умолчанию false)
	cfg.TLSSkipVerify, err = getEnvBool("CDN_TLS_SKIP_VERIFY", false)
	if err != nil {
		return nil, fmt.Errorf("CDN_TLS_SKIP_VERIFY: %w", err)
	}

	// CDN_JWKS_CLIENT_TIMEOUT — таймаут клиента JWKS (по умолчанию 10s)
	cfg.JWKSClientTimeout, err = getEnvDuration("CDN_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CDN_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	// CDN_JWKS_REFRESH_INTERVAL — интервал обновления ключей (по умолчанию 1h)
	cfg.JWKSRefreshInterval, err = getEnvDuration("CDN_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CDN_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// CDN_JWT_LEEWAY — отклонение времени при проверке JWT (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("CDN_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CDN_JWT_LEEWAY: %w", err)
	}

	// --- HTTP Server Timeouts ---

	// CDN_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("CDN_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CDN_HTTP_READ_TIMEOUT: %w", err)
	}

	// CDN_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("CDN_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CDN_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// CDN_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("CDN_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CDN_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	// CDN_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("CDN_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CDN_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 из переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
