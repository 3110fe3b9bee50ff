// config.go — изменяемая во время работы конфигурация хранилища.
// В отличие от internal/config (параметры процесса из переменных
// окружения), эта структура меняется администраторами через API
// и входит в snapshot-файл.
package model

import (
	"fmt"
	"time"
)

// HardCapBytes — жёсткий верхний предел максимального размера файла (1 ГБ).
// Защита от вредоносной конфигурации, max_file_size_bytes не может его превысить.
const HardCapBytes = int64(1 << 30)

// DefaultMaxFileSizeBytes — максимальный размер файла по умолчанию (50 МБ).
const DefaultMaxFileSizeBytes = int64(50 * 1024 * 1024)

// StoreConfig — параметры хранилища, управляемые администраторами.
type StoreConfig struct {
	// MaxFileSizeBytes — максимальный размер загружаемого файла
	MaxFileSizeBytes int64 `json:"max_file_size_bytes"`

	// UploadsEnabled — разрешены ли новые загрузки
	UploadsEnabled bool `json:"uploads_enabled"`

	// Domain — доменное имя CDN для редиректов шлюза (опционально)
	Domain string `json:"domain,omitempty"`

	// LastUpdatedAt — время последнего изменения конфигурации (UTC)
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// DefaultStoreConfig возвращает конфигурацию по умолчанию.
func DefaultStoreConfig(now time.Time) StoreConfig {
	return StoreConfig{
		MaxFileSizeBytes: DefaultMaxFileSizeBytes,
		UploadsEnabled:   true,
		LastUpdatedAt:    now,
	}
}

// Validate проверяет согласованность конфигурации.
func (c *StoreConfig) Validate() error {
	if c.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("max_file_size_bytes должен быть положительным, получено %d", c.MaxFileSizeBytes)
	}
	if c.MaxFileSizeBytes > HardCapBytes {
		return fmt.Errorf("max_file_size_bytes %d превышает жёсткий предел %d", c.MaxFileSizeBytes, HardCapBytes)
	}
	if c.Domain != "" && !IsValidDomain(c.Domain) {
		return fmt.Errorf("некорректный формат domain: %q", c.Domain)
	}
	return nil
}

// IsValidDomain проверяет базовую корректность доменного имени:
// буквы, цифры, дефисы и точки, минимум одна точка,
// без дефиса в начале и в конце.
func IsValidDomain(domain string) bool {
	if domain == "" {
		return false
	}
	hasDot := false
	for _, ch := range domain {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-':
		case ch == '.':
			hasDot = true
		default:
			return false
		}
	}
	return hasDot && domain[0] != '-' && domain[len(domain)-1] != '-'
}
