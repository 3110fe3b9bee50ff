// settings.go — чтение и изменение конфигурации хранилища.
package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/domain/model"
)

// ConfigUpdate — частичное обновление конфигурации.
// Нулевой указатель означает «не менять поле».
type ConfigUpdate struct {
	MaxFileSizeBytes *int64  `json:"max_file_size_bytes,omitempty"`
	UploadsEnabled   *bool   `json:"uploads_enabled,omitempty"`
	Domain           *string `json:"domain,omitempty"`
}

// GetConfig возвращает текущую конфигурацию хранилища.
// Чтение конфигурации доступно любому аутентифицированному вызову.
func (s *Store) GetConfig(caller string) (model.StoreConfig, error) {
	if err := validateIdentity(caller); err != nil {
		return model.StoreConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings, nil
}

// UpdateConfig частично обновляет конфигурацию. Только для Admin.
// Новая конфигурация валидируется целиком до применения:
// при ошибке текущая конфигурация не меняется.
func (s *Store) UpdateConfig(caller string, update ConfigUpdate) (model.StoreConfig, error) {
	if err := validateIdentity(caller); err != nil {
		return model.StoreConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.perms.RequireAdmin(caller); err != nil {
		middleware.OperationsTotal.WithLabelValues("update_config", "denied").Inc()
		return model.StoreConfig{}, fmt.Errorf("%w: изменение конфигурации доступно только Admin", ErrUnauthorized)
	}

	next := s.settings
	if update.MaxFileSizeBytes != nil {
		next.MaxFileSizeBytes = *update.MaxFileSizeBytes
	}
	if update.UploadsEnabled != nil {
		next.UploadsEnabled = *update.UploadsEnabled
	}
	if update.Domain != nil {
		next.Domain = *update.Domain
	}
	next.LastUpdatedAt = time.Now().UTC()

	if err := next.Validate(); err != nil {
		return model.StoreConfig{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	s.settings = next
	middleware.OperationsTotal.WithLabelValues("update_config", "success").Inc()
	s.logger.Info("Конфигурация обновлена",
		slog.Int64("max_file_size_bytes", next.MaxFileSizeBytes),
		slog.Bool("uploads_enabled", next.UploadsEnabled),
		slog.String("domain", next.Domain),
		slog.String("updated_by", caller),
	)
	return s.settings, nil
}

// ResetConfig возвращает конфигурацию к значениям по умолчанию.
// Только для Admin.
func (s *Store) ResetConfig(caller string) (model.StoreConfig, error) {
	if err := validateIdentity(caller); err != nil {
		return model.StoreConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.perms.RequireAdmin(caller); err != nil {
		return model.StoreConfig{}, fmt.Errorf("%w: сброс конфигурации доступен только Admin", ErrUnauthorized)
	}

	s.settings = model.DefaultStoreConfig(time.Now().UTC())
	s.logger.Info("Конфигурация сброшена к значениям по умолчанию",
		slog.String("reset_by", caller),
	)
	return s.settings, nil
}
