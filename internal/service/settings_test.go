package service

import (
	"errors"
	"testing"

	"github.com/bigkaa/gocdnstore/internal/domain/model"
)

// TestUpdateConfig_Partial проверяет частичное обновление:
// незаданные поля не меняются.
func TestUpdateConfig_Partial(t *testing.T) {
	s := newTestStore(t)

	limit := int64(1024)
	cfg, err := s.UpdateConfig(testAdmin, ConfigUpdate{MaxFileSizeBytes: &limit})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if cfg.MaxFileSizeBytes != 1024 {
		t.Errorf("ожидался максимум 1024, получено %d", cfg.MaxFileSizeBytes)
	}
	if !cfg.UploadsEnabled {
		t.Error("незаданное поле uploads_enabled не должно меняться")
	}
}

// TestUpdateConfig_Invalid проверяет атомарность: при невалидном
// значении конфигурация не меняется.
func TestUpdateConfig_Invalid(t *testing.T) {
	s := newTestStore(t)
	before, _ := s.GetConfig(testAdmin)

	cases := []int64{0, -1, model.HardCapBytes + 1}
	for _, limit := range cases {
		v := limit
		if _, err := s.UpdateConfig(testAdmin, ConfigUpdate{MaxFileSizeBytes: &v}); !errors.Is(err, ErrValidation) {
			t.Errorf("максимум %d: ожидалась ErrValidation, получено %v", limit, err)
		}
	}

	bad := "-bad-domain-"
	if _, err := s.UpdateConfig(testAdmin, ConfigUpdate{Domain: &bad}); !errors.Is(err, ErrValidation) {
		t.Errorf("домен %q: ожидалась ErrValidation, получено %v", bad, err)
	}

	after, _ := s.GetConfig(testAdmin)
	if after.MaxFileSizeBytes != before.MaxFileSizeBytes || after.Domain != before.Domain {
		t.Error("невалидное обновление изменило конфигурацию")
	}
}

// TestUpdateConfig_NonAdmin проверяет ограничение прав.
func TestUpdateConfig_NonAdmin(t *testing.T) {
	s := newTestStore(t)

	limit := int64(1024)
	if _, err := s.UpdateConfig(testPublisher, ConfigUpdate{MaxFileSizeBytes: &limit}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ожидалась ErrUnauthorized, получено %v", err)
	}
}

// TestResetConfig проверяет сброс к значениям по умолчанию.
func TestResetConfig(t *testing.T) {
	s := newTestStore(t)

	limit := int64(1024)
	disabled := false
	if _, err := s.UpdateConfig(testAdmin, ConfigUpdate{MaxFileSizeBytes: &limit, UploadsEnabled: &disabled}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	cfg, err := s.ResetConfig(testAdmin)
	if err != nil {
		t.Fatalf("ResetConfig: %v", err)
	}
	if cfg.MaxFileSizeBytes != model.DefaultMaxFileSizeBytes {
		t.Errorf("ожидался максимум по умолчанию %d, получено %d",
			model.DefaultMaxFileSizeBytes, cfg.MaxFileSizeBytes)
	}
	if !cfg.UploadsEnabled {
		t.Error("после сброса загрузки должны быть включены")
	}

	if _, err := s.ResetConfig(testViewer); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("сброс не Admin'ом: ожидалась ErrUnauthorized, получено %v", err)
	}
}
