// delete.go — удаление и деактивация файлов.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/domain/rbac"
	"github.com/bigkaa/gocdnstore/internal/storage/index"
)

// Delete удаляет файл: метаданные из индекса и ссылку на содержимое.
// Содержимое физически удаляется только когда на него не осталось
// ни одной ссылки. Доступ: владелец файла либо роль с правом delete_file.
func (s *Store) Delete(caller, fileID string) error {
	if err := validateIdentity(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.idx.Get(fileID)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return fmt.Errorf("%w: файл %s", ErrNotFound, fileID)
		}
		return fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}

	if !meta.IsOwnedBy(caller) {
		if err := s.perms.Authorize(caller, rbac.ActionDeleteFile); err != nil {
			middleware.OperationsTotal.WithLabelValues("delete", "denied").Inc()
			return fmt.Errorf("%w: delete_file для %s", ErrUnauthorized, caller)
		}
	}

	removed, err := s.idx.Delete(fileID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	s.invalidateMeta(fileID)

	if err := s.content.Release(removed.ContentHash); err != nil {
		// Индекс уже согласован, запись в журнал для последующего verify
		s.logger.Error("Ошибка освобождения содержимого",
			slog.String("file_id", fileID),
			slog.String("content_hash", removed.ContentHash),
			slog.String("error", err.Error()),
		)
	}

	middleware.OperationsTotal.WithLabelValues("delete", "success").Inc()
	middleware.FilesTotal.Set(float64(s.idx.CountActive()))
	middleware.ContentRecordsTotal.Set(float64(s.content.Len()))
	middleware.ContentBytes.Set(float64(s.content.TotalBytes()))

	s.logger.Info("Файл удалён",
		slog.String("file_id", fileID),
		slog.String("content_hash", removed.ContentHash),
		slog.String("deleted_by", caller),
	)
	return nil
}

// Deactivate скрывает файл из выдачи без удаления содержимого.
// Только для Admin.
func (s *Store) Deactivate(caller, fileID string) error {
	return s.setActive(caller, fileID, false)
}

// Reactivate возвращает деактивированный файл в выдачу. Только для Admin.
func (s *Store) Reactivate(caller, fileID string) error {
	return s.setActive(caller, fileID, true)
}

func (s *Store) setActive(caller, fileID string, active bool) error {
	if err := validateIdentity(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.perms.RequireAdmin(caller); err != nil {
		return fmt.Errorf("%w: операция доступна только Admin", ErrUnauthorized)
	}
	if err := s.idx.SetActive(fileID, active); err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return fmt.Errorf("%w: файл %s", ErrNotFound, fileID)
		}
		return fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	s.invalidateMeta(fileID)
	middleware.FilesTotal.Set(float64(s.idx.CountActive()))

	s.logger.Info("Изменена видимость файла",
		slog.String("file_id", fileID),
		slog.Bool("active", active),
		slog.String("changed_by", caller),
	)
	return nil
}
