// download.go — выдача содержимого и метаданных файла.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/domain/model"
	"github.com/bigkaa/gocdnstore/internal/domain/rbac"
	"github.com/bigkaa/gocdnstore/internal/storage/index"
)

// Download возвращает метаданные и содержимое активного файла.
// Доступ: владелец файла либо роль с правом download_file.
func (s *Store) Download(caller, fileID string) (*model.FileMetadata, []byte, error) {
	if err := validateIdentity(caller); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.activeMeta(caller, fileID, rbac.ActionDownloadFile, "download")
	if err != nil {
		return nil, nil, err
	}

	data, err := s.content.Get(meta.ContentHash)
	if err != nil {
		// Метаданные есть, содержимое пропало: нарушена внутренняя согласованность
		s.logger.Error("Содержимое отсутствует при существующих метаданных",
			slog.String("file_id", fileID),
			slog.String("content_hash", meta.ContentHash),
		)
		middleware.OperationsTotal.WithLabelValues("download", "error").Inc()
		return nil, nil, fmt.Errorf("%w: содержимое %s недоступно", ErrInternal, meta.ContentHash)
	}

	middleware.OperationsTotal.WithLabelValues("download", "success").Inc()
	return meta, data, nil
}

// GetMetadata возвращает метаданные активного файла без содержимого.
// Доступ: владелец файла либо роль с правом view_metadata.
func (s *Store) GetMetadata(caller, fileID string) (*model.FileMetadata, error) {
	if err := validateIdentity(caller); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.activeMeta(caller, fileID, rbac.ActionViewMetadata, "get_metadata")
}

// activeMeta — общий путь чтения: находит файл, проверяет активность
// и право доступа (владелец проходит без проверки ролей).
// Вызывается под мьютексом сервиса.
func (s *Store) activeMeta(caller, fileID string, action rbac.Action, op string) (*model.FileMetadata, error) {
	meta, err := s.lookupMeta(fileID)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return nil, fmt.Errorf("%w: файл %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	if !meta.Active {
		// Деактивированный файл для внешних вызовов неотличим от отсутствующего
		return nil, fmt.Errorf("%w: файл %s", ErrNotFound, fileID)
	}
	if meta.IsOwnedBy(caller) {
		return meta, nil
	}
	if err := s.perms.Authorize(caller, action); err != nil {
		middleware.OperationsTotal.WithLabelValues(op, "denied").Inc()
		return nil, fmt.Errorf("%w: %s для %s", ErrUnauthorized, action, caller)
	}
	return meta, nil
}
