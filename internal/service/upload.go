// upload.go — загрузка файлов: авторизация, чанкование,
// контроль целостности и дедупликация содержимого.
package service

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/domain/model"
	"github.com/bigkaa/gocdnstore/internal/domain/rbac"
	"github.com/bigkaa/gocdnstore/internal/storage/chunk"
	"github.com/bigkaa/gocdnstore/internal/storage/hash"
)

// UploadParams — параметры загрузки файла.
type UploadParams struct {
	// Caller — идентификатор вызывающей стороны (sub из JWT)
	Caller string
	// OriginalFilename — оригинальное имя файла
	OriginalFilename string
	// Content — содержимое файла целиком
	Content []byte
}

// Upload загружает файл в хранилище.
//
// Поток:
//  1. Авторизация ActionUploadFile
//  2. Проверка uploads_enabled и размера
//  3. Разбиение на чанки + self-check сборки
//  4. Дедупликация содержимого в ContentStore
//  5. Генерация file_id и запись метаданных в индекс
//
// При ошибке записи в индекс — откат ссылки в ContentStore.
// Возвращает метаданные созданного файла.
func (s *Store) Upload(params UploadParams) (*model.FileMetadata, error) {
	if err := validateIdentity(params.Caller); err != nil {
		return nil, err
	}
	if err := validateFilename(params.OriginalFilename); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Авторизация
	if err := s.perms.Authorize(params.Caller, rbac.ActionUploadFile); err != nil {
		middleware.OperationsTotal.WithLabelValues("upload", "denied").Inc()
		return nil, fmt.Errorf("%w: upload_file для %s", ErrUnauthorized, params.Caller)
	}

	// 2. Проверка конфигурации
	if !s.settings.UploadsEnabled {
		return nil, fmt.Errorf("%w: загрузка файлов отключена", ErrValidation)
	}
	if len(params.Content) == 0 {
		return nil, fmt.Errorf("%w: пустое содержимое", ErrValidation)
	}
	if int64(len(params.Content)) > s.settings.MaxFileSizeBytes {
		return nil, fmt.Errorf("%w: размер файла %d байт превышает максимум %d байт",
			ErrValidation, len(params.Content), s.settings.MaxFileSizeBytes)
	}

	// 3. Чанкование и контроль целостности до записи
	chunks, err := chunk.Split(params.Content, s.chunkSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	reassembled, err := chunk.Reassemble(chunks)
	if err != nil || !bytes.Equal(reassembled, params.Content) {
		s.logger.Error("Содержимое не прошло проверку сборки из чанков",
			slog.String("filename", params.OriginalFilename),
			slog.Int("chunks", len(chunks)),
		)
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return nil, fmt.Errorf("%w: расхождение при сборке чанков", ErrInternal)
	}
	chunkHashes, err := chunk.HashEach(chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}

	// 4. Дедупликация содержимого
	digest, created, err := s.content.Put(params.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	// 5. Метаданные
	fileID, err := hash.FileID(digest, hash.NewDisambiguator())
	if err != nil {
		// Откатываем ссылку на содержимое
		_ = s.content.Release(digest)
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}
	meta := &model.FileMetadata{
		FileID:           fileID,
		OriginalFilename: params.OriginalFilename,
		Owner:            params.Caller,
		Size:             int64(len(params.Content)),
		ContentHash:      digest,
		ChunkCount:       len(chunks),
		ChunkSize:        s.chunkSize,
		ChunkHashes:      chunkHashes,
		UploadedAt:       time.Now().UTC(),
		Active:           true,
	}

	if err := s.idx.Insert(meta); err != nil {
		// Откатываем ссылку на содержимое
		_ = s.content.Release(digest)
		s.logger.Error("Ошибка записи метаданных, ссылка отозвана",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		middleware.OperationsTotal.WithLabelValues("upload", "error").Inc()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateFile, err.Error())
	}

	middleware.OperationsTotal.WithLabelValues("upload", "success").Inc()
	middleware.FilesTotal.Set(float64(s.idx.CountActive()))
	middleware.ContentRecordsTotal.Set(float64(s.content.Len()))
	middleware.ContentBytes.Set(float64(s.content.TotalBytes()))

	s.logger.Info("Файл загружен",
		slog.String("file_id", fileID),
		slog.String("filename", params.OriginalFilename),
		slog.Int64("size", meta.Size),
		slog.String("content_hash", digest),
		slog.Bool("dedup", !created),
		slog.String("owner", params.Caller),
	)

	return meta, nil
}
