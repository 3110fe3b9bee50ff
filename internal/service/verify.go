// verify.go — аудит целостности хранимого содержимого.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/storage/chunk"
	"github.com/bigkaa/gocdnstore/internal/storage/hash"
	"github.com/bigkaa/gocdnstore/internal/storage/index"
)

// VerifyReport — результат проверки целостности одного файла.
type VerifyReport struct {
	FileID      string `json:"file_id"`
	ContentHash string `json:"content_hash"`
	SizeOK      bool   `json:"size_ok"`
	DigestOK    bool   `json:"digest_ok"`
	ChunksOK    bool   `json:"chunks_ok"`
}

// OK возвращает true, если все проверки прошли.
func (r VerifyReport) OK() bool {
	return r.SizeOK && r.DigestOK && r.ChunksOK
}

// Verify пересчитывает SHA-256 содержимого и хэши чанков файла
// и сверяет их с метаданными. Только для Admin.
// Расхождение означает повреждение состояния и возвращается
// как внутренняя ошибка вместе с отчётом.
func (s *Store) Verify(caller, fileID string) (*VerifyReport, error) {
	if err := validateIdentity(caller); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.perms.RequireAdmin(caller); err != nil {
		middleware.OperationsTotal.WithLabelValues("verify", "denied").Inc()
		return nil, fmt.Errorf("%w: проверка целостности доступна только Admin", ErrUnauthorized)
	}

	meta, err := s.idx.Get(fileID)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return nil, fmt.Errorf("%w: файл %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("%w: %s", ErrInternal, err.Error())
	}

	data, err := s.content.Get(meta.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: содержимое %s недоступно", ErrInternal, meta.ContentHash)
	}

	report := &VerifyReport{
		FileID:      fileID,
		ContentHash: meta.ContentHash,
		SizeOK:      int64(len(data)) == meta.Size,
	}

	digest, err := hash.Digest(data)
	if err == nil && digest == meta.ContentHash {
		report.DigestOK = true
	}

	chunks, err := chunk.Split(data, meta.ChunkSize)
	if err == nil {
		hashes, herr := chunk.HashEach(chunks)
		if herr == nil && slices.Equal(hashes, meta.ChunkHashes) {
			report.ChunksOK = true
		}
	}

	if !report.OK() {
		s.logger.Error("Обнаружено повреждение содержимого",
			slog.String("file_id", fileID),
			slog.String("content_hash", meta.ContentHash),
			slog.Bool("size_ok", report.SizeOK),
			slog.Bool("digest_ok", report.DigestOK),
			slog.Bool("chunks_ok", report.ChunksOK),
		)
		middleware.OperationsTotal.WithLabelValues("verify", "error").Inc()
		return report, fmt.Errorf("%w: файл %s повреждён", ErrInternal, fileID)
	}

	middleware.OperationsTotal.WithLabelValues("verify", "success").Inc()
	return report, nil
}
