// Пакет model — доменные модели CDN Store.
// FileMetadata — единая структура метаданных файла, используется
// как in-memory представление и как элемент snapshot-файла.
package model

import (
	"time"
)

// FileMetadata — метаданные файла. Несколько записей могут ссылаться
// на одну и ту же ContentRecord (дедупликация по хэшу содержимого),
// поэтому ключом всегда служит FileID, а не ContentHash.
type FileMetadata struct {
	// FileID — уникальный идентификатор файла.
	// Производится от хэша содержимого и дизамбигуатора загрузки,
	// поэтому повторная загрузка того же содержимого получает новый ID.
	FileID string `json:"file_id"`

	// OriginalFilename — оригинальное имя файла при загрузке
	OriginalFilename string `json:"original_filename"`

	// Owner — идентификатор владельца (sub из JWT)
	Owner string `json:"owner"`

	// Size — размер файла в байтах
	Size int64 `json:"size"`

	// ContentHash — SHA-256 хэш содержимого файла.
	// Ссылается на запись ContentStore (many-to-one).
	ContentHash string `json:"content_hash"`

	// ChunkCount — количество чанков при разбиении содержимого
	ChunkCount int `json:"chunk_count"`

	// ChunkSize — размер чанка, использованный при загрузке.
	// Нужен для повторного разбиения при проверке целостности.
	ChunkSize int `json:"chunk_size"`

	// ChunkHashes — SHA-256 хэши отдельных чанков в порядке индексов.
	// Используются только для аудита целостности, не для дедупликации.
	ChunkHashes []string `json:"chunk_hashes"`

	// UploadedAt — дата и время загрузки (UTC)
	UploadedAt time.Time `json:"uploaded_at"`

	// Active — файл доступен для скачивания и листинга
	Active bool `json:"active"`
}

// FileSummary — сокращённое представление файла для листинга.
type FileSummary struct {
	FileID           string    `json:"file_id"`
	OriginalFilename string    `json:"original_filename"`
	Owner            string    `json:"owner"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// Summary возвращает сокращённое представление метаданных.
func (m *FileMetadata) Summary() FileSummary {
	return FileSummary{
		FileID:           m.FileID,
		OriginalFilename: m.OriginalFilename,
		Owner:            m.Owner,
		UploadedAt:       m.UploadedAt,
	}
}

// IsOwnedBy проверяет, является ли identity владельцем файла.
func (m *FileMetadata) IsOwnedBy(identity string) bool {
	return m.Owner == identity
}
