// Пакет index — потокобезопасный in-memory индекс метаданных файлов.
//
// Ключ — всегда file_id, никогда не дайджест содержимого: два файла
// с идентичным содержимым, но разными идентификаторами вставляются
// оба и ссылаются на одну запись ContentStore.
//
// Не персистентный сам по себе: состояние входит в общий
// snapshot-файл и восстанавливается через Restore при старте.
package index

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/bigkaa/gocdnstore/internal/domain/model"
)

// Ошибки индекса метаданных.
var (
	// ErrDuplicateFile — запись с таким file_id уже существует.
	// При корректном производстве идентификаторов не возникает.
	ErrDuplicateFile = errors.New("файл с таким идентификатором уже существует")
	// ErrNotFound — запись с таким file_id отсутствует
	ErrNotFound = errors.New("файл не найден")
)

// Index — потокобезопасный индекс метаданных.
// Использует sync.RWMutex для конкурентного чтения и
// эксклюзивной записи.
type Index struct {
	mu     sync.RWMutex
	files  map[string]*model.FileMetadata // file_id → metadata
	logger *slog.Logger
}

// New создаёт пустой индекс.
func New(logger *slog.Logger) *Index {
	return &Index{
		files:  make(map[string]*model.FileMetadata),
		logger: logger.With(slog.String("component", "index")),
	}
}

// Insert добавляет метаданные файла в индекс.
// Возвращает ErrDuplicateFile, если file_id уже занят.
func (idx *Index) Insert(meta *model.FileMetadata) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.files[meta.FileID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFile, meta.FileID)
	}

	// Храним копию, чтобы избежать data race при внешних изменениях
	copied := *meta
	idx.files[meta.FileID] = &copied
	return nil
}

// Get возвращает копию метаданных файла по file_id.
func (idx *Index) Get(fileID string) (*model.FileMetadata, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	meta, ok := idx.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	copied := *meta
	return &copied, nil
}

// Delete удаляет запись из индекса и возвращает удалённые метаданные.
// Вызывающий код декрементирует счётчик ссылок ContentStore
// по полю ContentHash удалённой записи.
func (idx *Index) Delete(fileID string) (*model.FileMetadata, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	meta, ok := idx.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	delete(idx.files, fileID)

	copied := *meta
	return &copied, nil
}

// SetActive переключает флаг активности файла.
func (idx *Index) SetActive(fileID string, active bool) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	meta, ok := idx.files[fileID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	meta.Active = active
	return nil
}

// ListByOwner возвращает активные файлы владельца,
// отсортированные по дате загрузки (новые первые).
func (idx *Index) ListByOwner(owner string) []*model.FileMetadata {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []*model.FileMetadata
	for _, meta := range idx.files {
		if meta.Owner != owner || !meta.Active {
			continue
		}
		copied := *meta
		out = append(out, &copied)
	}
	sortByUploadedAt(out)
	return out
}

// ListActive возвращает все активные файлы,
// отсортированные по дате загрузки (новые первые).
func (idx *Index) ListActive() []*model.FileMetadata {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []*model.FileMetadata
	for _, meta := range idx.files {
		if !meta.Active {
			continue
		}
		copied := *meta
		out = append(out, &copied)
	}
	sortByUploadedAt(out)
	return out
}

// Count возвращает общее количество записей в индексе.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.files)
}

// CountActive возвращает количество активных файлов.
func (idx *Index) CountActive() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	count := 0
	for _, meta := range idx.files {
		if meta.Active {
			count++
		}
	}
	return count
}

// Snapshot возвращает сериализуемую копию индекса для snapshot-файла.
func (idx *Index) Snapshot() []*model.FileMetadata {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*model.FileMetadata, 0, len(idx.files))
	for _, meta := range idx.files {
		copied := *meta
		out = append(out, &copied)
	}
	sortByUploadedAt(out)
	return out
}

// Restore заменяет содержимое индекса данными из snapshot-файла.
// Записи без file_id отбрасываются.
func (idx *Index) Restore(files []*model.FileMetadata) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.files = make(map[string]*model.FileMetadata, len(files))
	for _, meta := range files {
		if meta == nil || meta.FileID == "" {
			continue
		}
		copied := *meta
		idx.files[meta.FileID] = &copied
	}

	idx.logger.Info("Индекс метаданных восстановлен",
		slog.Int("files", len(idx.files)),
	)
}

// sortByUploadedAt сортирует метаданные по дате загрузки (новые первые);
// при равенстве — по file_id для детерминированности.
func sortByUploadedAt(files []*model.FileMetadata) {
	sort.Slice(files, func(i, j int) bool {
		if files[i].UploadedAt.Equal(files[j].UploadedAt) {
			return files[i].FileID < files[j].FileID
		}
		return files[i].UploadedAt.After(files[j].UploadedAt)
	})
}
