// Пакет snapshot — атомарная сериализация полного состояния
// хранилища в один JSON-файл и восстановление при старте.
// Все операции записи выполняются атомарно: temp → fsync → rename,
// поэтому snapshot-файл никогда не бывает записан частично.
// При любой ошибке чтения или декодирования система стартует
// с пустого, но валидного состояния — частичная гидратация запрещена.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bigkaa/gocdnstore/internal/domain/model"
	"github.com/bigkaa/gocdnstore/internal/domain/rbac"
	"github.com/bigkaa/gocdnstore/internal/storage/contentstore"
)

// ErrCorrupted — snapshot-файл существует, но не декодируется.
var ErrCorrupted = errors.New("snapshot-файл повреждён")

// State — сериализуемый кортеж полного состояния хранилища:
// реестр ролей, содержимое со счётчиками ссылок, метаданные, конфигурация.
type State struct {
	// Roles — реестр ролей: identity → набор ролей
	Roles map[string][]rbac.Role `json:"roles"`
	// Content — записи содержимого со счётчиками ссылок
	Content []contentstore.Record `json:"content"`
	// Files — метаданные файлов
	Files []*model.FileMetadata `json:"files"`
	// Config — конфигурация хранилища
	Config model.StoreConfig `json:"config"`
	// SavedAt — время создания snapshot (UTC)
	SavedAt time.Time `json:"saved_at"`
}

// Empty возвращает пустое валидное состояние с конфигурацией
// по умолчанию. Используется при первом старте и как fallback
// при повреждённом snapshot-файле.
func Empty(now time.Time) *State {
	return &State{
		Roles:   make(map[string][]rbac.Role),
		Content: nil,
		Files:   nil,
		Config:  model.DefaultStoreConfig(now),
	}
}

// Save атомарно записывает состояние в указанный файл.
// Паттерн: JSON → temp файл → fsync → atomic rename.
func Save(path string, state *State) error {
	state.SavedAt = time.Now().UTC()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("ошибка сериализации snapshot: %w", err)
	}

	// Создаём директорию если не существует
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}

// Load читает и декодирует состояние из snapshot-файла.
// Отсутствующий файл — нормальный первый старт: возвращается
// пустое состояние без ошибки. Любая другая проблема возвращает
// ошибку, на которой вызывающий код прерывает запуск: молчаливый
// старт с пустым состоянием перезаписал бы данные при следующем
// сохранении.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(time.Now().UTC()), nil
		}
		return Empty(time.Now().UTC()), fmt.Errorf("ошибка чтения snapshot %s: %w", path, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return Empty(time.Now().UTC()), fmt.Errorf("%w: %s: %v", ErrCorrupted, path, err)
	}

	if state.Roles == nil {
		state.Roles = make(map[string][]rbac.Role)
	}
	if err := state.Config.Validate(); err != nil {
		return Empty(time.Now().UTC()), fmt.Errorf("%w: некорректная конфигурация: %v", ErrCorrupted, err)
	}

	return &state, nil
}
