// Пакет service — бизнес-логика CDN Store.
// Единая точка входа для всех операций вызывающей стороны:
// каждая операция сначала проходит авторизацию, затем управляет
// ChunkEngine, ContentStore и индексом метаданных.
//
// Многошаговые операции (загрузка, удаление, отзыв ролей, смена
// конфигурации) выполняются в одной критической секции на логическую
// операцию: компонентные блокировки защищают отдельные структуры,
// мьютекс сервиса гарантирует атомарность последовательности
// authorize → store → index целиком.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bigkaa/gocdnstore/internal/domain/model"
	"github.com/bigkaa/gocdnstore/internal/domain/rbac"
	"github.com/bigkaa/gocdnstore/internal/storage/chunk"
	"github.com/bigkaa/gocdnstore/internal/storage/contentstore"
	"github.com/bigkaa/gocdnstore/internal/storage/index"
	"github.com/bigkaa/gocdnstore/internal/storage/snapshot"
)

// Store — агрегат состояния хранилища. Конструируется один раз
// при старте процесса и передаётся по ссылке; никакого скрытого
// глобального состояния, изолированные экземпляры в тестах тривиальны.
type Store struct {
	mu sync.Mutex

	registry *rbac.Registry
	perms    *rbac.Engine
	content  *contentstore.Store
	idx      *index.Index
	cache    *Cache

	// settings — конфигурация хранилища, изменяемая администраторами.
	// Защищена общим мьютексом сервиса.
	settings model.StoreConfig

	// chunkSize — размер чанка для разбиения содержимого
	chunkSize int

	logger *slog.Logger
}

// Options — параметры создания Store.
type Options struct {
	// ChunkSize — размер чанка (байты); 0 — значение по умолчанию
	ChunkSize int
	// CacheSize — ёмкость LRU-кэша метаданных; 0 — без кэша
	CacheSize int
	// CacheTTL — время жизни записи кэша
	CacheTTL time.Duration
}

// New создаёт Store с пустым состоянием.
func New(opts Options, logger *slog.Logger) *Store {
	registry := rbac.NewRegistry()

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = chunk.DefaultChunkSize
	}

	var cache *Cache
	if opts.CacheSize > 0 {
		cache = NewCache(opts.CacheSize, opts.CacheTTL)
	}

	return &Store{
		registry:  registry,
		perms:     rbac.NewEngine(registry),
		content:   contentstore.New(logger),
		idx:       index.New(logger),
		cache:     cache,
		settings:  model.DefaultStoreConfig(time.Now().UTC()),
		chunkSize: chunkSize,
		logger:    logger.With(slog.String("component", "service")),
	}
}

// Bootstrap инициализирует первого Admin, если в реестре ещё нет
// ни одного. Вызывается при старте процесса с identity из
// CDN_BOOTSTRAP_ADMIN. Возвращает true, если Admin был создан.
func (s *Store) Bootstrap(identity string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.HasAnyAdmin() {
		return false, nil
	}
	if err := s.registry.InitAdmin(identity); err != nil {
		return false, err
	}
	s.logger.Info("Инициализирован первый Admin",
		slog.String("identity", identity),
	)
	return true, nil
}

// Snapshot возвращает сериализуемый кортеж полного состояния
// под мьютексом сервиса: все четыре составляющие снимаются согласованно.
func (s *Store) Snapshot() *snapshot.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &snapshot.State{
		Roles:   s.registry.Snapshot(),
		Content: s.content.Snapshot(),
		Files:   s.idx.Snapshot(),
		Config:  s.settings,
	}
}

// Restore заменяет состояние хранилища данными snapshot-файла.
// Вызывается один раз при старте до начала обслуживания запросов.
func (s *Store) Restore(state *snapshot.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.Restore(state.Roles)
	s.content.Restore(state.Content)
	s.idx.Restore(state.Files)
	s.settings = state.Config
	if s.cache != nil {
		s.cache.Purge()
	}
}

// lookupMeta возвращает метаданные файла, используя кэш при наличии.
// Вызывается под мьютексом сервиса.
func (s *Store) lookupMeta(fileID string) (*model.FileMetadata, error) {
	if s.cache != nil {
		if meta, ok := s.cache.Get(fileID); ok {
			return meta, nil
		}
	}
	meta, err := s.idx.Get(fileID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(fileID, meta)
	}
	return meta, nil
}

// invalidateMeta убирает запись из кэша после мутации.
func (s *Store) invalidateMeta(fileID string) {
	if s.cache != nil {
		s.cache.Delete(fileID)
	}
}
