// Пакет contentstore — контентно-адресуемое хранилище байтов
// с подсчётом ссылок. Ключ — SHA-256 дайджест содержимого,
// поэтому повторная запись идентичных байтов никогда не создаёт
// вторую физическую копию. Счётчик ссылок ведётся по записям
// метаданных: инкремент на каждый Put, декремент на Release;
// физическое удаление происходит при нуле ссылок и никогда
// не гонится с чтениями — все операции идут под общим мьютексом.
package contentstore

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bigkaa/gocdnstore/internal/storage/hash"
)

// ErrNotFound — запись с таким дайджестом отсутствует.
var ErrNotFound = errors.New("содержимое не найдено")

// record — запись содержимого со счётчиком ссылок.
type record struct {
	data []byte
	refs int
}

// Record — сериализуемое представление записи для snapshot-файла.
type Record struct {
	Digest string `json:"digest"`
	Data   []byte `json:"data"`
	Refs   int    `json:"refs"`
}

// Store — контентно-адресуемое хранилище.
type Store struct {
	mu      sync.Mutex
	records map[string]*record
	logger  *slog.Logger
}

// New создаёт пустое хранилище содержимого.
func New(logger *slog.Logger) *Store {
	return &Store{
		records: make(map[string]*record),
		logger:  logger.With(slog.String("component", "contentstore")),
	}
}

// Put сохраняет содержимое и возвращает его дайджест.
// Идемпотентна по содержимому: для уже известного дайджеста
// физическая копия не создаётся, только инкрементируется счётчик
// ссылок. Флаг created сообщает, была ли запись новой.
func (s *Store) Put(data []byte) (digest string, created bool, err error) {
	digest, err = hash.Digest(data)
	if err != nil {
		return "", false, fmt.Errorf("вычисление дайджеста: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[digest]
	if ok {
		rec.refs++
		return digest, false, nil
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	s.records[digest] = &record{data: stored, refs: 1}

	s.logger.Debug("Создана запись содержимого",
		slog.String("digest", digest),
		slog.Int("size", len(data)),
	)
	return digest, true, nil
}

// Get возвращает копию содержимого по дайджесту.
func (s *Store) Get(digest string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[digest]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, digest)
	}
	out := make([]byte, len(rec.data))
	copy(out, rec.data)
	return out, nil
}

// Release декрементирует счётчик ссылок записи.
// При достижении нуля запись физически удаляется.
// Вызывается при удалении ссылающихся метаданных и при откате
// неудавшейся загрузки.
func (s *Store) Release(digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[digest]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, digest)
	}

	rec.refs--
	if rec.refs <= 0 {
		delete(s.records, digest)
		s.logger.Debug("Запись содержимого удалена",
			slog.String("digest", digest),
		)
	}
	return nil
}

// Refs возвращает текущий счётчик ссылок записи (0 для отсутствующей).
func (s *Store) Refs(digest string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[digest]
	if !ok {
		return 0
	}
	return rec.refs
}

// Contains проверяет наличие записи с данным дайджестом.
func (s *Store) Contains(digest string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[digest]
	return ok
}

// Len возвращает количество физических записей содержимого.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// TotalBytes возвращает суммарный размер хранимого содержимого.
func (s *Store) TotalBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, rec := range s.records {
		total += int64(len(rec.data))
	}
	return total
}

// Snapshot возвращает сериализуемую копию хранилища для snapshot-файла.
func (s *Store) Snapshot() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.records))
	for digest, rec := range s.records {
		data := make([]byte, len(rec.data))
		copy(data, rec.data)
		out = append(out, Record{Digest: digest, Data: data, Refs: rec.refs})
	}
	return out
}

// Restore заменяет содержимое хранилища данными из snapshot-файла.
// Записи с некорректным дайджестом или нулём ссылок отбрасываются:
// восстановление не должно реанимировать осиротевшее содержимое.
func (s *Store) Restore(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*record, len(records))
	for _, r := range records {
		if r.Refs <= 0 || len(r.Data) == 0 {
			continue
		}
		digest, err := hash.Digest(r.Data)
		if err != nil || digest != r.Digest {
			s.logger.Warn("Запись содержимого отброшена при восстановлении: дайджест не совпадает",
				slog.String("digest", r.Digest),
			)
			continue
		}
		data := make([]byte, len(r.Data))
		copy(data, r.Data)
		s.records[r.Digest] = &record{data: data, refs: r.Refs}
	}
}
