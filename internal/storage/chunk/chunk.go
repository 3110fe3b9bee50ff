// Пакет chunk — разбиение содержимого на чанки фиксированного
// размера и обратная сборка. Чистая трансформация без побочных
// эффектов: чанки — транзитная кодировка, решения о персистентности
// принимает исключительно ContentStore.
package chunk

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bigkaa/gocdnstore/internal/storage/hash"
)

// DefaultChunkSize — размер чанка по умолчанию (1 МБ).
const DefaultChunkSize = 1 << 20

// Ошибки валидации параметров разбиения и сборки.
var (
	// ErrEmptyContent — нечего разбивать
	ErrEmptyContent = errors.New("содержимое пусто")
	// ErrInvalidChunkSize — размер чанка должен быть положительным
	ErrInvalidChunkSize = errors.New("размер чанка должен быть больше нуля")
	// ErrNoChunks — нечего собирать
	ErrNoChunks = errors.New("список чанков пуст")
	// ErrBadIndexes — индексы чанков не образуют 0..n-1 без пропусков
	ErrBadIndexes = errors.New("индексы чанков не непрерывны")
)

// Chunk — упорядоченный фрагмент содержимого.
type Chunk struct {
	// Index — позиция чанка, 0-based без пропусков
	Index int `json:"index"`
	// Data — байты фрагмента
	Data []byte `json:"data"`
}

// Split разбивает содержимое на чанки по chunkSize байт.
// Каждый чанк, кроме, возможно, последнего, имеет ровно chunkSize байт;
// всего получается ⌈len/chunkSize⌉ чанков с непрерывными индексами от 0.
func Split(data []byte, chunkSize int) ([]Chunk, error) {
	if len(data) == 0 {
		return nil, ErrEmptyContent
	}
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}

	count := (len(data) + chunkSize - 1) / chunkSize
	chunks := make([]Chunk, 0, count)
	for start, index := 0, 0; start < len(data); start, index = start+chunkSize, index+1 {
		end := min(start+chunkSize, len(data))
		part := make([]byte, end-start)
		copy(part, data[start:end])
		chunks = append(chunks, Chunk{Index: index, Data: part})
	}
	return chunks, nil
}

// Reassemble собирает содержимое из чанков.
// Сортирует чанки по индексу сама, поэтому вызывающий код может
// передавать их в любом порядке; индексы обязаны образовывать
// непрерывный ряд 0..n-1, иначе возвращается ErrBadIndexes.
func Reassemble(chunks []Chunk) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	ordered := make([]Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	total := 0
	for i, c := range ordered {
		if c.Index != i {
			return nil, fmt.Errorf("%w: позиция %d содержит индекс %d", ErrBadIndexes, i, c.Index)
		}
		total += len(c.Data)
	}
	if total == 0 {
		return nil, ErrEmptyContent
	}

	out := make([]byte, 0, total)
	for _, c := range ordered {
		out = append(out, c.Data...)
	}
	return out, nil
}

// HashEach вычисляет дайджест каждого чанка, сохраняя порядок индексов.
// Используется для аудита целостности, не для дедупликации:
// дедупликация работает только по дайджесту всего содержимого.
func HashEach(chunks []Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	hashes := make([]string, len(chunks))
	for i, c := range chunks {
		d, err := hash.Digest(c.Data)
		if err != nil {
			return nil, fmt.Errorf("чанк %d: %w", c.Index, err)
		}
		hashes[i] = d
	}
	return hashes, nil
}
