package chunk

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bigkaa/gocdnstore/internal/storage/hash"
)

// TestSplit проверяет количество и размеры чанков.
func TestSplit(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog") // 43 байта

	chunks, err := Split(data, 10)
	if err != nil {
		t.Fatalf("ошибка разбиения: %v", err)
	}

	if len(chunks) != 5 {
		t.Fatalf("ожидалось 5 чанков, получено %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("чанк %d имеет индекс %d", i, c.Index)
		}
		if i < len(chunks)-1 && len(c.Data) != 10 {
			t.Errorf("чанк %d: ожидалось 10 байт, получено %d", i, len(c.Data))
		}
	}
	if len(chunks[4].Data) != 3 {
		t.Errorf("последний чанк: ожидалось 3 байта, получено %d", len(chunks[4].Data))
	}
}

// TestSplit_ExactMultiple проверяет разбиение при кратной длине.
func TestSplit_ExactMultiple(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 30)

	chunks, err := Split(data, 10)
	if err != nil {
		t.Fatalf("ошибка разбиения: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("ожидалось 3 чанка, получено %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Data) != 10 {
			t.Errorf("чанк %d: ожидалось 10 байт, получено %d", i, len(c.Data))
		}
	}
}

// TestSplit_Validation проверяет отказы для некорректных параметров.
func TestSplit_Validation(t *testing.T) {
	if _, err := Split(nil, 10); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("ожидалась ErrEmptyContent, получено %v", err)
	}
	if _, err := Split([]byte("data"), 0); !errors.Is(err, ErrInvalidChunkSize) {
		t.Errorf("ожидалась ErrInvalidChunkSize для 0, получено %v", err)
	}
	if _, err := Split([]byte("data"), -1); !errors.Is(err, ErrInvalidChunkSize) {
		t.Errorf("ожидалась ErrInvalidChunkSize для -1, получено %v", err)
	}
}

// TestRoundTrip проверяет закон Reassemble(Split(x, n)) == x
// для разных длин содержимого и размеров чанка.
func TestRoundTrip(t *testing.T) {
	contents := [][]byte{
		[]byte("a"),
		[]byte("hello"),
		bytes.Repeat([]byte("abc"), 100),
		bytes.Repeat([]byte{0x00, 0xFF}, 4096),
	}
	sizes := []int{1, 2, 7, 100, 1 << 20}

	for _, data := range contents {
		for _, n := range sizes {
			chunks, err := Split(data, n)
			if err != nil {
				t.Fatalf("ошибка разбиения (len=%d, n=%d): %v", len(data), n, err)
			}
			out, err := Reassemble(chunks)
			if err != nil {
				t.Fatalf("ошибка сборки (len=%d, n=%d): %v", len(data), n, err)
			}
			if !bytes.Equal(out, data) {
				t.Errorf("round-trip нарушен (len=%d, n=%d)", len(data), n)
			}
		}
	}
}

// TestReassemble_Unsorted проверяет сборку из несортированных чанков.
func TestReassemble_Unsorted(t *testing.T) {
	data := []byte("abcdefghij")
	chunks, err := Split(data, 3)
	if err != nil {
		t.Fatalf("ошибка разбиения: %v", err)
	}

	// Переворачиваем порядок
	reversed := make([]Chunk, len(chunks))
	for i, c := range chunks {
		reversed[len(chunks)-1-i] = c
	}

	out, err := Reassemble(reversed)
	if err != nil {
		t.Fatalf("ошибка сборки: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("сборка несортированных чанков: ожидалось %q, получено %q", data, out)
	}
}

// TestReassemble_BadIndexes проверяет обнаружение пропусков и повторов.
func TestReassemble_BadIndexes(t *testing.T) {
	// Пропуск индекса
	gap := []Chunk{
		{Index: 0, Data: []byte("aa")},
		{Index: 2, Data: []byte("bb")},
	}
	if _, err := Reassemble(gap); !errors.Is(err, ErrBadIndexes) {
		t.Errorf("ожидалась ErrBadIndexes для пропуска, получено %v", err)
	}

	// Дубликат индекса
	dup := []Chunk{
		{Index: 0, Data: []byte("aa")},
		{Index: 0, Data: []byte("bb")},
	}
	if _, err := Reassemble(dup); !errors.Is(err, ErrBadIndexes) {
		t.Errorf("ожидалась ErrBadIndexes для дубликата, получено %v", err)
	}

	// Начало не с нуля
	offset := []Chunk{
		{Index: 1, Data: []byte("aa")},
	}
	if _, err := Reassemble(offset); !errors.Is(err, ErrBadIndexes) {
		t.Errorf("ожидалась ErrBadIndexes для сдвига, получено %v", err)
	}
}

// TestReassemble_Empty проверяет отказ для пустого списка.
func TestReassemble_Empty(t *testing.T) {
	if _, err := Reassemble(nil); !errors.Is(err, ErrNoChunks) {
		t.Errorf("ожидалась ErrNoChunks, получено %v", err)
	}
}

// TestHashEach проверяет вычисление дайджестов по чанкам
// с сохранением порядка.
func TestHashEach(t *testing.T) {
	data := []byte("Hello World")
	chunks, err := Split(data, 5)
	if err != nil {
		t.Fatalf("ошибка разбиения: %v", err)
	}

	hashes, err := HashEach(chunks)
	if err != nil {
		t.Fatalf("ошибка хэширования чанков: %v", err)
	}
	if len(hashes) != len(chunks) {
		t.Fatalf("ожидалось %d дайджестов, получено %d", len(chunks), len(hashes))
	}

	for i, c := range chunks {
		expected, err := hash.Digest(c.Data)
		if err != nil {
			t.Fatalf("ошибка эталонного дайджеста: %v", err)
		}
		if hashes[i] != expected {
			t.Errorf("дайджест чанка %d не совпадает", i)
		}
	}
}

// TestHashEach_Empty проверяет отказ для пустого списка чанков.
func TestHashEach_Empty(t *testing.T) {
	if _, err := HashEach(nil); !errors.Is(err, ErrNoChunks) {
		t.Errorf("ожидалась ErrNoChunks, получено %v", err)
	}
}

// TestSplit_CopiesData проверяет, что чанки не разделяют память
// с исходным срезом.
func TestSplit_CopiesData(t *testing.T) {
	data := []byte("immutable")
	chunks, err := Split(data, 4)
	if err != nil {
		t.Fatalf("ошибка разбиения: %v", err)
	}

	data[0] = 'X'

	if chunks[0].Data[0] != 'i' {
		t.Error("чанк разделяет память с исходным срезом")
	}
}
