package contentstore

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"testing"
)

// testLogger возвращает логгер для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestPut_Dedup проверяет идемпотентность дедупликации:
// повторная запись идентичного содержимого возвращает тот же
// дайджест и не создаёт вторую физическую копию.
func TestPut_Dedup(t *testing.T) {
	s := New(testLogger())
	content := []byte("identical content")

	d1, created1, err := s.Put(content)
	if err != nil {
		t.Fatalf("ошибка первой записи: %v", err)
	}
	if !created1 {
		t.Error("первая запись должна создать запись содержимого")
	}

	d2, created2, err := s.Put(content)
	if err != nil {
		t.Fatalf("ошибка повторной записи: %v", err)
	}
	if created2 {
		t.Error("повторная запись не должна создавать вторую копию")
	}
	if d1 != d2 {
		t.Errorf("дайджесты не совпадают: %s != %s", d1, d2)
	}

	if s.Len() != 1 {
		t.Errorf("ожидалась 1 физическая запись, получено %d", s.Len())
	}
	if s.Refs(d1) != 2 {
		t.Errorf("ожидалось 2 ссылки, получено %d", s.Refs(d1))
	}
}

// TestPut_Empty проверяет отказ для пустого содержимого.
func TestPut_Empty(t *testing.T) {
	s := New(testLogger())
	if _, _, err := s.Put(nil); err == nil {
		t.Error("ожидалась ошибка для пустого содержимого")
	}
}

// TestGet проверяет чтение и изоляцию возвращаемой копии.
func TestGet(t *testing.T) {
	s := New(testLogger())
	content := []byte("read me")

	digest, _, err := s.Put(content)
	if err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	got, err := s.Get(digest)
	if err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("содержимое не совпадает: %q != %q", got, content)
	}

	// Мутация возвращённой копии не должна портить хранилище
	got[0] = 'X'
	again, err := s.Get(digest)
	if err != nil {
		t.Fatalf("ошибка повторного чтения: %v", err)
	}
	if again[0] != 'r' {
		t.Error("возвращаемая копия разделяет память с хранилищем")
	}
}

// TestGet_NotFound проверяет чтение отсутствующего дайджеста.
func TestGet_NotFound(t *testing.T) {
	s := New(testLogger())
	if _, err := s.Get("deadbeef"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено %v", err)
	}
}

// TestRelease проверяет подсчёт ссылок и физическое удаление при нуле.
func TestRelease(t *testing.T) {
	s := New(testLogger())
	content := []byte("refcounted")

	digest, _, err := s.Put(content)
	if err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}
	if _, _, err := s.Put(content); err != nil {
		t.Fatalf("ошибка повторной записи: %v", err)
	}

	// Первый Release: запись остаётся, ссылка одна
	if err := s.Release(digest); err != nil {
		t.Fatalf("ошибка первого Release: %v", err)
	}
	if !s.Contains(digest) {
		t.Fatal("запись не должна удаляться при ненулевом счётчике")
	}
	if s.Refs(digest) != 1 {
		t.Errorf("ожидалась 1 ссылка, получено %d", s.Refs(digest))
	}

	// Второй Release: физическое удаление
	if err := s.Release(digest); err != nil {
		t.Fatalf("ошибка второго Release: %v", err)
	}
	if s.Contains(digest) {
		t.Error("запись должна быть удалена при нуле ссылок")
	}
	if _, err := s.Get(digest); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound после удаления, получено %v", err)
	}
}

// TestRelease_NotFound проверяет Release отсутствующего дайджеста.
func TestRelease_NotFound(t *testing.T) {
	s := New(testLogger())
	if err := s.Release("deadbeef"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено %v", err)
	}
}

// TestTotalBytes проверяет подсчёт суммарного размера.
func TestTotalBytes(t *testing.T) {
	s := New(testLogger())

	if _, _, err := s.Put([]byte("12345")); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}
	if _, _, err := s.Put([]byte("abc")); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}
	// Дубликат не должен увеличивать суммарный размер
	if _, _, err := s.Put([]byte("12345")); err != nil {
		t.Fatalf("ошибка записи дубликата: %v", err)
	}

	if s.TotalBytes() != 8 {
		t.Errorf("ожидалось 8 байт, получено %d", s.TotalBytes())
	}
}

// TestSnapshotRestore проверяет сериализацию и восстановление хранилища.
func TestSnapshotRestore(t *testing.T) {
	s := New(testLogger())
	content := []byte("persist me")

	digest, _, err := s.Put(content)
	if err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}
	if _, _, err := s.Put(content); err != nil {
		t.Fatalf("ошибка повторной записи: %v", err)
	}

	records := s.Snapshot()

	restored := New(testLogger())
	restored.Restore(records)

	if restored.Len() != 1 {
		t.Fatalf("ожидалась 1 запись после восстановления, получено %d", restored.Len())
	}
	if restored.Refs(digest) != 2 {
		t.Errorf("ожидалось 2 ссылки после восстановления, получено %d", restored.Refs(digest))
	}
	got, err := restored.Get(digest)
	if err != nil {
		t.Fatalf("ошибка чтения после восстановления: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("содержимое повреждено при восстановлении")
	}
}

// TestRestore_DropsCorrupted проверяет отбрасывание записей
// с несовпадающим дайджестом и нулём ссылок при восстановлении.
func TestRestore_DropsCorrupted(t *testing.T) {
	s := New(testLogger())
	s.Restore([]Record{
		{Digest: "wrong-digest", Data: []byte("tampered"), Refs: 1},
		{Digest: "orphan", Data: []byte("orphan"), Refs: 0},
	})

	if s.Len() != 0 {
		t.Errorf("повреждённые записи должны отбрасываться, осталось %d", s.Len())
	}
}
