package service

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/bigkaa/gocdnstore/internal/storage/snapshot"
)

// TestSaveNowRestore проверяет полный цикл персистентности:
// сохранение состояния на диск и восстановление в новом экземпляре.
func TestSaveNowRestore(t *testing.T) {
	s := newTestStore(t)
	content := []byte("содержимое переживает перезапуск")

	meta, err := s.Upload(UploadParams{
		Caller:           testPublisher,
		OriginalFilename: "persist.txt",
		Content:          content,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	path := filepath.Join(t.TempDir(), "state.json")
	if err := s.SaveNow(path); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}

	state, err := snapshot.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	restored := New(Options{ChunkSize: 8, CacheSize: 16, CacheTTL: time.Minute}, testLogger())
	restored.Restore(state)

	got, data, err := restored.Download(testViewer, meta.FileID)
	if err != nil {
		t.Fatalf("Download после восстановления: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("восстановленное содержимое не совпадает")
	}
	if got.Owner != testPublisher {
		t.Errorf("ожидался владелец %s, получен %s", testPublisher, got.Owner)
	}

	// Роли тоже восстановлены
	if _, err := restored.Upload(UploadParams{
		Caller:           testPublisher,
		OriginalFilename: "after.txt",
		Content:          []byte("x"),
	}); err != nil {
		t.Errorf("publisher должен сохранить права после восстановления: %v", err)
	}
}

// TestRestore_EmptyState проверяет восстановление из пустого снимка.
func TestRestore_EmptyState(t *testing.T) {
	s := New(Options{}, testLogger())
	s.Restore(snapshot.Empty(time.Now().UTC()))

	created, err := s.Bootstrap("boot-admin")
	if err != nil || !created {
		t.Fatalf("Bootstrap после пустого снимка: created=%v err=%v", created, err)
	}
}
