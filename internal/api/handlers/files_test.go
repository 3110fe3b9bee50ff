package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/domain/rbac"
	"github.com/bigkaa/gocdnstore/internal/service"
)

const (
	testAdmin     = "root-admin"
	testPublisher = "pub-user"
	testViewer    = "view-user"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestRouter собирает маршруты API с dev-аутентификацией по X-Identity.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	store := service.New(service.Options{ChunkSize: 16, CacheSize: 16, CacheTTL: time.Minute}, testLogger())
	if _, err := store.Bootstrap(testAdmin); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if _, err := store.Grant(testAdmin, testPublisher, rbac.RolePublisher); err != nil {
		t.Fatalf("Grant publisher: %v", err)
	}
	if _, err := store.Grant(testAdmin, testViewer, rbac.RoleViewer); err != nil {
		t.Fatalf("Grant viewer: %v", err)
	}

	api := NewAPIHandler(store, filepath.Join(t.TempDir(), "state.json"), testLogger())

	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.HeaderAuth(testLogger()))
		r.Route("/files", func(r chi.Router) {
			r.Post("/", api.UploadFile)
			r.Get("/", api.ListFiles)
			r.Get("/{fileId}", api.GetFileMetadata)
			r.Get("/{fileId}/content", api.DownloadFile)
			r.Delete("/{fileId}", api.DeleteFile)
			r.Post("/{fileId}/verify", api.VerifyFile)
		})
		r.Route("/users/{identity}/roles", func(r chi.Router) {
			r.Post("/", api.GrantRole)
			r.Get("/", api.GetRoles)
			r.Delete("/{role}", api.RevokeRole)
		})
		r.Route("/config", func(r chi.Router) {
			r.Get("/", api.GetConfig)
			r.Patch("/", api.UpdateConfig)
		})
		r.Post("/system/snapshot", api.SaveSnapshot)
	})
	return router
}

// multipartBody строит multipart-тело с одним полем file.
func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close multipart: %v", err)
	}
	return buf, mw.FormDataContentType()
}

// uploadViaHTTP загружает файл через endpoint и возвращает file_id.
func uploadViaHTTP(t *testing.T, router http.Handler, identity, filename string, content []byte) string {
	t.Helper()

	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Identity", identity)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидался статус 201, получен %d, тело: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		FileID string `json:"file_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("разбор ответа загрузки: %v", err)
	}
	return resp.FileID
}

// TestHTTP_UploadDownload проверяет полный HTTP-цикл загрузки и скачивания.
func TestHTTP_UploadDownload(t *testing.T) {
	router := newTestRouter(t)
	content := []byte("содержимое файла через HTTP")

	fileID := uploadViaHTTP(t, router, testPublisher, "doc.txt", content)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/"+fileID+"/content", nil)
	req.Header.Set("X-Identity", testViewer)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d, тело: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Equal(rec.Body.Bytes(), content) {
		t.Error("скачанное содержимое не совпадает с загруженным")
	}
	if disp := rec.Header().Get("Content-Disposition"); !strings.Contains(disp, "doc.txt") {
		t.Errorf("Content-Disposition не содержит имя файла: %q", disp)
	}
}

// TestHTTP_Unauthenticated проверяет 401 без X-Identity.
func TestHTTP_Unauthenticated(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

// TestHTTP_UploadForbidden проверяет 403 при загрузке viewer'ом.
func TestHTTP_UploadForbidden(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartBody(t, "a.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Identity", testViewer)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("ожидался статус 403, получен %d, тело: %s", rec.Code, rec.Body.String())
	}
}

// TestHTTP_DeleteAndNotFound проверяет удаление и последующий 404.
func TestHTTP_DeleteAndNotFound(t *testing.T) {
	router := newTestRouter(t)

	fileID := uploadViaHTTP(t, router, testPublisher, "temp.txt", []byte("данные"))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/files/"+fileID, nil)
	req.Header.Set("X-Identity", testAdmin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("ожидался статус 204, получен %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/files/"+fileID, nil)
	req.Header.Set("X-Identity", testAdmin)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("ожидался статус 404, получен %d", rec.Code)
	}
}

// TestHTTP_RolesEndpoints проверяет выдачу и чтение ролей через API.
func TestHTTP_RolesEndpoints(t *testing.T) {
	router := newTestRouter(t)

	body := strings.NewReader(`{"role":"publisher"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/new-user/roles", body)
	req.Header.Set("X-Identity", testAdmin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d, тело: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/new-user/roles", nil)
	req.Header.Set("X-Identity", testViewer)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", rec.Code)
	}

	var resp struct {
		Roles []string `json:"roles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("разбор ответа: %v", err)
	}
	if len(resp.Roles) != 1 || resp.Roles[0] != "publisher" {
		t.Errorf("ожидалась роль publisher, получено %v", resp.Roles)
	}

	// Отзыв не Admin'ом — 403
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/users/new-user/roles/publisher", nil)
	req.Header.Set("X-Identity", testViewer)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("ожидался статус 403, получен %d", rec.Code)
	}
}

// TestHTTP_LastAdminConflict проверяет 409 при отзыве последнего Admin.
func TestHTTP_LastAdminConflict(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+testAdmin+"/roles/admin", nil)
	req.Header.Set("X-Identity", testAdmin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("ожидался статус 409, получен %d, тело: %s", rec.Code, rec.Body.String())
	}
}

// TestHTTP_ConfigUpdate проверяет PATCH конфигурации и запрет для не-Admin.
func TestHTTP_ConfigUpdate(t *testing.T) {
	router := newTestRouter(t)

	body := strings.NewReader(`{"max_file_size_bytes":1024}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/config", body)
	req.Header.Set("X-Identity", testAdmin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d, тело: %s", rec.Code, rec.Body.String())
	}

	var cfg struct {
		MaxFileSizeBytes int64 `json:"max_file_size_bytes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("разбор ответа: %v", err)
	}
	if cfg.MaxFileSizeBytes != 1024 {
		t.Errorf("ожидался максимум 1024, получено %d", cfg.MaxFileSizeBytes)
	}

	body = strings.NewReader(`{"uploads_enabled":false}`)
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/config", body)
	req.Header.Set("X-Identity", testPublisher)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("ожидался статус 403, получен %d", rec.Code)
	}
}

// TestHTTP_SnapshotEndpoint проверяет ручное сохранение состояния.
func TestHTTP_SnapshotEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/system/snapshot", nil)
	req.Header.Set("X-Identity", testAdmin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d, тело: %s", rec.Code, rec.Body.String())
	}

	// Не-Admin — 403
	req = httptest.NewRequest(http.MethodPost, "/api/v1/system/snapshot", nil)
	req.Header.Set("X-Identity", testViewer)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("ожидался статус 403, получен %d", rec.Code)
	}
}
