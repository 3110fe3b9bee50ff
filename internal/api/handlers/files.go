// files.go — обработчики файловых операций:
// загрузка, листинг, метаданные, скачивание, удаление,
// деактивация и аудит целостности.
package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/gocdnstore/internal/api/errors"
	"github.com/bigkaa/gocdnstore/internal/domain/model"
	"github.com/bigkaa/gocdnstore/internal/service"
)

// uploadResponse — тело ответа успешной загрузки.
type uploadResponse struct {
	FileID           string `json:"file_id"`
	OriginalFilename string `json:"original_filename"`
	Size             int64  `json:"size"`
	ContentHash      string `json:"content_hash"`
	ChunkCount       int    `json:"chunk_count"`
	UploadedAt       string `json:"uploaded_at"`
}

// UploadFile — POST /api/v1/files.
// Принимает multipart/form-data с полем file.
func (h *APIHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	// Жёсткий предел ограничивает чтение тела; точную проверку
	// размера выполняет сервисный слой по текущей конфигурации
	r.Body = http.MaxBytesReader(w, r.Body, model.HardCapBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		apierrors.ValidationError(w, "Некорректный multipart запрос: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Отсутствует поле file в multipart запросе")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Ошибка чтения тела загрузки",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка чтения загружаемого файла")
		return
	}

	meta, err := h.store.Upload(service.UploadParams{
		Caller:           caller,
		OriginalFilename: header.Filename,
		Content:          content,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		FileID:           meta.FileID,
		OriginalFilename: meta.OriginalFilename,
		Size:             meta.Size,
		ContentHash:      meta.ContentHash,
		ChunkCount:       meta.ChunkCount,
		UploadedAt:       meta.UploadedAt.Format(time.RFC3339),
	})
}

// ListFiles — GET /api/v1/files.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	summaries, err := h.store.List(caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"files": summaries,
		"total": len(summaries),
	})
}

// GetFileMetadata — GET /api/v1/files/{fileId}.
func (h *APIHandler) GetFileMetadata(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	meta, err := h.store.GetMetadata(caller, chi.URLParam(r, "fileId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// DownloadFile — GET /api/v1/files/{fileId}/content.
// Возвращает содержимое файла как octet-stream.
func (h *APIHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	meta, data, err := h.store.Download(caller, chi.URLParam(r, "fileId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", `attachment; filename="`+meta.OriginalFilename+`"`)
	w.Header().Set("X-Content-Hash", meta.ContentHash)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteFile — DELETE /api/v1/files/{fileId}.
func (h *APIHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(caller, chi.URLParam(r, "fileId")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeactivateFile — POST /api/v1/files/{fileId}/deactivate.
func (h *APIHandler) DeactivateFile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.store.Deactivate(caller, chi.URLParam(r, "fileId")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// ReactivateFile — POST /api/v1/files/{fileId}/reactivate.
func (h *APIHandler) ReactivateFile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.store.Reactivate(caller, chi.URLParam(r, "fileId")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

// VerifyFile — POST /api/v1/files/{fileId}/verify.
// Пересчитывает хэши содержимого и возвращает отчёт.
func (h *APIHandler) VerifyFile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	report, err := h.store.Verify(caller, chi.URLParam(r, "fileId"))
	if err != nil {
		if report != nil {
			// Повреждение: отчёт важнее стандартного конверта ошибки
			writeJSON(w, http.StatusConflict, report)
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
