// Пакет handlers — HTTP-обработчики CDN Store.
// handler.go — общий APIHandler и вспомогательные функции ответов.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/gocdnstore/internal/api/errors"
	"github.com/bigkaa/gocdnstore/internal/api/middleware"
	"github.com/bigkaa/gocdnstore/internal/service"
)

// APIHandler — обработчики всех endpoints поверх сервисного слоя.
type APIHandler struct {
	store *service.Store
	// snapshotPath — путь snapshot-файла для ручного сохранения
	snapshotPath string
	logger       *slog.Logger
}

// NewAPIHandler создаёт единый handler для всех endpoints.
func NewAPIHandler(store *service.Store, snapshotPath string, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		store:        store,
		snapshotPath: snapshotPath,
		logger:       logger.With(slog.String("component", "api_handler")),
	}
}

// writeJSON сериализует v в JSON-ответ со статусом status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError преобразует ошибку сервисного слоя в HTTP-ответ
// в стандартном формате ошибок.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.CodeValidationError, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.WriteError(w, http.StatusNotFound, apierrors.CodeNotFound, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.WriteError(w, http.StatusForbidden, apierrors.CodeForbidden, err.Error())
	case errors.Is(err, service.ErrDuplicateFile):
		apierrors.WriteError(w, http.StatusConflict, apierrors.CodeDuplicateFile, err.Error())
	case errors.Is(err, service.ErrLastAdmin):
		apierrors.WriteError(w, http.StatusConflict, apierrors.CodeLastAdmin, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		apierrors.WriteError(w, http.StatusServiceUnavailable, apierrors.CodeStorageUnavailable, err.Error())
	default:
		apierrors.InternalError(w, "Внутренняя ошибка хранилища")
	}
}

// caller извлекает идентификатор вызывающей стороны из контекста запроса.
// Пустой идентификатор означает ошибку конфигурации цепочки middleware.
func (h *APIHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	subject := middleware.SubjectFromContext(r.Context())
	if subject == "" {
		apierrors.Unauthorized(w, "Не удалось определить вызывающую сторону")
		return "", false
	}
	return subject, true
}
