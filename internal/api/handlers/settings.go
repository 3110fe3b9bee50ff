// settings.go — обработчики конфигурации хранилища.
package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/bigkaa/gocdnstore/internal/api/errors"
	"github.com/bigkaa/gocdnstore/internal/service"
)

// GetConfig — GET /api/v1/config.
func (h *APIHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	cfg, err := h.store.GetConfig(caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateConfig — PATCH /api/v1/config.
// Частичное обновление: передаются только изменяемые поля.
func (h *APIHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var update service.ConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
		return
	}

	cfg, err := h.store.UpdateConfig(caller, update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// ResetConfig — POST /api/v1/config/reset.
func (h *APIHandler) ResetConfig(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	cfg, err := h.store.ResetConfig(caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
