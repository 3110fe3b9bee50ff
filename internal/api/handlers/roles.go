// roles.go — обработчики управления ролями.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/gocdnstore/internal/api/errors"
	"github.com/bigkaa/gocdnstore/internal/domain/rbac"
)

// roleRequest — тело запроса выдачи или отзыва роли.
type roleRequest struct {
	Role string `json:"role"`
}

// rolesResponse — набор ролей пользователя.
type rolesResponse struct {
	Identity string      `json:"identity"`
	Roles    []rbac.Role `json:"roles"`
}

// GrantRole — POST /api/v1/users/{identity}/roles.
func (h *APIHandler) GrantRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
		return
	}
	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	target := chi.URLParam(r, "identity")
	roles, err := h.store.Grant(caller, target, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rolesResponse{Identity: target, Roles: roles})
}

// RevokeRole — DELETE /api/v1/users/{identity}/roles/{role}.
func (h *APIHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	role, err := rbac.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	target := chi.URLParam(r, "identity")
	roles, err := h.store.Revoke(caller, target, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rolesResponse{Identity: target, Roles: roles})
}

// GetRoles — GET /api/v1/users/{identity}/roles.
func (h *APIHandler) GetRoles(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}

	target := chi.URLParam(r, "identity")
	roles, err := h.store.RolesOf(target)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rolesResponse{Identity: target, Roles: roles})
}
