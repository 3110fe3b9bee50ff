// system.go — служебные операции: ручное сохранение состояния.
package handlers

import (
	"log/slog"
	"net/http"
	"time"
)

// SaveSnapshot — POST /api/v1/system/snapshot.
// Принудительно сохраняет текущее состояние на диск, не дожидаясь
// очередного периодического сохранения.
func (h *APIHandler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.store.RequireAdmin(caller); err != nil {
		writeServiceError(w, err)
		return
	}

	start := time.Now()
	if err := h.store.SaveNow(h.snapshotPath); err != nil {
		h.logger.Error("Ошибка ручного сохранения состояния",
			slog.String("path", h.snapshotPath),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err)
		return
	}

	h.logger.Info("Состояние сохранено вручную",
		slog.String("path", h.snapshotPath),
		slog.String("requested_by", caller),
		slog.Duration("duration", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "saved",
		"path":     h.snapshotPath,
		"saved_at": time.Now().UTC().Format(time.RFC3339),
	})
}
