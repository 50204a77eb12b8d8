package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// LogService is what LogHandler needs from the service layer.
type LogService interface {
	UpdateLog(ctx context.Context, userID, logID string, req models.MaintenanceLogUpdate) (*models.MaintenanceLog, error)
	DeleteLog(ctx context.Context, userID, logID string) error
	Stats(ctx context.Context, userID string) ([]models.MonthlyCost, error)
}

// LogHandler serves /maintenance-logs and /stats.
type LogHandler struct {
	logs LogService
	log  *logrus.Entry
}

func NewLogHandler(logs LogService, log *logrus.Entry) *LogHandler {
	return &LogHandler{logs: logs, log: log}
}

func (h *LogHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req models.MaintenanceLogUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.logs.UpdateLog(r.Context(), uid, mux.Vars(r)["id"], req)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *LogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.logs.DeleteLog(r.Context(), uid, mux.Vars(r)["id"]); err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Msg: "Maintenance log removed"})
}

// Stats returns monthly maintenance spending for the last 12 months.
func (h *LogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	stats, err := h.logs.Stats(r.Context(), uid)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
