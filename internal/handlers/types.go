package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// TypeService is what TypeHandler needs from the service layer.
type TypeService interface {
	ListTypes(ctx context.Context, userID string) ([]models.MaintenanceType, error)
	CreateType(ctx context.Context, userID string, req models.MaintenanceTypeRequest) (*models.MaintenanceType, error)
	UpdateType(ctx context.Context, userID, typeID string, req models.MaintenanceTypeUpdate) (*models.MaintenanceType, error)
	DeleteType(ctx context.Context, userID, typeID string) error
}

// TypeHandler serves /maintenance-types.
type TypeHandler struct {
	types TypeService
	log   *logrus.Entry
}

func NewTypeHandler(types TypeService, log *logrus.Entry) *TypeHandler {
	return &TypeHandler{types: types, log: log}
}

func (h *TypeHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	types, err := h.types.ListTypes(r.Context(), uid)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *TypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req models.MaintenanceTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mt, err := h.types.CreateType(r.Context(), uid, req)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mt)
}

func (h *TypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req models.MaintenanceTypeUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	mt, err := h.types.UpdateType(r.Context(), uid, mux.Vars(r)["id"], req)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mt)
}

func (h *TypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.types.DeleteType(r.Context(), uid, mux.Vars(r)["id"]); err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Msg: "Maintenance type removed"})
}
