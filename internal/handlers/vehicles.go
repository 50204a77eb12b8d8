package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// VehicleService is what VehicleHandler needs from the service layer.
type VehicleService interface {
	ListVehicles(ctx context.Context, userID string) ([]models.VehicleSummary, error)
	CreateVehicle(ctx context.Context, userID string, req models.VehicleRequest) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, userID, vehicleID string, req models.VehicleRequest) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, userID, vehicleID string) error
	RecordMaintenance(ctx context.Context, userID, vehicleID string, req models.MaintenanceLogRequest) (*models.RecordResult, error)
	History(ctx context.Context, userID, vehicleID string) ([]models.HistoryEntry, error)
}

// VehicleHandler serves /vehicles and the per-vehicle maintenance routes.
type VehicleHandler struct {
	vehicles VehicleService
	log      *logrus.Entry
}

func NewVehicleHandler(vehicles VehicleService, log *logrus.Entry) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, log: log}
}

// List returns the caller's vehicles with alerts and total cost.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	summaries, err := h.vehicles.ListVehicles(r.Context(), uid)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req models.VehicleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.vehicles.CreateVehicle(r.Context(), uid, req)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req models.VehicleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.vehicles.UpdateVehicle(r.Context(), uid, mux.Vars(r)["id"], req)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.vehicles.DeleteVehicle(r.Context(), uid, mux.Vars(r)["id"]); err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Msg: "Vehicle removed"})
}

// RecordMaintenance logs a maintenance event on the vehicle.
func (h *VehicleHandler) RecordMaintenance(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req models.MaintenanceLogRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.vehicles.RecordMaintenance(r.Context(), uid, mux.Vars(r)["id"], req)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// History lists the vehicle's maintenance logs, newest first.
func (h *VehicleHandler) History(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	history, err := h.vehicles.History(r.Context(), uid, mux.Vars(r)["id"])
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
