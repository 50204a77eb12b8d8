package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateVehicle registers a vehicle for the caller.
func (s *Service) CreateVehicle(ctx context.Context, userID string, req models.VehicleRequest) (*models.Vehicle, error) {
	normalizeVehicle(&req)
	if err := s.check(req); err != nil {
		return nil, err
	}
	owner, err := s.ownerID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.Vehicles.InsertVehicle(ctx, models.Vehicle{
		OwnerID:      owner,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		CurrentKm:    req.CurrentKm,
		LicensePlate: req.LicensePlate,
	})
}

// UpdateVehicle replaces the editable fields of a vehicle. The odometer can
// be corrected but never ends up below the highest logged reading.
func (s *Service) UpdateVehicle(ctx context.Context, userID, vehicleID string, req models.VehicleRequest) (*models.Vehicle, error) {
	normalizeVehicle(&req)
	if err := s.check(req); err != nil {
		return nil, err
	}

	var vehicle *models.Vehicle
	err := s.repo.Tx.RunInTx(ctx, func(ctx context.Context) error {
		v, err := s.repo.Vehicles.FindVehicleForOwner(ctx, vehicleID, userID)
		if err != nil {
			return err
		}
		logs, err := s.repo.Logs.FindLogsByVehicle(ctx, vehicleID)
		if err != nil {
			return err
		}

		v.Make = req.Make
		v.Model = req.Model
		v.Year = req.Year
		v.LicensePlate = req.LicensePlate
		v.CurrentKm = req.CurrentKm
		if maintenance.RaiseOdometerIfNeeded(v, maintenance.HighestKm(logs)) {
			s.log.WithField("vehicle_id", vehicleID).Info("odometer kept at highest logged reading")
		}

		if err := s.repo.Vehicles.UpdateVehicle(ctx, vehicleID, *v); err != nil {
			return err
		}
		vehicle = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

// DeleteVehicle removes a vehicle and its maintenance logs.
func (s *Service) DeleteVehicle(ctx context.Context, userID, vehicleID string) error {
	return s.repo.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.Vehicles.FindVehicleForOwner(ctx, vehicleID, userID); err != nil {
			return err
		}
		if err := s.repo.Logs.DeleteLogsByVehicle(ctx, vehicleID); err != nil {
			return fmt.Errorf("delete logs: %w", err)
		}
		return s.repo.Vehicles.DeleteVehicle(ctx, vehicleID)
	})
}

// ListVehicles returns the caller's vehicles, each with its due alerts and
// total maintenance cost.
func (s *Service) ListVehicles(ctx context.Context, userID string) ([]models.VehicleSummary, error) {
	vehicles, err := s.repo.Vehicles.FindVehiclesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	types, err := s.repo.Types.FindTypesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]models.VehicleSummary, 0, len(vehicles))
	for _, v := range vehicles {
		statuses, err := s.evaluate(ctx, v, types, now)
		if err != nil {
			return nil, err
		}
		logs, err := s.repo.Logs.FindLogsByVehicle(ctx, v.ID.Hex())
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.VehicleSummary{
			ID:                   v.ID,
			Make:                 v.Make,
			Model:                v.Model,
			Year:                 v.Year,
			CurrentKm:            v.CurrentKm,
			LicensePlate:         v.LicensePlate,
			TotalMaintenanceCost: maintenance.TotalCost(logs),
			Alerts:               maintenance.Alerts(statuses),
		})
	}
	return summaries, nil
}

// evaluate loads the latest log of every type and runs the due evaluator.
func (s *Service) evaluate(ctx context.Context, v models.Vehicle, types []models.MaintenanceType, now time.Time) ([]maintenance.Status, error) {
	latest := make(map[primitive.ObjectID]*models.MaintenanceLog, len(types))
	for _, mt := range types {
		log, err := s.repo.Logs.FindLatestLog(ctx, v.ID.Hex(), mt.ID.Hex())
		if err != nil {
			return nil, fmt.Errorf("latest %s log: %w", mt.Name, err)
		}
		if log != nil {
			latest[mt.ID] = log
		}
	}
	return maintenance.Evaluate(v, types, latest, now), nil
}

func normalizeVehicle(req *models.VehicleRequest) {
	req.Make = strings.TrimSpace(req.Make)
	req.Model = strings.TrimSpace(req.Model)
	req.LicensePlate = strings.ToUpper(strings.TrimSpace(req.LicensePlate))
}
