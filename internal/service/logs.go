package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/notify"
)

const unknownType = "Unknown type"

// RecordMaintenance stores a maintenance event, raises the vehicle odometer
// when the event reading is higher and queues a notification for the owner
// once the transaction has committed.
func (s *Service) RecordMaintenance(ctx context.Context, userID, vehicleID string, req models.MaintenanceLogRequest) (*models.RecordResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	typeOID, err := objectID("maintenance type", req.MaintenanceTypeID)
	if err != nil {
		return nil, err
	}
	performed := req.DatePerformed.UTC()
	if req.DatePerformed.IsZero() {
		performed = s.now()
	}
	category := req.Category
	if category == "" {
		category = models.CategoryPreventive
	}

	var (
		vehicle *models.Vehicle
		mt      *models.MaintenanceType
		stored  *models.MaintenanceLog
	)
	err = s.repo.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if vehicle, err = s.repo.Vehicles.FindVehicleForOwner(ctx, vehicleID, userID); err != nil {
			return err
		}
		if mt, err = s.repo.Types.FindTypeForOwner(ctx, req.MaintenanceTypeID, userID); err != nil {
			return err
		}

		raised := maintenance.RaiseOdometerIfNeeded(vehicle, req.KmPerformed)
		stored, err = s.repo.Logs.InsertLog(ctx, models.MaintenanceLog{
			VehicleID:         vehicle.ID,
			MaintenanceTypeID: typeOID,
			DatePerformed:     performed,
			KmPerformed:       req.KmPerformed,
			Notes:             strings.TrimSpace(req.Notes),
			ServiceCost:       req.ServiceCost,
			ProductCost:       req.ProductCost,
			Category:          category,
		})
		if err != nil {
			return fmt.Errorf("insert log: %w", err)
		}
		if raised {
			return s.repo.Vehicles.UpdateVehicle(ctx, vehicleID, *vehicle)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	next := maintenance.NextDueKm(req.KmPerformed, mt)
	s.notifyRecorded(ctx, userID, vehicle, mt, next)

	return &models.RecordResult{
		Msg:       "Maintenance recorded and odometer updated",
		NextDueKm: next,
		Log:       *stored,
	}, nil
}

// notifyRecorded is best effort: lookup or queue failures are only logged.
func (s *Service) notifyRecorded(ctx context.Context, userID string, v *models.Vehicle, mt *models.MaintenanceType, next int) {
	entry := s.log.WithFields(logrus.Fields{"user_id": userID, "vehicle_id": v.ID.Hex()})
	user, err := s.repo.Users.FindUserByID(ctx, userID)
	if err != nil {
		entry.WithError(err).Warn("skipping maintenance notification")
		return
	}
	s.notifier.Enqueue(notify.Notification{
		UserID:    userID,
		Email:     user.Email,
		Subject:   "Maintenance recorded",
		Message:   fmt.Sprintf("Maintenance '%s' recorded for %s. Next service expected at %dkm.", mt.Name, v.Model, next),
		CreatedAt: s.now(),
	})
}

// History lists a vehicle's maintenance logs, newest first, with type names.
func (s *Service) History(ctx context.Context, userID, vehicleID string) ([]models.HistoryEntry, error) {
	if _, err := s.repo.Vehicles.FindVehicleForOwner(ctx, vehicleID, userID); err != nil {
		return nil, err
	}
	logs, err := s.repo.Logs.FindLogsByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	types, err := s.repo.Types.FindTypesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(types))
	for _, mt := range types {
		names[mt.ID.Hex()] = mt.Name
	}

	history := make([]models.HistoryEntry, 0, len(logs))
	for _, l := range logs {
		name, ok := names[l.MaintenanceTypeID.Hex()]
		if !ok {
			name = unknownType
		}
		history = append(history, models.HistoryEntry{
			ID:              l.ID,
			MaintenanceType: name,
			DatePerformed:   l.DatePerformed,
			KmPerformed:     l.KmPerformed,
			Notes:           l.Notes,
			ServiceCost:     l.ServiceCost,
			ProductCost:     l.ProductCost,
			Category:        l.Category,
		})
	}
	return history, nil
}

// UpdateLog applies a partial update to a log on one of the caller's
// vehicles. A higher reading raises the vehicle odometer.
func (s *Service) UpdateLog(ctx context.Context, userID, logID string, req models.MaintenanceLogUpdate) (*models.MaintenanceLog, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	var updated *models.MaintenanceLog
	err := s.repo.Tx.RunInTx(ctx, func(ctx context.Context) error {
		log, vehicle, err := s.ownedLog(ctx, userID, logID)
		if err != nil {
			return err
		}

		if req.MaintenanceTypeID != nil {
			mt, err := s.repo.Types.FindTypeForOwner(ctx, *req.MaintenanceTypeID, userID)
			if err != nil {
				return err
			}
			log.MaintenanceTypeID = mt.ID
		}
		if req.DatePerformed != nil {
			log.DatePerformed = req.DatePerformed.UTC()
		}
		if req.Notes != nil {
			log.Notes = strings.TrimSpace(*req.Notes)
		}
		if req.ServiceCost != nil {
			log.ServiceCost = req.ServiceCost
		}
		if req.ProductCost != nil {
			log.ProductCost = req.ProductCost
		}
		if req.Category != nil {
			log.Category = *req.Category
		}

		raised := false
		if req.KmPerformed != nil {
			log.KmPerformed = *req.KmPerformed
			raised = maintenance.RaiseOdometerIfNeeded(vehicle, log.KmPerformed)
		}

		if err := s.repo.Logs.UpdateLog(ctx, logID, *log); err != nil {
			return err
		}
		if raised {
			if err := s.repo.Vehicles.UpdateVehicle(ctx, vehicle.ID.Hex(), *vehicle); err != nil {
				return err
			}
		}
		updated = log
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteLog removes a log on one of the caller's vehicles. The odometer is
// left as is.
func (s *Service) DeleteLog(ctx context.Context, userID, logID string) error {
	return s.repo.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, _, err := s.ownedLog(ctx, userID, logID); err != nil {
			return err
		}
		return s.repo.Logs.DeleteLog(ctx, logID)
	})
}

// ownedLog loads a log and its vehicle, reporting not found unless the
// vehicle belongs to userID.
func (s *Service) ownedLog(ctx context.Context, userID, logID string) (*models.MaintenanceLog, *models.Vehicle, error) {
	log, err := s.repo.Logs.FindLogByID(ctx, logID)
	if err != nil {
		return nil, nil, err
	}
	vehicle, err := s.repo.Vehicles.FindVehicleForOwner(ctx, log.VehicleID.Hex(), userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, fmt.Errorf("maintenance log %w", db.ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	return log, vehicle, nil
}
