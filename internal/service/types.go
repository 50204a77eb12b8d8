package service

import (
	"context"
	"strings"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ListTypes returns the caller's maintenance types ordered by name.
func (s *Service) ListTypes(ctx context.Context, userID string) ([]models.MaintenanceType, error) {
	return s.repo.Types.FindTypesByOwner(ctx, userID)
}

// CreateType adds a maintenance type. Names are unique per user.
func (s *Service) CreateType(ctx context.Context, userID string, req models.MaintenanceTypeRequest) (*models.MaintenanceType, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.check(req); err != nil {
		return nil, err
	}
	owner, err := s.ownerID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.Types.InsertType(ctx, models.MaintenanceType{
		UserID:                owner,
		Name:                  req.Name,
		DefaultIntervalKm:     req.DefaultIntervalKm,
		DefaultIntervalMonths: req.DefaultIntervalMonths,
		Description:           req.Description,
	})
}

// UpdateType applies a partial update to one of the caller's types.
func (s *Service) UpdateType(ctx context.Context, userID, typeID string, req models.MaintenanceTypeUpdate) (*models.MaintenanceType, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	mt, err := s.repo.Types.FindTypeForOwner(ctx, typeID, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		mt.Name = *req.Name
	}
	if req.DefaultIntervalKm != nil {
		mt.DefaultIntervalKm = req.DefaultIntervalKm
	}
	if req.DefaultIntervalMonths != nil {
		mt.DefaultIntervalMonths = req.DefaultIntervalMonths
	}
	if req.Description != nil {
		mt.Description = *req.Description
	}

	if err := s.repo.Types.UpdateType(ctx, typeID, *mt); err != nil {
		return nil, err
	}
	return mt, nil
}

// DeleteType removes one of the caller's types. Types referenced by any
// maintenance log cannot be removed.
func (s *Service) DeleteType(ctx context.Context, userID, typeID string) error {
	return s.repo.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.Types.FindTypeForOwner(ctx, typeID, userID); err != nil {
			return err
		}
		inUse, err := s.repo.Logs.HasLogsForType(ctx, typeID)
		if err != nil {
			return err
		}
		if inUse {
			return ErrTypeInUse
		}
		return s.repo.Types.DeleteType(ctx, typeID)
	})
}
