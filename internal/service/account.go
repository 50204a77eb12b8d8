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
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Register creates an account and its starter maintenance types in one
// transaction.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.check(req); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.repo.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.Users.InsertUser(ctx, models.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
		})
		if errors.Is(err, db.ErrDuplicate) {
			return ErrEmailTaken
		}
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		_, err = s.SeedDefaultTypes(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID.Hex()).Info("account registered")
	return user, nil
}

// SeedDefaultTypes inserts the starter catalog for a user who has no
// maintenance types yet and returns how many were inserted. It is a no-op
// for users that already have types.
func (s *Service) SeedDefaultTypes(ctx context.Context, userID primitive.ObjectID) (int, error) {
	n, err := s.repo.Types.CountTypesByOwner(ctx, userID.Hex())
	if err != nil {
		return 0, fmt.Errorf("count types: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	types := maintenance.DefaultTypes(userID)
	if err := s.repo.Types.InsertTypes(ctx, types); err != nil {
		return 0, fmt.Errorf("seed types: %w", err)
	}
	return len(types), nil
}

// Authenticate checks credentials and returns a bearer token. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	user, err := s.repo.Users.FindUserByEmail(ctx, normalizeEmail(req.Login()))
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.auth.CheckPassword(req.Password, user.PasswordHash) {
		s.log.WithField("user_id", user.ID.Hex()).Warn("login with wrong password")
		return nil, ErrInvalidCredentials
	}

	token, err := s.auth.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// GetUser returns the caller's account.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.Users.FindUserByID(ctx, userID)
}

// UpdateUser applies a partial profile update. A new email must not belong
// to another account.
func (s *Service) UpdateUser(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.User, error) {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := s.check(req); err != nil {
		return nil, err
	}

	user, err := s.repo.Users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil && *req.Email != user.Email {
		if err := s.ensureEmailFree(ctx, *req.Email); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := s.auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	err = s.repo.Users.UpdateUser(ctx, userID, *user)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user together with their vehicles, logs and
// maintenance types.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	err := s.repo.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.Users.FindUserByID(ctx, userID); err != nil {
			return err
		}
		vehicles, err := s.repo.Vehicles.FindVehiclesByOwner(ctx, userID)
		if err != nil {
			return err
		}
		for _, v := range vehicles {
			if err := s.repo.Logs.DeleteLogsByVehicle(ctx, v.ID.Hex()); err != nil {
				return fmt.Errorf("delete logs of vehicle %s: %w", v.ID.Hex(), err)
			}
		}
		if err := s.repo.Vehicles.DeleteVehiclesByOwner(ctx, userID); err != nil {
			return fmt.Errorf("delete vehicles: %w", err)
		}
		if err := s.repo.Types.DeleteTypesByOwner(ctx, userID); err != nil {
			return fmt.Errorf("delete types: %w", err)
		}
		return s.repo.Users.DeleteUser(ctx, userID)
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID}).Info("account deleted")
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.Users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailTaken
	case errors.Is(err, db.ErrNotFound):
		return nil
	default:
		return err
	}
}
