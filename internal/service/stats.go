package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/notify"
)

// Stats returns the caller's spending in the last 12 calendar months,
// oldest month first.
func (s *Service) Stats(ctx context.Context, userID string) ([]models.MonthlyCost, error) {
	now := s.now()
	vehicles, err := s.repo.Vehicles.FindVehiclesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID.Hex())
	}
	logs, err := s.repo.Logs.FindLogsByVehicles(ctx, ids, maintenance.WindowStart(now))
	if err != nil {
		return nil, err
	}
	return maintenance.MonthlyCosts(logs, now), nil
}

// DueDigest evaluates every account and queues one notification per user
// that has due maintenance. It returns how many notifications were queued.
func (s *Service) DueDigest(ctx context.Context) (int, error) {
	users, err := s.repo.Users.FindUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	now := s.now()
	queued := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return queued, err
		}
		lines, err := s.dueLines(ctx, u.ID.Hex(), now)
		if err != nil {
			s.log.WithError(err).WithField("user_id", u.ID.Hex()).Error("due digest failed for user")
			continue
		}
		if len(lines) == 0 {
			continue
		}
		ok := s.notifier.Enqueue(notify.Notification{
			UserID:    u.ID.Hex(),
			Email:     u.Email,
			Subject:   "Maintenance due",
			Message:   "Maintenance due:\n" + strings.Join(lines, "\n"),
			CreatedAt: now,
		})
		if ok {
			queued++
		}
	}
	s.log.WithFields(logrus.Fields{"users": len(users), "queued": queued}).Info("due digest finished")
	return queued, nil
}

func (s *Service) dueLines(ctx context.Context, userID string, now time.Time) ([]string, error) {
	vehicles, err := s.repo.Vehicles.FindVehiclesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return nil, nil
	}
	types, err := s.repo.Types.FindTypesByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, v := range vehicles {
		statuses, err := s.evaluate(ctx, v, types, now)
		if err != nil {
			return nil, err
		}
		for _, a := range maintenance.Alerts(statuses) {
			lines = append(lines, fmt.Sprintf("- %s %s (%s): %s, %s", v.Make, v.Model, v.LicensePlate, a.Type, a.Msg))
		}
	}
	return lines, nil
}
