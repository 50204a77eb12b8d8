// Package notify delivers maintenance notifications to account owners.
// Delivery is best effort: callers enqueue and move on, failures are only
// logged.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Notification is one message for one account.
type Notification struct {
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Dispatcher delivers a single notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, n Notification) error

func (f DispatcherFunc) Dispatch(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// LogDispatcher writes notifications to the log.
type LogDispatcher struct {
	Logger *logrus.Entry
}

func (d *LogDispatcher) Dispatch(_ context.Context, n Notification) error {
	d.Logger.WithFields(logrus.Fields{
		"email":   n.Email,
		"subject": n.Subject,
	}).Info(n.Message)
	return nil
}

func encode(n Notification) ([]byte, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	return body, nil
}
