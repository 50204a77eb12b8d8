// Package service implements the maintenance tracker use cases on top of
// the storage collections. Every method takes the id of the calling user and
// only ever touches that user's data.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/notify"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("incorrect login")
	ErrTypeInUse          = errors.New("maintenance type has logs attached")
	ErrValidation         = errors.New("validation failed")
)

// Repository is the storage the service works against.
type Repository struct {
	Users    db.UserCollection
	Vehicles db.VehicleCollection
	Types    db.MaintenanceTypeCollection
	Logs     db.MaintenanceLogCollection
	Tx       db.TxRunner
}

// NewRepository exposes a Mongo store as a Repository.
func NewRepository(store *db.Store) Repository {
	return Repository{
		Users:    store.Users,
		Vehicles: store.Vehicles,
		Types:    store.Types,
		Logs:     store.Logs,
		Tx:       store,
	}
}

// Authenticator hashes passwords and issues access tokens.
type Authenticator interface {
	HashPassword(password string) (string, error)
	CheckPassword(password, hash string) bool
	GenerateToken(user *models.User) (string, error)
}

// Notifier accepts notifications for asynchronous delivery.
type Notifier interface {
	Enqueue(n notify.Notification) bool
}

// Service bundles the use cases.
type Service struct {
	repo     Repository
	auth     Authenticator
	notifier Notifier
	validate *validator.Validate
	log      *logrus.Entry
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(repo Repository, auth Authenticator, notifier Notifier, log *logrus.Entry, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		auth:     auth,
		notifier: notifier,
		validate: newValidator(),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.IsValidCategory(models.Category(fl.Field().String()))
	})
	return v
}

// check validates req and reports failures as ErrValidation.
func (s *Service) check(req interface{}) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "category":
		return fe.Field() + " must be one of: preventive, wear, corrective"
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func objectID(kind, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s %w", kind, db.ErrNotFound)
	}
	return oid, nil
}

// ownerID resolves the caller to a stored account, so nothing is created
// for a deleted user.
func (s *Service) ownerID(ctx context.Context, userID string) (primitive.ObjectID, error) {
	user, err := s.repo.Users.FindUserByID(ctx, userID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return user.ID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
