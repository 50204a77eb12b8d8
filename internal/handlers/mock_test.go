package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockServices is a mock implementation of Services
type MockServices struct {
	mock.Mock
}

func (m *MockServices) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockServices) Authenticate(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockServices) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockServices) UpdateUser(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockServices) DeleteAccount(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockServices) ListVehicles(ctx context.Context, userID string) ([]models.VehicleSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VehicleSummary), args.Error(1)
}

func (m *MockServices) CreateVehicle(ctx context.Context, userID string, req models.VehicleRequest) (*models.Vehicle, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockServices) UpdateVehicle(ctx context.Context, userID, vehicleID string, req models.VehicleRequest) (*models.Vehicle, error) {
	args := m.Called(ctx, userID, vehicleID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockServices) DeleteVehicle(ctx context.Context, userID, vehicleID string) error {
	return m.Called(ctx, userID, vehicleID).Error(0)
}

func (m *MockServices) RecordMaintenance(ctx context.Context, userID, vehicleID string, req models.MaintenanceLogRequest) (*models.RecordResult, error) {
	args := m.Called(ctx, userID, vehicleID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecordResult), args.Error(1)
}

func (m *MockServices) History(ctx context.Context, userID, vehicleID string) ([]models.HistoryEntry, error) {
	args := m.Called(ctx, userID, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoryEntry), args.Error(1)
}

func (m *MockServices) ListTypes(ctx context.Context, userID string) ([]models.MaintenanceType, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceType), args.Error(1)
}

func (m *MockServices) CreateType(ctx context.Context, userID string, req models.MaintenanceTypeRequest) (*models.MaintenanceType, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceType), args.Error(1)
}

func (m *MockServices) UpdateType(ctx context.Context, userID, typeID string, req models.MaintenanceTypeUpdate) (*models.MaintenanceType, error) {
	args := m.Called(ctx, userID, typeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceType), args.Error(1)
}

func (m *MockServices) DeleteType(ctx context.Context, userID, typeID string) error {
	return m.Called(ctx, userID, typeID).Error(0)
}

func (m *MockServices) UpdateLog(ctx context.Context, userID, logID string, req models.MaintenanceLogUpdate) (*models.MaintenanceLog, error) {
	args := m.Called(ctx, userID, logID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceLog), args.Error(1)
}

func (m *MockServices) DeleteLog(ctx context.Context, userID, logID string) error {
	return m.Called(ctx, userID, logID).Error(0)
}

func (m *MockServices) Stats(ctx context.Context, userID string) ([]models.MonthlyCost, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MonthlyCost), args.Error(1)
}

// accounts is a UserLookup that forgets users on delete.
type accounts struct {
	mu  sync.Mutex
	ids map[string]bool
}

func (a *accounts) FindUserByID(_ context.Context, id string) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ids[id] {
		return nil, fmt.Errorf("user %w", db.ErrNotFound)
	}
	return &models.User{Email: "driver@example.com"}, nil
}

func (a *accounts) remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.ids, id)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type apiFixture struct {
	svc    *MockServices
	users  *accounts
	router http.Handler
	hook   *test.Hook
	token  string
	userID string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	authService, err := auth.NewService("handler-test-secret", time.Hour)
	require.NoError(t, err)
	logger, hook := test.NewNullLogger()

	user := &models.User{ID: primitive.NewObjectID(), Email: "driver@example.com"}
	token, err := authService.GenerateToken(user)
	require.NoError(t, err)

	svc := new(MockServices)
	users := &accounts{ids: map[string]bool{user.ID.Hex(): true}}
	router := NewRouter(RouterConfig{
		Services:               svc,
		Tokens:                 authService,
		Users:                  users,
		Health:                 pinger{},
		Metrics:                metrics.New(),
		Logger:                 logrus.NewEntry(logger),
		CORSOrigins:            []string{"*"},
		RateLimitRequests:      3,
		RateLimitWindowSeconds: 60,
	})
	return &apiFixture{svc: svc, users: users, router: router, hook: hook, token: token, userID: user.ID.Hex()}
}

// do sends an authenticated request unless token is empty.
func (f *apiFixture) do(method, path, body string) *httptest.ResponseRecorder {
	return f.doAs(f.token, method, path, body)
}

func (f *apiFixture) doAs(token, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

var errBoom = errors.New("boom")
