package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/notify"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the Mongo collections.
type memStore struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]models.User
	vehicles map[primitive.ObjectID]models.Vehicle
	types    map[primitive.ObjectID]models.MaintenanceType
	logs     map[primitive.ObjectID]models.MaintenanceLog
	txCalls  int
	failNext error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[primitive.ObjectID]models.User{},
		vehicles: map[primitive.ObjectID]models.Vehicle{},
		types:    map[primitive.ObjectID]models.MaintenanceType{},
		logs:     map[primitive.ObjectID]models.MaintenanceLog{},
	}
}

func (m *memStore) repo() Repository {
	return Repository{Users: m, Vehicles: m, Types: m, Logs: m, Tx: m}
}

func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.txCalls++
	m.mu.Unlock()
	return fn(ctx)
}

func parse(kind, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return oid, fmt.Errorf("%s %w", kind, db.ErrNotFound)
	}
	return oid, nil
}

func notFound(kind string) error {
	return fmt.Errorf("%s %w", kind, db.ErrNotFound)
}

// users

func (m *memStore) InsertUser(ctx context.Context, u models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, fmt.Errorf("user: %w", db.ErrDuplicate)
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID] = u
	return &u, nil
}

func (m *memStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := parse("user", id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[oid]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (m *memStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return nil, err
	}
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (m *memStore) FindUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (m *memStore) UpdateUser(ctx context.Context, id string, u models.User) error {
	oid, err := parse("user", id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[oid]; !ok {
		return notFound("user")
	}
	u.ID = oid
	m.users[oid] = u
	return nil
}

func (m *memStore) DeleteUser(ctx context.Context, id string) error {
	oid, err := parse("user", id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[oid]; !ok {
		return notFound("user")
	}
	delete(m.users, oid)
	return nil
}

// vehicles

func (m *memStore) InsertVehicle(ctx context.Context, v models.Vehicle) (*models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	m.vehicles[v.ID] = v
	return &v, nil
}

func (m *memStore) FindVehiclesByOwner(ctx context.Context, ownerID string) ([]models.Vehicle, error) {
	owner, err := parse("user", ownerID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicles := []models.Vehicle{}
	for _, v := range m.vehicles {
		if v.OwnerID == owner {
			vehicles = append(vehicles, v)
		}
	}
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].ID.Hex() < vehicles[j].ID.Hex() })
	return vehicles, nil
}

func (m *memStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	oid, err := parse("vehicle", id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[oid]
	if !ok {
		return nil, notFound("vehicle")
	}
	return &v, nil
}

func (m *memStore) FindVehicleForOwner(ctx context.Context, id, ownerID string) (*models.Vehicle, error) {
	v, err := m.FindVehicleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.OwnerID.Hex() != ownerID {
		return nil, notFound("vehicle")
	}
	return v, nil
}

func (m *memStore) UpdateVehicle(ctx context.Context, id string, v models.Vehicle) error {
	oid, err := parse("vehicle", id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vehicles[oid]; !ok {
		return notFound("vehicle")
	}
	v.ID = oid
	m.vehicles[oid] = v
	return nil
}

func (m *memStore) DeleteVehicle(ctx context.Context, id string) error {
	oid, err := parse("vehicle", id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vehicles[oid]; !ok {
		return notFound("vehicle")
	}
	delete(m.vehicles, oid)
	return nil
}

func (m *memStore) DeleteVehiclesByOwner(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range m.vehicles {
		if v.OwnerID.Hex() == ownerID {
			delete(m.vehicles, id)
		}
	}
	return nil
}

// maintenance types

func (m *memStore) InsertType(ctx context.Context, mt models.MaintenanceType) (*models.MaintenanceType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertTypeLocked(mt)
}

func (m *memStore) insertTypeLocked(mt models.MaintenanceType) (*models.MaintenanceType, error) {
	for _, existing := range m.types {
		if existing.UserID == mt.UserID && existing.Name == mt.Name {
			return nil, fmt.Errorf("maintenance type: %w", db.ErrDuplicate)
		}
	}
	if mt.ID.IsZero() {
		mt.ID = primitive.NewObjectID()
	}
	m.types[mt.ID] = mt
	return &mt, nil
}

func (m *memStore) InsertTypes(ctx context.Context, types []models.MaintenanceType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mt := range types {
		if _, err := m.insertTypeLocked(mt); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) FindTypesByOwner(ctx context.Context, userID string) ([]models.MaintenanceType, error) {
	owner, err := parse("user", userID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	types := []models.MaintenanceType{}
	for _, mt := range m.types {
		if mt.UserID == owner {
			types = append(types, mt)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

func (m *memStore) FindTypeForOwner(ctx context.Context, id, userID string) (*models.MaintenanceType, error) {
	mt, err := m.typeByID(id)
	if err != nil {
		return nil, err
	}
	if mt.UserID.Hex() != userID {
		return nil, notFound("maintenance type")
	}
	return mt, nil
}

func (m *memStore) typeByID(id string) (*models.MaintenanceType, error) {
	oid, err := parse("maintenance type", id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.types[oid]
	if !ok {
		return nil, notFound("maintenance type")
	}
	return &mt, nil
}

func (m *memStore) CountTypesByOwner(ctx context.Context, userID string) (int64, error) {
	types, err := m.FindTypesByOwner(ctx, userID)
	return int64(len(types)), err
}

func (m *memStore) UpdateType(ctx context.Context, id string, mt models.MaintenanceType) error {
	oid, err := parse("maintenance type", id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for otherID, existing := range m.types {
		if otherID != oid && existing.UserID == mt.UserID && existing.Name == mt.Name {
			return fmt.Errorf("maintenance type: %w", db.ErrDuplicate)
		}
	}
	mt.ID = oid
	m.types[oid] = mt
	return nil
}

func (m *memStore) DeleteType(ctx context.Context, id string) error {
	oid, err := parse("maintenance type", id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.types, oid)
	return nil
}

func (m *memStore) DeleteTypesByOwner(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, mt := range m.types {
		if mt.UserID.Hex() == userID {
			delete(m.types, id)
		}
	}
	return nil
}

// maintenance logs

func (m *memStore) InsertLog(ctx context.Context, l models.MaintenanceLog) (*models.MaintenanceLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	m.logs[l.ID] = l
	return &l, nil
}

func (m *memStore) FindLogByID(ctx context.Context, id string) (*models.MaintenanceLog, error) {
	oid, err := parse("maintenance log", id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[oid]
	if !ok {
		return nil, notFound("maintenance log")
	}
	return &l, nil
}

func (m *memStore) FindLatestLog(ctx context.Context, vehicleID, typeID string) (*models.MaintenanceLog, error) {
	logs, err := m.FindLogsByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	for _, l := range logs {
		if l.MaintenanceTypeID.Hex() == typeID {
			return &l, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindLogsByVehicle(ctx context.Context, vehicleID string) ([]models.MaintenanceLog, error) {
	return m.FindLogsByVehicles(ctx, []string{vehicleID}, time.Time{})
}

func (m *memStore) FindLogsByVehicles(ctx context.Context, vehicleIDs []string, since time.Time) ([]models.MaintenanceLog, error) {
	wanted := map[string]bool{}
	for _, id := range vehicleIDs {
		wanted[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	logs := []models.MaintenanceLog{}
	for _, l := range m.logs {
		if wanted[l.VehicleID.Hex()] && !l.DatePerformed.Before(since) {
			logs = append(logs, l)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].DatePerformed.Equal(logs[j].DatePerformed) {
			return logs[i].DatePerformed.After(logs[j].DatePerformed)
		}
		return strings.Compare(logs[i].ID.Hex(), logs[j].ID.Hex()) > 0
	})
	return logs, nil
}

func (m *memStore) HasLogsForType(ctx context.Context, typeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.MaintenanceTypeID.Hex() == typeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateLog(ctx context.Context, id string, l models.MaintenanceLog) error {
	oid, err := parse("maintenance log", id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[oid]; !ok {
		return notFound("maintenance log")
	}
	l.ID = oid
	m.logs[oid] = l
	return nil
}

func (m *memStore) DeleteLog(ctx context.Context, id string) error {
	oid, err := parse("maintenance log", id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[oid]; !ok {
		return notFound("maintenance log")
	}
	delete(m.logs, oid)
	return nil
}

func (m *memStore) DeleteLogsByVehicle(ctx context.Context, vehicleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.logs {
		if l.VehicleID.Hex() == vehicleID {
			delete(m.logs, id)
		}
	}
	return nil
}

// fakeAuth avoids bcrypt cost in tests.
type fakeAuth struct{}

func (fakeAuth) HashPassword(p string) (string, error) { return "hashed:" + p, nil }
func (fakeAuth) CheckPassword(p, hash string) bool     { return hash == "hashed:"+p }
func (fakeAuth) GenerateToken(u *models.User) (string, error) {
	if u.ID.IsZero() {
		return "", errors.New("no id")
	}
	return "token-" + u.ID.Hex(), nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []notify.Notification
	reject bool
}

func (f *fakeNotifier) Enqueue(n notify.Notification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject {
		return false
	}
	f.sent = append(f.sent, n)
	return true
}
