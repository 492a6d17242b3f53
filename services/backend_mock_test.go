package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"visitor_access_go/models"
	"visitor_access_go/services/backend"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBackend stands in for *backend.Client in service tests
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) SearchVisitor(ctx context.Context, dniNumber int64) (*backend.SearchVisitorResponse, error) {
	args := m.Called(ctx, dniNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.SearchVisitorResponse), args.Error(1)
}

func (m *MockBackend) Entities(ctx context.Context) ([]models.Option, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Option), args.Error(1)
}

func (m *MockBackend) AdministrativeUnits(ctx context.Context, entityID int64) ([]models.Option, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Option), args.Error(1)
}

func (m *MockBackend) Directions(ctx context.Context, unitID int64) ([]models.Option, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Option), args.Error(1)
}

func (m *MockBackend) Areas(ctx context.Context, parentID int64, parent backend.AreaParent) ([]models.Option, error) {
	args := m.Called(ctx, parentID, parent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Option), args.Error(1)
}

func (m *MockBackend) RegisterComplete(ctx context.Context, req backend.RegisterRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockBackend) ListVisits(ctx context.Context) ([]models.Visit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Visit), args.Error(1)
}

func (m *MockBackend) DeleteVisits(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockBackend) DeleteVisit(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) MarkExit(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) DashboardStats(ctx context.Context, timeRange, metric string) (*models.DashboardStats, error) {
	args := m.Called(ctx, timeRange, metric)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *MockBackend) VisitorStats(ctx context.Context, dniNumber int64) (*models.VisitorStats, error) {
	args := m.Called(ctx, dniNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VisitorStats), args.Error(1)
}

// newTestSession stores a fresh session in an in-memory store
func newTestSession(t *testing.T) (*MemorySessionStore, *models.Session) {
	store := NewMemorySessionStore()
	sess := NewSession(time.Hour)
	require.NoError(t, store.Create(context.Background(), sess))
	return store, sess
}
