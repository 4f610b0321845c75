package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appintegration "github.com/stocklink/backend/internal/application/integration"
	"github.com/stocklink/backend/internal/domain/integration"
	"github.com/stocklink/backend/internal/interfaces/http/dto"
)

// MockSyncRunner implements SyncRunner for testing
type MockSyncRunner struct {
	mock.Mock
}

func (m *MockSyncRunner) RunPass(ctx context.Context, connectionID uuid.UUID, trigger integration.SyncTrigger) (*appintegration.SyncSummary, error) {
	args := m.Called(ctx, connectionID, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appintegration.SyncSummary), args.Error(1)
}

func (m *MockSyncRunner) SyncHistory(ctx context.Context, connectionID uuid.UUID, limit int) ([]integration.SyncLogEntry, error) {
	args := m.Called(ctx, connectionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SyncLogEntry), args.Error(1)
}

func (m *MockSyncRunner) Busy() bool {
	args := m.Called()
	return args.Bool(0)
}

func newSyncTestServer(service SyncRunner) *gin.Engine {
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewSyncHandler(service).RegisterRoutes(api)
	return engine
}

func TestSyncHandler_Run_Success(t *testing.T) {
	service := new(MockSyncRunner)
	connID := uuid.New()
	service.On("RunPass", mock.Anything, connID, integration.SyncTriggerManual).
		Return(&appintegration.SyncSummary{ConnectionID: connID, Pushed: 3, Pulled: 1}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/connections/"+connID.String()+"/sync", nil)
	w := httptest.NewRecorder()
	newSyncTestServer(service).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(3), data["pushed"])
	assert.Equal(t, float64(1), data["pulled"])
	service.AssertExpectations(t)
}

func TestSyncHandler_Run_BusyReturnsConflict(t *testing.T) {
	service := new(MockSyncRunner)
	connID := uuid.New()
	service.On("RunPass", mock.Anything, connID, integration.SyncTriggerManual).
		Return(nil, integration.ErrSyncBusy)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/connections/"+connID.String()+"/sync", nil)
	w := httptest.NewRecorder()
	newSyncTestServer(service).ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeSyncBusy, resp.Error.Code)
}

func TestSyncHandler_Run_SyncDisabled(t *testing.T) {
	service := new(MockSyncRunner)
	connID := uuid.New()
	service.On("RunPass", mock.Anything, connID, integration.SyncTriggerManual).
		Return(nil, integration.ErrSyncDisabled)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/connections/"+connID.String()+"/sync", nil)
	w := httptest.NewRecorder()
	newSyncTestServer(service).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSyncHandler_Logs_LimitQueryHonored(t *testing.T) {
	service := new(MockSyncRunner)
	connID := uuid.New()
	entry := integration.NewSyncLogEntry(connID, integration.SyncKindFull, integration.SyncTriggerManual)
	service.On("SyncHistory", mock.Anything, connID, 10).
		Return([]integration.SyncLogEntry{*entry}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/connections/"+connID.String()+"/logs?limit=10", nil)
	w := httptest.NewRecorder()
	newSyncTestServer(service).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Total)
	service.AssertExpectations(t)
}

func TestSyncHandler_Logs_DefaultLimit(t *testing.T) {
	service := new(MockSyncRunner)
	connID := uuid.New()
	service.On("SyncHistory", mock.Anything, connID, 50).
		Return([]integration.SyncLogEntry{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/connections/"+connID.String()+"/logs", nil)
	w := httptest.NewRecorder()
	newSyncTestServer(service).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestSyncHandler_Status(t *testing.T) {
	service := new(MockSyncRunner)
	service.On("Busy").Return(true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	w := httptest.NewRecorder()
	newSyncTestServer(service).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["busy"])
}
