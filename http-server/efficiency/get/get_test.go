package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

type MockMetricReader struct {
	mock.Mock
}

func (m *MockMetricReader) GetEfficiencyForLog(ctx context.Context, jobLogID int64) (*storage.EfficiencyMetric, bool, error) {
	args := m.Called(ctx, jobLogID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*storage.EfficiencyMetric), args.Bool(1), args.Error(2)
}

func (m *MockMetricReader) ListMetrics(ctx context.Context, f storage.EfficiencyFilter) ([]storage.EfficiencyMetric, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.EfficiencyMetric), args.Error(1)
}

func TestGetEfficiency_ForLog(t *testing.T) {
	reader := new(MockMetricReader)
	reader.On("GetEfficiencyForLog", mock.Anything, int64(3)).
		Return(&storage.EfficiencyMetric{MetricID: 1, JobLogID: 3, EfficiencyPercentage: 67}, true, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/efficiency?job_log_id=3", nil)
	rr := httptest.NewRecorder()

	GetEfficiency(slog.Default(), reader, time.Second).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp LogMetricResponse
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, 67, resp.Metric.EfficiencyPercentage)
}

func TestGetEfficiency_List(t *testing.T) {
	reader := new(MockMetricReader)
	reader.On("ListMetrics", mock.Anything, storage.EfficiencyFilter{LookupCode: "1001-C55-OP10", MetricType: "RUNNING", Limit: 5}).
		Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/efficiency?lookup_code=1001-C55-OP10&metric_type=RUNNING&limit=5", nil)
	rr := httptest.NewRecorder()

	GetEfficiency(slog.Default(), reader, time.Second).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	reader.AssertExpectations(t)
}

func TestGetEfficiency_Errors(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		setup      func(m *MockMetricReader)
		wantStatus int
	}{
		{
			name:       "bad job_log_id",
			url:        "/api/efficiency?job_log_id=x",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad limit",
			url:        "/api/efficiency?limit=ten",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "storage failure",
			url:  "/api/efficiency",
			setup: func(m *MockMetricReader) {
				m.On("ListMetrics", mock.Anything, mock.Anything).
					Return(nil, apperr.Persistence("efficiency.Logger.ListMetrics", errors.New("db down")))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := new(MockMetricReader)
			if tt.setup != nil {
				tt.setup(reader)
			}

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rr := httptest.NewRecorder()

			GetEfficiency(slog.Default(), reader, time.Second).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}
