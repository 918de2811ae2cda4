package save

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/service/reject"
	"shopfloor-terminal/internal/storage"
)

type MockRejectCreator struct {
	mock.Mock
}

func (m *MockRejectCreator) CreateReject(ctx context.Context, req reject.Request) (*reject.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reject.Result), args.Error(1)
}

type MockReasonAdder struct {
	mock.Mock
}

func (m *MockReasonAdder) AddReason(ctx context.Context, name string, description *string) (*storage.RejectReason, error) {
	args := m.Called(ctx, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.RejectReason), args.Error(1)
}

const rejectBody = `{"lookup_code":"1001-C55-OP10","qty_rejected":30,"operator_id":"OPR1",
	"supervisor_id":"SUP1","reason":"Tool breakage","remanufacture_qty":30,"machine_id":"7"}`

func TestSaveReject(t *testing.T) {
	creator := new(MockRejectCreator)
	creator.On("CreateReject", mock.Anything, reject.Request{
		LookupCode:       "1001-C55-OP10",
		QtyRejected:      30,
		OperatorID:       "OPR1",
		SupervisorID:     "SUP1",
		Reason:           "Tool breakage",
		RemanufactureQty: 30,
		MachineID:        "7",
	}).Return(&reject.Result{
		Record:    &storage.RejectRecord{RejectID: 4, RouteCard: "1001", QtyRejected: 30},
		EmailSent: false,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/rejects", strings.NewReader(rejectBody))
	rr := httptest.NewRecorder()

	SaveReject(slog.Default(), creator, time.Second).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp reject.Result
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	require.NotNil(t, resp.Record)
	assert.Equal(t, int64(4), resp.Record.RejectID)
	assert.False(t, resp.EmailSent)

	creator.AssertExpectations(t)
}

func TestSaveReject_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{
			name:       "zero remanufacture qty",
			body:       strings.Replace(rejectBody, `"remanufacture_qty":30`, `"remanufacture_qty":0`, 1),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "supervisor without permission",
			body:       rejectBody,
			err:        apperr.Authentication("identity.Service.Authenticate", "User does not have remanufacture permissions"),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "quantity above job quantity",
			body:       rejectBody,
			err:        apperr.Validation("reject.ValidateQuantity", "remanufacture quantity cannot exceed job quantity (50)"),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := new(MockRejectCreator)
			if tt.err != nil {
				creator.On("CreateReject", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/rejects", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			SaveReject(slog.Default(), creator, time.Second).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestSaveReason(t *testing.T) {
	adder := new(MockReasonAdder)
	adder.On("AddReason", mock.Anything, "Porosity", (*string)(nil)).
		Return(&storage.RejectReason{ID: 8, Name: "Porosity"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/reject-reasons", strings.NewReader(`{"reason_name":"Porosity"}`))
	rr := httptest.NewRecorder()

	SaveReason(slog.Default(), adder, time.Second).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"reason_id":8,"reason_name":"Porosity"}`, rr.Body.String())
}

func TestSaveReason_Duplicate(t *testing.T) {
	adder := new(MockReasonAdder)
	adder.On("AddReason", mock.Anything, "Porosity", (*string)(nil)).
		Return(nil, apperr.Conflict("reject.Service.AddReason", "reason already exists"))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/reject-reasons", strings.NewReader(`{"reason_name":"Porosity"}`))
	rr := httptest.NewRecorder()

	SaveReason(slog.Default(), adder, time.Second).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}
