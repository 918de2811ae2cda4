package update

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shopfloor-terminal/internal/apperr"
)

type MockReasonAssigner struct {
	mock.Mock
}

func (m *MockReasonAssigner) AssignReasons(ctx context.Context, operationCode string, reasonIDs []int64) error {
	args := m.Called(ctx, operationCode, reasonIDs)
	return args.Error(0)
}

func newRouter(a ReasonAssigner) http.Handler {
	r := chi.NewRouter()
	r.Put("/reject-reasons/{operation_code}", AssignReasonsAdmin(slog.Default(), a, time.Second))
	return r
}

func TestAssignReasonsAdmin(t *testing.T) {
	assigner := new(MockReasonAssigner)
	assigner.On("AssignReasons", mock.Anything, "OP10", []int64{2, 5}).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/reject-reasons/OP10", strings.NewReader(`{"reason_ids":[2,5]}`))
	rr := httptest.NewRecorder()

	newRouter(assigner).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"operation_code":"OP10","reason_ids":[2,5]}`, rr.Body.String())
	assigner.AssertExpectations(t)
}

func TestAssignReasonsAdmin_UnknownReason(t *testing.T) {
	assigner := new(MockReasonAssigner)
	assigner.On("AssignReasons", mock.Anything, "OP10", []int64{404}).
		Return(apperr.NotFound("reject.Service.AssignReasons", "reject reason not found"))

	req := httptest.NewRequest(http.MethodPut, "/reject-reasons/OP10", strings.NewReader(`{"reason_ids":[404]}`))
	rr := httptest.NewRecorder()

	newRouter(assigner).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "reject reason not found")
}
