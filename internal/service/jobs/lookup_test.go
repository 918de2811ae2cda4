package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/notify"
	"shopfloor-terminal/internal/storage"
	"shopfloor-terminal/internal/storage/storagetest"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendJobNotFound(ctx context.Context, n notify.JobNotFound) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func seededStore() *storagetest.JobStore {
	return storagetest.NewJobStore(
		storage.JobOperation{
			RouteCard: "1001", ContractNumber: "C55", OpCode: "OP10", PartNumber: "PN-1",
			CustomerName: "ACME", Description: "Turn", Quantity: 50, CompletedQty: 20, Balance: 30,
			Status: storage.JobStatusWIP, PlannedSetupTime: 30, PlannedRunTime: 600,
		},
		storage.JobOperation{
			RouteCard: "ABC7", ContractNumber: "C9", OpCode: "OP20", Quantity: 10, Balance: 10,
			Status: storage.JobStatusUnstarted,
		},
	)
}

func TestLookupJob_Found(t *testing.T) {
	n := new(MockNotifier)
	svc := NewService(slog.Default(), seededStore(), n)

	res, err := svc.LookupJob(context.Background(), "1001-C55", "OP10", ScanContext{})
	require.NoError(t, err)

	assert.Equal(t, LookupFound, res.Kind)
	require.NotNil(t, res.Job)
	assert.Equal(t, "1001-C55-OP10", res.Job.LookupCode)
	n.AssertNotCalled(t, "SendJobNotFound", mock.Anything, mock.Anything)
}

func TestLookupJob_OperationNotAssigned(t *testing.T) {
	n := new(MockNotifier)
	svc := NewService(slog.Default(), seededStore(), n)

	res, err := svc.LookupJob(context.Background(), "1001-C55", "OP30", ScanContext{})
	require.NoError(t, err)

	assert.Equal(t, LookupOperationNotAssigned, res.Kind)
	assert.Equal(t, "C55", res.ContractNumber)
	require.Len(t, res.ExistingOperations, 1)
	assert.Equal(t, "OP10", res.ExistingOperations[0].OpCode)
	n.AssertNotCalled(t, "SendJobNotFound", mock.Anything, mock.Anything)
}

func TestLookupJob_BareRouteCardScan(t *testing.T) {
	n := new(MockNotifier)
	svc := NewService(slog.Default(), seededStore(), n)

	res, err := svc.LookupJob(context.Background(), "1001", "OP10", ScanContext{})
	require.NoError(t, err)

	assert.Equal(t, LookupFound, res.Kind)
	require.NotNil(t, res.Job)
	assert.Equal(t, "1001-C55-OP10", res.LookupCode)
	assert.Equal(t, "C55", res.ContractNumber)
	assert.Empty(t, res.ExistingOperations)

	res, err = svc.CheckJob(context.Background(), "1001", "OP30")
	require.NoError(t, err)
	assert.Equal(t, LookupOperationNotAssigned, res.Kind)

	n.AssertNotCalled(t, "SendJobNotFound", mock.Anything, mock.Anything)
}

func TestLookupJob_NonNumericRouteCardStillChecked(t *testing.T) {
	svc := NewService(slog.Default(), seededStore(), nil)

	res, err := svc.LookupJob(context.Background(), "ABC7", "OP10", ScanContext{})
	require.NoError(t, err)

	assert.Equal(t, LookupOperationNotAssigned, res.Kind)
	assert.Equal(t, "ABC7", res.RouteCard)
}

func TestLookupJob_NotFoundSendsNotification(t *testing.T) {
	n := new(MockNotifier)
	n.On("SendJobNotFound", mock.Anything, mock.MatchedBy(func(jn notify.JobNotFound) bool {
		return jn.RouteCard == "9999" && jn.OperationCode == "OP10" && jn.TerminalName == "Lathe 3"
	})).Return(nil)

	svc := NewService(slog.Default(), seededStore(), n)

	res, err := svc.LookupJob(context.Background(), "9999", "OP10", ScanContext{TerminalName: "Lathe 3"})
	require.NoError(t, err)

	assert.Equal(t, LookupNotFound, res.Kind)
	n.AssertExpectations(t)
}

func TestLookupJob_NotificationFailureIgnored(t *testing.T) {
	n := new(MockNotifier)
	n.On("SendJobNotFound", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	res, err := NewService(slog.Default(), seededStore(), n).LookupJob(context.Background(), "9999", "OP10", ScanContext{})
	require.NoError(t, err)
	assert.Equal(t, LookupNotFound, res.Kind)
}

func TestCheckJob_HasNoSideEffects(t *testing.T) {
	n := new(MockNotifier)

	res, err := NewService(slog.Default(), seededStore(), n).CheckJob(context.Background(), "9999", "OP10")
	require.NoError(t, err)

	assert.Equal(t, LookupNotFound, res.Kind)
	n.AssertNotCalled(t, "SendJobNotFound", mock.Anything, mock.Anything)
}

func TestLookupJob_Validation(t *testing.T) {
	svc := NewService(slog.Default(), seededStore(), nil)

	_, err := svc.LookupJob(context.Background(), "  ", "OP10", ScanContext{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.CheckJob(context.Background(), "1001", "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRouteCardFromScan(t *testing.T) {
	tests := map[string]string{
		"1001":          "1001",
		"1001-C55":      "1001",
		" 1001-C55-X ":  "1001",
		"ABC7":          "ABC7",
		"-leading-dash": "-leading-dash",
	}

	for scan, want := range tests {
		assert.Equal(t, want, RouteCardFromScan(scan), scan)
	}
}

func TestAddOperation(t *testing.T) {
	store := seededStore()
	svc := NewService(slog.Default(), store, nil)

	addedBy := "E7"
	job, err := svc.AddOperation(context.Background(), AddOperationParams{
		RouteCard:     "1001",
		OperationCode: "OP30",
		OneOff:        true,
		AddedBy:       &addedBy,
	})
	require.NoError(t, err)

	assert.Equal(t, "1001-C55-OP30", job.LookupCode)
	assert.Equal(t, storage.JobStatusReady, job.Status)
	assert.True(t, job.UserAdded)
	assert.True(t, job.OneOff)
	assert.Equal(t, "PN-1", job.PartNumber)
	assert.Equal(t, "ACME", job.CustomerName)
	assert.Equal(t, 50, job.Quantity)
	assert.Equal(t, 30, job.Balance)
	assert.Equal(t, "User added operation: OP30", job.Description)
	assert.NotNil(t, job.AddedAt)

	res, err := svc.CheckJob(context.Background(), "1001-C55", "OP30")
	require.NoError(t, err)
	assert.Equal(t, LookupFound, res.Kind)
}

func TestAddOperation_Errors(t *testing.T) {
	svc := NewService(slog.Default(), seededStore(), nil)

	_, err := svc.AddOperation(context.Background(), AddOperationParams{RouteCard: "1001", OperationCode: "OP10"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	// другой контракт не делает операцию новой
	_, err = svc.AddOperation(context.Background(), AddOperationParams{RouteCard: "1001", ContractNumber: "C99", OperationCode: "OP10"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	res, err := svc.CheckJob(context.Background(), "1001-C99", "OP10")
	require.NoError(t, err)
	assert.Equal(t, LookupFound, res.Kind)
	assert.Equal(t, "1001-C55-OP10", res.LookupCode)

	_, err = svc.AddOperation(context.Background(), AddOperationParams{RouteCard: "4040", OperationCode: "OP10"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.AddOperation(context.Background(), AddOperationParams{RouteCard: "1001"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
