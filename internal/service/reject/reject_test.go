package reject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/notify"
	"shopfloor-terminal/internal/service/identity"
	"shopfloor-terminal/internal/service/jobs"
	"shopfloor-terminal/internal/storage"
	"shopfloor-terminal/internal/storage/storagetest"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendRemanufacture(ctx context.Context, r notify.Remanufacture) (string, error) {
	args := m.Called(ctx, r)
	return args.String(0), args.Error(1)
}

var testJob = storage.JobOperation{
	LookupCode:     "1001-C55-OP10",
	RouteCard:      "1001",
	ContractNumber: "C55",
	OpCode:         "OP10",
	PartNumber:     "P-9",
	CustomerName:   "Acme",
	Quantity:       50,
	CompletedQty:   20,
	Balance:        30,
	Status:         storage.JobStatusWIP,
}

type fixture struct {
	svc     *Service
	rejects *storagetest.RejectStore
	mailer  *MockMailer
}

func newFixture() *fixture {
	log := slog.Default()

	rejects := storagetest.NewRejectStore(map[string][]storage.RejectReason{
		"OP10": {{ID: 1, Name: "Scratched"}, {ID: 2, Name: "Wrong size"}},
	})
	users := storagetest.NewUserStore(
		storage.User{EmployeeID: "SUP1", Name: "Sam", CanRemanufacture: true, Active: true},
		storage.User{EmployeeID: "OPR1", Name: "Olga", CanOperate: true, Active: true},
	)
	jobSvc := jobs.NewService(log, storagetest.NewJobStore(testJob), nil)
	mailer := &MockMailer{}

	return &fixture{
		svc:     NewService(log, rejects, jobSvc, identity.NewService(log, users, users), mailer),
		rejects: rejects,
		mailer:  mailer,
	}
}

func TestWizard_HappyPath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.mailer.On("SendRemanufacture", mock.Anything, mock.MatchedBy(func(r notify.Remanufacture) bool {
		return r.RemanufactureQty == 20 && r.Reason == "Scratched" && r.CustomerName == "Acme"
	})).Return("msg-1", nil).Once()

	w, err := f.svc.NewWizard(ctx, testJob, 10, "OPR1", "M3")
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, w.Step())

	reasons := w.Reasons()
	require.Len(t, reasons, 3)
	assert.Equal(t, storage.OtherReasonName, reasons[2].Name)

	require.NoError(t, w.Confirm())
	require.NoError(t, w.Approve(ctx, "SUP1"))
	require.NoError(t, w.SelectReason("Scratched", ""))
	assert.Equal(t, 20, w.DefaultQuantity())
	require.NoError(t, w.SetQuantity(w.DefaultQuantity()))

	sum, err := w.Summary()
	require.NoError(t, err)
	assert.Equal(t, "Scratched", sum.Reason)
	assert.Equal(t, 20, sum.QtyRejected)

	res, err := w.Submit(ctx)
	require.NoError(t, err)
	assert.True(t, res.EmailSent)
	assert.Equal(t, "msg-1", res.MessageID)
	assert.Equal(t, StepSubmitted, w.Step())

	saved := f.rejects.All()
	require.Len(t, saved, 1)
	assert.Equal(t, "OP10", saved[0].OperationCode)
	assert.Equal(t, "SUP1", saved[0].SupervisorID)
	assert.Equal(t, "M3", saved[0].MachineID)
	assert.Equal(t, 20, saved[0].QtyRejected)

	f.mailer.AssertExpectations(t)
}

func TestWizard_OutOfOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	w, err := f.svc.NewWizard(ctx, testJob, 0, "OPR1", "M3")
	require.NoError(t, err)

	err = w.SelectReason("Scratched", "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = w.Submit(ctx)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = w.Summary()
	assert.Error(t, err)
	assert.Equal(t, StepConfirmation, w.Step())
}

func TestWizard_ApproveNeedsRemanufacturePermission(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	w, err := f.svc.NewWizard(ctx, testJob, 0, "OPR1", "M3")
	require.NoError(t, err)
	require.NoError(t, w.Confirm())

	err = w.Approve(ctx, "OPR1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
	assert.Equal(t, "User does not have remanufacture permissions", apperr.Message(err))
	assert.Equal(t, StepApproval, w.Step())
}

func TestWizard_ReasonChecks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	w, err := f.svc.NewWizard(ctx, testJob, 0, "OPR1", "M3")
	require.NoError(t, err)
	require.NoError(t, w.Confirm())
	require.NoError(t, w.Approve(ctx, "SUP1"))

	assert.Error(t, w.SelectReason("Burnt", ""))
	assert.Error(t, w.SelectReason(storage.OtherReasonName, "  "))
	assert.Equal(t, StepReason, w.Step())

	require.NoError(t, w.SelectReason(storage.OtherReasonName, "burr on edge"))
	require.NoError(t, w.SetQuantity(5))

	sum, err := w.Summary()
	require.NoError(t, err)
	assert.Equal(t, "Other: burr on edge", sum.Reason)

	require.NoError(t, w.Back())
	assert.Equal(t, StepReason, w.Step())

	f.mailer.On("SendRemanufacture", mock.Anything, mock.Anything).Return("msg-2", nil).Once()

	require.NoError(t, w.SelectReason(storage.OtherReasonName, "burr on edge"))
	require.NoError(t, w.SetQuantity(5))
	_, err = w.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, "burr on edge", f.rejects.All()[0].Reason)
}

func TestValidateQuantity(t *testing.T) {
	tests := []struct {
		qty     int
		wantErr bool
	}{
		{qty: -1, wantErr: true},
		{qty: 0, wantErr: true},
		{qty: 1},
		{qty: 50},
		{qty: 51, wantErr: true},
	}

	for _, tt := range tests {
		err := ValidateQuantity(tt.qty, 50)
		if tt.wantErr {
			assert.True(t, apperr.Is(err, apperr.KindValidation), "qty %d", tt.qty)
			continue
		}
		assert.NoError(t, err, "qty %d", tt.qty)
	}
}

func TestWizard_SetQuantityOutOfBounds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	w, err := f.svc.NewWizard(ctx, testJob, 0, "OPR1", "M3")
	require.NoError(t, err)
	require.NoError(t, w.Confirm())
	require.NoError(t, w.Approve(ctx, "SUP1"))
	require.NoError(t, w.SelectReason("Wrong size", ""))

	assert.Error(t, w.SetQuantity(0))
	assert.Error(t, w.SetQuantity(51))
	assert.Equal(t, StepQuantity, w.Step())
}

func TestWizard_Cancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	w, err := f.svc.Prepare(ctx, testJob, 10, "OPR1", "M3", Decision{SupervisorID: "SUP1", Reason: "Scratched"})
	require.NoError(t, err)
	assert.Equal(t, StepSummary, w.Step())

	require.NoError(t, w.Cancel())
	assert.Equal(t, StepCancelled, w.Step())

	_, err = w.Submit(ctx)
	assert.Error(t, err)
	assert.Error(t, w.Cancel())

	assert.Empty(t, f.rejects.All())
	f.mailer.AssertNotCalled(t, "SendRemanufacture", mock.Anything, mock.Anything)
}

func TestCreateReject_EmailFailureKeepsReject(t *testing.T) {
	f := newFixture()

	f.mailer.On("SendRemanufacture", mock.Anything, mock.Anything).Return("", errors.New("smtp down")).Once()

	res, err := f.svc.CreateReject(context.Background(), Request{
		LookupCode:       testJob.LookupCode,
		QtyRejected:      30,
		OperatorID:       "OPR1",
		SupervisorID:     "SUP1",
		Reason:           "Scratched",
		RemanufactureQty: 30,
		MachineID:        "M3",
	})
	require.NoError(t, err)
	assert.False(t, res.EmailSent)
	assert.NotZero(t, res.Record.RejectID)
	assert.Len(t, f.rejects.All(), 1)
}

func TestCreateReject_SMTPDisabledNotReportedAsSent(t *testing.T) {
	f := newFixture()

	f.mailer.On("SendRemanufacture", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("notify.Mailer.SendRemanufacture: %w", notify.ErrDisabled)).Once()

	res, err := f.svc.CreateReject(context.Background(), Request{
		LookupCode:       testJob.LookupCode,
		QtyRejected:      10,
		OperatorID:       "OPR1",
		SupervisorID:     "SUP1",
		Reason:           "Scratched",
		RemanufactureQty: 10,
		MachineID:        "M3",
	})
	require.NoError(t, err)
	assert.False(t, res.EmailSent)
	assert.Empty(t, res.MessageID)
	assert.Len(t, f.rejects.All(), 1)
}

func TestCreateReject_Errors(t *testing.T) {
	base := Request{
		LookupCode:       testJob.LookupCode,
		OperatorID:       "OPR1",
		SupervisorID:     "SUP1",
		Reason:           "Scratched",
		RemanufactureQty: 5,
		MachineID:        "M3",
	}

	t.Run("quantity above job quantity", func(t *testing.T) {
		f := newFixture()
		req := base
		req.RemanufactureQty = 51
		_, err := f.svc.CreateReject(context.Background(), req)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("unknown job", func(t *testing.T) {
		f := newFixture()
		req := base
		req.LookupCode = "nope"
		_, err := f.svc.CreateReject(context.Background(), req)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("supervisor without permission", func(t *testing.T) {
		f := newFixture()
		req := base
		req.SupervisorID = "OPR1"
		_, err := f.svc.CreateReject(context.Background(), req)
		assert.True(t, apperr.Is(err, apperr.KindAuthentication))
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture()
		f.rejects.FailInsert = errors.New("disk full")
		_, err := f.svc.CreateReject(context.Background(), base)
		assert.True(t, apperr.Is(err, apperr.KindPersistence))
		f.mailer.AssertNotCalled(t, "SendRemanufacture", mock.Anything, mock.Anything)
	})
}

func TestReasonsAndAddReason(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reasons, err := f.svc.Reasons(ctx, "OP99")
	require.NoError(t, err)
	require.Len(t, reasons, 1)
	assert.Equal(t, storage.OtherReasonName, reasons[0].Name)
	assert.Zero(t, reasons[0].ID)

	other, err := f.svc.AddReason(ctx, storage.OtherReasonName, nil)
	require.NoError(t, err)

	reasons, err = f.svc.Reasons(ctx, "OP10")
	require.NoError(t, err)
	require.Len(t, reasons, 3)
	assert.Equal(t, other.ID, reasons[2].ID)

	_, err = f.svc.AddReason(ctx, storage.OtherReasonName, nil)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.AddReason(ctx, " ", nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAssignReasons(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	porosity, err := f.svc.AddReason(ctx, "Porosity", nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.AssignReasons(ctx, "OP30", []int64{porosity.ID}))

	reasons, err := f.svc.Reasons(ctx, "OP30")
	require.NoError(t, err)
	require.Len(t, reasons, 2)
	assert.Equal(t, "Porosity", reasons[0].Name)
	assert.Equal(t, storage.OtherReasonName, reasons[1].Name)

	err = f.svc.AssignReasons(ctx, "OP30", []int64{porosity.ID, 404})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = f.svc.AssignReasons(ctx, "", nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	// пустой список снимает все причины, кроме "Other"
	require.NoError(t, f.svc.AssignReasons(ctx, "OP30", nil))
	reasons, err = f.svc.Reasons(ctx, "OP30")
	require.NoError(t, err)
	assert.Len(t, reasons, 1)
}
