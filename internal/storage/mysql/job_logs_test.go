package mysql

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor-terminal/internal/storage"
)

var jobLogRowColumns = []string{"log_id", "lookup_code", "user_id", "machine_id", "state", "start_time",
	"end_time", "completed_qty", "comments", "inspection_type", "inspection_passed", "inspection_qty"}

func TestCloseJobLog_OnlyAllowListedFields(t *testing.T) {
	s, mock := newMockStorage(t)

	end := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	qty := 12
	comments := "shift end"

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE job_logs SET end_time = ?, completed_qty = ?, comments = ? WHERE log_id = ? AND end_time IS NULL")).
		WithArgs(end, 12, "shift end", int64(41)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.CloseJobLog(context.Background(), 41, storage.LogClose{
		EndTime:      end,
		CompletedQty: &qty,
		Comments:     &comments,
	})
	require.NoError(t, err)
}

func TestCloseJobLog_Missing(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE job_logs SET end_time = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM job_logs WHERE log_id = ?")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	err := s.CloseJobLog(context.Background(), 99, storage.LogClose{EndTime: time.Now()})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCloseJobLog_AlreadyClosed(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE job_logs SET end_time = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM job_logs WHERE log_id = ?")).
		WithArgs(int64(41)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := s.CloseJobLog(context.Background(), 41, storage.LogClose{EndTime: time.Now()})
	assert.ErrorIs(t, err, storage.ErrLogClosed)
}

func TestGetOpenJobLog_FilterByState(t *testing.T) {
	s, mock := newMockStorage(t)

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE lookup_code = ? AND state = ? AND end_time IS NULL ORDER BY start_time DESC LIMIT 1")).
		WithArgs("1001-C55-OP10", "RUNNING").
		WillReturnRows(sqlmock.NewRows(jobLogRowColumns).AddRow(
			41, "1001-C55-OP10", "E7", "3", "RUNNING", start, nil, nil, nil, nil, nil, nil,
		))

	l, err := s.GetOpenJobLog(context.Background(), "1001-C55-OP10", storage.LogStateRunning)
	require.NoError(t, err)
	assert.Equal(t, int64(41), l.LogID)
	assert.True(t, l.IsOpen())
}

func TestGetOpenJobLog_None(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE lookup_code = ? AND end_time IS NULL")).
		WithArgs("1001-C55-OP10").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetOpenJobLog(context.Background(), "1001-C55-OP10", "")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
