package efficiency

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func TestSetupEfficiency(t *testing.T) {
	tests := []struct {
		name      string
		planned   float64
		duration  time.Duration
		actual    float64
		eff       int
		timeSaved float64
	}{
		{"over planned", 30, 45 * time.Minute, 45, 67, -15},
		{"under planned", 60, 40 * time.Minute, 40, 150, 20},
		{"zero duration", 30, 0, 0, 100, 30},
		{"zero planned zero duration", 0, 0, 0, 100, 0},
		{"fractional minutes", 10, 7*time.Minute + 20*time.Second, 7.3, 136, 2.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := SetupEfficiency(tt.planned, t0, t0.Add(tt.duration))
			require.NoError(t, err)

			assert.Equal(t, tt.planned, m.Planned)
			assert.Equal(t, tt.actual, m.Actual)
			assert.Equal(t, tt.eff, m.Efficiency)
			assert.Equal(t, tt.timeSaved, m.TimeSaved)
			assert.Nil(t, m.Quantity)
		})
	}
}

func TestRunningEfficiency_ScalesByCompletedQty(t *testing.T) {
	m, err := RunningEfficiency(600, 100, 10, t0, t0.Add(60*time.Minute))
	require.NoError(t, err)

	require.NotNil(t, m.PlannedPerItem)
	assert.Equal(t, 6.0, *m.PlannedPerItem)
	assert.Equal(t, 60.0, m.Planned)
	assert.Equal(t, 100, m.Efficiency)
	assert.Equal(t, 0.0, m.TimeSaved)
	require.NotNil(t, m.Quantity)
	assert.Equal(t, 10, *m.Quantity)
}

func TestRunningEfficiency_PlannedPerItemRounding(t *testing.T) {
	m, err := RunningEfficiency(100, 3, 2, t0, t0.Add(60*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 33.33, *m.PlannedPerItem)
	assert.Equal(t, 66.7, m.Planned)
	assert.Equal(t, 111, m.Efficiency)
	assert.Equal(t, 6.7, m.TimeSaved)
}

func TestRunningEfficiency_ZeroCompleted(t *testing.T) {
	m, err := RunningEfficiency(600, 100, 0, t0, t0.Add(30*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 0, m.Efficiency)
	assert.Equal(t, -30.0, m.TimeSaved)
}

func TestEfficiency_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		call func() error
	}{
		{"zero total qty", func() error {
			_, err := RunningEfficiency(600, 0, 10, t0, t0.Add(time.Hour))
			return err
		}},
		{"negative completed", func() error {
			_, err := RunningEfficiency(600, 100, -1, t0, t0.Add(time.Hour))
			return err
		}},
		{"nan planned", func() error {
			_, err := SetupEfficiency(math.NaN(), t0, t0.Add(time.Hour))
			return err
		}},
		{"inf planned", func() error {
			_, err := RunningEfficiency(math.Inf(1), 10, 1, t0, t0.Add(time.Hour))
			return err
		}},
		{"negative planned", func() error {
			_, err := SetupEfficiency(-5, t0, t0.Add(time.Hour))
			return err
		}},
		{"end before start", func() error {
			_, err := SetupEfficiency(30, t0, t0.Add(-time.Minute))
			return err
		}},
		{"missing start", func() error {
			_, err := SetupEfficiency(30, time.Time{}, t0)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestJobEfficiency(t *testing.T) {
	job := storage.JobOperation{Quantity: 100, PlannedSetupTime: 30, PlannedRunTime: 600}

	setup, err := JobEfficiency(job, storage.MetricTypeSetup, t0, t0.Add(45*time.Minute), nil)
	require.NoError(t, err)
	assert.Equal(t, 67, setup.Efficiency)

	_, err = JobEfficiency(job, storage.MetricTypeRunning, t0, t0.Add(time.Hour), nil)
	assert.True(t, apperr.Is(err, apperr.KindMissingData))

	qty := 10
	running, err := JobEfficiency(job, storage.MetricTypeRunning, t0, t0.Add(time.Hour), &qty)
	require.NoError(t, err)
	assert.Equal(t, 100, running.Efficiency)

	_, err = JobEfficiency(job, storage.LogStatePaused, t0, t0.Add(time.Hour), nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestFromRecord(t *testing.T) {
	// план 100 минут на 3 детали, все сделаны
	calc, err := RunningEfficiency(100, 3, 3, t0, t0.Add(90*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, calc.PlannedPerItem)
	assert.Equal(t, 33.33, *calc.PlannedPerItem)

	plannedQty, done := 3, 3
	m := FromRecord(storage.EfficiencyMetric{
		MetricType:           storage.MetricTypeRunning,
		PlannedTime:          calc.Planned,
		ActualTime:           calc.Actual,
		EfficiencyPercentage: calc.Efficiency,
		TimeSaved:            calc.TimeSaved,
		PlannedQty:           &plannedQty,
		PlannedPerItem:       calc.PlannedPerItem,
		CompletedQty:         &done,
	})

	assert.Equal(t, calc.Efficiency, m.Efficiency)
	require.NotNil(t, m.PlannedPerItem)
	assert.Equal(t, *calc.PlannedPerItem, *m.PlannedPerItem)

	// строки без сохранённого значения на деталь
	legacy := FromRecord(storage.EfficiencyMetric{MetricType: storage.MetricTypeRunning, PlannedTime: 60, PlannedQty: &plannedQty, CompletedQty: &done})
	assert.Nil(t, legacy.PlannedPerItem)

	setup := FromRecord(storage.EfficiencyMetric{MetricType: storage.MetricTypeSetup, PlannedTime: 30})
	assert.Nil(t, setup.PlannedPerItem)
}
