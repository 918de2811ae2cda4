package storagetest

import (
	"context"
	"sync"
	"time"

	"shopfloor-terminal/internal/storage"
)

type MetricStore struct {
	mu      sync.Mutex
	metrics []storage.EfficiencyMetric

	FailInsert error
}

func NewMetricStore() *MetricStore {
	return &MetricStore{}
}

func (s *MetricStore) InsertEfficiencyMetric(_ context.Context, m storage.EfficiencyMetric) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailInsert != nil {
		return 0, s.FailInsert
	}

	m.MetricID = int64(len(s.metrics) + 1)
	m.CreatedAt = time.Now()
	s.metrics = append(s.metrics, m)

	return m.MetricID, nil
}

func (s *MetricStore) ListEfficiencyMetrics(_ context.Context, f storage.EfficiencyFilter) ([]storage.EfficiencyMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []storage.EfficiencyMetric{}
	for i := len(s.metrics) - 1; i >= 0; i-- {
		m := s.metrics[i]
		if f.JobLogID > 0 && m.JobLogID != f.JobLogID {
			continue
		}
		if f.LookupCode != "" && m.LookupCode != f.LookupCode {
			continue
		}
		if f.MetricType != "" && m.MetricType != f.MetricType {
			continue
		}
		out = append(out, m)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}

	return out, nil
}

func (s *MetricStore) All() []storage.EfficiencyMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.EfficiencyMetric(nil), s.metrics...)
}
