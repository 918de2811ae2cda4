// Package storagetest in-memory реализации хранилищ для тестов сервисов.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"shopfloor-terminal/internal/storage"
)

type LogStore struct {
	mu     sync.Mutex
	nextID int64
	logs   map[int64]storage.JobLog

	// FailClose/FailInsert заставляют следующую операцию вернуть ошибку
	FailClose  error
	FailInsert error
}

func NewLogStore() *LogStore {
	return &LogStore{logs: make(map[int64]storage.JobLog)}
}

func (s *LogStore) InsertJobLog(_ context.Context, l storage.JobLog) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailInsert != nil {
		err := s.FailInsert
		s.FailInsert = nil
		return 0, err
	}

	s.nextID++
	l.LogID = s.nextID
	s.logs[l.LogID] = l

	return l.LogID, nil
}

func (s *LogStore) CloseJobLog(_ context.Context, logID int64, c storage.LogClose) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailClose != nil {
		err := s.FailClose
		s.FailClose = nil
		return err
	}

	l, ok := s.logs[logID]
	if !ok {
		return fmt.Errorf("storagetest.CloseJobLog: %w", storage.ErrNotFound)
	}
	if l.EndTime != nil {
		return fmt.Errorf("storagetest.CloseJobLog: %w", storage.ErrLogClosed)
	}

	end := c.EndTime
	l.EndTime = &end
	if c.CompletedQty != nil {
		l.CompletedQty = c.CompletedQty
	}
	if c.Comments != nil {
		l.Comments = c.Comments
	}
	if c.InspectionPassed != nil {
		l.InspectionPassed = c.InspectionPassed
	}
	if c.InspectionQty != nil {
		l.InspectionQty = c.InspectionQty
	}
	s.logs[logID] = l

	return nil
}

func (s *LogStore) GetOpenJobLog(_ context.Context, lookupCode, state string) (*storage.JobLog, error) {
	open := s.OpenLogs(lookupCode)
	for _, l := range open {
		if state == "" || l.State == state {
			return &l, nil
		}
	}
	return nil, fmt.Errorf("storagetest.GetOpenJobLog: %w", storage.ErrNotFound)
}

func (s *LogStore) GetJobLogByID(_ context.Context, logID int64) (*storage.JobLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[logID]
	if !ok {
		return nil, fmt.Errorf("storagetest.GetJobLogByID: %w", storage.ErrNotFound)
	}
	return &l, nil
}

// OpenLogs открытые логи по lookup_code, новые первыми.
func (s *LogStore) OpenLogs(lookupCode string) []storage.JobLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	var open []storage.JobLog
	for _, l := range s.logs {
		if l.LookupCode == lookupCode && l.EndTime == nil {
			open = append(open, l)
		}
	}

	sort.Slice(open, func(i, j int) bool {
		if open[i].StartTime.Equal(open[j].StartTime) {
			return open[i].LogID > open[j].LogID
		}
		return open[i].StartTime.After(open[j].StartTime)
	})

	return open
}

// All все логи в порядке создания.
func (s *LogStore) All() []storage.JobLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]storage.JobLog, 0, len(s.logs))
	for _, l := range s.logs {
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LogID < all[j].LogID })

	return all
}
