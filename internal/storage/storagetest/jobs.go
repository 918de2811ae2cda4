package storagetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"shopfloor-terminal/internal/storage"
)

type JobStore struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[string]storage.JobOperation

	FailUpdate error
}

func NewJobStore(jobs ...storage.JobOperation) *JobStore {
	s := &JobStore{jobs: make(map[string]storage.JobOperation)}
	for _, j := range jobs {
		s.Put(j)
	}
	return s
}

func (s *JobStore) Put(j storage.JobOperation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.LookupCode == "" {
		j.LookupCode = storage.LookupCode(j.RouteCard, j.ContractNumber, j.OpCode)
	}
	if j.ID == 0 {
		s.nextID++
		j.ID = s.nextID
	}
	s.jobs[j.LookupCode] = j
}

func (s *JobStore) Get(lookupCode string) storage.JobOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[lookupCode]
}

func (s *JobStore) GetJobByLookupCode(_ context.Context, lookupCode string) (*storage.JobOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[lookupCode]
	if !ok {
		return nil, fmt.Errorf("storagetest.GetJobByLookupCode: %w", storage.ErrNotFound)
	}
	return &j, nil
}

func (s *JobStore) GetOperationsByRouteCard(_ context.Context, routeCard string) ([]storage.RouteCardOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ops []storage.RouteCardOperation
	for _, j := range s.jobs {
		if j.RouteCard == routeCard {
			ops = append(ops, storage.RouteCardOperation{
				OpCode:         j.OpCode,
				Description:    j.Description,
				ContractNumber: j.ContractNumber,
			})
		}
	}
	sort.Slice(ops, func(i, k int) bool { return ops[i].OpCode < ops[k].OpCode })

	return ops, nil
}

func (s *JobStore) GetSiblingJob(_ context.Context, routeCard string) (*storage.JobOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sibling *storage.JobOperation
	for _, j := range s.jobs {
		if j.RouteCard == routeCard && (sibling == nil || j.ID < sibling.ID) {
			j := j
			sibling = &j
		}
	}
	if sibling == nil {
		return nil, fmt.Errorf("storagetest.GetSiblingJob: %w", storage.ErrNotFound)
	}
	return sibling, nil
}

func (s *JobStore) InsertJobOperation(_ context.Context, j storage.JobOperation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[j.LookupCode]; ok {
		return 0, fmt.Errorf("storagetest.InsertJobOperation: %w", storage.ErrAlreadyExists)
	}

	s.nextID++
	j.ID = s.nextID
	s.jobs[j.LookupCode] = j

	return j.ID, nil
}

func (s *JobStore) UpdateJobCompletion(_ context.Context, upd storage.CompletionUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUpdate != nil {
		err := s.FailUpdate
		s.FailUpdate = nil
		return 0, err
	}

	j, ok := s.jobs[upd.LookupCode]
	if !ok {
		return 0, fmt.Errorf("storagetest.UpdateJobCompletion: %w", storage.ErrNotFound)
	}
	if j.Version != upd.ExpectedVersion {
		return 0, fmt.Errorf("storagetest.UpdateJobCompletion: %w", storage.ErrVersionConflict)
	}

	j.CompletedQty = upd.CompletedQty
	j.Balance = upd.Balance
	j.Status = upd.Status
	j.Version++
	s.jobs[upd.LookupCode] = j

	return j.Version, nil
}
