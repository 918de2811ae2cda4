package storagetest

import (
	"context"
	"fmt"
	"sync"

	"shopfloor-terminal/internal/storage"
)

type RejectStore struct {
	mu         sync.Mutex
	rejects    []storage.RejectRecord
	reasons    map[string][]storage.RejectReason
	allReasons []storage.RejectReason

	FailInsert error
}

// NewRejectStore reasons - причины по коду операции.
func NewRejectStore(reasons map[string][]storage.RejectReason) *RejectStore {
	if reasons == nil {
		reasons = map[string][]storage.RejectReason{}
	}
	return &RejectStore{reasons: reasons}
}

func (s *RejectStore) InsertReject(_ context.Context, r storage.RejectRecord) (*storage.RejectRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailInsert != nil {
		return nil, s.FailInsert
	}

	r.RejectID = int64(len(s.rejects) + 1)
	s.rejects = append(s.rejects, r)

	return &r, nil
}

func (s *RejectStore) ListRejects(_ context.Context, f storage.RejectFilter) ([]storage.RejectRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []storage.RejectRecord{}
	for i := len(s.rejects) - 1; i >= 0; i-- {
		r := s.rejects[i]
		if f.RejectID > 0 && r.RejectID != f.RejectID {
			continue
		}
		if f.ContractNumber != "" && r.ContractNumber != f.ContractNumber {
			continue
		}
		if f.RouteCard != "" && r.RouteCard != f.RouteCard {
			continue
		}
		if f.OperationCode != "" && r.OperationCode != f.OperationCode {
			continue
		}
		out = append(out, r)
	}

	return out, nil
}

func (s *RejectStore) GetRejectReasons(_ context.Context, operationCode string) ([]storage.RejectReason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.RejectReason{}, s.reasons[operationCode]...), nil
}

func (s *RejectStore) GetRejectReasonByName(_ context.Context, name string) (*storage.RejectReason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.allReasons {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("storagetest.GetRejectReasonByName: %w", storage.ErrNotFound)
}

func (s *RejectStore) InsertRejectReason(_ context.Context, name string, description *string) (*storage.RejectReason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.allReasons {
		if r.Name == name {
			return nil, fmt.Errorf("storagetest.InsertRejectReason: %w", storage.ErrAlreadyExists)
		}
	}

	r := storage.RejectReason{ID: int64(len(s.allReasons) + 1), Name: name, Description: description}
	s.allReasons = append(s.allReasons, r)

	return &r, nil
}

func (s *RejectStore) SetOperationReasons(_ context.Context, operationCode string, reasonIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make([]storage.RejectReason, 0, len(reasonIDs))
	for _, id := range reasonIDs {
		found := false
		for _, r := range s.allReasons {
			if r.ID == id {
				set = append(set, r)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("storagetest.SetOperationReasons: reason %d: %w", id, storage.ErrNotFound)
		}
	}
	s.reasons[operationCode] = set

	return nil
}

func (s *RejectStore) All() []storage.RejectRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.RejectRecord(nil), s.rejects...)
}
