package storagetest

import (
	"context"
	"fmt"
	"sort"

	"shopfloor-terminal/internal/storage"
)

type UserStore struct {
	users     map[string]storage.User
	terminals map[int64]storage.Terminal
}

func NewUserStore(users ...storage.User) *UserStore {
	s := &UserStore{users: make(map[string]storage.User), terminals: make(map[int64]storage.Terminal)}
	for _, u := range users {
		s.users[u.EmployeeID] = u
	}
	return s
}

func (s *UserStore) AddTerminal(t storage.Terminal) *UserStore {
	s.terminals[t.TerminalID] = t
	return s
}

func (s *UserStore) GetUserByEmployeeID(_ context.Context, employeeID string) (*storage.User, error) {
	u, ok := s.users[employeeID]
	if !ok {
		return nil, fmt.Errorf("storagetest.GetUserByEmployeeID: %w", storage.ErrNotFound)
	}
	return &u, nil
}

func (s *UserStore) GetTerminalByID(_ context.Context, terminalID int64) (*storage.Terminal, error) {
	t, ok := s.terminals[terminalID]
	if !ok {
		return nil, fmt.Errorf("storagetest.GetTerminalByID: %w", storage.ErrNotFound)
	}
	return &t, nil
}

func (s *UserStore) ListUsers(_ context.Context) ([]storage.User, error) {
	users := make([]storage.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (s *UserStore) InsertUser(_ context.Context, u storage.User) error {
	if _, ok := s.users[u.EmployeeID]; ok {
		return fmt.Errorf("storagetest.InsertUser: %w", storage.ErrAlreadyExists)
	}
	s.users[u.EmployeeID] = u
	return nil
}

func (s *UserStore) UpdateUsers(_ context.Context, users []storage.User) error {
	for _, u := range users {
		if _, ok := s.users[u.EmployeeID]; !ok {
			return fmt.Errorf("storagetest.UpdateUsers: user %s: %w", u.EmployeeID, storage.ErrNotFound)
		}
	}
	for _, u := range users {
		s.users[u.EmployeeID] = u
	}
	return nil
}

func (s *UserStore) InsertTerminal(_ context.Context, t storage.Terminal) error {
	if _, ok := s.terminals[t.TerminalID]; ok {
		return fmt.Errorf("storagetest.InsertTerminal: %w", storage.ErrAlreadyExists)
	}
	s.terminals[t.TerminalID] = t
	return nil
}
