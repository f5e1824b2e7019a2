package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"ancestra.org/internal/ids"
)

// MemoryStore is an in-process CredentialStore used in development mode and
// in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

var _ CredentialStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*User)}
}

func (s *MemoryStore) FindByName(ctx context.Context, name string) (*User, error) {
	name = normalizeName(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) Create(ctx context.Context, u *User) error {
	name := normalizeName(u.Name)
	if name == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[name]; ok {
		return ErrAlreadyExists
	}
	cp := *u
	cp.Name = name
	if cp.ID == "" {
		cp.ID = ids.New()
	}
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.users[name] = &cp
	return nil
}

func (s *MemoryStore) UpdatePassword(ctx context.Context, name, passwordHash string) error {
	name = normalizeName(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[name]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Seed hashes the password and registers the user, a convenience for tests
// and development wiring.
func (s *MemoryStore) Seed(ctx context.Context, name, password string, role Role) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.Create(ctx, &User{Name: name, PasswordHash: hash, Role: role})
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}
