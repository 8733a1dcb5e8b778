package twofactor

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage is an in-process Storage and CredentialVerifier for development and tests.
type MemoryStorage struct {
	mu        sync.RWMutex
	records   map[uuid.UUID]*Record
	emails    map[string]uuid.UUID
	passwords map[uuid.UUID][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records:   make(map[uuid.UUID]*Record),
		emails:    make(map[string]uuid.UUID),
		passwords: make(map[uuid.UUID][]byte),
	}
}

// Add stores a user together with a bcrypt password hash, replacing any previous entry.
func (m *MemoryStorage) Add(rec *Record, passwordHash []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := rec.Clone()
	stored.Email = NormalizeEmail(stored.Email)
	m.records[stored.ID] = stored
	m.emails[stored.Email] = stored.ID
	m.passwords[stored.ID] = passwordHash
}

// Create registers a new user and fails with ErrEmailTaken when the address is in use.
func (m *MemoryStorage) Create(_ context.Context, rec *Record, passwordHash []byte) error {
	email := NormalizeEmail(rec.Email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.emails[email]; ok {
		return ErrEmailTaken
	}
	if _, ok := m.records[rec.ID]; ok {
		return ErrConflict
	}

	rec.Email = email
	rec.Version = 0
	m.records[rec.ID] = rec.Clone()
	m.emails[email] = rec.ID
	m.passwords[rec.ID] = passwordHash
	return nil
}

func (m *MemoryStorage) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryStorage) GetByEmail(_ context.Context, email string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return m.records[id].Clone(), nil
}

func (m *MemoryStorage) Update(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.records[rec.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != rec.Version {
		return ErrConflict
	}

	rec.Version++
	stored := rec.Clone()
	stored.Email = current.Email
	m.records[rec.ID] = stored
	return nil
}

func (m *MemoryStorage) VerifyPassword(_ context.Context, userID uuid.UUID, password string) error {
	m.mu.RLock()
	hash, ok := m.passwords[userID]
	m.mu.RUnlock()

	if !ok {
		return ErrInvalidCredential
	}
	return ComparePassword(hash, password)
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
