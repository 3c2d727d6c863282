// Package memory is an in-process Storage used by tests and by
// `db.driver: memory`. Data is lost on exit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// Storage keeps accounts and reset tokens in maps guarded by one mutex.
// The mutex plays the role of the database transaction.
type Storage struct {
	users      map[string]*models.Account
	byUsername map[string]string
	byEmail    map[string]string
	tokens     map[string]*models.ResetToken
	mu         sync.Mutex
	nextID     int64
	closed     bool
}

var _ storage.Storage = (*Storage)(nil)

// New creates an empty storage.
func New() *Storage {
	return &Storage{
		users:      make(map[string]*models.Account),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		tokens:     make(map[string]*models.ResetToken),
	}
}

func (s *Storage) CreateUser(_ context.Context, user *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[user.Username]; ok {
		return storage.ErrUsernameTaken
	}
	if user.HasEmail() {
		if _, ok := s.byEmail[user.Email]; ok {
			return storage.ErrEmailTaken
		}
	}

	stored := *user
	s.users[user.ID] = &stored
	s.byUsername[user.Username] = user.ID
	if user.HasEmail() {
		s.byEmail[user.Email] = user.ID
	}
	return nil
}

func (s *Storage) GetUserByUsername(_ context.Context, username string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.byUsername, username)
}

func (s *Storage) GetUserByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.byEmail, email)
}

func (s *Storage) GetUserByID(_ context.Context, userID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *Storage) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	delete(s.users, userID)
	delete(s.byUsername, user.Username)
	if user.HasEmail() {
		delete(s.byEmail, user.Email)
	}
	for hash, token := range s.tokens {
		if token.UserID == userID {
			delete(s.tokens, hash)
		}
	}
	return nil
}

func (s *Storage) CreateResetToken(_ context.Context, token *models.ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[token.UserID]; !ok {
		return storage.ErrUserNotFound
	}
	if _, ok := s.tokens[token.TokenHash]; ok {
		return storage.ErrTokenExists
	}

	s.nextID++
	token.ID = s.nextID
	stored := *token
	s.tokens[token.TokenHash] = &stored
	return nil
}

func (s *Storage) GetValidResetToken(_ context.Context, tokenHash string, now time.Time) (*models.ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenHash]
	if !ok || !token.IsValid(now) {
		return nil, storage.ErrTokenNotFound
	}
	copied := *token
	return &copied, nil
}

func (s *Storage) ConsumeResetToken(_ context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenHash]
	if !ok || !token.IsValid(now) {
		return "", storage.ErrTokenNotFound
	}
	user, ok := s.users[token.UserID]
	if !ok {
		return "", storage.ErrUserNotFound
	}

	token.Used = true
	user.PasswordHash = passwordHash
	user.UpdatedAt = now
	return user.ID, nil
}

func (s *Storage) DeleteExpiredResetTokens(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for hash, token := range s.tokens {
		if token.IsSweepable(now) {
			delete(s.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}

// Ping fails once the storage is closed.
func (s *Storage) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	return nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Storage) lookup(index map[string]string, key string) (*models.Account, error) {
	if key == "" {
		return nil, storage.ErrUserNotFound
	}
	id, ok := index[key]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *s.users[id]
	return &copied, nil
}
