package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/authkeeper/internal/crypto"
	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/session"
	"github.com/iudanet/authkeeper/internal/server/storage"
	"github.com/iudanet/authkeeper/internal/server/storage/memory"
	"github.com/iudanet/authkeeper/internal/server/storage/sqlite"
)

// setupTestLogger создает logger для тестов
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock - управляемые часы для проверки истечения токенов
type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingNotifier запоминает выданные токены вместо отправки
type recordingNotifier struct {
	err    error
	tokens map[string][]string
	mu     sync.Mutex
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{tokens: make(map[string][]string)}
}

func (n *recordingNotifier) SendResetLink(_ context.Context, account *models.Account, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens[account.Email] = append(n.tokens[account.Email], token)
	return n.err
}

func (n *recordingNotifier) last(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	sent := n.tokens[email]
	if len(sent) == 0 {
		return ""
	}
	return sent[len(sent)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, sent := range n.tokens {
		total += len(sent)
	}
	return total
}

type fixture struct {
	store    storage.Storage
	clock    *fakeClock
	notifier *recordingNotifier
	authn    *Authenticator
	resets   *ResetManager
}

// backends - хранилища, на которых гоняются тесты сервисов
func backends(t *testing.T) map[string]func(t *testing.T) storage.Storage {
	t.Helper()
	return map[string]func(t *testing.T) storage.Storage{
		"memory": func(t *testing.T) storage.Storage {
			return memory.New()
		},
		"sqlite": func(t *testing.T) storage.Storage {
			s, err := sqlite.New(context.Background(), ":memory:")
			require.NoError(t, err)
			return s
		},
	}
}

func newFixture(t *testing.T, store storage.Storage) *fixture {
	t.Helper()
	t.Cleanup(func() { _ = store.Close() })

	clock := newFakeClock()
	hasher := crypto.NewBcryptHasher(bcrypt.MinCost)

	issuer, err := session.NewIssuer([]byte("test-secret"), session.DefaultTTL)
	require.NoError(t, err)

	authn, err := NewAuthenticator(setupTestLogger(), store, hasher, issuer, nil)
	require.NoError(t, err)
	authn.now = clock.Now

	notifier := newRecordingNotifier()
	resets, err := NewResetManager(setupTestLogger(), store, store, hasher, notifier, DefaultResetTTL, nil)
	require.NoError(t, err)
	resets.now = clock.Now

	return &fixture{
		store:    store,
		clock:    clock,
		notifier: notifier,
		authn:    authn,
		resets:   resets,
	}
}

// forEachBackend запускает тест на каждом хранилище
func forEachBackend(t *testing.T, fn func(t *testing.T, f *fixture)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, newFixture(t, open(t)))
		})
	}
}

// failingStorage возвращает ошибку из всех операций
type failingStorage struct {
	*memory.Storage
}

var errStoreDown = errors.New("store down")

func (failingStorage) GetUserByUsername(context.Context, string) (*models.Account, error) {
	return nil, errStoreDown
}

func (failingStorage) GetUserByEmail(context.Context, string) (*models.Account, error) {
	return nil, errStoreDown
}

func (failingStorage) GetValidResetToken(context.Context, string, time.Time) (*models.ResetToken, error) {
	return nil, errStoreDown
}

func (failingStorage) DeleteExpiredResetTokens(context.Context, time.Time) (int, error) {
	return 0, errStoreDown
}
