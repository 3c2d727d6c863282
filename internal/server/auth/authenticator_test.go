package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/authkeeper/internal/apperr"
	"github.com/iudanet/authkeeper/internal/crypto"
	"github.com/iudanet/authkeeper/internal/server/session"
	"github.com/iudanet/authkeeper/internal/server/storage/memory"
	"github.com/iudanet/authkeeper/internal/validation"
)

func TestNewAuthenticator_NilDependencies(t *testing.T) {
	issuer, err := session.NewIssuer([]byte("secret"), 0)
	require.NoError(t, err)
	hasher := crypto.NewBcryptHasher(bcrypt.MinCost)

	_, err = NewAuthenticator(setupTestLogger(), nil, hasher, issuer, nil)
	assert.ErrorContains(t, err, "user storage is required")

	_, err = NewAuthenticator(setupTestLogger(), memory.New(), nil, issuer, nil)
	assert.ErrorContains(t, err, "password hasher is required")

	_, err = NewAuthenticator(setupTestLogger(), memory.New(), hasher, nil, nil)
	assert.ErrorContains(t, err, "session issuer is required")
}

func TestAuthenticator_RegisterThenLogin(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		registered, err := f.authn.Register(ctx, "alice", "secret1", "alice@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, registered.Token)
		assert.Equal(t, "alice", registered.User.Username)
		assert.Equal(t, "alice@example.com", registered.User.Email)

		loggedIn, err := f.authn.Login(ctx, "alice", "secret1")
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, loggedIn.User.ID)

		claims, err := f.authn.VerifySession(loggedIn.Token)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, claims.UserID)
		assert.Equal(t, "alice", claims.Username)

		// Пароль хранится только в виде bcrypt хеша
		stored, err := f.store.GetUserByID(ctx, registered.User.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "secret1", stored.PasswordHash)
		assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
	})
}

func TestAuthenticator_Register_Validation(t *testing.T) {
	f := newFixture(t, memory.New())
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		email    string
	}{
		{name: "empty username", username: "", password: "secret1"},
		{name: "short username", username: "al", password: "secret1"},
		{name: "short password", username: "alice", password: "12345"},
		{name: "empty password", username: "alice", password: ""},
		{name: "invalid email", username: "alice", password: "secret1", email: "not-an-email"},
		{name: "password too long for bcrypt", username: "alice", password: strings.Repeat("x", 73)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.authn.Register(ctx, tt.username, tt.password, tt.email)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
		})
	}

	// Длина считается в символах, а не байтах
	_, err := f.authn.Register(ctx, "äöü", "пароль", "")
	require.NoError(t, err)
}

func TestAuthenticator_Register_Conflicts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		_, err := f.authn.Register(ctx, "alice", "secret1", "alice@example.com")
		require.NoError(t, err)

		_, err = f.authn.Register(ctx, "alice", "other-pass", "")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
		assert.Equal(t, "Username already exists", apperr.PublicMessage(err))

		_, err = f.authn.Register(ctx, "alicia", "secret1", "alice@example.com")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
		assert.Equal(t, "Email already exists", apperr.PublicMessage(err))

		// Без email конфликта нет
		_, err = f.authn.Register(ctx, "bob", "secret1", "")
		require.NoError(t, err)
		_, err = f.authn.Register(ctx, "carol", "secret1", "")
		require.NoError(t, err)
	})
}

func TestAuthenticator_Login_FailuresAreIndistinguishable(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		_, err := f.authn.Register(ctx, "alice", "secret1", "")
		require.NoError(t, err)

		_, unknownErr := f.authn.Login(ctx, "mallory", "secret1")
		_, wrongErr := f.authn.Login(ctx, "alice", "wrong-pass")
		_, caseErr := f.authn.Login(ctx, "Alice", "secret1")

		for _, err := range []error{unknownErr, wrongErr, caseErr} {
			require.Error(t, err)
			assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
		}
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
		assert.Equal(t, apperr.PublicMessage(unknownErr), apperr.PublicMessage(wrongErr))
		assert.Equal(t, apperr.MsgInvalidCredentials, apperr.PublicMessage(wrongErr))
	})
}

func TestAuthenticator_Login_PasswordOverBcryptLimit(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		password := strings.Repeat("a", validation.MaxPasswordBytes)

		_, err := f.authn.Register(ctx, "alice", password, "")
		require.NoError(t, err)

		_, err = f.authn.Login(ctx, "alice", password)
		require.NoError(t, err)

		_, longErr := f.authn.Login(ctx, "alice", password+"EXTRA")
		_, unknownErr := f.authn.Login(ctx, "mallory", password+"EXTRA")

		for _, err := range []error{longErr, unknownErr} {
			require.Error(t, err)
			assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
		}
		assert.Equal(t, unknownErr.Error(), longErr.Error())
	})
}

func TestAuthenticator_Login_DoesNotCreateAccounts(t *testing.T) {
	f := newFixture(t, memory.New())
	ctx := context.Background()

	_, err := f.authn.Login(ctx, "ghost", "secret1")
	require.Error(t, err)

	_, err = f.store.GetUserByUsername(ctx, "ghost")
	assert.Error(t, err)
}

func TestAuthenticator_Login_MissingFields(t *testing.T) {
	f := newFixture(t, memory.New())

	_, err := f.authn.Login(context.Background(), "", "secret1")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = f.authn.Login(context.Background(), "alice", "")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestAuthenticator_Login_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t, &failingStorage{Storage: memory.New()})

	_, err := f.authn.Login(context.Background(), "alice", "secret1")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
	assert.Equal(t, apperr.MsgInternal, apperr.PublicMessage(err))
}

func TestAuthenticator_VerifySession(t *testing.T) {
	f := newFixture(t, memory.New())
	ctx := context.Background()

	result, err := f.authn.Register(ctx, "alice", "secret1", "")
	require.NoError(t, err)
	assert.True(t, f.clock.Now().Add(session.DefaultTTL).Equal(result.ExpiresAt))

	_, err = f.authn.VerifySession("")
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
	assert.Equal(t, apperr.MsgSessionRequired, apperr.PublicMessage(err))

	_, err = f.authn.VerifySession("not-a-jwt")
	assert.Equal(t, apperr.CodeSessionInvalid, apperr.CodeOf(err))

	_, err = f.authn.VerifySession(result.Token)
	require.NoError(t, err)

	f.clock.Advance(session.DefaultTTL + time.Second)
	_, err = f.authn.VerifySession(result.Token)
	assert.Equal(t, apperr.CodeSessionInvalid, apperr.CodeOf(err))
	assert.Equal(t, apperr.MsgSessionInvalid, apperr.PublicMessage(err))
}

func TestAuthenticator_SessionSurvivesPasswordChange(t *testing.T) {
	f := newFixture(t, memory.New())
	ctx := context.Background()

	result, err := f.authn.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)

	require.NoError(t, f.resets.RequestReset(ctx, "alice@example.com"))
	require.NoError(t, f.resets.ConsumeAndReset(ctx, f.notifier.last("alice@example.com"), "secret2"))

	// Проверка сессии не обращается к хранилищу
	_, err = f.authn.VerifySession(result.Token)
	assert.NoError(t, err)
}
