// Package auth implements the client side of the authentication flows and
// keeps the resulting session in local storage.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/authkeeper/internal/client/api"
	"github.com/iudanet/authkeeper/internal/client/storage"
	"github.com/iudanet/authkeeper/internal/validation"
	pkgapi "github.com/iudanet/authkeeper/pkg/api"
)

var (
	// ErrNotLoggedIn is returned when a command needs a session and none is stored.
	ErrNotLoggedIn = errors.New("not logged in, run 'authctl login' first")

	// ErrSessionExpired is returned when the stored session is rejected or has expired.
	ErrSessionExpired = errors.New("session expired, run 'authctl login' again")
)

// Service предоставляет функции авторизации
type Service struct {
	apiClient *api.Client
	store     storage.SessionStorage
	now       func() time.Time
}

// NewService создает новый сервис авторизации
func NewService(apiClient *api.Client, store storage.SessionStorage) *Service {
	return &Service{
		apiClient: apiClient,
		store:     store,
		now:       time.Now,
	}
}

// Register регистрирует пользователя и сохраняет выданную сессию.
// Пустой email - аккаунт без email (сброс пароля будет недоступен).
func (s *Service) Register(ctx context.Context, username, password, email string) (*storage.Session, error) {
	email = strings.TrimSpace(email)

	// Проверяем локально, чтобы не гонять заведомо плохой запрос
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, fmt.Errorf("invalid email: %w", err)
		}
	}

	resp, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Username: username,
		Password: password,
		Email:    email,
	})
	if err != nil {
		return nil, err
	}

	return s.saveSession(ctx, resp)
}

// Login выполняет вход и сохраняет сессию, заменяя предыдущую
func (s *Service) Login(ctx context.Context, username, password string) (*storage.Session, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	return s.saveSession(ctx, resp)
}

// Logout удаляет локальную сессию. Сервер не хранит сессий, уведомлять его не нужно.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.DeleteSession(ctx); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return ErrNotLoggedIn
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Current возвращает сохраненную сессию, даже истекшую
func (s *Service) Current(ctx context.Context) (*storage.Session, error) {
	session, err := s.store.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return session, nil
}

// WhoAmI проверяет сессию на сервере. Отвергнутая сессия удаляется локально.
func (s *Service) WhoAmI(ctx context.Context) (*pkgapi.PublicUser, error) {
	session, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		_ = s.store.DeleteSession(ctx)
		return nil, ErrSessionExpired
	}

	resp, err := s.apiClient.Verify(ctx, session.Token)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) &&
			(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			_ = s.store.DeleteSession(ctx)
			return nil, ErrSessionExpired
		}
		return nil, err
	}

	return &resp.User, nil
}

// ForgotPassword запрашивает письмо со ссылкой сброса
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.New("email is required")
	}

	resp, err := s.apiClient.ForgotPassword(ctx, email)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VerifyResetToken сообщает, можно ли еще использовать токен
func (s *Service) VerifyResetToken(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, errors.New("reset token is required")
	}

	resp, err := s.apiClient.VerifyResetToken(ctx, token)
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// ResetPassword устанавливает новый пароль по токену из письма
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("reset token is required")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.ResetPassword(ctx, pkgapi.ResetPasswordRequest{
		Token:       token,
		NewPassword: newPassword,
	})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (s *Service) saveSession(ctx context.Context, resp *pkgapi.AuthResponse) (*storage.Session, error) {
	expiresAt, err := tokenExpiry(resp.Token)
	if err != nil {
		return nil, err
	}

	session := &storage.Session{
		Username:  resp.User.Username,
		UserID:    resp.User.ID,
		Email:     resp.User.Email,
		Token:     resp.Token,
		ServerURL: s.apiClient.BaseURL(),
		ExpiresAt: expiresAt.Unix(),
	}

	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}
