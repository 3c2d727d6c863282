package api

// PublicUser - представление аккаунта, которое видит клиент
type PublicUser struct {
	ID       string `json:"id"`              // UUID пользователя
	Username string `json:"username"`        // username пользователя
	Email    string `json:"email,omitempty"` // email, если указан
}

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Username string `json:"username"`        // username пользователя
	Password string `json:"password"`        // пароль в открытом виде (только по TLS)
	Email    string `json:"email,omitempty"` // необязательный email для сброса пароля
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Username string `json:"username"` // username пользователя
	Password string `json:"password"` // пароль
}

// AuthResponse представляет ответ на успешную регистрацию или вход
type AuthResponse struct {
	Message string     `json:"message"` // "Registration successful" / "Login successful"
	Token   string     `json:"token"`   // JWT session credential
	User    PublicUser `json:"user"`    // публичные данные пользователя
}

// VerifyResponse представляет ответ GET /api/auth/verify и /api/protected
type VerifyResponse struct {
	Message string     `json:"message"` // "Token is valid"
	User    PublicUser `json:"user"`    // данные из токена
}

// ForgotPasswordRequest представляет запрос на сброс пароля
type ForgotPasswordRequest struct {
	Email string `json:"email"` // email аккаунта
}

// ResetPasswordRequest представляет запрос на установку нового пароля
type ResetPasswordRequest struct {
	Token       string `json:"token"`       // токен из ссылки
	NewPassword string `json:"newPassword"` // новый пароль
}

// VerifyResetTokenResponse представляет ответ проверки токена сброса
type VerifyResetTokenResponse struct {
	Message string `json:"message"` // пояснение для пользователя
	Valid   bool   `json:"valid"`   // можно ли использовать токен
}

// MessageResponse представляет ответ, состоящий только из сообщения
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse представляет ответ GET /api/health
type HealthResponse struct {
	Status  string `json:"status"`  // "ok" / "unavailable"
	Message string `json:"message"` // пояснение
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
