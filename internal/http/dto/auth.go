// Package dto contiene los contratos request/response de la API. Los
// servicios nunca reciben ni devuelven estos tipos; la traducción es
// responsabilidad de los controllers.
package dto

import (
	"time"

	"github.com/linguala/linguala/internal/domain/types"
)

// LoginRequest representa la solicitud de login por password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest representa el alta de cuenta por password.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserResponse es la proyección pública del perfil.
type UserResponse struct {
	UID            string    `json:"uid"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	Providers      []string  `json:"providers"`
	GitHubUsername string    `json:"github_username,omitempty"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	LastLogin      time.Time `json:"last_login"`
}

// NewUserResponse arma la proyección desde el dominio.
func NewUserResponse(u *types.UserIdentity) UserResponse {
	providers := u.Providers
	if providers == nil {
		providers = []string{}
	}
	return UserResponse{
		UID:            u.UID,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		PhotoURL:       u.PhotoURL,
		Providers:      providers,
		GitHubUsername: u.GitHubUsername,
		Role:           u.Role,
		Status:         u.Status,
		CreatedAt:      u.CreatedAt,
		LastLogin:      u.LastLogin,
	}
}

// SessionResponse es la respuesta de cualquier autenticación exitosa.
type SessionResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"` // siempre "Bearer"
	ExpiresAt time.Time    `json:"expires_at"`
	Provider  string       `json:"provider"`
	IsNewUser bool         `json:"is_new_user,omitempty"`
	User      UserResponse `json:"user"`
}

// MethodsResponse lista los métodos de acceso registrados para un email.
type MethodsResponse struct {
	Email   string   `json:"email"`
	Methods []string `json:"methods"`
}
