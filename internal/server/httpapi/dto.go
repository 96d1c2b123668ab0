package httpapi

import (
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/server/models"
	"github.com/dmitrijs2005/calckeeper/internal/server/services"
)

// UserResponse is the public view of an account. The password hash never
// leaves the server.
type UserResponse struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastLogin  *time.Time `json:"last_login"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		LastLogin:  u.LastLogin,
	}
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	IsActive         bool      `json:"is_active"`
	IsVerified       bool      `json:"is_verified"`
}

func newTokenResponse(s *services.Session) TokenResponse {
	return TokenResponse{
		AccessToken:      s.Tokens.Access.Value,
		RefreshToken:     s.Tokens.Refresh.Value,
		TokenType:        "bearer",
		ExpiresAt:        s.Tokens.Access.ExpiresAt,
		RefreshExpiresAt: s.Tokens.Refresh.ExpiresAt,
		UserID:           s.User.ID,
		Username:         s.User.Username,
		Email:            s.User.Email,
		FirstName:        s.User.FirstName,
		LastName:         s.User.LastName,
		IsActive:         s.User.IsActive,
		IsVerified:       s.User.IsVerified,
	}
}

// OAuthTokenResponse is the form-login reply used by interactive API docs
// and OAuth2 password-flow clients.
type OAuthTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type CalculationResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Inputs    []float64 `json:"inputs"`
	Result    float64   `json:"result"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newCalculationResponse(c *models.Calculation) CalculationResponse {
	return CalculationResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Type:      c.Type,
		Inputs:    c.Inputs,
		Result:    c.Result,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type ExportResponse struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	Calculations int       `json:"calculations"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type errorResponse struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}
