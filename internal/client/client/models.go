package client

import "time"

type User struct {
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

// Tokens is the login/refresh reply. Only the fields the CLI needs are kept.
type Tokens struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
}

type Calculation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Inputs    []float64 `json:"inputs"`
	Result    float64   `json:"result"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CalculationUpdate is a partial edit. Version, when non-zero, must match
// the stored version.
type CalculationUpdate struct {
	Type    *string   `json:"type,omitempty"`
	Inputs  []float64 `json:"inputs,omitempty"`
	Version int64     `json:"version,omitempty"`
}

type ListQuery struct {
	Type   string
	Limit  int
	Offset int
}

type Summary struct {
	Total  int64            `json:"total"`
	ByType map[string]int64 `json:"by_type"`
}

type Export struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	Calculations int       `json:"calculations"`
	ExpiresAt    time.Time `json:"expires_at"`
}
