// Package client talks to the calckeeper REST API and keeps the CLI's
// session on disk.
//
// HTTPClient attaches the access token to every protected call. When the
// server answers 401 and a refresh token is known, it rotates the pair once
// and retries the call; the new pair is reported through OnRefresh so the
// caller can persist it.
package client

import "context"

// API is the set of server operations the CLI uses.
type API interface {
	Health(ctx context.Context) error
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, username, password string) (*Tokens, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*User, error)

	AddCalculation(ctx context.Context, typ string, inputs []float64) (*Calculation, error)
	ListCalculations(ctx context.Context, q ListQuery) ([]Calculation, error)
	GetCalculation(ctx context.Context, id string) (*Calculation, error)
	UpdateCalculation(ctx context.Context, id string, upd CalculationUpdate) (*Calculation, error)
	DeleteCalculation(ctx context.Context, id string) error
	ClearCalculations(ctx context.Context) (int64, error)
	Summary(ctx context.Context) (*Summary, error)
	Export(ctx context.Context) (*Export, error)

	SetTokens(access, refresh string)
	OnRefresh(fn func(*Tokens))
}
