package models

import "time"

// RevokedToken records a JWT id that must no longer be accepted. Rows can be
// purged once ExpiresAt has passed since the token would fail anyway.
type RevokedToken struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
