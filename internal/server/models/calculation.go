package models

import "time"

// Calculation is one stored arithmetic operation owned by a user.
type Calculation struct {
	ID     string
	UserID string
	// Type is the canonical operation name (addition, subtraction, ...).
	Type   string
	Inputs []float64
	Result float64
	// Version starts at 1 and is bumped on every update.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalculationFilter narrows a browse query. Zero values mean no constraint.
type CalculationFilter struct {
	Type   string
	Limit  uint64
	Offset uint64
}
