package models

import (
	"github.com/google/uuid"
)

// Driver represents an F1 driver available to fantasy teams.
type Driver struct {
	ID            uuid.UUID `json:"id"`
	FullName      string    `json:"full_name"`
	Constructor   string    `json:"constructor"` // real-world team of origin
	Price         Price     `json:"price"`
	AveragePoints float64   `json:"average_points"`
	TotalPoints   int       `json:"total_points"`
}
