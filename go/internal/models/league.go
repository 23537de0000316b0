package models

import (
	"time"

	"github.com/google/uuid"
)

// League represents a fantasy F1 league.
type League struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	CommissionerID uuid.UUID `json:"commissioner_id"`
	Season         string    `json:"season"`
	CreatedAt      time.Time `json:"created_at"`
}

// FantasyTeam represents one competitor's team within a league.
type FantasyTeam struct {
	ID        uuid.UUID `json:"id"`
	LeagueID  uuid.UUID `json:"league_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Race represents a grand prix that a draft selects drivers for.
type Race struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Circuit   string    `json:"circuit"`
	Country   string    `json:"country"`
	StartsAt  time.Time `json:"starts_at"`
	RoundNum  int       `json:"round_num"`
	CreatedAt time.Time `json:"created_at"`
}
