package main

import (
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/backendtest"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/order"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

// Runs the fake fantasy backend as a local dev server with a seeded
// 4-team snake draft.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	seats := []order.TeamSeat{
		{TeamID: uuid.New(), UserID: uuid.New()},
		{TeamID: uuid.New(), UserID: uuid.New()},
		{TeamID: uuid.New(), UserID: uuid.New()},
		{TeamID: uuid.New(), UserID: uuid.New()},
	}
	drivers := []models.Driver{
		{ID: uuid.New(), FullName: "Max Verstappen", Constructor: "Red Bull", Price: models.PriceFromTenths(305), AveragePoints: 24.1},
		{ID: uuid.New(), FullName: "Lando Norris", Constructor: "McLaren", Price: models.PriceFromTenths(290), AveragePoints: 21.4},
		{ID: uuid.New(), FullName: "Charles Leclerc", Constructor: "Ferrari", Price: models.PriceFromTenths(270), AveragePoints: 18.9},
		{ID: uuid.New(), FullName: "Oscar Piastri", Constructor: "McLaren", Price: models.PriceFromTenths(265), AveragePoints: 19.8},
		{ID: uuid.New(), FullName: "Lewis Hamilton", Constructor: "Ferrari", Price: models.PriceFromTenths(240), AveragePoints: 14.2},
		{ID: uuid.New(), FullName: "George Russell", Constructor: "Mercedes", Price: models.PriceFromTenths(235), AveragePoints: 15.6},
		{ID: uuid.New(), FullName: "Kimi Antonelli", Constructor: "Mercedes", Price: models.PriceFromTenths(180), AveragePoints: 9.3},
		{ID: uuid.New(), FullName: "Fernando Alonso", Constructor: "Aston Martin", Price: models.PriceFromTenths(150), AveragePoints: 6.1},
		{ID: uuid.New(), FullName: "Pierre Gasly", Constructor: "Alpine", Price: models.PriceFromTenths(120), AveragePoints: 4.4},
		{ID: uuid.New(), FullName: "Yuki Tsunoda", Constructor: "Red Bull", Price: models.PriceFromTenths(110), AveragePoints: 3.8},
	}

	srv, err := backendtest.NewServer(backendtest.Config{
		LeagueID: uuid.New(),
		RaceID:   uuid.New(),
		Method:   models.DraftMethodSnake,
		Settings: models.DraftSettings{
			PicksPerTeam:      2,
			TimePerPickSec:    60,
			MaxPerConstructor: 1,
			BudgetPerTeam:     models.PriceFromTenths(500),
		},
		Seats:   seats,
		Drivers: drivers,
		Seed:    time.Now().UnixNano(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed dev backend")
	}

	addr := ":8089"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	log.Info().
		Str("addr", addr).
		Str("session_id", srv.SessionID().String()).
		Msg("dev backend listening")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal().Err(err).Msg("dev backend exited")
	}
}
