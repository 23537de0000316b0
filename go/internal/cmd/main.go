package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/famgala/FantasyF1-BE-sub002/go/clients"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/session"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/events"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/notifications"
)

// draftwatch follows a live draft: it polls the authoritative turn state,
// subscribes to the realtime channel, and logs picks, turn changes and
// notifications as they land.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}

	token := getEnv("FANTASY_SESSION_TOKEN", "")
	api := clients.NewFantasyClient(cfg.Backend.BaseURL, token)

	leagueID, err := uuid.Parse(cfg.Draft.LeagueID)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid league_id")
	}
	raceID, err := uuid.Parse(cfg.Draft.RaceID)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid race_id")
	}
	teamID, err := uuid.Parse(cfg.Draft.TeamID)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid team_id")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state, err := api.GetDraftSession(ctx, leagueID, raceID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve draft session")
	}
	log.Info().
		Str("session_id", state.Session.ID.String()).
		Str("method", string(state.Session.DraftMethod)).
		Int("teams", len(state.Session.Order)).
		Msg("following draft")

	store := notifications.NewStore(api)
	toasts := notifications.NewToastQueue(nil, time.Duration(cfg.Notifications.ToastDurationSec)*time.Second)

	if page, err := api.ListNotifications(ctx, "", 50); err != nil {
		log.Warn().Err(err).Msg("failed to seed notification feed")
	} else {
		store.Replace(page.Notifications, page.UnreadCount)
	}

	channel := notifications.NewChannelManager(
		notifications.DefaultChannelConfig(cfg.Backend.WebsocketURL, token))
	channel.OnEvent = func(ev *events.Event) {
		payload, perr := events.ParsePayload(ev)
		if perr != nil {
			log.Warn().Err(perr).Str("type", string(ev.Type)).Msg("undecodable event")
			return
		}
		switch p := payload.(type) {
		case events.PickMadePayload:
			log.Info().
				Str("team_id", p.TeamID).
				Str("driver", p.DriverName).
				Int("overall_pick", p.OverallPick).
				Bool("auto", p.IsAutoPick).
				Msg("pick made")
		case events.PickStartedPayload:
			log.Info().
				Str("team_id", p.TeamID).
				Int("round", p.Round).
				Int("position", p.Position).
				Msg("on the clock")
		case events.DraftCompletedPayload:
			log.Info().Int("total_picks", p.TotalPicks).Msg("draft completed")
		case models.Notification:
			store.Ingest(p)
			if notifications.ToastFromEvent(p) {
				toasts.Show(p)
			}
			pres := notifications.PresentationFor(p.Type)
			log.Info().
				Str("title", p.Title).
				Str("icon", pres.Icon).
				Int("unread", store.Unread()).
				Msg(p.Message)
		}
	}
	channel.OnError = func(err error) {
		log.Warn().Err(err).Msg("channel error, feed continues via polling")
	}
	if cfg.Backend.WebsocketURL != "" {
		if err := channel.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("realtime channel unavailable, relying on polling")
		}
		defer channel.Close()
	}

	client, err := session.NewClient(session.Config{
		API:          api,
		SessionID:    state.Session.ID,
		TeamID:       teamID,
		PollInterval: time.Duration(cfg.Draft.PollIntervalSec) * time.Second,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build session client")
	}

	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("draft polling exited")
	}
}
