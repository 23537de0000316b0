package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend struct {
		BaseURL      string `yaml:"base_url"`
		WebsocketURL string `yaml:"websocket_url"`
	} `yaml:"backend"`
	Draft struct {
		LeagueID        string `yaml:"league_id"`
		RaceID          string `yaml:"race_id"`
		TeamID          string `yaml:"team_id"`
		PollIntervalSec int    `yaml:"poll_interval_sec"`
	} `yaml:"draft"`
	Notifications struct {
		ToastDurationSec int `yaml:"toast_duration_sec"`
	} `yaml:"notifications"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides win over file values.
	config.Backend.BaseURL = getEnv("FANTASY_BASE_URL", config.Backend.BaseURL)
	config.Backend.WebsocketURL = getEnv("FANTASY_WS_URL", config.Backend.WebsocketURL)
	config.Draft.PollIntervalSec = getEnvAsInt("DRAFT_POLL_INTERVAL_SEC", config.Draft.PollIntervalSec)
	config.Notifications.ToastDurationSec = getEnvAsInt("TOAST_DURATION_SEC", config.Notifications.ToastDurationSec)

	if config.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend base_url is required")
	}
	if config.Draft.PollIntervalSec <= 0 {
		config.Draft.PollIntervalSec = 3
	}
	if config.Notifications.ToastDurationSec <= 0 {
		config.Notifications.ToastDurationSec = 5
	}
	return &config, nil
}
