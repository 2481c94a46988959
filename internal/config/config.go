// Package config loads Scouter's environment-sourced configuration:
// database connectivity, scheduler tunables, and alert-dispatch
// credentials. File-based profile config and CLI flag parsing are handled
// by the external collaborators this module assumes already exist.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Database holds PostgreSQL connection settings, parsed from DATABASE_URL
// and MAX_CONNECTIONS per spec §6.
type Database struct {
	URL             string
	MaxConnections  int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Scheduler holds tunables for the drift scheduler's poll loop (§4.2).
type Scheduler struct {
	// PollInterval is the idle-sleep duration when no profile is due.
	PollInterval time.Duration
}

// Dispatch holds the environment-sourced credentials consulted by the
// alert-dispatcher factory (§4.5, §6).
type Dispatch struct {
	OpsGenieAPIKey string
	OpsGenieAPIURL string
	OpsGenieTeam   string
	SlackAppToken  string
	SlackAPIURL    string
}

// Ingest holds tunables for the trace ingest pipeline (§4.4).
type Ingest struct {
	// Root is the object-store root under which trace_spans/ is laid out.
	Root string
	// CompactionInterval is how often the background compaction timer
	// fires; a zero value disables the timer (callers still may trigger
	// Optimize explicitly).
	CompactionInterval time.Duration
	// TargetFileSizeBytes is the OPTIMIZE target-file-size (128 MiB default).
	TargetFileSizeBytes int64
}

// Config is the umbrella object returned by Load.
type Config struct {
	Database  Database
	Scheduler Scheduler
	Dispatch  Dispatch
	Ingest    Ingest
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load reads Scouter's environment-sourced configuration, applying
// defaults where a variable is unset.
func Load() (*Config, error) {
	maxConns, err := strconv.Atoi(getEnv("MAX_CONNECTIONS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_CONNECTIONS: %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &Config{
		Database: Database{
			URL:             dbURL,
			MaxConnections:  maxConns,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 15 * time.Minute,
		},
		Scheduler: Scheduler{
			PollInterval: 10 * time.Second,
		},
		Dispatch: Dispatch{
			OpsGenieAPIKey: os.Getenv("OPSGENIE_API_KEY"),
			OpsGenieAPIURL: getEnv("OPSGENIE_API_URL", "https://api.opsgenie.com"),
			OpsGenieTeam:   os.Getenv("OPSGENIE_TEAM"),
			SlackAppToken:  os.Getenv("SLACK_APP_TOKEN"),
			SlackAPIURL:    os.Getenv("SLACK_API_URL"),
		},
		Ingest: Ingest{
			Root:                getEnv("TRACE_STORE_ROOT", "./data"),
			CompactionInterval:  time.Hour,
			TargetFileSizeBytes: 128 * 1024 * 1024,
		},
	}, nil
}
