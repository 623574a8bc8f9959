// Package config loads runtime settings from the environment, with an
// optional .env file for local use.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment. All fields are
// optional; each command validates what it actually needs.
type Config struct {
	// UserID partitions stored data. Defaults to "default" for single-user
	// local setups.
	UserID string

	// FirestoreProject selects the Firestore backend when set.
	FirestoreProject string
	// FirestoreCredentials is an optional service-account file path.
	FirestoreCredentials string

	// SQLitePath is the local database file for the sqlite backend.
	SQLitePath string

	// GeminiAPIKey enables category suggestions for unmatched lines.
	GeminiAPIKey string
	// GeminiModel overrides the default model name.
	GeminiModel string

	// DiscordToken and DiscordChannelID enable import notifications.
	DiscordToken     string
	DiscordChannelID string
}

// Load reads the environment, merging in a .env file when one exists in the
// working directory. Real environment variables win over file entries.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		UserID:               os.Getenv("FATURA_USER_ID"),
		FirestoreProject:     os.Getenv("FATURA_FIRESTORE_PROJECT"),
		FirestoreCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		SQLitePath:           os.Getenv("FATURA_SQLITE_PATH"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          os.Getenv("FATURA_GEMINI_MODEL"),
		DiscordToken:         os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelID:     os.Getenv("DISCORD_CHANNEL_ID"),
	}
	if cfg.UserID == "" {
		cfg.UserID = "default"
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "fatura.db"
	}
	return cfg
}
