// Package config loads server configuration from environment variables with
// flag overrides.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the server configuration.
type Config struct {
	// Addr to listen on. Empty means auto-port on localhost.
	Addr string `env:"COUCHBRAWL_ADDR"`
	// DBPath is the SQLite database file. Empty disables persistence.
	DBPath string `env:"COUCHBRAWL_DB_PATH" envDefault:"game.db"`
	// WebDir holds the built client assets served under /web/.
	WebDir string `env:"COUCHBRAWL_WEB_DIR" envDefault:"web"`

	TwitchClientID      string `env:"TWITCH_CLIENT_ID"`
	TwitchClientSecret  string `env:"TWITCH_CLIENT_SECRET"`
	TwitchRedirectURI   string `env:"TWITCH_REDIRECT_URI" envDefault:"http://localhost:5173/auth/callback"`
	TwitchBroadcasterID string `env:"TWITCH_BROADCASTER_ID"`

	// OAuthStateSecret signs the OAuth state parameter. Empty disables
	// state signing and verification.
	OAuthStateSecret string `env:"COUCHBRAWL_OAUTH_STATE_SECRET"`
}

// Parse reads the environment and then applies flag overrides.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Address to listen on (default: auto-port on localhost)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database file (empty disables persistence)")
	fs.StringVar(&cfg.WebDir, "web", cfg.WebDir, "Directory with built client assets")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
