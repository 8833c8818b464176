package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
// A local .env file is read first when present.
type Config struct {
	DiscordToken string `envconfig:"DISCORD_TOKEN" required:"true"`
	DBPath       string `envconfig:"DB_PATH" default:"./data/paimom.db"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr     string `envconfig:"HTTP_ADDR" default:":8080"`

	// Resin constants. 8 minutes per unit and a 160 ceiling are the
	// in-game values.
	ResinRegenMinutes int `envconfig:"RESIN_REGEN_MINUTES" default:"8"`
	ResinCapacity     int `envconfig:"RESIN_CAPACITY" default:"160"`

	// Job cadences, in cron syntax: dispatch once a minute, (re)schedule
	// reset reminders once an hour.
	DispatchSpec string `envconfig:"DISPATCH_CRON" default:"@every 1m"`
	ScheduleSpec string `envconfig:"SCHEDULE_CRON" default:"0 * * * *"`
}

// Load reads .env (if any) and then the environment into Config.
func Load() (Config, error) {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.ResinRegenMinutes <= 0 || cfg.ResinCapacity <= 0 {
		return cfg, fmt.Errorf("resin constants must be positive: regen=%d capacity=%d",
			cfg.ResinRegenMinutes, cfg.ResinCapacity)
	}
	return cfg, nil
}
