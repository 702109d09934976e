package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig is a DTO for the CHATPULSE_* environment variables.
type envConfig struct {
	ServerURL      string        `env:"CHATPULSE_SERVER_URL"`
	CallbackPort   int           `env:"CHATPULSE_CALLBACK_PORT"`
	RequestTimeout time.Duration `env:"CHATPULSE_REQUEST_TIMEOUT"`
	DatabasePath   string        `env:"CHATPULSE_DB_PATH"`
}

// parseEnv overlays Config with environment values. Unset variables leave
// the Config untouched; malformed values panic, matching the JSON layer.
func parseEnv(cfg *Config) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		panic(err)
	}

	if ec.ServerURL != "" {
		cfg.ServerURL = ec.ServerURL
	}
	if ec.CallbackPort != 0 {
		cfg.CallbackPort = ec.CallbackPort
	}
	if ec.RequestTimeout != 0 {
		cfg.RequestTimeout = ec.RequestTimeout
	}
	if ec.DatabasePath != "" {
		cfg.DatabasePath = ec.DatabasePath
	}
}
