package config

import "time"

// Config holds runtime settings for the ChatPulse CLI.
//
// Fields:
//   - ServerURL: base URL of the backend API, including any path prefix.
//   - CallbackPort: loopback port for the OAuth callback listener (0 picks
//     an ephemeral port).
//   - RequestTimeout: per-request HTTP timeout.
//   - DatabasePath: path of the local sqlite database holding the persisted
//     credential.
type Config struct {
	ServerURL      string
	CallbackPort   int
	RequestTimeout time.Duration
	DatabasePath   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8000/api"
	c.CallbackPort = 53682
	c.RequestTimeout = 15 * time.Second
	c.DatabasePath = "chatpulse.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), environment variables, and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
