package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"chatpulse"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withArgs(t)

	cfg := LoadConfig()
	require.Equal(t, "http://localhost:8000/api", cfg.ServerURL)
	require.Equal(t, 53682, cfg.CallbackPort)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Equal(t, "chatpulse.db", cfg.DatabasePath)
}

func TestLoadConfig_Flags(t *testing.T) {
	withArgs(t, "-a", "https://api.chatpulse.io", "-t", "30", "-p", "9999")

	cfg := LoadConfig()
	require.Equal(t, "https://api.chatpulse.io", cfg.ServerURL)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.Equal(t, 9999, cfg.CallbackPort)
	require.Equal(t, "chatpulse.db", cfg.DatabasePath, "untouched fields keep defaults")
}

func TestLoadConfig_Env(t *testing.T) {
	withArgs(t)
	t.Setenv("CHATPULSE_SERVER_URL", "https://env.chatpulse.io")
	t.Setenv("CHATPULSE_REQUEST_TIMEOUT", "45s")

	cfg := LoadConfig()
	require.Equal(t, "https://env.chatpulse.io", cfg.ServerURL)
	require.Equal(t, 45*time.Second, cfg.RequestTimeout)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	withArgs(t, "-a", "https://flag.chatpulse.io")
	t.Setenv("CHATPULSE_SERVER_URL", "https://env.chatpulse.io")

	cfg := LoadConfig()
	require.Equal(t, "https://flag.chatpulse.io", cfg.ServerURL)
}
