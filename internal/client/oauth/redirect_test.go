package oauth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatpulse/chatpulse-cli/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAuthorizeURL(t *testing.T) {
	u, err := AuthorizeURL("http://localhost:8000/api", "http://127.0.0.1:53682/callback")
	require.NoError(t, err)
	require.Equal(t,
		"http://localhost:8000/api/auth/google/google?redirect_uri=http%3A%2F%2F127.0.0.1%3A53682%2Fcallback",
		u)
}

func TestAuthorizeURL_NoRedirect(t *testing.T) {
	u, err := AuthorizeURL("http://localhost:8000", "")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/auth/google/google", u)
}

func TestListener_DeliversCallback(t *testing.T) {
	l := NewListener(0, testLogger())
	redirectURI, err := l.Start()
	require.NoError(t, err)
	defer l.Close()

	resp, err := http.Get(redirectURI + "?code=abc&state=xyz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cb, err := l.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc", cb.Code)
	require.Equal(t, "xyz", cb.State)
}

func TestListener_DeniedConsent(t *testing.T) {
	l := NewListener(0, testLogger())
	redirectURI, err := l.Start()
	require.NoError(t, err)
	defer l.Close()

	resp, err := http.Get(redirectURI + "?error=access_denied&state=xyz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cb, err := l.Wait(ctx)
	require.NoError(t, err)
	require.Empty(t, cb.Code, "denied consent arrives without a code")
	require.Equal(t, "xyz", cb.State)
}

func TestListener_OnlyFirstHitCounts(t *testing.T) {
	l := NewListener(0, testLogger())
	redirectURI, err := l.Start()
	require.NoError(t, err)
	defer l.Close()

	for _, q := range []string{"?code=first&state=s", "?code=second&state=s"} {
		resp, err := http.Get(redirectURI + q)
		require.NoError(t, err)
		resp.Body.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cb, err := l.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "first", cb.Code)
}

func TestListener_WaitHonorsContext(t *testing.T) {
	l := NewListener(0, testLogger())
	_, err := l.Start()
	require.NoError(t, err)
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
