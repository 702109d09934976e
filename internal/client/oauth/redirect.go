// Package oauth implements the browser-redirect half of the Google login
// flow: building the backend's authorization URL and catching the provider's
// redirect back on a loopback listener.
//
// The two phases share no in-memory state. The backend mints the correlation
// state when it serves the initiation endpoint; the client only round-trips
// code and state from the callback to the exchange call.
package oauth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/chatpulse/chatpulse-cli/internal/logging"
)

const callbackPath = "/callback"

// AuthorizeURL builds the backend's OAuth initiation URL. Navigating a
// browser there hands control to the identity provider; the client holds
// nothing across the redirect.
func AuthorizeURL(serverURL, redirectURI string) (string, error) {
	base, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/auth/google/google"

	if redirectURI != "" {
		q := url.Values{}
		q.Set("redirect_uri", redirectURI)
		base.RawQuery = q.Encode()
	}
	return base.String(), nil
}

// Callback carries the query parameters the provider sent back. An empty
// Code means consent was denied or the route was reached directly; the
// exchange must not be attempted in that case.
type Callback struct {
	Code  string
	State string
}

// Listener serves the loopback callback route and delivers exactly one
// Callback to Wait.
type Listener struct {
	port    int
	log     logging.Logger
	srv     *http.Server
	results chan Callback
	once    sync.Once
}

// NewListener prepares a loopback listener on the given port; port 0 picks
// an ephemeral one.
func NewListener(port int, log logging.Logger) *Listener {
	return &Listener{
		port:    port,
		log:     log,
		results: make(chan Callback, 1),
	}
}

// Start binds the listener and returns the redirect URI to hand to the
// backend's initiation endpoint.
func (l *Listener) Start() (string, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", l.port))
	if err != nil {
		return "", fmt.Errorf("bind callback listener: %w", err)
	}

	r := chi.NewRouter()
	r.Get(callbackPath, l.handleCallback)

	l.srv = &http.Server{Handler: r}
	go func() {
		if err := l.srv.Serve(lis); err != nil && err != http.ErrServerClosed {
			l.log.Error(context.Background(), "callback listener stopped", "error", err)
		}
	}()

	return fmt.Sprintf("http://%s%s", lis.Addr().String(), callbackPath), nil
}

// Wait blocks until the browser hits the callback route or ctx expires.
func (l *Listener) Wait(ctx context.Context) (Callback, error) {
	select {
	case cb := <-l.results:
		return cb, nil
	case <-ctx.Done():
		return Callback{}, ctx.Err()
	}
}

func (l *Listener) Close() error {
	if l.srv == nil {
		return nil
	}
	return l.srv.Close()
}

func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	cb := Callback{
		Code:  r.URL.Query().Get("code"),
		State: r.URL.Query().Get("state"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if cb.Code == "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "<html><body><p>Sign-in was cancelled. You can close this window and return to the terminal.</p></body></html>")
	} else {
		fmt.Fprint(w, "<html><body><p>Sign-in received. You can close this window and return to the terminal.</p></body></html>")
	}

	// Only the first hit counts; refreshes of the callback page are ignored.
	l.once.Do(func() { l.results <- cb })
}
