// Package session owns the client's authenticated state: the single source
// of truth for "is someone logged in, and who".
//
// The store is the only writer of two shared resources: the transport's
// attached credential and the persisted credential. Credential flows never
// touch either directly; they go through Adopt/AdoptProfile/Logout, which is
// what keeps the credential and profile from drifting apart.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chatpulse/chatpulse-cli/internal/client/api"
	"github.com/chatpulse/chatpulse-cli/internal/client/models"
	"github.com/chatpulse/chatpulse-cli/internal/client/repositories/credentials"
	"github.com/chatpulse/chatpulse-cli/internal/logging"
)

// DefaultSessionTTL bounds local storage of a credential when the user did
// not ask to be remembered and the token carries no usable exp claim.
const DefaultSessionTTL = 12 * time.Hour

// Store holds the current session and its persisted credential.
//
// All mutating operations are serialized by a mutex, so when flows resolve
// concurrently the last write wins as a whole; a credential is never
// published with another flow's profile.
type Store struct {
	mu    sync.Mutex
	api   api.Client
	creds credentials.Repository
	log   logging.Logger

	sessionTTL time.Duration
	now        func() time.Time

	current *models.Session
}

func NewStore(client api.Client, repo credentials.Repository, log logging.Logger) *Store {
	return &Store{
		api:        client,
		creds:      repo,
		log:        log,
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
}

// Bootstrap reconstructs the session from the persisted credential. It must
// resolve before anything behind authentication runs.
//
// A missing, locally expired, or backend-rejected credential all resolve to
// the unauthenticated state with persisted state cleared; none of them is an
// error. Only local storage failures are.
func (s *Store) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.creds.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	if stored == nil {
		s.current = nil
		return nil
	}

	if !stored.ExpiresAt.IsZero() && !s.now().Before(stored.ExpiresAt) {
		s.log.Info(ctx, "stored credential expired locally, starting unauthenticated")
		s.discard(ctx)
		return nil
	}

	s.api.AttachCredential(stored.Token)
	profile, err := s.api.Me(ctx)
	if err != nil {
		s.log.Info(ctx, "stored credential rejected, starting unauthenticated", "error", err)
		s.api.DetachCredential()
		s.discard(ctx)
		return nil
	}

	s.current = &models.Session{Credential: stored.Token, User: *profile}
	return nil
}

// Adopt makes the given credential the current session: persists it, attaches
// it to the transport, fetches the owning profile, and publishes the pair.
//
// A failed profile fetch is fatal to the adoption: persisted and attached
// state are rolled back and the error is returned to the flow.
func (s *Store) Adopt(ctx context.Context, credential string, remember bool) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, credential, remember); err != nil {
		return nil, err
	}
	s.api.AttachCredential(credential)

	profile, err := s.api.Me(ctx)
	if err != nil {
		s.api.DetachCredential()
		s.discard(ctx)
		s.current = nil
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	sess := &models.Session{Credential: credential, User: *profile}
	s.current = sess
	return sess, nil
}

// AdoptProfile is Adopt for flows whose exchange already returned the profile
// inline (the OAuth callback); no second profile fetch is issued.
func (s *Store) AdoptProfile(ctx context.Context, credential string, profile models.UserProfile, remember bool) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, credential, remember); err != nil {
		return nil, err
	}
	s.api.AttachCredential(credential)

	sess := &models.Session{Credential: credential, User: profile}
	s.current = sess
	return sess, nil
}

// Logout clears the session. It needs no network call and is safe to call
// when already unauthenticated.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.api.DetachCredential()
	s.current = nil

	if err := s.creds.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// RefreshProfile re-fetches the profile for the current credential and
// republishes the session, e.g. after a profile update elsewhere.
func (s *Store) RefreshProfile(ctx context.Context) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, api.ErrUnauthorized
	}

	profile, err := s.api.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	s.current = &models.Session{Credential: s.current.Credential, User: *profile}
	return profile, nil
}

// Current returns the published session, or nil when unauthenticated.
func (s *Store) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Store) IsAuthenticated() bool {
	return s.Current() != nil
}

func (s *Store) persist(ctx context.Context, credential string, remember bool) error {
	cred := credentials.StoredCredential{
		Token:     credential,
		ExpiresAt: s.storageExpiry(credential, remember),
	}
	if err := s.creds.Save(ctx, cred); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

func (s *Store) discard(ctx context.Context) {
	s.current = nil
	if err := s.creds.Clear(ctx); err != nil {
		s.log.Warn(ctx, "failed to clear stored credential", "error", err)
	}
}

// storageExpiry decides how long the credential stays on disk. With remember
// set it never expires locally. Otherwise the token's own exp claim is used
// when present (peeked without verification; the token stays opaque to the
// client), falling back to sessionTTL.
func (s *Store) storageExpiry(token string, remember bool) time.Time {
	if remember {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return s.now().Add(s.sessionTTL)
}
