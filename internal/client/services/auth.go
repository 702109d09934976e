// Package services contains application services for the ChatPulse client.
// This file defines the authentication service: the credential flows that
// establish, verify, or recover access to an account.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatpulse/chatpulse-cli/internal/client/api"
	"github.com/chatpulse/chatpulse-cli/internal/client/models"
	"github.com/chatpulse/chatpulse-cli/internal/logging"
)

// ErrMissingAuthCode is returned when the OAuth callback was reached without
// an authorization code (consent denied or direct navigation). No exchange
// request is issued in that case.
var ErrMissingAuthCode = errors.New("authorization code missing")

// SessionStore is the slice of the session store the flows need. Flows never
// write transport or persisted state themselves; these primitives do.
type SessionStore interface {
	Adopt(ctx context.Context, credential string, remember bool) (*models.Session, error)
	AdoptProfile(ctx context.Context, credential string, profile models.UserProfile, remember bool) (*models.Session, error)
	Logout(ctx context.Context) error
	IsAuthenticated() bool
}

// AuthService defines the credential flows of the CLI.
//
// Contract:
//   - Login: exchange email+password for a credential and adopt a session.
//   - Register: create an account; no session is adopted.
//   - RequestVerificationCode / SubmitVerificationCode / SignupWithVerification:
//     two-step email proof plus the composite signup; none adopt a session.
//   - RequestPasswordReset / VerifyResetToken / ResetPassword: the reset-link
//     flow; the token is single-use and no session is adopted.
//   - CompleteGoogleLogin: redeem an OAuth callback and adopt a session,
//     reporting whether the account was just created.
//   - Logout: notify the backend best-effort, then clear the session.
//
// Every flow resolves to a plain error; backend rejection reasons travel
// inside *api.Error so callers can display them verbatim.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte, remember bool) error
	Register(ctx context.Context, reg models.Registration) (*models.UserProfile, error)

	RequestVerificationCode(ctx context.Context, email string) (*api.VerificationDispatch, error)
	SubmitVerificationCode(ctx context.Context, email, code string) error
	SignupWithVerification(ctx context.Context, signup models.Signup) (*models.UserProfile, error)

	RequestPasswordReset(ctx context.Context, email string) (*api.ResetDispatch, error)
	VerifyResetToken(ctx context.Context, token string) (string, error)
	ResetPassword(ctx context.Context, token string, newPassword []byte) error

	CompleteGoogleLogin(ctx context.Context, code, state string) (bool, error)

	ChangePassword(ctx context.Context, currentPassword, newPassword []byte) error
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client api.Client
	store  SessionStore
	log    logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and
// session store.
func NewAuthService(client api.Client, store SessionStore, log logging.Logger) AuthService {
	return &authService{client: client, store: store, log: log}
}

// Login exchanges the credentials and adopts the resulting session. The
// remember flag controls only how long the credential is persisted locally,
// never the authentication decision.
func (a *authService) Login(ctx context.Context, email string, password []byte, remember bool) error {
	token, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	if _, err := a.store.Adopt(ctx, token, remember); err != nil {
		return fmt.Errorf("session adoption error: %w", err)
	}
	return nil
}

// Register creates the account on the server. The account must log in (or
// complete verification) afterwards; no session is adopted here.
func (a *authService) Register(ctx context.Context, reg models.Registration) (*models.UserProfile, error) {
	profile, err := a.client.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("registration error: %w", err)
	}
	return profile, nil
}

// RequestVerificationCode asks the backend to dispatch a code to the address.
// Calling it again simply dispatches a fresh code.
func (a *authService) RequestVerificationCode(ctx context.Context, email string) (*api.VerificationDispatch, error) {
	dispatch, err := a.client.SendVerificationCode(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("verification request error: %w", err)
	}
	return dispatch, nil
}

// SubmitVerificationCode validates the code. Success proves control of the
// email but does not create an account or a session.
func (a *authService) SubmitVerificationCode(ctx context.Context, email, code string) error {
	if err := a.client.VerifyCode(ctx, email, code); err != nil {
		return fmt.Errorf("code verification error: %w", err)
	}
	return nil
}

// SignupWithVerification creates the account using a previously verified
// email in one call. No session is adopted.
func (a *authService) SignupWithVerification(ctx context.Context, signup models.Signup) (*models.UserProfile, error) {
	profile, err := a.client.SignupWithVerification(ctx, signup)
	if err != nil {
		return nil, fmt.Errorf("signup error: %w", err)
	}
	return profile, nil
}

// RequestPasswordReset asks for a reset link. The backend answers uniformly
// whether or not the account exists; the dispatch is relayed as-is.
func (a *authService) RequestPasswordReset(ctx context.Context, email string) (*api.ResetDispatch, error) {
	dispatch, err := a.client.ForgotPassword(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("password reset request error: %w", err)
	}
	return dispatch, nil
}

// VerifyResetToken checks a token from a reset link without consuming it and
// returns the email it resolves to.
func (a *authService) VerifyResetToken(ctx context.Context, token string) (string, error) {
	email, err := a.client.VerifyResetToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("reset token verification error: %w", err)
	}
	return email, nil
}

// ResetPassword consumes the token and sets the new password. The user must
// log in with the new password afterwards.
func (a *authService) ResetPassword(ctx context.Context, token string, newPassword []byte) error {
	if err := a.client.ResetPassword(ctx, token, string(newPassword)); err != nil {
		return fmt.Errorf("password reset error: %w", err)
	}
	return nil
}

// CompleteGoogleLogin redeems the callback parameters for a credential and
// adopts the session using the profile returned inline by the exchange.
// It reports whether the backend created the account during this login.
func (a *authService) CompleteGoogleLogin(ctx context.Context, code, state string) (bool, error) {
	if code == "" {
		return false, ErrMissingAuthCode
	}

	res, err := a.client.GoogleCallback(ctx, code, state)
	if err != nil {
		return false, fmt.Errorf("google login error: %w", err)
	}

	if _, err := a.store.AdoptProfile(ctx, res.AccessToken, res.User, true); err != nil {
		return false, fmt.Errorf("session adoption error: %w", err)
	}
	return res.IsNewUser, nil
}

// ChangePassword updates the password for the authenticated account. The
// current session stays valid.
func (a *authService) ChangePassword(ctx context.Context, currentPassword, newPassword []byte) error {
	if err := a.client.ChangePassword(ctx, string(currentPassword), string(newPassword)); err != nil {
		return fmt.Errorf("password change error: %w", err)
	}
	return nil
}

// Logout clears the session. The server is notified best-effort first;
// client-side logout never depends on that call succeeding.
func (a *authService) Logout(ctx context.Context) error {
	if a.store.IsAuthenticated() {
		if err := a.client.Logout(ctx); err != nil {
			a.log.Warn(ctx, "server-side logout failed", "error", err)
		}
	}
	return a.store.Logout(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
