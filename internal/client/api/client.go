// Package api implements the REST transport for the ChatPulse backend.
// It exposes a Client interface so higher layers can be tested against fakes.
package api

import (
	"context"

	"github.com/chatpulse/chatpulse-cli/internal/client/models"
)

// VerificationDispatch is the backend's answer to a send-verification call.
type VerificationDispatch struct {
	Message          string `json:"message"`
	EmailSent        bool   `json:"email_sent"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// ResetDispatch is the backend's answer to a forgot-password call. The
// message is identical whether or not the account exists.
type ResetDispatch struct {
	Message   string `json:"message"`
	EmailSent bool   `json:"email_sent"`
}

// GoogleLogin is the callback-exchange result: a credential, the profile
// inline, and whether the account was created by this login.
type GoogleLogin struct {
	AccessToken string             `json:"access_token"`
	User        models.UserProfile `json:"user"`
	IsNewUser   bool               `json:"is_new_user"`
}

// Client is the backend API surface consumed by the auth core.
//
// The credential attached via AttachCredential is sent as an
// Authorization: Bearer header on every subsequent request until
// DetachCredential. Only the session store may call those two methods.
type Client interface {
	Close() error

	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context) (*models.UserProfile, error)
	Register(ctx context.Context, reg models.Registration) (*models.UserProfile, error)

	SendVerificationCode(ctx context.Context, email string) (*VerificationDispatch, error)
	VerifyCode(ctx context.Context, email, code string) error
	SignupWithVerification(ctx context.Context, signup models.Signup) (*models.UserProfile, error)

	ForgotPassword(ctx context.Context, email string) (*ResetDispatch, error)
	VerifyResetToken(ctx context.Context, token string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error

	GoogleCallback(ctx context.Context, code, state string) (*GoogleLogin, error)

	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error

	AttachCredential(token string)
	DetachCredential()
	Credential() string
}
