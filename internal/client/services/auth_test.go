package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatpulse/chatpulse-cli/internal/client/api"
	"github.com/chatpulse/chatpulse-cli/internal/client/models"
	"github.com/chatpulse/chatpulse-cli/internal/logging"
)

// ---- fake client ----

// fakeClient implements api.Client for AuthService unit tests, recording the
// last arguments of each call.
type fakeClient struct {
	LoginRet string
	LoginErr error

	RegisterRet *models.UserProfile
	RegisterErr error

	SendVerificationRet *api.VerificationDispatch
	SendVerificationErr error

	VerifyCodeErr error

	SignupRet *models.UserProfile
	SignupErr error

	ForgotRet *api.ResetDispatch
	ForgotErr error

	VerifyResetRet string
	VerifyResetErr error

	GoogleRet *api.GoogleLogin
	GoogleErr error

	LogoutErr         error
	ChangePasswordErr error

	// consumedResetTokens emulates the backend's single-use semantics.
	consumedResetTokens map[string]bool

	LastLoginEmail    string
	LastLoginPassword string
	LastRegister      models.Registration
	LastVerifyEmail   string
	LastVerifyCode    string
	LastSignup        models.Signup
	LastForgotEmail   string
	LastResetToken    string
	LastResetPassword string
	LastGoogleCode    string
	LastGoogleState   string

	GoogleCalls      int
	VerifyResetCalls int
	LogoutCalls      int
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) Login(ctx context.Context, email, password string) (string, error) {
	f.LastLoginEmail, f.LastLoginPassword = email, password
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) Me(ctx context.Context) (*models.UserProfile, error) { return nil, nil }

func (f *fakeClient) Register(ctx context.Context, reg models.Registration) (*models.UserProfile, error) {
	f.LastRegister = reg
	return f.RegisterRet, f.RegisterErr
}

func (f *fakeClient) SendVerificationCode(ctx context.Context, email string) (*api.VerificationDispatch, error) {
	f.LastVerifyEmail = email
	return f.SendVerificationRet, f.SendVerificationErr
}

func (f *fakeClient) VerifyCode(ctx context.Context, email, code string) error {
	f.LastVerifyEmail, f.LastVerifyCode = email, code
	return f.VerifyCodeErr
}

func (f *fakeClient) SignupWithVerification(ctx context.Context, signup models.Signup) (*models.UserProfile, error) {
	f.LastSignup = signup
	return f.SignupRet, f.SignupErr
}

func (f *fakeClient) ForgotPassword(ctx context.Context, email string) (*api.ResetDispatch, error) {
	f.LastForgotEmail = email
	return f.ForgotRet, f.ForgotErr
}

func (f *fakeClient) VerifyResetToken(ctx context.Context, token string) (string, error) {
	f.VerifyResetCalls++
	f.LastResetToken = token
	return f.VerifyResetRet, f.VerifyResetErr
}

func (f *fakeClient) ResetPassword(ctx context.Context, token, newPassword string) error {
	f.LastResetToken, f.LastResetPassword = token, newPassword
	if f.consumedResetTokens == nil {
		f.consumedResetTokens = map[string]bool{}
	}
	if f.consumedResetTokens[token] {
		return &api.Error{Status: http.StatusBadRequest, Detail: "Invalid or expired reset token"}
	}
	f.consumedResetTokens[token] = true
	return nil
}

func (f *fakeClient) GoogleCallback(ctx context.Context, code, state string) (*api.GoogleLogin, error) {
	f.GoogleCalls++
	f.LastGoogleCode, f.LastGoogleState = code, state
	return f.GoogleRet, f.GoogleErr
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.LogoutCalls++
	return f.LogoutErr
}

func (f *fakeClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return f.ChangePasswordErr
}

func (f *fakeClient) AttachCredential(token string) {}
func (f *fakeClient) DetachCredential()             {}
func (f *fakeClient) Credential() string            { return "" }

// ---- fake session store ----

type fakeStore struct {
	authenticated bool

	AdoptErr        error
	AdoptProfileErr error
	LogoutErr       error

	LastAdoptToken    string
	LastAdoptRemember bool
	LastAdoptProfile  models.UserProfile

	AdoptCalls        int
	AdoptProfileCalls int
	LogoutCalls       int
}

func (f *fakeStore) Adopt(ctx context.Context, credential string, remember bool) (*models.Session, error) {
	f.AdoptCalls++
	f.LastAdoptToken, f.LastAdoptRemember = credential, remember
	if f.AdoptErr != nil {
		return nil, f.AdoptErr
	}
	f.authenticated = true
	return &models.Session{Credential: credential}, nil
}

func (f *fakeStore) AdoptProfile(ctx context.Context, credential string, profile models.UserProfile, remember bool) (*models.Session, error) {
	f.AdoptProfileCalls++
	f.LastAdoptToken, f.LastAdoptProfile, f.LastAdoptRemember = credential, profile, remember
	if f.AdoptProfileErr != nil {
		return nil, f.AdoptProfileErr
	}
	f.authenticated = true
	return &models.Session{Credential: credential, User: profile}, nil
}

func (f *fakeStore) Logout(ctx context.Context) error {
	f.LogoutCalls++
	f.authenticated = false
	return f.LogoutErr
}

func (f *fakeStore) IsAuthenticated() bool { return f.authenticated }

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newService(client *fakeClient, store *fakeStore) AuthService {
	return NewAuthService(client, store, testLogger())
}

// ---- TESTS ----

func TestLogin_Success(t *testing.T) {
	client := &fakeClient{LoginRet: "tok-1"}
	store := &fakeStore{}
	svc := newService(client, store)

	err := svc.Login(context.Background(), "u@x.com", []byte("pw"), true)
	require.NoError(t, err)
	require.Equal(t, "u@x.com", client.LastLoginEmail)
	require.Equal(t, "pw", client.LastLoginPassword)
	require.Equal(t, 1, store.AdoptCalls)
	require.Equal(t, "tok-1", store.LastAdoptToken)
	require.True(t, store.LastAdoptRemember)
}

func TestLogin_RejectedCredential(t *testing.T) {
	client := &fakeClient{LoginErr: &api.Error{Status: http.StatusUnauthorized, Detail: "Incorrect email or password"}}
	store := &fakeStore{}
	svc := newService(client, store)

	err := svc.Login(context.Background(), "u@x.com", []byte("wrong"), false)
	require.Error(t, err)
	require.ErrorIs(t, err, api.ErrUnauthorized)
	require.Contains(t, err.Error(), "Incorrect email or password")
	require.Zero(t, store.AdoptCalls, "session store must stay untouched")
	require.False(t, store.IsAuthenticated())
}

func TestLogin_AdoptionFailureSurfaces(t *testing.T) {
	client := &fakeClient{LoginRet: "tok-1"}
	store := &fakeStore{AdoptErr: errors.New("profile fetch failed")}
	svc := newService(client, store)

	err := svc.Login(context.Background(), "u@x.com", []byte("pw"), false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "session adoption error")
	require.False(t, store.IsAuthenticated())
}

func TestRegister_DoesNotAdoptSession(t *testing.T) {
	client := &fakeClient{RegisterRet: &models.UserProfile{ID: 1, Email: "u@x.com"}}
	store := &fakeStore{}
	svc := newService(client, store)

	profile, err := svc.Register(context.Background(), models.Registration{
		Email: "u@x.com", Username: "u", Password: "pw", Company: "Acme",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), profile.ID)
	require.Equal(t, "Acme", client.LastRegister.Company)
	require.Zero(t, store.AdoptCalls, "registration is decoupled from login")
}

func TestRegister_BackendMessageVerbatim(t *testing.T) {
	client := &fakeClient{RegisterErr: &api.Error{Status: http.StatusBadRequest, Detail: "Email or username already registered"}}
	svc := newService(client, &fakeStore{})

	_, err := svc.Register(context.Background(), models.Registration{Email: "u@x.com", Username: "u", Password: "pw"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Email or username already registered")
}

func TestVerificationFlow(t *testing.T) {
	client := &fakeClient{
		SendVerificationRet: &api.VerificationDispatch{Message: "sent", EmailSent: true, ExpiresInMinutes: 10},
	}
	store := &fakeStore{}
	svc := newService(client, store)
	ctx := context.Background()

	dispatch, err := svc.RequestVerificationCode(ctx, "u@x.com")
	require.NoError(t, err)
	require.True(t, dispatch.EmailSent)

	require.NoError(t, svc.SubmitVerificationCode(ctx, "u@x.com", "123456"))
	require.Equal(t, "123456", client.LastVerifyCode)
	require.Zero(t, store.AdoptCalls, "verification alone never yields a session")
}

func TestSubmitVerificationCode_WrongCode(t *testing.T) {
	client := &fakeClient{VerifyCodeErr: &api.Error{Status: http.StatusBadRequest, Detail: "Invalid verification code"}}
	store := &fakeStore{}
	svc := newService(client, store)

	err := svc.SubmitVerificationCode(context.Background(), "u@x.com", "000000")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid verification code")
	require.False(t, store.IsAuthenticated())
}

func TestSubmitVerificationCode_ExpiredCodeDistinct(t *testing.T) {
	client := &fakeClient{VerifyCodeErr: &api.Error{Status: http.StatusBadRequest, Detail: "Verification code has expired"}}
	svc := newService(client, &fakeStore{})

	err := svc.SubmitVerificationCode(context.Background(), "u@x.com", "123456")
	require.Error(t, err)
	require.Contains(t, err.Error(), "expired", "expired must not be conflated with wrong code")
}

func TestSignupWithVerification_NoSession(t *testing.T) {
	client := &fakeClient{SignupRet: &models.UserProfile{Email: "u@x.com", IsVerified: true}}
	store := &fakeStore{}
	svc := newService(client, store)

	profile, err := svc.SignupWithVerification(context.Background(), models.Signup{
		Registration:     models.Registration{Email: "u@x.com", Username: "u", Password: "pw"},
		VerificationCode: "123456",
	})
	require.NoError(t, err)
	require.True(t, profile.IsVerified)
	require.Equal(t, "123456", client.LastSignup.VerificationCode)
	require.Zero(t, store.AdoptCalls)
}

func TestRequestPasswordReset_UniformResponse(t *testing.T) {
	client := &fakeClient{ForgotRet: &api.ResetDispatch{
		Message: "If an account with this email exists, a password reset link has been sent.",
	}}
	svc := newService(client, &fakeStore{})

	dispatch, err := svc.RequestPasswordReset(context.Background(), "nobody@x.com")
	require.NoError(t, err, "the flow reports success whenever the request reached the backend")
	require.Contains(t, dispatch.Message, "If an account with this email exists")
}

func TestVerifyResetToken_DoesNotConsume(t *testing.T) {
	client := &fakeClient{VerifyResetRet: "u@x.com"}
	svc := newService(client, &fakeStore{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		email, err := svc.VerifyResetToken(ctx, "tok-reset")
		require.NoError(t, err)
		require.Equal(t, "u@x.com", email)
	}
	require.Equal(t, 3, client.VerifyResetCalls)
}

func TestResetPassword_SingleUse(t *testing.T) {
	client := &fakeClient{}
	store := &fakeStore{}
	svc := newService(client, store)
	ctx := context.Background()

	require.NoError(t, svc.ResetPassword(ctx, "tok-reset", []byte("newpw")))
	require.Equal(t, "newpw", client.LastResetPassword)
	require.Zero(t, store.AdoptCalls, "reset never short-circuits into a session")

	err := svc.ResetPassword(ctx, "tok-reset", []byte("again"))
	require.Error(t, err, "a consumed token must be rejected")
	require.Contains(t, err.Error(), "Invalid or expired reset token")
}

func TestCompleteGoogleLogin_Success(t *testing.T) {
	client := &fakeClient{GoogleRet: &api.GoogleLogin{
		AccessToken: "tok-g",
		User:        models.UserProfile{ID: 9, Email: "g@x.com"},
		IsNewUser:   true,
	}}
	store := &fakeStore{}
	svc := newService(client, store)

	isNew, err := svc.CompleteGoogleLogin(context.Background(), "abc", "xyz")
	require.NoError(t, err)
	require.True(t, isNew)
	require.Equal(t, "abc", client.LastGoogleCode)
	require.Equal(t, "xyz", client.LastGoogleState)
	require.Equal(t, 1, store.AdoptProfileCalls, "inline profile must be adopted directly")
	require.Equal(t, "tok-g", store.LastAdoptToken)
	require.Equal(t, "g@x.com", store.LastAdoptProfile.Email)
}

func TestCompleteGoogleLogin_MissingCode(t *testing.T) {
	client := &fakeClient{}
	store := &fakeStore{}
	svc := newService(client, store)

	_, err := svc.CompleteGoogleLogin(context.Background(), "", "xyz")
	require.ErrorIs(t, err, ErrMissingAuthCode)
	require.Zero(t, client.GoogleCalls, "no exchange request may be issued without a code")
	require.False(t, store.IsAuthenticated())
}

func TestCompleteGoogleLogin_BackendRejection(t *testing.T) {
	client := &fakeClient{GoogleErr: &api.Error{Status: http.StatusBadRequest, Detail: "Google authentication failed: bad state"}}
	store := &fakeStore{}
	svc := newService(client, store)

	_, err := svc.CompleteGoogleLogin(context.Background(), "abc", "tampered")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Google authentication failed")
	require.False(t, store.IsAuthenticated())
}

func TestLogout_NotifiesServerBestEffort(t *testing.T) {
	client := &fakeClient{}
	store := &fakeStore{authenticated: true}
	svc := newService(client, store)

	require.NoError(t, svc.Logout(context.Background()))
	require.Equal(t, 1, client.LogoutCalls)
	require.Equal(t, 1, store.LogoutCalls)
	require.False(t, store.IsAuthenticated())
}

func TestLogout_ServerFailureStillClears(t *testing.T) {
	client := &fakeClient{LogoutErr: api.ErrUnavailable}
	store := &fakeStore{authenticated: true}
	svc := newService(client, store)

	require.NoError(t, svc.Logout(context.Background()), "client-side logout never depends on the server call")
	require.False(t, store.IsAuthenticated())
}

func TestLogout_SkipsServerWhenUnauthenticated(t *testing.T) {
	client := &fakeClient{}
	store := &fakeStore{}
	svc := newService(client, store)

	require.NoError(t, svc.Logout(context.Background()))
	require.Zero(t, client.LogoutCalls)
	require.Equal(t, 1, store.LogoutCalls)
}
